package repositories

import (
	"context"

	"docshelf/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// PurchaseRepository handles purchase data access
type PurchaseRepository struct {
	db *gorm.DB
}

// NewPurchaseRepository creates a new purchase repository
func NewPurchaseRepository(db *gorm.DB) *PurchaseRepository {
	return &PurchaseRepository{db: db}
}

// Create creates a new purchase
func (r *PurchaseRepository) Create(ctx context.Context, purchase *models.Purchase) error {
	return r.db.WithContext(ctx).Create(purchase).Error
}

// GetByID gets a purchase by ID with relations
func (r *PurchaseRepository) GetByID(ctx context.Context, id uint) (*models.Purchase, error) {
	var purchase models.Purchase
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Document").
		Preload("Approver").
		First(&purchase, id).Error
	if err != nil {
		return nil, err
	}
	return &purchase, nil
}

// ListByUser lists a user's purchases, newest first
func (r *PurchaseRepository) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]*models.Purchase, int64, error) {
	var purchases []*models.Purchase
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Purchase{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Preload("Document").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&purchases).Error

	return purchases, total, err
}

// List lists purchases with an optional status filter
func (r *PurchaseRepository) List(ctx context.Context, status string, offset, limit int) ([]*models.Purchase, int64, error) {
	var purchases []*models.Purchase
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Purchase{})
	if status != "" {
		query = query.Where("status = ?", status)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := r.db.WithContext(ctx).
		Preload("User").
		Preload("Document")
	if status != "" {
		listQuery = listQuery.Where("status = ?", status)
	}

	err := listQuery.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&purchases).Error

	return purchases, total, err
}
