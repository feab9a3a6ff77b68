package repositories

import (
	"context"
	"time"

	"docshelf/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// DiscountCodeRepository handles discount code data access
type DiscountCodeRepository struct {
	db *gorm.DB
}

// NewDiscountCodeRepository creates a new discount code repository
func NewDiscountCodeRepository(db *gorm.DB) *DiscountCodeRepository {
	return &DiscountCodeRepository{db: db}
}

// Create creates a new discount code
func (r *DiscountCodeRepository) Create(ctx context.Context, code *models.DiscountCode) error {
	return r.db.WithContext(ctx).Create(code).Error
}

// GetByID gets a discount code by ID
func (r *DiscountCodeRepository) GetByID(ctx context.Context, id uint) (*models.DiscountCode, error) {
	var code models.DiscountCode
	err := r.db.WithContext(ctx).First(&code, id).Error
	if err != nil {
		return nil, err
	}
	return &code, nil
}

// GetByCode gets a discount code by its code string
func (r *DiscountCodeRepository) GetByCode(ctx context.Context, code string) (*models.DiscountCode, error) {
	var dc models.DiscountCode
	err := r.db.WithContext(ctx).Where("code = ?", code).First(&dc).Error
	if err != nil {
		return nil, err
	}
	return &dc, nil
}

// List lists discount codes with pagination
func (r *DiscountCodeRepository) List(ctx context.Context, offset, limit int) ([]*models.DiscountCode, int64, error) {
	var codes []*models.DiscountCode
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.DiscountCode{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&codes).Error

	return codes, total, err
}

// Update updates a discount code
func (r *DiscountCodeRepository) Update(ctx context.Context, code *models.DiscountCode) error {
	return r.db.WithContext(ctx).Save(code).Error
}

// Delete soft deletes a discount code
func (r *DiscountCodeRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Delete(&models.DiscountCode{}, id).Error
}

// DeactivateExpired deactivates codes whose expiry has passed.
// Run by the nightly maintenance job; evaluation also checks expiry at
// read time, so this is bookkeeping rather than correctness.
func (r *DiscountCodeRepository) DeactivateExpired(ctx context.Context) error {
	return r.db.WithContext(ctx).Model(&models.DiscountCode{}).
		Where("is_active = ? AND expires_at IS NOT NULL AND expires_at < ?", true, time.Now()).
		Update("is_active", false).Error
}
