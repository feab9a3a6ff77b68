package repositories

import (
	"context"

	"docshelf/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// DocumentRepository handles document data access
type DocumentRepository struct {
	db *gorm.DB
}

// NewDocumentRepository creates a new document repository
func NewDocumentRepository(db *gorm.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create creates a new document
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	return r.db.WithContext(ctx).Create(doc).Error
}

// GetByID gets a document by ID
func (r *DocumentRepository) GetByID(ctx context.Context, id uint) (*models.Document, error) {
	var doc models.Document
	err := r.db.WithContext(ctx).First(&doc, id).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// GetActiveByID gets an active document by ID
func (r *DocumentRepository) GetActiveByID(ctx context.Context, id uint) (*models.Document, error) {
	var doc models.Document
	err := r.db.WithContext(ctx).Where("id = ? AND is_active = ?", id, true).First(&doc).Error
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

// List lists documents with pagination. activeOnly hides deactivated
// documents from non-admin listings.
func (r *DocumentRepository) List(ctx context.Context, offset, limit int, activeOnly bool) ([]*models.Document, int64, error) {
	var docs []*models.Document
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Document{})
	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&docs).Error
	return docs, total, err
}

// Update updates a document
func (r *DocumentRepository) Update(ctx context.Context, doc *models.Document) error {
	return r.db.WithContext(ctx).Save(doc).Error
}

// Deactivate soft deletes a document
func (r *DocumentRepository) Deactivate(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Model(&models.Document{}).
		Where("id = ?", id).
		Update("is_active", false).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Delete(&models.Document{}, id).Error
}

// IncrementViewCount atomically bumps the view counter
func (r *DocumentRepository) IncrementViewCount(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.Document{}).
		Where("id = ?", id).
		UpdateColumn("view_count", gorm.Expr("view_count + 1")).Error
}
