package repositories

import (
	"context"

	"docshelf/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// FilePermissionRepository handles file permission data access
type FilePermissionRepository struct {
	db *gorm.DB
}

// NewFilePermissionRepository creates a new file permission repository
func NewFilePermissionRepository(db *gorm.DB) *FilePermissionRepository {
	return &FilePermissionRepository{db: db}
}

// GetByPair gets the permission row for a (user, document) pair
func (r *FilePermissionRepository) GetByPair(ctx context.Context, userID, documentID uint) (*models.FilePermission, error) {
	var perm models.FilePermission
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND document_id = ?", userID, documentID).
		First(&perm).Error
	if err != nil {
		return nil, err
	}
	return &perm, nil
}

// HasActiveGrant reports whether an active grant exists for the pair
func (r *FilePermissionRepository) HasActiveGrant(ctx context.Context, userID, documentID uint) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.FilePermission{}).
		Where("user_id = ? AND document_id = ? AND is_active = ?", userID, documentID, true).
		Count(&count).Error
	return count > 0, err
}

// Create creates a new permission grant
func (r *FilePermissionRepository) Create(ctx context.Context, perm *models.FilePermission) error {
	return r.db.WithContext(ctx).Create(perm).Error
}

// Update updates a permission grant
func (r *FilePermissionRepository) Update(ctx context.Context, perm *models.FilePermission) error {
	return r.db.WithContext(ctx).Save(perm).Error
}

// ListByDocument lists grants for a document
func (r *FilePermissionRepository) ListByDocument(ctx context.Context, documentID uint) ([]*models.FilePermission, error) {
	var perms []*models.FilePermission
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Granter").
		Where("document_id = ?", documentID).
		Order("created_at DESC").
		Find(&perms).Error
	return perms, err
}

// ListByUser lists grants for a user
func (r *FilePermissionRepository) ListByUser(ctx context.Context, userID uint) ([]*models.FilePermission, error) {
	var perms []*models.FilePermission
	err := r.db.WithContext(ctx).
		Preload("Document").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&perms).Error
	return perms, err
}
