package repositories

import (
	"context"
	"time"

	"docshelf/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// LicenseRepository handles license data access
type LicenseRepository struct {
	db *gorm.DB
}

// NewLicenseRepository creates a new license repository
func NewLicenseRepository(db *gorm.DB) *LicenseRepository {
	return &LicenseRepository{db: db}
}

// GetByPair gets the license row for a (user, document) pair regardless of
// its state. At most one row exists per pair.
func (r *LicenseRepository) GetByPair(ctx context.Context, userID, documentID uint) (*models.License, error) {
	var license models.License
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND document_id = ?", userID, documentID).
		First(&license).Error
	if err != nil {
		return nil, err
	}
	return &license, nil
}

// GetGranting gets the license for a pair only if it currently grants full
// access: is_active and not past expiry.
func (r *LicenseRepository) GetGranting(ctx context.Context, userID, documentID uint) (*models.License, error) {
	var license models.License
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND document_id = ? AND is_active = ?", userID, documentID, true).
		Where("expires_at IS NULL OR expires_at > ?", time.Now()).
		First(&license).Error
	if err != nil {
		return nil, err
	}
	return &license, nil
}

// ListByUser lists a user's licenses with document details
func (r *LicenseRepository) ListByUser(ctx context.Context, userID uint) ([]*models.License, error) {
	var licenses []*models.License
	err := r.db.WithContext(ctx).
		Preload("Document").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&licenses).Error
	return licenses, err
}

// Deactivate marks a license inactive
func (r *LicenseRepository) Deactivate(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Model(&models.License{}).
		Where("id = ?", id).
		Update("is_active", false).Error
}
