package repositories

import (
	"context"

	"docshelf/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// ActivityLogRepository handles the append-only audit trail
type ActivityLogRepository struct {
	db *gorm.DB
}

// NewActivityLogRepository creates a new activity log repository
func NewActivityLogRepository(db *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

// Create appends an audit entry
func (r *ActivityLogRepository) Create(ctx context.Context, entry *models.ActivityLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// List lists audit entries, newest first, with an optional action filter
func (r *ActivityLogRepository) List(ctx context.Context, action string, offset, limit int) ([]*models.ActivityLog, int64, error) {
	var entries []*models.ActivityLog
	var total int64

	query := r.db.WithContext(ctx).Model(&models.ActivityLog{})
	if action != "" {
		query = query.Where("action = ?", action)
	}
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := r.db.WithContext(ctx).Preload("User")
	if action != "" {
		listQuery = listQuery.Where("action = ?", action)
	}

	err := listQuery.
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error

	return entries, total, err
}

// ListByUser lists audit entries for one user
func (r *ActivityLogRepository) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]*models.ActivityLog, int64, error) {
	var entries []*models.ActivityLog
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.ActivityLog{}).
		Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).
		Limit(limit).
		Find(&entries).Error

	return entries, total, err
}
