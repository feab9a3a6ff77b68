package services

import (
	"context"
	"errors"

	"docshelf/internal/adapters/persistence/models"
	"docshelf/internal/adapters/persistence/repositories"

	"gorm.io/gorm"
)

// Permission service errors
var (
	ErrPermissionNotFound = errors.New("file permission not found")
	ErrGrantTargetMissing = errors.New("user or document not found")
)

// PermissionService manages the admin-granted entitlement overlay. A grant
// gives a user full access to a document independent of purchase history.
type PermissionService struct {
	permissionRepo *repositories.FilePermissionRepository
	userRepo       repositories.UserRepository
	documentRepo   *repositories.DocumentRepository
	activityRepo   *repositories.ActivityLogRepository
}

// NewPermissionService creates a new permission service
func NewPermissionService(
	permissionRepo *repositories.FilePermissionRepository,
	userRepo repositories.UserRepository,
	documentRepo *repositories.DocumentRepository,
	activityRepo *repositories.ActivityLogRepository,
) *PermissionService {
	return &PermissionService{
		permissionRepo: permissionRepo,
		userRepo:       userRepo,
		documentRepo:   documentRepo,
		activityRepo:   activityRepo,
	}
}

// Grant creates or reactivates a permission for a (user, document) pair.
// Re-granting an existing pair is an upsert, not a conflict.
func (s *PermissionService) Grant(ctx context.Context, adminID, userID, documentID uint, ipAddress string) (*models.FilePermission, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGrantTargetMissing
		}
		return nil, err
	}
	if _, err := s.documentRepo.GetByID(ctx, documentID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrGrantTargetMissing
		}
		return nil, err
	}

	perm, err := s.permissionRepo.GetByPair(ctx, userID, documentID)
	switch {
	case err == nil:
		perm.IsActive = true
		perm.GrantedBy = adminID
		if err := s.permissionRepo.Update(ctx, perm); err != nil {
			return nil, err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		perm = &models.FilePermission{
			UserID:     userID,
			DocumentID: documentID,
			GrantedBy:  adminID,
			IsActive:   true,
		}
		if err := s.permissionRepo.Create(ctx, perm); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	entry := models.NewActivityLog(&adminID, models.ActionPermissionGrant, models.EntityDocument, &documentID,
		models.PermissionDetail{UserID: userID, DocumentID: documentID, GrantedBy: adminID}, ipAddress)
	if err := s.activityRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	return perm, nil
}

// Revoke deactivates a permission for a (user, document) pair
func (s *PermissionService) Revoke(ctx context.Context, adminID, userID, documentID uint, ipAddress string) error {
	perm, err := s.permissionRepo.GetByPair(ctx, userID, documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrPermissionNotFound
		}
		return err
	}

	perm.IsActive = false
	if err := s.permissionRepo.Update(ctx, perm); err != nil {
		return err
	}

	entry := models.NewActivityLog(&adminID, models.ActionPermissionRevoke, models.EntityDocument, &documentID,
		models.PermissionDetail{UserID: userID, DocumentID: documentID, GrantedBy: perm.GrantedBy}, ipAddress)
	return s.activityRepo.Create(ctx, entry)
}

// ListByDocument lists grants for a document
func (s *PermissionService) ListByDocument(ctx context.Context, documentID uint) ([]*models.FilePermission, error) {
	return s.permissionRepo.ListByDocument(ctx, documentID)
}

// ListByUser lists grants for a user
func (s *PermissionService) ListByUser(ctx context.Context, userID uint) ([]*models.FilePermission, error) {
	return s.permissionRepo.ListByUser(ctx, userID)
}
