package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"docshelf/internal/adapters/persistence/models"
	"docshelf/internal/adapters/persistence/repositories"
	"docshelf/internal/core/domain"
	"docshelf/internal/pkg/password"

	"gorm.io/gorm"
)

// User service errors
var (
	ErrUserNotFoundSvc    = errors.New("user not found")
	ErrEmailAlreadyExists = errors.New("email already exists")
	ErrOldPasswordWrong   = errors.New("old password is incorrect")
	ErrCannotDeleteSelf   = errors.New("cannot delete your own account")
	ErrInvalidRole        = errors.New("invalid role")
)

// UserService handles user management business logic. Every mutation that
// can touch the administrator invariants consults the AdminGuard first.
type UserService struct {
	db           *gorm.DB
	userRepo     repositories.UserRepository
	guard        *AdminGuard
	activityRepo *repositories.ActivityLogRepository
}

// NewUserService creates a new user service
func NewUserService(
	db *gorm.DB,
	userRepo repositories.UserRepository,
	guard *AdminGuard,
	activityRepo *repositories.ActivityLogRepository,
) *UserService {
	return &UserService{
		db:           db,
		userRepo:     userRepo,
		guard:        guard,
		activityRepo: activityRepo,
	}
}

// ListUsers lists all users with pagination
func (s *UserService) ListUsers(ctx context.Context, offset, limit int) ([]*models.UserResponse, int64, error) {
	users, total, err := s.userRepo.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]*models.UserResponse, len(users))
	for i, user := range users {
		responses[i] = user.ToResponse()
	}
	return responses, total, nil
}

// GetUserByID gets a user by ID
func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFoundSvc
		}
		return nil, err
	}
	return user.ToResponse(), nil
}

// ChangeRole changes a user's role (admin only)
func (s *UserService) ChangeRole(ctx context.Context, id uint, adminID uint, newRole string, ipAddress string) (*models.UserResponse, error) {
	role := domain.Role(newRole)
	if role != domain.RoleUser && role != domain.RoleAdmin {
		return nil, ErrInvalidRole
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFoundSvc
		}
		return nil, err
	}

	if err := s.guard.CheckRoleChange(ctx, adminID, user, newRole, ipAddress); err != nil {
		return nil, err
	}

	oldRole := user.Role
	user.Role = newRole
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	entry := models.NewActivityLog(&adminID, models.ActionRoleChanged, models.EntityUser, &user.ID,
		models.RoleChangeDetail{From: oldRole, To: newRole}, ipAddress)
	if err := s.activityRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	return user.ToResponse(), nil
}

// ChangeActiveStatus activates or deactivates a user (admin only)
func (s *UserService) ChangeActiveStatus(ctx context.Context, id uint, adminID uint, isActive bool, ipAddress string) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFoundSvc
		}
		return nil, err
	}

	if err := s.guard.CheckStatusChange(ctx, adminID, user, isActive, ipAddress); err != nil {
		return nil, err
	}

	user.IsActive = isActive
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	entry := models.NewActivityLog(&adminID, models.ActionStatusChanged, models.EntityUser, &user.ID,
		models.UserStatusDetail{IsActive: isActive}, ipAddress)
	if err := s.activityRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	return user.ToResponse(), nil
}

// DeleteUser soft deletes a user: the row is anonymized and deactivated so
// purchases and audit history keep a referent without exposing identity.
func (s *UserService) DeleteUser(ctx context.Context, id uint, adminID uint, ipAddress string) error {
	if id == adminID {
		return ErrCannotDeleteSelf
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrUserNotFoundSvc
		}
		return err
	}

	if err := s.guard.CheckDelete(ctx, adminID, user, OpSoftDelete, ipAddress); err != nil {
		return err
	}

	username := user.Username
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user.Username = fmt.Sprintf("deleted-user-%d", user.ID)
		user.Email = fmt.Sprintf("deleted-%d@removed.invalid", user.ID)
		user.IsActive = false
		if err := tx.Save(user).Error; err != nil {
			return err
		}
		return tx.Delete(user).Error
	})
	if err != nil {
		return err
	}

	entry := models.NewActivityLog(&adminID, models.ActionUserDeleted, models.EntityUser, &id,
		models.UserDeleteDetail{Permanent: false, Username: username}, ipAddress)
	return s.activityRepo.Create(ctx, entry)
}

// PermanentlyDeleteUser removes a user and everything referencing them:
// licenses, file permissions, activity, purchases, refresh tokens. All
// cascades commit together or not at all.
func (s *UserService) PermanentlyDeleteUser(ctx context.Context, id uint, adminID uint, ipAddress string) error {
	if id == adminID {
		return ErrCannotDeleteSelf
	}

	user, err := s.getIncludingDeleted(ctx, id)
	if err != nil {
		return err
	}

	if err := s.guard.CheckDelete(ctx, adminID, user, OpPermanentDelete, ipAddress); err != nil {
		return err
	}

	username := user.Username
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", id).Delete(&models.License{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.FilePermission{}).Error; err != nil {
			return err
		}
		// Both directions: rows the user authored and rows other actors
		// wrote about them (role/status changes, the soft-delete entry)
		if err := tx.Where("user_id = ?", id).Delete(&models.ActivityLog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("entity_type = ? AND entity_id = ?", models.EntityUser, id).
			Delete(&models.ActivityLog{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.Purchase{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", id).Delete(&models.RefreshToken{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Delete(&models.User{}, id).Error
	})
	if err != nil {
		return err
	}

	// No EntityID: nothing may keep referencing the purged user's id
	entry := models.NewActivityLog(&adminID, models.ActionUserPurged, models.EntityUser, nil,
		models.UserDeleteDetail{Permanent: true, Username: username}, ipAddress)
	return s.activityRepo.Create(ctx, entry)
}

// getIncludingDeleted finds a user even after a soft delete, so a
// soft-deleted account can still be purged.
func (s *UserService) getIncludingDeleted(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).Unscoped().First(&user, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFoundSvc
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfileInput represents update profile input (for self)
type UpdateProfileInput struct {
	Email *string `json:"email"`
}

// GetProfile gets own profile
func (s *UserService) GetProfile(ctx context.Context, userID uint) (*models.UserResponse, error) {
	return s.GetUserByID(ctx, userID)
}

// UpdateProfile updates own profile
func (s *UserService) UpdateProfile(ctx context.Context, userID uint, input *UpdateProfileInput) (*models.UserResponse, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, ErrUserNotFoundSvc
	}

	if input.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*input.Email))
		if email != user.Email {
			exists, _ := s.userRepo.ExistsByEmail(ctx, email)
			if exists {
				return nil, ErrEmailAlreadyExists
			}
			user.Email = email
		}
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user.ToResponse(), nil
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// ChangePassword changes user's password
func (s *UserService) ChangePassword(ctx context.Context, userID uint, input *ChangePasswordInput) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return ErrUserNotFoundSvc
	}

	if !password.Verify(input.OldPassword, user.Password) {
		return ErrOldPasswordWrong
	}

	if !password.ValidatePassword(input.NewPassword) {
		return ErrWeakPassword
	}

	hashed, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}

	user.Password = hashed
	return s.userRepo.Update(ctx, user)
}
