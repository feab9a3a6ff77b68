package services

import (
	"context"
	"fmt"
	"log"

	"docshelf/internal/adapters/persistence/models"
	"docshelf/internal/adapters/persistence/repositories"
	"docshelf/internal/core/domain"
)

// Guard errors. Both unwrap to domain.ErrInvariantViolation.
var (
	ErrAdminPromotionBlocked = fmt.Errorf("%w: users cannot be promoted to administrator", domain.ErrInvariantViolation)
	ErrLastAdminProtected    = fmt.Errorf("%w: operation would leave no active administrator", domain.ErrInvariantViolation)
)

// GuardOperation names the mutation being checked, for the audit trail
type GuardOperation string

const (
	OpChangeRole      GuardOperation = "CHANGE_ROLE"
	OpChangeStatus    GuardOperation = "CHANGE_ACTIVE_STATUS"
	OpSoftDelete      GuardOperation = "SOFT_DELETE"
	OpPermanentDelete GuardOperation = "PERMANENT_DELETE"
)

// AdminGuard is the single point of truth for the administrator invariants:
// the ceiling (no user is ever promoted to administrator; the bootstrap
// administrator is permanent) and the floor (no mutation may drop the count
// of active administrators to zero). Every user mutation that can touch
// either rule goes through it.
type AdminGuard struct {
	userRepo     repositories.UserRepository
	activityRepo *repositories.ActivityLogRepository
}

// NewAdminGuard creates a new admin guard
func NewAdminGuard(userRepo repositories.UserRepository, activityRepo *repositories.ActivityLogRepository) *AdminGuard {
	return &AdminGuard{
		userRepo:     userRepo,
		activityRepo: activityRepo,
	}
}

// CheckRoleChange validates a role transition for the target user
func (g *AdminGuard) CheckRoleChange(ctx context.Context, actorID uint, target *models.User, newRole string, ipAddress string) error {
	if domain.Role(newRole) == domain.RoleAdmin {
		g.logBlocked(ctx, actorID, OpChangeRole, target.ID, "promotion to administrator is not allowed", ipAddress)
		return ErrAdminPromotionBlocked
	}
	if domain.Role(target.Role) == domain.RoleAdmin {
		return g.checkFloor(ctx, actorID, OpChangeRole, target, ipAddress)
	}
	return nil
}

// CheckStatusChange validates an active-status transition for the target user
func (g *AdminGuard) CheckStatusChange(ctx context.Context, actorID uint, target *models.User, newActive bool, ipAddress string) error {
	if domain.Role(target.Role) == domain.RoleAdmin && target.IsActive && !newActive {
		return g.checkFloor(ctx, actorID, OpChangeStatus, target, ipAddress)
	}
	return nil
}

// CheckDelete validates a soft or permanent deletion of the target user
func (g *AdminGuard) CheckDelete(ctx context.Context, actorID uint, target *models.User, op GuardOperation, ipAddress string) error {
	if domain.Role(target.Role) == domain.RoleAdmin {
		return g.checkFloor(ctx, actorID, op, target, ipAddress)
	}
	return nil
}

// checkFloor rejects the operation when removing the target from the active
// administrator pool would empty it. The count is taken at decision time.
func (g *AdminGuard) checkFloor(ctx context.Context, actorID uint, op GuardOperation, target *models.User, ipAddress string) error {
	if !target.IsActive {
		return nil
	}
	count, err := g.userRepo.CountActiveAdmins(ctx)
	if err != nil {
		return err
	}
	if count <= 1 {
		g.logBlocked(ctx, actorID, op, target.ID, "would leave no active administrator", ipAddress)
		return ErrLastAdminProtected
	}
	return nil
}

// logBlocked records the rejection itself: a blocked privileged action is a
// security-relevant event. Written outside any failing transaction.
func (g *AdminGuard) logBlocked(ctx context.Context, actorID uint, op GuardOperation, targetID uint, reason, ipAddress string) {
	entry := models.NewActivityLog(&actorID, models.ActionAdminBlocked, models.EntityUser, &targetID,
		models.AdminBlockDetail{
			Operation: string(op),
			TargetID:  targetID,
			Reason:    reason,
		}, ipAddress)
	if err := g.activityRepo.Create(ctx, entry); err != nil {
		log.Printf("failed to audit blocked admin action: %v", err)
	}
}
