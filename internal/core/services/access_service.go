package services

import (
	"context"
	"errors"

	"docshelf/internal/adapters/persistence/models"
	"docshelf/internal/adapters/persistence/repositories"
	"docshelf/internal/core/domain"

	"gorm.io/gorm"
)

// AccessService decides what tier of content a viewer may receive for a
// document: none, a page-bounded preview, or the full document.
type AccessService struct {
	documentRepo   *repositories.DocumentRepository
	licenseRepo    *repositories.LicenseRepository
	permissionRepo *repositories.FilePermissionRepository
	activityRepo   *repositories.ActivityLogRepository
}

// NewAccessService creates a new access service
func NewAccessService(
	documentRepo *repositories.DocumentRepository,
	licenseRepo *repositories.LicenseRepository,
	permissionRepo *repositories.FilePermissionRepository,
	activityRepo *repositories.ActivityLogRepository,
) *AccessService {
	return &AccessService{
		documentRepo:   documentRepo,
		licenseRepo:    licenseRepo,
		permissionRepo: permissionRepo,
		activityRepo:   activityRepo,
	}
}

// Resolve determines the access tier for a viewer/document pair and records
// the view. Authenticated bounded/full resolutions bump the document's view
// counter; anonymous previews are audit-logged only, so bots cannot inflate
// per-document stats.
func (s *AccessService) Resolve(ctx context.Context, viewer domain.Viewer, doc *models.Document, ipAddress string) (domain.AccessDecision, error) {
	decision, err := s.decide(ctx, viewer, doc)
	if err != nil {
		return domain.AccessDecision{}, err
	}

	if decision.Tier == domain.TierNone {
		return decision, nil
	}

	if !viewer.IsAnonymous() {
		if err := s.documentRepo.IncrementViewCount(ctx, doc.ID); err != nil {
			return domain.AccessDecision{}, err
		}
	}

	entry := models.NewActivityLog(viewer.UserID, models.ActionDocumentViewed, models.EntityDocument, &doc.ID,
		models.AccessDetail{
			Tier:      string(decision.Tier),
			Reason:    string(decision.Reason),
			PageLimit: decision.PageLimit,
		}, ipAddress)
	if err := s.activityRepo.Create(ctx, entry); err != nil {
		return domain.AccessDecision{}, err
	}

	return decision, nil
}

// Peek resolves the access tier without recording a view. Clients use it to
// render lock or preview badges without inflating counters.
func (s *AccessService) Peek(ctx context.Context, viewer domain.Viewer, doc *models.Document) (domain.AccessDecision, error) {
	return s.decide(ctx, viewer, doc)
}

func (s *AccessService) decide(ctx context.Context, viewer domain.Viewer, doc *models.Document) (domain.AccessDecision, error) {
	if viewer.IsAnonymous() {
		if doc.HasFreePreview() {
			return domain.AccessDecision{
				Tier:      domain.TierBounded,
				Reason:    domain.ReasonFreePreview,
				PageLimit: doc.PreviewPages(),
			}, nil
		}
		return domain.AccessDecision{
			Tier:   domain.TierNone,
			Reason: domain.ReasonAuthRequired,
		}, nil
	}

	userID := *viewer.UserID

	license, err := s.licenseRepo.GetByPair(ctx, userID, doc.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.AccessDecision{}, err
	}
	if license != nil && license.Grants() {
		return domain.AccessDecision{Tier: domain.TierFull, Reason: domain.ReasonLicensed}, nil
	}

	// Admin-granted overlay: a second source of full entitlement,
	// independent of purchase history.
	granted, err := s.permissionRepo.HasActiveGrant(ctx, userID, doc.ID)
	if err != nil {
		return domain.AccessDecision{}, err
	}
	if granted {
		return domain.AccessDecision{Tier: domain.TierFull, Reason: domain.ReasonFilePermission}, nil
	}

	// An expired-but-still-active license is distinguished from "no
	// license" so the client can render "renew" rather than "buy".
	reason := domain.ReasonLicenseRequired
	if license != nil && license.IsActive && license.IsExpired() {
		reason = domain.ReasonLicenseExpired
	}

	if doc.HasFreePreview() {
		return domain.AccessDecision{
			Tier:      domain.TierBounded,
			Reason:    reason,
			PageLimit: doc.PreviewPages(),
		}, nil
	}

	return domain.AccessDecision{Tier: domain.TierNone, Reason: reason}, nil
}
