package services

import (
	"context"
	"errors"
	"time"

	"docshelf/internal/adapters/persistence/models"
	"docshelf/internal/adapters/persistence/repositories"
	"docshelf/internal/core/domain"

	"gorm.io/gorm"
)

// Purchase service errors
var (
	ErrPurchaseNotFound      = errors.New("purchase not found")
	ErrDocumentUnavailable   = errors.New("document not found or inactive")
	ErrAlreadyEntitled       = errors.New("an active license already exists for this document")
	ErrPurchaseNotPending    = errors.New("purchase has already been processed")
	ErrInvalidPurchaseStatus = errors.New("invalid purchase status")
)

// PurchaseService orchestrates purchase creation and approval. Multi-step
// effects (status update, license issuance, discount consumption) run inside
// one database transaction.
type PurchaseService struct {
	db              *gorm.DB
	purchaseRepo    *repositories.PurchaseRepository
	documentRepo    *repositories.DocumentRepository
	licenseRepo     *repositories.LicenseRepository
	discountService *DiscountService
}

// NewPurchaseService creates a new purchase service
func NewPurchaseService(
	db *gorm.DB,
	purchaseRepo *repositories.PurchaseRepository,
	documentRepo *repositories.DocumentRepository,
	licenseRepo *repositories.LicenseRepository,
	discountService *DiscountService,
) *PurchaseService {
	return &PurchaseService{
		db:              db,
		purchaseRepo:    purchaseRepo,
		documentRepo:    documentRepo,
		licenseRepo:     licenseRepo,
		discountService: discountService,
	}
}

// CreatePurchaseInput represents create purchase input
type CreatePurchaseInput struct {
	DocumentID    uint   `json:"document_id" validate:"required"`
	DiscountCode  string `json:"discount_code,omitempty"`
	PaymentMethod string `json:"payment_method,omitempty"`
}

// Create creates a new purchase. An invalid discount code degrades to "no
// discount applied" rather than failing checkout. A zero-cost purchase is
// approved inside the same transaction, so the buyer never observes a
// pending state for it.
func (s *PurchaseService) Create(ctx context.Context, userID uint, input *CreatePurchaseInput, ipAddress string) (*models.Purchase, error) {
	doc, err := s.documentRepo.GetActiveByID(ctx, input.DocumentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentUnavailable
		}
		return nil, err
	}

	if _, err := s.licenseRepo.GetGranting(ctx, userID, doc.ID); err == nil {
		return nil, ErrAlreadyEntitled
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	var discountAmount int64
	var appliedCode *string
	if input.DiscountCode != "" {
		eval, err := s.discountService.Evaluate(ctx, input.DiscountCode, doc.Price)
		if err != nil {
			return nil, err
		}
		if eval.Valid {
			discountAmount = eval.Amount
			// Persist the canonical form so the approval-time consumption
			// matches the stored code regardless of how the buyer typed it.
			code := NormalizeCode(input.DiscountCode)
			appliedCode = &code
		}
	}

	finalAmount := doc.Price - discountAmount
	if finalAmount < 0 {
		finalAmount = 0
	}

	purchase := &models.Purchase{
		UserID:         userID,
		DocumentID:     doc.ID,
		Amount:         doc.Price,
		DiscountCode:   appliedCode,
		DiscountAmount: discountAmount,
		FinalAmount:    finalAmount,
		Status:         string(domain.PurchasePending),
		PaymentMethod:  input.PaymentMethod,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(purchase).Error; err != nil {
			return err
		}

		autoApproved := false
		if finalAmount == 0 {
			if err := s.approveInTx(tx, purchase, nil, "auto-approved: zero-cost checkout", ipAddress); err != nil {
				return err
			}
			autoApproved = true
		}

		entry := models.NewActivityLog(&userID, models.ActionPurchaseCreated, models.EntityPurchase, &purchase.ID,
			models.PurchaseDetail{
				DocumentID:     doc.ID,
				Amount:         purchase.Amount,
				DiscountCode:   purchase.DiscountCode,
				DiscountAmount: purchase.DiscountAmount,
				FinalAmount:    purchase.FinalAmount,
				AutoApproved:   autoApproved,
			}, ipAddress)
		return tx.Create(entry).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}

	return purchase, nil
}

// SetStatusInput represents a purchase status transition request
type SetStatusInput struct {
	Status     string `json:"status" validate:"required"`
	AdminNotes string `json:"admin_notes,omitempty"`
}

// SetStatus transitions a pending purchase to approved or rejected. Only
// pending purchases can transition; reprocessing a terminal purchase is a
// conflict, which guarantees a single license and a single discount
// increment per purchase even under duplicate requests.
func (s *PurchaseService) SetStatus(ctx context.Context, purchaseID uint, adminID uint, input *SetStatusInput, ipAddress string) (*models.Purchase, error) {
	status := domain.PurchaseStatus(input.Status)
	if status != domain.PurchaseApproved && status != domain.PurchaseRejected {
		return nil, ErrInvalidPurchaseStatus
	}

	var purchase models.Purchase
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&purchase, purchaseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrPurchaseNotFound
			}
			return err
		}

		if purchase.Status != string(domain.PurchasePending) {
			return ErrPurchaseNotPending
		}

		if status == domain.PurchaseApproved {
			return s.approveInTx(tx, &purchase, &adminID, input.AdminNotes, ipAddress)
		}

		// Rejection updates status and notes only: no license, no discount
		// mutation. The guarded update serializes concurrent transitions on
		// the pending status, so only one of them wins.
		res := tx.Model(&models.Purchase{}).
			Where("id = ? AND status = ?", purchase.ID, string(domain.PurchasePending)).
			Updates(map[string]interface{}{
				"status":      string(domain.PurchaseRejected),
				"admin_notes": input.AdminNotes,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrPurchaseNotPending
		}
		purchase.Status = string(domain.PurchaseRejected)
		purchase.AdminNotes = input.AdminNotes

		entry := models.NewActivityLog(&adminID, models.ActionPurchaseRejected, models.EntityPurchase, &purchase.ID,
			models.StatusDetail{
				From:       string(domain.PurchasePending),
				To:         string(domain.PurchaseRejected),
				AdminNotes: input.AdminNotes,
			}, ipAddress)
		return tx.Create(entry).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, domain.ErrConflict
		}
		return nil, err
	}

	return &purchase, nil
}

// approveInTx applies the approval effects in order: status update, license
// check-and-issue, discount increment, counters. All of it commits with the
// surrounding transaction or none of it does. approverID nil marks a
// zero-cost auto-approval.
func (s *PurchaseService) approveInTx(tx *gorm.DB, purchase *models.Purchase, approverID *uint, notes, ipAddress string) error {
	now := time.Now()
	updates := map[string]interface{}{
		"status":      string(domain.PurchaseApproved),
		"approved_by": approverID,
		"approved_at": &now,
	}
	if notes != "" {
		updates["admin_notes"] = notes
	}

	// Guarded transition: only a pending row can be approved, so a racing
	// approval affects zero rows and the later effects never run twice.
	res := tx.Model(&models.Purchase{}).
		Where("id = ? AND status = ?", purchase.ID, string(domain.PurchasePending)).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrPurchaseNotPending
	}

	purchase.Status = string(domain.PurchaseApproved)
	purchase.ApprovedBy = approverID
	purchase.ApprovedAt = &now
	if notes != "" {
		purchase.AdminNotes = notes
	}

	// Issue the license unless the pair already holds an active one. The
	// unique (user_id, document_id) index is the backstop for races that
	// slip past this check.
	var existing models.License
	err := tx.Where("user_id = ? AND document_id = ?", purchase.UserID, purchase.DocumentID).
		First(&existing).Error
	switch {
	case err == nil:
		if !existing.Grants() {
			existing.IsActive = true
			existing.ExpiresAt = nil
			existing.PurchaseID = purchase.ID
			if err := tx.Save(&existing).Error; err != nil {
				return err
			}
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		license := &models.License{
			UserID:     purchase.UserID,
			DocumentID: purchase.DocumentID,
			PurchaseID: purchase.ID,
			IsActive:   true,
		}
		if err := tx.Create(license).Error; err != nil {
			return err
		}
	default:
		return err
	}

	// Consume the discount code exactly once, only when it contributed
	if purchase.DiscountCode != nil && purchase.DiscountAmount > 0 {
		if err := tx.Model(&models.DiscountCode{}).
			Where("code = ?", *purchase.DiscountCode).
			UpdateColumn("used_count", gorm.Expr("used_count + 1")).Error; err != nil {
			return err
		}
	}

	if err := tx.Model(&models.Document{}).
		Where("id = ?", purchase.DocumentID).
		UpdateColumn("purchase_count", gorm.Expr("purchase_count + 1")).Error; err != nil {
		return err
	}

	actor := approverID
	if actor == nil {
		actor = &purchase.UserID
	}
	entry := models.NewActivityLog(actor, models.ActionPurchaseApproved, models.EntityPurchase, &purchase.ID,
		models.StatusDetail{
			From:       string(domain.PurchasePending),
			To:         string(domain.PurchaseApproved),
			AdminNotes: notes,
		}, ipAddress)
	return tx.Create(entry).Error
}

// GetByID gets a purchase by ID
func (s *PurchaseService) GetByID(ctx context.Context, id uint) (*models.Purchase, error) {
	purchase, err := s.purchaseRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, err
	}
	return purchase, nil
}

// ListByUser lists a user's own purchases
func (s *PurchaseService) ListByUser(ctx context.Context, userID uint, offset, limit int) ([]*models.Purchase, int64, error) {
	return s.purchaseRepo.ListByUser(ctx, userID, offset, limit)
}

// List lists all purchases with an optional status filter (admin)
func (s *PurchaseService) List(ctx context.Context, status string, offset, limit int) ([]*models.Purchase, int64, error) {
	if status != "" {
		st := domain.PurchaseStatus(status)
		if st != domain.PurchasePending && st != domain.PurchaseApproved && st != domain.PurchaseRejected {
			return nil, 0, ErrInvalidPurchaseStatus
		}
	}
	return s.purchaseRepo.List(ctx, status, offset, limit)
}
