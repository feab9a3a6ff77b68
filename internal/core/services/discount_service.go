package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"docshelf/internal/adapters/persistence/models"
	"docshelf/internal/adapters/persistence/repositories"
	"docshelf/internal/core/domain"

	"gorm.io/gorm"
)

// Discount service errors
var (
	ErrDiscountCodeNotFound = errors.New("discount code not found")
	ErrDiscountCodeExists   = errors.New("discount code already exists")
	ErrInvalidDiscountType  = errors.New("invalid discount type")
	ErrInvalidDiscountValue = errors.New("invalid discount value")
)

// Evaluation is the outcome of checking a discount code against a price.
// Amount is only meaningful when Valid is true.
type Evaluation struct {
	Valid  bool   `json:"valid"`
	Type   string `json:"type,omitempty"`
	Value  int64  `json:"value,omitempty"`
	Amount int64  `json:"amount"`
	Reason string `json:"reason,omitempty"`
}

// NormalizeCode returns the canonical form of a discount code. Codes are
// stored and matched upper-cased; every path that persists or looks up a
// code goes through this.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// EvaluateCode computes the discount a code yields for a document price.
// Pure function of its inputs: it never mutates used_count. Consumption
// happens at approval time, so a live price preview cannot burn a code.
func EvaluateCode(code *models.DiscountCode, price int64, now time.Time) Evaluation {
	if code == nil {
		return Evaluation{Reason: "code not found"}
	}
	if !code.IsActive {
		return Evaluation{Reason: "code is inactive"}
	}
	if code.ExpiresAt != nil && now.After(*code.ExpiresAt) {
		return Evaluation{Reason: "code has expired"}
	}
	if code.IsExhausted() {
		return Evaluation{Reason: "code usage limit reached"}
	}

	var amount int64
	switch domain.DiscountType(code.Type) {
	case domain.DiscountPercentage:
		// round half up
		amount = (price*code.Value + 50) / 100
	case domain.DiscountFixed:
		amount = code.Value
		if amount > price {
			amount = price
		}
	case domain.DiscountFree:
		amount = price
	default:
		return Evaluation{Reason: "unknown discount type"}
	}

	return Evaluation{
		Valid:  true,
		Type:   code.Type,
		Value:  code.Value,
		Amount: amount,
	}
}

// DiscountService handles discount code business logic
type DiscountService struct {
	discountRepo *repositories.DiscountCodeRepository
}

// NewDiscountService creates a new discount service
func NewDiscountService(discountRepo *repositories.DiscountCodeRepository) *DiscountService {
	return &DiscountService{discountRepo: discountRepo}
}

// Evaluate looks up a code and evaluates it against a price. A missing code
// is a non-valid evaluation, not an error.
func (s *DiscountService) Evaluate(ctx context.Context, code string, price int64) (Evaluation, error) {
	code = NormalizeCode(code)
	if code == "" {
		return Evaluation{Reason: "code not found"}, nil
	}

	dc, err := s.discountRepo.GetByCode(ctx, code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Evaluation{Reason: "code not found"}, nil
		}
		return Evaluation{}, err
	}

	return EvaluateCode(dc, price, time.Now()), nil
}

// CreateDiscountInput represents create discount code input
type CreateDiscountInput struct {
	Code      string     `json:"code" validate:"required"`
	Type      string     `json:"type" validate:"required"`
	Value     int64      `json:"value"`
	MaxUses   *int       `json:"max_uses"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Create creates a new discount code
func (s *DiscountService) Create(ctx context.Context, input *CreateDiscountInput) (*models.DiscountCode, error) {
	code := NormalizeCode(input.Code)
	if code == "" {
		return nil, domain.ErrValidation
	}

	switch domain.DiscountType(input.Type) {
	case domain.DiscountPercentage:
		if input.Value < 1 || input.Value > 100 {
			return nil, ErrInvalidDiscountValue
		}
	case domain.DiscountFixed:
		if input.Value < 0 {
			return nil, ErrInvalidDiscountValue
		}
	case domain.DiscountFree:
		input.Value = 0
	default:
		return nil, ErrInvalidDiscountType
	}

	if input.MaxUses != nil && *input.MaxUses < 1 {
		return nil, ErrInvalidDiscountValue
	}

	dc := &models.DiscountCode{
		Code:      code,
		Type:      input.Type,
		Value:     input.Value,
		MaxUses:   input.MaxUses,
		IsActive:  true,
		ExpiresAt: input.ExpiresAt,
	}

	if err := s.discountRepo.Create(ctx, dc); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDiscountCodeExists
		}
		return nil, err
	}

	return dc, nil
}

// UpdateDiscountInput represents update discount code input
type UpdateDiscountInput struct {
	IsActive  *bool      `json:"is_active"`
	MaxUses   *int       `json:"max_uses"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Update updates a discount code's activation, cap, or expiry. Code, type
// and value are immutable once issued.
func (s *DiscountService) Update(ctx context.Context, id uint, input *UpdateDiscountInput) (*models.DiscountCode, error) {
	dc, err := s.discountRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDiscountCodeNotFound
		}
		return nil, err
	}

	if input.IsActive != nil {
		dc.IsActive = *input.IsActive
	}
	if input.MaxUses != nil {
		if *input.MaxUses < 1 {
			return nil, ErrInvalidDiscountValue
		}
		dc.MaxUses = input.MaxUses
	}
	if input.ExpiresAt != nil {
		dc.ExpiresAt = input.ExpiresAt
	}

	if err := s.discountRepo.Update(ctx, dc); err != nil {
		return nil, err
	}

	return dc, nil
}

// Delete soft deletes a discount code
func (s *DiscountService) Delete(ctx context.Context, id uint) error {
	if _, err := s.discountRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDiscountCodeNotFound
		}
		return err
	}
	return s.discountRepo.Delete(ctx, id)
}

// List lists discount codes
func (s *DiscountService) List(ctx context.Context, offset, limit int) ([]*models.DiscountCode, int64, error) {
	return s.discountRepo.List(ctx, offset, limit)
}
