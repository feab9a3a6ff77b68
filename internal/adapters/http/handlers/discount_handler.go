package handlers

import (
	"errors"
	"strconv"
	"time"

	"docshelf/internal/core/services"
	"docshelf/internal/pkg/pagination"
	"docshelf/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// DiscountHandler handles discount code endpoints
type DiscountHandler struct {
	discountService *services.DiscountService
	documentService *services.DocumentService
}

// NewDiscountHandler creates a new discount handler
func NewDiscountHandler(discountService *services.DiscountService, documentService *services.DocumentService) *DiscountHandler {
	return &DiscountHandler{
		discountService: discountService,
		documentService: documentService,
	}
}

// CreateDiscountRequest represents discount creation request body
type CreateDiscountRequest struct {
	Code      string     `json:"code"`
	Type      string     `json:"type"`
	Value     int64      `json:"value"`
	MaxUses   *int       `json:"max_uses"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// UpdateDiscountRequest represents discount update request body
type UpdateDiscountRequest struct {
	IsActive  *bool      `json:"is_active"`
	MaxUses   *int       `json:"max_uses"`
	ExpiresAt *time.Time `json:"expires_at"`
}

// Create creates a discount code
// @Summary Create discount code
// @Description Create a discount code (PERCENTAGE, FIXED or FREE)
// @Tags Discounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreateDiscountRequest true "Discount data"
// @Success 201 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /discounts [post]
func (h *DiscountHandler) Create(c *fiber.Ctx) error {
	var req CreateDiscountRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.Code == "" {
		return response.BadRequest(c, "Code is required")
	}

	code, err := h.discountService.Create(c.Context(), &services.CreateDiscountInput{
		Code:      req.Code,
		Type:      req.Type,
		Value:     req.Value,
		MaxUses:   req.MaxUses,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDiscountCodeExists):
			return response.Conflict(c, "Discount code already exists")
		case errors.Is(err, services.ErrInvalidDiscountType),
			errors.Is(err, services.ErrInvalidDiscountValue):
			return response.BadRequest(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to create discount code")
		}
	}

	return response.Created(c, "Discount code created successfully", code)
}

// Update updates a discount code
// @Summary Update discount code
// @Description Update a discount code's activation, usage cap, or expiry
// @Tags Discounts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Discount code ID"
// @Param body body UpdateDiscountRequest true "Fields to update"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /discounts/{id} [put]
func (h *DiscountHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid discount code ID")
	}

	var req UpdateDiscountRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	code, err := h.discountService.Update(c.Context(), id, &services.UpdateDiscountInput{
		IsActive:  req.IsActive,
		MaxUses:   req.MaxUses,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		if errors.Is(err, services.ErrDiscountCodeNotFound) {
			return response.NotFound(c, "Discount code not found")
		}
		return response.InternalServerError(c, "Failed to update discount code")
	}

	return response.Success(c, "Discount code updated successfully", code)
}

// Delete removes a discount code
// @Summary Delete discount code
// @Description Delete a discount code. Past redemptions are unaffected.
// @Tags Discounts
// @Produce json
// @Security BearerAuth
// @Param id path int true "Discount code ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /discounts/{id} [delete]
func (h *DiscountHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid discount code ID")
	}

	if err := h.discountService.Delete(c.Context(), id); err != nil {
		if errors.Is(err, services.ErrDiscountCodeNotFound) {
			return response.NotFound(c, "Discount code not found")
		}
		return response.InternalServerError(c, "Failed to delete discount code")
	}

	return response.Success(c, "Discount code deleted successfully", nil)
}

// List lists discount codes
// @Summary List discount codes
// @Description List all discount codes (paginated)
// @Tags Discounts
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /discounts [get]
func (h *DiscountHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	codes, total, err := h.discountService.List(c.Context(), params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list discount codes")
	}

	return response.Success(c, "Discount codes retrieved successfully", pagination.NewResponse(codes, params, total))
}

// Validate evaluates a discount code against a document's price
// @Summary Validate discount code
// @Description Preview the discount a code yields for a document. An unusable code returns valid=false, never an error.
// @Tags Discounts
// @Produce json
// @Security BearerAuth
// @Param code query string true "Discount code"
// @Param document_id query int true "Document ID"
// @Success 200 {object} response.Response
// @Router /discounts/validate [get]
func (h *DiscountHandler) Validate(c *fiber.Ctx) error {
	code := c.Query("code")
	if code == "" {
		return response.BadRequest(c, "Code is required")
	}

	documentID, err := strconv.ParseUint(c.Query("document_id"), 10, 32)
	if err != nil || documentID == 0 {
		return response.BadRequest(c, "Invalid document ID")
	}

	doc, err := h.documentService.GetByID(c.Context(), uint(documentID), false)
	if err != nil {
		return response.NotFound(c, "Document not found")
	}

	eval, err := h.discountService.Evaluate(c.Context(), code, doc.Price)
	if err != nil {
		return response.InternalServerError(c, "Failed to evaluate discount code")
	}

	return response.Success(c, "Discount code evaluated", fiber.Map{
		"evaluation":   eval,
		"price":        doc.Price,
		"final_amount": doc.Price - eval.Amount,
	})
}
