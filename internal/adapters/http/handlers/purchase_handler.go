package handlers

import (
	"errors"
	"strings"

	"docshelf/internal/core/domain"
	"docshelf/internal/core/services"
	"docshelf/internal/pkg/pagination"
	"docshelf/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PurchaseHandler handles purchase workflow endpoints
type PurchaseHandler struct {
	purchaseService *services.PurchaseService
}

// NewPurchaseHandler creates a new purchase handler
func NewPurchaseHandler(purchaseService *services.PurchaseService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

// CreatePurchaseRequest represents checkout request body
type CreatePurchaseRequest struct {
	DocumentID    uint   `json:"document_id"`
	DiscountCode  string `json:"discount_code"`
	PaymentMethod string `json:"payment_method"`
}

// SetStatusRequest represents approve/reject request body
type SetStatusRequest struct {
	Status     string `json:"status"`
	AdminNotes string `json:"admin_notes"`
}

// Create handles checkout
// @Summary Create purchase
// @Description Create a purchase for a document. Zero-cost checkouts are approved immediately.
// @Tags Purchases
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body CreatePurchaseRequest true "Checkout data"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /purchases [post]
func (h *PurchaseHandler) Create(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req CreatePurchaseRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.DocumentID == 0 {
		return response.BadRequest(c, "Document ID is required")
	}

	purchase, err := h.purchaseService.Create(c.Context(), userID, &services.CreatePurchaseInput{
		DocumentID:    req.DocumentID,
		DiscountCode:  strings.TrimSpace(req.DiscountCode),
		PaymentMethod: req.PaymentMethod,
	}, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDocumentUnavailable):
			return response.NotFound(c, "Document not found or unavailable")
		case errors.Is(err, services.ErrAlreadyEntitled):
			return response.Conflict(c, "You already hold an active license for this document")
		default:
			return response.InternalServerError(c, "Failed to create purchase")
		}
	}

	return response.Created(c, "Purchase created successfully", purchase)
}

// ListMine lists the authenticated user's purchases
// @Summary List own purchases
// @Description List the authenticated user's purchase history (paginated)
// @Tags Purchases
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Response
// @Router /purchases/me [get]
func (h *PurchaseHandler) ListMine(c *fiber.Ctx) error {
	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	params := pagination.GetParams(c)

	purchases, total, err := h.purchaseService.ListByUser(c.Context(), userID, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list purchases")
	}

	return response.Success(c, "Purchases retrieved successfully", pagination.NewResponse(purchases, params, total))
}

// List lists all purchases, optionally filtered by status
// @Summary List purchases
// @Description List all purchases, optionally filtered by status (paginated)
// @Tags Purchases
// @Produce json
// @Security BearerAuth
// @Param status query string false "PENDING, APPROVED or REJECTED"
// @Success 200 {object} response.Response
// @Router /purchases [get]
func (h *PurchaseHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	status := strings.ToUpper(strings.TrimSpace(c.Query("status")))

	purchases, total, err := h.purchaseService.List(c.Context(), status, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list purchases")
	}

	return response.Success(c, "Purchases retrieved successfully", pagination.NewResponse(purchases, params, total))
}

// Get returns a single purchase
// @Summary Get purchase
// @Description Get a purchase by ID. Users may only read their own purchases.
// @Tags Purchases
// @Produce json
// @Security BearerAuth
// @Param id path int true "Purchase ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /purchases/{id} [get]
func (h *PurchaseHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid purchase ID")
	}

	userID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	purchase, err := h.purchaseService.GetByID(c.Context(), id)
	if err != nil {
		return response.NotFound(c, "Purchase not found")
	}

	// Non-admin callers only see their own purchases
	role, _ := c.Locals("role").(string)
	if role != string(domain.RoleAdmin) && purchase.UserID != userID {
		return response.NotFound(c, "Purchase not found")
	}

	return response.Success(c, "Purchase retrieved successfully", purchase)
}

// SetStatus approves or rejects a pending purchase
// @Summary Approve or reject purchase
// @Description Transition a pending purchase. Approval grants the license; terminal purchases cannot be reprocessed.
// @Tags Purchases
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Purchase ID"
// @Param body body SetStatusRequest true "New status"
// @Success 200 {object} response.Response
// @Failure 409 {object} response.Response
// @Router /purchases/{id}/status [put]
func (h *PurchaseHandler) SetStatus(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid purchase ID")
	}

	adminID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req SetStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	purchase, err := h.purchaseService.SetStatus(c.Context(), id, adminID, &services.SetStatusInput{
		Status:     strings.ToUpper(strings.TrimSpace(req.Status)),
		AdminNotes: req.AdminNotes,
	}, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPurchaseNotFound):
			return response.NotFound(c, "Purchase not found")
		case errors.Is(err, services.ErrInvalidPurchaseStatus):
			return response.BadRequest(c, "Status must be APPROVED or REJECTED")
		case errors.Is(err, services.ErrPurchaseNotPending):
			return response.Conflict(c, "Purchase has already been processed")
		case errors.Is(err, domain.ErrConflict):
			return response.Conflict(c, "Purchase could not be approved")
		default:
			return response.InternalServerError(c, "Failed to update purchase status")
		}
	}

	return response.Success(c, "Purchase status updated successfully", purchase)
}
