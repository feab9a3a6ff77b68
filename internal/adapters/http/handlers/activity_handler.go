package handlers

import (
	"strings"

	"docshelf/internal/adapters/persistence/repositories"
	"docshelf/internal/pkg/pagination"
	"docshelf/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// ActivityHandler handles audit trail endpoints
type ActivityHandler struct {
	activityRepo *repositories.ActivityLogRepository
}

// NewActivityHandler creates a new activity handler
func NewActivityHandler(activityRepo *repositories.ActivityLogRepository) *ActivityHandler {
	return &ActivityHandler{activityRepo: activityRepo}
}

// List lists audit entries
// @Summary List activity log
// @Description List audit entries, optionally filtered by action (paginated)
// @Tags Activity
// @Produce json
// @Security BearerAuth
// @Param action query string false "Action filter, e.g. PURCHASE_APPROVED"
// @Success 200 {object} response.Response
// @Router /activity [get]
func (h *ActivityHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)
	action := strings.ToUpper(strings.TrimSpace(c.Query("action")))

	entries, total, err := h.activityRepo.List(c.Context(), action, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list activity")
	}

	return response.Success(c, "Activity retrieved successfully", pagination.NewResponse(entries, params, total))
}

// ListByUser lists audit entries for one user
// @Summary List user activity
// @Description List audit entries recorded for a user (paginated)
// @Tags Activity
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Router /users/{id}/activity [get]
func (h *ActivityHandler) ListByUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	params := pagination.GetParams(c)

	entries, total, err := h.activityRepo.ListByUser(c.Context(), id, params.Offset, params.Limit)
	if err != nil {
		return response.InternalServerError(c, "Failed to list activity")
	}

	return response.Success(c, "Activity retrieved successfully", pagination.NewResponse(entries, params, total))
}
