package handlers

import (
	"errors"

	"docshelf/internal/core/services"
	"docshelf/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// PermissionHandler handles file permission endpoints
type PermissionHandler struct {
	permissionService *services.PermissionService
}

// NewPermissionHandler creates a new permission handler
func NewPermissionHandler(permissionService *services.PermissionService) *PermissionHandler {
	return &PermissionHandler{permissionService: permissionService}
}

// GrantRequest represents permission grant/revoke request body
type GrantRequest struct {
	UserID     uint `json:"user_id"`
	DocumentID uint `json:"document_id"`
}

// Grant grants a user full access to a document
// @Summary Grant file permission
// @Description Grant a user full access to a document independent of purchases
// @Tags Permissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body GrantRequest true "Grant target"
// @Success 201 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /permissions [post]
func (h *PermissionHandler) Grant(c *fiber.Ctx) error {
	adminID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req GrantRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.UserID == 0 || req.DocumentID == 0 {
		return response.BadRequest(c, "User ID and document ID are required")
	}

	perm, err := h.permissionService.Grant(c.Context(), adminID, req.UserID, req.DocumentID, c.IP())
	if err != nil {
		if errors.Is(err, services.ErrGrantTargetMissing) {
			return response.NotFound(c, "User or document not found")
		}
		return response.InternalServerError(c, "Failed to grant permission")
	}

	return response.Created(c, "Permission granted successfully", perm)
}

// Revoke revokes a previously granted file permission
// @Summary Revoke file permission
// @Description Revoke a user's granted access to a document
// @Tags Permissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body GrantRequest true "Revoke target"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /permissions [delete]
func (h *PermissionHandler) Revoke(c *fiber.Ctx) error {
	adminID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req GrantRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if req.UserID == 0 || req.DocumentID == 0 {
		return response.BadRequest(c, "User ID and document ID are required")
	}

	if err := h.permissionService.Revoke(c.Context(), adminID, req.UserID, req.DocumentID, c.IP()); err != nil {
		if errors.Is(err, services.ErrPermissionNotFound) {
			return response.NotFound(c, "Permission not found")
		}
		return response.InternalServerError(c, "Failed to revoke permission")
	}

	return response.Success(c, "Permission revoked successfully", nil)
}

// ListByDocument lists permissions granted on a document
// @Summary List document permissions
// @Description List active permissions granted on a document
// @Tags Permissions
// @Produce json
// @Security BearerAuth
// @Param id path int true "Document ID"
// @Success 200 {object} response.Response
// @Router /documents/{id}/permissions [get]
func (h *PermissionHandler) ListByDocument(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid document ID")
	}

	perms, err := h.permissionService.ListByDocument(c.Context(), id)
	if err != nil {
		return response.InternalServerError(c, "Failed to list permissions")
	}

	return response.Success(c, "Permissions retrieved successfully", perms)
}

// ListByUser lists permissions granted to a user
// @Summary List user permissions
// @Description List active permissions granted to a user
// @Tags Permissions
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} response.Response
// @Router /users/{id}/permissions [get]
func (h *PermissionHandler) ListByUser(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid user ID")
	}

	perms, err := h.permissionService.ListByUser(c.Context(), id)
	if err != nil {
		return response.InternalServerError(c, "Failed to list permissions")
	}

	return response.Success(c, "Permissions retrieved successfully", perms)
}
