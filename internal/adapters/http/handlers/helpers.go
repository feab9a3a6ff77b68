package handlers

import (
	"strconv"

	"docshelf/internal/core/domain"

	"github.com/gofiber/fiber/v2"
)

// paramID parses a positive numeric route parameter
func paramID(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return 0, fiber.ErrBadRequest
	}
	return uint(id), nil
}

// currentUserID reads the authenticated user ID set by the auth middleware
func currentUserID(c *fiber.Ctx) (uint, bool) {
	userID, ok := c.Locals("userID").(uint)
	return userID, ok
}

// viewerFrom builds the access-resolution identity for the request. Requests
// without a valid token resolve as anonymous viewers.
func viewerFrom(c *fiber.Ctx) domain.Viewer {
	userID, ok := c.Locals("userID").(uint)
	if !ok {
		return domain.Viewer{}
	}

	role, _ := c.Locals("role").(string)
	return domain.Viewer{
		UserID: &userID,
		Role:   domain.Role(role),
	}
}
