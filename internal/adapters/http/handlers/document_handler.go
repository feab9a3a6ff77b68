package handlers

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"docshelf/internal/core/domain"
	"docshelf/internal/core/services"
	"docshelf/internal/pkg/pagination"
	"docshelf/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// maxUploadBytes caps document uploads at 50 MB
const maxUploadBytes = 50 << 20

// DocumentHandler handles document catalog and content delivery endpoints
type DocumentHandler struct {
	documentService *services.DocumentService
}

// NewDocumentHandler creates a new document handler
func NewDocumentHandler(documentService *services.DocumentService) *DocumentHandler {
	return &DocumentHandler{documentService: documentService}
}

// UpdateDocumentRequest represents metadata update request body
type UpdateDocumentRequest struct {
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	Description *string `json:"description"`
	FreePages   *int    `json:"free_pages"`
	Price       *int64  `json:"price"`
	IsActive    *bool   `json:"is_active"`
}

// Create handles document upload
// @Summary Upload document
// @Description Upload a PDF and create its catalog entry. The page count is derived from the file itself.
// @Tags Documents
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "PDF file"
// @Param title formData string true "Title"
// @Param price formData int false "Price in minor units"
// @Param free_pages formData int false "Pages served as free preview"
// @Success 201 {object} response.Response
// @Failure 400 {object} response.Response
// @Router /documents [post]
func (h *DocumentHandler) Create(c *fiber.Ctx) error {
	adminID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return response.BadRequest(c, "PDF file is required")
	}
	if fileHeader.Size > maxUploadBytes {
		return response.BadRequest(c, "File exceeds maximum upload size")
	}

	file, err := fileHeader.Open()
	if err != nil {
		return response.BadRequest(c, "Failed to read uploaded file")
	}
	defer file.Close()

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return response.BadRequest(c, "Failed to read uploaded file")
	}

	price, _ := strconv.ParseInt(c.FormValue("price", "0"), 10, 64)
	freePages, _ := strconv.Atoi(c.FormValue("free_pages", "0"))

	input := &services.CreateDocumentInput{
		Title:       c.FormValue("title"),
		Author:      c.FormValue("author"),
		Description: c.FormValue("description"),
		FreePages:   freePages,
		Price:       price,
	}

	doc, err := h.documentService.Create(c.Context(), input, fileBytes, adminID, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrProcessing):
			return response.UnprocessableEntity(c, "Uploaded file is not a readable PDF")
		case errors.Is(err, services.ErrEmptyUpload),
			errors.Is(err, services.ErrInvalidFreePages),
			errors.Is(err, services.ErrInvalidPrice),
			errors.Is(err, domain.ErrValidation):
			return response.BadRequest(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to create document")
		}
	}

	return response.Created(c, "Document created successfully", doc)
}

// Update handles document metadata update
// @Summary Update document
// @Description Update document metadata. Free-page changes apply to the next preview request.
// @Tags Documents
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Document ID"
// @Param body body UpdateDocumentRequest true "Fields to update"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /documents/{id} [put]
func (h *DocumentHandler) Update(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid document ID")
	}

	adminID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	var req UpdateDocumentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}

	doc, err := h.documentService.Update(c.Context(), id, &services.UpdateDocumentInput{
		Title:       req.Title,
		Author:      req.Author,
		Description: req.Description,
		FreePages:   req.FreePages,
		Price:       req.Price,
		IsActive:    req.IsActive,
	}, adminID, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDocumentNotFound):
			return response.NotFound(c, "Document not found")
		case errors.Is(err, services.ErrInvalidFreePages),
			errors.Is(err, services.ErrInvalidPrice):
			return response.BadRequest(c, err.Error())
		default:
			return response.InternalServerError(c, "Failed to update document")
		}
	}

	return response.Success(c, "Document updated successfully", doc)
}

// Delete deactivates a document and removes its stored asset
// @Summary Delete document
// @Description Deactivate a document and remove the stored file. Existing licenses are kept.
// @Tags Documents
// @Produce json
// @Security BearerAuth
// @Param id path int true "Document ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /documents/{id} [delete]
func (h *DocumentHandler) Delete(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid document ID")
	}

	adminID, ok := currentUserID(c)
	if !ok {
		return response.Unauthorized(c, "Unauthorized")
	}

	if err := h.documentService.Delete(c.Context(), id, adminID, c.IP()); err != nil {
		if errors.Is(err, services.ErrDocumentNotFound) {
			return response.NotFound(c, "Document not found")
		}
		return response.InternalServerError(c, "Failed to delete document")
	}

	return response.Success(c, "Document deleted successfully", nil)
}

// Get returns a single document's metadata
// @Summary Get document
// @Description Get a document's catalog entry
// @Tags Documents
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /documents/{id} [get]
func (h *DocumentHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid document ID")
	}

	// Admins see inactive documents too
	role, _ := c.Locals("role").(string)
	includeInactive := role == string(domain.RoleAdmin)

	doc, err := h.documentService.GetByID(c.Context(), id, includeInactive)
	if err != nil {
		return response.NotFound(c, "Document not found")
	}

	return response.Success(c, "Document retrieved successfully", doc)
}

// List returns the document catalog
// @Summary List documents
// @Description List documents (paginated). Admins may include inactive entries.
// @Tags Documents
// @Produce json
// @Success 200 {object} response.Response
// @Router /documents [get]
func (h *DocumentHandler) List(c *fiber.Ctx) error {
	params := pagination.GetParams(c)

	role, _ := c.Locals("role").(string)
	includeInactive := role == string(domain.RoleAdmin) && c.QueryBool("include_inactive", false)

	docs, total, err := h.documentService.List(c.Context(), params.Offset, params.Limit, includeInactive)
	if err != nil {
		return response.InternalServerError(c, "Failed to list documents")
	}

	return response.Success(c, "Documents retrieved successfully", pagination.NewResponse(docs, params, total))
}

// GetContent serves the document content the viewer is entitled to
// @Summary Get document content
// @Description Serve the full PDF to licensed viewers, a page-bounded copy to preview viewers, and the access decision otherwise.
// @Tags Documents
// @Produce application/pdf
// @Param id path int true "Document ID"
// @Success 200 {file} binary
// @Failure 401 {object} response.Response
// @Failure 403 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /documents/{id}/content [get]
func (h *DocumentHandler) GetContent(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid document ID")
	}

	viewer := viewerFrom(c)

	result, err := h.documentService.GetContent(c.Context(), viewer, id, c.IP())
	if err != nil {
		switch {
		case errors.Is(err, services.ErrDocumentNotFound), errors.Is(err, domain.ErrNotFound):
			return response.NotFound(c, "Document not found")
		case errors.Is(err, domain.ErrProcessing):
			return response.InternalServerError(c, "Failed to prepare document content")
		default:
			return response.InternalServerError(c, "Failed to retrieve document content")
		}
	}

	if result.Decision.Tier == domain.TierNone {
		if result.Decision.Reason == domain.ReasonAuthRequired {
			return response.Unauthorized(c, "Authentication required to view this document")
		}
		return response.Error(c, fiber.StatusForbidden, string(result.Decision.Reason))
	}

	c.Set("Content-Type", "application/pdf")
	c.Set("X-Access-Tier", string(result.Decision.Tier))
	if result.Decision.Tier == domain.TierBounded {
		c.Set("X-Access-Pages", strconv.Itoa(result.Decision.PageLimit))
		c.Set("Content-Disposition", fmt.Sprintf("inline; filename=\"document-%d-preview.pdf\"", id))
	} else {
		c.Set("Content-Disposition", fmt.Sprintf("inline; filename=\"document-%d.pdf\"", id))
	}

	return c.Send(result.Content)
}

// CheckAccess reports the access decision without serving content
// @Summary Check document access
// @Description Resolve the viewer's access tier for a document without downloading it
// @Tags Documents
// @Produce json
// @Param id path int true "Document ID"
// @Success 200 {object} response.Response
// @Failure 404 {object} response.Response
// @Router /documents/{id}/access [get]
func (h *DocumentHandler) CheckAccess(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid document ID")
	}

	decision, err := h.documentService.CheckAccess(c.Context(), viewerFrom(c), id)
	if err != nil {
		if errors.Is(err, services.ErrDocumentNotFound) {
			return response.NotFound(c, "Document not found")
		}
		return response.InternalServerError(c, "Failed to resolve access")
	}

	return response.Success(c, "Access resolved successfully", decision)
}
