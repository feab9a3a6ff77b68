package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"docshelf/internal/adapters/persistence/models"
	"docshelf/internal/adapters/persistence/repositories"
	"docshelf/internal/core/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Document service errors
var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrInvalidFreePages = errors.New("free pages must be between 0 and total pages")
	ErrInvalidPrice     = errors.New("price must not be negative")
	ErrEmptyUpload      = errors.New("uploaded file is empty")
)

// DocumentService handles document catalog business logic and the read path
// that ties the access resolver to the derivative generator.
type DocumentService struct {
	documentRepo  *repositories.DocumentRepository
	accessSvc     *AccessService
	derivativeSvc *DerivativeService
	activityRepo  *repositories.ActivityLogRepository
	storageDir    string
}

// NewDocumentService creates a new document service
func NewDocumentService(
	documentRepo *repositories.DocumentRepository,
	accessSvc *AccessService,
	derivativeSvc *DerivativeService,
	activityRepo *repositories.ActivityLogRepository,
	storageDir string,
) *DocumentService {
	return &DocumentService{
		documentRepo:  documentRepo,
		accessSvc:     accessSvc,
		derivativeSvc: derivativeSvc,
		activityRepo:  activityRepo,
		storageDir:    storageDir,
	}
}

// CreateDocumentInput represents document upload input
type CreateDocumentInput struct {
	Title       string `json:"title" validate:"required"`
	Author      string `json:"author,omitempty"`
	Description string `json:"description,omitempty"`
	FreePages   int    `json:"free_pages"`
	Price       int64  `json:"price"`
}

// Create validates an uploaded PDF, derives its true page count, stores the
// asset under a generated name, and creates the catalog row.
func (s *DocumentService) Create(ctx context.Context, input *CreateDocumentInput, fileBytes []byte, adminID uint, ipAddress string) (*models.Document, error) {
	if input.Title == "" {
		return nil, domain.ErrValidation
	}
	if input.Price < 0 {
		return nil, ErrInvalidPrice
	}
	if len(fileBytes) == 0 {
		return nil, ErrEmptyUpload
	}

	totalPages, err := s.derivativeSvc.PageCount(fileBytes)
	if err != nil {
		return nil, err
	}
	if input.FreePages < 0 || input.FreePages > totalPages {
		return nil, ErrInvalidFreePages
	}

	fileName := uuid.NewString() + ".pdf"
	if err := os.MkdirAll(s.storageDir, 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(filepath.Join(s.storageDir, fileName), fileBytes, 0o644); err != nil {
		return nil, err
	}

	doc := &models.Document{
		Title:       input.Title,
		Author:      input.Author,
		Description: input.Description,
		FileName:    fileName,
		FileSize:    int64(len(fileBytes)),
		TotalPages:  totalPages,
		FreePages:   input.FreePages,
		Price:       input.Price,
		IsActive:    true,
	}

	if err := s.documentRepo.Create(ctx, doc); err != nil {
		// keep the disk consistent with the catalog
		os.Remove(filepath.Join(s.storageDir, fileName))
		return nil, err
	}

	entry := models.NewActivityLog(&adminID, models.ActionDocumentCreated, models.EntityDocument, &doc.ID,
		models.DocumentDetail{
			Title:      doc.Title,
			TotalPages: doc.TotalPages,
			FreePages:  doc.FreePages,
			Price:      doc.Price,
		}, ipAddress)
	if err := s.activityRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	return doc, nil
}

// UpdateDocumentInput represents document update input
type UpdateDocumentInput struct {
	Title       *string `json:"title"`
	Author      *string `json:"author"`
	Description *string `json:"description"`
	FreePages   *int    `json:"free_pages"`
	Price       *int64  `json:"price"`
	IsActive    *bool   `json:"is_active"`
}

// Update updates document metadata. A free-page change takes effect on the
// next preview request since derivatives are never cached.
func (s *DocumentService) Update(ctx context.Context, id uint, input *UpdateDocumentInput, adminID uint, ipAddress string) (*models.Document, error) {
	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}

	if input.Title != nil {
		doc.Title = *input.Title
	}
	if input.Author != nil {
		doc.Author = *input.Author
	}
	if input.Description != nil {
		doc.Description = *input.Description
	}
	if input.FreePages != nil {
		if *input.FreePages < 0 || *input.FreePages > doc.TotalPages {
			return nil, ErrInvalidFreePages
		}
		doc.FreePages = *input.FreePages
	}
	if input.Price != nil {
		if *input.Price < 0 {
			return nil, ErrInvalidPrice
		}
		doc.Price = *input.Price
	}
	if input.IsActive != nil {
		doc.IsActive = *input.IsActive
	}

	if err := s.documentRepo.Update(ctx, doc); err != nil {
		return nil, err
	}

	entry := models.NewActivityLog(&adminID, models.ActionDocumentUpdated, models.EntityDocument, &doc.ID,
		models.DocumentDetail{
			Title:     doc.Title,
			FreePages: doc.FreePages,
			Price:     doc.Price,
		}, ipAddress)
	if err := s.activityRepo.Create(ctx, entry); err != nil {
		return nil, err
	}

	return doc, nil
}

// Delete deactivates a document and unlinks its binary asset from disk
func (s *DocumentService) Delete(ctx context.Context, id uint, adminID uint, ipAddress string) error {
	doc, err := s.documentRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDocumentNotFound
		}
		return err
	}

	if err := s.documentRepo.Deactivate(ctx, id); err != nil {
		return err
	}

	if doc.FileName != "" {
		if err := os.Remove(filepath.Join(s.storageDir, doc.FileName)); err != nil && !os.IsNotExist(err) {
			log.Printf("failed to unlink asset for document %d: %v", id, err)
		}
	}

	entry := models.NewActivityLog(&adminID, models.ActionDocumentDeleted, models.EntityDocument, &id,
		models.DocumentDetail{Title: doc.Title}, ipAddress)
	return s.activityRepo.Create(ctx, entry)
}

// GetByID gets a document. Non-admin callers only see active documents.
func (s *DocumentService) GetByID(ctx context.Context, id uint, includeInactive bool) (*models.Document, error) {
	var doc *models.Document
	var err error
	if includeInactive {
		doc, err = s.documentRepo.GetByID(ctx, id)
	} else {
		doc, err = s.documentRepo.GetActiveByID(ctx, id)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return doc, nil
}

// List lists documents
func (s *DocumentService) List(ctx context.Context, offset, limit int, includeInactive bool) ([]*models.Document, int64, error) {
	return s.documentRepo.List(ctx, offset, limit, !includeInactive)
}

// ContentResult is the outcome of a content request: the decision plus the
// bytes matching it.
type ContentResult struct {
	Decision domain.AccessDecision
	Content  []byte
}

// GetContent resolves access for the viewer and returns either the full
// document or a freshly generated page-bounded derivative. Tier none
// returns the decision with no content.
func (s *DocumentService) GetContent(ctx context.Context, viewer domain.Viewer, documentID uint, ipAddress string) (*ContentResult, error) {
	doc, err := s.documentRepo.GetActiveByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}

	decision, err := s.accessSvc.Resolve(ctx, viewer, doc, ipAddress)
	if err != nil {
		return nil, err
	}

	if decision.Tier == domain.TierNone {
		return &ContentResult{Decision: decision}, nil
	}

	fileBytes, err := s.readAsset(doc)
	if err != nil {
		return nil, err
	}

	if decision.Tier == domain.TierFull {
		return &ContentResult{Decision: decision, Content: fileBytes}, nil
	}

	bounded, err := s.derivativeSvc.ExtractBoundedCopy(fileBytes, decision.PageLimit)
	if err != nil {
		return nil, err
	}
	return &ContentResult{Decision: decision, Content: bounded}, nil
}

// CheckAccess resolves the access tier for a viewer without touching the
// view counter or the activity log.
func (s *DocumentService) CheckAccess(ctx context.Context, viewer domain.Viewer, documentID uint) (domain.AccessDecision, error) {
	doc, err := s.documentRepo.GetActiveByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.AccessDecision{}, ErrDocumentNotFound
		}
		return domain.AccessDecision{}, err
	}

	return s.accessSvc.Peek(ctx, viewer, doc)
}

// readAsset loads a document's binary from the storage dir. A missing
// physical asset is NotFound, a catalog row alone is not servable.
func (s *DocumentService) readAsset(doc *models.Document) ([]byte, error) {
	if doc.FileName == "" {
		return nil, fmt.Errorf("%w: document has no stored asset", domain.ErrNotFound)
	}
	fileBytes, err := os.ReadFile(filepath.Join(s.storageDir, doc.FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: document asset missing from storage", domain.ErrNotFound)
		}
		return nil, err
	}
	return fileBytes, nil
}
