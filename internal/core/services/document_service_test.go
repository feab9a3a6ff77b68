package services

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"docshelf/internal/adapters/persistence/models"
	"docshelf/internal/adapters/persistence/repositories"
	"docshelf/internal/core/domain"

	"gorm.io/gorm"
)

func newTestDocumentService(db *gorm.DB, storageDir string) *DocumentService {
	return NewDocumentService(
		repositories.NewDocumentRepository(db),
		newTestAccessService(db),
		NewDerivativeService(),
		repositories.NewActivityLogRepository(db),
		storageDir,
	)
}

func TestDocumentCreate(t *testing.T) {
	db := setupTestDB(t)
	dir := t.TempDir()
	admin := createTestUser(t, db, "admin", string(domain.RoleAdmin))
	svc := newTestDocumentService(db, dir)

	src := buildTestPDF(t, 7)
	doc, err := svc.Create(context.Background(), &CreateDocumentInput{
		Title:     "Field Guide",
		Author:    "A. Naturalist",
		FreePages: 2,
		Price:     50000,
	}, src, admin.ID, "127.0.0.1")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if doc.TotalPages != 7 {
		t.Errorf("TotalPages = %d, want 7 (derived from the file, not the input)", doc.TotalPages)
	}
	if doc.FileSize != int64(len(src)) {
		t.Errorf("FileSize = %d, want %d", doc.FileSize, len(src))
	}
	if !doc.IsActive {
		t.Error("New document should be active")
	}

	// The asset landed on disk under the generated name
	stored, err := os.ReadFile(filepath.Join(dir, doc.FileName))
	if err != nil {
		t.Fatalf("Stored asset missing: %v", err)
	}
	if !bytes.Equal(stored, src) {
		t.Error("Stored asset differs from upload")
	}

	var audits int64
	db.Model(&models.ActivityLog{}).Where("action = ?", models.ActionDocumentCreated).Count(&audits)
	if audits != 1 {
		t.Errorf("Creation audit count = %d, want 1", audits)
	}
}

func TestDocumentCreate_Validation(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestUser(t, db, "admin", string(domain.RoleAdmin))
	svc := newTestDocumentService(db, t.TempDir())
	ctx := context.Background()
	src := buildTestPDF(t, 4)

	tests := []struct {
		name    string
		input   CreateDocumentInput
		file    []byte
		wantErr error
	}{
		{"missing title", CreateDocumentInput{FreePages: 1}, src, domain.ErrValidation},
		{"negative price", CreateDocumentInput{Title: "x", Price: -1}, src, ErrInvalidPrice},
		{"empty upload", CreateDocumentInput{Title: "x"}, nil, ErrEmptyUpload},
		{"free pages beyond total", CreateDocumentInput{Title: "x", FreePages: 5}, src, ErrInvalidFreePages},
		{"negative free pages", CreateDocumentInput{Title: "x", FreePages: -1}, src, ErrInvalidFreePages},
		{"not a pdf", CreateDocumentInput{Title: "x"}, []byte("plain text"), domain.ErrProcessing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Create(ctx, &tt.input, tt.file, admin.ID, "ip"); !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDocumentUpdate_FreePagesClampedToTotal(t *testing.T) {
	db := setupTestDB(t)
	dir := t.TempDir()
	admin := createTestUser(t, db, "admin", string(domain.RoleAdmin))
	svc := newTestDocumentService(db, dir)
	ctx := context.Background()

	doc, err := svc.Create(ctx, &CreateDocumentInput{Title: "Manual", Price: 10000}, buildTestPDF(t, 3), admin.ID, "ip")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	bad := 4
	if _, err := svc.Update(ctx, doc.ID, &UpdateDocumentInput{FreePages: &bad}, admin.ID, "ip"); !errors.Is(err, ErrInvalidFreePages) {
		t.Errorf("err = %v, want ErrInvalidFreePages", err)
	}

	ok := 3
	updated, err := svc.Update(ctx, doc.ID, &UpdateDocumentInput{FreePages: &ok}, admin.ID, "ip")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.FreePages != 3 {
		t.Errorf("FreePages = %d, want 3", updated.FreePages)
	}
}

func TestDocumentUpdate_NotFound(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestUser(t, db, "admin", string(domain.RoleAdmin))
	svc := newTestDocumentService(db, t.TempDir())

	title := "x"
	if _, err := svc.Update(context.Background(), 9999, &UpdateDocumentInput{Title: &title}, admin.ID, "ip"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("err = %v, want ErrDocumentNotFound", err)
	}
}

func TestDocumentDelete_DeactivatesAndUnlinksAsset(t *testing.T) {
	db := setupTestDB(t)
	dir := t.TempDir()
	admin := createTestUser(t, db, "admin", string(domain.RoleAdmin))
	svc := newTestDocumentService(db, dir)
	ctx := context.Background()

	doc, err := svc.Create(ctx, &CreateDocumentInput{Title: "Gone Soon", Price: 10000}, buildTestPDF(t, 2), admin.ID, "ip")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(ctx, doc.ID, admin.ID, "ip"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, doc.FileName)); !os.IsNotExist(err) {
		t.Error("Asset should be removed from disk")
	}

	// The catalog row stays but is no longer publicly visible
	if _, err := svc.GetByID(ctx, doc.ID, false); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("Public lookup err = %v, want ErrDocumentNotFound", err)
	}
	hidden, err := svc.GetByID(ctx, doc.ID, true)
	if err != nil {
		t.Fatalf("Admin lookup: %v", err)
	}
	if hidden.IsActive {
		t.Error("Deleted document should be inactive")
	}
}

func TestGetContent_FullTierReturnsOriginalBytes(t *testing.T) {
	db := setupTestDB(t)
	dir := t.TempDir()
	admin := createTestUser(t, db, "admin", string(domain.RoleAdmin))
	buyer := createTestUser(t, db, "buyer", string(domain.RoleUser))
	svc := newTestDocumentService(db, dir)
	ctx := context.Background()

	src := buildTestPDF(t, 6)
	doc, err := svc.Create(ctx, &CreateDocumentInput{Title: "Atlas", FreePages: 2, Price: 30000}, src, admin.ID, "ip")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	createTestLicense(t, db, buyer.ID, doc.ID, 1, true, nil)

	result, err := svc.GetContent(ctx, viewerFor(buyer), doc.ID, "127.0.0.1")
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	if result.Decision.Tier != domain.TierFull {
		t.Fatalf("Tier = %s, want full", result.Decision.Tier)
	}
	if !bytes.Equal(result.Content, src) {
		t.Error("Full tier must serve the original bytes untouched")
	}
}

func TestGetContent_BoundedTierServesDerivative(t *testing.T) {
	db := setupTestDB(t)
	dir := t.TempDir()
	admin := createTestUser(t, db, "admin", string(domain.RoleAdmin))
	svc := newTestDocumentService(db, dir)
	ctx := context.Background()

	src := buildTestPDF(t, 6)
	doc, err := svc.Create(ctx, &CreateDocumentInput{Title: "Atlas", FreePages: 2, Price: 30000}, src, admin.ID, "ip")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	result, err := svc.GetContent(ctx, domain.Viewer{}, doc.ID, "127.0.0.1")
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	if result.Decision.Tier != domain.TierBounded {
		t.Fatalf("Tier = %s, want bounded", result.Decision.Tier)
	}
	if bytes.Equal(result.Content, src) {
		t.Error("Bounded tier must not leak the original bytes")
	}

	pages, err := NewDerivativeService().PageCount(result.Content)
	if err != nil {
		t.Fatalf("Derivative does not parse: %v", err)
	}
	if pages != 2 {
		t.Errorf("Derivative page count = %d, want free page count 2", pages)
	}
}

func TestGetContent_NoneTierReturnsNoBytes(t *testing.T) {
	db := setupTestDB(t)
	dir := t.TempDir()
	admin := createTestUser(t, db, "admin", string(domain.RoleAdmin))
	svc := newTestDocumentService(db, dir)
	ctx := context.Background()

	doc, err := svc.Create(ctx, &CreateDocumentInput{Title: "Locked", FreePages: 0, Price: 30000}, buildTestPDF(t, 3), admin.ID, "ip")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	result, err := svc.GetContent(ctx, domain.Viewer{}, doc.ID, "127.0.0.1")
	if err != nil {
		t.Fatalf("GetContent: %v", err)
	}
	if result.Decision.Tier != domain.TierNone {
		t.Fatalf("Tier = %s, want none", result.Decision.Tier)
	}
	if result.Content != nil {
		t.Error("Tier none must carry no content")
	}
	if result.Decision.Reason != domain.ReasonAuthRequired {
		t.Errorf("Reason = %s, want AUTHENTICATION_REQUIRED", result.Decision.Reason)
	}
}

func TestGetContent_InactiveDocumentHidden(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestUser(t, db, "admin", string(domain.RoleAdmin))
	svc := newTestDocumentService(db, t.TempDir())
	ctx := context.Background()

	doc, err := svc.Create(ctx, &CreateDocumentInput{Title: "Pulled", FreePages: 1, Price: 0}, buildTestPDF(t, 2), admin.ID, "ip")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := svc.Delete(ctx, doc.ID, admin.ID, "ip"); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	if _, err := svc.GetContent(ctx, viewerFor(admin), doc.ID, "ip"); !errors.Is(err, ErrDocumentNotFound) {
		t.Errorf("err = %v, want ErrDocumentNotFound", err)
	}
}

func TestCheckAccess_NoSideEffects(t *testing.T) {
	db := setupTestDB(t)
	dir := t.TempDir()
	admin := createTestUser(t, db, "admin", string(domain.RoleAdmin))
	svc := newTestDocumentService(db, dir)
	ctx := context.Background()

	doc, err := svc.Create(ctx, &CreateDocumentInput{Title: "Probe", FreePages: 1, Price: 20000}, buildTestPDF(t, 2), admin.ID, "ip")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	decision, err := svc.CheckAccess(ctx, domain.Viewer{}, doc.ID)
	if err != nil {
		t.Fatalf("CheckAccess: %v", err)
	}
	if decision.Tier != domain.TierBounded || decision.Reason != domain.ReasonFreePreview {
		t.Errorf("Decision = %s/%s, want bounded/FREE_PREVIEW", decision.Tier, decision.Reason)
	}

	var refreshed models.Document
	db.First(&refreshed, doc.ID)
	if refreshed.ViewCount != 0 {
		t.Errorf("ViewCount = %d, want 0 after a probe", refreshed.ViewCount)
	}
	var views int64
	db.Model(&models.ActivityLog{}).Where("action = ?", models.ActionDocumentViewed).Count(&views)
	if views != 0 {
		t.Errorf("View audit count = %d, want 0 after a probe", views)
	}
}
