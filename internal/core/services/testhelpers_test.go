package services

import (
	"bytes"
	"fmt"
	"testing"
	"time"

	"docshelf/internal/adapters/persistence/models"
	"docshelf/internal/adapters/persistence/repositories"
	"docshelf/internal/config"
	"docshelf/internal/core/domain"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

func testConfig() *config.Config {
	return &config.Config{
		AppMode: "dev",
		JWT: config.JWTConfig{
			Secret:           "test-access-secret",
			RefreshSecret:    "test-refresh-secret",
			AccessTokenMins:  15,
			RefreshTokenDays: 7,
		},
	}
}

func createTestUser(t *testing.T, db *gorm.DB, username, role string) *models.User {
	t.Helper()

	user := &models.User{
		Username: username,
		Email:    username + "@example.com",
		Password: "not-a-real-hash",
		Role:     role,
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user %s: %v", username, err)
	}
	return user
}

func createTestDocument(t *testing.T, db *gorm.DB, title string, totalPages, freePages int, price int64) *models.Document {
	t.Helper()

	doc := &models.Document{
		Title:      title,
		FileName:   fmt.Sprintf("%s.pdf", title),
		TotalPages: totalPages,
		FreePages:  freePages,
		Price:      price,
		IsActive:   true,
	}
	if err := db.Create(doc).Error; err != nil {
		t.Fatalf("Failed to create test document %s: %v", title, err)
	}
	return doc
}

func createTestDiscount(t *testing.T, db *gorm.DB, code, dtype string, value int64, maxUses *int, expiresAt *time.Time) *models.DiscountCode {
	t.Helper()

	dc := &models.DiscountCode{
		Code:      code,
		Type:      dtype,
		Value:     value,
		MaxUses:   maxUses,
		IsActive:  true,
		ExpiresAt: expiresAt,
	}
	if err := db.Create(dc).Error; err != nil {
		t.Fatalf("Failed to create test discount %s: %v", code, err)
	}
	return dc
}

func createTestLicense(t *testing.T, db *gorm.DB, userID, documentID, purchaseID uint, active bool, expiresAt *time.Time) *models.License {
	t.Helper()

	license := &models.License{
		UserID:     userID,
		DocumentID: documentID,
		PurchaseID: purchaseID,
		IsActive:   active,
		ExpiresAt:  expiresAt,
	}
	if err := db.Create(license).Error; err != nil {
		t.Fatalf("Failed to create test license: %v", err)
	}
	return license
}

func newTestPurchaseService(db *gorm.DB) *PurchaseService {
	return NewPurchaseService(
		db,
		repositories.NewPurchaseRepository(db),
		repositories.NewDocumentRepository(db),
		repositories.NewLicenseRepository(db),
		NewDiscountService(repositories.NewDiscountCodeRepository(db)),
	)
}

func newTestAccessService(db *gorm.DB) *AccessService {
	return NewAccessService(
		repositories.NewDocumentRepository(db),
		repositories.NewLicenseRepository(db),
		repositories.NewFilePermissionRepository(db),
		repositories.NewActivityLogRepository(db),
	)
}

func newTestUserService(db *gorm.DB) *UserService {
	userRepo := repositories.NewUserRepository(db)
	activityRepo := repositories.NewActivityLogRepository(db)
	return NewUserService(db, userRepo, NewAdminGuard(userRepo, activityRepo), activityRepo)
}

func viewerFor(user *models.User) domain.Viewer {
	return domain.Viewer{UserID: &user.ID, Role: domain.Role(user.Role)}
}

// buildTestPDF renders a minimal but structurally valid PDF with the given
// number of empty pages, including a correct cross-reference table.
func buildTestPDF(t *testing.T, pages int) []byte {
	t.Helper()

	var buf bytes.Buffer
	offsets := make([]int, 0, pages+2)

	buf.WriteString("%PDF-1.4\n")

	addObj := func(body string) {
		offsets = append(offsets, buf.Len())
		buf.WriteString(body)
	}

	kids := ""
	for i := 0; i < pages; i++ {
		if i > 0 {
			kids += " "
		}
		kids += fmt.Sprintf("%d 0 R", 3+i)
	}

	addObj("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")
	addObj(fmt.Sprintf("2 0 obj\n<< /Type /Pages /Kids [%s] /Count %d >>\nendobj\n", kids, pages))
	for i := 0; i < pages; i++ {
		addObj(fmt.Sprintf("%d 0 obj\n<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] >>\nendobj\n", 3+i))
	}

	xrefPos := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xrefPos)

	return buf.Bytes()
}
