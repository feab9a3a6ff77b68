package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"docshelf/internal/adapters/persistence/models"
	"docshelf/internal/core/domain"
)

func TestPurchaseCreate_PendingForPaidDocument(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "reader", string(domain.RoleUser))
	doc := createTestDocument(t, db, "paid-book", 20, 3, 100000)
	svc := newTestPurchaseService(db)
	ctx := context.Background()

	purchase, err := svc.Create(ctx, user.ID, &CreatePurchaseInput{DocumentID: doc.ID}, "127.0.0.1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if purchase.Status != string(domain.PurchasePending) {
		t.Errorf("Status = %s, want PENDING", purchase.Status)
	}
	if purchase.Amount != 100000 || purchase.FinalAmount != 100000 || purchase.DiscountAmount != 0 {
		t.Errorf("Amounts = %d/%d/%d, want 100000/0/100000",
			purchase.Amount, purchase.DiscountAmount, purchase.FinalAmount)
	}

	// No license until approval
	var licenses int64
	db.Model(&models.License{}).Where("user_id = ?", user.ID).Count(&licenses)
	if licenses != 0 {
		t.Errorf("License count = %d, want 0 before approval", licenses)
	}
}

func TestPurchaseCreate_ZeroCostAutoApproved(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "reader", string(domain.RoleUser))
	doc := createTestDocument(t, db, "book", 20, 3, 100000)
	createTestDiscount(t, db, "GRATIS", string(domain.DiscountFree), 0, nil, nil)
	svc := newTestPurchaseService(db)
	ctx := context.Background()

	purchase, err := svc.Create(ctx, user.ID, &CreatePurchaseInput{
		DocumentID:   doc.ID,
		DiscountCode: "GRATIS",
	}, "127.0.0.1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	// The buyer never observes a pending state
	if purchase.Status != string(domain.PurchaseApproved) {
		t.Errorf("Status = %s, want APPROVED", purchase.Status)
	}
	if purchase.FinalAmount != 0 {
		t.Errorf("FinalAmount = %d, want 0", purchase.FinalAmount)
	}
	if purchase.ApprovedBy != nil {
		t.Errorf("ApprovedBy = %v, want nil for auto-approval", purchase.ApprovedBy)
	}

	var license models.License
	if err := db.Where("user_id = ? AND document_id = ?", user.ID, doc.ID).First(&license).Error; err != nil {
		t.Fatalf("License not issued: %v", err)
	}
	if !license.Grants() {
		t.Error("Issued license does not grant access")
	}

	var dc models.DiscountCode
	db.Where("code = ?", "GRATIS").First(&dc)
	if dc.UsedCount != 1 {
		t.Errorf("UsedCount = %d, want 1", dc.UsedCount)
	}
}

func TestPurchaseCreate_FreeDocumentAutoApproved(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "reader", string(domain.RoleUser))
	doc := createTestDocument(t, db, "free-book", 10, 0, 0)
	svc := newTestPurchaseService(db)

	purchase, err := svc.Create(context.Background(), user.ID, &CreatePurchaseInput{DocumentID: doc.ID}, "127.0.0.1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if purchase.Status != string(domain.PurchaseApproved) {
		t.Errorf("Status = %s, want APPROVED", purchase.Status)
	}
}

func TestPurchaseCreate_InvalidDiscountDegradesSilently(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "reader", string(domain.RoleUser))
	doc := createTestDocument(t, db, "book", 20, 3, 100000)
	svc := newTestPurchaseService(db)

	purchase, err := svc.Create(context.Background(), user.ID, &CreatePurchaseInput{
		DocumentID:   doc.ID,
		DiscountCode: "NOSUCHCODE",
	}, "127.0.0.1")
	if err != nil {
		t.Fatalf("Checkout must not fail on an unusable code: %v", err)
	}
	if purchase.DiscountAmount != 0 || purchase.FinalAmount != 100000 {
		t.Errorf("Amounts = %d/%d, want 0/100000", purchase.DiscountAmount, purchase.FinalAmount)
	}
	if purchase.DiscountCode != nil {
		t.Errorf("DiscountCode = %v, want nil when no discount applied", *purchase.DiscountCode)
	}
}

func TestPurchaseCreate_AlreadyEntitled(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "reader", string(domain.RoleUser))
	doc := createTestDocument(t, db, "book", 20, 3, 100000)
	createTestLicense(t, db, user.ID, doc.ID, 1, true, nil)
	svc := newTestPurchaseService(db)

	_, err := svc.Create(context.Background(), user.ID, &CreatePurchaseInput{DocumentID: doc.ID}, "127.0.0.1")
	if !errors.Is(err, ErrAlreadyEntitled) {
		t.Errorf("err = %v, want ErrAlreadyEntitled", err)
	}
}

func TestPurchaseCreate_InactiveDocument(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "reader", string(domain.RoleUser))
	doc := createTestDocument(t, db, "gone", 20, 3, 100000)
	db.Model(doc).Update("is_active", false)
	svc := newTestPurchaseService(db)

	_, err := svc.Create(context.Background(), user.ID, &CreatePurchaseInput{DocumentID: doc.ID}, "127.0.0.1")
	if !errors.Is(err, ErrDocumentUnavailable) {
		t.Errorf("err = %v, want ErrDocumentUnavailable", err)
	}
}

func TestPurchaseSetStatus_ApproveIssuesLicenseOnce(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "reader", string(domain.RoleUser))
	admin := createTestUser(t, db, "admin", string(domain.RoleAdmin))
	doc := createTestDocument(t, db, "book", 20, 3, 100000)
	createTestDiscount(t, db, "SAVE10", string(domain.DiscountPercentage), 10, nil, nil)
	svc := newTestPurchaseService(db)
	ctx := context.Background()

	purchase, err := svc.Create(ctx, user.ID, &CreatePurchaseInput{
		DocumentID:   doc.ID,
		DiscountCode: "SAVE10",
	}, "127.0.0.1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if purchase.FinalAmount != 90000 {
		t.Fatalf("FinalAmount = %d, want 90000", purchase.FinalAmount)
	}

	approved, err := svc.SetStatus(ctx, purchase.ID, admin.ID, &SetStatusInput{
		Status: string(domain.PurchaseApproved),
	}, "127.0.0.1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if approved.Status != string(domain.PurchaseApproved) {
		t.Errorf("Status = %s, want APPROVED", approved.Status)
	}
	if approved.ApprovedBy == nil || *approved.ApprovedBy != admin.ID {
		t.Errorf("ApprovedBy = %v, want %d", approved.ApprovedBy, admin.ID)
	}

	// Reprocessing a terminal purchase is a conflict, not a second license
	if _, err := svc.SetStatus(ctx, purchase.ID, admin.ID, &SetStatusInput{
		Status: string(domain.PurchaseApproved),
	}, "127.0.0.1"); !errors.Is(err, ErrPurchaseNotPending) {
		t.Errorf("err = %v, want ErrPurchaseNotPending", err)
	}

	var licenses int64
	db.Model(&models.License{}).Where("user_id = ? AND document_id = ?", user.ID, doc.ID).Count(&licenses)
	if licenses != 1 {
		t.Errorf("License count = %d, want exactly 1", licenses)
	}

	var dc models.DiscountCode
	db.Where("code = ?", "SAVE10").First(&dc)
	if dc.UsedCount != 1 {
		t.Errorf("UsedCount = %d, want exactly 1", dc.UsedCount)
	}

	var refreshed models.Document
	db.First(&refreshed, doc.ID)
	if refreshed.PurchaseCount != 1 {
		t.Errorf("PurchaseCount = %d, want 1", refreshed.PurchaseCount)
	}
}

func TestPurchaseSetStatus_RejectLeavesNoEntitlement(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "reader", string(domain.RoleUser))
	admin := createTestUser(t, db, "admin", string(domain.RoleAdmin))
	doc := createTestDocument(t, db, "book", 20, 3, 100000)
	createTestDiscount(t, db, "SAVE10", string(domain.DiscountPercentage), 10, nil, nil)
	svc := newTestPurchaseService(db)
	ctx := context.Background()

	purchase, err := svc.Create(ctx, user.ID, &CreatePurchaseInput{
		DocumentID:   doc.ID,
		DiscountCode: "SAVE10",
	}, "127.0.0.1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	rejected, err := svc.SetStatus(ctx, purchase.ID, admin.ID, &SetStatusInput{
		Status:     string(domain.PurchaseRejected),
		AdminNotes: "payment never arrived",
	}, "127.0.0.1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if rejected.Status != string(domain.PurchaseRejected) {
		t.Errorf("Status = %s, want REJECTED", rejected.Status)
	}
	if rejected.AdminNotes != "payment never arrived" {
		t.Errorf("AdminNotes = %q", rejected.AdminNotes)
	}

	var licenses int64
	db.Model(&models.License{}).Where("user_id = ?", user.ID).Count(&licenses)
	if licenses != 0 {
		t.Errorf("License count = %d, want 0 after rejection", licenses)
	}

	var dc models.DiscountCode
	db.Where("code = ?", "SAVE10").First(&dc)
	if dc.UsedCount != 0 {
		t.Errorf("UsedCount = %d, want 0 after rejection", dc.UsedCount)
	}

	// A rejected purchase cannot be approved afterwards
	if _, err := svc.SetStatus(ctx, purchase.ID, admin.ID, &SetStatusInput{
		Status: string(domain.PurchaseApproved),
	}, "127.0.0.1"); !errors.Is(err, ErrPurchaseNotPending) {
		t.Errorf("err = %v, want ErrPurchaseNotPending", err)
	}
}

func TestPurchaseSetStatus_InvalidInputs(t *testing.T) {
	db := setupTestDB(t)
	admin := createTestUser(t, db, "admin", string(domain.RoleAdmin))
	svc := newTestPurchaseService(db)
	ctx := context.Background()

	if _, err := svc.SetStatus(ctx, 1, admin.ID, &SetStatusInput{Status: "PENDING"}, "ip"); !errors.Is(err, ErrInvalidPurchaseStatus) {
		t.Errorf("err = %v, want ErrInvalidPurchaseStatus", err)
	}
	if _, err := svc.SetStatus(ctx, 9999, admin.ID, &SetStatusInput{Status: string(domain.PurchaseApproved)}, "ip"); !errors.Is(err, ErrPurchaseNotFound) {
		t.Errorf("err = %v, want ErrPurchaseNotFound", err)
	}
}

func TestPurchaseApprove_RenewalReactivatesExistingLicense(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "reader", string(domain.RoleUser))
	admin := createTestUser(t, db, "admin", string(domain.RoleAdmin))
	doc := createTestDocument(t, db, "book", 20, 3, 100000)

	// An expired license no longer grants access, so a renewal purchase is
	// allowed. Approval must reuse the existing row, not insert a second.
	expired := time.Now().Add(-time.Hour)
	old := createTestLicense(t, db, user.ID, doc.ID, 7, true, &expired)

	svc := newTestPurchaseService(db)
	ctx := context.Background()

	purchase, err := svc.Create(ctx, user.ID, &CreatePurchaseInput{DocumentID: doc.ID}, "127.0.0.1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	if _, err := svc.SetStatus(ctx, purchase.ID, admin.ID, &SetStatusInput{
		Status: string(domain.PurchaseApproved),
	}, "127.0.0.1"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var licenses []models.License
	db.Where("user_id = ? AND document_id = ?", user.ID, doc.ID).Find(&licenses)
	if len(licenses) != 1 {
		t.Fatalf("License count = %d, want 1 (renewal must not insert)", len(licenses))
	}
	renewed := licenses[0]
	if renewed.ID != old.ID {
		t.Errorf("License ID = %d, want reused row %d", renewed.ID, old.ID)
	}
	if !renewed.Grants() {
		t.Error("Renewed license must grant access")
	}
	if renewed.PurchaseID != purchase.ID {
		t.Errorf("PurchaseID = %d, want %d", renewed.PurchaseID, purchase.ID)
	}
}

func TestPurchaseList_StatusFilter(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "reader", string(domain.RoleUser))
	doc := createTestDocument(t, db, "book-a", 20, 3, 100000)
	doc2 := createTestDocument(t, db, "book-b", 20, 3, 50000)
	svc := newTestPurchaseService(db)
	ctx := context.Background()

	if _, err := svc.Create(ctx, user.ID, &CreatePurchaseInput{DocumentID: doc.ID}, "ip"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if _, err := svc.Create(ctx, user.ID, &CreatePurchaseInput{DocumentID: doc2.ID}, "ip"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	pending, total, err := svc.List(ctx, string(domain.PurchasePending), 0, 20)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if total != 2 || len(pending) != 2 {
		t.Errorf("total = %d, len = %d, want 2/2", total, len(pending))
	}

	if _, _, err := svc.List(ctx, "SHIPPED", 0, 20); !errors.Is(err, ErrInvalidPurchaseStatus) {
		t.Errorf("err = %v, want ErrInvalidPurchaseStatus", err)
	}
}

func TestPurchaseCreate_LowercaseCodeConsumedOnApproval(t *testing.T) {
	db := setupTestDB(t)
	user := createTestUser(t, db, "reader", string(domain.RoleUser))
	admin := createTestUser(t, db, "admin", string(domain.RoleAdmin))
	doc := createTestDocument(t, db, "book", 20, 3, 100000)
	createTestDiscount(t, db, "SAVE10", string(domain.DiscountPercentage), 10, nil, nil)
	svc := newTestPurchaseService(db)
	ctx := context.Background()

	purchase, err := svc.Create(ctx, user.ID, &CreatePurchaseInput{
		DocumentID:   doc.ID,
		DiscountCode: "save10",
	}, "127.0.0.1")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if purchase.FinalAmount != 90000 {
		t.Errorf("FinalAmount = %d, want 90000", purchase.FinalAmount)
	}
	// The canonical form is what gets persisted
	if purchase.DiscountCode == nil || *purchase.DiscountCode != "SAVE10" {
		t.Fatalf("DiscountCode = %v, want SAVE10", purchase.DiscountCode)
	}

	if _, err := svc.SetStatus(ctx, purchase.ID, admin.ID, &SetStatusInput{
		Status: string(domain.PurchaseApproved),
	}, "127.0.0.1"); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	var dc models.DiscountCode
	db.Where("code = ?", "SAVE10").First(&dc)
	if dc.UsedCount != 1 {
		t.Errorf("UsedCount = %d, want 1 regardless of input casing", dc.UsedCount)
	}
}
