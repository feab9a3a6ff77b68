package models

import (
	"time"

	"gorm.io/gorm"
)

// ============================================================
// Auth & User Tables
// ============================================================

// User represents users table
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Username  string         `gorm:"uniqueIndex;size:50;not null" json:"username"`
	Email     string         `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password  string         `gorm:"size:255;not null" json:"-"`
	Role      string         `gorm:"size:20;default:'USER'" json:"role"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// UserResponse DTO
type UserResponse struct {
	ID        uint      `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	IsActive  bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
}

func (u *User) ToResponse() *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		IsActive:  u.IsActive,
		CreatedAt: u.CreatedAt,
	}
}

// RefreshToken represents refresh_tokens table
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uint       `gorm:"index;not null" json:"user_id"`
	TokenHash string     `gorm:"size:255;not null;index" json:"-"`
	ExpiresAt time.Time  `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time  `gorm:"autoCreateTime" json:"created_at"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at"`
	User      User       `gorm:"foreignKey:UserID" json:"-"`
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}

func (rt *RefreshToken) IsRevoked() bool {
	return rt.RevokedAt != nil
}

func (rt *RefreshToken) IsExpired() bool {
	return time.Now().After(rt.ExpiresAt)
}

// ============================================================
// Catalog Tables
// ============================================================

// Document represents documents table. Price is stored in minor currency units.
type Document struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	Title         string         `gorm:"size:200;not null" json:"title"`
	Author        string         `gorm:"size:100" json:"author"`
	Description   string         `gorm:"type:text" json:"description"`
	FileName      string         `gorm:"size:255" json:"-"` // stored asset name under the storage dir
	FileSize      int64          `json:"file_size"`
	TotalPages    int            `gorm:"not null;default:0" json:"total_pages"`
	FreePages     int            `gorm:"not null;default:0" json:"free_pages"`
	Price         int64          `gorm:"not null;default:0" json:"price"`
	IsActive      bool           `gorm:"default:true" json:"is_active"`
	ViewCount     int64          `gorm:"default:0" json:"view_count"`
	PurchaseCount int64          `gorm:"default:0" json:"purchase_count"`
	CreatedAt     time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt     gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Document) TableName() string {
	return "documents"
}

// HasFreePreview reports whether unlicensed viewers get a bounded preview
func (d *Document) HasFreePreview() bool {
	return d.FreePages > 0
}

// PreviewPages is the number of pages served in a bounded preview
func (d *Document) PreviewPages() int {
	if d.FreePages < d.TotalPages {
		return d.FreePages
	}
	return d.TotalPages
}

// DiscountCode represents discount_codes table
type DiscountCode struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Code      string         `gorm:"uniqueIndex;size:50;not null" json:"code"`
	Type      string         `gorm:"size:20;not null" json:"type"`
	Value     int64          `gorm:"not null;default:0" json:"value"`
	MaxUses   *int           `json:"max_uses"` // nil = unlimited
	UsedCount int            `gorm:"not null;default:0" json:"used_count"`
	IsActive  bool           `gorm:"default:true" json:"is_active"`
	ExpiresAt *time.Time     `json:"expires_at"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (DiscountCode) TableName() string {
	return "discount_codes"
}

// IsExhausted reports whether the code has reached its usage cap
func (dc *DiscountCode) IsExhausted() bool {
	return dc.MaxUses != nil && dc.UsedCount >= *dc.MaxUses
}

// ============================================================
// Entitlement Tables
// ============================================================

// Purchase represents purchases table. All money columns are minor units.
type Purchase struct {
	ID             uint       `gorm:"primaryKey" json:"id"`
	UserID         uint       `gorm:"not null;index" json:"user_id"`
	DocumentID     uint       `gorm:"not null;index" json:"document_id"`
	Amount         int64      `gorm:"not null" json:"amount"` // document price at purchase time
	DiscountCode   *string    `gorm:"size:50" json:"discount_code"`
	DiscountAmount int64      `gorm:"not null;default:0" json:"discount_amount"`
	FinalAmount    int64      `gorm:"not null" json:"final_amount"`
	Status         string     `gorm:"size:20;not null;default:'PENDING';index" json:"status"`
	PaymentMethod  string     `gorm:"size:50" json:"payment_method"`
	AdminNotes     string     `gorm:"type:text" json:"admin_notes"`
	ApprovedBy     *uint      `json:"approved_by"` // nil for auto-approved zero-cost purchases
	ApprovedAt     *time.Time `json:"approved_at"`
	CreatedAt      time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Document *Document `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
	Approver *User     `gorm:"foreignKey:ApprovedBy" json:"approver,omitempty"`
}

func (Purchase) TableName() string {
	return "purchases"
}

// License represents licenses table.
// The composite unique index is the backstop for the one-license-per-pair rule:
// renewal reactivates the existing row instead of inserting a second one.
type License struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;uniqueIndex:idx_licenses_user_document" json:"user_id"`
	DocumentID uint       `gorm:"not null;uniqueIndex:idx_licenses_user_document" json:"document_id"`
	PurchaseID uint       `gorm:"not null" json:"purchase_id"`
	IsActive   bool       `gorm:"default:true" json:"is_active"`
	ExpiresAt  *time.Time `json:"expires_at"` // nil = time-unlimited
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Document *Document `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
	Purchase *Purchase `gorm:"foreignKey:PurchaseID" json:"purchase,omitempty"`
}

func (License) TableName() string {
	return "licenses"
}

// IsExpired reports whether the license has an expiry in the past
func (l *License) IsExpired() bool {
	return l.ExpiresAt != nil && time.Now().After(*l.ExpiresAt)
}

// Grants reports whether the license currently grants full access
func (l *License) Grants() bool {
	return l.IsActive && !l.IsExpired()
}

// FilePermission represents file_permissions table, an admin-granted
// entitlement overlay independent of purchase history
type FilePermission struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_file_permissions_user_document" json:"user_id"`
	DocumentID uint      `gorm:"not null;uniqueIndex:idx_file_permissions_user_document" json:"document_id"`
	GrantedBy  uint      `gorm:"not null" json:"granted_by"`
	IsActive   bool      `gorm:"default:true" json:"is_active"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relations
	User     *User     `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Document *Document `gorm:"foreignKey:DocumentID" json:"document,omitempty"`
	Granter  *User     `gorm:"foreignKey:GrantedBy" json:"granter,omitempty"`
}

func (FilePermission) TableName() string {
	return "file_permissions"
}

// ============================================================
// Auto Migration
// ============================================================

// AutoMigrate runs auto migration for all tables
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&RefreshToken{},
		&Document{},
		&DiscountCode{},
		&Purchase{},
		&License{},
		&FilePermission{},
		&ActivityLog{},
	)
}
