package models

import (
	"encoding/json"
	"time"
)

// ActivityLog represents activity_logs table. Append-only: rows are never
// updated, and only a user's permanent deletion removes them.
type ActivityLog struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     *uint     `gorm:"index" json:"user_id"` // nil = anonymous viewer
	Action     string    `gorm:"size:50;not null;index" json:"action"`
	EntityType string    `gorm:"size:50;not null" json:"entity_type"`
	EntityID   *uint     `json:"entity_id"`
	Details    string    `gorm:"type:text" json:"details"`
	IPAddress  string    `gorm:"size:50" json:"ip_address"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`

	User *User `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

func (ActivityLog) TableName() string {
	return "activity_logs"
}

// Audit actions
const (
	ActionPurchaseCreated  = "PURCHASE_CREATED"
	ActionPurchaseApproved = "PURCHASE_APPROVED"
	ActionPurchaseRejected = "PURCHASE_REJECTED"
	ActionDocumentViewed   = "DOCUMENT_VIEWED"
	ActionDocumentCreated  = "DOCUMENT_CREATED"
	ActionDocumentUpdated  = "DOCUMENT_UPDATED"
	ActionDocumentDeleted  = "DOCUMENT_DELETED"
	ActionPermissionGrant  = "PERMISSION_GRANTED"
	ActionPermissionRevoke = "PERMISSION_REVOKED"
	ActionRoleChanged      = "ROLE_CHANGED"
	ActionStatusChanged    = "STATUS_CHANGED"
	ActionUserDeleted      = "USER_DELETED"
	ActionUserPurged       = "USER_PURGED"
	ActionAdminBlocked     = "ADMIN_ACTION_BLOCKED"
)

// Entity types
const (
	EntityUser     = "user"
	EntityDocument = "document"
	EntityPurchase = "purchase"
	EntityLicense  = "license"
)

// AuditDetail is the closed set of payload shapes stored in the details
// column, one concrete type per action kind.
type AuditDetail interface {
	auditDetail()
}

// PurchaseDetail records purchase creation and the computed price breakdown
type PurchaseDetail struct {
	DocumentID     uint    `json:"document_id"`
	Amount         int64   `json:"amount"`
	DiscountCode   *string `json:"discount_code,omitempty"`
	DiscountAmount int64   `json:"discount_amount"`
	FinalAmount    int64   `json:"final_amount"`
	AutoApproved   bool    `json:"auto_approved"`
}

// StatusDetail records a purchase status transition
type StatusDetail struct {
	From       string `json:"from"`
	To         string `json:"to"`
	AdminNotes string `json:"admin_notes,omitempty"`
}

// AccessDetail records a resolved document view
type AccessDetail struct {
	Tier      string `json:"tier"`
	Reason    string `json:"reason"`
	PageLimit int    `json:"page_limit,omitempty"`
}

// DocumentDetail records document lifecycle changes
type DocumentDetail struct {
	Title      string `json:"title"`
	TotalPages int    `json:"total_pages,omitempty"`
	FreePages  int    `json:"free_pages,omitempty"`
	Price      int64  `json:"price,omitempty"`
}

// PermissionDetail records a file-permission grant or revocation
type PermissionDetail struct {
	UserID     uint `json:"user_id"`
	DocumentID uint `json:"document_id"`
	GrantedBy  uint `json:"granted_by"`
}

// RoleChangeDetail records a user role transition
type RoleChangeDetail struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// UserStatusDetail records an active-status transition
type UserStatusDetail struct {
	IsActive bool `json:"is_active"`
}

// UserDeleteDetail records a soft or permanent user deletion
type UserDeleteDetail struct {
	Permanent bool   `json:"permanent"`
	Username  string `json:"username"`
}

// AdminBlockDetail records a blocked privileged mutation, which is itself a
// security-relevant event
type AdminBlockDetail struct {
	Operation string `json:"operation"`
	TargetID  uint   `json:"target_id"`
	Reason    string `json:"reason"`
}

func (PurchaseDetail) auditDetail()   {}
func (StatusDetail) auditDetail()     {}
func (AccessDetail) auditDetail()     {}
func (DocumentDetail) auditDetail()   {}
func (PermissionDetail) auditDetail() {}
func (RoleChangeDetail) auditDetail() {}
func (UserStatusDetail) auditDetail() {}
func (UserDeleteDetail) auditDetail() {}
func (AdminBlockDetail) auditDetail() {}

// NewActivityLog builds an append-only audit entry with a typed detail payload
func NewActivityLog(userID *uint, action, entityType string, entityID *uint, detail AuditDetail, ip string) *ActivityLog {
	entry := &ActivityLog{
		UserID:     userID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		IPAddress:  ip,
	}
	if detail != nil {
		if raw, err := json.Marshal(detail); err == nil {
			entry.Details = string(raw)
		}
	}
	return entry
}
