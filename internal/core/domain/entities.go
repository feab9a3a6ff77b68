package domain

// Role represents user role in the system
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// PurchaseStatus represents the lifecycle state of a purchase
type PurchaseStatus string

const (
	PurchasePending  PurchaseStatus = "PENDING"
	PurchaseApproved PurchaseStatus = "APPROVED"
	PurchaseRejected PurchaseStatus = "REJECTED"
)

// IsTerminal reports whether the status cannot transition further
func (s PurchaseStatus) IsTerminal() bool {
	return s == PurchaseApproved || s == PurchaseRejected
}

// DiscountType represents how a discount code computes its amount
type DiscountType string

const (
	DiscountPercentage DiscountType = "PERCENTAGE"
	DiscountFixed      DiscountType = "FIXED"
	DiscountFree       DiscountType = "FREE"
)

// AccessTier is the level of content access resolved for a viewer/document pair
type AccessTier string

const (
	TierNone    AccessTier = "none"
	TierBounded AccessTier = "bounded"
	TierFull    AccessTier = "full"
)

// AccessReason explains a non-full (or full) resolution so the client can
// render the right call to action (login, buy, renew)
type AccessReason string

const (
	ReasonLicensed        AccessReason = "LICENSED"
	ReasonFilePermission  AccessReason = "FILE_PERMISSION"
	ReasonFreePreview     AccessReason = "FREE_PREVIEW"
	ReasonAuthRequired    AccessReason = "AUTHENTICATION_REQUIRED"
	ReasonLicenseRequired AccessReason = "LICENSE_REQUIRED"
	ReasonLicenseExpired  AccessReason = "LICENSE_EXPIRED"
)

// AccessDecision is the outcome of resolving a viewer/document pair
type AccessDecision struct {
	Tier      AccessTier   `json:"tier"`
	Reason    AccessReason `json:"reason"`
	PageLimit int          `json:"page_limit,omitempty"` // pages served when Tier is bounded
}

// Viewer identifies who is requesting access. UserID nil means anonymous.
type Viewer struct {
	UserID *uint
	Role   Role
}

// IsAnonymous reports whether the viewer is unauthenticated
func (v Viewer) IsAnonymous() bool {
	return v.UserID == nil
}
