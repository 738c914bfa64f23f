/*
records.go - Persisted record types

PURPOSE:
  Row-level structs for everything the store persists. These are the
  store's own types; the reward engine sees only its interface types
  (reward.Rule, reward.TransferRecord) which the store maps to/from.

ANNOTATIONS:
  Interaction annotations are a structured record of known kinds, not
  a free-form JSON string. The store serializes the struct to one JSON
  column; unknown keys are rejected at the API boundary by virtue of
  decoding into this struct.
*/
package sqlite

import (
	"time"

	"github.com/shopspring/decimal"
)

// Company is a tenant. The api_key authenticates every company-scoped
// request; it is generated at signup and never rotated in this system.
type Company struct {
	ID                int64
	Name              string
	APIKey            string
	Description       string
	Sector            string
	Website           string
	Phone             string
	Email             string
	Address           string
	BusinessLicense   string
	TaxCode           string
	SupportedActions  []string
	ServiceCategories []string
	Active            bool
	Tier              string
	CreatedAt         time.Time
	UpdatedAt         *time.Time
}

// CompanyUpdate carries optional profile changes. Nil means "leave
// unchanged".
type CompanyUpdate struct {
	Name              *string
	Description       *string
	Sector            *string
	Website           *string
	Phone             *string
	Email             *string
	Address           *string
	BusinessLicense   *string
	TaxCode           *string
	SupportedActions  []string
	ServiceCategories []string
	Active            *bool
	Tier              *string
}

// User is a customer enrolled by one company.
type User struct {
	ID        int64
	CompanyID int64
	FullName  string
	Email     string
	Phone     string
	Segment   string
	CreatedAt time.Time
}

// Wallet maps an owner (company or user) to its chain address.
// One wallet per owner, created at onboarding, immutable after.
type Wallet struct {
	ID        string
	OwnerType string // "company" | "user"
	OwnerID   int64
	Address   string
	CreatedAt time.Time
}

// Annotations is the structured metadata attached to an interaction.
// All fields are optional; zero values are omitted from storage.
type Annotations struct {
	TransactionType string `json:"transaction_type,omitempty"` // "reward", "payment", "refund", "bonus"
	Status          string `json:"status,omitempty"`           // "completed", "pending", "failed"
	Channel         string `json:"channel,omitempty"`          // "online", "mobile", "branch", "atm"
	DeviceType      string `json:"device_type,omitempty"`      // "mobile", "desktop", "tablet", "pos"
	PaymentMethod   string `json:"payment_method,omitempty"`   // "card", "cash", "transfer", "qr"
	Currency        string `json:"currency,omitempty"`
	Note            string `json:"note,omitempty"`
}

// IsZero reports whether no annotation field is set.
func (a Annotations) IsZero() bool {
	return a == Annotations{}
}

// Interaction is one occurrence of a user performing an action against
// a company. Append-only; triggers at most one reward computation.
type Interaction struct {
	ID          int64
	UserID      int64
	CompanyID   int64
	Service     string
	Action      string
	Amount      *decimal.Decimal
	Annotations Annotations
	CreatedAt   time.Time
}

// TransferRow is a persisted token transfer receipt. FromWallet is
// nil for mints.
type TransferRow struct {
	ID         string
	TxHash     string
	FromWallet *string
	ToWallet   string
	Amount     decimal.Decimal
	Memo       string
	CreatedAt  time.Time
}

// Contract is an event hook a company exposes to external systems.
// Firing it records an interaction and applies the matching rule.
type Contract struct {
	ID        int64
	CompanyID int64
	Name      string
	Action    string
	Mode      string
	Rate      decimal.Decimal
	Active    bool
	Secret    string
	CreatedAt time.Time
}
