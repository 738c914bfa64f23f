/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for the API contract, decoupled from the store and
  engine types. Amounts cross the wire as float64; internally
  everything is decimal.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Done in handlers; DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - store/sqlite/records.go: The persisted shapes behind them
*/
package api

import (
	"time"

	"github.com/caohoangphucs/ATHENA/store/sqlite"
)

// =============================================================================
// COMPANIES
// =============================================================================

// CompanySignupRequest registers a new company.
type CompanySignupRequest struct {
	Name              string   `json:"name"`
	Description       string   `json:"description,omitempty"`
	Sector            string   `json:"sector,omitempty"`
	Website           string   `json:"website,omitempty"`
	Phone             string   `json:"phone,omitempty"`
	Email             string   `json:"email,omitempty"`
	Address           string   `json:"address,omitempty"`
	BusinessLicense   string   `json:"business_license,omitempty"`
	TaxCode           string   `json:"tax_code,omitempty"`
	SupportedActions  []string `json:"supported_actions,omitempty"`
	ServiceCategories []string `json:"service_categories,omitempty"`
	Tier              string   `json:"tier,omitempty"`
}

// CompanySignupResponse returns the credentials for the new tenant.
// The api key is shown exactly once.
type CompanySignupResponse struct {
	CompanyID int64  `json:"company_id"`
	APIKey    string `json:"api_key"`
}

// CompanyDTO is the company profile as returned to its owner.
type CompanyDTO struct {
	ID                int64    `json:"id"`
	Name              string   `json:"name"`
	Description       string   `json:"description,omitempty"`
	Sector            string   `json:"sector,omitempty"`
	Website           string   `json:"website,omitempty"`
	Phone             string   `json:"phone,omitempty"`
	Email             string   `json:"email,omitempty"`
	Address           string   `json:"address,omitempty"`
	BusinessLicense   string   `json:"business_license,omitempty"`
	TaxCode           string   `json:"tax_code,omitempty"`
	SupportedActions  []string `json:"supported_actions,omitempty"`
	ServiceCategories []string `json:"service_categories,omitempty"`
	IsActive          bool     `json:"is_active"`
	Tier              string   `json:"tier,omitempty"`
	CreatedAt         string   `json:"created_at"`
	UpdatedAt         string   `json:"updated_at,omitempty"`
}

// CompanyUpdateRequest carries optional profile changes; absent fields
// are left unchanged.
type CompanyUpdateRequest struct {
	Name              *string  `json:"name,omitempty"`
	Description       *string  `json:"description,omitempty"`
	Sector            *string  `json:"sector,omitempty"`
	Website           *string  `json:"website,omitempty"`
	Phone             *string  `json:"phone,omitempty"`
	Email             *string  `json:"email,omitempty"`
	Address           *string  `json:"address,omitempty"`
	BusinessLicense   *string  `json:"business_license,omitempty"`
	TaxCode           *string  `json:"tax_code,omitempty"`
	SupportedActions  []string `json:"supported_actions,omitempty"`
	ServiceCategories []string `json:"service_categories,omitempty"`
	IsActive          *bool    `json:"is_active,omitempty"`
	Tier              *string  `json:"tier,omitempty"`
}

// ServiceDTO is one entry in a company's services catalog, merged from
// rules and contracts and enriched with demo-catalog display fields.
// MinAmount and MaxReward are informational only; payouts ignore them.
type ServiceDTO struct {
	Source    string  `json:"source"` // "rule" | "contract"
	Name      string  `json:"name,omitempty"`
	Action    string  `json:"action"`
	Mode      string  `json:"mode"`
	Rate      float64 `json:"rate"`
	Unit      string  `json:"unit,omitempty"`
	Notes     string  `json:"notes,omitempty"`
	MinAmount float64 `json:"min_amount,omitempty"`
	MaxReward float64 `json:"max_reward,omitempty"`
	IsActive  bool    `json:"is_active"`
}

// CompanyServicesDTO lists what a company offers.
type CompanyServicesDTO struct {
	CompanyID        int64        `json:"company_id"`
	CompanyName      string       `json:"company_name"`
	SupportedActions []string     `json:"supported_actions"`
	Services         []ServiceDTO `json:"services"`
}

// =============================================================================
// USERS & WALLETS
// =============================================================================

// WalletDTO pairs an address with its live chain balance.
type WalletDTO struct {
	Address string  `json:"address"`
	Balance float64 `json:"balance"`
}

// UserCreateRequest enrolls a customer.
type UserCreateRequest struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Segment  string `json:"segment,omitempty"`
}

// UserUpdateRequest carries optional user changes.
type UserUpdateRequest struct {
	FullName *string `json:"full_name,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Segment  *string `json:"segment,omitempty"`
}

// UserDTO is a user with their wallet embedded.
type UserDTO struct {
	ID        int64     `json:"id"`
	CompanyID int64     `json:"company_id"`
	FullName  string    `json:"full_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Segment   string    `json:"segment,omitempty"`
	Wallet    WalletDTO `json:"wallet"`
	CreatedAt string    `json:"created_at"`
}

// TransferRequest moves tokens between two owned wallets.
type TransferRequest struct {
	FromOwnerType string  `json:"from_owner_type"`
	FromOwnerID   int64   `json:"from_owner_id"`
	ToOwnerType   string  `json:"to_owner_type"`
	ToOwnerID     int64   `json:"to_owner_id"`
	Amount        float64 `json:"amount"`
}

// TransferDTO is the receipt returned for a manual transfer.
type TransferDTO struct {
	TxHash     string  `json:"tx_hash"`
	Amount     float64 `json:"amount"`
	FromWallet string  `json:"from_wallet,omitempty"`
	ToWallet   string  `json:"to_wallet"`
}

// =============================================================================
// RULES & INTERACTIONS
// =============================================================================

// RuleCreateRequest defines a reward rule.
type RuleCreateRequest struct {
	Action string  `json:"action"`
	Rate   float64 `json:"rate"`
	Mode   string  `json:"mode,omitempty"` // defaults to per_amount
}

// RuleDTO is a reward rule in API responses.
type RuleDTO struct {
	ID        int64   `json:"id"`
	CompanyID int64   `json:"company_id"`
	Action    string  `json:"action"`
	Rate      float64 `json:"rate"`
	Mode      string  `json:"mode"`
	IsActive  bool    `json:"is_active"`
	CreatedAt string  `json:"created_at"`
}

// AnnotationsDTO mirrors sqlite.Annotations on the wire.
type AnnotationsDTO struct {
	TransactionType string `json:"transaction_type,omitempty"`
	Status          string `json:"status,omitempty"`
	Channel         string `json:"channel,omitempty"`
	DeviceType      string `json:"device_type,omitempty"`
	PaymentMethod   string `json:"payment_method,omitempty"`
	Currency        string `json:"currency,omitempty"`
	Note            string `json:"note,omitempty"`
}

// InteractionRequest records one user action.
type InteractionRequest struct {
	UserID      int64           `json:"user_id"`
	Service     string          `json:"service"`
	Action      string          `json:"action"`
	Amount      *float64        `json:"amount,omitempty"`
	Annotations *AnnotationsDTO `json:"annotations,omitempty"`
}

// InteractionResponse returns the recorded id and the tokens paid out.
type InteractionResponse struct {
	ID           int64   `json:"id"`
	RewardTokens float64 `json:"reward_tokens"`
}

// InteractionDTO is one history entry.
type InteractionDTO struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	CompanyID   int64           `json:"company_id"`
	Service     string          `json:"service"`
	Action      string          `json:"action"`
	Amount      *float64        `json:"amount,omitempty"`
	Annotations *AnnotationsDTO `json:"annotations,omitempty"`
	CreatedAt   string          `json:"created_at"`
}

// =============================================================================
// CONTRACTS
// =============================================================================

// ContractCreateRequest registers an event hook.
type ContractCreateRequest struct {
	Name   string  `json:"name"`
	Action string  `json:"action"`
	Mode   string  `json:"mode,omitempty"`
	Rate   float64 `json:"rate,omitempty"`
}

// ContractDTO is a contract in API responses. The secret is only
// included in the creation response.
type ContractDTO struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Action   string  `json:"action"`
	Mode     string  `json:"mode"`
	Rate     float64 `json:"rate"`
	IsActive bool    `json:"is_active"`
	Secret   string  `json:"secret,omitempty"`
}

// ContractEventRequest fires a contract event for a user.
type ContractEventRequest struct {
	UserID      int64           `json:"user_id"`
	Amount      *float64        `json:"amount,omitempty"`
	Annotations *AnnotationsDTO `json:"annotations,omitempty"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toInteractionDTO(it sqlite.Interaction) InteractionDTO {
	dto := InteractionDTO{
		ID:        it.ID,
		UserID:    it.UserID,
		CompanyID: it.CompanyID,
		Service:   it.Service,
		Action:    it.Action,
		CreatedAt: it.CreatedAt.Format(time.RFC3339),
	}
	if it.Amount != nil {
		a := it.Amount.InexactFloat64()
		dto.Amount = &a
	}
	if !it.Annotations.IsZero() {
		dto.Annotations = &AnnotationsDTO{
			TransactionType: it.Annotations.TransactionType,
			Status:          it.Annotations.Status,
			Channel:         it.Annotations.Channel,
			DeviceType:      it.Annotations.DeviceType,
			PaymentMethod:   it.Annotations.PaymentMethod,
			Currency:        it.Annotations.Currency,
			Note:            it.Annotations.Note,
		}
	}
	return dto
}

func toCompanyDTO(c *sqlite.Company) CompanyDTO {
	dto := CompanyDTO{
		ID:                c.ID,
		Name:              c.Name,
		Description:       c.Description,
		Sector:            c.Sector,
		Website:           c.Website,
		Phone:             c.Phone,
		Email:             c.Email,
		Address:           c.Address,
		BusinessLicense:   c.BusinessLicense,
		TaxCode:           c.TaxCode,
		SupportedActions:  c.SupportedActions,
		ServiceCategories: c.ServiceCategories,
		IsActive:          c.Active,
		Tier:              c.Tier,
		CreatedAt:         c.CreatedAt.Format(time.RFC3339),
	}
	if c.UpdatedAt != nil {
		dto.UpdatedAt = c.UpdatedAt.Format(time.RFC3339)
	}
	return dto
}

func fromAnnotationsDTO(a *AnnotationsDTO) sqlite.Annotations {
	if a == nil {
		return sqlite.Annotations{}
	}
	return sqlite.Annotations{
		TransactionType: a.TransactionType,
		Status:          a.Status,
		Channel:         a.Channel,
		DeviceType:      a.DeviceType,
		PaymentMethod:   a.PaymentMethod,
		Currency:        a.Currency,
		Note:            a.Note,
	}
}
