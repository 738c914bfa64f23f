/*
handlers.go - HTTP API handlers for the loyalty rewards platform

PURPOSE:
  Exposes companies, users, wallets, rules, and interactions via REST.
  Handles HTTP request/response, JSON serialization, and delegates to
  the store, the chain, and the reward engine.

ENDPOINTS:
  Companies:
    POST   /api/companies/signup       Register company (returns api key)
    GET    /api/companies/me           Own profile
    PUT    /api/companies/me           Update profile
    DELETE /api/companies/me           Teardown (cascading, irreversible)
    GET    /api/companies/me/wallet    Master wallet + live balance
    GET    /api/companies/{id}/services  Public services catalog

  Users:
    POST   /api/users                  Enroll user (wallet auto-created)
    GET    /api/users/{id}             Get user + wallet
    PUT    /api/users/{id}             Update user
    GET    /api/users/{id}/interactions  Interaction history
    GET    /api/users/{id}/transfers   Token transfer history

  Rules:
    POST   /api/rules                  Create reward rule
    GET    /api/rules                  List active rules
    POST   /api/rules/{id}/activate    Re-enable rule
    POST   /api/rules/{id}/deactivate  Disable rule

  Interactions:
    POST   /api/interactions           Record action, pay reward

  Wallets:
    GET    /api/wallets/{ownerType}/{ownerID}  Wallet + balance
    POST   /api/wallets/transfer       Manual transfer (no auto-mint)

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Store:  Database access
  - Chain:  Token balances
  - Engine: Reward computation and payout
  - Logger: Structured logging

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Validation errors, insufficient balance on manual transfers
  - 401: Missing or unknown api key
  - 403: Deactivated company, cross-tenant access
  - 404: Resource or wallet not found
  - 500: Internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - auth.go: API key middleware and credential generation
  - contracts.go: Contract endpoints
  - seed.go: Dev seeding and reset
*/
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/caohoangphucs/ATHENA/ledger"
	"github.com/caohoangphucs/ATHENA/reward"
	"github.com/caohoangphucs/ATHENA/store/sqlite"
)

// masterFund is minted into every new company's master wallet at
// signup so early rewards don't immediately trip the shortfall path.
var masterFund = decimal.NewFromInt(1_000_000)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store  *sqlite.Store
	Chain  *ledger.Chain
	Engine *reward.Engine
	Logger *zap.Logger
}

// NewHandler creates a handler over the given store, chain, and engine.
func NewHandler(store *sqlite.Store, chain *ledger.Chain, engine *reward.Engine, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{Store: store, Chain: chain, Engine: engine, Logger: logger}
}

// provisionWallet creates the one wallet for an owner and funds it.
func (h *Handler) provisionWallet(ctx context.Context, ownerType string, ownerID int64, fund decimal.Decimal) (sqlite.Wallet, error) {
	w, err := h.Store.CreateWallet(ctx, sqlite.Wallet{
		OwnerType: ownerType,
		OwnerID:   ownerID,
		Address:   NewWalletAddress(),
	})
	if err != nil {
		return sqlite.Wallet{}, err
	}
	if fund.IsPositive() {
		h.Chain.Mint(ledger.Address(w.Address), fund)
	} else {
		h.Chain.Ensure(ledger.Address(w.Address))
	}
	return w, nil
}

func (h *Handler) walletDTO(addr string) WalletDTO {
	return WalletDTO{
		Address: addr,
		Balance: h.Chain.BalanceOf(ledger.Address(addr)).InexactFloat64(),
	}
}

// =============================================================================
// COMPANY HANDLERS
// =============================================================================

// SignupCompany registers a tenant, issues its api key, and provisions
// a pre-funded master wallet.
// POST /api/companies/signup
func (h *Handler) SignupCompany(w http.ResponseWriter, r *http.Request) {
	var req CompanySignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required", nil)
		return
	}

	company, err := h.Store.CreateCompany(r.Context(), sqlite.Company{
		Name:              req.Name,
		APIKey:            NewAPIKey(),
		Description:       req.Description,
		Sector:            req.Sector,
		Website:           req.Website,
		Phone:             req.Phone,
		Email:             req.Email,
		Address:           req.Address,
		BusinessLicense:   req.BusinessLicense,
		TaxCode:           req.TaxCode,
		SupportedActions:  req.SupportedActions,
		ServiceCategories: req.ServiceCategories,
		Active:            true,
		Tier:              req.Tier,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create company", err)
		return
	}

	if _, err := h.provisionWallet(r.Context(), "company", company.ID, masterFund); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to provision master wallet", err)
		return
	}

	h.Logger.Info("company registered",
		zap.Int64("company_id", company.ID),
		zap.String("name", company.Name))

	writeJSON(w, http.StatusCreated, CompanySignupResponse{
		CompanyID: company.ID,
		APIKey:    company.APIKey,
	})
}

// GetCompanyProfile returns the authenticated company's profile.
// GET /api/companies/me
func (h *Handler) GetCompanyProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, toCompanyDTO(companyFrom(r.Context())))
}

// UpdateCompanyProfile applies the provided fields only.
// PUT /api/companies/me
func (h *Handler) UpdateCompanyProfile(w http.ResponseWriter, r *http.Request) {
	var req CompanyUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	company := companyFrom(r.Context())
	updated, err := h.Store.UpdateCompany(r.Context(), company.ID, sqlite.CompanyUpdate{
		Name:              req.Name,
		Description:       req.Description,
		Sector:            req.Sector,
		Website:           req.Website,
		Phone:             req.Phone,
		Email:             req.Email,
		Address:           req.Address,
		BusinessLicense:   req.BusinessLicense,
		TaxCode:           req.TaxCode,
		SupportedActions:  req.SupportedActions,
		ServiceCategories: req.ServiceCategories,
		Active:            req.IsActive,
		Tier:              req.Tier,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update company", err)
		return
	}
	writeJSON(w, http.StatusOK, toCompanyDTO(updated))
}

// DeleteCompany tears the tenant down: users, wallets, rules,
// contracts, interactions, transfer receipts, and chain balances.
// DELETE /api/companies/me
func (h *Handler) DeleteCompany(w http.ResponseWriter, r *http.Request) {
	company := companyFrom(r.Context())

	addresses, err := h.Store.DeleteCompanyCascade(r.Context(), company.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete company", err)
		return
	}
	for _, addr := range addresses {
		h.Chain.Drop(ledger.Address(addr))
	}

	h.Logger.Info("company deleted",
		zap.Int64("company_id", company.ID),
		zap.Int("wallets_dropped", len(addresses)))

	writeJSON(w, http.StatusOK, map[string]any{
		"deleted":         true,
		"wallets_dropped": len(addresses),
	})
}

// GetMasterWallet returns the company wallet with its live balance.
// GET /api/companies/me/wallet
func (h *Handler) GetMasterWallet(w http.ResponseWriter, r *http.Request) {
	company := companyFrom(r.Context())

	wallet, err := h.Store.GetWallet(r.Context(), "company", company.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get wallet", err)
		return
	}
	if wallet == nil {
		writeError(w, http.StatusNotFound, "Master wallet not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, h.walletDTO(wallet.Address))
}

// GetCompanyServices returns the public services catalog for a
// company: its active rules and contracts, merged.
// GET /api/companies/{id}/services
func (h *Handler) GetCompanyServices(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid company id", err)
		return
	}

	company, err := h.Store.GetCompany(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get company", err)
		return
	}
	if company == nil || !company.Active {
		writeError(w, http.StatusNotFound, "Company not found", nil)
		return
	}

	rules, err := h.Store.ListActiveRules(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rules", err)
		return
	}
	contracts, err := h.Store.ListActiveContracts(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list contracts", err)
		return
	}

	services := make([]ServiceDTO, 0, len(rules)+len(contracts))
	for _, rule := range rules {
		display := displayFor(rule.Action)
		services = append(services, ServiceDTO{
			Source:    "rule",
			Action:    rule.Action,
			Mode:      string(rule.Mode),
			Rate:      rule.Rate.InexactFloat64(),
			Unit:      display.Unit,
			Notes:     display.Notes,
			MinAmount: display.MinAmount,
			MaxReward: display.MaxReward,
			IsActive:  rule.Active,
		})
	}
	for _, c := range contracts {
		services = append(services, ServiceDTO{
			Source:   "contract",
			Name:     c.Name,
			Action:   c.Action,
			Mode:     c.Mode,
			Rate:     c.Rate.InexactFloat64(),
			IsActive: c.Active,
		})
	}

	writeJSON(w, http.StatusOK, CompanyServicesDTO{
		CompanyID:        company.ID,
		CompanyName:      company.Name,
		SupportedActions: company.SupportedActions,
		Services:         services,
	})
}

// =============================================================================
// USER HANDLERS
// =============================================================================

// CreateUser enrolls a customer under the authenticated company and
// provisions their wallet with a zero balance.
// POST /api/users
func (h *Handler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var req UserCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.FullName == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "full_name and email are required", nil)
		return
	}

	company := companyFrom(r.Context())
	user, err := h.Store.CreateUser(r.Context(), sqlite.User{
		CompanyID: company.ID,
		FullName:  req.FullName,
		Email:     req.Email,
		Phone:     req.Phone,
		Segment:   req.Segment,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create user", err)
		return
	}

	wallet, err := h.provisionWallet(r.Context(), "user", user.ID, decimal.Zero)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to provision wallet", err)
		return
	}

	writeJSON(w, http.StatusCreated, h.toUserDTO(user, wallet.Address))
}

// GetUser returns a user with their wallet and live balance.
// GET /api/users/{id}
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.ownedUser(w, r)
	if !ok {
		return
	}

	wallet, err := h.Store.GetWallet(r.Context(), "user", user.ID)
	if err != nil || wallet == nil {
		writeError(w, http.StatusInternalServerError, "Failed to get wallet", err)
		return
	}
	writeJSON(w, http.StatusOK, h.toUserDTO(*user, wallet.Address))
}

// UpdateUser applies the provided fields only.
// PUT /api/users/{id}
func (h *Handler) UpdateUser(w http.ResponseWriter, r *http.Request) {
	user, ok := h.ownedUser(w, r)
	if !ok {
		return
	}

	var req UserUpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	updated, err := h.Store.UpdateUser(r.Context(), user.ID, req.FullName, req.Phone, req.Segment)
	if err != nil || updated == nil {
		writeError(w, http.StatusInternalServerError, "Failed to update user", err)
		return
	}

	wallet, err := h.Store.GetWallet(r.Context(), "user", user.ID)
	if err != nil || wallet == nil {
		writeError(w, http.StatusInternalServerError, "Failed to get wallet", err)
		return
	}
	writeJSON(w, http.StatusOK, h.toUserDTO(*updated, wallet.Address))
}

// GetUserInteractions returns the user's history, newest first.
// GET /api/users/{id}/interactions
func (h *Handler) GetUserInteractions(w http.ResponseWriter, r *http.Request) {
	user, ok := h.ownedUser(w, r)
	if !ok {
		return
	}

	interactions, err := h.Store.ListUserInteractions(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list interactions", err)
		return
	}

	dtos := make([]InteractionDTO, len(interactions))
	for i, it := range interactions {
		dtos[i] = toInteractionDTO(it)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetUserTransfers returns every transfer touching the user's wallet.
// GET /api/users/{id}/transfers
func (h *Handler) GetUserTransfers(w http.ResponseWriter, r *http.Request) {
	user, ok := h.ownedUser(w, r)
	if !ok {
		return
	}

	wallet, err := h.Store.GetWallet(r.Context(), "user", user.ID)
	if err != nil || wallet == nil {
		writeError(w, http.StatusInternalServerError, "Failed to get wallet", err)
		return
	}

	transfers, err := h.Store.ListTransfersByWallet(r.Context(), ledger.Address(wallet.Address))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list transfers", err)
		return
	}

	dtos := make([]TransferDTO, len(transfers))
	for i, tr := range transfers {
		dtos[i] = TransferDTO{
			TxHash:   tr.TxHash,
			Amount:   tr.Amount.InexactFloat64(),
			ToWallet: tr.ToWallet,
		}
		if tr.FromWallet != nil {
			dtos[i].FromWallet = *tr.FromWallet
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ownedUser loads the path user and enforces tenant ownership.
func (h *Handler) ownedUser(w http.ResponseWriter, r *http.Request) (*sqlite.User, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid user id", err)
		return nil, false
	}

	user, err := h.Store.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get user", err)
		return nil, false
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found", nil)
		return nil, false
	}
	if user.CompanyID != companyFrom(r.Context()).ID {
		writeError(w, http.StatusForbidden, "User belongs to another company", nil)
		return nil, false
	}
	return user, true
}

func (h *Handler) toUserDTO(u sqlite.User, address string) UserDTO {
	return UserDTO{
		ID:        u.ID,
		CompanyID: u.CompanyID,
		FullName:  u.FullName,
		Email:     u.Email,
		Phone:     u.Phone,
		Segment:   u.Segment,
		Wallet:    h.walletDTO(address),
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// RULE HANDLERS
// =============================================================================

// CreateRule defines a reward rule for the authenticated company.
// POST /api/rules
func (h *Handler) CreateRule(w http.ResponseWriter, r *http.Request) {
	var req RuleCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Action == "" {
		writeError(w, http.StatusBadRequest, "action is required", nil)
		return
	}
	if req.Rate < 0 {
		writeError(w, http.StatusBadRequest, "rate must be non-negative", nil)
		return
	}
	mode := reward.Mode(req.Mode)
	if mode == "" {
		mode = reward.ModePerAmount
	}
	if mode != reward.ModePerAmount && mode != reward.ModeFlat {
		writeError(w, http.StatusBadRequest, "mode must be per_amount or flat", nil)
		return
	}

	rule, err := h.Store.CreateRule(r.Context(), reward.Rule{
		CompanyID: companyFrom(r.Context()).ID,
		Action:    req.Action,
		Mode:      mode,
		Rate:      decimal.NewFromFloat(req.Rate),
		Active:    true,
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create rule", err)
		return
	}
	writeJSON(w, http.StatusCreated, toRuleDTO(rule))
}

// ListRules returns the company's active rules.
// GET /api/rules
func (h *Handler) ListRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.Store.ListActiveRules(r.Context(), companyFrom(r.Context()).ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list rules", err)
		return
	}

	dtos := make([]RuleDTO, len(rules))
	for i, rule := range rules {
		dtos[i] = toRuleDTO(rule)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ActivateRule re-enables a rule.
// POST /api/rules/{id}/activate
func (h *Handler) ActivateRule(w http.ResponseWriter, r *http.Request) {
	h.setRuleActive(w, r, true)
}

// DeactivateRule disables a rule without deleting it; history stays.
// POST /api/rules/{id}/deactivate
func (h *Handler) DeactivateRule(w http.ResponseWriter, r *http.Request) {
	h.setRuleActive(w, r, false)
}

func (h *Handler) setRuleActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid rule id", err)
		return
	}

	found, err := h.Store.SetRuleActive(r.Context(), id, companyFrom(r.Context()).ID, active)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to toggle rule", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Rule not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "is_active": active})
}

func toRuleDTO(r reward.Rule) RuleDTO {
	return RuleDTO{
		ID:        r.ID,
		CompanyID: r.CompanyID,
		Action:    r.Action,
		Rate:      r.Rate.InexactFloat64(),
		Mode:      string(r.Mode),
		IsActive:  r.Active,
		CreatedAt: r.CreatedAt.Format(time.RFC3339),
	}
}

// =============================================================================
// INTERACTION HANDLERS
// =============================================================================

// CreateInteraction records one user action and pays any reward the
// company's rules produce. The interaction is stored even when the
// reward is zero; the payout only happens for a positive total.
// POST /api/interactions
func (h *Handler) CreateInteraction(w http.ResponseWriter, r *http.Request) {
	var req InteractionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Action == "" {
		writeError(w, http.StatusBadRequest, "action is required", nil)
		return
	}
	if req.Amount != nil && *req.Amount < 0 {
		writeError(w, http.StatusBadRequest, "amount must be non-negative", nil)
		return
	}

	company := companyFrom(r.Context())
	user, err := h.Store.GetUser(r.Context(), req.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get user", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found", nil)
		return
	}
	if user.CompanyID != company.ID {
		writeError(w, http.StatusForbidden, "User belongs to another company", nil)
		return
	}

	var amount *decimal.Decimal
	if req.Amount != nil {
		d := decimal.NewFromFloat(*req.Amount)
		amount = &d
	}

	interaction, err := h.Store.CreateInteraction(r.Context(), sqlite.Interaction{
		UserID:      user.ID,
		CompanyID:   company.ID,
		Service:     req.Service,
		Action:      req.Action,
		Amount:      amount,
		Annotations: fromAnnotationsDTO(req.Annotations),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record interaction", err)
		return
	}

	paid, err := h.Engine.ApplyReward(r.Context(), company.ID, user.ID, req.Action, amount)
	if err != nil {
		if errors.Is(err, reward.ErrWalletNotFound) {
			writeError(w, http.StatusNotFound, "Wallet not found", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to apply reward", err)
		return
	}

	writeJSON(w, http.StatusCreated, InteractionResponse{
		ID:           interaction.ID,
		RewardTokens: paid.InexactFloat64(),
	})
}

// =============================================================================
// WALLET HANDLERS
// =============================================================================

// GetWallet returns a wallet the company owns (its master wallet or
// one of its users' wallets) with the live balance.
// GET /api/wallets/{ownerType}/{ownerID}
func (h *Handler) GetWallet(w http.ResponseWriter, r *http.Request) {
	ownerType := chi.URLParam(r, "ownerType")
	ownerID, err := strconv.ParseInt(chi.URLParam(r, "ownerID"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid owner id", err)
		return
	}
	if !h.ownsWallet(w, r, ownerType, ownerID) {
		return
	}

	wallet, err := h.Store.GetWallet(r.Context(), ownerType, ownerID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get wallet", err)
		return
	}
	if wallet == nil {
		writeError(w, http.StatusNotFound, "Wallet not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, h.walletDTO(wallet.Address))
}

// TransferTokens moves tokens between two wallets the company owns.
// Unlike reward payouts there is no mint fallback here: an
// insufficient source balance is the caller's error, not a shortfall
// to recover from.
// POST /api/wallets/transfer
func (h *Handler) TransferTokens(w http.ResponseWriter, r *http.Request) {
	var req TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive", nil)
		return
	}
	if !h.ownsWallet(w, r, req.FromOwnerType, req.FromOwnerID) ||
		!h.ownsWallet(w, r, req.ToOwnerType, req.ToOwnerID) {
		return
	}

	from, err := h.Store.GetWallet(r.Context(), req.FromOwnerType, req.FromOwnerID)
	if err != nil || from == nil {
		writeError(w, http.StatusNotFound, "Source wallet not found", err)
		return
	}
	to, err := h.Store.GetWallet(r.Context(), req.ToOwnerType, req.ToOwnerID)
	if err != nil || to == nil {
		writeError(w, http.StatusNotFound, "Destination wallet not found", err)
		return
	}

	amount := decimal.NewFromFloat(req.Amount)
	receipt, err := h.Chain.Transfer(ledger.Address(from.Address), ledger.Address(to.Address), amount)
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientBalance) {
			writeError(w, http.StatusBadRequest, "Insufficient balance", err)
			return
		}
		writeError(w, http.StatusInternalServerError, "Transfer failed", err)
		return
	}

	fromAddr := ledger.Address(from.Address)
	if err := h.Store.RecordTransfer(r.Context(), reward.TransferRecord{
		TxHash:     receipt.TxHash,
		FromWallet: &fromAddr,
		ToWallet:   ledger.Address(to.Address),
		Amount:     amount,
		Memo:       "manual_transfer",
	}); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record transfer", err)
		return
	}

	writeJSON(w, http.StatusOK, TransferDTO{
		TxHash:     receipt.TxHash,
		Amount:     amount.InexactFloat64(),
		FromWallet: from.Address,
		ToWallet:   to.Address,
	})
}

// ownsWallet verifies the wallet owner is the company itself or one of
// its users. Writes the error response on failure.
func (h *Handler) ownsWallet(w http.ResponseWriter, r *http.Request, ownerType string, ownerID int64) bool {
	company := companyFrom(r.Context())
	switch ownerType {
	case "company":
		if ownerID != company.ID {
			writeError(w, http.StatusForbidden, "Wallet belongs to another company", nil)
			return false
		}
		return true
	case "user":
		user, err := h.Store.GetUser(r.Context(), ownerID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to get user", err)
			return false
		}
		if user == nil || user.CompanyID != company.ID {
			writeError(w, http.StatusForbidden, "Wallet belongs to another company", nil)
			return false
		}
		return true
	default:
		writeError(w, http.StatusBadRequest, "owner type must be company or user", nil)
		return false
	}
}

// =============================================================================
// RESPONSE HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
