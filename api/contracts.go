/*
contracts.go - Contract (event hook) endpoints

PURPOSE:
  A contract is a machine credential for firing reward events without
  the company api key: a vending machine, a partner kiosk, a webhook
  target. Creating one also creates the backing reward rule, so the
  contract's action pays out through the same engine path as any
  manually recorded interaction.

AUTHENTICATION:
  Create/list/toggle use the company api key like everything else.
  Firing an event uses the contract's own X-Contract-Secret header so
  the credential can be embedded in devices without exposing the
  tenant key. The secret is returned exactly once, at creation.

SEE ALSO:
  - handlers.go: CreateInteraction, the manual path to the same engine
  - auth.go: NewContractSecret, secretsEqual
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/caohoangphucs/ATHENA/reward"
	"github.com/caohoangphucs/ATHENA/store/sqlite"
)

// CreateContract registers an event hook and its backing reward rule.
// POST /api/contracts
func (h *Handler) CreateContract(w http.ResponseWriter, r *http.Request) {
	var req ContractCreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Name == "" || req.Action == "" {
		writeError(w, http.StatusBadRequest, "name and action are required", nil)
		return
	}
	if req.Rate < 0 {
		writeError(w, http.StatusBadRequest, "rate must be non-negative", nil)
		return
	}
	mode := reward.Mode(req.Mode)
	if mode == "" {
		mode = reward.ModeFlat
	}
	if mode != reward.ModePerAmount && mode != reward.ModeFlat {
		writeError(w, http.StatusBadRequest, "mode must be per_amount or flat", nil)
		return
	}

	company := companyFrom(r.Context())
	rate := decimal.NewFromFloat(req.Rate)

	contract, err := h.Store.CreateContract(r.Context(), sqlite.Contract{
		CompanyID: company.ID,
		Name:      req.Name,
		Action:    req.Action,
		Mode:      string(mode),
		Rate:      rate,
		Active:    true,
		Secret:    NewContractSecret(),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create contract", err)
		return
	}

	// The rule is what actually pays; the contract is the credential.
	if _, err := h.Store.CreateRule(r.Context(), reward.Rule{
		CompanyID: company.ID,
		Action:    req.Action,
		Mode:      mode,
		Rate:      rate,
		Active:    true,
	}); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create contract rule", err)
		return
	}

	h.Logger.Info("contract created",
		zap.Int64("company_id", company.ID),
		zap.Int64("contract_id", contract.ID),
		zap.String("action", contract.Action))

	dto := toContractDTO(contract)
	dto.Secret = contract.Secret // only time the secret leaves the server
	writeJSON(w, http.StatusCreated, dto)
}

// ListContracts returns the company's contracts, secrets withheld.
// GET /api/contracts
func (h *Handler) ListContracts(w http.ResponseWriter, r *http.Request) {
	contracts, err := h.Store.ListContracts(r.Context(), companyFrom(r.Context()).ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list contracts", err)
		return
	}

	dtos := make([]ContractDTO, len(contracts))
	for i, c := range contracts {
		dtos[i] = toContractDTO(c)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// FireContractEvent records an interaction on behalf of a contract and
// pays the reward. Authenticated solely by X-Contract-Secret.
// POST /api/contracts/{id}/event
func (h *Handler) FireContractEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid contract id", err)
		return
	}

	contract, err := h.Store.GetContract(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get contract", err)
		return
	}
	if contract == nil {
		writeError(w, http.StatusNotFound, "Contract not found", nil)
		return
	}
	if !secretsEqual(r.Header.Get("X-Contract-Secret"), contract.Secret) {
		writeError(w, http.StatusUnauthorized, "Invalid contract secret", nil)
		return
	}
	if !contract.Active {
		writeError(w, http.StatusForbidden, "Contract is disabled", nil)
		return
	}

	var req ContractEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Amount != nil && *req.Amount < 0 {
		writeError(w, http.StatusBadRequest, "amount must be non-negative", nil)
		return
	}

	user, err := h.Store.GetUser(r.Context(), req.UserID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get user", err)
		return
	}
	if user == nil || user.CompanyID != contract.CompanyID {
		writeError(w, http.StatusNotFound, "User not found", nil)
		return
	}

	var amount *decimal.Decimal
	if req.Amount != nil {
		d := decimal.NewFromFloat(*req.Amount)
		amount = &d
	}

	interaction, err := h.Store.CreateInteraction(r.Context(), sqlite.Interaction{
		UserID:      user.ID,
		CompanyID:   contract.CompanyID,
		Service:     contract.Name,
		Action:      contract.Action,
		Amount:      amount,
		Annotations: fromAnnotationsDTO(req.Annotations),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to record interaction", err)
		return
	}

	paid, err := h.Engine.ApplyReward(r.Context(), contract.CompanyID, user.ID, contract.Action, amount)
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

// EnableContract re-enables a contract.
// POST /api/contracts/{id}/activate
func (h *Handler) EnableContract(w http.ResponseWriter, r *http.Request) {
	h.setContractActive(w, r, true)
}

// DisableContract disables a contract. Its secret stops working but
// the backing rule stays active for manual interactions.
// POST /api/contracts/{id}/deactivate
func (h *Handler) DisableContract(w http.ResponseWriter, r *http.Request) {
	h.setContractActive(w, r, false)
}

func (h *Handler) setContractActive(w http.ResponseWriter, r *http.Request, active bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid contract id", err)
		return
	}

	found, err := h.Store.SetContractActive(r.Context(), id, companyFrom(r.Context()).ID, active)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to toggle contract", err)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "Contract not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "is_active": active})
}

func toContractDTO(c sqlite.Contract) ContractDTO {
	return ContractDTO{
		ID:       c.ID,
		Name:     c.Name,
		Action:   c.Action,
		Mode:     c.Mode,
		Rate:     c.Rate.InexactFloat64(),
		IsActive: c.Active,
	}
}
