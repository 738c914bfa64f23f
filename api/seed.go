/*
seed.go - Dev seeding and reset endpoints

PURPOSE:
  Local tooling for demos and frontend development. Three endpoints:

  POST /api/dev/seed    Minimal seed: one company, one user, two rules.
                        Idempotent; returns the api key so a fresh
                        checkout can start calling the API immediately.
  POST /api/dev/reset   Wipe the database and the chain.
  POST /api/dev/demo    Full demo ecosystem: four companies across
                        sectors, rule catalogs, twenty customers, and
                        a batch of historical interactions run through
                        the real reward engine so balances and
                        transfer receipts look lived-in.

  These routes carry no authentication. Do not expose them outside a
  development deployment.

SEE ALSO:
  - handlers.go: provisionWallet, the same onboarding path signup uses
  - reward/engine.go: Demo interactions pay out through ApplyReward
*/
package api

import (
	"context"
	"fmt"
	"math/rand"
	"net/http"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/caohoangphucs/ATHENA/reward"
	"github.com/caohoangphucs/ATHENA/store/sqlite"
)

// =============================================================================
// DEMO CATALOG
// =============================================================================

// demoRule is one catalog entry. MinAmount and MaxReward are display
// enrichment only; payouts never enforce them.
type demoRule struct {
	Action    string
	Mode      reward.Mode
	Rate      float64
	Unit      string
	Notes     string
	MinAmount float64
	MaxReward float64
}

type demoCompany struct {
	Name    string
	Sector  string
	Tier    string
	Actions []demoRule
}

// demoCatalog drives /api/dev/demo. Display fields (Unit, Notes) also
// enrich the public services endpoint via displayFor.
var demoCatalog = []demoCompany{
	{
		Name:   "Skyline Airways",
		Sector: "aviation",
		Tier:   "platinum",
		Actions: []demoRule{
			{Action: "book_flight", Mode: reward.ModePerAmount, Rate: 50, Unit: "tokens per 10k spend", Notes: "Base earn on ticket purchases", MinAmount: 500_000, MaxReward: 5_000},
			{Action: "checkin_online", Mode: reward.ModeFlat, Rate: 5, Unit: "tokens", Notes: "Skip-the-counter bonus"},
			{Action: "buy_ancillary", Mode: reward.ModePerAmount, Rate: 80, Unit: "tokens per 10k spend", Notes: "Seats, bags, lounge"},
		},
	},
	{
		Name:   "Meridian Bank",
		Sector: "banking",
		Tier:   "gold",
		Actions: []demoRule{
			{Action: "open_account", Mode: reward.ModeFlat, Rate: 100, Unit: "tokens", Notes: "One-time welcome"},
			{Action: "card_payment", Mode: reward.ModePerAmount, Rate: 20, Unit: "tokens per 10k spend", Notes: "Everyday card spend", MinAmount: 50_000, MaxReward: 1_000},
			{Action: "pay_bill", Mode: reward.ModeFlat, Rate: 2, Unit: "tokens", Notes: "Utility bill autopay"},
		},
	},
	{
		Name:   "Harborview Retail",
		Sector: "retail",
		Tier:   "silver",
		Actions: []demoRule{
			{Action: "purchase", Mode: reward.ModePerAmount, Rate: 35, Unit: "tokens per 10k spend", Notes: "In-store and online", MinAmount: 100_000},
			{Action: "write_review", Mode: reward.ModeFlat, Rate: 10, Unit: "tokens", Notes: "Verified purchases only"},
		},
	},
	{
		Name:   "Beacon Rides",
		Sector: "mobility",
		Tier:   "gold",
		Actions: []demoRule{
			{Action: "complete_ride", Mode: reward.ModePerAmount, Rate: 60, Unit: "tokens per 10k spend", Notes: "Earn on every trip", MaxReward: 2_000},
			{Action: "refer_friend", Mode: reward.ModeFlat, Rate: 50, Unit: "tokens", Notes: "Referral joins and rides"},
		},
	},
}

var demoNames = []string{
	"An Tran", "Binh Le", "Chi Nguyen", "Dung Pham", "Giang Vo",
	"Hanh Dao", "Khoa Bui", "Lan Hoang", "Minh Do", "Ngoc Ly",
	"Phuc Dang", "Quyen Truong", "Son Vu", "Thao Ngo", "Uyen Phan",
	"Vinh Cao", "Xuan Mai", "Yen Dinh", "Tam Luu", "Hieu Trinh",
}

// displayFor returns the catalog display fields for an action, when
// the action comes from the demo catalog. Zero-valued otherwise.
func displayFor(action string) demoRule {
	for _, company := range demoCatalog {
		for _, rule := range company.Actions {
			if rule.Action == action {
				return rule
			}
		}
	}
	return demoRule{}
}

// =============================================================================
// ENDPOINTS
// =============================================================================

// SeedDev creates a minimal working setup if the database is empty.
// POST /api/dev/seed
func (h *Handler) SeedDev(w http.ResponseWriter, r *http.Request) {
	exists, err := h.Store.HasCompanies(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check seed state", err)
		return
	}
	if exists {
		writeJSON(w, http.StatusOK, map[string]any{"seeded": false, "reason": "database not empty"})
		return
	}

	company, err := h.seedCompany(r.Context(), demoCompany{
		Name:   "Acme Coffee",
		Sector: "food_and_beverage",
		Tier:   "silver",
		Actions: []demoRule{
			{Action: "purchase", Mode: reward.ModePerAmount, Rate: 25},
			{Action: "checkin", Mode: reward.ModeFlat, Rate: 3},
		},
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed company", err)
		return
	}

	user, err := h.seedUser(r.Context(), company.ID, "Demo Customer", "demo@example.com")
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to seed user", err)
		return
	}

	h.Logger.Info("dev seed complete", zap.Int64("company_id", company.ID))

	writeJSON(w, http.StatusCreated, map[string]any{
		"seeded":     true,
		"company_id": company.ID,
		"api_key":    company.APIKey,
		"user_id":    user.ID,
	})
}

// ResetAll wipes the database and the chain.
// POST /api/dev/reset
func (h *Handler) ResetAll(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	h.Chain.Reset()

	h.Logger.Warn("database and chain reset")
	writeJSON(w, http.StatusOK, map[string]any{"reset": true})
}

// SeedDemoEcosystem builds the full demo: four companies, twenty
// customers, and a batch of historical interactions paid through the
// real engine.
// POST /api/dev/demo
func (h *Handler) SeedDemoEcosystem(w http.ResponseWriter, r *http.Request) {
	exists, err := h.Store.HasCompanies(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check seed state", err)
		return
	}
	if exists {
		writeJSON(w, http.StatusOK, map[string]any{"seeded": false, "reason": "database not empty"})
		return
	}

	rng := rand.New(rand.NewSource(42)) // stable demo data across runs
	ctx := r.Context()

	type seededCompany struct {
		ID     int64  `json:"id"`
		Name   string `json:"name"`
		APIKey string `json:"api_key"`
		Users  int    `json:"users"`
	}
	var out []seededCompany

	for _, entry := range demoCatalog {
		company, err := h.seedCompany(ctx, entry)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to seed company", err)
			return
		}

		// Five customers each, with a handful of historical
		// interactions run through the real reward path.
		users := 0
		for i := 0; i < 5; i++ {
			name := demoNames[(len(out)*5+i)%len(demoNames)]
			email := fmt.Sprintf("%s.%d@example.com", entry.Actions[0].Action, len(out)*5+i)
			user, err := h.seedUser(ctx, company.ID, name, email)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "Failed to seed user", err)
				return
			}
			users++

			for j := 0; j < 2+rng.Intn(3); j++ {
				rule := entry.Actions[rng.Intn(len(entry.Actions))]
				var amount *decimal.Decimal
				if rule.Mode == reward.ModePerAmount {
					d := decimal.NewFromInt(int64(10_000 + rng.Intn(40)*5_000))
					amount = &d
				}
				if _, err := h.Store.CreateInteraction(ctx, sqlite.Interaction{
					UserID:    user.ID,
					CompanyID: company.ID,
					Service:   entry.Name,
					Action:    rule.Action,
					Amount:    amount,
					Annotations: sqlite.Annotations{
						Status:  "completed",
						Channel: "demo_seed",
					},
				}); err != nil {
					writeError(w, http.StatusInternalServerError, "Failed to seed interaction", err)
					return
				}
				if _, err := h.Engine.ApplyReward(ctx, company.ID, user.ID, rule.Action, amount); err != nil {
					writeError(w, http.StatusInternalServerError, "Failed to pay seeded reward", err)
					return
				}
			}
		}

		out = append(out, seededCompany{
			ID:     company.ID,
			Name:   company.Name,
			APIKey: company.APIKey,
			Users:  users,
		})
	}

	h.Logger.Info("demo ecosystem seeded", zap.Int("companies", len(out)))
	writeJSON(w, http.StatusCreated, map[string]any{"seeded": true, "companies": out})
}

// =============================================================================
// SEED HELPERS
// =============================================================================

func (h *Handler) seedCompany(ctx context.Context, entry demoCompany) (sqlite.Company, error) {
	actions := make([]string, len(entry.Actions))
	for i, a := range entry.Actions {
		actions[i] = a.Action
	}

	company, err := h.Store.CreateCompany(ctx, sqlite.Company{
		Name:             entry.Name,
		APIKey:           NewAPIKey(),
		Sector:           entry.Sector,
		SupportedActions: actions,
		Active:           true,
		Tier:             entry.Tier,
	})
	if err != nil {
		return sqlite.Company{}, err
	}

	if _, err := h.provisionWallet(ctx, "company", company.ID, masterFund); err != nil {
		return sqlite.Company{}, err
	}

	for _, a := range entry.Actions {
		if _, err := h.Store.CreateRule(ctx, reward.Rule{
			CompanyID: company.ID,
			Action:    a.Action,
			Mode:      a.Mode,
			Rate:      decimal.NewFromFloat(a.Rate),
			Active:    true,
		}); err != nil {
			return sqlite.Company{}, err
		}
	}
	return company, nil
}

func (h *Handler) seedUser(ctx context.Context, companyID int64, name, email string) (sqlite.User, error) {
	user, err := h.Store.CreateUser(ctx, sqlite.User{
		CompanyID: companyID,
		FullName:  name,
		Email:     email,
		Segment:   "demo",
	})
	if err != nil {
		return sqlite.User{}, err
	}

	if _, err := h.provisionWallet(ctx, "user", user.ID, decimal.Zero); err != nil {
		return sqlite.User{}, err
	}
	return user, nil
}
