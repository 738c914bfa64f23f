/*
Package reward implements the loyalty reward engine: rule evaluation
and the orchestrated token transfer from a company's master wallet to
a user's wallet.

KEY CONCEPTS:
  - Rule: a company-scoped (action, mode, rate, active) tuple. All
    active rules matching an action apply additively.
  - Mode: flat (fixed tokens per trigger) or per_amount (rate applied
    per 10,000 currency units of the triggering amount).
  - Engine: resolves rules, computes the owed total, and moves tokens
    on the chain with a one-shot mint-on-shortfall recovery.

The engine owns no storage. It consumes narrow interfaces (RuleSource,
WalletDirectory, TransferLog) implemented by the sqlite store, which
keeps the core testable with in-memory fakes.

SEE ALSO:
  - calculator.go: Compute
  - engine.go: ApplyReward
  - store/sqlite: production implementations of the interfaces
*/
package reward

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/caohoangphucs/ATHENA/ledger"
)

// =============================================================================
// RULES
// =============================================================================

// Mode selects how a rule converts a triggering interaction into
// tokens.
type Mode string

const (
	// ModePerAmount pays rate tokens per 10,000 currency units of the
	// interaction amount. Contributes nothing when the amount is
	// absent or non-positive.
	ModePerAmount Mode = "per_amount"

	// ModeFlat pays rate tokens per trigger, independent of amount.
	ModeFlat Mode = "flat"
)

// PerAmountUnit is the currency divisor for per_amount rules.
var PerAmountUnit = decimal.NewFromInt(10_000)

// Rule is one reward rule. Rules belong to exactly one company and are
// soft-deactivated via Active; normal flows never delete them.
type Rule struct {
	ID        int64
	CompanyID int64
	Action    string
	Mode      Mode
	Rate      decimal.Decimal
	Active    bool
	CreatedAt time.Time
}

// =============================================================================
// COLLABORATOR INTERFACES
// =============================================================================

// OwnerType distinguishes the two kinds of wallet owner.
type OwnerType string

const (
	OwnerCompany OwnerType = "company"
	OwnerUser    OwnerType = "user"
)

// RuleSource resolves the active rules for (company, action).
// Matching is exact; inactive rules are excluded; order must be
// deterministic so repeated computations agree.
type RuleSource interface {
	ActiveRules(ctx context.Context, companyID int64, action string) ([]Rule, error)
}

// WalletDirectory maps an owner to its chain address. A missing
// mapping is reported as ErrWalletNotFound; onboarding is expected to
// have created every wallet, so the engine treats that as fatal.
type WalletDirectory interface {
	WalletAddress(ctx context.Context, owner OwnerType, ownerID int64) (ledger.Address, error)
}

// TransferRecord is the persisted receipt of one chain movement.
// Append-only; never mutated after creation.
type TransferRecord struct {
	TxHash     string
	FromWallet *ledger.Address // nil for mints
	ToWallet   ledger.Address
	Amount     decimal.Decimal
	Memo       string
	CreatedAt  time.Time
}

// TransferLog persists transfer records.
type TransferLog interface {
	RecordTransfer(ctx context.Context, rec TransferRecord) error
}
