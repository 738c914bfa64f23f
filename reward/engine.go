/*
engine.go - Transfer orchestrator

PURPOSE:
  ApplyReward is the sole path by which reward tokens move from a
  company's master wallet to a user's wallet. Plain interactions,
  contract events, and demo purchase flows all funnel through it.

FLOW:
  1. Resolve active rules for (company, action). None -> reward 0.
  2. Compute the owed total. Total <= 0 -> reward 0, no chain call,
     no transfer record. Deliberate short-circuit, not a failure.
  3. Look up master and user wallet addresses. Either missing is
     fatal (ErrWalletNotFound) - onboarding should have created them.
  4. Inside one chain critical section: transfer master -> user. On
     insufficient balance, mint the full total into the master and
     retry exactly once. A second failure propagates.
  5. Persist the transfer record (memo "reward:<action>") and return
     the total.

MINT-ON-SHORTFALL:
  The covering mint stands in for a real token-supply mechanism.
  Payouts are never blocked by ledger exhaustion, at the cost of an
  open supply. The mint and retry run under the same lock as the
  failed transfer, so a concurrent caller cannot drain the freshly
  minted funds between the two steps.

SEE ALSO:
  - calculator.go: Compute
  - ledger/chain.go: Atomic
*/
package reward

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/caohoangphucs/ATHENA/ledger"
)

// Engine orchestrates reward computation and the ledger transfer.
// Stateless between calls aside from the shared chain.
type Engine struct {
	Rules     RuleSource
	Wallets   WalletDirectory
	Chain     *ledger.Chain
	Transfers TransferLog
	Logger    *zap.Logger
}

// NewEngine wires an engine. logger may be nil.
func NewEngine(rules RuleSource, wallets WalletDirectory, chain *ledger.Chain, transfers TransferLog, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{Rules: rules, Wallets: wallets, Chain: chain, Transfers: transfers, Logger: logger}
}

// ApplyReward computes and pays the reward owed for one interaction.
// Returns the total tokens moved (zero when no rule matched or the
// computed total was not positive).
func (e *Engine) ApplyReward(ctx context.Context, companyID, userID int64, action string, amount *decimal.Decimal) (decimal.Decimal, error) {
	rules, err := e.Rules.ActiveRules(ctx, companyID, action)
	if err != nil {
		return decimal.Zero, fmt.Errorf("resolve rules: %w", err)
	}
	if len(rules) == 0 {
		return decimal.Zero, nil
	}

	total := Compute(rules, amount)
	if !total.IsPositive() {
		return decimal.Zero, nil
	}

	master, err := e.Wallets.WalletAddress(ctx, OwnerCompany, companyID)
	if err != nil {
		return decimal.Zero, err
	}
	userAddr, err := e.Wallets.WalletAddress(ctx, OwnerUser, userID)
	if err != nil {
		return decimal.Zero, err
	}

	var receipt ledger.Receipt
	err = e.Chain.Atomic(func(tx *ledger.Tx) error {
		r, terr := tx.Transfer(master, userAddr, total)
		if errors.Is(terr, ledger.ErrInsufficientBalance) {
			// One-shot recovery: cover the whole payout, retry once.
			tx.Mint(master, total)
			e.Logger.Info("minted to cover reward shortfall",
				zap.String("master", string(master)),
				zap.String("amount", total.String()),
				zap.String("action", action))
			r, terr = tx.Transfer(master, userAddr, total)
		}
		if terr != nil {
			return terr
		}
		receipt = r
		return nil
	})
	if err != nil {
		return decimal.Zero, fmt.Errorf("reward transfer: %w", err)
	}

	rec := TransferRecord{
		TxHash:     receipt.TxHash,
		FromWallet: receipt.From,
		ToWallet:   receipt.To,
		Amount:     total,
		Memo:       "reward:" + action,
		CreatedAt:  time.Now().UTC(),
	}
	if err := e.Transfers.RecordTransfer(ctx, rec); err != nil {
		return decimal.Zero, fmt.Errorf("record transfer: %w", err)
	}

	e.Logger.Info("reward applied",
		zap.Int64("company_id", companyID),
		zap.Int64("user_id", userID),
		zap.String("action", action),
		zap.String("reward", total.String()),
		zap.String("tx_hash", receipt.TxHash))

	return total, nil
}
