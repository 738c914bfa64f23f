/*
chain.go - Mock value-transfer chain

PURPOSE:
  The Chain is the shared balance ledger behind every wallet in the
  system. It maps opaque addresses to token balances and is the only
  place balances are mutated. Every mutation produces a Receipt with
  a random tx hash for audit display.

CRITICAL INVARIANTS:
  1. NON-NEGATIVE: No balance is ever observed below zero.
  2. NO PARTIAL TRANSFER: A transfer that would overdraw the source
     fails before touching either balance.
  3. ENSURE SEMANTICS: An unseen address has balance zero. Absence is
     never an error.
  4. CONSERVATION: Transfer moves value; only Mint creates it.

CONCURRENCY:
  A single coarse mutex guards the balance map. Expected throughput is
  low, and a coarse lock makes the read-check-then-mutate inside
  Transfer trivially atomic. Callers that need a multi-step sequence
  to be atomic (the reward engine's failed-transfer -> mint -> retry)
  use Atomic(), which holds the lock across the whole function.

WHAT THIS IS NOT:
  No signing, no consensus, no durability. The chain stands in for a
  real token ledger; transfer records are persisted separately by the
  store so history survives a restart even though balances do not.

SEE ALSO:
  - errors.go: ErrInsufficientBalance and friends
  - reward/engine.go: The only caller of Atomic
*/
package ledger

import (
	"crypto/rand"
	"encoding/hex"
	"sync"

	"github.com/shopspring/decimal"
)

// Address identifies a chain participant. Addresses are issued once at
// onboarding (one per company master wallet, one per user) and never
// reused.
type Address string

// Receipt is the immutable result of one balance movement.
// From is nil for mints, which have no source address.
type Receipt struct {
	TxHash string
	From   *Address
	To     Address
	Amount decimal.Decimal
}

// Chain is an in-memory address -> balance ledger.
type Chain struct {
	mu       sync.Mutex
	balances map[Address]decimal.Decimal
}

// New creates an empty chain.
func New() *Chain {
	return &Chain{balances: make(map[Address]decimal.Decimal)}
}

// Ensure guarantees addr has an entry (default zero). Idempotent.
func (c *Chain) Ensure(addr Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLocked(addr)
}

// Mint increases the balance of to by amount. It always succeeds and
// has no source address. The amount is not validated; the chain trusts
// its callers the same way the rest of the system does.
func (c *Chain) Mint(to Address, amount decimal.Decimal) Receipt {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mintLocked(to, amount)
}

// Transfer atomically moves amount from one address to another.
// Fails with an InsufficientBalanceError (errors.Is
// ErrInsufficientBalance) before mutating anything if the source
// balance is too low.
func (c *Chain) Transfer(from, to Address, amount decimal.Decimal) (Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transferLocked(from, to, amount)
}

// BalanceOf returns the current balance, auto-ensuring unknown
// addresses to zero.
func (c *Chain) BalanceOf(addr Address) decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ensureLocked(addr)
	return c.balances[addr]
}

// TotalSupply returns the sum over all balances. Used by tests to
// check conservation; nothing in the serving path needs it.
func (c *Chain) TotalSupply() decimal.Decimal {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := decimal.Zero
	for _, b := range c.balances {
		total = total.Add(b)
	}
	return total
}

// Drop removes an address and whatever balance it held. Company
// teardown is the only caller; the removed value leaves the supply.
func (c *Chain) Drop(addr Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.balances, addr)
}

// Reset clears all balances. Full-system wipe only; never called on
// the reward path.
func (c *Chain) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.balances = make(map[Address]decimal.Decimal)
}

// =============================================================================
// ATOMIC - Multi-step critical section
// =============================================================================

// Tx exposes chain operations with the chain lock already held.
// Only valid inside the Atomic callback.
type Tx struct {
	chain *Chain
}

func (t *Tx) Mint(to Address, amount decimal.Decimal) Receipt {
	return t.chain.mintLocked(to, amount)
}

func (t *Tx) Transfer(from, to Address, amount decimal.Decimal) (Receipt, error) {
	return t.chain.transferLocked(from, to, amount)
}

func (t *Tx) BalanceOf(addr Address) decimal.Decimal {
	t.chain.ensureLocked(addr)
	return t.chain.balances[addr]
}

// Atomic runs fn with the chain lock held for its whole duration.
// No other mint or transfer can interleave, so a failed transfer
// followed by a covering mint and a retry behaves as one operation.
// fn must not call the exported Chain methods (self-deadlock).
func (c *Chain) Atomic(fn func(tx *Tx) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return fn(&Tx{chain: c})
}

// =============================================================================
// LOCKED INTERNALS
// =============================================================================

func (c *Chain) ensureLocked(addr Address) {
	if _, ok := c.balances[addr]; !ok {
		c.balances[addr] = decimal.Zero
	}
}

func (c *Chain) mintLocked(to Address, amount decimal.Decimal) Receipt {
	c.ensureLocked(to)
	c.balances[to] = c.balances[to].Add(amount)
	return Receipt{TxHash: newTxHash(), To: to, Amount: amount}
}

func (c *Chain) transferLocked(from, to Address, amount decimal.Decimal) (Receipt, error) {
	c.ensureLocked(from)
	c.ensureLocked(to)

	if c.balances[from].LessThan(amount) {
		return Receipt{}, &InsufficientBalanceError{
			Address:   from,
			Available: c.balances[from],
			Requested: amount,
			Shortfall: amount.Sub(c.balances[from]),
		}
	}

	c.balances[from] = c.balances[from].Sub(amount)
	c.balances[to] = c.balances[to].Add(amount)

	src := from
	return Receipt{TxHash: newTxHash(), From: &src, To: to, Amount: amount}, nil
}

// newTxHash returns a random 32-hex-char token. Receipts are audit
// display only; nothing verifies or replays them.
func newTxHash() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic("ledger: crypto/rand unavailable: " + err.Error())
	}
	return hex.EncodeToString(b)
}
