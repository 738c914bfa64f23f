// Package ledger implements the mock value-transfer chain backing all
// wallet balances.
package ledger

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrInsufficientBalance is returned by Transfer when the source
// balance is lower than the requested amount. The reward engine
// recovers from it exactly once (mint then retry); everywhere else it
// propagates to the caller.
var ErrInsufficientBalance = errors.New("insufficient balance")

// InsufficientBalanceError carries the details of a balance shortage.
// Unwraps to ErrInsufficientBalance for errors.Is checks.
type InsufficientBalanceError struct {
	Address   Address
	Available decimal.Decimal
	Requested decimal.Decimal
	Shortfall decimal.Decimal
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance on %s: available %s, requested %s, shortfall %s",
		e.Address, e.Available, e.Requested, e.Shortfall)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}
