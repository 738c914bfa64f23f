package reward

import (
	"errors"
	"fmt"
)

// ErrWalletNotFound is returned when a company or user has no wallet
// address on record. Onboarding creates every wallet, so this is an
// unexpected condition: the engine never retries it and surfaces it
// unchanged.
var ErrWalletNotFound = errors.New("wallet not found")

// WalletNotFoundError identifies which owner was missing a wallet.
// Unwraps to ErrWalletNotFound.
type WalletNotFoundError struct {
	Owner   OwnerType
	OwnerID int64
}

func (e *WalletNotFoundError) Error() string {
	return fmt.Sprintf("wallet not found for %s %d", e.Owner, e.OwnerID)
}

func (e *WalletNotFoundError) Unwrap() error {
	return ErrWalletNotFound
}
