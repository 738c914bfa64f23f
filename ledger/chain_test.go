package ledger_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caohoangphucs/ATHENA/ledger"
)

func dec(n int64) decimal.Decimal {
	return decimal.NewFromInt(n)
}

// =============================================================================
// BALANCE SEMANTICS
// =============================================================================

func TestChain_UnseenAddressHasZeroBalance(t *testing.T) {
	c := ledger.New()

	// Absence is never an error; reading an unknown address yields zero.
	assert.True(t, c.BalanceOf("w_never_seen").IsZero())
}

func TestChain_MintIncreasesBalance(t *testing.T) {
	c := ledger.New()

	r := c.Mint("w_a", dec(500))

	assert.True(t, c.BalanceOf("w_a").Equal(dec(500)))
	assert.Nil(t, r.From, "mints have no source address")
	assert.Equal(t, ledger.Address("w_a"), r.To)
	assert.Len(t, r.TxHash, 32)
}

func TestChain_MintToUnseenAddressCreatesIt(t *testing.T) {
	c := ledger.New()

	c.Mint("w_new", dec(10))

	assert.True(t, c.BalanceOf("w_new").Equal(dec(10)))
}

// =============================================================================
// TRANSFER INVARIANTS
// =============================================================================

func TestChain_TransferMovesValue(t *testing.T) {
	c := ledger.New()
	c.Mint("w_from", dec(100))

	r, err := c.Transfer("w_from", "w_to", dec(40))
	require.NoError(t, err)

	assert.True(t, c.BalanceOf("w_from").Equal(dec(60)))
	assert.True(t, c.BalanceOf("w_to").Equal(dec(40)))
	require.NotNil(t, r.From)
	assert.Equal(t, ledger.Address("w_from"), *r.From)
	assert.Equal(t, ledger.Address("w_to"), r.To)
}

func TestChain_TransferConservesSupply(t *testing.T) {
	c := ledger.New()
	c.Mint("w_a", dec(1000))
	before := c.TotalSupply()

	_, err := c.Transfer("w_a", "w_b", dec(300))
	require.NoError(t, err)
	_, err = c.Transfer("w_b", "w_c", dec(100))
	require.NoError(t, err)

	assert.True(t, c.TotalSupply().Equal(before), "transfers must not create or destroy value")
}

func TestChain_InsufficientBalance_NoPartialMutation(t *testing.T) {
	// GIVEN: A source holding less than the requested amount
	c := ledger.New()
	c.Mint("w_poor", dec(30))
	c.Mint("w_rich", dec(70))

	// WHEN: Transferring more than the source holds
	_, err := c.Transfer("w_poor", "w_rich", dec(50))

	// THEN: The typed error carries the shortfall and neither balance moved
	require.Error(t, err)
	assert.True(t, errors.Is(err, ledger.ErrInsufficientBalance))

	var insufficient *ledger.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, ledger.Address("w_poor"), insufficient.Address)
	assert.True(t, insufficient.Available.Equal(dec(30)))
	assert.True(t, insufficient.Requested.Equal(dec(50)))
	assert.True(t, insufficient.Shortfall.Equal(dec(20)))

	assert.True(t, c.BalanceOf("w_poor").Equal(dec(30)))
	assert.True(t, c.BalanceOf("w_rich").Equal(dec(70)))
}

func TestChain_ExactBalanceTransferSucceeds(t *testing.T) {
	c := ledger.New()
	c.Mint("w_a", dec(25))

	_, err := c.Transfer("w_a", "w_b", dec(25))

	require.NoError(t, err)
	assert.True(t, c.BalanceOf("w_a").IsZero())
	assert.True(t, c.BalanceOf("w_b").Equal(dec(25)))
}

// =============================================================================
// ATOMIC CRITICAL SECTION
// =============================================================================

func TestChain_AtomicMintAndRetry(t *testing.T) {
	// The reward engine's shortfall recovery: failed transfer, covering
	// mint, retry, all under one lock acquisition.
	c := ledger.New()
	c.Mint("w_master", dec(10))

	err := c.Atomic(func(tx *ledger.Tx) error {
		_, terr := tx.Transfer("w_master", "w_user", dec(100))
		if errors.Is(terr, ledger.ErrInsufficientBalance) {
			tx.Mint("w_master", dec(100))
			_, terr = tx.Transfer("w_master", "w_user", dec(100))
		}
		return terr
	})

	require.NoError(t, err)
	assert.True(t, c.BalanceOf("w_master").Equal(dec(10)))
	assert.True(t, c.BalanceOf("w_user").Equal(dec(100)))
}

func TestChain_AtomicPropagatesError(t *testing.T) {
	c := ledger.New()

	sentinel := errors.New("boom")
	err := c.Atomic(func(tx *ledger.Tx) error { return sentinel })

	assert.ErrorIs(t, err, sentinel)
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestChain_DropRemovesAddress(t *testing.T) {
	c := ledger.New()
	c.Mint("w_gone", dec(500))
	c.Mint("w_kept", dec(100))

	c.Drop("w_gone")

	assert.True(t, c.BalanceOf("w_gone").IsZero())
	assert.True(t, c.TotalSupply().Equal(dec(100)), "dropped value leaves the supply")
}

func TestChain_ResetClearsEverything(t *testing.T) {
	c := ledger.New()
	c.Mint("w_a", dec(1))
	c.Mint("w_b", dec(2))

	c.Reset()

	assert.True(t, c.TotalSupply().IsZero())
}

func TestChain_ReceiptHashesAreUnique(t *testing.T) {
	c := ledger.New()

	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		r := c.Mint("w_a", dec(1))
		if seen[r.TxHash] {
			t.Fatalf("duplicate tx hash %s", r.TxHash)
		}
		seen[r.TxHash] = true
	}
}
