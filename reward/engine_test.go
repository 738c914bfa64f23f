package reward_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caohoangphucs/ATHENA/ledger"
	"github.com/caohoangphucs/ATHENA/reward"
)

// =============================================================================
// TEST DOUBLES
// =============================================================================

type fakeRules map[string][]reward.Rule

func (f fakeRules) ActiveRules(_ context.Context, _ int64, action string) ([]reward.Rule, error) {
	return f[action], nil
}

type fakeWallets map[string]ledger.Address

func walletKey(owner reward.OwnerType, id int64) string {
	return fmt.Sprintf("%s:%d", owner, id)
}

func (f fakeWallets) WalletAddress(_ context.Context, owner reward.OwnerType, id int64) (ledger.Address, error) {
	addr, ok := f[walletKey(owner, id)]
	if !ok {
		return "", &reward.WalletNotFoundError{Owner: owner, OwnerID: id}
	}
	return addr, nil
}

type transferLog struct {
	records []reward.TransferRecord
}

func (l *transferLog) RecordTransfer(_ context.Context, rec reward.TransferRecord) error {
	l.records = append(l.records, rec)
	return nil
}

func newTestEngine(rules fakeRules, masterBalance int64) (*reward.Engine, *ledger.Chain, *transferLog) {
	chain := ledger.New()
	chain.Mint("w_master", decimal.NewFromInt(masterBalance))

	wallets := fakeWallets{
		walletKey(reward.OwnerCompany, 1): "w_master",
		walletKey(reward.OwnerUser, 7):    "w_user",
	}
	log := &transferLog{}
	return reward.NewEngine(rules, wallets, chain, log, nil), chain, log
}

// =============================================================================
// PAYOUT FLOW
// =============================================================================

func TestApplyReward_PaysMatchedRules(t *testing.T) {
	// GIVEN: A per_amount rule at 50 per 10k and a funded master wallet
	rules := fakeRules{"book_flight": {rule(reward.ModePerAmount, 50)}}
	engine, chain, log := newTestEngine(rules, 1_000_000)

	// WHEN: A 20,000 interaction is rewarded
	paid, err := engine.ApplyReward(context.Background(), 1, 7, "book_flight", amt(20_000))

	// THEN: 100 tokens moved master -> user and one receipt was logged
	require.NoError(t, err)
	assert.True(t, paid.Equal(decimal.NewFromInt(100)))
	assert.True(t, chain.BalanceOf("w_master").Equal(decimal.NewFromInt(999_900)))
	assert.True(t, chain.BalanceOf("w_user").Equal(decimal.NewFromInt(100)))

	require.Len(t, log.records, 1)
	rec := log.records[0]
	assert.Equal(t, "reward:book_flight", rec.Memo)
	require.NotNil(t, rec.FromWallet)
	assert.Equal(t, ledger.Address("w_master"), *rec.FromWallet)
	assert.Equal(t, ledger.Address("w_user"), rec.ToWallet)
	assert.True(t, rec.Amount.Equal(decimal.NewFromInt(100)))
	assert.NotEmpty(t, rec.TxHash)
}

func TestApplyReward_NoMatchingRules_NoMovement(t *testing.T) {
	engine, chain, log := newTestEngine(fakeRules{}, 1_000_000)

	paid, err := engine.ApplyReward(context.Background(), 1, 7, "unknown_action", amt(20_000))

	require.NoError(t, err)
	assert.True(t, paid.IsZero())
	assert.True(t, chain.BalanceOf("w_user").IsZero())
	assert.Empty(t, log.records, "zero reward must not produce a receipt")
}

func TestApplyReward_ZeroTotal_ShortCircuits(t *testing.T) {
	// A per_amount rule with no amount computes to zero: no chain call,
	// no receipt, no error.
	rules := fakeRules{"purchase": {rule(reward.ModePerAmount, 50)}}
	engine, chain, log := newTestEngine(rules, 1_000_000)

	paid, err := engine.ApplyReward(context.Background(), 1, 7, "purchase", nil)

	require.NoError(t, err)
	assert.True(t, paid.IsZero())
	assert.True(t, chain.BalanceOf("w_master").Equal(decimal.NewFromInt(1_000_000)))
	assert.Empty(t, log.records)
}

func TestApplyReward_MissingUserWallet_Fatal(t *testing.T) {
	// GIVEN: A paying rule but a user that was never onboarded
	rules := fakeRules{"purchase": {rule(reward.ModeFlat, 10)}}
	engine, chain, log := newTestEngine(rules, 1_000_000)

	// WHEN: Rewarding user 99, who has no wallet
	_, err := engine.ApplyReward(context.Background(), 1, 99, "purchase", nil)

	// THEN: ErrWalletNotFound, nothing moved, nothing logged
	require.Error(t, err)
	assert.True(t, errors.Is(err, reward.ErrWalletNotFound))

	var notFound *reward.WalletNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, reward.OwnerUser, notFound.Owner)
	assert.Equal(t, int64(99), notFound.OwnerID)

	assert.True(t, chain.BalanceOf("w_master").Equal(decimal.NewFromInt(1_000_000)))
	assert.Empty(t, log.records)
}

// =============================================================================
// MINT-ON-SHORTFALL
// =============================================================================

func TestApplyReward_ShortfallMintsAndRetries(t *testing.T) {
	// GIVEN: A flat rule paying 100 and a master holding only 10
	rules := fakeRules{"signup_bonus": {rule(reward.ModeFlat, 100)}}
	engine, chain, log := newTestEngine(rules, 10)
	supplyBefore := chain.TotalSupply()

	// WHEN: The reward is applied
	paid, err := engine.ApplyReward(context.Background(), 1, 7, "signup_bonus", nil)

	// THEN: The full total was minted into the master once, then paid.
	// Master keeps its original 10; the supply grew by exactly the mint.
	require.NoError(t, err)
	assert.True(t, paid.Equal(decimal.NewFromInt(100)))
	assert.True(t, chain.BalanceOf("w_master").Equal(decimal.NewFromInt(10)))
	assert.True(t, chain.BalanceOf("w_user").Equal(decimal.NewFromInt(100)))
	assert.True(t, chain.TotalSupply().Sub(supplyBefore).Equal(decimal.NewFromInt(100)))

	require.Len(t, log.records, 1, "recovery is invisible in the receipt log")
	assert.True(t, strings.HasPrefix(log.records[0].Memo, "reward:"))
}

func TestApplyReward_FundedMaster_NoMint(t *testing.T) {
	rules := fakeRules{"purchase": {rule(reward.ModeFlat, 100)}}
	engine, chain, _ := newTestEngine(rules, 1_000)
	supplyBefore := chain.TotalSupply()

	_, err := engine.ApplyReward(context.Background(), 1, 7, "purchase", nil)

	require.NoError(t, err)
	assert.True(t, chain.TotalSupply().Equal(supplyBefore), "funded payout must not mint")
}
