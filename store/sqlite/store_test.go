package sqlite_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/caohoangphucs/ATHENA/ledger"
	"github.com/caohoangphucs/ATHENA/reward"
	"github.com/caohoangphucs/ATHENA/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestStore(t *testing.T) *sqlite.Store {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func seedCompany(t *testing.T, store *sqlite.Store, apiKey string) sqlite.Company {
	company, err := store.CreateCompany(context.Background(), sqlite.Company{
		Name:             "Test Co",
		APIKey:           apiKey,
		Sector:           "retail",
		SupportedActions: []string{"purchase", "checkin"},
		Active:           true,
	})
	require.NoError(t, err)
	return company
}

// =============================================================================
// COMPANIES
// =============================================================================

func TestStore_CompanyRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	created := seedCompany(t, store, "sk_test_1")

	got, err := store.GetCompany(ctx, created.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Test Co", got.Name)
	assert.Equal(t, []string{"purchase", "checkin"}, got.SupportedActions)
	assert.True(t, got.Active)
	assert.Nil(t, got.UpdatedAt)
}

func TestStore_GetCompanyByAPIKey(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	created := seedCompany(t, store, "sk_test_key")

	got, err := store.GetCompanyByAPIKey(ctx, "sk_test_key")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, created.ID, got.ID)

	missing, err := store.GetCompanyByAPIKey(ctx, "sk_wrong")
	require.NoError(t, err)
	assert.Nil(t, missing, "unknown key resolves to nil, not an error")
}

func TestStore_DuplicateAPIKeyRejected(t *testing.T) {
	store := newTestStore(t)
	seedCompany(t, store, "sk_same")

	_, err := store.CreateCompany(context.Background(), sqlite.Company{
		Name: "Other Co", APIKey: "sk_same", Active: true,
	})

	assert.ErrorIs(t, err, sqlite.ErrDuplicateAPIKey)
}

func TestStore_UpdateCompanyAppliesOnlyProvidedFields(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	created := seedCompany(t, store, "sk_upd")

	tier := "gold"
	updated, err := store.UpdateCompany(ctx, created.ID, sqlite.CompanyUpdate{Tier: &tier})
	require.NoError(t, err)
	require.NotNil(t, updated)

	assert.Equal(t, "gold", updated.Tier)
	assert.Equal(t, "Test Co", updated.Name, "unset fields stay as they were")
	assert.NotNil(t, updated.UpdatedAt)
}

// =============================================================================
// USERS & WALLET DIRECTORY
// =============================================================================

func TestStore_WalletDirectory(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	company := seedCompany(t, store, "sk_w")

	user, err := store.CreateUser(ctx, sqlite.User{
		CompanyID: company.ID, FullName: "A User", Email: "a@example.com",
	})
	require.NoError(t, err)

	_, err = store.CreateWallet(ctx, sqlite.Wallet{
		OwnerType: "user", OwnerID: user.ID, Address: "w_user_addr",
	})
	require.NoError(t, err)

	addr, err := store.WalletAddress(ctx, reward.OwnerUser, user.ID)
	require.NoError(t, err)
	assert.Equal(t, ledger.Address("w_user_addr"), addr)
}

func TestStore_WalletDirectory_MissingOwner(t *testing.T) {
	store := newTestStore(t)

	_, err := store.WalletAddress(context.Background(), reward.OwnerCompany, 404)

	require.Error(t, err)
	assert.True(t, errors.Is(err, reward.ErrWalletNotFound))
}

func TestStore_OneWalletPerOwner(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateWallet(ctx, sqlite.Wallet{OwnerType: "user", OwnerID: 1, Address: "w_first"})
	require.NoError(t, err)

	_, err = store.CreateWallet(ctx, sqlite.Wallet{OwnerType: "user", OwnerID: 1, Address: "w_second"})
	assert.Error(t, err, "second wallet for the same owner must fail")
}

// =============================================================================
// RULES
// =============================================================================

func TestStore_ActiveRules_FiltersActionAndState(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	company := seedCompany(t, store, "sk_r")

	mk := func(action string, rate int64) reward.Rule {
		r, err := store.CreateRule(ctx, reward.Rule{
			CompanyID: company.ID,
			Action:    action,
			Mode:      reward.ModeFlat,
			Rate:      decimal.NewFromInt(rate),
			Active:    true,
		})
		require.NoError(t, err)
		return r
	}
	matching := mk("purchase", 10)
	mk("purchase", 20)
	mk("checkin", 5) // different action, must not match

	// Deactivate one of the purchase rules
	found, err := store.SetRuleActive(ctx, matching.ID, company.ID, false)
	require.NoError(t, err)
	assert.True(t, found)

	rules, err := store.ActiveRules(ctx, company.ID, "purchase")
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.True(t, rules[0].Rate.Equal(decimal.NewFromInt(20)))
}

func TestStore_SetRuleActive_ScopedToCompany(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	company := seedCompany(t, store, "sk_scope")

	r, err := store.CreateRule(ctx, reward.Rule{
		CompanyID: company.ID, Action: "purchase",
		Mode: reward.ModeFlat, Rate: decimal.NewFromInt(1), Active: true,
	})
	require.NoError(t, err)

	// Another tenant cannot toggle it
	found, err := store.SetRuleActive(ctx, r.ID, company.ID+1, false)
	require.NoError(t, err)
	assert.False(t, found)
}

// =============================================================================
// INTERACTIONS & TRANSFERS
// =============================================================================

func TestStore_InteractionRoundTrip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	amount := decimal.NewFromInt(25_000)
	created, err := store.CreateInteraction(ctx, sqlite.Interaction{
		UserID:    1,
		CompanyID: 2,
		Service:   "Shop",
		Action:    "purchase",
		Amount:    &amount,
		Annotations: sqlite.Annotations{
			Status:        "completed",
			Channel:       "mobile",
			PaymentMethod: "qr",
		},
	})
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	list, err := store.ListUserInteractions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)

	got := list[0]
	require.NotNil(t, got.Amount)
	assert.True(t, got.Amount.Equal(amount))
	assert.Equal(t, "completed", got.Annotations.Status)
	assert.Equal(t, "qr", got.Annotations.PaymentMethod)
}

func TestStore_InteractionWithoutAmountOrAnnotations(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.CreateInteraction(ctx, sqlite.Interaction{
		UserID: 1, CompanyID: 2, Service: "Shop", Action: "checkin",
	})
	require.NoError(t, err)

	list, err := store.ListUserInteractions(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Nil(t, list[0].Amount)
	assert.True(t, list[0].Annotations.IsZero())
}

func TestStore_TransferLogByWallet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	from := ledger.Address("w_master")
	err := store.RecordTransfer(ctx, reward.TransferRecord{
		TxHash:     "abc123",
		FromWallet: &from,
		ToWallet:   "w_user",
		Amount:     decimal.NewFromInt(100),
		Memo:       "reward:purchase",
	})
	require.NoError(t, err)

	// Visible from both sides
	for _, addr := range []ledger.Address{"w_master", "w_user"} {
		transfers, err := store.ListTransfersByWallet(ctx, addr)
		require.NoError(t, err)
		require.Len(t, transfers, 1)
		assert.Equal(t, "abc123", transfers[0].TxHash)
		assert.Equal(t, "reward:purchase", transfers[0].Memo)
	}

	// Invisible from an unrelated wallet
	transfers, err := store.ListTransfersByWallet(ctx, "w_other")
	require.NoError(t, err)
	assert.Empty(t, transfers)
}

// =============================================================================
// TEARDOWN
// =============================================================================

func TestStore_DeleteCompanyCascade(t *testing.T) {
	// GIVEN: A company with a user, two wallets, a rule, and history
	store := newTestStore(t)
	ctx := context.Background()
	company := seedCompany(t, store, "sk_del")

	user, err := store.CreateUser(ctx, sqlite.User{
		CompanyID: company.ID, FullName: "Gone Soon", Email: "g@example.com",
	})
	require.NoError(t, err)

	_, err = store.CreateWallet(ctx, sqlite.Wallet{OwnerType: "company", OwnerID: company.ID, Address: "w_m"})
	require.NoError(t, err)
	_, err = store.CreateWallet(ctx, sqlite.Wallet{OwnerType: "user", OwnerID: user.ID, Address: "w_u"})
	require.NoError(t, err)

	_, err = store.CreateRule(ctx, reward.Rule{
		CompanyID: company.ID, Action: "purchase",
		Mode: reward.ModeFlat, Rate: decimal.NewFromInt(1), Active: true,
	})
	require.NoError(t, err)

	_, err = store.CreateInteraction(ctx, sqlite.Interaction{
		UserID: user.ID, CompanyID: company.ID, Service: "Shop", Action: "purchase",
	})
	require.NoError(t, err)

	from := ledger.Address("w_m")
	require.NoError(t, store.RecordTransfer(ctx, reward.TransferRecord{
		TxHash: "t1", FromWallet: &from, ToWallet: "w_u", Amount: decimal.NewFromInt(5),
	}))

	// WHEN: Tearing the company down
	addresses, err := store.DeleteCompanyCascade(ctx, company.ID)
	require.NoError(t, err)

	// THEN: Both addresses come back and every owned row is gone
	assert.ElementsMatch(t, []string{"w_m", "w_u"}, addresses)

	gone, err := store.GetCompany(ctx, company.ID)
	require.NoError(t, err)
	assert.Nil(t, gone)

	goneUser, err := store.GetUser(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, goneUser)

	rules, err := store.ListActiveRules(ctx, company.ID)
	require.NoError(t, err)
	assert.Empty(t, rules)

	interactions, err := store.ListUserInteractions(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, interactions)

	transfers, err := store.ListTransfersByWallet(ctx, "w_u")
	require.NoError(t, err)
	assert.Empty(t, transfers)
}

func TestStore_Reset(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seedCompany(t, store, "sk_reset")

	require.NoError(t, store.Reset())

	has, err := store.HasCompanies(ctx)
	require.NoError(t, err)
	assert.False(t, has)
}
