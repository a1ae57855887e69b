package services

import (
	"database/sql"
	"testing"

	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/folioledger/backend/src/models"
	"github.com/username/folioledger/backend/src/store"
	"github.com/username/folioledger/backend/src/testutil"
)

type valuationEnv struct {
	db      *sql.DB
	prices  *store.PriceStore
	rates   *store.RateStore
	service *ValuationService
}

func newValuationEnv(t *testing.T) *valuationEnv {
	db := testutil.SetupTestDB(t)
	prices := store.NewPriceStore(db)
	rates := store.NewRateStore(db)
	service := NewValuationService(store.NewAccountStore(db), store.NewHoldingStore(db),
		prices, rates, cache.New(DefaultCacheExpiration, CacheCleanupInterval))
	return &valuationEnv{db: db, prices: prices, rates: rates, service: service}
}

func setPrice(t *testing.T, env *valuationEnv, invID int64, date string, price int64) {
	t.Helper()
	p := models.Scaled(price)
	require.NoError(t, env.prices.Upsert(invID, models.UpsertPriceRequest{Date: date, Price: &p}))
}

func setRate(t *testing.T, env *valuationEnv, currencyID int64, date string, rate int64) {
	t.Helper()
	r := models.Scaled(rate)
	require.NoError(t, env.rates.Upsert(currencyID, models.UpsertRateRequest{Date: date, Rate: &r}))
}

func TestForAccountBaseCurrencyHolding(t *testing.T) {
	env := newValuationEnv(t)
	userID := testutil.CreateUser(t, env.db, "alice")
	gbp := testutil.CurrencyID(t, env.db, "GBP")
	invID := testutil.CreateInvestment(t, env.db, gbp, "Alpha Growth Fund")
	accountID := testutil.CreateAccount(t, env.db, userID, models.AccountISA, 5_000_000, 0) // 500 cash
	testutil.CreateHolding(t, env.db, accountID, invID, 1_000_000, 50_000)                  // 100 units
	setPrice(t, env, invID, "2026-05-01", 61_200)                                           // 6.12

	v, err := env.service.ForAccount(accountID)
	require.NoError(t, err)
	require.Len(t, v.Holdings, 1)

	line := v.Holdings[0]
	assert.Equal(t, models.ValuationOK, line.Status)
	assert.InDelta(t, 612.0, line.ValueLocal, 1e-9)
	assert.InDelta(t, 612.0, line.ValueBase, 1e-9)
	assert.InDelta(t, 612.0, v.InvestmentsTotal, 1e-9)
	assert.InDelta(t, 500.0, v.CashBalance, 1e-9)
	assert.InDelta(t, 1112.0, v.AccountTotal, 1e-9)
	assert.False(t, v.CashWarning)
}

func TestForAccountConvertsForeignCurrency(t *testing.T) {
	env := newValuationEnv(t)
	userID := testutil.CreateUser(t, env.db, "alice")
	usd := testutil.CreateCurrency(t, env.db, "USD", "US Dollar")
	invID := testutil.CreateInvestment(t, env.db, usd, "US Tracker")
	accountID := testutil.CreateAccount(t, env.db, userID, models.AccountTrading, 0, 0)
	testutil.CreateHolding(t, env.db, accountID, invID, 1_000_000, 50_000)
	setPrice(t, env, invID, "2026-05-01", 63_250) // 6.325 USD
	setRate(t, env, usd, "2026-05-01", 12_650)    // 1.265 USD per GBP

	v, err := env.service.ForAccount(accountID)
	require.NoError(t, err)
	require.Len(t, v.Holdings, 1)

	line := v.Holdings[0]
	assert.Equal(t, models.ValuationOK, line.Status)
	assert.InDelta(t, 632.5, line.ValueLocal, 1e-9)
	// 632.50 USD / 1.265 = 500 GBP
	assert.InDelta(t, 500.0, line.ValueBase, 1e-9)
	assert.InDelta(t, 500.0, v.AccountTotal, 1e-9)
}

// A holding with no recorded price stays listed with NO_PRICE status and a
// zero contribution; the others still value normally.
func TestForAccountToleratesMissingPrice(t *testing.T) {
	env := newValuationEnv(t)
	userID := testutil.CreateUser(t, env.db, "alice")
	gbp := testutil.CurrencyID(t, env.db, "GBP")
	priced := testutil.CreateInvestment(t, env.db, gbp, "Alpha Growth Fund")
	unpriced := testutil.CreateInvestment(t, env.db, gbp, "Zeta Bond Fund")
	accountID := testutil.CreateAccount(t, env.db, userID, models.AccountISA, 0, 0)
	testutil.CreateHolding(t, env.db, accountID, priced, 1_000_000, 50_000)
	testutil.CreateHolding(t, env.db, accountID, unpriced, 2_000_000, 10_000)
	setPrice(t, env, priced, "2026-05-01", 61_200)

	v, err := env.service.ForAccount(accountID)
	require.NoError(t, err)
	require.Len(t, v.Holdings, 2)

	assert.Equal(t, models.ValuationOK, v.Holdings[0].Status)
	assert.Equal(t, models.ValuationNoPrice, v.Holdings[1].Status)
	assert.Zero(t, v.Holdings[1].ValueBase)
	assert.InDelta(t, 612.0, v.InvestmentsTotal, 1e-9)
}

func TestForAccountToleratesMissingRate(t *testing.T) {
	env := newValuationEnv(t)
	userID := testutil.CreateUser(t, env.db, "alice")
	usd := testutil.CreateCurrency(t, env.db, "USD", "US Dollar")
	invID := testutil.CreateInvestment(t, env.db, usd, "US Tracker")
	accountID := testutil.CreateAccount(t, env.db, userID, models.AccountTrading, 0, 0)
	testutil.CreateHolding(t, env.db, accountID, invID, 1_000_000, 50_000)
	setPrice(t, env, invID, "2026-05-01", 63_250)

	v, err := env.service.ForAccount(accountID)
	require.NoError(t, err)
	require.Len(t, v.Holdings, 1)

	line := v.Holdings[0]
	assert.Equal(t, models.ValuationNoRate, line.Status)
	assert.InDelta(t, 632.5, line.ValueLocal, 1e-9, "local value is still reported")
	assert.Zero(t, line.ValueBase)
	assert.Zero(t, v.InvestmentsTotal)
}

func TestCashWarningFlag(t *testing.T) {
	env := newValuationEnv(t)
	userID := testutil.CreateUser(t, env.db, "alice")
	low := testutil.CreateAccount(t, env.db, userID, models.AccountISA, 500_000, 1_000_000)      // 50 < 100
	healthy := testutil.CreateAccount(t, env.db, userID, models.AccountTrading, 5_000_000, 1_000_000)
	unset := testutil.CreateAccount(t, env.db, userID, models.AccountSavings, 0, 0)

	v, err := env.service.ForAccount(low)
	require.NoError(t, err)
	assert.True(t, v.CashWarning)

	v, err = env.service.ForAccount(healthy)
	require.NoError(t, err)
	assert.False(t, v.CashWarning)

	v, err = env.service.ForAccount(unset)
	require.NoError(t, err)
	assert.False(t, v.CashWarning, "a zero threshold disables the warning")
}

func TestForUserRollsUpAccounts(t *testing.T) {
	env := newValuationEnv(t)
	userID := testutil.CreateUser(t, env.db, "alice")
	gbp := testutil.CurrencyID(t, env.db, "GBP")
	invID := testutil.CreateInvestment(t, env.db, gbp, "Alpha Growth Fund")

	isa := testutil.CreateAccount(t, env.db, userID, models.AccountISA, 5_000_000, 0)
	testutil.CreateAccount(t, env.db, userID, models.AccountTrading, 2_500_000, 0)
	testutil.CreateHolding(t, env.db, isa, invID, 1_000_000, 50_000)
	setPrice(t, env, invID, "2026-05-01", 61_200)

	v, err := env.service.ForUser(userID)
	require.NoError(t, err)
	require.Len(t, v.Accounts, 2)
	assert.InDelta(t, 612.0, v.InvestmentsTotal, 1e-9)
	assert.InDelta(t, 750.0, v.CashBalance, 1e-9)
	assert.InDelta(t, 1362.0, v.AccountTotal, 1e-9)
}

// A cached summary is served until the cache is flushed; after the flush
// the valuation reflects new reference data.
func TestCacheInvalidation(t *testing.T) {
	env := newValuationEnv(t)
	userID := testutil.CreateUser(t, env.db, "alice")
	gbp := testutil.CurrencyID(t, env.db, "GBP")
	invID := testutil.CreateInvestment(t, env.db, gbp, "Alpha Growth Fund")
	accountID := testutil.CreateAccount(t, env.db, userID, models.AccountISA, 0, 0)
	testutil.CreateHolding(t, env.db, accountID, invID, 1_000_000, 50_000)
	setPrice(t, env, invID, "2026-05-01", 61_200)

	v, err := env.service.ForAccount(accountID)
	require.NoError(t, err)
	assert.InDelta(t, 612.0, v.InvestmentsTotal, 1e-9)

	setPrice(t, env, invID, "2026-05-02", 70_000)

	v, err = env.service.ForAccount(accountID)
	require.NoError(t, err)
	assert.InDelta(t, 612.0, v.InvestmentsTotal, 1e-9, "stale summary served from cache")

	env.service.InvalidateCache()

	v, err = env.service.ForAccount(accountID)
	require.NoError(t, err)
	assert.InDelta(t, 700.0, v.InvestmentsTotal, 1e-9)
}
