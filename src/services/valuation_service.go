// Package services holds the read-side aggregation over the ledger stores.
package services

import (
	"fmt"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/folioledger/backend/src/logger"
	"github.com/username/folioledger/backend/src/models"
	"github.com/username/folioledger/backend/src/store"
)

const (
	DefaultCacheExpiration = 5 * time.Minute
	CacheCleanupInterval   = 10 * time.Minute
)

// ValuationService joins holdings with the latest prices and exchange
// rates to produce per-account and per-user valuations in the base
// currency. It is a pure read path with no stored state of its own beyond
// a summary cache, which mutating handlers flush.
type ValuationService struct {
	accounts *store.AccountStore
	holdings *store.HoldingStore
	prices   *store.PriceStore
	rates    *store.RateStore
	cache    *cache.Cache
}

func NewValuationService(accounts *store.AccountStore, holdings *store.HoldingStore,
	prices *store.PriceStore, rates *store.RateStore, summaryCache *cache.Cache) *ValuationService {
	return &ValuationService{
		accounts: accounts,
		holdings: holdings,
		prices:   prices,
		rates:    rates,
		cache:    summaryCache,
	}
}

// InvalidateCache flushes all cached summaries. Called by every mutating
// path (movements, cash, reference-data upserts) since a single price or
// rate write can move every account's valuation.
func (s *ValuationService) InvalidateCache() {
	s.cache.Flush()
}

// ForAccount values one account. Holdings with no recorded price, or with
// a non-base currency lacking a rate, are still listed with a status flag
// and contribute zero to the totals: a summary with gaps beats one that
// fails outright.
func (s *ValuationService) ForAccount(accountID int64) (*models.AccountValuation, error) {
	cacheKey := fmt.Sprintf("valuation:account:%d", accountID)
	if cached, found := s.cache.Get(cacheKey); found {
		return cached.(*models.AccountValuation), nil
	}

	account, err := s.accounts.GetByID(accountID)
	if err != nil {
		return nil, err
	}
	holdings, err := s.holdings.ListByAccount(accountID)
	if err != nil {
		return nil, err
	}

	valuation := &models.AccountValuation{
		AccountID:   account.ID,
		AccountType: account.AccountType,
		AccountRef:  account.AccountRef,
		Holdings:    make([]models.HoldingValuation, 0, len(holdings)),
	}

	investmentsTotal := decimal.Zero
	for _, h := range holdings {
		line, valueBase, err := s.valueHolding(h)
		if err != nil {
			return nil, err
		}
		investmentsTotal = investmentsTotal.Add(valueBase)
		valuation.Holdings = append(valuation.Holdings, line)
	}

	cashBalance := account.CashBalance.Decimal()
	valuation.InvestmentsTotal, _ = investmentsTotal.Float64()
	valuation.CashBalance, _ = cashBalance.Float64()
	valuation.AccountTotal, _ = investmentsTotal.Add(cashBalance).Float64()
	valuation.CashWarning = account.WarnCash > 0 && account.CashBalance < account.WarnCash

	s.cache.Set(cacheKey, valuation, cache.DefaultExpiration)
	return valuation, nil
}

// valueHolding computes one holding line and its base-currency value.
func (s *ValuationService) valueHolding(h models.Holding) (models.HoldingValuation, decimal.Decimal, error) {
	line := models.HoldingValuation{
		HoldingID:    h.ID,
		InvestmentID: h.InvestmentID,
		Description:  h.InvestmentDescription,
		CurrencyCode: h.CurrencyCode,
		Quantity:     h.Quantity.Float(),
		AverageCost:  h.AverageCost.Float(),
		Status:       models.ValuationOK,
	}

	price, err := s.prices.Latest(h.InvestmentID)
	if err != nil {
		return line, decimal.Zero, err
	}
	if price == nil {
		line.Status = models.ValuationNoPrice
		return line, decimal.Zero, nil
	}
	line.Price = price.Price.Float()
	line.PriceDate = price.Date

	valueLocal := h.Quantity.Decimal().Mul(price.Price.Decimal())
	line.ValueLocal, _ = valueLocal.Float64()

	if h.CurrencyCode == models.BaseCurrencyCode {
		line.ValueBase = line.ValueLocal
		return line, valueLocal, nil
	}

	rate, err := s.rates.Latest(h.CurrencyID)
	if err != nil {
		return line, decimal.Zero, err
	}
	if rate == nil || rate.Rate == 0 {
		// No usable rate: the holding stays listed, valued at zero in the
		// base currency.
		line.Status = models.ValuationNoRate
		return line, decimal.Zero, nil
	}
	valueBase := valueLocal.Div(rate.Rate.Decimal())
	line.ValueBase, _ = valueBase.Float64()
	return line, valueBase, nil
}

// ForUser rolls account valuations up across all of a user's accounts.
func (s *ValuationService) ForUser(userID int64) (*models.UserValuation, error) {
	cacheKey := fmt.Sprintf("valuation:user:%d", userID)
	if cached, found := s.cache.Get(cacheKey); found {
		return cached.(*models.UserValuation), nil
	}

	accounts, err := s.accounts.ListByUser(userID)
	if err != nil {
		return nil, err
	}

	valuation := &models.UserValuation{
		UserID:   userID,
		Accounts: make([]models.AccountValuation, 0, len(accounts)),
	}
	for _, a := range accounts {
		av, err := s.ForAccount(a.ID)
		if err != nil {
			return nil, err
		}
		valuation.Accounts = append(valuation.Accounts, *av)
		valuation.InvestmentsTotal += av.InvestmentsTotal
		valuation.CashBalance += av.CashBalance
		valuation.AccountTotal += av.AccountTotal
	}

	logger.L.Debug("User valuation computed", "userID", userID, "accounts", len(valuation.Accounts))
	s.cache.Set(cacheKey, valuation, cache.DefaultExpiration)
	return valuation, nil
}
