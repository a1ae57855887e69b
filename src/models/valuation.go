package models

// Valuation statuses for a holding line. A holding with missing reference
// data is still listed; it just contributes zero to the totals.
const (
	ValuationOK      = "OK"
	ValuationNoPrice = "NO_PRICE"
	ValuationNoRate  = "NO_RATE"
)

// HoldingValuation is one holding joined with its latest price and, for
// non-base currencies, the latest exchange rate.
type HoldingValuation struct {
	HoldingID    int64   `json:"holding_id"`
	InvestmentID int64   `json:"investment_id"`
	Description  string  `json:"description"`
	CurrencyCode string  `json:"currency_code"`
	Quantity     float64 `json:"quantity"`
	AverageCost  float64 `json:"average_cost"`
	Price        float64 `json:"price"`
	PriceDate    string  `json:"price_date,omitempty"`
	ValueLocal   float64 `json:"value_local"`
	ValueBase    float64 `json:"value_base"`
	Status       string  `json:"status"`
}

// AccountValuation aggregates one account's holdings and cash in the base
// currency.
type AccountValuation struct {
	AccountID        int64              `json:"account_id"`
	AccountType      string             `json:"account_type"`
	AccountRef       string             `json:"account_ref"`
	Holdings         []HoldingValuation `json:"holdings"`
	InvestmentsTotal float64            `json:"investments_total"`
	CashBalance      float64            `json:"cash_balance"`
	AccountTotal     float64            `json:"account_total"`
	CashWarning      bool               `json:"cash_warning"`
}

// UserValuation rolls AccountValuations up across one user's accounts.
type UserValuation struct {
	UserID           int64              `json:"user_id"`
	Accounts         []AccountValuation `json:"accounts"`
	InvestmentsTotal float64            `json:"investments_total"`
	CashBalance      float64            `json:"cash_balance"`
	AccountTotal     float64            `json:"account_total"`
}
