package models

import "time"

// BaseCurrencyCode is the immutable base/reporting currency. Every
// cross-account valuation is expressed in it; it is seeded by migration,
// can never be deleted and its code can never change.
const BaseCurrencyCode = "GBP"

// Movement types applied to a holding.
const (
	MovementBuy        = "buy"
	MovementSell       = "sell"
	MovementAdjustment = "adjustment"
)

// Cash transaction types. Deposits and drawdowns credit the account
// balance, withdrawals debit it, adjustments carry their own sign.
const (
	CashDeposit    = "deposit"
	CashWithdrawal = "withdrawal"
	CashDrawdown   = "drawdown"
	CashAdjustment = "adjustment"
)

// Account types form a small closed set, unique per user.
const (
	AccountISA     = "isa"
	AccountPension = "pension"
	AccountTrading = "trading"
	AccountSavings = "savings"
)

// AccountTypes lists the allowed account_type values.
var AccountTypes = []string{AccountISA, AccountPension, AccountTrading, AccountSavings}

type User struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Currency struct {
	ID          int64  `json:"id"`
	Code        string `json:"code"`
	Description string `json:"description"`
}

type InvestmentType struct {
	ID          int64  `json:"id"`
	Description string `json:"description"`
}

type Investment struct {
	ID          int64  `json:"id"`
	CurrencyID  int64  `json:"currency_id"`
	TypeID      int64  `json:"type_id"`
	Description string `json:"description"`
	PublicID    string `json:"public_id,omitempty"`
	// Source metadata is consumed only by the external price scraper; the
	// engine stores it verbatim and never interprets it.
	SourceURL      string `json:"source_url,omitempty"`
	SourceSelector string `json:"source_selector,omitempty"`

	// Populated on joined reads.
	CurrencyCode    string `json:"currency_code,omitempty"`
	TypeDescription string `json:"type_description,omitempty"`
}

// PricePoint is a dated price observation for an investment, at most one
// per (investment, date); a later write for the same date wins.
type PricePoint struct {
	Date  string `json:"date"`
	Price Scaled `json:"price"`
}

// RatePoint is a dated exchange rate for a non-base currency, expressed as
// units of that currency per one unit of the base currency.
type RatePoint struct {
	Date string `json:"date"`
	Rate Scaled `json:"rate"`
}

type Account struct {
	ID          int64  `json:"id"`
	UserID      int64  `json:"user_id"`
	AccountType string `json:"account_type"`
	AccountRef  string `json:"account_ref"`
	CashBalance Scaled `json:"cash_balance"`
	// WarnCash is the low-cash warning threshold; zero disables the warning.
	WarnCash Scaled `json:"warn_cash"`
}

// Holding is a position of one investment inside one account, unique per
// (account, investment). Quantity never goes negative; a holding with
// movement history is closed at quantity zero rather than deleted.
type Holding struct {
	ID           int64  `json:"id"`
	AccountID    int64  `json:"account_id"`
	InvestmentID int64  `json:"investment_id"`
	Quantity     Scaled `json:"quantity"`
	// AverageCost is the cost basis per unit in the investment's currency.
	// It changes only on a buy.
	AverageCost Scaled `json:"average_cost"`

	// Populated on joined reads.
	InvestmentDescription string `json:"investment_description,omitempty"`
	CurrencyID            int64  `json:"currency_id,omitempty"`
	CurrencyCode          string `json:"currency_code,omitempty"`
}

// HoldingMovement is an immutable audit record of a buy, sell or
// adjustment applied to a holding. On a buy, PriorAvgCost and
// RevisedAvgCost bracket the movement's effect on the average cost;
// a reversal restores PriorAvgCost exactly.
type HoldingMovement struct {
	ID              int64     `json:"id"`
	HoldingID       int64     `json:"holding_id"`
	MovementType    string    `json:"movement_type"`
	MovementDate    string    `json:"movement_date"`
	Quantity        Scaled    `json:"quantity"`
	MovementValue   Scaled    `json:"movement_value"`
	DeductibleCosts Scaled    `json:"deductible_costs"`
	BookCost        Scaled    `json:"book_cost"`
	PriorAvgCost    *Scaled   `json:"prior_avg_cost,omitempty"`
	RevisedAvgCost  *Scaled   `json:"revised_avg_cost,omitempty"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

// CashTransaction is an immutable audit record of a cash movement against
// an account. Amount is the signed balance effect; BalanceAfter snapshots
// the account balance immediately after this row was applied.
type CashTransaction struct {
	ID              int64     `json:"id"`
	AccountID       int64     `json:"account_id"`
	TransactionType string    `json:"transaction_type"`
	TransactionDate string    `json:"transaction_date"`
	Amount          Scaled    `json:"amount"`
	BalanceAfter    Scaled    `json:"balance_after"`
	Notes           string    `json:"notes,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}
