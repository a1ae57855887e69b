package models

// Per-operation request structs. Required numeric fields are pointers so
// "missing" and "zero" stay distinguishable for validation.

type CreateUserRequest struct {
	Name string `json:"name"`
}

type CreateCurrencyRequest struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type UpdateCurrencyRequest struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type CreateInvestmentRequest struct {
	CurrencyID     int64  `json:"currency_id"`
	TypeID         int64  `json:"type_id"`
	Description    string `json:"description"`
	PublicID       string `json:"public_id"`
	SourceURL      string `json:"source_url"`
	SourceSelector string `json:"source_selector"`
}

// UpsertPriceRequest records a dated price; a second write for the same
// date replaces the first.
type UpsertPriceRequest struct {
	Date  string  `json:"date"`
	Price *Scaled `json:"price"`
}

type UpsertRateRequest struct {
	Date string  `json:"date"`
	Rate *Scaled `json:"rate"`
}

type CreateAccountRequest struct {
	UserID      int64  `json:"user_id"`
	AccountType string `json:"account_type"`
	AccountRef  string `json:"account_ref"`
	CashBalance Scaled `json:"cash_balance"`
	WarnCash    Scaled `json:"warn_cash"`
}

type UpdateAccountRequest struct {
	AccountRef string `json:"account_ref"`
	WarnCash   Scaled `json:"warn_cash"`
}

type CreateHoldingRequest struct {
	AccountID    int64  `json:"account_id"`
	InvestmentID int64  `json:"investment_id"`
	Quantity     Scaled `json:"quantity"`
	AverageCost  Scaled `json:"average_cost"`
}

// UpdateHoldingRequest overwrites both fields directly. It exists for
// manual correction; buys and sells go through the movement processor.
type UpdateHoldingRequest struct {
	Quantity    Scaled `json:"quantity"`
	AverageCost Scaled `json:"average_cost"`
}

// MovementRequest is the input to the movement processor. MovementValue is
// the gross consideration of the trade.
type MovementRequest struct {
	HoldingID       int64   `json:"-"`
	MovementType    string  `json:"movement_type"`
	MovementDate    string  `json:"movement_date"`
	Quantity        *Scaled `json:"quantity"`
	MovementValue   *Scaled `json:"movement_value"`
	DeductibleCosts Scaled  `json:"deductible_costs"`
	Notes           string  `json:"notes"`
}

// CashTransactionRequest is the input to the cash ledger. Amount is always
// supplied positive for deposits, withdrawals and drawdowns; adjustments
// may carry either sign.
type CashTransactionRequest struct {
	AccountID       int64   `json:"-"`
	TransactionType string  `json:"transaction_type"`
	TransactionDate string  `json:"transaction_date"`
	Amount          *Scaled `json:"amount"`
	Notes           string  `json:"notes"`
}
