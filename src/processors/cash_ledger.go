package processors

import (
	"database/sql"
	"time"

	"github.com/username/folioledger/backend/src/apperrors"
	"github.com/username/folioledger/backend/src/logger"
	"github.com/username/folioledger/backend/src/models"
	"github.com/username/folioledger/backend/src/store"
)

// CashLedger records deposits, withdrawals, drawdowns and adjustments
// against an account's cash balance. The balance update and the immutable
// transaction row commit as one unit, and each row snapshots the balance
// after it was applied, so the running balance shown in history never
// depends on replaying effects at read time.
type CashLedger struct {
	db *sql.DB
}

func NewCashLedger(db *sql.DB) *CashLedger {
	return &CashLedger{db: db}
}

// CashResult carries the updated account alongside the created row.
type CashResult struct {
	Account     *models.Account         `json:"account"`
	Transaction *models.CashTransaction `json:"transaction"`
}

func validateCash(req models.CashTransactionRequest) error {
	switch req.TransactionType {
	case models.CashDeposit, models.CashWithdrawal, models.CashDrawdown, models.CashAdjustment:
	case "":
		return apperrors.New(apperrors.KindValidation, "Transaction type is required")
	default:
		return apperrors.New(apperrors.KindValidation, "Transaction type must be one of deposit, withdrawal, drawdown, adjustment")
	}
	if req.TransactionDate == "" {
		return apperrors.New(apperrors.KindValidation, "Transaction date is required")
	}
	if !models.IsValidDate(req.TransactionDate) {
		return apperrors.New(apperrors.KindValidation, "Transaction date must be in YYYY-MM-DD format")
	}
	if req.Amount == nil {
		return apperrors.New(apperrors.KindValidation, "Amount is required")
	}
	if req.TransactionType != models.CashAdjustment && *req.Amount <= 0 {
		return apperrors.New(apperrors.KindValidation, "Amount must be greater than zero")
	}
	return nil
}

// signedEffect maps the transaction type to the signed balance effect.
// Deposits and drawdowns credit, withdrawals debit, adjustments carry the
// sign they were supplied with.
func signedEffect(txType string, amount int64) int64 {
	if txType == models.CashWithdrawal {
		return -amount
	}
	return amount
}

// Record validates and applies a cash transaction. A debit exceeding the
// current balance fails with Insufficient funds before any mutation,
// mirroring the sell-side quantity check in the movement processor.
func (l *CashLedger) Record(req models.CashTransactionRequest) (result *CashResult, err error) {
	if err := validateCash(req); err != nil {
		return nil, err
	}

	tx, err := l.db.Begin()
	if err != nil {
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	account, err := store.GetAccount(tx, req.AccountID)
	if err != nil {
		return nil, err
	}

	effect := signedEffect(req.TransactionType, int64(*req.Amount))
	newBalance := int64(account.CashBalance) + effect
	if effect < 0 && newBalance < 0 {
		err = apperrors.New(apperrors.KindInsufficientFunds, "Insufficient funds")
		return nil, err
	}

	if err = updateAccountBalance(tx, account.ID, newBalance); err != nil {
		return nil, err
	}
	res, err := tx.Exec(`
		INSERT INTO cash_transactions (account_id, transaction_type, transaction_date, amount, balance_after, notes)
		VALUES (?, ?, ?, ?, ?, ?)`,
		account.ID, req.TransactionType, req.TransactionDate, effect, newBalance, req.Notes)
	if err != nil {
		err = apperrors.Wrap(apperrors.KindIntegrity, "the database rejected the cash transaction insert", err)
		return nil, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(); err != nil {
		return nil, err
	}

	account.CashBalance = models.Scaled(newBalance)
	transaction := &models.CashTransaction{
		ID:              id,
		AccountID:       account.ID,
		TransactionType: req.TransactionType,
		TransactionDate: req.TransactionDate,
		Amount:          models.Scaled(effect),
		BalanceAfter:    models.Scaled(newBalance),
		Notes:           req.Notes,
		CreatedAt:       time.Now().UTC(),
	}

	logger.L.Info("Cash transaction recorded",
		"accountID", account.ID, "type", req.TransactionType, "date", req.TransactionDate,
		"amount", transaction.Amount.Float(), "balanceAfter", transaction.BalanceAfter.Float())

	return &CashResult{Account: account, Transaction: transaction}, nil
}

// History returns an account's cash transactions, newest first.
func (l *CashLedger) History(accountID int64, limit, offset int) ([]models.CashTransaction, error) {
	if _, err := store.GetAccount(l.db, accountID); err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	rows, err := l.db.Query(`
		SELECT id, account_id, transaction_type, transaction_date, amount, balance_after, notes, created_at
		FROM cash_transactions
		WHERE account_id = ?
		ORDER BY transaction_date DESC, id DESC
		LIMIT ? OFFSET ?`, accountID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	transactions := []models.CashTransaction{}
	for rows.Next() {
		var t models.CashTransaction
		if err := rows.Scan(&t.ID, &t.AccountID, &t.TransactionType, &t.TransactionDate,
			&t.Amount, &t.BalanceAfter, &t.Notes, &t.CreatedAt); err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}
	return transactions, rows.Err()
}

// Reverse deletes a cash transaction as a deliberate correction, undoing
// its balance effect in the same transaction. Rows recorded after the
// reversed one keep their balance_after snapshots; those snapshots are
// historical fact, not recomputed state.
func (l *CashLedger) Reverse(transactionID int64) (err error) {
	tx, err := l.db.Begin()
	if err != nil {
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		} else if err != nil {
			tx.Rollback()
		}
	}()

	var accountID, amount int64
	var txType, txDate string
	err = tx.QueryRow(`
		SELECT account_id, transaction_type, transaction_date, amount
		FROM cash_transactions WHERE id = ?`, transactionID).
		Scan(&accountID, &txType, &txDate, &amount)
	if err == sql.ErrNoRows {
		err = apperrors.New(apperrors.KindNotFound, "Cash transaction not found")
		return err
	}
	if err != nil {
		return err
	}

	account, err := store.GetAccount(tx, accountID)
	if err != nil {
		return err
	}
	newBalance := int64(account.CashBalance) - amount
	if newBalance < 0 {
		err = apperrors.New(apperrors.KindInsufficientFunds, "Insufficient funds to reverse this transaction")
		return err
	}
	if err = updateAccountBalance(tx, accountID, newBalance); err != nil {
		return err
	}
	if _, err = tx.Exec("DELETE FROM cash_transactions WHERE id = ?", transactionID); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return err
	}
	logger.L.Warn("Cash transaction reversed",
		"transactionID", transactionID, "accountID", accountID, "type", txType, "date", txDate)
	return nil
}
