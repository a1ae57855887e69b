package store

import (
	"database/sql"
	"errors"
	"slices"

	"github.com/username/folioledger/backend/src/apperrors"
	"github.com/username/folioledger/backend/src/logger"
	"github.com/username/folioledger/backend/src/models"
)

type AccountStore struct {
	db *sql.DB
}

func NewAccountStore(db *sql.DB) *AccountStore {
	return &AccountStore{db: db}
}

func (s *AccountStore) Create(req models.CreateAccountRequest) (*models.Account, error) {
	if !slices.Contains(models.AccountTypes, req.AccountType) {
		return nil, apperrors.New(apperrors.KindValidation, "Account type must be one of isa, pension, trading, savings")
	}
	var exists int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM users WHERE id = ?", req.UserID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, apperrors.New(apperrors.KindNotFound, "User not found")
	}
	res, err := s.db.Exec(`
		INSERT INTO accounts (user_id, account_type, account_ref, cash_balance, warn_cash)
		VALUES (?, ?, ?, ?, ?)`,
		req.UserID, req.AccountType, req.AccountRef, int64(req.CashBalance), int64(req.WarnCash))
	if err != nil {
		return nil, mapConstraintErr(err, "The user already has an account of that type")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

func (s *AccountStore) GetByID(id int64) (*models.Account, error) {
	return GetAccount(s.db, id)
}

// GetAccount reads an account through any Querier so the movement
// processor and cash ledger can re-read state inside their transactions.
func GetAccount(q Querier, id int64) (*models.Account, error) {
	var a models.Account
	err := q.QueryRow(`
		SELECT id, user_id, account_type, account_ref, cash_balance, warn_cash
		FROM accounts WHERE id = ?`, id).
		Scan(&a.ID, &a.UserID, &a.AccountType, &a.AccountRef, &a.CashBalance, &a.WarnCash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.New(apperrors.KindNotFound, "Account not found")
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *AccountStore) ListByUser(userID int64) ([]models.Account, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, account_type, account_ref, cash_balance, warn_cash
		FROM accounts WHERE user_id = ?
		ORDER BY account_type`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	accounts := []models.Account{}
	for rows.Next() {
		var a models.Account
		if err := rows.Scan(&a.ID, &a.UserID, &a.AccountType, &a.AccountRef, &a.CashBalance, &a.WarnCash); err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, rows.Err()
}

// Update changes the mutable descriptive fields. The cash balance is never
// writable here: it only moves through the movement processor and the cash
// ledger.
func (s *AccountStore) Update(id int64, req models.UpdateAccountRequest) (*models.Account, error) {
	if _, err := s.GetByID(id); err != nil {
		return nil, err
	}
	_, err := s.db.Exec("UPDATE accounts SET account_ref = ?, warn_cash = ? WHERE id = ?",
		req.AccountRef, int64(req.WarnCash), id)
	if err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

// Delete removes an account and cascades deletion of its holdings, their
// movement history, and its cash transactions. This is a deliberate,
// audited destructive operation, so it is logged with what it removed.
func (s *AccountStore) Delete(id int64) error {
	account, err := s.GetByID(id)
	if err != nil {
		return err
	}
	var holdings, movements, cashRows int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM holdings WHERE account_id = ?", id).Scan(&holdings); err != nil {
		return err
	}
	if err := s.db.QueryRow(`
		SELECT COUNT(*) FROM holding_movements
		WHERE holding_id IN (SELECT id FROM holdings WHERE account_id = ?)`, id).Scan(&movements); err != nil {
		return err
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM cash_transactions WHERE account_id = ?", id).Scan(&cashRows); err != nil {
		return err
	}
	if _, err := s.db.Exec("DELETE FROM accounts WHERE id = ?", id); err != nil {
		return mapConstraintErr(err, "Account is still referenced")
	}
	logger.L.Warn("Account deleted with cascading history",
		"accountID", id, "userID", account.UserID, "accountType", account.AccountType,
		"holdingsRemoved", holdings, "movementsRemoved", movements, "cashTransactionsRemoved", cashRows)
	return nil
}
