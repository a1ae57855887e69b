package store

import (
	"database/sql"
	"errors"

	"github.com/username/folioledger/backend/src/apperrors"
	"github.com/username/folioledger/backend/src/models"
)

type HoldingStore struct {
	db *sql.DB
}

func NewHoldingStore(db *sql.DB) *HoldingStore {
	return &HoldingStore{db: db}
}

// Create opens a position. One holding per (account, investment) pair;
// a duplicate is a Conflict, a missing account or investment a NotFound.
func (s *HoldingStore) Create(req models.CreateHoldingRequest) (*models.Holding, error) {
	if req.Quantity < 0 {
		return nil, apperrors.New(apperrors.KindValidation, "Quantity cannot be negative")
	}
	var exists int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM accounts WHERE id = ?", req.AccountID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, apperrors.New(apperrors.KindNotFound, "Account not found")
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM investments WHERE id = ?", req.InvestmentID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, apperrors.New(apperrors.KindNotFound, "Investment not found")
	}
	res, err := s.db.Exec(`
		INSERT INTO holdings (account_id, investment_id, quantity, average_cost)
		VALUES (?, ?, ?, ?)`,
		req.AccountID, req.InvestmentID, int64(req.Quantity), int64(req.AverageCost))
	if err != nil {
		return nil, mapConstraintErr(err, "A holding for that account and investment already exists")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

func (s *HoldingStore) GetByID(id int64) (*models.Holding, error) {
	return GetHolding(s.db, id)
}

// GetHolding reads a holding through any Querier so the movement processor
// can re-read state inside its transaction.
func GetHolding(q Querier, id int64) (*models.Holding, error) {
	var h models.Holding
	err := q.QueryRow(`
		SELECT h.id, h.account_id, h.investment_id, h.quantity, h.average_cost, i.description, c.id, c.code
		FROM holdings h
		JOIN investments i ON i.id = h.investment_id
		JOIN currencies c ON c.id = i.currency_id
		WHERE h.id = ?`, id).
		Scan(&h.ID, &h.AccountID, &h.InvestmentID, &h.Quantity, &h.AverageCost,
			&h.InvestmentDescription, &h.CurrencyID, &h.CurrencyCode)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.New(apperrors.KindNotFound, "Holding not found")
	}
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// ListByAccount returns the account's holdings ordered by the joined
// investment description (sqlite BINARY collation, applied consistently).
func (s *HoldingStore) ListByAccount(accountID int64) ([]models.Holding, error) {
	rows, err := s.db.Query(`
		SELECT h.id, h.account_id, h.investment_id, h.quantity, h.average_cost, i.description, c.id, c.code
		FROM holdings h
		JOIN investments i ON i.id = h.investment_id
		JOIN currencies c ON c.id = i.currency_id
		WHERE h.account_id = ?
		ORDER BY i.description`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	holdings := []models.Holding{}
	for rows.Next() {
		var h models.Holding
		if err := rows.Scan(&h.ID, &h.AccountID, &h.InvestmentID, &h.Quantity, &h.AverageCost,
			&h.InvestmentDescription, &h.CurrencyID, &h.CurrencyCode); err != nil {
			return nil, err
		}
		holdings = append(holdings, h)
	}
	return holdings, rows.Err()
}

// Update overwrites quantity and average cost directly. This is the manual
// correction path; buys and sells go through the movement processor.
func (s *HoldingStore) Update(id int64, req models.UpdateHoldingRequest) (*models.Holding, error) {
	if req.Quantity < 0 {
		return nil, apperrors.New(apperrors.KindValidation, "Quantity cannot be negative")
	}
	if _, err := s.GetByID(id); err != nil {
		return nil, err
	}
	_, err := s.db.Exec("UPDATE holdings SET quantity = ?, average_cost = ? WHERE id = ?",
		int64(req.Quantity), int64(req.AverageCost), id)
	if err != nil {
		return nil, mapConstraintErr(err, "Holding violates a constraint")
	}
	return s.GetByID(id)
}

// Delete removes the holding and, via cascade, its movement history.
// Whether that is safe is the caller's decision, not the store's.
func (s *HoldingStore) Delete(id int64) error {
	if _, err := s.GetByID(id); err != nil {
		return err
	}
	_, err := s.db.Exec("DELETE FROM holdings WHERE id = ?", id)
	return mapConstraintErr(err, "Holding is still referenced")
}
