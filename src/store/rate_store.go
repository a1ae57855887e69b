package store

import (
	"database/sql"
	"errors"

	"github.com/username/folioledger/backend/src/apperrors"
	"github.com/username/folioledger/backend/src/models"
)

// RateStore reads and writes dated exchange rates for non-base currencies.
// Rates are "units of that currency per 1 unit of the base currency"; the
// base currency itself has an implicit rate of exactly 1.0 and is never
// stored or looked up.
type RateStore struct {
	db *sql.DB
}

func NewRateStore(db *sql.DB) *RateStore {
	return &RateStore{db: db}
}

// Upsert records a rate for a currency on a date, last-write-wins per date.
func (s *RateStore) Upsert(currencyID int64, req models.UpsertRateRequest) error {
	if !models.IsValidDate(req.Date) {
		return apperrors.New(apperrors.KindValidation, "Rate date must be in YYYY-MM-DD format")
	}
	if req.Rate == nil {
		return apperrors.New(apperrors.KindValidation, "Rate is required")
	}
	var code string
	err := s.db.QueryRow("SELECT code FROM currencies WHERE id = ?", currencyID).Scan(&code)
	if errors.Is(err, sql.ErrNoRows) {
		return apperrors.New(apperrors.KindNotFound, "Currency not found")
	}
	if err != nil {
		return err
	}
	if code == models.BaseCurrencyCode {
		return apperrors.New(apperrors.KindValidation, "The base currency does not take exchange rates")
	}
	_, err = s.db.Exec(`
		INSERT INTO exchange_rates (currency_id, rate_date, rate) VALUES (?, ?, ?)
		ON CONFLICT (currency_id, rate_date) DO UPDATE SET rate = excluded.rate`,
		currencyID, req.Date, int64(*req.Rate))
	return mapConstraintErr(err, "Rate violates a uniqueness constraint")
}

// Latest returns the most recent rate for a currency, or nil when no rate
// has ever been recorded.
func (s *RateStore) Latest(currencyID int64) (*models.RatePoint, error) {
	var p models.RatePoint
	err := s.db.QueryRow(`
		SELECT rate_date, rate FROM exchange_rates
		WHERE currency_id = ?
		ORDER BY rate_date DESC LIMIT 1`, currencyID).
		Scan(&p.Date, &p.Rate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// OnDate returns the rate recorded for an exact date, or nil when none
// exists.
func (s *RateStore) OnDate(currencyID int64, date string) (*models.RatePoint, error) {
	var p models.RatePoint
	err := s.db.QueryRow(`
		SELECT rate_date, rate FROM exchange_rates
		WHERE currency_id = ? AND rate_date = ?`, currencyID, date).
		Scan(&p.Date, &p.Rate)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// History returns all recorded rates for a currency, newest first.
func (s *RateStore) History(currencyID int64) ([]models.RatePoint, error) {
	rows, err := s.db.Query(`
		SELECT rate_date, rate FROM exchange_rates
		WHERE currency_id = ?
		ORDER BY rate_date DESC`, currencyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	points := []models.RatePoint{}
	for rows.Next() {
		var p models.RatePoint
		if err := rows.Scan(&p.Date, &p.Rate); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
