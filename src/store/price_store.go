package store

import (
	"database/sql"
	"errors"

	"github.com/username/folioledger/backend/src/apperrors"
	"github.com/username/folioledger/backend/src/models"
)

// PriceStore reads and writes dated price observations. Reference data
// producers (the external scraper, manual entry, backfill) all write
// through the same last-write-wins-per-date upsert the valuation path
// reads.
type PriceStore struct {
	db *sql.DB
}

func NewPriceStore(db *sql.DB) *PriceStore {
	return &PriceStore{db: db}
}

// Upsert records a price for an investment on a date. A later write for
// the same date replaces the prior value.
func (s *PriceStore) Upsert(investmentID int64, req models.UpsertPriceRequest) error {
	if !models.IsValidDate(req.Date) {
		return apperrors.New(apperrors.KindValidation, "Price date must be in YYYY-MM-DD format")
	}
	if req.Price == nil {
		return apperrors.New(apperrors.KindValidation, "Price is required")
	}
	var exists int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM investments WHERE id = ?", investmentID).Scan(&exists); err != nil {
		return err
	}
	if exists == 0 {
		return apperrors.New(apperrors.KindNotFound, "Investment not found")
	}
	_, err := s.db.Exec(`
		INSERT INTO prices (investment_id, price_date, price) VALUES (?, ?, ?)
		ON CONFLICT (investment_id, price_date) DO UPDATE SET price = excluded.price`,
		investmentID, req.Date, int64(*req.Price))
	return mapConstraintErr(err, "Price violates a uniqueness constraint")
}

// Latest returns the most recent price for an investment, or nil when no
// price has ever been recorded. Absence is a valid result, not an error.
func (s *PriceStore) Latest(investmentID int64) (*models.PricePoint, error) {
	var p models.PricePoint
	err := s.db.QueryRow(`
		SELECT price_date, price FROM prices
		WHERE investment_id = ?
		ORDER BY price_date DESC LIMIT 1`, investmentID).
		Scan(&p.Date, &p.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// OnDate returns the price recorded for an exact date, or nil when none
// exists, supporting point-in-time valuation.
func (s *PriceStore) OnDate(investmentID int64, date string) (*models.PricePoint, error) {
	var p models.PricePoint
	err := s.db.QueryRow(`
		SELECT price_date, price FROM prices
		WHERE investment_id = ? AND price_date = ?`, investmentID, date).
		Scan(&p.Date, &p.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// History returns all recorded prices for an investment, newest first.
func (s *PriceStore) History(investmentID int64) ([]models.PricePoint, error) {
	rows, err := s.db.Query(`
		SELECT price_date, price FROM prices
		WHERE investment_id = ?
		ORDER BY price_date DESC`, investmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	points := []models.PricePoint{}
	for rows.Next() {
		var p models.PricePoint
		if err := rows.Scan(&p.Date, &p.Price); err != nil {
			return nil, err
		}
		points = append(points, p)
	}
	return points, rows.Err()
}
