package store

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/username/folioledger/backend/src/apperrors"
	"github.com/username/folioledger/backend/src/models"
)

type CurrencyStore struct {
	db *sql.DB
}

func NewCurrencyStore(db *sql.DB) *CurrencyStore {
	return &CurrencyStore{db: db}
}

func (s *CurrencyStore) Create(req models.CreateCurrencyRequest) (*models.Currency, error) {
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if len(code) != 3 {
		return nil, apperrors.New(apperrors.KindValidation, "Currency code must be exactly 3 letters")
	}
	res, err := s.db.Exec("INSERT INTO currencies (code, description) VALUES (?, ?)", code, req.Description)
	if err != nil {
		return nil, mapConstraintErr(err, "A currency with that code already exists")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

func (s *CurrencyStore) GetByID(id int64) (*models.Currency, error) {
	var c models.Currency
	err := s.db.QueryRow("SELECT id, code, description FROM currencies WHERE id = ?", id).
		Scan(&c.ID, &c.Code, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.New(apperrors.KindNotFound, "Currency not found")
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CurrencyStore) GetByCode(code string) (*models.Currency, error) {
	var c models.Currency
	err := s.db.QueryRow("SELECT id, code, description FROM currencies WHERE code = ?", code).
		Scan(&c.ID, &c.Code, &c.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.New(apperrors.KindNotFound, "Currency not found")
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CurrencyStore) List() ([]models.Currency, error) {
	rows, err := s.db.Query("SELECT id, code, description FROM currencies ORDER BY code")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	currencies := []models.Currency{}
	for rows.Next() {
		var c models.Currency
		if err := rows.Scan(&c.ID, &c.Code, &c.Description); err != nil {
			return nil, err
		}
		currencies = append(currencies, c)
	}
	return currencies, rows.Err()
}

// Update changes a currency's code and description. The base currency's
// code is immutable; only its description may change.
func (s *CurrencyStore) Update(id int64, req models.UpdateCurrencyRequest) (*models.Currency, error) {
	current, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	code := strings.ToUpper(strings.TrimSpace(req.Code))
	if len(code) != 3 {
		return nil, apperrors.New(apperrors.KindValidation, "Currency code must be exactly 3 letters")
	}
	if current.Code == models.BaseCurrencyCode && code != models.BaseCurrencyCode {
		return nil, apperrors.New(apperrors.KindConflict, "The base currency code cannot be changed")
	}
	_, err = s.db.Exec("UPDATE currencies SET code = ?, description = ? WHERE id = ?", code, req.Description, id)
	if err != nil {
		return nil, mapConstraintErr(err, "A currency with that code already exists")
	}
	return s.GetByID(id)
}

// Delete removes a currency. The base currency and any currency still
// referenced by an investment are protected.
func (s *CurrencyStore) Delete(id int64) error {
	current, err := s.GetByID(id)
	if err != nil {
		return err
	}
	if current.Code == models.BaseCurrencyCode {
		return apperrors.New(apperrors.KindConflict, "The base currency cannot be deleted")
	}
	var inUse int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM investments WHERE currency_id = ?", id).Scan(&inUse); err != nil {
		return err
	}
	if inUse > 0 {
		return apperrors.New(apperrors.KindConflict, "Currency is in use by one or more investments")
	}
	_, err = s.db.Exec("DELETE FROM currencies WHERE id = ?", id)
	return mapConstraintErr(err, "Currency is still referenced")
}
