package store

import (
	"database/sql"
	"errors"

	"github.com/username/folioledger/backend/src/apperrors"
	"github.com/username/folioledger/backend/src/models"
)

type InvestmentStore struct {
	db *sql.DB
}

func NewInvestmentStore(db *sql.DB) *InvestmentStore {
	return &InvestmentStore{db: db}
}

func (s *InvestmentStore) Create(req models.CreateInvestmentRequest) (*models.Investment, error) {
	if req.Description == "" {
		return nil, apperrors.New(apperrors.KindValidation, "Investment description is required")
	}
	var exists int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM currencies WHERE id = ?", req.CurrencyID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, apperrors.New(apperrors.KindNotFound, "Currency not found")
	}
	if err := s.db.QueryRow("SELECT COUNT(*) FROM investment_types WHERE id = ?", req.TypeID).Scan(&exists); err != nil {
		return nil, err
	}
	if exists == 0 {
		return nil, apperrors.New(apperrors.KindNotFound, "Investment type not found")
	}

	res, err := s.db.Exec(`
		INSERT INTO investments (currency_id, type_id, description, public_id, source_url, source_selector)
		VALUES (?, ?, ?, ?, ?, ?)`,
		req.CurrencyID, req.TypeID, req.Description, req.PublicID, req.SourceURL, req.SourceSelector)
	if err != nil {
		return nil, mapConstraintErr(err, "Investment violates a uniqueness constraint")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

func (s *InvestmentStore) GetByID(id int64) (*models.Investment, error) {
	var inv models.Investment
	err := s.db.QueryRow(`
		SELECT i.id, i.currency_id, i.type_id, i.description, i.public_id, i.source_url, i.source_selector,
		       c.code, t.description
		FROM investments i
		JOIN currencies c ON c.id = i.currency_id
		JOIN investment_types t ON t.id = i.type_id
		WHERE i.id = ?`, id).
		Scan(&inv.ID, &inv.CurrencyID, &inv.TypeID, &inv.Description, &inv.PublicID,
			&inv.SourceURL, &inv.SourceSelector, &inv.CurrencyCode, &inv.TypeDescription)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.New(apperrors.KindNotFound, "Investment not found")
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (s *InvestmentStore) List() ([]models.Investment, error) {
	rows, err := s.db.Query(`
		SELECT i.id, i.currency_id, i.type_id, i.description, i.public_id, i.source_url, i.source_selector,
		       c.code, t.description
		FROM investments i
		JOIN currencies c ON c.id = i.currency_id
		JOIN investment_types t ON t.id = i.type_id
		ORDER BY i.description`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	investments := []models.Investment{}
	for rows.Next() {
		var inv models.Investment
		if err := rows.Scan(&inv.ID, &inv.CurrencyID, &inv.TypeID, &inv.Description, &inv.PublicID,
			&inv.SourceURL, &inv.SourceSelector, &inv.CurrencyCode, &inv.TypeDescription); err != nil {
			return nil, err
		}
		investments = append(investments, inv)
	}
	return investments, rows.Err()
}

func (s *InvestmentStore) Update(id int64, req models.CreateInvestmentRequest) (*models.Investment, error) {
	if _, err := s.GetByID(id); err != nil {
		return nil, err
	}
	if req.Description == "" {
		return nil, apperrors.New(apperrors.KindValidation, "Investment description is required")
	}
	_, err := s.db.Exec(`
		UPDATE investments
		SET currency_id = ?, type_id = ?, description = ?, public_id = ?, source_url = ?, source_selector = ?
		WHERE id = ?`,
		req.CurrencyID, req.TypeID, req.Description, req.PublicID, req.SourceURL, req.SourceSelector, id)
	if err != nil {
		return nil, mapConstraintErr(err, "Investment violates a uniqueness constraint")
	}
	return s.GetByID(id)
}

// Delete removes an investment and, via cascade, its price history. An
// investment still held in any account is protected.
func (s *InvestmentStore) Delete(id int64) error {
	if _, err := s.GetByID(id); err != nil {
		return err
	}
	var held int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM holdings WHERE investment_id = ?", id).Scan(&held); err != nil {
		return err
	}
	if held > 0 {
		return apperrors.New(apperrors.KindConflict, "Investment is held in one or more accounts")
	}
	_, err := s.db.Exec("DELETE FROM investments WHERE id = ?", id)
	return mapConstraintErr(err, "Investment is still referenced")
}

func (s *InvestmentStore) ListTypes() ([]models.InvestmentType, error) {
	rows, err := s.db.Query("SELECT id, description FROM investment_types ORDER BY id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	types := []models.InvestmentType{}
	for rows.Next() {
		var t models.InvestmentType
		if err := rows.Scan(&t.ID, &t.Description); err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, rows.Err()
}
