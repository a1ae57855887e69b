package store

import (
	"database/sql"
	"errors"

	"github.com/username/folioledger/backend/src/apperrors"
	"github.com/username/folioledger/backend/src/models"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func (s *UserStore) Create(name string) (*models.User, error) {
	if name == "" {
		return nil, apperrors.New(apperrors.KindValidation, "User name is required")
	}
	res, err := s.db.Exec("INSERT INTO users (name) VALUES (?)", name)
	if err != nil {
		return nil, mapConstraintErr(err, "A user with that name already exists")
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, err
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id int64) (*models.User, error) {
	var u models.User
	err := s.db.QueryRow("SELECT id, name, created_at FROM users WHERE id = ?", id).
		Scan(&u.ID, &u.Name, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperrors.New(apperrors.KindNotFound, "User not found")
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *UserStore) List() ([]models.User, error) {
	rows, err := s.db.Query("SELECT id, name, created_at FROM users ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	users := []models.User{}
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Name, &u.CreatedAt); err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}
