package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/superlists/internal/model"
	"github.com/google/uuid"
)

type TokenStore struct {
	db *sql.DB
}

func NewTokenStore(db *sql.DB) *TokenStore {
	return &TokenStore{db: db}
}

func scanToken(scanner interface{ Scan(...any) error }) (*model.Token, error) {
	var t model.Token
	if err := scanner.Scan(&t.ID, &t.Email, &t.UID); err != nil {
		return nil, err
	}
	return &t, nil
}

const tokenCols = `id, email, uid`

// Create issues a login token with a random UUID for the given email.
// The email does not have to belong to an existing user yet.
func (s *TokenStore) Create(email string) (*model.Token, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrEmptyEmail
	}

	result, err := s.db.Exec(
		`INSERT INTO tokens (email, uid) VALUES (?, ?)`,
		email, uuid.NewString(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert token: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	row := s.db.QueryRow(`SELECT `+tokenCols+` FROM tokens WHERE id = ?`, id)
	return scanToken(row)
}

// GetByUID returns the token with the given uid, or nil if none exists.
func (s *TokenStore) GetByUID(uid string) (*model.Token, error) {
	row := s.db.QueryRow(`SELECT `+tokenCols+` FROM tokens WHERE uid = ?`, uid)
	t, err := scanToken(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get token by uid: %w", err)
	}
	return t, nil
}

// Consume deletes the token and returns it. Only one caller can consume a
// given uid; every other caller, and any later call, gets nil.
func (s *TokenStore) Consume(uid string) (*model.Token, error) {
	t, err := s.GetByUID(uid)
	if err != nil || t == nil {
		return nil, err
	}

	result, err := s.db.Exec(`DELETE FROM tokens WHERE id = ?`, t.ID)
	if err != nil {
		return nil, fmt.Errorf("consume token: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return nil, nil
	}
	return t, nil
}

// DeleteForEmail removes every outstanding token for an email.
func (s *TokenStore) DeleteForEmail(email string) (int64, error) {
	result, err := s.db.Exec(`DELETE FROM tokens WHERE email = ?`, NormalizeEmail(email))
	if err != nil {
		return 0, fmt.Errorf("delete tokens: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}
