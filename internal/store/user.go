package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/superlists/internal/model"
	"golang.org/x/crypto/bcrypt"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var lastLogin sql.NullTime
	err := scanner.Scan(&u.Email, &u.Password, &lastLogin)
	if err != nil {
		return nil, err
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	return &u, nil
}

const userCols = `email, password, last_login`

// NormalizeEmail trims surrounding space and lowercases the domain part.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndexByte(email, '@')
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}

func (s *UserStore) Create(email string) (*model.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrEmptyEmail
	}

	_, err := s.db.Exec(`INSERT INTO list_users (email) VALUES (?)`, email)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetByEmail(email)
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM list_users WHERE email = ?`, NormalizeEmail(email))
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

// GetOrCreate returns the user for email, creating it on first sight.
func (s *UserStore) GetOrCreate(email string) (*model.User, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, ErrEmptyEmail
	}

	if _, err := s.db.Exec(`INSERT OR IGNORE INTO list_users (email) VALUES (?)`, email); err != nil {
		return nil, fmt.Errorf("get or create user: %w", err)
	}
	return s.GetByEmail(email)
}

func (s *UserStore) UpdateLastLogin(email string, at time.Time) error {
	_, err := s.db.Exec(
		`UPDATE list_users SET last_login = ? WHERE email = ?`,
		at.UTC(), NormalizeEmail(email),
	)
	if err != nil {
		return fmt.Errorf("update last login: %w", err)
	}
	return nil
}

// SetPassword stores a bcrypt hash of raw. An empty raw password makes the
// account unusable for password login.
func (s *UserStore) SetPassword(email, raw string) error {
	var hash string
	if raw != "" {
		b, err := bcrypt.GenerateFromPassword([]byte(raw), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hash password: %w", err)
		}
		hash = string(b)
	}

	_, err := s.db.Exec(`UPDATE list_users SET password = ? WHERE email = ?`, hash, NormalizeEmail(email))
	if err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return nil
}

func (s *UserStore) CheckPassword(email, raw string) (bool, error) {
	u, err := s.GetByEmail(email)
	if err != nil {
		return false, err
	}
	if u == nil || !u.HasUsablePassword() {
		return false, nil
	}
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(raw)) == nil, nil
}
