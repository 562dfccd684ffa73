package store

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Sentinel errors returned by the stores. Callers match them with errors.Is.
var (
	// ErrEmptyEmail is returned when a user or token is created without an email.
	ErrEmptyEmail = errors.New("email is required")

	// ErrUserExists is returned when creating a user whose email is already taken.
	ErrUserExists = errors.New("user already exists")

	// ErrListNotFound is returned when an item targets a list that does not exist.
	ErrListNotFound = errors.New("list not found")

	// ErrEmptyItem is returned when an item has no text.
	ErrEmptyItem = errors.New("item text is required")

	// ErrDuplicateItem is returned when a list already holds an item with the same text.
	ErrDuplicateItem = errors.New("duplicate item in list")
)

func sqliteCode(err error) int {
	var se *sqlite.Error
	if errors.As(err, &se) {
		return se.Code()
	}
	return 0
}

func isUniqueViolation(err error) bool {
	code := sqliteCode(err)
	switch {
	case code == sqlite3.SQLITE_CONSTRAINT_UNIQUE, code == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case code&0xff == sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(err.Error(), "UNIQUE")
	}
	return false
}

func isForeignKeyViolation(err error) bool {
	code := sqliteCode(err)
	switch {
	case code == sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
		return true
	case code&0xff == sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(err.Error(), "FOREIGN KEY")
	}
	return false
}

func isCheckViolation(err error) bool {
	code := sqliteCode(err)
	switch {
	case code == sqlite3.SQLITE_CONSTRAINT_CHECK:
		return true
	case code&0xff == sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(err.Error(), "CHECK")
	}
	return false
}
