package store

import (
	"database/sql"
	"fmt"

	"github.com/dukerupert/superlists/internal/model"
)

type ItemStore struct {
	db *sql.DB
}

func NewItemStore(db *sql.DB) *ItemStore {
	return &ItemStore{db: db}
}

func scanItem(scanner interface{ Scan(...any) error }) (*model.Item, error) {
	var item model.Item
	err := scanner.Scan(&item.ID, &item.ListID, &item.Text, &item.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

const itemCols = `id, list_id, text, created_at`

func (s *ItemStore) Create(listID int64, text string) (*model.Item, error) {
	if text == "" {
		return nil, ErrEmptyItem
	}

	result, err := s.db.Exec(`INSERT INTO items (list_id, text) VALUES (?, ?)`, listID, text)
	if err != nil {
		switch {
		case isUniqueViolation(err):
			return nil, ErrDuplicateItem
		case isForeignKeyViolation(err):
			return nil, ErrListNotFound
		case isCheckViolation(err):
			return nil, ErrEmptyItem
		}
		return nil, fmt.Errorf("insert item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ItemStore) GetByID(id int64) (*model.Item, error) {
	row := s.db.QueryRow(`SELECT `+itemCols+` FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// ListByList returns a list's items in insertion order.
func (s *ItemStore) ListByList(listID int64) ([]model.Item, error) {
	rows, err := s.db.Query(`SELECT `+itemCols+` FROM items WHERE list_id = ? ORDER BY id ASC`, listID)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *ItemStore) Exists(listID int64, text string) (bool, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM items WHERE list_id = ? AND text = ?`, listID, text).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check item exists: %w", err)
	}
	return n > 0, nil
}

func (s *ItemStore) CountByList(listID int64) (int, error) {
	var n int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM items WHERE list_id = ?`, listID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count items: %w", err)
	}
	return n, nil
}
