package store

import (
	"database/sql"
	"fmt"

	sq "github.com/Masterminds/squirrel"
	"github.com/dukerupert/superlists/internal/model"
)

type ListStore struct {
	db *sql.DB
}

func NewListStore(db *sql.DB) *ListStore {
	return &ListStore{db: db}
}

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Question)

// A list is named after its first item.
const listNameExpr = `COALESCE((SELECT i.text FROM items i WHERE i.list_id = l.id ORDER BY i.id LIMIT 1), '') AS name`

func selectLists() sq.SelectBuilder {
	return builder.Select("l.id", "l.owner_email", listNameExpr, "l.created_at").From("lists l")
}

func scanList(scanner interface{ Scan(...any) error }) (*model.List, error) {
	var l model.List
	var owner sql.NullString
	err := scanner.Scan(&l.ID, &owner, &l.Name, &l.CreatedAt)
	if err != nil {
		return nil, err
	}
	if owner.Valid {
		l.OwnerEmail = &owner.String
	}
	return &l, nil
}

// Create inserts an empty list. A nil owner creates an anonymous list.
func (s *ListStore) Create(owner *string) (*model.List, error) {
	var o sql.NullString
	if owner != nil && *owner != "" {
		o = sql.NullString{String: NormalizeEmail(*owner), Valid: true}
	}

	result, err := s.db.Exec(`INSERT INTO lists (owner_email) VALUES (?)`, o)
	if err != nil {
		return nil, fmt.Errorf("insert list: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *ListStore) GetByID(id int64) (*model.List, error) {
	query, args, err := selectLists().Where(sq.Eq{"l.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get list query: %w", err)
	}

	l, err := scanList(s.db.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get list: %w", err)
	}
	return l, nil
}

// ListByOwner returns the lists owned by email, oldest first.
func (s *ListStore) ListByOwner(email string) ([]model.List, error) {
	query, args, err := selectLists().
		Where(sq.Eq{"l.owner_email": NormalizeEmail(email)}).
		OrderBy("l.id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list lists: %w", err)
	}
	defer rows.Close()

	var lists []model.List
	for rows.Next() {
		l, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("scan list: %w", err)
		}
		lists = append(lists, *l)
	}
	return lists, rows.Err()
}

// Delete removes the list and, through the foreign key, all of its items.
func (s *ListStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM lists WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete list: %w", err)
	}
	return nil
}
