// Package forms binds and validates user input for list items before it is
// persisted.
package forms

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/dukerupert/superlists/internal/model"
	"github.com/dukerupert/superlists/internal/store"
)

const (
	EmptyItemError     = "You can't have an empty list item"
	DuplicateItemError = "You've already got this in your list"
)

var (
	// ErrInvalidForm is returned by Save when the form has not validated.
	ErrInvalidForm = errors.New("form is not valid")

	// ErrNoList is returned by Save when no target list is given.
	ErrNoList = errors.New("item must be saved to an existing list")
)

// Widget describes how a single text field is rendered and which message
// is shown when it is left empty.
type Widget struct {
	Field         string
	Placeholder   string
	CSSClass      string
	RequiredError string
}

var ItemWidget = Widget{
	Field:         "text",
	Placeholder:   "Enter a to-do item",
	CSSClass:      "form-control input-lg",
	RequiredError: EmptyItemError,
}

// ItemCreator persists items. *store.ItemStore satisfies it.
type ItemCreator interface {
	Create(listID int64, text string) (*model.Item, error)
}

// ItemChecker reports whether a list already holds an item.
type ItemChecker interface {
	Exists(listID int64, text string) (bool, error)
}

// ItemForm holds the submitted text for a new item and any field errors.
type ItemForm struct {
	Widget Widget
	Text   string
	Errors map[string][]string

	bound     bool
	validated bool
}

// NewItemForm returns an unbound form for rendering an empty input.
func NewItemForm() *ItemForm {
	return &ItemForm{Widget: ItemWidget, Errors: map[string][]string{}}
}

// BindItemForm returns a form bound to submitted values. Surrounding
// whitespace is stripped, so a whitespace-only submission counts as empty.
func BindItemForm(values url.Values) *ItemForm {
	f := NewItemForm()
	f.bound = true
	f.Text = strings.TrimSpace(values.Get(f.Widget.Field))
	return f
}

func (f *ItemForm) IsBound() bool {
	return f.bound
}

// IsValid validates a bound form, recording field errors. An unbound form is
// never valid.
func (f *ItemForm) IsValid() bool {
	if !f.bound {
		return false
	}
	if !f.validated {
		f.validated = true
		if f.Text == "" {
			f.AddError(f.Widget.Field, f.Widget.RequiredError)
		}
	}
	return len(f.Errors) == 0
}

func (f *ItemForm) AddError(field, msg string) {
	f.Errors[field] = append(f.Errors[field], msg)
}

// FieldErrors returns the messages recorded for field.
func (f *ItemForm) FieldErrors(field string) []string {
	return f.Errors[field]
}

func (f *ItemForm) HasErrors() bool {
	return len(f.Errors) > 0
}

// Save attaches the validated item to list and persists it.
func (f *ItemForm) Save(items ItemCreator, list *model.List) (*model.Item, error) {
	if list == nil {
		return nil, ErrNoList
	}
	if !f.IsValid() {
		return nil, ErrInvalidForm
	}

	item, err := items.Create(list.ID, f.Text)
	switch {
	case errors.Is(err, store.ErrEmptyItem):
		f.AddError(f.Widget.Field, f.Widget.RequiredError)
		return nil, ErrInvalidForm
	case errors.Is(err, store.ErrListNotFound):
		return nil, ErrNoList
	case err != nil:
		return nil, fmt.Errorf("save item: %w", err)
	}
	return item, nil
}
