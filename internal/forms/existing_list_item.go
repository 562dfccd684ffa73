package forms

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/dukerupert/superlists/internal/model"
	"github.com/dukerupert/superlists/internal/store"
)

// ItemStore is what an ExistingListItemForm needs from storage.
type ItemStore interface {
	ItemCreator
	ItemChecker
}

// ExistingListItemForm adds an item to a list that is already known when the
// form is bound, and rejects text the list already contains.
type ExistingListItemForm struct {
	*ItemForm
	List *model.List

	items   ItemStore
	checked bool
}

func NewExistingListItemForm(list *model.List, items ItemStore) *ExistingListItemForm {
	return &ExistingListItemForm{ItemForm: NewItemForm(), List: list, items: items}
}

func BindExistingListItemForm(list *model.List, items ItemStore, values url.Values) *ExistingListItemForm {
	return &ExistingListItemForm{ItemForm: BindItemForm(values), List: list, items: items}
}

// Validate runs the field checks and the duplicate check. Lookup failures
// are returned as errors; validation failures are recorded on the form.
func (f *ExistingListItemForm) Validate() (bool, error) {
	if !f.ItemForm.IsValid() {
		return false, nil
	}
	if f.checked {
		return !f.HasErrors(), nil
	}
	f.checked = true

	if f.List == nil {
		return false, ErrNoList
	}
	exists, err := f.items.Exists(f.List.ID, f.Text)
	if err != nil {
		return false, fmt.Errorf("check duplicate item: %w", err)
	}
	if exists {
		f.AddError(f.Widget.Field, DuplicateItemError)
		return false, nil
	}
	return true, nil
}

// Save validates and persists the item on the form's list. A duplicate that
// slips past validation is still reported as a field error.
func (f *ExistingListItemForm) Save() (*model.Item, error) {
	ok, err := f.Validate()
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrInvalidForm
	}

	item, err := f.ItemForm.Save(f.items, f.List)
	if errors.Is(err, store.ErrDuplicateItem) {
		f.AddError(f.Widget.Field, DuplicateItemError)
		return nil, ErrInvalidForm
	}
	return item, err
}
