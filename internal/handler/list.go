package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/dukerupert/superlists/internal/auth"
	"github.com/dukerupert/superlists/internal/forms"
	"github.com/dukerupert/superlists/internal/model"
	"github.com/dukerupert/superlists/internal/store"
	ws "github.com/dukerupert/superlists/internal/websocket"
)

type ListHandler struct {
	lists  *store.ListStore
	items  *store.ItemStore
	hub    *ws.Hub
	render *Renderer
	logger *slog.Logger
}

func NewListHandler(ls *store.ListStore, is *store.ItemStore, hub *ws.Hub, render *Renderer, logger *slog.Logger) *ListHandler {
	return &ListHandler{lists: ls, items: is, hub: hub, render: render, logger: logger}
}

func (h *ListHandler) Home(w http.ResponseWriter, r *http.Request) {
	h.render.Page(w, r, "home.html", map[string]any{"Form": forms.NewItemForm()})
}

// NewList creates a list together with its first item. An invalid item
// re-renders the home page with the field error and creates nothing.
func (h *ListHandler) NewList(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	form := forms.BindItemForm(r.PostForm)
	if !form.IsValid() {
		h.render.Page(w, r, "home.html", map[string]any{"Form": form})
		return
	}

	var owner *string
	if email := auth.Email(r.Context()); email != "" {
		owner = &email
	}
	list, err := h.lists.Create(owner)
	if err != nil {
		h.logger.Error("create list", "error", err)
		http.Error(w, "failed to create list", http.StatusInternalServerError)
		return
	}

	if _, err := form.Save(h.items, list); err != nil {
		if delErr := h.lists.Delete(list.ID); delErr != nil {
			h.logger.Error("remove empty list", "list_id", list.ID, "error", delErr)
		}
		if errors.Is(err, forms.ErrInvalidForm) {
			h.render.Page(w, r, "home.html", map[string]any{"Form": form})
			return
		}
		h.logger.Error("save first item", "list_id", list.ID, "error", err)
		http.Error(w, "failed to save item", http.StatusInternalServerError)
		return
	}

	http.Redirect(w, r, listURL(list.ID), http.StatusSeeOther)
}

func (h *ListHandler) ViewList(w http.ResponseWriter, r *http.Request) {
	list, ok := h.loadList(w, r)
	if !ok {
		return
	}
	h.renderList(w, r, list, forms.NewExistingListItemForm(list, h.items))
}

// AddItem appends an item to an existing list and notifies live viewers.
func (h *ListHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	list, ok := h.loadList(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form data", http.StatusBadRequest)
		return
	}

	form := forms.BindExistingListItemForm(list, h.items, r.PostForm)
	item, err := form.Save()
	switch {
	case errors.Is(err, forms.ErrInvalidForm):
		h.renderList(w, r, list, form)
		return
	case errors.Is(err, forms.ErrNoList):
		http.NotFound(w, r)
		return
	case err != nil:
		h.logger.Error("add item", "list_id", list.ID, "error", err)
		http.Error(w, "failed to save item", http.StatusInternalServerError)
		return
	}

	h.hub.Broadcast(ws.ItemCreated(list.ID, item.ID, item.Text))
	http.Redirect(w, r, listURL(list.ID), http.StatusSeeOther)
}

// DeleteList removes a list and its items. Only the owner may do this.
func (h *ListHandler) DeleteList(w http.ResponseWriter, r *http.Request) {
	list, ok := h.loadList(w, r)
	if !ok {
		return
	}
	email := auth.Email(r.Context())
	if !list.OwnedBy(email) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	if err := h.lists.Delete(list.ID); err != nil {
		h.logger.Error("delete list", "list_id", list.ID, "error", err)
		http.Error(w, "failed to delete list", http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, myListsURL(email), http.StatusSeeOther)
}

// MyLists shows the lists owned by the logged-in user. Users can only see
// their own page.
func (h *ListHandler) MyLists(w http.ResponseWriter, r *http.Request) {
	owner := store.NormalizeEmail(pathParam(r, "email"))
	if owner != auth.Email(r.Context()) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}

	lists, err := h.lists.ListByOwner(owner)
	if err != nil {
		h.logger.Error("list lists", "owner", owner, "error", err)
		http.Error(w, "failed to load lists", http.StatusInternalServerError)
		return
	}
	h.render.Page(w, r, "my_lists.html", map[string]any{
		"Owner": owner,
		"Lists": lists,
	})
}

// Items returns a list's items as JSON.
func (h *ListHandler) Items(w http.ResponseWriter, r *http.Request) {
	list, ok := h.loadList(w, r)
	if !ok {
		return
	}
	items, err := h.items.ListByList(list.ID)
	if err != nil {
		h.logger.Error("list items", "list_id", list.ID, "error", err)
		WriteJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to load items"})
		return
	}
	if items == nil {
		items = []model.Item{}
	}
	WriteJSON(w, http.StatusOK, items)
}

// Live upgrades to a websocket that receives the list's new items.
func (h *ListHandler) Live(w http.ResponseWriter, r *http.Request) {
	list, ok := h.loadList(w, r)
	if !ok {
		return
	}
	h.hub.Serve(w, r, list.ID)
}

func (h *ListHandler) loadList(w http.ResponseWriter, r *http.Request) (*model.List, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return nil, false
	}
	list, err := h.lists.GetByID(id)
	if err != nil {
		h.logger.Error("get list", "list_id", id, "error", err)
		http.Error(w, "failed to load list", http.StatusInternalServerError)
		return nil, false
	}
	if list == nil {
		http.NotFound(w, r)
		return nil, false
	}
	return list, true
}

func (h *ListHandler) renderList(w http.ResponseWriter, r *http.Request, list *model.List, form *forms.ExistingListItemForm) {
	items, err := h.items.ListByList(list.ID)
	if err != nil {
		h.logger.Error("list items", "list_id", list.ID, "error", err)
		http.Error(w, "failed to load items", http.StatusInternalServerError)
		return
	}
	h.render.Page(w, r, "list.html", map[string]any{
		"List":    list,
		"Items":   items,
		"Form":    form,
		"IsOwner": list.OwnedBy(auth.Email(r.Context())),
	})
}

func listURL(id int64) string {
	return fmt.Sprintf("/lists/%d/", id)
}

func myListsURL(email string) string {
	return "/lists/users/" + url.PathEscape(email) + "/"
}

// pathParam returns a decoded URL parameter. chi matches against the raw
// path when the request path carries escapes, leaving the parameter encoded.
func pathParam(r *http.Request, key string) string {
	v := chi.URLParam(r, key)
	if r.URL.RawPath == "" {
		return v
	}
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}
