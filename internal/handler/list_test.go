package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"testing"

	"github.com/dukerupert/superlists/internal/model"
)

func TestHomePage(t *testing.T) {
	env := setupEnv(t)

	rec := env.get("/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{
		"<h1>Start a new To-Do list</h1>",
		`placeholder="Enter a to-do item"`,
		`name="email"`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("home page missing %q", want)
		}
	}
	if strings.Contains(body, "My lists") {
		t.Error("anonymous home page should not link to My lists")
	}
}

func TestHomePageLoggedIn(t *testing.T) {
	env := setupEnv(t)
	cookie := env.login(t, "edith@example.com")

	body := env.get("/", cookie).Body.String()
	if !strings.Contains(body, `href="/lists/users/edith@example.com/">My lists</a>`) {
		t.Error("expected My lists navbar link for logged-in user")
	}
	if !strings.Contains(body, "Logged in as edith@example.com") {
		t.Error("expected logged-in banner")
	}
}

func TestNewListRedirects(t *testing.T) {
	env := setupEnv(t)

	rec := env.postForm("/lists/new", itemText("Buy peacock feathers"))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}

	loc := rec.Header().Get("Location")
	var id int64
	if _, err := fmt.Sscanf(loc, "/lists/%d/", &id); err != nil {
		t.Fatalf("unexpected Location %q", loc)
	}
	items, err := env.items.ListByList(id)
	if err != nil {
		t.Fatalf("list items: %v", err)
	}
	if len(items) != 1 || items[0].Text != "Buy peacock feathers" {
		t.Errorf("items = %+v, want one peacock item", items)
	}

	list, _ := env.lists.GetByID(id)
	if list.OwnerEmail != nil {
		t.Errorf("anonymous list owner = %q, want nil", *list.OwnerEmail)
	}
}

func TestNewListOwnedByLoggedInUser(t *testing.T) {
	env := setupEnv(t)
	cookie := env.login(t, "edith@example.com")

	rec := env.postForm("/lists/new", itemText("Make a fly"), cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}

	lists, err := env.lists.ListByOwner("edith@example.com")
	if err != nil {
		t.Fatalf("list by owner: %v", err)
	}
	if len(lists) != 1 || lists[0].Name != "Make a fly" {
		t.Errorf("lists = %+v, want one named 'Make a fly'", lists)
	}
}

func TestNewListEmptyItem(t *testing.T) {
	env := setupEnv(t)

	for _, text := range []string{"", "   "} {
		rec := env.postForm("/lists/new", itemText(text))
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		body := rec.Body.String()
		if !strings.Contains(body, "You can&#39;t have an empty list item") {
			t.Errorf("expected empty item error for %q", text)
		}
		if !strings.Contains(body, "Start a new To-Do list") {
			t.Error("expected home page to be re-rendered")
		}
	}

	var count int
	env.db.QueryRow(`SELECT COUNT(*) FROM lists`).Scan(&count)
	if count != 0 {
		t.Errorf("lists = %d, want 0 after invalid input", count)
	}
}

func newListWith(t *testing.T, env *testEnv, owner *string, texts ...string) *model.List {
	t.Helper()
	list, err := env.lists.Create(owner)
	if err != nil {
		t.Fatalf("create list: %v", err)
	}
	for _, text := range texts {
		if _, err := env.items.Create(list.ID, text); err != nil {
			t.Fatalf("create item: %v", err)
		}
	}
	return list
}

func TestViewList(t *testing.T) {
	env := setupEnv(t)
	list := newListWith(t, env, nil, "itemey 1", "itemey 2")
	other := newListWith(t, env, nil, "other list item")

	rec := env.get(listURL(list.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	for _, want := range []string{"<h1>Your To-Do list</h1>", "1: itemey 1", "2: itemey 2"} {
		if !strings.Contains(body, want) {
			t.Errorf("list page missing %q", want)
		}
	}
	if strings.Contains(body, "other list item") {
		t.Errorf("list %d shows items of list %d", list.ID, other.ID)
	}
}

func TestViewListNotFound(t *testing.T) {
	env := setupEnv(t)

	for _, path := range []string{"/lists/999/", "/lists/abc/"} {
		if rec := env.get(path); rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, rec.Code)
		}
	}
}

func TestAddItem(t *testing.T) {
	env := setupEnv(t)
	list := newListWith(t, env, nil, "first")

	rec := env.postForm(listURL(list.ID), itemText("A new item for an existing list"))
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != listURL(list.ID) {
		t.Errorf("Location = %q, want %q", loc, listURL(list.ID))
	}

	items, _ := env.items.ListByList(list.ID)
	if len(items) != 2 || items[1].Text != "A new item for an existing list" {
		t.Errorf("items = %+v", items)
	}
}

func TestAddItemEmpty(t *testing.T) {
	env := setupEnv(t)
	list := newListWith(t, env, nil, "first")

	rec := env.postForm(listURL(list.ID), itemText(""))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "You can&#39;t have an empty list item") {
		t.Error("expected empty item error")
	}
	if !strings.Contains(body, "Your To-Do list") {
		t.Error("expected list page to be re-rendered")
	}
	if n, _ := env.items.CountByList(list.ID); n != 1 {
		t.Errorf("items = %d, want 1", n)
	}
}

func TestAddItemDuplicate(t *testing.T) {
	env := setupEnv(t)
	list := newListWith(t, env, nil, "textey")

	rec := env.postForm(listURL(list.ID), itemText("textey"))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "You&#39;ve already got this in your list") {
		t.Error("expected duplicate item error")
	}
	if n, _ := env.items.CountByList(list.ID); n != 1 {
		t.Errorf("items = %d, want 1", n)
	}
}

func TestDeleteListOwner(t *testing.T) {
	env := setupEnv(t)
	cookie := env.login(t, "edith@example.com")
	owner := "edith@example.com"
	list := newListWith(t, env, &owner, "a", "b")

	rec := env.postForm(fmt.Sprintf("/lists/%d/delete", list.ID), nil, cookie)
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if got, _ := env.lists.GetByID(list.ID); got != nil {
		t.Error("list should be deleted")
	}
	if n, _ := env.items.CountByList(list.ID); n != 0 {
		t.Errorf("items = %d, want 0 after cascade", n)
	}
}

func TestDeleteListForbidden(t *testing.T) {
	env := setupEnv(t)
	owner := "edith@example.com"
	list := newListWith(t, env, &owner, "a")
	intruder := env.login(t, "francis@example.com")

	for _, cookies := range [][]*http.Cookie{nil, {intruder}} {
		rec := env.postForm(fmt.Sprintf("/lists/%d/delete", list.ID), nil, cookies...)
		if rec.Code != http.StatusForbidden {
			t.Errorf("status = %d, want 403", rec.Code)
		}
	}
	if got, _ := env.lists.GetByID(list.ID); got == nil {
		t.Error("list should still exist")
	}
}

func TestMyLists(t *testing.T) {
	env := setupEnv(t)
	cookie := env.login(t, "edith@example.com")
	owner := "edith@example.com"
	newListWith(t, env, &owner, "Reticulate splines")
	newListWith(t, env, nil, "Not mine")

	rec := env.get("/lists/users/edith@example.com/", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<h1>My Lists</h1>") {
		t.Error("expected My Lists header")
	}
	if !strings.Contains(body, "Reticulate splines") {
		t.Error("expected owned list to be shown")
	}
	if strings.Contains(body, "Not mine") {
		t.Error("anonymous list should not be shown")
	}
}

func TestMyListsRequiresLogin(t *testing.T) {
	env := setupEnv(t)

	rec := env.get("/lists/users/edith@example.com/")
	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status = %d, want 303", rec.Code)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want /", loc)
	}
}

func TestMyListsOtherUser(t *testing.T) {
	env := setupEnv(t)
	cookie := env.login(t, "francis@example.com")

	rec := env.get("/lists/users/edith@example.com/", cookie)
	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
}

func TestMyListsEscapedEmail(t *testing.T) {
	env := setupEnv(t)
	owner := "a#b/c?d@example.com"
	cookie := env.login(t, owner)
	newListWith(t, env, &owner, "Reticulate splines")

	home := env.get("/", cookie).Body.String()
	if !strings.Contains(home, `href="/lists/users/a%23b%2Fc%3Fd@example.com/"`) {
		t.Errorf("expected escaped My lists link, got:\n%s", home)
	}

	rec := env.get("/lists/users/a%23b%2Fc%3Fd@example.com/", cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Reticulate splines") {
		t.Error("expected owned list to be shown")
	}
}

func TestMyListsPercentInEmail(t *testing.T) {
	env := setupEnv(t)
	owner := "100%41@example.com"
	cookie := env.login(t, owner)

	rec := env.get("/lists/users/"+url.PathEscape(owner)+"/", cookie)
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want 200", rec.Code)
	}
}

func TestItemsJSON(t *testing.T) {
	env := setupEnv(t)
	list := newListWith(t, env, nil, "one", "two")
	empty := newListWith(t, env, nil)

	rec := env.get(fmt.Sprintf("/lists/%d/items", list.ID))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var items []model.Item
	if err := json.NewDecoder(rec.Body).Decode(&items); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(items) != 2 || items[0].Text != "one" || items[1].Text != "two" {
		t.Errorf("items = %+v", items)
	}

	rec = env.get(fmt.Sprintf("/lists/%d/items", empty.ID))
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("empty list body = %q, want []", body)
	}
}
