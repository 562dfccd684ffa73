package handler

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dukerupert/superlists/internal/database"
	"github.com/dukerupert/superlists/internal/middleware"
	"github.com/dukerupert/superlists/internal/store"
	ws "github.com/dukerupert/superlists/internal/websocket"
	"github.com/dukerupert/superlists/web"
)

type sentEmail struct {
	To   string
	Link string
}

type fakeMailer struct {
	mu         sync.Mutex
	configured bool
	err        error
	sent       []sentEmail
}

func (m *fakeMailer) Configured() bool { return m.configured }

func (m *fakeMailer) SendLoginLink(_ context.Context, to, link string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentEmail{To: to, Link: link})
	return nil
}

type testEnv struct {
	db       *sql.DB
	router   http.Handler
	users    *store.UserStore
	tokens   *store.TokenStore
	sessions *store.SessionStore
	lists    *store.ListStore
	items    *store.ItemStore
	hub      *ws.Hub
	mailer   *fakeMailer
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	templates, err := web.Templates()
	if err != nil {
		t.Fatalf("load templates: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	env := &testEnv{
		db:       db,
		users:    store.NewUserStore(db),
		tokens:   store.NewTokenStore(db),
		sessions: store.NewSessionStore(db),
		lists:    store.NewListStore(db),
		items:    store.NewItemStore(db),
		hub:      ws.NewHub(logger),
		mailer:   &fakeMailer{configured: true},
	}

	render := NewRenderer(templates, logger)
	listH := NewListHandler(env.lists, env.items, env.hub, render, logger)
	authH := NewAuthHandler(env.tokens, env.users, env.sessions, env.mailer, "http://superlists.test", time.Hour, logger)

	r := chi.NewRouter()
	r.Use(middleware.LoadSession(env.sessions, logger))
	r.Get("/", listH.Home)
	r.Post("/lists/new", listH.NewList)
	r.Get("/lists/{id}/", listH.ViewList)
	r.Post("/lists/{id}/", listH.AddItem)
	r.Post("/lists/{id}/delete", listH.DeleteList)
	r.Get("/lists/{id}/items", listH.Items)
	r.With(middleware.RequireLogin).Get("/lists/users/{email}/", listH.MyLists)
	r.Post("/accounts/send_login_email", authH.SendLoginEmail)
	r.Get("/accounts/login", authH.Login)
	r.Post("/accounts/logout", authH.Logout)
	env.router = r

	return env
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(path string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return e.do(req)
}

func (e *testEnv) postForm(path string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	req := httptest.NewRequest("POST", path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for _, c := range cookies {
		req.AddCookie(c)
	}
	return e.do(req)
}

// login creates a user and session and returns the session cookie.
func (e *testEnv) login(t *testing.T, email string) *http.Cookie {
	t.Helper()
	if _, err := e.users.GetOrCreate(email); err != nil {
		t.Fatalf("create user: %v", err)
	}
	sess, err := e.sessions.Create(email, time.Hour)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return &http.Cookie{Name: middleware.SessionCookieName, Value: sess.Token}
}

func findCookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func itemText(text string) url.Values {
	return url.Values{"text": {text}}
}
