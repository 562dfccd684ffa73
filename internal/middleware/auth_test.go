package middleware

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dukerupert/superlists/internal/auth"
	"github.com/dukerupert/superlists/internal/database"
	"github.com/dukerupert/superlists/internal/store"
)

func setupAuthMiddlewareDB(t *testing.T) (*store.SessionStore, *store.UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return store.NewSessionStore(db), store.NewUserStore(db)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoadSessionNoCookie(t *testing.T) {
	ss, _ := setupAuthMiddlewareDB(t)

	reached := false
	handler := LoadSession(ss, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		if auth.IsAuthenticated(r.Context()) {
			t.Error("expected anonymous request")
		}
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if !reached {
		t.Fatal("handler not reached")
	}
}

func TestLoadSessionInvalidToken(t *testing.T) {
	ss, _ := setupAuthMiddlewareDB(t)

	handler := LoadSession(ss, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.IsAuthenticated(r.Context()) {
			t.Error("expected anonymous request")
		}
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "invalid-token"})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != SessionCookieName || cookies[0].MaxAge >= 0 {
		t.Errorf("expected stale session cookie to be cleared, got %+v", cookies)
	}
}

func TestLoadSessionValid(t *testing.T) {
	ss, us := setupAuthMiddlewareDB(t)

	if _, err := us.Create("edith@example.com"); err != nil {
		t.Fatalf("create user: %v", err)
	}
	sess, err := ss.Create("edith@example.com", time.Hour)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	var gotAC auth.AuthContext
	handler := LoadSession(ss, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			t.Fatal("expected AuthContext in request context")
		}
		gotAC = ac
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.Token})
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotAC.Email != "edith@example.com" {
		t.Errorf("Email = %q, want %q", gotAC.Email, "edith@example.com")
	}
	if gotAC.SessionID != sess.ID {
		t.Errorf("SessionID = %d, want %d", gotAC.SessionID, sess.ID)
	}
}

func TestLoadSessionExpired(t *testing.T) {
	ss, us := setupAuthMiddlewareDB(t)

	us.Create("edith@example.com")
	sess, err := ss.Create("edith@example.com", -time.Minute)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}

	handler := LoadSession(ss, discardLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth.IsAuthenticated(r.Context()) {
			t.Error("expired session should not authenticate")
		}
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: sess.Token})
	handler.ServeHTTP(httptest.NewRecorder(), req)
}

func TestRequireLoginAnonymous(t *testing.T) {
	handler := RequireLogin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/lists/users/edith@example.com/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/" {
		t.Errorf("Location = %q, want %q", loc, "/")
	}
}

func TestRequireLoginAuthenticated(t *testing.T) {
	ctx := auth.WithAuth(context.Background(), auth.AuthContext{Email: "edith@example.com"})
	req := httptest.NewRequest("GET", "/", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	handler := RequireLogin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}
