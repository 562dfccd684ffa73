package functest

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/dukerupert/superlists/internal/config"
	"github.com/dukerupert/superlists/internal/database"
	"github.com/dukerupert/superlists/internal/middleware"
	"github.com/dukerupert/superlists/internal/server"
	"github.com/dukerupert/superlists/internal/store"
)

// Email is a message captured by the Outbox.
type Email struct {
	To   string
	Link string
}

// Outbox is a mailer that keeps login emails in memory.
type Outbox struct {
	mu   sync.Mutex
	sent []Email
}

func (o *Outbox) Configured() bool { return true }

func (o *Outbox) SendLoginLink(_ context.Context, to, link string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sent = append(o.sent, Email{To: to, Link: link})
	return nil
}

// Last returns the most recent email sent to addr.
func (o *Outbox) Last(addr string) (Email, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for i := len(o.sent) - 1; i >= 0; i-- {
		if o.sent[i].To == addr {
			return o.sent[i], true
		}
	}
	return Email{}, false
}

func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.sent)
}

// LiveServer runs the full application against a temporary database file.
type LiveServer struct {
	URL    string
	DB     *sql.DB
	Outbox *Outbox
	Server *server.Server
}

func StartLiveServer(t testing.TB) *LiveServer {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "functest.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// bind first so the login links can carry the final address
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	cfg := config.Defaults()
	cfg.Server.BaseURL = "http://" + l.Addr().String()

	outbox := &Outbox{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv, err := server.New(db, cfg, outbox, logger)
	if err != nil {
		l.Close()
		t.Fatalf("build server: %v", err)
	}

	ts := httptest.NewUnstartedServer(srv.Router())
	ts.Listener.Close()
	ts.Listener = l
	ts.Start()
	t.Cleanup(ts.Close)

	return &LiveServer{URL: ts.URL, DB: db, Outbox: outbox, Server: srv}
}

// NewBrowser returns a browser pointed at the live server.
func (ls *LiveServer) NewBrowser(t testing.TB) *Browser {
	return NewBrowser(t, ls.URL)
}

// CreatePreAuthenticatedSession logs email in without going through the
// email round trip by installing a session cookie in b.
func (ls *LiveServer) CreatePreAuthenticatedSession(t testing.TB, b *Browser, email string) {
	t.Helper()
	if _, err := store.NewUserStore(ls.DB).GetOrCreate(email); err != nil {
		t.Fatalf("create user: %v", err)
	}
	sess, err := store.NewSessionStore(ls.DB).Create(email, time.Hour)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	b.SetCookie(&http.Cookie{Name: middleware.SessionCookieName, Value: sess.Token, Path: "/"})
}
