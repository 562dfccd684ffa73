package handler

import (
	"context"
	"log/slog"
	"net/http"
	"net/mail"
	"net/url"
	"strings"
	"time"

	"github.com/dukerupert/superlists/internal/auth"
	"github.com/dukerupert/superlists/internal/middleware"
	"github.com/dukerupert/superlists/internal/store"
)

const (
	msgCheckEmail   = "Check your email, we've sent you a link you can use to log in."
	msgInvalidEmail = "Please enter a valid email address."
	msgSendFailed   = "Sorry, we couldn't send your login email. Please try again."
	msgInvalidLink  = "Invalid login link, please request a new one."
)

// Mailer delivers login links. *email.Client satisfies it.
type Mailer interface {
	Configured() bool
	SendLoginLink(ctx context.Context, to, link string) error
}

type AuthHandler struct {
	tokens     *store.TokenStore
	users      *store.UserStore
	sessions   *store.SessionStore
	backend    *auth.Backend
	mailer     Mailer
	baseURL    string
	sessionTTL time.Duration
	logger     *slog.Logger
}

func NewAuthHandler(
	ts *store.TokenStore,
	us *store.UserStore,
	ss *store.SessionStore,
	mailer Mailer,
	baseURL string,
	sessionTTL time.Duration,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		tokens:     ts,
		users:      us,
		sessions:   ss,
		backend:    auth.NewBackend(ts, us),
		mailer:     mailer,
		baseURL:    strings.TrimRight(baseURL, "/"),
		sessionTTL: sessionTTL,
		logger:     logger,
	}
}

// SendLoginEmail issues a one-time token and mails the login link for it.
func (h *AuthHandler) SendLoginEmail(w http.ResponseWriter, r *http.Request) {
	addr := store.NormalizeEmail(r.FormValue("email"))
	if !validEmail(addr) {
		setFlash(w, "error", msgInvalidEmail)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	tok, err := h.tokens.Create(addr)
	if err != nil {
		h.logger.Error("create token", "error", err)
		http.Error(w, "failed to create login token", http.StatusInternalServerError)
		return
	}
	link := h.loginLink(tok.UID)

	if h.mailer != nil && h.mailer.Configured() {
		if err := h.mailer.SendLoginLink(r.Context(), addr, link); err != nil {
			h.logger.Error("send login email", "email", addr, "error", err)
			setFlash(w, "error", msgSendFailed)
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
	} else {
		h.logger.Info("login link generated", "email", addr, "link", link)
	}

	setFlash(w, "success", msgCheckEmail)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

// Login consumes the token from the emailed link and starts a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	user, err := h.backend.Authenticate(r.URL.Query().Get("token"))
	if err != nil {
		h.logger.Error("authenticate", "error", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}
	if user == nil {
		setFlash(w, "error", msgInvalidLink)
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	sess, err := h.sessions.Create(user.Email, h.sessionTTL)
	if err != nil {
		h.logger.Error("create session", "email", user.Email, "error", err)
		http.Error(w, "login failed", http.StatusInternalServerError)
		return
	}
	if err := h.users.UpdateLastLogin(user.Email, time.Now()); err != nil {
		h.logger.Warn("update last login", "email", user.Email, "error", err)
	}

	middleware.SetSessionCookie(w, sess, strings.HasPrefix(h.baseURL, "https://"))
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if ac, ok := auth.FromContext(r.Context()); ok {
		if err := h.sessions.Delete(ac.SessionID); err != nil {
			h.logger.Error("delete session", "error", err)
		}
	}
	middleware.ClearSessionCookie(w)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *AuthHandler) loginLink(uid string) string {
	return h.baseURL + "/accounts/login?token=" + url.QueryEscape(uid)
}

func validEmail(addr string) bool {
	if addr == "" {
		return false
	}
	parsed, err := mail.ParseAddress(addr)
	return err == nil && parsed.Address == addr
}
