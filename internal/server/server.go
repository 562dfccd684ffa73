package server

import (
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/dukerupert/superlists/internal/config"
	"github.com/dukerupert/superlists/internal/handler"
	"github.com/dukerupert/superlists/internal/middleware"
	"github.com/dukerupert/superlists/internal/store"
	ws "github.com/dukerupert/superlists/internal/websocket"
	"github.com/dukerupert/superlists/web"
)

type Server struct {
	db           *sql.DB
	hub          *ws.Hub
	listH        *handler.ListHandler
	authH        *handler.AuthHandler
	sessionStore *store.SessionStore
	rateLimiter  *middleware.RateLimiter
	trustProxy   bool
	logger       *slog.Logger
}

func New(db *sql.DB, cfg *config.Config, mailer handler.Mailer, logger *slog.Logger) (*Server, error) {
	templates, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("load templates: %w", err)
	}

	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	tokenStore := store.NewTokenStore(db)
	sessionStore := store.NewSessionStore(db)
	listStore := store.NewListStore(db)
	itemStore := store.NewItemStore(db)

	renderer := handler.NewRenderer(templates, logger.With("component", "render"))

	return &Server{
		db:           db,
		hub:          hub,
		listH:        handler.NewListHandler(listStore, itemStore, hub, renderer, logger.With("component", "lists")),
		authH:        handler.NewAuthHandler(tokenStore, userStore, sessionStore, mailer, cfg.Server.BaseURL, cfg.Auth.SessionTTL, logger.With("component", "auth")),
		sessionStore: sessionStore,
		rateLimiter:  middleware.NewRateLimiter(cfg.Auth.LoginEmailLimit, cfg.Auth.LoginEmailWindow),
		trustProxy:   cfg.Server.TrustProxy,
		logger:       logger,
	}, nil
}

// SessionStore returns the session store for cleanup tasks.
func (s *Server) SessionStore() *store.SessionStore {
	return s.sessionStore
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the live update hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	if s.trustProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.RequestLogger(s.logger.With("component", "http")))
	r.Use(chimw.Recoverer)
	r.Use(middleware.LoadSession(s.sessionStore, s.logger.With("component", "session")))

	r.Get("/health", s.healthHandler)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(web.Static()))))

	r.Get("/", s.listH.Home)

	r.Route("/lists", func(r chi.Router) {
		r.Post("/new", s.listH.NewList)
		r.Get("/{id}/", s.listH.ViewList)
		r.Post("/{id}/", s.listH.AddItem)
		r.Post("/{id}/delete", s.listH.DeleteList)
		r.Get("/{id}/items", s.listH.Items)
		r.Get("/{id}/ws", s.listH.Live)
		r.With(middleware.RequireLogin).Get("/users/{email}/", s.listH.MyLists)
	})

	r.Route("/accounts", func(r chi.Router) {
		r.With(middleware.RateLimit(s.rateLimiter)).Post("/send_login_email", s.authH.SendLoginEmail)
		r.Get("/login", s.authH.Login)
		r.Post("/logout", s.authH.Logout)
	})

	return r
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if err := s.db.PingContext(r.Context()); err != nil {
		s.logger.Error("health check", "error", err)
		handler.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	handler.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
