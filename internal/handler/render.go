package handler

import (
	"encoding/json"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/dukerupert/superlists/internal/auth"
)

const flashCookieName = "superlists_flash"

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Level   string
	Message string
}

// Renderer executes page templates inside the shared layout.
type Renderer struct {
	templates map[string]*template.Template
	logger    *slog.Logger
}

func NewRenderer(tmpl map[string]*template.Template, logger *slog.Logger) *Renderer {
	return &Renderer{templates: tmpl, logger: logger}
}

// Page renders name with the logged-in user and any pending flash message
// added to data.
func (rn *Renderer) Page(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["User"] = auth.Email(r.Context())
	if f := popFlash(w, r); f != nil {
		data["Flash"] = f
	}

	tmpl, ok := rn.templates[name]
	if !ok {
		rn.logger.Error("template not found", "name", name)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := tmpl.ExecuteTemplate(w, "layout.html", data); err != nil {
		rn.logger.Error("template render", "name", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
	}
}

func setFlash(w http.ResponseWriter, level, msg string) {
	v := url.Values{}
	v.Set("level", level)
	v.Set("msg", msg)
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    v.Encode(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func popFlash(w http.ResponseWriter, r *http.Request) *Flash {
	cookie, err := r.Cookie(flashCookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})

	v, err := url.ParseQuery(cookie.Value)
	if err != nil || v.Get("msg") == "" {
		return nil
	}
	return &Flash{Level: v.Get("level"), Message: v.Get("msg")}
}

// WriteJSON encodes v as the JSON response body.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
