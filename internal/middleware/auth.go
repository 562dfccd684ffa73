package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/superlists/internal/auth"
	"github.com/dukerupert/superlists/internal/model"
)

const SessionCookieName = "superlists_session"

type SessionGetter interface {
	GetByToken(token string) (*model.Session, error)
}

// LoadSession attaches the AuthContext for a valid session cookie. Requests
// without one continue anonymously.
func LoadSession(sessions SessionGetter, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(SessionCookieName)
			if err != nil || cookie.Value == "" {
				next.ServeHTTP(w, r)
				return
			}

			sess, err := sessions.GetByToken(cookie.Value)
			if err != nil {
				logger.Error("load session", "error", err)
				next.ServeHTTP(w, r)
				return
			}
			if sess == nil {
				ClearSessionCookie(w)
				next.ServeHTTP(w, r)
				return
			}

			ctx := auth.WithAuth(r.Context(), auth.AuthContext{
				Email:     sess.Email,
				SessionID: sess.ID,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireLogin sends anonymous visitors back to the home page.
func RequireLogin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsAuthenticated(r.Context()) {
			http.Redirect(w, r, "/", http.StatusSeeOther)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func SetSessionCookie(w http.ResponseWriter, sess *model.Session, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}
