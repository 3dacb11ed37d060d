package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
)

const (
	sessionHeader = "X-Session-Id"
	sessionCookie = "shopstack_session"
)

// GuestSession attaches a stable anonymous session identifier to every
// request so guests can hold a cart before logging in. Clients may pin their
// own identifier via the X-Session-Id header; otherwise a cookie is minted.
func GuestSession() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID := strings.TrimSpace(r.Header.Get(sessionHeader))
			if sessionID == "" {
				if cookie, err := r.Cookie(sessionCookie); err == nil {
					sessionID = strings.TrimSpace(cookie.Value)
				}
			}
			if _, err := uuid.Parse(sessionID); err != nil {
				sessionID = ""
			}

			if sessionID == "" {
				sessionID = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     sessionCookie,
					Value:    sessionID,
					Path:     "/",
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}
			w.Header().Set(sessionHeader, sessionID)

			next.ServeHTTP(w, r.WithContext(WithSessionID(r.Context(), sessionID)))
		})
	}
}
