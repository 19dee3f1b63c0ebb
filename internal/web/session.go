package web

import (
	"net/http"

	"github.com/JonMunkholm/dataforge/internal/core"
)

const healthPath = "/healthz"

// sessionMiddleware resolves the session cookie to a live session, creating
// one when the cookie is absent or expired, and stores the ID in the request
// context. Health checks are left without a session.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == healthPath {
			next.ServeHTTP(w, r)
			return
		}

		var current string
		if c, err := r.Cookie(s.cfg.Session.CookieName); err == nil {
			current = c.Value
		}

		id := s.service.EnsureSession(current)
		if id != current {
			http.SetCookie(w, &http.Cookie{
				Name:     s.cfg.Session.CookieName,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				Secure:   s.cfg.Session.SecureCookie,
				SameSite: http.SameSiteLaxMode,
			})
		}

		next.ServeHTTP(w, r.WithContext(core.ContextWithSessionID(r.Context(), id)))
	})
}

// sessionID returns the session resolved by sessionMiddleware.
func sessionID(r *http.Request) string {
	return core.SessionIDFromContext(r.Context())
}
