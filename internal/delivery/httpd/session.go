package httpd

import (
	"context"
	"net/http"
	"strings"

	"github.com/RubachokBoss/edusmart-portal/internal/models"
)

type sessionKey struct{}

func withSession(ctx context.Context, sess *models.Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, sess)
}

func SessionFromContext(ctx context.Context) (*models.Session, bool) {
	sess, ok := ctx.Value(sessionKey{}).(*models.Session)
	return sess, ok && sess != nil
}

// sessionID reads the session id from the configured header, falling back
// to an Authorization bearer value.
func (h *Handler) sessionID(r *http.Request) string {
	if id := strings.TrimSpace(r.Header.Get(h.sessionHeader)); id != "" {
		return id
	}
	auth := r.Header.Get("Authorization")
	if len(auth) > 7 && strings.EqualFold(auth[:7], "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	return ""
}

// RequireSession loads the caller's session or answers 401 with a redirect
// to the login page.
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, err := h.sessions.Get(h.sessionID(r))
		if err != nil {
			writeJSON(w, http.StatusUnauthorized, map[string]interface{}{
				"error":    http.StatusText(http.StatusUnauthorized),
				"message":  "Please sign in",
				"redirect": loginPath,
			})
			return
		}

		next.ServeHTTP(w, r.WithContext(withSession(r.Context(), sess)))
	})
}

// RequireRole lets the request through only when the session user holds
// one of roles.
func (h *Handler) RequireRole(roles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sess, ok := SessionFromContext(r.Context())
			if !ok || !sess.User.HasRole(roles...) {
				writeError(w, http.StatusForbidden, "You are not allowed to do this")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
