package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"studiodesk/pkg/config"
	"studiodesk/pkg/session"
)

// SessionAuth verifies the dashboard's bearer token and attaches the session to the context.
//
// Outside prod, a request without Authorization may identify itself with
// `X-User-Email` and `X-User-Role` so local tooling works without an identity provider.
func SessionAuth(cfg config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authz := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(authz), "bearer ") {
				token := strings.TrimSpace(authz[7:])
				s, err := session.Verify(token, cfg.Session.Secret, cfg.Session.Issuer, time.Now())
				if err != nil {
					LoggerFromContext(r.Context()).Info("session rejected", zap.Error(err))
					WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid session token")
					return
				}
				next.ServeHTTP(w, r.WithContext(withSessionLogger(r, s)))
				return
			}

			// Dev fallback
			if !cfg.Prod() {
				if s, ok := devSession(r); ok {
					next.ServeHTTP(w, r.WithContext(withSessionLogger(r, s)))
					return
				}
			}

			WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session token")
		})
	}
}

func devSession(r *http.Request) (*session.Session, bool) {
	email := strings.TrimSpace(r.Header.Get("X-User-Email"))
	if email == "" {
		return nil, false
	}
	role, err := session.ParseRole(r.Header.Get("X-User-Role"))
	if err != nil {
		role = session.RoleViewer
	}
	return &session.Session{UserID: email, Email: email, Role: role}, true
}

func withSessionLogger(r *http.Request, s *session.Session) context.Context {
	ctx := WithSession(r.Context(), s)
	l := LoggerFromContext(ctx).With(zap.String("actor", s.Actor()), zap.String("role", string(s.Role)))
	return WithLogger(ctx, l)
}

// RequireRole rejects callers whose role ranks below min. It must run after SessionAuth.
func RequireRole(min session.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			s := SessionFromContext(r.Context())
			if s == nil {
				WriteError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing session")
				return
			}
			if !s.Role.AtLeast(min) {
				WriteError(w, http.StatusForbidden, "FORBIDDEN", "insufficient role")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Actor is the audit identity of the caller, or "system" when unauthenticated.
func Actor(r *http.Request) string {
	if s := SessionFromContext(r.Context()); s != nil {
		return s.Actor()
	}
	return "system"
}
