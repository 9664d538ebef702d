package api

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"studiodesk/internal/termin"
	"studiodesk/pkg/config"
	"studiodesk/pkg/session"
)

const testSecret = "test-secret"

func okHandler(w http.ResponseWriter, r *http.Request) {
	s := SessionFromContext(r.Context())
	if s == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	_, _ = w.Write([]byte(s.Actor() + ":" + string(s.Role)))
}

func signed(t *testing.T, role session.Role, exp time.Time) string {
	t.Helper()
	tok, err := session.Sign(session.Session{UserID: "u1", Email: "ana@studio.id", Role: role, ExpiresAt: exp}, testSecret, "", time.Now())
	require.NoError(t, err)
	return tok
}

func TestSessionAuth(t *testing.T) {
	prod := config.Config{AppEnv: "prod", Session: config.SessionConfig{Secret: testSecret}}
	dev := config.Config{AppEnv: "dev", Session: config.SessionConfig{Secret: testSecret}}

	tests := []struct {
		name   string
		cfg    config.Config
		header map[string]string
		code   int
		body   string
	}{
		{"valid token", prod, map[string]string{"Authorization": "Bearer " + signed(t, session.RoleStaff, time.Now().Add(time.Hour))}, 200, "ana@studio.id:staff"},
		{"expired token", prod, map[string]string{"Authorization": "Bearer " + signed(t, session.RoleStaff, time.Now().Add(-time.Hour))}, 401, ""},
		{"missing in prod", prod, map[string]string{"X-User-Email": "dev@local", "X-User-Role": "admin"}, 401, ""},
		{"dev headers", dev, map[string]string{"X-User-Email": "dev@local", "X-User-Role": "admin"}, 200, "dev@local:admin"},
		{"dev bad role is viewer", dev, map[string]string{"X-User-Email": "dev@local", "X-User-Role": "root"}, 200, "dev@local:viewer"},
		{"dev nothing", dev, nil, 401, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			for k, v := range tt.header {
				req.Header.Set(k, v)
			}
			rec := httptest.NewRecorder()
			SessionAuth(tt.cfg)(http.HandlerFunc(okHandler)).ServeHTTP(rec, req)
			assert.Equal(t, tt.code, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	h := RequireRole(session.RoleStaff)(http.HandlerFunc(okHandler))

	run := func(s *session.Session) int {
		req := httptest.NewRequest(http.MethodPost, "/", nil)
		if s != nil {
			req = req.WithContext(WithSession(req.Context(), s))
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusUnauthorized, run(nil))
	assert.Equal(t, http.StatusForbidden, run(&session.Session{Email: "v", Role: session.RoleViewer}))
	assert.Equal(t, http.StatusOK, run(&session.Session{Email: "s", Role: session.RoleStaff}))
	assert.Equal(t, http.StatusOK, run(&session.Session{Email: "a", Role: session.RoleAdmin}))
}

func TestRequestLogger(t *testing.T) {
	var seen string
	h := RequestLogger(zap.NewNop())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = RequestIDFromContext(r.Context())
		w.WriteHeader(http.StatusAccepted)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.NotEmpty(t, seen)
	assert.Equal(t, seen, rec.Header().Get(RequestIDHeader))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "abc-123", rec.Header().Get(RequestIDHeader))
}

func TestRecoverer(t *testing.T) {
	h := Recoverer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"INTERNAL"`)
}

func TestCORSMiddleware(t *testing.T) {
	h := CORSMiddleware(CORSOptions{AllowedOrigins: []string{"https://dash.studio.id"}})(http.HandlerFunc(okHandler))

	req := httptest.NewRequest(http.MethodOptions, "/", nil)
	req.Header.Set("Origin", "https://dash.studio.id")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://dash.studio.id", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "600", rec.Header().Get("Access-Control-Max-Age"))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	h := rl.Middleware(http.HandlerFunc(okHandler))

	hit := func(actor string) int {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req = req.WithContext(WithSession(req.Context(), &session.Session{Email: actor, Role: session.RoleViewer}))
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, hit("a"))
	assert.Equal(t, http.StatusOK, hit("a"))
	assert.Equal(t, http.StatusTooManyRequests, hit("a"))
	assert.Equal(t, http.StatusOK, hit("b"), "buckets are per actor")

	rl.now = func() time.Time { return time.Now().Add(time.Hour) }
	assert.Equal(t, 2, rl.Sweep())
}

func TestWriteDomainError(t *testing.T) {
	tests := []struct {
		err  error
		code int
		body string
	}{
		{termin.ValidationError{Code: "CATEGORY_INVALID", Message: "unknown category: x"}, 400, "CATEGORY_INVALID"},
		{fmt.Errorf("remove: %w", termin.ErrMilestoneIndex), 404, "MILESTONE_NOT_FOUND"},
		{fmt.Errorf("get: %w", pgx.ErrNoRows), 404, "NOT_FOUND"},
		{errors.New("db down"), 500, "internal error"},
	}
	for _, tt := range tests {
		rec := httptest.NewRecorder()
		WriteDomainError(rec, httptest.NewRequest(http.MethodGet, "/", nil), true, tt.err)
		assert.Equal(t, tt.code, rec.Code)
		assert.Contains(t, rec.Body.String(), tt.body)
	}
}
