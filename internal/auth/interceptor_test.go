package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimikki-app/backend/internal/logging"
)

// echoEmail writes the authenticated email, or "anonymous".
var echoEmail = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	email, ok := GetUserEmail(r.Context())
	if !ok {
		email = "anonymous"
	}
	_, _ = w.Write([]byte(email))
})

func TestGate_Middleware(t *testing.T) {
	codec := NewSessionCodec("test-secret")
	valid, err := codec.Issue("user@example.com", time.Hour)
	require.NoError(t, err)
	expired, err := codec.Issue("user@example.com", -time.Minute)
	require.NoError(t, err)

	gate := NewGate(codec, logging.Nop(), false)
	handler := gate.Middleware(echoEmail)

	tests := []struct {
		name       string
		path       string
		cookie     string
		wantStatus int
		wantBody   string
	}{
		{"valid session", "/api/data", valid, http.StatusOK, "user@example.com"},
		{"no cookie", "/api/data", "", http.StatusUnauthorized, `{"error":"unauthenticated"}`},
		{"expired session", "/api/chat", expired, http.StatusUnauthorized, `{"error":"unauthenticated"}`},
		{"forged session", "/api/data", valid + "x", http.StatusUnauthorized, `{"error":"unauthenticated"}`},
		{"auth routes are public", "/api/auth/login", "", http.StatusOK, "anonymous"},
		{"health is public", "/health", "", http.StatusOK, "anonymous"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: tt.cookie})
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusUnauthorized {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
				assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			} else {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestGate_PanicDuringVerification(t *testing.T) {
	// A nil codec panics inside verification.
	req := func() *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/api/data", nil)
		r.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "a.b"})
		return r
	}

	t.Run("answers 401 by default", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewGate(nil, logging.Nop(), false).Middleware(echoEmail).ServeHTTP(rec, req())
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NotContains(t, rec.Body.String(), "panic")
	})

	t.Run("answers 500 with detail in debug mode", func(t *testing.T) {
		rec := httptest.NewRecorder()
		NewGate(nil, logging.Nop(), true).Middleware(echoEmail).ServeHTTP(rec, req())
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Contains(t, rec.Body.String(), "auth error")
	})
}

func TestLocalDevMiddleware(t *testing.T) {
	handler := LocalDevMiddleware(echoEmail)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/data", nil))
	assert.Equal(t, LocalDevEmail, rec.Body.String())

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, "anonymous", rec.Body.String())
}

func TestContextUserClaims(t *testing.T) {
	t.Run("WithUserClaims adds claims to context", func(t *testing.T) {
		claims := &UserClaims{Email: "test@example.com", DisplayName: "Test User"}

		retrieved, ok := GetUserClaims(WithUserClaims(context.Background(), claims))
		require.True(t, ok)
		assert.Equal(t, claims, retrieved)
	})

	t.Run("GetUserClaims returns false for empty context", func(t *testing.T) {
		claims, ok := GetUserClaims(context.Background())
		assert.False(t, ok)
		assert.Nil(t, claims)
	})

	t.Run("RequireAuth returns email when present", func(t *testing.T) {
		email, err := RequireAuth(ContextWithEmail(context.Background(), "user@example.com"))
		require.NoError(t, err)
		assert.Equal(t, "user@example.com", email)
	})

	t.Run("RequireAuth fails without claims", func(t *testing.T) {
		email, err := RequireAuth(context.Background())
		assert.ErrorIs(t, err, ErrUnauthenticated)
		assert.Empty(t, email)
	})
}

func TestIsPublicEndpoint(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected bool
	}{
		{"health endpoint", "/health", true},
		{"health subpath", "/health/ready", true},
		{"health lookalike", "/healthz", false},
		{"health prefix with suffix", "/health-anything", false},
		{"login", "/api/auth/login", true},
		{"callback", "/api/auth/callback", true},
		{"data endpoint", "/api/data", false},
		{"chat endpoint", "/api/chat", false},
		{"auth prefix without slash", "/api/authx", false},
		{"empty path", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, isPublicEndpoint(tt.path))
		})
	}
}
