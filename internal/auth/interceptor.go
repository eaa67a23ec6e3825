package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jimikki-app/backend/internal/logging"
)

// Gate verifies the session cookie on every non-public request.
type Gate struct {
	codec       *SessionCodec
	log         logging.Logger
	debugErrors bool
}

// NewGate creates a Gate. With debugErrors set, unexpected failures during
// verification answer 500 with the failure text instead of 401.
func NewGate(codec *SessionCodec, log logging.Logger, debugErrors bool) *Gate {
	return &Gate{codec: codec, log: log.With("component", "auth"), debugErrors: debugErrors}
}

// Middleware wraps next with session verification.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Skip auth for health checks and the login flow
		if isPublicEndpoint(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := g.verify(r)
		if err != nil {
			g.log.Error(r.Context(), "session verification failed", "path", r.URL.Path, "error", err)
			if g.debugErrors {
				http.Error(w, "auth error: "+err.Error(), http.StatusInternalServerError)
				return
			}
			writeUnauthenticated(w)
			return
		}
		if claims == nil {
			writeUnauthenticated(w)
			return
		}

		next.ServeHTTP(w, r.WithContext(withUserClaims(r.Context(), claims)))
	})
}

// verify resolves the session cookie. A nil result with a nil error means the
// request is simply unauthenticated.
func (g *Gate) verify(r *http.Request) (claims *UserClaims, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			claims, err = nil, fmt.Errorf("panic: %v", rec)
		}
	}()

	cookie, cerr := r.Cookie(SessionCookieName)
	if cerr != nil || cookie.Value == "" {
		return nil, nil
	}
	email, ok := g.codec.Verify(cookie.Value)
	if !ok {
		return nil, nil
	}
	return &UserClaims{Email: email}, nil
}

// isPublicEndpoint checks if a path should be accessible without authentication
func isPublicEndpoint(path string) bool {
	if path == "/health" {
		return true
	}

	publicPrefixes := []string{
		"/api/auth/",
		"/health/",
	}

	for _, prefix := range publicPrefixes {
		if strings.HasPrefix(path, prefix) {
			return true
		}
	}

	return false
}

func writeUnauthenticated(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthenticated"})
}

// ContextWithEmail attaches a verified email to ctx. Intended for tests and
// maintenance tools that act on behalf of a known user.
func ContextWithEmail(ctx context.Context, email string) context.Context {
	return withUserClaims(ctx, &UserClaims{Email: email})
}
