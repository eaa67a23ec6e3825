package service

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/jimikki-app/backend/internal/auth"
)

const testEmail = "user@example.com"

// testContextWithUser creates a context with an authenticated email for testing
func testContextWithUser(email string) context.Context {
	return auth.WithUserClaims(context.Background(), &auth.UserClaims{Email: email})
}

// newAuthedRequest builds a request already carrying the user's identity, as
// the session gate would leave it.
func newAuthedRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	return req.WithContext(testContextWithUser(testEmail))
}
