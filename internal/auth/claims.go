package auth

import (
	"context"
	"errors"
)

// ErrUnauthenticated is returned when a request carries no verified identity.
var ErrUnauthenticated = errors.New("user not authenticated")

// UserClaims is the identity attached to an authenticated request.
type UserClaims struct {
	Email       string
	DisplayName string
	LocalDev    bool
}

// Context keys
type contextKey string

const userClaimsKey contextKey = "user_claims"

// withUserClaims adds user claims to the context
func withUserClaims(ctx context.Context, claims *UserClaims) context.Context {
	return context.WithValue(ctx, userClaimsKey, claims)
}

// WithUserClaims is the exported version for testing purposes
func WithUserClaims(ctx context.Context, claims *UserClaims) context.Context {
	return withUserClaims(ctx, claims)
}

// GetUserClaims extracts user claims from context
func GetUserClaims(ctx context.Context) (*UserClaims, bool) {
	claims, ok := ctx.Value(userClaimsKey).(*UserClaims)
	return claims, ok && claims != nil
}

// GetUserEmail is a convenience function to get the user email from context
func GetUserEmail(ctx context.Context) (string, bool) {
	if claims, ok := GetUserClaims(ctx); ok && claims.Email != "" {
		return claims.Email, true
	}
	return "", false
}

// RequireAuth extracts the user email from context or returns ErrUnauthenticated
func RequireAuth(ctx context.Context) (string, error) {
	email, ok := GetUserEmail(ctx)
	if !ok {
		return "", ErrUnauthenticated
	}
	return email, nil
}
