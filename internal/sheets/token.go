package sheets

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
)

// Scopes granted to the service-account token.
var Scopes = []string{
	"https://www.googleapis.com/auth/spreadsheets",
	"https://www.googleapis.com/auth/drive",
}

const tokenLifetime = time.Hour

var ErrNoCredentials = errors.New("no service account credentials configured")

// Credentials identify the service account. JSON takes precedence over the
// Email and Key pair.
type Credentials struct {
	JSON  string
	Email string
	Key   string

	// TokenURL overrides the Google token endpoint.
	TokenURL string
}

// Configured reports whether any credentials are present.
func (c Credentials) Configured() bool {
	return c.JSON != "" || (c.Email != "" && c.Key != "")
}

// JWTConfig builds the RS256 assertion config for the service account.
func (c Credentials) JWTConfig() (*jwt.Config, error) {
	var cfg *jwt.Config
	switch {
	case c.JSON != "":
		parsed, err := google.JWTConfigFromJSON([]byte(c.JSON), Scopes...)
		if err != nil {
			return nil, fmt.Errorf("parse service account json: %w", err)
		}
		cfg = parsed
	case c.Email != "" && c.Key != "":
		cfg = &jwt.Config{
			Email:      c.Email,
			PrivateKey: []byte(normalizeKey(c.Key)),
			Scopes:     Scopes,
			TokenURL:   google.JWTTokenURL,
		}
	default:
		return nil, ErrNoCredentials
	}

	cfg.Expires = tokenLifetime
	if c.TokenURL != "" {
		cfg.TokenURL = c.TokenURL
	}
	return cfg, nil
}

// MintToken exchanges a freshly signed assertion for an access token.
func (c Credentials) MintToken(ctx context.Context) (*oauth2.Token, error) {
	cfg, err := c.JWTConfig()
	if err != nil {
		return nil, err
	}
	tok, err := cfg.TokenSource(ctx).Token()
	if err != nil {
		return nil, fmt.Errorf("exchange service account assertion: %w", err)
	}
	return tok, nil
}

// normalizeKey turns escaped "\n" sequences from environment variables back
// into newlines so the PEM block parses.
func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.TrimSpace(key), `\n`, "\n")
}
