package auth

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	"github.com/jimikki-app/backend/internal/logging"
)

// StateCookieName carries the anti-forgery state between login and callback.
const StateCookieName = "jimikki_oauth_state"

const stateTTL = 10 * time.Minute

// Redirect error variants appended as ?error= to the application root.
const (
	ErrorAuthFailed  = "auth_failed"
	ErrorNoEmail     = "no_email"
	ErrorServerError = "server_error"
)

var errNoEmail = errors.New("id token has no email claim")

// OAuthConfig configures the Google sign-in flow.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	AppURL       string
	SessionTTL   time.Duration
	DebugErrors  bool

	// Endpoint overrides the Google endpoints; zero means google.Endpoint.
	Endpoint oauth2.Endpoint
}

// OAuthBridge turns a Google authorization code into a session cookie.
type OAuthBridge struct {
	oauth       *oauth2.Config
	codec       *SessionCodec
	appURL      string
	ttl         time.Duration
	debugErrors bool
	log         logging.Logger
}

// NewOAuthBridge creates the login, callback and logout handlers.
func NewOAuthBridge(cfg OAuthConfig, codec *SessionCodec, log logging.Logger) *OAuthBridge {
	endpoint := cfg.Endpoint
	if endpoint.TokenURL == "" {
		endpoint = google.Endpoint
	}
	// The token exchange posts client_id and client_secret in the form body.
	endpoint.AuthStyle = oauth2.AuthStyleInParams

	ttl := cfg.SessionTTL
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}

	return &OAuthBridge{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     endpoint,
		},
		codec:       codec,
		appURL:      strings.TrimRight(cfg.AppURL, "/"),
		ttl:         ttl,
		debugErrors: cfg.DebugErrors,
		log:         log.With("component", "auth"),
	}
}

// Register mounts the auth routes on mux.
func (b *OAuthBridge) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/auth/login", b.Login)
	mux.HandleFunc("GET /api/auth/callback", b.Callback)
	mux.HandleFunc("GET /api/auth/logout", b.Logout)
}

// Login redirects to the Google account chooser.
func (b *OAuthBridge) Login(w http.ResponseWriter, r *http.Request) {
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     StateCookieName,
		Value:    state,
		Path:     "/api/auth",
		MaxAge:   int(stateTTL.Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	})

	target := b.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("prompt", "select_account"))
	http.Redirect(w, r, target, http.StatusFound)
}

// Callback exchanges the authorization code and sets the session cookie.
func (b *OAuthBridge) Callback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	if e := q.Get("error"); e != "" {
		b.fail(w, r, ErrorAuthFailed, fmt.Errorf("provider returned error %q", e))
		return
	}
	code := q.Get("code")
	if code == "" {
		b.fail(w, r, ErrorAuthFailed, errors.New("missing authorization code"))
		return
	}
	if !b.stateMatches(r, q.Get("state")) {
		b.fail(w, r, ErrorAuthFailed, errors.New("oauth state mismatch"))
		return
	}

	tok, err := b.oauth.Exchange(ctx, code)
	if err != nil {
		b.fail(w, r, ErrorServerError, fmt.Errorf("exchange code: %w", err))
		return
	}
	idToken, _ := tok.Extra("id_token").(string)
	if idToken == "" {
		b.fail(w, r, ErrorAuthFailed, errors.New("token response has no id_token"))
		return
	}

	email, err := emailFromIDToken(idToken)
	if errors.Is(err, errNoEmail) {
		b.fail(w, r, ErrorNoEmail, err)
		return
	}
	if err != nil {
		b.fail(w, r, ErrorAuthFailed, err)
		return
	}

	session, err := b.codec.Issue(email, b.ttl)
	if err != nil {
		b.fail(w, r, ErrorServerError, fmt.Errorf("issue session: %w", err))
		return
	}

	http.SetCookie(w, b.sessionCookie(session, int(b.ttl.Seconds())))
	http.SetCookie(w, &http.Cookie{Name: StateCookieName, Path: "/api/auth", MaxAge: -1})
	b.log.Info(ctx, "user signed in", "email", email)
	http.Redirect(w, r, b.appURL+"/", http.StatusFound)
}

// Logout clears the session cookie and returns to the application root.
func (b *OAuthBridge) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, b.sessionCookie("", -1))
	http.Redirect(w, r, b.appURL+"/", http.StatusFound)
}

func (b *OAuthBridge) sessionCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
	}
}

func (b *OAuthBridge) stateMatches(r *http.Request, state string) bool {
	c, err := r.Cookie(StateCookieName)
	if err != nil || c.Value == "" || state == "" {
		return false
	}
	return c.Value == state
}

// fail never surfaces a raw error to the browser unless debug errors are on.
func (b *OAuthBridge) fail(w http.ResponseWriter, r *http.Request, variant string, err error) {
	b.log.Warn(r.Context(), "oauth callback failed", "variant", variant, "error", err)
	if b.debugErrors {
		http.Error(w, variant+": "+err.Error(), http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, b.appURL+"/?error="+url.QueryEscape(variant), http.StatusFound)
}

// emailFromIDToken reads the email claim from the token payload. The token
// arrives directly from the provider over TLS, so its signature is not
// checked again here.
func emailFromIDToken(idToken string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(idToken, claims); err != nil {
		return "", fmt.Errorf("decode id token: %w", err)
	}
	email, _ := claims["email"].(string)
	if email == "" {
		return "", errNoEmail
	}
	return email, nil
}
