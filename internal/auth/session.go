package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// SessionCookieName is the cookie carrying the signed session token.
const SessionCookieName = "jimikki_session"

// DefaultSessionTTL is the lifetime of a session minted at login.
const DefaultSessionTTL = 30 * 24 * time.Hour

type sessionPayload struct {
	Email string `json:"email"`
	// Exp is a unix timestamp in milliseconds.
	Exp int64 `json:"exp"`
}

// SessionCodec signs and verifies session tokens of the form
// base64(json{email,exp}) + "." + base64(HMAC-SHA256(secret, payload)).
type SessionCodec struct {
	secret []byte
	now    func() time.Time
}

// NewSessionCodec creates a codec signing with secret.
func NewSessionCodec(secret string) *SessionCodec {
	return &SessionCodec{secret: []byte(secret), now: time.Now}
}

// Issue mints a token for email valid for ttl.
func (c *SessionCodec) Issue(email string, ttl time.Duration) (string, error) {
	if email == "" {
		return "", errors.New("session email is required")
	}
	raw, err := json.Marshal(sessionPayload{
		Email: email,
		Exp:   c.now().Add(ttl).UnixMilli(),
	})
	if err != nil {
		return "", err
	}
	payload := base64.StdEncoding.EncodeToString(raw)
	return payload + "." + c.sign(payload), nil
}

// Verify returns the email asserted by token, or false when the token is
// malformed, forged or expired.
func (c *SessionCodec) Verify(token string) (string, bool) {
	idx := strings.LastIndex(token, ".")
	if idx <= 0 || idx == len(token)-1 {
		return "", false
	}
	payload, sig := token[:idx], token[idx+1:]

	if !hmac.Equal([]byte(sig), []byte(c.sign(payload))) {
		return "", false
	}

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", false
	}
	var p sessionPayload
	if err := json.Unmarshal(raw, &p); err != nil {
		return "", false
	}
	if p.Email == "" || c.now().UnixMilli() > p.Exp {
		return "", false
	}
	return p.Email, true
}

func (c *SessionCodec) sign(payload string) string {
	mac := hmac.New(sha256.New, c.secret)
	mac.Write([]byte(payload))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
