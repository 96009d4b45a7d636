// Package nonce issues short-lived form tokens bound to an action and an actor.
package nonce

import (
	"errors"
	"strings"
	"time"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

const actionClaim = "act"

// Issuer signs and verifies nonces.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer returns an issuer using secret; ttl defaults to 24h.
func NewIssuer(secret string, ttl time.Duration) (*Issuer, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("nonce: secret is required")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

// WithNow overrides the clock.
func (i *Issuer) WithNow(now func() time.Time) {
	if now != nil {
		i.now = now
	}
}

// Issue returns a nonce valid for action when presented by actor.
func (i *Issuer) Issue(action, actor string) (string, error) {
	now := i.now()
	tok, err := jwt.NewBuilder().
		Subject(actor).
		IssuedAt(now).
		Expiration(now.Add(i.ttl)).
		Claim(actionClaim, action).
		Build()
	if err != nil {
		return "", err
	}
	signed, err := jwt.Sign(tok, jwt.WithKey(jwa.HS256, i.secret))
	if err != nil {
		return "", err
	}
	return string(signed), nil
}

// Verify reports whether token is an unexpired nonce for action and actor.
func (i *Issuer) Verify(token, action, actor string) bool {
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}
	tok, err := jwt.ParseString(token,
		jwt.WithKey(jwa.HS256, i.secret),
		jwt.WithClock(jwt.ClockFunc(i.now)),
		jwt.WithSubject(actor),
		jwt.WithClaimValue(actionClaim, action),
	)
	return err == nil && tok != nil
}
