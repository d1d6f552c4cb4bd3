// Package identity verifies bearer tokens issued by the marketplace's
// authentication provider and extracts the caller's subject.
package identity

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cristalhq/jwt/v4"
)

var (
	// ErrMissingToken is returned when no bearer token accompanies a request.
	ErrMissingToken = errors.New("identity: missing bearer token")
	// ErrInvalidToken is returned for malformed, unsigned or mis-signed tokens.
	ErrInvalidToken = errors.New("identity: invalid token")
	// ErrExpiredToken is returned when the token lies outside its validity window.
	ErrExpiredToken = errors.New("identity: token expired")
)

// Claims are the token claims the marketplace reads.
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
}

// Options tunes token verification.
type Options struct {
	Issuer   string
	Audience string
	Leeway   time.Duration
	Now      func() time.Time
}

// Verifier checks HS256 signatures and registered claims.
type Verifier struct {
	verifier jwt.Verifier
	issuer   string
	audience string
	leeway   time.Duration
	now      func() time.Time
}

// NewVerifier builds a verifier for tokens signed with secret.
func NewVerifier(secret []byte, opts Options) (*Verifier, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("identity: empty signing secret")
	}
	verifier, err := jwt.NewVerifierHS(jwt.HS256, secret)
	if err != nil {
		return nil, fmt.Errorf("identity: build verifier: %w", err)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &Verifier{
		verifier: verifier,
		issuer:   opts.Issuer,
		audience: opts.Audience,
		leeway:   opts.Leeway,
		now:      now,
	}, nil
}

// Verify parses raw, checks its signature and validity window, and returns
// its claims. A token without a subject is rejected.
func (v *Verifier) Verify(raw string) (Claims, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Claims{}, ErrMissingToken
	}

	var claims Claims
	if err := jwt.ParseClaims([]byte(raw), v.verifier, &claims); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	now := v.now()
	if claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Add(v.leeway)) {
		return Claims{}, ErrExpiredToken
	}
	if claims.NotBefore != nil && now.Add(v.leeway).Before(claims.NotBefore.Time) {
		return Claims{}, ErrExpiredToken
	}
	if v.issuer != "" && claims.Issuer != v.issuer {
		return Claims{}, fmt.Errorf("%w: unexpected issuer %q", ErrInvalidToken, claims.Issuer)
	}
	if v.audience != "" && !claims.IsForAudience(v.audience) {
		return Claims{}, fmt.Errorf("%w: audience mismatch", ErrInvalidToken)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Claims{}, fmt.Errorf("%w: missing subject", ErrInvalidToken)
	}
	return claims, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" || strings.EqualFold(header, "Bearer") {
		return "", ErrMissingToken
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", fmt.Errorf("%w: expected bearer scheme", ErrInvalidToken)
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
