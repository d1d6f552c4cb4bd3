package testfixtures

import (
	"testing"
	"time"

	"github.com/cristalhq/jwt/v4"
)

// TokenSecret signs every token produced by TokenSigner.
const TokenSecret = "test-signing-secret"

// TokenSigner issues HS256 tokens for tests.
type TokenSigner struct {
	builder *jwt.Builder
	tb      testing.TB
}

// NewTokenSigner builds a signer keyed with TokenSecret.
func NewTokenSigner(tb testing.TB) *TokenSigner {
	tb.Helper()
	signer, err := jwt.NewSignerHS(jwt.HS256, []byte(TokenSecret))
	if err != nil {
		tb.Fatalf("failed to build signer: %v", err)
	}
	return &TokenSigner{builder: jwt.NewBuilder(signer), tb: tb}
}

// Sign issues a token for subject with role that expires after ttl from now.
// A zero ttl omits the expiry claim.
func (s *TokenSigner) Sign(subject, role string, now time.Time, ttl time.Duration) string {
	s.tb.Helper()

	claims := struct {
		jwt.RegisteredClaims
		Role string `json:"role,omitempty"`
	}{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:  subject,
			IssuedAt: jwt.NewNumericDate(now),
		},
		Role: role,
	}
	if ttl != 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}

	token, err := s.builder.Build(claims)
	if err != nil {
		s.tb.Fatalf("failed to sign token: %v", err)
	}
	return token.String()
}
