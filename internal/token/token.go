// Package token issues and resolves short-lived launch tokens that carry the
// assistant and thread a chat UI should open.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/xiaot623/gogo/chatgate/internal/domain"
)

const (
	DefaultTTL   = 10 * time.Minute
	DefaultTitle = "AI Assistant"
)

// ErrNoSecret is returned when no signing secret is configured.
var ErrNoSecret = errors.New("token signing secret is not configured")

type claims struct {
	domain.LaunchClaims
	jwt.RegisteredClaims
}

// Issuer signs and verifies HS256 launch tokens.
type Issuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewIssuer creates an issuer. A non-positive ttl selects DefaultTTL.
func NewIssuer(secret string, ttl time.Duration) *Issuer {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Issuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue signs a token for the given launch claims. An empty title becomes
// DefaultTitle.
func (i *Issuer) Issue(c domain.LaunchClaims) (string, error) {
	if len(i.secret) == 0 {
		return "", ErrNoSecret
	}
	if strings.TrimSpace(c.AssistantID) == "" || strings.TrimSpace(c.ThreadID) == "" {
		return "", &domain.ValidationError{Message: "missing assistant_id or thread_id"}
	}
	if strings.TrimSpace(c.Title) == "" {
		c.Title = DefaultTitle
	}

	now := i.now()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		LaunchClaims: c,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(i.ttl)),
		},
	})
	signed, err := tok.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Resolve verifies a token and returns its claims.
func (i *Issuer) Resolve(raw string) (domain.LaunchClaims, error) {
	if len(i.secret) == 0 {
		return domain.LaunchClaims{}, ErrNoSecret
	}
	if strings.TrimSpace(raw) == "" {
		return domain.LaunchClaims{}, &domain.ValidationError{Field: "token", Message: "missing token"}
	}

	var parsed claims
	_, err := jwt.ParseWithClaims(raw, &parsed, func(t *jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		return domain.LaunchClaims{}, &domain.AuthorizationError{Message: "invalid token", Unauthenticated: true}
	}

	if parsed.AssistantID == "" || parsed.ThreadID == "" {
		return domain.LaunchClaims{}, &domain.ValidationError{Message: "token payload is missing ids"}
	}
	if parsed.Title == "" {
		parsed.Title = DefaultTitle
	}
	return parsed.LaunchClaims, nil
}
