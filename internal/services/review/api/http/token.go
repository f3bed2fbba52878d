package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Angad-23/paper-checker/internal/platform/errors"
	"github.com/Angad-23/paper-checker/internal/services/review/domain"
)

// actorClaims is the token payload identifying one caller.
type actorClaims struct {
	Role string `json:"role"`
	Name string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// TokenAuthenticator verifies bearer tokens and maps them to actors.
type TokenAuthenticator struct {
	secret []byte
	clock  func() time.Time
}

// NewTokenAuthenticator builds an authenticator around a shared HMAC secret.
func NewTokenAuthenticator(secret string) (*TokenAuthenticator, error) {
	if strings.TrimSpace(secret) == "" {
		return nil, fmt.Errorf("token secret is required")
	}
	return &TokenAuthenticator{secret: []byte(secret), clock: time.Now}, nil
}

// WithClock overrides the authenticator clock. Intended for tests.
func (a *TokenAuthenticator) WithClock(clock func() time.Time) *TokenAuthenticator {
	a.clock = clock
	return a
}

// Issue mints a signed token for one actor, valid for ttl.
func (a *TokenAuthenticator) Issue(actor domain.Actor, ttl time.Duration) (string, error) {
	if actor.ID == "" || !actor.Role.Valid() {
		return "", fmt.Errorf("actor id and role are required")
	}
	now := a.clock().UTC()
	claims := actorClaims{
		Role: string(actor.Role),
		Name: actor.DisplayName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   actor.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(a.secret)
}

// ActorFromRequest resolves the acting user from the Authorization header.
func (a *TokenAuthenticator) ActorFromRequest(r *http.Request) (domain.Actor, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return domain.Actor{}, errors.New(errors.CodeTokenInvalid, "missing bearer token")
	}
	return a.actorFromToken(strings.TrimSpace(token))
}

func (a *TokenAuthenticator) actorFromToken(token string) (domain.Actor, error) {
	claims := &actorClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return a.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return a.clock().UTC() }))
	if err != nil {
		return domain.Actor{}, errors.Wrap(errors.CodeTokenInvalid, "parse bearer token", err)
	}
	if !parsed.Valid {
		return domain.Actor{}, errors.New(errors.CodeTokenInvalid, "bearer token is not valid")
	}

	role, ok := domain.ParseRole(claims.Role)
	if !ok {
		return domain.Actor{}, errors.New(errors.CodeTokenInvalid, "bearer token role is not recognized")
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return domain.Actor{}, errors.New(errors.CodeTokenInvalid, "bearer token has no subject")
	}

	return domain.Actor{ID: claims.Subject, Role: role, DisplayName: claims.Name}, nil
}
