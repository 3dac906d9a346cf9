package auth

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// DefaultTokenLifetime bounds how long an issued token is accepted.
const DefaultTokenLifetime = 12 * time.Hour

var (
	ErrNoSecret       = errors.New("no secret configured")
	ErrActionMismatch = errors.New("token issued for another action")
	ErrTokenReplayed  = errors.New("token already used")
)

// Claims are the claims of an anti-replay token.
type Claims struct {
	jwt.RegisteredClaims
	Action string `json:"act"`
}

// Tokens issues and verifies time-bound HMAC signed tokens bound to one
// action. In single-use mode every token is accepted once.
type Tokens struct {
	secret    []byte
	lifetime  time.Duration
	singleUse bool
	now       func() time.Time

	mu   sync.Mutex
	used map[string]time.Time
}

type TokenOption func(*Tokens)

// WithLifetime overrides DefaultTokenLifetime. Non-positive values are ignored.
func WithLifetime(lifetime time.Duration) TokenOption {
	return func(t *Tokens) {
		if lifetime > 0 {
			t.lifetime = lifetime
		}
	}
}

// WithSingleUse remembers consumed token ids until they expire.
func WithSingleUse() TokenOption {
	return func(t *Tokens) {
		t.singleUse = true
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) TokenOption {
	return func(t *Tokens) {
		if now != nil {
			t.now = now
		}
	}
}

func NewTokens(secret []byte, opts ...TokenOption) (*Tokens, error) {
	if len(secret) == 0 {
		return nil, ErrNoSecret
	}

	t := &Tokens{
		secret:   secret,
		lifetime: DefaultTokenLifetime,
		now:      time.Now,
		used:     make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(t)
	}

	return t, nil
}

// Issue signs a token allowing subject to perform action.
func (t *Tokens) Issue(subject, action string) (string, error) {
	now := t.now().UTC()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(t.lifetime)),
		},
		Action: action,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("cannot sign token: %w", err)
	}

	return signed, nil
}

// Verify checks signature, expiry and action of raw and returns its claims.
func (t *Tokens) Verify(raw, action string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(raw, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return t.secret, nil
	}, jwt.WithTimeFunc(t.now), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("cannot parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("cannot parse token: invalid claims")
	}
	if claims.Action != action {
		return nil, ErrActionMismatch
	}

	if t.singleUse {
		if err := t.consume(claims); err != nil {
			return nil, err
		}
	}

	return claims, nil
}

func (t *Tokens) consume(claims *Claims) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	for id, expires := range t.used {
		if now.After(expires) {
			delete(t.used, id)
		}
	}

	if _, ok := t.used[claims.ID]; ok {
		return ErrTokenReplayed
	}
	t.used[claims.ID] = claims.ExpiresAt.Time

	return nil
}
