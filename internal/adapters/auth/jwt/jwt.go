package jwt

import (
	"context"
	"errors"
	"fmt"
	"sociallink/internal/core/domain"
	"sociallink/internal/core/port"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Authenticator verifies HS256 tokens whose subject is the user id
type Authenticator struct {
	secret []byte
	parser *jwt.Parser
}

var _ port.Authenticator = (*Authenticator)(nil)

// NewAuthenticator creates an authenticator for the shared secret
func NewAuthenticator(secret string) (*Authenticator, error) {
	if secret == "" {
		return nil, errors.New("JWT secret is required but was empty")
	}
	return &Authenticator{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithExpirationRequired(),
		),
	}, nil
}

// Authenticate returns the user id carried by the token. Any failure wraps domain.ErrUnauthorized.
func (a *Authenticator) Authenticate(_ context.Context, token string) (uuid.UUID, error) {
	if token == "" {
		return uuid.Nil, fmt.Errorf("%w: missing token", domain.ErrUnauthorized)
	}

	claims := &jwt.RegisteredClaims{}
	parsed, err := a.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", domain.ErrUnauthorized, err)
	}
	if !parsed.Valid {
		return uuid.Nil, fmt.Errorf("%w: invalid token", domain.ErrUnauthorized)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: invalid subject", domain.ErrUnauthorized)
	}
	return userID, nil
}
