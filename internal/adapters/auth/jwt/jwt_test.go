package jwt_test

import (
	"context"
	authjwt "sociallink/internal/adapters/auth/jwt"
	"sociallink/internal/core/domain"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.Claims) string {
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func claimsFor(subject string, expiresIn time.Duration) jwt.RegisteredClaims {
	now := time.Now()
	return jwt.RegisteredClaims{
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
	}
}

func TestNewAuthenticator_RequiresSecret(t *testing.T) {
	_, err := authjwt.NewAuthenticator("")

	assert.Error(t, err)
}

func TestAuthenticator_Authenticate(t *testing.T) {
	userID := uuid.New()
	auth, err := authjwt.NewAuthenticator(secret)
	require.NoError(t, err)

	t.Run("valid token", func(t *testing.T) {
		// Arrange
		token := sign(t, jwt.SigningMethodHS256, []byte(secret), claimsFor(userID.String(), time.Hour))

		// Act
		got, err := auth.Authenticate(context.Background(), token)

		// Assert
		require.NoError(t, err)
		assert.Equal(t, userID, got)
	})

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{
			name:  "missing token",
			token: func(t *testing.T) string { return "" },
		},
		{
			name:  "garbage",
			token: func(t *testing.T) string { return "not-a-jwt" },
		},
		{
			name: "wrong secret",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, []byte("other"), claimsFor(userID.String(), time.Hour))
			},
		},
		{
			name: "expired",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, []byte(secret), claimsFor(userID.String(), -time.Minute))
			},
		},
		{
			name: "no expiry",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, []byte(secret), jwt.RegisteredClaims{Subject: userID.String()})
			},
		},
		{
			name: "subject is not a uuid",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS256, []byte(secret), claimsFor("alice", time.Hour))
			},
		},
		{
			name: "other hmac algorithm",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodHS512, []byte(secret), claimsFor(userID.String(), time.Hour))
			},
		},
		{
			name: "unsigned",
			token: func(t *testing.T) string {
				return sign(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType, claimsFor(userID.String(), time.Hour))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Act
			got, err := auth.Authenticate(context.Background(), tt.token(t))

			// Assert
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
			assert.Equal(t, uuid.Nil, got)
		})
	}
}
