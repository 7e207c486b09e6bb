package services

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gulfreturn/pulse/models"
	"github.com/gulfreturn/pulse/pkg"
)

const testSecret = "test-secret"

// signToken, kimlik servisinin ürettiği formatta bir access token imzalar.
func signToken(t *testing.T, secret string, claims models.TokenClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestValidateAccessToken(t *testing.T) {
	svc := NewAuthService(testSecret)

	validClaims := models.TokenClaims{
		UserID:   "user-1",
		Username: "alice",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	t.Run("valid token", func(t *testing.T) {
		claims, err := svc.ValidateAccessToken(signToken(t, testSecret, validClaims))
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.UserID)
		assert.Equal(t, "alice", claims.Username)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := svc.ValidateAccessToken(signToken(t, "other-secret", validClaims))
		assert.ErrorIs(t, err, pkg.ErrUnauthorized)
	})

	t.Run("expired token", func(t *testing.T) {
		expired := validClaims
		expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

		_, err := svc.ValidateAccessToken(signToken(t, testSecret, expired))
		assert.ErrorIs(t, err, pkg.ErrUnauthorized)
	})

	t.Run("missing user_id", func(t *testing.T) {
		anonymous := validClaims
		anonymous.UserID = ""

		_, err := svc.ValidateAccessToken(signToken(t, testSecret, anonymous))
		assert.ErrorIs(t, err, pkg.ErrUnauthorized)
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.ValidateAccessToken("not-a-jwt")
		assert.ErrorIs(t, err, pkg.ErrUnauthorized)
	})
}
