package service

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hanbit-edu/workflow-api/internal/models"
)

func signTestToken(t *testing.T, secret string, claims models.ActorClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	require.NoError(t, err)
	return signed
}

func TestTokenServiceValidateToken(t *testing.T) {
	svc := NewTokenService("secret")
	signed := signTestToken(t, "secret", models.ActorClaims{
		UserID: "i1",
		Name:   "Kim",
		Role:   models.RoleInstructor,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims, err := svc.ValidateToken(signed)
	require.NoError(t, err)
	assert.Equal(t, "i1", claims.UserID)
	assert.Equal(t, models.Actor{ID: "i1", Role: models.RoleInstructor}, claims.Actor())
}

func TestTokenServiceRejectsBadTokens(t *testing.T) {
	svc := NewTokenService("secret")

	_, err := svc.ValidateToken("mangled")
	require.Error(t, err)

	wrongKey := signTestToken(t, "other-secret", models.ActorClaims{UserID: "i1", Role: models.RoleInstructor})
	_, err = svc.ValidateToken(wrongKey)
	require.Error(t, err)

	expired := signTestToken(t, "secret", models.ActorClaims{
		UserID: "i1",
		Role:   models.RoleInstructor,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	})
	_, err = svc.ValidateToken(expired)
	require.Error(t, err)

	noRole := signTestToken(t, "secret", models.ActorClaims{
		UserID: "i1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	_, err = svc.ValidateToken(noRole)
	require.Error(t, err)
}
