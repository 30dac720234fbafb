package services

import (
	"testing"
	"time"

	"github.com/cavestore/orderbot/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJWTRoundTrip(t *testing.T) {
	service := NewJWTService("secret")

	issued := models.Actor{ID: 42, Name: "tho", Roles: []string{models.RoleWorker, models.RoleModerator}}

	token, err := service.GenerateJWT(issued)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	actor, err := service.ValidateToken(token)
	require.NoError(t, err)

	assert.Equal(t, issued.ID, actor.ID)
	assert.Equal(t, issued.Name, actor.Name)
	assert.Equal(t, issued.Roles, actor.Roles)
}

func TestValidateTokenWithWrongSecret(t *testing.T) {
	token, err := NewJWTService("secret").GenerateJWT(models.Actor{ID: 1, Name: "ai do"})
	require.NoError(t, err)

	_, err = NewJWTService("another-secret").ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateExpiredToken(t *testing.T) {
	now := time.Now()
	expired := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "42",
		"iat": now.Add(-48 * time.Hour).Unix(),
		"exp": now.Add(-24 * time.Hour).Unix(),
	})

	tokenString, err := expired.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewJWTService("secret").ValidateToken(tokenString)
	assert.ErrorIs(t, err, ErrTokenIsExpired)
}

func TestValidateTokenWithoutSubject(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"name": "ai do",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	tokenString, err := token.SignedString([]byte("secret"))
	require.NoError(t, err)

	_, err = NewJWTService("secret").ValidateToken(tokenString)
	assert.ErrorIs(t, err, ErrTokenIsInvalid)
}
