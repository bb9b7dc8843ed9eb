package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims Claims, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func newValidator(t *testing.T, issuer string) *JWTValidator {
	t.Helper()
	validator, err := NewJWTValidator(JWTConfig{SecretKey: testSecret, Issuer: issuer})
	require.NoError(t, err)
	return validator
}

func TestValidateToken_Success(t *testing.T) {
	validator := newValidator(t, "modops-backend")
	token := signToken(t, Claims{
		AdminID: "admin-1",
		Email:   "admin@example.com",
		Roles:   []string{"moderator"},
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "modops-backend",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, testSecret)

	claims, err := validator.ValidateToken(token)

	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.AdminID)
	assert.Equal(t, []string{"moderator"}, claims.Roles)
}

func TestValidateToken_StripsBearerPrefix(t *testing.T) {
	validator := newValidator(t, "")
	token := signToken(t, Claims{
		AdminID: "admin-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, testSecret)

	claims, err := validator.ValidateToken("Bearer " + token)

	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.AdminID)
}

func TestValidateToken_Expired(t *testing.T) {
	validator := newValidator(t, "")
	token := signToken(t, Claims{
		AdminID: "admin-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Hour)),
		},
	}, testSecret)

	_, err := validator.ValidateToken(token)
	assert.ErrorIs(t, err, ErrExpiredToken)
}

func TestValidateToken_WrongSecret(t *testing.T) {
	validator := newValidator(t, "")
	token := signToken(t, Claims{
		AdminID: "admin-1",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, "other-secret")

	_, err := validator.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestValidateToken_WrongIssuer(t *testing.T) {
	validator := newValidator(t, "modops-backend")
	token := signToken(t, Claims{
		AdminID: "admin-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "someone-else",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, testSecret)

	_, err := validator.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestValidateToken_MissingSubject(t *testing.T) {
	validator := newValidator(t, "")
	token := signToken(t, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}, testSecret)

	_, err := validator.ValidateToken(token)
	assert.ErrorIs(t, err, ErrInvalidClaims)
}

func TestAdminContextRoundTrip(t *testing.T) {
	claims := &Claims{AdminID: "admin-1"}
	ctx := WithAdmin(context.Background(), claims)

	got, err := AdminFromContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", got.AdminID)

	_, err = AdminFromContext(context.Background())
	assert.ErrorIs(t, err, ErrNoAdminInCtx)
}
