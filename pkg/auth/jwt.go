package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("token has expired")
	ErrMissingToken  = errors.New("missing authentication token")
	ErrInvalidClaims = errors.New("invalid token claims")
	ErrNoAdminInCtx  = errors.New("no admin context on request")
)

// Claims represents the admin JWT claims
type Claims struct {
	AdminID string   `json:"sub"`
	Email   string   `json:"email"`
	Roles   []string `json:"roles"`
	jwt.RegisteredClaims
}

// JWTConfig configures token validation
type JWTConfig struct {
	SecretKey string
	Issuer    string
	Audience  []string
}

// JWTValidator handles admin JWT validation (HS256)
type JWTValidator struct {
	secretKey []byte
	issuer    string
	audience  []string
}

// NewJWTValidator creates a new JWT validator
func NewJWTValidator(config JWTConfig) (*JWTValidator, error) {
	if config.SecretKey == "" {
		return nil, errors.New("secret key is required")
	}
	return &JWTValidator{
		secretKey: []byte(config.SecretKey),
		issuer:    config.Issuer,
		audience:  config.Audience,
	}, nil
}

// ValidateToken validates a JWT token and returns the claims
func (v *JWTValidator) ValidateToken(tokenString string) (*Claims, error) {
	tokenString = strings.TrimPrefix(tokenString, "Bearer ")
	tokenString = strings.TrimSpace(tokenString)

	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Method)
		}
		return v.secretKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidClaims
	}
	if claims.AdminID == "" {
		return nil, fmt.Errorf("%w: missing subject", ErrInvalidClaims)
	}
	if v.issuer != "" && claims.Issuer != v.issuer {
		return nil, fmt.Errorf("%w: invalid issuer", ErrInvalidClaims)
	}
	if len(v.audience) > 0 && !v.hasAudience(claims.Audience) {
		return nil, fmt.Errorf("%w: invalid audience", ErrInvalidClaims)
	}

	return claims, nil
}

func (v *JWTValidator) hasAudience(audience jwt.ClaimStrings) bool {
	for _, expected := range v.audience {
		for _, got := range audience {
			if got == expected {
				return true
			}
		}
	}
	return false
}

type contextKey string

const adminContextKey contextKey = "admin_claims"

// WithAdmin stores validated admin claims on the context
func WithAdmin(ctx context.Context, claims *Claims) context.Context {
	return context.WithValue(ctx, adminContextKey, claims)
}

// AdminFromContext extracts validated admin claims from the context
func AdminFromContext(ctx context.Context) (*Claims, error) {
	claims, ok := ctx.Value(adminContextKey).(*Claims)
	if !ok || claims == nil {
		return nil, ErrNoAdminInCtx
	}
	return claims, nil
}
