package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/typeflow-app/typeflow-backend/internal/domain/shared"
)

// TokenConfig configures JWT issuing.
type TokenConfig struct {
	// Secret is the HMAC signing key.
	Secret string

	// Issuer is written into the iss claim.
	Issuer string

	// TTL is the token lifetime.
	TTL time.Duration
}

// DefaultTokenConfig returns defaults suitable for development.
// The secret must always come from configuration in production.
func DefaultTokenConfig() TokenConfig {
	return TokenConfig{
		Issuer: "typeflow",
		TTL:    24 * time.Hour,
	}
}

// Claims are the JWT claims carried by TypeFlow access tokens.
type Claims struct {
	Username string `json:"username"`
	jwt.RegisteredClaims
}

// TokenService issues and verifies access tokens.
type TokenService struct {
	config TokenConfig
}

// NewTokenService creates a token service.
func NewTokenService(config TokenConfig) (*TokenService, error) {
	if config.Secret == "" {
		return nil, fmt.Errorf("auth: token secret is required")
	}
	if config.TTL <= 0 {
		config.TTL = 24 * time.Hour
	}
	if config.Issuer == "" {
		config.Issuer = "typeflow"
	}
	return &TokenService{config: config}, nil
}

// Issue creates a signed token for a user.
func (s *TokenService) Issue(userID, username string) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: username,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    s.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.config.TTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.Secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return signed, nil
}

// Verify parses and validates a token, returning its claims.
// Any parse or validation failure maps to shared.ErrUnauthorized.
func (s *TokenService) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	},
		jwt.WithIssuer(s.config.Issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil || !token.Valid {
		return nil, shared.ErrUnauthorized
	}

	return claims, nil
}
