package utils

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"picotask-rush-backend/pkg/models"
)

// TokenTTL is the fixed lifetime of issued bearer tokens. There is no
// refresh mechanism: expired callers request a new token via POST /jwt.
const TokenTTL = time.Hour

// JWTService signs and verifies bearer tokens with a symmetric secret.
type JWTService struct {
	secretKey []byte
}

// NewJWTService creates a JWT service around the given signing secret.
func NewJWTService(secretKey string) *JWTService {
	return &JWTService{
		secretKey: []byte(secretKey),
	}
}

// GenerateToken issues an HS256 token embedding the identity claim.
func (j *JWTService) GenerateToken(email string) (string, error) {
	now := time.Now()
	claims := &models.TokenClaims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   email,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(j.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateToken verifies the signature and expiry and returns the claims.
func (j *JWTService) ValidateToken(tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return j.secretKey, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	if claims.Email == "" {
		return nil, fmt.Errorf("token carries no identity claim")
	}

	return claims, nil
}
