package service

import (
	"fmt"

	"wallet-transaction-service/internal/core/ports"
	"wallet-transaction-service/pkg/apperror"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// JWTTokenService implements ports.TokenService. The gateway has already
// authenticated the caller; this re-validates the forwarded token and
// extracts the user id claim.
type JWTTokenService struct {
	secret []byte
	issuer string
}

// NewJWTTokenService creates a new JWTTokenService.
func NewJWTTokenService(secret, issuer string) *JWTTokenService {
	return &JWTTokenService{secret: []byte(secret), issuer: issuer}
}

// Validate parses and verifies a token, returning its claims.
func (s *JWTTokenService) Validate(tokenString string) (*ports.TokenClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithExpirationRequired())
	if err != nil || !token.Valid {
		return nil, apperror.ErrInvalidToken()
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, apperror.ErrInvalidToken()
	}
	sub, err := claims.GetSubject()
	if err != nil {
		return nil, apperror.ErrInvalidToken()
	}
	userID, err := uuid.Parse(sub)
	if err != nil {
		return nil, apperror.ErrInvalidToken()
	}

	return &ports.TokenClaims{UserID: userID}, nil
}
