package jwt

import (
	"errors"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Service issues and validates the short-lived administrator tokens gating
// the mutating routes. The whole login flow is a placeholder carried over
// from the legacy dashboard, not a security boundary.
type Service struct {
	secret []byte
	ttl    time.Duration
}

type Claims struct {
	Admin bool `json:"admin"`
	jwtlib.RegisteredClaims
}

func New(secret string, ttl time.Duration) *Service {
	return &Service{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

func (s *Service) GenerateToken(user string) (string, error) {
	claims := Claims{
		Admin: true,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   user,
			ExpiresAt: jwtlib.NewNumericDate(time.Now().Add(s.ttl)),
			IssuedAt:  jwtlib.NewNumericDate(time.Now()),
		},
	}

	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *Service) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwtlib.ParseWithClaims(tokenStr, &Claims{}, func(t *jwtlib.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid token")
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !claims.Admin {
		return nil, errors.New("invalid claims")
	}

	return claims, nil
}
