package auth

import (
	"errors"

	"golang.org/x/crypto/bcrypt"

	jwtsvc "campsite/internal/pkg/jwt"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

// Service implements the placeholder administrator login carried over from
// the legacy dashboard's sidebar. One credential, configured via env; this
// gates the admin routes and is explicitly not a real security boundary.
type Service struct {
	adminUser    string
	passwordHash string
	jwt          *jwtsvc.Service
}

func NewService(adminUser, passwordHash string, jwt *jwtsvc.Service) *Service {
	return &Service{adminUser: adminUser, passwordHash: passwordHash, jwt: jwt}
}

// Login checks the credential and issues an admin token.
func (s *Service) Login(user, password string) (string, error) {
	if user != s.adminUser {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.passwordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}
	return s.jwt.GenerateToken(user)
}
