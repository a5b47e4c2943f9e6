package services

import (
	"context"
	"fmt"
	"time"

	"github.com/Dosada05/kotc-scoreboard/utils"
	"github.com/golang-jwt/jwt/v4"
)

const (
	RoleOperator     = "operator"
	operatorTokenTTL = 12 * time.Hour
)

// AuthService guards the operator console. There are no user accounts; the
// operator proves knowledge of a shared PIN.
type AuthService interface {
	Login(ctx context.Context, pin string) (*LoginResult, error)
}

type LoginResult struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type authService struct {
	pinHash   string
	jwtSecret []byte
	now       func() time.Time
}

func NewAuthService(pinHash, jwtSecret string) AuthService {
	return &authService{
		pinHash:   pinHash,
		jwtSecret: []byte(jwtSecret),
		now:       time.Now,
	}
}

func (s *authService) Login(ctx context.Context, pin string) (*LoginResult, error) {
	if pin == "" || !utils.CheckPasswordHash(pin, s.pinHash) {
		return nil, ErrAuthenticationFailed
	}

	now := s.now()
	expiresAt := now.Add(operatorTokenTTL)
	claims := jwt.MapClaims{
		"role": RoleOperator,
		"exp":  expiresAt.Unix(),
		"iat":  now.Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return &LoginResult{Token: tokenString, ExpiresAt: expiresAt}, nil
}
