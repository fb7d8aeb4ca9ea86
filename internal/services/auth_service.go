package services

import (
	"context"
	"errors"
	"time"

	"github.com/ecocropai/ecocrop-backend/internal/apperrors"
	"github.com/ecocropai/ecocrop-backend/internal/config"
	"github.com/ecocropai/ecocrop-backend/internal/database"
	"github.com/golang-jwt/jwt/v5"
)

// AuthService issues and validates bearer tokens. Tokens are HS256-signed,
// carry the user id and email, and stay valid until natural expiry — there
// is no revocation.
type AuthService struct {
	users  *UserService
	secret []byte
	ttl    time.Duration
}

type tokenClaims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

func NewAuthService(users *UserService, cfg config.AuthConfig) *AuthService {
	return &AuthService{
		users:  users,
		secret: []byte(cfg.JWTSecret),
		ttl:    cfg.TokenTTL,
	}
}

// IssueToken produces a signed token expiring a fixed duration from now
func (s *AuthService) IssueToken(userID, email string) (string, error) {
	claims := tokenClaims{
		UserID: userID,
		Email:  email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", apperrors.NewInternalError(err)
	}
	return signed, nil
}

// Authenticate verifies signature and expiry, then resolves the encoded
// user against the store. Expired and malformed tokens fail distinctly.
func (s *AuthService) Authenticate(ctx context.Context, tokenStr string) (*database.User, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperrors.ErrTokenExpired
		}
		return nil, apperrors.ErrTokenInvalid
	}
	if !token.Valid || claims.UserID == "" {
		return nil, apperrors.ErrTokenInvalid
	}

	return s.users.GetByID(ctx, claims.UserID)
}
