package services

import (
	"context"
	"errors"
	"time"

	"github.com/ecocropai/ecocrop-backend/internal/apperrors"
	"github.com/ecocropai/ecocrop-backend/internal/database"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserService manages registered accounts and credential verification
type UserService struct {
	db *gorm.DB
}

func NewUserService(db *gorm.DB) *UserService {
	return &UserService{db: db}
}

// Register creates a new account with a bcrypt-hashed password. Fails with
// ErrDuplicateEmail when the email is already taken; the plaintext password
// is never stored.
func (s *UserService) Register(ctx context.Context, email, name, password string) (*database.User, error) {
	var existing database.User
	err := s.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, apperrors.ErrDuplicateEmail
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NewDatabaseError(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &database.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         name,
		PasswordHash: string(hash),
		CreatedAt:    time.Now().UTC(),
	}

	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, apperrors.NewDatabaseError(err)
	}

	return user, nil
}

// VerifyCredentials checks an email/password pair. Unknown emails and wrong
// passwords fail with the same ErrInvalidCredentials so callers cannot tell
// which one it was.
func (s *UserService) VerifyCredentials(ctx context.Context, email, password string) (*database.User, error) {
	var user database.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, apperrors.NewDatabaseError(err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, apperrors.ErrInvalidCredentials
	}

	return &user, nil
}

// GetByID resolves a user by id, failing with ErrUnknownUser when absent
func (s *UserService) GetByID(ctx context.Context, id string) (*database.User, error) {
	var user database.User
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUnknownUser
		}
		return nil, apperrors.NewDatabaseError(err)
	}
	return &user, nil
}
