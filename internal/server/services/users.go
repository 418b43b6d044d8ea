// Package services contains the server-side business logic: account
// registration and login, and the task collection operations that feed the
// change broadcaster.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/StepanDemidovets/taskflow/internal/common"
	"github.com/StepanDemidovets/taskflow/internal/server/auth"
	"github.com/StepanDemidovets/taskflow/internal/server/models"
	"github.com/StepanDemidovets/taskflow/internal/server/repositories/users"
	"github.com/google/uuid"
)

// UserService handles registration and login and mints session tokens.
type UserService struct {
	users         users.Repository
	hasher        *auth.PasswordHasher
	jwtSecret     []byte
	tokenValidity time.Duration
}

func NewUserService(repo users.Repository, secretKey string, tokenValidity time.Duration) *UserService {
	return &UserService{
		users:         repo,
		hasher:        auth.NewPasswordHasher(),
		jwtSecret:     []byte(secretKey),
		tokenValidity: tokenValidity,
	}
}

// Register creates a new user and returns it together with a fresh session
// token. Fails with common.ErrInvalidInput when email or password is empty
// and common.ErrAlreadyExists on a duplicate email.
func (s *UserService) Register(ctx context.Context, email, password string) (*models.User, string, error) {
	if email == "" || password == "" {
		return nil, "", fmt.Errorf("%w: email and password required", common.ErrInvalidInput)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, "", fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
	}

	created, err := s.users.Create(ctx, user)
	if err != nil {
		if errors.Is(err, common.ErrAlreadyExists) {
			return nil, "", common.ErrAlreadyExists
		}
		return nil, "", fmt.Errorf("create user: %w", err)
	}

	token, err := s.issueToken(created)
	if err != nil {
		return nil, "", err
	}

	return created, token, nil
}

// Login verifies credentials and returns a fresh session token. Unknown
// email and wrong password both yield common.ErrInvalidCredentials, so a
// caller cannot probe which emails are registered.
func (s *UserService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrInvalidCredentials
		}
		return "", fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Verify(password, user.PasswordHash) {
		return "", common.ErrInvalidCredentials
	}

	return s.issueToken(user)
}

func (s *UserService) issueToken(user *models.User) (string, error) {
	token, err := auth.GenerateToken(user.ID, user.Email, s.jwtSecret, s.tokenValidity)
	if err != nil {
		return "", fmt.Errorf("issue token: %w", err)
	}
	return token, nil
}
