package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/isdelr/postboard-be/internal/auth"
	"github.com/isdelr/postboard-be/internal/models"
	"github.com/isdelr/postboard-be/internal/store"
	"github.com/isdelr/postboard-be/internal/validation"
)

// UserServiceProvider defines the interface for user services.
type UserServiceProvider interface {
	Register(ctx context.Context, in validation.RegisterInput) (models.User, error)
	Login(ctx context.Context, in validation.LoginInput) (string, error)
	GetUserByID(ctx context.Context, id string) (models.User, error)
}

// UserService provides business logic for user management.
type UserService struct {
	users  store.UserStore
	tokens *auth.TokenService
}

// NewUserService creates a new UserService.
func NewUserService(users store.UserStore, tokens *auth.TokenService) *UserService {
	return &UserService{users: users, tokens: tokens}
}

// Register validates the input and creates a new user with a hashed password.
// The returned user includes the password hash.
func (s *UserService) Register(ctx context.Context, in validation.RegisterInput) (models.User, error) {
	errs, ok := validation.ValidateRegisterInput(in)
	if !ok {
		return models.User{}, validationError(errs)
	}

	_, err := s.users.GetUserByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return models.User{}, validationError(map[string]string{"email": "Email already exists"})
	case !errors.Is(err, store.ErrNotFound):
		return models.User{}, fmt.Errorf("lookup user by email: %w", err)
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return models.User{}, err
	}

	user := models.User{
		ID:           uuid.New().String(),
		Name:         in.Name,
		Email:        in.Email,
		Avatar:       auth.AvatarURL(in.Email),
		PasswordHash: hash,
	}
	if err := s.users.CreateUser(ctx, &user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return models.User{}, validationError(map[string]string{"email": "Email already exists"})
		}
		return models.User{}, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

// Login verifies credentials and returns a bearer token ("Bearer <jwt>").
func (s *UserService) Login(ctx context.Context, in validation.LoginInput) (string, error) {
	errs, ok := validation.ValidateLoginInput(in)
	if !ok {
		return "", validationError(errs)
	}

	user, err := s.users.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", notFound("email", "User not found")
		}
		return "", fmt.Errorf("lookup user by email: %w", err)
	}

	if !auth.CheckPassword(user.PasswordHash, in.Password) {
		return "", validationError(map[string]string{"password": "Password incorrect"})
	}

	token, err := s.tokens.GenerateJWT(user)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return "Bearer " + token, nil
}

// GetUserByID retrieves a single user by their ID, without the password hash.
func (s *UserService) GetUserByID(ctx context.Context, id string) (models.User, error) {
	user, err := s.users.GetUserByID(ctx, id)
	if err != nil {
		return models.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}
