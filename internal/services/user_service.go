package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// UserService handles registration and credential checks.
type UserService struct {
	storage    *storage.Repository
	bcryptCost int
}

func NewUserService(storage *storage.Repository, bcryptCost int) *UserService {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &UserService{
		storage:    storage,
		bcryptCost: bcryptCost,
	}
}

// Register creates a new user with a bcrypt-hashed credential. The raw
// password never reaches the repository.
func (s *UserService) Register(ctx context.Context, email, name, password string) (*core.User, error) {
	email = strings.TrimSpace(email)
	name = strings.TrimSpace(name)

	if email == "" {
		return nil, core.ErrEmptyEmail
	}
	if name == "" {
		return nil, core.ErrEmptyName
	}
	if password == "" {
		return nil, core.ErrEmptyPassword
	}

	_, err := s.storage.GetUserByEmail(ctx, email)
	if err == nil {
		return nil, fmt.Errorf("%w with email: %s", core.ErrEmailTaken, email)
	}
	if !errors.Is(err, core.ErrNotFound) {
		return nil, fmt.Errorf("check existing user: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.storage.CreateUser(ctx, email, name, string(hash))
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "User registered", "user_id", user.ID, "email", user.Email)

	return user, nil
}

// FindByEmail returns the user for an email, or core.ErrNotFound.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*core.User, error) {
	return s.storage.GetUserByEmail(ctx, strings.TrimSpace(email))
}

// CheckPassword reports whether rawPassword matches the stored bcrypt hash.
func (s *UserService) CheckPassword(rawPassword, storedHash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(rawPassword)) == nil
}
