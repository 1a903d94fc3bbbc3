package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

var (
	ErrUsernameTaken      = errors.New("username already registered")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// Service handles account registration and login.
type Service struct {
	storage storage.Repository
	tokens  *TokenManager
	clock   core.Clock
}

func NewService(storage storage.Repository, tokens *TokenManager, clock core.Clock) *Service {
	return &Service{storage: storage, tokens: tokens, clock: clock}
}

// Signup registers a new account. Username and email must both be unused.
func (s *Service) Signup(ctx context.Context, username, email, password string) (core.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" || email == "" || password == "" {
		return core.User{}, errors.New("username, email and password are required")
	}

	if _, err := s.storage.GetUserByUsername(ctx, username); err == nil {
		return core.User{}, ErrUsernameTaken
	} else if !errors.Is(err, core.ErrNotFound) {
		return core.User{}, fmt.Errorf("check username: %w", err)
	}

	if _, err := s.storage.GetUserByEmail(ctx, email); err == nil {
		return core.User{}, ErrEmailTaken
	} else if !errors.Is(err, core.ErrNotFound) {
		return core.User{}, fmt.Errorf("check email: %w", err)
	}

	hash, err := HashPassword(password)
	if err != nil {
		return core.User{}, fmt.Errorf("hash password: %w", err)
	}

	user := core.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.clock.Now(),
		IsActive:     true,
	}

	id, err := s.storage.CreateUser(ctx, user)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	user.ID = id

	slog.InfoContext(ctx, "User registered", "component", "auth", "username", username)
	return user, nil
}

// Login verifies credentials and returns a signed access token.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	user, err := s.storage.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("get user: %w", err)
	}

	if !user.IsActive {
		return "", ErrInvalidCredentials
	}

	if err := VerifyPassword(user.PasswordHash, password); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user.Username)
	if err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}

	slog.InfoContext(ctx, "User logged in", "component", "auth", "username", username)
	return token, nil
}

// Verify resolves a bearer token to the active account it belongs to.
func (s *Service) Verify(ctx context.Context, token string) (core.User, error) {
	username, err := s.tokens.Verify(token)
	if err != nil {
		return core.User{}, err
	}

	user, err := s.storage.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.User{}, ErrInvalidToken
		}
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	if !user.IsActive {
		return core.User{}, ErrInvalidToken
	}
	return user, nil
}
