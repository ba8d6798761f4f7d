package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

type Service struct {
	users  UserRepository
	logger zerolog.Logger
}

func NewService(users UserRepository, logger zerolog.Logger) *Service {
	return &Service{users: users, logger: logger}
}

// Authenticate verifies a username and password. Unknown users and wrong
// passwords both return ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (*User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, ErrInvalidCredentials
	}
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if !errors.Is(err, ErrUserNotFound) {
			s.logger.Error().Err(err).Str("username", username).Msg("user lookup failed")
		}
		return nil, ErrInvalidCredentials
	}
	if !CheckPassword(u.PasswordHash, password) {
		s.logger.Warn().Str("username", username).Msg("password mismatch")
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// CreateUser hashes the password and stores the account. staff may be nil.
func (s *Service) CreateUser(ctx context.Context, username, password, role string, staff *StaffProfile) (*User, error) {
	username = strings.TrimSpace(username)
	role = strings.TrimSpace(role)
	if username == "" {
		return nil, fmt.Errorf("username is required")
	}
	if role == "" {
		return nil, fmt.Errorf("role is required")
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}
	if staff != nil && strings.TrimSpace(staff.FullName) == "" {
		staff = nil
	}
	u := &User{Username: username, PasswordHash: hash, Role: role}
	if err := s.users.Create(ctx, u, staff); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return u, nil
}
