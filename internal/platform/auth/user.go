package auth

import (
	"context"
	"errors"
	"time"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// User maps to the users table.
type User struct {
	ID           int64     `db:"id"`
	Username     string    `db:"username"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
}

// StaffProfile is the optional medical_staff row created alongside a user.
type StaffProfile struct {
	FullName  string
	MMCNo     string
	DOSHRegNo string
}

// UserRepository defines the persistence interface for clinic users.
type UserRepository interface {
	GetByUsername(ctx context.Context, username string) (*User, error)
	Create(ctx context.Context, u *User, staff *StaffProfile) error
}
