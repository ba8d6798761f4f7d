package company

import (
	"context"
	"errors"
)

var (
	ErrNotFound      = errors.New("company not found")
	ErrDuplicateName = errors.New("a company with this name already exists")
)

// Repository defines the persistence interface for companies.
type Repository interface {
	Create(ctx context.Context, c *Company) error
	GetByID(ctx context.Context, id int64) (*Company, error)
	// Update saves c and rewrites occupational history rows that still
	// carry oldName.
	Update(ctx context.Context, c *Company, oldName string) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, limit, offset int) ([]*Company, int, error)
	Search(ctx context.Context, name string, limit, offset int) ([]*Company, int, error)
}
