package msreport

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("ms report not found")

// Repository persists report metadata.
type Repository interface {
	// Upsert inserts or replaces the company's row in one statement.
	Upsert(ctx context.Context, r *Report) error
	// Latest returns the most recently updated row for the company.
	Latest(ctx context.Context, companyID int64) (*Report, error)
}
