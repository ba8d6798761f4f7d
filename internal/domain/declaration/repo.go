package declaration

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("declaration not found")

// Repository defines the persistence interface for declarations. Every
// "latest" read orders by id descending.
type Repository interface {
	Create(ctx context.Context, d *Declaration) error
	GetByID(ctx context.Context, id int64) (*Declaration, error)
	LatestBySurveillanceID(ctx context.Context, surveillanceID int64) (*Declaration, error)
	LatestByNameAndDate(ctx context.Context, patientName string, day time.Time) (*Declaration, error)
	// ListBySurveillanceIDs returns every declaration linked to one of ids,
	// newest first.
	ListBySurveillanceIDs(ctx context.Context, ids []int64) ([]*Declaration, error)
}
