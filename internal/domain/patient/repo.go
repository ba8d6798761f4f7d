package patient

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("patient not found")

// Repository defines the persistence interface for patients and their
// occupational history.
type Repository interface {
	Create(ctx context.Context, p *Patient) error
	GetByID(ctx context.Context, id int64) (*Patient, error)
	Update(ctx context.Context, p *Patient) error
	Search(ctx context.Context, name string, limit, offset int) ([]*Patient, int, error)
	// ListByCompany returns patients whose current employer name matches the
	// company, ignoring case and surrounding spaces.
	ListByCompany(ctx context.Context, companyID int64) ([]RosterEntry, error)

	// AddOccupationalHistory inserts h as the current row and clears the flag
	// on the previous one, in one transaction.
	AddOccupationalHistory(ctx context.Context, h *OccupationalHistory) error
	CurrentOccupationalHistory(ctx context.Context, patientID int64) (*OccupationalHistory, error)
	ListOccupationalHistory(ctx context.Context, patientID int64) ([]*OccupationalHistory, error)
}
