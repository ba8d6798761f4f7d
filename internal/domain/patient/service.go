package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ohclinic/ohclinic/internal/platform/middleware"
	"github.com/ohclinic/ohclinic/pkg/pagination"
)

// ErrInvalid wraps field validation failures.
var ErrInvalid = errors.New("invalid patient")

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Create(ctx context.Context, p *Patient) error {
	if err := normalize(p); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return fmt.Errorf("create patient: %w", err)
	}
	s.logger.Info().Int64("patient_id", p.ID).Msg("patient registered")
	return nil
}

func (s *Service) Update(ctx context.Context, p *Patient) error {
	if p.ID <= 0 {
		return ErrNotFound
	}
	if err := normalize(p); err != nil {
		return err
	}
	return s.repo.Update(ctx, p)
}

func (s *Service) Get(ctx context.Context, id int64) (*Patient, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, query string, p pagination.Params) ([]*Patient, int, error) {
	return s.repo.Search(ctx, strings.TrimSpace(query), p.Limit, p.Offset)
}

// ListByCompany is the employee roster of a company.
func (s *Service) ListByCompany(ctx context.Context, companyID int64) ([]RosterEntry, error) {
	if companyID <= 0 {
		return nil, nil
	}
	return s.repo.ListByCompany(ctx, companyID)
}

// AddOccupationalHistory records a new current employment for the patient.
func (s *Service) AddOccupationalHistory(ctx context.Context, h *OccupationalHistory) error {
	h.CompanyName = middleware.SanitizeString(h.CompanyName)
	h.JobTitle = middleware.SanitizeString(h.JobTitle)
	h.Department = middleware.SanitizeString(h.Department)
	if h.CompanyName == "" {
		return fmt.Errorf("%w: company is required", ErrInvalid)
	}
	if h.EmploymentStart != nil && h.EmploymentEnd != nil && h.EmploymentEnd.Before(*h.EmploymentStart) {
		return fmt.Errorf("%w: employment end is before start", ErrInvalid)
	}
	if _, err := s.Get(ctx, h.PatientID); err != nil {
		return err
	}
	if err := s.repo.AddOccupationalHistory(ctx, h); err != nil {
		return fmt.Errorf("add occupational history: %w", err)
	}
	s.logger.Info().Int64("patient_id", h.PatientID).Str("company", h.CompanyName).
		Msg("current occupational history changed")
	return nil
}

// CurrentOccupationalHistory returns the flagged current row, or nil when
// the patient has no employment on record.
func (s *Service) CurrentOccupationalHistory(ctx context.Context, patientID int64) (*OccupationalHistory, error) {
	h, err := s.repo.CurrentOccupationalHistory(ctx, patientID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return h, err
}

func (s *Service) OccupationalHistory(ctx context.Context, patientID int64) ([]*OccupationalHistory, error) {
	return s.repo.ListOccupationalHistory(ctx, patientID)
}

func normalize(p *Patient) error {
	for _, f := range []*string{
		&p.FirstName, &p.LastName, &p.NRIC, &p.PassportNo, &p.Gender, &p.Phone, &p.Email,
		&p.Address, &p.Ethnicity, &p.Citizenship, &p.MaritalStatus, &p.SmokingHistory, &p.AlcoholHistory,
	} {
		*f = middleware.SanitizeString(*f)
	}
	if p.FirstName == "" {
		return fmt.Errorf("%w: first name is required", ErrInvalid)
	}
	if p.NRIC == "" && p.PassportNo == "" {
		return fmt.Errorf("%w: NRIC or passport number is required", ErrInvalid)
	}
	for _, n := range []*int{p.NoOfChildren, p.YearsMarried, p.YearsOfSmoking, p.NoOfCigarettes} {
		if n != nil && *n < 0 {
			return fmt.Errorf("%w: counts cannot be negative", ErrInvalid)
		}
	}
	return nil
}
