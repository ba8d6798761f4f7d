package company

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ohclinic/ohclinic/internal/platform/middleware"
	"github.com/ohclinic/ohclinic/pkg/pagination"
)

// ErrInvalid wraps field validation failures.
var ErrInvalid = errors.New("invalid company")

type Service struct {
	repo   Repository
	logger zerolog.Logger
}

func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

func (s *Service) Create(ctx context.Context, c *Company) error {
	if err := normalize(c); err != nil {
		return err
	}
	if err := s.repo.Create(ctx, c); err != nil {
		return err
	}
	s.logger.Info().Int64("company_id", c.ID).Str("name", c.Name).Msg("company created")
	return nil
}

func (s *Service) Get(ctx context.Context, id int64) (*Company, error) {
	if id <= 0 {
		return nil, ErrNotFound
	}
	return s.repo.GetByID(ctx, id)
}

// Update saves c. A changed name is carried into every occupational history
// row that referenced the old one.
func (s *Service) Update(ctx context.Context, c *Company) error {
	if err := normalize(c); err != nil {
		return err
	}
	existing, err := s.repo.GetByID(ctx, c.ID)
	if err != nil {
		return err
	}
	if err := s.repo.Update(ctx, c, existing.Name); err != nil {
		return err
	}
	if existing.Name != c.Name {
		s.logger.Info().Int64("company_id", c.ID).
			Str("old_name", existing.Name).Str("new_name", c.Name).
			Msg("company renamed")
	}
	return nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) List(ctx context.Context, name string, p pagination.Params) ([]*Company, int, error) {
	name = strings.TrimSpace(name)
	if name != "" {
		return s.repo.Search(ctx, name, p.Limit, p.Offset)
	}
	return s.repo.List(ctx, p.Limit, p.Offset)
}

func normalize(c *Company) error {
	c.Name = middleware.SanitizeString(c.Name)
	c.Address = middleware.SanitizeString(c.Address)
	c.District = middleware.SanitizeString(c.District)
	c.State = middleware.SanitizeString(c.State)
	c.Postcode = middleware.SanitizeString(c.Postcode)
	c.Telephone = middleware.SanitizeString(c.Telephone)
	c.Fax = middleware.SanitizeString(c.Fax)
	c.Email = middleware.SanitizeString(c.Email)
	c.RegistrationNo = middleware.SanitizeString(c.RegistrationNo)

	if c.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalid)
	}
	if c.Email != "" {
		if _, err := mail.ParseAddress(c.Email); err != nil {
			return fmt.Errorf("%w: email address is not valid", ErrInvalid)
		}
	}
	return nil
}
