package msreport

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ohclinic/ohclinic/internal/domain/clinic"
	"github.com/ohclinic/ohclinic/internal/domain/company"
	"github.com/ohclinic/ohclinic/internal/domain/patient"
	"github.com/ohclinic/ohclinic/internal/domain/surveillance"
	"github.com/ohclinic/ohclinic/internal/platform/blobstore"
	"github.com/ohclinic/ohclinic/internal/platform/middleware"
)

var ErrInvalid = errors.New("invalid report")

const dateInputLayout = "2006-01-02"

// CompanyGetter resolves the company a report belongs to.
type CompanyGetter interface {
	Get(ctx context.Context, id int64) (*company.Company, error)
}

// RosterLister lists a company's current employees.
type RosterLister interface {
	ListByCompany(ctx context.Context, companyID int64) ([]patient.RosterEntry, error)
}

// SurveillanceLister lists examinations for the report body.
type SurveillanceLister interface {
	List(ctx context.Context, f surveillance.Filter) ([]surveillance.ListRow, error)
}

// ProfileSource supplies the clinic identity used for defaults.
type ProfileSource interface {
	Profile(ctx context.Context) clinic.Profile
}

type Service struct {
	repo         Repository
	companies    CompanyGetter
	roster       RosterLister
	surveillance SurveillanceLister
	clinic       ProfileSource
	headers      blobstore.Store
	logger       zerolog.Logger
}

func NewService(
	repo Repository,
	companies CompanyGetter,
	roster RosterLister,
	surv SurveillanceLister,
	profile ProfileSource,
	headers blobstore.Store,
	logger zerolog.Logger,
) *Service {
	return &Service{
		repo:         repo,
		companies:    companies,
		roster:       roster,
		surveillance: surv,
		clinic:       profile,
		headers:      headers,
		logger:       logger,
	}
}

// Save stores the report metadata for a company, replacing what was there.
// Unknown indication keys are dropped and the "others" details are kept
// only while "others" is selected.
func (s *Service) Save(ctx context.Context, companyID int64, in Input) (*Report, error) {
	if companyID <= 0 {
		return nil, fmt.Errorf("%w: company id required", ErrInvalid)
	}
	if _, err := s.companies.Get(ctx, companyID); err != nil {
		return nil, err
	}

	rep := &Report{
		CompanyID:              companyID,
		Indications:            NormalizeIndications(in.Indications),
		CHRAReportNo:           middleware.SanitizeString(in.CHRAReportNo),
		AssessorName:           middleware.SanitizeString(in.AssessorName),
		DecisionSummary:        middleware.SanitizeString(in.DecisionSummary),
		RecommendationsSummary: middleware.SanitizeString(in.RecommendationsSummary),
	}
	if rep.Has(IndicationOthers) {
		rep.OthersDetails = middleware.SanitizeString(in.OthersDetails)
	}
	if raw := strings.TrimSpace(in.CHRADate); raw != "" {
		t, err := time.Parse(dateInputLayout, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: CHRA date must be YYYY-MM-DD", ErrInvalid)
		}
		rep.CHRADate = &t
	}

	if err := s.repo.Upsert(ctx, rep); err != nil {
		return nil, fmt.Errorf("save ms report: %w", err)
	}
	return rep, nil
}

// Latest returns the saved metadata, or nil when the company has none.
func (s *Service) Latest(ctx context.Context, companyID int64) (*Report, error) {
	rep, err := s.repo.Latest(ctx, companyID)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return rep, err
}

// Document gathers live data for the company and composes the report. Only
// a missing company is fatal; every other lookup degrades to defaults.
func (s *Service) Document(ctx context.Context, companyID int64) (*Document, error) {
	co, err := s.companies.Get(ctx, companyID)
	if err != nil {
		return nil, err
	}

	in := ComposeInput{Company: co, Clinic: s.clinic.Profile(ctx), Now: time.Now()}

	if in.Roster, err = s.roster.ListByCompany(ctx, companyID); err != nil {
		s.logger.Warn().Err(err).Int64("company_id", companyID).Msg("roster lookup for ms report failed")
	}
	if in.Rows, err = s.surveillance.List(ctx, surveillance.Filter{CompanyID: companyID}); err != nil {
		s.logger.Warn().Err(err).Int64("company_id", companyID).Msg("surveillance lookup for ms report failed")
	}
	if in.Meta, err = s.Latest(ctx, companyID); err != nil {
		s.logger.Warn().Err(err).Int64("company_id", companyID).Msg("ms report metadata lookup failed")
	}
	if in.Header, err = blobstore.Embed(s.headers, companyID); err != nil {
		s.logger.Warn().Err(err).Int64("company_id", companyID).Msg("header document could not be embedded")
	}

	return Compose(in), nil
}
