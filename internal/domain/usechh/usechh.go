// Package usechh produces the regulatory USECHH documents: the USECHH 1
// medical surveillance record of one examination and the medical removal
// protection (MRP) letter.
package usechh

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ohclinic/ohclinic/internal/domain/clinic"
	"github.com/ohclinic/ohclinic/internal/domain/company"
	"github.com/ohclinic/ohclinic/internal/domain/declaration"
	"github.com/ohclinic/ohclinic/internal/domain/patient"
	"github.com/ohclinic/ohclinic/internal/domain/surveillance"
	"github.com/ohclinic/ohclinic/internal/platform/blobstore"
	"github.com/ohclinic/ohclinic/internal/platform/middleware"
	"github.com/ohclinic/ohclinic/internal/platform/web"
)

// ErrNotFound means the examination or its patient does not exist.
var ErrNotFound = errors.New("examination not found")

// ErrInvalid rejects a malformed MRP form.
var ErrInvalid = errors.New("invalid MRP form")

// Records loads examinations.
type Records interface {
	GetRecord(ctx context.Context, surveillanceID int64) (*surveillance.FullRecord, error)
	EmployerCompanyID(ctx context.Context, patientID int64) int64
}

// Patients loads the examined worker.
type Patients interface {
	Get(ctx context.Context, id int64) (*patient.Patient, error)
	CurrentOccupationalHistory(ctx context.Context, patientID int64) (*patient.OccupationalHistory, error)
}

type CompanyGetter interface {
	Get(ctx context.Context, id int64) (*company.Company, error)
}

// DeclarationResolver finds the declaration signed for an examination.
type DeclarationResolver interface {
	Resolve(ctx context.Context, l declaration.Lookup) (*declaration.Declaration, error)
}

type ProfileSource interface {
	Profile(ctx context.Context) clinic.Profile
}

// USECHH1 is the data of the USECHH 1 document.
type USECHH1 struct {
	Clinic      clinic.Profile
	Header      *blobstore.Header
	Record      *surveillance.FullRecord
	Patient     *patient.Patient
	Age         int
	Employment  *patient.OccupationalHistory
	Company     *company.Company
	Declaration *declaration.Declaration

	History     []surveillance.Item
	Systems     []surveillance.Item
	Conclusions []surveillance.Item

	TargetOrgan    surveillance.TargetOrgan
	Biological     surveillance.BiologicalMonitoring
	Fitness        surveillance.FitnessRespirator
	Conclusion     surveillance.Conclusion
	Recommendation surveillance.Recommendation

	GeneratedOn string
}

// MRPInput is the medical removal protection form.
type MRPInput struct {
	SurveillanceID string `form:"surveillance_id"`
	PatientName    string `form:"patient_name"`
	Identification string `form:"identification"`
	EmployerName   string `form:"employer_name"`
	Chemical       string `form:"chemical"`
	Reason         string `form:"reason"`
	RemovalDate    string `form:"removal_date"`
	ReviewDate     string `form:"review_date"`
	Duration       string `form:"duration"`
	Notes          string `form:"notes"`
}

// MRPLetter is the data of the MRP letter document.
type MRPLetter struct {
	Clinic         clinic.Profile
	Header         *blobstore.Header
	PatientName    string
	Identification string
	EmployerName   string
	Chemical       string
	Reason         string
	RemovalDate    string
	ReviewDate     string
	Duration       string
	Notes          []string
	SurveillanceID int64
	GeneratedOn    string
}

type Service struct {
	records      Records
	patients     Patients
	companies    CompanyGetter
	declarations DeclarationResolver
	clinic       ProfileSource
	headers      blobstore.Store
	logger       zerolog.Logger
	now          func() time.Time
}

func NewService(
	records Records,
	patients Patients,
	companies CompanyGetter,
	declarations DeclarationResolver,
	profile ProfileSource,
	headers blobstore.Store,
	logger zerolog.Logger,
) *Service {
	return &Service{
		records:      records,
		patients:     patients,
		companies:    companies,
		declarations: declarations,
		clinic:       profile,
		headers:      headers,
		logger:       logger,
		now:          time.Now,
	}
}

func placeholderProfile(p clinic.Profile) clinic.Profile {
	return p.Merge(clinic.Profile{
		ClinicName: "-", Address: "-", Phone: "-", DoctorName: "-", DoctorMMC: "-", DoctorDOSH: "-",
	})
}

// USECHH1 assembles the document for one examination. Every detail is read
// by surveillance id. declarationID, when positive, picks a specific
// declaration.
func (s *Service) USECHH1(ctx context.Context, surveillanceID, declarationID int64) (*USECHH1, error) {
	full, err := s.records.GetRecord(ctx, surveillanceID)
	if err != nil {
		if errors.Is(err, surveillance.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p, err := s.patients.Get(ctx, full.PatientID)
	if err != nil {
		if errors.Is(err, patient.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	doc := &USECHH1{
		Clinic:      placeholderProfile(s.clinic.Profile(ctx)),
		Record:      full,
		Patient:     p,
		Age:         -1,
		History:     full.History.Items(),
		Systems:     full.Physical.Systems(),
		GeneratedOn: web.FormatDate(s.now()),
	}
	if full.ExaminationDate != nil {
		doc.Age = p.Age(*full.ExaminationDate)
	}
	if full.TargetOrgan != nil {
		doc.TargetOrgan = *full.TargetOrgan
	}
	if full.Biological != nil {
		doc.Biological = *full.Biological
	}
	if full.Fitness != nil {
		doc.Fitness = *full.Fitness
	}
	if full.Conclusion != nil {
		doc.Conclusion = *full.Conclusion
	}
	if full.Recommendation != nil {
		doc.Recommendation = *full.Recommendation
	}
	doc.Conclusions = doc.Conclusion.Items()

	if doc.Employment, err = s.patients.CurrentOccupationalHistory(ctx, p.ID); err != nil {
		s.logger.Warn().Err(err).Int64("patient_id", p.ID).Msg("employment lookup for USECHH 1 failed")
	}
	if companyID := s.records.EmployerCompanyID(ctx, p.ID); companyID > 0 {
		if doc.Company, err = s.companies.Get(ctx, companyID); err != nil {
			s.logger.Warn().Err(err).Int64("company_id", companyID).Msg("company lookup for USECHH 1 failed")
		}
		doc.Header = s.embedHeader(companyID)
	}

	doc.Declaration, err = s.declarations.Resolve(ctx, declaration.Lookup{
		DeclarationID:   declarationID,
		SurveillanceID:  surveillanceID,
		PatientName:     p.FullName(),
		ExaminationDate: full.ExaminationDate,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve declaration: %w", err)
	}
	return doc, nil
}

func (s *Service) embedHeader(companyID int64) *blobstore.Header {
	h, err := blobstore.Embed(s.headers, companyID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("company_id", companyID).Msg("header document could not be embedded")
		return nil
	}
	return h
}

// PrefillMRP builds the MRP form from the query of the redirect after a
// not-fit examination. A surveillance id adds the examination details.
func (s *Service) PrefillMRP(ctx context.Context, in MRPInput) (MRPInput, error) {
	in.RemovalDate = s.now().Format("2006-01-02")
	raw := strings.TrimSpace(in.SurveillanceID)
	if raw == "" {
		return in, nil
	}
	sid := surveillance.ParseID(raw)
	if sid == 0 {
		return in, fmt.Errorf("%w: invalid surveillance id", ErrInvalid)
	}
	full, err := s.records.GetRecord(ctx, sid)
	if err != nil {
		if errors.Is(err, surveillance.ErrNotFound) {
			return in, ErrNotFound
		}
		return in, err
	}
	in.Chemical = full.Chemical
	reasons := []string{}
	if surveillance.NotFit(full.FitnessStatus) {
		reasons = append(reasons, full.FitnessStatus)
	}
	if full.Fitness != nil && surveillance.NotFit(full.Fitness.Result) {
		reasons = append(reasons, "Respirator: "+full.Fitness.Result)
	}
	in.Reason = strings.Join(reasons, "; ")
	if full.Recommendation != nil && full.Recommendation.NextReviewDate != nil {
		in.ReviewDate = full.Recommendation.NextReviewDate.Format("2006-01-02")
	}
	if p, err := s.patients.Get(ctx, full.PatientID); err == nil {
		if in.PatientName == "" {
			in.PatientName = p.FullName()
		}
		in.Identification = p.Identification()
	}
	return in, nil
}

// MRPLetter validates the form and fills the letter.
func (s *Service) MRPLetter(ctx context.Context, in MRPInput) (*MRPLetter, error) {
	clean := middleware.SanitizeString
	name := clean(in.PatientName)
	if name == "" {
		return nil, fmt.Errorf("%w: worker name is required", ErrInvalid)
	}

	letter := &MRPLetter{
		Clinic:         placeholderProfile(s.clinic.Profile(ctx)),
		PatientName:    name,
		Identification: web.Dash(clean(in.Identification)),
		EmployerName:   web.Dash(clean(in.EmployerName)),
		Chemical:       web.Dash(clean(in.Chemical)),
		Reason:         web.Dash(clean(in.Reason)),
		Duration:       web.Dash(clean(in.Duration)),
		GeneratedOn:    web.FormatDate(s.now()),
	}
	var err error
	if letter.RemovalDate, err = displayDate("removal date", in.RemovalDate); err != nil {
		return nil, err
	}
	if letter.ReviewDate, err = displayDate("review date", in.ReviewDate); err != nil {
		return nil, err
	}
	if notes := clean(in.Notes); notes != "" {
		letter.Notes = strings.Split(notes, "\n")
	}

	if sid := surveillance.ParseID(in.SurveillanceID); sid > 0 {
		letter.SurveillanceID = sid
		if full, err := s.records.GetRecord(ctx, sid); err == nil {
			if companyID := s.records.EmployerCompanyID(ctx, full.PatientID); companyID > 0 {
				letter.Header = s.embedHeader(companyID)
			}
		}
	}
	return letter, nil
}

func displayDate(name, raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "-", nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return "", fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrInvalid, name)
	}
	return web.FormatDate(t), nil
}
