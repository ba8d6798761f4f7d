package surveillance

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ohclinic/ohclinic/internal/domain/declaration"
	"github.com/ohclinic/ohclinic/internal/domain/patient"
)

// PatientDirectory resolves the names printed on the MRP follow-up.
type PatientDirectory interface {
	Get(ctx context.Context, id int64) (*patient.Patient, error)
	CurrentOccupationalHistory(ctx context.Context, patientID int64) (*patient.OccupationalHistory, error)
}

// DeclarationAttacher loads the newest declaration per surveillance id.
type DeclarationAttacher interface {
	AttachAll(ctx context.Context, surveillanceIDs []int64) (map[int64]*declaration.Declaration, error)
}

// SaveResult describes a stored examination. Warnings lists the detail
// tables that could not be written. RedirectErr is set when the record was
// saved but no follow-up page could be determined.
type SaveResult struct {
	SurveillanceID int64
	PatientID      int64
	NotFit         bool
	Redirect       string
	RedirectErr    error
	Warnings       []DependentWriteError
}

type Service struct {
	repo         Repository
	patients     PatientDirectory
	declarations DeclarationAttacher
	logger       zerolog.Logger
}

func NewService(repo Repository, patients PatientDirectory, declarations DeclarationAttacher, logger zerolog.Logger) *Service {
	return &Service{repo: repo, patients: patients, declarations: declarations, logger: logger}
}

// Save stores one examination. query carries the GET parameters the form was
// opened with; they back up patient_id and company_id when the body lacks
// them.
//
// The primary row is written first. The five detail rows are then written
// one by one and a failing detail never undoes the others or the primary.
func (s *Service) Save(ctx context.Context, in *SaveInput, query url.Values) (*SaveResult, error) {
	patientID := ParseID(in.PatientID)
	if patientID == 0 {
		patientID = ParseID(query.Get("patient_id"))
	}
	if patientID == 0 {
		return nil, fmt.Errorf("%w: a patient must be selected", ErrValidation)
	}

	parts, err := in.Build(patientID)
	if err != nil {
		return nil, err
	}

	rec := &parts.Record
	if err := s.repo.InsertRecord(ctx, rec); err != nil {
		s.logger.Error().Err(err).Int64("patient_id", patientID).Msg("examination record insert failed")
		return nil, &PrimaryWriteError{Err: err}
	}
	if rec.SurveillanceID <= 0 {
		return nil, &PrimaryWriteError{Err: fmt.Errorf("store returned surveillance id %d", rec.SurveillanceID)}
	}

	res := &SaveResult{SurveillanceID: rec.SurveillanceID, PatientID: patientID}
	sid := rec.SurveillanceID

	writes := []struct {
		dep   Dependent
		write func() error
	}{
		{DependentTargetOrgan, func() error { return s.repo.InsertTargetOrgan(ctx, sid, patientID, &parts.TargetOrgan) }},
		{DependentBiological, func() error { return s.repo.InsertBiological(ctx, sid, patientID, &parts.Biological) }},
		{DependentFitness, func() error { return s.repo.InsertFitness(ctx, sid, patientID, &parts.Fitness) }},
		{DependentConclusion, func() error { return s.repo.InsertConclusion(ctx, sid, patientID, &parts.Conclusion) }},
		{DependentRecommendation, func() error {
			return s.repo.InsertRecommendation(ctx, sid, patientID, &parts.Recommendation)
		}},
	}
	for _, w := range writes {
		if err := w.write(); err != nil {
			s.logger.Warn().Err(err).
				Int64("surveillance_id", sid).
				Str("dependent", string(w.dep)).
				Msg("examination detail insert failed")
			res.Warnings = append(res.Warnings, DependentWriteError{Dependent: w.dep, Err: err})
		}
	}

	if NotFit(rec.FitnessStatus) || NotFit(parts.Fitness.Result) {
		res.NotFit = true
		res.Redirect = s.mrpURL(ctx, patientID, sid)
		return res, nil
	}

	companyID := s.companyID(ctx, patientID, in.CompanyID, query.Get("company_id"))
	if companyID == 0 {
		res.RedirectErr = ErrRedirectUnresolved
		return res, nil
	}
	res.Redirect = ListURL(companyID, patientID)
	return res, nil
}

// NotFit reports whether a fitness verdict contains "not fit" in any case.
func NotFit(verdict string) bool {
	return strings.Contains(strings.ToLower(verdict), "not fit")
}

// ListURL is the surveillance list filtered to one employee.
func ListURL(companyID, patientID int64) string {
	v := url.Values{}
	v.Set("company_id", strconv.FormatInt(companyID, 10))
	v.Set("patient_id", strconv.FormatInt(patientID, 10))
	return "/surveillance_list?" + v.Encode()
}

func (s *Service) mrpURL(ctx context.Context, patientID, surveillanceID int64) string {
	var patientName, employerName string
	if p, err := s.patients.Get(ctx, patientID); err != nil {
		s.logger.Warn().Err(err).Int64("patient_id", patientID).Msg("patient lookup for MRP failed")
	} else {
		patientName = p.FullName()
	}
	if h, err := s.patients.CurrentOccupationalHistory(ctx, patientID); err != nil {
		s.logger.Warn().Err(err).Int64("patient_id", patientID).Msg("employer lookup for MRP failed")
	} else if h != nil {
		employerName = h.CompanyName
	}

	v := url.Values{}
	v.Set("patient_name", patientName)
	v.Set("employer_name", employerName)
	v.Set("surveillance_id", strconv.FormatInt(surveillanceID, 10))
	return "/mrp_form?" + v.Encode()
}

// companyID tries the employment join, then the posted field, then the query.
func (s *Service) companyID(ctx context.Context, patientID int64, posted, queried string) int64 {
	if id := s.EmployerCompanyID(ctx, patientID); id > 0 {
		return id
	}
	if id := ParseID(posted); id > 0 {
		return id
	}
	return ParseID(queried)
}

// EmployerCompanyID is the company of the patient's current employment, or
// 0 when it cannot be determined.
func (s *Service) EmployerCompanyID(ctx context.Context, patientID int64) int64 {
	id, err := s.repo.CompanyIDForPatient(ctx, patientID)
	if err != nil {
		s.logger.Warn().Err(err).Int64("patient_id", patientID).Msg("employer company lookup failed")
		return 0
	}
	return id
}

// GetRecord returns an examination with its details.
func (s *Service) GetRecord(ctx context.Context, surveillanceID int64) (*FullRecord, error) {
	if surveillanceID <= 0 {
		return nil, fmt.Errorf("%w: invalid surveillance id", ErrValidation)
	}
	return s.repo.GetRecord(ctx, surveillanceID)
}

func (s *Service) DeleteRecord(ctx context.Context, surveillanceID int64) error {
	if surveillanceID <= 0 {
		return fmt.Errorf("%w: invalid surveillance id", ErrValidation)
	}
	if err := s.repo.DeleteRecord(ctx, surveillanceID); err != nil {
		return fmt.Errorf("delete examination %d: %w", surveillanceID, err)
	}
	return nil
}

// List returns the surveillance list: one row per examination, in query
// order, each decorated with its newest declaration. A failing declaration
// lookup leaves every row undecorated.
func (s *Service) List(ctx context.Context, f Filter) ([]ListRow, error) {
	raw, err := s.repo.ListRows(ctx, f)
	if err != nil {
		return nil, err
	}
	rows := Dedup(raw)

	ids := make([]int64, 0, len(rows))
	for _, r := range rows {
		if r.SurveillanceID != nil {
			ids = append(ids, *r.SurveillanceID)
		}
	}
	decls, err := s.declarations.AttachAll(ctx, ids)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		s.logger.Warn().Err(err).Int("rows", len(rows)).Msg("declaration lookup for list failed")
		decls = nil
	}
	for i := range rows {
		rows[i].Declaration = nil
		if rows[i].SurveillanceID != nil {
			rows[i].Declaration = decls[*rows[i].SurveillanceID]
		}
	}
	return rows, nil
}

// Dedup keeps the first row of every surveillance id and drops later ones.
// Order is preserved and rows without a surveillance id are all kept.
func Dedup(rows []ListRow) []ListRow {
	seen := make(map[int64]bool, len(rows))
	out := make([]ListRow, 0, len(rows))
	for _, r := range rows {
		if r.SurveillanceID != nil {
			if seen[*r.SurveillanceID] {
				continue
			}
			seen[*r.SurveillanceID] = true
		}
		out = append(out, r)
	}
	return out
}
