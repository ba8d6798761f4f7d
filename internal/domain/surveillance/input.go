package surveillance

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ohclinic/ohclinic/internal/platform/middleware"
)

// OtherOption is the selector value that defers to the free-text field.
const OtherOption = "Other"

const dateInputLayout = "2006-01-02"

// Accepted ranges for the vital signs. The float bounds stay inside the
// NUMERIC(5,1) and NUMERIC(4,1) columns they are stored in.
const (
	minWeightKg, maxWeightKg = 0.5, 500.0
	minHeightCm, maxHeightCm = 30.0, 300.0
	minBMI, maxBMI           = 5.0, 200.0
)

// SaveInput is the flat surveillance_form body covering every tab. Numeric
// and date fields arrive as strings and are parsed by Build.
type SaveInput struct {
	PatientID string `form:"patient_id"`
	CompanyID string `form:"company_id"`

	Workplace       string `form:"workplace"`
	Chemical        string `form:"chemical"`
	ChemicalOther   string `form:"chemical_other"`
	ExaminationType string `form:"examination_type"`
	ExaminationDate string `form:"examination_date"`
	ExaminerName    string `form:"examiner_name"`

	History  HistoryOfHealth
	Findings ClinicalFindings

	WeightKg        string `form:"weight_kg"`
	HeightCm        string `form:"height_cm"`
	BMI             string `form:"bmi"`
	BPSystolic      string `form:"bp_systolic"`
	BPDiastolic     string `form:"bp_diastolic"`
	PulseRate       string `form:"pulse_rate"`
	RespiratoryRate string `form:"respiratory_rate"`
	Physical        PhysicalExam

	TargetOrgan TargetOrgan

	BiologicalExposure      string `form:"biological_exposure"`
	BiologicalExposureOther string `form:"biological_exposure_other"`
	Biological              BiologicalMonitoring

	Fitness       FitnessRespirator
	FitnessStatus string `form:"fitness_status"`

	Conclusion Conclusion

	RecommendationType  string `form:"recommendation_type"`
	DateOfMRP           string `form:"date_of_mrp"`
	NextReviewDate      string `form:"next_review_date"`
	RecommendationNotes string `form:"recommendation_notes"`
}

// Parts is a validated SaveInput split into the rows that get written.
type Parts struct {
	Record         Record
	TargetOrgan    TargetOrgan
	Biological     BiologicalMonitoring
	Fitness        FitnessRespirator
	Conclusion     Conclusion
	Recommendation Recommendation
}

// Build parses and converts the input for the given patient. Malformed
// numbers or dates are validation errors.
func (in *SaveInput) Build(patientID int64) (*Parts, error) {
	var (
		p   Parts
		err error
	)

	r := &p.Record
	r.PatientID = patientID
	r.Workplace = clean(in.Workplace)
	r.Chemical = resolveOther(in.Chemical, in.ChemicalOther)
	r.ExaminationType = clean(in.ExaminationType)
	r.ExaminerName = clean(in.ExaminerName)
	r.FitnessStatus = clean(in.FitnessStatus)
	if r.ExaminationDate, err = parseDate("examination date", in.ExaminationDate); err != nil {
		return nil, err
	}

	r.History = in.History
	r.History.OthersSymptoms = clean(r.History.OthersSymptoms)
	r.Findings = in.Findings
	r.Findings.Notes = clean(r.Findings.Notes)

	r.Physical = in.Physical
	phys := &r.Physical
	floats := []struct {
		name   string
		raw    string
		lo, hi float64
		dst    **float64
	}{
		{"weight", in.WeightKg, minWeightKg, maxWeightKg, &phys.WeightKg},
		{"height", in.HeightCm, minHeightCm, maxHeightCm, &phys.HeightCm},
		{"BMI", in.BMI, minBMI, maxBMI, &phys.BMI},
	}
	for _, f := range floats {
		if *f.dst, err = parseFloat(f.name, f.raw, f.lo, f.hi); err != nil {
			return nil, err
		}
	}
	ints := []struct {
		name   string
		raw    string
		lo, hi int
		dst    **int
	}{
		{"systolic blood pressure", in.BPSystolic, 40, 300, &phys.BPSystolic},
		{"diastolic blood pressure", in.BPDiastolic, 20, 200, &phys.BPDiastolic},
		{"pulse rate", in.PulseRate, 20, 300, &phys.PulseRate},
		{"respiratory rate", in.RespiratoryRate, 4, 80, &phys.RespiratoryRate},
	}
	for _, f := range ints {
		if *f.dst, err = parseInt(f.name, f.raw, f.lo, f.hi); err != nil {
			return nil, err
		}
	}
	if phys.BMI == nil {
		phys.BMI = ComputeBMI(phys.WeightKg, phys.HeightCm)
		if phys.BMI != nil && (*phys.BMI < minBMI || *phys.BMI > maxBMI) {
			return nil, fmt.Errorf("%w: weight and height give an implausible BMI of %.1f", ErrValidation, *phys.BMI)
		}
	}

	p.TargetOrgan = in.TargetOrgan
	p.Biological = in.Biological
	p.Biological.BiologicalExposure = resolveOther(in.BiologicalExposure, in.BiologicalExposureOther)
	p.Fitness = in.Fitness
	p.Fitness.Result = clean(p.Fitness.Result)
	p.Conclusion = in.Conclusion
	p.Conclusion.Notes = clean(p.Conclusion.Notes)

	p.Recommendation.RecommendationType = clean(in.RecommendationType)
	p.Recommendation.Notes = clean(in.RecommendationNotes)
	if p.Recommendation.DateOfMRP, err = parseDate("date of MRP", in.DateOfMRP); err != nil {
		return nil, err
	}
	if p.Recommendation.NextReviewDate, err = parseDate("next review date", in.NextReviewDate); err != nil {
		return nil, err
	}

	return &p, nil
}

// resolveOther substitutes the free-text value when the selector is the
// literal "Other".
func resolveOther(selected, other string) string {
	selected = clean(selected)
	if selected == OtherOption {
		return clean(other)
	}
	return selected
}

// ComputeBMI returns weight / height² rounded to one decimal, or nil when
// either measurement is missing or non-positive.
func ComputeBMI(weightKg, heightCm *float64) *float64 {
	if weightKg == nil || heightCm == nil || *weightKg <= 0 || *heightCm <= 0 {
		return nil
	}
	m := *heightCm / 100
	bmi := math.Round(*weightKg/(m*m)*10) / 10
	return &bmi
}

func clean(s string) string {
	return middleware.SanitizeString(s)
}

func parseDate(name, s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateInputLayout, s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be YYYY-MM-DD", ErrValidation, name)
	}
	return &t, nil
}

// parseFloat reads an optional measurement within [lo, hi]. NaN fails
// both comparisons and is rejected with everything else out of range.
func parseFloat(name, s string, lo, hi float64) (*float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !(v >= lo && v <= hi) {
		return nil, fmt.Errorf("%w: %s must be a number between %g and %g", ErrValidation, name, lo, hi)
	}
	return &v, nil
}

func parseInt(name, s string, lo, hi int) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < lo || v > hi {
		return nil, fmt.Errorf("%w: %s must be a whole number between %d and %d", ErrValidation, name, lo, hi)
	}
	return &v, nil
}

// ParseID reads a positive identifier. Blank, malformed and non-positive
// values return 0.
func ParseID(s string) int64 {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}
