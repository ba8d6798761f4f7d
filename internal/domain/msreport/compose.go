package msreport

import (
	"strings"
	"time"

	"github.com/ohclinic/ohclinic/internal/domain/clinic"
	"github.com/ohclinic/ohclinic/internal/domain/company"
	"github.com/ohclinic/ohclinic/internal/domain/patient"
	"github.com/ohclinic/ohclinic/internal/domain/surveillance"
	"github.com/ohclinic/ohclinic/internal/platform/blobstore"
	"github.com/ohclinic/ohclinic/internal/platform/web"
)

// Placeholder is printed wherever a value is missing.
const Placeholder = "-"

// ComposeInput is everything the report is built from.
type ComposeInput struct {
	Company *company.Company
	Roster  []patient.RosterEntry
	Rows    []surveillance.ListRow
	Meta    *Report
	Clinic  clinic.Profile
	Header  *blobstore.Header
	Now     time.Time
}

// Document is the fully substituted report. Every string is printable.
type Document struct {
	Clinic      clinic.Profile
	Company     CompanyBlock
	Header      *blobstore.Header
	Indications []IndicationLine
	Others      string

	CHRAReportNo           string
	CHRADate               string
	AssessorName           string
	DecisionSummary        string
	RecommendationsSummary string

	Employees   []EmployeeLine
	Summary     Summary
	GeneratedOn string
}

type CompanyBlock struct {
	Name           string
	Address        string
	Postcode       string
	District       string
	State          string
	Telephone      string
	Fax            string
	Email          string
	RegistrationNo string
}

type IndicationLine struct {
	Label   string
	Checked bool
}

type EmployeeLine struct {
	No              int
	Name            string
	Identification  string
	JobTitle        string
	Chemical        string
	ExaminationDate string
	Fitness         string
	Recommendation  string
}

// Summary counts are over the current roster.
type Summary struct {
	Employees      int
	Examined       int
	Fit            int
	NotFit         int
	MRPRecommended int
}

// IsMRP reports whether a recommendation removes the worker from exposure.
func IsMRP(recommendation string) bool {
	r := strings.ToLower(recommendation)
	return strings.Contains(r, "removal") || strings.Contains(r, "mrp")
}

// Compose builds the report, substituting clinic defaults and placeholders
// for anything absent. Each employee is reported with their most recent
// examination on record, whichever employer it was done for: rows arrive
// newest first and the first row per patient wins.
func Compose(in ComposeInput) *Document {
	prof := in.Clinic
	doc := &Document{
		Clinic:      profileOrPlaceholder(prof),
		Header:      in.Header,
		GeneratedOn: web.FormatDate(in.Now),
	}
	if in.Company != nil {
		c := in.Company
		doc.Company = CompanyBlock{
			Name: web.Dash(c.Name), Address: web.Dash(c.Address), Postcode: web.Dash(c.Postcode),
			District: web.Dash(c.District), State: web.Dash(c.State), Telephone: web.Dash(c.Telephone),
			Fax: web.Dash(c.Fax), Email: web.Dash(c.Email), RegistrationNo: web.Dash(c.RegistrationNo),
		}
	} else {
		doc.Company = CompanyBlock{
			Name: Placeholder, Address: Placeholder, Postcode: Placeholder, District: Placeholder,
			State: Placeholder, Telephone: Placeholder, Fax: Placeholder, Email: Placeholder,
			RegistrationNo: Placeholder,
		}
	}

	meta := in.Meta
	if meta == nil {
		meta = &Report{}
	}
	for _, ind := range Indications {
		doc.Indications = append(doc.Indications, IndicationLine{Label: ind.Label, Checked: meta.Has(ind.Key)})
	}
	doc.Others = Placeholder
	if meta.Has(IndicationOthers) {
		doc.Others = web.Dash(meta.OthersDetails)
	}
	doc.CHRAReportNo = web.Dash(meta.CHRAReportNo)
	doc.CHRADate = web.FormatDate(meta.CHRADate)
	doc.AssessorName = firstNonBlank(meta.AssessorName, prof.DoctorName)
	doc.DecisionSummary = web.Dash(meta.DecisionSummary)
	doc.RecommendationsSummary = web.Dash(meta.RecommendationsSummary)

	latest := make(map[int64]surveillance.ListRow)
	for _, r := range in.Rows {
		if r.SurveillanceID == nil {
			continue
		}
		if _, ok := latest[r.PatientID]; !ok {
			latest[r.PatientID] = r
		}
	}

	doc.Summary.Employees = len(in.Roster)
	for i, e := range in.Roster {
		line := EmployeeLine{
			No:              i + 1,
			Name:            Placeholder,
			Identification:  Placeholder,
			JobTitle:        web.Dash(e.JobTitle),
			Chemical:        Placeholder,
			ExaminationDate: Placeholder,
			Fitness:         Placeholder,
			Recommendation:  Placeholder,
		}
		if e.Patient == nil {
			doc.Employees = append(doc.Employees, line)
			continue
		}
		line.Name = web.Dash(e.Patient.FullName())
		line.Identification = web.Dash(e.Patient.Identification())

		if r, ok := latest[e.Patient.ID]; ok {
			doc.Summary.Examined++
			line.Chemical = web.Dash(r.Chemical)
			line.ExaminationDate = web.FormatDate(r.ExaminationDate)
			line.Fitness = web.Dash(r.FitnessStatus)
			line.Recommendation = web.Dash(r.RecommendationType)

			switch {
			case surveillance.NotFit(r.FitnessStatus) || surveillance.NotFit(r.RespiratorResult):
				doc.Summary.NotFit++
			case strings.TrimSpace(r.FitnessStatus) != "":
				doc.Summary.Fit++
			}
			if IsMRP(r.RecommendationType) {
				doc.Summary.MRPRecommended++
			}
		}
		doc.Employees = append(doc.Employees, line)
	}
	return doc
}

func profileOrPlaceholder(p clinic.Profile) clinic.Profile {
	return p.Merge(clinic.Profile{
		ClinicName: Placeholder, Address: Placeholder, Phone: Placeholder,
		DoctorName: Placeholder, DoctorMMC: Placeholder, DoctorDOSH: Placeholder,
	})
}

func firstNonBlank(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return Placeholder
}
