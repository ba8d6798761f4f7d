package patient

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ohclinic/ohclinic/pkg/yesno"
)

const dateInputLayout = "2006-01-02"

// Form is the patient_form body. Dates and counts arrive as strings.
type Form struct {
	ID             string      `form:"id"`
	FirstName      string      `form:"first_name"`
	LastName       string      `form:"last_name"`
	NRIC           string      `form:"nric"`
	PassportNo     string      `form:"passport_no"`
	DateOfBirth    string      `form:"date_of_birth"`
	Gender         string      `form:"gender"`
	Phone          string      `form:"phone"`
	Email          string      `form:"email"`
	Address        string      `form:"address"`
	Ethnicity      string      `form:"ethnicity"`
	Citizenship    string      `form:"citizenship"`
	MaritalStatus  string      `form:"marital_status"`
	NoOfChildren   string      `form:"no_of_children"`
	YearsMarried   string      `form:"years_married"`
	SmokingHistory string      `form:"smoking_history"`
	YearsOfSmoking string      `form:"years_of_smoking"`
	NoOfCigarettes string      `form:"no_of_cigarettes"`
	VapingHistory  yesno.Value `form:"vaping_history"`
	AlcoholHistory string      `form:"alcohol_history"`
}

// Patient converts the form, reporting the first malformed field.
func (f *Form) Patient() (*Patient, error) {
	p := &Patient{
		FirstName:      f.FirstName,
		LastName:       f.LastName,
		NRIC:           f.NRIC,
		PassportNo:     f.PassportNo,
		Gender:         f.Gender,
		Phone:          f.Phone,
		Email:          f.Email,
		Address:        f.Address,
		Ethnicity:      f.Ethnicity,
		Citizenship:    f.Citizenship,
		MaritalStatus:  f.MaritalStatus,
		SmokingHistory: f.SmokingHistory,
		VapingHistory:  f.VapingHistory,
		AlcoholHistory: f.AlcoholHistory,
	}

	var err error
	if p.ID, err = optionalID(f.ID); err != nil {
		return p, err
	}
	if p.DateOfBirth, err = ParseDate(f.DateOfBirth); err != nil {
		return p, fmt.Errorf("%w: date of birth: %v", ErrInvalid, err)
	}
	counts := []struct {
		raw  string
		dst  **int
		name string
	}{
		{f.NoOfChildren, &p.NoOfChildren, "number of children"},
		{f.YearsMarried, &p.YearsMarried, "years married"},
		{f.YearsOfSmoking, &p.YearsOfSmoking, "years of smoking"},
		{f.NoOfCigarettes, &p.NoOfCigarettes, "cigarettes per day"},
	}
	for _, c := range counts {
		if *c.dst, err = optionalInt(c.raw); err != nil {
			return p, fmt.Errorf("%w: %s must be a number", ErrInvalid, c.name)
		}
	}
	return p, nil
}

// FormFromPatient pre-fills the form for editing.
func FormFromPatient(p *Patient) Form {
	f := Form{
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		NRIC:           p.NRIC,
		PassportNo:     p.PassportNo,
		Gender:         p.Gender,
		Phone:          p.Phone,
		Email:          p.Email,
		Address:        p.Address,
		Ethnicity:      p.Ethnicity,
		Citizenship:    p.Citizenship,
		MaritalStatus:  p.MaritalStatus,
		SmokingHistory: p.SmokingHistory,
		VapingHistory:  p.VapingHistory,
		AlcoholHistory: p.AlcoholHistory,
		NoOfChildren:   intString(p.NoOfChildren),
		YearsMarried:   intString(p.YearsMarried),
		YearsOfSmoking: intString(p.YearsOfSmoking),
		NoOfCigarettes: intString(p.NoOfCigarettes),
	}
	if p.ID > 0 {
		f.ID = strconv.FormatInt(p.ID, 10)
	}
	if p.DateOfBirth != nil {
		f.DateOfBirth = p.DateOfBirth.Format(dateInputLayout)
	}
	return f
}

// HistoryForm is the occupational history sub-form.
type HistoryForm struct {
	PatientID       string `form:"patient_id"`
	CompanyName     string `form:"company_name"`
	JobTitle        string `form:"job_title"`
	Department      string `form:"department"`
	EmploymentStart string `form:"employment_start"`
	EmploymentEnd   string `form:"employment_end"`
}

func (f *HistoryForm) History() (*OccupationalHistory, error) {
	id, err := optionalID(f.PatientID)
	if err != nil || id <= 0 {
		return nil, ErrNotFound
	}
	h := &OccupationalHistory{
		PatientID:   id,
		CompanyName: f.CompanyName,
		JobTitle:    f.JobTitle,
		Department:  f.Department,
	}
	if h.EmploymentStart, err = ParseDate(f.EmploymentStart); err != nil {
		return nil, fmt.Errorf("%w: employment start: %v", ErrInvalid, err)
	}
	if h.EmploymentEnd, err = ParseDate(f.EmploymentEnd); err != nil {
		return nil, fmt.Errorf("%w: employment end: %v", ErrInvalid, err)
	}
	return h, nil
}

// ParseDate reads an HTML date input. Blank is nil.
func ParseDate(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateInputLayout, s)
	if err != nil {
		return nil, fmt.Errorf("expected YYYY-MM-DD")
	}
	return &t, nil
}

func optionalID(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: bad id", ErrInvalid)
	}
	return id, nil
}

func optionalInt(s string) (*int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, err
	}
	return &n, nil
}

func intString(n *int) string {
	if n == nil {
		return ""
	}
	return strconv.Itoa(*n)
}
