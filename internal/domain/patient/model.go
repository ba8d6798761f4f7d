package patient

import (
	"strings"
	"time"

	"github.com/ohclinic/ohclinic/pkg/yesno"
)

// Patient maps to the patient_information table.
type Patient struct {
	ID             int64       `db:"id"`
	FirstName      string      `db:"first_name"`
	LastName       string      `db:"last_name"`
	NRIC           string      `db:"nric"`
	PassportNo     string      `db:"passport_no"`
	DateOfBirth    *time.Time  `db:"date_of_birth"`
	Gender         string      `db:"gender"`
	Phone          string      `db:"phone"`
	Email          string      `db:"email"`
	Address        string      `db:"address"`
	Ethnicity      string      `db:"ethnicity"`
	Citizenship    string      `db:"citizenship"`
	MaritalStatus  string      `db:"marital_status"`
	NoOfChildren   *int        `db:"no_of_children"`
	YearsMarried   *int        `db:"years_married"`
	SmokingHistory string      `db:"smoking_history"`
	YearsOfSmoking *int        `db:"years_of_smoking"`
	NoOfCigarettes *int        `db:"no_of_cigarettes"`
	VapingHistory  yesno.Value `db:"vaping_history"`
	AlcoholHistory string      `db:"alcohol_history"`
	CreatedAt      time.Time   `db:"created_at"`
	UpdatedAt      time.Time   `db:"updated_at"`
}

// FullName is first and last name joined by a space, trimmed. Declarations
// are matched against this exact string.
func (p *Patient) FullName() string {
	return strings.TrimSpace(strings.TrimSpace(p.FirstName) + " " + strings.TrimSpace(p.LastName))
}

// Identification returns the NRIC, or the passport number for foreign workers.
func (p *Patient) Identification() string {
	if p.NRIC != "" {
		return p.NRIC
	}
	return p.PassportNo
}

// Age in whole years at the given date, or -1 when the birth date is unknown.
func (p *Patient) Age(at time.Time) int {
	if p.DateOfBirth == nil {
		return -1
	}
	dob := *p.DateOfBirth
	age := at.Year() - dob.Year()
	if at.Month() < dob.Month() || (at.Month() == dob.Month() && at.Day() < dob.Day()) {
		age--
	}
	return age
}

// OccupationalHistory maps to the occupational_history table. Exactly one
// row per patient has IsCurrent set once any row exists.
type OccupationalHistory struct {
	ID              int64      `db:"id"`
	PatientID       int64      `db:"patient_id"`
	CompanyName     string     `db:"company_name"`
	JobTitle        string     `db:"job_title"`
	Department      string     `db:"department"`
	EmploymentStart *time.Time `db:"employment_start"`
	EmploymentEnd   *time.Time `db:"employment_end"`
	IsCurrent       bool       `db:"is_current"`
	CreatedAt       time.Time  `db:"created_at"`
}

// RosterEntry is one employee of a company with their current position.
type RosterEntry struct {
	Patient  *Patient
	JobTitle string
}
