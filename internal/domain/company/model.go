package company

import (
	"strings"
	"time"
)

// Company maps to the company table. Name is the business key that
// occupational history rows join on.
type Company struct {
	ID             int64     `db:"id"`
	Name           string    `db:"name" form:"name"`
	Address        string    `db:"address" form:"address"`
	District       string    `db:"district" form:"district"`
	State          string    `db:"state" form:"state"`
	Postcode       string    `db:"postcode" form:"postcode"`
	Telephone      string    `db:"telephone" form:"telephone"`
	Fax            string    `db:"fax" form:"fax"`
	Email          string    `db:"email" form:"email"`
	RegistrationNo string    `db:"registration_no" form:"registration_no"`
	CreatedAt      time.Time `db:"created_at"`
	UpdatedAt      time.Time `db:"updated_at"`
}

// NormalizeName is the comparison form of a company name.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
