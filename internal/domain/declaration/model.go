package declaration

import "time"

// Tier identifies which lookup found a declaration.
type Tier int

const (
	TierNone Tier = iota
	TierDeclarationID
	TierSurveillanceID
	TierNameAndDate
)

func (t Tier) String() string {
	switch t {
	case TierDeclarationID:
		return "declaration_id"
	case TierSurveillanceID:
		return "surveillance_id"
	case TierNameAndDate:
		return "name_and_date"
	default:
		return "none"
	}
}

// Declaration maps to the declarations table: the patient and doctor
// attestation signed for an examination.
type Declaration struct {
	ID               int64      `db:"id"`
	SurveillanceID   *int64     `db:"surveillance_id"`
	PatientName      string     `db:"patient_name"`
	PatientSignature string     `db:"patient_signature"`
	DoctorSignature  string     `db:"doctor_signature"`
	PatientDate      *time.Time `db:"patient_date"`
	DoctorDate       *time.Time `db:"doctor_date"`
	CreatedAt        time.Time  `db:"created_at"`

	// MatchedBy is set by the resolver.
	MatchedBy Tier `db:"-"`
}

// Lookup carries every key the resolver may try, in precedence order.
type Lookup struct {
	DeclarationID   int64
	SurveillanceID  int64
	PatientName     string
	ExaminationDate *time.Time
}
