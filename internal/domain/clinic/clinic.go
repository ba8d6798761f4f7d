// Package clinic provides the clinic identity printed on reports and the
// examiner name defaulted into examination forms.
package clinic

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/ohclinic/ohclinic/internal/platform/db"
	"github.com/ohclinic/ohclinic/internal/platform/session"
)

// Profile is the clinic and doctor identity shown on generated documents.
type Profile struct {
	ClinicName string
	Address    string
	Phone      string
	DoctorName string
	DoctorMMC  string
	DoctorDOSH string
}

// Merge fills blank fields of p from fallback.
func (p Profile) Merge(fallback Profile) Profile {
	pick := func(v, def string) string {
		if strings.TrimSpace(v) == "" {
			return def
		}
		return v
	}
	return Profile{
		ClinicName: pick(p.ClinicName, fallback.ClinicName),
		Address:    pick(p.Address, fallback.Address),
		Phone:      pick(p.Phone, fallback.Phone),
		DoctorName: pick(p.DoctorName, fallback.DoctorName),
		DoctorMMC:  pick(p.DoctorMMC, fallback.DoctorMMC),
		DoctorDOSH: pick(p.DoctorDOSH, fallback.DoctorDOSH),
	}
}

// StaffMember is a medical_staff row.
type StaffMember struct {
	FullName  string
	MMCNo     string
	DOSHRegNo string
}

var ErrNotFound = errors.New("not found")

// Repository reads the seeded clinic profile and medical staff identities.
type Repository interface {
	Profile(ctx context.Context) (*Profile, error)
	StaffByUserID(ctx context.Context, userID int64) (*StaffMember, error)
}

type Service struct {
	repo     Repository
	defaults Profile
	logger   zerolog.Logger
}

// NewService takes the configured profile used when the table is empty or
// unreachable.
func NewService(repo Repository, defaults Profile, logger zerolog.Logger) *Service {
	return &Service{repo: repo, defaults: defaults, logger: logger}
}

// Profile returns the stored clinic profile with blanks filled from the
// configured defaults. It never fails.
func (s *Service) Profile(ctx context.Context) Profile {
	p, err := s.repo.Profile(ctx)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn().Err(err).Msg("clinic profile lookup failed, using configured defaults")
		}
		return s.defaults
	}
	return p.Merge(s.defaults)
}

// Doctor returns the medical staff identity of a Doctor user, or nil.
func (s *Service) Doctor(ctx context.Context, u session.User) *StaffMember {
	if !strings.EqualFold(u.Role, session.RoleDoctor) {
		return nil
	}
	m, err := s.repo.StaffByUserID(ctx, u.ID)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.logger.Warn().Err(err).Int64("user_id", u.ID).Msg("medical staff lookup failed")
		}
		return nil
	}
	return m
}

// ExaminerName is the default examiner on a new examination: the doctor's
// registered full name, otherwise the username.
func (s *Service) ExaminerName(ctx context.Context, u session.User) string {
	if m := s.Doctor(ctx, u); m != nil && strings.TrimSpace(m.FullName) != "" {
		return m.FullName
	}
	return u.Username
}

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) Profile(ctx context.Context) (*Profile, error) {
	var p Profile
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT clinic_name, address, phone, doctor_name, doctor_mmc, doctor_dosh
		FROM clinic_profile ORDER BY id LIMIT 1`,
	).Scan(&p.ClinicName, &p.Address, &p.Phone, &p.DoctorName, &p.DoctorMMC, &p.DoctorDOSH)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *repoPG) StaffByUserID(ctx context.Context, userID int64) (*StaffMember, error) {
	var m StaffMember
	err := db.Conn(ctx, r.pool).QueryRow(ctx, `
		SELECT full_name, COALESCE(mmc_no, ''), COALESCE(dosh_reg_no, '')
		FROM medical_staff WHERE user_id = $1`, userID,
	).Scan(&m.FullName, &m.MMCNo, &m.DOSHRegNo)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
