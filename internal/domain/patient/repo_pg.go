package patient

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ohclinic/ohclinic/internal/platform/db"
	"github.com/ohclinic/ohclinic/pkg/yesno"
)

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *repoPG) Create(ctx context.Context, p *Patient) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO patient_information (
			first_name, last_name, nric, passport_no, date_of_birth, gender,
			phone, email, address, ethnicity, citizenship,
			marital_status, no_of_children, years_married,
			smoking_history, years_of_smoking, no_of_cigarettes, vaping_history, alcohol_history
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING id, created_at, updated_at`,
		p.FirstName, p.LastName, p.NRIC, p.PassportNo, p.DateOfBirth, p.Gender,
		p.Phone, p.Email, p.Address, p.Ethnicity, p.Citizenship,
		p.MaritalStatus, p.NoOfChildren, p.YearsMarried,
		p.SmokingHistory, p.YearsOfSmoking, p.NoOfCigarettes, p.VapingHistory.Bool(), p.AlcoholHistory,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Patient, error) {
	return scanPatient(r.conn(ctx).QueryRow(ctx, `SELECT `+patientColumns+` FROM patient_information p WHERE p.id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, p *Patient) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE patient_information SET
			first_name = $2, last_name = $3, nric = $4, passport_no = $5, date_of_birth = $6, gender = $7,
			phone = $8, email = $9, address = $10, ethnicity = $11, citizenship = $12,
			marital_status = $13, no_of_children = $14, years_married = $15,
			smoking_history = $16, years_of_smoking = $17, no_of_cigarettes = $18,
			vaping_history = $19, alcohol_history = $20, updated_at = NOW()
		WHERE id = $1`,
		p.ID, p.FirstName, p.LastName, p.NRIC, p.PassportNo, p.DateOfBirth, p.Gender,
		p.Phone, p.Email, p.Address, p.Ethnicity, p.Citizenship,
		p.MaritalStatus, p.NoOfChildren, p.YearsMarried,
		p.SmokingHistory, p.YearsOfSmoking, p.NoOfCigarettes,
		p.VapingHistory.Bool(), p.AlcoholHistory,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) Search(ctx context.Context, name string, limit, offset int) ([]*Patient, int, error) {
	where := ``
	args := []interface{}{}
	if name != "" {
		where = ` WHERE (p.first_name || ' ' || p.last_name) ILIKE $1 OR p.nric ILIKE $1 OR p.passport_no ILIKE $1`
		args = append(args, "%"+name+"%")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM patient_information p`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+patientColumns+` FROM patient_information p`+where+
			` ORDER BY p.last_name, p.first_name, p.id LIMIT $`+strconv.Itoa(n+1)+` OFFSET $`+strconv.Itoa(n+2), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var patients []*Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, 0, err
		}
		patients = append(patients, p)
	}
	return patients, total, rows.Err()
}

func (r *repoPG) ListByCompany(ctx context.Context, companyID int64) ([]RosterEntry, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+patientColumns+`, COALESCE(oh.job_title, '')
		FROM patient_information p
		JOIN occupational_history oh ON oh.patient_id = p.id AND oh.is_current
		JOIN company c ON LOWER(TRIM(c.name)) = LOWER(TRIM(oh.company_name))
		WHERE c.id = $1
		ORDER BY p.last_name, p.first_name, p.id`, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var roster []RosterEntry
	for rows.Next() {
		var (
			p        Patient
			vaping   *bool
			jobTitle string
		)
		dest := append(patientDest(&p, &vaping), &jobTitle)
		if err := rows.Scan(dest...); err != nil {
			return nil, err
		}
		p.VapingHistory = yesno.FromBool(vaping)
		roster = append(roster, RosterEntry{Patient: &p, JobTitle: jobTitle})
	}
	return roster, rows.Err()
}

func (r *repoPG) AddOccupationalHistory(ctx context.Context, h *OccupationalHistory) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		if _, err := r.conn(ctx).Exec(ctx,
			`UPDATE occupational_history SET is_current = FALSE WHERE patient_id = $1 AND is_current`,
			h.PatientID,
		); err != nil {
			return err
		}
		h.IsCurrent = true
		return r.conn(ctx).QueryRow(ctx, `
			INSERT INTO occupational_history (
				patient_id, company_name, job_title, department,
				employment_start, employment_end, is_current
			) VALUES ($1, $2, $3, $4, $5, $6, TRUE)
			RETURNING id, created_at`,
			h.PatientID, h.CompanyName, h.JobTitle, h.Department,
			h.EmploymentStart, h.EmploymentEnd,
		).Scan(&h.ID, &h.CreatedAt)
	})
}

func (r *repoPG) CurrentOccupationalHistory(ctx context.Context, patientID int64) (*OccupationalHistory, error) {
	row := r.conn(ctx).QueryRow(ctx,
		`SELECT `+historyColumns+` FROM occupational_history WHERE patient_id = $1 AND is_current`, patientID)
	h, err := scanHistory(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return h, err
}

func (r *repoPG) ListOccupationalHistory(ctx context.Context, patientID int64) ([]*OccupationalHistory, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+historyColumns+` FROM occupational_history WHERE patient_id = $1
		 ORDER BY is_current DESC, employment_start DESC NULLS LAST, id DESC`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*OccupationalHistory
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

const patientColumns = `p.id, p.first_name, p.last_name, COALESCE(p.nric, ''), COALESCE(p.passport_no, ''),
	p.date_of_birth, COALESCE(p.gender, ''), COALESCE(p.phone, ''), COALESCE(p.email, ''),
	COALESCE(p.address, ''), COALESCE(p.ethnicity, ''), COALESCE(p.citizenship, ''),
	COALESCE(p.marital_status, ''), p.no_of_children, p.years_married,
	COALESCE(p.smoking_history, ''), p.years_of_smoking, p.no_of_cigarettes,
	p.vaping_history, COALESCE(p.alcohol_history, ''), p.created_at, p.updated_at`

func patientDest(p *Patient, vaping **bool) []interface{} {
	return []interface{}{
		&p.ID, &p.FirstName, &p.LastName, &p.NRIC, &p.PassportNo,
		&p.DateOfBirth, &p.Gender, &p.Phone, &p.Email,
		&p.Address, &p.Ethnicity, &p.Citizenship,
		&p.MaritalStatus, &p.NoOfChildren, &p.YearsMarried,
		&p.SmokingHistory, &p.YearsOfSmoking, &p.NoOfCigarettes,
		vaping, &p.AlcoholHistory, &p.CreatedAt, &p.UpdatedAt,
	}
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var (
		p      Patient
		vaping *bool
	)
	if err := row.Scan(patientDest(&p, &vaping)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.VapingHistory = yesno.FromBool(vaping)
	return &p, nil
}

const historyColumns = `id, patient_id, company_name, COALESCE(job_title, ''), COALESCE(department, ''),
	employment_start, employment_end, is_current, created_at`

func scanHistory(row pgx.Row) (*OccupationalHistory, error) {
	var h OccupationalHistory
	err := row.Scan(
		&h.ID, &h.PatientID, &h.CompanyName, &h.JobTitle, &h.Department,
		&h.EmploymentStart, &h.EmploymentEnd, &h.IsCurrent, &h.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &h, nil
}
