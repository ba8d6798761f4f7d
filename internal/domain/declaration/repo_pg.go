package declaration

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ohclinic/ohclinic/internal/platform/db"
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

func (r *repoPG) Create(ctx context.Context, d *Declaration) error {
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO declarations (
			surveillance_id, patient_name, patient_signature, doctor_signature, patient_date, doctor_date
		) VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at`,
		d.SurveillanceID, d.PatientName, d.PatientSignature, d.DoctorSignature, d.PatientDate, d.DoctorDate,
	).Scan(&d.ID, &d.CreatedAt)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Declaration, error) {
	return scanOne(r.conn(ctx).QueryRow(ctx, `SELECT `+declColumns+` FROM declarations WHERE id = $1`, id))
}

func (r *repoPG) LatestBySurveillanceID(ctx context.Context, surveillanceID int64) (*Declaration, error) {
	return scanOne(r.conn(ctx).QueryRow(ctx,
		`SELECT `+declColumns+` FROM declarations WHERE surveillance_id = $1 ORDER BY id DESC LIMIT 1`,
		surveillanceID))
}

// LatestByNameAndDate casts patient_date in the session time zone, which
// db.NewPool pins to the clinic's.
func (r *repoPG) LatestByNameAndDate(ctx context.Context, patientName string, day time.Time) (*Declaration, error) {
	return scanOne(r.conn(ctx).QueryRow(ctx,
		`SELECT `+declColumns+` FROM declarations
		 WHERE patient_name = $1 AND patient_date::date = $2::date
		 ORDER BY id DESC LIMIT 1`,
		patientName, day.Format("2006-01-02")))
}

func (r *repoPG) ListBySurveillanceIDs(ctx context.Context, ids []int64) ([]*Declaration, error) {
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+declColumns+` FROM declarations WHERE surveillance_id = ANY($1) ORDER BY id DESC`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Declaration
	for rows.Next() {
		d, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

const declColumns = `id, surveillance_id, patient_name, COALESCE(patient_signature, ''),
	COALESCE(doctor_signature, ''), patient_date, doctor_date, created_at`

func scan(row pgx.Row) (*Declaration, error) {
	var d Declaration
	err := row.Scan(&d.ID, &d.SurveillanceID, &d.PatientName, &d.PatientSignature,
		&d.DoctorSignature, &d.PatientDate, &d.DoctorDate, &d.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func scanOne(row pgx.Row) (*Declaration, error) {
	d, err := scan(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return d, err
}
