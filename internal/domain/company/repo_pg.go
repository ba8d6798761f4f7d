package company

import (
	"context"
	"errors"
	"strconv"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ohclinic/ohclinic/internal/platform/db"
)

const uniqueViolation = "23505"

type repoPG struct {
	pool *pgxpool.Pool
}

func NewRepo(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) db.Querier {
	return db.Conn(ctx, r.pool)
}

func (r *repoPG) Create(ctx context.Context, c *Company) error {
	err := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO company (
			name, address, district, state, postcode,
			telephone, fax, email, registration_no
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at`,
		c.Name, c.Address, c.District, c.State, c.Postcode,
		c.Telephone, c.Fax, c.Email, c.RegistrationNo,
	).Scan(&c.ID, &c.CreatedAt, &c.UpdatedAt)
	return translate(err)
}

func (r *repoPG) GetByID(ctx context.Context, id int64) (*Company, error) {
	return scanCompany(r.conn(ctx).QueryRow(ctx, `SELECT `+companyColumns+` FROM company WHERE id = $1`, id))
}

func (r *repoPG) Update(ctx context.Context, c *Company, oldName string) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		tag, err := r.conn(ctx).Exec(ctx, `
			UPDATE company SET
				name = $2, address = $3, district = $4, state = $5, postcode = $6,
				telephone = $7, fax = $8, email = $9, registration_no = $10,
				updated_at = NOW()
			WHERE id = $1`,
			c.ID, c.Name, c.Address, c.District, c.State, c.Postcode,
			c.Telephone, c.Fax, c.Email, c.RegistrationNo,
		)
		if err != nil {
			return translate(err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		if oldName == c.Name {
			return nil
		}
		_, err = r.conn(ctx).Exec(ctx, `
			UPDATE occupational_history SET company_name = $2
			WHERE LOWER(TRIM(company_name)) = LOWER(TRIM($1))`,
			oldName, c.Name,
		)
		return err
	})
}

func (r *repoPG) Delete(ctx context.Context, id int64) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM company WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *repoPG) List(ctx context.Context, limit, offset int) ([]*Company, int, error) {
	return r.Search(ctx, "", limit, offset)
}

func (r *repoPG) Search(ctx context.Context, name string, limit, offset int) ([]*Company, int, error) {
	where := ``
	args := []interface{}{}
	if name != "" {
		where = ` WHERE name ILIKE $1`
		args = append(args, "%"+name+"%")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM company`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	n := len(args)
	args = append(args, limit, offset)
	rows, err := r.conn(ctx).Query(ctx,
		`SELECT `+companyColumns+` FROM company`+where+
			` ORDER BY name LIMIT $`+strconv.Itoa(n+1)+` OFFSET $`+strconv.Itoa(n+2), args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var companies []*Company
	for rows.Next() {
		c, err := scanCompany(rows)
		if err != nil {
			return nil, 0, err
		}
		companies = append(companies, c)
	}
	return companies, total, rows.Err()
}

const companyColumns = `id, name, COALESCE(address, ''), COALESCE(district, ''), COALESCE(state, ''),
	COALESCE(postcode, ''), COALESCE(telephone, ''), COALESCE(fax, ''), COALESCE(email, ''),
	COALESCE(registration_no, ''), created_at, updated_at`

func scanCompany(row pgx.Row) (*Company, error) {
	var c Company
	err := row.Scan(
		&c.ID, &c.Name, &c.Address, &c.District, &c.State,
		&c.Postcode, &c.Telephone, &c.Fax, &c.Email,
		&c.RegistrationNo, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func translate(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return ErrDuplicateName
	}
	return err
}
