package auth

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ohclinic/ohclinic/internal/platform/db"
)

type userRepoPG struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) UserRepository {
	return &userRepoPG{pool: pool}
}

func (r *userRepoPG) GetByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := db.Conn(ctx, r.pool).QueryRow(ctx,
		`SELECT id, username, password_hash, role, created_at FROM users WHERE username = $1`, username,
	).Scan(&u.ID, &u.Username, &u.PasswordHash, &u.Role, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepoPG) Create(ctx context.Context, u *User, staff *StaffProfile) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		q := db.Conn(ctx, r.pool)
		err := q.QueryRow(ctx,
			`INSERT INTO users (username, password_hash, role) VALUES ($1, $2, $3)
			 RETURNING id, created_at`,
			u.Username, u.PasswordHash, u.Role,
		).Scan(&u.ID, &u.CreatedAt)
		if err != nil {
			return err
		}
		if staff == nil {
			return nil
		}
		_, err = q.Exec(ctx,
			`INSERT INTO medical_staff (user_id, full_name, mmc_no, dosh_reg_no) VALUES ($1, $2, $3, $4)`,
			u.ID, staff.FullName, staff.MMCNo, staff.DOSHRegNo,
		)
		return err
	})
}
