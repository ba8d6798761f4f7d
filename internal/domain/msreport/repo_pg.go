package msreport

import (
	"context"
	"errors"
	"fmt"

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

func (r *repoPG) Upsert(ctx context.Context, rep *Report) error {
	data, err := EncodeIndications(rep.Indications)
	if err != nil {
		return fmt.Errorf("encode indications: %w", err)
	}
	return r.conn(ctx).QueryRow(ctx, `
		INSERT INTO ms_report_data (
			company_id, indication_data, others_details, chra_report_no, chra_date,
			assessor_name, decision_summary, recommendations_summary, updated_at
		) VALUES ($1, $2::jsonb, $3, $4, $5, $6, $7, $8, NOW())
		ON CONFLICT (company_id) DO UPDATE SET
			indication_data = EXCLUDED.indication_data,
			others_details = EXCLUDED.others_details,
			chra_report_no = EXCLUDED.chra_report_no,
			chra_date = EXCLUDED.chra_date,
			assessor_name = EXCLUDED.assessor_name,
			decision_summary = EXCLUDED.decision_summary,
			recommendations_summary = EXCLUDED.recommendations_summary,
			updated_at = NOW()
		RETURNING id, updated_at`,
		rep.CompanyID, string(data), rep.OthersDetails, rep.CHRAReportNo, rep.CHRADate,
		rep.AssessorName, rep.DecisionSummary, rep.RecommendationsSummary,
	).Scan(&rep.ID, &rep.UpdatedAt)
}

func (r *repoPG) Latest(ctx context.Context, companyID int64) (*Report, error) {
	var (
		rep  Report
		data []byte
	)
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT id, company_id, indication_data::text, COALESCE(others_details, ''),
			COALESCE(chra_report_no, ''), chra_date, COALESCE(assessor_name, ''),
			COALESCE(decision_summary, ''), COALESCE(recommendations_summary, ''), updated_at
		FROM ms_report_data
		WHERE company_id = $1
		ORDER BY updated_at DESC, id DESC
		LIMIT 1`, companyID,
	).Scan(&rep.ID, &rep.CompanyID, &data, &rep.OthersDetails,
		&rep.CHRAReportNo, &rep.CHRADate, &rep.AssessorName,
		&rep.DecisionSummary, &rep.RecommendationsSummary, &rep.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if rep.Indications, err = DecodeIndications(data); err != nil {
		return nil, fmt.Errorf("decode indications: %w", err)
	}
	return &rep, nil
}
