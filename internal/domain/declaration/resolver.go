package declaration

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
)

// Resolver finds the declaration that belongs to a surveillance record.
type Resolver struct {
	repo   Repository
	logger zerolog.Logger
}

func NewResolver(repo Repository, logger zerolog.Logger) *Resolver {
	return &Resolver{repo: repo, logger: logger}
}

// Resolve tries the explicit declaration id, then the newest declaration
// linked to the surveillance id, then the newest declaration signed by the
// same patient name on the examination day. The first hit wins. No hit
// returns (nil, nil); a failing tier is logged and skipped. Only context
// cancellation is returned as an error.
func (r *Resolver) Resolve(ctx context.Context, l Lookup) (*Declaration, error) {
	type tier struct {
		t     Tier
		ok    bool
		fetch func() (*Declaration, error)
	}
	name := strings.TrimSpace(l.PatientName)
	tiers := []tier{
		{TierDeclarationID, l.DeclarationID > 0, func() (*Declaration, error) {
			return r.repo.GetByID(ctx, l.DeclarationID)
		}},
		{TierSurveillanceID, l.SurveillanceID > 0, func() (*Declaration, error) {
			return r.repo.LatestBySurveillanceID(ctx, l.SurveillanceID)
		}},
		{TierNameAndDate, name != "" && l.ExaminationDate != nil, func() (*Declaration, error) {
			return r.repo.LatestByNameAndDate(ctx, name, *l.ExaminationDate)
		}},
	}

	for _, t := range tiers {
		if !t.ok {
			continue
		}
		d, err := t.fetch()
		if err == nil && d != nil {
			d.MatchedBy = t.t
			return d, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if err != nil && !errors.Is(err, ErrNotFound) {
			r.logger.Warn().Err(err).
				Str("tier", t.t.String()).
				Int64("surveillance_id", l.SurveillanceID).
				Msg("declaration lookup failed, trying next tier")
		}
	}
	return nil, nil
}

// AttachAll loads declarations for many surveillance records with one query.
// Each id maps to its newest linked declaration; ids without one are absent
// from the map. Non-positive and repeated ids are ignored.
func (r *Resolver) AttachAll(ctx context.Context, surveillanceIDs []int64) (map[int64]*Declaration, error) {
	out := make(map[int64]*Declaration)

	seen := make(map[int64]bool, len(surveillanceIDs))
	ids := make([]int64, 0, len(surveillanceIDs))
	for _, id := range surveillanceIDs {
		if id > 0 && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return out, nil
	}

	decls, err := r.repo.ListBySurveillanceIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, d := range decls {
		if d.SurveillanceID == nil {
			continue
		}
		if _, ok := out[*d.SurveillanceID]; ok {
			continue
		}
		d.MatchedBy = TierSurveillanceID
		out[*d.SurveillanceID] = d
	}
	return out, nil
}
