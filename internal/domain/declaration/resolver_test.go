package declaration

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockRepo stores declarations in insertion order; ids grow with insertion.
type mockRepo struct {
	decls     []*Declaration
	failTier  Tier
	listCalls int
}

func (m *mockRepo) add(d *Declaration) *Declaration {
	d.ID = int64(len(m.decls) + 1)
	m.decls = append(m.decls, d)
	return d
}

func (m *mockRepo) Create(_ context.Context, d *Declaration) error {
	m.add(d)
	return nil
}

func (m *mockRepo) newestFirst() []*Declaration {
	out := append([]*Declaration(nil), m.decls...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out
}

func copyOf(d *Declaration) *Declaration {
	cp := *d
	return &cp
}

func (m *mockRepo) GetByID(_ context.Context, id int64) (*Declaration, error) {
	if m.failTier == TierDeclarationID {
		return nil, errors.New("connection reset")
	}
	for _, d := range m.decls {
		if d.ID == id {
			return copyOf(d), nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) LatestBySurveillanceID(_ context.Context, sid int64) (*Declaration, error) {
	if m.failTier == TierSurveillanceID {
		return nil, errors.New("connection reset")
	}
	for _, d := range m.newestFirst() {
		if d.SurveillanceID != nil && *d.SurveillanceID == sid {
			return copyOf(d), nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) LatestByNameAndDate(_ context.Context, name string, day time.Time) (*Declaration, error) {
	for _, d := range m.newestFirst() {
		if d.PatientName == name && d.PatientDate != nil &&
			d.PatientDate.Format("2006-01-02") == day.Format("2006-01-02") {
			return copyOf(d), nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) ListBySurveillanceIDs(_ context.Context, ids []int64) ([]*Declaration, error) {
	m.listCalls++
	want := make(map[int64]bool)
	for _, id := range ids {
		want[id] = true
	}
	var out []*Declaration
	for _, d := range m.newestFirst() {
		if d.SurveillanceID != nil && want[*d.SurveillanceID] {
			out = append(out, copyOf(d))
		}
	}
	return out, nil
}

func sid(v int64) *int64 { return &v }

func at(s string) *time.Time {
	t, _ := time.Parse("2006-01-02 15:04", s)
	return &t
}

func TestResolve_DeclarationIDWins(t *testing.T) {
	repo := &mockRepo{}
	byID := repo.add(&Declaration{PatientName: "Ahmad Ismail", PatientSignature: "explicit"})
	repo.add(&Declaration{SurveillanceID: sid(42), PatientName: "Ahmad Ismail", PatientSignature: "linked"})
	repo.add(&Declaration{PatientName: "Ahmad Ismail", PatientDate: at("2024-03-01 09:30"), PatientSignature: "by-name"})

	r := NewResolver(repo, zerolog.Nop())
	d, err := r.Resolve(context.Background(), Lookup{
		DeclarationID:   byID.ID,
		SurveillanceID:  42,
		PatientName:     "Ahmad Ismail",
		ExaminationDate: at("2024-03-01 00:00"),
	})

	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "explicit", d.PatientSignature)
	assert.Equal(t, TierDeclarationID, d.MatchedBy)
}

func TestResolve_SurveillanceIDTakesNewest(t *testing.T) {
	repo := &mockRepo{}
	repo.add(&Declaration{SurveillanceID: sid(42), PatientSignature: "old"})
	repo.add(&Declaration{SurveillanceID: sid(42), PatientSignature: "new"})
	repo.add(&Declaration{PatientName: "Ahmad Ismail", PatientDate: at("2024-03-01 09:30")})

	r := NewResolver(repo, zerolog.Nop())
	d, err := r.Resolve(context.Background(), Lookup{
		DeclarationID:   999,
		SurveillanceID:  42,
		PatientName:     "Ahmad Ismail",
		ExaminationDate: at("2024-03-01 00:00"),
	})

	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "new", d.PatientSignature)
	assert.Equal(t, TierSurveillanceID, d.MatchedBy)
}

func TestResolve_NameAndSameDay(t *testing.T) {
	repo := &mockRepo{}
	repo.add(&Declaration{PatientName: "Ahmad Ismail", PatientDate: at("2024-02-29 17:00"), PatientSignature: "wrong-day"})
	repo.add(&Declaration{PatientName: "Ahmad Ismail", PatientDate: at("2024-03-01 16:45"), PatientSignature: "same-day"})
	repo.add(&Declaration{PatientName: "Ahmad  Ismail", PatientDate: at("2024-03-01 10:00"), PatientSignature: "other-name"})

	r := NewResolver(repo, zerolog.Nop())
	d, err := r.Resolve(context.Background(), Lookup{
		SurveillanceID:  42,
		PatientName:     " Ahmad Ismail ",
		ExaminationDate: at("2024-03-01 00:00"),
	})

	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, "same-day", d.PatientSignature)
	assert.Equal(t, TierNameAndDate, d.MatchedBy)
}

func TestResolve_NoMatch(t *testing.T) {
	r := NewResolver(&mockRepo{}, zerolog.Nop())
	d, err := r.Resolve(context.Background(), Lookup{SurveillanceID: 1, PatientName: "Nobody", ExaminationDate: at("2024-01-01 00:00")})
	assert.NoError(t, err)
	assert.Nil(t, d)

	d, err = r.Resolve(context.Background(), Lookup{})
	assert.NoError(t, err)
	assert.Nil(t, d)
}

func TestResolve_FailingTierFallsThrough(t *testing.T) {
	repo := &mockRepo{failTier: TierSurveillanceID}
	repo.add(&Declaration{SurveillanceID: sid(42), PatientName: "Ahmad Ismail", PatientDate: at("2024-03-01 08:00")})

	r := NewResolver(repo, zerolog.Nop())
	d, err := r.Resolve(context.Background(), Lookup{
		SurveillanceID:  42,
		PatientName:     "Ahmad Ismail",
		ExaminationDate: at("2024-03-01 00:00"),
	})

	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, TierNameAndDate, d.MatchedBy)
}

func TestResolve_CancelledContext(t *testing.T) {
	repo := &mockRepo{failTier: TierDeclarationID}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewResolver(repo, zerolog.Nop()).Resolve(ctx, Lookup{DeclarationID: 1, SurveillanceID: 1})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAttachAll_NewestPerSurveillance(t *testing.T) {
	repo := &mockRepo{}
	repo.add(&Declaration{SurveillanceID: sid(42), PatientSignature: "42-old"})
	repo.add(&Declaration{SurveillanceID: sid(43), PatientSignature: "43"})
	repo.add(&Declaration{SurveillanceID: sid(42), PatientSignature: "42-new"})
	repo.add(&Declaration{SurveillanceID: sid(99), PatientSignature: "unrequested"})

	r := NewResolver(repo, zerolog.Nop())
	got, err := r.AttachAll(context.Background(), []int64{42, 42, 43, 44, 0, -1})

	require.NoError(t, err)
	assert.Equal(t, 1, repo.listCalls)
	require.Len(t, got, 2)
	assert.Equal(t, "42-new", got[42].PatientSignature)
	assert.Equal(t, "43", got[43].PatientSignature)
	assert.Nil(t, got[44])
}

func TestAttachAll_NoIDsNoQuery(t *testing.T) {
	repo := &mockRepo{}
	got, err := NewResolver(repo, zerolog.Nop()).AttachAll(context.Background(), []int64{0, 0})
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Equal(t, 0, repo.listCalls)
}

func TestTier_String(t *testing.T) {
	assert.Equal(t, "declaration_id", TierDeclarationID.String())
	assert.Equal(t, "none", TierNone.String())
}
