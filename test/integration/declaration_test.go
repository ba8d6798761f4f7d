package integration

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ohclinic/ohclinic/internal/domain/declaration"
)

func TestResolver_Tiers(t *testing.T) {
	pool := testPool(t)
	s := newServices(pool)
	ctx := context.Background()

	createCompany(t, s, "Acme Paints")
	p := createEmployee(t, s, "Aminah", "Yusof", "Acme Paints")
	res, err := s.surveillance.Save(ctx, examInput(p.ID), url.Values{})
	require.NoError(t, err)
	sid := res.SurveillanceID

	signedAt := time.Date(2026, 3, 2, 15, 30, 0, 0, time.UTC)
	explicit := &declaration.Declaration{PatientName: "Someone Else", PatientSignature: "sig-1"}
	linkedOld := &declaration.Declaration{SurveillanceID: &sid, PatientName: "Aminah Yusof", PatientSignature: "sig-2"}
	linkedNew := &declaration.Declaration{SurveillanceID: &sid, PatientName: "Aminah Yusof", PatientSignature: "sig-3"}
	byName := &declaration.Declaration{PatientName: "Aminah Yusof", PatientSignature: "sig-4", PatientDate: &signedAt}
	for _, d := range []*declaration.Declaration{explicit, linkedOld, linkedNew, byName} {
		require.NoError(t, s.declarations.Create(ctx, d))
	}

	got, err := s.resolver.Resolve(ctx, declaration.Lookup{DeclarationID: explicit.ID, SurveillanceID: sid})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, explicit.ID, got.ID)
	assert.Equal(t, declaration.TierDeclarationID, got.MatchedBy)

	got, err = s.resolver.Resolve(ctx, declaration.Lookup{DeclarationID: 99999, SurveillanceID: sid})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, linkedNew.ID, got.ID, "newest linked declaration wins")
	assert.Equal(t, declaration.TierSurveillanceID, got.MatchedBy)

	got, err = s.resolver.Resolve(ctx, declaration.Lookup{
		SurveillanceID:  sid + 1000,
		PatientName:     " Aminah Yusof ",
		ExaminationDate: day("2026-03-02"),
	})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, byName.ID, got.ID)
	assert.Equal(t, declaration.TierNameAndDate, got.MatchedBy)

	got, err = s.resolver.Resolve(ctx, declaration.Lookup{PatientName: "Aminah Yusof", ExaminationDate: day("2026-03-03")})
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestResolver_AttachAllDecoratesList(t *testing.T) {
	pool := testPool(t)
	s := newServices(pool)
	ctx := context.Background()

	co := createCompany(t, s, "Acme Paints")
	p := createEmployee(t, s, "Aminah", "Yusof", "Acme Paints")
	signed, err := s.surveillance.Save(ctx, examInput(p.ID), url.Values{})
	require.NoError(t, err)
	unsigned, err := s.surveillance.Save(ctx, examInput(p.ID), url.Values{})
	require.NoError(t, err)

	sid := signed.SurveillanceID
	d := &declaration.Declaration{SurveillanceID: &sid, PatientName: "Aminah Yusof", PatientSignature: "sig"}
	require.NoError(t, s.declarations.Create(ctx, d))

	attached, err := s.resolver.AttachAll(ctx, []int64{sid, unsigned.SurveillanceID, sid, 0})
	require.NoError(t, err)
	require.Len(t, attached, 1)
	assert.Equal(t, d.ID, attached[sid].ID)

	rows, err := s.surveillance.List(ctx, surveillanceFilter(co.ID))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	for _, r := range rows {
		if *r.SurveillanceID == sid {
			require.NotNil(t, r.Declaration)
			assert.Equal(t, d.ID, r.Declaration.ID)
		} else {
			assert.Nil(t, r.Declaration)
		}
	}
}

func TestResolver_NameAndDateUsesClinicCalendar(t *testing.T) {
	pool := testPool(t)
	s := newServices(pool)
	ctx := context.Background()

	myt, err := time.LoadLocation(clinicTimeZone)
	require.NoError(t, err)

	// 07:00 in Kuala Lumpur is 23:00 UTC on the previous day.
	early := time.Date(2026, 3, 2, 7, 0, 0, 0, myt)
	late := time.Date(2026, 3, 2, 23, 30, 0, 0, myt)
	morning := &declaration.Declaration{PatientName: "Aminah Yusof", PatientSignature: "sig-am", PatientDate: &early}
	require.NoError(t, s.declarations.Create(ctx, morning))

	got, err := s.resolver.Resolve(ctx, declaration.Lookup{PatientName: "Aminah Yusof", ExaminationDate: day("2026-03-02")})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, morning.ID, got.ID)

	got, err = s.resolver.Resolve(ctx, declaration.Lookup{PatientName: "Aminah Yusof", ExaminationDate: day("2026-03-01")})
	require.NoError(t, err)
	assert.Nil(t, got, "previous UTC day must not match")

	night := &declaration.Declaration{PatientName: "Bala Krishnan", PatientSignature: "sig-pm", PatientDate: &late}
	require.NoError(t, s.declarations.Create(ctx, night))
	got, err = s.resolver.Resolve(ctx, declaration.Lookup{PatientName: "Bala Krishnan", ExaminationDate: day("2026-03-02")})
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, night.ID, got.ID)
}
