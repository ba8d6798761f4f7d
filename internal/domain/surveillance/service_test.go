package surveillance

import (
	"context"
	"errors"
	"net/url"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ohclinic/ohclinic/internal/domain/declaration"
	"github.com/ohclinic/ohclinic/internal/domain/patient"
	"github.com/ohclinic/ohclinic/pkg/yesno"
)

// -- mocks --

type mockRepo struct {
	nextID    int64
	records   map[int64]*Record
	dependent map[Dependent]map[int64]interface{}
	rows      []ListRow

	failPrimary error
	failOn      map[Dependent]error
	companyID   int64
	companyErr  error
	calls       []string
}

func newMockRepo() *mockRepo {
	return &mockRepo{
		nextID:    1,
		records:   make(map[int64]*Record),
		dependent: make(map[Dependent]map[int64]interface{}),
		failOn:    make(map[Dependent]error),
	}
}

func (m *mockRepo) InsertRecord(_ context.Context, r *Record) error {
	m.calls = append(m.calls, "record")
	if m.failPrimary != nil {
		return m.failPrimary
	}
	r.SurveillanceID = m.nextID
	m.nextID++
	cp := *r
	m.records[r.SurveillanceID] = &cp
	return nil
}

func (m *mockRepo) put(d Dependent, sid int64, v interface{}) error {
	m.calls = append(m.calls, string(d))
	if err := m.failOn[d]; err != nil {
		return err
	}
	if m.dependent[d] == nil {
		m.dependent[d] = make(map[int64]interface{})
	}
	m.dependent[d][sid] = v
	return nil
}

func (m *mockRepo) InsertTargetOrgan(_ context.Context, sid, _ int64, t *TargetOrgan) error {
	return m.put(DependentTargetOrgan, sid, *t)
}

func (m *mockRepo) InsertBiological(_ context.Context, sid, _ int64, b *BiologicalMonitoring) error {
	return m.put(DependentBiological, sid, *b)
}

func (m *mockRepo) InsertFitness(_ context.Context, sid, _ int64, f *FitnessRespirator) error {
	return m.put(DependentFitness, sid, *f)
}

func (m *mockRepo) InsertConclusion(_ context.Context, sid, _ int64, c *Conclusion) error {
	return m.put(DependentConclusion, sid, *c)
}

func (m *mockRepo) InsertRecommendation(_ context.Context, sid, _ int64, r *Recommendation) error {
	return m.put(DependentRecommendation, sid, *r)
}

func (m *mockRepo) GetRecord(_ context.Context, sid int64) (*FullRecord, error) {
	r, ok := m.records[sid]
	if !ok {
		return nil, ErrNotFound
	}
	return &FullRecord{Record: *r}, nil
}

func (m *mockRepo) DeleteRecord(_ context.Context, sid int64) error {
	if _, ok := m.records[sid]; !ok {
		return ErrNotFound
	}
	delete(m.records, sid)
	for _, rows := range m.dependent {
		delete(rows, sid)
	}
	return nil
}

func (m *mockRepo) ListRows(_ context.Context, _ Filter) ([]ListRow, error) {
	return m.rows, nil
}

func (m *mockRepo) CompanyIDForPatient(_ context.Context, _ int64) (int64, error) {
	return m.companyID, m.companyErr
}

type stubPatients struct {
	patient *patient.Patient
	history *patient.OccupationalHistory
	err     error
}

func (s *stubPatients) Get(_ context.Context, id int64) (*patient.Patient, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.patient == nil || s.patient.ID != id {
		return nil, patient.ErrNotFound
	}
	return s.patient, nil
}

func (s *stubPatients) CurrentOccupationalHistory(_ context.Context, _ int64) (*patient.OccupationalHistory, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.history, nil
}

type stubDeclarations struct {
	byID  map[int64]*declaration.Declaration
	err   error
	asked []int64
}

func (s *stubDeclarations) AttachAll(_ context.Context, ids []int64) (map[int64]*declaration.Declaration, error) {
	s.asked = ids
	if s.err != nil {
		return nil, s.err
	}
	return s.byID, nil
}

func newTestService() (*Service, *mockRepo, *stubPatients, *stubDeclarations) {
	repo := newMockRepo()
	pats := &stubPatients{
		patient: &patient.Patient{ID: 7, FirstName: "Aminah", LastName: "Yusof"},
		history: &patient.OccupationalHistory{PatientID: 7, CompanyName: "Acme Paints", IsCurrent: true},
	}
	decls := &stubDeclarations{byID: map[int64]*declaration.Declaration{}}
	return NewService(repo, pats, decls, zerolog.Nop()), repo, pats, decls
}

func fitInput() *SaveInput {
	return &SaveInput{
		PatientID:       "7",
		Chemical:        "Toluene",
		ExaminationDate: "2026-03-02",
		FitnessStatus:   "Fit",
		Fitness:         FitnessRespirator{Result: "Fit"},
	}
}

func sidPtr(v int64) *int64 { return &v }

// -- Save --

func TestSave_ReturnsPositiveID(t *testing.T) {
	svc, repo, _, _ := newTestService()
	repo.companyID = 3

	res, err := svc.Save(context.Background(), fitInput(), url.Values{})
	require.NoError(t, err)
	assert.Greater(t, res.SurveillanceID, int64(0))
	assert.Empty(t, res.Warnings)
	for _, d := range []Dependent{
		DependentTargetOrgan, DependentBiological, DependentFitness, DependentConclusion, DependentRecommendation,
	} {
		assert.Contains(t, repo.dependent[d], res.SurveillanceID, "dependent %s", d)
	}
}

func TestSave_PrimaryFailureWritesNoDependents(t *testing.T) {
	svc, repo, _, _ := newTestService()
	repo.failPrimary = errors.New("check constraint")

	res, err := svc.Save(context.Background(), fitInput(), url.Values{})
	assert.Nil(t, res)
	var pe *PrimaryWriteError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, []string{"record"}, repo.calls)
	assert.Empty(t, repo.dependent)
}

func TestSave_MissingPatientIsValidationError(t *testing.T) {
	svc, repo, _, _ := newTestService()
	in := fitInput()
	in.PatientID = ""

	_, err := svc.Save(context.Background(), in, url.Values{"patient_id": {"0"}})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, repo.calls)
}

func TestSave_PatientFromQueryFallback(t *testing.T) {
	svc, repo, _, _ := newTestService()
	repo.companyID = 3
	in := fitInput()
	in.PatientID = ""

	res, err := svc.Save(context.Background(), in, url.Values{"patient_id": {"7"}})
	require.NoError(t, err)
	assert.Equal(t, int64(7), res.PatientID)
	assert.Equal(t, int64(7), repo.records[res.SurveillanceID].PatientID)
}

func TestSave_MalformedNumberIsValidationError(t *testing.T) {
	svc, repo, _, _ := newTestService()
	in := fitInput()
	in.WeightKg = "seventy"

	_, err := svc.Save(context.Background(), in, url.Values{})
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, repo.calls)
}

func TestSave_DependentFailureIsIsolated(t *testing.T) {
	svc, repo, _, _ := newTestService()
	repo.companyID = 3
	repo.failOn[DependentRecommendation] = errors.New("violates constraint")

	res, err := svc.Save(context.Background(), fitInput(), url.Values{})
	require.NoError(t, err)
	require.Len(t, res.Warnings, 1)
	assert.Equal(t, DependentRecommendation, res.Warnings[0].Dependent)

	sid := res.SurveillanceID
	assert.Contains(t, repo.records, sid)
	assert.Contains(t, repo.dependent[DependentTargetOrgan], sid)
	assert.Contains(t, repo.dependent[DependentBiological], sid)
	assert.Contains(t, repo.dependent[DependentFitness], sid)
	assert.Contains(t, repo.dependent[DependentConclusion], sid)
	assert.NotContains(t, repo.dependent[DependentRecommendation], sid)
	assert.Equal(t, "/surveillance_list?company_id=3&patient_id=7", res.Redirect)
}

func TestSave_EveryDependentAttemptedAfterFailures(t *testing.T) {
	svc, repo, _, _ := newTestService()
	repo.companyID = 3
	repo.failOn[DependentTargetOrgan] = errors.New("a")
	repo.failOn[DependentFitness] = errors.New("b")

	res, err := svc.Save(context.Background(), fitInput(), url.Values{})
	require.NoError(t, err)
	assert.Len(t, res.Warnings, 2)
	assert.Equal(t, []string{
		"record", "target_organ", "biological_monitoring", "fitness_respirator", "conclusion", "recommendations",
	}, repo.calls)
}

func TestSave_OtherSubstitution(t *testing.T) {
	svc, repo, _, _ := newTestService()
	repo.companyID = 3
	in := fitInput()
	in.Chemical = OtherOption
	in.ChemicalOther = "XYZ-99"
	in.BiologicalExposure = OtherOption
	in.BiologicalExposureOther = "Urinary XYZ"

	res, err := svc.Save(context.Background(), in, url.Values{})
	require.NoError(t, err)
	assert.Equal(t, "XYZ-99", repo.records[res.SurveillanceID].Chemical)
	bio := repo.dependent[DependentBiological][res.SurveillanceID].(BiologicalMonitoring)
	assert.Equal(t, "Urinary XYZ", bio.BiologicalExposure)
}

func TestSave_NotFitRoutesToMRP(t *testing.T) {
	tests := []struct {
		name       string
		fitness    string
		respirator string
	}{
		{"fitness status", "Not Fit for Work", "Fit"},
		{"respirator result", "Fit", "NOT FIT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _, _ := newTestService()
			repo.companyID = 3
			in := fitInput()
			in.FitnessStatus = tt.fitness
			in.Fitness.Result = tt.respirator

			res, err := svc.Save(context.Background(), in, url.Values{})
			require.NoError(t, err)
			assert.True(t, res.NotFit)

			u, err := url.Parse(res.Redirect)
			require.NoError(t, err)
			assert.Equal(t, "/mrp_form", u.Path)
			assert.Equal(t, "Aminah Yusof", u.Query().Get("patient_name"))
			assert.Equal(t, "Acme Paints", u.Query().Get("employer_name"))
			assert.Equal(t, "1", u.Query().Get("surveillance_id"))
		})
	}
}

func TestSave_NotFitLookupFailureDefaultsToEmpty(t *testing.T) {
	svc, _, pats, _ := newTestService()
	pats.err = errors.New("connection reset")
	in := fitInput()
	in.FitnessStatus = "Not fit"

	res, err := svc.Save(context.Background(), in, url.Values{})
	require.NoError(t, err)
	u, err := url.Parse(res.Redirect)
	require.NoError(t, err)
	assert.Equal(t, "/mrp_form", u.Path)
	assert.Equal(t, "", u.Query().Get("patient_name"))
	assert.Equal(t, "", u.Query().Get("employer_name"))
}

func TestSave_CompanyFallbackOrder(t *testing.T) {
	tests := []struct {
		name    string
		joined  int64
		posted  string
		queried string
		want    string
	}{
		{"employment join", 3, "4", "5", "/surveillance_list?company_id=3&patient_id=7"},
		{"posted field", 0, "4", "5", "/surveillance_list?company_id=4&patient_id=7"},
		{"query field", 0, "", "5", "/surveillance_list?company_id=5&patient_id=7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, repo, _, _ := newTestService()
			repo.companyID = tt.joined
			in := fitInput()
			in.CompanyID = tt.posted

			res, err := svc.Save(context.Background(), in, url.Values{"company_id": {tt.queried}})
			require.NoError(t, err)
			assert.NoError(t, res.RedirectErr)
			assert.Equal(t, tt.want, res.Redirect)
		})
	}
}

func TestSave_UnresolvedCompanyStillSaves(t *testing.T) {
	svc, repo, _, _ := newTestService()
	repo.companyErr = errors.New("timeout")

	res, err := svc.Save(context.Background(), fitInput(), url.Values{})
	require.NoError(t, err)
	assert.ErrorIs(t, res.RedirectErr, ErrRedirectUnresolved)
	assert.Empty(t, res.Redirect)
	assert.Contains(t, repo.records, res.SurveillanceID)
}

func TestSave_ComputesBMIAndYesNo(t *testing.T) {
	svc, repo, _, _ := newTestService()
	repo.companyID = 3
	in := fitInput()
	in.WeightKg = "70"
	in.HeightCm = "175"
	in.History.Cough = yesno.Yes
	in.History.Headache = yesno.No

	res, err := svc.Save(context.Background(), in, url.Values{})
	require.NoError(t, err)
	rec := repo.records[res.SurveillanceID]
	require.NotNil(t, rec.Physical.BMI)
	assert.InDelta(t, 22.9, *rec.Physical.BMI, 0.001)
	assert.Equal(t, yesno.Yes, rec.History.Cough)
	assert.Equal(t, yesno.No, rec.History.Headache)
	assert.Equal(t, yesno.Unknown, rec.History.Nausea)
	assert.True(t, rec.History.AnyYes())
}

// -- list --

func TestDedup_KeepsFirstSeenOrder(t *testing.T) {
	rows := []ListRow{
		{SurveillanceID: sidPtr(42), Chemical: "first"},
		{SurveillanceID: sidPtr(42), Chemical: "second"},
		{SurveillanceID: sidPtr(43)},
		{SurveillanceID: sidPtr(42), Chemical: "third"},
	}

	out := Dedup(rows)
	require.Len(t, out, 2)
	assert.Equal(t, int64(42), *out[0].SurveillanceID)
	assert.Equal(t, "first", out[0].Chemical)
	assert.Equal(t, int64(43), *out[1].SurveillanceID)
	assert.Equal(t, out, Dedup(out))
}

func TestDedup_KeepsRowsWithoutID(t *testing.T) {
	rows := []ListRow{{PatientID: 1}, {PatientID: 2}, {SurveillanceID: sidPtr(9)}, {PatientID: 1}}
	assert.Len(t, Dedup(rows), 4)
}

func TestList_DecoratesWithDeclarations(t *testing.T) {
	svc, repo, _, decls := newTestService()
	repo.rows = []ListRow{
		{SurveillanceID: sidPtr(42)},
		{SurveillanceID: sidPtr(42)},
		{SurveillanceID: sidPtr(43)},
		{PatientID: 5},
	}
	signed := &declaration.Declaration{ID: 100, SurveillanceID: sidPtr(42), PatientSignature: "data:image/png;base64,AA=="}
	decls.byID[42] = signed

	rows, err := svc.List(context.Background(), Filter{CompanyID: 3})
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Same(t, signed, rows[0].Declaration)
	assert.Nil(t, rows[1].Declaration)
	assert.Nil(t, rows[2].Declaration)
	assert.Equal(t, []int64{42, 43}, decls.asked)
}

func TestList_DeclarationFailureDegrades(t *testing.T) {
	svc, repo, _, decls := newTestService()
	repo.rows = []ListRow{{SurveillanceID: sidPtr(42)}}
	decls.err = errors.New("relation does not exist")

	rows, err := svc.List(context.Background(), Filter{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].Declaration)
}

// -- get / delete --

func TestGetRecord_RejectsNonPositiveID(t *testing.T) {
	svc, _, _, _ := newTestService()
	_, err := svc.GetRecord(context.Background(), 0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeleteRecord(t *testing.T) {
	svc, repo, _, _ := newTestService()
	repo.companyID = 3
	res, err := svc.Save(context.Background(), fitInput(), url.Values{})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRecord(context.Background(), res.SurveillanceID))
	assert.NotContains(t, repo.records, res.SurveillanceID)
	assert.NotContains(t, repo.dependent[DependentConclusion], res.SurveillanceID)

	err = svc.DeleteRecord(context.Background(), res.SurveillanceID)
	assert.ErrorIs(t, err, ErrNotFound)
}
