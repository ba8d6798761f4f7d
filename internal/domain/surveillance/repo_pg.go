package surveillance

import (
	"context"
	"errors"
	"strconv"
	"strings"

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

// historyColumnList must stay in the order of historyFields, and
// systemColumnList in the order of systemFields.
var historyColumnList = []string{
	"breathing_difficulty", "cough", "sore_throat", "sneezing", "chest_pain", "palpitation",
	"limb_oedema", "drowsiness", "dizziness", "headache", "confusion", "lethargy",
	"nausea", "vomiting", "eye_irritation", "blurred_vision", "skin_blisters", "skin_burns",
	"skin_itching", "skin_rash", "skin_redness", "abdominal_pain", "abdominal_mass", "blood_in_urine",
}

var systemColumnList = []string{
	"general_appearance_normal", "skin_normal", "eyes_normal", "ent_normal", "cardiovascular_normal",
	"respiratory_normal", "abdomen_normal", "neurological_normal", "musculoskeletal_normal",
	"renal_normal", "reproductive_normal",
}

func historyFields(h *HistoryOfHealth) []*yesno.Value {
	return []*yesno.Value{
		&h.BreathingDifficulty, &h.Cough, &h.SoreThroat, &h.Sneezing, &h.ChestPain, &h.Palpitation,
		&h.LimbOedema, &h.Drowsiness, &h.Dizziness, &h.Headache, &h.Confusion, &h.Lethargy,
		&h.Nausea, &h.Vomiting, &h.EyeIrritation, &h.BlurredVision, &h.SkinBlisters, &h.SkinBurns,
		&h.SkinItching, &h.SkinRash, &h.SkinRedness, &h.AbdominalPain, &h.AbdominalMass, &h.BloodInUrine,
	}
}

func systemFields(p *PhysicalExam) []*yesno.Value {
	return []*yesno.Value{
		&p.GeneralAppearanceNormal, &p.SkinNormal, &p.EyesNormal, &p.ENTNormal, &p.CardiovascularNormal,
		&p.RespiratoryNormal, &p.AbdomenNormal, &p.NeurologicalNormal, &p.MusculoskeletalNormal,
		&p.RenalNormal, &p.ReproductiveNormal,
	}
}

var recordColumnList = func() []string {
	cols := []string{
		"patient_id", "workplace", "chemical", "examination_type", "examination_date", "examiner_name",
	}
	cols = append(cols, historyColumnList...)
	cols = append(cols,
		"others_symptoms",
		"history_of_health_abnormal", "clinical_findings_abnormal", "clinical_findings_notes",
		"weight_kg", "height_cm", "bmi", "bp_systolic", "bp_diastolic", "pulse_rate", "respiratory_rate",
	)
	cols = append(cols, systemColumnList...)
	return append(cols, "fitness_status")
}()

func recordValues(rec *Record) []interface{} {
	vals := []interface{}{
		rec.PatientID, rec.Workplace, rec.Chemical, rec.ExaminationType, rec.ExaminationDate, rec.ExaminerName,
	}
	for _, v := range historyFields(&rec.History) {
		vals = append(vals, v.Bool())
	}
	vals = append(vals,
		rec.History.OthersSymptoms,
		rec.Findings.HistoryOfHealthAbnormal.Bool(), rec.Findings.ClinicalFindingsAbnormal.Bool(), rec.Findings.Notes,
		rec.Physical.WeightKg, rec.Physical.HeightCm, rec.Physical.BMI,
		rec.Physical.BPSystolic, rec.Physical.BPDiastolic, rec.Physical.PulseRate, rec.Physical.RespiratoryRate,
	)
	for _, v := range systemFields(&rec.Physical) {
		vals = append(vals, v.Bool())
	}
	return append(vals, rec.FitnessStatus)
}

func placeholders(n int) string {
	ps := make([]string, n)
	for i := range ps {
		ps[i] = "$" + strconv.Itoa(i+1)
	}
	return strings.Join(ps, ", ")
}

func (r *repoPG) InsertRecord(ctx context.Context, rec *Record) error {
	sql := `INSERT INTO chemical_information (` + strings.Join(recordColumnList, ", ") + `)
		VALUES (` + placeholders(len(recordColumnList)) + `)
		RETURNING surveillance_id, created_at`
	return r.conn(ctx).QueryRow(ctx, sql, recordValues(rec)...).Scan(&rec.SurveillanceID, &rec.CreatedAt)
}

func (r *repoPG) InsertTargetOrgan(ctx context.Context, sid, pid int64, t *TargetOrgan) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO target_organ_data (
			surveillance_id, patient_id, full_blood_count, renal_function, liver_function,
			chest_xray, spirometry, others, abnormal
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sid, pid, t.FullBloodCount, t.RenalFunction, t.LiverFunction,
		t.ChestXray, t.Spirometry, t.Others, t.Abnormal.Bool(),
	)
	return err
}

func (r *repoPG) InsertBiological(ctx context.Context, sid, pid int64, b *BiologicalMonitoring) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO biological_monitoring_data (
			surveillance_id, patient_id, biological_exposure, determinant,
			sampling_time, result_value, reference_limit, abnormal
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		sid, pid, b.BiologicalExposure, b.Determinant,
		b.SamplingTime, b.ResultValue, b.ReferenceLimit, b.Abnormal.Bool(),
	)
	return err
}

func (r *repoPG) InsertFitness(ctx context.Context, sid, pid int64, f *FitnessRespirator) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO fitness_respirator_data (surveillance_id, patient_id, respirator_type, result, justification)
		VALUES ($1, $2, $3, $4, $5)`,
		sid, pid, f.RespiratorType, f.Result, f.Justification,
	)
	return err
}

func (r *repoPG) InsertConclusion(ctx context.Context, sid, pid int64, c *Conclusion) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO conclusion_ms_finding (
			surveillance_id, patient_id, history_of_health, clinical_findings, target_organ,
			biological_monitoring, pregnancy_breastfeeding, work_related, conclusion_notes
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		sid, pid, c.HistoryOfHealth.Bool(), c.ClinicalFindings.Bool(), c.TargetOrgan.Bool(),
		c.BiologicalMonitoring.Bool(), c.PregnancyBreastfeeding.Bool(), c.WorkRelated.Bool(), c.Notes,
	)
	return err
}

func (r *repoPG) InsertRecommendation(ctx context.Context, sid, pid int64, rec *Recommendation) error {
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO recommendations (
			surveillance_id, patient_id, recommendation_type, date_of_mrp, next_review_date, notes
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		sid, pid, rec.RecommendationType, rec.DateOfMRP, rec.NextReviewDate, rec.Notes,
	)
	return err
}

func (r *repoPG) GetRecord(ctx context.Context, sid int64) (*FullRecord, error) {
	var (
		full    FullRecord
		history = make([]*bool, len(historyColumnList))
		systems = make([]*bool, len(systemColumnList))
		hoh     *bool
		cfa     *bool
	)
	rec := &full.Record

	dest := []interface{}{
		&rec.SurveillanceID, &rec.PatientID, &rec.Workplace, &rec.Chemical,
		&rec.ExaminationType, &rec.ExaminationDate, &rec.ExaminerName,
	}
	for i := range history {
		dest = append(dest, &history[i])
	}
	dest = append(dest,
		&rec.History.OthersSymptoms, &hoh, &cfa, &rec.Findings.Notes,
		&rec.Physical.WeightKg, &rec.Physical.HeightCm, &rec.Physical.BMI,
		&rec.Physical.BPSystolic, &rec.Physical.BPDiastolic, &rec.Physical.PulseRate, &rec.Physical.RespiratoryRate,
	)
	for i := range systems {
		dest = append(dest, &systems[i])
	}
	dest = append(dest, &rec.FitnessStatus, &rec.CreatedAt)

	err := r.conn(ctx).QueryRow(ctx, `SELECT `+recordSelect+` FROM chemical_information WHERE surveillance_id = $1`, sid).Scan(dest...)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	for i, v := range historyFields(&rec.History) {
		*v = yesno.FromBool(history[i])
	}
	for i, v := range systemFields(&rec.Physical) {
		*v = yesno.FromBool(systems[i])
	}
	rec.Findings.HistoryOfHealthAbnormal = yesno.FromBool(hoh)
	rec.Findings.ClinicalFindingsAbnormal = yesno.FromBool(cfa)

	if full.TargetOrgan, err = r.getTargetOrgan(ctx, sid); err != nil {
		return nil, err
	}
	if full.Biological, err = r.getBiological(ctx, sid); err != nil {
		return nil, err
	}
	if full.Fitness, err = r.getFitness(ctx, sid); err != nil {
		return nil, err
	}
	if full.Conclusion, err = r.getConclusion(ctx, sid); err != nil {
		return nil, err
	}
	if full.Recommendation, err = r.getRecommendation(ctx, sid); err != nil {
		return nil, err
	}
	return &full, nil
}

// recordSelect reads every column of recordColumnList with text columns
// coalesced, followed by created_at.
var recordSelect = func() string {
	text := map[string]bool{
		"workplace": true, "chemical": true, "examination_type": true, "examiner_name": true,
		"others_symptoms": true, "clinical_findings_notes": true, "fitness_status": true,
	}
	cols := []string{"surveillance_id"}
	for _, c := range recordColumnList {
		if text[c] {
			c = "COALESCE(" + c + ", '')"
		} else if c == "weight_kg" || c == "height_cm" || c == "bmi" {
			c = c + "::float8"
		}
		cols = append(cols, c)
	}
	return strings.Join(append(cols, "created_at"), ", ")
}()

// missing maps no rows to a nil dependent.
func missing(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return nil
	}
	return err
}

func (r *repoPG) getTargetOrgan(ctx context.Context, sid int64) (*TargetOrgan, error) {
	var (
		t        TargetOrgan
		abnormal *bool
	)
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COALESCE(full_blood_count, ''), COALESCE(renal_function, ''), COALESCE(liver_function, ''),
			COALESCE(chest_xray, ''), COALESCE(spirometry, ''), COALESCE(others, ''), abnormal
		FROM target_organ_data WHERE surveillance_id = $1`, sid,
	).Scan(&t.FullBloodCount, &t.RenalFunction, &t.LiverFunction, &t.ChestXray, &t.Spirometry, &t.Others, &abnormal)
	if err != nil {
		return nil, missing(err)
	}
	t.Abnormal = yesno.FromBool(abnormal)
	return &t, nil
}

func (r *repoPG) getBiological(ctx context.Context, sid int64) (*BiologicalMonitoring, error) {
	var (
		b        BiologicalMonitoring
		abnormal *bool
	)
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COALESCE(biological_exposure, ''), COALESCE(determinant, ''), COALESCE(sampling_time, ''),
			COALESCE(result_value, ''), COALESCE(reference_limit, ''), abnormal
		FROM biological_monitoring_data WHERE surveillance_id = $1`, sid,
	).Scan(&b.BiologicalExposure, &b.Determinant, &b.SamplingTime, &b.ResultValue, &b.ReferenceLimit, &abnormal)
	if err != nil {
		return nil, missing(err)
	}
	b.Abnormal = yesno.FromBool(abnormal)
	return &b, nil
}

func (r *repoPG) getFitness(ctx context.Context, sid int64) (*FitnessRespirator, error) {
	var f FitnessRespirator
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COALESCE(respirator_type, ''), COALESCE(result, ''), COALESCE(justification, '')
		FROM fitness_respirator_data WHERE surveillance_id = $1`, sid,
	).Scan(&f.RespiratorType, &f.Result, &f.Justification)
	if err != nil {
		return nil, missing(err)
	}
	return &f, nil
}

func (r *repoPG) getConclusion(ctx context.Context, sid int64) (*Conclusion, error) {
	var (
		c    Conclusion
		vals = make([]*bool, 6)
	)
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT history_of_health, clinical_findings, target_organ, biological_monitoring,
			pregnancy_breastfeeding, work_related, COALESCE(conclusion_notes, '')
		FROM conclusion_ms_finding WHERE surveillance_id = $1`, sid,
	).Scan(&vals[0], &vals[1], &vals[2], &vals[3], &vals[4], &vals[5], &c.Notes)
	if err != nil {
		return nil, missing(err)
	}
	for i, v := range []*yesno.Value{
		&c.HistoryOfHealth, &c.ClinicalFindings, &c.TargetOrgan,
		&c.BiologicalMonitoring, &c.PregnancyBreastfeeding, &c.WorkRelated,
	} {
		*v = yesno.FromBool(vals[i])
	}
	return &c, nil
}

func (r *repoPG) getRecommendation(ctx context.Context, sid int64) (*Recommendation, error) {
	var rec Recommendation
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT COALESCE(recommendation_type, ''), date_of_mrp, next_review_date, COALESCE(notes, '')
		FROM recommendations WHERE surveillance_id = $1`, sid,
	).Scan(&rec.RecommendationType, &rec.DateOfMRP, &rec.NextReviewDate, &rec.Notes)
	if err != nil {
		return nil, missing(err)
	}
	return &rec, nil
}

var dependentTables = []string{
	"target_organ_data", "biological_monitoring_data", "fitness_respirator_data",
	"conclusion_ms_finding", "recommendations",
}

func (r *repoPG) DeleteRecord(ctx context.Context, sid int64) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context) error {
		for _, table := range dependentTables {
			if _, err := r.conn(ctx).Exec(ctx, `DELETE FROM `+table+` WHERE surveillance_id = $1`, sid); err != nil {
				return err
			}
		}
		tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM chemical_information WHERE surveillance_id = $1`, sid)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}
		return nil
	})
}

func (r *repoPG) ListRows(ctx context.Context, f Filter) ([]ListRow, error) {
	var (
		args  []interface{}
		where []string
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	// With a company filter every employee of the company is listed, so
	// patients without an examination show up with a NULL surveillance id.
	// A patient with several stints at the company repeats each examination.
	var from string
	if f.CompanyID > 0 {
		from = `
		FROM patient_information p
		JOIN occupational_history oh ON oh.patient_id = p.id
		JOIN company c ON LOWER(TRIM(c.name)) = LOWER(TRIM(oh.company_name))
		LEFT JOIN chemical_information ci ON ci.patient_id = p.id`
		where = append(where, "c.id = "+arg(f.CompanyID))
	} else {
		from = `
		FROM chemical_information ci
		JOIN patient_information p ON p.id = ci.patient_id
		LEFT JOIN occupational_history oh ON oh.patient_id = p.id AND oh.is_current
		LEFT JOIN company c ON LOWER(TRIM(c.name)) = LOWER(TRIM(oh.company_name))`
	}
	if f.PatientID > 0 {
		where = append(where, "p.id = "+arg(f.PatientID))
	}
	if f.From != nil {
		where = append(where, "ci.examination_date >= "+arg(*f.From))
	}
	if f.To != nil {
		where = append(where, "ci.examination_date <= "+arg(*f.To))
	}

	sql := `
		SELECT ci.surveillance_id, p.id,
			TRIM(p.first_name || ' ' || p.last_name), COALESCE(NULLIF(p.nric, ''), COALESCE(p.passport_no, '')),
			COALESCE(c.name, oh.company_name, ''),
			COALESCE(ci.chemical, ''), COALESCE(ci.examination_type, ''), ci.examination_date,
			COALESCE(ci.examiner_name, ''), COALESCE(ci.fitness_status, ''),
			COALESCE(fr.result, ''), COALESCE(rec.recommendation_type, '')` + from + `
		LEFT JOIN fitness_respirator_data fr ON fr.surveillance_id = ci.surveillance_id
		LEFT JOIN recommendations rec ON rec.surveillance_id = ci.surveillance_id`
	if len(where) > 0 {
		sql += ` WHERE ` + strings.Join(where, " AND ")
	}
	sql += ` ORDER BY ci.examination_date DESC NULLS LAST, ci.surveillance_id DESC NULLS LAST, p.last_name, p.first_name`

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ListRow
	for rows.Next() {
		var row ListRow
		if err := rows.Scan(
			&row.SurveillanceID, &row.PatientID, &row.PatientName, &row.NRIC, &row.CompanyName,
			&row.Chemical, &row.ExaminationType, &row.ExaminationDate,
			&row.ExaminerName, &row.FitnessStatus, &row.RespiratorResult, &row.RecommendationType,
		); err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func (r *repoPG) CompanyIDForPatient(ctx context.Context, patientID int64) (int64, error) {
	var id int64
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT c.id
		FROM occupational_history oh
		JOIN company c ON LOWER(TRIM(c.name)) = LOWER(TRIM(oh.company_name))
		WHERE oh.patient_id = $1 AND oh.is_current
		LIMIT 1`, patientID,
	).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return id, err
}
