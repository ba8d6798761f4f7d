package surveillance

import (
	"time"

	"github.com/ohclinic/ohclinic/internal/domain/declaration"
	"github.com/ohclinic/ohclinic/pkg/yesno"
)

// HistoryOfHealth is the symptom checklist of the examination.
type HistoryOfHealth struct {
	BreathingDifficulty yesno.Value `form:"breathing_difficulty"`
	Cough               yesno.Value `form:"cough"`
	SoreThroat          yesno.Value `form:"sore_throat"`
	Sneezing            yesno.Value `form:"sneezing"`
	ChestPain           yesno.Value `form:"chest_pain"`
	Palpitation         yesno.Value `form:"palpitation"`
	LimbOedema          yesno.Value `form:"limb_oedema"`
	Drowsiness          yesno.Value `form:"drowsiness"`
	Dizziness           yesno.Value `form:"dizziness"`
	Headache            yesno.Value `form:"headache"`
	Confusion           yesno.Value `form:"confusion"`
	Lethargy            yesno.Value `form:"lethargy"`
	Nausea              yesno.Value `form:"nausea"`
	Vomiting            yesno.Value `form:"vomiting"`
	EyeIrritation       yesno.Value `form:"eye_irritation"`
	BlurredVision       yesno.Value `form:"blurred_vision"`
	SkinBlisters        yesno.Value `form:"skin_blisters"`
	SkinBurns           yesno.Value `form:"skin_burns"`
	SkinItching         yesno.Value `form:"skin_itching"`
	SkinRash            yesno.Value `form:"skin_rash"`
	SkinRedness         yesno.Value `form:"skin_redness"`
	AbdominalPain       yesno.Value `form:"abdominal_pain"`
	AbdominalMass       yesno.Value `form:"abdominal_mass"`
	BloodInUrine        yesno.Value `form:"blood_in_urine"`
	OthersSymptoms      string      `form:"others_symptoms"`
}

// Item is one labelled Yes/No answer, in form order.
type Item struct {
	Key   string
	Label string
	Value yesno.Value
}

// Items lists the symptoms grouped as they appear on USECHH 1.
func (h *HistoryOfHealth) Items() []Item {
	return []Item{
		{"breathing_difficulty", "Breathing difficulty", h.BreathingDifficulty},
		{"cough", "Cough", h.Cough},
		{"sore_throat", "Sore throat", h.SoreThroat},
		{"sneezing", "Sneezing", h.Sneezing},
		{"chest_pain", "Chest pain", h.ChestPain},
		{"palpitation", "Palpitation", h.Palpitation},
		{"limb_oedema", "Limb oedema", h.LimbOedema},
		{"drowsiness", "Drowsiness", h.Drowsiness},
		{"dizziness", "Dizziness", h.Dizziness},
		{"headache", "Headache", h.Headache},
		{"confusion", "Confusion", h.Confusion},
		{"lethargy", "Lethargy", h.Lethargy},
		{"nausea", "Nausea", h.Nausea},
		{"vomiting", "Vomiting", h.Vomiting},
		{"eye_irritation", "Eye irritation", h.EyeIrritation},
		{"blurred_vision", "Blurred vision", h.BlurredVision},
		{"skin_blisters", "Skin blisters", h.SkinBlisters},
		{"skin_burns", "Skin burns", h.SkinBurns},
		{"skin_itching", "Skin itching", h.SkinItching},
		{"skin_rash", "Skin rash", h.SkinRash},
		{"skin_redness", "Skin redness", h.SkinRedness},
		{"abdominal_pain", "Abdominal pain", h.AbdominalPain},
		{"abdominal_mass", "Abdominal mass", h.AbdominalMass},
		{"blood_in_urine", "Blood in urine", h.BloodInUrine},
	}
}

// AnyYes reports whether at least one symptom was answered Yes.
func (h *HistoryOfHealth) AnyYes() bool {
	for _, it := range h.Items() {
		if it.Value == yesno.Yes {
			return true
		}
	}
	return false
}

// ClinicalFindings summarises the history and examination.
type ClinicalFindings struct {
	HistoryOfHealthAbnormal  yesno.Value `form:"history_of_health_abnormal"`
	ClinicalFindingsAbnormal yesno.Value `form:"clinical_findings_abnormal"`
	Notes                    string      `form:"clinical_findings_notes"`
}

// PhysicalExam holds vital signs and per-system findings.
type PhysicalExam struct {
	WeightKg        *float64
	HeightCm        *float64
	BMI             *float64
	BPSystolic      *int
	BPDiastolic     *int
	PulseRate       *int
	RespiratoryRate *int

	GeneralAppearanceNormal yesno.Value `form:"general_appearance_normal"`
	SkinNormal              yesno.Value `form:"skin_normal"`
	EyesNormal              yesno.Value `form:"eyes_normal"`
	ENTNormal               yesno.Value `form:"ent_normal"`
	CardiovascularNormal    yesno.Value `form:"cardiovascular_normal"`
	RespiratoryNormal       yesno.Value `form:"respiratory_normal"`
	AbdomenNormal           yesno.Value `form:"abdomen_normal"`
	NeurologicalNormal      yesno.Value `form:"neurological_normal"`
	MusculoskeletalNormal   yesno.Value `form:"musculoskeletal_normal"`
	RenalNormal             yesno.Value `form:"renal_normal"`
	ReproductiveNormal      yesno.Value `form:"reproductive_normal"`
}

// Systems lists the per-system "normal?" answers.
func (p *PhysicalExam) Systems() []Item {
	return []Item{
		{"general_appearance_normal", "General appearance", p.GeneralAppearanceNormal},
		{"skin_normal", "Skin", p.SkinNormal},
		{"eyes_normal", "Eyes", p.EyesNormal},
		{"ent_normal", "Ear, nose and throat", p.ENTNormal},
		{"cardiovascular_normal", "Cardiovascular", p.CardiovascularNormal},
		{"respiratory_normal", "Respiratory", p.RespiratoryNormal},
		{"abdomen_normal", "Abdomen", p.AbdomenNormal},
		{"neurological_normal", "Neurological", p.NeurologicalNormal},
		{"musculoskeletal_normal", "Musculoskeletal", p.MusculoskeletalNormal},
		{"renal_normal", "Renal", p.RenalNormal},
		{"reproductive_normal", "Reproductive", p.ReproductiveNormal},
	}
}

// Record maps to chemical_information, the primary row of one examination.
type Record struct {
	SurveillanceID  int64      `db:"surveillance_id"`
	PatientID       int64      `db:"patient_id"`
	Workplace       string     `db:"workplace"`
	Chemical        string     `db:"chemical"`
	ExaminationType string     `db:"examination_type"`
	ExaminationDate *time.Time `db:"examination_date"`
	ExaminerName    string     `db:"examiner_name"`
	History         HistoryOfHealth
	Findings        ClinicalFindings
	Physical        PhysicalExam
	FitnessStatus   string    `db:"fitness_status"`
	CreatedAt       time.Time `db:"created_at"`
}

// TargetOrgan maps to target_organ_data.
type TargetOrgan struct {
	FullBloodCount string      `form:"full_blood_count"`
	RenalFunction  string      `form:"renal_function"`
	LiverFunction  string      `form:"liver_function"`
	ChestXray      string      `form:"chest_xray"`
	Spirometry     string      `form:"spirometry"`
	Others         string      `form:"target_organ_others"`
	Abnormal       yesno.Value `form:"target_organ_abnormal"`
}

// BiologicalMonitoring maps to biological_monitoring_data.
type BiologicalMonitoring struct {
	BiologicalExposure string      `form:"-"`
	Determinant        string      `form:"determinant"`
	SamplingTime       string      `form:"sampling_time"`
	ResultValue        string      `form:"result_value"`
	ReferenceLimit     string      `form:"reference_limit"`
	Abnormal           yesno.Value `form:"biological_abnormal"`
}

// FitnessRespirator maps to fitness_respirator_data.
type FitnessRespirator struct {
	RespiratorType string `form:"respirator_type"`
	Result         string `form:"respirator_result"`
	Justification  string `form:"respirator_justification"`
}

// Conclusion maps to conclusion_ms_finding.
type Conclusion struct {
	HistoryOfHealth        yesno.Value `form:"conclusion_history_of_health"`
	ClinicalFindings       yesno.Value `form:"conclusion_clinical_findings"`
	TargetOrgan            yesno.Value `form:"conclusion_target_organ"`
	BiologicalMonitoring   yesno.Value `form:"conclusion_biological_monitoring"`
	PregnancyBreastfeeding yesno.Value `form:"conclusion_pregnancy_breastfeeding"`
	WorkRelated            yesno.Value `form:"conclusion_work_related"`
	Notes                  string      `form:"conclusion_notes"`
}

// Items lists the conclusion answers as printed on USECHH 1.
func (c *Conclusion) Items() []Item {
	return []Item{
		{"conclusion_history_of_health", "History of health", c.HistoryOfHealth},
		{"conclusion_clinical_findings", "Clinical findings", c.ClinicalFindings},
		{"conclusion_target_organ", "Target organ function", c.TargetOrgan},
		{"conclusion_biological_monitoring", "Biological monitoring", c.BiologicalMonitoring},
		{"conclusion_pregnancy_breastfeeding", "Pregnancy / breastfeeding", c.PregnancyBreastfeeding},
		{"conclusion_work_related", "Work related", c.WorkRelated},
	}
}

// Recommendation maps to recommendations.
type Recommendation struct {
	RecommendationType string
	DateOfMRP          *time.Time
	NextReviewDate     *time.Time
	Notes              string
}

// FullRecord is one examination with every dependent present in storage.
// A nil dependent was never written.
type FullRecord struct {
	Record
	TargetOrgan    *TargetOrgan
	Biological     *BiologicalMonitoring
	Fitness        *FitnessRespirator
	Conclusion     *Conclusion
	Recommendation *Recommendation
}

// ListRow is one line of the surveillance list. SurveillanceID is nil for
// employees without an examination on record.
type ListRow struct {
	SurveillanceID     *int64
	PatientID          int64
	PatientName        string
	NRIC               string
	CompanyName        string
	Chemical           string
	ExaminationType    string
	ExaminationDate    *time.Time
	ExaminerName       string
	FitnessStatus      string
	RespiratorResult   string
	RecommendationType string

	Declaration *declaration.Declaration
}

// Filter narrows the surveillance list.
type Filter struct {
	CompanyID int64
	PatientID int64
	From      *time.Time
	To        *time.Time
}
