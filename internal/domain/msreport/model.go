// Package msreport holds the per-company medical surveillance summary report:
// its saved metadata and the document composed from live examination data.
package msreport

import (
	"encoding/json"
	"time"
)

// Indication keys for medical surveillance.
const (
	IndicationSignificantExposure = "significant_exposure"
	IndicationCHRARecommendation  = "chra_recommendation"
	IndicationSymptomsReported    = "symptoms_reported"
	IndicationBiological          = "biological_monitoring"
	IndicationOthers              = "others"
)

// Indication is one checkbox of the indication section.
type Indication struct {
	Key   string
	Label string
}

// Indications lists the accepted keys in display order.
var Indications = []Indication{
	{IndicationSignificantExposure, "Significant exposure to a chemical hazardous to health"},
	{IndicationCHRARecommendation, "Recommended by the chemical health risk assessment"},
	{IndicationSymptomsReported, "Symptoms or signs reported by employees"},
	{IndicationBiological, "Biological monitoring results above the limit"},
	{IndicationOthers, "Others"},
}

// Report maps to ms_report_data; one row per company.
type Report struct {
	ID                     int64      `db:"id"`
	CompanyID              int64      `db:"company_id"`
	Indications            []string   `db:"indication_data"`
	OthersDetails          string     `db:"others_details"`
	CHRAReportNo           string     `db:"chra_report_no"`
	CHRADate               *time.Time `db:"chra_date"`
	AssessorName           string     `db:"assessor_name"`
	DecisionSummary        string     `db:"decision_summary"`
	RecommendationsSummary string     `db:"recommendations_summary"`
	UpdatedAt              time.Time  `db:"updated_at"`
}

// Has reports whether the indication key is selected.
func (r *Report) Has(key string) bool {
	for _, k := range r.Indications {
		if k == key {
			return true
		}
	}
	return false
}

// Input is the ms_report form body.
type Input struct {
	CompanyID              string   `form:"company_id"`
	Indications            []string `form:"indications"`
	OthersDetails          string   `form:"others_details"`
	CHRAReportNo           string   `form:"chra_report_no"`
	CHRADate               string   `form:"chra_date"`
	AssessorName           string   `form:"assessor_name"`
	DecisionSummary        string   `form:"decision_summary"`
	RecommendationsSummary string   `form:"recommendations_summary"`
}

// NormalizeIndications drops unknown and repeated keys and returns the rest
// in display order.
func NormalizeIndications(keys []string) []string {
	selected := make(map[string]bool, len(keys))
	for _, k := range keys {
		selected[k] = true
	}
	out := make([]string, 0, len(keys))
	for _, ind := range Indications {
		if selected[ind.Key] {
			out = append(out, ind.Key)
		}
	}
	return out
}

// EncodeIndications is the JSON stored in indication_data.
func EncodeIndications(keys []string) ([]byte, error) {
	if keys == nil {
		keys = []string{}
	}
	return json.Marshal(keys)
}

// DecodeIndications reads indication_data. An empty column is no selection.
func DecodeIndications(data []byte) ([]string, error) {
	if len(data) == 0 || string(data) == "null" {
		return []string{}, nil
	}
	var keys []string
	if err := json.Unmarshal(data, &keys); err != nil {
		return nil, err
	}
	return keys, nil
}
