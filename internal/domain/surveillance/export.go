package surveillance

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Surveillance"

// ExportHeader is the column order of the spreadsheet export.
var ExportHeader = []string{
	"Surveillance ID",
	"Patient",
	"NRIC / Passport",
	"Company",
	"Chemical",
	"Examination Type",
	"Examination Date",
	"Examiner",
	"Fitness Status",
	"Respirator Result",
	"Recommendation",
	"Patient Signed",
	"Doctor Signed",
}

var exportColumnWidths = []float64{14, 28, 18, 28, 22, 16, 16, 24, 18, 18, 22, 14, 14}

// ExportXLSX writes the list rows to a single-sheet workbook.
func ExportXLSX(rows []ListRow) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(exportSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}
	f.SetActiveSheet(index)

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for i, h := range ExportHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(exportSheet, cell, h); err != nil {
			return nil, fmt.Errorf("set header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(exportSheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("set header style: %w", err)
		}
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(exportSheet, col, col, exportColumnWidths[i]); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	for r, row := range rows {
		values := exportValues(row)
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(exportSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("write row %d: %w", r+2, err)
		}
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func exportValues(row ListRow) []interface{} {
	var sid interface{} = ""
	if row.SurveillanceID != nil {
		sid = *row.SurveillanceID
	}
	var examDate interface{} = ""
	if row.ExaminationDate != nil {
		examDate = row.ExaminationDate.Format("02/01/2006")
	}
	patientSigned, doctorSigned := "No", "No"
	if d := row.Declaration; d != nil {
		if d.PatientSignature != "" {
			patientSigned = "Yes"
		}
		if d.DoctorSignature != "" {
			doctorSigned = "Yes"
		}
	}
	return []interface{}{
		sid, row.PatientName, row.NRIC, row.CompanyName, row.Chemical, row.ExaminationType,
		examDate, row.ExaminerName, row.FitnessStatus, row.RespiratorResult, row.RecommendationType,
		patientSigned, doctorSigned,
	}
}
