package interfaces

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	catalog "phm-catalog/internal/catalog/domain"
)

// BuildCatalogXLSX renders a workbook summarizing every admitted record.
func BuildCatalogXLSX(records []*catalog.Record) ([]byte, error) {
	f := excelize.NewFile()
	recordsSheet := "records"
	sensorsSheet := "sensors"
	f.SetSheetName("Sheet1", recordsSheet)
	f.NewSheet(sensorsSheet)

	headers := []string{"Identifier", "Title", "Released", "Studies", "Fault Types", "Severities", "Sensors"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(recordsSheet, cell, header)
	}
	for i, record := range records {
		row := i + 2
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("A%d", row), record.Identifier)
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("B%d", row), record.Title)
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("C%d", row), record.PublicReleaseDate)
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("D%d", row), len(record.StudyDetails))
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("E%d", row), joinDistinct(faultTypes(record)))
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("F%d", row), joinDistinct(severities(record)))
		_ = f.SetCellValue(recordsSheet, fmt.Sprintf("G%d", row), sensorCount(record))
	}

	_ = f.SetCellValue(sensorsSheet, "A1", "Record")
	_ = f.SetCellValue(sensorsSheet, "B1", "Study")
	_ = f.SetCellValue(sensorsSheet, "C1", "Sensor")
	_ = f.SetCellValue(sensorsSheet, "D1", "Measurement")
	_ = f.SetCellValue(sensorsSheet, "E1", "Technology")
	_ = f.SetCellValue(sensorsSheet, "F1", "Sampling")
	row := 2
	for _, record := range records {
		for _, study := range record.StudyDetails {
			for _, sensor := range study.UsedSetup.Sensors {
				_ = f.SetCellValue(sensorsSheet, fmt.Sprintf("A%d", row), record.Identifier)
				_ = f.SetCellValue(sensorsSheet, fmt.Sprintf("B%d", row), study.Title)
				_ = f.SetCellValue(sensorsSheet, fmt.Sprintf("C%d", row), sensor.Identifier)
				_ = f.SetCellValue(sensorsSheet, fmt.Sprintf("D%d", row), sensor.MeasurementType)
				_ = f.SetCellValue(sensorsSheet, fmt.Sprintf("E%d", row), sensor.TechnologyPlatform)
				_ = f.SetCellValue(sensorsSheet, fmt.Sprintf("F%d", row), strings.TrimSpace(sensor.SamplingRate+" "+sensor.SamplingUnit))
				row++
			}
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildRecordPDF renders a datasheet for one record.
func BuildRecordPDF(record *catalog.Record) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Dataset Record")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Identifier: %s", record.Identifier))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Title: %s", record.Title))
	pdf.Ln(5)
	if record.SubmissionDate != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Submitted: %s", record.SubmissionDate))
		pdf.Ln(5)
	}
	if record.PublicReleaseDate != "" {
		pdf.Cell(0, 6, fmt.Sprintf("Released: %s", record.PublicReleaseDate))
		pdf.Ln(5)
	}
	for _, contact := range record.Contacts {
		pdf.Cell(0, 6, fmt.Sprintf("Contact: %s %s (%s)", contact.FirstName, contact.LastName, contact.Affiliation))
		pdf.Ln(5)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(60, 6, "Study", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Experiment", "1", 0, "C", false, 0, "")
	pdf.CellFormat(35, 6, "Fault", "1", 0, "C", false, 0, "")
	pdf.CellFormat(25, 6, "Severity", "1", 0, "C", false, 0, "")
	pdf.CellFormat(20, 6, "Runs", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, study := range record.StudyDetails {
		pdf.CellFormat(60, 6, study.Title, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, study.ExperimentType, "1", 0, "L", false, 0, "")
		pdf.CellFormat(35, 6, study.FaultType, "1", 0, "L", false, 0, "")
		pdf.CellFormat(25, 6, study.FaultSeverity, "1", 0, "C", false, 0, "")
		pdf.CellFormat(20, 6, fmt.Sprintf("%d", len(study.Runs)), "1", 0, "R", false, 0, "")
		pdf.Ln(-1)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(30, 6, "Sensor", "1", 0, "C", false, 0, "")
	pdf.CellFormat(45, 6, "Measurement", "1", 0, "C", false, 0, "")
	pdf.CellFormat(60, 6, "Technology", "1", 0, "C", false, 0, "")
	pdf.CellFormat(40, 6, "Sampling", "1", 0, "C", false, 0, "")
	pdf.Ln(-1)
	pdf.SetFont("Arial", "", 10)
	for _, study := range record.StudyDetails {
		for _, sensor := range study.UsedSetup.Sensors {
			pdf.CellFormat(30, 6, sensor.Identifier, "1", 0, "L", false, 0, "")
			pdf.CellFormat(45, 6, sensor.MeasurementType, "1", 0, "L", false, 0, "")
			pdf.CellFormat(60, 6, sensor.TechnologyPlatform, "1", 0, "L", false, 0, "")
			pdf.CellFormat(40, 6, strings.TrimSpace(sensor.SamplingRate+" "+sensor.SamplingUnit), "1", 0, "R", false, 0, "")
			pdf.Ln(-1)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func faultTypes(record *catalog.Record) []string {
	var out []string
	for _, study := range record.StudyDetails {
		if study.FaultType != "" {
			out = append(out, study.FaultType)
		}
	}
	return out
}

func severities(record *catalog.Record) []string {
	var out []string
	for _, study := range record.StudyDetails {
		if study.FaultSeverity != "" {
			out = append(out, study.FaultSeverity)
		}
	}
	return out
}

func sensorCount(record *catalog.Record) int {
	total := 0
	for _, study := range record.StudyDetails {
		total += len(study.UsedSetup.Sensors)
	}
	return total
}

func joinDistinct(values []string) string {
	seen := make(map[string]struct{}, len(values))
	var out []string
	for _, value := range values {
		if _, ok := seen[value]; ok {
			continue
		}
		seen[value] = struct{}{}
		out = append(out, value)
	}
	return strings.Join(out, ", ")
}
