package interfaces

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	catalog "phm-catalog/internal/catalog/domain"
)

func exportRecord() *catalog.Record {
	return &catalog.Record{
		Identifier:        "i1",
		Title:             "Centrifugal pump seeded-fault campaign",
		SubmissionDate:    "2024-03-01",
		PublicReleaseDate: "2024-09-01",
		Contacts: []catalog.Contact{
			{FirstName: "Ada", LastName: "Veldkamp", Affiliation: "Pump Diagnostics Lab"},
		},
		StudyDetails: []catalog.StudyDetail{
			{
				Title:          "Impeller crack, stationary speed",
				ExperimentType: "Diagnostic",
				FaultType:      "Fault",
				FaultSeverity:  "3",
				UsedSetup: catalog.Setup{
					Name:            "Pump rig A",
					NumberOfSensors: 1,
					Sensors: []catalog.Sensor{
						{
							Identifier:         "s1",
							MeasurementType:    "acceleration",
							TechnologyPlatform: "IEPE accelerometer",
							SamplingRate:       "25.6",
							SamplingUnit:       "kHz",
						},
					},
				},
				Runs: []catalog.Run{{}},
			},
		},
	}
}

func TestBuildCatalogXLSX(t *testing.T) {
	payload, err := BuildCatalogXLSX([]*catalog.Record{exportRecord()})
	if err != nil {
		t.Fatalf("BuildCatalogXLSX: %v", err)
	}

	workbook, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("open workbook: %v", err)
	}
	defer workbook.Close()

	id, err := workbook.GetCellValue("records", "A2")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if id != "i1" {
		t.Fatalf("A2 = %q, want i1", id)
	}
	sensor, err := workbook.GetCellValue("sensors", "C2")
	if err != nil {
		t.Fatalf("read cell: %v", err)
	}
	if sensor != "s1" {
		t.Fatalf("sensors C2 = %q, want s1", sensor)
	}
}

func TestBuildRecordPDF(t *testing.T) {
	payload, err := BuildRecordPDF(exportRecord())
	if err != nil {
		t.Fatalf("BuildRecordPDF: %v", err)
	}
	if !bytes.HasPrefix(payload, []byte("%PDF")) {
		t.Fatalf("payload does not look like a PDF: %q", payload[:8])
	}
}
