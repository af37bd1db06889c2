package resolve

import (
	"encoding/json"
	"strings"
	"testing"

	catalog "phm-catalog/internal/catalog/domain"
)

func sampleRecord() *catalog.Record {
	return &catalog.Record{
		Identifier: "i1",
		Title:      "Centrifugal pump seeded-fault campaign",
		StudyDetails: []catalog.StudyDetail{
			{
				Title:          "Impeller crack, stationary speed",
				ExperimentType: "Diagnostic",
				FaultType:      "Fault",
				FaultSeverity:  "3",
				UsedSetup: catalog.Setup{
					Name:            "Pump rig A",
					NumberOfSensors: 2,
					Sensors: []catalog.Sensor{
						{Identifier: "s1", MeasurementType: "acceleration", TechnologyPlatform: "IEPE accelerometer"},
						{Identifier: "s2", MeasurementType: "current", TechnologyPlatform: "Hall probe"},
					},
				},
				Runs: []catalog.Run{
					{
						RunConditions: []catalog.RunCondition{
							{Name: "Motor Speed", Value: "1480", Unit: "RPM"},
						},
						AssayDetails: []catalog.AssayDetail{
							{
								UsedSensor: catalog.SensorRef{Identifier: "s1"},
								FileDetails: catalog.FileDetails{
									RawFileName:     "run1_s1.csv",
									NumberOfColumns: 2,
									Labels:          []string{"time", "acc_x"},
								},
							},
						},
					},
				},
			},
		},
	}
}

func TestRecordResolves(t *testing.T) {
	if violations := Record(sampleRecord()); len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestRecordDanglingReference(t *testing.T) {
	record := sampleRecord()
	record.StudyDetails[0].Runs[0].AssayDetails[0].UsedSensor.Identifier = "s9"

	violations := Record(record)
	if len(violations) != 1 {
		t.Fatalf("expected 1 violation, got %v", violations)
	}
	v := violations[0]
	if v.Kind != catalog.ViolationDanglingReference {
		t.Fatalf("kind = %s, want %s", v.Kind, catalog.ViolationDanglingReference)
	}
	if v.Path != "study_details[0].runs[0].assay_details[0]" {
		t.Fatalf("path = %q", v.Path)
	}
	if !strings.Contains(v.Message, `"s9"`) {
		t.Fatalf("message %q does not name the missing sensor", v.Message)
	}
}

func TestRecordDuplicateSensorIdentifier(t *testing.T) {
	record := sampleRecord()
	record.StudyDetails[0].UsedSetup.Sensors[1].Identifier = "s1"

	violations := Record(record)
	found := false
	for _, v := range violations {
		if v.Kind == catalog.ViolationDuplicateIdentifier {
			found = true
			if v.Path != "study_details[0].used_setup.sensors[1].identifier" {
				t.Fatalf("path = %q", v.Path)
			}
		}
	}
	if !found {
		t.Fatalf("expected duplicate identifier violation, got %v", violations)
	}
}

func TestRecordCollectsIndependentViolations(t *testing.T) {
	record := sampleRecord()
	record.StudyDetails[0].UsedSetup.NumberOfSensors = 1
	record.StudyDetails[0].Runs[0].AssayDetails[0].FileDetails.Labels = []string{"time"}
	record.StudyDetails[0].Runs[0].AssayDetails[0].UsedSensor.Identifier = "s9"

	violations := Record(record)
	kinds := make(map[catalog.ViolationKind]int)
	for _, v := range violations {
		kinds[v.Kind]++
	}
	if kinds[catalog.ViolationSchema] != 2 {
		t.Fatalf("expected 2 count mismatches, got %v", violations)
	}
	if kinds[catalog.ViolationDanglingReference] != 1 {
		t.Fatalf("expected dangling reference alongside count mismatches, got %v", violations)
	}
}

func TestBindLegacyWireFormat(t *testing.T) {
	raw := map[string]any{}
	document := `{
		"identifier": "i-legacy",
		"title": "Legacy record",
		"study_details": [{
			"title": "Study",
			"experiment_type": "Diagnostic",
			"used_setup": {
				"name": "Rig",
				"number_of_sensors": 1,
				"sensors": [{"identifier": "s1", "measurement_type": "acceleration"}]
			},
			"runs": [{
				"assay_details": [{
					"used_sensor": {"identifier": "s1", "measurement_type": "acceleration"},
					"file_details": {
						"raw_file_name": "r.csv",
						"proccesed_file_name": "p.csv",
						"proccesed_file_location": "processed/",
						"file_parameters": [{
							"parameter": {"parameter_name": "filter type"},
							"value": {"value": "lowpass", "unit": ""}
						}],
						"number_of_columns": 1,
						"labels": ["acc_x"]
					}
				}]
			}]
		}]
	}`
	if err := json.Unmarshal([]byte(document), &raw); err != nil {
		t.Fatalf("unmarshal fixture: %v", err)
	}

	record, err := Bind(raw)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if violations := Record(record); len(violations) != 0 {
		t.Fatalf("expected legacy record to resolve, got %v", violations)
	}

	assay := record.StudyDetails[0].Runs[0].AssayDetails[0]
	if assay.UsedSensor.Identifier != "s1" {
		t.Fatalf("sensor ref = %q, want s1", assay.UsedSensor.Identifier)
	}
	if assay.FileDetails.ProcessedFileName != "p.csv" {
		t.Fatalf("processed file = %q, want p.csv", assay.FileDetails.ProcessedFileName)
	}
	if assay.FileDetails.ProcessedFileLocation != "processed/" {
		t.Fatalf("processed location = %q", assay.FileDetails.ProcessedFileLocation)
	}
	if len(assay.FileDetails.FileParameters) != 1 {
		t.Fatalf("file parameters = %v", assay.FileDetails.FileParameters)
	}
	if p := assay.FileDetails.FileParameters[0]; p.Name != "filter type" || p.Value != "lowpass" {
		t.Fatalf("file parameter = %+v", p)
	}
}

func TestBindBareSensorReference(t *testing.T) {
	raw := map[string]any{
		"identifier": "i2",
		"title":      "Bare reference",
		"study_details": []any{
			map[string]any{
				"title":           "Study",
				"experiment_type": "Diagnostic",
				"used_setup": map[string]any{
					"name":              "Rig",
					"number_of_sensors": float64(1),
					"sensors": []any{
						map[string]any{"identifier": "s1", "measurement_type": "acceleration"},
					},
				},
				"runs": []any{
					map[string]any{
						"assay_details": []any{
							map[string]any{
								"used_sensor": "s1",
								"file_details": map[string]any{
									"number_of_columns": float64(0),
									"labels":            []any{},
								},
							},
						},
					},
				},
			},
		},
	}

	record, err := Bind(raw)
	if err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if got := record.StudyDetails[0].Runs[0].AssayDetails[0].UsedSensor.Identifier; got != "s1" {
		t.Fatalf("sensor ref = %q, want s1", got)
	}
	if violations := Record(record); len(violations) != 0 {
		t.Fatalf("expected no violations, got %v", violations)
	}
}

func TestSensorLookupReturnsCanonicalDefinition(t *testing.T) {
	record := sampleRecord()
	study := &record.StudyDetails[0]
	sensor, ok := study.Sensor(study.Runs[0].AssayDetails[0].UsedSensor.Identifier)
	if !ok {
		t.Fatal("expected sensor lookup to succeed")
	}
	if sensor != &study.UsedSetup.Sensors[0] {
		t.Fatal("lookup must return the canonical definition, not a copy")
	}
}
