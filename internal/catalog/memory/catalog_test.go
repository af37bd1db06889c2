package memory

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	catalog "phm-catalog/internal/catalog/domain"
)

func sampleRaw(id string) map[string]any {
	return map[string]any{
		"identifier":          id,
		"title":               "Centrifugal pump seeded-fault campaign",
		"submission_date":     "2024-03-01",
		"public_release_date": "2024-09-01",
		"study_details": []any{
			map[string]any{
				"title":           "Impeller crack, stationary speed",
				"experiment_type": "Diagnostic",
				"fault_type":      "Fault",
				"fault_position":  "Impeller",
				"fault_severity":  "3",
				"used_setup": map[string]any{
					"name":              "Pump rig A",
					"number_of_sensors": float64(1),
					"sensors": []any{
						map[string]any{
							"identifier":          "s1",
							"measurement_type":    "acceleration",
							"technology_platform": "IEPE accelerometer",
							"sampling_rate":       "25.6",
							"sampling_unit":       "kHz",
						},
					},
				},
				"runs": []any{
					map[string]any{
						"run_conditions": []any{
							map[string]any{"name": "Motor Speed", "value": "1480", "unit": "RPM"},
						},
						"assay_details": []any{
							map[string]any{
								"used_sensor": map[string]any{"identifier": "s1"},
								"file_details": map[string]any{
									"raw_file_name":     "run1_s1.csv",
									"number_of_columns": float64(2),
									"labels":            []any{"time", "acc_x"},
								},
							},
						},
					},
				},
			},
		},
	}
}

func mustAdmit(t *testing.T, c *Catalog, raw map[string]any) {
	t.Helper()
	violations, err := c.Admit(raw)
	if err != nil {
		t.Fatalf("Admit: %v (violations %v)", err, violations)
	}
}

func TestAdmitRoundTrip(t *testing.T) {
	c := New()
	mustAdmit(t, c, sampleRaw("i1"))

	record, err := c.Get("i1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if record.Identifier != "i1" {
		t.Fatalf("identifier = %q, want i1", record.Identifier)
	}
	if diff := cmp.Diff([]string{"i1"}, c.Identifiers()); diff != "" {
		t.Fatalf("identifiers mismatch (-want +got):\n%s", diff)
	}
}

func TestAdmitDuplicateIdentifier(t *testing.T) {
	c := New()
	mustAdmit(t, c, sampleRaw("i1"))

	if _, err := c.Admit(sampleRaw("i1")); !errors.Is(err, catalog.ErrDuplicateIdentifier) {
		t.Fatalf("err = %v, want ErrDuplicateIdentifier", err)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1", c.Len())
	}
}

func TestAdmitDanglingReferenceLeavesCatalogUnchanged(t *testing.T) {
	c := New()
	mustAdmit(t, c, sampleRaw("i1"))

	raw := sampleRaw("i2")
	study := raw["study_details"].([]any)[0].(map[string]any)
	run := study["runs"].([]any)[0].(map[string]any)
	assay := run["assay_details"].([]any)[0].(map[string]any)
	assay["used_sensor"] = map[string]any{"identifier": "s2"}

	violations, err := c.Admit(raw)
	if !errors.Is(err, catalog.ErrRejected) {
		t.Fatalf("err = %v, want ErrRejected", err)
	}
	if len(violations) != 1 || violations[0].Kind != catalog.ViolationDanglingReference {
		t.Fatalf("violations = %v", violations)
	}
	if violations[0].Path != "study_details[0].runs[0].assay_details[0]" {
		t.Fatalf("path = %q", violations[0].Path)
	}
	if c.Len() != 1 {
		t.Fatalf("Len = %d, want 1 (rejected record must not be inserted)", c.Len())
	}
	if _, err := c.Get("i2"); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("Get(i2): err = %v, want ErrNotFound", err)
	}
}

func TestAdmitCollectsValidationAndResolutionTogether(t *testing.T) {
	c := New()
	raw := sampleRaw("i1")
	study := raw["study_details"].([]any)[0].(map[string]any)
	study["fault_severity"] = "severe"
	setup := study["used_setup"].(map[string]any)
	setup["number_of_sensors"] = float64(3)

	violations, err := c.Admit(raw)
	if !errors.Is(err, catalog.ErrRejected) {
		t.Fatalf("err = %v, want ErrRejected", err)
	}
	if len(violations) != 2 {
		t.Fatalf("expected both violations in one batch, got %v", violations)
	}
}

func TestRemoveIdempotence(t *testing.T) {
	c := New()
	mustAdmit(t, c, sampleRaw("i1"))

	if err := c.Remove("i1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := c.Remove("i1"); !errors.Is(err, catalog.ErrNotFound) {
		t.Fatalf("second Remove: err = %v, want ErrNotFound", err)
	}
	if c.Len() != 0 {
		t.Fatalf("Len = %d, want 0", c.Len())
	}
}

func TestRemoveEvictsIndexEntries(t *testing.T) {
	c := New()
	mustAdmit(t, c, sampleRaw("i1"))
	if err := c.Remove("i1"); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if got := c.IdentifiersByFaultType("Fault"); len(got) != 0 {
		t.Fatalf("fault index still holds %v", got)
	}
	if got := c.IdentifiersBySeverityRange(0, 10); len(got) != 0 {
		t.Fatalf("severity index still holds %v", got)
	}
	if got := c.IdentifiersByTechnology("IEPE accelerometer"); len(got) != 0 {
		t.Fatalf("technology index still holds %v", got)
	}
	if got := c.IdentifiersBySpeedRange(0, 3000); len(got) != 0 {
		t.Fatalf("speed index still holds %v", got)
	}
}

func TestReplaceIsAtomic(t *testing.T) {
	c := New()
	mustAdmit(t, c, sampleRaw("i1"))

	raw := sampleRaw("i1")
	study := raw["study_details"].([]any)[0].(map[string]any)
	study["fault_severity"] = "5"
	if _, err := c.Replace(raw); err != nil {
		t.Fatalf("Replace: %v", err)
	}

	record, err := c.Get("i1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if record.StudyDetails[0].FaultSeverity != "5" {
		t.Fatalf("severity = %q, want 5", record.StudyDetails[0].FaultSeverity)
	}
	if got := c.IdentifiersBySeverityRange(3, 3); len(got) != 0 {
		t.Fatalf("old severity entry survived replace: %v", got)
	}
	if diff := cmp.Diff([]string{"i1"}, c.IdentifiersBySeverityRange(5, 5)); diff != "" {
		t.Fatalf("severity index mismatch (-want +got):\n%s", diff)
	}
}

func TestReplaceKeepsPriorRecordOnRejection(t *testing.T) {
	c := New()
	mustAdmit(t, c, sampleRaw("i1"))

	raw := sampleRaw("i1")
	delete(raw, "title")
	if _, err := c.Replace(raw); !errors.Is(err, catalog.ErrRejected) {
		t.Fatalf("err = %v, want ErrRejected", err)
	}
	if _, err := c.Get("i1"); err != nil {
		t.Fatalf("prior record must survive a rejected replace: %v", err)
	}
}

func TestIndexLookups(t *testing.T) {
	c := New()
	mustAdmit(t, c, sampleRaw("i1"))

	if diff := cmp.Diff([]string{"i1"}, c.IdentifiersByFaultType("Fault")); diff != "" {
		t.Fatalf("fault index (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"i1"}, c.IdentifiersBySeverityRange(3, 3)); diff != "" {
		t.Fatalf("severity index (-want +got):\n%s", diff)
	}
	if got := c.IdentifiersBySeverityRange(4, 9); len(got) != 0 {
		t.Fatalf("severity [4,9] = %v, want empty", got)
	}
	if diff := cmp.Diff([]string{"i1"}, c.IdentifiersBySpeedRange(1475, 1485)); diff != "" {
		t.Fatalf("speed index (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"i1"}, c.IdentifiersByTechnology("IEPE accelerometer")); diff != "" {
		t.Fatalf("technology index (-want +got):\n%s", diff)
	}
}

func TestConcurrentReadersAndWriters(t *testing.T) {
	c := New()
	mustAdmit(t, c, sampleRaw("i0"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _ = c.Admit(sampleRaw(fmt.Sprintf("w%02d", i)))
		}(i)
	}
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = c.Identifiers()
				_, _ = c.Get("i0")
				_ = c.IdentifiersByFaultType("Fault")
			}
		}()
	}
	wg.Wait()

	if c.Len() != 9 {
		t.Fatalf("Len = %d, want 9", c.Len())
	}
}
