// Package resolve binds raw records to the typed model and resolves the
// weak sensor references inside them. Like validation, resolution is total:
// every dangling reference, duplicate identifier and count mismatch in the
// record is reported in one pass.
package resolve

import (
	"encoding/json"
	"fmt"

	catalog "phm-catalog/internal/catalog/domain"
)

// Bind decodes a raw nested record into the typed model. Legacy wire
// spellings are absorbed by the model's unmarshalers.
func Bind(raw map[string]any) (*catalog.Record, error) {
	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("resolve: encode raw record: %w", err)
	}
	var record catalog.Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("resolve: bind record: %w", err)
	}
	return &record, nil
}

// Record verifies the cross-reference and count invariants of a bound
// record: sensor identifiers are unique within their setup, every
// assay_details[].used_sensor resolves against the owning study's setup,
// number_of_sensors matches the sensor list, and file label counts match
// the declared column counts. Assay details keep the identifier as a lookup
// key; the canonical definition stays with the setup.
func Record(record *catalog.Record) []catalog.Violation {
	var violations []catalog.Violation

	for i := range record.StudyDetails {
		study := &record.StudyDetails[i]
		base := fmt.Sprintf("study_details[%d]", i)

		defined := make(map[string]struct{}, len(study.UsedSetup.Sensors))
		for j := range study.UsedSetup.Sensors {
			id := study.UsedSetup.Sensors[j].Identifier
			if id == "" {
				continue
			}
			if _, dup := defined[id]; dup {
				violations = append(violations, catalog.Violation{
					Path:    fmt.Sprintf("%s.used_setup.sensors[%d].identifier", base, j),
					Kind:    catalog.ViolationDuplicateIdentifier,
					Message: fmt.Sprintf("sensor identifier %q is already defined in this setup", id),
				})
				continue
			}
			defined[id] = struct{}{}
		}

		if study.UsedSetup.NumberOfSensors != len(study.UsedSetup.Sensors) {
			violations = append(violations, catalog.Violation{
				Path:    base + ".used_setup.number_of_sensors",
				Kind:    catalog.ViolationSchema,
				Message: fmt.Sprintf("declared %d sensors, setup lists %d", study.UsedSetup.NumberOfSensors, len(study.UsedSetup.Sensors)),
			})
		}

		for j := range study.Runs {
			run := &study.Runs[j]
			for k := range run.AssayDetails {
				assay := &run.AssayDetails[k]
				path := fmt.Sprintf("%s.runs[%d].assay_details[%d]", base, j, k)

				if id := assay.UsedSensor.Identifier; id != "" {
					if _, ok := defined[id]; !ok {
						violations = append(violations, catalog.Violation{
							Path:    path,
							Kind:    catalog.ViolationDanglingReference,
							Message: fmt.Sprintf("used_sensor %q is not defined in used_setup", id),
						})
					}
				}

				details := &assay.FileDetails
				if details.NumberOfColumns != len(details.Labels) {
					violations = append(violations, catalog.Violation{
						Path:    path + ".file_details.labels",
						Kind:    catalog.ViolationSchema,
						Message: fmt.Sprintf("declared %d columns, found %d labels", details.NumberOfColumns, len(details.Labels)),
					})
				}
			}
		}
	}

	return violations
}
