package ingest

import "github.com/google/uuid"

// Template returns a skeleton record document with a fresh identifier.
// Every field the validator requires is present so a curator only fills
// in values.
func Template() map[string]any {
	return map[string]any{
		"identifier":          "i-" + uuid.NewString(),
		"title":               "",
		"description":         "",
		"submission_date":     "",
		"public_release_date": "",
		"contacts": []any{
			map[string]any{
				"first_name":  "",
				"last_name":   "",
				"affiliation": "",
				"roles":       []any{"Author"},
			},
		},
		"study_details": []any{
			map[string]any{
				"title":           "",
				"experiment_type": "Diagnostic",
				"fault_type":      "",
				"fault_position":  "",
				"fault_severity":  "none",
				"used_setup": map[string]any{
					"name":              "",
					"location":          "",
					"characteristics":   []any{},
					"number_of_sensors": float64(1),
					"sensors": []any{
						map[string]any{
							"identifier":          "s1",
							"measurement_type":    "",
							"measurement_unit":    "",
							"technology_platform": "",
							"sampling_rate":       "",
							"sampling_unit":       "",
							"sensor_location":     "",
							"sensor_orientation":  "",
						},
					},
				},
				"runs": []any{
					map[string]any{
						"run_conditions": []any{
							map[string]any{
								"name":        "Motor Speed",
								"factor_type": "Operating Condition",
								"value":       "",
								"unit":        "RPM",
							},
						},
						"assay_details": []any{
							map[string]any{
								"used_sensor": map[string]any{"identifier": "s1"},
								"file_details": map[string]any{
									"raw_file_name":     "",
									"raw_file_location": "",
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
}
