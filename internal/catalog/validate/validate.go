// Package validate checks a raw nested record against the catalog schema.
// It is total: every violation in the record is collected in one pass, with
// dotted paths locating each finding.
package validate

import (
	"fmt"
	"math"
	"time"

	catalog "phm-catalog/internal/catalog/domain"
	"phm-catalog/internal/quantity"
)

type checker struct {
	violations []catalog.Violation
}

// Record validates a raw record and returns every violation found, in
// document order. An empty result means the record is structurally sound.
func Record(raw map[string]any) []catalog.Violation {
	c := &checker{}
	c.record(raw)
	return c.violations
}

func (c *checker) record(raw map[string]any) {
	c.requireString(raw, "", "identifier")
	c.requireString(raw, "", "title")

	submission, hasSubmission := c.optionalDate(raw, "", "submission_date")
	release, hasRelease := c.optionalDate(raw, "", "public_release_date")
	if hasSubmission && hasRelease && release.Before(submission) {
		c.schema("public_release_date", "public_release_date precedes submission_date")
	}

	if contacts, ok := c.optionalList(raw, "", "contacts"); ok {
		for i, item := range contacts {
			c.contact(item, fmt.Sprintf("contacts[%d]", i))
		}
	}

	studies, ok := c.requireList(raw, "", "study_details")
	if !ok {
		return
	}
	if len(studies) == 0 {
		c.schema("study_details", "at least one study is required")
	}
	for i, item := range studies {
		c.study(item, fmt.Sprintf("study_details[%d]", i))
	}
}

func (c *checker) contact(item any, path string) {
	contact, ok := c.asMap(item, path)
	if !ok {
		return
	}
	c.requireString(contact, path, "first_name")
	c.requireString(contact, path, "last_name")
	if roles, ok := c.optionalList(contact, path, "roles"); ok {
		for i, role := range roles {
			rolePath := fmt.Sprintf("%s.roles[%d]", path, i)
			name, ok := role.(string)
			if !ok {
				c.schema(rolePath, fmt.Sprintf("expected string, got %s", typeName(role)))
				continue
			}
			c.enum(rolePath, name, contactRoles, "role")
		}
	}
}

func (c *checker) study(item any, path string) {
	study, ok := c.asMap(item, path)
	if !ok {
		return
	}
	c.requireString(study, path, "title")
	if experiment, ok := c.requireString(study, path, "experiment_type"); ok {
		c.enum(path+".experiment_type", experiment, experimentTypes, "experiment_type")
	}
	c.severity(study, path)

	if setup, ok := c.requireMap(study, path, "used_setup"); ok {
		c.setup(setup, path+".used_setup")
	}

	runs, ok := c.requireList(study, path, "runs")
	if !ok {
		return
	}
	for i, item := range runs {
		c.run(item, fmt.Sprintf("%s.runs[%d]", path, i))
	}
}

// severity accepts a non-negative number or the "none" sentinel, both stored
// as strings by the authoring tools.
func (c *checker) severity(study map[string]any, path string) {
	value, exists := study["fault_severity"]
	if !exists || value == nil {
		return
	}
	text, ok := value.(string)
	if !ok {
		c.schema(path+".fault_severity", fmt.Sprintf("expected string, got %s", typeName(value)))
		return
	}
	probe := catalog.StudyDetail{FaultSeverity: text}
	if _, ok := probe.SeverityValue(); !ok && text != "" && text != catalog.FaultSeverityNone {
		c.schema(path+".fault_severity", fmt.Sprintf("severity %q is not a non-negative number or %q", text, catalog.FaultSeverityNone))
	}
}

func (c *checker) setup(setup map[string]any, path string) {
	c.requireString(setup, path, "name")
	c.requireInt(setup, path, "number_of_sensors")

	if characteristics, ok := c.optionalList(setup, path, "characteristics"); ok {
		for i, item := range characteristics {
			c.characteristic(item, fmt.Sprintf("%s.characteristics[%d]", path, i))
		}
	}

	sensors, ok := c.requireList(setup, path, "sensors")
	if !ok {
		return
	}
	for i, item := range sensors {
		c.sensor(item, fmt.Sprintf("%s.sensors[%d]", path, i))
	}
}

func (c *checker) characteristic(item any, path string) {
	characteristic, ok := c.asMap(item, path)
	if !ok {
		return
	}
	c.requireString(characteristic, path, "category")
	if value, ok := c.requireString(characteristic, path, "value"); ok {
		c.quantity(path+".value", value, stringField(characteristic, "unit"))
	}
}

func (c *checker) sensor(item any, path string) {
	sensor, ok := c.asMap(item, path)
	if !ok {
		return
	}
	c.requireString(sensor, path, "identifier")
	c.requireString(sensor, path, "measurement_type")
	if rate, ok := c.optionalString(sensor, path, "sampling_rate"); ok && rate != "" {
		c.quantity(path+".sampling_rate", rate, stringField(sensor, "sampling_unit"))
	}
	if orientation, ok := c.optionalString(sensor, path, "sensor_orientation"); ok && orientation != "" {
		c.enum(path+".sensor_orientation", orientation, sensorOrientations, "sensor_orientation")
	}
}

func (c *checker) run(item any, path string) {
	run, ok := c.asMap(item, path)
	if !ok {
		return
	}
	if conditions, ok := c.optionalList(run, path, "run_conditions"); ok {
		for i, item := range conditions {
			c.runCondition(item, fmt.Sprintf("%s.run_conditions[%d]", path, i))
		}
	}
	assays, ok := c.requireList(run, path, "assay_details")
	if !ok {
		return
	}
	for i, item := range assays {
		c.assay(item, fmt.Sprintf("%s.assay_details[%d]", path, i))
	}
}

func (c *checker) runCondition(item any, path string) {
	condition, ok := c.asMap(item, path)
	if !ok {
		return
	}
	c.requireString(condition, path, "name")
	if value, ok := c.requireString(condition, path, "value"); ok {
		c.quantity(path+".value", value, stringField(condition, "unit"))
	}
	if factor, ok := c.optionalString(condition, path, "factor_type"); ok && factor != "" {
		c.enum(path+".factor_type", factor, factorTypes, "factor_type")
	}
}

func (c *checker) assay(item any, path string) {
	assay, ok := c.asMap(item, path)
	if !ok {
		return
	}

	sensor, exists := assay["used_sensor"]
	if !exists || sensor == nil {
		c.schema(path+".used_sensor", "missing required field")
	} else {
		switch ref := sensor.(type) {
		case string:
			if ref == "" {
				c.schema(path+".used_sensor", "empty sensor reference")
			}
		case map[string]any:
			c.requireString(ref, path+".used_sensor", "identifier")
		default:
			c.schema(path+".used_sensor", fmt.Sprintf("expected identifier or object, got %s", typeName(sensor)))
		}
	}

	details, ok := c.requireMap(assay, path, "file_details")
	if !ok {
		return
	}
	c.fileDetails(details, path+".file_details")
}

func (c *checker) fileDetails(details map[string]any, path string) {
	c.requireInt(details, path, "number_of_columns")
	if labels, ok := c.requireList(details, path, "labels"); ok {
		for i, label := range labels {
			if _, ok := label.(string); !ok {
				c.schema(fmt.Sprintf("%s.labels[%d]", path, i), fmt.Sprintf("expected string, got %s", typeName(label)))
			}
		}
	}
	if parameters, ok := c.optionalList(details, path, "file_parameters"); ok {
		for i, item := range parameters {
			c.fileParameter(item, fmt.Sprintf("%s.file_parameters[%d]", path, i))
		}
	}
}

func (c *checker) fileParameter(item any, path string) {
	parameter, ok := c.asMap(item, path)
	if !ok {
		return
	}
	// Legacy records nest the name under parameter.parameter_name and the
	// value under value.value.
	if _, nested := parameter["parameter"]; nested {
		return
	}
	c.requireString(parameter, path, "name")
	if value, ok := c.requireString(parameter, path, "value"); ok {
		c.quantity(path+".value", value, stringField(parameter, "unit"))
	}
}

func (c *checker) quantity(path, value, unit string) {
	if _, err := quantity.Parse(value, unit); err != nil {
		c.add(catalog.Violation{
			Path:    path,
			Kind:    catalog.ViolationMalformedQuantity,
			Message: err.Error(),
		})
	}
}

func (c *checker) enum(path, value string, known map[string]struct{}, field string) {
	if _, ok := known[value]; ok {
		return
	}
	c.add(catalog.Violation{
		Path:    path,
		Kind:    catalog.ViolationUnverifiedEnum,
		Message: fmt.Sprintf("%s %q is not in the known vocabulary", field, value),
		Warning: true,
	})
}

func (c *checker) schema(path, message string) {
	c.add(catalog.Violation{Path: path, Kind: catalog.ViolationSchema, Message: message})
}

func (c *checker) add(v catalog.Violation) {
	c.violations = append(c.violations, v)
}

func (c *checker) requireString(m map[string]any, prefix, key string) (string, bool) {
	path := joinPath(prefix, key)
	value, exists := m[key]
	if !exists || value == nil {
		c.schema(path, "missing required field")
		return "", false
	}
	text, ok := value.(string)
	if !ok {
		c.schema(path, fmt.Sprintf("expected string, got %s", typeName(value)))
		return "", false
	}
	if text == "" {
		c.schema(path, "must not be empty")
		return "", false
	}
	return text, true
}

func (c *checker) optionalString(m map[string]any, prefix, key string) (string, bool) {
	value, exists := m[key]
	if !exists || value == nil {
		return "", false
	}
	text, ok := value.(string)
	if !ok {
		c.schema(joinPath(prefix, key), fmt.Sprintf("expected string, got %s", typeName(value)))
		return "", false
	}
	return text, true
}

func (c *checker) requireInt(m map[string]any, prefix, key string) (int, bool) {
	path := joinPath(prefix, key)
	value, exists := m[key]
	if !exists || value == nil {
		c.schema(path, "missing required field")
		return 0, false
	}
	n, ok := intValue(value)
	if !ok {
		c.schema(path, fmt.Sprintf("expected integer, got %s", typeName(value)))
		return 0, false
	}
	if n < 0 {
		c.schema(path, "must not be negative")
		return 0, false
	}
	return n, true
}

func (c *checker) requireList(m map[string]any, prefix, key string) ([]any, bool) {
	path := joinPath(prefix, key)
	value, exists := m[key]
	if !exists || value == nil {
		c.schema(path, "missing required field")
		return nil, false
	}
	list, ok := value.([]any)
	if !ok {
		c.schema(path, fmt.Sprintf("expected list, got %s", typeName(value)))
		return nil, false
	}
	return list, true
}

func (c *checker) optionalList(m map[string]any, prefix, key string) ([]any, bool) {
	value, exists := m[key]
	if !exists || value == nil {
		return nil, false
	}
	list, ok := value.([]any)
	if !ok {
		c.schema(joinPath(prefix, key), fmt.Sprintf("expected list, got %s", typeName(value)))
		return nil, false
	}
	return list, true
}

func (c *checker) requireMap(m map[string]any, prefix, key string) (map[string]any, bool) {
	path := joinPath(prefix, key)
	value, exists := m[key]
	if !exists || value == nil {
		c.schema(path, "missing required field")
		return nil, false
	}
	object, ok := value.(map[string]any)
	if !ok {
		c.schema(path, fmt.Sprintf("expected object, got %s", typeName(value)))
		return nil, false
	}
	return object, true
}

func (c *checker) asMap(item any, path string) (map[string]any, bool) {
	object, ok := item.(map[string]any)
	if !ok {
		c.schema(path, fmt.Sprintf("expected object, got %s", typeName(item)))
		return nil, false
	}
	return object, true
}

func (c *checker) optionalDate(m map[string]any, prefix, key string) (time.Time, bool) {
	text, ok := c.optionalString(m, prefix, key)
	if !ok || text == "" {
		return time.Time{}, false
	}
	parsed, ok := catalog.ParseDate(text)
	if !ok {
		c.schema(joinPath(prefix, key), fmt.Sprintf("%q is not an ISO 8601 date", text))
		return time.Time{}, false
	}
	return parsed, true
}

func stringField(m map[string]any, key string) string {
	if value, ok := m[key].(string); ok {
		return value
	}
	return ""
}

func joinPath(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// intValue accepts the integer representations produced by the JSON and YAML
// decoders.
func intValue(value any) (int, bool) {
	switch n := value.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) {
			return 0, false
		}
		return int(n), true
	default:
		return 0, false
	}
}

func typeName(value any) string {
	switch value.(type) {
	case string:
		return "string"
	case bool:
		return "bool"
	case float64, int, int64, uint64:
		return "number"
	case []any:
		return "list"
	case map[string]any:
		return "object"
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%T", value)
	}
}
