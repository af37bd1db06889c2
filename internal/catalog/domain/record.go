package catalog

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// FaultSeverityNone is the sentinel for studies without a declared fault.
const FaultSeverityNone = "none"

// Record is one admitted dataset: a study container with contacts and an
// ordered list of experimental configurations. Records are immutable once
// admitted; updates go through whole-record replace.
type Record struct {
	Identifier        string         `json:"identifier"`
	Title             string         `json:"title"`
	Description       string         `json:"description,omitempty"`
	SubmissionDate    string         `json:"submission_date,omitempty"`
	PublicReleaseDate string         `json:"public_release_date,omitempty"`
	Publication       map[string]any `json:"publication,omitempty"`
	Contacts          []Contact      `json:"contacts,omitempty"`
	StudyDetails      []StudyDetail  `json:"study_details"`
}

// Contact is a person attached to a record or study.
type Contact struct {
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	MidInitials string    `json:"mid_initials,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Address     string    `json:"address,omitempty"`
	Affiliation string    `json:"affiliation,omitempty"`
	Roles       []string  `json:"roles,omitempty"`
	Comments    []Comment `json:"comments,omitempty"`
}

// Comment is an opaque name/value annotation.
type Comment struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// StudyDetail is one experimental configuration within a record.
type StudyDetail struct {
	Title             string         `json:"title"`
	Description       string         `json:"description,omitempty"`
	SubmissionDate    string         `json:"submission_date,omitempty"`
	PublicReleaseDate string         `json:"public_release_date,omitempty"`
	DetailPreparation string         `json:"detail_preparation,omitempty"`
	Publication       map[string]any `json:"publication,omitempty"`
	Contacts          []Contact      `json:"contacts,omitempty"`
	ExperimentType    string         `json:"experiment_type"`
	FaultType         string         `json:"fault_type,omitempty"`
	FaultPosition     string         `json:"fault_position,omitempty"`
	FaultSeverity     string         `json:"fault_severity,omitempty"`
	UsedSetup         Setup          `json:"used_setup"`
	Runs              []Run          `json:"runs"`
}

// Setup describes the physical rig. Its sensors are the canonical
// definitions that assay details reference by identifier.
type Setup struct {
	Name            string           `json:"name"`
	Location        string           `json:"location,omitempty"`
	Characteristics []Characteristic `json:"characteristics,omitempty"`
	NumberOfSensors int              `json:"number_of_sensors"`
	Sensors         []Sensor         `json:"sensors"`
}

// Characteristic is a category/value pair describing a setup property.
type Characteristic struct {
	Category string    `json:"category"`
	Value    string    `json:"value"`
	Unit     string    `json:"unit,omitempty"`
	Comments []Comment `json:"comments,omitempty"`
}

// Sensor is a canonical sensor definition, immutable once admitted.
type Sensor struct {
	Identifier          string `json:"identifier"`
	MeasurementType     string `json:"measurement_type"`
	MeasurementUnit     string `json:"measurement_unit,omitempty"`
	Description         string `json:"description,omitempty"`
	TechnologyType      string `json:"technology_type,omitempty"`
	TechnologyPlatform  string `json:"technology_platform,omitempty"`
	DataAcquisitionUnit string `json:"data_acquisition_unit,omitempty"`
	SamplingRate        string `json:"sampling_rate,omitempty"`
	SamplingUnit        string `json:"sampling_unit,omitempty"`
	SensorLocation      string `json:"sensor_location,omitempty"`
	LocationUnit        string `json:"location_unit,omitempty"`
	SensorOrientation   string `json:"sensor_orientation,omitempty"`
	OrientationUnit     string `json:"orientation_unit,omitempty"`
}

// Run is one trial under a study.
type Run struct {
	RunConditions []RunCondition `json:"run_conditions,omitempty"`
	AssayDetails  []AssayDetail  `json:"assay_details"`
}

// RunCondition is a named operating-condition measurement.
type RunCondition struct {
	Name       string `json:"name"`
	FactorType string `json:"factor_type,omitempty"`
	Value      string `json:"value"`
	Unit       string `json:"unit,omitempty"`
}

// AssayDetail links a run to one of the setup's sensors plus the files
// produced by that sensor.
type AssayDetail struct {
	UsedSensor  SensorRef   `json:"used_sensor"`
	FileDetails FileDetails `json:"file_details"`
}

// SensorRef is a weak reference to a sensor by identifier. The wire form may
// be a bare identifier string or an embedded sensor object; only the
// identifier is kept, the canonical definition stays with the setup.
type SensorRef struct {
	Identifier string
}

// UnmarshalJSON accepts either form of reference.
func (r *SensorRef) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		r.Identifier = id
		return nil
	}
	var embedded struct {
		Identifier string `json:"identifier"`
	}
	if err := json.Unmarshal(data, &embedded); err != nil {
		return err
	}
	r.Identifier = embedded.Identifier
	return nil
}

// MarshalJSON emits the reference form.
func (r SensorRef) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Identifier string `json:"identifier"`
	}{r.Identifier})
}

// FileDetails describes the raw and processed files of one assay.
type FileDetails struct {
	RawFileName           string          `json:"raw_file_name,omitempty"`
	RawFileLocation       string          `json:"raw_file_location,omitempty"`
	ProcessedFileName     string          `json:"processed_file_name,omitempty"`
	ProcessedFileLocation string          `json:"processed_file_location,omitempty"`
	FileParameters        []FileParameter `json:"file_parameters,omitempty"`
	NumberOfColumns       int             `json:"number_of_columns"`
	Labels                []string        `json:"labels"`
}

// UnmarshalJSON also accepts the misspelled processed-file keys emitted by
// the legacy authoring tool.
func (f *FileDetails) UnmarshalJSON(data []byte) error {
	type plain FileDetails
	aux := struct {
		*plain
		LegacyName     string `json:"proccesed_file_name"`
		LegacyLocation string `json:"proccesed_file_location"`
	}{plain: (*plain)(f)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if f.ProcessedFileName == "" {
		f.ProcessedFileName = aux.LegacyName
	}
	if f.ProcessedFileLocation == "" {
		f.ProcessedFileLocation = aux.LegacyLocation
	}
	return nil
}

// FileParameter is a named processing parameter whose value may carry a unit.
type FileParameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Unit  string `json:"unit,omitempty"`
}

// UnmarshalJSON accepts the flat form as well as the legacy nested form, in
// which the name lives under parameter.parameter_name and the value under
// value.value.
func (p *FileParameter) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if raw, ok := fields["parameter"]; ok {
		var parameter struct {
			Name string `json:"parameter_name"`
		}
		if err := json.Unmarshal(raw, &parameter); err != nil {
			return err
		}
		p.Name = parameter.Name
		if raw, ok := fields["value"]; ok {
			var value struct {
				Value string `json:"value"`
				Unit  string `json:"unit"`
			}
			if err := json.Unmarshal(raw, &value); err != nil {
				return err
			}
			p.Value, p.Unit = value.Value, value.Unit
		}
		return nil
	}
	for key, target := range map[string]*string{"name": &p.Name, "value": &p.Value, "unit": &p.Unit} {
		if raw, ok := fields[key]; ok {
			if err := json.Unmarshal(raw, target); err != nil {
				return err
			}
		}
	}
	return nil
}

// Sensor returns the canonical sensor definition for an identifier, if the
// study's setup declares it.
func (s *StudyDetail) Sensor(identifier string) (*Sensor, bool) {
	for i := range s.UsedSetup.Sensors {
		if s.UsedSetup.Sensors[i].Identifier == identifier {
			return &s.UsedSetup.Sensors[i], true
		}
	}
	return nil, false
}

// SeverityValue parses the fault severity ordinal. The "none" sentinel and
// absent severities report ok=false.
func (s *StudyDetail) SeverityValue() (float64, bool) {
	raw := strings.TrimSpace(s.FaultSeverity)
	if raw == "" || strings.EqualFold(raw, FaultSeverityNone) {
		return 0, false
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value < 0 {
		return 0, false
	}
	return value, true
}

// ReleaseDate parses the public release date, accepting a bare ISO date or a
// full timestamp.
func (r *Record) ReleaseDate() (time.Time, bool) {
	return ParseDate(r.PublicReleaseDate)
}

// ParseDate parses an ISO 8601 date or timestamp.
func ParseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
