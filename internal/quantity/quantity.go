package quantity

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind classifies the physical dimension of a quantity.
type Kind string

const (
	KindFrequency    Kind = "frequency"
	KindPressure     Kind = "pressure"
	KindFlow         Kind = "flow"
	KindTime         Kind = "time"
	KindResolution   Kind = "resolution"
	KindAcceleration Kind = "acceleration"
	KindUnknown      Kind = "unknown"
)

// Quantity is a normalized value/unit pair. Opaque quantities carry no
// magnitude: they are literals such as part codes or range expressions that
// the catalog stores verbatim.
type Quantity struct {
	Magnitude     float64
	Kind          Kind
	CanonicalUnit string
	SourceValue   string
	SourceUnit    string
	Opaque        bool
}

type unitSpec struct {
	kind      Kind
	canonical string
	factor    float64
}

// units maps lowercased unit spellings to their kind, canonical unit and the
// factor converting a magnitude into the canonical unit.
var units = map[string]unitSpec{
	"hz":    {KindFrequency, "Hz", 1},
	"khz":   {KindFrequency, "Hz", 1000},
	"rpm":   {KindFrequency, "Hz", 1.0 / 60.0},
	"bar":   {KindPressure, "bar", 1},
	"m^3/h": {KindFlow, "m^3/h", 1},
	"m3/h":  {KindFlow, "m^3/h", 1},
	"m³/h":  {KindFlow, "m^3/h", 1},
	"s":     {KindTime, "s", 1},
	"sec":   {KindTime, "s", 1},
	"ms":    {KindTime, "s", 0.001},
	"min":   {KindTime, "s", 60},
	"bit":   {KindResolution, "bit", 1},
	"bits":  {KindResolution, "bit", 1},
	"g":     {KindAcceleration, "g", 1},
	"m/s^2": {KindAcceleration, "g", 1 / 9.80665},
	"m/s2":  {KindAcceleration, "g", 1 / 9.80665},
}

var (
	rangePattern = regexp.MustCompile(`^\[[^\[\]]+,[^\[\]]+\]$`)
	codePattern  = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9 ._/()+:,-]*$`)
)

// Parse normalizes a value/unit pair. Numeric values become quantities in the
// canonical unit of their kind; range expressions like "[-1,1]" and
// letter-bearing codes (bearing designations, channel names) pass through as
// opaque literals. Anything else fails with ErrMalformedQuantity.
func Parse(value, unit string) (Quantity, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return Quantity{}, fmt.Errorf("%w: empty value", ErrMalformedQuantity)
	}

	if magnitude, err := strconv.ParseFloat(trimmed, 64); err == nil {
		q := Quantity{
			Magnitude:     magnitude,
			Kind:          KindUnknown,
			CanonicalUnit: strings.TrimSpace(unit),
			SourceValue:   value,
			SourceUnit:    unit,
		}
		if spec, ok := lookupUnit(unit); ok {
			q.Kind = spec.kind
			q.CanonicalUnit = spec.canonical
			q.Magnitude = magnitude * spec.factor
		}
		return q, nil
	}

	if rangePattern.MatchString(trimmed) || isCode(trimmed) {
		return Quantity{
			Kind:        KindUnknown,
			SourceValue: value,
			SourceUnit:  unit,
			Opaque:      true,
		}, nil
	}

	return Quantity{}, fmt.Errorf("%w: %q", ErrMalformedQuantity, value)
}

// Compare orders two quantities of the same kind, returning -1, 0 or 1.
// Opaque quantities and mismatched kinds fail with ErrIncompatibleUnits.
func Compare(a, b Quantity) (int, error) {
	if a.Opaque || b.Opaque {
		return 0, fmt.Errorf("%w: opaque literal", ErrIncompatibleUnits)
	}
	if a.Kind != b.Kind {
		return 0, fmt.Errorf("%w: %s vs %s", ErrIncompatibleUnits, a.Kind, b.Kind)
	}
	if a.Kind == KindUnknown && !strings.EqualFold(a.CanonicalUnit, b.CanonicalUnit) {
		return 0, fmt.Errorf("%w: %q vs %q", ErrIncompatibleUnits, a.CanonicalUnit, b.CanonicalUnit)
	}
	switch {
	case a.Magnitude < b.Magnitude:
		return -1, nil
	case a.Magnitude > b.Magnitude:
		return 1, nil
	default:
		return 0, nil
	}
}

// RPM expresses a frequency quantity in revolutions per minute.
func (q Quantity) RPM() (float64, error) {
	if q.Opaque || q.Kind != KindFrequency {
		return 0, fmt.Errorf("%w: not a frequency", ErrIncompatibleUnits)
	}
	return q.Magnitude * 60, nil
}

func lookupUnit(unit string) (unitSpec, bool) {
	spec, ok := units[strings.ToLower(strings.TrimSpace(unit))]
	return spec, ok
}

// isCode reports whether the value is a passthrough literal. Requiring at
// least one letter keeps broken numbers like "12..3" out.
func isCode(value string) bool {
	if !codePattern.MatchString(value) {
		return false
	}
	return strings.IndexFunc(value, func(r rune) bool {
		return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
	}) >= 0
}
