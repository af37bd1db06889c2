package catalog

import "fmt"

// ViolationKind classifies a validation or resolution finding.
type ViolationKind string

const (
	ViolationSchema              ViolationKind = "schema_violation"
	ViolationUnverifiedEnum      ViolationKind = "unverified_enum"
	ViolationDanglingReference   ViolationKind = "dangling_reference"
	ViolationDuplicateIdentifier ViolationKind = "duplicate_identifier"
	ViolationMalformedQuantity   ViolationKind = "malformed_quantity"
)

// Violation is one finding at a dotted path within a record. Warnings do not
// block admission.
type Violation struct {
	Path    string        `json:"path"`
	Kind    ViolationKind `json:"kind"`
	Message string        `json:"message"`
	Warning bool          `json:"warning,omitempty"`
}

func (v Violation) String() string {
	return fmt.Sprintf("%s: %s (%s)", v.Path, v.Message, v.Kind)
}

// Blocking returns the violations that prevent admission.
func Blocking(violations []Violation) []Violation {
	var out []Violation
	for _, v := range violations {
		if !v.Warning {
			out = append(out, v)
		}
	}
	return out
}

// HasBlocking reports whether any violation prevents admission.
func HasBlocking(violations []Violation) bool {
	for _, v := range violations {
		if !v.Warning {
			return true
		}
	}
	return false
}
