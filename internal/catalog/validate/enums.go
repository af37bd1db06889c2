package validate

// Known-good enum subsets. Enum fields are open sets: values outside these
// maps are admitted with an unverified_enum warning so that records written
// against a newer vocabulary still load.

var experimentTypes = map[string]struct{}{
	"Diagnostic":     {},
	"Degradation-c":  {},
	"Degradation-tv": {},
}

var contactRoles = map[string]struct{}{
	"Author":               {},
	"Corresponding Author": {},
	"Researcher":           {},
	"Supervisor":           {},
	"Technician":           {},
}

var factorTypes = map[string]struct{}{
	"Operating Condition": {},
	"Fault":               {},
	"Environment":         {},
}

var sensorOrientations = map[string]struct{}{
	"Axial":      {},
	"Radial":     {},
	"Tangential": {},
	"Vertical":   {},
	"Horizontal": {},
	"X":          {},
	"Y":          {},
	"Z":          {},
}
