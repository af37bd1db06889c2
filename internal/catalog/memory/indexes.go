package memory

import (
	"math"
	"sort"
	"strings"

	catalog "phm-catalog/internal/catalog/domain"
	"phm-catalog/internal/quantity"
)

// speedBucketRPM is the width of motor-speed index buckets.
const speedBucketRPM = 10

// motorSpeedCondition is the run-condition name indexed for speed queries.
const motorSpeedCondition = "Motor Speed"

// recordKeys are the derived index entries of one record, kept so eviction
// can undo an admission exactly.
type recordKeys struct {
	faultTypes   []string
	technologies []string
	speedBuckets []int
	severities   []float64
}

func deriveKeys(record *catalog.Record) recordKeys {
	var keys recordKeys
	faultTypes := make(map[string]struct{})
	technologies := make(map[string]struct{})
	buckets := make(map[int]struct{})
	severities := make(map[float64]struct{})

	for i := range record.StudyDetails {
		study := &record.StudyDetails[i]
		if study.FaultType != "" {
			faultTypes[study.FaultType] = struct{}{}
		}
		if value, ok := study.SeverityValue(); ok {
			severities[value] = struct{}{}
		}
		for _, sensor := range study.UsedSetup.Sensors {
			if sensor.TechnologyPlatform != "" {
				technologies[sensor.TechnologyPlatform] = struct{}{}
			}
		}
		for _, run := range study.Runs {
			for _, rpm := range RunSpeedsRPM(run) {
				buckets[SpeedBucket(rpm)] = struct{}{}
			}
		}
	}

	for faultType := range faultTypes {
		keys.faultTypes = append(keys.faultTypes, faultType)
	}
	for technology := range technologies {
		keys.technologies = append(keys.technologies, technology)
	}
	for bucket := range buckets {
		keys.speedBuckets = append(keys.speedBuckets, bucket)
	}
	for severity := range severities {
		keys.severities = append(keys.severities, severity)
	}
	return keys
}

// RunSpeedsRPM extracts the motor speeds of a run in RPM. Conditions that do
// not parse as frequencies are skipped; the validator already reported any
// malformed quantities.
func RunSpeedsRPM(run catalog.Run) []float64 {
	var speeds []float64
	for _, condition := range run.RunConditions {
		if !strings.EqualFold(condition.Name, motorSpeedCondition) {
			continue
		}
		q, err := quantity.Parse(condition.Value, condition.Unit)
		if err != nil {
			continue
		}
		rpm, err := q.RPM()
		if err != nil {
			continue
		}
		speeds = append(speeds, rpm)
	}
	return speeds
}

// SpeedBucket rounds an RPM value to its index bucket. Open-ended range
// bounds arrive as infinities.
func SpeedBucket(rpm float64) int {
	if math.IsInf(rpm, 1) {
		return math.MaxInt
	}
	if math.IsInf(rpm, -1) {
		return math.MinInt
	}
	return int(math.Round(rpm/speedBucketRPM)) * speedBucketRPM
}

// IdentifiersByFaultType returns records declaring the fault type, ascending.
func (c *Catalog) IdentifiersByFaultType(faultType string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedKeys(c.byFaultType[faultType])
}

// IdentifiersByTechnology returns records using the technology platform.
func (c *Catalog) IdentifiersByTechnology(technology string) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return sortedKeys(c.byTechnology[technology])
}

// IdentifiersBySeverityRange returns records with a parsed fault severity in
// [min, max], inclusive on both ends.
func (c *Catalog) IdentifiersBySeverityRange(min, max float64) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	from := sort.Search(len(c.severities), func(i int) bool {
		return c.severities[i].value >= min
	})
	seen := make(map[string]struct{})
	for i := from; i < len(c.severities) && c.severities[i].value <= max; i++ {
		seen[c.severities[i].identifier] = struct{}{}
	}
	return sortedKeys(seen)
}

// IdentifiersBySpeedRange returns records with a motor-speed bucket inside
// [minRPM, maxRPM].
func (c *Catalog) IdentifiersBySpeedRange(minRPM, maxRPM float64) []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	low := SpeedBucket(minRPM)
	high := SpeedBucket(maxRPM)
	seen := make(map[string]struct{})
	for bucket, ids := range c.bySpeed {
		if bucket < low || bucket > high {
			continue
		}
		for id := range ids {
			seen[id] = struct{}{}
		}
	}
	return sortedKeys(seen)
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
