// Package query answers structured queries against a catalog. Filters are
// conjunctions; rerunning an unchanged query against an unchanged catalog
// yields the same ordered result set.
package query

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	catalog "phm-catalog/internal/catalog/domain"
	"phm-catalog/internal/catalog/memory"
)

// SortKey selects result ordering.
type SortKey string

const (
	SortByIdentifier  SortKey = "identifier"
	SortByReleaseDate SortKey = "release_date"
)

// GroupKey selects the CountBy grouping.
type GroupKey string

const (
	GroupByFaultType      GroupKey = "fault_type"
	GroupByTechnology     GroupKey = "technology_platform"
	GroupByExperimentType GroupKey = "experiment_type"
)

// Filter is a conjunction of predicates. The zero value matches every
// record. Fault type, severity, speed and technology are study-scoped: a
// record matches when at least one of its studies satisfies all of them
// together. The release-date range applies to the record itself.
type Filter struct {
	FaultTypes     []string
	SeverityMin    *float64
	SeverityMax    *float64
	SpeedMinRPM    *float64
	SpeedMaxRPM    *float64
	Technologies   []string
	ReleasedAfter  *time.Time
	ReleasedBefore *time.Time
	Sort           SortKey
}

// Validate rejects malformed predicates before any scan begins.
func (f Filter) Validate() error {
	if f.SeverityMin != nil && *f.SeverityMin < 0 {
		return fmt.Errorf("%w: negative severity bound", catalog.ErrInvalidQuery)
	}
	if f.SeverityMin != nil && f.SeverityMax != nil && *f.SeverityMin > *f.SeverityMax {
		return fmt.Errorf("%w: severity range is empty", catalog.ErrInvalidQuery)
	}
	if f.SpeedMinRPM != nil && f.SpeedMaxRPM != nil && *f.SpeedMinRPM > *f.SpeedMaxRPM {
		return fmt.Errorf("%w: speed range is empty", catalog.ErrInvalidQuery)
	}
	if f.ReleasedAfter != nil && f.ReleasedBefore != nil && f.ReleasedAfter.After(*f.ReleasedBefore) {
		return fmt.Errorf("%w: date range is empty", catalog.ErrInvalidQuery)
	}
	switch f.Sort {
	case "", SortByIdentifier, SortByReleaseDate:
	default:
		return fmt.Errorf("%w: unknown sort key %q", catalog.ErrInvalidQuery, f.Sort)
	}
	return nil
}

// Engine evaluates filters against one catalog.
type Engine struct {
	catalog *memory.Catalog
}

// New constructs an engine over a catalog.
func New(c *memory.Catalog) *Engine {
	return &Engine{catalog: c}
}

// Find returns the identifiers of matching records in the filter's order.
// The scan is cooperatively cancellable between candidates.
func (e *Engine) Find(ctx context.Context, f Filter) ([]string, error) {
	records, err := e.matches(ctx, f)
	if err != nil {
		return nil, err
	}
	ids := make([]string, len(records))
	for i, record := range records {
		ids[i] = record.Identifier
	}
	return ids, nil
}

// Records returns the matching resolved records in the filter's order.
func (e *Engine) Records(ctx context.Context, f Filter) ([]*catalog.Record, error) {
	return e.matches(ctx, f)
}

// CountBy aggregates matching records per group value. A record counts once
// for each distinct value it carries under the key.
func (e *Engine) CountBy(ctx context.Context, f Filter, key GroupKey) (map[string]int, error) {
	switch key {
	case GroupByFaultType, GroupByTechnology, GroupByExperimentType:
	default:
		return nil, fmt.Errorf("%w: unknown group key %q", catalog.ErrInvalidQuery, key)
	}
	records, err := e.matches(ctx, f)
	if err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, record := range records {
		for value := range groupValues(record, key) {
			counts[value]++
		}
	}
	return counts, nil
}

func (e *Engine) matches(ctx context.Context, f Filter) ([]*catalog.Record, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	var out []*catalog.Record
	for _, id := range e.candidates(f) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		record, err := e.catalog.Get(id)
		if err != nil {
			continue
		}
		if matches(record, f) {
			out = append(out, record)
		}
	}

	if f.Sort == SortByReleaseDate {
		sort.SliceStable(out, func(i, j int) bool {
			a, _ := out[i].ReleaseDate()
			b, _ := out[j].ReleaseDate()
			if !a.Equal(b) {
				return a.Before(b)
			}
			return out[i].Identifier < out[j].Identifier
		})
	}
	return out, nil
}

// candidates narrows the scan using the most selective applicable index.
// Candidate lists come back in ascending identifier order, which fixes the
// default result ordering.
func (e *Engine) candidates(f Filter) []string {
	switch {
	case len(f.FaultTypes) > 0:
		return unionOf(f.FaultTypes, e.catalog.IdentifiersByFaultType)
	case f.SeverityMin != nil || f.SeverityMax != nil:
		min, max := boundsOf(f.SeverityMin, f.SeverityMax)
		return e.catalog.IdentifiersBySeverityRange(min, max)
	case len(f.Technologies) > 0:
		return unionOf(f.Technologies, e.catalog.IdentifiersByTechnology)
	case f.SpeedMinRPM != nil || f.SpeedMaxRPM != nil:
		min, max := boundsOf(f.SpeedMinRPM, f.SpeedMaxRPM)
		return e.catalog.IdentifiersBySpeedRange(min, max)
	default:
		return e.catalog.Identifiers()
	}
}

func matches(record *catalog.Record, f Filter) bool {
	if f.ReleasedAfter != nil || f.ReleasedBefore != nil {
		released, ok := record.ReleaseDate()
		if !ok {
			return false
		}
		if f.ReleasedAfter != nil && released.Before(*f.ReleasedAfter) {
			return false
		}
		if f.ReleasedBefore != nil && released.After(*f.ReleasedBefore) {
			return false
		}
	}

	if len(f.FaultTypes) == 0 && f.SeverityMin == nil && f.SeverityMax == nil &&
		f.SpeedMinRPM == nil && f.SpeedMaxRPM == nil && len(f.Technologies) == 0 {
		return true
	}

	for i := range record.StudyDetails {
		if studyMatches(&record.StudyDetails[i], f) {
			return true
		}
	}
	return false
}

func studyMatches(study *catalog.StudyDetail, f Filter) bool {
	if len(f.FaultTypes) > 0 && !contains(f.FaultTypes, study.FaultType) {
		return false
	}

	if f.SeverityMin != nil || f.SeverityMax != nil {
		severity, ok := study.SeverityValue()
		if !ok {
			return false
		}
		min, max := boundsOf(f.SeverityMin, f.SeverityMax)
		if severity < min || severity > max {
			return false
		}
	}

	if len(f.Technologies) > 0 {
		found := false
		for _, sensor := range study.UsedSetup.Sensors {
			if contains(f.Technologies, sensor.TechnologyPlatform) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	if f.SpeedMinRPM != nil || f.SpeedMaxRPM != nil {
		min, max := boundsOf(f.SpeedMinRPM, f.SpeedMaxRPM)
		low, high := memory.SpeedBucket(min), memory.SpeedBucket(max)
		found := false
		for _, run := range study.Runs {
			for _, rpm := range memory.RunSpeedsRPM(run) {
				if bucket := memory.SpeedBucket(rpm); bucket >= low && bucket <= high {
					found = true
					break
				}
			}
			if found {
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}

func groupValues(record *catalog.Record, key GroupKey) map[string]struct{} {
	values := make(map[string]struct{})
	for i := range record.StudyDetails {
		study := &record.StudyDetails[i]
		switch key {
		case GroupByFaultType:
			if study.FaultType != "" {
				values[study.FaultType] = struct{}{}
			}
		case GroupByExperimentType:
			if study.ExperimentType != "" {
				values[study.ExperimentType] = struct{}{}
			}
		case GroupByTechnology:
			for _, sensor := range study.UsedSetup.Sensors {
				if sensor.TechnologyPlatform != "" {
					values[sensor.TechnologyPlatform] = struct{}{}
				}
			}
		}
	}
	return values
}

func unionOf(keys []string, lookup func(string) []string) []string {
	seen := make(map[string]struct{})
	for _, key := range keys {
		for _, id := range lookup(key) {
			seen[id] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func boundsOf(min, max *float64) (float64, float64) {
	low, high := 0.0, math.Inf(1)
	if min != nil {
		low = *min
	}
	if max != nil {
		high = *max
	}
	return low, high
}

func contains(values []string, value string) bool {
	for _, v := range values {
		if v == value {
			return true
		}
	}
	return false
}
