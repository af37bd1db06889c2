// Package memory holds the in-memory catalog index. One Catalog owns its
// records: any number of concurrent queries may read it, while admissions,
// removals and replacements take the write lock and apply all-or-nothing.
package memory

import (
	"fmt"
	"sort"
	"sync"

	catalog "phm-catalog/internal/catalog/domain"
	"phm-catalog/internal/catalog/resolve"
	"phm-catalog/internal/catalog/validate"
)

// Catalog indexes admitted records by identifier, fault type, parsed fault
// severity, sensor technology platform and motor-speed bucket.
type Catalog struct {
	mu      sync.RWMutex
	records map[string]*catalog.Record
	derived map[string]recordKeys

	byFaultType  map[string]map[string]struct{}
	byTechnology map[string]map[string]struct{}
	bySpeed      map[int]map[string]struct{}
	severities   []severityEntry
}

type severityEntry struct {
	value      float64
	identifier string
}

// New constructs an empty catalog.
func New() *Catalog {
	return &Catalog{
		records:      make(map[string]*catalog.Record),
		derived:      make(map[string]recordKeys),
		byFaultType:  make(map[string]map[string]struct{}),
		byTechnology: make(map[string]map[string]struct{}),
		bySpeed:      make(map[int]map[string]struct{}),
	}
}

// Admit validates and resolves a raw record, then inserts it. On any
// blocking violation the collected list is returned with ErrRejected and the
// catalog is left untouched. Admitting an identifier that is already present
// fails with ErrDuplicateIdentifier; use Replace for updates.
func (c *Catalog) Admit(raw map[string]any) ([]catalog.Violation, error) {
	record, violations, err := prepare(raw)
	if err != nil {
		return violations, err
	}

	keys := deriveKeys(record)

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.records[record.Identifier]; exists {
		return violations, fmt.Errorf("%w: %s", catalog.ErrDuplicateIdentifier, record.Identifier)
	}
	c.insertLocked(record, keys)
	return violations, nil
}

// Replace atomically removes any record with the same identifier and admits
// the new one. The prior record survives if the new one is rejected.
func (c *Catalog) Replace(raw map[string]any) ([]catalog.Violation, error) {
	record, violations, err := prepare(raw)
	if err != nil {
		return violations, err
	}

	keys := deriveKeys(record)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.evictLocked(record.Identifier)
	c.insertLocked(record, keys)
	return violations, nil
}

// Remove evicts a record and all of its index entries.
func (c *Catalog) Remove(identifier string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.records[identifier]; !exists {
		return fmt.Errorf("%w: %s", catalog.ErrNotFound, identifier)
	}
	c.evictLocked(identifier)
	return nil
}

// Get returns the resolved record for an identifier.
func (c *Catalog) Get(identifier string) (*catalog.Record, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	record, exists := c.records[identifier]
	if !exists {
		return nil, fmt.Errorf("%w: %s", catalog.ErrNotFound, identifier)
	}
	return record, nil
}

// Len reports the number of admitted records.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}

// Identifiers returns all record identifiers in ascending order.
func (c *Catalog) Identifiers() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.records))
	for id := range c.records {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// prepare runs the full admission pipeline short of insertion. Validation
// and resolution findings are merged into one batch so a caller sees every
// problem in a single pass.
func prepare(raw map[string]any) (*catalog.Record, []catalog.Violation, error) {
	violations := validate.Record(raw)

	record, err := resolve.Bind(raw)
	if err != nil {
		if !catalog.HasBlocking(violations) {
			violations = append(violations, catalog.Violation{
				Kind:    catalog.ViolationSchema,
				Message: err.Error(),
			})
		}
		return nil, violations, catalog.ErrRejected
	}

	violations = append(violations, resolve.Record(record)...)
	if catalog.HasBlocking(violations) {
		return nil, violations, catalog.ErrRejected
	}
	return record, violations, nil
}

func (c *Catalog) insertLocked(record *catalog.Record, keys recordKeys) {
	id := record.Identifier
	c.records[id] = record
	c.derived[id] = keys

	for _, faultType := range keys.faultTypes {
		addKey(c.byFaultType, faultType, id)
	}
	for _, technology := range keys.technologies {
		addKey(c.byTechnology, technology, id)
	}
	for _, bucket := range keys.speedBuckets {
		addKey(c.bySpeed, bucket, id)
	}
	for _, severity := range keys.severities {
		c.severities = append(c.severities, severityEntry{value: severity, identifier: id})
	}
	sort.Slice(c.severities, func(i, j int) bool {
		if c.severities[i].value != c.severities[j].value {
			return c.severities[i].value < c.severities[j].value
		}
		return c.severities[i].identifier < c.severities[j].identifier
	})
}

func (c *Catalog) evictLocked(identifier string) {
	keys, exists := c.derived[identifier]
	if !exists {
		return
	}
	delete(c.records, identifier)
	delete(c.derived, identifier)

	for _, faultType := range keys.faultTypes {
		dropKey(c.byFaultType, faultType, identifier)
	}
	for _, technology := range keys.technologies {
		dropKey(c.byTechnology, technology, identifier)
	}
	for _, bucket := range keys.speedBuckets {
		dropKey(c.bySpeed, bucket, identifier)
	}

	kept := c.severities[:0]
	for _, entry := range c.severities {
		if entry.identifier != identifier {
			kept = append(kept, entry)
		}
	}
	c.severities = kept
}

func addKey[K comparable](index map[K]map[string]struct{}, key K, identifier string) {
	bucket, exists := index[key]
	if !exists {
		bucket = make(map[string]struct{})
		index[key] = bucket
	}
	bucket[identifier] = struct{}{}
}

func dropKey[K comparable](index map[K]map[string]struct{}, key K, identifier string) {
	bucket, exists := index[key]
	if !exists {
		return
	}
	delete(bucket, identifier)
	if len(bucket) == 0 {
		delete(index, key)
	}
}
