package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"gopkg.in/yaml.v3"

	catalog "phm-catalog/internal/catalog/domain"
)

// ErrUnsupportedFormat indicates a file extension with no decoder.
var ErrUnsupportedFormat = errors.New("ingest: unsupported format")

// Admitter admits a raw record document into a catalog.
type Admitter interface {
	Admit(raw map[string]any) ([]catalog.Violation, error)
}

// Result reports the outcome of ingesting one file.
type Result struct {
	Path       string
	Identifier string
	Violations []catalog.Violation
	Err        error
}

// Decode reads one record document. Format is the file extension,
// with or without the leading dot.
func Decode(r io.Reader, format string) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	raw := map[string]any{}
	switch strings.TrimPrefix(strings.ToLower(format), ".") {
	case "json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("ingest: decode json: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("ingest: decode yaml: %w", err)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return raw, nil
}

// DecodeFile reads one record document from disk, picking the decoder
// by extension.
func DecodeFile(path string) (map[string]any, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return Decode(file, filepath.Ext(path))
}

// Directory ingests every record document under dir. Files decode
// concurrently; admissions are serialized so index mutations stay
// ordered. Decode and admission failures land in the per-file results,
// not in the returned error.
func Directory(ctx context.Context, dir string, admitter Admitter, workers int) ([]Result, error) {
	if workers < 1 {
		workers = 1
	}

	var paths []string
	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return nil
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".json", ".yaml", ".yml":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var (
		mu      sync.Mutex
		results = make([]Result, 0, len(paths))
	)
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(workers)
	for _, path := range paths {
		path := path
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result := Result{Path: path}
			raw, err := DecodeFile(path)
			if err != nil {
				result.Err = err
			} else {
				if id, ok := raw["identifier"].(string); ok {
					result.Identifier = id
				}
				mu.Lock()
				result.Violations, result.Err = admitter.Admit(raw)
				mu.Unlock()
			}
			mu.Lock()
			results = append(results, result)
			mu.Unlock()
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	sort.Slice(results, func(i, j int) bool { return results[i].Path < results[j].Path })
	return results, nil
}
