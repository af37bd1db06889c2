package ingest

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	catalog "phm-catalog/internal/catalog/domain"
)

type stubAdmitter struct {
	admitted []string
	reject   map[string]error
}

func (s *stubAdmitter) Admit(raw map[string]any) ([]catalog.Violation, error) {
	id, _ := raw["identifier"].(string)
	if err, ok := s.reject[id]; ok {
		return []catalog.Violation{{Path: "identifier", Kind: catalog.ViolationSchema}}, err
	}
	s.admitted = append(s.admitted, id)
	return nil, nil
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestDecodeJSON(t *testing.T) {
	raw, err := Decode(strings.NewReader(`{"identifier": "i1", "title": "T"}`), ".json")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if raw["identifier"] != "i1" {
		t.Fatalf("raw = %v", raw)
	}
}

func TestDecodeYAML(t *testing.T) {
	raw, err := Decode(strings.NewReader("identifier: i1\ntitle: T\n"), "yaml")
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if raw["identifier"] != "i1" {
		t.Fatalf("raw = %v", raw)
	}
}

func TestDecodeUnsupportedFormat(t *testing.T) {
	if _, err := Decode(strings.NewReader("x"), ".toml"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err = %v, want ErrUnsupportedFormat", err)
	}
}

func TestDirectoryIngestsAllDocuments(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", `{"identifier": "i1"}`)
	writeFile(t, dir, "b.yaml", "identifier: i2\n")
	writeFile(t, dir, "notes.txt", "ignored")

	admitter := &stubAdmitter{}
	results, err := Directory(context.Background(), dir, admitter, 4)
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("results = %v", results)
	}
	if results[0].Identifier != "i1" || results[1].Identifier != "i2" {
		t.Fatalf("results out of order: %v", results)
	}
	if len(admitter.admitted) != 2 {
		t.Fatalf("admitted = %v", admitter.admitted)
	}
}

func TestDirectoryReportsPerFileFailures(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.json", `{not json`)
	writeFile(t, dir, "dup.json", `{"identifier": "i9"}`)
	writeFile(t, dir, "good.json", `{"identifier": "i1"}`)

	admitter := &stubAdmitter{reject: map[string]error{"i9": catalog.ErrDuplicateIdentifier}}
	results, err := Directory(context.Background(), dir, admitter, 2)
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("results = %v", results)
	}
	if results[0].Err == nil {
		t.Fatal("expected decode failure for bad.json")
	}
	if !errors.Is(results[1].Err, catalog.ErrDuplicateIdentifier) {
		t.Fatalf("dup err = %v", results[1].Err)
	}
	if results[2].Err != nil {
		t.Fatalf("good.json err = %v", results[2].Err)
	}
	if len(admitter.admitted) != 1 || admitter.admitted[0] != "i1" {
		t.Fatalf("admitted = %v", admitter.admitted)
	}
}

func TestTemplateIdentifier(t *testing.T) {
	raw := Template()
	id, _ := raw["identifier"].(string)
	if !strings.HasPrefix(id, "i-") || len(id) < 10 {
		t.Fatalf("identifier = %q", id)
	}
	if raw["study_details"] == nil {
		t.Fatal("template must include a study skeleton")
	}
	if Template()["identifier"] == id {
		t.Fatal("identifiers must be unique per template")
	}
}
