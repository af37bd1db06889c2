package main

import (
	"context"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	catalog "phm-catalog/internal/catalog/domain"
	"phm-catalog/internal/catalog/memory"
	"phm-catalog/internal/ingest"
)

func renderViolations(out io.Writer, violations []catalog.Violation) {
	w := table.NewWriter()
	w.SetOutputMirror(out)
	w.SetStyle(table.StyleLight)
	w.AppendHeader(table.Row{"Path", "Kind", "Message", "Blocking"})
	for _, v := range violations {
		w.AppendRow(table.Row{v.Path, v.Kind, v.Message, !v.Warning})
	}
	w.Render()
}

// loadCatalog fills an in-memory catalog from a directory of record
// documents, printing any per-file rejections.
func loadCatalog(cmd *cobra.Command, dir string, workers int) (*memory.Catalog, error) {
	cat := memory.New()
	results, err := ingest.Directory(context.Background(), dir, cat, workers)
	if err != nil {
		return nil, err
	}
	for _, result := range results {
		if result.Err == nil {
			continue
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "rejected %s: %v\n", result.Path, result.Err)
		if len(result.Violations) > 0 {
			renderViolations(cmd.ErrOrStderr(), result.Violations)
		}
	}
	return cat, nil
}
