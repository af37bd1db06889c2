package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"phm-catalog/internal/catalog/interfaces"
	"phm-catalog/internal/catalog/query"
)

var exportFlags struct {
	out     string
	record  string
	workers int
}

var exportCmd = &cobra.Command{
	Use:   "export <dir>",
	Short: "Export records as an XLSX workbook or a per-record PDF",
	Args:  cobra.ExactArgs(1),
	RunE:  runExport,
}

func init() {
	f := exportCmd.Flags()
	f.StringVar(&exportFlags.out, "out", "catalog.xlsx", "Output file (.xlsx or .pdf)")
	f.StringVar(&exportFlags.record, "record", "", "Record identifier (required for PDF output)")
	f.IntVar(&exportFlags.workers, "workers", 4, "Concurrent decode workers")
}

func runExport(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog(cmd, args[0], exportFlags.workers)
	if err != nil {
		return err
	}

	var payload []byte
	switch strings.ToLower(filepath.Ext(exportFlags.out)) {
	case ".xlsx":
		records, err := query.New(cat).Records(context.Background(), query.Filter{})
		if err != nil {
			return err
		}
		if payload, err = interfaces.BuildCatalogXLSX(records); err != nil {
			return err
		}
	case ".pdf":
		if exportFlags.record == "" {
			return fmt.Errorf("--record is required for PDF output")
		}
		record, err := cat.Get(exportFlags.record)
		if err != nil {
			return err
		}
		if payload, err = interfaces.BuildRecordPDF(record); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unsupported output extension %q", filepath.Ext(exportFlags.out))
	}

	if err := os.WriteFile(exportFlags.out, payload, 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d bytes)\n", exportFlags.out, len(payload))
	return nil
}
