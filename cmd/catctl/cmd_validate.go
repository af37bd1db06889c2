package main

import (
	"fmt"

	"github.com/spf13/cobra"

	catalog "phm-catalog/internal/catalog/domain"
	"phm-catalog/internal/catalog/resolve"
	"phm-catalog/internal/catalog/validate"
	"phm-catalog/internal/ingest"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check record documents without admitting them",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runValidate,
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		raw, err := ingest.DecodeFile(path)
		if err != nil {
			return fmt.Errorf("decode %s: %w", path, err)
		}

		violations := validate.Record(raw)
		if record, err := resolve.Bind(raw); err == nil {
			violations = append(violations, resolve.Record(record)...)
		}

		if len(violations) == 0 {
			fmt.Fprintf(out, "%s: ok\n", path)
			continue
		}
		fmt.Fprintf(out, "%s:\n", path)
		renderViolations(out, violations)
		if catalog.HasBlocking(violations) {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d document(s) would be rejected", failed)
	}
	return nil
}
