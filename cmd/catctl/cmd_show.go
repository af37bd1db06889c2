package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"phm-catalog/internal/catalog/resolve"
	"phm-catalog/internal/ingest"
)

var showCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Print a summary of one record document",
	Args:  cobra.ExactArgs(1),
	RunE:  runShow,
}

func runShow(cmd *cobra.Command, args []string) error {
	raw, err := ingest.DecodeFile(args[0])
	if err != nil {
		return fmt.Errorf("decode %s: %w", args[0], err)
	}
	record, err := resolve.Bind(raw)
	if err != nil {
		return fmt.Errorf("bind %s: %w", args[0], err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Identifier: %s\n", record.Identifier)
	fmt.Fprintf(out, "Title:      %s\n", record.Title)
	if record.PublicReleaseDate != "" {
		fmt.Fprintf(out, "Released:   %s\n", record.PublicReleaseDate)
	}
	for _, contact := range record.Contacts {
		fmt.Fprintf(out, "Contact:    %s %s (%s)\n", contact.FirstName, contact.LastName, contact.Affiliation)
	}

	w := table.NewWriter()
	w.SetOutputMirror(out)
	w.SetStyle(table.StyleLight)
	w.AppendHeader(table.Row{"Study", "Experiment", "Fault", "Severity", "Sensors", "Runs"})
	for _, study := range record.StudyDetails {
		w.AppendRow(table.Row{
			study.Title,
			study.ExperimentType,
			study.FaultType,
			study.FaultSeverity,
			len(study.UsedSetup.Sensors),
			len(study.Runs),
		})
	}
	w.Render()
	return nil
}
