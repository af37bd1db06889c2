package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"phm-catalog/internal/ingest"
)

var templateFlags struct {
	out string
}

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Emit a skeleton record document with a fresh identifier",
	Args:  cobra.NoArgs,
	RunE:  runTemplate,
}

func init() {
	templateCmd.Flags().StringVar(&templateFlags.out, "out", "", "Write to a file instead of stdout")
}

func runTemplate(cmd *cobra.Command, _ []string) error {
	payload, err := json.MarshalIndent(ingest.Template(), "", "  ")
	if err != nil {
		return err
	}
	payload = append(payload, '\n')
	if templateFlags.out != "" {
		if err := os.WriteFile(templateFlags.out, payload, 0o644); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", templateFlags.out)
		return nil
	}
	_, err = cmd.OutOrStdout().Write(payload)
	return err
}
