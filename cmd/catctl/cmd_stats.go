package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"phm-catalog/internal/catalog/query"
)

var statsFlags struct {
	groupBy string
	workers int
}

var statsCmd = &cobra.Command{
	Use:   "stats <dir>",
	Short: "Count records grouped by a study attribute",
	Args:  cobra.ExactArgs(1),
	RunE:  runStats,
}

func init() {
	f := statsCmd.Flags()
	f.StringVar(&statsFlags.groupBy, "group-by", string(query.GroupByFaultType), "Group key: fault_type, technology_platform, or experiment_type")
	f.IntVar(&statsFlags.workers, "workers", 4, "Concurrent decode workers")
}

func runStats(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog(cmd, args[0], statsFlags.workers)
	if err != nil {
		return err
	}
	counts, err := query.New(cat).CountBy(context.Background(), query.Filter{}, query.GroupKey(statsFlags.groupBy))
	if err != nil {
		return err
	}

	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	out := cmd.OutOrStdout()
	w := table.NewWriter()
	w.SetOutputMirror(out)
	w.SetStyle(table.StyleLight)
	w.AppendHeader(table.Row{statsFlags.groupBy, "Records"})
	for _, key := range keys {
		w.AppendRow(table.Row{key, counts[key]})
	}
	w.Render()
	fmt.Fprintf(out, "%d records total\n", cat.Len())
	return nil
}
