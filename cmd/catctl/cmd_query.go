package main

import (
	"context"
	"fmt"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	catalog "phm-catalog/internal/catalog/domain"
	"phm-catalog/internal/catalog/query"
)

var queryFlags struct {
	faultTypes     []string
	technologies   []string
	severityMin    float64
	severityMax    float64
	speedMinRPM    float64
	speedMaxRPM    float64
	releasedAfter  string
	releasedBefore string
	sort           string
	workers        int
}

var queryCmd = &cobra.Command{
	Use:   "query <dir>",
	Short: "Query the records under a directory",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	f := queryCmd.Flags()
	f.StringSliceVar(&queryFlags.faultTypes, "fault-type", nil, "Match studies with this fault type (repeatable)")
	f.StringSliceVar(&queryFlags.technologies, "technology", nil, "Match sensor technology platform (repeatable)")
	f.Float64Var(&queryFlags.severityMin, "severity-min", 0, "Minimum fault severity")
	f.Float64Var(&queryFlags.severityMax, "severity-max", 0, "Maximum fault severity")
	f.Float64Var(&queryFlags.speedMinRPM, "speed-min-rpm", 0, "Minimum motor speed in RPM")
	f.Float64Var(&queryFlags.speedMaxRPM, "speed-max-rpm", 0, "Maximum motor speed in RPM")
	f.StringVar(&queryFlags.releasedAfter, "released-after", "", "Only records released after this date")
	f.StringVar(&queryFlags.releasedBefore, "released-before", "", "Only records released before this date")
	f.StringVar(&queryFlags.sort, "sort", "", "Sort key: identifier or release_date")
	f.IntVar(&queryFlags.workers, "workers", 4, "Concurrent decode workers")
}

func runQuery(cmd *cobra.Command, args []string) error {
	cat, err := loadCatalog(cmd, args[0], queryFlags.workers)
	if err != nil {
		return err
	}

	filter, err := filterFromFlags(cmd)
	if err != nil {
		return err
	}
	records, err := query.New(cat).Records(context.Background(), filter)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintln(out, "no matching records")
		return nil
	}
	w := table.NewWriter()
	w.SetOutputMirror(out)
	w.SetStyle(table.StyleLight)
	w.AppendHeader(table.Row{"Identifier", "Title", "Released", "Studies"})
	for _, record := range records {
		w.AppendRow(table.Row{record.Identifier, record.Title, record.PublicReleaseDate, len(record.StudyDetails)})
	}
	w.Render()
	fmt.Fprintf(out, "%d of %d records matched\n", len(records), cat.Len())
	return nil
}

func filterFromFlags(cmd *cobra.Command) (query.Filter, error) {
	filter := query.Filter{
		FaultTypes:   queryFlags.faultTypes,
		Technologies: queryFlags.technologies,
		Sort:         query.SortKey(queryFlags.sort),
	}
	flags := cmd.Flags()
	if flags.Changed("severity-min") {
		filter.SeverityMin = &queryFlags.severityMin
	}
	if flags.Changed("severity-max") {
		filter.SeverityMax = &queryFlags.severityMax
	}
	if flags.Changed("speed-min-rpm") {
		filter.SpeedMinRPM = &queryFlags.speedMinRPM
	}
	if flags.Changed("speed-max-rpm") {
		filter.SpeedMaxRPM = &queryFlags.speedMaxRPM
	}
	var err error
	if filter.ReleasedAfter, err = parseDateFlag(queryFlags.releasedAfter); err != nil {
		return filter, fmt.Errorf("released-after: %w", err)
	}
	if filter.ReleasedBefore, err = parseDateFlag(queryFlags.releasedBefore); err != nil {
		return filter, fmt.Errorf("released-before: %w", err)
	}
	return filter, nil
}

func parseDateFlag(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	parsed, ok := catalog.ParseDate(value)
	if !ok {
		return nil, fmt.Errorf("cannot parse %q as a date", value)
	}
	return &parsed, nil
}
