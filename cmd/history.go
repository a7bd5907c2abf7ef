package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/lessonalloc/core/runlog"
)

var (
	historySince   string
	historyUntil   string
	historyOutcome string
	historyLimit   int
	historyJSON    bool
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List past allocation runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		q, err := historyQuery()
		if err != nil {
			return err
		}
		svc, closeSvc, err := newService()
		if err != nil {
			return err
		}
		defer closeSvc()

		recs, err := svc.History(cmd.Context(), q)
		if err != nil {
			return fmt.Errorf("query history: %w", err)
		}
		if historyJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(recs)
		}
		return printHistory(cmd.OutOrStdout(), recs)
	},
}

func init() {
	f := historyCmd.Flags()
	f.StringVar(&historySince, "since", "", "earliest run time (RFC3339 or YYYY-MM-DD)")
	f.StringVar(&historyUntil, "until", "", "latest run time (RFC3339 or YYYY-MM-DD)")
	f.StringVar(&historyOutcome, "outcome", "", "allocated, no_demand or failed")
	f.IntVar(&historyLimit, "limit", 20, "most recent runs to show, 0 for all")
	f.BoolVar(&historyJSON, "json", false, "print records as JSON")
	rootCmd.AddCommand(historyCmd)
}

func historyQuery() (runlog.Query, error) {
	q := runlog.Query{Outcome: historyOutcome, Limit: historyLimit}
	var err error
	if q.Start, err = parseTime(historySince); err != nil {
		return q, fmt.Errorf("--since: %w", err)
	}
	if q.End, err = parseTime(historyUntil); err != nil {
		return q, fmt.Errorf("--until: %w", err)
	}
	return q, nil
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(time.DateOnly, s, time.Local)
}

func printHistory(w io.Writer, recs []runlog.RunRecord) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tTIME\tOUTCOME\tSTATUS\tPLACED\tREQUESTED\tPERCENT\tNEW\tDURATION")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%d\t%.1f\t%d\t%dms\n",
			r.RunID, r.Timestamp.Format(time.RFC3339), r.Outcome, r.Status,
			r.Placed, r.Requested, r.Percent, r.NewLessons, r.DurationMS)
	}
	return tw.Flush()
}
