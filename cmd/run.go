package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/lessonalloc/app"
	"github.com/kilianp07/lessonalloc/core/allocation"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Solve the allocation and write the output tables",
	RunE:  runAllocation,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runAllocation(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	svc, closeSvc, err := newService()
	if err != nil {
		return err
	}
	defer closeSvc()

	rep, err := svc.Run(ctx)
	var se *allocation.SolveError
	if errors.As(err, &se) && se.Report != nil {
		if werr := se.Report.WriteText(cmd.ErrOrStderr()); werr != nil {
			return werr
		}
		return err
	}
	if err != nil {
		return err
	}
	return printRun(cmd.OutOrStdout(), rep)
}

func printRun(w io.Writer, rep *app.RunReport) error {
	res := rep.Result
	rec := res.Reconciliation
	_, err := fmt.Fprintf(w, "run %s: %s (%s)\nplaced %d of %d requested sessions (%.1f%%), %d new lessons\n",
		rep.RunID, res.Outcome, res.Status, rec.Placed, rec.Requested, rec.Percent(), rec.NewLessons())
	if err != nil {
		return err
	}
	for _, u := range rec.Unallocated() {
		if _, err := fmt.Fprintf(w, "  unallocated: %s x %s, %d short (%s)\n", u.StudentName, u.SubjectName, u.Deficit, u.Reason); err != nil {
			return err
		}
	}
	return nil
}
