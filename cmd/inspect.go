package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Check the input tables without solving",
	RunE: func(cmd *cobra.Command, _ []string) error {
		svc, closeSvc, err := newService()
		if err != nil {
			return err
		}
		defer closeSvc()

		ic, diags, err := svc.Inspect(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if err := ic.WriteText(out); err != nil {
			return err
		}
		for _, d := range diags {
			if _, err := fmt.Fprintln(out, d); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}
