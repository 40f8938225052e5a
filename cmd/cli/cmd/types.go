package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"jobwatch/internal/render"
)

var typesCmd = &cobra.Command{
	Use:   "types",
	Short: "List job types",
	Long:  `List the job types present in the scheduler, in the order they first appear. Use them with --type.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m := newMonitor(1)
		m.RefreshJobs(cmd.Context())

		resp := render.JobsView("", m.AllJobs(nil), render.Options{})
		if resp.Error != nil {
			return reportError(cmd, resp.Error)
		}
		out := cmd.OutOrStdout()
		for _, t := range resp.Types {
			fmt.Fprintln(out, t)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(typesCmd)
}
