package cmd

import (
	"github.com/spf13/cobra"

	"jobwatch/internal/render"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show job execution history",
	Long:  `Show past executions, most recent first, with their duration and outcome. Use --type Success or --type Failed to filter by outcome.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		update, size, err := queryUpdate(cmd)
		if err != nil {
			return err
		}
		opts, err := renderOptions()
		if err != nil {
			return err
		}
		jobID, _ := cmd.Flags().GetString("job")

		m := newMonitor(size)
		m.RefreshHistory(cmd.Context())

		resp := render.HistoryView(m.History(jobID, update), opts)
		if resp.Error != nil {
			return reportError(cmd, resp.Error)
		}

		if len(resp.Entries) == 0 {
			cmd.Println("No executions found.")
			return nil
		}
		printHistoryTable(cmd, resp.Entries)
		printPageFooter(cmd, resp.Page, "executions")
		return nil
	},
}

func init() {
	addQueryFlags(historyCmd)
	historyCmd.Flags().StringP("job", "j", "", "Only show executions of this job ID")
	rootCmd.AddCommand(historyCmd)
}
