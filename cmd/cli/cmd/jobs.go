package cmd

import (
	"github.com/spf13/cobra"

	"jobwatch/internal/monitor"
	"jobwatch/internal/render"
	"jobwatch/internal/scheduler"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List scheduled jobs",
	Long:  `List every job known to the scheduler with its schedule, last and next run and current status (running, idle or disabled).`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJobsView(cmd, monitor.ViewJobs)
	},
}

var activeCmd = &cobra.Command{
	Use:   "active",
	Short: "List running jobs",
	Long:  `List the jobs that currently hold an unreleased lock. When the lock table is unavailable, enabled jobs that take locks are shown as possibly running.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runJobsView(cmd, monitor.ViewActive)
	},
}

func runJobsView(cmd *cobra.Command, view string) error {
	update, size, err := queryUpdate(cmd)
	if err != nil {
		return err
	}
	opts, err := renderOptions()
	if err != nil {
		return err
	}

	m := newMonitor(size)
	m.RefreshJobs(cmd.Context())

	var res monitor.JobsResult
	if view == monitor.ViewActive {
		res = m.ActiveJobs(update)
	} else {
		res = m.AllJobs(update)
	}

	resp := render.JobsView(view, res, opts)
	if resp.Error != nil {
		return reportError(cmd, resp.Error)
	}
	if res.ViewState == scheduler.ViewDegraded {
		printDegradedNotice(cmd)
	}
	printFailures(cmd, resp.Failures)

	if len(resp.Jobs) == 0 {
		cmd.Println("No jobs found.")
		return nil
	}
	printJobsTable(cmd, resp.Jobs)
	printPageFooter(cmd, resp.Page, "jobs")
	return nil
}

func init() {
	addQueryFlags(jobsCmd)
	addQueryFlags(activeCmd)
	rootCmd.AddCommand(jobsCmd)
	rootCmd.AddCommand(activeCmd)
}
