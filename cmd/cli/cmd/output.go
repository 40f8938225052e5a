package cmd

import (
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"jobwatch/internal/scheduler"
	"jobwatch/pkg/api"
)

func printJobsTable(cmd *cobra.Command, jobs []api.JobView) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "JOB ID\tNAME\tTYPE\tSTATUS\tSCHEDULE\tLAST RUN\tNEXT RUN\tLOCK")
	for _, j := range jobs {
		status := j.Status
		if j.Approximate {
			status = "~" + status
		}
		next := j.NextExpectedExecutionTime
		if j.NextRunEstimated {
			next += " (est.)"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			j.JobID,
			truncate(j.Name, 32),
			j.JobType,
			status,
			j.Schedule,
			j.LastExecutionTime,
			next,
			j.LockDuration,
		)
	}
	w.Flush()
}

func printHistoryTable(cmd *cobra.Command, entries []api.HistoryView) {
	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "JOB ID\tINDEX\tSTARTED\tFINISHED\tDURATION\tSTATUS")
	for _, e := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.JobID,
			e.JobIndexName,
			e.StartTime,
			e.EndTime,
			formatSeconds(e.Duration),
			e.Status,
		)
	}
	w.Flush()
}

func printNodeHeader(cmd *cobra.Command, node api.NodeView) {
	name := node.NodeID
	if node.NodeName != "" {
		name = fmt.Sprintf("%s (%s)", node.NodeName, node.NodeID)
	}
	cmd.Printf("Node %s: %d jobs\n", name, node.TotalJobs)
	cmd.Println("──────────────────────────────")
}

func printPageFooter(cmd *cobra.Command, page api.Page, noun string) {
	pages := scheduler.PageCount(page.TotalCount, page.PageSize)
	cmd.Printf("Page %d/%d (%d %s)\n", page.PageIndex+1, max(pages, 1), page.TotalCount, noun)
}

func printDegradedNotice(cmd *cobra.Command) {
	cmd.Println("Lock table unavailable: statuses marked ~ are estimated from lock durations.")
}

func printFailures(cmd *cobra.Command, failures []string) {
	for _, f := range failures {
		cmd.Printf("Warning: %s\n", f)
	}
}

// formatSeconds renders a duration in seconds. Negative durations are shown
// as reported.
func formatSeconds(sec int64) string {
	if sec < 60 {
		return strconv.FormatInt(sec, 10) + "s"
	}
	if sec < 3600 {
		return fmt.Sprintf("%dm %ds", sec/60, sec%60)
	}
	return fmt.Sprintf("%dh %dm", sec/3600, (sec%3600)/60)
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
