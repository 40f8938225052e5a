package cmd

import (
	"github.com/spf13/cobra"

	"jobwatch/internal/render"
	"jobwatch/internal/scheduler"
)

var nodesCmd = &cobra.Command{
	Use:   "nodes",
	Short: "List scheduled jobs per node",
	Long:  `List the jobs scheduled on each node. Filters apply to the node given with --node, or to every node when it is omitted.`,
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
		nodeID, _ := cmd.Flags().GetString("node")

		m := newMonitor(size)
		m.RefreshNodes(cmd.Context())

		if nodeID != "" {
			m.JobsByNode(nodeID, update)
		} else {
			for _, n := range m.JobsByNode("", nil).Nodes {
				m.JobsByNode(n.NodeID, update)
			}
		}
		res := m.JobsByNode("", nil)

		resp := render.NodesView(res, opts)
		if resp.Error != nil {
			return reportError(cmd, resp.Error)
		}
		if res.ViewState == scheduler.ViewDegraded {
			printDegradedNotice(cmd)
		}
		printFailures(cmd, resp.Failures)

		if len(resp.Nodes) == 0 {
			cmd.Println("No nodes found.")
			return nil
		}
		printed := 0
		for _, node := range resp.Nodes {
			if nodeID != "" && node.NodeID != nodeID {
				continue
			}
			if printed > 0 {
				cmd.Println()
			}
			printed++
			printNodeHeader(cmd, node)
			if node.Unavailable {
				cmd.Println("Job information unavailable for this node.")
				continue
			}
			if len(node.Jobs) == 0 {
				cmd.Println("No jobs found.")
				continue
			}
			printJobsTable(cmd, node.Jobs)
			printPageFooter(cmd, node.Page, "jobs")
		}
		if printed == 0 {
			cmd.Printf("Node %s not found.\n", nodeID)
		}
		return nil
	},
}

func init() {
	addQueryFlags(nodesCmd)
	nodesCmd.Flags().String("node", "", "Only show this node ID")
	rootCmd.AddCommand(nodesCmd)
}
