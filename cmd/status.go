package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"isd/control"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "print a snapshot of the daemon's process table",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(c *cobra.Command, args []string) error {
	cfg := loadDaemonConfig()
	lines, err := control.QueryStatus(cfg.SocketPath)
	if err != nil {
		return err
	}

	fmt.Printf("%-16s %-12s %-10s %-10s %s\n", "TAG", "GROUP", "MODE", "PID", "UPTIME")
	for _, line := range lines {
		var tag, group, mode, pid, uptime string
		fmt.Sscanf(line, "%s %s %s %s %s", &tag, &group, &mode, &pid, &uptime)
		fmt.Printf("%-16s %-12s %-10s %-10s %ss\n", tag, group, mode, pid, uptime)
	}
	return nil
}
