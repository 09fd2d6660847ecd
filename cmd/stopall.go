package cmd

import (
	"github.com/spf13/cobra"

	"isd/control"
)

var stopallCmd = &cobra.Command{
	Use:   "stopall",
	Short: "terminate the daemon and all of its supervised children",
	Args:  cobra.NoArgs,
	RunE:  runStopall,
}

func init() {
	rootCmd.AddCommand(stopallCmd)
}

func runStopall(c *cobra.Command, args []string) error {
	cfg := loadDaemonConfig()
	return control.Send(cfg.SocketPath, control.Directive{Verb: "stopall"})
}
