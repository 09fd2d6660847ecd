package cmd

import (
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"isd/monitorui"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "live view of the daemon's process table",
	Args:  cobra.NoArgs,
	RunE:  runMonitor,
}

func init() {
	rootCmd.AddCommand(monitorCmd)
}

// runMonitor implements `isd monitor` (SPEC_FULL.md §4.12): an
// interactive tview table when stdout is a terminal, a plain polling
// fallback otherwise.
func runMonitor(c *cobra.Command, args []string) error {
	cfg := loadDaemonConfig()

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		stop := make(chan struct{})
		return monitorui.RunPlain(cfg.SocketPath, os.Stdout, stop)
	}

	return monitorui.New(cfg.SocketPath).RunTUI()
}
