package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"isd/bootstrap"
	"isd/control"
)

// runBareInvocation implements `isd` with no subcommand: Singleton
// Bootstrap with no directive, per SPEC_FULL.md §4.13. It becomes the
// daemon if none is running, otherwise reports that a daemon is already
// active and exits.
func runBareInvocation(c *cobra.Command, args []string) error {
	if len(args) != 0 {
		return c.Help()
	}

	cfg := loadDaemonConfig()
	outcome, err := bootstrap.Run(cfg.SocketPath, control.Directive{})
	if err != nil {
		return err
	}

	switch outcome {
	case bootstrap.RanAsClient:
		fmt.Println("a daemon is already running")
	case bootstrap.BecameDaemon:
		fmt.Println("started isd as a background daemon")
	}
	return nil
}
