package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"isd/bootstrap"
	"isd/control"
)

var tellCmd = &cobra.Command{
	Use:   "tell <group> <runlevel>",
	Short: "send a directive to the daemon, bootstrapping one if none is running",
	Args:  cobra.ExactArgs(2),
	RunE:  runTell,
}

func init() {
	rootCmd.AddCommand(tellCmd)
}

// runTell implements `isd tell <group> <runlevel>` (SPEC_FULL.md §4.13):
// if no daemon is listening, bootstrap one and apply this directive as its
// initial target before it enters the accept loop.
func runTell(c *cobra.Command, args []string) error {
	cfg := loadDaemonConfig()
	directive := control.Directive{Verb: "tell", Group: args[0], Runlevel: args[1]}

	outcome, err := bootstrap.Run(cfg.SocketPath, directive)
	if err != nil {
		return err
	}

	if outcome == bootstrap.BecameDaemon {
		fmt.Printf("started isd and applied initial target %s/%s\n", args[0], args[1])
	}
	return nil
}
