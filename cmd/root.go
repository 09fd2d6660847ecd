// Package cmd implements the CLI (SPEC_FULL.md §4.13): a cobra command
// tree that is "the thin CLI" spec.md calls an external collaborator. It
// contains no supervisor logic of its own; every verb is a one-line call
// into the control/bootstrap/auditlog packages.
//
// Grounded on cmd/build.go's cobra.Command{Use, Short, Long, Run} shape,
// generalized from go-synth's single build subcommand to isd's directive/
// query verbs.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"isd/config"
)

const defaultConfigPath = "/etc/isd/isd.ini"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "isd",
	Short: "isd is a cluster-aware process supervisor",
	Long: `isd supervises tagged processes according to a config-driven tag
table, reconciling the running process set against a target group and
runlevel. The first invocation on a host becomes the daemon; every later
invocation is a client that either sends a directive or queries state.`,
	RunE: runBareInvocation,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfigPath,
		"path to the daemon ini config file")
}

// Execute runs the cobra command tree. Called from main for every
// invocation that is not a relaunched daemon process (see
// bootstrap.IsDaemonInvocation).
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadDaemonConfig() config.Daemon {
	cfg, err := config.LoadDaemonConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "daemon config: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
