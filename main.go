// Command isd is a cluster-aware process supervisor daemon: config-driven
// tag/group/runlevel reconciliation, respawn throttling, graceful-then-
// forceful termination, and child reaping coordinated with a control
// socket (see spec.md and SPEC_FULL.md).
package main

import (
	"os"

	"isd/bootstrap"
	"isd/cmd"
)

func main() {
	if isDaemon, initial := bootstrap.IsDaemonInvocation(os.Args[1:]); isDaemon {
		cmd.RunDaemon(initial)
		return
	}
	cmd.Execute()
}
