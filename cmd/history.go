package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"isd/auditlog"
)

var historyCmd = &cobra.Command{
	Use:   "history [tag]",
	Short: "dump the audit journal, optionally filtered to one tag",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runHistory,
}

func init() {
	rootCmd.AddCommand(historyCmd)
}

func runHistory(c *cobra.Command, args []string) error {
	cfg := loadDaemonConfig()

	journal, err := auditlog.OpenReadOnly(cfg.AuditPath)
	if err != nil {
		return fmt.Errorf("opening audit journal: %w", err)
	}
	defer journal.Close()

	var events []auditlog.Event
	if len(args) == 1 {
		events, err = journal.ForTag(args[0])
	} else {
		events, err = journal.All()
	}
	if err != nil {
		return err
	}

	for _, ev := range events {
		fmt.Printf("%s %-18s tag=%-12s group=%-10s runlevel=%-8s %s\n",
			ev.Time.Format("2006-01-02T15:04:05"), ev.Kind, ev.Tag, ev.Group, ev.Runlevel, ev.Detail)
	}
	return nil
}
