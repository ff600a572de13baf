package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/session"
)

var auditLogCmd = &cobra.Command{
	Use:   "audit-log",
	Short: "Display the most recent audit entries",
	Args:  cobra.NoArgs,
	RunE:  runAuditLog,
}

var auditLogLines int

func init() {
	auditLogCmd.Flags().IntVarP(&auditLogLines, "lines", "n", session.DefaultAuditTail, "Number of entries to show")
	rootCmd.AddCommand(auditLogCmd)
}

func runAuditLog(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, nil)
	if err != nil {
		return err
	}

	lines, err := s.AuditTail(auditLogLines)
	if err != nil {
		return fmt.Errorf("failed to read audit log: %w", err)
	}

	if len(lines) == 0 {
		logInfo("Audit log is empty.")
		return nil
	}

	for _, line := range lines {
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}
