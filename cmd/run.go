package cmd

import (
	"github.com/kballard/go-shellquote"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run <command> [args...]",
	Short: "Run an allowed command in the sandbox",
	Long: `Runs a command with the sandbox as working directory, without a shell.
The command must be in ALLOW_CMDS and not in the deny list, and its arguments
may not contain ;, &&, || or |.`,
	Example: `  forage-agent run ls -la`,
	Args:    cobra.MinimumNArgs(1),
	RunE:    runRun,
}

func init() {
	// flags after the command name belong to the command
	runCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, nil)
	if err != nil {
		return err
	}
	return showReply(cmd, s.RunCommand(cmd.Context(), shellquote.Join(args...)))
}
