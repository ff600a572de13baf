package cmd

import (
	"bufio"
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/approval"
	"github.com/firefly-engineering/firefly-forage/packages/forage-agent/internal/logging"
)

var (
	verbose     bool
	jsonOutput  bool
	configFile  string
	envFile     string
	sandboxDir  string
	autoApprove bool
)

var rootCmd = &cobra.Command{
	Use:   "forage-agent",
	Short: "Sandboxed AI coding agent for the terminal",
	Long: `forage-agent generates files from natural-language prompts into a
sandbox directory, tests them and repairs them when the tests fail.

Everything happens inside the sandbox:
  - Generated files are streamed in and committed atomically
  - Shell commands are checked against an allow list and run without a shell
  - Every write, command and approval is recorded in the audit log

Run without a subcommand to start an interactive session.`,
	Args: cobra.NoArgs,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.Setup(verbose, jsonOutput, os.Stderr)
	},
	RunE:          runInteractive,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func Execute() error {
	err := rootCmd.Execute()
	var reported *reportedError
	if err != nil && !errors.As(err, &reported) {
		logError("%v", err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output logs in JSON format")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Path to a TOML config file (default ./forage-agent.toml)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "Path to a dotenv file (default ./.env)")
	rootCmd.PersistentFlags().StringVar(&sandboxDir, "sandbox", "", "Sandbox directory (overrides SANDBOX_DIR)")
	rootCmd.PersistentFlags().BoolVar(&autoApprove, "auto-approve", false, "Approve every action without asking")
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

func runInteractive(cmd *cobra.Command, args []string) error {
	in := bufio.NewReader(cmd.InOrStdin())
	out := cmd.OutOrStdout()

	s, err := newSession(cmd, approval.NewLinePrompt(in, out))
	if err != nil {
		return err
	}
	return s.Run(cmd.Context(), in)
}

// Helper aliases for user-facing output (delegates to logging package)
var (
	logInfo    = logging.UserInfo
	logSuccess = logging.UserSuccess
	logWarning = logging.UserWarning
	logError   = logging.UserError
)
