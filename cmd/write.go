package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var writeCmd = &cobra.Command{
	Use:   "write <file> <prompt>...",
	Short: "Generate a sandbox file from a prompt, then test and repair it",
	Long: `Streams generated code into <file> inside the sandbox. The file is
replaced atomically once the stream completes. JavaScript and Python files are
run after writing (or "npm test" when the sandbox has a package.json); on
failure the generator is asked to fix the file, up to MAX_SELF_HEAL_RETRIES
times.`,
	Example: `  forage-agent write server.js "an http server that answers pong on /ping"`,
	Args:    cobra.MinimumNArgs(2),
	RunE:    runWrite,
}

func init() {
	rootCmd.AddCommand(writeCmd)
}

func runWrite(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, nil)
	if err != nil {
		return err
	}

	reply := s.WriteArtifact(cmd.Context(), args[0], strings.Join(args[1:], " "))
	fmt.Fprintln(cmd.OutOrStdout())
	return showReply(cmd, reply)
}
