package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var lsCmd = &cobra.Command{
	Use:   "ls [path]",
	Short: "List sandbox contents",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runLs,
}

var lsLong bool

func init() {
	lsCmd.Flags().BoolVarP(&lsLong, "long", "l", false, "Show entry sizes")
	rootCmd.AddCommand(lsCmd)
}

func runLs(cmd *cobra.Command, args []string) error {
	s, err := newSession(cmd, nil)
	if err != nil {
		return err
	}

	target := ""
	if len(args) > 0 {
		target = args[0]
	}
	entries, err := s.List(target)
	if err != nil {
		return err
	}

	if !lsLong {
		for _, e := range entries {
			name := e.Name
			if e.IsDir {
				name += "/"
			}
			fmt.Fprintln(cmd.OutOrStdout(), name)
		}
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	for _, e := range entries {
		if e.IsDir {
			fmt.Fprintf(w, "%s/\t-\n", e.Name)
		} else {
			fmt.Fprintf(w, "%s\t%d\n", e.Name, e.Size)
		}
	}
	return w.Flush()
}
