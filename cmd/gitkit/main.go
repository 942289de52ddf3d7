// Command gitkit is a minimal, content-addressed, git-wire-compatible
// version-control CLI: object storage, tree/commit construction and
// cloning a remote over smart HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// globalFlags holds the persistent flags every subcommand can read.
type globalFlags struct {
	// C runs as if gitkit was started in the given path instead of the
	// current working directory.
	C string
}

func main() {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gitkit",
		Short:         "a minimal, wire-compatible git implementation",
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	cfg := &globalFlags{}
	cmd.PersistentFlags().StringVarP(&cfg.C, "C", "C", "", "Run as if gitkit was started in the provided path instead of the current working directory.")

	// porcelain
	cmd.AddCommand(newInitCmd(cfg))
	cmd.AddCommand(newCloneCmd(cfg))

	// plumbing
	cmd.AddCommand(newCatFileCmd(cfg))
	cmd.AddCommand(newHashObjectCmd(cfg))
	cmd.AddCommand(newLsTreeCmd(cfg))
	cmd.AddCommand(newWriteTreeCmd(cfg))
	cmd.AddCommand(newCommitTreeCmd(cfg))

	return cmd
}
