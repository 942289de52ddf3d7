package main

import (
	"errors"
	"io"
	"path/filepath"

	gitkit "github.com/arkenfold/gitkit"
	"github.com/spf13/cobra"
)

type initCmdFlags struct {
	quiet bool
}

func newInitCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create an empty git repository",
		Args:  cobra.MaximumNArgs(1),
	}

	flags := initCmdFlags{}
	cmd.Flags().BoolVarP(&flags.quiet, "quiet", "q", false, "Only print error and warning messages; all other output will be suppressed.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		dir, err := workingDir(cfg)
		if err != nil {
			return err
		}
		if len(args) > 0 {
			dir = args[0]
		}
		return initCmdRun(cmd.OutOrStdout(), flags, dir)
	}

	return cmd
}

func initCmdRun(out io.Writer, flags initCmdFlags, dir string) error {
	gitDir := filepath.Join(dir, ".git")

	_, err := gitkit.Init(dir, nil)
	switch {
	case err == nil:
		fprintln(flags.quiet, out, "Initialized empty Git repository in", gitDir)
	case errors.Is(err, gitkit.ErrRepositoryExists):
		// init is idempotent: re-running simply no-ops instead of
		// propagating the error to the caller
		fprintln(flags.quiet, out, "Reinitialized existing Git repository in", gitDir)
	default:
		return err
	}

	return nil
}
