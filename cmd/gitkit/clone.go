package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	gitkit "github.com/arkenfold/gitkit"
	"github.com/arkenfold/gitkit/ginternals"
	"github.com/spf13/cobra"
)

func newCloneCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "clone URL [DIRECTORY]",
		Short: "Clone a repository over smart HTTP into a new directory",
		Args:  cobra.RangeArgs(1, 2),
	}

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		url := args[0]
		dir := filepath.Base(strings.TrimSuffix(url, "/"))
		dir = strings.TrimSuffix(dir, ".git")
		if len(args) == 2 {
			dir = args[1]
		}
		return cloneCmd(cmd.OutOrStdout(), cmd.Context(), url, dir)
	}

	return cmd
}

func cloneCmd(out io.Writer, ctx context.Context, url, dir string) error {
	fmt.Fprintf(out, "Cloning into %q...\n", dir)

	repo, err := gitkit.Clone(ctx, url, dir, nil)
	if err != nil {
		return err
	}

	var objectCount int
	if err := repo.Backend().WalkLooseObjectIDs(func(ginternals.Oid) error {
		objectCount++
		return nil
	}); err != nil {
		return err
	}

	var refCount int
	if err := repo.Backend().WalkReferences(func(*ginternals.Reference) error {
		refCount++
		return nil
	}); err != nil {
		return err
	}

	fmt.Fprintf(out, "Receiving objects: 100%% (%d/%d), done.\n", objectCount, objectCount)
	fmt.Fprintf(out, "Updating references: 100%% (%d/%d), done.\n", refCount, refCount)
	return nil
}
