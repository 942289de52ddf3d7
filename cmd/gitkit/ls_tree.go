package main

import (
	"fmt"
	"io"

	gitkit "github.com/arkenfold/gitkit"
	"github.com/arkenfold/gitkit/ginternals"
	"github.com/arkenfold/gitkit/ginternals/object"
	"github.com/spf13/cobra"
	"golang.org/x/xerrors"
)

func newLsTreeCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ls-tree TREE-ISH",
		Short: "List the contents of a tree object",
		Args:  cobra.ExactArgs(1),
	}

	recursive := cmd.Flags().BoolP("r", "r", false, "Recurse into sub-trees.")
	dirsOnly := cmd.Flags().BoolP("d", "d", false, "Show only the tree entries of the given tree, not its blobs.")
	nameOnly := cmd.Flags().BoolP("name-only", "", false, "List only filenames, instead of the usual output.")
	showTrees := cmd.Flags().BoolP("t", "t", false, "Show tree entries even when going to recurse them.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		mode := gitkit.ModeDefault
		switch {
		case *nameOnly:
			mode = gitkit.ModeNameOnly
		case *dirsOnly:
			mode = gitkit.ModeDirsOnly
		case *recursive && *showTrees:
			mode = gitkit.ModeTreesWhenRecursing
		case *recursive:
			mode = gitkit.ModeRecursive
		}
		return lsTreeCmd(cmd.OutOrStdout(), cfg, args[0], mode)
	}

	return cmd
}

func lsTreeCmd(out io.Writer, cfg *globalFlags, treeish string, mode gitkit.LsTreeMode) error {
	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}

	oid, err := resolveOid(repo, treeish)
	if err != nil {
		return err
	}
	oid, err = resolveTreeOid(repo, oid)
	if err != nil {
		return err
	}

	entries, err := gitkit.LsTree(repo.Backend(), oid, mode)
	if err != nil {
		return err
	}

	for _, e := range entries {
		if mode == gitkit.ModeNameOnly {
			fmt.Fprintln(out, e.Name)
			continue
		}
		fmt.Fprintf(out, "%s %s %s\t%s\n", e.ModeString(), e.Kind(), e.Oid.String(), e.Name)
	}
	return nil
}

// resolveTreeOid dereferences a commit to its tree, so callers can pass
// a commit-ish (HEAD, a branch, a commit digest) wherever a tree-ish is
// expected.
func resolveTreeOid(repo *gitkit.Repository, oid ginternals.Oid) (ginternals.Oid, error) {
	o, err := repo.Backend().Object(oid)
	if err != nil {
		return ginternals.NullOid, err
	}
	switch o.Type() {
	case object.TypeTree:
		return oid, nil
	case object.TypeCommit:
		c, err := o.AsCommit()
		if err != nil {
			return ginternals.NullOid, err
		}
		return c.TreeID(), nil
	default:
		return ginternals.NullOid, xerrors.Errorf("%s is a %s, not a tree-ish", oid.String(), o.Type().String())
	}
}
