package main

import (
	"fmt"
	"io"

	"github.com/arkenfold/gitkit/ginternals"
	"github.com/arkenfold/gitkit/ginternals/object"
	"github.com/spf13/cobra"
)

type parentFlags []string

func (p *parentFlags) String() string { return fmt.Sprint([]string(*p)) }
func (p *parentFlags) Type() string   { return "stringArray" }
func (p *parentFlags) Set(v string) error {
	*p = append(*p, v)
	return nil
}

func newCommitTreeCmd(cfg *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "commit-tree TREE",
		Short: "Create a new commit object from a tree",
		Args:  cobra.ExactArgs(1),
	}

	var parents parentFlags
	cmd.Flags().VarP(&parents, "parent", "p", "ID of a parent commit object.")
	message := cmd.Flags().StringP("message", "m", "", "A paragraph in the commit log message.")

	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return commitTreeCmd(cmd.OutOrStdout(), cfg, args[0], []string(parents), *message)
	}

	return cmd
}

func commitTreeCmd(out io.Writer, cfg *globalFlags, treeName string, parentNames []string, message string) error {
	repo, err := openRepository(cfg)
	if err != nil {
		return err
	}

	treeOid, err := ginternals.NewOidFromStr(treeName)
	if err != nil {
		return err
	}

	parents := make([]ginternals.Oid, 0, len(parentNames))
	for _, p := range parentNames {
		oid, err := ginternals.NewOidFromStr(p)
		if err != nil {
			return err
		}
		parents = append(parents, oid)
	}

	oid, err := repo.CommitTree(treeOid, parents, message, object.Signature{})
	if err != nil {
		return err
	}

	fmt.Fprintln(out, oid.String())
	return nil
}
