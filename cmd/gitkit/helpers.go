package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	gitkit "github.com/arkenfold/gitkit"
	"github.com/arkenfold/gitkit/ginternals"
)

// workingDir returns cfg.C if set, otherwise the process's current
// working directory.
func workingDir(cfg *globalFlags) (string, error) {
	if cfg.C != "" {
		return cfg.C, nil
	}
	return os.Getwd()
}

func openRepository(cfg *globalFlags) (*gitkit.Repository, error) {
	dir, err := workingDir(cfg)
	if err != nil {
		return nil, err
	}
	return gitkit.Open(dir, nil)
}

// resolveOid resolves name to an object id: first as a literal hex
// digest, then as HEAD or a fully/partially-qualified ref name.
func resolveOid(repo *gitkit.Repository, name string) (ginternals.Oid, error) {
	oid, err := ginternals.NewOidFromStr(name)
	if err == nil {
		return oid, nil
	}

	candidates := []string{
		name,
		ginternals.RefFullName(name),
		ginternals.LocalBranchFullName(name),
		ginternals.LocalTagFullName(name),
	}
	for _, refName := range candidates {
		ref, refErr := repo.Backend().Reference(refName)
		if refErr == nil {
			return ref.Target(), nil
		}
		if !errors.Is(refErr, ginternals.ErrRefNotFound) {
			return ginternals.NullOid, refErr
		}
	}

	return ginternals.NullOid, errors.New("not a valid object name " + name)
}

func fprintln(quiet bool, out io.Writer, a ...interface{}) {
	if !quiet {
		fmt.Fprintln(out, a...)
	}
}
