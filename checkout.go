package gitkit

import (
	"os"
	"path/filepath"

	"github.com/arkenfold/gitkit/backend"
	"github.com/arkenfold/gitkit/ginternals"
	"github.com/arkenfold/gitkit/ginternals/object"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// symlinker is implemented by afero filesystems that support creating
// symbolic links, such as afero.OsFs. afero.NewMemMapFs does not.
type symlinker interface {
	SymlinkIfPossible(oldname, newname string) error
}

// Checkout materializes the tree reachable from commit onto dest on
// wt, recursing into subdirectories and preserving the executable bit.
func Checkout(b backend.Backend, wt afero.Fs, commit ginternals.Oid, dest string) error {
	o, err := b.Object(commit)
	if err != nil {
		return xerrors.Errorf("could not read commit %s: %w", commit.String(), err)
	}
	if o.Type() == object.TypeTag {
		return xerrors.Errorf("checking out tag %s: %w", commit.String(), ginternals.ErrNotImplemented)
	}
	c, err := o.AsCommit()
	if err != nil {
		return xerrors.Errorf("object %s is not a commit: %w", commit.String(), err)
	}

	return checkoutTree(b, wt, c.TreeID(), dest)
}

func checkoutTree(b backend.Backend, wt afero.Fs, treeID ginternals.Oid, dest string) error {
	o, err := b.Object(treeID)
	if err != nil {
		return xerrors.Errorf("could not read tree %s: %w", treeID.String(), err)
	}
	tree, err := o.AsTree()
	if err != nil {
		return xerrors.Errorf("object %s is not a tree: %w", treeID.String(), err)
	}

	if err := wt.MkdirAll(dest, 0o755); err != nil {
		return xerrors.Errorf("could not create %s: %w", dest, err)
	}

	for _, e := range tree.Entries() {
		path := filepath.Join(dest, e.Path)

		switch e.Mode {
		case object.ModeDirectory:
			if err := checkoutTree(b, wt, e.ID, path); err != nil {
				return err
			}

		case object.ModeFile, object.ModeExecutable:
			blob, err := b.Object(e.ID)
			if err != nil {
				return xerrors.Errorf("could not read blob %s: %w", e.ID.String(), err)
			}
			perm := os.FileMode(0o644)
			if e.Mode == object.ModeExecutable {
				perm = 0o755
			}
			if err := afero.WriteFile(wt, path, blob.Bytes(), perm); err != nil {
				return xerrors.Errorf("could not write %s: %w", path, err)
			}

		case object.ModeSymLink:
			blob, err := b.Object(e.ID)
			if err != nil {
				return xerrors.Errorf("could not read symlink target %s: %w", e.ID.String(), err)
			}
			sl, ok := wt.(symlinker)
			if !ok {
				return xerrors.Errorf("filesystem does not support symlinks, checking out %s: %w", path, ginternals.ErrNotImplemented)
			}
			if err := sl.SymlinkIfPossible(string(blob.Bytes()), path); err != nil {
				return xerrors.Errorf("could not create symlink %s: %w", path, err)
			}

		default:
			return xerrors.Errorf("tree entry %s has mode %o: %w", e.Path, e.Mode, ginternals.ErrNotImplemented)
		}
	}

	return nil
}
