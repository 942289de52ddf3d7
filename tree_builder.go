package gitkit

import (
	"path/filepath"
	"sort"

	"github.com/arkenfold/gitkit/backend"
	"github.com/arkenfold/gitkit/ginternals"
	"github.com/arkenfold/gitkit/ginternals/object"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// TreeBuilder incrementally builds a tree object from path/oid/mode
// insertions.
type TreeBuilder struct {
	Backend backend.Backend
	entries map[string]object.TreeEntry
}

// NewTreeBuilder returns a new, empty TreeBuilder backed by the
// repository's object store.
func (r *Repository) NewTreeBuilder() *TreeBuilder {
	return &TreeBuilder{Backend: r.dotGit}
}

// Insert adds or replaces the entry at path. The object it points to
// must already exist in the backend.
func (tb *TreeBuilder) Insert(path string, oid ginternals.Oid, mode object.TreeObjectMode) error {
	if !mode.IsValid() {
		return xerrors.Errorf("invalid mode %o", mode)
	}

	o, err := tb.Backend.Object(oid)
	if err != nil {
		return xerrors.Errorf("cannot verify object: %w", err)
	}
	if o.Type() != object.TypeBlob && o.Type() != object.TypeTree {
		return xerrors.Errorf("unexpected object %s: %w", o.Type().String(), object.ErrObjectInvalid)
	}

	if tb.entries == nil {
		tb.entries = map[string]object.TreeEntry{}
	}
	tb.entries[path] = object.TreeEntry{Mode: mode, Path: path, ID: oid}
	return nil
}

// sortKey is the bytewise sort key for a tree entry: the entry's name
// with a trailing "/" appended when it's a directory. This is the
// ordering the upstream tool uses, so "foo.txt" sorts before "foo/"
// even though plain byte comparison of "foo" against "foo.txt" would
// disagree.
func sortKey(e object.TreeEntry) string {
	if e.Mode == object.ModeDirectory {
		return e.Path + "/"
	}
	return e.Path
}

// Write sorts the builder's entries by sortKey, persists the
// resulting tree object, and returns it.
func (tb *TreeBuilder) Write() (*object.Tree, error) {
	entries := make([]object.TreeEntry, 0, len(tb.entries))
	for _, e := range tb.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		return sortKey(entries[i]) < sortKey(entries[j])
	})

	o := object.NewTree(entries).ToObject()
	if _, err := tb.Backend.WriteObject(o); err != nil {
		return nil, xerrors.Errorf("could not write the object to the odb: %w", err)
	}
	return o.AsTree()
}

// WriteTreeFromDir recursively snapshots dir, read through the
// repository's working-tree filesystem, into blob and tree objects,
// skipping any entry named ".git", and returns the digest of the
// resulting root tree. Children are written before their parent,
// since a tree's hash depends on the digests of its entries. A file
// with any execute bit set (owner, group or other) is recorded with
// mode 100755, every other file with 100644.
func (r *Repository) WriteTreeFromDir(dir string) (ginternals.Oid, error) {
	entries, err := afero.ReadDir(r.wt, dir)
	if err != nil {
		return ginternals.NullOid, xerrors.Errorf("could not list %s: %w", dir, err)
	}

	tb := r.NewTreeBuilder()
	for _, info := range entries {
		if info.Name() == ".git" {
			continue
		}

		childPath := filepath.Join(dir, info.Name())
		var (
			oid  ginternals.Oid
			mode object.TreeObjectMode
		)
		if info.IsDir() {
			oid, err = r.WriteTreeFromDir(childPath)
			if err != nil {
				return ginternals.NullOid, err
			}
			mode = object.ModeDirectory
		} else {
			content, readErr := afero.ReadFile(r.wt, childPath)
			if readErr != nil {
				return ginternals.NullOid, xerrors.Errorf("could not read %s: %w", childPath, readErr)
			}
			oid, err = r.dotGit.WriteObject(object.New(object.TypeBlob, content))
			if err != nil {
				return ginternals.NullOid, xerrors.Errorf("could not write blob for %s: %w", childPath, err)
			}
			mode = object.ModeFile
			if info.Mode()&0o111 != 0 {
				mode = object.ModeExecutable
			}
		}

		if err := tb.Insert(info.Name(), oid, mode); err != nil {
			return ginternals.NullOid, err
		}
	}

	tree, err := tb.Write()
	if err != nil {
		return ginternals.NullOid, err
	}
	return tree.ID(), nil
}
