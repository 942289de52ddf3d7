package gitkit

import (
	"fmt"

	"github.com/arkenfold/gitkit/backend"
	"github.com/arkenfold/gitkit/ginternals"
	"github.com/arkenfold/gitkit/ginternals/object"
	"golang.org/x/xerrors"
)

// LsTreeMode selects which entries LsTree emits and whether it
// recurses into subtrees. Explicit dispatch on this tagged enum
// replaces reflective flag-name lookup.
type LsTreeMode int8

const (
	// ModeDefault lists the direct entries of the requested tree.
	ModeDefault LsTreeMode = iota
	// ModeNameOnly lists the names of the direct entries of the
	// requested tree.
	ModeNameOnly
	// ModeDirsOnly lists only the direct entries that are themselves
	// trees.
	ModeDirsOnly
	// ModeRecursive expands subtrees and lists only blob entries, at
	// any depth.
	ModeRecursive
	// ModeTreesWhenRecursing expands subtrees and lists every entry,
	// including the intermediate trees, at any depth.
	ModeTreesWhenRecursing
)

// LsTreeEntry is a single listed entry, with Name already carrying any
// parent-tree path prefix joined with "/".
type LsTreeEntry struct {
	Mode object.TreeObjectMode
	Name string
	Oid  ginternals.Oid
}

// Kind derives the entry's upstream kind ("tree" or "blob") from its
// mode.
func (e LsTreeEntry) Kind() string {
	return e.Mode.ObjectType().String()
}

// ModeString renders the entry's mode zero-padded to six octal
// digits, matching upstream ls-tree and this package's own cat-file
// tree formatting.
func (e LsTreeEntry) ModeString() string {
	return fmt.Sprintf("%06o", uint32(e.Mode))
}

// LsTree reads the tree at root and returns its entries according to
// mode, performing a depth-first walk that carries the path prefix
// explicitly instead of splicing a shared buffer.
func LsTree(b backend.Backend, root ginternals.Oid, mode LsTreeMode) ([]LsTreeEntry, error) {
	var out []LsTreeEntry
	if err := lsTreeWalk(b, root, "", mode, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func lsTreeWalk(b backend.Backend, id ginternals.Oid, prefix string, mode LsTreeMode, out *[]LsTreeEntry) error {
	o, err := b.Object(id)
	if err != nil {
		return xerrors.Errorf("could not read tree %s: %w", id.String(), err)
	}
	tree, err := o.AsTree()
	if err != nil {
		return xerrors.Errorf("object %s is not a tree: %w", id.String(), err)
	}

	for _, e := range tree.Entries() {
		name := e.Path
		if prefix != "" {
			name = prefix + "/" + e.Path
		}
		isDir := e.Mode == object.ModeDirectory
		entry := LsTreeEntry{Mode: e.Mode, Name: name, Oid: e.ID}

		switch mode {
		case ModeDefault, ModeNameOnly:
			*out = append(*out, entry)
		case ModeDirsOnly:
			if isDir {
				*out = append(*out, entry)
			}
		case ModeRecursive:
			if isDir {
				if err := lsTreeWalk(b, e.ID, name, mode, out); err != nil {
					return err
				}
			} else {
				*out = append(*out, entry)
			}
		case ModeTreesWhenRecursing:
			*out = append(*out, entry)
			if isDir {
				if err := lsTreeWalk(b, e.ID, name, mode, out); err != nil {
					return err
				}
			}
		default:
			return xerrors.Errorf("ls-tree mode %d: %w", mode, ginternals.ErrNotImplemented)
		}
	}

	return nil
}
