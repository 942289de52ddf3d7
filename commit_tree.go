package gitkit

import (
	"strings"

	"github.com/arkenfold/gitkit/ginternals"
	"github.com/arkenfold/gitkit/ginternals/object"
	"golang.org/x/xerrors"
)

// DefaultSignature is the placeholder author/committer identity used
// by CommitTree when the caller doesn't supply one; identity sourcing
// is an external concern this core doesn't specify.
var DefaultSignature = object.Signature{Name: "gitkit", Email: "gitkit@localhost"}

// CommitTree assembles and persists a commit object pointing at tree,
// with the given parents and message. The zero value of author
// selects DefaultSignature stamped with the current time.
func (r *Repository) CommitTree(tree ginternals.Oid, parents []ginternals.Oid, message string, author object.Signature) (ginternals.Oid, error) {
	if author.IsZero() {
		author = object.NewSignature(DefaultSignature.Name, DefaultSignature.Email)
	}
	if !strings.HasSuffix(message, "\n") {
		message += "\n"
	}

	c := object.NewCommit(tree, author, &object.CommitOptions{
		Message:   message,
		ParentsID: parents,
	})

	oid, err := r.dotGit.WriteObject(c.ToObject())
	if err != nil {
		return ginternals.NullOid, xerrors.Errorf("could not write commit: %w", err)
	}
	return oid, nil
}
