package gitkit

import (
	"context"
	"net/http"

	"github.com/arkenfold/gitkit/ginternals"
	"github.com/arkenfold/gitkit/ginternals/object"
	"github.com/arkenfold/gitkit/ginternals/packfile"
	"github.com/arkenfold/gitkit/internal/transport"
	"golang.org/x/xerrors"
)

// CloneOptions configures Clone. HTTPClient defaults to
// http.DefaultClient when nil.
type CloneOptions struct {
	HTTPClient *http.Client
}

// Clone initializes dir as a repository, fetches url's refs and pack
// over smart HTTP, decodes the pack into the object store, writes
// every discovered ref, and checks out HEAD's tree.
func Clone(ctx context.Context, url, dir string, opts *CloneOptions) (*Repository, error) {
	if opts == nil {
		opts = &CloneOptions{}
	}

	client := transport.NewClient(url, opts.HTTPClient)

	refs, err := client.Discover(ctx)
	if err != nil {
		return nil, xerrors.Errorf("discovering refs at %s: %w", url, err)
	}

	headOid, ok := refs[ginternals.Head]
	if !ok {
		return nil, xerrors.Errorf("remote %s did not advertise HEAD: %w", url, ginternals.ErrProtocol)
	}

	wants := make([]ginternals.Oid, 0, 1)
	seen := map[ginternals.Oid]bool{}
	for _, oid := range refs {
		if !seen[oid] {
			seen[oid] = true
			wants = append(wants, oid)
		}
	}

	packBytes, err := client.Fetch(ctx, wants)
	if err != nil {
		return nil, xerrors.Errorf("fetching pack from %s: %w", url, err)
	}

	repo, err := Init(dir, nil)
	if err != nil {
		return nil, xerrors.Errorf("initializing %s: %w", dir, err)
	}

	lookup := func(oid ginternals.Oid) (*object.Object, error) {
		return repo.dotGit.Object(oid)
	}

	objects, err := packfile.Decode(packBytes, lookup)
	if err != nil {
		return nil, xerrors.Errorf("decoding pack from %s: %w", url, err)
	}
	for _, o := range objects {
		// a freshly cloned repo never has any of these yet, but a thin
		// pack can reference a base the remote believes we already
		// have; skip the redundant write rather than relying solely on
		// WriteObject's own existence check.
		has, err := repo.dotGit.HasObject(o.ID())
		if err != nil {
			return nil, xerrors.Errorf("checking for object %s: %w", o.ID().String(), err)
		}
		if has {
			continue
		}
		if _, err := repo.dotGit.WriteObject(o); err != nil {
			return nil, xerrors.Errorf("storing object %s: %w", o.ID().String(), err)
		}
	}

	for name, oid := range refs {
		if name == ginternals.Head {
			// the core doesn't preserve symref-ness on clone: HEAD is
			// stored as the digest it resolves to, like every other ref
			continue
		}
		// a freshly Init'd repository never has refs/heads or refs/tags
		// entries yet, so WriteReferenceSafe turns a would-be silent
		// clobber into a loud bug report instead.
		if err := repo.dotGit.WriteReferenceSafe(ginternals.NewReference(name, oid)); err != nil {
			return nil, xerrors.Errorf("writing ref %s: %w", name, err)
		}
	}
	if err := repo.dotGit.WriteReference(ginternals.NewReference(ginternals.Head, headOid)); err != nil {
		return nil, xerrors.Errorf("writing HEAD: %w", err)
	}

	if err := Checkout(repo.dotGit, repo.wt, headOid, repo.Root); err != nil {
		return nil, xerrors.Errorf("checking out %s: %w", headOid.String(), err)
	}

	return repo, nil
}
