// Package gitkit implements a minimal, content-addressed,
// wire-compatible version-control object store: object persistence,
// tree/commit construction, and cloning a remote over smart HTTP.
package gitkit

import (
	"path/filepath"

	"github.com/arkenfold/gitkit/backend"
	"github.com/arkenfold/gitkit/backend/fsbackend"
	"github.com/arkenfold/gitkit/ginternals"
	"github.com/arkenfold/gitkit/internal/gitpath"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// DefaultBranch is the branch HEAD points to in a freshly initialized
// repository.
const DefaultBranch = "main"

// ErrRepositoryExists is returned by Init when a repository already
// exists at the target path.
var ErrRepositoryExists = xerrors.New("repository already exists")

// Repository ties together the object/ref backend and the working
// tree a checkout materializes onto.
type Repository struct {
	// Root is the working tree root (the parent of .git, or the repo
	// root itself for a bare repository).
	Root string

	dotGit backend.Backend
	wt     afero.Fs
}

// InitOptions configures Init.
type InitOptions struct {
	// IsBare skips creating a working tree; the backend is rooted at
	// Root directly instead of Root/.git.
	IsBare bool
	// Fs backs the object/ref store. Defaults to the OS filesystem;
	// set to an afero.NewMemMapFs() for a hermetic, in-memory odb.
	Fs afero.Fs
	// WorkingTreeBackend is the filesystem checkout and
	// WriteTreeFromDir read and write the working tree through.
	// Defaults to the OS filesystem. Unused when IsBare is set.
	WorkingTreeBackend afero.Fs
}

// Init creates a new repository at root: a .git skeleton (or, for a
// bare repository, the skeleton directly under root) plus a HEAD
// symref pointing at refs/heads/<DefaultBranch>.
func Init(root string, opts *InitOptions) (*Repository, error) {
	if opts == nil {
		opts = &InitOptions{}
	}
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	wt := opts.WorkingTreeBackend
	if wt == nil {
		wt = afero.NewOsFs()
	}

	gitDir := filepath.Join(root, ".git")
	if opts.IsBare {
		gitDir = root
	}

	if _, err := fs.Stat(filepath.Join(gitDir, gitpath.HEADPath)); err == nil {
		return nil, xerrors.Errorf("repository at %s: %w", root, ErrRepositoryExists)
	}

	dotGit := fsbackend.NewWithFS(gitDir, fs)
	if err := dotGit.Init(); err != nil {
		return nil, xerrors.Errorf("could not initialize repository at %s: %w", gitDir, err)
	}

	head := ginternals.NewSymbolicReference(ginternals.Head, ginternals.LocalBranchFullName(DefaultBranch))
	if err := dotGit.WriteReference(head); err != nil {
		return nil, xerrors.Errorf("could not write HEAD: %w", err)
	}

	return &Repository{
		Root:   root,
		dotGit: dotGit,
		wt:     wt,
	}, nil
}

// OpenOptions configures Open.
type OpenOptions struct {
	// IsBare indicates the repository has no working tree and root is
	// the .git directory itself.
	IsBare bool
	// Fs backs the object/ref store. Defaults to the OS filesystem;
	// must match whatever Fs the repository was Init'd with.
	Fs afero.Fs
	// WorkingTreeBackend is the filesystem checkout and
	// WriteTreeFromDir read and write the working tree through.
	// Defaults to the OS filesystem. Unused when IsBare is set.
	WorkingTreeBackend afero.Fs
}

// Open returns a Repository rooted at an already-initialized root.
func Open(root string, opts *OpenOptions) (*Repository, error) {
	if opts == nil {
		opts = &OpenOptions{}
	}
	fs := opts.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}
	wt := opts.WorkingTreeBackend
	if wt == nil {
		wt = afero.NewOsFs()
	}

	gitDir := filepath.Join(root, ".git")
	if opts.IsBare {
		gitDir = root
	}

	if _, err := fs.Stat(filepath.Join(gitDir, gitpath.HEADPath)); err != nil {
		return nil, xerrors.Errorf("could not open repository at %s: %w", root, err)
	}

	dotGit := fsbackend.NewWithFS(gitDir, fs)

	return &Repository{
		Root:   root,
		dotGit: dotGit,
		wt:     wt,
	}, nil
}

// Backend returns the object/ref store backing the repository.
func (r *Repository) Backend() backend.Backend {
	return r.dotGit
}

// WorkingTree returns the filesystem the repository's working tree is
// materialized onto.
func (r *Repository) WorkingTree() afero.Fs {
	return r.wt
}
