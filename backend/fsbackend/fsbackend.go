// Package fsbackend contains an implementation of the backend.Backend
// interface for the filesystem
package fsbackend

import (
	"path/filepath"
	"sync"

	"github.com/arkenfold/gitkit/backend"
	"github.com/arkenfold/gitkit/internal/gitpath"
	"github.com/spf13/afero"
	"golang.org/x/xerrors"
)

// we make sure the struct implements the interface
var _ backend.Backend = (*Backend)(nil)

// Backend is a Backend implementation that uses the filesystem to store data
type Backend struct {
	root string
	fs   afero.Fs

	// mu serializes the object methods (Object, HasObject, WriteObject,
	// WalkLooseObjectIDs); the reference methods don't take it.
	// A single mutex is enough here: the odb is content-addressed and
	// small enough that contention isn't a concern.
	mu sync.Mutex
}

// New returns a new Backend object rooted at dotGitPath (the `.git`
// directory, or the repository root for a bare repository), backed by
// the OS filesystem.
func New(dotGitPath string) *Backend {
	return NewWithFS(dotGitPath, afero.NewOsFs())
}

// NewWithFS returns a new Backend rooted at dotGitPath, backed by fs
// instead of the OS filesystem. This is what lets the odb run against
// an afero.NewMemMapFs in tests.
func NewWithFS(dotGitPath string, fs afero.Fs) *Backend {
	return &Backend{
		root: dotGitPath,
		fs:   fs,
	}
}

// Close frees the resources held by the backend
func (b *Backend) Close() error {
	return nil
}

// Init initializes a repository
func (b *Backend) Init() error {
	// Create the directories
	dirs := []string{
		gitpath.ObjectsPath,
		gitpath.RefsTagsPath,
		gitpath.RefsHeadsPath,
		gitpath.ObjectsInfoPath,
	}
	for _, d := range dirs {
		fullPath := b.path(d)
		if err := b.fs.MkdirAll(fullPath, 0o750); err != nil {
			return xerrors.Errorf("could not create directory %s: %w", d, err)
		}
	}

	// Create the files with the default content
	// (taken from a repo created on github)
	files := []struct {
		path    string
		content []byte
	}{
		{
			path:    gitpath.DescriptionPath,
			content: []byte("Unnamed repository; edit this file 'description' to name the repository.\n"),
		},
	}
	for _, f := range files {
		fullPath := b.path(f.path)
		if err := afero.WriteFile(b.fs, fullPath, f.content, 0o644); err != nil {
			return xerrors.Errorf("could not create file %s: %w", f.path, err)
		}
	}

	err := b.setDefaultCfg()
	if err != nil {
		return xerrors.Errorf("could not set the default config: %w", err)
	}

	return nil
}

// path returns p rooted under the backend's .git directory
func (b *Backend) path(p string) string {
	return filepath.Join(b.root, p)
}
