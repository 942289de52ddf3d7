package gitkit_test

import (
	"os"
	"path/filepath"
	"testing"

	gitkit "github.com/arkenfold/gitkit"
	"github.com/arkenfold/gitkit/ginternals"
	"github.com/arkenfold/gitkit/ginternals/object"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit(t *testing.T) {
	t.Parallel()

	t.Run("creates a HEAD symref pointing at the default branch", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		repo, err := gitkit.Init(dir, nil)
		require.NoError(t, err)
		require.NotNil(t, repo)

		data, err := os.ReadFile(filepath.Join(dir, ".git", "HEAD"))
		require.NoError(t, err)
		assert.Equal(t, "ref: refs/heads/main\n", string(data))
	})

	t.Run("fails if a repository already exists", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		_, err := gitkit.Init(dir, nil)
		require.NoError(t, err)

		_, err = gitkit.Init(dir, nil)
		require.Error(t, err)
	})

	t.Run("bare repository is rooted directly at the given path", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		repo, err := gitkit.Init(dir, &gitkit.InitOptions{IsBare: true})
		require.NoError(t, err)
		require.NotNil(t, repo)

		_, err = os.Stat(filepath.Join(dir, "HEAD"))
		require.NoError(t, err)

		_, err = repo.Backend().Object(ginternals.NullOid)
		require.Error(t, err)
	})

	t.Run("runs entirely in-memory when given a MemMapFs", func(t *testing.T) {
		t.Parallel()

		fs := afero.NewMemMapFs()
		repo, err := gitkit.Init("/repo", &gitkit.InitOptions{Fs: fs, WorkingTreeBackend: fs})
		require.NoError(t, err)
		assert.Same(t, fs, repo.WorkingTree())

		oid, err := repo.Backend().WriteObject(object.New(object.TypeBlob, []byte("hi\n")))
		require.NoError(t, err)

		_, err = fs.Stat(filepath.Join("/repo", ".git", "HEAD"))
		require.NoError(t, err, "object store must have written through the injected fs, not the OS filesystem")

		o, err := repo.Backend().Object(oid)
		require.NoError(t, err)
		assert.Equal(t, []byte("hi\n"), o.Bytes())
	})
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("opens a previously initialized repository", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		_, err := gitkit.Init(dir, nil)
		require.NoError(t, err)

		repo, err := gitkit.Open(dir, nil)
		require.NoError(t, err)
		assert.Equal(t, dir, repo.Root)
	})

	t.Run("fails when there's no repository at the given path", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		_, err := gitkit.Open(filepath.Join(dir, "nope"), nil)
		require.Error(t, err)
	})
}
