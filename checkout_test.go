package gitkit_test

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	gitkit "github.com/arkenfold/gitkit"
	"github.com/arkenfold/gitkit/ginternals/object"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckout(t *testing.T) {
	t.Parallel()

	t.Run("materializes files, subdirectories and symlinks with correct permissions", func(t *testing.T) {
		t.Parallel()
		if runtime.GOOS == "windows" {
			t.Skip("symlink creation requires elevated privileges on windows")
		}

		dir := t.TempDir()
		repo, err := gitkit.Init(dir, nil)
		require.NoError(t, err)

		regularOid, err := repo.Backend().WriteObject(object.New(object.TypeBlob, []byte("hello\n")))
		require.NoError(t, err)
		execOid, err := repo.Backend().WriteObject(object.New(object.TypeBlob, []byte("#!/bin/sh\n")))
		require.NoError(t, err)
		linkOid, err := repo.Backend().WriteObject(object.New(object.TypeBlob, []byte("regular.txt")))
		require.NoError(t, err)

		sub := repo.NewTreeBuilder()
		require.NoError(t, sub.Insert("nested.txt", regularOid, object.ModeFile))
		subTree, err := sub.Write()
		require.NoError(t, err)

		root := repo.NewTreeBuilder()
		require.NoError(t, root.Insert("regular.txt", regularOid, object.ModeFile))
		require.NoError(t, root.Insert("run.sh", execOid, object.ModeExecutable))
		require.NoError(t, root.Insert("link.txt", linkOid, object.ModeSymLink))
		require.NoError(t, root.Insert("sub", subTree.ID(), object.ModeDirectory))
		rootTree, err := root.Write()
		require.NoError(t, err)

		author := object.NewSignature("A", "a@example.com")
		commitOid, err := repo.CommitTree(rootTree.ID(), nil, "initial\n", author)
		require.NoError(t, err)

		dest := filepath.Join(t.TempDir(), "checkout")
		require.NoError(t, gitkit.Checkout(repo.Backend(), repo.WorkingTree(), commitOid, dest))

		data, err := os.ReadFile(filepath.Join(dest, "regular.txt"))
		require.NoError(t, err)
		assert.Equal(t, "hello\n", string(data))

		info, err := os.Stat(filepath.Join(dest, "run.sh"))
		require.NoError(t, err)
		assert.NotZero(t, info.Mode()&0o111)

		target, err := os.Readlink(filepath.Join(dest, "link.txt"))
		require.NoError(t, err)
		assert.Equal(t, "regular.txt", target)

		nested, err := os.ReadFile(filepath.Join(dest, "sub", "nested.txt"))
		require.NoError(t, err)
		assert.Equal(t, "hello\n", string(nested))
	})

	t.Run("fails when the root object is not a commit", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		repo, err := gitkit.Init(dir, nil)
		require.NoError(t, err)

		blobOid, err := repo.Backend().WriteObject(object.New(object.TypeBlob, []byte("x")))
		require.NoError(t, err)

		err = gitkit.Checkout(repo.Backend(), repo.WorkingTree(), blobOid, t.TempDir())
		require.Error(t, err)
	})

	t.Run("materializes onto an in-memory filesystem", func(t *testing.T) {
		t.Parallel()

		fs := afero.NewMemMapFs()
		repo, err := gitkit.Init("/repo", &gitkit.InitOptions{Fs: fs, WorkingTreeBackend: fs})
		require.NoError(t, err)

		blobOid, err := repo.Backend().WriteObject(object.New(object.TypeBlob, []byte("hi\n")))
		require.NoError(t, err)

		tb := repo.NewTreeBuilder()
		require.NoError(t, tb.Insert("hi.txt", blobOid, object.ModeFile))
		tree, err := tb.Write()
		require.NoError(t, err)

		author := object.NewSignature("A", "a@example.com")
		commitOid, err := repo.CommitTree(tree.ID(), nil, "initial\n", author)
		require.NoError(t, err)

		require.NoError(t, gitkit.Checkout(repo.Backend(), repo.WorkingTree(), commitOid, "/repo"))

		data, err := afero.ReadFile(fs, filepath.Join("/repo", "hi.txt"))
		require.NoError(t, err)
		assert.Equal(t, "hi\n", string(data))
	})
}
