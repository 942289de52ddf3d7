package gitkit_test

import (
	"testing"

	gitkit "github.com/arkenfold/gitkit"
	"github.com/arkenfold/gitkit/ginternals/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixtureTree builds:
//
//	a.txt
//	dir/
//	  b.txt
//
// and returns the root tree along with the entries pointing at it.
func fixtureTree(t *testing.T, repo *gitkit.Repository) *object.Tree {
	t.Helper()

	aOid, err := repo.Backend().WriteObject(object.New(object.TypeBlob, []byte("A\n")))
	require.NoError(t, err)
	bOid, err := repo.Backend().WriteObject(object.New(object.TypeBlob, []byte("B\n")))
	require.NoError(t, err)

	inner := repo.NewTreeBuilder()
	require.NoError(t, inner.Insert("b.txt", bOid, object.ModeFile))
	innerTree, err := inner.Write()
	require.NoError(t, err)

	outer := repo.NewTreeBuilder()
	require.NoError(t, outer.Insert("a.txt", aOid, object.ModeFile))
	require.NoError(t, outer.Insert("dir", innerTree.ID(), object.ModeDirectory))
	outerTree, err := outer.Write()
	require.NoError(t, err)

	return outerTree
}

func TestLsTree(t *testing.T) {
	t.Parallel()

	t.Run("ModeDefault lists direct entries only", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		repo, err := gitkit.Init(dir, nil)
		require.NoError(t, err)
		root := fixtureTree(t, repo)

		entries, err := gitkit.LsTree(repo.Backend(), root.ID(), gitkit.ModeDefault)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		names := []string{entries[0].Name, entries[1].Name}
		assert.Contains(t, names, "a.txt")
		assert.Contains(t, names, "dir")
	})

	t.Run("ModeDirsOnly lists only tree entries", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		repo, err := gitkit.Init(dir, nil)
		require.NoError(t, err)
		root := fixtureTree(t, repo)

		entries, err := gitkit.LsTree(repo.Backend(), root.ID(), gitkit.ModeDirsOnly)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "dir", entries[0].Name)
		assert.Equal(t, "tree", entries[0].Kind())
	})

	t.Run("ModeRecursive descends into subtrees and lists only blobs", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		repo, err := gitkit.Init(dir, nil)
		require.NoError(t, err)
		root := fixtureTree(t, repo)

		entries, err := gitkit.LsTree(repo.Backend(), root.ID(), gitkit.ModeRecursive)
		require.NoError(t, err)
		require.Len(t, entries, 2)

		names := []string{entries[0].Name, entries[1].Name}
		assert.Contains(t, names, "a.txt")
		assert.Contains(t, names, "dir/b.txt")
		for _, e := range entries {
			assert.Equal(t, "blob", e.Kind())
		}
	})

	t.Run("ModeTreesWhenRecursing lists intermediate trees too", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		repo, err := gitkit.Init(dir, nil)
		require.NoError(t, err)
		root := fixtureTree(t, repo)

		entries, err := gitkit.LsTree(repo.Backend(), root.ID(), gitkit.ModeTreesWhenRecursing)
		require.NoError(t, err)
		require.Len(t, entries, 3)

		var sawDir bool
		for _, e := range entries {
			if e.Name == "dir" {
				sawDir = true
				assert.Equal(t, "tree", e.Kind())
			}
		}
		assert.True(t, sawDir)
	})

	t.Run("ModeString renders six zero-padded octal digits", func(t *testing.T) {
		t.Parallel()

		fileEntry := gitkit.LsTreeEntry{Mode: object.ModeFile}
		dirEntry := gitkit.LsTreeEntry{Mode: object.ModeDirectory}
		assert.Equal(t, "100644", fileEntry.ModeString())
		assert.Equal(t, "040000", dirEntry.ModeString())
	})
}
