package fsbackend

import (
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/arkenfold/gitkit/backend"
	"github.com/arkenfold/gitkit/ginternals"
	"github.com/arkenfold/gitkit/ginternals/object"
	"github.com/arkenfold/gitkit/internal/gitpath"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/xerrors"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	dir := t.TempDir()
	b := New(filepath.Join(dir, gitpath.DotGitPath))
	require.NoError(t, b.Init())
	return b
}

func TestObjectOnMemMapFs(t *testing.T) {
	t.Parallel()

	b := NewWithFS(gitpath.DotGitPath, afero.NewMemMapFs())
	require.NoError(t, b.Init())

	o := object.New(object.TypeBlob, []byte("hermetic"))
	oid, err := b.WriteObject(o)
	require.NoError(t, err)

	stored, err := b.Object(oid)
	require.NoError(t, err)
	assert.Equal(t, []byte("hermetic"), stored.Bytes())
}

func TestObject(t *testing.T) {
	t.Parallel()

	t.Run("existing loose object should be returned", func(t *testing.T) {
		t.Parallel()

		b := newTestBackend(t)
		content := []byte("hello, object store")
		o := object.New(object.TypeBlob, content)
		_, err := b.WriteObject(o)
		require.NoError(t, err)

		obj, err := b.Object(o.ID())
		require.NoError(t, err)
		require.NotNil(t, obj)

		assert.Equal(t, o.ID(), obj.ID())
		assert.Equal(t, object.TypeBlob, obj.Type())
		assert.Equal(t, content, obj.Bytes())
	})

	t.Run("un-existing object should fail", func(t *testing.T) {
		t.Parallel()

		b := newTestBackend(t)

		oid, err := ginternals.NewOidFromStr("2dcdadc2a420225783794fbffd51e2e137a69646")
		require.NoError(t, err)

		obj, err := b.Object(oid)
		require.Error(t, err)
		require.Nil(t, obj)
		require.True(t, xerrors.Is(err, ginternals.ErrObjectNotFound), "unexpected error received")
	})
}

func TestHasObject(t *testing.T) {
	t.Parallel()

	t.Run("existing object should exist", func(t *testing.T) {
		t.Parallel()

		b := newTestBackend(t)
		o := object.New(object.TypeBlob, []byte("exists"))
		_, err := b.WriteObject(o)
		require.NoError(t, err)

		exists, err := b.HasObject(o.ID())
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("non-existing object should not exist", func(t *testing.T) {
		t.Parallel()

		b := newTestBackend(t)

		fakeOid, err := ginternals.NewOidFromStr("2dcdadc2a420225783794fbffd51e2e137a69646")
		require.NoError(t, err)

		exists, err := b.HasObject(fakeOid)
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestWriteObject(t *testing.T) {
	t.Parallel()

	t.Run("add a new blob", func(t *testing.T) {
		t.Parallel()

		b := newTestBackend(t)
		o := object.New(object.TypeBlob, []byte("data"))
		oid, err := b.WriteObject(o)
		require.NoError(t, err)
		assert.NotEqual(t, ginternals.NullOid, oid, "invalid oid returned")

		// assert it's on disk
		storedO, err := b.Object(oid)
		require.NoError(t, err)
		assert.Equal(t, o.Type(), storedO.Type(), "invalid type")
		assert.Equal(t, o.Size(), storedO.Size(), "invalid size")
		assert.Equal(t, o.Bytes(), storedO.Bytes(), "invalid content")
		assert.NotEqual(t, ginternals.NullOid, storedO.ID(), "invalid ID")

		// make sure the blob was persisted read-only
		p := filepath.Join(b.root, gitpath.ObjectsPath, storedO.ID().String()[0:2], storedO.ID().String()[2:])
		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o444), info.Mode(), "objects should be read only")
	})

	t.Run("writing the same object twice should not trigger a rewrite", func(t *testing.T) {
		t.Parallel()

		b := newTestBackend(t)
		o := object.New(object.TypeBlob, []byte("data"))
		oid, err := b.WriteObject(o)
		require.NoError(t, err)

		p := filepath.Join(b.root, gitpath.ObjectsPath, oid.String()[0:2], oid.String()[2:])
		originalInfo, err := os.Stat(p)
		require.NoError(t, err)

		time.Sleep(10 * time.Millisecond)
		_, err = b.WriteObject(o)
		require.NoError(t, err)

		info, err := os.Stat(p)
		require.NoError(t, err)
		assert.Equal(t, originalInfo.ModTime(), info.ModTime())
	})
}

func TestWalkLooseObjectIDs(t *testing.T) {
	t.Parallel()

	t.Run("visits every stored object exactly once", func(t *testing.T) {
		t.Parallel()

		b := newTestBackend(t)
		var want []ginternals.Oid
		for _, content := range []string{"one", "two", "three"} {
			oid, err := b.WriteObject(object.New(object.TypeBlob, []byte(content)))
			require.NoError(t, err)
			want = append(want, oid)
		}

		var got []ginternals.Oid
		err := b.WalkLooseObjectIDs(func(oid ginternals.Oid) error {
			got = append(got, oid)
			return nil
		})
		require.NoError(t, err)

		sort.Slice(want, func(i, j int) bool { return want[i].String() < want[j].String() })
		sort.Slice(got, func(i, j int) bool { return got[i].String() < got[j].String() })
		assert.Equal(t, want, got)
	})

	t.Run("stops early when the callback returns OidWalkStop", func(t *testing.T) {
		t.Parallel()

		b := newTestBackend(t)
		for _, content := range []string{"one", "two", "three"} {
			_, err := b.WriteObject(object.New(object.TypeBlob, []byte(content)))
			require.NoError(t, err)
		}

		visited := 0
		err := b.WalkLooseObjectIDs(func(oid ginternals.Oid) error {
			visited++
			return backend.OidWalkStop
		})
		require.NoError(t, err)
		assert.Equal(t, 1, visited)
	})

	t.Run("empty odb is not an error", func(t *testing.T) {
		t.Parallel()

		b := newTestBackend(t)
		var visited int
		err := b.WalkLooseObjectIDs(func(oid ginternals.Oid) error {
			visited++
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 0, visited)
	})
}
