package packfile_test

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"testing"

	"github.com/arkenfold/gitkit/ginternals"
	"github.com/arkenfold/gitkit/ginternals/object"
	"github.com/arkenfold/gitkit/ginternals/packfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// encodeTypeSize builds the variable-length type+size header for a pack
// entry the same way a real packfile does.
func encodeTypeSize(typ object.Type, size uint64) []byte {
	first := byte(typ)<<4 | byte(size&0x0F)
	rest := size >> 4
	out := []byte{first}
	for rest > 0 {
		out[len(out)-1] |= 0b_1000_0000
		out = append(out, byte(rest&0x7F))
		rest >>= 7
	}
	return out
}

func deflate(t *testing.T, data []byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	w := zlib.NewWriter(&buf)
	_, err := w.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return buf.Bytes()
}

func packHeader(count uint32) []byte {
	h := make([]byte, 12)
	copy(h[0:4], "PACK")
	binary.BigEndian.PutUint32(h[4:8], 2)
	binary.BigEndian.PutUint32(h[8:12], count)
	return h
}

func TestDecode(t *testing.T) {
	t.Parallel()

	t.Run("single blob", func(t *testing.T) {
		t.Parallel()

		content := []byte("hello, packfile")
		var pack bytes.Buffer
		pack.Write(packHeader(1))
		pack.Write(encodeTypeSize(object.TypeBlob, uint64(len(content))))
		pack.Write(deflate(t, content))

		objs, err := packfile.Decode(pack.Bytes(), nil)
		require.NoError(t, err)
		require.Len(t, objs, 1)
		assert.Equal(t, object.TypeBlob, objs[0].Type())
		assert.Equal(t, content, objs[0].Bytes())
		assert.Equal(t, object.New(object.TypeBlob, content).ID(), objs[0].ID())
	})

	t.Run("multiple objects of different types", func(t *testing.T) {
		t.Parallel()

		blobContent := []byte("some blob data")
		treeContent := []byte("") // opaque to the decoder, no need for a valid tree here

		var pack bytes.Buffer
		pack.Write(packHeader(2))
		pack.Write(encodeTypeSize(object.TypeBlob, uint64(len(blobContent))))
		pack.Write(deflate(t, blobContent))
		pack.Write(encodeTypeSize(object.TypeTree, uint64(len(treeContent))))
		pack.Write(deflate(t, treeContent))

		objs, err := packfile.Decode(pack.Bytes(), nil)
		require.NoError(t, err)
		require.Len(t, objs, 2)
		assert.Equal(t, object.TypeBlob, objs[0].Type())
		assert.Equal(t, object.TypeTree, objs[1].Type())
	})

	t.Run("ref-delta resolved against an earlier object in the same pack", func(t *testing.T) {
		t.Parallel()

		base := []byte("hello world")
		// COPY the whole base (offset 0, size 11) then INSERT " extra"
		deltaInstructions := []byte{0x90, 0x0B, 0x06, ' ', 'e', 'x', 't', 'r', 'a'}
		delta := append([]byte{byte(len(base)), byte(len(base) + 6)}, deltaInstructions...)

		baseOid := object.New(object.TypeBlob, base).ID()

		var pack bytes.Buffer
		pack.Write(packHeader(2))
		pack.Write(encodeTypeSize(object.TypeBlob, uint64(len(base))))
		pack.Write(deflate(t, base))
		pack.Write(encodeTypeSize(object.ObjectDeltaRef, uint64(len(delta))))
		pack.Write(baseOid[:])
		pack.Write(deflate(t, delta))

		objs, err := packfile.Decode(pack.Bytes(), nil)
		require.NoError(t, err)
		require.Len(t, objs, 2)
		assert.Equal(t, object.TypeBlob, objs[1].Type())
		assert.Equal(t, "hello world extra", string(objs[1].Bytes()))
	})

	t.Run("ref-delta arriving before its base resolves on a later pass", func(t *testing.T) {
		t.Parallel()

		base := []byte("hello world")
		deltaInstructions := []byte{0x90, 0x0B, 0x06, ' ', 'e', 'x', 't', 'r', 'a'}
		delta := append([]byte{byte(len(base)), byte(len(base) + 6)}, deltaInstructions...)
		baseOid := object.New(object.TypeBlob, base).ID()

		var pack bytes.Buffer
		pack.Write(packHeader(2))
		// delta first, base second: out of the usual order
		pack.Write(encodeTypeSize(object.ObjectDeltaRef, uint64(len(delta))))
		pack.Write(baseOid[:])
		pack.Write(deflate(t, delta))
		pack.Write(encodeTypeSize(object.TypeBlob, uint64(len(base))))
		pack.Write(deflate(t, base))

		objs, err := packfile.Decode(pack.Bytes(), nil)
		require.NoError(t, err)
		require.Len(t, objs, 2)
		assert.Equal(t, "hello world extra", string(objs[0].Bytes()))
		assert.Equal(t, "hello world", string(objs[1].Bytes()))
	})

	t.Run("ref-delta base resolved via the lookup callback", func(t *testing.T) {
		t.Parallel()

		base := object.New(object.TypeBlob, []byte("hello world"))
		deltaInstructions := []byte{0x90, 0x0B, 0x06, ' ', 'e', 'x', 't', 'r', 'a'}
		delta := append([]byte{byte(base.Size()), byte(base.Size() + 6)}, deltaInstructions...)
		baseOid := base.ID()

		var pack bytes.Buffer
		pack.Write(packHeader(1))
		pack.Write(encodeTypeSize(object.ObjectDeltaRef, uint64(len(delta))))
		pack.Write(baseOid[:])
		pack.Write(deflate(t, delta))

		lookup := func(oid ginternals.Oid) (*object.Object, error) {
			if oid == baseOid {
				return base, nil
			}
			return nil, ginternals.ErrObjectNotFound
		}

		objs, err := packfile.Decode(pack.Bytes(), lookup)
		require.NoError(t, err)
		require.Len(t, objs, 1)
		assert.Equal(t, "hello world extra", string(objs[0].Bytes()))
	})

	t.Run("ref-delta with no resolvable base fails", func(t *testing.T) {
		t.Parallel()

		delta := []byte{0x0B, 0x11, 0x90, 0x0B, 0x06, ' ', 'e', 'x', 't', 'r', 'a'}
		unknownOid := ginternals.NewOidFromContent([]byte("does not exist"))

		var pack bytes.Buffer
		pack.Write(packHeader(1))
		pack.Write(encodeTypeSize(object.ObjectDeltaRef, uint64(len(delta))))
		pack.Write(unknownOid[:])
		pack.Write(deflate(t, delta))

		_, err := packfile.Decode(pack.Bytes(), nil)
		require.Error(t, err)
	})

	t.Run("invalid magic fails", func(t *testing.T) {
		t.Parallel()

		data := packHeader(0)
		data[0] = 'X'
		_, err := packfile.Decode(data, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, packfile.ErrInvalidMagic)
	})

	t.Run("invalid version fails", func(t *testing.T) {
		t.Parallel()

		data := packHeader(0)
		data[7] = 9
		_, err := packfile.Decode(data, nil)
		require.Error(t, err)
		assert.ErrorIs(t, err, packfile.ErrInvalidVersion)
	})
}
