// Package packfile decodes git packfiles: the format used to transfer
// and store a dense set of objects, some of which are stored as deltas
// against another object in the same pack.
package packfile

import (
	"bytes"
	"compress/zlib"
	"encoding/binary"
	"errors"
	"io"

	"github.com/arkenfold/gitkit/ginternals"
	"github.com/arkenfold/gitkit/ginternals/object"
	"golang.org/x/xerrors"
)

const (
	// packfileHeaderSize is the size of a packfile header: 4 bytes of
	// magic, 4 bytes of version, 4 bytes of object count
	packfileHeaderSize = 12
)

func packfileMagic() []byte {
	return []byte{'P', 'A', 'C', 'K'}
}

func packfileVersion() []byte {
	return []byte{0, 0, 0, 2}
}

var (
	// ErrIntOverflow is an error thrown when a variable-length integer
	// couldn't fit in a uint64, or ended before its last byte
	ErrIntOverflow = errors.New("int64 overflow")
	// ErrInvalidMagic is an error thrown when a packfile doesn't start
	// with the expected magic
	ErrInvalidMagic = errors.New("invalid magic")
	// ErrInvalidVersion is an error thrown when a packfile has an
	// unsupported version
	ErrInvalidVersion = errors.New("invalid version")
	// ErrNotImplemented is returned for pack features that are
	// recognized but not (yet) handled
	ErrNotImplemented = errors.New("not implemented")
)

// ObjectLookup resolves an already-stored object by its oid. It's used
// to resolve the base of a ref-delta that isn't itself contained in the
// pack being decoded (thin packs).
type ObjectLookup func(oid ginternals.Oid) (*object.Object, error)

// entry is a single pack record before delta resolution
type entry struct {
	offset  uint64
	typ     object.Type
	size    uint64 // expected size, only meaningful for non-delta types
	payload []byte // object content for non-delta types, delta stream otherwise
	baseOid ginternals.Oid // set for ObjectDeltaRef
	baseOfs uint64         // set for ObjectDeltaOFS, absolute offset of the base in the pack
}

// Decode parses an entire packfile held in memory and returns the
// objects it contains, in the order they appear in the pack, with every
// delta fully resolved against its base.
//
// Ref-deltas are expected to follow their base in the stream, as emitted
// by a well-behaved server, but this isn't required: any ref-delta whose
// base hasn't been seen yet is retried in subsequent passes until no
// more progress can be made, at which point decoding fails. lookup may
// be nil; when provided, it's consulted for bases that aren't present
// in the pack itself.
func Decode(data []byte, lookup ObjectLookup) ([]*object.Object, error) {
	if len(data) < packfileHeaderSize {
		return nil, xerrors.Errorf("packfile is too small to contain a header: %w", ErrInvalidMagic)
	}
	if !bytes.Equal(data[0:4], packfileMagic()) {
		return nil, xerrors.Errorf("invalid header: %w", ErrInvalidMagic)
	}
	if !bytes.Equal(data[4:8], packfileVersion()) {
		return nil, xerrors.Errorf("invalid header: %w", ErrInvalidVersion)
	}
	count := binary.BigEndian.Uint32(data[8:12])

	r := bytes.NewReader(data)
	if _, err := r.Seek(packfileHeaderSize, io.SeekStart); err != nil {
		return nil, xerrors.Errorf("could not seek past the header: %w", err)
	}

	entries := make([]entry, 0, count)
	byOffset := make(map[uint64]*object.Object, count)

	for i := uint32(0); i < count; i++ {
		offset, err := r.Seek(0, io.SeekCurrent)
		if err != nil {
			return nil, xerrors.Errorf("could not get the current offset: %w", err)
		}

		e, err := decodeEntry(r, uint64(offset))
		if err != nil {
			return nil, xerrors.Errorf("could not decode entry %d at offset %d: %w", i, offset, err)
		}
		entries = append(entries, e)

		if e.typ != object.ObjectDeltaRef && e.typ != object.ObjectDeltaOFS {
			o := object.New(e.typ, e.payload)
			if uint64(o.Size()) != e.size {
				return nil, xerrors.Errorf("object at offset %d: expected size %d, got %d", offset, e.size, o.Size())
			}
			byOffset[e.offset] = o
		}
	}

	if err := resolveDeltas(entries, byOffset, lookup); err != nil {
		return nil, err
	}

	out := make([]*object.Object, len(entries))
	for i, e := range entries {
		o, ok := byOffset[e.offset]
		if !ok {
			return nil, xerrors.Errorf("internal error: entry at offset %d was never resolved", e.offset)
		}
		out[i] = o
	}
	return out, nil
}

// resolveDeltas resolves every ofs-delta and ref-delta entry, populating
// byOffset with the resulting object. ofs-deltas always reference an
// earlier offset in the pack so a single ordered pass resolves them.
// ref-deltas reference a base by oid, which may not have been decoded
// yet; unresolved ones are retried until a full pass makes no progress.
func resolveDeltas(entries []entry, byOffset map[uint64]*object.Object, lookup ObjectLookup) error {
	byOid := make(map[ginternals.Oid]*object.Object, len(byOffset))
	for _, o := range byOffset {
		byOid[o.ID()] = o
	}

	var pending []entry
	for _, e := range entries {
		switch e.typ {
		case object.ObjectDeltaOFS:
			base, ok := byOffset[e.baseOfs]
			if !ok {
				return xerrors.Errorf("ofs-delta at offset %d references unknown base offset %d", e.offset, e.baseOfs)
			}
			o, err := resolveDelta(e, base)
			if err != nil {
				return err
			}
			byOffset[e.offset] = o
			byOid[o.ID()] = o
		case object.ObjectDeltaRef:
			pending = append(pending, e)
		}
	}

	for len(pending) > 0 {
		var next []entry
		progressed := false
		for _, e := range pending {
			base, ok := byOid[e.baseOid]
			if !ok && lookup != nil {
				if b, err := lookup(e.baseOid); err == nil {
					base, ok = b, true
				}
			}
			if !ok {
				next = append(next, e)
				continue
			}
			o, err := resolveDelta(e, base)
			if err != nil {
				return err
			}
			byOffset[e.offset] = o
			byOid[o.ID()] = o
			progressed = true
		}
		if !progressed {
			return xerrors.Errorf("could not resolve %d ref-delta object(s): base never found", len(next))
		}
		pending = next
	}

	return nil
}

func resolveDelta(e entry, base *object.Object) (*object.Object, error) {
	result, err := applyDelta(base.Bytes(), e.payload)
	if err != nil {
		return nil, xerrors.Errorf("could not apply delta at offset %d: %w", e.offset, err)
	}
	return object.New(base.Type(), result), nil
}

// decodeEntry reads a single pack entry (type/size header, optional
// delta header, zlib-compressed payload) starting at r's current
// position, which must equal offset.
func decodeEntry(r *bytes.Reader, offset uint64) (entry, error) {
	first, err := r.ReadByte()
	if err != nil {
		return entry{}, xerrors.Errorf("could not read the type/size header: %w", err)
	}

	// First byte: high bit = continuation, bits 6-4 = type, bits 3-0 =
	// low 4 bits of the size
	typ := object.Type((first & 0b_0111_0000) >> 4)
	size := uint64(first & 0b_0000_1111)
	shift := uint(4)
	for first&0b_1000_0000 != 0 {
		b, err := r.ReadByte()
		if err != nil {
			return entry{}, xerrors.Errorf("could not read size continuation byte: %w", err)
		}
		if shift > 64 {
			return entry{}, ErrIntOverflow
		}
		size |= uint64(b&0b_0111_1111) << shift
		shift += 7
		first = b
	}

	if !typ.IsValid() {
		return entry{}, xerrors.Errorf("unknown pack object type %d", typ)
	}

	e := entry{offset: offset, typ: typ, size: size}

	switch typ { //nolint:exhaustive // only delta types need extra parsing
	case object.ObjectDeltaRef:
		baseSHA := make([]byte, ginternals.OidSize)
		if _, err := io.ReadFull(r, baseSHA); err != nil {
			return entry{}, xerrors.Errorf("could not read the ref-delta base sha: %w", err)
		}
		baseOid, err := ginternals.NewOidFromBytes(baseSHA)
		if err != nil {
			return entry{}, xerrors.Errorf("could not parse ref-delta base sha: %w", err)
		}
		e.baseOid = baseOid
	case object.ObjectDeltaOFS:
		backOffset, err := readOfsDeltaOffset(r)
		if err != nil {
			return entry{}, xerrors.Errorf("could not read the ofs-delta offset: %w", err)
		}
		if backOffset > offset {
			return entry{}, xerrors.Errorf("ofs-delta offset underflows the start of the pack")
		}
		e.baseOfs = offset - backOffset
	}

	payload, _, err := inflate(r)
	if err != nil {
		return entry{}, xerrors.Errorf("could not inflate the object: %w", err)
	}
	e.payload = payload
	return e, nil
}

// readOfsDeltaOffset reads a variable-length backward offset as used by
// ofs-delta entries. Each byte contributes its low 7 bits, most
// significant first; the high bit signals continuation. Every
// continuation byte after the first is biased by +1 before being
// shifted in, per the pack format's encoding of negative offsets.
func readOfsDeltaOffset(r *bytes.Reader) (uint64, error) {
	b, err := r.ReadByte()
	if err != nil {
		return 0, err
	}
	offset := uint64(b & 0b_0111_1111)
	for b&0b_1000_0000 != 0 {
		b, err = r.ReadByte()
		if err != nil {
			return 0, err
		}
		offset++
		offset = (offset << 7) | uint64(b&0b_0111_1111)
	}
	return offset, nil
}

// inflate decompresses a zlib stream starting at r's current position
// and returns its inflated bytes along with the number of input bytes
// it consumed, so the caller can locate the next entry precisely. Since
// r is a *bytes.Reader, which implements io.ByteReader, the zlib/flate
// readers consume bytes from it directly with no read-ahead buffering
// of their own, so r's position lands exactly at the end of the stream.
func inflate(r *bytes.Reader) (payload []byte, n int, err error) {
	start := r.Len()
	zr, err := zlib.NewReader(r)
	if err != nil {
		return nil, 0, xerrors.Errorf("could not create zlib reader: %w", err)
	}
	defer func() {
		closeErr := zr.Close()
		if err == nil {
			err = closeErr
		}
	}()

	var buf bytes.Buffer
	if _, err = io.Copy(&buf, zr); err != nil {
		return nil, 0, xerrors.Errorf("could not inflate: %w", err)
	}
	return buf.Bytes(), start - r.Len(), nil
}
