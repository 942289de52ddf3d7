package ginternals

import (
	"crypto/sha1" //nolint:gosec // sha1 is the object identity algorithm mandated by the wire format
	"encoding/hex"

	"golang.org/x/xerrors"
)

// OidSize is the amount of bytes contained in an Oid
const OidSize = 20

// ErrInvalidOid is returned when a given value isn't a valid Oid
var ErrInvalidOid = xerrors.New("invalid oid")

// NullOid represents an oid full of zeroes
var NullOid = Oid{}

// Oid represents a git Object ID: the SHA-1 of an object's canonical
// framing
type Oid [OidSize]byte

// NewOidFromContent returns the Oid that is the SHA-1 sum of the
// given bytes. The caller is responsible for passing the canonical
// framing, not the raw payload.
func NewOidFromContent(data []byte) Oid {
	return Oid(sha1.Sum(data)) //nolint:gosec // see package comment
}

// NewOidFromHex parses a 40 character hex-encoded string into an Oid
func NewOidFromHex(id string) (Oid, error) {
	return NewOidFromChars([]byte(id))
}

// NewOidFromStr is an alias of NewOidFromHex
func NewOidFromStr(id string) (Oid, error) {
	return NewOidFromHex(id)
}

// NewOidFromChars parses a 40 character hex-encoded byte-slice into an Oid
func NewOidFromChars(id []byte) (Oid, error) {
	if len(id) != OidSize*2 {
		return Oid{}, xerrors.Errorf("oid %q has invalid length: %w", id, ErrInvalidOid)
	}
	var out Oid
	if _, err := hex.Decode(out[:], id); err != nil {
		return Oid{}, xerrors.Errorf("oid %q is not valid hex: %w", id, ErrInvalidOid)
	}
	return out, nil
}

// NewOidFromBytes casts a 20-byte slice that already holds a raw oid
// into an Oid
func NewOidFromBytes(id []byte) (Oid, error) {
	if len(id) != OidSize {
		return Oid{}, xerrors.Errorf("raw oid has invalid length %d: %w", len(id), ErrInvalidOid)
	}
	var out Oid
	copy(out[:], id)
	return out, nil
}

// Bytes returns the raw oid as a 20-byte slice
func (o Oid) Bytes() []byte {
	return o[:]
}

// String returns the 40-character hex representation of the oid
func (o Oid) String() string {
	return hex.EncodeToString(o[:])
}

// IsZero returns whether the oid is the null oid
func (o Oid) IsZero() bool {
	return o == NullOid
}
