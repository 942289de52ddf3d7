package ginternals

import "golang.org/x/xerrors"

// Error kinds surfaced at the invocation boundary. Core operations
// wrap one of these with context via xerrors.Errorf and callers
// compare with errors.Is.
var (
	// ErrObjectNotFound is returned when an object or ref is missing
	// from the store.
	ErrObjectNotFound = xerrors.New("object not found")

	// ErrCorrupt covers malformed object framing, declared-length
	// mismatches and bad zlib streams
	ErrCorrupt = xerrors.New("corrupt object")
	// ErrUnsupportedMode is returned for a tree entry mode outside the
	// recognized set
	ErrUnsupportedMode = xerrors.New("unsupported mode")
	// ErrNotImplemented is returned for tag checkout, tree entry modes
	// checkout can't write, and symlinks on filesystems that don't
	// support them
	ErrNotImplemented = xerrors.New("not implemented")
	// ErrProtocol covers malformed pkt-lines, bad pack headers and bad
	// sideband channels
	ErrProtocol = xerrors.New("protocol error")
	// ErrRemote surfaces sideband channel 3 text from the server
	ErrRemote = xerrors.New("remote error")
	// ErrDeltaMismatch is returned when an applied delta doesn't
	// produce the declared result size
	ErrDeltaMismatch = xerrors.New("delta result size mismatch")
)
