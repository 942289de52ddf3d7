// Package pktline encodes and decodes pkt-line framing, the length-
// prefixed wire format used by the smart HTTP transport to frame
// everything from ref advertisements to pack requests.
package pktline

import (
	"bufio"
	"encoding/hex"
	"errors"
	"io"

	"golang.org/x/xerrors"
)

const (
	// MaxDataLength is the largest payload a single data pkt-line can
	// carry: a whole line, 4-byte length prefix included, is at most
	// 0xfff0 = 65520 bytes, which leaves 65516 for the payload.
	MaxDataLength = 65516

	// lengthPrefixSize is the number of ASCII hex digits that prefix
	// every pkt-line.
	lengthPrefixSize = 4
)

var (
	// ErrInvalidLength is returned when a length prefix isn't valid hex
	ErrInvalidLength = errors.New("pktline: invalid length prefix")
	// ErrShortRead is returned when fewer payload bytes are available
	// than the length prefix promised
	ErrShortRead = errors.New("pktline: short read")
	// ErrTooLong is returned when an encoded payload would exceed the
	// maximum pkt-line length
	ErrTooLong = errors.New("pktline: payload too long")
)

// Kind identifies what a decoded pkt-line represents.
type Kind int8

const (
	// Data is a regular pkt-line carrying a payload
	Data Kind = iota
	// Flush is the "0000" marker that ends a section
	Flush
	// Delim is the "0001" marker used to separate sections in
	// protocol v2
	Delim
)

// Line is a single decoded pkt-line.
type Line struct {
	Kind    Kind
	Payload []byte
}

// Flush returns the 4-byte flush-pkt encoding.
func Flush() []byte { return []byte("0000") }

// Delim returns the 4-byte delim-pkt encoding.
func Delim() []byte { return []byte("0001") }

// Encode returns the pkt-line encoding of payload: a 4-hex-digit,
// big-endian ASCII length (inclusive of the 4 length bytes themselves)
// followed by payload.
func Encode(payload []byte) ([]byte, error) {
	if len(payload) > MaxDataLength {
		return nil, xerrors.Errorf("payload of %d bytes: %w", len(payload), ErrTooLong)
	}

	length := len(payload) + lengthPrefixSize
	out := make([]byte, 0, length)
	out = append(out, []byte(toHex(length))...)
	out = append(out, payload...)
	return out, nil
}

// EncodeString is a convenience wrapper around Encode for string
// payloads.
func EncodeString(payload string) ([]byte, error) {
	return Encode([]byte(payload))
}

func toHex(n int) string {
	const digits = "0123456789abcdef"
	b := make([]byte, lengthPrefixSize)
	for i := lengthPrefixSize - 1; i >= 0; i-- {
		b[i] = digits[n&0xf]
		n >>= 4
	}
	return string(b)
}

// Decoder reads a sequence of pkt-lines off a byte stream.
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder returns a Decoder reading pkt-lines from r.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r)}
}

// Next reads and returns the next pkt-line. It returns io.EOF once the
// underlying stream is exhausted with no partial frame pending.
func (d *Decoder) Next() (*Line, error) {
	var lengthBuf [lengthPrefixSize]byte
	if _, err := io.ReadFull(d.r, lengthBuf[:]); err != nil {
		if errors.Is(err, io.ErrUnexpectedEOF) {
			return nil, xerrors.Errorf("reading length prefix: %w", ErrShortRead)
		}
		return nil, err
	}

	length, err := hex.DecodeString(string(lengthBuf[:]))
	if err != nil || len(length) != 2 {
		return nil, xerrors.Errorf("prefix %q: %w", lengthBuf, ErrInvalidLength)
	}
	n := int(length[0])<<8 | int(length[1])

	switch n {
	case 0:
		return &Line{Kind: Flush}, nil
	case 1:
		return &Line{Kind: Delim}, nil
	}
	if n < lengthPrefixSize {
		return nil, xerrors.Errorf("length %d: %w", n, ErrInvalidLength)
	}

	payload := make([]byte, n-lengthPrefixSize)
	if _, err := io.ReadFull(d.r, payload); err != nil {
		return nil, xerrors.Errorf("reading %d byte payload: %w", len(payload), ErrShortRead)
	}

	return &Line{Kind: Data, Payload: payload}, nil
}

// DecodeAll reads every pkt-line from r until EOF and returns them in
// order. A trailing Flush or Delim is included as its own Line.
func DecodeAll(r io.Reader) ([]*Line, error) {
	d := NewDecoder(r)
	var lines []*Line
	for {
		line, err := d.Next()
		if errors.Is(err, io.EOF) {
			return lines, nil
		}
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
}
