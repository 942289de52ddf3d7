package packfile

import (
	"encoding/binary"
	"errors"

	"golang.org/x/xerrors"
)

// ErrDeltaMismatch is returned when applying a delta produces a base
// size or a result size that disagrees with what the delta header says
var ErrDeltaMismatch = errors.New("delta size mismatch")

// applyDelta reconstructs a payload by replaying the copy/insert
// instructions of delta on top of base.
//
// A delta stream starts with the size of the base it expects and the
// size of the result it will produce, both variable-length encoded,
// followed by a sequence of instructions that run until the stream is
// exhausted. Each instruction is one byte:
//   - Copy (high bit set): the low 7 bits are a bitmask. Bits 0-3 say
//     which of 4 little-endian offset bytes follow; bits 4-6 say which
//     of 3 size bytes follow. Missing bytes are zero. A size of zero
//     means 0x10000. The instruction emits base[offset:offset+size].
//   - Insert (high bit unset, value != 0): the low 7 bits are a byte
//     count; that many literal bytes follow in the stream and are
//     emitted as-is. A value of 0 is reserved and invalid.
func applyDelta(base, delta []byte) ([]byte, error) {
	baseSize, n, err := readDeltaSize(delta)
	if err != nil {
		return nil, xerrors.Errorf("could not read the base size: %w", err)
	}
	if int(baseSize) != len(base) {
		return nil, xerrors.Errorf("base size %d doesn't match the delta's expected %d: %w", len(base), baseSize, ErrDeltaMismatch)
	}
	delta = delta[n:]

	resultSize, n, err := readDeltaSize(delta)
	if err != nil {
		return nil, xerrors.Errorf("could not read the result size: %w", err)
	}
	instructions := delta[n:]

	out := make([]byte, 0, resultSize)
	for i := 0; i < len(instructions); {
		instr := instructions[i]
		i++

		switch {
		case instr&0b_1000_0000 != 0: // copy
			var offsetBytes [4]byte
			for j := 0; j < 4; j++ {
				if instr&(1<<uint(j)) == 0 {
					continue
				}
				if i >= len(instructions) {
					return nil, xerrors.Errorf("truncated copy offset: %w", ErrDeltaMismatch)
				}
				offsetBytes[j] = instructions[i]
				i++
			}
			offset := binary.LittleEndian.Uint32(offsetBytes[:])

			var sizeBytes [4]byte
			for j := 0; j < 3; j++ {
				if instr&(1<<uint(4+j)) == 0 {
					continue
				}
				if i >= len(instructions) {
					return nil, xerrors.Errorf("truncated copy size: %w", ErrDeltaMismatch)
				}
				sizeBytes[j] = instructions[i]
				i++
			}
			size := binary.LittleEndian.Uint32(sizeBytes[:])
			if size == 0 {
				size = 0x10000
			}

			if uint64(offset)+uint64(size) > uint64(len(base)) {
				return nil, xerrors.Errorf("copy instruction reads past the base object: %w", ErrDeltaMismatch)
			}
			out = append(out, base[offset:offset+size]...)
		case instr != 0: // insert
			length := int(instr)
			if i+length > len(instructions) {
				return nil, xerrors.Errorf("truncated insert instruction: %w", ErrDeltaMismatch)
			}
			out = append(out, instructions[i:i+length]...)
			i += length
		default:
			return nil, xerrors.Errorf("reserved delta instruction 0x00: %w", ErrDeltaMismatch)
		}
	}

	if uint64(len(out)) != resultSize {
		return nil, xerrors.Errorf("result is %d bytes, delta declared %d: %w", len(out), resultSize, ErrDeltaMismatch)
	}
	return out, nil
}

// readDeltaSize reads a variable-length size as used for a delta's base
// and result sizes. Bit 7 of the first byte is the continuation flag;
// bits 6-0 hold the low 7 bits of the size. Subsequent bytes contribute
// 7 more bits each, least significant chunk first.
func readDeltaSize(data []byte) (size uint64, n int, err error) {
	shift := uint(0)
	for i, b := range data {
		size |= uint64(b&0b_0111_1111) << shift
		shift += 7
		if b&0b_1000_0000 == 0 {
			return size, i + 1, nil
		}
	}
	return 0, 0, xerrors.Errorf("truncated variable-length size: %w", ErrIntOverflow)
}
