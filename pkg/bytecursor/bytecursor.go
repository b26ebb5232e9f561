// Package bytecursor implements the read-only, offset-tracking byte
// reader that every Chain Lens decoder is built on. It is the foundation
// layer: fixed-width little-endian reads, CompactSize (Bitcoin's wire
// varint), and exact-length slices, all without ever copying the
// underlying buffer until a caller asks for a slice.
package bytecursor

import (
	"encoding/binary"
	"fmt"

	"github.com/richochetclementine1315/chain-lens/pkg/bitcoinerr"
)

// Cursor is a read-only view over a byte buffer with a monotonically
// advancing position. The zero value is not usable; construct with New.
type Cursor struct {
	buf []byte
	pos int
}

// New wraps buf in a Cursor starting at offset 0.
func New(buf []byte) *Cursor {
	return &Cursor{buf: buf}
}

// Tell returns the current cursor position.
func (c *Cursor) Tell() int { return c.pos }

// Len returns the total buffer length.
func (c *Cursor) Len() int { return len(c.buf) }

// Remaining returns the number of unread bytes.
func (c *Cursor) Remaining() int { return len(c.buf) - c.pos }

// Bytes returns the full underlying buffer (not a copy).
func (c *Cursor) Bytes() []byte { return c.buf }

// Seek moves the cursor to an absolute offset. It is used by decoders
// that need to skip fixed-size fields computed elsewhere (e.g. the undo
// decoder's skip to the end of each record, past its trailing hash).
func (c *Cursor) Seek(pos int) error {
	if pos < 0 || pos > len(c.buf) {
		return fmt.Errorf("seek to %d out of bounds [0,%d]: %w", pos, len(c.buf), bitcoinerr.ErrTruncated)
	}
	c.pos = pos
	return nil
}

// Slice returns buf[from:to] without copying. Used to extract the
// non-witness preimage for TXID computation by offset arithmetic instead
// of re-serialization.
func (c *Cursor) Slice(from, to int) ([]byte, error) {
	if from < 0 || to > len(c.buf) || from > to {
		return nil, fmt.Errorf("slice [%d:%d] out of bounds [0,%d]: %w", from, to, len(c.buf), bitcoinerr.ErrTruncated)
	}
	return c.buf[from:to], nil
}

func (c *Cursor) need(n int) error {
	if c.Remaining() < n {
		return fmt.Errorf("need %d bytes at offset %d, have %d: %w", n, c.pos, c.Remaining(), bitcoinerr.ErrTruncated)
	}
	return nil
}

// ReadBytes consumes and returns exactly n bytes.
func (c *Cursor) ReadBytes(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("negative read length %d at offset %d: %w", n, c.pos, bitcoinerr.ErrTruncated)
	}
	if err := c.need(n); err != nil {
		return nil, err
	}
	b := c.buf[c.pos : c.pos+n]
	c.pos += n
	return b, nil
}

// PeekByte returns the next byte without advancing the cursor.
func (c *Cursor) PeekByte() (byte, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	return c.buf[c.pos], nil
}

// PeekBytes returns the next n bytes without advancing the cursor.
func (c *Cursor) PeekBytes(n int) ([]byte, error) {
	if err := c.need(n); err != nil {
		return nil, err
	}
	return c.buf[c.pos : c.pos+n], nil
}

// ReadU8 reads one byte.
func (c *Cursor) ReadU8() (uint8, error) {
	if err := c.need(1); err != nil {
		return 0, err
	}
	v := c.buf[c.pos]
	c.pos++
	return v, nil
}

// ReadU16LE reads a little-endian uint16.
func (c *Cursor) ReadU16LE() (uint16, error) {
	if err := c.need(2); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint16(c.buf[c.pos:])
	c.pos += 2
	return v, nil
}

// ReadU32LE reads a little-endian uint32.
func (c *Cursor) ReadU32LE() (uint32, error) {
	if err := c.need(4); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint32(c.buf[c.pos:])
	c.pos += 4
	return v, nil
}

// ReadI32LE reads a little-endian signed int32.
func (c *Cursor) ReadI32LE() (int32, error) {
	v, err := c.ReadU32LE()
	return int32(v), err
}

// ReadU64LE reads a little-endian uint64.
func (c *Cursor) ReadU64LE() (uint64, error) {
	if err := c.need(8); err != nil {
		return 0, err
	}
	v := binary.LittleEndian.Uint64(c.buf[c.pos:])
	c.pos += 8
	return v, nil
}

// ReadI64LE reads a little-endian signed int64.
func (c *Cursor) ReadI64LE() (int64, error) {
	v, err := c.ReadU64LE()
	return int64(v), err
}

// ReadCompactSize reads Bitcoin's wire-format variable-length integer
// (CompactSize): 1 byte for values < 0xFD, or a 0xFD/0xFE/0xFF prefix
// followed by a 2/4/8-byte little-endian value. canonical reports whether
// the encoding used the minimal representation for the value; a
// non-canonical encoding is accepted (per spec) but should be surfaced as
// a NonCanonicalSize diagnostic by the caller.
func (c *Cursor) ReadCompactSize() (value uint64, canonical bool, err error) {
	prefix, err := c.ReadU8()
	if err != nil {
		return 0, false, err
	}
	switch prefix {
	case 0xfd:
		v, err := c.ReadU16LE()
		if err != nil {
			return 0, false, err
		}
		return uint64(v), v >= 0xfd, nil
	case 0xfe:
		v, err := c.ReadU32LE()
		if err != nil {
			return 0, false, err
		}
		return uint64(v), v > 0xffff, nil
	case 0xff:
		v, err := c.ReadU64LE()
		if err != nil {
			return 0, false, err
		}
		return v, v > 0xffffffff, nil
	default:
		return uint64(prefix), true, nil
	}
}

// ReadCompactSizePrefixedBytes reads a CompactSize length followed by
// exactly that many bytes — the "prefixed blob" primitive used for
// scriptSig, scriptPubKey, and witness stack items.
func (c *Cursor) ReadCompactSizePrefixedBytes() ([]byte, error) {
	n, _, err := c.ReadCompactSize()
	if err != nil {
		return nil, err
	}
	return c.ReadBytes(int(n))
}

// ReadCoreVarInt reads Bitcoin Core's internal variable-length integer
// (distinct from CompactSize; used only inside undo/amount encoding).
// Each byte carries 7 data bits; the MSB signals continuation. The
// accumulated value adds 1 per continuation byte per Core's CVarInt
// encoding. At most 9 bytes are consumed.
func (c *Cursor) ReadCoreVarInt() (uint64, error) {
	var n uint64
	for i := 0; i < 9; i++ {
		b, err := c.ReadU8()
		if err != nil {
			return 0, err
		}
		n = (n << 7) | uint64(b&0x7f)
		if b&0x80 == 0 {
			return n, nil
		}
		n++
	}
	return 0, fmt.Errorf("core varint exceeds 9 bytes at offset %d: %w", c.pos, bitcoinerr.ErrTruncated)
}
