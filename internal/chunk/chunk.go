// Package chunk implements the CRS chunk container: a 15-byte header
// (magic, splits, ident, size, crc32) followed by the logically
// significant prefix of one code block's payload. See spec.md section
// 6.1 for the bit-exact layout.
//
// Grounded on got-root-loki/pkg/chunkenc/memchunk.go for the
// header-then-payload framing idiom (explicit little-endian field
// widths, a fixed magic prefix used to reject foreign files).
package chunk

import (
	"encoding/binary"
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// Magic is the fixed 3-byte prefix identifying a CRS chunk file.
var Magic = [3]byte{'C', 'R', 'S'}

// HeaderSize is the fixed size, in bytes, of a chunk's header.
const HeaderSize = 15

// MaxSplits is the rejection threshold on the splits field (spec.md
// 6.1): splits >= 1024 is invalid even though the format's width could
// encode up to 65535.
const MaxSplits = 1024

// Header is the fixed-size metadata prefix of a chunk file.
type Header struct {
	// Splits is K-1: the zero-based count of data rows minus one.
	Splits uint16
	// Ident is the Cauchy row identifier carried by this chunk; for a
	// valid, accepted chunk, Ident > Splits.
	Ident uint16
	// Size is input_bytes-1, a 24-bit unsigned original-file length.
	Size uint32
	// CRC32 is the CRC-32 (internal/crc32crs) of the original input
	// bytes, before padding.
	CRC32 uint32
}

// K returns the number of data blocks implied by Splits.
func (h Header) K() int { return int(h.Splits) + 1 }

// InputBytes returns the original file length implied by Size.
func (h Header) InputBytes() int { return int(h.Size) + 1 }

// ErrShortHeader is returned when fewer than HeaderSize bytes are
// available to decode a header.
var ErrShortHeader = errors.New("chunk: short header")

// ErrBadMagic is returned when the 3-byte magic prefix doesn't read
// "CRS".
var ErrBadMagic = errors.New("chunk: bad magic")

// ErrSplitsOutOfRange is returned when Splits >= MaxSplits.
var ErrSplitsOutOfRange = errors.New("chunk: splits out of range")

// ErrIdentNotCodeRow is returned when Ident <= Splits, i.e. the chunk
// names a row that isn't a valid code row for the claimed K.
var ErrIdentNotCodeRow = errors.New("chunk: ident is not greater than splits")

// DecodeHeader parses a 15-byte header and applies the read-side
// rejection rules from spec.md 6.1 (magic, splits range, ident range).
// It does not reject a negative/unreadable size beyond what the 24-bit
// unsigned encoding already prevents.
func DecodeHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, ErrShortHeader
	}
	if buf[0] != Magic[0] || buf[1] != Magic[1] || buf[2] != Magic[2] {
		return Header{}, ErrBadMagic
	}
	h := Header{
		Splits: binary.LittleEndian.Uint16(buf[3:5]),
		Ident:  binary.LittleEndian.Uint16(buf[5:7]),
		Size:   uint24(buf[7:10]),
		CRC32:  binary.LittleEndian.Uint32(buf[10:14]),
	}
	if h.Splits >= MaxSplits {
		return Header{}, ErrSplitsOutOfRange
	}
	if h.Ident <= h.Splits {
		return Header{}, ErrIdentNotCodeRow
	}
	return h, nil
}

// EncodeHeader writes a 15-byte header to buf, which must be at least
// HeaderSize long. Splits is always written as 2 little-endian bytes
// (low byte K-1, high byte 0) per spec.md's design note on the
// write/read width asymmetry in the original tool.
func EncodeHeader(buf []byte, h Header) error {
	if len(buf) < HeaderSize {
		return fmt.Errorf("chunk: header buffer too small: %d < %d", len(buf), HeaderSize)
	}
	if h.Size >= 1<<24 {
		return fmt.Errorf("chunk: size %d does not fit in 24 bits", h.Size)
	}
	buf[0], buf[1], buf[2] = Magic[0], Magic[1], Magic[2]
	binary.LittleEndian.PutUint16(buf[3:5], h.Splits)
	binary.LittleEndian.PutUint16(buf[5:7], h.Ident)
	putUint24(buf[7:10], h.Size)
	binary.LittleEndian.PutUint32(buf[10:14], h.CRC32)
	return nil
}

func uint24(b []byte) uint32 {
	return uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16
}

func putUint24(b []byte, v uint32) {
	b[0] = byte(v)
	b[1] = byte(v >> 8)
	b[2] = byte(v >> 16)
}

// PayloadLen returns how many payload bytes a chunk carrying dirtyBytes
// logically-significant bytes per row actually stores on disk: dirty
// rounded up to the nearest even byte count (spec.md 6.1), keeping the
// field-element alignment of the GF layer.
func PayloadLen(dirtyBytes int) int {
	if dirtyBytes%2 != 0 {
		return dirtyBytes + 1
	}
	return dirtyBytes
}

// Write serializes a full chunk (header + payload) to w. payload must be
// exactly PayloadLen(dirtyBytes) long; the caller computed dirtyBytes to
// derive that length and is expected to zero-pad the source block
// already (internal/driver does this).
func Write(w io.Writer, h Header, payload []byte) error {
	buf := make([]byte, HeaderSize+len(payload))
	if err := EncodeHeader(buf, h); err != nil {
		return err
	}
	copy(buf[HeaderSize:], payload)
	_, err := w.Write(buf)
	return errors.Wrap(err, "chunk: write")
}

// ReadHeader reads and validates the fixed-size header from r. The
// caller learns the payload length only after seeing K (from Splits)
// and, for the session's first accepted chunk, Size — so header and
// payload are read in two steps rather than one (see ReadPayload).
func ReadHeader(r io.Reader) (Header, error) {
	buf := make([]byte, HeaderSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		return Header{}, errors.Wrap(err, "chunk: read header")
	}
	return DecodeHeader(buf)
}

// ReadPayload reads exactly n payload bytes from r, following a header
// already consumed by ReadHeader.
func ReadPayload(r io.Reader, n int) ([]byte, error) {
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, errors.Wrap(err, "chunk: read payload")
	}
	return buf, nil
}
