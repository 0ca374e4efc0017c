// Package driver implements the padding/alignment/iteration policy that
// sits between the CLI surface (cmd/crsencode, cmd/crsdecode) and the
// core GF/CRS/chunk packages: probing input size, computing K and
// block_bytes, looping over rows, and invoking the codec in order.
// Grounded on the restated contract in spec.md section 6 and on
// original_source/encode.cc and decode.cc for the exact arithmetic.
package driver

import (
	"github.com/pkg/errors"

	"github.com/crstun/crstun/internal/chunk"
	"github.com/crstun/crstun/internal/crs"
	"github.com/crstun/crstun/internal/gf"
)

// MaxInputBytes is the 16 MiB cap on a single encoded file (spec.md 6.2).
const MaxInputBytes = 16 * 1024 * 1024

// MaxAvailBytes is the cap on available payload bytes per chunk
// (spec.md 6.2): avail_bytes <= 65536.
const MaxAvailBytes = 65536

// simdAlign is 2*SIMDWidth: block_bytes must be a multiple of this many
// bytes (spec.md 3, "Invariants"), since MAC operates on SIMDWidth
// 16-bit lanes per vector step.
const simdAlign = 2 * gf.SIMDWidth

// ErrInputTooLarge is returned when the input exceeds MaxInputBytes.
var ErrInputTooLarge = errors.New("driver: input exceeds 16 MiB cap")

// ErrInputEmpty is returned for a zero-length input.
var ErrInputEmpty = errors.New("driver: input must be at least 1 byte")

// ErrChunkTooSmall is returned when the requested chunk size, after the
// header and rounding down to even, leaves no room for payload.
var ErrChunkTooSmall = errors.New("driver: chunk size too small")

// ErrChunkTooLarge is returned when avail_bytes would exceed
// MaxAvailBytes.
var ErrChunkTooLarge = errors.New("driver: chunk size too large")

// ErrTooManyDataRows is returned when the computed K exceeds crs.MaxK.
var ErrTooManyDataRows = errors.New("driver: input needs more than 256 data rows for this chunk size")

// ErrNotEnoughChunks is returned when fewer than K output filenames (or
// input filenames, on decode) were supplied.
var ErrNotEnoughChunks = errors.New("driver: not enough chunks for K")

// AvailBytes returns the number of payload bytes a chunk of chunkSize
// total bytes can carry: (chunkSize - header) rounded down to even.
func AvailBytes(chunkSize int) int {
	avail := chunkSize - chunk.HeaderSize
	return avail &^ 1
}

// ComputeK returns ceil(inputBytes / availBytes), the number of data
// rows the input splits into.
func ComputeK(inputBytes, availBytes int) int {
	return (inputBytes + availBytes - 1) / availBytes
}

// DirtyBytes returns ceil(totalBytes / k), the number of logically
// significant bytes in every data row except possibly the last.
func DirtyBytes(totalBytes, k int) int {
	return (totalBytes + k - 1) / k
}

// BlockBytes rounds dirtyBytes up to the next multiple of simdAlign.
func BlockBytes(dirtyBytes int) int {
	if dirtyBytes%simdAlign == 0 {
		return dirtyBytes
	}
	return dirtyBytes + (simdAlign - dirtyBytes%simdAlign)
}

// Session bundles a freshly constructed CRS codec; Encode and Decode are
// methods on it, so a caller that processes more than one file in a
// process lifetime reuses one Session instead of re-deriving the GF
// tables per call (the tables are immutable and reusable, per spec.md 5).
type Session struct {
	Codec *crs.Codec
}

// NewSession builds a GF field and CRS codec once.
func NewSession() *Session {
	return &Session{Codec: crs.New()}
}
