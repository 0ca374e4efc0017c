package driver

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/crstun/crstun/internal/chunk"
	"github.com/crstun/crstun/internal/crc32crs"
	"github.com/crstun/crstun/internal/gf"
)

// ErrCRCMismatch is returned when the reconstructed file's CRC-32
// doesn't match the value carried in every accepted chunk's header.
var ErrCRCMismatch = errors.New("driver: CRC value does not match")

// SkippedChunk records why one candidate input was rejected, so the CLI
// layer can print a per-file warning without the driver depending on any
// particular logging library.
type SkippedChunk struct {
	Name   string
	Reason string
}

// DecodeResult carries the non-fatal skip diagnostics alongside a
// successful decode, mirroring spec.md's "non-fatal per chunk" error
// class (section 7, kind 2).
type DecodeResult struct {
	Skipped []SkippedChunk
}

// Decode reads chunks from inputs in order, keeping the first K whose
// header is valid and agrees with the first accepted chunk's (splits,
// size, crc32), and stops reading as soon as K have been accepted
// (matching the early-exit behaviour of the original decode.cc). It
// reconstructs the original file to output and verifies the CRC-32.
func (s *Session) Decode(output io.Writer, inputs []io.Reader, names []string) (DecodeResult, error) {
	var result DecodeResult
	if len(names) != len(inputs) {
		return result, errors.New("driver: inputs and names length mismatch")
	}

	var (
		first       = true
		k           int
		outputBytes int
		crcWant     uint32
		dirty       int
		block       int
		accepted    int
	)

	chunkIdent := make([]uint16, 0)
	var chunkData []byte
	var chunkBuf *gf.AlignedBuffer
	defer func() {
		if chunkBuf != nil {
			chunkBuf.Release()
		}
	}()

	skip := func(name, reason string) {
		result.Skipped = append(result.Skipped, SkippedChunk{Name: name, Reason: reason})
	}

	seenIdent := make(map[uint16]struct{})

	for i, r := range inputs {
		name := names[i]
		h, err := chunk.ReadHeader(r)
		if err != nil {
			skip(name, err.Error())
			continue
		}

		if first {
			// The first chunk whose header parses establishes the
			// session even if its payload later turns out to be
			// truncated - matching the original tool, a corrupt first
			// chunk can cause later, otherwise-valid chunks to be
			// rejected (spec.md's open question on quorum robustness).
			first = false
			k = h.K()
			outputBytes = h.InputBytes()
			crcWant = h.CRC32
			dirty = DirtyBytes(outputBytes, k)
			block = BlockBytes(dirty)
			var err error
			chunkBuf, err = gf.NewAlignedBuffer(k * block)
			if err != nil {
				return result, errors.Wrap(err, "driver: allocating chunk buffer")
			}
			chunkData = chunkBuf.Bytes
		} else if h.K() != k || h.InputBytes() != outputBytes || h.CRC32 != crcWant {
			skip(name, "metadata disagrees with first accepted chunk")
			continue
		}

		if _, dup := seenIdent[h.Ident]; dup {
			skip(name, "duplicate chunk identifier")
			continue
		}

		payloadLen := chunk.PayloadLen(dirty)
		payload, err := chunk.ReadPayload(r, payloadLen)
		if err != nil {
			skip(name, err.Error())
			continue
		}

		seenIdent[h.Ident] = struct{}{}
		chunkIdent = append(chunkIdent, h.Ident)
		copy(chunkData[accepted*block:accepted*block+payloadLen], payload)
		accepted++

		if accepted >= k {
			break
		}
	}

	if accepted == 0 {
		return result, errors.Wrap(ErrNotEnoughChunks, "no valid chunks found")
	}
	if accepted < k {
		return result, errors.Wrapf(ErrNotEnoughChunks, "need %d valid chunks but only got %d", k, accepted)
	}

	outBuf, err := gf.NewAlignedBuffer(block)
	if err != nil {
		return result, errors.Wrap(err, "driver: allocating output row buffer")
	}
	defer outBuf.Release()
	out := outBuf.Bytes
	var crc crc32crs.CRC
	remaining := outputBytes
	for row := 0; row < k; row++ {
		if err := s.Codec.DecodeBlock(out, chunkData, chunkIdent, row, block, k); err != nil {
			return result, errors.Wrapf(err, "driver: decoding row %d", row)
		}
		copyBytes := dirty
		if copyBytes > remaining {
			copyBytes = remaining
		}
		if _, err := output.Write(out[:copyBytes]); err != nil {
			return result, errors.Wrap(err, "driver: writing output")
		}
		crc.Write(out[:copyBytes])
		remaining -= copyBytes
	}

	if crc.Finalize() != crcWant {
		return result, ErrCRCMismatch
	}
	return result, nil
}

// ProgressLineDecode renders the analogous progress line for decode:
// the number of candidate inputs and the K learned from the first
// accepted chunk. cmd/crsdecode does not print it; Decode does not
// report K to its caller.
func ProgressLineDecode(candidates, k int) string {
	return fmt.Sprintf("CRS(%d, %d)", candidates, k)
}
