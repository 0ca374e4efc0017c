package driver

import (
	"fmt"
	"io"

	"github.com/pkg/errors"

	"github.com/crstun/crstun/internal/chunk"
	"github.com/crstun/crstun/internal/crc32crs"
	"github.com/crstun/crstun/internal/crs"
	"github.com/crstun/crstun/internal/gf"
)

// EncodeParams describes one encode invocation's already-validated shape,
// returned by PlanEncode so the CLI layer can print a "CRS(N, K)"-style
// progress line before doing any of the actual coding work.
type EncodeParams struct {
	InputBytes int
	K          int
	DirtyBytes int
	BlockBytes int
}

// PlanEncode validates inputBytes and chunkSize against the constraints
// in spec.md 6.2 and returns the derived session shape, without touching
// any data. outputCount is the number of output filenames the caller
// intends to write (N); it must be >= K.
func PlanEncode(inputBytes, chunkSize, outputCount int) (EncodeParams, error) {
	if inputBytes <= 0 {
		return EncodeParams{}, ErrInputEmpty
	}
	if inputBytes > MaxInputBytes {
		return EncodeParams{}, ErrInputTooLarge
	}

	avail := AvailBytes(chunkSize)
	if avail > MaxAvailBytes {
		return EncodeParams{}, ErrChunkTooLarge
	}
	if avail < 1 {
		return EncodeParams{}, ErrChunkTooSmall
	}
	k := ComputeK(inputBytes, avail)
	if k > crs.MaxK {
		return EncodeParams{}, ErrTooManyDataRows
	}
	if outputCount < k {
		return EncodeParams{}, errors.Wrapf(ErrNotEnoughChunks, "need at least %d chunks, got %d", k, outputCount)
	}

	dirty := DirtyBytes(inputBytes, k)
	block := BlockBytes(dirty)
	return EncodeParams{InputBytes: inputBytes, K: k, DirtyBytes: dirty, BlockBytes: block}, nil
}

// Encode reads exactly params.InputBytes from input, splits it into K
// zero-padded data blocks, computes the CRC-32 of the original bytes,
// and writes one chunk per writer in outputs (len(outputs) rows,
// identifiers K, K+1, ..., K+len(outputs)-1).
func (s *Session) Encode(input io.Reader, params EncodeParams, outputs []io.Writer) error {
	k := params.K
	dirty := params.DirtyBytes
	block := params.BlockBytes

	dataBuf, err := gf.NewAlignedBuffer(k * block)
	if err != nil {
		return errors.Wrap(err, "driver: allocating data buffer")
	}
	defer dataBuf.Release()
	data := dataBuf.Bytes

	var crc crc32crs.CRC
	remaining := params.InputBytes
	for row := 0; row < k; row++ {
		copyBytes := dirty
		if copyBytes > remaining {
			copyBytes = remaining
		}
		dst := data[row*block : row*block+copyBytes]
		if _, err := io.ReadFull(input, dst); err != nil {
			return errors.Wrap(err, "driver: reading input")
		}
		crc.Write(dst)
		remaining -= copyBytes
	}

	payloadLen := chunk.PayloadLen(dirty)
	codeBuf, err := gf.NewAlignedBuffer(block)
	if err != nil {
		return errors.Wrap(err, "driver: allocating code buffer")
	}
	defer codeBuf.Release()
	code := codeBuf.Bytes

	for i, w := range outputs {
		ident := uint16(k + i)
		if err := s.Codec.EncodeRow(code, data, ident, block, k); err != nil {
			return errors.Wrapf(err, "driver: encoding row %d", i)
		}
		h := chunk.Header{
			Splits: uint16(k - 1),
			Ident:  ident,
			Size:   uint32(params.InputBytes - 1),
			CRC32:  crc.Finalize(),
		}
		if err := chunk.Write(w, h, code[:payloadLen]); err != nil {
			return errors.Wrapf(err, "driver: writing chunk %d", i)
		}
	}
	return nil
}

// ProgressLine renders the "CRS(N, K)" diagnostic the original tool
// always printed to stderr before doing any coding work (spec.md's
// supplemented-feature note); CLI callers gate this behind --quiet.
func ProgressLine(n, k int) string {
	return fmt.Sprintf("CRS(%d, %d)", n, k)
}
