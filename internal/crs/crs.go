// Package crs implements the Cauchy Reed-Solomon erasure code: building
// the Cauchy matrix over GF(2^16), encoding one code block as a linear
// combination of K data blocks, and decoding one original data block via
// on-line Gaussian elimination over the submatrix the surviving chunk
// identifiers select.
//
// Grounded on klauspost/reedsolomon's buildMatrixCauchy (the
// invTable[r^c] Cauchy entry) generalised from a batch whole-matrix API
// to this package's single-row encode / single-block decode contract,
// matching the external shape of the CauchyReedSolomonErasureCoding
// template in the original aicodix/crs C++ sources.
package crs

import (
	"fmt"

	"github.com/crstun/crstun/internal/gf"
)

// MaxK is the largest number of data blocks whose splits value (K-1)
// fits in the low byte of the chunk container's 2-byte splits field.
const MaxK = 256

// Codec binds a Field to the CRS row/column conventions: data rows live
// in [0, K), code rows in [K, 2^16).
type Codec struct {
	F *gf.Field
}

// New constructs a Codec around a freshly built Field.
func New() *Codec {
	return &Codec{F: gf.New()}
}

// CauchyEntry returns M[r, c] = 1/(r XOR c), the Cauchy matrix entry
// addressed by row r and column c. r and c must be distinct (the
// defining property of a Cauchy matrix requires disjoint row/column index
// sets; here that means r != c after XOR reduces to zero, i.e. r == c
// would invert zero).
func (cd *Codec) CauchyEntry(r, c uint16) uint16 {
	return cd.F.Inv(r ^ c)
}

// EncodeRow produces one code block: output = sum_{col=0}^{K-1}
// CauchyEntry(ident, col) * data[col]. data holds the K data blocks
// concatenated, each blockBytes long; output must be blockBytes long and
// is zeroed before accumulation. An ident >= K names a code row; an
// ident < K names a data row, whose row is a unit vector (see rowEntry),
// so output then becomes a copy of data block ident.
func (cd *Codec) EncodeRow(output []byte, data []byte, ident uint16, blockBytes, k int) error {
	if len(output) != blockBytes {
		return fmt.Errorf("crs: output length %d != block size %d", len(output), blockBytes)
	}
	if len(data) != k*blockBytes {
		return fmt.Errorf("crs: data length %d != %d blocks of %d bytes", len(data), k, blockBytes)
	}
	for i := range output {
		output[i] = 0
	}
	for c := 0; c < k; c++ {
		coeff := cd.rowEntry(ident, uint16(c), k)
		cd.F.MAC(output, data[c*blockBytes:(c+1)*blockBytes], coeff)
	}
	return nil
}

// rowEntry returns the Cauchy-matrix-row entry at column c for the row
// named by ident, handling the edge case (spec.md 4.C.3) where ident
// itself is a surviving data row (ident < k): that row of the infinite
// matrix is the unit vector, i.e. 1 at c==ident and 0 elsewhere.
func (cd *Codec) rowEntry(ident, c uint16, k int) uint16 {
	if int(ident) < k {
		if ident == c {
			return 1
		}
		return 0
	}
	return cd.CauchyEntry(ident, c)
}

// DecodeBlock reconstructs the original data row r (0 <= r < k) from k
// received chunks. chunkData holds the k received code/data blocks
// concatenated (blockBytes each, in the same order as chunkIdent);
// chunkIdent holds their Cauchy row identifiers, which must all be
// distinct. output must be blockBytes long.
//
// With A[j, c] = rowEntry(chunkIdent[j], c), the received blocks are
// A times the data blocks, so the solution vector s (length k) is row r
// of A's inverse: for every column c,
//
//	sum_j s[j] * A[j, c] = delta(c, r)
//
// s is found by Gaussian elimination on the transposed k x k matrix
// A^T augmented with the right-hand side e_r (1 at index r, 0
// elsewhere); reducing A^T to the identity leaves the coefficient
// vector in b. The reconstructed block is then sum_j s[j] * chunkData[j].
func (cd *Codec) DecodeBlock(output []byte, chunkData []byte, chunkIdent []uint16, r int, blockBytes, k int) error {
	if len(output) != blockBytes {
		return fmt.Errorf("crs: output length %d != block size %d", len(output), blockBytes)
	}
	if len(chunkIdent) != k {
		return fmt.Errorf("crs: need exactly %d chunk identifiers, got %d", k, len(chunkIdent))
	}
	if len(chunkData) != k*blockBytes {
		return fmt.Errorf("crs: chunk data length %d != %d blocks of %d bytes", len(chunkData), k, blockBytes)
	}
	if r < 0 || r >= k {
		return fmt.Errorf("crs: row index %d out of range [0, %d)", r, k)
	}
	if err := checkDistinct(chunkIdent); err != nil {
		return err
	}

	s, err := cd.solve(chunkIdent, r, k)
	if err != nil {
		return err
	}

	for i := range output {
		output[i] = 0
	}
	for j := 0; j < k; j++ {
		cd.F.MAC(output, chunkData[j*blockBytes:(j+1)*blockBytes], s[j])
	}
	return nil
}

// solve runs Gaussian elimination to produce the coefficient vector s
// such that A^T*s = e_r, i.e. s is row r of A's inverse, where
// A[j,c] = rowEntry(chunkIdent[j], c). Every square submatrix of the
// Cauchy matrix is invertible (spec.md 3, "Invariants"), so pivoting
// never needs to fail as long as chunkIdent holds k distinct identifiers
// in [0, 2^16).
func (cd *Codec) solve(chunkIdent []uint16, r, k int) ([]uint16, error) {
	a := make([][]uint16, k)
	b := make([]uint16, k)
	for j := 0; j < k; j++ {
		row := make([]uint16, k)
		for c := 0; c < k; c++ {
			row[c] = cd.rowEntry(chunkIdent[c], uint16(j), k)
		}
		a[j] = row
		if j == r {
			b[j] = 1
		}
	}

	for col := 0; col < k; col++ {
		pivot := -1
		for row := col; row < k; row++ {
			if a[row][col] != 0 {
				pivot = row
				break
			}
		}
		if pivot < 0 {
			return nil, fmt.Errorf("crs: internal invariant violated, singular submatrix at column %d", col)
		}
		if pivot != col {
			a[col], a[pivot] = a[pivot], a[col]
			b[col], b[pivot] = b[pivot], b[col]
		}

		invPivot := cd.F.Inv(a[col][col])
		for c := col; c < k; c++ {
			a[col][c] = cd.F.Mul(a[col][c], invPivot)
		}
		b[col] = cd.F.Mul(b[col], invPivot)

		for row := 0; row < k; row++ {
			if row == col {
				continue
			}
			factor := a[row][col]
			if factor == 0 {
				continue
			}
			for c := col; c < k; c++ {
				a[row][c] ^= cd.F.Mul(factor, a[col][c])
			}
			b[row] ^= cd.F.Mul(factor, b[col])
		}
	}
	return b, nil
}

func checkDistinct(ident []uint16) error {
	seen := make(map[uint16]struct{}, len(ident))
	for _, id := range ident {
		if _, dup := seen[id]; dup {
			return fmt.Errorf("crs: duplicate chunk identifier %d", id)
		}
		seen[id] = struct{}{}
	}
	return nil
}
