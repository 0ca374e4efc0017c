package crs

import (
	"testing"

	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func blockBytesFor(dirty int) int {
	const simd2 = 32
	if dirty%simd2 == 0 {
		return dirty
	}
	return dirty + (simd2 - dirty%simd2)
}

func makeRandomBlocks(t *rapid.T, k, blockBytes int) []byte {
	data := make([]byte, k*blockBytes)
	for i := range data {
		data[i] = rapid.Byte().Draw(t, "byte")
	}
	return data
}

// TestEncodeDecodeRoundTrip exercises the "any K of N suffice" property:
// encode K or more rows, decode any K distinct identifiers among them,
// and check every recovered block matches the original data.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		k := rapid.IntRange(1, 8).Draw(t, "k")
		extra := rapid.IntRange(0, 5).Draw(t, "extra")
		n := k + extra
		dirty := rapid.IntRange(2, 64).Draw(t, "dirty")
		blockBytes := blockBytesFor(dirty)

		cd := New()
		data := makeRandomBlocks(t, k, blockBytes)

		// Emit n code rows with identifiers k, k+1, ..., k+n-1.
		coded := make([][]byte, n)
		idents := make([]uint16, n)
		for i := 0; i < n; i++ {
			idents[i] = uint16(k + i)
			out := make([]byte, blockBytes)
			require.NoError(t, cd.EncodeRow(out, data, idents[i], blockBytes, k))
			coded[i] = out
		}

		// Pick exactly k of the n rows via a Fisher-Yates shuffle driven
		// by rapid, then take the first k indices.
		order := make([]int, n)
		for i := range order {
			order[i] = i
		}
		for i := n - 1; i > 0; i-- {
			j := rapid.IntRange(0, i).Draw(t, "swap")
			order[i], order[j] = order[j], order[i]
		}
		chosen := order[:k]

		chunkData := make([]byte, k*blockBytes)
		chunkIdent := make([]uint16, k)
		for i, idx := range chosen {
			copy(chunkData[i*blockBytes:(i+1)*blockBytes], coded[idx])
			chunkIdent[i] = idents[idx]
		}

		for row := 0; row < k; row++ {
			out := make([]byte, blockBytes)
			require.NoError(t, cd.DecodeBlock(out, chunkData, chunkIdent, row, blockBytes, k))
			require.Equal(t, data[row*blockBytes:(row+1)*blockBytes], out, "row %d must reconstruct exactly", row)
		}
	})
}

// TestDecodeAcceptsSurvivingDataRows covers the edge case where a
// "received chunk" is actually an original data row (ident < k): its
// Cauchy row reduces to a unit vector, i.e. a copy.
func TestDecodeAcceptsSurvivingDataRows(t *testing.T) {
	cd := New()
	k := 4
	blockBytes := 32
	data := make([]byte, k*blockBytes)
	for i := range data {
		data[i] = byte(i)
	}

	// Use all k original data rows as the "received chunks".
	chunkIdent := []uint16{0, 1, 2, 3}
	chunkData := append([]byte(nil), data...)

	for row := 0; row < k; row++ {
		out := make([]byte, blockBytes)
		require.NoError(t, cd.DecodeBlock(out, chunkData, chunkIdent, row, blockBytes, k))
		require.Equal(t, data[row*blockBytes:(row+1)*blockBytes], out)
	}
}

func TestDecodeRejectsDuplicateIdentifiers(t *testing.T) {
	cd := New()
	k := 3
	blockBytes := 16
	chunkData := make([]byte, k*blockBytes)
	chunkIdent := []uint16{5, 5, 6}

	out := make([]byte, blockBytes)
	err := cd.DecodeBlock(out, chunkData, chunkIdent, 0, blockBytes, k)
	require.Error(t, err)
}

// TestCauchySubmatrixInvertible checks that solve() never hits the
// "singular submatrix" internal-invariant error for any k distinct code
// row identifiers, which is exactly the Cauchy-invertibility guarantee
// spec.md leans on.
func TestCauchySubmatrixInvertible(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		k := rapid.IntRange(1, 16).Draw(t, "k")
		cd := New()

		// k distinct code-row identifiers in [k, 2^16), built by drawing
		// an offset and walking forward until k distinct values are
		// collected (avoids depending on a dedicated "distinct slice"
		// generator).
		seen := make(map[uint16]struct{}, k)
		idents := make([]uint16, 0, k)
		next := uint16(k)
		for len(idents) < k {
			if rapid.Bool().Draw(t, "skip") {
				next++
				continue
			}
			if _, dup := seen[next]; !dup {
				seen[next] = struct{}{}
				idents = append(idents, next)
			}
			next++
		}

		for r := 0; r < k; r++ {
			_, err := cd.solve(idents, r, k)
			require.NoError(t, err)
		}
	})
}

func TestEncodeRowRejectsWrongLengths(t *testing.T) {
	cd := New()
	err := cd.EncodeRow(make([]byte, 10), make([]byte, 40), 4, 16, 4)
	require.Error(t, err)
}
