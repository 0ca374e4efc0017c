package crc32crs

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChecksumDeterministic(t *testing.T) {
	data := []byte("hello world\n")
	require.Equal(t, Checksum(data), Checksum(data))
}

func TestChecksumByteByByteMatchesBulk(t *testing.T) {
	data := []byte{0xAA, 0xBB, 0xCC, 0x00, 0xFF, 0x01}

	var c CRC
	for _, b := range data {
		c.Update(b)
	}

	require.Equal(t, Checksum(data), c.Finalize())
}

func TestChecksumDetectsSingleByteMutation(t *testing.T) {
	data := make([]byte, 256)
	for i := range data {
		data[i] = byte(i)
	}
	original := Checksum(data)

	for i := range data {
		mutated := append([]byte(nil), data...)
		mutated[i] ^= 0x01
		require.NotEqual(t, original, Checksum(mutated), "flipping byte %d must change the checksum", i)
	}
}

func TestEmptyInputChecksumIsZero(t *testing.T) {
	require.Equal(t, uint32(0), Checksum(nil))
}
