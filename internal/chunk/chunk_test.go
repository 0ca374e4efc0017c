package chunk

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestHeaderRoundTrip(t *testing.T) {
	h := Header{Splits: 3, Ident: 7, Size: 1023, CRC32: 0xDEADBEEF}
	buf := make([]byte, HeaderSize)
	require.NoError(t, EncodeHeader(buf, h))

	got, err := DecodeHeader(buf)
	require.NoError(t, err)
	require.Equal(t, h, got)
	require.Equal(t, 4, got.K())
	require.Equal(t, 1024, got.InputBytes())
}

func TestDecodeHeaderRejectsBadMagic(t *testing.T) {
	h := Header{Splits: 0, Ident: 1, Size: 0, CRC32: 0}
	buf := make([]byte, HeaderSize)
	require.NoError(t, EncodeHeader(buf, h))
	buf[0] = 'X'

	_, err := DecodeHeader(buf)
	require.ErrorIs(t, err, ErrBadMagic)
}

func TestDecodeHeaderRejectsSplitsOutOfRange(t *testing.T) {
	h := Header{Splits: MaxSplits, Ident: MaxSplits + 1}
	buf := make([]byte, HeaderSize)
	require.NoError(t, EncodeHeader(buf, h))

	_, err := DecodeHeader(buf)
	require.ErrorIs(t, err, ErrSplitsOutOfRange)
}

func TestDecodeHeaderRejectsIdentNotCodeRow(t *testing.T) {
	h := Header{Splits: 10, Ident: 10}
	buf := make([]byte, HeaderSize)
	require.NoError(t, EncodeHeader(buf, h))

	_, err := DecodeHeader(buf)
	require.ErrorIs(t, err, ErrIdentNotCodeRow)

	h2 := Header{Splits: 10, Ident: 5}
	buf2 := make([]byte, HeaderSize)
	require.NoError(t, EncodeHeader(buf2, h2))
	_, err = DecodeHeader(buf2)
	require.ErrorIs(t, err, ErrIdentNotCodeRow)
}

func TestDecodeHeaderShort(t *testing.T) {
	_, err := DecodeHeader(make([]byte, HeaderSize-1))
	require.ErrorIs(t, err, ErrShortHeader)
}

func TestWriteReadFullChunk(t *testing.T) {
	h := Header{Splits: 1, Ident: 2, Size: 11, CRC32: 0x12345678}
	payload := []byte{1, 2, 3, 4, 5, 6}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, h, payload))

	got, err := ReadHeader(&buf)
	require.NoError(t, err)
	require.Equal(t, h, got)

	gotPayload, err := ReadPayload(&buf, len(payload))
	require.NoError(t, err)
	require.Equal(t, payload, gotPayload)
}

func TestPayloadLenRoundsUpToEven(t *testing.T) {
	require.Equal(t, 4, PayloadLen(4))
	require.Equal(t, 4, PayloadLen(3))
	require.Equal(t, 2, PayloadLen(1))
	require.Equal(t, 0, PayloadLen(0))
}
