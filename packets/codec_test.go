package packets

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeLengthRoundTrip(t *testing.T) {
	cases := []struct {
		n     int
		width int
	}{
		{0, 1}, {127, 1}, {128, 2}, {16383, 2},
		{16384, 3}, {2097151, 3}, {2097152, 4}, {MaxRemainingLength, 4},
	}
	for _, c := range cases {
		enc := EncodeLength(c.n)
		require.Len(t, enc, c.width)

		v, width, err := DecodeLength(enc)
		require.NoError(t, err)
		require.Equal(t, c.n, v)
		require.Equal(t, c.width, width)
	}
}

func TestDecodeLengthRejectsFiveContinuationBytes(t *testing.T) {
	_, _, err := DecodeLength([]byte{0xFF, 0xFF, 0xFF, 0xFF, 0x7F})
	require.ErrorIs(t, err, ErrInvalidRemainingLength)
}

func TestDecodeLengthRejectsTruncatedInput(t *testing.T) {
	_, _, err := DecodeLength([]byte{0xFF, 0xFF})
	require.ErrorIs(t, err, ErrInvalidRemainingLength)
}

func TestEncodeLengthPanicsOutOfRange(t *testing.T) {
	require.Panics(t, func() { EncodeLength(-1) })
	require.Panics(t, func() { EncodeLength(MaxRemainingLength + 1) })
}

func TestReaderReadUTF8String(t *testing.T) {
	buf := []byte{0x00, 0x04, 't', 'e', 's', 't'}
	r := NewReader(buf)
	require.NoError(t, r.Start(len(buf)))

	s, ok, err := r.ReadUTF8String(false)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "test", s)
}

func TestReaderReadUTF8StringZeroLengthIsNotOK(t *testing.T) {
	buf := []byte{0x00, 0x00}
	r := NewReader(buf)
	require.NoError(t, r.Start(len(buf)))

	s, ok, err := r.ReadUTF8String(true)
	require.NoError(t, err)
	require.False(t, ok)
	require.Equal(t, "", s)
}

func TestReaderReadUTF8StringInvalidUTF8(t *testing.T) {
	buf := []byte{0x00, 0x02, 0xFF, 0xFE}
	r := NewReader(buf)
	require.NoError(t, r.Start(len(buf)))

	_, _, err := r.ReadUTF8String(false)
	require.ErrorIs(t, err, ErrOffsetStringInvalidUTF8)
}

func TestWriterFinishPacketCompactsLengthPrefix(t *testing.T) {
	w := NewWriter(nil)
	w.StartPacket(FixedHeader{Command: Publish, Qos: AtMostOnce})
	w.WriteUTF8String("a/b")
	w.WriteRaw([]byte("hello"))
	require.NoError(t, w.FinishPacket())

	out := w.Bytes()
	require.Equal(t, byte(0x30), out[0])

	v, width, err := DecodeLength(out[1:])
	require.NoError(t, err)
	require.Equal(t, len(out)-1-width, v)
}

func TestWriterAbortDiscardsPartialPacket(t *testing.T) {
	w := NewWriter(nil)
	w.StartPacket(FixedHeader{Command: Pingresp})
	w.WriteByte(0x01)
	w.Abort()
	require.Equal(t, 0, len(w.Bytes()))
}

func TestFixedHeaderRejectsReservedCommands(t *testing.T) {
	buf := []byte{0x00, 0x00}
	r := NewReader(buf)
	require.NoError(t, r.Start(len(buf)))
	_, err := ReadFixedHeader(r)
	require.ErrorIs(t, err, ErrInvalidCommand)
}

func TestFixedHeaderRejectsBadSubscribeFlags(t *testing.T) {
	buf := []byte{0x80, 0x00} // SUBSCRIBE without the mandatory 0x02 low nibble
	r := NewReader(buf)
	require.NoError(t, r.Start(len(buf)))
	_, err := ReadFixedHeader(r)
	require.ErrorIs(t, err, ErrMalformedPacket)
}

func TestMalformedRemainingLengthExample(t *testing.T) {
	// Any fixed-header byte followed by FF FF FF FF 7F: decoding must
	// fail without needing the fifth byte.
	buf := []byte{0x10, 0xFF, 0xFF, 0xFF, 0xFF, 0x7F}
	r := NewReader(buf)
	require.NoError(t, r.Start(len(buf)))
	_, err := ReadFixedHeader(r)
	require.ErrorIs(t, err, ErrInvalidRemainingLength)
}
