package binio_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Gregofi/cacom/binio"
)

func TestWriterReaderRoundTrip(t *testing.T) {
	w := binio.NewWriter()
	w.WriteU8LE(0xAB)
	w.WriteU16LE(0x1234)
	w.WriteU32LE(0xDEADBEEF)
	w.WriteU64LE(0x0123456789ABCDEF)
	w.WriteBool(true)
	w.WriteBool(false)
	w.WriteString("hello, cacom")
	require.NoError(t, w.Error())

	r := binio.NewReader(w.Bytes())
	require.Equal(t, uint8(0xAB), r.ReadU8LE())
	require.Equal(t, uint16(0x1234), r.ReadU16LE())
	require.Equal(t, uint32(0xDEADBEEF), r.ReadU32LE())
	require.Equal(t, uint64(0x0123456789ABCDEF), r.ReadU64LE())
	require.Equal(t, true, r.ReadBool())
	require.Equal(t, false, r.ReadBool())
	require.Equal(t, "hello, cacom", r.ReadString())
	require.NoError(t, r.Err)
	require.Equal(t, 0, r.Remaining())
}

func TestWriterStickyError(t *testing.T) {
	w := binio.NewWriter()
	w.Err = binio.ErrUnexpectedEOF
	before := w.Len()
	w.WriteU32LE(7)
	require.Equal(t, before, w.Len(), "no write happens once Err is set")
}

func TestReaderUnexpectedEOF(t *testing.T) {
	r := binio.NewReader([]byte{0x01})
	_ = r.ReadU32LE()
	require.ErrorIs(t, r.Err, binio.ErrUnexpectedEOF)

	// Once Err is set, further reads are no-ops returning zero values.
	require.Equal(t, uint8(0), r.ReadU8LE())
}

func TestWriteToFlushesBuffer(t *testing.T) {
	w := binio.NewWriter()
	w.WriteString("x")

	var buf bytes.Buffer
	require.NoError(t, w.WriteTo(&buf))
	require.Equal(t, w.Bytes(), buf.Bytes())
}

func TestWriteToFailsInErrorState(t *testing.T) {
	w := binio.NewWriter()
	w.Err = binio.ErrUnexpectedEOF

	var buf bytes.Buffer
	require.Error(t, w.WriteTo(&buf))
}
