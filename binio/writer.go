// Package binio implements the little-endian binary writer/reader
// primitives the image serializer (§6.2) and, indirectly, the bytecode
// encoder build on. It is grounded on the teacher's pkg/io package: a
// sticky-error BinWriter/BinReader pair where every Write*/Read* call is
// a no-op once a prior call has failed, and the caller checks Err (or
// calls Error()) once at the end instead of after every single write.
package binio

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Writer accumulates little-endian primitive writes into an in-memory
// buffer. Once Err is non-nil every subsequent Write* call is a no-op,
// mirroring the teacher's BufBinWriter.
type Writer struct {
	buf []byte
	Err error
}

// NewWriter returns an empty Writer.
func NewWriter() *Writer {
	return &Writer{}
}

// Error returns the first error encountered, or nil.
func (w *Writer) Error() error {
	return w.Err
}

// Bytes returns the accumulated buffer. Callers should check Error()
// first; a non-nil error leaves the buffer's contents unspecified (some
// prefix of the intended writes may be present).
func (w *Writer) Bytes() []byte {
	return w.buf
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int {
	return len(w.buf)
}

// WriteBytes appends raw bytes verbatim, with no length prefix.
func (w *Writer) WriteBytes(b []byte) {
	if w.Err != nil {
		return
	}
	w.buf = append(w.buf, b...)
}

// WriteU8LE appends a single byte.
func (w *Writer) WriteU8LE(v uint8) {
	w.WriteBytes([]byte{v})
}

// WriteU16LE appends a 16-bit little-endian integer.
func (w *Writer) WriteU16LE(v uint16) {
	if w.Err != nil {
		return
	}
	var b [2]byte
	binary.LittleEndian.PutUint16(b[:], v)
	w.WriteBytes(b[:])
}

// WriteU32LE appends a 32-bit little-endian integer.
func (w *Writer) WriteU32LE(v uint32) {
	if w.Err != nil {
		return
	}
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.WriteBytes(b[:])
}

// WriteU64LE appends a 64-bit little-endian integer.
func (w *Writer) WriteU64LE(v uint64) {
	if w.Err != nil {
		return
	}
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.WriteBytes(b[:])
}

// WriteI16LE, WriteI32LE, WriteI64LE write the signed counterparts using
// the same bit pattern as their unsigned siblings.
func (w *Writer) WriteI16LE(v int16) { w.WriteU16LE(uint16(v)) }
func (w *Writer) WriteI32LE(v int32) { w.WriteU32LE(uint32(v)) }
func (w *Writer) WriteI64LE(v int64) { w.WriteU64LE(uint64(v)) }

// WriteBool writes a boolean as a single 0x00/0x01 byte.
func (w *Writer) WriteBool(v bool) {
	if v {
		w.WriteU8LE(1)
		return
	}
	w.WriteU8LE(0)
}

// WriteVarBytes writes a u32 length prefix followed by the bytes
// themselves (§4.1 "length-prefixed byte strings").
func (w *Writer) WriteVarBytes(b []byte) {
	if w.Err != nil {
		return
	}
	w.WriteU32LE(uint32(len(b)))
	w.WriteBytes(b)
}

// WriteString writes a UTF-8 string as a length-prefixed byte string.
func (w *Writer) WriteString(s string) {
	w.WriteVarBytes([]byte(s))
}

// WriteTo flushes the accumulated buffer to dst. It is the only place
// this package performs real I/O; everything above it builds the buffer
// in memory first, matching the teacher's BufBinWriter/Program.serialize
// split between "build bytes" and "flush bytes".
func (w *Writer) WriteTo(dst io.Writer) error {
	if w.Err != nil {
		return fmt.Errorf("cannot flush writer in error state: %w", w.Err)
	}
	_, err := dst.Write(w.buf)
	return err
}
