// Package image serializes a finished compilation (a constant pool plus
// its entry-point index) into the flat binary format §6.2 specifies, and
// parses it back. It is the last stage of the pipeline: Compile produces
// an *object.ConstantPool in memory, Write puts it on the wire.
//
// Grounded on the teacher's pkg/compiler/program.go Bytes() /
// pkg/io.BinWriter split between "build an in-memory buffer" and "flush
// it", generalized from a single contiguous script to the constant
// pool's tagged, heterogeneous entries.
package image

import (
	"fmt"
	"io"
	"math"

	"github.com/Gregofi/cacom/binio"
	"github.com/Gregofi/cacom/bytecode"
	"github.com/Gregofi/cacom/object"
)

// ErrTruncated is returned by Read when the input ends before a complete
// image has been parsed.
var ErrTruncated = fmt.Errorf("image: truncated or malformed input")

// Write serializes pool and entryPoint to w in the §6.2 layout:
//
//	u32 pool_count
//	pool_count x ConstantObject record (tag byte + payload)
//	u32 entry_point_index
//
// A Function record's payload is: u32 name_index, u8 arity, u16
// locals_cnt, then its Code (u32 instruction_count, per-instruction
// records). A Class record's payload is: u32 name_index, u16
// method_count, method_count x u32 method index (the pool index of each
// method's own Function record); the method Function records are not
// repeated inside the Class record. A String record's
// payload is a length-prefixed UTF-8 byte string.
func Write(w io.Writer, pool *object.ConstantPool, entryPoint uint32) error {
	bw := binio.NewWriter()
	writePool(bw, pool)
	bw.WriteU32LE(entryPoint)
	if bw.Err != nil {
		return bw.Err
	}
	return bw.WriteTo(w)
}

func writePool(bw *binio.Writer, pool *object.ConstantPool) {
	entries := pool.Entries()
	bw.WriteU32LE(uint32(len(entries)))
	for _, entry := range entries {
		writeObject(bw, entry)
	}
}

func writeObject(bw *binio.Writer, obj object.Object) {
	bw.WriteU8LE(byte(obj.Tag()))
	switch o := obj.(type) {
	case object.String:
		bw.WriteString(o.Value)
	case object.Function:
		writeFunction(bw, o)
	case object.Class:
		writeClass(bw, o)
	default:
		bw.Err = fmt.Errorf("image: unknown constant pool object %T", obj)
	}
}

func writeFunction(bw *binio.Writer, fn object.Function) {
	bw.WriteU32LE(fn.NameIndex)
	bw.WriteU8LE(fn.Arity)
	bw.WriteU16LE(fn.LocalsCnt)
	bytecode.EncodeCode(bw, fn.Body)
}

func writeClass(bw *binio.Writer, cls object.Class) {
	bw.WriteU32LE(cls.NameIndex)
	if len(cls.MethodIndices) > math.MaxUint16 {
		bw.Err = fmt.Errorf("image: class %d has too many methods", cls.NameIndex)
		return
	}
	bw.WriteU16LE(uint16(len(cls.MethodIndices)))
	for _, idx := range cls.MethodIndices {
		bw.WriteU32LE(idx)
	}
}

// Read parses an image previously produced by Write, returning the
// reconstructed constant pool and entry-point index. Used by the
// round-trip property test (P6): Read(Write(pool, entry)) reproduces an
// equivalent pool and the same entry index.
func Read(r io.Reader) (*object.ConstantPool, uint32, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, 0, err
	}
	br := binio.NewReader(buf)

	pool := readPool(br)
	entryPoint := br.ReadU32LE()
	if br.Err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrTruncated, br.Err)
	}
	return pool, entryPoint, nil
}

func readPool(br *binio.Reader) *object.ConstantPool {
	pool := object.NewConstantPool()
	count := br.ReadU32LE()
	for i := uint32(0); i < count && br.Err == nil; i++ {
		obj := readObject(br)
		if br.Err != nil {
			return pool
		}
		// Re-inserting via Add preserves index order because entries
		// were written in the same insertion order Add originally
		// assigned them; string dedup (invariant I2) is a no-op here
		// since no two written String entries ever shared a value.
		if _, err := pool.Add(obj); err != nil {
			br.Err = err
			return pool
		}
	}
	return pool
}

func readObject(br *binio.Reader) object.Object {
	tag := object.Tag(br.ReadU8LE())
	switch tag {
	case object.TagString:
		return object.String{Value: br.ReadString()}
	case object.TagFunction:
		return readFunction(br)
	case object.TagClass:
		return readClass(br)
	default:
		br.Err = fmt.Errorf("image: unknown constant pool tag 0x%02x", byte(tag))
		return nil
	}
}

func readFunction(br *binio.Reader) object.Function {
	nameIdx := br.ReadU32LE()
	arity := br.ReadU8LE()
	localsCnt := br.ReadU16LE()
	body := bytecode.DecodeCode(br)
	return object.Function{
		NameIndex: nameIdx,
		Arity:     arity,
		LocalsCnt: localsCnt,
		Body:      body,
	}
}

func readClass(br *binio.Reader) object.Class {
	nameIdx := br.ReadU32LE()
	methodCnt := br.ReadU16LE()
	methods := make([]uint32, 0, methodCnt)
	for i := uint16(0); i < methodCnt && br.Err == nil; i++ {
		methods = append(methods, br.ReadU32LE())
	}
	return object.Class{NameIndex: nameIdx, MethodIndices: methods}
}
