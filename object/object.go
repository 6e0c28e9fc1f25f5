// Package object holds the constant pool: the append-only, ordered table
// of tagged objects (strings, functions, classes) referenced by bytecode
// through 32-bit indices (§4.1, data model §3, invariants I1/I2).
//
// Grounded on the original Rust prototype's ConstantPool/Object
// (original_source/Cacom/src/objects.rs), upgraded from its O(n) linear
// `data.contains(&obj)` dedup scan to a side index the way a production
// Go port would, per SPEC_FULL §4.1.
package object

import (
	"fmt"
	"math"

	"github.com/Gregofi/cacom/bytecode"
)

// Tag is the stable tag byte written before each ConstantObject record
// (§6.2).
type Tag byte

const (
	TagFunction Tag = 0x00
	TagString   Tag = 0x01
	TagClass    Tag = 0x02
)

// Object is the interface every constant-pool entry implements. It exists
// only to let ConstantPool hold a single ordered slice of heterogeneous
// entries; callers type-switch on the concrete types below.
type Object interface {
	Tag() Tag
}

// String is an interned UTF-8 string. Two String entries with equal
// Value are always the same pool entry (invariant I2).
type String struct {
	Value string
}

// Tag identifies the object kind for serialization.
func (String) Tag() Tag { return TagString }

// Function is a compiled function body: its name (itself a String pool
// index), its declared arity, its locals high-water mark, and its
// jump-resolved code. Functions are never deduplicated (invariant I2):
// two functions with identical bodies still get distinct pool entries.
type Function struct {
	NameIndex uint32
	Arity     uint8
	LocalsCnt uint16
	Body      *bytecode.Code
}

// Tag identifies the object kind for serialization.
func (Function) Tag() Tag { return TagFunction }

// Class is a synthesized class record: its name (a String pool index)
// and the pool indices of its compiled methods (each a Function entry).
// Classes, like functions, are never deduplicated.
type Class struct {
	NameIndex     uint32
	MethodIndices []uint32
}

// Tag identifies the object kind for serialization.
func (Class) Tag() Tag { return TagClass }

// ErrPoolOverflow is returned by Add when appending would push the pool
// past the 32-bit index space §4.1 allows.
var ErrPoolOverflow = fmt.Errorf("constant pool overflow: cannot exceed %d entries", math.MaxUint32)

// ConstantPool is the ordered, append-only table described by §4.1.
// Indices are stable for the life of a compilation (§5) and are handed
// out in insertion order.
type ConstantPool struct {
	entries   []Object
	stringIdx map[string]uint32
}

// NewConstantPool returns an empty pool.
func NewConstantPool() *ConstantPool {
	return &ConstantPool{stringIdx: make(map[string]uint32)}
}

// Add appends obj and returns its index, except when obj is a String
// equal (byte-for-byte) to one already present, in which case the
// existing index is returned unchanged (invariant I2, property P4).
// Functions and Classes are appended unconditionally.
func (p *ConstantPool) Add(obj Object) (uint32, error) {
	if s, ok := obj.(String); ok {
		if idx, ok := p.stringIdx[s.Value]; ok {
			return idx, nil
		}
	}
	if uint64(len(p.entries)) >= uint64(math.MaxUint32) {
		return 0, ErrPoolOverflow
	}
	idx := uint32(len(p.entries))
	p.entries = append(p.entries, obj)
	if s, ok := obj.(String); ok {
		p.stringIdx[s.Value] = idx
	}
	return idx, nil
}

// AddString is a convenience wrapper interning a raw Go string.
func (p *ConstantPool) AddString(s string) (uint32, error) {
	return p.Add(String{Value: s})
}

// Get returns the entry at idx. It panics on an out-of-range index:
// every index embedded in bytecode is expected to have come from this
// same pool (invariant I1), so an out-of-range lookup is a compiler bug,
// not a recoverable runtime condition.
func (p *ConstantPool) Get(idx uint32) Object {
	return p.entries[idx]
}

// Len returns the number of entries currently in the pool.
func (p *ConstantPool) Len() int {
	return len(p.entries)
}

// Entries returns the pool's entries in insertion order. The returned
// slice must be treated as read-only.
func (p *ConstantPool) Entries() []Object {
	return p.entries
}
