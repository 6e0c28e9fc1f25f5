package bytecode

import (
	"fmt"

	"github.com/Gregofi/cacom/ast"
	"github.com/Gregofi/cacom/binio"
)

// Encode writes one fully jump-resolved instruction to w in the wire
// format §4.8/§6.2 specify: a single opcode tag byte, then its operands,
// then its SourceSpan as two little-endian values. Encode must never be
// called with a Label/JmpLabel/BranchLabel/BranchLabelFalse instruction
// (invariant I5) — callers always run the jump resolution pass first.
func (in Instruction) Encode(w *binio.Writer) {
	w.WriteU8LE(byte(in.Op))
	switch in.Op {
	case OpPushShort, OpGetLocal, OpSetLocal, OpJmpShort, OpBranchShort, OpBranchFalseShort:
		w.WriteU16LE(uint16(in.Operand))
	case OpPushInt, OpPushLiteral, OpGetGlobal, OpSetGlobal, OpDeclValGlobal,
		OpDeclVarGlobal, OpJmp, OpBranch, OpBranchFalse, OpNewObject,
		OpGetMember, OpSetMember:
		w.WriteU32LE(uint32(in.Operand))
	case OpPushLong, OpJmpLong, OpBranchLong, OpBranchFalseLong:
		w.WriteU64LE(uint64(in.Operand))
	case OpPushBool:
		w.WriteBool(in.Operand != 0)
	case OpCallFunc, OpPrint, OpDropn:
		w.WriteU8LE(byte(in.Operand))
	case OpDispatchMethod:
		w.WriteU32LE(uint32(in.Operand))
		w.WriteU8LE(in.Arg)
	case OpRet, OpDrop, OpDup, OpPushNone,
		OpIadd, OpIsub, OpImul, OpIdiv, OpMod, OpIand, OpIor,
		OpIless, OpIlesseq, OpIgreater, OpIgreatereq, OpIeq, OpIneg, OpNeq:
		// no operand
	default:
		w.Err = fmt.Errorf("bytecode: cannot encode opcode %s", in.Op)
		return
	}
	w.WriteU64LE(uint64(in.Span.Start))
	w.WriteU64LE(uint64(in.Span.End))
}

// DecodeInstruction reads one instruction back from r, the inverse of
// Encode. Used by the round-trip property test (P6).
func DecodeInstruction(r *binio.Reader) Instruction {
	op := Opcode(r.ReadU8LE())
	var in Instruction
	in.Op = op
	switch op {
	case OpPushShort:
		in.Operand = int64(r.ReadI16LE())
	case OpGetLocal, OpSetLocal, OpJmpShort, OpBranchShort, OpBranchFalseShort:
		in.Operand = int64(r.ReadU16LE())
	case OpPushInt:
		in.Operand = int64(r.ReadI32LE())
	case OpPushLiteral, OpGetGlobal, OpSetGlobal, OpDeclValGlobal,
		OpDeclVarGlobal, OpJmp, OpBranch, OpBranchFalse, OpNewObject,
		OpGetMember, OpSetMember:
		in.Operand = int64(r.ReadU32LE())
	case OpPushLong, OpJmpLong, OpBranchLong, OpBranchFalseLong:
		in.Operand = int64(r.ReadU64LE())
	case OpPushBool:
		if r.ReadBool() {
			in.Operand = 1
		}
	case OpCallFunc, OpPrint, OpDropn:
		in.Operand = int64(r.ReadU8LE())
	case OpDispatchMethod:
		in.Operand = int64(r.ReadU32LE())
		in.Arg = r.ReadU8LE()
	case OpRet, OpDrop, OpDup, OpPushNone,
		OpIadd, OpIsub, OpImul, OpIdiv, OpMod, OpIand, OpIor,
		OpIless, OpIlesseq, OpIgreater, OpIgreatereq, OpIeq, OpIneg, OpNeq:
		// no operand
	default:
		r.Err = fmt.Errorf("bytecode: cannot decode opcode 0x%02x", byte(op))
		return in
	}
	start := int(r.ReadU64LE())
	end := int(r.ReadU64LE())
	in.Span = ast.NewSpan(start, end)
	return in
}

// EncodeCode writes a Code buffer's instruction count followed by each
// instruction in order (§6.2 "Code layout").
func EncodeCode(w *binio.Writer, code *Code) {
	instrs := code.Instructions()
	w.WriteU32LE(uint32(len(instrs)))
	for _, in := range instrs {
		in.Encode(w)
	}
}

// DecodeCode reads a Code buffer back, the inverse of EncodeCode.
func DecodeCode(r *binio.Reader) *Code {
	count := r.ReadU32LE()
	code := NewCode()
	instrs := make([]Instruction, 0, count)
	for i := uint32(0); i < count && r.Err == nil; i++ {
		instrs = append(instrs, DecodeInstruction(r))
	}
	code.Replace(instrs)
	return code
}
