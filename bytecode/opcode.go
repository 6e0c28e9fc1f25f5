// Package bytecode holds the symbolic instruction set emitted by the
// compiler and the ordered Code buffer the lowering pass appends to.
// Tag bytes here are stable wire values (§4.8, §6.2 of the image format)
// and must never be renumbered once emitted images exist.
package bytecode

// Opcode tags a symbolic instruction. The operand, when present, is
// carried on the Instruction record rather than encoded in the Opcode
// value itself.
type Opcode byte

const (
	OpPushShort    Opcode = 0x01 // i16
	OpPushInt      Opcode = 0x02 // i32
	OpPushLong     Opcode = 0x03 // i64
	OpPushBool     Opcode = 0x04 // u8
	OpPushLiteral  Opcode = 0x05 // u32 constant-pool index
	OpGetLocal     Opcode = 0x06 // u16 slot
	OpSetLocal     Opcode = 0x07 // u16 slot
	OpCallFunc     Opcode = 0x08 // u8 arg_cnt
	OpRet          Opcode = 0x09
	OpJmpShort     Opcode = 0x0A // u16
	OpJmp          Opcode = 0x0B // u32
	OpJmpLong      Opcode = 0x0C // u64
	OpBranchShort  Opcode = 0x0D // u16
	OpBranch       Opcode = 0x0E // u32
	OpBranchLong   Opcode = 0x0F // u64
	OpPrint        Opcode = 0x10 // u8 arg_cnt
	OpDrop         Opcode = 0x11
	OpDup          Opcode = 0x12
	OpGetGlobal    Opcode = 0x13 // u32 name index
	OpSetGlobal    Opcode = 0x14 // u32 name index
	OpDeclValGlobal Opcode = 0x15 // u32 name index
	OpDeclVarGlobal Opcode = 0x16 // u32 name index
	OpDropn        Opcode = 0x25 // u8
	OpPushNone     Opcode = 0x20
	OpBranchFalseShort Opcode = 0x2D // u16
	OpBranchFalse      Opcode = 0x2E // u32
	OpBranchFalseLong  Opcode = 0x2F // u64
	OpIadd      Opcode = 0x30
	OpIsub      Opcode = 0x31
	OpImul      Opcode = 0x32
	OpIdiv      Opcode = 0x33
	OpMod       Opcode = 0x34
	OpIand      Opcode = 0x35
	OpIor       Opcode = 0x36
	OpIless     Opcode = 0x37
	OpIlesseq   Opcode = 0x38
	OpIgreater  Opcode = 0x39
	OpIgreatereq Opcode = 0x3A
	OpIeq       Opcode = 0x3B
	OpIneg      Opcode = 0x3C
	OpNeq       Opcode = 0x3D
	OpNewObject Opcode = 0x60 // u32 class index
	OpGetMember Opcode = 0x61 // u32 field-name index
	OpSetMember Opcode = 0x62 // u32 field-name index
	OpDispatchMethod Opcode = 0x63 // u32 name index, u8 arg_cnt

	// OpLabel is the pseudo-op §4.7 removes before an image is ever
	// serialized. Its tag byte (0x00) must never be observed after jump
	// resolution (invariant I5, property P5).
	OpLabel Opcode = 0x00

	// symbolic-only pseudo-ops, never serialized: the jump resolution
	// pass (§4.7) rewrites these to their fixed-width counterparts
	// above before a function's code ever reaches the image serializer.
	OpJmpLabel          Opcode = 0xF0
	OpBranchLabel        Opcode = 0xF1
	OpBranchLabelFalse   Opcode = 0xF2
)

// String names an opcode for diagnostics and debug dumps.
func (op Opcode) String() string {
	switch op {
	case OpPushShort:
		return "PushShort"
	case OpPushInt:
		return "PushInt"
	case OpPushLong:
		return "PushLong"
	case OpPushBool:
		return "PushBool"
	case OpPushLiteral:
		return "PushLiteral"
	case OpGetLocal:
		return "GetLocal"
	case OpSetLocal:
		return "SetLocal"
	case OpCallFunc:
		return "CallFunc"
	case OpRet:
		return "Ret"
	case OpJmpShort:
		return "JmpShort"
	case OpJmp:
		return "Jmp"
	case OpJmpLong:
		return "JmpLong"
	case OpBranchShort:
		return "BranchShort"
	case OpBranch:
		return "Branch"
	case OpBranchLong:
		return "BranchLong"
	case OpPrint:
		return "Print"
	case OpDrop:
		return "Drop"
	case OpDup:
		return "Dup"
	case OpGetGlobal:
		return "GetGlobal"
	case OpSetGlobal:
		return "SetGlobal"
	case OpDeclValGlobal:
		return "DeclValGlobal"
	case OpDeclVarGlobal:
		return "DeclVarGlobal"
	case OpDropn:
		return "Dropn"
	case OpPushNone:
		return "PushNone"
	case OpBranchFalseShort:
		return "BranchFalseShort"
	case OpBranchFalse:
		return "BranchFalse"
	case OpBranchFalseLong:
		return "BranchFalseLong"
	case OpIadd:
		return "Iadd"
	case OpIsub:
		return "Isub"
	case OpImul:
		return "Imul"
	case OpIdiv:
		return "Idiv"
	case OpMod:
		return "Mod"
	case OpIand:
		return "Iand"
	case OpIor:
		return "Ior"
	case OpIless:
		return "Iless"
	case OpIlesseq:
		return "Ilesseq"
	case OpIgreater:
		return "Igreater"
	case OpIgreatereq:
		return "Igreatereq"
	case OpIeq:
		return "Ieq"
	case OpIneg:
		return "Ineg"
	case OpNeq:
		return "Neq"
	case OpNewObject:
		return "NewObject"
	case OpGetMember:
		return "GetMember"
	case OpSetMember:
		return "SetMember"
	case OpDispatchMethod:
		return "DispatchMethod"
	case OpLabel:
		return "Label"
	case OpJmpLabel:
		return "JmpLabel"
	case OpBranchLabel:
		return "BranchLabel"
	case OpBranchLabelFalse:
		return "BranchLabelFalse"
	default:
		return "<unknown opcode>"
	}
}

// IsJumpLabel reports whether op is one of the three symbolic-label jump
// forms the jump resolution pass (§4.7) rewrites.
func IsJumpLabel(op Opcode) bool {
	return op == OpJmpLabel || op == OpBranchLabel || op == OpBranchLabelFalse
}

// operandWidth is the number of bytes the instruction's operand occupies
// on the wire, excluding the opcode tag byte itself. Used by
// Instruction.Size (§4.4).
func operandWidth(op Opcode) int {
	switch op {
	case OpPushShort:
		return 2
	case OpPushInt, OpPushLiteral, OpGetGlobal, OpSetGlobal, OpDeclValGlobal,
		OpDeclVarGlobal, OpJmp, OpBranch, OpBranchFalse, OpNewObject,
		OpGetMember, OpSetMember:
		return 4
	case OpPushLong, OpJmpLong, OpBranchLong, OpBranchFalseLong:
		return 8
	case OpPushBool, OpCallFunc, OpPrint, OpDropn:
		return 1
	case OpGetLocal, OpSetLocal, OpJmpShort, OpBranchShort, OpBranchFalseShort:
		return 2
	case OpDispatchMethod:
		return 5 // u32 name index + u8 arg_cnt
	default:
		return 0
	}
}
