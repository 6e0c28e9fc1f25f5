package bytecode

import "github.com/Gregofi/cacom/ast"

// Instruction is one entry of a Code buffer: an opcode variant plus the
// source span of the AST node that produced it (§3). Operand carries the
// instruction's primary numeric operand (a constant-pool index, a local
// slot, a jump target); Arg carries a second, always-byte-sized operand
// for the one two-operand form (CallFunc/Print's arg_cnt rides alone on
// Operand; DispatchMethod needs both a name index and an arg_cnt). Label
// carries the symbolic target name for Label/JmpLabel/BranchLabel/
// BranchLabelFalse and is empty otherwise.
type Instruction struct {
	Op      Opcode
	Operand int64
	Arg     byte
	Label   string
	Span    ast.Span
}

// Size returns the instruction's length in bytes once serialized: 0 for
// the Label pseudo-op (it never reaches the image), 1 for bare opcodes,
// 1 + operand width otherwise. The jump resolution pass (§4.7) walks a
// function's Code once accumulating Size to compute absolute offsets
// before any instruction is rewritten.
func (in Instruction) Size() int {
	if in.Op == OpLabel {
		return 0
	}
	if IsJumpLabel(in.Op) {
		// Symbolic labels are always resolved to the 32-bit-offset
		// variant (policy stated in §4.7): 1 tag byte + 4-byte offset.
		return 1 + 4
	}
	return 1 + operandWidth(in.Op)
}
