package bytecode

import "github.com/Gregofi/cacom/ast"

// Code is an append-only, ordered sequence of instructions produced while
// lowering a single function (or the top-level "#main" body). It is
// grounded on the original Rust prototype's Code (`insert_point:
// Vec<Bytecode>`, `add`/`add_cond`/`len`) rather than the teacher's
// container/list-backed `program` type (pkg/compiler/program.go):
// a slice is sufficient here because a Code buffer is only ever appended
// to and then walked front-to-back exactly once, by the jump resolution
// pass (§4.7).
type Code struct {
	instructions []Instruction
}

// NewCode returns an empty instruction buffer.
func NewCode() *Code {
	return &Code{}
}

// Add appends a bare instruction with no operand.
func (c *Code) Add(op Opcode, span ast.Span) {
	c.instructions = append(c.instructions, Instruction{Op: op, Span: span})
}

// AddOperand appends an instruction carrying a single numeric operand
// (a constant-pool index, a local slot, an arg count, ...).
func (c *Code) AddOperand(op Opcode, operand int64, span ast.Span) {
	c.instructions = append(c.instructions, Instruction{Op: op, Operand: operand, Span: span})
}

// AddTwoOperand appends an instruction carrying both a primary operand
// (e.g. a name index) and a secondary byte operand (e.g. an arg count),
// as DispatchMethod requires.
func (c *Code) AddTwoOperand(op Opcode, operand int64, arg byte, span ast.Span) {
	c.instructions = append(c.instructions, Instruction{Op: op, Operand: operand, Arg: arg, Span: span})
}

// AddLabel appends a Label pseudo-op marking a jump target, or a symbolic
// JmpLabel/BranchLabel/BranchLabelFalse referencing one.
func (c *Code) AddLabel(op Opcode, name string, span ast.Span) {
	c.instructions = append(c.instructions, Instruction{Op: op, Label: name, Span: span})
}

// AddCond appends a bare instruction only when cond is true. Mirrors the
// original prototype's `Code::add_cond`, used by the compiler to emit a
// trailing Drop only when the caller requested drop=true (§4.5).
func (c *Code) AddCond(op Opcode, cond bool, span ast.Span) {
	if cond {
		c.Add(op, span)
	}
}

// Len returns the number of instructions currently buffered.
func (c *Code) Len() int {
	return len(c.instructions)
}

// Last returns the final instruction and true, or the zero Instruction
// and false if the buffer is empty. Used by FunctionDef lowering to check
// whether the body already ends in Ret (§4.6).
func (c *Code) Last() (Instruction, bool) {
	if len(c.instructions) == 0 {
		return Instruction{}, false
	}
	return c.instructions[len(c.instructions)-1], true
}

// Instructions returns the buffered instructions in order. The returned
// slice must be treated as read-only by callers outside this package.
func (c *Code) Instructions() []Instruction {
	return c.instructions
}

// Replace overwrites the buffer's contents, used by the jump resolution
// pass (§4.7) to install the label-free, offset-resolved instruction
// stream in place.
func (c *Code) Replace(instrs []Instruction) {
	c.instructions = instrs
}
