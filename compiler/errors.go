package compiler

import (
	"errors"
	"fmt"

	"github.com/Gregofi/cacom/ast"
)

// Sentinel error kinds (§7). Each is wrapped into a *CompileError at the
// call site the way the teacher wraps its own sentinels
// (pkg/compiler/analysis.go: `fmt.Errorf("%w: %s", ErrX, detail)`),
// so callers can match with errors.Is(err, compiler.ErrImmutable) etc.
var (
	// ErrRedefinition: a local name is already bound in the innermost
	// scope (Environment.add_local, §4.2).
	ErrRedefinition = errors.New("name already bound in this scope")

	// ErrImmutable: assignment to a name bound with val semantics.
	ErrImmutable = errors.New("cannot assign to an immutable binding")

	// ErrArityMismatch: an operator was applied with the wrong number
	// of arguments (invariant I6).
	ErrArityMismatch = errors.New("operator arity mismatch")

	// ErrUnsupported: an AST form the current compiler does not lower
	// (§4.6: While, Return, AssignIndex, List, AccessIndex, Float,
	// nested functions/classes, and every class member other than a
	// method, fields included).
	ErrUnsupported = errors.New("unsupported construct")

	// ErrPoolOverflow: a constant-pool index, local slot, or arg count
	// would overflow its wire width (u32/u16/u8 respectively).
	ErrPoolOverflow = errors.New("overflow")

	// ErrInvariantViolation: a label was undefined at resolution time,
	// or an instruction handed to the jump pass isn't a jump. These
	// indicate bugs in the compiler itself, not in the compiled source.
	ErrInvariantViolation = errors.New("compiler invariant violated")
)

// CompileError wraps a sentinel error kind with the offending source
// span and, for ErrUnsupported, the name of the construct. It implements
// Unwrap so errors.Is/errors.As see through to the sentinel.
type CompileError struct {
	Kind  error
	Span  ast.Span
	Msg   string
}

func (e *CompileError) Error() string {
	if e.Msg == "" {
		return fmt.Sprintf("%v at [%d,%d)", e.Kind, e.Span.Start, e.Span.End)
	}
	return fmt.Sprintf("%v: %s at [%d,%d)", e.Kind, e.Msg, e.Span.Start, e.Span.End)
}

// Unwrap exposes the sentinel kind to errors.Is/errors.As.
func (e *CompileError) Unwrap() error {
	return e.Kind
}

func newError(kind error, span ast.Span, msg string) *CompileError {
	return &CompileError{Kind: kind, Span: span, Msg: msg}
}

func errRedefinition(span ast.Span, name string) error {
	return newError(ErrRedefinition, span, fmt.Sprintf("%q", name))
}

func errImmutable(span ast.Span, name string) error {
	return newError(ErrImmutable, span, fmt.Sprintf("%q", name))
}

func errArityMismatch(span ast.Span, op ast.Op, want, got int) error {
	return newError(ErrArityMismatch, span, fmt.Sprintf("%s wants %d argument(s), got %d", op, want, got))
}

func errUnsupported(span ast.Span, construct string) error {
	return newError(ErrUnsupported, span, construct)
}

func errPoolOverflow(span ast.Span, detail string) error {
	return newError(ErrPoolOverflow, span, detail)
}

func errInvariant(span ast.Span, detail string) error {
	return newError(ErrInvariantViolation, span, detail)
}
