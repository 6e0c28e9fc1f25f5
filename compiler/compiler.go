// Package compiler lowers a Camel AST (package ast) into Caby bytecode:
// the recursive expression/statement visitor, the scope/environment
// manager, the label generator, the jump resolution pass, and the
// sentinel error taxonomy described by SPEC_FULL §4 and §7.
//
// Grounded throughout on the teacher's pkg/compiler (a Go-source-to-NeoVM
// bytecode compiler): the overall shape of a single mutable Compiler
// state threaded through a recursive lowering walk, the scope-stack
// Environment (vars.go), the symbolic label generator (codegen.go
// newLabel/newNamedLabel), and the two-pass jump resolution (codegen.go
// writeJumps / program.go Bytes). The teacher compiles real Go source via
// go/ast; Camel's AST (package ast) is our own, purpose-built sum type,
// so the node-by-node lowering rules come from spec.md §4.5/§4.6 rather
// than from go/ast's shape.
package compiler

import (
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Gregofi/cacom/ast"
	"github.com/Gregofi/cacom/bytecode"
	"github.com/Gregofi/cacom/object"
)

// mainFunctionName is the reserved name of the synthesized entry-point
// function (§6.1).
const mainFunctionName = "#main"

// printBuiltin is the reserved free-function name CallFunction treats
// specially, emitting Print instead of a global lookup + CallFunc (§4.5).
const printBuiltin = "print"

// Options configures a Compiler. Every field is optional; the zero value
// is a valid, fully functional configuration.
type Options struct {
	// Logger receives debug-level structured trace events (scope
	// entry/exit, label creation, jump resolution). A nil Logger is
	// replaced with zap.NewNop() so call sites never need a nil check.
	Logger *zap.Logger
}

// Compiler holds all of the mutable state a single compilation threads
// through its recursive lowering walk (§3 data model, §5 concurrency
// model: one Compiler belongs to exactly one compilation, mutated
// synchronously, never shared across goroutines).
type Compiler struct {
	// ID identifies one compilation; Compile logs it with its "compile
	// start" debug event. It is not attached to CompileError values or to
	// the other log events, and is never serialized into the image
	// (SPEC_FULL §3).
	ID uuid.UUID

	pool     *object.ConstantPool
	location LocationKind
	env      *Environment // non-nil only while location == LocationLocal
	labels   labelGen

	localCount uint16
	localMax   uint16

	logger *zap.Logger
}

// New constructs a Compiler ready to compile a single Top AST.
func New(opts Options) *Compiler {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Compiler{
		ID:       uuid.New(),
		pool:     object.NewConstantPool(),
		location: LocationGlobal,
		logger:   logger,
	}
}

// Compile lowers top into bytecode and returns the finished constant
// pool together with the constant-pool index of the synthesized "#main"
// entry-point function (§6.1). top must be the AST's root; any other
// node is a caller bug (§6.1 preconditions), not a recoverable error, so
// it is the parser/driver's job to never call Compile with anything else.
func (c *Compiler) Compile(top *ast.Top) (*object.ConstantPool, uint32, error) {
	c.logger.Debug("compile start", zap.String("compilation_id", c.ID.String()))

	nameIdx, err := c.pool.AddString(mainFunctionName)
	if err != nil {
		return nil, 0, errPoolOverflow(top.Span(), "interning \"#main\"")
	}

	body := bytecode.NewCode()
	for _, stmt := range top.Statements {
		if err := c.compileStmt(body, stmt); err != nil {
			return nil, 0, err
		}
	}
	if last, ok := body.Last(); !ok || last.Op != bytecode.OpRet {
		body.Add(bytecode.OpRet, top.Span())
	}

	resolved, err := resolveJumps(body, c.logger)
	if err != nil {
		return nil, 0, err
	}

	fn := object.Function{
		NameIndex: nameIdx,
		Arity:     0,
		LocalsCnt: c.localMax,
		Body:      resolved,
	}
	entryIdx, err := c.pool.Add(fn)
	if err != nil {
		return nil, 0, errPoolOverflow(top.Span(), "interning \"#main\" function entry")
	}

	c.logger.Debug("compile done", zap.Uint32("entry_point", entryIdx), zap.Int("pool_size", c.pool.Len()))
	return c.pool, entryIdx, nil
}
