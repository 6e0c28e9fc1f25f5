package compiler

import (
	"math"

	"go.uber.org/zap"

	"github.com/Gregofi/cacom/ast"
	"github.com/Gregofi/cacom/bytecode"
)

// operatorArity is the arity table invariant I6 checks against, grounded
// on the original prototype's check_operator_arity (original_source/
// Cacom/src/compiler.rs), extended with the comparison/unary forms
// spec.md's Opcode enum adds beyond the prototype's four arithmetic ops.
var operatorArity = map[ast.Op]int{
	ast.OpAdd:        2,
	ast.OpSub:        2,
	ast.OpMul:        2,
	ast.OpDiv:        2,
	ast.OpMod:        2,
	ast.OpLess:       2,
	ast.OpLessEq:     2,
	ast.OpGreater:    2,
	ast.OpGreaterEq:  2,
	ast.OpEq:         2,
	ast.OpNeq:        2,
	ast.OpNegate:     1,
}

var operatorOpcode = map[ast.Op]bytecode.Opcode{
	ast.OpAdd:       bytecode.OpIadd,
	ast.OpSub:       bytecode.OpIsub,
	ast.OpMul:       bytecode.OpImul,
	ast.OpDiv:       bytecode.OpIdiv,
	ast.OpMod:       bytecode.OpMod,
	ast.OpLess:      bytecode.OpIless,
	ast.OpLessEq:    bytecode.OpIlesseq,
	ast.OpGreater:   bytecode.OpIgreater,
	ast.OpGreaterEq: bytecode.OpIgreatereq,
	ast.OpEq:        bytecode.OpIeq,
	ast.OpNeq:       bytecode.OpNeq,
	ast.OpNegate:    bytecode.OpIneg,
}

// compileExpr lowers expr into code, leaving exactly one value on the
// operand stack unless drop is true (in which case a Drop is emitted
// after the value-producing sequence) — property P1, §4.5.
func (c *Compiler) compileExpr(code *bytecode.Code, expr ast.Expression, drop bool) error {
	switch e := expr.(type) {
	case *ast.Integer:
		code.AddOperand(bytecode.OpPushInt, int64(e.Value), e.Span())

	case *ast.Bool:
		v := int64(0)
		if e.Value {
			v = 1
		}
		code.AddOperand(bytecode.OpPushBool, v, e.Span())

	case *ast.None:
		code.Add(bytecode.OpPushNone, e.Span())

	case *ast.Float:
		return errUnsupported(e.Span(), "Float literal")

	case *ast.String:
		idx, err := c.pool.AddString(e.Value)
		if err != nil {
			return errPoolOverflow(e.Span(), "interning string literal")
		}
		code.AddOperand(bytecode.OpPushLiteral, int64(idx), e.Span())

	case *ast.Block:
		if err := c.compileBlock(code, e, drop); err != nil {
			return err
		}
		return nil // compileBlock already honored drop

	case *ast.AccessVar:
		if err := c.compileAccessVar(code, e); err != nil {
			return err
		}

	case *ast.CallFunction:
		if err := c.compileCallFunction(code, e); err != nil {
			return err
		}

	case *ast.MethodCall:
		for i := len(e.Arguments) - 1; i >= 0; i-- {
			if err := c.compileExpr(code, e.Arguments[i], false); err != nil {
				return err
			}
		}
		if err := c.compileExpr(code, e.Receiver, false); err != nil {
			return err
		}
		nameIdx, err := c.pool.AddString(e.Name)
		if err != nil {
			return errPoolOverflow(e.Span(), "interning method name")
		}
		if len(e.Arguments) > math.MaxUint8 {
			return errPoolOverflow(e.Span(), "too many arguments to method call")
		}
		code.AddTwoOperand(bytecode.OpDispatchMethod, int64(nameIdx), byte(len(e.Arguments)), e.Span())

	case *ast.MemberRead:
		if err := c.compileExpr(code, e.Object, false); err != nil {
			return err
		}
		idx, err := c.pool.AddString(e.Field)
		if err != nil {
			return errPoolOverflow(e.Span(), "interning field name")
		}
		code.AddOperand(bytecode.OpGetMember, int64(idx), e.Span())

	case *ast.Conditional:
		if err := c.compileConditional(code, e); err != nil {
			return err
		}

	case *ast.Operator:
		if err := c.compileOperator(code, e); err != nil {
			return err
		}

	case *ast.List:
		return errUnsupported(e.Span(), "List expression")

	case *ast.AccessIndex:
		return errUnsupported(e.Span(), "index access")

	default:
		return errUnsupported(expr.Span(), "unknown expression node")
	}

	code.AddCond(bytecode.OpDrop, drop, expr.Span())
	return nil
}

// compileBlock lowers a Block: enter_scope, compile each statement,
// compile the trailing expression (or push None if there is none), then
// leave_scope, releasing exactly the bindings the scope owned
// (invariant I4). §4.5.
func (c *Compiler) compileBlock(code *bytecode.Code, b *ast.Block, drop bool) error {
	inScope := c.location != LocationGlobal
	if inScope {
		c.env.EnterScope()
		c.logger.Debug("enter scope", zapDepth(c.env))
	}

	for _, stmt := range b.Statements {
		if err := c.compileStmt(code, stmt); err != nil {
			if inScope {
				c.leaveScope()
			}
			return err
		}
	}

	if b.Trailing != nil {
		if err := c.compileExpr(code, b.Trailing, false); err != nil {
			if inScope {
				c.leaveScope()
			}
			return err
		}
	} else {
		code.Add(bytecode.OpPushNone, b.Span())
	}

	if inScope {
		c.leaveScope()
	}
	code.AddCond(bytecode.OpDrop, drop, b.Span())
	return nil
}

// leaveScope pops the innermost Environment scope and releases the
// locals it owned from localCount (invariant I4).
func (c *Compiler) leaveScope() {
	released := c.env.LeaveScope()
	c.localCount -= uint16(released)
	c.logger.Debug("leave scope", zapDepth(c.env))
}

func (c *Compiler) compileAccessVar(code *bytecode.Code, e *ast.AccessVar) error {
	if c.location != LocationGlobal {
		if l, ok := c.env.FetchLocal(e.Name); ok {
			code.AddOperand(bytecode.OpGetLocal, int64(l.Slot), e.Span())
			return nil
		}
	}
	idx, err := c.pool.AddString(e.Name)
	if err != nil {
		return errPoolOverflow(e.Span(), "interning global name")
	}
	code.AddOperand(bytecode.OpGetGlobal, int64(idx), e.Span())
	return nil
}

func (c *Compiler) compileCallFunction(code *bytecode.Code, e *ast.CallFunction) error {
	for i := len(e.Arguments) - 1; i >= 0; i-- {
		if err := c.compileExpr(code, e.Arguments[i], false); err != nil {
			return err
		}
	}
	if len(e.Arguments) > math.MaxUint8 {
		return errPoolOverflow(e.Span(), "too many arguments to call")
	}
	if e.Name == printBuiltin {
		code.AddOperand(bytecode.OpPrint, int64(len(e.Arguments)), e.Span())
		return nil
	}
	idx, err := c.pool.AddString(e.Name)
	if err != nil {
		return errPoolOverflow(e.Span(), "interning function name")
	}
	code.AddOperand(bytecode.OpGetGlobal, int64(idx), e.Span())
	code.AddOperand(bytecode.OpCallFunc, int64(len(e.Arguments)), e.Span())
	return nil
}

// compileConditional lowers the guard/then/else triple, always leaving
// exactly one merged value on the stack at Label(L_end) regardless of
// whether the caller ultimately wants it dropped: both branches compile
// with drop=false (a missing else pushes None instead), and the caller's
// drop request is honored once, by the generic trailing-Drop logic in
// compileExpr, after the whole Conditional returns.
func (c *Compiler) compileConditional(code *bytecode.Code, e *ast.Conditional) error {
	lElse := c.labels.next("L_else")
	lEnd := c.labels.next("L_end")
	c.logger.Debug("new labels", zap.String("else", lElse), zap.String("end", lEnd))

	if err := c.compileExpr(code, e.Guard, false); err != nil {
		return err
	}
	code.AddLabel(bytecode.OpBranchLabelFalse, lElse, e.Span())

	if err := c.compileExpr(code, e.Then, false); err != nil {
		return err
	}
	code.AddLabel(bytecode.OpJmpLabel, lEnd, e.Span())

	code.AddLabel(bytecode.OpLabel, lElse, e.Span())
	if e.Else != nil {
		if err := c.compileExpr(code, e.Else, false); err != nil {
			return err
		}
	} else {
		code.Add(bytecode.OpPushNone, e.Span())
	}
	code.AddLabel(bytecode.OpLabel, lEnd, e.Span())
	return nil
}

// compileOperator compiles its arguments in SOURCE order (left operand
// first), unlike CallFunction/MethodCall's reverse-order argument
// compilation: Iadd/Isub/Iless/etc. are non-commutative and expect the
// left operand pushed first so the runtime's pop-right-then-left
// convention recovers `a OP b`, not `b OP a` — confirmed by spec.md's own
// S2 scenario (`x + 3` compiles to GetGlobal{"x"}, PushInt(3), Iadd: the
// left operand first), which takes precedence over §4.5's general
// "compile arguments in reverse order" line (that line describes
// CallFunction/MethodCall's calling convention, not Operator's).
func (c *Compiler) compileOperator(code *bytecode.Code, e *ast.Operator) error {
	want, ok := operatorArity[e.Op]
	if !ok {
		return errUnsupported(e.Span(), "operator "+e.Op.String())
	}
	if want != len(e.Arguments) {
		return errArityMismatch(e.Span(), e.Op, want, len(e.Arguments))
	}
	for _, arg := range e.Arguments {
		if err := c.compileExpr(code, arg, false); err != nil {
			return err
		}
	}
	code.Add(operatorOpcode[e.Op], e.Span())
	return nil
}
