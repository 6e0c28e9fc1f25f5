package compiler

import (
	"math"

	"github.com/Gregofi/cacom/ast"
	"github.com/Gregofi/cacom/bytecode"
	"github.com/Gregofi/cacom/object"
)

// compileStmt lowers stmt for effect: every statement other than
// FunctionDef/ClassDef (which push a PushLiteral+DeclValGlobal pair to
// bind the compiled function/constructor into its global name) leaves
// the operand stack unchanged (property P2, §4.6).
func (c *Compiler) compileStmt(code *bytecode.Code, stmt ast.Statement) error {
	switch s := stmt.(type) {
	case *ast.VarDecl:
		return c.compileVarDecl(code, s)

	case *ast.AssignVar:
		return c.compileAssignVar(code, s)

	case *ast.FunctionDef:
		if c.location != LocationGlobal {
			return errUnsupported(s.Span(), "nested function definition")
		}
		_, err := c.compileFunctionDef(code, s)
		return err

	case *ast.ClassDef:
		if c.location != LocationGlobal {
			return errUnsupported(s.Span(), "nested class definition")
		}
		return c.compileClassDef(code, s)

	case *ast.MemberStore:
		if err := c.compileExpr(code, s.Value, false); err != nil {
			return err
		}
		if err := c.compileExpr(code, s.Object, false); err != nil {
			return err
		}
		idx, err := c.pool.AddString(s.Field)
		if err != nil {
			return errPoolOverflow(s.Span(), "interning field name")
		}
		code.AddOperand(bytecode.OpSetMember, int64(idx), s.Span())
		return nil

	case *ast.ExpressionStmt:
		return c.compileExpr(code, s.Expr, true)

	case *ast.While:
		return errUnsupported(s.Span(), "while statement")

	case *ast.Return:
		return errUnsupported(s.Span(), "return statement")

	case *ast.AssignIndex:
		return errUnsupported(s.Span(), "index assignment")

	default:
		return errUnsupported(stmt.Span(), "unknown statement node")
	}
}

func (c *Compiler) compileVarDecl(code *bytecode.Code, s *ast.VarDecl) error {
	if err := c.compileExpr(code, s.InitExpr, false); err != nil {
		return err
	}

	if c.location == LocationGlobal {
		idx, err := c.pool.AddString(s.Name)
		if err != nil {
			return errPoolOverflow(s.Span(), "interning global name")
		}
		op := bytecode.OpDeclVarGlobal
		if !s.Mutable {
			op = bytecode.OpDeclValGlobal
		}
		code.AddOperand(op, int64(idx), s.Span())
		return nil
	}

	slot, err := c.newLocalSlot(s.Span())
	if err != nil {
		return err
	}
	if err := c.env.AddLocal(s.Span(), s.Name, slot, s.Mutable); err != nil {
		return err
	}
	code.AddOperand(bytecode.OpSetLocal, int64(slot), s.Span())
	return nil
}

// newLocalSlot allocates the next local slot, advancing localCount and
// the per-function localMax high-water mark (invariant I3).
func (c *Compiler) newLocalSlot(span ast.Span) (uint16, error) {
	if c.localCount == math.MaxUint16 {
		return 0, errPoolOverflow(span, "too many local variables in function")
	}
	slot := c.localCount
	c.localCount++
	if c.localCount > c.localMax {
		c.localMax = c.localCount
	}
	return slot, nil
}

func (c *Compiler) compileAssignVar(code *bytecode.Code, s *ast.AssignVar) error {
	if err := c.compileExpr(code, s.Value, false); err != nil {
		return err
	}

	if c.location != LocationGlobal {
		if l, ok := c.env.FetchLocal(s.Name); ok {
			if !l.Mutable {
				return errImmutable(s.Span(), s.Name)
			}
			code.AddOperand(bytecode.OpSetLocal, int64(l.Slot), s.Span())
			return nil
		}
	}

	idx, err := c.pool.AddString(s.Name)
	if err != nil {
		return errPoolOverflow(s.Span(), "interning global name")
	}
	code.AddOperand(bytecode.OpSetGlobal, int64(idx), s.Span())
	return nil
}

// compileFunctionDef lowers a function (or a class method sharing the
// same protocol) into its own Function constant-pool entry, then emits
// PushLiteral+DeclValGlobal to bind it into the global namespace (§4.6).
// It saves and restores (localCount, localMax) around the nested
// compilation the way the teacher saves/restores the enclosing
// funcScope when compiling a nested declaration.
func (c *Compiler) compileFunctionDef(outer *bytecode.Code, s *ast.FunctionDef) (uint32, error) {
	fnIdx, err := c.compileFunctionBody(s)
	if err != nil {
		return 0, err
	}

	nameIdx, err := c.pool.AddString(s.Name)
	if err != nil {
		return 0, errPoolOverflow(s.Span(), "interning function name")
	}
	outer.AddOperand(bytecode.OpPushLiteral, int64(fnIdx), s.Span())
	outer.AddOperand(bytecode.OpDeclValGlobal, int64(nameIdx), s.Span())
	return fnIdx, nil
}

// compileFunctionBody lowers a function's parameters and body into a new
// Function constant-pool entry and returns its index, without binding it
// to any global name (used for both free functions and class methods).
func (c *Compiler) compileFunctionBody(s *ast.FunctionDef) (uint32, error) {
	savedCount, savedMax, savedLoc, savedEnv := c.localCount, c.localMax, c.location, c.env
	// Restore the enclosing state on every return, error paths included.
	defer func() {
		c.localCount, c.localMax, c.location, c.env = savedCount, savedMax, savedLoc, savedEnv
	}()
	c.localCount, c.localMax = 0, 0
	c.location = LocationLocal
	c.env = NewEnvironment()
	c.env.EnterScope()

	body := bytecode.NewCode()
	for i, param := range s.Parameters {
		slot, err := c.newLocalSlot(s.Span())
		if err != nil {
			return 0, err
		}
		if err := c.env.AddLocal(s.Span(), param, slot, true); err != nil {
			return 0, err
		}
		body.AddOperand(bytecode.OpSetLocal, int64(i), s.Span())
	}

	if err := c.compileExpr(body, s.Body, false); err != nil {
		return 0, err
	}
	if last, ok := body.Last(); !ok || last.Op != bytecode.OpRet {
		body.Add(bytecode.OpRet, s.Span())
	}

	c.env.LeaveScope()
	c.location, c.env = savedLoc, savedEnv

	resolved, err := resolveJumps(body, c.logger)
	if err != nil {
		return 0, err
	}

	if len(s.Parameters) > math.MaxUint8 {
		return 0, errPoolOverflow(s.Span(), "too many parameters")
	}
	localsCnt := c.localMax
	c.localCount, c.localMax = savedCount, savedMax

	nameIdx, err := c.pool.AddString(s.Name)
	if err != nil {
		return 0, errPoolOverflow(s.Span(), "interning function name")
	}
	return c.pool.Add(object.Function{
		NameIndex: nameIdx,
		Arity:     uint8(len(s.Parameters)),
		LocalsCnt: localsCnt,
		Body:      resolved,
	})
}

// compileClassDef lowers a class: each FunctionDef member becomes a
// method sharing the outer constant pool; any other member kind is
// rejected as unsupported (§4.6 — the current compiler implements only
// method members, not fields, despite VarDecl being a legal member shape
// in the AST's data model). A default constructor is synthesized and
// bound to the class's global name the same way a free function is.
func (c *Compiler) compileClassDef(outer *bytecode.Code, s *ast.ClassDef) error {
	nameIdx, err := c.pool.AddString(s.Name)
	if err != nil {
		return errPoolOverflow(s.Span(), "interning class name")
	}

	savedLoc := c.location
	c.location = LocationClass
	var methodIndices []uint32
	for _, member := range s.Members {
		fn, ok := member.(*ast.FunctionDef)
		if !ok {
			c.location = savedLoc
			return errUnsupported(member.Span(), "non-method class member")
		}
		idx, err := c.compileFunctionBody(fn)
		if err != nil {
			c.location = savedLoc
			return err
		}
		methodIndices = append(methodIndices, idx)
	}
	c.location = savedLoc

	classIdx, err := c.pool.Add(object.Class{NameIndex: nameIdx, MethodIndices: methodIndices})
	if err != nil {
		return errPoolOverflow(s.Span(), "interning class entry")
	}

	ctorIdx, err := c.compileConstructor(s, classIdx)
	if err != nil {
		return err
	}

	outer.AddOperand(bytecode.OpPushLiteral, int64(ctorIdx), s.Span())
	outer.AddOperand(bytecode.OpDeclValGlobal, int64(nameIdx), s.Span())
	return nil
}

// compileConstructor synthesizes the default constructor body
// `NewObject(class_idx); SetLocal(0); GetLocal(0); Ret` and interns it as
// a zero-arity, zero-local Function named after the class (§4.6).
func (c *Compiler) compileConstructor(s *ast.ClassDef, classIdx uint32) (uint32, error) {
	body := bytecode.NewCode()
	body.AddOperand(bytecode.OpNewObject, int64(classIdx), s.Span())
	body.AddOperand(bytecode.OpSetLocal, 0, s.Span())
	body.AddOperand(bytecode.OpGetLocal, 0, s.Span())
	body.Add(bytecode.OpRet, s.Span())

	resolved, err := resolveJumps(body, c.logger)
	if err != nil {
		return 0, err
	}

	nameIdx, err := c.pool.AddString(s.Name)
	if err != nil {
		return 0, errPoolOverflow(s.Span(), "interning class name")
	}
	return c.pool.Add(object.Function{
		NameIndex: nameIdx,
		Arity:     0,
		LocalsCnt: 0,
		Body:      resolved,
	})
}
