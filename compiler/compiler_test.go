package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Gregofi/cacom/ast"
	"github.com/Gregofi/cacom/bytecode"
	"github.com/Gregofi/cacom/compiler"
	"github.com/Gregofi/cacom/object"
)

var sp = ast.NewSpan(0, 1)

func ops(instrs []bytecode.Instruction) []bytecode.Opcode {
	out := make([]bytecode.Opcode, len(instrs))
	for i, in := range instrs {
		out[i] = in.Op
	}
	return out
}

func compileTop(t *testing.T, stmts []ast.Statement) (*object.ConstantPool, uint32) {
	t.Helper()
	top := ast.NewTop(sp, stmts)
	pool, entry, err := compiler.New(compiler.Options{}).Compile(top)
	require.NoError(t, err)
	return pool, entry
}

// S1: print("hi"); — pool gains "#main", "hi", Function(#main).
//
// §4.6 states ExpressionStmt always compiles with drop=true, with no
// exception for the last top-level statement (Top has no trailing_expr
// field the way Block does, §3) — so unlike spec.md's own abbreviated
// S1 bytecode listing, a Drop does appear here after Print (see
// DESIGN.md decision 9).
func TestScenarioS1Print(t *testing.T) {
	call := ast.NewCallFunction(sp, "print", []ast.Expression{ast.NewString(sp, "hi")})
	pool, entry := compileTop(t, []ast.Statement{ast.NewExpressionStmt(sp, call)})

	require.Equal(t, 3, pool.Len())
	require.Equal(t, object.String{Value: "#main"}, pool.Get(0))
	require.Equal(t, object.String{Value: "hi"}, pool.Get(1))
	require.Equal(t, uint32(2), entry)

	fn := pool.Get(2).(object.Function)
	require.Equal(t, uint32(0), fn.NameIndex)
	require.Equal(t, uint8(0), fn.Arity)
	require.Equal(t, []bytecode.Opcode{
		bytecode.OpPushLiteral, bytecode.OpPrint, bytecode.OpDrop, bytecode.OpRet,
	}, ops(fn.Body.Instructions()))
}

// S2: val x = 2; x + 3
func TestScenarioS2ValAndAdd(t *testing.T) {
	decl := ast.NewVarDecl(sp, "x", false, ast.NewInteger(sp, 2))
	add := ast.NewOperator(sp, ast.OpAdd, []ast.Expression{ast.NewAccessVar(sp, "x"), ast.NewInteger(sp, 3)})
	pool, entry := compileTop(t, []ast.Statement{decl, ast.NewExpressionStmt(sp, add)})

	require.Equal(t, object.String{Value: "#main"}, pool.Get(0))
	require.Equal(t, object.String{Value: "x"}, pool.Get(1))

	fn := pool.Get(entry).(object.Function)
	require.Equal(t, []bytecode.Opcode{
		bytecode.OpPushInt, bytecode.OpDeclValGlobal,
		bytecode.OpGetGlobal, bytecode.OpPushInt, bytecode.OpIadd,
		bytecode.OpDrop, bytecode.OpRet,
	}, ops(fn.Body.Instructions()))
}

// S3: if (1) { 2 } else { 3 } at top level, value discarded. Confirms
// the jump resolution pass rewrites the symbolic labels into absolute
// Jmp/BranchFalse offsets and leaves exactly one merged Drop after the
// end label (DESIGN.md decision 8).
func TestScenarioS3Conditional(t *testing.T) {
	then := ast.NewBlock(sp, nil, ast.NewInteger(sp, 2))
	els := ast.NewBlock(sp, nil, ast.NewInteger(sp, 3))
	cond := ast.NewConditional(sp, ast.NewInteger(sp, 1), then, els)
	pool, entry := compileTop(t, []ast.Statement{ast.NewExpressionStmt(sp, cond)})

	fn := pool.Get(entry).(object.Function)
	instrs := fn.Body.Instructions()

	require.Equal(t, []bytecode.Opcode{
		bytecode.OpPushInt,       // guard
		bytecode.OpBranchFalse,   // -> else
		bytecode.OpPushInt,       // then = 2
		bytecode.OpJmp,           // -> end
		bytecode.OpPushInt,       // else = 3
		bytecode.OpDrop,
		bytecode.OpRet,
	}, ops(instrs))

	// No symbolic label survives resolution (P5).
	for _, in := range instrs {
		require.False(t, bytecode.IsJumpLabel(in.Op))
		require.NotEqual(t, bytecode.OpLabel, in.Op)
	}

	branchFalse := instrs[1]
	jmp := instrs[3]
	// Byte offsets, not instruction indices: PushInt/BranchFalse/Jmp are
	// each 5 bytes (1 tag + 4-byte i32/offset operand). BranchFalse
	// targets the else arm's PushInt(3) at byte 20; Jmp targets the
	// post-merge Drop at byte 25.
	require.Equal(t, int64(20), branchFalse.Operand)
	require.Equal(t, int64(25), jmp.Operand)
}

// S4: def id(a) = a; id(7);
func TestScenarioS4FunctionDef(t *testing.T) {
	fnDef := ast.NewFunctionDef(sp, "id", []string{"a"}, ast.NewAccessVar(sp, "a"))
	call := ast.NewCallFunction(sp, "id", []ast.Expression{ast.NewInteger(sp, 7)})
	pool, entry := compileTop(t, []ast.Statement{fnDef, ast.NewExpressionStmt(sp, call)})

	main := pool.Get(entry).(object.Function)
	mainOps := ops(main.Body.Instructions())
	require.Equal(t, []bytecode.Opcode{
		bytecode.OpPushLiteral, bytecode.OpDeclValGlobal, // bind id
		bytecode.OpPushInt, bytecode.OpGetGlobal, bytecode.OpCallFunc,
		bytecode.OpDrop, bytecode.OpRet,
	}, mainOps)

	fnIdx := main.Body.Instructions()[0].Operand
	idFn := pool.Get(uint32(fnIdx)).(object.Function)
	require.Equal(t, uint8(1), idFn.Arity)
	require.Equal(t, uint16(1), idFn.LocalsCnt)
	require.Equal(t, []bytecode.Opcode{
		bytecode.OpSetLocal, bytecode.OpGetLocal, bytecode.OpRet,
	}, ops(idFn.Body.Instructions()))
}

// S5: class C { def m() = 1; };
func TestScenarioS5ClassDef(t *testing.T) {
	method := ast.NewFunctionDef(sp, "m", nil, ast.NewInteger(sp, 1))
	classDef := ast.NewClassDef(sp, "C", []ast.Statement{method})
	pool, entry := compileTop(t, []ast.Statement{classDef})

	main := pool.Get(entry).(object.Function)
	mainOps := ops(main.Body.Instructions())
	require.Equal(t, []bytecode.Opcode{
		bytecode.OpPushLiteral, bytecode.OpDeclValGlobal, bytecode.OpRet,
	}, mainOps)

	ctorIdx := main.Body.Instructions()[0].Operand
	ctor := pool.Get(uint32(ctorIdx)).(object.Function)
	require.Equal(t, uint8(0), ctor.Arity)
	require.Equal(t, uint16(0), ctor.LocalsCnt)
	ctorOps := ops(ctor.Body.Instructions())
	require.Equal(t, []bytecode.Opcode{
		bytecode.OpNewObject, bytecode.OpSetLocal, bytecode.OpGetLocal, bytecode.OpRet,
	}, ctorOps)

	classIdx := ctor.Body.Instructions()[0].Operand
	cls := pool.Get(uint32(classIdx)).(object.Class)
	require.Len(t, cls.MethodIndices, 1)

	method1 := pool.Get(cls.MethodIndices[0]).(object.Function)
	require.Equal(t, []bytecode.Opcode{bytecode.OpPushInt, bytecode.OpRet}, ops(method1.Body.Instructions()))
}

// S6: def foo() = 1; def foo() = 2; — both succeed, globals never dedup.
func TestScenarioS6DuplicateFunctionDefsBothSucceed(t *testing.T) {
	foo1 := ast.NewFunctionDef(sp, "foo", nil, ast.NewInteger(sp, 1))
	foo2 := ast.NewFunctionDef(sp, "foo", nil, ast.NewInteger(sp, 2))
	pool, _ := compileTop(t, []ast.Statement{foo1, foo2})

	funcCount := 0
	for _, e := range pool.Entries() {
		if _, ok := e.(object.Function); ok {
			funcCount++
		}
	}
	require.Equal(t, 3, funcCount, "#main plus both foo definitions")
}

// ---- Boundary cases (§8) ----

func TestEmptyProgram(t *testing.T) {
	pool, entry := compileTop(t, nil)
	main := pool.Get(entry).(object.Function)
	require.Equal(t, []bytecode.Opcode{bytecode.OpRet}, ops(main.Body.Instructions()))
}

func TestBlockEndingInStatementValueIsNone(t *testing.T) {
	inner := ast.NewVarDecl(sp, "y", false, ast.NewInteger(sp, 1))
	block := ast.NewBlock(sp, []ast.Statement{inner}, nil)
	pool, entry := compileTop(t, []ast.Statement{ast.NewExpressionStmt(sp, block)})

	main := pool.Get(entry).(object.Function)
	mainOps := ops(main.Body.Instructions())
	require.Contains(t, mainOps, bytecode.OpPushNone)
}

func TestStringDedupAcrossTwoLiterals(t *testing.T) {
	a := ast.NewExpressionStmt(sp, ast.NewCallFunction(sp, "print", []ast.Expression{ast.NewString(sp, "same")}))
	b := ast.NewExpressionStmt(sp, ast.NewCallFunction(sp, "print", []ast.Expression{ast.NewString(sp, "same")}))
	pool, _ := compileTop(t, []ast.Statement{a, b})

	strCount := 0
	for _, e := range pool.Entries() {
		if s, ok := e.(object.String); ok && s.Value == "same" {
			strCount++
		}
	}
	require.Equal(t, 1, strCount)
}

func TestOperatorArityMismatchAdd(t *testing.T) {
	op := ast.NewOperator(sp, ast.OpAdd, []ast.Expression{ast.NewInteger(sp, 1)})
	_, _, err := compiler.New(compiler.Options{}).Compile(ast.NewTop(sp, []ast.Statement{
		ast.NewExpressionStmt(sp, op),
	}))
	require.ErrorIs(t, err, compiler.ErrArityMismatch)
}

func TestOperatorArityMismatchNegate(t *testing.T) {
	op := ast.NewOperator(sp, ast.OpNegate, []ast.Expression{ast.NewInteger(sp, 1), ast.NewInteger(sp, 2)})
	_, _, err := compiler.New(compiler.Options{}).Compile(ast.NewTop(sp, []ast.Statement{
		ast.NewExpressionStmt(sp, op),
	}))
	require.ErrorIs(t, err, compiler.ErrArityMismatch)
}

func TestImmutableReassignmentFails(t *testing.T) {
	fn := ast.NewFunctionDef(sp, "f", nil, ast.NewBlock(sp, []ast.Statement{
		ast.NewVarDecl(sp, "x", false, ast.NewInteger(sp, 1)),
		ast.NewAssignVar(sp, "x", ast.NewInteger(sp, 2)),
	}, ast.NewNone(sp)))
	_, _, err := compiler.New(compiler.Options{}).Compile(ast.NewTop(sp, []ast.Statement{fn}))
	require.ErrorIs(t, err, compiler.ErrImmutable)
}

func TestUnsupportedWhile(t *testing.T) {
	w := ast.NewWhile(sp, ast.NewBool(sp, true), ast.NewBlock(sp, nil, nil))
	_, _, err := compiler.New(compiler.Options{}).Compile(ast.NewTop(sp, []ast.Statement{w}))
	require.ErrorIs(t, err, compiler.ErrUnsupported)
}

func TestRedefinitionInInnermostScope(t *testing.T) {
	fn := ast.NewFunctionDef(sp, "f", nil, ast.NewBlock(sp, []ast.Statement{
		ast.NewVarDecl(sp, "x", false, ast.NewInteger(sp, 1)),
		ast.NewVarDecl(sp, "x", false, ast.NewInteger(sp, 2)),
	}, ast.NewNone(sp)))
	_, _, err := compiler.New(compiler.Options{}).Compile(ast.NewTop(sp, []ast.Statement{fn}))
	require.ErrorIs(t, err, compiler.ErrRedefinition)
}

// c.greet("world") — arguments in reverse order, then the receiver, then a
// DispatchMethod carrying the interned method name and argument count.
func TestMethodCallDispatch(t *testing.T) {
	classDef := ast.NewClassDef(sp, "C", []ast.Statement{
		ast.NewFunctionDef(sp, "greet", []string{"who"}, ast.NewAccessVar(sp, "who")),
	})
	ctor := ast.NewVarDecl(sp, "c", false, ast.NewCallFunction(sp, "C", nil))
	call := ast.NewMethodCall(sp, ast.NewAccessVar(sp, "c"), "greet", []ast.Expression{ast.NewString(sp, "world")})
	pool, entry := compileTop(t, []ast.Statement{classDef, ctor, ast.NewExpressionStmt(sp, call)})

	main := pool.Get(entry).(object.Function)
	mainOps := ops(main.Body.Instructions())
	require.Contains(t, mainOps, bytecode.OpDispatchMethod)

	var dispatch bytecode.Instruction
	for _, in := range main.Body.Instructions() {
		if in.Op == bytecode.OpDispatchMethod {
			dispatch = in
		}
	}
	nameIdx := dispatch.Operand
	require.Equal(t, object.String{Value: "greet"}, pool.Get(uint32(nameIdx)))
	require.Equal(t, byte(1), dispatch.Arg)
}

// p.x = p.x reads a member then writes it back: value first, then object,
// then SetMember carrying the interned field name.
func TestMemberReadAndStore(t *testing.T) {
	classDef := ast.NewClassDef(sp, "P", nil)
	decl := ast.NewVarDecl(sp, "p", false, ast.NewCallFunction(sp, "P", nil))
	read := ast.NewMemberRead(sp, ast.NewAccessVar(sp, "p"), "x")
	store := ast.NewMemberStore(sp, ast.NewAccessVar(sp, "p"), "x", read)
	pool, entry := compileTop(t, []ast.Statement{classDef, decl, store})

	main := pool.Get(entry).(object.Function)
	mainOps := ops(main.Body.Instructions())
	require.Contains(t, mainOps, bytecode.OpGetMember)
	require.Contains(t, mainOps, bytecode.OpSetMember)

	var getIdx, setIdx int64
	for _, in := range main.Body.Instructions() {
		switch in.Op {
		case bytecode.OpGetMember:
			getIdx = in.Operand
		case bytecode.OpSetMember:
			setIdx = in.Operand
		}
	}
	require.Equal(t, object.String{Value: "x"}, pool.Get(uint32(getIdx)))
	require.Equal(t, getIdx, setIdx, "same field name interned once")
}
