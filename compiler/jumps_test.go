package compiler

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Gregofi/cacom/bytecode"
)

func TestResolveJumpsRewritesSymbolicLabels(t *testing.T) {
	code := bytecode.NewCode()
	code.AddOperand(bytecode.OpPushInt, 1, testSpan)
	code.AddLabel(bytecode.OpBranchLabelFalse, "L_else", testSpan)
	code.AddOperand(bytecode.OpPushInt, 2, testSpan)
	code.AddLabel(bytecode.OpJmpLabel, "L_end", testSpan)
	code.AddLabel(bytecode.OpLabel, "L_else", testSpan)
	code.AddOperand(bytecode.OpPushInt, 3, testSpan)
	code.AddLabel(bytecode.OpLabel, "L_end", testSpan)
	code.Add(bytecode.OpRet, testSpan)

	resolved, err := resolveJumps(code, zap.NewNop())
	require.NoError(t, err)

	for _, in := range resolved.Instructions() {
		require.NotEqual(t, bytecode.OpLabel, in.Op, "P5: no Label pseudo-op survives")
		require.False(t, bytecode.IsJumpLabel(in.Op), "P5: no symbolic jump survives")
	}
	require.Equal(t, 6, resolved.Len())
}

func TestResolveJumpsUndefinedLabelIsInvariantViolation(t *testing.T) {
	code := bytecode.NewCode()
	code.AddLabel(bytecode.OpJmpLabel, "L_nowhere", testSpan)

	_, err := resolveJumps(code, zap.NewNop())
	require.Error(t, err)
	require.ErrorIs(t, err, ErrInvariantViolation)
}

func TestResolveJumpsAbsoluteOffsets(t *testing.T) {
	code := bytecode.NewCode()
	code.AddOperand(bytecode.OpPushInt, 1, testSpan) // 5 bytes, offset 0
	code.AddLabel(bytecode.OpLabel, "here", testSpan) // offset 5
	code.AddLabel(bytecode.OpJmpLabel, "here", testSpan)
	code.Add(bytecode.OpRet, testSpan)

	resolved, err := resolveJumps(code, zap.NewNop())
	require.NoError(t, err)

	instrs := resolved.Instructions()
	require.Equal(t, bytecode.OpJmp, instrs[1].Op)
	require.Equal(t, int64(5), instrs[1].Operand)
}
