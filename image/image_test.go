package image_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Gregofi/cacom/ast"
	"github.com/Gregofi/cacom/compiler"
	"github.com/Gregofi/cacom/image"
	"github.com/Gregofi/cacom/object"
)

var sp = ast.NewSpan(0, 1)

// TestImageRoundTrip is property P6: re-parsing a serialized image
// yields a structurally identical constant pool and the same entry
// point as the one that was compiled.
func TestImageRoundTrip(t *testing.T) {
	fnDef := ast.NewFunctionDef(sp, "id", []string{"a"}, ast.NewAccessVar(sp, "a"))
	call := ast.NewCallFunction(sp, "id", []ast.Expression{ast.NewInteger(sp, 7)})
	top := ast.NewTop(sp, []ast.Statement{fnDef, ast.NewExpressionStmt(sp, call)})

	pool, entry, err := compiler.New(compiler.Options{}).Compile(top)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, image.Write(&buf, pool, entry))

	gotPool, gotEntry, err := image.Read(&buf)
	require.NoError(t, err)
	require.Equal(t, entry, gotEntry)
	require.Equal(t, pool.Len(), gotPool.Len())

	for i := 0; i < pool.Len(); i++ {
		require.Equal(t, pool.Get(uint32(i)), gotPool.Get(uint32(i)), "entry %d", i)
	}
}

func TestImageRoundTripEmptyProgram(t *testing.T) {
	top := ast.NewTop(sp, nil)
	pool, entry, err := compiler.New(compiler.Options{}).Compile(top)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, image.Write(&buf, pool, entry))

	gotPool, gotEntry, err := image.Read(&buf)
	require.NoError(t, err)
	require.Equal(t, entry, gotEntry)
	require.Equal(t, 2, gotPool.Len())
	require.Equal(t, object.TagString, gotPool.Get(0).Tag())
	require.Equal(t, object.TagFunction, gotPool.Get(1).Tag())
}

func TestImageReadTruncatedInput(t *testing.T) {
	_, _, err := image.Read(bytes.NewReader([]byte{0x01, 0x00}))
	require.ErrorIs(t, err, image.ErrTruncated)
}
