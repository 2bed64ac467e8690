package module_test

import (
	"context"
	"testing"

	"github.com/mna/waspc/lang/module"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
)

// buildAdd emits a minimal module exporting a two-parameter "add"
// function that returns the sum of its arguments, exercising the
// Builder/Encoder pair end to end against a real WebAssembly runtime.
func buildAdd(t *testing.T) []byte {
	t.Helper()
	b := module.NewBuilder(nil)
	_, fb := b.DeclareFunction("add", true, 2)
	fb.LocalGet(0)
	fb.LocalGet(1)
	fb.Op(module.OpF64Add)
	fb.End()
	b.DeclareTable(b.FunctionCount())
	b.SetHeapGlobals(4)

	out, err := b.Emit()
	require.NoError(t, err)
	return out
}

func TestEmitRunsUnderWazero(t *testing.T) {
	ctx := context.Background()
	bytes := buildAdd(t)

	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	compiled, err := rt.CompileModule(ctx, bytes)
	require.NoError(t, err)

	instance, err := rt.InstantiateModule(ctx, compiled, wazero.NewModuleConfig())
	require.NoError(t, err)

	fn := instance.ExportedFunction("add")
	require.NotNil(t, fn)

	results, err := fn.Call(ctx, apiF64(2), apiF64(3))
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.Equal(t, float64(5), apiToF64(results[0]))
}

func TestEmitExportsMemory(t *testing.T) {
	ctx := context.Background()
	bytes := buildAdd(t)

	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	instance, err := rt.Instantiate(ctx, bytes)
	require.NoError(t, err)
	require.NotNil(t, instance.ExportedMemory("memory"))
}

func TestEmitRejectsNoFunctions(t *testing.T) {
	b := module.NewBuilder(nil)
	b.DeclareTable(0)
	_, err := b.Emit()
	require.Error(t, err)
}
