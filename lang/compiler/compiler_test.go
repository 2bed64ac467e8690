package compiler_test

import (
	"context"
	"math"
	"testing"

	"github.com/mna/waspc/lang/ast"
	"github.com/mna/waspc/lang/compiler"
	"github.com/stretchr/testify/require"
	"github.com/tetratelabs/wazero"
)

// run compiles app, instantiates the result under wazero and calls its
// exported "main" function with no arguments, returning the single
// scalar result.
func run(t *testing.T, app *ast.App) float64 {
	t.Helper()
	out, err := compiler.CompileApp(app)
	require.NoError(t, err)

	ctx := context.Background()
	rt := wazero.NewRuntime(ctx)
	defer rt.Close(ctx)

	instance, err := rt.Instantiate(ctx, out)
	require.NoError(t, err)

	fn := instance.ExportedFunction("main")
	require.NotNil(t, fn)

	results, err := fn.Call(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	return math.Float64frombits(results[0])
}

func mainFn(body ...ast.Expression) *ast.App {
	return &ast.App{Children: []ast.TopLevel{
		&ast.DefineFunction{Name: "main", Exported: true, Children: body},
	}}
}

func TestSymbolInterningEquality(t *testing.T) {
	// the same symbol name, interned twice, always compares equal.
	got := run(t, mainFn(&ast.FunctionCall{
		Name: "==",
		Params: []ast.Expression{
			&ast.SymbolLiteral{Name: "foo"},
			&ast.SymbolLiteral{Name: "foo"},
		},
	}))
	require.Equal(t, float64(1), got)
}

func TestSymbolInterningDistinctNames(t *testing.T) {
	got := run(t, mainFn(&ast.FunctionCall{
		Name: "==",
		Params: []ast.Expression{
			&ast.SymbolLiteral{Name: "foo"},
			&ast.SymbolLiteral{Name: "bar"},
		},
	}))
	require.Equal(t, float64(0), got)
}

func TestAssignmentShadowing(t *testing.T) {
	// x := 10; x := x + 1 -> 11: the second assignment reads the value the
	// first one stored, writes it back into x's existing slot, and yields
	// the stored value.
	got := run(t, mainFn(
		&ast.Assignment{Ident: "x", Value: &ast.NumberLiteral{Value: 10}},
		&ast.Assignment{Ident: "x", Value: &ast.FunctionCall{
			Name:   "+",
			Params: []ast.Expression{&ast.Identifier{Name: "x"}, &ast.NumberLiteral{Value: 1}},
		}},
	))
	require.Equal(t, float64(11), got)
}

func TestAssertEarlyReturn(t *testing.T) {
	// assert(1, 2, 999) -> 1 != 2, so the function returns 999
	// immediately, never reaching the trailing 42.
	got := run(t, mainFn(
		&ast.FunctionCall{
			Name: "assert",
			Params: []ast.Expression{
				&ast.NumberLiteral{Value: 1},
				&ast.NumberLiteral{Value: 2},
				&ast.NumberLiteral{Value: 999},
			},
		},
		&ast.NumberLiteral{Value: 42},
	))
	require.Equal(t, float64(999), got)
}

func TestAssertPassesThrough(t *testing.T) {
	got := run(t, mainFn(
		&ast.FunctionCall{
			Name: "assert",
			Params: []ast.Expression{
				&ast.NumberLiteral{Value: 1},
				&ast.NumberLiteral{Value: 1},
				&ast.NumberLiteral{Value: 999},
			},
		},
		&ast.NumberLiteral{Value: 42},
	))
	require.Equal(t, float64(42), got)
}

func TestLoopAccumulatesViaRecur(t *testing.T) {
	// sums 5+4+3+2+1 by counting n down to 0, accumulating into acc.
	n := &ast.Assignment{Ident: "n", Value: &ast.NumberLiteral{Value: 5}}
	acc := &ast.Assignment{Ident: "acc", Value: &ast.NumberLiteral{Value: 0}}

	loop := &ast.Loop{Body: []ast.Expression{
		&ast.IfStatement{
			Condition: &ast.FunctionCall{
				Name:   "==",
				Params: []ast.Expression{&ast.Identifier{Name: "n"}, &ast.NumberLiteral{Value: 0}},
			},
			True: []ast.Expression{&ast.NumberLiteral{Value: 0}},
			Else: []ast.Expression{
				&ast.Assignment{Ident: "acc", Value: &ast.FunctionCall{
					Name:   "+",
					Params: []ast.Expression{&ast.Identifier{Name: "acc"}, &ast.Identifier{Name: "n"}},
				}},
				&ast.Assignment{Ident: "n", Value: &ast.FunctionCall{
					Name:   "-",
					Params: []ast.Expression{&ast.Identifier{Name: "n"}, &ast.NumberLiteral{Value: 1}},
				}},
				&ast.Recur{},
			},
		},
	}}

	got := run(t, mainFn(n, acc, loop, &ast.Identifier{Name: "acc"}))
	require.Equal(t, float64(15), got)
}

func TestIndirectCall(t *testing.T) {
	// declares "double", then calls it indirectly through its own table
	// handle: (call (fn_sig (x) -> f64) double x)
	f64 := ast.F64
	app := &ast.App{Children: []ast.TopLevel{
		&ast.DefineFunction{
			Name: "double",
			Children: []ast.Expression{
				&ast.FunctionCall{
					Name:   "*",
					Params: []ast.Expression{&ast.Identifier{Name: "x"}, &ast.NumberLiteral{Value: 2}},
				},
			},
			Params: []string{"x"},
		},
		&ast.DefineFunction{
			Name:     "main",
			Exported: true,
			Children: []ast.Expression{
				&ast.FunctionCall{
					Name: "call",
					Params: []ast.Expression{
						&ast.FnSig{Inputs: []ast.DataType{ast.F64}, Output: &f64},
						&ast.Identifier{Name: "double"},
						&ast.NumberLiteral{Value: 21},
					},
				},
			},
		},
	}}

	got := run(t, app)
	require.Equal(t, float64(42), got)
}

func TestGlobalPrecomputation(t *testing.T) {
	app := &ast.App{Children: []ast.TopLevel{
		&ast.Global{Name: "answer", Value: &ast.Number{Value: 42}},
		&ast.DefineFunction{
			Name:     "main",
			Exported: true,
			Children: []ast.Expression{&ast.Identifier{Name: "answer"}},
		},
	}}
	require.Equal(t, float64(42), run(t, app))
}

func TestUnknownIdentifierFails(t *testing.T) {
	_, err := compiler.CompileApp(mainFn(&ast.Identifier{Name: "nope"}))
	require.Error(t, err)
}

func TestEmptyLoopBodyFails(t *testing.T) {
	_, err := compiler.CompileApp(mainFn(&ast.Loop{}))
	require.Error(t, err)
}

func TestCallWrongFirstArgFails(t *testing.T) {
	_, err := compiler.CompileApp(mainFn(&ast.FunctionCall{
		Name:   "call",
		Params: []ast.Expression{&ast.NumberLiteral{Value: 0}, &ast.NumberLiteral{Value: 0}},
	}))
	require.Error(t, err)
}

func TestMemHeapRoundTrip(t *testing.T) {
	// mem_heap_start reads the initial heap position; mem stores a value
	// there and reads it back.
	got := run(t, mainFn(
		&ast.FunctionCall{
			Name: "mem",
			Params: []ast.Expression{
				&ast.FunctionCall{Name: "mem_heap_start"},
				&ast.NumberLiteral{Value: 7},
			},
		},
		&ast.FunctionCall{
			Name:   "mem",
			Params: []ast.Expression{&ast.FunctionCall{Name: "mem_heap_start"}},
		},
	))
	require.Equal(t, float64(7), got)
}
