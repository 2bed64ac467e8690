// Package compiler lowers an application AST (lang/ast) into a compiled
// module's bytes. It implements spec.md §4.3's global precomputation,
// §4.4's Expression Lowerer, and §4.6's Compiler Driver, in terms of the
// Symbol/Data Pool (lang/symtab), the Scope Resolver (lang/resolver) and
// the Module Builder (lang/module).
//
// Every Expression, once lowered, leaves exactly one additional f64 on
// the VM stack: there is no other value type visible to user code (spec
// §3's "scalar universe" invariant). Truncation to a narrower machine
// type happens only at the instruction boundaries that require it -
// memory addresses, bitwise operators, and indirect-call table indices -
// and the result is always converted back to f64 before the expression
// finishes.
package compiler

import (
	"github.com/mna/waspc/lang/ast"
	"github.com/mna/waspc/lang/module"
	"github.com/mna/waspc/lang/resolver"
	"github.com/mna/waspc/lang/symtab"
)

// pcomp is the compiler's whole-program state, shared by every phase and
// every function body lowered within a single CompileApp call. fcomp
// (see lower.go) holds only what changes per function body.
type pcomp struct {
	pool    *symtab.Pool
	builder *module.Builder
	scope   resolver.Scope

	funcs []*funcEntry
}

// funcEntry pairs a user-defined function's declaration with the handle
// and body the builder assigned it in phase 2, so that phase 4 can lower
// bodies against builder state that was already fully settled in phase 2
// and phase 3 (this is what lets recursive and mutually-recursive calls
// resolve correctly regardless of declaration order).
type funcEntry struct {
	def    *ast.DefineFunction
	handle int
	fb     *module.FuncBody
}

// CompileApp lowers app into a finished module's bytes, or reports the
// first error encountered. It runs the driver's six fixed phases in
// order (spec §4.6): initialize imports, pre-process functions, process
// globals, process functions, set heap globals, emit.
func CompileApp(app *ast.App) ([]byte, error) {
	c := &pcomp{
		pool:    symtab.New(),
		builder: module.NewBuilder(nil),
	}

	if err := c.initializeImports(app); err != nil {
		return nil, err
	}
	if err := c.preProcessFunctions(app); err != nil {
		return nil, err
	}
	if err := c.processGlobals(app); err != nil {
		return nil, err
	}
	if err := c.processFunctions(); err != nil {
		return nil, err
	}
	c.builder.SetHeapGlobals(c.pool.FinalHeapStart())

	for _, seg := range c.pool.Segments {
		c.builder.AppendData(seg.Offset, seg.Bytes)
	}

	return c.builder.Emit()
}

// initializeImports is phase 1: every ExternalFunction becomes both a
// function-table entry and a module import, in declaration order, ahead
// of anything else. This must run first because later phases (globals,
// function bodies) can reference an import by name the moment it exists.
func (c *pcomp) initializeImports(app *ast.App) error {
	for _, tl := range app.Children {
		ext, ok := tl.(*ast.ExternalFunction)
		if !ok {
			continue
		}
		c.builder.RegisterImport(ext.Name, len(ext.Params))
		c.scope.Functions = append(c.scope.Functions, ext.Name)
	}
	return nil
}

// preProcessFunctions is phase 2: every DefineFunction gets its
// function-table slot and an empty body allocated, before any body is
// lowered and before globals are processed. The function table is
// declared at its final size as soon as every name - imported and
// user-defined - is known.
func (c *pcomp) preProcessFunctions(app *ast.App) error {
	for _, tl := range app.Children {
		def, ok := tl.(*ast.DefineFunction)
		if !ok {
			continue
		}
		handle, fb := c.builder.DeclareFunction(def.Name, def.Exported, len(def.Params))
		c.scope.Functions = append(c.scope.Functions, def.Name)
		c.funcs = append(c.funcs, &funcEntry{def: def, handle: handle, fb: fb})
	}
	c.builder.DeclareTable(c.builder.FunctionCount())
	return nil
}

// processGlobals is phase 3: every Global is evaluated, in declaration
// order, into a single scalar and recorded in the scope's global
// namespace. A GlobalIdentifier may reference any built-in, function, or
// global declared earlier in this same pass; forward references fail
// (see DESIGN.md).
func (c *pcomp) processGlobals(app *ast.App) error {
	for _, tl := range app.Children {
		g, ok := tl.(*ast.Global)
		if !ok {
			continue
		}
		v, err := c.evalGlobalValue(g.Value)
		if err != nil {
			return err
		}
		c.scope.GlobalNames = append(c.scope.GlobalNames, g.Name)
		c.scope.GlobalValues = append(c.scope.GlobalValues, v)
	}
	return nil
}

// processFunctions is phase 4: every function declared in phase 2 has
// its body lowered, in declaration order, against the complete scope
// built by phases 1 through 3. It always closes the function's own
// outer block with a final End, regardless of what the last top-level
// expression was: a trailing Loop/IfStatement/assert already closes its
// own block with its own End, a distinct control frame from the
// function's implicit one, and WASM requires exactly one end per opened
// block/loop/if/func.
func (c *pcomp) processFunctions() error {
	for _, fe := range c.funcs {
		c.scope.Locals = append([]string{}, fe.def.Params...)
		fc := &fcomp{pc: c, fb: fe.fb, recurDepth: 0, returnDepth: 1}
		if err := fc.lowerBody(fe.def.Children); err != nil {
			return errorf("function %s: %v", fe.def.Name, err)
		}
		fe.fb.End()
	}
	return nil
}
