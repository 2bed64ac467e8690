package compiler

import (
	"github.com/mna/waspc/lang/ast"
	"github.com/mna/waspc/lang/module"
	"github.com/mna/waspc/lang/resolver"
)

// fcomp is the state specific to lowering one function body: the target
// FuncBody to write instructions into, and the two branch-depth counters
// spec §4.4 and §9 describe. recurDepth resets to 0 whenever a Loop is
// entered and increments (never decrements) whenever an If is entered, so
// that a Recur inside nested Ifs branches back to the nearest enclosing
// Loop as long as every If entered since that Loop still encloses the
// Recur; an If that has already closed still counts, and sends a later
// Recur further out than the Loop. returnDepth is fixed at 1: the assert
// intrinsic branches one level out from the If it opens itself, which is
// the function's own implicit block only when the assert is not nested
// inside another If or Loop.
type fcomp struct {
	pc  *pcomp
	fb  *module.FuncBody

	recurDepth  int
	returnDepth int
}

// lowerBody lowers every expression in body in order, dropping every
// intermediate result but the last, so the function (or a loop/if arm)
// leaves exactly one scalar behind. An empty body pushes a literal 0.0:
// the output module's type system requires every function to produce a
// result, and spec §8 leaves the empty-body case open.
func (fc *fcomp) lowerBody(body []ast.Expression) error {
	if len(body) == 0 {
		fc.fb.F64Const(0)
		return nil
	}
	for i, e := range body {
		if err := fc.lower(e); err != nil {
			return err
		}
		if i != len(body)-1 {
			fc.fb.Op(module.OpDrop)
		}
	}
	return nil
}

func (fc *fcomp) lower(e ast.Expression) error {
	switch e := e.(type) {
	case *ast.NumberLiteral:
		fc.fb.F64Const(e.Value)
		return nil

	case *ast.SymbolLiteral:
		fc.fb.F64Const(fc.pc.pool.InternSymbol(e.Name))
		return nil

	case *ast.TextLiteral:
		fc.fb.F64Const(fc.pc.pool.InternText(e.Value))
		return nil

	case *ast.FnSig:
		idx := fc.pc.builder.RegisterType(len(e.Inputs), e.Output != nil)
		fc.fb.F64Const(float64(idx))
		return nil

	case *ast.Identifier:
		return fc.lowerIdentifier(e)

	case *ast.Assignment:
		return fc.lowerAssignment(e)

	case *ast.FunctionCall:
		return fc.lowerCall(e)

	case *ast.IfStatement:
		return fc.lowerIf(e)

	case *ast.Loop:
		return fc.lowerLoop(e)

	case *ast.Recur:
		fc.fb.F64Const(0)
		fc.fb.Br(uint32(fc.recurDepth))
		return nil

	default:
		return errorf("internal error: unexpected expression %T", e)
	}
}

func (fc *fcomp) lowerIdentifier(e *ast.Identifier) error {
	v, kind, ok := fc.pc.scope.Resolve(e.Name)
	if !ok {
		return errorf("%s is not a valid identifier", e.Name)
	}
	if kind == resolver.Local {
		fc.fb.LocalGet(uint32(v))
	} else {
		fc.fb.F64Const(v)
	}
	return nil
}

// lowerAssignment stores Value into Ident's local slot and leaves the
// stored value on the stack. A function body is lowered exactly once but
// its loops run many times, so reassigning a name already bound as a
// local reuses that same slot (the write from iteration N must be
// visible to the read hard-coded into iteration N+1's identical
// instructions) rather than rebinding to a fresh one; an Ident that
// isn't already a local (first binding, or shadowing a global/function)
// is pushed onto the local stack and bound to the slot at its position
// there, the index lang/resolver reports for it. Either way a new local
// slot is declared on the function (spec §4.4), so every reuse leaves the
// function with one declared slot that nothing references, a harmless
// quirk preserved deliberately (see DESIGN.md).
func (fc *fcomp) lowerAssignment(e *ast.Assignment) error {
	if err := fc.lower(e.Value); err != nil {
		return err
	}

	v, kind, ok := fc.pc.scope.Resolve(e.Ident)
	fc.fb.AddLocal()

	var idx uint32
	if ok && kind == resolver.Local {
		idx = uint32(v)
	} else {
		idx = uint32(len(fc.pc.scope.Locals))
		fc.pc.scope.Locals = append(fc.pc.scope.Locals, e.Ident)
	}

	fc.fb.LocalSet(idx)
	fc.fb.LocalGet(idx)
	return nil
}

// lowerIf negates the condition's "is zero" test so that the true branch
// (the wasm if-true arm) runs exactly when Condition is nonzero, falls
// through to the else arm (True's branch-depth counterpart) otherwise,
// and always increments recurDepth on entry so a Recur nested inside this
// If still targets the nearest enclosing Loop, not this If's own block.
func (fc *fcomp) lowerIf(e *ast.IfStatement) error {
	fc.recurDepth++

	if err := fc.lower(e.Condition); err != nil {
		return err
	}
	fc.fb.F64Const(0)
	fc.fb.Op(module.OpF64Eq)
	fc.fb.I32Const(0)
	fc.fb.Op(module.OpI32Eq)

	fc.fb.If()
	if err := fc.lowerBody(e.True); err != nil {
		return err
	}
	fc.fb.Else()
	if e.Else == nil {
		fc.fb.F64Const(0)
	} else if err := fc.lowerBody(e.Else); err != nil {
		return err
	}
	fc.fb.End()
	return nil
}

func (fc *fcomp) lowerLoop(e *ast.Loop) error {
	if len(e.Body) == 0 {
		return errorf("useless infinite loop detected")
	}
	fc.recurDepth = 0
	fc.fb.Loop()
	if err := fc.lowerBody(e.Body); err != nil {
		return err
	}
	fc.fb.End()
	return nil
}
