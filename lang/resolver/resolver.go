// Package resolver implements the compiler's Scope Resolver (spec §4.2):
// pure lookup of an identifier across the four disjoint namespaces a
// program can reference from - built-in constants, locals, the function
// table, and user globals.
package resolver

// Kind identifies which of the four namespaces a resolved identifier came
// from.
type Kind int

const (
	// Local names a VM local slot; Value is the local index.
	Local Kind = iota
	// Function names an entry in the function table; Value is the table
	// index (also the direct-call handle).
	Function
	// Global names a built-in constant or a user global; Value is the
	// precomputed scalar value.
	Global
)

// builtins are resolved before anything else, and so can never be
// shadowed by a local, function or global of the same name.
var builtins = map[string]float64{
	"nil":      0,
	"size_num": 8,
}

// Scope is the read side of the compiler's identifier namespaces. It
// never mutates its inputs: locals are pushed/popped by the compiler
// itself (lang/compiler owns the local stack's lifetime), and
// globals/functions are supplied once resolution needs them.
type Scope struct {
	// Locals is the current function's local-name stack, in declaration
	// order. Looked up in reverse so that the most recent binding of a
	// name wins (lexical shadowing via reassignment - see spec §4.4's
	// Assignment semantics).
	Locals []string

	// Functions is the frozen, ordered list of every function name
	// (imports first, then user-defined), index = function-table slot.
	Functions []string

	// GlobalNames/GlobalValues are parallel: GlobalValues[i] is the
	// precomputed scalar for GlobalNames[i].
	GlobalNames  []string
	GlobalValues []float64
}

// Resolve looks up name in lookup order: built-ins, locals (reverse),
// functions, globals. It reports whether name was found.
func (s *Scope) Resolve(name string) (value float64, kind Kind, ok bool) {
	if v, found := builtins[name]; found {
		return v, Global, true
	}

	for i := len(s.Locals) - 1; i >= 0; i-- {
		if s.Locals[i] == name {
			// i is already the VM local index: Locals is a flat,
			// never-reordered stack, so a name's position in it is its
			// slot. Scanning in reverse only changes *which* same-named
			// binding wins (the most recent one), not the index formula.
			return float64(i), Local, true
		}
	}

	for i, fn := range s.Functions {
		if fn == name {
			return float64(i), Function, true
		}
	}

	for i, g := range s.GlobalNames {
		if g == name {
			return s.GlobalValues[i], Global, true
		}
	}

	return 0, 0, false
}
