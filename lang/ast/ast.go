// Package ast defines the types that represent the abstract syntax tree
// (AST) consumed by the compiler. The AST is not produced by anything in
// this module - it is the external input contract (see package doc of
// lang/compiler): some other front end (a parser, or in tests a JSON
// document) constructs these values and hands them to
// compiler.CompileApp.
package ast

// DataType is a scalar type used only in function-signature literals
// (see FnSig). The compiled module exposes a single scalar type to all
// user code (every value is an f64 at runtime), but a FnSig still
// records the arity and result presence of the function it describes, so
// that an indirect call through it can be type-checked by the VM.
type DataType int

const (
	// F64 is, for now, the only data type a FnSig can mention: all
	// user-visible values are 64-bit floats.
	F64 DataType = iota
)

// App is the root of the AST: an ordered sequence of top-level
// declarations.
type App struct {
	Children []TopLevel
}

// TopLevel is a top-level declaration: an external function import, a
// global definition, or a function definition.
type TopLevel interface {
	topLevel()
}

// ExternalFunction declares an imported function. Every parameter and the
// single return value are scalar doubles.
type ExternalFunction struct {
	Name   string
	Params []string
}

// Global defines a module-level constant, computed once at compile time
// from Value (see GlobalValue).
type Global struct {
	Name  string
	Value GlobalValue
}

// DefineFunction declares a user function. Exported functions are
// reachable by name from outside the module; every function (exported or
// not) is also reachable by table index for indirect calls.
type DefineFunction struct {
	Name     string
	Exported bool
	Params   []string
	Children []Expression
}

func (*ExternalFunction) topLevel() {}
func (*Global) topLevel()           {}
func (*DefineFunction) topLevel()   {}

// GlobalValue is the right-hand side of a Global definition. Unlike
// Expression, a GlobalValue is evaluated entirely at compile time into a
// single scalar (see lang/compiler's global precomputation).
type GlobalValue interface {
	globalValue()
}

// Symbol is an interned-at-compile-time symbol literal.
type Symbol struct{ Name string }

// Number is a literal scalar.
type Number struct{ Value float64 }

// Text is a literal UTF-8 string, allocated into linear memory.
type Text struct{ Value string }

// Data is a nested constant array; each entry is itself a GlobalValue,
// evaluated recursively and encoded as 8 little-endian bytes.
type Data struct{ Values []GlobalValue }

// StructMember names one field of a Struct literal.
type StructMember struct{ Name string }

// Struct is a compile-time struct-literal table: the interned symbol tag
// of each member name, in declaration order, followed by a 0.0
// terminator.
type Struct struct{ Members []StructMember }

// GlobalIdentifier resolves, at compile time, to the value of another
// already-processed global, function, or built-in constant.
type GlobalIdentifier struct{ Name string }

func (*Symbol) globalValue()           {}
func (*Number) globalValue()           {}
func (*Text) globalValue()             {}
func (*Data) globalValue()             {}
func (*Struct) globalValue()           {}
func (*GlobalIdentifier) globalValue() {}
