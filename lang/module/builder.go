// Package module implements the Module Builder adapter (spec §4.5): it
// accumulates the module-under-construction (spec §3's data model) and,
// at the end of compilation, hands it to an Emitter to produce the final
// byte sequence. The Emitter is the "downstream VM module encoder" spec.md
// §1 calls out as an external black box; this package also ships the
// concrete WebAssembly-binary Emitter used by default (see encode.go and
// SPEC_FULL.md §3).
package module

import "github.com/dolthub/swiss"

// FuncType is an interned function signature, used only for indirect
// calls through the function table (direct calls and exported functions
// always use the fixed "n scalars in, one scalar out" shape; the Encoder
// synthesizes one such type-table entry per import and per defined
// function, after the interned ones).
type FuncType struct {
	NumInputs int
	HasOutput bool
}

// Import is an external function the module depends on: Arity scalar
// parameters, one scalar return.
type Import struct {
	Name  string
	Arity int
}

// FuncBody accumulates one function's locals and instruction stream. It
// is a thin, append-only code writer: lang/compiler drives it directly as
// it lowers each expression.
type FuncBody struct {
	Name      string
	Exported  bool
	NumParams int

	// ExtraLocals counts locals beyond the parameters, each an f64 (the
	// only local type this language ever needs - see spec §4.4's
	// Assignment semantics).
	ExtraLocals int

	Code []byte
}

// AddLocal allocates one new f64 local slot beyond the current ones and
// returns its VM-local index.
func (f *FuncBody) AddLocal() uint32 {
	idx := uint32(f.NumParams + f.ExtraLocals)
	f.ExtraLocals++
	return idx
}

// Op appends a bare opcode with no immediate operand.
func (f *FuncBody) Op(op Op) { f.Code = append(f.Code, byte(op)) }

// Block opens a structured block that yields one f64 result.
func (f *FuncBody) Block() { f.Code = append(f.Code, byte(OpBlock), blockTypeF64) }

// Loop opens a structured loop that yields one f64 result.
func (f *FuncBody) Loop() { f.Code = append(f.Code, byte(OpLoop), blockTypeF64) }

// If opens a structured if that yields one f64 result; Condition must
// already be on the stack as an i32 boolean.
func (f *FuncBody) If() { f.Code = append(f.Code, byte(OpIf), blockTypeF64) }

// Else emits the else marker of the innermost open If.
func (f *FuncBody) Else() { f.Code = append(f.Code, byte(OpElse)) }

// End closes the innermost open block/loop/if, or (at the top level) the
// function body itself. Every FuncBody needs exactly one top-level End
// once its instructions are done, regardless of what the last instruction
// was: the encoder does not infer or add one on its own.
func (f *FuncBody) End() { f.Code = append(f.Code, byte(OpEnd)) }

// F64Const pushes a literal f64.
func (f *FuncBody) F64Const(v float64) {
	f.Code = append(f.Code, byte(OpF64Const))
	f.Code = appendF64(f.Code, v)
}

// I32Const pushes a literal i32.
func (f *FuncBody) I32Const(v int32) {
	f.Code = append(f.Code, byte(OpI32Const))
	f.Code = appendSLEB128(f.Code, int64(v))
}

// I64Const pushes a literal i64.
func (f *FuncBody) I64Const(v int64) {
	f.Code = append(f.Code, byte(OpI64Const))
	f.Code = appendSLEB128(f.Code, v)
}

// LocalGet pushes the value of local slot idx.
func (f *FuncBody) LocalGet(idx uint32) {
	f.Code = append(f.Code, byte(OpLocalGet))
	f.Code = appendULEB128(f.Code, uint64(idx))
}

// LocalSet pops the top of stack into local slot idx.
func (f *FuncBody) LocalSet(idx uint32) {
	f.Code = append(f.Code, byte(OpLocalSet))
	f.Code = appendULEB128(f.Code, uint64(idx))
}

// GlobalGet pushes the value of module global idx.
func (f *FuncBody) GlobalGet(idx uint32) {
	f.Code = append(f.Code, byte(OpGlobalGet))
	f.Code = appendULEB128(f.Code, uint64(idx))
}

// GlobalSet pops the top of stack into module global idx.
func (f *FuncBody) GlobalSet(idx uint32) {
	f.Code = append(f.Code, byte(OpGlobalSet))
	f.Code = appendULEB128(f.Code, uint64(idx))
}

// Br branches unconditionally to the block at the given enclosing depth.
func (f *FuncBody) Br(depth uint32) {
	f.Code = append(f.Code, byte(OpBr))
	f.Code = appendULEB128(f.Code, uint64(depth))
}

// Call emits a direct call to the function at funcIdx (an index into the
// module's function-name vector).
func (f *FuncBody) Call(funcIdx uint32) {
	f.Code = append(f.Code, byte(OpCall))
	f.Code = appendULEB128(f.Code, uint64(funcIdx))
}

// CallIndirect emits an indirect call through table 0, type-checked
// against typeIdx. The callee's table index must already be on the stack
// as an i32.
func (f *FuncBody) CallIndirect(typeIdx uint32) {
	f.Code = append(f.Code, byte(OpCallIndir))
	f.Code = appendULEB128(f.Code, uint64(typeIdx))
	f.Code = append(f.Code, 0) // table 0
}

// MemLoad emits a memory load of the given op at natural alignment,
// offset 0 (addresses are always absolute in this language).
func (f *FuncBody) MemLoad(op Op) {
	f.Code = append(f.Code, byte(op), 0, 0)
}

// MemStore emits a memory store of the given op at natural alignment,
// offset 0.
func (f *FuncBody) MemStore(op Op) {
	f.Code = append(f.Code, byte(op), 0, 0)
}

// Program is the module-under-construction (spec §3's data model): it is
// the plain data accumulated by Builder and handed, whole, to an Emitter.
type Program struct {
	Imports       []Import
	FunctionNames []string // imports first, then defined functions; index = table slot
	Types         []FuncType
	Bodies        []*FuncBody // parallel to the non-imported suffix of FunctionNames
	Segments      []DataSegment
	HeapStart     int // also the initial value of the mutable heap-end global
	TableSize     int // == len(FunctionNames)
}

// DataSegment is an immutable byte blob placed at a fixed linear-memory
// offset.
type DataSegment struct {
	Offset int
	Bytes  []byte
}

// Emitter turns a finished Program into the canonical byte sequence of
// the target VM's module format. It is the boundary spec.md §1 calls a
// black box; Encoder (encode.go) is this package's concrete
// implementation of it.
type Emitter interface {
	Emit(p *Program) ([]byte, error)
}

// Builder accumulates a Program across the compiler driver's phases and
// emits it on demand.
type Builder struct {
	prog     Program
	typeKey  *swiss.Map[typeKey, int]
	emitter  Emitter
}

type typeKey struct {
	numInputs int
	hasOutput bool
}

// NewBuilder returns an empty Builder that will emit with e. A nil e
// defaults to NewEncoder(), the WebAssembly-binary Emitter.
func NewBuilder(e Emitter) *Builder {
	if e == nil {
		e = NewEncoder()
	}
	return &Builder{
		typeKey: swiss.NewMap[typeKey, int](4),
		emitter: e,
	}
}

// RegisterImport appends an imported function (arity scalar params, one
// scalar return) and returns its function-table handle.
func (b *Builder) RegisterImport(name string, arity int) int {
	b.prog.Imports = append(b.prog.Imports, Import{Name: name, Arity: arity})
	b.prog.FunctionNames = append(b.prog.FunctionNames, name)
	return len(b.prog.FunctionNames) - 1
}

// RegisterType interns a function signature for indirect calls and
// returns its type-table index. Structural duplicates reuse the same
// index (a legal refinement of spec §4.5, which allows either sequential
// append or deduplication).
func (b *Builder) RegisterType(numInputs int, hasOutput bool) int {
	k := typeKey{numInputs: numInputs, hasOutput: hasOutput}
	if ix, ok := b.typeKey.Get(k); ok {
		return ix
	}
	ix := len(b.prog.Types)
	b.prog.Types = append(b.prog.Types, FuncType{NumInputs: numInputs, HasOutput: hasOutput})
	b.typeKey.Put(k, ix)
	return ix
}

// DeclareFunction appends a user-defined function's name (and registers
// it in the function table) and allocates its body. It returns the
// function-table handle and the body to lower instructions into.
func (b *Builder) DeclareFunction(name string, exported bool, numParams int) (int, *FuncBody) {
	b.prog.FunctionNames = append(b.prog.FunctionNames, name)
	handle := len(b.prog.FunctionNames) - 1
	fb := &FuncBody{Name: name, Exported: exported, NumParams: numParams}
	b.prog.Bodies = append(b.prog.Bodies, fb)
	return handle, fb
}

// DeclareTable fixes the function table's size. spec §4.6 phase 2
// declares it as soon as every function name (imports and definitions)
// is known, equal to the total function count.
func (b *Builder) DeclareTable(size int) { b.prog.TableSize = size }

// AppendData records a data segment at a fixed offset.
func (b *Builder) AppendData(offset int, bytes []byte) {
	b.prog.Segments = append(b.prog.Segments, DataSegment{Offset: offset, Bytes: bytes})
}

// SetHeapGlobals publishes the two heap globals (index 0 immutable
// heap-start, index 1 mutable heap-end), both initialized to
// finalHeapStart.
func (b *Builder) SetHeapGlobals(finalHeapStart int) { b.prog.HeapStart = finalHeapStart }

// FunctionCount returns the number of names registered so far (imports
// plus definitions).
func (b *Builder) FunctionCount() int { return len(b.prog.FunctionNames) }

// Emit finalizes the module and returns its canonical byte sequence. The
// element section (table slot i -> function i for every i) is always
// present and always covers the whole function-name vector, so it needs
// no explicit Builder call: Encoder derives it directly from Program.
func (b *Builder) Emit() ([]byte, error) { return b.emitter.Emit(&b.prog) }
