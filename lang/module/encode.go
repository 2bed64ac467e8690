package module

import (
	"encoding/binary"
	"fmt"
	"math"
)

// section IDs, per the WebAssembly binary format.
const (
	sectionType     = 1
	sectionImport   = 2
	sectionFunction = 3
	sectionTable    = 4
	sectionMemory   = 5
	sectionGlobal   = 6
	sectionExport   = 7
	sectionElement  = 9
	sectionCode     = 10
	sectionData     = 11
)

const (
	externKindFunc = 0x00

	exportKindFunc   = 0x00
	exportKindMemory = 0x02
)

var wasmMagic = [4]byte{0x00, 0x61, 0x73, 0x6d}
var wasmVersion = [4]byte{0x01, 0x00, 0x00, 0x00}

// memoryPages is the number of 64KB pages the module's single linear
// memory starts with; it only needs to comfortably hold the data
// segments this core writes, the break pointer (heap-end global) is the
// mechanism by which a host grows it further.
const memoryPages = 2

// Encoder is the concrete Emitter that serializes a Program to the
// standard WebAssembly binary module format (SPEC_FULL.md §3). It is
// grounded on the same from-scratch encoding approach as
// other_examples/.../wasmbe.go: magic+version, then the standard section
// sequence, each section a byte-length-prefixed vector.
type Encoder struct{}

// NewEncoder returns the default Emitter.
func NewEncoder() *Encoder { return &Encoder{} }

func (Encoder) Emit(p *Program) ([]byte, error) {
	if len(p.FunctionNames) == 0 {
		return nil, fmt.Errorf("module: no functions to emit")
	}

	out := append([]byte{}, wasmMagic[:]...)
	out = append(out, wasmVersion[:]...)

	out = append(out, encodeTypeSection(p)...)
	out = append(out, encodeImportSection(p)...)
	out = append(out, encodeFunctionSection(p)...)
	out = append(out, encodeTableSection(p)...)
	out = append(out, encodeMemorySection()...)
	out = append(out, encodeGlobalSection(p)...)
	out = append(out, encodeExportSection(p)...)
	out = append(out, encodeElementSection(p)...)
	code, err := encodeCodeSection(p)
	if err != nil {
		return nil, err
	}
	out = append(out, code...)
	if len(p.Segments) > 0 {
		out = append(out, encodeDataSection(p)...)
	}
	return out, nil
}

// scalarFuncType returns the (numInputs, hasOutput) signature shared by
// every import and every user-defined function: n scalar params, one
// scalar return.
func scalarFuncType(numInputs int) FuncType { return FuncType{NumInputs: numInputs, HasOutput: true} }

func encodeTypeSection(p *Program) []byte {
	// Every import/defined function needs its own (numInputs, true) type,
	// in addition to whatever types RegisterType interned for indirect
	// calls. Imports and definitions get their types appended implicitly
	// here, at fixed indices following the interned ones, so that the
	// function section can reference them by index.
	types := append([]FuncType{}, p.Types...)
	for _, imp := range p.Imports {
		types = append(types, scalarFuncType(imp.Arity))
	}
	for _, b := range p.Bodies {
		types = append(types, scalarFuncType(b.NumParams))
	}

	var body []byte
	for _, t := range types {
		body = append(body, 0x60) // func type tag
		body = appendULEB128(body, uint64(t.NumInputs))
		for i := 0; i < t.NumInputs; i++ {
			body = append(body, byte(ValTypeF64))
		}
		if t.HasOutput {
			body = appendULEB128(body, 1)
			body = append(body, byte(ValTypeF64))
		} else {
			body = appendULEB128(body, 0)
		}
	}
	return encodeSection(sectionType, encodeVector(len(types), body))
}

// importedFuncTypeIndex and definedFuncTypeIndex mirror the layout built
// by encodeTypeSection: interned types first, then one synthesized type
// per import, then one per defined function, in order.
func importedFuncTypeIndex(p *Program, i int) int { return len(p.Types) + i }
func definedFuncTypeIndex(p *Program, i int) int {
	return len(p.Types) + len(p.Imports) + i
}

func encodeImportSection(p *Program) []byte {
	if len(p.Imports) == 0 {
		return nil
	}
	var body []byte
	for i, imp := range p.Imports {
		body = append(body, encodeName("env")...)
		body = append(body, encodeName(imp.Name)...)
		body = append(body, externKindFunc)
		body = appendULEB128(body, uint64(importedFuncTypeIndex(p, i)))
	}
	return encodeSection(sectionImport, encodeVector(len(p.Imports), body))
}

func encodeFunctionSection(p *Program) []byte {
	if len(p.Bodies) == 0 {
		return nil
	}
	var body []byte
	for i := range p.Bodies {
		body = appendULEB128(body, uint64(definedFuncTypeIndex(p, i)))
	}
	return encodeSection(sectionFunction, encodeVector(len(p.Bodies), body))
}

func encodeTableSection(p *Program) []byte {
	var body []byte
	body = append(body, byte(ValTypeFuncRef))
	body = append(body, 0x00) // no maximum
	body = appendULEB128(body, uint64(p.TableSize))
	return encodeSection(sectionTable, encodeVector(1, body))
}

func encodeMemorySection() []byte {
	var body []byte
	body = append(body, 0x00) // no maximum
	body = appendULEB128(body, memoryPages)
	return encodeSection(sectionMemory, encodeVector(1, body))
}

func encodeGlobalSection(p *Program) []byte {
	var body []byte
	// global 0: immutable heap-start
	body = append(body, byte(ValTypeI32), 0x00)
	body = append(body, byte(OpI32Const))
	body = appendSLEB128(body, int64(p.HeapStart))
	body = append(body, byte(OpEnd))
	// global 1: mutable heap-end, same initial value
	body = append(body, byte(ValTypeI32), 0x01)
	body = append(body, byte(OpI32Const))
	body = appendSLEB128(body, int64(p.HeapStart))
	body = append(body, byte(OpEnd))
	return encodeSection(sectionGlobal, encodeVector(2, body))
}

func encodeExportSection(p *Program) []byte {
	var entries [][]byte
	for i, b := range p.Bodies {
		if !b.Exported {
			continue
		}
		funcIdx := len(p.Imports) + i
		var e []byte
		e = append(e, encodeName(b.Name)...)
		e = append(e, exportKindFunc)
		e = appendULEB128(e, uint64(funcIdx))
		entries = append(entries, e)
	}
	var mem []byte
	mem = append(mem, encodeName("memory")...)
	mem = append(mem, exportKindMemory)
	mem = appendULEB128(mem, 0)
	entries = append(entries, mem)

	var body []byte
	for _, e := range entries {
		body = append(body, e...)
	}
	return encodeSection(sectionExport, encodeVector(len(entries), body))
}

func encodeElementSection(p *Program) []byte {
	var body []byte
	body = appendULEB128(body, 0) // table index 0
	body = append(body, byte(OpI32Const))
	body = appendSLEB128(body, 0)
	body = append(body, byte(OpEnd))
	n := len(p.FunctionNames)
	body = appendULEB128(body, uint64(n))
	for i := 0; i < n; i++ {
		body = appendULEB128(body, uint64(i))
	}
	return encodeSection(sectionElement, encodeVector(1, body))
}

func encodeCodeSection(p *Program) ([]byte, error) {
	var body []byte
	for _, b := range p.Bodies {
		fn, err := encodeFuncBody(b)
		if err != nil {
			return nil, err
		}
		body = append(body, appendULEB128(nil, uint64(len(fn)))...)
		body = append(body, fn...)
	}
	return encodeSection(sectionCode, encodeVector(len(p.Bodies), body)), nil
}

func encodeFuncBody(b *FuncBody) ([]byte, error) {
	var locals []byte
	if b.ExtraLocals > 0 {
		locals = appendULEB128(nil, 1) // one group: all f64
		locals = appendULEB128(locals, uint64(b.ExtraLocals))
		locals = append(locals, byte(ValTypeF64))
	} else {
		locals = appendULEB128(nil, 0)
	}
	// Code already carries the function's own closing end: the caller
	// (lang/compiler, or any other direct FuncBody user) is responsible for
	// calling End() once after lowering the body, the same way it calls
	// End() to close any other block/loop/if. Inferring the terminator from
	// the last byte of Code here isn't reliable - it can coincidentally
	// equal 0x0b as part of a LEB128-encoded operand - and appending one
	// unconditionally here too would double it up.
	out := append([]byte{}, locals...)
	out = append(out, b.Code...)
	return out, nil
}

func encodeDataSection(p *Program) []byte {
	var body []byte
	for _, seg := range p.Segments {
		body = append(body, 0x00) // active, memory 0
		body = append(body, byte(OpI32Const))
		body = appendSLEB128(body, int64(seg.Offset))
		body = append(body, byte(OpEnd))
		body = appendULEB128(body, uint64(len(seg.Bytes)))
		body = append(body, seg.Bytes...)
	}
	return encodeSection(sectionData, encodeVector(len(p.Segments), body))
}

// --- low-level encoding helpers ---

func encodeSection(id byte, body []byte) []byte {
	out := []byte{id}
	out = appendULEB128(out, uint64(len(body)))
	return append(out, body...)
}

func encodeVector(count int, body []byte) []byte {
	out := appendULEB128(nil, uint64(count))
	return append(out, body...)
}

func encodeName(s string) []byte {
	out := appendULEB128(nil, uint64(len(s)))
	return append(out, s...)
}

func appendULEB128(b []byte, x uint64) []byte {
	for {
		c := byte(x & 0x7f)
		x >>= 7
		if x != 0 {
			b = append(b, c|0x80)
		} else {
			b = append(b, c)
			return b
		}
	}
}

func appendSLEB128(b []byte, x int64) []byte {
	more := true
	for more {
		c := byte(x & 0x7f)
		x >>= 7
		signBitSet := c&0x40 != 0
		if (x == 0 && !signBitSet) || (x == -1 && signBitSet) {
			more = false
		} else {
			c |= 0x80
		}
		b = append(b, c)
	}
	return b
}

func appendF64(b []byte, v float64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	return append(b, buf[:]...)
}
