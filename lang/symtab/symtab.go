// Package symtab implements the compiler's symbol interning table and
// linear-memory data allocator (spec §4.1: the "Symbol/Data Pool").
package symtab

import "github.com/dolthub/swiss"

// heapOrigin is the first address ever handed out: nothing gets address
// 0, so that a 0.0 scalar can unambiguously mean "no value"/nil.
const heapOrigin = 4

// align is the alignment discipline applied after every allocation: the
// heap position is always a multiple of align at any observable point
// after create/intern.
const align = 4

// Pool owns both disjoint allocators the compiler needs while walking an
// AST: an interning table for symbol names, and a bump allocator for
// immutable byte blobs placed in the module's linear memory.
type Pool struct {
	symbols     []string
	symbolIndex *swiss.Map[string, uint32]

	heapPos int

	// Segments records every (offset, bytes) pair created by InternText or
	// CreateData, in the order they were created. The driver hands these
	// to the module builder as data segments.
	Segments []Segment
}

// Segment is one immutable byte blob placed at a fixed offset in linear
// memory.
type Segment struct {
	Offset int
	Bytes  []byte
}

// New returns an empty pool with the heap allocator positioned at its
// starting address.
func New() *Pool {
	return &Pool{
		symbolIndex: swiss.NewMap[string, uint32](16),
		heapPos:     heapOrigin,
	}
}

// InternSymbol returns the stable scalar tag for name, interning it on
// first use. Tags start at 1 - the value 0 is reserved for nil and is
// never issued as a symbol tag.
func (p *Pool) InternSymbol(name string) float64 {
	if ix, ok := p.symbolIndex.Get(name); ok {
		return float64(ix) + 1
	}
	ix := uint32(len(p.symbols))
	p.symbols = append(p.symbols, name)
	p.symbolIndex.Put(name, ix)
	return float64(ix) + 1
}

// InternText allocates the UTF-8 bytes of s followed by a single NUL
// byte at the current heap position and returns that address. Unlike
// InternSymbol, equal strings are not deduplicated: every call allocates
// a fresh segment (see DESIGN.md).
func (p *Pool) InternText(s string) float64 {
	b := make([]byte, 0, len(s)+1)
	b = append(b, s...)
	b = append(b, 0)
	return float64(p.CreateData(b))
}

// CreateData allocates bytes at the current heap position without
// appending a NUL terminator, and returns that address.
func (p *Pool) CreateData(bytes []byte) int {
	pos := p.heapPos
	p.Segments = append(p.Segments, Segment{Offset: pos, Bytes: bytes})
	p.heapPos = alignUp(pos + len(bytes))
	return pos
}

// HeapPosition returns the next free byte in linear memory, i.e. the
// position the next CreateData/InternText call would use.
func (p *Pool) HeapPosition() int { return p.heapPos }

// FinalHeapStart returns the heap position rounded up to the alignment
// boundary, used to publish the module's two heap globals (spec §4.6
// phase 5). It is idempotent: if the heap position is already aligned
// (as it always is immediately after an allocation), it returns it
// unchanged.
func (p *Pool) FinalHeapStart() int { return alignUp(p.heapPos) }

func alignUp(pos int) int {
	if pos%align != 0 {
		return (pos/align)*align + align
	}
	return pos
}
