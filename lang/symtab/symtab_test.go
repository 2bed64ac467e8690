package symtab_test

import (
	"testing"

	"github.com/mna/waspc/lang/symtab"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInternSymbolDedups(t *testing.T) {
	p := symtab.New()
	a := p.InternSymbol("foo")
	b := p.InternSymbol("bar")
	c := p.InternSymbol("foo")

	assert.Equal(t, a, c)
	assert.NotEqual(t, a, b)
	assert.NotZero(t, a, "symbol tags never use the reserved nil value")
}

func TestInternSymbolStartsAtOne(t *testing.T) {
	p := symtab.New()
	require.Equal(t, float64(1), p.InternSymbol("first"))
	require.Equal(t, float64(2), p.InternSymbol("second"))
	require.Equal(t, float64(1), p.InternSymbol("first"))
}

func TestInternTextDoesNotDedup(t *testing.T) {
	p := symtab.New()
	a := p.InternText("hello")
	b := p.InternText("hello")

	assert.NotEqual(t, a, b, "equal text literals still allocate distinct segments")
	require.Len(t, p.Segments, 2)
	assert.Equal(t, []byte("hello\x00"), p.Segments[0].Bytes)
	assert.Equal(t, []byte("hello\x00"), p.Segments[1].Bytes)
}

func TestHeapAlignment(t *testing.T) {
	p := symtab.New()
	require.Equal(t, 4, p.HeapPosition())

	// "ab\0" is 3 bytes: 4 + 3 = 7, misaligned, bumped up to 8.
	p.InternText("ab")
	assert.Equal(t, 8, p.HeapPosition())

	// already aligned: FinalHeapStart must not bump it further.
	assert.Equal(t, 8, p.FinalHeapStart())

	// a 4-byte allocation landing exactly on a multiple of 4 stays put.
	p.CreateData([]byte{1, 2, 3, 4})
	assert.Equal(t, 12, p.HeapPosition())
	assert.Equal(t, 12, p.FinalHeapStart())
}

func TestCreateDataReturnsOffsetBeforeAdvancing(t *testing.T) {
	p := symtab.New()
	off1 := p.CreateData([]byte{1, 2, 3, 4})
	off2 := p.CreateData([]byte{5, 6, 7, 8})

	assert.Equal(t, 4, off1)
	assert.Equal(t, 8, off2)
}
