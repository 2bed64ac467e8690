package resolver_test

import (
	"testing"

	"github.com/mna/waspc/lang/resolver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveBuiltins(t *testing.T) {
	var s resolver.Scope
	v, kind, ok := s.Resolve("nil")
	require.True(t, ok)
	assert.Equal(t, float64(0), v)
	assert.Equal(t, resolver.Global, kind)

	v, kind, ok = s.Resolve("size_num")
	require.True(t, ok)
	assert.Equal(t, float64(8), v)
	assert.Equal(t, resolver.Global, kind)
}

func TestResolveUnknown(t *testing.T) {
	var s resolver.Scope
	_, _, ok := s.Resolve("nope")
	assert.False(t, ok)
}

func TestResolveLookupOrder(t *testing.T) {
	s := resolver.Scope{
		Locals:       []string{"x"},
		Functions:    []string{"x"},
		GlobalNames:  []string{"x"},
		GlobalValues: []float64{99},
	}

	// locals win over functions and globals of the same name.
	v, kind, ok := s.Resolve("x")
	require.True(t, ok)
	assert.Equal(t, resolver.Local, kind)
	assert.Equal(t, float64(0), v)
}

func TestResolveShadowingReassignment(t *testing.T) {
	// every entry's VM local index is its position in Locals; a later
	// entry with the same name shadows the earlier binding without
	// touching its slot.
	s := resolver.Scope{Locals: []string{"x", "y", "x"}}

	v, kind, ok := s.Resolve("x")
	require.True(t, ok)
	assert.Equal(t, resolver.Local, kind)
	assert.Equal(t, float64(2), v, "the most recent binding of x wins")

	v, kind, ok = s.Resolve("y")
	require.True(t, ok)
	assert.Equal(t, float64(1), v)
}

func TestResolveFunctionsAndGlobals(t *testing.T) {
	s := resolver.Scope{
		Functions:    []string{"imported", "square"},
		GlobalNames:  []string{"answer"},
		GlobalValues: []float64{42},
	}

	v, kind, ok := s.Resolve("square")
	require.True(t, ok)
	assert.Equal(t, resolver.Function, kind)
	assert.Equal(t, float64(1), v)

	v, kind, ok = s.Resolve("answer")
	require.True(t, ok)
	assert.Equal(t, resolver.Global, kind)
	assert.Equal(t, float64(42), v)
}
