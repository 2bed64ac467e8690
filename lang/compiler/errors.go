package compiler

import "fmt"

// Error is a fatal compile-time failure (spec §7): unresolved identifiers,
// intrinsic arity violations, and structural problems (an empty loop body,
// a malformed call) all surface as one of these. The compiler never
// panics on bad input; a panic here means an invariant this package
// itself is responsible for has been broken, not that the input AST was
// wrong.
type Error struct {
	msg string
}

func (e *Error) Error() string { return e.msg }

func errorf(format string, args ...any) error {
	return &Error{msg: fmt.Sprintf(format, args...)}
}
