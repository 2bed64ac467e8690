package compiler

import "github.com/mna/waspc/lang/ast"

// evalGlobalValue evaluates a GlobalValue entirely at compile time into a
// single scalar (spec §4.3). Data and Struct literals recurse, encoding
// each element as 8 little-endian bytes and allocating the whole table
// once, so the scalar a Data/Struct global resolves to is always the
// address of that table's first byte.
func (c *pcomp) evalGlobalValue(v ast.GlobalValue) (float64, error) {
	switch v := v.(type) {
	case *ast.Symbol:
		return c.pool.InternSymbol(v.Name), nil

	case *ast.Number:
		return v.Value, nil

	case *ast.Text:
		return c.pool.InternText(v.Value), nil

	case *ast.Data:
		values := make([]float64, len(v.Values))
		for i, e := range v.Values {
			ev, err := c.evalGlobalValue(e)
			if err != nil {
				return 0, err
			}
			values[i] = ev
		}
		return float64(c.pool.CreateData(encodeScalars(values))), nil

	case *ast.Struct:
		values := make([]float64, 0, len(v.Members)+1)
		for _, m := range v.Members {
			values = append(values, c.pool.InternSymbol(m.Name))
		}
		values = append(values, 0) // terminator
		return float64(c.pool.CreateData(encodeScalars(values))), nil

	case *ast.GlobalIdentifier:
		val, _, ok := c.scope.Resolve(v.Name)
		if !ok {
			return 0, errorf("%s is not a valid identifier", v.Name)
		}
		return val, nil

	default:
		return 0, errorf("internal error: unexpected global value %T", v)
	}
}

// encodeScalars packs values as consecutive 8-byte little-endian doubles,
// the layout every Data/Struct global uses in linear memory.
func encodeScalars(values []float64) []byte {
	out := make([]byte, 0, len(values)*8)
	for _, v := range values {
		out = appendF64LE(out, v)
	}
	return out
}
