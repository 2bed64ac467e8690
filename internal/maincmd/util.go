package maincmd

import "math"

// api64ToFloat decodes a wazero result register as the f64 every
// function in this language returns.
func api64ToFloat(bits uint64) float64 { return math.Float64frombits(bits) }
