package module_test

import "math"

func apiF64(v float64) uint64  { return math.Float64bits(v) }
func apiToF64(bits uint64) float64 { return math.Float64frombits(bits) }
