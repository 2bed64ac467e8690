package compiler

import (
	"encoding/binary"
	"math"
)

func appendF64LE(b []byte, v float64) []byte {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
	return append(b, buf[:]...)
}
