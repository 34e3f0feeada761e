package telemetry

import (
	"encoding/binary"
	"math"
)

func float32bits(f float32) uint32     { return math.Float32bits(f) }
func float32frombits(b uint32) float32 { return math.Float32frombits(b) }

func putFloat32(buf []byte, v float32) {
	binary.LittleEndian.PutUint32(buf, float32bits(v))
}

func getFloat32(buf []byte) float32 {
	return float32frombits(binary.LittleEndian.Uint32(buf))
}
