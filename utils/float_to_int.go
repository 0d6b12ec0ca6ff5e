// SPDX-License-Identifier: EPL-2.0

package utils

import "encoding/binary"

// Float32ToInt16 clamps x to [-1, 1] and scales it to the full int16 range.
func Float32ToInt16(x float32) int16 {
	if x >= 1 {
		return 32767
	}
	if x <= -1 {
		return -32768
	}
	if x < 0 {
		return int16(x * 32768.0)
	}
	return int16(x * 32767.0)
}

// PutPCM16 writes src as little-endian int16 samples into dst and returns the
// number of bytes written. dst must hold 2*len(src) bytes.
func PutPCM16(dst []byte, src []float32) int {
	for i, x := range src {
		binary.LittleEndian.PutUint16(dst[2*i:], uint16(Float32ToInt16(x)))
	}
	return 2 * len(src)
}

// Int16ToFloat32 maps v back to [-1, 1).
func Int16ToFloat32(v int16) float32 { return float32(v) / 32768.0 }
