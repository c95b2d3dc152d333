// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package render

import "math"

// EncodeRotation converts a rotation in turns to 1/65536ths of a turn.
// Values outside [0, 1) wrap: 1.75 encodes like 0.75 and -0.4 like 0.6.
func EncodeRotation(turns float32) uint16 {
	t := float64(turns)
	frac := t - math.Floor(t)
	return uint16(uint32(math.Round(frac*65536)) & 0xFFFF) //nolint:gosec // masked
}

// DecodeRotation converts 1/65536ths of a turn back to turns in [0, 1).
func DecodeRotation(r uint16) float32 {
	return float32(r) / 65536
}
