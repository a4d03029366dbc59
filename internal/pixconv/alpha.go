package pixconv

import "math"

// unmultiply recovers a straight color value from a premultiplied one.
// alpha 0 is unrecoverable and maps to 0; alpha at max passes through.
// The general case rounds and clamps, since rounding can overshoot max.
func unmultiply(c, a, max uint32) uint32 {
	switch a {
	case 0:
		return 0
	case max:
		return c
	}
	v := math.Round(float64(c) * float64(max) / float64(a))
	if v >= float64(max) {
		return max
	}
	return uint32(v)
}

// premultiply scales an 8-bit straight color value by alpha.
func premultiply(c, a uint32) uint8 {
	switch a {
	case 0:
		return 0
	case 0xff:
		return uint8(c)
	}
	return uint8(math.Round(float64(c) * float64(a) / 255))
}
