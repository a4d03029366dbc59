package pixconv

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// Exhaustive 8-bit check of the premultiplication pair: for every alpha and
// every premultiplied channel value not exceeding it, un-premultiplying and
// re-premultiplying lands within ±1 of the original value.
func TestPremultiplyRoundTripExhaustive(t *testing.T) {
	for a := uint32(1); a <= 255; a++ {
		for c := uint32(0); c <= a; c++ {
			back := premultiply(unmultiply(c, a, 255), a)
			diff := int(back) - int(c)
			if diff < 0 {
				diff = -diff
			}
			require.LessOrEqual(t, diff, 1, "alpha %d: %d -> %d", a, c, back)
		}
	}
}

func TestUnmultiplyEdges(t *testing.T) {
	require.Equal(t, uint32(0), unmultiply(123, 0, 255), "alpha 0 maps to 0")
	require.Equal(t, uint32(200), unmultiply(200, 255, 255), "alpha max passes through")
	// Rounding can overshoot; the result clamps to max.
	require.Equal(t, uint32(255), unmultiply(250, 200, 255))
	require.Equal(t, uint32(1023), unmultiply(1000, 600, 1023), "HDR max, not 65535")
}
