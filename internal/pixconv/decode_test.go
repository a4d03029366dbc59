package pixconv

import (
	"encoding/binary"
	"errors"
	"image"
	"testing"

	"github.com/stretchr/testify/require"
)

// newPaddedPlane allocates a plane with extra bytes per row, all padding
// filled with a sentinel so tests can prove it is never touched.
func newPaddedPlane(w, h, channels, bytesPerSample, pad int) Plane {
	stride := w*channels*bytesPerSample + pad
	data := make([]byte, stride*h)
	for i := range data {
		data[i] = 0xab
	}
	return Plane{Data: data, Stride: stride, Width: w, Height: h}
}

func TestUnpack8RespectsStride(t *testing.T) {
	const w, h = 3, 2
	p := newPaddedPlane(w, h, 3, 1, 7)
	v := byte(1)
	for y := 0; y < h; y++ {
		row := p.Data[y*p.Stride:]
		for x := 0; x < w; x++ {
			row[x*3] = v
			row[x*3+1] = v + 1
			row[x*3+2] = v + 2
			v += 3
		}
	}

	img, err := Unpack(p, Descriptor{Width: w, Height: h, BitDepth: 8})
	require.NoError(t, err)
	got, ok := img.(*image.NRGBA)
	require.True(t, ok, "8-bit unpack must produce *image.NRGBA")

	v = 1
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			px := got.NRGBAAt(x, y)
			require.Equal(t, v, px.R)
			require.Equal(t, v+1, px.G)
			require.Equal(t, v+2, px.B)
			require.Equal(t, byte(0xff), px.A)
			v += 3
		}
	}
}

func TestUnpack8Unpremultiply(t *testing.T) {
	// Premultiplied fixtures (channel values never exceed alpha). Unpacking
	// yields straight values; re-premultiplying those must land within ±1
	// of the plane bytes. Under alpha==0 the original color is
	// unrecoverable and must come back as 0,0,0, not an error.
	cases := []struct {
		name       string
		r, g, b, a uint8
	}{
		{"opaque", 10, 200, 77, 255},
		{"half", 100, 40, 8, 128},
		{"low-alpha", 3, 2, 1, 5},
		{"zero-alpha", 9, 9, 9, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := newPaddedPlane(1, 1, 4, 1, 0)
			p.Data[0] = tc.r
			p.Data[1] = tc.g
			p.Data[2] = tc.b
			p.Data[3] = tc.a

			img, err := Unpack(p, Descriptor{Width: 1, Height: 1, BitDepth: 8, HasAlpha: true, Premultiplied: true})
			require.NoError(t, err)
			got := img.(*image.NRGBA).NRGBAAt(0, 0)
			require.Equal(t, tc.a, got.A, "alpha must be copied verbatim")

			if tc.a == 0 {
				require.Equal(t, uint8(0), got.R)
				require.Equal(t, uint8(0), got.G)
				require.Equal(t, uint8(0), got.B)
				return
			}
			require.InDelta(t, tc.r, premultiply(uint32(got.R), uint32(tc.a)), 1)
			require.InDelta(t, tc.g, premultiply(uint32(got.G), uint32(tc.a)), 1)
			require.InDelta(t, tc.b, premultiply(uint32(got.B), uint32(tc.a)), 1)
		})
	}
}

func TestUnpack16UsesBitDepthMax(t *testing.T) {
	// With bit depth 10 the max sample is 1023, not 65535. A premultiplied
	// pixel with alpha at 1023 must pass its color channels through
	// unchanged.
	p := newPaddedPlane(1, 1, 4, 2, 4)
	binary.LittleEndian.PutUint16(p.Data[0:], 600)
	binary.LittleEndian.PutUint16(p.Data[2:], 1023)
	binary.LittleEndian.PutUint16(p.Data[4:], 7)
	binary.LittleEndian.PutUint16(p.Data[6:], 1023)

	img, err := Unpack(p, Descriptor{Width: 1, Height: 1, BitDepth: 10, HasAlpha: true, Premultiplied: true})
	require.NoError(t, err)
	got, ok := img.(*image.NRGBA64)
	require.True(t, ok, "HDR unpack must produce *image.NRGBA64")
	px := got.NRGBA64At(0, 0)
	require.Equal(t, uint16(600), px.R)
	require.Equal(t, uint16(1023), px.G)
	require.Equal(t, uint16(7), px.B)
	require.Equal(t, uint16(1023), px.A)
}

func TestUnpack16NoAlphaFillsOpaque(t *testing.T) {
	p := newPaddedPlane(2, 1, 3, 2, 2)
	for i := 0; i < 6; i++ {
		binary.LittleEndian.PutUint16(p.Data[i*2:], uint16(i*100))
	}
	img, err := Unpack(p, Descriptor{Width: 2, Height: 1, BitDepth: 12})
	require.NoError(t, err)
	got := img.(*image.NRGBA64)
	require.Equal(t, uint16(0), got.NRGBA64At(0, 0).R)
	require.Equal(t, uint16(500), got.NRGBA64At(1, 0).B)
	require.Equal(t, uint16(4095), got.NRGBA64At(0, 0).A, "opaque alpha is the bit-depth max")
}

func TestUnpackBadLayout(t *testing.T) {
	p := Plane{Data: make([]byte, 4), Stride: 2, Width: 2, Height: 1}
	_, err := Unpack(p, Descriptor{Width: 2, Height: 1, BitDepth: 8})
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrBadLayout))

	_, err = Unpack(Plane{Data: make([]byte, 12), Stride: 12, Width: 1, Height: 1},
		Descriptor{Width: 1, Height: 1, BitDepth: 17})
	require.True(t, errors.Is(err, ErrBadLayout))
}
