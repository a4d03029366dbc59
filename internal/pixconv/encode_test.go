package pixconv

import (
	"image"
	"image/color"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeTestImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8((x * 17) ^ (y * 31)),
				G: uint8((x * 43) + (y * 13)),
				B: uint8((x * 7) ^ (y * 11)),
				A: 255,
			})
		}
	}
	return img
}

func makeGrayImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := uint8((x*31 + y*7) & 0xff)
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func TestAnalyze(t *testing.T) {
	gray := makeGrayImage(16, 16)
	assert.Equal(t, Analysis{Grayscale: true}, Analyze(gray))

	// A single off-gray pixel anywhere flips the classification.
	almostGray := makeGrayImage(16, 16)
	almostGray.SetNRGBA(15, 15, color.NRGBA{R: 10, G: 11, B: 10, A: 255})
	assert.False(t, Analyze(almostGray).Grayscale)

	opaque := makeTestImage(16, 16)
	assert.Equal(t, Analysis{}, Analyze(opaque))

	// A single translucent pixel flips transparency.
	translucent := makeTestImage(16, 16)
	translucent.SetNRGBA(0, 7, color.NRGBA{R: 1, G: 2, B: 3, A: 254})
	a := Analyze(translucent)
	assert.True(t, a.HasTransparency)
	assert.False(t, a.Grayscale)
}

func TestChooseLayout(t *testing.T) {
	tests := []struct {
		analysis Analysis
		want     Layout
	}{
		{Analysis{}, LayoutRGB},
		{Analysis{HasTransparency: true}, LayoutRGBA},
		{Analysis{Grayscale: true}, LayoutMonochrome},
		{Analysis{Grayscale: true, HasTransparency: true}, LayoutMonochromeAlpha},
	}
	for _, tc := range tests {
		assert.Equal(t, tc.want, ChooseLayout(tc.analysis), tc.want.String())
	}
}

func TestPackRGBRoundTrip(t *testing.T) {
	// Packing into a strided plane and unpacking again must reproduce the
	// original pixels exactly; no compression is involved at this level.
	src := makeTestImage(5, 4)
	p := newPaddedPlane(5, 4, 3, 1, 9)
	require.NoError(t, PackRGB(p, src))

	// Padding bytes keep their sentinel value.
	for y := 0; y < p.Height; y++ {
		row := p.Data[y*p.Stride:]
		for i := p.Width * 3; i < p.Stride; i++ {
			require.Equal(t, byte(0xab), row[i], "padding written at row %d byte %d", y, i)
		}
	}

	img, err := Unpack(p, Descriptor{Width: 5, Height: 4, BitDepth: 8})
	require.NoError(t, err)
	got := img.(*image.NRGBA)
	if diff := cmp.Diff(src.Pix, got.Pix); diff != "" {
		t.Errorf("pixel mismatch (-want +got):\n%s", diff)
	}
}

func TestPackRGBAPremultiplyRoundTrip(t *testing.T) {
	// Un-premultiplying a premultiplied plane and re-packing it with
	// premultiplication must reproduce the plane within ±1 per color
	// channel, alpha exactly. Rows cover alpha 0, low, half and full;
	// channel values never exceed their alpha.
	src := newPaddedPlane(4, 4, 4, 1, 3)
	alphas := []uint8{0, 5, 128, 255}
	for y := 0; y < 4; y++ {
		a := int(alphas[y])
		row := src.Data[y*src.Stride:]
		for x := 0; x < 4; x++ {
			row[x*4] = uint8(a * (x + 1) / 4)
			row[x*4+1] = uint8(a / 2)
			row[x*4+2] = uint8(a * x / 3)
			row[x*4+3] = alphas[y]
		}
	}

	img, err := Unpack(src, Descriptor{Width: 4, Height: 4, BitDepth: 8, HasAlpha: true, Premultiplied: true})
	require.NoError(t, err)
	straight := img.(*image.NRGBA)

	dst := newPaddedPlane(4, 4, 4, 1, 3)
	require.NoError(t, PackRGBA(dst, straight, true))

	for y := 0; y < 4; y++ {
		srcRow := src.Data[y*src.Stride:]
		dstRow := dst.Data[y*dst.Stride:]
		for i := 0; i < 16; i++ {
			if i%4 == 3 {
				require.Equal(t, srcRow[i], dstRow[i], "alpha at row %d byte %d", y, i)
			} else {
				assert.InDelta(t, srcRow[i], dstRow[i], 1, "row %d byte %d", y, i)
			}
		}
		for i := 16; i < dst.Stride; i++ {
			require.Equal(t, byte(0xab), dstRow[i], "padding written at row %d byte %d", y, i)
		}
	}
}

func TestPackGray(t *testing.T) {
	src := makeGrayImage(6, 3)
	p := Plane{Data: make([]byte, 8*3), Stride: 8, Width: 6, Height: 3}
	require.NoError(t, PackGray(p, src))
	for y := 0; y < 3; y++ {
		for x := 0; x < 6; x++ {
			require.Equal(t, src.NRGBAAt(x, y).R, p.Data[y*p.Stride+x])
		}
	}
}

func TestPackGrayAlpha(t *testing.T) {
	src := makeGrayImage(4, 2)
	src.SetNRGBA(1, 1, color.NRGBA{R: 100, G: 100, B: 100, A: 50})

	pY := Plane{Data: make([]byte, 5*2), Stride: 5, Width: 4, Height: 2}
	pA := Plane{Data: make([]byte, 5*2), Stride: 5, Width: 4, Height: 2}
	require.NoError(t, PackGrayAlpha(pY, pA, src, true))

	require.Equal(t, uint8(50), pA.Data[pA.Stride+1])
	// 100 premultiplied by 50/255.
	require.Equal(t, uint8(20), pY.Data[pY.Stride+1])
	// Opaque pixels keep their luma.
	require.Equal(t, src.NRGBAAt(0, 0).R, pY.Data[0])
	require.Equal(t, uint8(255), pA.Data[0])
}

func TestNRGBAFromImage(t *testing.T) {
	g := image.NewGray(image.Rect(0, 0, 3, 3))
	g.SetGray(1, 1, color.Gray{Y: 77})
	n := NRGBAFromImage(g)
	px := n.NRGBAAt(1, 1)
	assert.Equal(t, color.NRGBA{R: 77, G: 77, B: 77, A: 255}, px)
	assert.True(t, Analyze(n).Grayscale)

	// Already-normalized images pass through without copying.
	src := makeTestImage(2, 2)
	assert.Same(t, src, NRGBAFromImage(src))
}
