package pixconv

import (
	"image"
	"image/draw"
)

// Analysis is the result of a full-image content scan on the encode path.
// Neither flag can revert once settled, so scanning may stop early.
type Analysis struct {
	Grayscale       bool
	HasTransparency bool
}

// Layout is the minimal plane representation for an image's content.
type Layout int

const (
	LayoutRGB Layout = iota
	LayoutRGBA
	LayoutMonochrome
	LayoutMonochromeAlpha
)

func (l Layout) String() string {
	switch l {
	case LayoutRGB:
		return "RGB"
	case LayoutRGBA:
		return "RGBA"
	case LayoutMonochrome:
		return "monochrome"
	case LayoutMonochromeAlpha:
		return "monochrome+alpha"
	}
	return "unknown"
}

// Analyze classifies pixel content: grayscale means R==G==B for every pixel,
// transparency means any pixel has alpha below 255. This is a pure function
// of the pixel data, not of any caller hint.
func Analyze(img *image.NRGBA) Analysis {
	a := Analysis{Grayscale: true}
	w := img.Rect.Dx()
	h := img.Rect.Dy()
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride:]
		for x := 0; x < w; x++ {
			off := x * 4
			if row[off] != row[off+1] || row[off+1] != row[off+2] {
				a.Grayscale = false
			}
			if row[off+3] != 0xff {
				a.HasTransparency = true
			}
			if !a.Grayscale && a.HasTransparency {
				return a
			}
		}
	}
	return a
}

// ChooseLayout maps an analysis to the smallest plane layout that can
// represent the content losslessly.
func ChooseLayout(a Analysis) Layout {
	switch {
	case a.Grayscale && a.HasTransparency:
		return LayoutMonochromeAlpha
	case a.Grayscale:
		return LayoutMonochrome
	case a.HasTransparency:
		return LayoutRGBA
	}
	return LayoutRGB
}

// NRGBAFromImage copies any decoded raster into an *image.NRGBA with bounds
// starting at (0,0). Returns the input unchanged when it already qualifies.
func NRGBAFromImage(src image.Image) *image.NRGBA {
	if n, ok := src.(*image.NRGBA); ok && n.Rect.Min == image.ZP {
		return n
	}
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// PackRGB writes the color channels of img into an interleaved 3-sample
// plane, honoring the destination stride chosen by the codec.
func PackRGB(dst Plane, img *image.NRGBA) error {
	d := Descriptor{Width: dst.Width, Height: dst.Height, BitDepth: 8}
	if err := d.check(dst); err != nil {
		return err
	}
	for y := 0; y < dst.Height; y++ {
		src := img.Pix[y*img.Stride:]
		row := dst.Data[y*dst.Stride:]
		readPos := 0
		writePos := 0
		for x := 0; x < dst.Width; x++ {
			row[writePos] = src[readPos]
			row[writePos+1] = src[readPos+1]
			row[writePos+2] = src[readPos+2]
			readPos += 4
			writePos += 3
		}
	}
	return nil
}

// PackRGBA writes img into an interleaved 4-sample plane. When premult is
// set, color channels are scaled by alpha; alpha is copied unmodified.
func PackRGBA(dst Plane, img *image.NRGBA, premult bool) error {
	d := Descriptor{Width: dst.Width, Height: dst.Height, BitDepth: 8, HasAlpha: true}
	if err := d.check(dst); err != nil {
		return err
	}
	for y := 0; y < dst.Height; y++ {
		src := img.Pix[y*img.Stride:]
		row := dst.Data[y*dst.Stride:]
		pos := 0
		for x := 0; x < dst.Width; x++ {
			r := src[pos]
			g := src[pos+1]
			b := src[pos+2]
			a := src[pos+3]
			if premult {
				r = premultiply(uint32(r), uint32(a))
				g = premultiply(uint32(g), uint32(a))
				b = premultiply(uint32(b), uint32(a))
			}
			row[pos] = r
			row[pos+1] = g
			row[pos+2] = b
			row[pos+3] = a
			pos += 4
		}
	}
	return nil
}

// PackGray writes a single 8-bit luma plane from a grayscale-classified
// image. The red channel is used; Analyze guarantees R==G==B.
func PackGray(dst Plane, img *image.NRGBA) error {
	if err := checkGrayPlane(dst); err != nil {
		return err
	}
	for y := 0; y < dst.Height; y++ {
		src := img.Pix[y*img.Stride:]
		row := dst.Data[y*dst.Stride:]
		readPos := 0
		for x := 0; x < dst.Width; x++ {
			row[x] = src[readPos]
			readPos += 4
		}
	}
	return nil
}

// PackGrayAlpha writes separate luma and alpha planes from a
// grayscale-classified image with transparency. Premultiplication applies
// to the luma samples the same way it does to RGB channels.
func PackGrayAlpha(dstY, dstA Plane, img *image.NRGBA, premult bool) error {
	if err := checkGrayPlane(dstY); err != nil {
		return err
	}
	if err := checkGrayPlane(dstA); err != nil {
		return err
	}
	for y := 0; y < dstY.Height; y++ {
		src := img.Pix[y*img.Stride:]
		rowY := dstY.Data[y*dstY.Stride:]
		rowA := dstA.Data[y*dstA.Stride:]
		readPos := 0
		for x := 0; x < dstY.Width; x++ {
			v := src[readPos]
			a := src[readPos+3]
			if premult {
				v = premultiply(uint32(v), uint32(a))
			}
			rowY[x] = v
			rowA[x] = a
			readPos += 4
		}
	}
	return nil
}

func checkGrayPlane(p Plane) error {
	if p.Stride < p.Width {
		return ErrBadLayout
	}
	if len(p.Data) < p.Stride*p.Height {
		return ErrBadLayout
	}
	return nil
}
