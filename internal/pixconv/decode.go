package pixconv

import (
	"encoding/binary"
	"image"
)

// Unpack copies an interleaved RGB[A] plane into a freshly allocated typed
// pixel buffer. Bit depth 8 produces *image.NRGBA, anything above produces
// *image.NRGBA64 with the samples kept at their native range. When the
// descriptor says the source is premultiplied, color channels are
// un-premultiplied against alpha; alpha itself is copied verbatim.
func Unpack(p Plane, d Descriptor) (image.Image, error) {
	if err := d.check(p); err != nil {
		return nil, err
	}
	if d.BitDepth > 8 {
		return unpack16(p, d), nil
	}
	return unpack8(p, d), nil
}

func unpack8(p Plane, d Descriptor) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, d.Width, d.Height))
	strideAdd := p.Stride - d.Width*d.channels()
	readPos := 0
	writePos := 0

	if !d.HasAlpha {
		for y := 0; y < d.Height; y++ {
			for x := 0; x < d.Width; x++ {
				dst.Pix[writePos] = p.Data[readPos]
				dst.Pix[writePos+1] = p.Data[readPos+1]
				dst.Pix[writePos+2] = p.Data[readPos+2]
				dst.Pix[writePos+3] = 0xff
				readPos += 3
				writePos += 4
			}
			readPos += strideAdd
		}
		return dst
	}

	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			r := uint32(p.Data[readPos])
			g := uint32(p.Data[readPos+1])
			b := uint32(p.Data[readPos+2])
			a := uint32(p.Data[readPos+3])
			if d.Premultiplied {
				r = unmultiply(r, a, 0xff)
				g = unmultiply(g, a, 0xff)
				b = unmultiply(b, a, 0xff)
			}
			dst.Pix[writePos] = uint8(r)
			dst.Pix[writePos+1] = uint8(g)
			dst.Pix[writePos+2] = uint8(b)
			dst.Pix[writePos+3] = uint8(a)
			readPos += 4
			writePos += 4
		}
		readPos += strideAdd
	}
	return dst
}

func unpack16(p Plane, d Descriptor) *image.NRGBA64 {
	dst := image.NewNRGBA64(image.Rect(0, 0, d.Width, d.Height))
	ord := d.byteOrder()
	max := d.maxSample()
	channels := d.channels()
	strideAdd := p.Stride - d.Width*channels*2
	readPos := 0
	writePos := 0

	for y := 0; y < d.Height; y++ {
		for x := 0; x < d.Width; x++ {
			r := uint32(ord.Uint16(p.Data[readPos:]))
			g := uint32(ord.Uint16(p.Data[readPos+2:]))
			b := uint32(ord.Uint16(p.Data[readPos+4:]))
			a := max
			if d.HasAlpha {
				a = uint32(ord.Uint16(p.Data[readPos+6:]))
				if d.Premultiplied {
					r = unmultiply(r, a, max)
					g = unmultiply(g, a, max)
					b = unmultiply(b, a, max)
				}
			}
			binary.BigEndian.PutUint16(dst.Pix[writePos:], uint16(r))
			binary.BigEndian.PutUint16(dst.Pix[writePos+2:], uint16(g))
			binary.BigEndian.PutUint16(dst.Pix[writePos+4:], uint16(b))
			binary.BigEndian.PutUint16(dst.Pix[writePos+6:], uint16(a))
			readPos += channels * 2
			writePos += 8
		}
		readPos += strideAdd
	}
	return dst
}
