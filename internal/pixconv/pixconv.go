// Package pixconv converts between the interleaved plane buffers used by
// libheif and the typed pixel buffers of the standard image package.
//
// A Plane is a borrowed view into memory owned by the codec image; callers
// must not retain it past the lifetime of that image. All row access goes
// through the plane stride, which may be larger than the packed row size.
package pixconv

import (
	"encoding/binary"
	"errors"
	"fmt"
)

// ErrBadLayout marks an unsupported plane layout. It is a configuration
// error on the caller's side, not a recoverable input error.
var ErrBadLayout = errors.New("pixconv: unsupported plane layout")

// Plane is a view into one interleaved plane of a codec image.
// Data holds at least Height rows of Stride bytes each; bytes between the
// packed row size and Stride are padding and are never touched.
type Plane struct {
	Data   []byte
	Stride int
	Width  int
	Height int
}

// Descriptor carries the facts needed to interpret a plane: the effective
// bit depth (8, or up to 16 for HDR content), whether an alpha channel is
// interleaved, whether color is premultiplied by alpha, and the byte order
// of 16-bit samples. A nil Order means little endian, which is what the
// samples request from libheif on all supported hosts.
type Descriptor struct {
	Width         int
	Height        int
	BitDepth      int
	HasAlpha      bool
	Premultiplied bool
	Order         binary.ByteOrder
}

func (d Descriptor) channels() int {
	if d.HasAlpha {
		return 4
	}
	return 3
}

func (d Descriptor) bytesPerSample() int {
	if d.BitDepth > 8 {
		return 2
	}
	return 1
}

// maxSample is the largest sample value at the descriptor's bit depth.
// For HDR content this is (1<<BitDepth)-1, not 65535.
func (d Descriptor) maxSample() uint32 {
	return (1 << uint(d.BitDepth)) - 1
}

func (d Descriptor) byteOrder() binary.ByteOrder {
	if d.Order == nil {
		return binary.LittleEndian
	}
	return d.Order
}

// check validates the descriptor against the plane geometry.
func (d Descriptor) check(p Plane) error {
	if d.BitDepth < 1 || d.BitDepth > 16 {
		return fmt.Errorf("%w: bit depth %d", ErrBadLayout, d.BitDepth)
	}
	if p.Width != d.Width || p.Height != d.Height {
		return fmt.Errorf("%w: plane is %dx%d, descriptor says %dx%d",
			ErrBadLayout, p.Width, p.Height, d.Width, d.Height)
	}
	rowBytes := d.Width * d.channels() * d.bytesPerSample()
	if p.Stride < rowBytes {
		return fmt.Errorf("%w: stride %d < packed row size %d", ErrBadLayout, p.Stride, rowBytes)
	}
	if need := p.Stride * p.Height; len(p.Data) < need {
		return fmt.Errorf("%w: plane has %d bytes, need %d", ErrBadLayout, len(p.Data), need)
	}
	return nil
}
