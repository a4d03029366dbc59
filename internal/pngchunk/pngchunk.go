// Package pngchunk splices ancillary metadata chunks into a PNG produced by
// the standard encoder, which has no metadata support of its own. Chunks
// are inserted directly after IHDR so that iCCP lands before any PLTE/IDAT,
// as the PNG spec requires.
package pngchunk

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"

	"github.com/klauspost/compress/zlib"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// Chunk is one ancillary chunk ready for insertion.
type Chunk struct {
	Type string // 4-character chunk type
	Data []byte
}

// EXIF wraps a raw TIFF blob as an eXIf chunk.
func EXIF(tiff []byte) Chunk {
	return Chunk{Type: "eXIf", Data: tiff}
}

// ICCP wraps an ICC profile as an iCCP chunk: profile name, null
// terminator, compression method 0, deflate-compressed profile bytes.
func ICCP(name string, profile []byte) Chunk {
	var buf bytes.Buffer
	buf.WriteString(name)
	buf.WriteByte(0)
	buf.WriteByte(0)
	zw := zlib.NewWriter(&buf)
	zw.Write(profile)
	zw.Close()
	return Chunk{Type: "iCCP", Data: buf.Bytes()}
}

// XMP wraps an XMP packet as the iTXt chunk defined by the XMP spec:
// keyword "XML:com.adobe.xmp", uncompressed, empty language and
// translated-keyword fields.
func XMP(xmp []byte) Chunk {
	var buf bytes.Buffer
	buf.WriteString("XML:com.adobe.xmp")
	buf.Write([]byte{0, 0, 0, 0, 0})
	buf.Write(xmp)
	return Chunk{Type: "iTXt", Data: buf.Bytes()}
}

// Insert returns the PNG with the given chunks spliced in after IHDR.
func Insert(png []byte, chunks ...Chunk) ([]byte, error) {
	if len(chunks) == 0 {
		return png, nil
	}
	if !bytes.HasPrefix(png, pngSignature) {
		return nil, fmt.Errorf("pngchunk: missing PNG signature")
	}
	if len(png) < len(pngSignature)+8 || string(png[12:16]) != "IHDR" {
		return nil, fmt.Errorf("pngchunk: IHDR not first chunk")
	}
	ihdrLen := int(binary.BigEndian.Uint32(png[8:]))
	ihdrEnd := len(pngSignature) + 8 + ihdrLen + 4
	if ihdrEnd > len(png) {
		return nil, fmt.Errorf("pngchunk: truncated IHDR")
	}

	var out bytes.Buffer
	out.Grow(len(png) + 64)
	out.Write(png[:ihdrEnd])
	for _, c := range chunks {
		if len(c.Type) != 4 {
			return nil, fmt.Errorf("pngchunk: bad chunk type %q", c.Type)
		}
		writeChunk(&out, c)
	}
	out.Write(png[ihdrEnd:])
	return out.Bytes(), nil
}

func writeChunk(out *bytes.Buffer, c Chunk) {
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[:4], uint32(len(c.Data)))
	copy(hdr[4:], c.Type)
	out.Write(hdr[:])
	out.Write(c.Data)

	crc := crc32.NewIEEE()
	crc.Write(hdr[4:])
	crc.Write(c.Data)
	var sum [4]byte
	binary.BigEndian.PutUint32(sum[:], crc.Sum32())
	out.Write(sum[:])
}
