package jpegseg

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appendSegment(buf *bytes.Buffer, marker byte, payload []byte) {
	buf.WriteByte(0xff)
	buf.WriteByte(marker)
	var l [2]byte
	binary.BigEndian.PutUint16(l[:], uint16(len(payload)+2))
	buf.Write(l[:])
	buf.Write(payload)
}

func TestScan(t *testing.T) {
	exif := []byte("II*\x00\x08\x00\x00\x00\x00\x00")
	xmp := []byte("<x:xmpmeta/>")
	profile := bytes.Repeat([]byte{0x42}, 40)

	var buf bytes.Buffer
	buf.Write([]byte{0xff, 0xd8})
	appendSegment(&buf, markerAPP1, append([]byte(exifPreamble), exif...))

	// ICC split over two out-of-order chunks.
	chunk := func(seq, count byte, data []byte) []byte {
		p := append([]byte(iccMarkerTag), seq, count)
		return append(p, data...)
	}
	appendSegment(&buf, markerAPP2, chunk(2, 2, profile[20:]))
	appendSegment(&buf, markerAPP2, chunk(1, 2, profile[:20]))

	appendSegment(&buf, markerAPP1, append([]byte(xmpPreamble), xmp...))
	appendSegment(&buf, 0xdb, make([]byte, 64)) // DQT, ignored
	buf.Write([]byte{0xff, 0xda})               // SOS ends the scan

	segs, err := Scan(&buf)
	require.NoError(t, err)
	assert.Equal(t, exif, segs.EXIF)
	assert.Equal(t, xmp, segs.XMP)
	assert.Equal(t, profile, segs.ICC)
}

func TestScanNoMetadata(t *testing.T) {
	var buf bytes.Buffer
	buf.Write([]byte{0xff, 0xd8})
	appendSegment(&buf, 0xdb, make([]byte, 64))
	buf.Write([]byte{0xff, 0xda})

	segs, err := Scan(&buf)
	require.NoError(t, err)
	assert.Nil(t, segs.EXIF)
	assert.Nil(t, segs.XMP)
	assert.Nil(t, segs.ICC)
}

func TestScanRejectsNonJPEG(t *testing.T) {
	_, err := Scan(bytes.NewReader([]byte("\x89PNG\r\n")))
	assert.Error(t, err)
}

// A broken ICC chunk chain must not abort the scan; the other metadata of
// the image still passes through.
func TestScanBadICCChainDropsProfile(t *testing.T) {
	exif := []byte("II*\x00\x08\x00\x00\x00\x00\x00")
	chunk := func(seq, count byte, data []byte) []byte {
		p := append([]byte(iccMarkerTag), seq, count)
		return append(p, data...)
	}

	var buf bytes.Buffer
	buf.Write([]byte{0xff, 0xd8})
	appendSegment(&buf, markerAPP1, append([]byte(exifPreamble), exif...))
	appendSegment(&buf, markerAPP2, chunk(2, 2, []byte("tail")))
	// Chunk 1 of 2 never appears.
	buf.Write([]byte{0xff, 0xda})

	segs, err := Scan(&buf)
	require.NoError(t, err)
	assert.Equal(t, exif, segs.EXIF)
	assert.Nil(t, segs.ICC)
}

func TestScanDuplicateICCSequence(t *testing.T) {
	chunk := func(seq, count byte, data []byte) []byte {
		p := append([]byte(iccMarkerTag), seq, count)
		return append(p, data...)
	}

	var buf bytes.Buffer
	buf.Write([]byte{0xff, 0xd8})
	appendSegment(&buf, markerAPP2, chunk(1, 2, []byte("left")))
	appendSegment(&buf, markerAPP2, chunk(1, 2, []byte("also-left")))
	buf.Write([]byte{0xff, 0xda})

	segs, err := Scan(&buf)
	require.NoError(t, err)
	assert.Nil(t, segs.ICC)
}
