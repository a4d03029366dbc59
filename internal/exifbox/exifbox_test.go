package exifbox

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildTIFF assembles a little-endian TIFF blob with IFD0 containing an
// ImageWidth tag, optionally an Orientation tag, and a Make tag whose value
// lives past the directory (to prove offsets survive editing).
func buildTIFF(t *testing.T, orientation int) []byte {
	t.Helper()
	entries := 2
	if orientation > 0 {
		entries = 3
	}
	// header(8) + count(2) + entries + nextIFD(4), then the Make string.
	makeOff := 8 + 2 + entries*12 + 4
	buf := make([]byte, makeOff+6)
	le := binary.LittleEndian

	copy(buf, "II")
	le.PutUint16(buf[2:], 42)
	le.PutUint32(buf[4:], 8)
	le.PutUint16(buf[8:], uint16(entries))

	writeEntry := func(i int, tag, typ uint16, count, value uint32) {
		off := 10 + i*12
		le.PutUint16(buf[off:], tag)
		le.PutUint16(buf[off+2:], typ)
		le.PutUint32(buf[off+4:], count)
		le.PutUint32(buf[off+8:], value)
	}

	i := 0
	writeEntry(i, 0x0100, 3, 1, 640) // ImageWidth
	i++
	if orientation > 0 {
		writeEntry(i, 0x0112, 3, 1, uint32(orientation))
		i++
	}
	writeEntry(i, 0x010f, 2, 6, uint32(makeOff)) // Make, offset-stored ASCII
	copy(buf[makeOff:], "gopro\x00")
	return buf
}

// findTag scans IFD0 for a tag and returns its value field.
func findTag(t *testing.T, tiff []byte, tag uint16) (uint32, bool) {
	t.Helper()
	le := binary.LittleEndian
	off := int(le.Uint32(tiff[4:]))
	count := int(le.Uint16(tiff[off:]))
	for i := 0; i < count; i++ {
		entry := tiff[off+2+i*12:]
		if le.Uint16(entry) == tag {
			return le.Uint32(entry[8:]), true
		}
	}
	return 0, false
}

func TestOrientation(t *testing.T) {
	tiff := buildTIFF(t, 6)
	v, ok := Orientation(tiff)
	require.True(t, ok)
	assert.Equal(t, 6, v)

	_, ok = Orientation(buildTIFF(t, 0))
	assert.False(t, ok)
}

func TestStripOrientation(t *testing.T) {
	tiff := buildTIFF(t, 3)
	out := StripOrientation(tiff)

	_, ok := Orientation(out)
	assert.False(t, ok, "stripped blob must not contain an orientation tag")

	// Unrelated inline and offset-stored tags survive untouched.
	w, ok := findTag(t, out, 0x0100)
	require.True(t, ok)
	assert.Equal(t, uint32(640), w)
	makeOff, ok := findTag(t, out, 0x010f)
	require.True(t, ok)
	assert.Equal(t, "gopro\x00", string(out[makeOff:makeOff+6]))

	// Idempotent on blobs without the tag; same slice comes back.
	again := StripOrientation(out)
	assert.Equal(t, out, again)
}

func TestItemPayload(t *testing.T) {
	tiff := buildTIFF(t, 1)

	// HEIF Exif item: 4-byte offset, "Exif\0\0" preamble, then TIFF.
	item := make([]byte, 0, len(tiff)+10)
	item = append(item, 0, 0, 0, 6)
	item = append(item, "Exif\x00\x00"...)
	item = append(item, tiff...)

	got, ok := ItemPayload(item)
	require.True(t, ok)
	assert.Equal(t, tiff, got)

	// Zero offset with no preamble is also common.
	item2 := append([]byte{0, 0, 0, 0}, tiff...)
	got, ok = ItemPayload(item2)
	require.True(t, ok)
	assert.Equal(t, tiff, got)

	_, ok = ItemPayload([]byte{0, 0})
	assert.False(t, ok)
}
