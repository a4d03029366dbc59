// Package exifbox reads and edits the orientation tag of raw EXIF (TIFF)
// byte blobs. HEIF stores orientation as a first-class image property, so
// the samples strip the EXIF tag once it has been consumed; everything else
// in the blob passes through untouched.
package exifbox

import "encoding/binary"

const orientationTag = 0x0112

// ItemPayload strips the HEIF Exif item framing from a metadata block:
// a 4-byte offset to the TIFF header, which commonly skips an "Exif\0\0"
// preamble. Returns the TIFF blob and whether framing was recognized.
func ItemPayload(data []byte) ([]byte, bool) {
	if len(data) < 4 {
		return nil, false
	}
	off := binary.BigEndian.Uint32(data)
	rest := data[4:]
	if uint64(off) > uint64(len(rest)) {
		return nil, false
	}
	tiff := rest[off:]
	if len(tiff) >= 6 && string(tiff[:6]) == "Exif\x00\x00" {
		tiff = tiff[6:]
	}
	return tiff, validTIFF(tiff)
}

func validTIFF(tiff []byte) bool {
	if len(tiff) < 8 {
		return false
	}
	switch string(tiff[:2]) {
	case "II":
		return binary.LittleEndian.Uint16(tiff[2:]) == 42
	case "MM":
		return binary.BigEndian.Uint16(tiff[2:]) == 42
	}
	return false
}

func tiffOrder(tiff []byte) (binary.ByteOrder, bool) {
	if !validTIFF(tiff) {
		return nil, false
	}
	if tiff[0] == 'I' {
		return binary.LittleEndian, true
	}
	return binary.BigEndian, true
}

// ifd0 returns the offset of IFD0 and its entry count, or ok=false when the
// blob is truncated or malformed.
func ifd0(tiff []byte, ord binary.ByteOrder) (off int, count int, ok bool) {
	off = int(ord.Uint32(tiff[4:]))
	if off < 8 || off+2 > len(tiff) {
		return 0, 0, false
	}
	count = int(ord.Uint16(tiff[off:]))
	if off+2+count*12+4 > len(tiff) {
		return 0, 0, false
	}
	return off, count, true
}

// Orientation returns the EXIF orientation (1..8) from IFD0, if present.
func Orientation(tiff []byte) (int, bool) {
	ord, ok := tiffOrder(tiff)
	if !ok {
		return 0, false
	}
	off, count, ok := ifd0(tiff, ord)
	if !ok {
		return 0, false
	}
	for i := 0; i < count; i++ {
		entry := tiff[off+2+i*12:]
		if ord.Uint16(entry) != orientationTag {
			continue
		}
		// Orientation is a single SHORT stored inline.
		if ord.Uint16(entry[2:]) != 3 || ord.Uint32(entry[4:]) != 1 {
			return 0, false
		}
		v := int(ord.Uint16(entry[8:]))
		if v < 1 || v > 8 {
			return 0, false
		}
		return v, true
	}
	return 0, false
}

// StripOrientation returns a copy of the blob with the orientation entry
// removed from IFD0. Later entries and the next-IFD pointer shift up in
// place and the entry count is decremented; no other data moves, so every
// absolute offset in the file stays valid. The input is returned unchanged
// when no orientation tag is present.
func StripOrientation(tiff []byte) []byte {
	ord, ok := tiffOrder(tiff)
	if !ok {
		return tiff
	}
	off, count, ok := ifd0(tiff, ord)
	if !ok {
		return tiff
	}
	entryIdx := -1
	for i := 0; i < count; i++ {
		if ord.Uint16(tiff[off+2+i*12:]) == orientationTag {
			entryIdx = i
			break
		}
	}
	if entryIdx < 0 {
		return tiff
	}

	out := make([]byte, len(tiff))
	copy(out, tiff)

	entryOff := off + 2 + entryIdx*12
	tailEnd := off + 2 + count*12 + 4 // includes the next-IFD pointer
	copy(out[entryOff:], out[entryOff+12:tailEnd])
	for i := tailEnd - 12; i < tailEnd; i++ {
		out[i] = 0
	}
	ord.PutUint16(out[off:], uint16(count-1))
	return out
}
