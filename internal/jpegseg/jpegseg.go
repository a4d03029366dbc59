// Package jpegseg scans JPEG APP marker segments for the metadata blobs the
// encoder passes through to the container: EXIF, XMP and ICC profiles.
// The standard image/jpeg decoder discards these markers, so the encoder
// sample re-reads the file with this scanner.
package jpegseg

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"sort"
)

const (
	markerSOI  = 0xd8
	markerSOS  = 0xda
	markerEOI  = 0xd9
	markerAPP1 = 0xe1
	markerAPP2 = 0xe2

	exifPreamble = "Exif\x00\x00"
	xmpPreamble  = "http://ns.adobe.com/xap/1.0/\x00"
	iccMarkerTag = "ICC_PROFILE\x00"
)

// Segments holds the raw metadata blobs found in a JPEG stream, with marker
// preambles removed. Nil fields mean the blob was not present.
type Segments struct {
	EXIF []byte // TIFF blob (after "Exif\0\0")
	XMP  []byte // XMP packet
	ICC  []byte // reassembled ICC profile
}

// Scan reads a JPEG stream up to the start of entropy-coded data and
// collects metadata segments. Returns an error only for streams that are
// not JPEG at all; a truncated tail after valid markers yields what was
// found so far, and a malformed ICC chunk chain leaves ICC nil.
func Scan(r io.Reader) (*Segments, error) {
	br := byteSource{r: r}
	b0, err := br.byte()
	if err != nil {
		return nil, err
	}
	b1, err := br.byte()
	if err != nil {
		return nil, err
	}
	if b0 != 0xff || b1 != markerSOI {
		return nil, fmt.Errorf("jpegseg: not a JPEG stream")
	}

	segs := &Segments{}
	var iccChunks [][]byte
	for {
		marker, payload, err := br.segment()
		if err != nil || marker == markerSOS || marker == markerEOI {
			break
		}
		switch marker {
		case markerAPP1:
			switch {
			case bytes.HasPrefix(payload, []byte(exifPreamble)):
				segs.EXIF = payload[len(exifPreamble):]
			case bytes.HasPrefix(payload, []byte(xmpPreamble)):
				segs.XMP = payload[len(xmpPreamble):]
			}
		case markerAPP2:
			if bytes.HasPrefix(payload, []byte(iccMarkerTag)) {
				iccChunks = append(iccChunks, payload)
			}
		}
	}

	if len(iccChunks) > 0 {
		// A malformed chunk chain only loses the profile; the image itself
		// is still encodable.
		if icc, err := assembleICC(iccChunks); err == nil {
			segs.ICC = icc
		}
	}
	return segs, nil
}

// assembleICC reorders and concatenates "ICC_PROFILE\0" APP2 payloads.
// Each chunk carries a 1-based sequence number and a total count.
func assembleICC(payloads [][]byte) ([]byte, error) {
	type chunk struct {
		seq  int
		data []byte
	}
	var chunks []chunk
	expected := 0
	seen := make(map[int]bool)
	for _, p := range payloads {
		if len(p) < 14 {
			continue
		}
		seq := int(p[12])
		count := int(p[13])
		if seq == 0 || seq > count {
			return nil, fmt.Errorf("jpegseg: invalid ICC chunk sequence %d/%d", seq, count)
		}
		if seen[seq] {
			return nil, fmt.Errorf("jpegseg: duplicate ICC chunk %d", seq)
		}
		seen[seq] = true
		if expected == 0 {
			expected = count
		} else if count != expected {
			return nil, fmt.Errorf("jpegseg: inconsistent ICC chunk count: %d vs %d", count, expected)
		}
		chunks = append(chunks, chunk{seq: seq, data: p[14:]})
	}
	if len(chunks) != expected {
		return nil, fmt.Errorf("jpegseg: expected %d ICC chunks, found %d", expected, len(chunks))
	}
	sort.Slice(chunks, func(i, j int) bool { return chunks[i].seq < chunks[j].seq })

	var buf bytes.Buffer
	for _, c := range chunks {
		buf.Write(c.data)
	}
	return buf.Bytes(), nil
}

type byteSource struct {
	r   io.Reader
	buf [2]byte
}

func (s *byteSource) byte() (byte, error) {
	if _, err := io.ReadFull(s.r, s.buf[:1]); err != nil {
		return 0, err
	}
	return s.buf[0], nil
}

// segment reads the next marker and its payload (length bytes minus the
// 2-byte length field itself). Fill bytes before the marker are skipped.
func (s *byteSource) segment() (byte, []byte, error) {
	b, err := s.byte()
	if err != nil {
		return 0, nil, err
	}
	for b != 0xff {
		if b, err = s.byte(); err != nil {
			return 0, nil, err
		}
	}
	marker := byte(0xff)
	for marker == 0xff {
		if marker, err = s.byte(); err != nil {
			return 0, nil, err
		}
	}
	if marker == markerEOI || marker == markerSOS {
		return marker, nil, nil
	}
	if _, err := io.ReadFull(s.r, s.buf[:2]); err != nil {
		return 0, nil, err
	}
	n := int(binary.BigEndian.Uint16(s.buf[:2]))
	if n < 2 {
		return 0, nil, fmt.Errorf("jpegseg: bad segment length %d", n)
	}
	payload := make([]byte, n-2)
	if _, err := io.ReadFull(s.r, payload); err != nil {
		return 0, nil, err
	}
	return marker, payload, nil
}
