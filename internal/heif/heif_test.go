/*
 * GO interface to libheif
 *
 * This file is part of heiftools, a set of example applications using
 * libheif.
 *
 * heiftools is free software: you can redistribute it and/or modify
 * it under the terms of the GNU General Public License as published by
 * the Free Software Foundation, either version 3 of the License, or
 * (at your option) any later version.
 *
 * heiftools is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
 * GNU General Public License for more details.
 *
 * You should have received a copy of the GNU General Public License
 * along with heiftools.  If not, see <http://www.gnu.org/licenses/>.
 */

package heif

import (
	"os"
	"path/filepath"
	"testing"
)

func TestGetVersion(t *testing.T) {
	if GetVersion() == "" {
		t.Fatal("Version is missing")
	}
}

func exampleFile(t *testing.T) string {
	t.Helper()
	filename := filepath.Join("testdata", "example.heic")
	if _, err := os.Stat(filename); err != nil {
		t.Skipf("no test image %s", filename)
	}
	return filename
}

func checkImage(t *testing.T, handle *ImageHandle, thumbnail bool) {
	if handle.GetWidth() <= 0 || handle.GetHeight() <= 0 {
		t.Errorf("Bad image size %dx%d", handle.GetWidth(), handle.GetHeight())
	}
	if handle.GetLumaBitsPerPixel() <= 0 {
		t.Error("Expected positive luma bit depth")
	}

	count := handle.GetNumberOfDepthImages()
	if ids := handle.GetListOfDepthImageIDs(); len(ids) != count {
		t.Errorf("Expected %d depth image ids, got %d", count, len(ids))
	}
	if !thumbnail {
		count = handle.GetNumberOfThumbnails()
		ids := handle.GetListOfThumbnailIDs()
		if len(ids) != count {
			t.Errorf("Expected %d thumbnail image ids, got %d", count, len(ids))
		}
		for _, id := range ids {
			if thumb, err := handle.GetThumbnail(id); err != nil {
				t.Errorf("Could not get thumbnail %d: %s", id, err)
			} else {
				checkImage(t, thumb, true)
			}
		}
	}

	chromas := []Chroma{
		ChromaInterleavedRGB,
		ChromaInterleavedRGBA,
		ChromaInterleavedRRGGBB_LE,
		ChromaInterleavedRRGGBBAA_LE,
	}
	for _, chroma := range chromas {
		img, err := handle.DecodeImage(ColorspaceRGB, chroma, nil)
		if err != nil {
			t.Errorf("Could not decode image with chroma %v: %s", chroma, err)
			continue
		}
		img.GetColorspace()
		img.GetChromaFormat()
		if _, err := img.GetPlane(ChannelInterleaved); err != nil {
			t.Errorf("Could not get interleaved plane for chroma %v: %s", chroma, err)
		}
	}
}

func checkFile(t *testing.T, ctx *Context) {
	count := ctx.GetNumberOfTopLevelImages()
	if ids := ctx.GetListOfTopLevelImageIDs(); len(ids) != count {
		t.Errorf("Expected %d top level image ids, got %+v", count, ids)
	}
	if _, err := ctx.GetPrimaryImageID(); err != nil {
		t.Errorf("Expected a primary image, got %s", err)
	}
	handle, err := ctx.GetPrimaryImageHandle()
	if err != nil {
		t.Fatalf("Could not get primary image handle: %s", err)
	}
	if !handle.IsPrimaryImage() {
		t.Error("Expected primary image")
	}
	checkImage(t, handle, false)
}

func TestReadFromFile(t *testing.T) {
	ctx, err := NewContext()
	if err != nil {
		t.Fatalf("Can't create context: %s", err)
	}

	filename := exampleFile(t)
	if err := ctx.ReadFromFile(filename); err != nil {
		t.Fatalf("Can't read from %s: %s", filename, err)
	}

	checkFile(t, ctx)
}

func TestReadFromMemory(t *testing.T) {
	ctx, err := NewContext()
	if err != nil {
		t.Fatalf("Can't create context: %s", err)
	}

	filename := exampleFile(t)
	data, err := os.ReadFile(filename)
	if err != nil {
		t.Fatalf("Can't read file %s: %s", filename, err)
	}
	if err := ctx.ReadFromMemory(data); err != nil {
		t.Fatalf("Can't read from memory: %s", err)
	}
	data = nil // Make sure future processing works if "data" is GC'd

	checkFile(t, ctx)
}

func TestEncodeRoundTrip(t *testing.T) {
	ctx, err := NewContext()
	if err != nil {
		t.Fatalf("Can't create context: %s", err)
	}
	descriptors := ctx.GetEncoderDescriptors(CompressionHEVC)
	if len(descriptors) == 0 {
		t.Skip("no HEVC encoder available")
	}

	enc, err := ctx.NewEncoder(CompressionHEVC)
	if err != nil {
		t.Fatalf("Could not create encoder: %s", err)
	}
	if enc.ID() != descriptors[0].ID {
		t.Errorf("Expected encoder %s, got %s", descriptors[0].ID, enc.ID())
	}
	if params := enc.ListParameters(); len(params) == 0 {
		t.Error("Expected encoder parameters")
	}
	if err := enc.SetQuality(60); err != nil {
		t.Fatalf("Could not set quality: %s", err)
	}

	const w, h = 64, 48
	img, err := NewImage(w, h, ColorspaceRGB, ChromaInterleavedRGB)
	if err != nil {
		t.Fatalf("Could not create image: %s", err)
	}
	access, err := img.NewPlane(ChannelInterleaved, w, h, 8)
	if err != nil {
		t.Fatalf("Could not add plane: %s", err)
	}
	for y := 0; y < h; y++ {
		row := access.Plane[y*access.Stride:]
		for x := 0; x < w; x++ {
			row[x*3] = byte(x * 4)
			row[x*3+1] = byte(y * 5)
			row[x*3+2] = 0x80
		}
	}
	access.Flush()

	options, err := NewEncodingOptions()
	if err != nil {
		t.Fatalf("Could not create encoding options: %s", err)
	}
	handle, err := ctx.EncodeImage(img, enc, options)
	if err != nil {
		t.Fatalf("Could not encode image: %s", err)
	}
	if handle.GetWidth() != w || handle.GetHeight() != h {
		t.Errorf("Encoded size %dx%d, want %dx%d", handle.GetWidth(), handle.GetHeight(), w, h)
	}

	outname := filepath.Join(t.TempDir(), "out.heic")
	if err := ctx.WriteToFile(outname); err != nil {
		t.Fatalf("Could not write %s: %s", outname, err)
	}

	back, err := NewContext()
	if err != nil {
		t.Fatalf("Can't create context: %s", err)
	}
	if err := back.ReadFromFile(outname); err != nil {
		t.Fatalf("Can't read back %s: %s", outname, err)
	}
	if _, err := back.GetPrimaryImageHandle(); err != nil {
		t.Errorf("No primary image in round-tripped file: %s", err)
	}
}
