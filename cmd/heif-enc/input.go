package main

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"github.com/bep/imagemeta"
	"github.com/ftrvxmtrx/tga"
	_ "golang.org/x/image/bmp"

	"heiftools/internal/exifbox"
	"heiftools/internal/heif"
	"heiftools/internal/jpegseg"
	"heiftools/internal/pixconv"
)

// sourceImage is one loaded raster plus the metadata that passes through to
// the container. The EXIF blob has its orientation tag already consumed and
// stripped; the orientation lives in Orientation instead.
type sourceImage struct {
	Raster      *image.NRGBA
	EXIF        []byte
	XMP         []byte
	ICC         []byte
	Orientation heif.Orientation
}

// loadSource reads a PNG/JPEG/BMP/TGA file into an NRGBA raster and collects
// its metadata. TGA has no sniffable magic, so it is picked by extension.
func loadSource(filename string) (*sourceImage, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var raster image.Image
	ext := strings.ToLower(filepath.Ext(filename))
	if ext == ".tga" {
		raster, err = tga.Decode(f)
	} else {
		raster, _, err = image.Decode(f)
	}
	if err != nil {
		return nil, fmt.Errorf("could not decode %s: %w", filename, err)
	}

	src := &sourceImage{
		Raster:      pixconv.NRGBAFromImage(raster),
		Orientation: heif.OrientationNormal,
	}

	if ext == ".jpg" || ext == ".jpeg" {
		if _, err := f.Seek(0, 0); err != nil {
			return nil, err
		}
		segs, err := jpegseg.Scan(f)
		if err != nil {
			return nil, err
		}
		src.XMP = segs.XMP
		src.ICC = segs.ICC
		if segs.EXIF != nil {
			if o, ok := exifbox.Orientation(segs.EXIF); ok {
				src.Orientation = heif.Orientation(o)
			}
			src.EXIF = exifbox.StripOrientation(segs.EXIF)
		}
	}

	// JPEG orientation was handled above; PNG/TIFF/WebP sources still may
	// carry EXIF orientation, which imagemeta can read.
	if src.Orientation == heif.OrientationNormal {
		if format, ok := metaFormat(ext); ok {
			if o := readOrientation(f, format); o != 0 {
				src.Orientation = o
			}
		}
	}
	return src, nil
}

func metaFormat(ext string) (imagemeta.ImageFormat, bool) {
	switch ext {
	case ".png":
		return imagemeta.PNG, true
	case ".jpg", ".jpeg":
		return imagemeta.JPEG, true
	case ".tif", ".tiff":
		return imagemeta.TIFF, true
	case ".webp":
		return imagemeta.WebP, true
	}
	return 0, false
}

// readOrientation returns the EXIF orientation of the file, or 0 when the
// file has none. Metadata errors are not fatal for encoding.
func readOrientation(f *os.File, format imagemeta.ImageFormat) heif.Orientation {
	if _, err := f.Seek(0, 0); err != nil {
		return 0
	}

	var orientation heif.Orientation
	err := imagemeta.Decode(imagemeta.Options{
		R:           f,
		ImageFormat: format,
		Sources:     imagemeta.EXIF,
		ShouldHandleTag: func(ti imagemeta.TagInfo) bool {
			return ti.Tag == "Orientation"
		},
		HandleTag: func(ti imagemeta.TagInfo) error {
			if v, ok := tagValueInt(ti.Value); ok && v >= 1 && v <= 8 {
				orientation = heif.Orientation(v)
			}
			return nil
		},
	})
	if err != nil {
		return 0
	}
	return orientation
}

func tagValueInt(v any) (int, bool) {
	switch n := v.(type) {
	case uint16:
		return int(n), true
	case uint32:
		return int(n), true
	case int:
		return n, true
	case int64:
		return int(n), true
	}
	return 0, false
}
