/*
 * heif-dec: decode HEIF/AVIF images to PNG.
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

package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/spf13/pflag"

	"heiftools/internal/exifbox"
	"heiftools/internal/heif"
	"heiftools/internal/pixconv"
	"heiftools/internal/pngchunk"
)

var (
	primaryOnly bool
	withDepth   bool
	withThumbs  bool
	withAux     bool
	noHDR       bool
	showHelp    bool
)

func usage() {
	fmt.Printf("Usage: heif-dec [options] <input.heic> <output.png>\n\n")
	fmt.Print(pflag.CommandLine.FlagUsages())
}

func main() {
	pflag.BoolVarP(&primaryOnly, "primary", "p", false, "decode only the primary image")
	pflag.BoolVarP(&withDepth, "depth", "d", false, "also decode depth images")
	pflag.BoolVarP(&withThumbs, "thumb", "t", false, "also decode thumbnails")
	pflag.BoolVarP(&withAux, "vendor-auxiliary", "x", false, "also decode vendor auxiliary images")
	pflag.BoolVar(&noHDR, "no-hdr", false, "convert HDR content to 8 bit")
	pflag.BoolVarP(&showHelp, "help", "h", false, "show help")
	pflag.Parse()

	if showHelp || pflag.NArg() != 2 {
		usage()
		return
	}

	decodeFile(pflag.Arg(0), pflag.Arg(1))
}

func decodeFile(input, output string) {
	ctx, err := heif.NewContext()
	if err != nil {
		fmt.Printf("Could not create context: %s\n", err)
		return
	}
	if err := ctx.ReadFromFile(input); err != nil {
		fmt.Printf("Could not read %s: %s\n", input, err)
		return
	}

	ids := ctx.GetListOfTopLevelImageIDs()
	if primaryOnly {
		id, err := ctx.GetPrimaryImageID()
		if err != nil {
			fmt.Printf("Could not get primary image: %s\n", err)
			return
		}
		ids = []int{id}
	}

	for i, id := range ids {
		handle, err := ctx.GetImageHandle(id)
		if err != nil {
			fmt.Printf("Could not get image handle %d: %s\n", id, err)
			return
		}
		if err := writeImage(handle, outputName(output, "", i, len(ids)), true); err != nil {
			fmt.Printf("Could not decode image %d: %s\n", id, err)
			return
		}

		if withDepth && handle.HasDepthImage() {
			depthIDs := handle.GetListOfDepthImageIDs()
			for j, did := range depthIDs {
				dh, err := handle.GetDepthImageHandle(did)
				if err != nil {
					fmt.Printf("Could not get depth image %d: %s\n", did, err)
					return
				}
				if err := writeImage(dh, outputName(output, "depth", j, len(depthIDs)), false); err != nil {
					fmt.Printf("Could not decode depth image %d: %s\n", did, err)
					return
				}
			}
		}

		if withThumbs {
			thumbIDs := handle.GetListOfThumbnailIDs()
			for j, tid := range thumbIDs {
				th, err := handle.GetThumbnail(tid)
				if err != nil {
					fmt.Printf("Could not get thumbnail %d: %s\n", tid, err)
					return
				}
				if err := writeImage(th, outputName(output, "thumb", j, len(thumbIDs)), false); err != nil {
					fmt.Printf("Could not decode thumbnail %d: %s\n", tid, err)
					return
				}
			}
		}

		if withAux {
			auxIDs := handle.GetListOfAuxiliaryImageIDs()
			for j, aid := range auxIDs {
				ah, err := handle.GetAuxiliaryImageHandle(aid)
				if err != nil {
					fmt.Printf("Could not get auxiliary image %d: %s\n", aid, err)
					return
				}
				typ, err := ah.GetAuxiliaryType()
				if err != nil {
					fmt.Printf("Could not get auxiliary type of image %d: %s\n", aid, err)
					return
				}
				if err := writeImage(ah, outputName(output, sanitizeAuxType(typ), j, len(auxIDs)), false); err != nil {
					fmt.Printf("Could not decode auxiliary image %d: %s\n", aid, err)
					return
				}
			}
		}
	}
}

// writeImage decodes one image handle and saves it as PNG. Metadata is only
// carried over for top-level images; depth maps, thumbnails and auxiliary
// images are saved bare.
func writeImage(handle *heif.ImageHandle, filename string, withMetadata bool) error {
	img, err := decodeToRaster(handle)
	if err != nil {
		return err
	}

	var chunks []pngchunk.Chunk
	if withMetadata {
		chunks = metadataChunks(handle)
	}
	return savePNG(img, filename, chunks)
}

// decodeToRaster decodes through an interleaved RGB[A] plane and converts it
// to an NRGBA/NRGBA64 raster. HDR content keeps its effective bit depth
// through the conversion and is widened to the full 16-bit range afterwards.
func decodeToRaster(handle *heif.ImageHandle) (image.Image, error) {
	bitDepth := handle.GetLumaBitsPerPixel()
	hasAlpha := handle.HasAlphaChannel()
	if noHDR {
		bitDepth = 8
	}

	options, err := heif.NewDecodingOptions()
	if err != nil {
		return nil, err
	}
	options.SetConvertHDRToEightBit(noHDR)

	var chroma heif.Chroma
	switch {
	case bitDepth > 8 && hasAlpha:
		chroma = heif.ChromaInterleavedRRGGBBAA_LE
	case bitDepth > 8:
		chroma = heif.ChromaInterleavedRRGGBB_LE
	case hasAlpha:
		chroma = heif.ChromaInterleavedRGBA
	default:
		chroma = heif.ChromaInterleavedRGB
	}

	img, err := handle.DecodeImage(heif.ColorspaceRGB, chroma, options)
	if err != nil {
		return nil, err
	}
	access, err := img.GetPlane(heif.ChannelInterleaved)
	if err != nil {
		return nil, err
	}

	d := pixconv.Descriptor{
		Width:         img.GetWidth(heif.ChannelInterleaved),
		Height:        img.GetHeight(heif.ChannelInterleaved),
		BitDepth:      img.GetBitsPerPixelRange(heif.ChannelInterleaved),
		HasAlpha:      hasAlpha,
		Premultiplied: handle.IsPremultipliedAlpha(),
		Order:         binary.LittleEndian,
	}
	plane := pixconv.Plane{
		Data:   access.Plane,
		Stride: access.Stride,
		Width:  d.Width,
		Height: d.Height,
	}

	raster, err := pixconv.Unpack(plane, d)
	if err != nil {
		return nil, err
	}
	if deep, ok := raster.(*image.NRGBA64); ok {
		widenNRGBA64(deep, d.BitDepth)
	}
	return raster, nil
}

// widenNRGBA64 scales samples at an effective bit depth below 16 up to the
// full 16-bit range by bit replication, so PNG viewers show correct levels.
func widenNRGBA64(img *image.NRGBA64, bitDepth int) {
	if bitDepth <= 8 || bitDepth >= 16 {
		return
	}
	up := 16 - uint(bitDepth)
	down := uint(2*bitDepth - 16)
	for pos := 0; pos < len(img.Pix); pos += 2 {
		v := binary.BigEndian.Uint16(img.Pix[pos:])
		v = (v << up) | (v >> down)
		binary.BigEndian.PutUint16(img.Pix[pos:], v)
	}
}

// metadataChunks collects EXIF/XMP/ICC from the image for PNG pass-through.
// The EXIF orientation tag is stripped: the container's orientation property
// was already applied during decoding, so keeping the tag would rotate twice.
func metadataChunks(handle *heif.ImageHandle) []pngchunk.Chunk {
	var chunks []pngchunk.Chunk
	for _, block := range handle.GetMetadataBlocks() {
		data, err := handle.GetMetadata(block.ID)
		if err != nil {
			fmt.Printf("Could not read metadata item %d: %s\n", block.ID, err)
			continue
		}
		switch {
		case block.ItemType == "Exif":
			if tiff, ok := exifbox.ItemPayload(data); ok {
				chunks = append(chunks, pngchunk.EXIF(exifbox.StripOrientation(tiff)))
			}
		case block.ContentType == "application/rdf+xml":
			chunks = append(chunks, pngchunk.XMP(data))
		}
	}

	switch handle.GetColorProfileType() {
	case heif.ColorProfileICC, heif.ColorProfileRestrictedICC:
		if icc, err := handle.GetRawColorProfile(); err != nil {
			fmt.Printf("Could not read color profile: %s\n", err)
		} else if len(icc) > 0 {
			chunks = append(chunks, pngchunk.ICCP("ICC profile", icc))
		}
	}
	return chunks
}

func savePNG(img image.Image, filename string, chunks []pngchunk.Chunk) error {
	var out bytes.Buffer
	if err := png.Encode(&out, img); err != nil {
		return fmt.Errorf("could not encode PNG: %w", err)
	}
	data, err := pngchunk.Insert(out.Bytes(), chunks...)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return err
	}
	fmt.Printf("Written to %s\n", filename)
	return nil
}
