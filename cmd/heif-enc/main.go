/*
 * heif-enc: encode raster images to HEIF/AVIF.
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
	"fmt"
	"image"
	"strings"

	"github.com/spf13/pflag"

	"heiftools/internal/heif"
	"heiftools/internal/pixconv"
)

var (
	useAVIF       bool
	quality       int
	lossless      bool
	thumbBox      int
	encoderID     string
	listEncoders  bool
	encoderParams []string
	listParams    bool
	noAlpha       bool
	noThumbAlpha  bool
	twoProfiles   bool
	premultiply   bool
	chromaDSName  string
	description   string
	showHelp      bool
	showVersion   bool
)

func usage() {
	fmt.Printf("Usage: heif-enc [options] <input> <output.heic>\n\n")
	fmt.Printf("Input formats: PNG, JPEG, BMP, TGA.\n\n")
	fmt.Print(pflag.CommandLine.FlagUsages())
}

func main() {
	pflag.BoolVarP(&useAVIF, "avif", "A", false, "encode AVIF (AV1) instead of HEIC (HEVC)")
	pflag.IntVarP(&quality, "quality", "q", 50, "lossy quality (0-100)")
	pflag.BoolVarP(&lossless, "lossless", "L", false, "lossless encoding")
	pflag.IntVarP(&thumbBox, "thumbnail-bounding-box-size", "t", 0, "add a thumbnail fitting this bounding box")
	pflag.StringVarP(&encoderID, "encoder", "e", "", "use the encoder with this ID")
	pflag.BoolVarP(&listEncoders, "list-encoders", "E", false, "list the available encoders")
	pflag.StringArrayVarP(&encoderParams, "encoder-parameter", "p", nil, "set an encoder parameter (KEY=VALUE)")
	pflag.BoolVarP(&listParams, "list-encoder-parameters", "P", false, "list the parameters of the selected encoder")
	pflag.BoolVar(&noAlpha, "no-alpha", false, "do not save the alpha channel")
	pflag.BoolVar(&noThumbAlpha, "no-thumbnail-alpha", false, "do not save the thumbnail alpha channel")
	pflag.BoolVar(&twoProfiles, "write-two-profiles", false, "write both an ICC and an nclx color profile")
	pflag.BoolVar(&premultiply, "premultiply", false, "premultiply color channels by alpha")
	pflag.StringVarP(&chromaDSName, "chroma-downsampling", "C", "", "chroma downsampling algorithm (nearest-neighbor|average|sharpyuv)")
	pflag.StringVarP(&description, "primary-item-description", "d", "", "store this text as the primary item description")
	pflag.BoolVarP(&showHelp, "help", "h", false, "show help")
	pflag.BoolVarP(&showVersion, "version", "v", false, "show libheif version")
	pflag.Parse()

	if showVersion {
		fmt.Printf("libheif version: %s\n", heif.GetVersion())
		return
	}
	if showHelp {
		usage()
		return
	}

	compression := heif.Compression(heif.CompressionHEVC)
	if useAVIF {
		compression = heif.CompressionAV1
	}

	ctx, err := heif.NewContext()
	if err != nil {
		fmt.Printf("Could not create context: %s\n", err)
		return
	}

	if listEncoders {
		for _, d := range ctx.GetEncoderDescriptors(compression) {
			fmt.Printf("%s = %s\n", d.ID, d.Name)
		}
		return
	}

	enc, err := newEncoder(ctx, compression)
	if err != nil {
		fmt.Printf("%s\n", err)
		return
	}

	if listParams {
		fmt.Printf("Parameters of encoder %s:\n", enc.Name())
		for _, p := range enc.ListParameters() {
			fmt.Printf("  %s (%s)\n", p.Name, p.Type)
		}
		return
	}

	if quality < 0 || quality > 100 {
		fmt.Printf("Quality must be between 0 and 100, got %d\n", quality)
		return
	}
	chromaDS, ok := parseChromaDownsampling(chromaDSName)
	if !ok {
		fmt.Printf("Unknown chroma downsampling algorithm %q (nearest-neighbor|average|sharpyuv)\n", chromaDSName)
		return
	}
	if pflag.NArg() != 2 {
		usage()
		return
	}

	encodeFile(ctx, enc, chromaDS, pflag.Arg(0), pflag.Arg(1))
}

func newEncoder(ctx *heif.Context, compression heif.Compression) (*heif.Encoder, error) {
	if encoderID == "" {
		return ctx.NewEncoder(compression)
	}
	return ctx.NewEncoderByID(compression, encoderID)
}

func parseChromaDownsampling(name string) (heif.ChromaDownsampling, bool) {
	switch name {
	case "", "average":
		return heif.ChromaDownsamplingAverage, true
	case "nearest-neighbor":
		return heif.ChromaDownsamplingNearestNeighbor, true
	case "sharpyuv":
		return heif.ChromaDownsamplingSharpYUV, true
	}
	return 0, false
}

func encodeFile(ctx *heif.Context, enc *heif.Encoder, chromaDS heif.ChromaDownsampling, input, output string) {
	src, err := loadSource(input)
	if err != nil {
		fmt.Printf("Could not load %s: %s\n", input, err)
		return
	}

	if err := enc.SetQuality(quality); err != nil {
		fmt.Printf("Could not set quality: %s\n", err)
		return
	}
	if lossless {
		if !enc.SupportsLossless() {
			fmt.Printf("Warning: encoder %s does not support lossless encoding, encoding lossy\n", enc.ID())
		} else if err := enc.SetLossless(heif.LosslessModeEnabled); err != nil {
			fmt.Printf("Could not enable lossless encoding: %s\n", err)
			return
		}
	}
	for _, param := range encoderParams {
		key, value, ok := strings.Cut(param, "=")
		if !ok {
			fmt.Printf("Encoder parameter must have the form KEY=VALUE, got %q\n", param)
			return
		}
		if err := enc.SetParameter(key, value); err != nil {
			fmt.Printf("Could not set encoder parameter %s: %s\n", key, err)
			return
		}
	}

	analysis := pixconv.Analyze(src.Raster)
	layout := pixconv.ChooseLayout(analysis)
	fmt.Printf("Input is %s\n", layout)

	img, err := makeImage(src.Raster, layout)
	if err != nil {
		fmt.Printf("Could not build image: %s\n", err)
		return
	}

	if src.ICC != nil {
		if err := img.SetRawColorProfile(src.ICC); err != nil {
			fmt.Printf("Could not set ICC profile: %s\n", err)
			return
		}
	}
	if src.ICC == nil || twoProfiles {
		if err := img.SetNCLXColorProfile(heif.SRGBNCLXProfile()); err != nil {
			fmt.Printf("Could not set nclx profile: %s\n", err)
			return
		}
	}

	options, err := heif.NewEncodingOptions()
	if err != nil {
		fmt.Printf("Could not create encoding options: %s\n", err)
		return
	}
	options.SetSaveAlphaChannel(!noAlpha)
	options.SetWriteTwoColorProfiles(twoProfiles)
	options.SetOrientation(src.Orientation)
	if chromaDSName != "" {
		options.SetChromaDownsampling(chromaDS)
	}

	handle, err := ctx.EncodeImage(img, enc, options)
	if err != nil {
		fmt.Printf("Could not encode image: %s\n", err)
		return
	}

	if err := ctx.AddExifMetadata(handle, src.EXIF); err != nil {
		fmt.Printf("Could not add EXIF metadata: %s\n", err)
		return
	}
	if err := ctx.AddXMPMetadata(handle, src.XMP); err != nil {
		fmt.Printf("Could not add XMP metadata: %s\n", err)
		return
	}
	if description != "" {
		if err := ctx.AddGenericMetadata(handle, []byte(description), "mime", "text/plain"); err != nil {
			fmt.Printf("Could not add primary item description: %s\n", err)
			return
		}
	}

	if thumbBox > 0 {
		thumbOptions, err := heif.NewEncodingOptions()
		if err != nil {
			fmt.Printf("Could not create encoding options: %s\n", err)
			return
		}
		thumbOptions.SetSaveAlphaChannel(!noAlpha && !noThumbAlpha)
		thumb, err := ctx.EncodeThumbnail(img, handle, enc, thumbOptions, thumbBox)
		if err != nil {
			fmt.Printf("Could not encode thumbnail: %s\n", err)
			return
		}
		if thumb == nil {
			fmt.Printf("Image fits the thumbnail bounding box, no thumbnail added\n")
		}
	}

	if err := ctx.WriteToFile(output); err != nil {
		fmt.Printf("Could not write %s: %s\n", output, err)
		return
	}
	fmt.Printf("Written to %s\n", output)
}

// makeImage packs the raster into a codec image with the minimal plane
// layout for its content. The codec chooses the plane strides; the packers
// honor them.
func makeImage(raster *image.NRGBA, layout pixconv.Layout) (*heif.Image, error) {
	w := raster.Rect.Dx()
	h := raster.Rect.Dy()

	switch layout {
	case pixconv.LayoutMonochrome, pixconv.LayoutMonochromeAlpha:
		img, err := heif.NewImage(w, h, heif.ColorspaceMonochrome, heif.ChromaMonochrome)
		if err != nil {
			return nil, err
		}
		luma, err := img.NewPlane(heif.ChannelY, w, h, 8)
		if err != nil {
			return nil, err
		}
		if layout == pixconv.LayoutMonochrome {
			if err := pixconv.PackGray(planeOf(luma, w, h), raster); err != nil {
				return nil, err
			}
			luma.Flush()
			return img, nil
		}
		alpha, err := img.NewPlane(heif.ChannelAlpha, w, h, 8)
		if err != nil {
			return nil, err
		}
		if err := pixconv.PackGrayAlpha(planeOf(luma, w, h), planeOf(alpha, w, h), raster, premultiply); err != nil {
			return nil, err
		}
		luma.Flush()
		alpha.Flush()
		img.SetPremultipliedAlpha(premultiply)
		return img, nil

	case pixconv.LayoutRGB:
		img, err := heif.NewImage(w, h, heif.ColorspaceRGB, heif.ChromaInterleavedRGB)
		if err != nil {
			return nil, err
		}
		plane, err := img.NewPlane(heif.ChannelInterleaved, w, h, 8)
		if err != nil {
			return nil, err
		}
		if err := pixconv.PackRGB(planeOf(plane, w, h), raster); err != nil {
			return nil, err
		}
		plane.Flush()
		return img, nil

	case pixconv.LayoutRGBA:
		img, err := heif.NewImage(w, h, heif.ColorspaceRGB, heif.ChromaInterleavedRGBA)
		if err != nil {
			return nil, err
		}
		plane, err := img.NewPlane(heif.ChannelInterleaved, w, h, 8)
		if err != nil {
			return nil, err
		}
		if err := pixconv.PackRGBA(planeOf(plane, w, h), raster, premultiply); err != nil {
			return nil, err
		}
		plane.Flush()
		img.SetPremultipliedAlpha(premultiply)
		return img, nil
	}
	return nil, fmt.Errorf("unsupported layout %v", layout)
}

func planeOf(access *heif.ImageAccess, w, h int) pixconv.Plane {
	return pixconv.Plane{
		Data:   access.Plane,
		Stride: access.Stride,
		Width:  w,
		Height: h,
	}
}
