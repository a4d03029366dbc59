/*
 * heif-info: dump information about a HEIF/AVIF file.
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

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"

	"heiftools/internal/heif"
)

var (
	showHelp    bool
	showVersion bool
)

func usage() {
	fmt.Printf("Usage: heif-info [options] <input.heic>\n\n")
	fmt.Print(pflag.CommandLine.FlagUsages())
}

func main() {
	pflag.BoolVarP(&showHelp, "help", "h", false, "show help")
	pflag.BoolVarP(&showVersion, "version", "v", false, "show libheif version")
	pflag.Parse()

	if showVersion {
		fmt.Printf("libheif version: %s\n", heif.GetVersion())
		return
	}
	if showHelp || pflag.NArg() != 1 {
		usage()
		return
	}

	dumpFile(pflag.Arg(0))
}

func dumpFile(input string) {
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
	fmt.Printf("%s: %d top-level image(s)\n", input, len(ids))

	for _, id := range ids {
		handle, err := ctx.GetImageHandle(id)
		if err != nil {
			fmt.Printf("Could not get image handle %d: %s\n", id, err)
			return
		}
		dumpImage(ctx, handle)
	}
}

func dumpImage(ctx *heif.Context, handle *heif.ImageHandle) {
	primary := ""
	if handle.IsPrimaryImage() {
		primary = ", primary"
	}
	width := handle.GetWidth()
	height := handle.GetHeight()
	fmt.Printf("\nimage %d: %dx%d, %d bit%s\n",
		handle.GetItemID(), width, height, handle.GetLumaBitsPerPixel(), primary)

	for _, tid := range handle.GetListOfThumbnailIDs() {
		thumb, err := handle.GetThumbnail(tid)
		if err != nil {
			fmt.Printf("  thumbnail %d: unreadable (%s)\n", tid, err)
			continue
		}
		fmt.Printf("  thumbnail: %dx%d\n", thumb.GetWidth(), thumb.GetHeight())
	}

	if !handle.HasAlphaChannel() {
		fmt.Printf("  alpha channel: no\n")
	} else if handle.IsPremultipliedAlpha() {
		fmt.Printf("  alpha channel: yes (premultiplied)\n")
	} else {
		fmt.Printf("  alpha channel: yes\n")
	}

	dumpColorProfile(handle)
	dumpDepth(handle)

	for _, aid := range handle.GetListOfAuxiliaryImageIDs() {
		ah, err := handle.GetAuxiliaryImageHandle(aid)
		if err != nil {
			continue
		}
		if typ, err := ah.GetAuxiliaryType(); err == nil {
			fmt.Printf("  auxiliary image: %s (%dx%d)\n", typ, ah.GetWidth(), ah.GetHeight())
		}
	}

	for _, block := range handle.GetMetadataBlocks() {
		if block.ContentType != "" {
			fmt.Printf("  metadata: %s (%s), %s\n",
				block.ItemType, block.ContentType, humanize.Bytes(uint64(block.Size)))
		} else {
			fmt.Printf("  metadata: %s, %s\n", block.ItemType, humanize.Bytes(uint64(block.Size)))
		}
	}

	for _, tf := range ctx.GetTransformations(handle.GetItemID(), width, height) {
		switch tf.Type {
		case heif.TransformationRotation:
			fmt.Printf("  transformation: rotation %d degrees ccw\n", tf.RotationCCW)
		case heif.TransformationMirror:
			fmt.Printf("  transformation: mirror %s\n", tf.MirrorDirection)
		case heif.TransformationCrop:
			fmt.Printf("  transformation: crop left=%d top=%d right=%d bottom=%d\n",
				tf.Left, tf.Top, tf.Right, tf.Bottom)
		}
	}

	if n := handle.GetNumberOfRegionItems(); n > 0 {
		fmt.Printf("  region items: %d\n", n)
	}
	if h, v, ok := handle.GetPixelAspectRatio(); ok {
		fmt.Printf("  pixel aspect ratio: %d:%d\n", h, v)
	}
	if cll, ok := handle.GetContentLightLevel(); ok {
		fmt.Printf("  content light level: max %d, average %d\n",
			cll.MaxContentLightLevel, cll.MaxPicAverageLightLevel)
	}
	if mdcv, ok := handle.GetMasteringDisplayColourVolume(); ok {
		fmt.Printf("  mastering display: primaries (%d,%d) (%d,%d) (%d,%d), white point (%d,%d), luminance %d-%d\n",
			mdcv.DisplayPrimariesX[0], mdcv.DisplayPrimariesY[0],
			mdcv.DisplayPrimariesX[1], mdcv.DisplayPrimariesY[1],
			mdcv.DisplayPrimariesX[2], mdcv.DisplayPrimariesY[2],
			mdcv.WhitePointX, mdcv.WhitePointY,
			mdcv.MinDisplayMasteringLuminance, mdcv.MaxDisplayMasteringLuminance)
	}
}

func dumpColorProfile(handle *heif.ImageHandle) {
	typ := handle.GetColorProfileType()
	switch typ {
	case heif.ColorProfileNotPresent:
		fmt.Printf("  color profile: none\n")
	case heif.ColorProfileNCLX:
		nclx, err := handle.GetNCLXColorProfile()
		if err != nil {
			fmt.Printf("  color profile: nclx, unreadable (%s)\n", err)
			return
		}
		fmt.Printf("  color profile: nclx, primaries %d, transfer %d, matrix %d, full range %v\n",
			nclx.ColorPrimaries, nclx.TransferCharacteristics, nclx.MatrixCoefficients, nclx.FullRange)
	default:
		icc, err := handle.GetRawColorProfile()
		if err != nil {
			fmt.Printf("  color profile: %s, unreadable (%s)\n", typ, err)
			return
		}
		fmt.Printf("  color profile: %s, %s\n", typ, humanize.Bytes(uint64(len(icc))))
	}
}

func dumpDepth(handle *heif.ImageHandle) {
	if !handle.HasDepthImage() {
		fmt.Printf("  depth channel: no\n")
		return
	}
	for _, did := range handle.GetListOfDepthImageIDs() {
		dh, err := handle.GetDepthImageHandle(did)
		if err != nil {
			fmt.Printf("  depth channel: unreadable (%s)\n", err)
			continue
		}
		fmt.Printf("  depth channel: %dx%d\n", dh.GetWidth(), dh.GetHeight())

		info, ok := handle.GetDepthImageRepresentationInfo(did)
		if !ok {
			continue
		}
		if info.HasZNear {
			fmt.Printf("    z-near: %g\n", info.ZNear)
		}
		if info.HasZFar {
			fmt.Printf("    z-far: %g\n", info.ZFar)
		}
		if info.HasDMin {
			fmt.Printf("    d-min: %g\n", info.DMin)
		}
		if info.HasDMax {
			fmt.Printf("    d-max: %g\n", info.DMax)
		}
		fmt.Printf("    representation type: %d\n", info.DepthRepresentationType)
		if info.HasDMin || info.HasDMax {
			fmt.Printf("    disparity reference view: %d\n", info.DisparityReferenceView)
		}
	}
}
