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

// Package heif wraps the native libheif library: container reading and
// writing, image handles, decode/encode, plane access and metadata.
// Pixel-format conversion on top of the raw planes lives in pixconv.
package heif

/*
#cgo pkg-config: libheif
#include <stdlib.h>
#include <string.h> // We use 'memcpy'
#include <libheif/heif.h>
#include <libheif/heif_properties.h>
#include <libheif/heif_regions.h>
*/
import "C"

import (
	"fmt"
	"runtime"
	"unsafe"
)

func GetVersion() string {
	return C.GoString(C.heif_get_version())
}

func keepAlive(v interface{}) {
	runtime.KeepAlive(v)
}

type Compression C.enum_heif_compression_format

const (
	CompressionUndefined = C.heif_compression_undefined
	CompressionHEVC      = C.heif_compression_HEVC
	CompressionAV1       = C.heif_compression_AV1
	CompressionAVC       = C.heif_compression_AVC
	CompressionJPEG      = C.heif_compression_JPEG
)

type Chroma C.enum_heif_chroma

const (
	ChromaUndefined              = C.heif_chroma_undefined
	ChromaMonochrome             = C.heif_chroma_monochrome
	Chroma420                    = C.heif_chroma_420
	Chroma422                    = C.heif_chroma_422
	Chroma444                    = C.heif_chroma_444
	ChromaInterleavedRGB         = C.heif_chroma_interleaved_RGB
	ChromaInterleavedRGBA        = C.heif_chroma_interleaved_RGBA
	ChromaInterleavedRRGGBBAA_BE = C.heif_chroma_interleaved_RRGGBBAA_BE
	ChromaInterleavedRRGGBBAA_LE = C.heif_chroma_interleaved_RRGGBBAA_LE
	ChromaInterleavedRRGGBB_BE   = C.heif_chroma_interleaved_RRGGBB_BE
	ChromaInterleavedRRGGBB_LE   = C.heif_chroma_interleaved_RRGGBB_LE
)

type Colorspace C.enum_heif_colorspace

const (
	ColorspaceUndefined  = C.heif_colorspace_undefined
	ColorspaceYCbCr      = C.heif_colorspace_YCbCr
	ColorspaceRGB        = C.heif_colorspace_RGB
	ColorspaceMonochrome = C.heif_colorspace_monochrome
)

type Channel C.enum_heif_channel

const (
	ChannelY           = C.heif_channel_Y
	ChannelCb          = C.heif_channel_Cb
	ChannelCr          = C.heif_channel_Cr
	ChannelR           = C.heif_channel_R
	ChannelG           = C.heif_channel_G
	ChannelB           = C.heif_channel_B
	ChannelAlpha       = C.heif_channel_Alpha
	ChannelInterleaved = C.heif_channel_interleaved
)

type LosslessMode int

const (
	LosslessModeDisabled LosslessMode = iota
	LosslessModeEnabled
)

type LoggingLevel int

const (
	LoggingLevelNone LoggingLevel = iota
	LoggingLevelBasic
	LoggingLevelAdvanced
	LoggingLevelFull
)

// Orientation mirrors heif_orientation; values match the EXIF orientation
// codes 1..8.
type Orientation C.enum_heif_orientation

const (
	OrientationNormal                       = C.heif_orientation_normal
	OrientationFlipHorizontally             = C.heif_orientation_flip_horizontally
	OrientationRotate180                    = C.heif_orientation_rotate_180
	OrientationFlipVertically               = C.heif_orientation_flip_vertically
	OrientationRotate90CWThenFlipHorizontal = C.heif_orientation_rotate_90_cw_then_flip_horizontally
	OrientationRotate90CW                   = C.heif_orientation_rotate_90_cw
	OrientationRotate90CWThenFlipVertical   = C.heif_orientation_rotate_90_cw_then_flip_vertically
	OrientationRotate270CW                  = C.heif_orientation_rotate_270_cw
)

// --- HeifError

type ErrorCode C.enum_heif_error_code

const (
	ErrorOK = C.heif_error_Ok

	// Input file does not exist.
	ErrorInputDoesNotExist = C.heif_error_Input_does_not_exist

	// Error in input file. Corrupted or invalid content.
	ErrorInvalidInput = C.heif_error_Invalid_input

	// Input file type is not supported.
	ErrorUnsupportedFiletype = C.heif_error_Unsupported_filetype

	// Image requires an unsupported decoder feature.
	ErrorUnsupportedFeature = C.heif_error_Unsupported_feature

	// Library API has been used in an invalid way.
	ErrorUsage = C.heif_error_Usage_error

	// Could not allocate enough memory.
	ErrorMemoryAllocation = C.heif_error_Memory_allocation_error

	// The decoder plugin generated an error
	ErrorDecoderPlugin = C.heif_error_Decoder_plugin_error

	// The encoder plugin generated an error
	ErrorEncoderPlugin = C.heif_error_Encoder_plugin_error

	// Error during encoding or when writing to the output
	ErrorEncoding = C.heif_error_Encoding_error

	// Application has asked for a color profile type that does not exist
	ErrorColorProfileDoesNotExist = C.heif_error_Color_profile_does_not_exist
)

type ErrorSubcode C.enum_heif_suberror_code

type HeifError struct {
	Code    ErrorCode
	Subcode ErrorSubcode
	Message string
}

func (e *HeifError) Error() string {
	return e.Message
}

func convertHeifError(cerror C.struct_heif_error) error {
	if cerror.code == ErrorOK {
		return nil
	}

	return &HeifError{
		Code:    ErrorCode(cerror.code),
		Subcode: ErrorSubcode(cerror.subcode),
		Message: C.GoString(cerror.message),
	}
}

func convertItemIDs(ids []C.heif_item_id, count int) []int {
	result := make([]int, count)
	for i := 0; i < count; i++ {
		result[i] = int(ids[i])
	}
	return result
}

// --- Context

type Context struct {
	context *C.struct_heif_context
}

func NewContext() (*Context, error) {
	ctx := &Context{
		context: C.heif_context_alloc(),
	}
	if ctx.context == nil {
		return nil, fmt.Errorf("could not allocate context")
	}

	runtime.SetFinalizer(ctx, freeHeifContext)
	return ctx, nil
}

func freeHeifContext(c *Context) {
	C.heif_context_free(c.context)
	c.context = nil
}

func (c *Context) ReadFromFile(filename string) error {
	c_filename := C.CString(filename)
	defer C.free(unsafe.Pointer(c_filename))

	err := C.heif_context_read_from_file(c.context, c_filename, nil)
	keepAlive(c)
	return convertHeifError(err)
}

func (c *Context) ReadFromMemory(data []byte) error {
	err := C.heif_context_read_from_memory(c.context, unsafe.Pointer(&data[0]), C.size_t(len(data)), nil)
	keepAlive(c)
	return convertHeifError(err)
}

func (c *Context) WriteToFile(filename string) error {
	c_filename := C.CString(filename)
	defer C.free(unsafe.Pointer(c_filename))

	err := C.heif_context_write_to_file(c.context, c_filename)
	keepAlive(c)
	return convertHeifError(err)
}

func (c *Context) GetNumberOfTopLevelImages() int {
	i := int(C.heif_context_get_number_of_top_level_images(c.context))
	keepAlive(c)
	return i
}

func (c *Context) GetListOfTopLevelImageIDs() []int {
	num := int(C.heif_context_get_number_of_top_level_images(c.context))
	keepAlive(c)
	if num == 0 {
		return []int{}
	}

	origIDs := make([]C.heif_item_id, num)
	C.heif_context_get_list_of_top_level_image_IDs(c.context, &origIDs[0], C.int(num))
	keepAlive(c)
	return convertItemIDs(origIDs, num)
}

func (c *Context) GetPrimaryImageID() (int, error) {
	var id C.heif_item_id
	err := C.heif_context_get_primary_image_ID(c.context, &id)
	keepAlive(c)
	if err := convertHeifError(err); err != nil {
		return 0, err
	}
	return int(id), nil
}

// --- ImageHandle

type ImageHandle struct {
	handle *C.struct_heif_image_handle

	// keeps the context alive while the handle is reachable
	ctx *Context
}

func freeHeifImageHandle(c *ImageHandle) {
	C.heif_image_handle_release(c.handle)
	c.handle = nil
}

func (c *Context) GetPrimaryImageHandle() (*ImageHandle, error) {
	handle := &ImageHandle{ctx: c}
	err := C.heif_context_get_primary_image_handle(c.context, &handle.handle)
	keepAlive(c)
	if err := convertHeifError(err); err != nil {
		return nil, err
	}
	runtime.SetFinalizer(handle, freeHeifImageHandle)
	return handle, nil
}

func (c *Context) GetImageHandle(id int) (*ImageHandle, error) {
	handle := &ImageHandle{ctx: c}
	err := C.heif_context_get_image_handle(c.context, C.heif_item_id(id), &handle.handle)
	keepAlive(c)
	if err := convertHeifError(err); err != nil {
		return nil, err
	}
	runtime.SetFinalizer(handle, freeHeifImageHandle)
	return handle, nil
}

func (h *ImageHandle) IsPrimaryImage() bool {
	ok := C.heif_image_handle_is_primary_image(h.handle) != 0
	keepAlive(h)
	return ok
}

func (h *ImageHandle) GetWidth() int {
	i := int(C.heif_image_handle_get_width(h.handle))
	keepAlive(h)
	return i
}

func (h *ImageHandle) GetHeight() int {
	i := int(C.heif_image_handle_get_height(h.handle))
	keepAlive(h)
	return i
}

func (h *ImageHandle) HasAlphaChannel() bool {
	ok := C.heif_image_handle_has_alpha_channel(h.handle) != 0
	keepAlive(h)
	return ok
}

// IsPremultipliedAlpha reports whether the stored alpha channel is
// premultiplied into the color channels.
func (h *ImageHandle) IsPremultipliedAlpha() bool {
	ok := C.heif_image_handle_is_premultiplied_alpha(h.handle) != 0
	keepAlive(h)
	return ok
}

// GetLumaBitsPerPixel returns the effective bit depth of the luma channel,
// or -1 when undefined.
func (h *ImageHandle) GetLumaBitsPerPixel() int {
	i := int(C.heif_image_handle_get_luma_bits_per_pixel(h.handle))
	keepAlive(h)
	return i
}

func (h *ImageHandle) GetItemID() int {
	id := int(C.heif_image_handle_get_item_id(h.handle))
	keepAlive(h)
	return id
}

func (h *ImageHandle) HasDepthImage() bool {
	ok := C.heif_image_handle_has_depth_image(h.handle) != 0
	keepAlive(h)
	return ok
}

func (h *ImageHandle) GetNumberOfDepthImages() int {
	i := int(C.heif_image_handle_get_number_of_depth_images(h.handle))
	keepAlive(h)
	return i
}

func (h *ImageHandle) GetListOfDepthImageIDs() []int {
	num := int(C.heif_image_handle_get_number_of_depth_images(h.handle))
	keepAlive(h)
	if num == 0 {
		return []int{}
	}

	origIDs := make([]C.heif_item_id, num)
	C.heif_image_handle_get_list_of_depth_image_IDs(h.handle, &origIDs[0], C.int(num))
	keepAlive(h)
	return convertItemIDs(origIDs, num)
}

func (h *ImageHandle) GetDepthImageHandle(depthImageID int) (*ImageHandle, error) {
	handle := &ImageHandle{ctx: h.ctx}
	err := C.heif_image_handle_get_depth_image_handle(h.handle, C.heif_item_id(depthImageID), &handle.handle)
	keepAlive(h)
	if err := convertHeifError(err); err != nil {
		return nil, err
	}

	runtime.SetFinalizer(handle, freeHeifImageHandle)
	return handle, nil
}

func (h *ImageHandle) GetNumberOfThumbnails() int {
	i := int(C.heif_image_handle_get_number_of_thumbnails(h.handle))
	keepAlive(h)
	return i
}

func (h *ImageHandle) GetListOfThumbnailIDs() []int {
	num := int(C.heif_image_handle_get_number_of_thumbnails(h.handle))
	keepAlive(h)
	if num == 0 {
		return []int{}
	}

	origIDs := make([]C.heif_item_id, num)
	C.heif_image_handle_get_list_of_thumbnail_IDs(h.handle, &origIDs[0], C.int(num))
	keepAlive(h)
	return convertItemIDs(origIDs, num)
}

func (h *ImageHandle) GetThumbnail(thumbnailID int) (*ImageHandle, error) {
	handle := &ImageHandle{ctx: h.ctx}
	err := C.heif_image_handle_get_thumbnail(h.handle, C.heif_item_id(thumbnailID), &handle.handle)
	keepAlive(h)
	if err := convertHeifError(err); err != nil {
		return nil, err
	}
	runtime.SetFinalizer(handle, freeHeifImageHandle)
	return handle, nil
}

// --- auxiliary images (vendor-specific, excluding alpha and depth)

const auxFilterOmitAlphaDepth = C.LIBHEIF_AUX_IMAGE_FILTER_OMIT_ALPHA | C.LIBHEIF_AUX_IMAGE_FILTER_OMIT_DEPTH

func (h *ImageHandle) GetListOfAuxiliaryImageIDs() []int {
	num := int(C.heif_image_handle_get_number_of_auxiliary_images(h.handle, auxFilterOmitAlphaDepth))
	keepAlive(h)
	if num == 0 {
		return []int{}
	}

	origIDs := make([]C.heif_item_id, num)
	C.heif_image_handle_get_list_of_auxiliary_image_IDs(h.handle, auxFilterOmitAlphaDepth, &origIDs[0], C.int(num))
	keepAlive(h)
	return convertItemIDs(origIDs, num)
}

func (h *ImageHandle) GetAuxiliaryImageHandle(auxID int) (*ImageHandle, error) {
	handle := &ImageHandle{ctx: h.ctx}
	err := C.heif_image_handle_get_auxiliary_image_handle(h.handle, C.heif_item_id(auxID), &handle.handle)
	keepAlive(h)
	if err := convertHeifError(err); err != nil {
		return nil, err
	}
	runtime.SetFinalizer(handle, freeHeifImageHandle)
	return handle, nil
}

// GetAuxiliaryType returns the urn identifying a vendor auxiliary image,
// e.g. "urn:com:apple:photo:2020:aux:hdrgainmap".
func (h *ImageHandle) GetAuxiliaryType() (string, error) {
	var ctype *C.char
	err := C.heif_image_handle_get_auxiliary_type(h.handle, &ctype)
	keepAlive(h)
	if err := convertHeifError(err); err != nil {
		return "", err
	}
	typ := C.GoString(ctype)
	C.heif_image_handle_release_auxiliary_type(h.handle, &ctype)
	return typ, nil
}

// --- Image

type DecodingOptions struct {
	options *C.struct_heif_decoding_options
}

func NewDecodingOptions() (*DecodingOptions, error) {
	options := &DecodingOptions{
		options: C.heif_decoding_options_alloc(),
	}
	if options.options == nil {
		return nil, fmt.Errorf("could not allocate decoding options")
	}

	runtime.SetFinalizer(options, freeHeifDecodingOptions)
	return options, nil
}

func freeHeifDecodingOptions(options *DecodingOptions) {
	C.heif_decoding_options_free(options.options)
	options.options = nil
}

// SetConvertHDRToEightBit makes decoding reduce >8-bit content to 8-bit.
func (o *DecodingOptions) SetConvertHDRToEightBit(convert bool) {
	if convert {
		o.options.convert_hdr_to_8bit = 1
	} else {
		o.options.convert_hdr_to_8bit = 0
	}
}

type Image struct {
	image *C.struct_heif_image
}

func NewImage(width, height int, colorspace Colorspace, chroma Chroma) (*Image, error) {
	var image Image
	err := C.heif_image_create(C.int(width), C.int(height), uint32(colorspace), uint32(chroma), &image.image)
	if err := convertHeifError(err); err != nil {
		return nil, err
	}
	runtime.SetFinalizer(&image, freeHeifImage)
	return &image, nil
}

func freeHeifImage(image *Image) {
	C.heif_image_release(image.image)
	image.image = nil
}

func (h *ImageHandle) DecodeImage(colorspace Colorspace, chroma Chroma, options *DecodingOptions) (*Image, error) {
	var image Image

	var opt *C.struct_heif_decoding_options
	if options != nil {
		opt = options.options
	}

	err := C.heif_decode_image(h.handle, &image.image, uint32(colorspace), uint32(chroma), opt)
	keepAlive(h)
	keepAlive(options)
	if err := convertHeifError(err); err != nil {
		return nil, err
	}

	runtime.SetFinalizer(&image, freeHeifImage)
	return &image, nil
}

func (img *Image) GetColorspace() Colorspace {
	cs := Colorspace(C.heif_image_get_colorspace(img.image))
	keepAlive(img)
	return cs
}

func (img *Image) GetChromaFormat() Chroma {
	c := Chroma(C.heif_image_get_chroma_format(img.image))
	keepAlive(img)
	return c
}

func (img *Image) GetWidth(channel Channel) int {
	i := int(C.heif_image_get_width(img.image, uint32(channel)))
	keepAlive(img)
	return i
}

func (img *Image) GetHeight(channel Channel) int {
	i := int(C.heif_image_get_height(img.image, uint32(channel)))
	keepAlive(img)
	return i
}

// GetBitsPerPixelRange returns the effective bit depth of a channel,
// e.g. 10 for ten-bit content stored in 16-bit samples.
func (img *Image) GetBitsPerPixelRange(channel Channel) int {
	i := int(C.heif_image_get_bits_per_pixel_range(img.image, uint32(channel)))
	keepAlive(img)
	return i
}

// SetPremultipliedAlpha records the alpha convention of the image so that
// downstream consumers know whether colors are premultiplied.
func (img *Image) SetPremultipliedAlpha(premultiplied bool) {
	var v C.int
	if premultiplied {
		v = 1
	}
	C.heif_image_set_premultiplied_alpha(img.image, v)
	keepAlive(img)
}

func (img *Image) IsPremultipliedAlpha() bool {
	ok := C.heif_image_is_premultiplied_alpha(img.image) != 0
	keepAlive(img)
	return ok
}

// ImageAccess is a view of one plane of an image. Plane is a Go copy of the
// native data; it is only valid to Flush it back while the parent image is
// alive, which the embedded reference guarantees.
type ImageAccess struct {
	Plane    []byte
	planePtr unsafe.Pointer
	Stride   int
	height   int

	image *Image // need this reference to make sure the image is not GC'ed while we access it
}

// Flush copies the Go plane buffer back into the native image.
func (a *ImageAccess) Flush() {
	C.memcpy(a.planePtr, unsafe.Pointer(&a.Plane[0]), C.size_t(a.height*a.Stride))
	keepAlive(a.image)
}

func (img *Image) GetPlane(channel Channel) (*ImageAccess, error) {
	height := C.heif_image_get_height(img.image, uint32(channel))
	keepAlive(img)
	if height == -1 {
		return nil, fmt.Errorf("no such channel %v", channel)
	}

	var stride C.int
	plane := C.heif_image_get_plane(img.image, uint32(channel), &stride)
	keepAlive(img)
	if plane == nil {
		return nil, fmt.Errorf("no such channel %v", channel)
	}

	ptr := unsafe.Pointer(plane)
	size := stride * height
	access := &ImageAccess{
		Plane:    C.GoBytes(ptr, size),
		planePtr: ptr,
		Stride:   int(stride),
		height:   int(height),
		image:    img,
	}
	return access, nil
}

func (img *Image) NewPlane(channel Channel, width, height, depth int) (*ImageAccess, error) {
	err := C.heif_image_add_plane(img.image, uint32(channel), C.int(width), C.int(height), C.int(depth))
	keepAlive(img)
	if err := convertHeifError(err); err != nil {
		return nil, err
	}
	return img.GetPlane(channel)
}
