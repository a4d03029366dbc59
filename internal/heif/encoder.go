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

/*
#cgo pkg-config: libheif
#include <stdlib.h>
#include <libheif/heif.h>
*/
import "C"

import (
	"fmt"
	"runtime"
	"unsafe"
)

type Encoder struct {
	encoder    *C.struct_heif_encoder
	descriptor *C.struct_heif_encoder_descriptor
	id         string
	name       string
}

func (e *Encoder) ID() string {
	return e.id
}

func (e *Encoder) Name() string {
	return e.name
}

func (e *Encoder) SetQuality(q int) error {
	err := C.heif_encoder_set_lossy_quality(e.encoder, C.int(q))
	keepAlive(e)
	return convertHeifError(err)
}

func (e *Encoder) SetLossless(l LosslessMode) error {
	err := C.heif_encoder_set_lossless(e.encoder, C.int(l))
	keepAlive(e)
	return convertHeifError(err)
}

func (e *Encoder) SetLoggingLevel(l LoggingLevel) error {
	err := C.heif_encoder_set_logging_level(e.encoder, C.int(l))
	keepAlive(e)
	return convertHeifError(err)
}

// SupportsLossless reports whether the encoder has a real lossless mode;
// encoders without one silently encode lossy, so callers warn instead.
func (e *Encoder) SupportsLossless() bool {
	ok := C.heif_encoder_descriptor_supports_lossless_compression(e.descriptor) != 0
	keepAlive(e)
	return ok
}

// EncoderParameterType is the value domain of one encoder parameter.
type EncoderParameterType int

const (
	EncoderParameterTypeInteger EncoderParameterType = iota
	EncoderParameterTypeBoolean
	EncoderParameterTypeString
)

func (t EncoderParameterType) String() string {
	switch t {
	case EncoderParameterTypeInteger:
		return "integer"
	case EncoderParameterTypeBoolean:
		return "boolean"
	case EncoderParameterTypeString:
		return "string"
	}
	return "unknown"
}

type EncoderParameter struct {
	Name string
	Type EncoderParameterType
}

// ListParameters enumerates the tunable parameters of the encoder plugin.
func (e *Encoder) ListParameters() []EncoderParameter {
	var result []EncoderParameter
	params := C.heif_encoder_list_parameters(e.encoder)
	keepAlive(e)
	if params == nil {
		return result
	}
	ptrSize := unsafe.Sizeof(*params)
	for p := params; *p != nil; p = (**C.struct_heif_encoder_parameter)(unsafe.Pointer(uintptr(unsafe.Pointer(p)) + ptrSize)) {
		name := C.GoString(C.heif_encoder_parameter_get_name(*p))
		var typ EncoderParameterType
		switch C.heif_encoder_parameter_get_type(*p) {
		case C.heif_encoder_parameter_type_integer:
			typ = EncoderParameterTypeInteger
		case C.heif_encoder_parameter_type_boolean:
			typ = EncoderParameterTypeBoolean
		default:
			typ = EncoderParameterTypeString
		}
		result = append(result, EncoderParameter{Name: name, Type: typ})
	}
	return result
}

// SetParameter sets an encoder parameter from its string form; libheif
// parses the value according to the parameter type.
func (e *Encoder) SetParameter(name, value string) error {
	cName := C.CString(name)
	defer C.free(unsafe.Pointer(cName))
	cValue := C.CString(value)
	defer C.free(unsafe.Pointer(cValue))

	err := C.heif_encoder_set_parameter(e.encoder, cName, cValue)
	keepAlive(e)
	return convertHeifError(err)
}

func freeHeifEncoder(enc *Encoder) {
	C.heif_encoder_release(enc.encoder)
	enc.encoder = nil
}

// EncoderDescriptor identifies one available encoder plugin.
type EncoderDescriptor struct {
	ID   string
	Name string

	descriptor *C.struct_heif_encoder_descriptor
}

// GetEncoderDescriptors lists the encoder plugins available for a
// compression format, in default priority order.
func (c *Context) GetEncoderDescriptors(compression Compression) []EncoderDescriptor {
	const max = 32
	descriptors := make([]*C.struct_heif_encoder_descriptor, max)
	num := int(C.heif_context_get_encoder_descriptors(c.context, uint32(compression), nil, &descriptors[0], C.int(max)))
	keepAlive(c)

	result := make([]EncoderDescriptor, 0, num)
	for i := 0; i < num; i++ {
		result = append(result, EncoderDescriptor{
			ID:         C.GoString(C.heif_encoder_descriptor_get_id_name(descriptors[i])),
			Name:       C.GoString(C.heif_encoder_descriptor_get_name(descriptors[i])),
			descriptor: descriptors[i],
		})
	}
	return result
}

func (c *Context) newEncoderFromDescriptor(d EncoderDescriptor) (*Encoder, error) {
	enc := &Encoder{
		id:         d.ID,
		name:       d.Name,
		descriptor: d.descriptor,
	}
	err := C.heif_context_get_encoder(c.context, d.descriptor, &enc.encoder)
	keepAlive(c)
	if err := convertHeifError(err); err != nil {
		return nil, err
	}
	runtime.SetFinalizer(enc, freeHeifEncoder)
	return enc, nil
}

// NewEncoder returns the highest-priority encoder for a compression format.
func (c *Context) NewEncoder(compression Compression) (*Encoder, error) {
	descriptors := c.GetEncoderDescriptors(compression)
	if len(descriptors) == 0 {
		return nil, fmt.Errorf("no encoder for compression %v", compression)
	}
	return c.newEncoderFromDescriptor(descriptors[0])
}

// NewEncoderByID returns the encoder whose descriptor ID matches, among the
// plugins registered for the compression format.
func (c *Context) NewEncoderByID(compression Compression, id string) (*Encoder, error) {
	for _, d := range c.GetEncoderDescriptors(compression) {
		if d.ID == id {
			return c.newEncoderFromDescriptor(d)
		}
	}
	return nil, fmt.Errorf("unknown encoder ID %q", id)
}

// --- encoding options

// ChromaDownsampling selects the chroma downsampling algorithm used during
// the RGB to YCbCr conversion step of encoding.
type ChromaDownsampling C.enum_heif_chroma_downsampling_algorithm

const (
	ChromaDownsamplingNearestNeighbor = C.heif_chroma_downsampling_nearest_neighbor
	ChromaDownsamplingAverage         = C.heif_chroma_downsampling_average
	ChromaDownsamplingSharpYUV        = C.heif_chroma_downsampling_sharp_yuv
)

type EncodingOptions struct {
	options *C.struct_heif_encoding_options
}

func NewEncodingOptions() (*EncodingOptions, error) {
	options := &EncodingOptions{
		options: C.heif_encoding_options_alloc(),
	}
	if options.options == nil {
		return nil, fmt.Errorf("could not allocate encoding options")
	}

	runtime.SetFinalizer(options, freeHeifEncodingOptions)
	return options, nil
}

func freeHeifEncodingOptions(options *EncodingOptions) {
	C.heif_encoding_options_free(options.options)
	options.options = nil
}

func (o *EncodingOptions) SetSaveAlphaChannel(save bool) {
	if save {
		o.options.save_alpha_channel = 1
	} else {
		o.options.save_alpha_channel = 0
	}
}

// SetWriteTwoColorProfiles makes the muxer write both an ICC and an nclx
// colr box when both are attached to the image.
func (o *EncodingOptions) SetWriteTwoColorProfiles(two bool) {
	if two {
		o.options.save_two_colr_boxes_when_ICC_and_nclx_available = 1
	} else {
		o.options.save_two_colr_boxes_when_ICC_and_nclx_available = 0
	}
}

// SetOrientation stores the orientation as an irot/imir image property.
func (o *EncodingOptions) SetOrientation(orientation Orientation) {
	o.options.image_orientation = C.enum_heif_orientation(orientation)
}

func (o *EncodingOptions) SetChromaDownsampling(algo ChromaDownsampling) {
	o.options.color_conversion_options.preferred_chroma_downsampling_algorithm = C.enum_heif_chroma_downsampling_algorithm(algo)
	o.options.color_conversion_options.only_use_preferred_chroma_algorithm = 1
}

// --- encoding

func (c *Context) EncodeImage(img *Image, enc *Encoder, options *EncodingOptions) (*ImageHandle, error) {
	var opt *C.struct_heif_encoding_options
	if options != nil {
		opt = options.options
	}

	handle := &ImageHandle{ctx: c}
	err := C.heif_context_encode_image(c.context, img.image, enc.encoder, opt, &handle.handle)
	keepAlive(c)
	keepAlive(img)
	keepAlive(enc)
	keepAlive(options)
	if err := convertHeifError(err); err != nil {
		return nil, err
	}
	runtime.SetFinalizer(handle, freeHeifImageHandle)
	return handle, nil
}

// EncodeThumbnail encodes img scaled into boundingBoxSize and attaches it
// to master. Returns nil when the library decides the image is already
// small enough to not need a thumbnail.
func (c *Context) EncodeThumbnail(img *Image, master *ImageHandle, enc *Encoder, options *EncodingOptions, boundingBoxSize int) (*ImageHandle, error) {
	var opt *C.struct_heif_encoding_options
	if options != nil {
		opt = options.options
	}

	handle := &ImageHandle{ctx: c}
	err := C.heif_context_encode_thumbnail(c.context, img.image, master.handle, enc.encoder, opt, C.int(boundingBoxSize), &handle.handle)
	keepAlive(c)
	keepAlive(img)
	keepAlive(master)
	keepAlive(enc)
	keepAlive(options)
	if err := convertHeifError(err); err != nil {
		return nil, err
	}
	if handle.handle == nil {
		return nil, nil
	}
	runtime.SetFinalizer(handle, freeHeifImageHandle)
	return handle, nil
}

func (c *Context) SetPrimaryImage(handle *ImageHandle) error {
	err := C.heif_context_set_primary_image(c.context, handle.handle)
	keepAlive(c)
	keepAlive(handle)
	return convertHeifError(err)
}
