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
	"unsafe"
)

// MetadataBlock describes one metadata item attached to an image, e.g.
// an "Exif" item or a "mime" item carrying XMP.
type MetadataBlock struct {
	ID          int
	ItemType    string // infe item type fourcc, e.g. "Exif", "mime"
	ContentType string // only meaningful for "mime" items
	Size        int
}

// GetMetadataBlocks lists all metadata items attached to the image.
func (h *ImageHandle) GetMetadataBlocks() []MetadataBlock {
	num := int(C.heif_image_handle_get_number_of_metadata_blocks(h.handle, nil))
	keepAlive(h)
	if num == 0 {
		return nil
	}

	ids := make([]C.heif_item_id, num)
	C.heif_image_handle_get_list_of_metadata_block_IDs(h.handle, nil, &ids[0], C.int(num))
	keepAlive(h)

	blocks := make([]MetadataBlock, 0, num)
	for _, id := range ids {
		blocks = append(blocks, MetadataBlock{
			ID:          int(id),
			ItemType:    C.GoString(C.heif_image_handle_get_metadata_type(h.handle, id)),
			ContentType: C.GoString(C.heif_image_handle_get_metadata_content_type(h.handle, id)),
			Size:        int(C.heif_image_handle_get_metadata_size(h.handle, id)),
		})
	}
	keepAlive(h)
	return blocks
}

// GetMetadata returns the raw bytes of a metadata item. For "Exif" items
// the blob starts with the 4-byte TIFF header offset defined by HEIF.
func (h *ImageHandle) GetMetadata(id int) ([]byte, error) {
	size := int(C.heif_image_handle_get_metadata_size(h.handle, C.heif_item_id(id)))
	keepAlive(h)
	if size == 0 {
		return nil, nil
	}

	data := make([]byte, size)
	err := C.heif_image_handle_get_metadata(h.handle, C.heif_item_id(id), unsafe.Pointer(&data[0]))
	keepAlive(h)
	if err := convertHeifError(err); err != nil {
		return nil, err
	}
	return data, nil
}

// AddExifMetadata attaches an EXIF (TIFF) blob to an encoded image.
// libheif prepends the HEIF item framing itself.
func (c *Context) AddExifMetadata(handle *ImageHandle, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	err := C.heif_context_add_exif_metadata(c.context, handle.handle, unsafe.Pointer(&data[0]), C.int(len(data)))
	keepAlive(c)
	keepAlive(handle)
	return convertHeifError(err)
}

// AddXMPMetadata attaches an XMP packet to an encoded image.
func (c *Context) AddXMPMetadata(handle *ImageHandle, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	err := C.heif_context_add_XMP_metadata(c.context, handle.handle, unsafe.Pointer(&data[0]), C.int(len(data)))
	keepAlive(c)
	keepAlive(handle)
	return convertHeifError(err)
}

// AddGenericMetadata attaches an arbitrary metadata item. The samples use
// it for the primary item description, stored as a mime text/plain item.
func (c *Context) AddGenericMetadata(handle *ImageHandle, data []byte, itemType, contentType string) error {
	cItemType := C.CString(itemType)
	defer C.free(unsafe.Pointer(cItemType))
	var cContentType *C.char
	if contentType != "" {
		cContentType = C.CString(contentType)
		defer C.free(unsafe.Pointer(cContentType))
	}

	err := C.heif_context_add_generic_metadata(c.context, handle.handle, unsafe.Pointer(&data[0]), C.int(len(data)), cItemType, cContentType)
	keepAlive(c)
	keepAlive(handle)
	return convertHeifError(err)
}

// --- color profiles

type ColorProfileType int

const (
	ColorProfileNotPresent ColorProfileType = iota
	ColorProfileNCLX
	ColorProfileRestrictedICC
	ColorProfileICC
)

func (t ColorProfileType) String() string {
	switch t {
	case ColorProfileNotPresent:
		return "none"
	case ColorProfileNCLX:
		return "nclx"
	case ColorProfileRestrictedICC:
		return "rICC"
	case ColorProfileICC:
		return "prof"
	}
	return "unknown"
}

func (h *ImageHandle) GetColorProfileType() ColorProfileType {
	t := C.heif_image_handle_get_color_profile_type(h.handle)
	keepAlive(h)
	switch t {
	case C.heif_color_profile_type_nclx:
		return ColorProfileNCLX
	case C.heif_color_profile_type_rICC:
		return ColorProfileRestrictedICC
	case C.heif_color_profile_type_prof:
		return ColorProfileICC
	}
	return ColorProfileNotPresent
}

// GetRawColorProfile returns the ICC profile bytes, if the image carries a
// prof/rICC profile.
func (h *ImageHandle) GetRawColorProfile() ([]byte, error) {
	size := int(C.heif_image_handle_get_raw_color_profile_size(h.handle))
	keepAlive(h)
	if size == 0 {
		return nil, nil
	}

	data := make([]byte, size)
	err := C.heif_image_handle_get_raw_color_profile(h.handle, unsafe.Pointer(&data[0]))
	keepAlive(h)
	if err := convertHeifError(err); err != nil {
		return nil, err
	}
	return data, nil
}

// NCLXProfile is the parametric color description: CICP code points plus
// the video range flag. Copied verbatim, never interpreted.
type NCLXProfile struct {
	ColorPrimaries          int
	TransferCharacteristics int
	MatrixCoefficients      int
	FullRange               bool
}

// SRGBNCLXProfile returns the nclx parameters describing sRGB content,
// the default the encoder sample attaches when the source has no profile.
func SRGBNCLXProfile() *NCLXProfile {
	return &NCLXProfile{
		ColorPrimaries:          1,  // BT.709 primaries
		TransferCharacteristics: 13, // sRGB transfer
		MatrixCoefficients:      6,  // BT.601
		FullRange:               true,
	}
}

func (h *ImageHandle) GetNCLXColorProfile() (*NCLXProfile, error) {
	var nclx *C.struct_heif_color_profile_nclx
	err := C.heif_image_handle_get_nclx_color_profile(h.handle, &nclx)
	keepAlive(h)
	if err := convertHeifError(err); err != nil {
		return nil, err
	}
	defer C.heif_nclx_color_profile_free(nclx)

	return &NCLXProfile{
		ColorPrimaries:          int(nclx.color_primaries),
		TransferCharacteristics: int(nclx.transfer_characteristics),
		MatrixCoefficients:      int(nclx.matrix_coefficients),
		FullRange:               nclx.full_range_flag != 0,
	}, nil
}

// SetRawColorProfile attaches an ICC profile to an image before encoding.
func (img *Image) SetRawColorProfile(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty color profile")
	}
	fourcc := C.CString("prof")
	defer C.free(unsafe.Pointer(fourcc))

	err := C.heif_image_set_raw_color_profile(img.image, fourcc, unsafe.Pointer(&data[0]), C.size_t(len(data)))
	keepAlive(img)
	return convertHeifError(err)
}

func (img *Image) SetNCLXColorProfile(p *NCLXProfile) error {
	nclx := C.heif_nclx_color_profile_alloc()
	if nclx == nil {
		return fmt.Errorf("could not allocate nclx profile")
	}
	defer C.heif_nclx_color_profile_free(nclx)

	nclx.color_primaries = C.enum_heif_color_primaries(p.ColorPrimaries)
	nclx.transfer_characteristics = C.enum_heif_transfer_characteristics(p.TransferCharacteristics)
	nclx.matrix_coefficients = C.enum_heif_matrix_coefficients(p.MatrixCoefficients)
	if p.FullRange {
		nclx.full_range_flag = 1
	} else {
		nclx.full_range_flag = 0
	}

	err := C.heif_image_set_nclx_color_profile(img.image, nclx)
	keepAlive(img)
	return convertHeifError(err)
}
