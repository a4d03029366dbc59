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
#include <libheif/heif.h>
#include <libheif/heif_properties.h>
#include <libheif/heif_regions.h>
*/
import "C"

import "unsafe"

type TransformationType int

const (
	TransformationRotation TransformationType = iota // irot
	TransformationMirror                             // imir
	TransformationCrop                               // clap
)

type MirrorDirection int

const (
	MirrorDirectionVertical   MirrorDirection = C.heif_transform_mirror_direction_vertical
	MirrorDirectionHorizontal MirrorDirection = C.heif_transform_mirror_direction_horizontal
)

func (d MirrorDirection) String() string {
	if d == MirrorDirectionVertical {
		return "vertical"
	}
	return "horizontal"
}

// Transformation is one irot/imir/clap property of an item, in the order
// the file declares them (which is the order they must be applied).
type Transformation struct {
	Type TransformationType

	RotationCCW     int             // irot: counter-clockwise degrees
	MirrorDirection MirrorDirection // imir

	Left, Top, Right, Bottom int // clap borders relative to the image
}

// GetTransformations lists the transformation properties of an item. The
// image dimensions are needed to resolve clap boxes into pixel borders.
func (c *Context) GetTransformations(itemID, imageWidth, imageHeight int) []Transformation {
	id := C.heif_item_id(itemID)
	num := int(C.heif_item_get_transformation_properties(c.context, id, nil, 0))
	keepAlive(c)
	if num == 0 {
		return nil
	}

	props := make([]C.heif_property_id, num)
	C.heif_item_get_transformation_properties(c.context, id, &props[0], C.int(num))
	keepAlive(c)

	result := make([]Transformation, 0, num)
	for _, prop := range props {
		switch C.heif_item_get_property_type(c.context, id, prop) {
		case C.heif_item_property_type_transform_rotation:
			result = append(result, Transformation{
				Type:        TransformationRotation,
				RotationCCW: int(C.heif_item_get_property_transform_rotation_ccw(c.context, id, prop)),
			})
		case C.heif_item_property_type_transform_mirror:
			result = append(result, Transformation{
				Type:            TransformationMirror,
				MirrorDirection: MirrorDirection(C.heif_item_get_property_transform_mirror(c.context, id, prop)),
			})
		case C.heif_item_property_type_transform_crop:
			var left, top, right, bottom C.int
			C.heif_item_get_property_transform_crop_borders(c.context, id, prop,
				C.int(imageWidth), C.int(imageHeight), &left, &top, &right, &bottom)
			result = append(result, Transformation{
				Type: TransformationCrop,
				Left: int(left), Top: int(top), Right: int(right), Bottom: int(bottom),
			})
		}
	}
	keepAlive(c)
	return result
}

// GetNumberOfRegionItems returns how many region annotation items reference
// this image.
func (h *ImageHandle) GetNumberOfRegionItems() int {
	n := int(C.heif_image_handle_get_number_of_region_items(h.handle))
	keepAlive(h)
	return n
}

// GetPixelAspectRatio returns the pasp aspect ratio, or ok=false when the
// image has none (i.e. square pixels).
func (h *ImageHandle) GetPixelAspectRatio() (aspectH, aspectV int, ok bool) {
	var ch, cv C.uint32_t
	has := C.heif_image_handle_get_pixel_aspect_ratio(h.handle, &ch, &cv)
	keepAlive(h)
	if has == 0 {
		return 0, 0, false
	}
	return int(ch), int(cv), true
}

// ContentLightLevel mirrors the clli box (values in cd/m2, 0 = unknown).
type ContentLightLevel struct {
	MaxContentLightLevel    int
	MaxPicAverageLightLevel int
}

func (h *ImageHandle) GetContentLightLevel() (*ContentLightLevel, bool) {
	var cll C.struct_heif_content_light_level
	has := C.heif_image_handle_get_content_light_level(h.handle, &cll)
	keepAlive(h)
	if has == 0 {
		return nil, false
	}
	return &ContentLightLevel{
		MaxContentLightLevel:    int(cll.max_content_light_level),
		MaxPicAverageLightLevel: int(cll.max_pic_average_light_level),
	}, true
}

// MasteringDisplayColourVolume mirrors the mdcv box with its raw coded
// values (chromaticities in 0.00002 units, luminance in 0.0001 cd/m2).
type MasteringDisplayColourVolume struct {
	DisplayPrimariesX            [3]int
	DisplayPrimariesY            [3]int
	WhitePointX                  int
	WhitePointY                  int
	MaxDisplayMasteringLuminance int
	MinDisplayMasteringLuminance int
}

func (h *ImageHandle) GetMasteringDisplayColourVolume() (*MasteringDisplayColourVolume, bool) {
	var mdcv C.struct_heif_mastering_display_colour_volume
	has := C.heif_image_handle_get_mastering_display_colour_volume(h.handle, &mdcv)
	keepAlive(h)
	if has == 0 {
		return nil, false
	}
	out := &MasteringDisplayColourVolume{
		WhitePointX:                  int(mdcv.white_point_x),
		WhitePointY:                  int(mdcv.white_point_y),
		MaxDisplayMasteringLuminance: int(mdcv.max_display_mastering_luminance),
		MinDisplayMasteringLuminance: int(mdcv.min_display_mastering_luminance),
	}
	for i := 0; i < 3; i++ {
		out.DisplayPrimariesX[i] = int(mdcv.display_primaries_x[i])
		out.DisplayPrimariesY[i] = int(mdcv.display_primaries_y[i])
	}
	return out, true
}

// DepthRepresentationInfo describes how depth map samples map to distances.
type DepthRepresentationInfo struct {
	ZNear, ZFar                  float64
	HasZNear, HasZFar            bool
	DMin, DMax                   float64
	HasDMin, HasDMax             bool
	DepthRepresentationType      int
	DisparityReferenceView       int
	NonlinearRepresentationModel []byte
}

// GetDepthImageRepresentationInfo returns the representation info of an
// attached depth image, or ok=false when the file carries none.
func (h *ImageHandle) GetDepthImageRepresentationInfo(depthID int) (*DepthRepresentationInfo, bool) {
	var info *C.struct_heif_depth_representation_info
	has := C.heif_image_handle_get_depth_image_representation_info(h.handle, C.heif_item_id(depthID), &info)
	keepAlive(h)
	if has == 0 || info == nil {
		return nil, false
	}
	defer C.heif_depth_representation_info_free(info)

	out := &DepthRepresentationInfo{
		HasZNear:                info.has_z_near != 0,
		HasZFar:                 info.has_z_far != 0,
		HasDMin:                 info.has_d_min != 0,
		HasDMax:                 info.has_d_max != 0,
		ZNear:                   float64(info.z_near),
		ZFar:                    float64(info.z_far),
		DMin:                    float64(info.d_min),
		DMax:                    float64(info.d_max),
		DepthRepresentationType: int(info.depth_representation_type),
		DisparityReferenceView:  int(info.disparity_reference_view),
	}
	if info.depth_nonlinear_representation_model_size > 0 && info.depth_nonlinear_representation_model != nil {
		out.NonlinearRepresentationModel = C.GoBytes(
			unsafe.Pointer(info.depth_nonlinear_representation_model),
			C.int(info.depth_nonlinear_representation_model_size))
	}
	return out, true
}
