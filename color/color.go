// Package color implements the small device-colorspace vocabulary
// (7.4.5, 8.6.4) that the page tree and writer need to describe
// resource colorspaces and produce annotation/border colors, without
// pulling in anything close to a full color-management stack (ICC
// profile catalogs are explicitly out of scope, §1). Grounded on the
// teacher's pkg/pdfcpu/color/color.go SimpleColor type, reimplemented
// against this module's types.PDFArray/PDFName instead of pdfcpu's.
package color

import (
	"encoding/hex"
	"fmt"

	"github.com/mechiko/pdflite/types"
	"github.com/pkg/errors"
)

// Device colorspace names as used in a resource dictionary's /ColorSpace entry.
const (
	DeviceGray = types.PDFName("DeviceGray")
	DeviceRGB  = types.PDFName("DeviceRGB")
	DeviceCMYK = types.PDFName("DeviceCMYK")
)

// ErrInvalidColor reports a malformed color literal.
var ErrInvalidColor = errors.New("pdflite: invalid color constant")

// Popular named colors, each an RGB triple with components in [0,1].
var (
	Black     = RGB{}
	White     = RGB{R: 1, G: 1, B: 1}
	LightGray = RGB{R: .9, G: .9, B: .9}
	Gray      = RGB{R: .5, G: .5, B: .5}
	DarkGray  = RGB{R: .3, G: .3, B: .3}
	Red       = RGB{R: 1}
	Green     = RGB{G: 1}
	Blue      = RGB{B: 1}
)

// RGB is a device-RGB color with components in [0,1], serialized as a
// three-element PDFArray wherever a content-stream color operand or a
// /C (annotation color) array is required.
type RGB struct {
	R, G, B float32
}

func (c RGB) String() string {
	return fmt.Sprintf("r=%1.2f g=%1.2f b=%1.2f", c.R, c.G, c.B)
}

// Array returns the [r g b] PDFArray form.
func (c RGB) Array() types.PDFArray {
	return types.PDFArray{
		types.PDFFloat(c.R),
		types.PDFFloat(c.G),
		types.PDFFloat(c.B),
	}
}

// NewRGB returns an RGB for a packed 0x00RRGGBB value.
func NewRGB(rgb uint32) RGB {
	return RGB{
		R: float32((rgb>>16)&0xFF) / 255,
		G: float32((rgb>>8)&0xFF) / 255,
		B: float32(rgb&0xFF) / 255,
	}
}

// NewRGBFromHex parses a "#RRGGBB" string.
func NewRGBFromHex(s string) (RGB, error) {
	if len(s) != 7 || s[0] != '#' {
		return RGB{}, errors.Wrapf(ErrInvalidColor, "want #RRGGBB, got %q", s)
	}
	b, err := hex.DecodeString(s[1:])
	if err != nil || len(b) != 3 {
		return RGB{}, errors.Wrapf(ErrInvalidColor, "want #RRGGBB, got %q", s)
	}
	return RGB{float32(b[0]) / 255, float32(b[1]) / 255, float32(b[2]) / 255}, nil
}

// NewRGBFromArray converts a resolved 3-element numeric PDFArray (as
// found in a /C annotation entry or a `rg`/`RG` operand capture) back
// into an RGB. Non-numeric or wrong-length arrays report ok=false
// rather than erroring: callers treat this as "no color set".
func NewRGBFromArray(a types.PDFArray) (c RGB, ok bool) {
	if len(a) != 3 {
		return RGB{}, false
	}
	vals := make([]float32, 3)
	for i, v := range a {
		switch n := v.(type) {
		case types.PDFFloat:
			vals[i] = float32(n.Value())
		case types.PDFInteger:
			vals[i] = float32(n.Value())
		default:
			return RGB{}, false
		}
	}
	return RGB{vals[0], vals[1], vals[2]}, true
}

// ComponentsForColorSpace returns the number of color components a
// device colorspace name uses, or 0 for an unrecognized name (ICC-based
// and Indexed/Separation colorspaces are resolved by the caller, not here).
func ComponentsForColorSpace(name types.PDFName) int {
	switch name {
	case DeviceGray:
		return 1
	case DeviceRGB:
		return 3
	case DeviceCMYK:
		return 4
	default:
		return 0
	}
}
