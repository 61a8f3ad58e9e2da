// Package imgformat sniffs the container format of image bytes
// embedded as an XObject's stream payload (7.8.5, Table 89's /Filter
// values DCTDecode/JPXDecode/CCITTFaxDecode). It identifies the format
// from its magic bytes only; decoding to pixels is explicitly out of
// scope (§1 Non-goals: "image format decoders beyond format
// detection"). Grounded on the teacher's format dispatch in
// pkg/pdfcpu/model/image.go (image.DecodeConfig's format string) and
// hhrutter/tiff's header check, narrowed to a magic-byte sniff with no
// pixel decode.
package imgformat

import (
	"bytes"
	"encoding/binary"

	"github.com/mechiko/pdflite/pdferr"
)

// Format names a sniffed image container.
type Format string

// Recognized formats. CCITT has no distinguishing magic of its own (it
// is bare G3/G4 fax data, identified by the stream's /Filter name
// instead of its bytes); Sniff never returns it and reports Unknown for
// such data. The constant is available to callers that know from the
// filter chain that the payload is CCITTFaxDecode data.
const (
	JPEG    Format = "jpeg"
	JPEG2000 Format = "jpx"
	PNG     Format = "png"
	TIFF    Format = "tiff"
	CCITT   Format = "ccitt"
	Unknown Format = ""
)

var (
	jpegMagic  = []byte{0xFF, 0xD8, 0xFF}
	pngMagic   = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	jp2Magic   = []byte{0x00, 0x00, 0x00, 0x0C, 'j', 'P', ' ', ' '}
	j2kMagic   = []byte{0xFF, 0x4F, 0xFF, 0x51}
	tiffLE     = []byte{'I', 'I', 0x2A, 0x00}
	tiffBE     = []byte{'M', 'M', 0x00, 0x2A}
)

// Sniff identifies the image format from the leading bytes of b. It
// never reads beyond the magic-number prefix of each candidate format
// and never decodes pixel data.
func Sniff(b []byte) Format {
	switch {
	case bytes.HasPrefix(b, jpegMagic):
		return JPEG
	case bytes.HasPrefix(b, pngMagic):
		return PNG
	case bytes.HasPrefix(b, jp2Magic), bytes.HasPrefix(b, j2kMagic):
		return JPEG2000
	case bytes.HasPrefix(b, tiffLE), bytes.HasPrefix(b, tiffBE):
		return TIFF
	default:
		return Unknown
	}
}

// Dimensions reports (width, height) from a sniffed format's header
// when they are cheap to read without a full pixel decode (PNG's IHDR,
// a baseline-JPEG SOF0 marker). It returns ok=false for formats whose
// dimensions are not available without the decode this package
// deliberately omits (JPEG2000, TIFF's IFD-chased tag table).
func Dimensions(format Format, b []byte) (width, height int, ok bool) {
	switch format {
	case PNG:
		return pngDimensions(b)
	case JPEG:
		return jpegDimensions(b)
	default:
		return 0, 0, false
	}
}

// pngDimensions reads width/height out of the fixed-offset IHDR chunk
// that always immediately follows PNG's 8-byte signature.
func pngDimensions(b []byte) (int, int, bool) {
	const ihdrOffset = 8 + 4 + 4 // signature, chunk length, "IHDR"
	if len(b) < ihdrOffset+8 {
		return 0, 0, false
	}
	w := binary.BigEndian.Uint32(b[ihdrOffset : ihdrOffset+4])
	h := binary.BigEndian.Uint32(b[ihdrOffset+4 : ihdrOffset+8])
	return int(w), int(h), true
}

// jpegDimensions scans JFIF markers for an SOFn (start-of-frame) segment,
// which carries the pixel dimensions for any baseline or progressive scan.
func jpegDimensions(b []byte) (int, int, bool) {
	i := 2 // skip SOI (0xFFD8)
	for i+4 <= len(b) {
		if b[i] != 0xFF {
			i++
			continue
		}
		marker := b[i+1]
		if marker == 0xD8 || marker == 0x01 || (marker >= 0xD0 && marker <= 0xD7) {
			i += 2
			continue
		}
		if marker == 0xD9 { // EOI
			return 0, 0, false
		}
		if i+4 > len(b) {
			return 0, 0, false
		}
		segLen := int(binary.BigEndian.Uint16(b[i+2 : i+4]))
		isSOF := marker >= 0xC0 && marker <= 0xCF && marker != 0xC4 && marker != 0xC8 && marker != 0xCC
		if isSOF {
			if i+9 > len(b) {
				return 0, 0, false
			}
			h := int(binary.BigEndian.Uint16(b[i+5 : i+7]))
			w := int(binary.BigEndian.Uint16(b[i+7 : i+9]))
			return w, h, true
		}
		i += 2 + segLen
	}
	return 0, 0, false
}

// Validate returns InvalidImage when a stream's declared filter
// (DCTDecode or JPXDecode) doesn't agree with its sniffed magic bytes -
// a cheap corruption check the object loader can run without decoding
// pixels.
func Validate(declaredFilter string, payload []byte) error {
	f := Sniff(payload)
	switch declaredFilter {
	case "DCTDecode", "DCT":
		if f != JPEG {
			return pdferr.InvalidImage("stream declares /DCTDecode but payload is not a JPEG (sniffed %q)", f)
		}
	case "JPXDecode":
		if f != JPEG2000 {
			return pdferr.InvalidImage("stream declares /JPXDecode but payload is not JPEG2000 (sniffed %q)", f)
		}
	}
	return nil
}
