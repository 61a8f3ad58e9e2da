// Package filter implements the stream filter pipeline defined in
// ISO 32000-1:2008 7.4: the codecs named by a stream's /Filter entry,
// applied in array order on decode and reverse order on encode.
package filter

import (
	"bytes"
	"io"

	"github.com/mechiko/pdflite/log"
	"github.com/mechiko/pdflite/types"
	"github.com/pkg/errors"
)

// ErrUnsupportedFilter signals an unsupported filter type.
var ErrUnsupportedFilter = errors.New("pdflite: filter not supported")

// Filter defines an interface for encoding/decoding stream buffers.
type Filter interface {
	Encode(r io.Reader) (*bytes.Buffer, error)
	Decode(r io.Reader) (*bytes.Buffer, error)
}

// NewFilter returns a Filter for filterName, configured with decodeParms
// and encodeParms (either may be nil).
func NewFilter(filterName string, decodeParms, encodeParms *types.PDFDict) (Filter, error) {
	base := baseFilter{decodeParms: decodeParms, encodeParms: encodeParms}

	switch filterName {
	case "FlateDecode", "Fl":
		return flate{base}, nil
	case "ASCII85Decode", "A85":
		return ascii85Decode{base}, nil
	case "ASCIIHexDecode", "AHx":
		return asciiHexDecode{base}, nil
	case "LZWDecode", "LZW":
		return lzwDecode{base}, nil
	case "RunLengthDecode", "RL":
		return runLengthDecode{base}, nil
	case "CCITTFaxDecode", "CCF":
		return ccittFaxDecode{base}, nil
	case "DCTDecode", "DCT":
		return passthrough{base}, nil
	case "JPXDecode":
		return passthrough{base}, nil
	default:
		log.Info.Printf("filter not supported: <%s>", filterName)
		return nil, ErrUnsupportedFilter
	}
}

// List returns the list of filters pdflite can decode without external
// handling. All but CCITTFaxDecode can also encode. DCTDecode and
// JPXDecode are recognized but passed through undecoded: pixel decoding
// is out of scope (see DESIGN.md).
func List() []string {
	return []string{
		"FlateDecode", "ASCII85Decode", "ASCIIHexDecode", "LZWDecode",
		"RunLengthDecode", "CCITTFaxDecode", "DCTDecode", "JPXDecode",
	}
}

type baseFilter struct {
	decodeParms *types.PDFDict
	encodeParms *types.PDFDict
}

// passthrough implements Filter for formats pdflite stores but does not
// re-encode (JPEG/JPEG2000 pixel data already carries its own codec).
type passthrough struct{ baseFilter }

func (f passthrough) Encode(r io.Reader) (*bytes.Buffer, error) {
	var b bytes.Buffer
	_, err := io.Copy(&b, r)
	return &b, err
}

func (f passthrough) Decode(r io.Reader) (*bytes.Buffer, error) {
	var b bytes.Buffer
	_, err := io.Copy(&b, r)
	return &b, err
}
