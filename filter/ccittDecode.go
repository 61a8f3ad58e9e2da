package filter

import (
	"bytes"
	"io"
	"io/ioutil"

	"github.com/mechiko/pdflite/ccitt"
	"github.com/pkg/errors"
)

type ccittFaxDecode struct {
	baseFilter
}

// Encode is not implemented: pdflite never generates new CCITT Group
// 3/4 encoded content, only reads it from existing documents.
func (f ccittFaxDecode) Encode(r io.Reader) (*bytes.Buffer, error) {
	return nil, errors.New("pdflite: CCITTFaxDecode: encoding not supported")
}

// Decode implements decoding for a CCITTFaxDecode filter (7.4.6). Only
// Group 4 (K < 0) is supported, matching the decoder this is grounded
// on; Group 3 (K >= 0) returns an error.
func (f ccittFaxDecode) Decode(r io.Reader) (*bytes.Buffer, error) {
	columns := 1728
	blackIs1 := false
	byteAlign := false
	k := -1

	if f.decodeParms != nil {
		if v := f.decodeParms.IntEntry("Columns"); v != nil {
			columns = *v
		}
		if v := f.decodeParms.BooleanEntry("BlackIs1"); v != nil {
			blackIs1 = *v
		}
		if v := f.decodeParms.BooleanEntry("EncodedByteAlign"); v != nil {
			byteAlign = *v
		}
		if v := f.decodeParms.IntEntry("K"); v != nil {
			k = *v
		}
	}

	if k >= 0 {
		return nil, errors.New("pdflite: CCITTFaxDecode: Group 3 (K >= 0) not supported")
	}

	// The decoder's pixel buffer stores white as 1 bits; BlackIs1 false
	// means 0 bits are black, which already matches, so invert only when
	// BlackIs1 is set.
	rc := ccitt.NewReader(r, columns, blackIs1, byteAlign)
	defer rc.Close()

	p, err := ioutil.ReadAll(rc)
	if err != nil && err != io.EOF {
		return nil, err
	}

	return bytes.NewBuffer(p), nil
}
