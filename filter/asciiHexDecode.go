package filter

import (
	"bytes"
	"encoding/hex"
	"io"
	"io/ioutil"

	"github.com/pkg/errors"
)

type asciiHexDecode struct {
	baseFilter
}

// EOD is the end-of-data marker terminating an ASCIIHexDecode stream.
const EOD = '>'

// Encode implements encoding for an ASCIIHexDecode filter.
func (f asciiHexDecode) Encode(r io.Reader) (*bytes.Buffer, error) {
	p, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}

	dst := make([]byte, hex.EncodedLen(len(p)))
	hex.Encode(dst, p)
	dst = append(dst, EOD)

	return bytes.NewBuffer(dst), nil
}

// Decode implements decoding for an ASCIIHexDecode filter.
func (f asciiHexDecode) Decode(r io.Reader) (*bytes.Buffer, error) {
	p, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(p) == 0 {
		return &bytes.Buffer{}, nil
	}

	if p[len(p)-1] != EOD {
		return nil, errors.New("pdflite: ASCIIHexDecode: missing eod marker")
	}
	p = p[:len(p)-1]

	// Whitespace within the data is ignored, per 7.4.2.
	clean := make([]byte, 0, len(p))
	for _, c := range p {
		switch c {
		case ' ', '\t', '\r', '\n', '\f', 0x00:
			continue
		}
		clean = append(clean, c)
	}
	if len(clean)%2 == 1 {
		clean = append(clean, '0')
	}

	dst := make([]byte, hex.DecodedLen(len(clean)))
	if _, err := hex.Decode(dst, clean); err != nil {
		return nil, err
	}

	return bytes.NewBuffer(dst), nil
}
