package filter

import (
	"bytes"
	"io"

	hlzw "github.com/hhrutter/lzw"
	"github.com/mechiko/pdflite/log"
)

type lzwDecode struct {
	baseFilter
}

// Encode implements encoding for an LZWDecode filter, using Adobe's
// early-change variant (EarlyChange defaults to 1 per Table 8).
func (f lzwDecode) Encode(r io.Reader) (*bytes.Buffer, error) {
	log.Trace.Println("EncodeLZW begin")

	var b bytes.Buffer
	wc := hlzw.NewWriter(&b, true)
	defer wc.Close()

	written, err := io.Copy(wc, r)
	if err != nil {
		return nil, err
	}
	log.Trace.Printf("EncodeLZW end: %d bytes written\n", written)

	return &b, nil
}

// Decode implements decoding for an LZWDecode filter, applying the
// predictor named by decodeParms, if any.
func (f lzwDecode) Decode(r io.Reader) (*bytes.Buffer, error) {
	log.Trace.Println("DecodeLZW begin")

	earlyChange := true
	if f.decodeParms != nil {
		if v := f.decodeParms.IntEntry("EarlyChange"); v != nil {
			earlyChange = *v != 0
		}
	}

	rc := hlzw.NewReader(r, earlyChange)
	defer rc.Close()

	var b bytes.Buffer
	written, err := io.Copy(&b, rc)
	if err != nil {
		return nil, err
	}
	log.Trace.Printf("DecodeLZW: decoded %d bytes.\n", written)

	if f.decodeParms == nil {
		return &b, nil
	}

	return decodePredictor(b.Bytes(), f.decodeParms)
}
