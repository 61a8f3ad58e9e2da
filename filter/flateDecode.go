package filter

import (
	"bytes"
	"compress/zlib"
	"io"
	"io/ioutil"

	"github.com/mechiko/pdflite/log"
)

// Predictor values, Table 8.
const (
	PredictorNone    = 1
	PredictorTIFF    = 2
	PredictorPNGNone = 10
	PredictorPNGSub  = 11
	PredictorPNGUp   = 12
	PredictorPNGAvg  = 13
	PredictorPNGPth  = 14
	PredictorPNGOpt  = 15
)

// PNG filter type tags, prepended to each decoded row when a PNG predictor is in effect.
const (
	pngNone = 0x00
	pngSub  = 0x01
	pngUp   = 0x02
	pngAvg  = 0x03
	pngPth  = 0x04
)

type flate struct {
	baseFilter
}

// Encode implements encoding for a Flate filter. Predictor pre-processing
// on encode is not implemented: pdflite only ever writes with Predictor 1.
func (f flate) Encode(r io.Reader) (*bytes.Buffer, error) {
	log.Trace.Println("EncodeFlate begin")

	var b bytes.Buffer
	w := zlib.NewWriter(&b)

	p, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}

	if _, err := w.Write(p); err != nil {
		return nil, err
	}
	w.Close()

	log.Trace.Println("EncodeFlate end")
	return &b, nil
}

// Decode implements decoding for a Flate filter, applying the
// predictor named by decodeParms, if any.
func (f flate) Decode(r io.Reader) (*bytes.Buffer, error) {
	log.Trace.Println("DecodeFlate begin")

	rc, err := zlib.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var b bytes.Buffer
	if _, err := io.Copy(&b, rc); err != nil {
		return nil, err
	}

	if f.decodeParms == nil {
		log.Trace.Println("DecodeFlate end w/o decodeParms")
		return &b, nil
	}

	return decodePredictor(b.Bytes(), f.decodeParms)
}
