package filter

import (
	"bytes"
	"io"
	"io/ioutil"

	"github.com/pkg/errors"
)

type runLengthDecode struct {
	baseFilter
}

// Encode implements encoding for a RunLengthDecode filter (7.4.5).
func (f runLengthDecode) Encode(r io.Reader) (*bytes.Buffer, error) {
	p, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	i := 0
	for i < len(p) {
		// Look for a run of identical bytes (max 128).
		j := i + 1
		for j < len(p) && j-i < 128 && p[j] == p[i] {
			j++
		}
		if j-i >= 2 {
			out.WriteByte(byte(257 - (j - i)))
			out.WriteByte(p[i])
			i = j
			continue
		}
		// Otherwise collect a literal run (max 128) up to the next repeat.
		k := i + 1
		for k < len(p) && k-i < 128 {
			if k+1 < len(p) && p[k] == p[k+1] {
				break
			}
			k++
		}
		out.WriteByte(byte(k - i - 1))
		out.Write(p[i:k])
		i = k
	}
	out.WriteByte(128) // EOD

	return &out, nil
}

// Decode implements decoding for a RunLengthDecode filter (7.4.5).
func (f runLengthDecode) Decode(r io.Reader) (*bytes.Buffer, error) {
	p, err := ioutil.ReadAll(r)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	i := 0
	for i < len(p) {
		length := p[i]
		i++
		switch {
		case length == 128:
			return &out, nil
		case length < 128:
			n := int(length) + 1
			if i+n > len(p) {
				return nil, errors.New("pdflite: RunLengthDecode: truncated literal run")
			}
			out.Write(p[i : i+n])
			i += n
		default:
			if i >= len(p) {
				return nil, errors.New("pdflite: RunLengthDecode: truncated copy run")
			}
			n := 257 - int(length)
			b := p[i]
			i++
			for k := 0; k < n; k++ {
				out.WriteByte(b)
			}
		}
	}

	return &out, nil
}
