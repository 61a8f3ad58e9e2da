package filter

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/mechiko/pdflite/types"
)

// TestFlateRoundTrip checks that data run through two stacked FlateDecode
// encodings comes back out unchanged through two stacked decodings.
func TestFlateRoundTrip(t *testing.T) {
	f, err := NewFilter("FlateDecode", nil, nil)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}

	input := "Hello, Gopher!"

	b1, err := f.Encode(bytes.NewReader([]byte(input)))
	if err != nil {
		t.Fatalf("encode 1: %v", err)
	}
	b2, err := f.Encode(b1)
	if err != nil {
		t.Fatalf("encode 2: %v", err)
	}
	c1, err := f.Decode(b2)
	if err != nil {
		t.Fatalf("decode 2: %v", err)
	}
	c2, err := f.Decode(c1)
	if err != nil {
		t.Fatalf("decode 1: %v", err)
	}

	if input != c2.String() {
		t.Fatalf("round trip = %q, want %q", c2.String(), input)
	}
}

// encodePNGRow applies the forward transform for PNG predictor tag on one
// row, given the previous output row (nil for the first row). This mirrors
// what a PNG/Flate encoder does before compression; pdflite itself only
// ever writes Predictor 1, so there is no production encoder to call here.
func encodePNGRow(tag byte, cur, prior []byte, bpp int) []byte {
	row := make([]byte, len(cur))
	for i := range cur {
		var left, up, upperLeft byte
		if i >= bpp {
			left = cur[i-bpp]
		}
		if prior != nil {
			up = prior[i]
			if i >= bpp {
				upperLeft = prior[i-bpp]
			}
		}
		switch tag {
		case pngNone:
			row[i] = cur[i]
		case pngSub:
			row[i] = cur[i] - left
		case pngUp:
			row[i] = cur[i] - up
		case pngAvg:
			row[i] = cur[i] - byte((int(left)+int(up))/2)
		case pngPth:
			row[i] = cur[i] - paeth(left, up, upperLeft)
		}
	}
	return row
}

// TestPNGPredictorRoundTrip implements §8.3: for each predictor tag 0-4,
// decoding the output of the forward transform recovers the input, across
// a spread of column counts and random row contents.
func TestPNGPredictorRoundTrip(t *testing.T) {
	tags := []byte{pngNone, pngSub, pngUp, pngAvg, pngPth}
	rng := rand.New(rand.NewSource(1))

	for _, tag := range tags {
		for _, columns := range []int{1, 3, 4, 8} {
			rowBytes := columns
			rows := 4
			input := make([]byte, rows*rowBytes)
			rng.Read(input)

			var encoded bytes.Buffer
			var prior []byte
			for r := 0; r < rows; r++ {
				cur := input[r*rowBytes : (r+1)*rowBytes]
				encoded.WriteByte(tag)
				encoded.Write(encodePNGRow(tag, cur, prior, 1))
				prior = cur
			}

			parms := types.NewPDFDict()
			parms.Insert("Predictor", types.PDFInteger(PredictorPNGOpt))
			parms.Insert("Columns", types.PDFInteger(columns))

			got, err := decodePredictor(encoded.Bytes(), &parms)
			if err != nil {
				t.Fatalf("tag %d columns %d: decodePredictor: %v", tag, columns, err)
			}
			if !bytes.Equal(got.Bytes(), input) {
				t.Fatalf("tag %d columns %d: round trip = %#v, want %#v", tag, columns, got.Bytes(), input)
			}
		}
	}
}

// TestPaethPredictor checks the three worked examples from §8.3.
func TestPaethPredictor(t *testing.T) {
	cases := []struct {
		a, b, c, want byte
	}{
		{1, 2, 0, 2},
		{5, 2, 3, 5},
		{5, 8, 3, 8},
	}
	for _, c := range cases {
		if got := paeth(c.a, c.b, c.c); got != c.want {
			t.Errorf("paeth(%d,%d,%d) = %d, want %d", c.a, c.b, c.c, got, c.want)
		}
	}
}

// TestFilterChainOrdering implements §8.9: a stream declared
// /Filter [/ASCII85Decode /FlateDecode] decodes ASCII85 first, then Flate;
// running the filters in the reverse order fails.
func TestFilterChainOrdering(t *testing.T) {
	flateFilter, err := NewFilter("FlateDecode", nil, nil)
	if err != nil {
		t.Fatalf("NewFilter(FlateDecode): %v", err)
	}
	ascii85Filter, err := NewFilter("ASCII85Decode", nil, nil)
	if err != nil {
		t.Fatalf("NewFilter(ASCII85Decode): %v", err)
	}

	input := "Hello, Gopher! Hello, Gopher! Hello, Gopher!"

	flated, err := flateFilter.Encode(bytes.NewReader([]byte(input)))
	if err != nil {
		t.Fatalf("flate encode: %v", err)
	}
	wireForm, err := ascii85Filter.Encode(flated)
	if err != nil {
		t.Fatalf("ascii85 encode: %v", err)
	}

	// Correct order: ASCII85Decode first, then FlateDecode.
	step1, err := ascii85Filter.Decode(bytes.NewReader(wireForm.Bytes()))
	if err != nil {
		t.Fatalf("ascii85 decode: %v", err)
	}
	step2, err := flateFilter.Decode(step1)
	if err != nil {
		t.Fatalf("flate decode: %v", err)
	}
	if step2.String() != input {
		t.Fatalf("decoded = %q, want %q", step2.String(), input)
	}

	// Reverse order: FlateDecode can't parse ASCII85 wire bytes as a zlib
	// stream and must fail rather than silently produce garbage.
	if _, err := flateFilter.Decode(bytes.NewReader(wireForm.Bytes())); err == nil {
		t.Fatal("expected FlateDecode to reject ASCII85-encoded input, got nil error")
	}
}

// TestASCII85DecodeStripsDelimiters implements E2E-5: parsing
// <~87cURD]j7BEbo80~> must yield "Hello world!", covering both the
// leading <~ and trailing ~> delimiters.
func TestASCII85DecodeStripsDelimiters(t *testing.T) {
	f, err := NewFilter("ASCII85Decode", nil, nil)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}

	got, err := f.Decode(bytes.NewReader([]byte("<~87cURD]j7BEbo80~>")))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if want := "Hello world!"; got.String() != want {
		t.Fatalf("decoded = %q, want %q", got.String(), want)
	}
}
