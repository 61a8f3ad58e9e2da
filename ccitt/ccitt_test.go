package ccitt

import (
	"bytes"
	"io"
	"testing"

	"github.com/mechiko/pdflite/filter"
	"github.com/mechiko/pdflite/types"
)

// allWhiteRow8 is a complete Group 4 bitstream encoding a single 8-pixel
// all-white row followed by an EOFB: one V0 mode code ("1") extends the
// reference-line change element (w, since row 0 has no real line above
// it) across the whole row in one step, then EOFB (two stacked T.4 EOL
// codes) ends the block. Bit layout (MSB first), 25 significant bits
// padded with zeros to 4 bytes:
//
//	1 000000000001 000000000001 0000000
//	V0  EOL           EOL         pad
var allWhiteRow8 = []byte{0x80, 0x08, 0x00, 0x80}

func TestCodesArePrefixFree(t *testing.T) {
	for i, a := range codes {
		for j, b := range codes {
			if i == j {
				continue
			}
			if len(a) <= len(b) && b[:len(a)] == a {
				t.Errorf("mode code %q is a prefix of %q, hasPrefix would be ambiguous", a, b)
			}
		}
	}
}

func TestRunLengthTablesCoverFullRange(t *testing.T) {
	for i := 0; i < 64; i++ {
		foundW, foundB := false, false
		for _, v := range termW {
			if v == i {
				foundW = true
			}
		}
		for _, v := range termB {
			if v == i {
				foundB = true
			}
		}
		if !foundW {
			t.Errorf("white terminating code table missing run length %d", i)
		}
		if !foundB {
			t.Errorf("black terminating code table missing run length %d", i)
		}
	}
}

func TestNewReaderDecodesSingleWhiteRow(t *testing.T) {
	r := NewReader(bytes.NewReader(allWhiteRow8), 8, false, false)
	defer r.Close()

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 1 || got[0] != 0xFF {
		t.Fatalf("decoded row = %#v, want [0xFF]", got)
	}
}

func TestNewReaderInvertsWhenRequested(t *testing.T) {
	r := NewReader(bytes.NewReader(allWhiteRow8), 8, true, false)
	defer r.Close()

	got, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if len(got) != 1 || got[0] != 0x00 {
		t.Fatalf("inverted decoded row = %#v, want [0x00]", got)
	}
}

// TestCCITTFaxDecodeFilterRoundTrip exercises the same bitstream through
// the filter package's CCITTFaxDecode dispatch (the path objloader uses
// for an image XObject's stream), rather than calling ccitt.NewReader
// directly, to check the /Columns, /K and /BlackIs1 DecodeParms wiring.
func TestCCITTFaxDecodeFilterRoundTrip(t *testing.T) {
	parms := types.NewPDFDict()
	parms.Insert("Columns", types.PDFInteger(8))
	parms.Insert("K", types.PDFInteger(-1))
	parms.Insert("BlackIs1", types.PDFBoolean(true))

	f, err := filter.NewFilter("CCITTFaxDecode", &parms, nil)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}

	out, err := f.Decode(bytes.NewReader(allWhiteRow8))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	// BlackIs1 true: 1 bits are black, so an all-white row is all 0 bits.
	if got := out.Bytes(); len(got) != 1 || got[0] != 0x00 {
		t.Fatalf("filter-decoded row = %#v, want [0x00]", got)
	}
}

// TestCCITTFaxDecodeFilterRejectsGroup3 checks that K >= 0 (Group 3) is
// rejected rather than silently mis-decoded as Group 4 (see DESIGN.md's
// CCITT scope decision).
func TestCCITTFaxDecodeFilterRejectsGroup3(t *testing.T) {
	parms := types.NewPDFDict()
	parms.Insert("K", types.PDFInteger(0))

	f, err := filter.NewFilter("CCITTFaxDecode", &parms, nil)
	if err != nil {
		t.Fatalf("NewFilter: %v", err)
	}

	if _, err := f.Decode(bytes.NewReader(allWhiteRow8)); err == nil {
		t.Fatal("expected an error decoding Group 3 (K >= 0) data")
	}
}
