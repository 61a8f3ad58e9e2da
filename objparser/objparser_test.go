package objparser

import (
	"strings"
	"testing"

	"github.com/mechiko/pdflite/internal/lexer"
	"github.com/mechiko/pdflite/types"
)

func parseOne(t *testing.T, src string) types.PDFObject {
	t.Helper()
	p := New(lexer.New(strings.NewReader(src), 0))
	obj, err := p.ParseObject()
	if err != nil {
		t.Fatalf("ParseObject(%q): %v", src, err)
	}
	return obj
}

func TestParseBareInteger(t *testing.T) {
	obj := parseOne(t, "123")
	i, ok := obj.(types.PDFInteger)
	if !ok || i != 123 {
		t.Fatalf("got %#v, want PDFInteger(123)", obj)
	}
}

func TestParseIndirectReference(t *testing.T) {
	obj := parseOne(t, "12 0 R")
	ref, ok := obj.(types.PDFIndirectRef)
	if !ok {
		t.Fatalf("got %#v, want PDFIndirectRef", obj)
	}
	if ref.ObjectNumber != 12 || ref.GenerationNumber != 0 {
		t.Fatalf("got %v, want 12 0 R", ref)
	}
}

// Two consecutive integers not followed by R must not be mistaken for
// a reference, and the array parser must still see the second integer.
func TestParseTwoIntegersNotAReference(t *testing.T) {
	p := New(lexer.New(strings.NewReader("[1 2]"), 0))
	obj, err := p.ParseObject()
	if err != nil {
		t.Fatal(err)
	}
	arr, ok := obj.(types.PDFArray)
	if !ok || len(arr) != 2 {
		t.Fatalf("got %#v, want 2-element array", obj)
	}
	if arr[0].(types.PDFInteger) != 1 || arr[1].(types.PDFInteger) != 2 {
		t.Fatalf("got %v, want [1 2]", arr)
	}
}

func TestParseArrayOfReferences(t *testing.T) {
	obj := parseOne(t, "[1 0 R 2 0 R 3 0 R]")
	arr, ok := obj.(types.PDFArray)
	if !ok || len(arr) != 3 {
		t.Fatalf("got %#v, want 3-element array", obj)
	}
	for i, want := range []int{1, 2, 3} {
		ref, ok := arr[i].(types.PDFIndirectRef)
		if !ok || int(ref.ObjectNumber) != want {
			t.Fatalf("element %d: got %v, want %d 0 R", i, arr[i], want)
		}
	}
}

func TestParseDict(t *testing.T) {
	obj := parseOne(t, "<< /Type /Catalog /Pages 3 0 R /Count 7 >>")
	d, ok := obj.(types.PDFDict)
	if !ok {
		t.Fatalf("got %#v, want PDFDict", obj)
	}
	if d.Type() != "Catalog" {
		t.Fatalf("Type() = %q, want Catalog", d.Type())
	}
	if r := d.IndirectRefEntry("Pages"); r == nil || int(r.ObjectNumber) != 3 {
		t.Fatalf("Pages entry = %v, want 3 0 R", r)
	}
	if c := d.IntEntry("Count"); c == nil || *c != 7 {
		t.Fatalf("Count entry = %v, want 7", c)
	}
}

func TestParseNestedArrayAndDict(t *testing.T) {
	obj := parseOne(t, "<< /Kids [1 0 R 2 0 R] /MediaBox [0 0 612 792] >>")
	d := obj.(types.PDFDict)
	kids := d.ArrayEntry("Kids")
	if kids == nil || len(*kids) != 2 {
		t.Fatalf("Kids = %v, want 2 entries", kids)
	}
	mb := d.ArrayEntry("MediaBox")
	if mb == nil || len(*mb) != 4 {
		t.Fatalf("MediaBox = %v, want 4 entries", mb)
	}
}

func TestParseStringLiteralEscapes(t *testing.T) {
	obj := parseOne(t, `(a\(b\)c\n\061)`)
	s, ok := obj.(types.PDFStringLiteral)
	if !ok {
		t.Fatalf("got %#v, want PDFStringLiteral", obj)
	}
	if string(s) != "a(b)c\n1" {
		t.Fatalf("got %q, want %q", string(s), "a(b)c\n1")
	}
}

func TestParseHexLiteralOddLength(t *testing.T) {
	obj := parseOne(t, "<4E6F7>")
	h, ok := obj.(types.PDFHexLiteral)
	if !ok {
		t.Fatalf("got %#v, want PDFHexLiteral", obj)
	}
	b, err := h.Bytes()
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != "Nop" {
		t.Fatalf("got %q, want %q", b, "Nop")
	}
}

func TestParseBooleanAndNull(t *testing.T) {
	if parseOne(t, "true") != types.PDFBoolean(true) {
		t.Fatal("want true")
	}
	if parseOne(t, "false") != types.PDFBoolean(false) {
		t.Fatal("want false")
	}
	if _, ok := parseOne(t, "null").(types.PDFNull); !ok {
		t.Fatal("want PDFNull")
	}
}

func TestParseNameWithHexEscape(t *testing.T) {
	obj := parseOne(t, "/A#20B")
	n, ok := obj.(types.PDFName)
	if !ok || string(n) != "A B" {
		t.Fatalf("got %#v, want PDFName(\"A B\")", obj)
	}
}

func TestParseRealNumber(t *testing.T) {
	obj := parseOne(t, "-3.14")
	f, ok := obj.(types.PDFFloat)
	if !ok || f != -3.14 {
		t.Fatalf("got %#v, want PDFFloat(-3.14)", obj)
	}
}

// TestParseOutOfRangeObjectNumberNotAReference implements §8.2: parsing
// [-5 0 R] yields [Integer(-5), Integer(0), Name("R")] because -5 is
// outside the object-number range, so the bounded lookahead in
// parseIntegerOrRef must push back both the generation integer and the
// "R" keyword rather than collapsing them into a reference.
func TestParseOutOfRangeObjectNumberNotAReference(t *testing.T) {
	obj := parseOne(t, "[-5 0 R]")
	arr, ok := obj.(types.PDFArray)
	if !ok || len(arr) != 3 {
		t.Fatalf("got %#v, want 3-element array", obj)
	}
	if i, ok := arr[0].(types.PDFInteger); !ok || i != -5 {
		t.Fatalf("element 0 = %#v, want Integer(-5)", arr[0])
	}
	if i, ok := arr[1].(types.PDFInteger); !ok || i != 0 {
		t.Fatalf("element 1 = %#v, want Integer(0)", arr[1])
	}
	if n, ok := arr[2].(types.PDFName); !ok || n != "R" {
		t.Fatalf("element 2 = %#v, want Name(\"R\")", arr[2])
	}
}

// TestParseObjectNumberAboveMaxNotAReference checks the upper bound: an
// object number beyond the 7-digit xref field (9,999,999) must not
// collapse into a reference even when followed by a valid generation
// and the R keyword.
func TestParseObjectNumberAboveMaxNotAReference(t *testing.T) {
	obj := parseOne(t, "[10000000 0 R]")
	arr, ok := obj.(types.PDFArray)
	if !ok || len(arr) != 3 {
		t.Fatalf("got %#v, want 3-element array", obj)
	}
	if i, ok := arr[0].(types.PDFInteger); !ok || i != 10000000 {
		t.Fatalf("element 0 = %#v, want Integer(10000000)", arr[0])
	}
	if n, ok := arr[2].(types.PDFName); !ok || n != "R" {
		t.Fatalf("element 2 = %#v, want Name(\"R\")", arr[2])
	}
}

// TestParseGenerationAboveMaxNotAReference checks the generation bound:
// a generation number beyond the 5-digit xref field (65,535) must not
// collapse into a reference.
func TestParseGenerationAboveMaxNotAReference(t *testing.T) {
	obj := parseOne(t, "[1 65536 R]")
	arr, ok := obj.(types.PDFArray)
	if !ok || len(arr) != 3 {
		t.Fatalf("got %#v, want 3-element array", obj)
	}
	if i, ok := arr[1].(types.PDFInteger); !ok || i != 65536 {
		t.Fatalf("element 1 = %#v, want Integer(65536)", arr[1])
	}
	if n, ok := arr[2].(types.PDFName); !ok || n != "R" {
		t.Fatalf("element 2 = %#v, want Name(\"R\")", arr[2])
	}
}
