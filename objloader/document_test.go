package objloader

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/mechiko/pdflite/types"
)

// buildTestPDF assembles a minimal, well-formed classical-xref PDF: a
// one-page document with a single content stream and an indirect
// (non-inline) /Length, used to exercise Open/Get end to end without
// depending on an external fixture file.
func buildTestPDF(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	offsets := make([]int64, 7) // index by object number, 1-based; 0 unused

	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	writeObj := func(nr int, body string) {
		offsets[nr] = int64(buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", nr, body)
	}

	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, "<< /Type /Pages /Kids [3 0 R] /Count 1 /MediaBox [0 0 612 792] >>")
	writeObj(3, "<< /Type /Page /Parent 2 0 R /Resources << /Font << /F1 4 0 R >> >> /Contents 5 0 R >>")
	writeObj(4, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	content := "BT /F1 12 Tf 72 712 Td (Hello) Tj ET"
	offsets[6] = int64(buf.Len())
	fmt.Fprintf(&buf, "6 0 obj\n%d\nendobj\n", len(content))

	offsets[5] = int64(buf.Len())
	fmt.Fprintf(&buf, "5 0 obj\n<< /Length 6 0 R >>\nstream\n%s\nendstream\nendobj\n", content)

	xrefOffset := int64(buf.Len())
	buf.WriteString("xref\n")
	fmt.Fprintf(&buf, "0 %d\n", len(offsets))
	buf.WriteString("0000000000 65535 f \r\n")
	for nr := 1; nr < len(offsets); nr++ {
		fmt.Fprintf(&buf, "%010d %05d n \r\n", offsets[nr], 0)
	}
	buf.WriteString("trailer\n")
	fmt.Fprintf(&buf, "<< /Size %d /Root 1 0 R >>\n", len(offsets))
	fmt.Fprintf(&buf, "startxref\n%d\n%%%%EOF\n", xrefOffset)

	return buf.Bytes()
}

func openTestPDF(t *testing.T) *Document {
	t.Helper()
	data := buildTestPDF(t)
	doc, err := Open(bytes.NewReader(data), int64(len(data)), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return doc
}

func TestOpenResolvesRoot(t *testing.T) {
	doc := openTestPDF(t)
	root, err := doc.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if root.Type() != "Catalog" {
		t.Fatalf("Root Type() = %q, want Catalog", root.Type())
	}
}

func TestGetDirectObject(t *testing.T) {
	doc := openTestPDF(t)
	obj, err := doc.Get(4, 0)
	if err != nil {
		t.Fatalf("Get(4,0): %v", err)
	}
	d, ok := obj.(types.PDFDict)
	if !ok || d.Type() != "Font" {
		t.Fatalf("Get(4,0) = %#v, want Font dict", obj)
	}
}

func TestGetStreamWithIndirectLength(t *testing.T) {
	doc := openTestPDF(t)
	obj, err := doc.Get(5, 0)
	if err != nil {
		t.Fatalf("Get(5,0): %v", err)
	}
	sd, ok := obj.(types.PDFStreamDict)
	if !ok {
		t.Fatalf("Get(5,0) = %#v, want PDFStreamDict", obj)
	}
	if !strings.Contains(string(sd.Content), "Hello") {
		t.Fatalf("stream content = %q, want it to contain %q", sd.Content, "Hello")
	}
}

func TestGetCachesResult(t *testing.T) {
	doc := openTestPDF(t)
	a, err := doc.Get(1, 0)
	if err != nil {
		t.Fatal(err)
	}
	b, err := doc.Get(1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if a.(types.PDFDict).Type() != b.(types.PDFDict).Type() {
		t.Fatalf("second Get returned a different object")
	}
}

func TestGetInvalidReference(t *testing.T) {
	doc := openTestPDF(t)
	if _, err := doc.Get(999, 0); err == nil {
		t.Fatal("want error for unknown object number")
	}
}
