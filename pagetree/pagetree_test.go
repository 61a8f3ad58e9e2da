package pagetree

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/mechiko/pdflite/objloader"
)

// buildTestPDF assembles a two-page document where MediaBox and
// Resources are set only on the intermediate /Pages node (inherited)
// and the second page overrides /Rotate to 90, to exercise both the
// inheritance walk and the width/height rotation swap.
func buildTestPDF(t *testing.T) []byte {
	t.Helper()

	var buf bytes.Buffer
	offsets := make([]int64, 7)

	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	writeObj := func(nr int, body string) {
		offsets[nr] = int64(buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", nr, body)
	}

	writeObj(1, "<< /Type /Catalog /Pages 2 0 R >>")
	writeObj(2, "<< /Type /Pages /Kids [3 0 R 4 0 R] /Count 2"+
		" /MediaBox [0 0 612 792] /Resources << /Font << /F1 6 0 R >> >> >>")
	writeObj(3, "<< /Type /Page /Parent 2 0 R /Contents 5 0 R >>")
	writeObj(4, "<< /Type /Page /Parent 2 0 R /Contents 5 0 R /Rotate 90 >>")
	writeObj(6, "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>")

	content := "BT /F1 12 Tf 72 712 Td (Page) Tj ET"
	offsets[5] = int64(buf.Len())
	fmt.Fprintf(&buf, "5 0 obj\n<< /Length %d >>\nstream\n%s\nendstream\nendobj\n", len(content), content)

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

func openTestDoc(t *testing.T) *objloader.Document {
	t.Helper()
	data := buildTestPDF(t)
	doc, err := objloader.Open(bytes.NewReader(data), int64(len(data)), nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return doc
}

func TestPageCount(t *testing.T) {
	doc := openTestDoc(t)
	n, err := PageCount(doc)
	if err != nil {
		t.Fatalf("PageCount: %v", err)
	}
	if n != 2 {
		t.Fatalf("PageCount = %d, want 2", n)
	}
}

func TestGetPageInheritsResourcesAndMediaBox(t *testing.T) {
	doc := openTestDoc(t)
	page, err := GetPage(doc, 0)
	if err != nil {
		t.Fatalf("GetPage(0): %v", err)
	}
	if page.MediaBox.Width() != 612 || page.MediaBox.Height() != 792 {
		t.Fatalf("MediaBox = %v, want 612x792", page.MediaBox)
	}
	if page.Resources.Len() == 0 {
		t.Fatal("Resources not inherited from Pages node")
	}
	if page.Rotate != 0 {
		t.Fatalf("Rotate = %d, want 0", page.Rotate)
	}
}

func TestGetPageRotationSwapsWidthHeight(t *testing.T) {
	doc := openTestDoc(t)
	page, err := GetPage(doc, 1)
	if err != nil {
		t.Fatalf("GetPage(1): %v", err)
	}
	if page.Rotate != 90 {
		t.Fatalf("Rotate = %d, want 90", page.Rotate)
	}
	if page.Width != 792 || page.Height != 612 {
		t.Fatalf("Width/Height = %v/%v, want swapped 792/612", page.Width, page.Height)
	}
}

func TestGetPageOutOfRange(t *testing.T) {
	doc := openTestDoc(t)
	if _, err := GetPage(doc, 5); err == nil {
		t.Fatal("want error for out-of-range page index")
	}
}

func TestContentStreams(t *testing.T) {
	doc := openTestDoc(t)
	page, err := GetPage(doc, 0)
	if err != nil {
		t.Fatalf("GetPage(0): %v", err)
	}
	streams, err := ContentStreams(doc, page)
	if err != nil {
		t.Fatalf("ContentStreams: %v", err)
	}
	if len(streams) != 1 || !strings.Contains(string(streams[0]), "Page") {
		t.Fatalf("ContentStreams = %v, want one stream containing %q", streams, "Page")
	}
}
