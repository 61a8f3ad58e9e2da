package xref

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"strings"
	"testing"
)

// buildClassicalFile assembles a minimal, syntactically valid PDF file
// with a two-object body and a classical xref table, tracking each
// object's byte offset as it's written.
func buildClassicalFile() (data []byte, objOffsets map[int]int64) {
	var buf bytes.Buffer
	objOffsets = map[int]int64{}

	buf.WriteString("%PDF-1.7\n")

	objOffsets[1] = int64(buf.Len())
	buf.WriteString("1 0 obj\n<< /Type /Catalog /Pages 2 0 R >>\nendobj\n")

	objOffsets[2] = int64(buf.Len())
	buf.WriteString("2 0 obj\n<< /Type /Pages /Kids [] /Count 0 >>\nendobj\n")

	xrefOffset := buf.Len()
	buf.WriteString("xref\n")
	buf.WriteString("0 3\n")
	fmt.Fprintf(&buf, "%010d %05d f \n", 0, 65535)
	fmt.Fprintf(&buf, "%010d %05d n \n", objOffsets[1], 0)
	fmt.Fprintf(&buf, "%010d %05d n \n", objOffsets[2], 0)
	buf.WriteString("trailer\n")
	buf.WriteString("<< /Size 3 /Root 1 0 R >>\n")
	buf.WriteString("startxref\n")
	fmt.Fprintf(&buf, "%d\n", xrefOffset)
	buf.WriteString("%%EOF")

	return buf.Bytes(), objOffsets
}

// TestClassicalXrefOffsetConsistency implements §8.4: every offset in
// the xref table points to a byte position where `N G obj` begins, with
// N and G matching the xref entry, and the highest non-free object
// number is strictly less than the trailer's /Size.
func TestClassicalXrefOffsetConsistency(t *testing.T) {
	data, objOffsets := buildClassicalFile()

	table, err := Load(bytes.NewReader(data), int64(len(data)), false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if table.Size() != 3 {
		t.Fatalf("Size() = %d, want 3", table.Size())
	}

	maxObjNr := 0
	for _, nr := range table.ObjectNumbers() {
		e, ok := table.Entry(nr)
		if !ok {
			t.Fatalf("ObjectNumbers() listed %d but Entry(%d) not found", nr, nr)
		}
		if e.Type != EntryInUse {
			continue
		}
		if nr > maxObjNr {
			maxObjNr = nr
		}

		wantOffset, ok := objOffsets[nr]
		if !ok {
			t.Fatalf("in-use entry for unexpected object number %d", nr)
		}
		if e.Offset != wantOffset {
			t.Fatalf("obj %d: xref offset = %d, want %d", nr, e.Offset, wantOffset)
		}

		header := string(data[e.Offset:])
		want := fmt.Sprintf("%d %d obj", nr, e.Generation)
		if !strings.HasPrefix(header, want) {
			t.Fatalf("obj %d: byte offset %d does not begin with %q, found %q", nr, e.Offset, want, header[:len(want)])
		}
	}

	if maxObjNr >= table.Size() {
		t.Fatalf("highest in-use object number %d is not strictly less than /Size %d", maxObjNr, table.Size())
	}

	root, ok := table.Root()
	if !ok || root.ObjectNumber != 1 {
		t.Fatalf("Root() = %+v, ok=%v, want object 1", root, ok)
	}
}

// predictorUpEncode applies the forward PNG "Up" transform (tag 12's
// per-row filter) to rows, the inverse of decodePNGPredictor's pngUp
// case in the filter package: this is the transform a real PDF writer
// applies before Flate-compressing a /Predictor 12 xref stream.
func predictorUpEncode(rows [][]byte) []byte {
	var out bytes.Buffer
	prior := make([]byte, len(rows[0]))
	for _, row := range rows {
		out.WriteByte(2) // PNG "Up" filter type tag.
		enc := make([]byte, len(row))
		for i := range row {
			enc[i] = row[i] - prior[i]
		}
		out.Write(enc)
		prior = row
	}
	return out.Bytes()
}

// TestCompressedXrefStreamPredictor12 implements §8.10: a hand-written
// xref stream compressed with Flate and PNG Predictor 12 decodes to the
// documented (type, f2, f3) records.
func TestCompressedXrefStreamPredictor12(t *testing.T) {
	records := [][]byte{
		{0, 0, 0},   // object 0: free, next free 0, gen 0
		{1, 100, 0}, // object 1: in use, offset 100, gen 0
		{2, 5, 2},   // object 2: compressed in objstm 5, index 2
		{0, 0, 0},   // object 3: free, next free 0, gen 0
	}

	predicted := predictorUpEncode(records)

	var flated bytes.Buffer
	zw := zlib.NewWriter(&flated)
	if _, err := zw.Write(predicted); err != nil {
		t.Fatalf("zlib write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zlib close: %v", err)
	}

	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n")
	objOffset := buf.Len()
	fmt.Fprintf(&buf, "1 0 obj\n<< /Type /XRef /W [1 1 1] /Index [0 4] /Size 4 "+
		"/Filter /FlateDecode /DecodeParms << /Predictor 12 /Columns 3 >> "+
		"/Root 2 0 R /Length %d >>\nstream\n", flated.Len())
	buf.Write(flated.Bytes())
	buf.WriteString("\nendstream\nendobj\n")
	buf.WriteString("startxref\n")
	fmt.Fprintf(&buf, "%d\n", objOffset)
	buf.WriteString("%%EOF")

	data := buf.Bytes()
	table, err := Load(bytes.NewReader(data), int64(len(data)), false)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want := []struct {
		typ        EntryType
		f2, f3, nr int
	}{
		{EntryFree, 0, 0, 0},
		{EntryInUse, 100, 0, 1},
		{EntryCompressed, 5, 2, 2},
		{EntryFree, 0, 0, 3},
	}

	for _, w := range want {
		e, ok := table.Entry(w.nr)
		if !ok {
			t.Fatalf("object %d: no xref entry decoded", w.nr)
		}
		if e.Type != w.typ {
			t.Fatalf("object %d: type = %v, want %v", w.nr, e.Type, w.typ)
		}
		switch w.typ {
		case EntryInUse:
			if int(e.Offset) != w.f2 || int(e.Generation) != w.f3 {
				t.Fatalf("object %d: offset/gen = %d/%d, want %d/%d", w.nr, e.Offset, e.Generation, w.f2, w.f3)
			}
		case EntryCompressed:
			if e.StreamObjNr != w.f2 || e.StreamIndex != w.f3 {
				t.Fatalf("object %d: streamObjNr/streamIndex = %d/%d, want %d/%d", w.nr, e.StreamObjNr, e.StreamIndex, w.f2, w.f3)
			}
		case EntryFree:
			if e.NextFree != w.f2 {
				t.Fatalf("object %d: nextFree = %d, want %d", w.nr, e.NextFree, w.f2)
			}
		}
	}
}
