package xref

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/mechiko/pdflite/internal/lexer"
	"github.com/mechiko/pdflite/log"
	"github.com/mechiko/pdflite/objparser"
	"github.com/mechiko/pdflite/pdferr"
	"github.com/mechiko/pdflite/types"
)

const defaultBufSize = 1024

// Load walks a PDF file's cross-reference sections starting at the
// offset recorded after the last `startxref` keyword, following
// /Prev (and, for hybrid files, /XRefStm) back through the revision
// history, and returns the merged Table. When lenient is true and the
// startxref-directed walk fails, Load falls back to a
// full linear scan for `N G obj` headers (7.5.6's "rebuilt" strategy,
// also used by lenient readers for files with corrupt byte offsets).
func Load(ra io.ReaderAt, size int64, lenient bool) (*Table, error) {
	t := New()

	offset, err := offsetLastXRefSection(ra, size)
	if err != nil {
		if !lenient {
			return nil, err
		}
		log.Info.Printf("xref: no startxref found, rebuilding via linear scan: %v\n", err)
		return rebuild(ra, size)
	}

	visited := map[int64]bool{}
	for offset != nil {
		if visited[*offset] {
			log.Info.Printf("xref: /Prev cycle detected at offset %d, stopping walk\n", *offset)
			break
		}
		visited[*offset] = true

		next, hybrid, err := readSection(ra, size, *offset, t)
		if err != nil {
			if !lenient {
				return nil, err
			}
			if fixed, ok := findNearbySectionOffset(ra, size, *offset); ok {
				log.Info.Printf("xref: section at offset %d failed (%v), found xref/object header at %d instead\n", *offset, err, fixed)
				next, hybrid, err = readSection(ra, size, fixed, t)
			}
			if err != nil {
				log.Info.Printf("xref: section at offset %d failed (%v), rebuilding via linear scan\n", *offset, err)
				return rebuild(ra, size)
			}
		}

		if hybrid != nil && !visited[*hybrid] {
			if _, _, err := readSection(ra, size, *hybrid, t); err != nil && !lenient {
				return nil, err
			}
		}

		offset = next
	}

	if t.Size() == 0 && !lenient {
		return nil, pdferr.InvalidTrailer("no /Size entry found in any trailer")
	}

	return t, nil
}

// recoveryWindow bounds how far findNearbySectionOffset searches
// around a reported xref offset before giving up and letting the
// caller fall back to a full-file linear scan. Malformed but
// recoverable files are usually off by a handful of bytes (an extra or
// missing EOL before the xref keyword); a full rebuild() is far more
// expensive, so it's worth trying a small window first.
const recoveryWindow = 64

// findNearbySectionOffset looks within recoveryWindow bytes on either
// side of offset for the start of a classical `xref` keyword or an
// `N G obj` header (for a misreported xref-stream offset), returning
// the first match closest to offset.
func findNearbySectionOffset(ra io.ReaderAt, size, offset int64) (int64, bool) {
	lo := offset - recoveryWindow
	if lo < 0 {
		lo = 0
	}
	hi := offset + recoveryWindow
	if hi > size {
		hi = size
	}
	if hi <= lo {
		return 0, false
	}

	buf := make([]byte, hi-lo)
	if _, err := ra.ReadAt(buf, lo); err != nil && err != io.EOF {
		return 0, false
	}

	best := int64(-1)
	consider := func(pos int64) {
		if best == -1 || abs64(pos-offset) < abs64(best-offset) {
			best = pos
		}
	}

	for i := 0; i < len(buf); i++ {
		if i+4 <= len(buf) && string(buf[i:i+4]) == "xref" {
			consider(lo + int64(i))
			continue
		}
		if !isASCIIDigit(buf[i]) {
			continue
		}
		if i > 0 && !isPDFWhitespace(buf[i-1]) {
			continue
		}
		if _, _, _, ok := parseObjectHeader(buf[i:]); ok {
			consider(lo + int64(i))
		}
	}

	if best == -1 || best == offset {
		return 0, false
	}
	return best, true
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// offsetLastXRefSection scans the final bytes of the file backward for
// `startxref <offset> %%EOF`.
func offsetLastXRefSection(ra io.ReaderAt, fileSize int64) (*int64, error) {
	bufSize := int64(defaultBufSize)
	off := fileSize - bufSize
	if off < 0 {
		off = 0
		bufSize = fileSize
	}
	buf := make([]byte, bufSize)
	if _, err := ra.ReadAt(buf, off); err != nil && err != io.EOF {
		return nil, pdferr.IO(err)
	}

	i := strings.LastIndex(string(buf), "startxref")
	if i == -1 {
		return nil, pdferr.InvalidXref(off, "cannot find startxref")
	}
	rest := buf[i+len("startxref"):]

	end := strings.Index(string(rest), "%%EOF")
	if end == -1 {
		return nil, pdferr.InvalidXref(off+int64(i), "no matching %%%%EOF for startxref")
	}

	v, err := strconv.ParseInt(strings.TrimSpace(string(rest[:end])), 10, 64)
	if err != nil {
		return nil, pdferr.InvalidXref(off+int64(i), "corrupt startxref offset")
	}
	return &v, nil
}

// readSection parses the xref section at offset (classical table or
// xref stream) and merges its entries and trailer into t that aren't
// already present. It returns the /Prev offset to follow next, and
// (for a classical trailer with /XRefStm) the hybrid stream offset.
func readSection(ra io.ReaderAt, size, offset int64, t *Table) (prev, hybrid *int64, err error) {
	sr := io.NewSectionReader(ra, offset, size-offset)
	br := bufio.NewReaderSize(sr, 2048)

	kw, err := br.Peek(4)
	if err != nil && err != io.EOF {
		return nil, nil, pdferr.IO(err)
	}
	if string(kw) == "xref" {
		return readClassicalSection(br, offset, t)
	}
	return readStreamSection(ra, size, offset, t)
}

// readClassicalSection parses a classical `xref ... trailer << ... >>`
// section (7.5.4). It reads lines directly off br rather than through
// a second bufio.Scanner layer, so that once the `trailer` keyword is
// found, br itself (with its internal lookahead buffer intact) can be
// handed straight to the lexer for the trailer dictionary - no need to
// reconcile two independently-buffered readers' positions.
func readClassicalSection(br *bufio.Reader, sectionOffset int64, t *Table) (prev, hybrid *int64, err error) {
	if _, err := br.Discard(len("xref")); err != nil {
		return nil, nil, pdferr.IO(err)
	}

	for {
		line, err := readLine(br)
		if err != nil {
			return nil, nil, pdferr.IO(err)
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "trailer") {
			break
		}

		fields := strings.Fields(line)
		if len(fields) != 2 {
			return nil, nil, pdferr.InvalidXref(sectionOffset, "malformed xref subsection header %q", line)
		}
		start, err1 := strconv.Atoi(fields[0])
		count, err2 := strconv.Atoi(fields[1])
		if err1 != nil || err2 != nil {
			return nil, nil, pdferr.InvalidXref(sectionOffset, "malformed xref subsection header %q", line)
		}

		for i := 0; i < count; i++ {
			entryLine, err := readLine(br)
			if err != nil {
				return nil, nil, pdferr.IO(err)
			}
			if err := parseClassicalEntry(entryLine, start+i, t); err != nil {
				return nil, nil, err
			}
		}
	}

	lex := lexer.New(br, sectionOffset)
	p := objparser.New(lex)
	obj, err := p.ParseObject()
	if err != nil {
		return nil, nil, pdferr.InvalidTrailer("malformed trailer dictionary: %v", err)
	}
	trailerDict, ok := obj.(types.PDFDict)
	if !ok {
		return nil, nil, pdferr.InvalidTrailer("trailer is not a dictionary")
	}
	t.mergeTrailer(trailerDict)

	if p := trailerDict.Int64Entry("Prev"); p != nil {
		prev = p
	}
	if x := trailerDict.Int64Entry("XRefStm"); x != nil {
		hybrid = x
	}
	return prev, hybrid, nil
}

// readLine reads up to and including the next line terminator (\n,
// \r\n, or bare \r per 7.5.1), returning the line without the
// terminator.
func readLine(br *bufio.Reader) (string, error) {
	var out []byte
	for {
		b, err := br.ReadByte()
		if err != nil {
			if err == io.EOF && len(out) > 0 {
				return string(out), nil
			}
			return "", err
		}
		if b == '\n' {
			return string(out), nil
		}
		if b == '\r' {
			nb, err := br.Peek(1)
			if err == nil && len(nb) == 1 && nb[0] == '\n' {
				_, _ = br.Discard(1)
			}
			return string(out), nil
		}
		out = append(out, b)
	}
}

func parseClassicalEntry(line string, objNr int, t *Table) error {
	if t.Exists(objNr) {
		return nil // first (most recent) section seen wins.
	}
	fields := strings.Fields(line)
	if len(fields) != 3 || len(fields[0]) != 10 || len(fields[1]) != 5 || len(fields[2]) != 1 {
		return pdferr.InvalidXref(-1, "corrupt xref entry for object %d: %q", objNr, line)
	}

	offset, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return pdferr.InvalidXref(-1, "corrupt xref offset for object %d", objNr)
	}
	gen, err := strconv.Atoi(fields[1])
	if err != nil {
		return pdferr.InvalidXref(-1, "corrupt xref generation for object %d", objNr)
	}

	switch fields[2] {
	case "n":
		if offset == 0 {
			log.Info.Printf("xref: skipping in-use object %d with offset 0\n", objNr)
			return nil
		}
		t.Set(objNr, &Entry{Type: EntryInUse, Offset: offset, Generation: uint16(gen)})
	case "f":
		t.Set(objNr, &Entry{Type: EntryFree, NextFree: int(offset), Generation: uint16(gen)})
	default:
		return pdferr.InvalidXref(-1, "unrecognized xref entry type %q for object %d", fields[2], objNr)
	}
	return nil
}

// readStreamSection parses an xref stream object (7.5.8): `N G obj <<
// ... /Type /XRef ... >> stream ... endstream`.
func readStreamSection(ra io.ReaderAt, size, offset int64, t *Table) (prev, hybrid *int64, err error) {
	sr := io.NewSectionReader(ra, offset, size-offset)
	lex := lexer.New(sr, offset)
	p := objparser.New(lex)

	// N G obj
	if _, err := p.ParseObject(); err != nil { // object number
		return nil, nil, pdferr.InvalidXref(offset, "malformed xref stream header: %v", err)
	}
	if _, err := p.ParseObject(); err != nil { // generation number
		return nil, nil, pdferr.InvalidXref(offset, "malformed xref stream header: %v", err)
	}
	if ok, err := p.PeekKeyword("obj"); err != nil || !ok {
		return nil, nil, pdferr.InvalidXref(offset, "expected 'obj' keyword")
	}

	obj, err := p.ParseObject()
	if err != nil {
		return nil, nil, pdferr.InvalidXref(offset, "malformed xref stream dictionary: %v", err)
	}
	d, ok := obj.(types.PDFDict)
	if !ok || d.Type() != "XRef" {
		return nil, nil, pdferr.InvalidXref(offset, "expected /Type /XRef dictionary")
	}

	w := d.ArrayEntry("W")
	if w == nil || len(*w) != 3 {
		return nil, nil, pdferr.MissingKey("W")
	}
	var width [3]int
	for i, e := range *w {
		n, ok := e.(types.PDFInteger)
		if !ok {
			return nil, nil, pdferr.InvalidXref(offset, "/W entry %d is not an integer", i)
		}
		width[i] = int(n)
	}

	size64 := d.IntEntry("Size")
	var index []int
	if idx := d.ArrayEntry("Index"); idx != nil {
		for _, e := range *idx {
			n, ok := e.(types.PDFInteger)
			if !ok {
				return nil, nil, pdferr.InvalidXref(offset, "/Index entry is not an integer")
			}
			index = append(index, int(n))
		}
	} else if size64 != nil {
		index = []int{0, *size64}
	}

	if ok, err := p.PeekKeyword("stream"); err != nil || !ok {
		return nil, nil, pdferr.InvalidXref(offset, "expected 'stream' keyword after xref stream dictionary")
	}
	raw, err := readStreamBody(p, d, lex.Offset())
	if err != nil {
		return nil, nil, err
	}

	decoded, err := decodeXRefStreamBody(raw, d)
	if err != nil {
		return nil, nil, err
	}

	if err := extractStreamEntries(decoded, width, index, t); err != nil {
		return nil, nil, err
	}
	t.mergeTrailer(d)

	if pv := d.Int64Entry("Prev"); pv != nil {
		prev = pv
	}
	return prev, nil, nil
}

func extractStreamEntries(buf []byte, w [3]int, index []int, t *Table) error {
	entryLen := w[0] + w[1] + w[2]
	if entryLen == 0 {
		return pdferr.StreamDecode("xref stream: /W entries all zero")
	}
	if len(buf)%entryLen != 0 {
		return pdferr.StreamDecode("xref stream: decoded length %d not a multiple of entry length %d", len(buf), entryLen)
	}

	readField := func(b []byte) int64 {
		var v int64
		for _, c := range b {
			v = v<<8 | int64(c)
		}
		return v
	}

	pos := 0
	for i := 0; i+1 < len(index); i += 2 {
		start, count := index[i], index[i+1]
		for j := 0; j < count; j++ {
			if pos+entryLen > len(buf) {
				return pdferr.StreamDecode("xref stream: entry table shorter than /Index declares")
			}
			objNr := start + j
			if t.Exists(objNr) {
				pos += entryLen
				continue
			}

			f1, f2, f3 := 1, 0, 0
			o := pos
			if w[0] > 0 {
				f1 = int(readField(buf[o : o+w[0]]))
				o += w[0]
			}
			if w[1] > 0 {
				f2 = int(readField(buf[o : o+w[1]]))
				o += w[1]
			}
			if w[2] > 0 {
				f3 = int(readField(buf[o : o+w[2]]))
			}
			pos += entryLen

			switch f1 {
			case 0:
				t.Set(objNr, &Entry{Type: EntryFree, NextFree: f2, Generation: uint16(f3)})
			case 1:
				t.Set(objNr, &Entry{Type: EntryInUse, Offset: int64(f2), Generation: uint16(f3)})
			case 2:
				t.Set(objNr, &Entry{Type: EntryCompressed, StreamObjNr: f2, StreamIndex: f3})
			default:
				log.Info.Printf("xref: unrecognized entry type %d for object %d, treating as free\n", f1, objNr)
				t.Set(objNr, &Entry{Type: EntryFree})
			}
		}
	}
	return nil
}
