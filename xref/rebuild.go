package xref

import (
	"bytes"
	"io"
	"strconv"

	"github.com/mechiko/pdflite/internal/lexer"
	"github.com/mechiko/pdflite/log"
	"github.com/mechiko/pdflite/objparser"
	"github.com/mechiko/pdflite/pdferr"
	"github.com/mechiko/pdflite/types"
)

// rebuild recovers a Table by a full linear scan for `N G obj` headers,
// for files whose startxref chain is missing or corrupt. Later
// occurrences of the same object number win, since an incrementally
// updated file that lost its xref chain still appends revisions in
// file order. Grounded on the "rebuild xref" recovery strategy every
// mature PDF reader falls back to; pdflite's version additionally
// recovers a trailer by locating the last /Type /XRef or /Type
// /Catalog object when no `trailer` keyword is found.
func rebuild(ra io.ReaderAt, size int64) (*Table, error) {
	buf := make([]byte, size)
	if _, err := ra.ReadAt(buf, 0); err != nil && err != io.EOF {
		return nil, pdferr.IO(err)
	}

	t := New()
	var catalogRef *types.PDFIndirectRef
	var lastTrailerOffset int64 = -1
	var lastXRefStreamRoot *types.PDFIndirectRef

	for _, off := range findObjectHeaders(buf) {
		nr, gen, headerLen, ok := parseObjectHeader(buf[off:])
		if !ok {
			continue
		}
		t.Set(nr, &Entry{Type: EntryInUse, Offset: off, Generation: uint16(gen)})

		d, err := peekDict(buf, off+int64(headerLen))
		if err != nil {
			continue
		}
		if d.Type() == "Catalog" {
			r := types.PDFIndirectRef{ObjectNumber: types.PDFInteger(nr), GenerationNumber: types.PDFInteger(gen)}
			catalogRef = &r
		}
		if d.Type() == "XRef" {
			if root := d.IndirectRefEntry("Root"); root != nil {
				lastXRefStreamRoot = root
			}
		}
	}

	if i := bytes.LastIndex(buf, []byte("trailer")); i != -1 {
		lastTrailerOffset = int64(i + len("trailer"))
	}

	if lastTrailerOffset >= 0 {
		if d, err := peekDict(buf, lastTrailerOffset); err == nil {
			t.mergeTrailer(d)
		}
	}
	if _, ok := t.Root(); !ok {
		switch {
		case catalogRef != nil:
			d := types.NewPDFDict()
			d.Insert("Root", *catalogRef)
			t.mergeTrailer(d)
		case lastXRefStreamRoot != nil:
			d := types.NewPDFDict()
			d.Insert("Root", *lastXRefStreamRoot)
			t.mergeTrailer(d)
		default:
			log.Info.Println("xref: rebuild could not locate a /Root reference")
		}
	}
	if t.size == 0 {
		max := 0
		for _, nr := range t.ObjectNumbers() {
			if nr > max {
				max = nr
			}
		}
		t.size = max + 1
	}

	return t, nil
}

// findObjectHeaders returns the byte offsets of every digit run that
// could start an `N G obj` header, i.e. is preceded by start-of-buffer
// or whitespace and followed eventually by the literal "obj".
func findObjectHeaders(buf []byte) []int64 {
	var offsets []int64
	for i := 0; i < len(buf); i++ {
		if !isASCIIDigit(buf[i]) {
			continue
		}
		if i > 0 && !isPDFWhitespace(buf[i-1]) {
			continue
		}
		if _, _, _, ok := parseObjectHeader(buf[i:]); ok {
			offsets = append(offsets, int64(i))
		}
	}
	return offsets
}

func isASCIIDigit(b byte) bool { return b >= '0' && b <= '9' }

func isPDFWhitespace(b byte) bool {
	switch b {
	case 0x00, 0x09, 0x0A, 0x0C, 0x0D, 0x20:
		return true
	}
	return false
}

// parseObjectHeader matches "N G obj" at the start of buf, returning
// the object number, generation, and the header's byte length
// (including trailing whitespace) on success.
func parseObjectHeader(buf []byte) (objNr, gen, headerLen int, ok bool) {
	i := 0
	n1, j := scanDigits(buf, i)
	if j == i {
		return 0, 0, 0, false
	}
	i = j
	ws1, j := scanWhitespace(buf, i)
	if ws1 == 0 {
		return 0, 0, 0, false
	}
	i = j
	n2, j := scanDigits(buf, i)
	if j == i {
		return 0, 0, 0, false
	}
	i = j
	ws2, j := scanWhitespace(buf, i)
	if ws2 == 0 {
		return 0, 0, 0, false
	}
	i = j
	if i+3 > len(buf) || string(buf[i:i+3]) != "obj" {
		return 0, 0, 0, false
	}
	i += 3

	nr, err := strconv.Atoi(string(n1))
	if err != nil {
		return 0, 0, 0, false
	}
	g, err := strconv.Atoi(string(n2))
	if err != nil {
		return 0, 0, 0, false
	}
	return nr, g, i, true
}

func scanDigits(buf []byte, i int) ([]byte, int) {
	start := i
	for i < len(buf) && isASCIIDigit(buf[i]) {
		i++
	}
	return buf[start:i], i
}

func scanWhitespace(buf []byte, i int) (int, int) {
	start := i
	for i < len(buf) && isPDFWhitespace(buf[i]) {
		i++
	}
	return i - start, i
}

// peekDict parses a single dictionary object starting at offset, used
// to recover /Type information during rebuild without the overhead of
// a full stream-body scan.
func peekDict(buf []byte, offset int64) (types.PDFDict, error) {
	lex := lexer.New(bytes.NewReader(buf[offset:]), offset)
	p := objparser.New(lex)
	obj, err := p.ParseObject()
	if err != nil {
		return types.PDFDict{}, err
	}
	d, ok := obj.(types.PDFDict)
	if !ok {
		return types.PDFDict{}, pdferr.Syntax(offset, "expected dictionary")
	}
	return d, nil
}
