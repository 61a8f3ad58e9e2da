// Package objstm decodes PDF 1.5+ compressed object streams (7.5.7):
// a FlateDecode-compressed stream packing N generation-0 objects,
// addressed by an (objectNumber, relativeOffset) prolog table.
// Grounded on the teacher's read/read.go parseObjectStream/
// compressedObject, reimplemented against internal/lexer and
// objparser instead of string-slice scanning.
package objstm

import (
	"bytes"
	"strconv"

	"github.com/mechiko/pdflite/internal/lexer"
	"github.com/mechiko/pdflite/log"
	"github.com/mechiko/pdflite/objparser"
	"github.com/mechiko/pdflite/pdferr"
	"github.com/mechiko/pdflite/types"
)

// Decode parses osd's already-decoded Content into its prolog table
// and caches every contained object on osd, so ObjectAt never re-scans
// the prolog on repeated lookups.
func Decode(osd *types.PDFObjectStreamDict) error {
	if !osd.IsDecoded() {
		return pdferr.StreamDecode("object stream %s has no decoded content", osd.Type())
	}

	n := osd.IntEntry("N")
	first := osd.IntEntry("First")
	if n == nil || first == nil {
		return pdferr.MissingKey("N/First")
	}

	prolog := osd.Content[:*first]
	fields := bytesFields(prolog)
	if len(fields)%2 != 0 {
		return pdferr.StreamDecode("object stream prolog has an odd field count")
	}
	if len(fields)/2 != *n {
		log.Info.Printf("objstm: /N says %d objects but prolog has %d entries\n", *n, len(fields)/2)
	}

	pairs := make([]types.IndexPair, 0, len(fields)/2)
	for i := 0; i < len(fields); i += 2 {
		nr, err := strconv.Atoi(string(fields[i]))
		if err != nil {
			return pdferr.StreamDecode("object stream prolog: malformed object number %q", fields[i])
		}
		off, err := strconv.Atoi(string(fields[i+1]))
		if err != nil {
			return pdferr.StreamDecode("object stream prolog: malformed offset %q", fields[i+1])
		}
		pairs = append(pairs, types.IndexPair{ObjNr: nr, Offset: off})
	}
	osd.SetIndex(pairs)

	for i, pr := range pairs {
		end := len(osd.Content)
		if i+1 < len(pairs) {
			end = *first + pairs[i+1].Offset
		}
		start := *first + pr.Offset
		if start < 0 || end > len(osd.Content) || start > end {
			return pdferr.StreamDecode("object stream: object %d offset out of bounds", pr.ObjNr)
		}

		obj, err := parseCompressedObject(osd.Content[start:end])
		if err != nil {
			return pdferr.StreamDecode("object stream: object %d: %v", pr.ObjNr, err)
		}
		osd.CacheObject(pr.ObjNr, obj)
	}

	return nil
}

// ObjectAt returns the decoded object with object number objNr, decoding
// osd on first use.
func ObjectAt(osd *types.PDFObjectStreamDict, objNr int) (types.PDFObject, error) {
	if obj, ok := osd.CachedObject(objNr); ok {
		return obj, nil
	}
	if err := Decode(osd); err != nil {
		return nil, err
	}
	obj, ok := osd.CachedObject(objNr)
	if !ok {
		return nil, pdferr.InvalidReference(objNr, 0)
	}
	return obj, nil
}

// parseCompressedObject parses one direct object from an object
// stream slot. Per 7.5.7, stream objects may never appear inside an
// object stream, so a trailing `stream` keyword is a corruption error
// rather than something to seek past.
func parseCompressedObject(b []byte) (types.PDFObject, error) {
	lex := lexer.New(bytes.NewReader(b), 0)
	p := objparser.New(lex)
	obj, err := p.ParseObject()
	if err != nil {
		return nil, err
	}
	if ok, err := p.PeekKeyword("stream"); err == nil && ok {
		return nil, pdferr.Syntax(-1, "stream object found inside object stream")
	}
	return obj, nil
}

// bytesFields splits on PDF whitespace without allocating a string
// copy first, mirroring strings.Fields for a []byte prolog.
func bytesFields(b []byte) [][]byte {
	var out [][]byte
	i := 0
	for i < len(b) {
		for i < len(b) && isWS(b[i]) {
			i++
		}
		start := i
		for i < len(b) && !isWS(b[i]) {
			i++
		}
		if i > start {
			out = append(out, b[start:i])
		}
	}
	return out
}

func isWS(b byte) bool {
	switch b {
	case 0x00, 0x09, 0x0A, 0x0C, 0x0D, 0x20:
		return true
	}
	return false
}
