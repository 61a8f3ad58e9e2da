package objloader

import (
	"bytes"
	"io"

	"github.com/mechiko/pdflite/crypto"
	"github.com/mechiko/pdflite/filter"
	"github.com/mechiko/pdflite/imgformat"
	"github.com/mechiko/pdflite/internal/lexer"
	"github.com/mechiko/pdflite/log"
	"github.com/mechiko/pdflite/objparser"
	"github.com/mechiko/pdflite/objstm"
	"github.com/mechiko/pdflite/pdferr"
	"github.com/mechiko/pdflite/types"
	"github.com/mechiko/pdflite/xref"
)

// Get resolves the object at (objNr, genNr) to its decoded value: a
// direct object, or a *types.PDFStreamDict with Content populated by
// the filter pipeline. Objects are cached after first resolution; a
// cycle (an object whose own resolution path requires resolving
// itself, via /Length or a compressed-object-stream reference) is
// reported as an error rather than looping forever.
func (d *Document) Get(objNr, genNr int) (types.PDFObject, error) {
	id := types.ObjectID{Number: objNr, Generation: uint16(genNr)}

	if obj, ok := d.cache.get(id); ok {
		return obj, nil
	}

	entry, ok := d.XRefTable.Entry(objNr)
	if !ok {
		return nil, pdferr.InvalidReference(objNr, uint16(genNr))
	}

	if d.inProgress[id] {
		return nil, pdferr.CircularReference(objNr, uint16(genNr))
	}
	d.inProgress[id] = true
	defer delete(d.inProgress, id)

	var obj types.PDFObject
	var err error

	switch entry.Type {
	case xref.EntryFree:
		return types.PDFNull{}, nil
	case xref.EntryCompressed:
		obj, err = d.getFromObjectStream(objNr, entry)
	default:
		obj, err = d.getDirect(objNr, genNr, entry)
	}
	if err != nil {
		return nil, err
	}

	d.cache.put(id, obj)
	return obj, nil
}

// Dereference dereferences obj if it is a types.PDFIndirectRef, returning
// it unchanged otherwise. Every caller that walks a dictionary or
// array value should pass it through Dereference before type-switching.
func (d *Document) Dereference(obj types.PDFObject) (types.PDFObject, error) {
	ref, ok := obj.(types.PDFIndirectRef)
	if !ok {
		return obj, nil
	}
	return d.Get(int(ref.ObjectNumber), int(ref.GenerationNumber))
}

// DereferenceDict resolves obj and type-asserts it to a PDFDict (stream
// dictionaries satisfy this too, since PDFStreamDict embeds PDFDict -
// but the caller gets the dict view only, with no access to Content).
func (d *Document) DereferenceDict(obj types.PDFObject) (types.PDFDict, bool, error) {
	r, err := d.Dereference(obj)
	if err != nil {
		return types.PDFDict{}, false, err
	}
	switch v := r.(type) {
	case types.PDFDict:
		return v, true, nil
	case types.PDFStreamDict:
		return v.PDFDict, true, nil
	default:
		return types.PDFDict{}, false, nil
	}
}

// DereferenceInt resolves obj and returns it as an int, for entries (like
// a stream's /Length) that the spec permits to be either a direct
// integer or an indirect reference to one.
func (d *Document) DereferenceInt(obj types.PDFObject) (int, bool, error) {
	r, err := d.Dereference(obj)
	if err != nil {
		return 0, false, err
	}
	i, ok := r.(types.PDFInteger)
	if !ok {
		return 0, false, nil
	}
	return int(i), true, nil
}

// DereferenceStreamDict resolves obj and type-asserts it to a
// *types.PDFStreamDict with its Content already decoded. Used by
// callers that specifically need a stream's bytes (content streams,
// embedded files, images) rather than just its dictionary view.
func (d *Document) DereferenceStreamDict(obj types.PDFObject) (*types.PDFStreamDict, error) {
	r, err := d.Dereference(obj)
	if err != nil {
		return nil, err
	}
	sd, ok := r.(types.PDFStreamDict)
	if !ok {
		return nil, pdferr.StreamDecode("object does not resolve to a stream")
	}
	return &sd, nil
}

func (d *Document) getDirect(objNr, genNr int, entry *xref.Entry) (types.PDFObject, error) {
	obj, isStream, sd, err := d.parseObjectAt(entry.Offset)
	if err != nil {
		return nil, err
	}
	if !isStream {
		return d.maybeDecrypt(obj, objNr, genNr)
	}

	if err := d.fillStreamLength(sd, objNr, genNr); err != nil {
		return nil, err
	}
	if err := d.readStreamBody(sd); err != nil {
		return nil, err
	}

	decrypted, err := d.maybeDecryptStream(sd, objNr, genNr)
	if err != nil {
		return nil, err
	}
	sd = decrypted

	if err := d.decodeStream(sd); err != nil {
		return nil, err
	}
	return *sd, nil
}

// parseObjectAt parses the `N G obj ... endobj` wrapper at offset,
// returning the direct object and, if it is a stream, its
// PDFStreamDict (without the raw body filled in yet).
func (d *Document) parseObjectAt(offset int64) (obj types.PDFObject, isStream bool, sd *types.PDFStreamDict, err error) {
	sr := io.NewSectionReader(d.ra, offset, d.size-offset)
	lex := lexer.New(sr, offset)
	p := objparser.New(lex)

	hdr, err := p.ParseObject() // first integer, consumed as part of "N G obj"
	if err != nil {
		return nil, false, nil, err
	}
	if _, ok := hdr.(types.PDFInteger); !ok {
		return nil, false, nil, pdferr.Syntax(offset, "expected object number")
	}
	gtok, err := lex.Next()
	if err != nil || gtok.Kind != lexer.Integer {
		return nil, false, nil, pdferr.Syntax(offset, "expected generation number")
	}
	otok, err := lex.Next()
	if err != nil || otok.Kind != lexer.Keyword || otok.Value != "obj" {
		return nil, false, nil, pdferr.Syntax(offset, "expected \"obj\" keyword")
	}

	direct, err := p.ParseObject()
	if err != nil {
		return nil, false, nil, err
	}

	dict, isDict := direct.(types.PDFDict)
	if !isDict {
		return direct, false, nil, nil
	}

	hasStream, err := p.PeekKeyword("stream")
	if err != nil {
		return nil, false, nil, err
	}
	if !hasStream {
		return dict, false, nil, nil
	}

	streamStart, err := streamBodyStart(lex)
	if err != nil {
		return nil, false, nil, err
	}

	var lengthRef *types.PDFIndirectRef
	length := int64(-1)
	if lv, ok := dict.Find("Length"); ok {
		switch l := lv.(type) {
		case types.PDFInteger:
			length = int64(l)
		case types.PDFIndirectRef:
			lengthRef = &l
		}
	}

	out := types.NewPDFStreamDict(dict, streamStart, length, lengthRef, buildFilterPipeline(dict))
	return nil, true, &out, nil
}

// streamBodyStart consumes the EOL sequence required after the
// `stream` keyword (7.3.8.1: CRLF or LF alone, never a bare CR) and
// returns the absolute offset the binary body begins at.
func streamBodyStart(lex *lexer.Lexer) (int64, error) {
	var first [1]byte
	if _, err := lex.Read(first[:]); err != nil {
		return 0, pdferr.IO(err)
	}
	switch first[0] {
	case '\r':
		var second [1]byte
		if _, err := lex.Read(second[:]); err == nil && second[0] != '\n' {
			log.Info.Println("objloader: stream keyword followed by bare CR, not CRLF")
			return lex.Offset() - 1, nil
		}
		return lex.Offset(), nil
	case '\n':
		return lex.Offset(), nil
	default:
		log.Info.Println("objloader: stream keyword not followed by EOL")
		return lex.Offset() - 1, nil
	}
}

// buildFilterPipeline reads /Filter and /DecodeParms (accepting both
// the singular and array forms) into an ordered []types.PDFFilter.
func buildFilterPipeline(dict types.PDFDict) []types.PDFFilter {
	var names []string
	if f, ok := dict.Find("Filter"); ok {
		switch v := f.(type) {
		case types.PDFName:
			names = []string{string(v)}
		case types.PDFArray:
			for _, e := range v {
				if n, ok := e.(types.PDFName); ok {
					names = append(names, string(n))
				}
			}
		}
	}
	if len(names) == 0 {
		return nil
	}

	var parms []types.PDFDict
	var havesParm []bool
	if p, ok := dict.Find("DecodeParms"); ok {
		switch v := p.(type) {
		case types.PDFDict:
			parms = []types.PDFDict{v}
			havesParm = []bool{true}
		case types.PDFArray:
			for _, e := range v {
				if pd, ok := e.(types.PDFDict); ok {
					parms = append(parms, pd)
					havesParm = append(havesParm, true)
				} else {
					parms = append(parms, types.PDFDict{})
					havesParm = append(havesParm, false)
				}
			}
		}
	}

	out := make([]types.PDFFilter, len(names))
	for i, n := range names {
		pf := types.PDFFilter{Name: n}
		if i < len(parms) {
			pf.DecodeParms = parms[i]
			pf.HasParms = havesParm[i]
		}
		out[i] = pf
	}
	return out
}

// fillStreamLength resolves a deferred (indirect) /Length value. A
// stream's own /Length entry may point at another object - never
// itself - so this call goes through the normal Get path rather than
// parseObjectAt, picking up caching and the cycle guard for free.
func (d *Document) fillStreamLength(sd *types.PDFStreamDict, objNr, genNr int) error {
	if sd.StreamLength >= 0 {
		return nil
	}
	if sd.StreamLengthRef == nil {
		return pdferr.MissingKey("Length")
	}
	n, ok, err := d.DereferenceInt(*sd.StreamLengthRef)
	if err != nil {
		return err
	}
	if !ok {
		return pdferr.Syntax(sd.StreamOffset, "/Length did not resolve to an integer")
	}
	sd.StreamLength = int64(n)
	return nil
}

// readStreamBody reads sd's raw (still-encoded) bytes off the backing
// source, validating the /Length against the "endstream" keyword's
// actual position when lenient mode is on.
func (d *Document) readStreamBody(sd *types.PDFStreamDict) error {
	if sd.StreamLength < 0 {
		return pdferr.StreamDecode("stream has no resolved /Length")
	}
	raw := make([]byte, sd.StreamLength)
	if _, err := d.ra.ReadAt(raw, sd.StreamOffset); err != nil && err != io.EOF {
		if !d.cfg.LenientSyntax {
			return pdferr.IO(err)
		}
	}

	if d.cfg.LenientSyntax {
		if fixed, ok := fixLengthByScan(d.ra, sd.StreamOffset, d.size); ok && fixed != int64(len(raw)) {
			log.Info.Printf("objloader: stream /Length %d disagrees with \"endstream\" position, using %d\n", len(raw), fixed)
			raw = make([]byte, fixed)
			if _, err := d.ra.ReadAt(raw, sd.StreamOffset); err != nil && err != io.EOF {
				return pdferr.IO(err)
			}
		}
	}

	sd.Raw = raw
	return nil
}

// fixLengthByScan looks for the next "endstream" keyword after
// offset, bounded by a generous window, and returns the byte count up
// to (but not including) the EOL that precedes it.
func fixLengthByScan(ra io.ReaderAt, offset, size int64) (int64, bool) {
	const window = 1 << 20
	n := window
	if offset+int64(n) > size {
		n = int(size - offset)
	}
	if n <= 0 {
		return 0, false
	}
	buf := make([]byte, n)
	if _, err := ra.ReadAt(buf, offset); err != nil && err != io.EOF {
		return 0, false
	}
	idx := bytes.Index(buf, []byte("endstream"))
	if idx == -1 {
		return 0, false
	}
	end := idx
	for end > 0 && (buf[end-1] == '\n' || buf[end-1] == '\r') {
		end--
	}
	return int64(end), true
}

func (d *Document) maybeDecrypt(obj types.PDFObject, objNr, genNr int) (types.PDFObject, error) {
	if d.handler == nil || objNr == d.encryptNum {
		return obj, nil
	}
	return crypto.DecryptDeepObject(obj, objNr, genNr, d.handler.Key, d.handler.Info)
}

// maybeDecryptStream returns a copy of sd with Raw (and any
// string-valued dictionary entries) decrypted, or sd itself unless the document is unencrypted, this is the
// /Encrypt dictionary itself, or this is the document's /Metadata
// stream with EncryptMetadata false (7.6.4, Table 20).
func (d *Document) maybeDecryptStream(sd *types.PDFStreamDict, objNr, genNr int) (*types.PDFStreamDict, error) {
	if d.handler == nil || objNr == d.encryptNum {
		return sd, nil
	}
	if !d.handler.Info.Emd && sd.IsDictType("Metadata") {
		return sd, nil
	}
	if sd.HasSoleFilterNamed("Crypt") {
		// A stream whose only filter is Crypt is returned as stored,
		// without the document-wide decryption, whatever its /Name (7.4.10).
		return sd, nil
	}

	decDict, err := crypto.DecryptDeepObject(sd.PDFDict, objNr, genNr, d.handler.Key, d.handler.Info)
	if err != nil {
		return nil, err
	}
	raw, err := crypto.DecryptBytes(sd.Raw, objNr, genNr, d.handler.Key, d.handler.Info)
	if err != nil {
		return nil, err
	}
	out := *sd
	out.PDFDict = decDict.(types.PDFDict)
	out.Raw = raw
	return &out, nil
}

// decodeStream runs sd.Raw through its filter pipeline, populating
// Content. CCITTFaxDecode needs /Columns from the dictionary, which
// filter.NewFilter reads directly out of the supplied DecodeParms.
func (d *Document) decodeStream(sd *types.PDFStreamDict) error {
	if sd.HasSoleFilterNamed("Crypt") {
		sd.SetDecodedContent(sd.Raw)
		return nil
	}

	data := sd.Raw
	for _, f := range sd.FilterPipeline {
		if f.Name == "Crypt" {
			continue
		}
		var dp *types.PDFDict
		if f.HasParms {
			p := f.DecodeParms
			dp = &p
		}
		impl, err := filter.NewFilter(f.Name, dp, nil)
		if err != nil {
			if d.cfg.LenientSyntax && err == filter.ErrUnsupportedFilter {
				d.warn("objloader: skipping unsupported filter %q", f.Name)
				continue
			}
			return err
		}
		buf, err := impl.Decode(bytes.NewReader(data))
		if err != nil {
			return err
		}
		data = buf.Bytes()
	}
	sd.SetDecodedContent(data)

	if sd.IsDictType("XObject") && sd.Subtype() == "Image" {
		if err := d.validateImagePayload(sd, data); err != nil {
			return err
		}
	}
	return nil
}

// validateImagePayload cross-checks an image XObject's declared filter
// against its sniffed magic bytes (DCTDecode/JPXDecode carry raw
// JPEG/JPEG2000 data straight through the filter pipeline, §4.2, so a
// mismatch here means a mislabeled or corrupt stream rather than a
// decode failure). Pixel decoding itself stays out of scope (§1).
func (d *Document) validateImagePayload(sd *types.PDFStreamDict, data []byte) error {
	last := sd.LastFilterName()
	if last != "DCTDecode" && last != "DCT" && last != "JPXDecode" {
		return nil
	}
	if err := imgformat.Validate(last, data); err != nil {
		if d.cfg.LenientSyntax {
			d.warn("objloader: %v", err)
			return nil
		}
		return err
	}
	return nil
}

func (d *Document) getFromObjectStream(objNr int, entry *xref.Entry) (types.PDFObject, error) {
	osd, err := d.loadObjectStream(entry.StreamObjNr)
	if err != nil {
		return nil, err
	}
	return objstm.ObjectAt(osd, objNr)
}
