package types

// PDFFilter represents one entry of a stream's /Filter + /DecodeParms pipeline.
type PDFFilter struct {
	Name        string
	DecodeParms PDFDict
	HasParms    bool
}

// PDFStreamDict represents a PDF stream object: a PDFDict plus its raw
// (encoded) bytes. Invariant: the dictionary must carry an integer
// /Length, or a reference that resolves to one; StreamLengthRef
// records the deferred case.
type PDFStreamDict struct {
	PDFDict
	StreamOffset    int64
	StreamLength    int64
	StreamLengthRef *PDFIndirectRef
	FilterPipeline  []PDFFilter
	Raw             []byte // as stored in the file, still filtered
	Content         []byte // fully decoded, nil until first access
	decoded         bool
}

// NewPDFStreamDict creates a new PDFStreamDict.
func NewPDFStreamDict(dict PDFDict, streamOffset, streamLength int64, lengthRef *PDFIndirectRef, pipeline []PDFFilter) PDFStreamDict {
	return PDFStreamDict{
		PDFDict:         dict,
		StreamOffset:    streamOffset,
		StreamLength:    streamLength,
		StreamLengthRef: lengthRef,
		FilterPipeline:  pipeline,
	}
}

func (sd PDFStreamDict) String() string {
	return sd.PDFDict.String() + " stream"
}

// PDFString returns the dictionary portion's PDF representation; the
// stream body itself is emitted separately by the writer.
func (sd PDFStreamDict) PDFString() string {
	return sd.PDFDict.PDFString()
}

// Clone returns a clone of sd. Raw bytes are shared (read-only by convention).
func (sd PDFStreamDict) Clone() PDFObject {
	d := sd.PDFDict.Clone().(PDFDict)
	sd2 := sd
	sd2.PDFDict = d
	return sd2
}

// HasSoleFilterNamed returns true if filterName is the only filter defined for this stream.
func (sd PDFStreamDict) HasSoleFilterNamed(filterName string) bool {
	return len(sd.FilterPipeline) == 1 && sd.FilterPipeline[0].Name == filterName
}

// LastFilterName returns the name of the final filter in the pipeline
// (the one whose output is the fully decoded Content), or "" if the
// stream has no /Filter entry at all.
func (sd PDFStreamDict) LastFilterName() string {
	if len(sd.FilterPipeline) == 0 {
		return ""
	}
	return sd.FilterPipeline[len(sd.FilterPipeline)-1].Name
}

// SetDecodedContent caches the fully decoded stream bytes.
func (sd *PDFStreamDict) SetDecodedContent(b []byte) {
	sd.Content = b
	sd.decoded = true
}

// IsDecoded reports whether SetDecodedContent has been called.
func (sd PDFStreamDict) IsDecoded() bool { return sd.decoded }

///////////////////////////////////////////////////////////////////////////////////

// PDFObjectStreamDict represents a PDF 1.5+ /ObjStm: N objects packed
// into one stream, each addressed by an (objectNumber, relativeOffset)
// pair in the N/First-indexed prolog table.
type PDFObjectStreamDict struct {
	PDFStreamDict
	ObjCount       int
	FirstObjOffset int
	header         []pairOffset // object number -> byte offset, relative to FirstObjOffset
	objects        map[int]PDFObject
	prolog         []byte
	body           []byte
}

type pairOffset struct {
	ObjNr  int
	Offset int
}

// NewPDFObjectStreamDict creates a new, empty PDFObjectStreamDict ready for writing.
func NewPDFObjectStreamDict() *PDFObjectStreamDict {
	d := NewPDFDict()
	d.Insert("Type", PDFName("ObjStm"))
	d.Insert("Filter", PDFName("FlateDecode"))
	sd := PDFStreamDict{PDFDict: d, FilterPipeline: []PDFFilter{{Name: "FlateDecode"}}}
	return &PDFObjectStreamDict{PDFStreamDict: sd, objects: map[int]PDFObject{}}
}

// IndexPair is one (objectNumber, offset) entry of an object stream's prolog table.
type IndexPair struct{ ObjNr, Offset int }

// SetIndex installs the parsed (objNr, offset) prolog table, used when
// reading an existing object stream.
func (osd *PDFObjectStreamDict) SetIndex(pairs []IndexPair) {
	osd.header = nil
	for _, p := range pairs {
		osd.header = append(osd.header, pairOffset{ObjNr: p.ObjNr, Offset: p.Offset})
	}
	osd.ObjCount = len(osd.header)
}

// IndexPairs returns the (objectNumber, offset) table entries in order.
func (osd *PDFObjectStreamDict) IndexPairs() []IndexPair {
	out := make([]IndexPair, len(osd.header))
	for i, p := range osd.header {
		out[i] = IndexPair{p.ObjNr, p.Offset}
	}
	return out
}

// CacheObject stores a decoded object keyed by its object number, so
// repeated objstm.ObjectAt lookups don't re-parse.
func (osd *PDFObjectStreamDict) CacheObject(objNr int, obj PDFObject) {
	if osd.objects == nil {
		osd.objects = map[int]PDFObject{}
	}
	osd.objects[objNr] = obj
}

// CachedObject returns a previously cached object, if any.
func (osd *PDFObjectStreamDict) CachedObject(objNr int) (PDFObject, bool) {
	obj, ok := osd.objects[objNr]
	return obj, ok
}

// AddObject appends obj (identified by objNumber) to the object stream
// being built for writing. Relies on obj already being fully resolved:
// object streams may not themselves contain streams or encrypted
// members.
func (osd *PDFObjectStreamDict) AddObject(objNumber int, obj PDFObject) {
	offset := len(osd.body)

	sep := ""
	if osd.ObjCount > 0 {
		sep = " "
	}
	osd.prolog = append(osd.prolog, []byte(sep+itoa(objNumber)+" "+itoa(offset))...)

	var s string
	if obj == nil {
		s = "null"
	} else {
		s = obj.PDFString()
	}
	osd.body = append(osd.body, []byte(s)...)
	osd.body = append(osd.body, ' ')
	osd.ObjCount++
}

// Finalize assembles the prolog and body into the stream's decoded Content,
// ready to be Flate-encoded by the writer.
func (osd *PDFObjectStreamDict) Finalize() {
	osd.FirstObjOffset = len(osd.prolog) + 1
	content := make([]byte, 0, len(osd.prolog)+1+len(osd.body))
	content = append(content, osd.prolog...)
	content = append(content, ' ')
	content = append(content, osd.body...)
	osd.SetDecodedContent(content)
	osd.Update("N", PDFInteger(osd.ObjCount))
	osd.Update("First", PDFInteger(osd.FirstObjOffset))
}

func itoa(i int) string {
	if i == 0 {
		return "0"
	}
	neg := i < 0
	if neg {
		i = -i
	}
	var buf [20]byte
	p := len(buf)
	for i > 0 {
		p--
		buf[p] = byte('0' + i%10)
		i /= 10
	}
	if neg {
		p--
		buf[p] = '-'
	}
	return string(buf[p:])
}

///////////////////////////////////////////////////////////////////////////////////

// PDFXRefStreamDict represents a cross reference stream (/Type /XRef).
type PDFXRefStreamDict struct {
	PDFStreamDict
	Size           int
	Index          []int // pairs of (start, count)
	W              [3]int
	PreviousOffset *int64
}

// NewPDFXRefStreamDict creates a new PDFXRefStreamDict for writing.
func NewPDFXRefStreamDict(root, info, id, encrypt PDFObject) *PDFXRefStreamDict {
	d := NewPDFDict()
	d.Insert("Type", PDFName("XRef"))
	d.Insert("Filter", PDFName("FlateDecode"))
	if root != nil {
		d.Insert("Root", root)
	}
	if info != nil {
		d.Insert("Info", info)
	}
	if id != nil {
		d.Insert("ID", id)
	}
	if encrypt != nil {
		d.Insert("Encrypt", encrypt)
	}
	sd := PDFStreamDict{PDFDict: d, FilterPipeline: []PDFFilter{{Name: "FlateDecode"}}}
	return &PDFXRefStreamDict{PDFStreamDict: sd}
}
