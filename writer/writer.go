// Package writer serializes an in-memory document to PDF bytes (7.5):
// header, indirect objects, a cross-reference section and a trailer.
// Grounded on the teacher's write/write.go (offset-tracking emission,
// `N G obj`/`endobj` framing, xref and trailer emission) and extended
// to also emit PDF 1.5+ cross-reference streams and object streams,
// per Configuration.WriteXRefStream/WriteObjectStream.
package writer

import (
	"bytes"
	"fmt"
	"io"

	"github.com/mechiko/pdflite/crypto"
	"github.com/mechiko/pdflite/filter"
	"github.com/mechiko/pdflite/log"
	"github.com/mechiko/pdflite/pdferr"
	"github.com/mechiko/pdflite/types"
)

// entry is one object slot pending serialization.
type entry struct {
	obj      types.PDFObject
	free     bool
	nextFree int // valid when free
}

// Builder accumulates indirect objects and serializes them as a
// complete PDF file. The zero value is not usable; use NewBuilder.
type Builder struct {
	cfg     *types.Configuration
	version types.PDFVersion

	objects []entry // index 0 unused, objects[n] is object number n
	root    *types.PDFIndirectRef
	info    *types.PDFIndirectRef
	id      types.PDFArray

	handler    *crypto.Handler
	encryptRef *types.PDFIndirectRef

	// compressed and lastOffsets are populated by writeWithObjectStream
	// for writeXRefStream to consume; nil when classical layout is used.
	compressed  map[int][2]int
	lastOffsets []int64
}

// NewBuilder returns a Builder ready to accumulate objects for a
// document of the given version. cfg may be nil, selecting
// types.NewDefaultConfiguration().
func NewBuilder(version types.PDFVersion, cfg *types.Configuration) *Builder {
	if cfg == nil {
		cfg = types.NewDefaultConfiguration()
	}
	return &Builder{
		cfg:     cfg,
		version: version,
		objects: make([]entry, 1), // object 0 reserved for the free-list head
	}
}

// NextObjectNumber returns the object number the next AddObject call
// will assign, without consuming it.
func (b *Builder) NextObjectNumber() int {
	return len(b.objects)
}

// AddObject registers obj under a freshly assigned object number and
// returns a reference to it. Generation is always 0: this writer never
// produces multi-generation files.
func (b *Builder) AddObject(obj types.PDFObject) types.PDFIndirectRef {
	nr := len(b.objects)
	b.objects = append(b.objects, entry{obj: obj})
	return types.PDFIndirectRef{ObjectNumber: types.PDFInteger(nr), GenerationNumber: 0}
}

// Reserve allocates an object number without a value yet, so that
// forward references (e.g. /Parent) can be written before the child
// object they point to is built. Set must be called before Write.
func (b *Builder) Reserve() types.PDFIndirectRef {
	nr := len(b.objects)
	b.objects = append(b.objects, entry{free: true})
	return types.PDFIndirectRef{ObjectNumber: types.PDFInteger(nr), GenerationNumber: 0}
}

// Set installs obj as the value of a previously Reserve'd object number.
func (b *Builder) Set(ref types.PDFIndirectRef, obj types.PDFObject) {
	b.objects[int(ref.ObjectNumber)] = entry{obj: obj}
}

// NewContentStream builds a stream object holding content, optionally
// FlateDecode-compressed per 7.4.4, and registers it.
func (b *Builder) NewContentStream(content []byte, compress bool) (types.PDFIndirectRef, error) {
	d := types.NewPDFDict()
	raw := content
	pipeline := []types.PDFFilter(nil)
	if compress {
		f, err := filter.NewFilter("FlateDecode", nil, nil)
		if err != nil {
			return types.PDFIndirectRef{}, err
		}
		buf, err := f.Encode(bytes.NewReader(content))
		if err != nil {
			return types.PDFIndirectRef{}, err
		}
		raw = buf.Bytes()
		d.Insert("Filter", types.PDFName("FlateDecode"))
		pipeline = []types.PDFFilter{{Name: "FlateDecode"}}
	}
	d.Insert("Length", types.PDFInteger(len(raw)))
	sd := types.NewPDFStreamDict(d, 0, int64(len(raw)), nil, pipeline)
	sd.Raw = raw
	sd.SetDecodedContent(content)
	return b.AddObject(sd), nil
}

// SetRoot records the document catalog's reference for the trailer's /Root.
func (b *Builder) SetRoot(ref types.PDFIndirectRef) { b.root = &ref }

// SetInfo records the document information dictionary's reference for
// the trailer's /Info. Optional.
func (b *Builder) SetInfo(ref types.PDFIndirectRef) { b.info = &ref }

// SetID installs the document's /ID file identifier array (14.4). If
// never called, Write generates one.
func (b *Builder) SetID(id types.PDFArray) { b.id = id }

// Encrypt sets up a standard security handler for this document (7.6)
// and registers its encryption dictionary as an indirect object, whose
// reference the trailer records as /Encrypt. Write encrypts every
// registered object, whether it was added before or after Encrypt,
// except the encryption dictionary itself; the /ID array lives in the
// trailer and is not encrypted.
func (b *Builder) Encrypt(userpw, ownerpw string, permissions int16, aes, need128, need256 bool) error {
	if len(b.id) == 0 {
		b.id = crypto.ID()
	}
	fileID, err := fileIDBytes(b.id)
	if err != nil {
		return err
	}
	handler, info, err := crypto.NewHandlerForEncryption(userpw, ownerpw, permissions, aes, need128, need256, fileID)
	if err != nil {
		return err
	}
	d := crypto.NewEncryptDict(aes, need128, need256, permissions)
	d.Update("O", types.PDFHexLiteral(fmt.Sprintf("%x", info.O)))
	d.Update("U", types.PDFHexLiteral(fmt.Sprintf("%x", info.U)))
	if need256 {
		d.Update("OE", types.PDFHexLiteral(fmt.Sprintf("%x", info.OE)))
		d.Update("UE", types.PDFHexLiteral(fmt.Sprintf("%x", info.UE)))
	}
	ref := b.AddObject(*d)
	b.encryptRef = &ref
	b.handler = handler
	return nil
}

func fileIDBytes(id types.PDFArray) ([]byte, error) {
	if len(id) == 0 {
		return nil, pdferr.MissingKey("ID")
	}
	hl, ok := id[0].(types.PDFHexLiteral)
	if !ok {
		return nil, pdferr.InvalidTrailer("/ID[0] is not a hex string")
	}
	return hl.Bytes()
}

// Write serializes every registered object, the cross-reference
// section, and the trailer to w, per 7.5.
func (b *Builder) Write(w io.Writer) error {
	cw := &countingWriter{w: w}

	if err := b.writeHeader(cw); err != nil {
		return err
	}

	offsets := make([]int64, len(b.objects))

	useObjStm := b.cfg.WriteObjectStream && b.cfg.WriteXRefStream && b.version >= types.V15
	if useObjStm {
		if err := b.writeWithObjectStream(cw, offsets); err != nil {
			return err
		}
	} else {
		if err := b.writeDirect(cw, offsets); err != nil {
			return err
		}
	}

	xrefOffset := cw.n
	if b.cfg.WriteXRefStream && b.version >= types.V15 {
		if err := b.writeXRefStream(cw, offsets, xrefOffset); err != nil {
			return err
		}
	} else {
		if err := b.writeClassicalXRef(cw, offsets); err != nil {
			return err
		}
		if err := b.writeTrailer(cw, xrefOffset); err != nil {
			return err
		}
	}

	log.Info.Printf("writer: wrote %d objects, %d bytes\n", len(b.objects)-1, cw.n)
	return nil
}

func (b *Builder) writeHeader(cw *countingWriter) error {
	_, err := fmt.Fprintf(cw, "%%PDF-%s\n%%\xe2\xe3\xcf\xd3\n", types.VersionString(b.version))
	return err
}

// writeDirect emits every registered object as a standalone indirect
// object (classical layout, no object streams).
func (b *Builder) writeDirect(cw *countingWriter, offsets []int64) error {
	for nr := 1; nr < len(b.objects); nr++ {
		e := b.objects[nr]
		if e.free || e.obj == nil {
			continue
		}
		offsets[nr] = cw.n
		if err := b.writeIndirectObject(cw, nr, e.obj); err != nil {
			return err
		}
	}
	return nil
}

func (b *Builder) writeIndirectObject(cw *countingWriter, nr int, obj types.PDFObject) error {
	encoded, err := b.encryptForWrite(nr, obj)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(cw, "%d 0 obj\n", nr); err != nil {
		return err
	}
	if sd, ok := encoded.(types.PDFStreamDict); ok {
		if err := b.writeStreamBody(cw, sd); err != nil {
			return err
		}
	} else {
		if _, err := fmt.Fprint(cw, encoded.PDFString()); err != nil {
			return err
		}
		if _, err := cw.Write([]byte{'\n'}); err != nil {
			return err
		}
	}
	_, err = fmt.Fprint(cw, "endobj\n")
	return err
}

func (b *Builder) writeStreamBody(cw *countingWriter, sd types.PDFStreamDict) error {
	sd.Update("Length", types.PDFInteger(len(sd.Raw)))
	if _, err := fmt.Fprint(cw, sd.PDFDict.PDFString()); err != nil {
		return err
	}
	if _, err := fmt.Fprint(cw, "\nstream\n"); err != nil {
		return err
	}
	if _, err := cw.Write(sd.Raw); err != nil {
		return err
	}
	_, err := fmt.Fprint(cw, "\nendstream\n")
	return err
}

// encryptForWrite returns obj with every string/stream encrypted under
// the document's file key, unless encryption is off or obj is the
// encryption dictionary itself (7.6.2: never self-encrypted).
func (b *Builder) encryptForWrite(nr int, obj types.PDFObject) (types.PDFObject, error) {
	if b.handler == nil || (b.encryptRef != nil && int(b.encryptRef.ObjectNumber) == nr) {
		return obj, nil
	}
	if sd, ok := obj.(types.PDFStreamDict); ok {
		encDict, err := crypto.EncryptDeepObject(sd.PDFDict, nr, 0, b.handler.Key, b.handler.Info)
		if err != nil {
			return nil, err
		}
		raw, err := crypto.EncryptBytes(sd.Raw, nr, 0, b.handler.Key, b.handler.Info)
		if err != nil {
			return nil, err
		}
		sd.PDFDict = encDict.(types.PDFDict)
		sd.Raw = raw
		return sd, nil
	}
	return crypto.EncryptDeepObject(obj, nr, 0, b.handler.Key, b.handler.Info)
}

func (b *Builder) writeClassicalXRef(cw *countingWriter, offsets []int64) error {
	if _, err := fmt.Fprint(cw, "xref\n"); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(cw, "0 %d\n", len(offsets)); err != nil {
		return err
	}
	nextFree := computeFreeChain(b.objects)
	for nr := 0; nr < len(offsets); nr++ {
		if nr == 0 || b.objects[nr].free || b.objects[nr].obj == nil {
			if _, err := fmt.Fprintf(cw, "%010d %05d f \r\n", nextFree[nr], 65535); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(cw, "%010d %05d n \r\n", offsets[nr], 0); err != nil {
			return err
		}
	}
	return nil
}

// computeFreeChain links every free/unused object number into the
// free list required by 7.5.4, ordered by object number and closed by
// object 0 so the chain terminates.
func computeFreeChain(objects []entry) []int64 {
	free := []int{}
	for nr := 1; nr < len(objects); nr++ {
		if objects[nr].free || objects[nr].obj == nil {
			free = append(free, nr)
		}
	}
	next := make([]int64, len(objects))
	if len(free) == 0 {
		return next
	}
	for i, nr := range free {
		if i+1 < len(free) {
			next[nr] = int64(free[i+1])
		} else {
			next[nr] = 0
		}
	}
	next[0] = int64(free[0])
	return next
}

func (b *Builder) writeTrailer(cw *countingWriter, xrefOffset int64) error {
	d := types.NewPDFDict()
	d.Insert("Size", types.PDFInteger(len(b.objects)))
	if b.root != nil {
		d.Insert("Root", *b.root)
	}
	if b.info != nil {
		d.Insert("Info", *b.info)
	}
	if len(b.id) > 0 {
		d.Insert("ID", b.id)
	}
	if b.encryptRef != nil {
		d.Insert("Encrypt", *b.encryptRef)
	}
	if _, err := fmt.Fprintf(cw, "trailer\n%s\n", d.PDFString()); err != nil {
		return err
	}
	_, err := fmt.Fprintf(cw, "startxref\n%d\n%%%%EOF\n", xrefOffset)
	return err
}

// countingWriter tracks the byte offset of the next write, matching
// the teacher's WriteContext.Offset bookkeeping.
type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
