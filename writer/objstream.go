package writer

import (
	"bytes"

	"github.com/mechiko/pdflite/filter"
	"github.com/mechiko/pdflite/types"
)

// streamableMaxObjects bounds how many objects one generated object
// stream packs before the writer starts a fresh one, matching the
// teacher's ObjectStreamMaxObjects in write/write.go.
const streamableMaxObjects = 100

// writeWithObjectStream emits every non-stream object packed into one
// or more /ObjStm streams (7.5.7); stream objects (which object
// streams may not themselves contain, 7.5.7) and the encryption
// dictionary are written directly. Populates b.compressed and
// b.lastOffsets for writeXRefStream.
func (b *Builder) writeWithObjectStream(cw *countingWriter, offsets []int64) error {
	compressed := make(map[int][2]int) // objNr -> (containing ObjStm objNr, index within it)
	b.compressed = compressed

	var osd *types.PDFObjectStreamDict
	var osdNr int
	count := 0

	flush := func() error {
		if osd == nil || count == 0 {
			return nil
		}
		osd.Finalize()
		f, err := filter.NewFilter("FlateDecode", nil, nil)
		if err != nil {
			return err
		}
		encoded, err := f.Encode(bytes.NewReader(osd.Content))
		if err != nil {
			return err
		}
		osd.Raw = encoded.Bytes()
		offsets[osdNr] = cw.n
		if err := b.writeIndirectObject(cw, osdNr, osd.PDFStreamDict); err != nil {
			return err
		}
		b.objects[osdNr] = entry{obj: osd.PDFStreamDict}
		osd = nil
		count = 0
		return nil
	}

	originalLen := len(b.objects)
	for nr := 1; nr < originalLen; nr++ {
		e := b.objects[nr]
		if e.free || e.obj == nil {
			continue
		}
		_, isStream := e.obj.(types.PDFStreamDict)
		isEncryptDict := b.encryptRef != nil && int(b.encryptRef.ObjectNumber) == nr
		if isStream || isEncryptDict {
			offsets[nr] = cw.n
			if err := b.writeIndirectObject(cw, nr, e.obj); err != nil {
				return err
			}
			continue
		}

		if osd == nil {
			osdNr = len(b.objects)
			b.objects = append(b.objects, entry{free: true}) // placeholder, filled by flush
			offsets = append(offsets, 0)
			osd = types.NewPDFObjectStreamDict()
		}
		compressed[nr] = [2]int{osdNr, count}
		osd.AddObject(nr, e.obj)
		count++
		if count >= streamableMaxObjects {
			if err := flush(); err != nil {
				return err
			}
		}
	}
	if err := flush(); err != nil {
		return err
	}

	b.lastOffsets = offsets
	return nil
}

// writeXRefStream emits a PDF 1.5+ cross-reference stream (7.5.8)
// describing every object's final disposition: free, direct offset, or
// compressed-in-object-stream. The stream object itself is assigned
// the next free object number and its own offset (known in advance:
// it is always the last thing written) is included in its own table.
func (b *Builder) writeXRefStream(cw *countingWriter, offsets []int64, xrefOffset int64) error {
	if b.lastOffsets != nil {
		offsets = b.lastOffsets
	}

	xrefNr := len(b.objects)
	offsets = append(offsets, xrefOffset)
	size := xrefNr + 1

	xd := types.NewPDFXRefStreamDict(refOrNil(b.root), refOrNil(b.info), idOrNil(b.id), refOrNil(b.encryptRef))
	xd.Size = size
	xd.Index = []int{0, size}
	xd.W = [3]int{1, 4, 2}

	nextFree := computeFreeChain(b.objects)
	var body bytes.Buffer
	for nr := 0; nr < size; nr++ {
		switch {
		case nr == xrefNr:
			writeXRefRow(&body, 1, offsets[nr], 0)
		case nr == 0 || b.objects[nr].free || b.objects[nr].obj == nil:
			writeXRefRow(&body, 0, nextFree[nr], 0)
		default:
			if c, ok := b.compressed[nr]; ok {
				writeXRefRow(&body, 2, int64(c[0]), c[1])
			} else {
				writeXRefRow(&body, 1, offsets[nr], 0)
			}
		}
	}

	f, err := filter.NewFilter("FlateDecode", nil, nil)
	if err != nil {
		return err
	}
	encoded, err := f.Encode(bytes.NewReader(body.Bytes()))
	if err != nil {
		return err
	}
	xd.Raw = encoded.Bytes()
	xd.Update("Length", types.PDFInteger(len(xd.Raw)))
	xd.Update("Size", types.PDFInteger(size))
	xd.Update("Index", indexArray(xd.Index))
	xd.Update("W", wArray(xd.W))

	return b.writeIndirectObject(cw, xrefNr, xd.PDFStreamDict)
}

func writeXRefRow(buf *bytes.Buffer, typ int, field2 int64, field3 int) {
	buf.WriteByte(byte(typ))
	buf.WriteByte(byte(field2 >> 24))
	buf.WriteByte(byte(field2 >> 16))
	buf.WriteByte(byte(field2 >> 8))
	buf.WriteByte(byte(field2))
	buf.WriteByte(byte(field3 >> 8))
	buf.WriteByte(byte(field3))
}

func indexArray(idx []int) types.PDFArray {
	out := make(types.PDFArray, len(idx))
	for i, v := range idx {
		out[i] = types.PDFInteger(v)
	}
	return out
}

func wArray(w [3]int) types.PDFArray {
	return types.PDFArray{types.PDFInteger(w[0]), types.PDFInteger(w[1]), types.PDFInteger(w[2])}
}

func refOrNil(ref *types.PDFIndirectRef) types.PDFObject {
	if ref == nil {
		return nil
	}
	return *ref
}

func idOrNil(id types.PDFArray) types.PDFObject {
	if len(id) == 0 {
		return nil
	}
	return id
}
