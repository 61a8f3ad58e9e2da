package objloader

import (
	"github.com/mechiko/pdflite/pdferr"
	"github.com/mechiko/pdflite/types"
	"github.com/mechiko/pdflite/xref"
)

// loadObjectStream returns the decoded PDFObjectStreamDict for objNr,
// parsing and caching it on first use. An object stream is itself just
// an ordinary stream object (7.5.7), so it goes through the same
// getDirect path as any other indirect object before being reshaped
// into a PDFObjectStreamDict.
func (d *Document) loadObjectStream(objNr int) (*types.PDFObjectStreamDict, error) {
	if osd, ok := d.objStreams[objNr]; ok {
		return osd, nil
	}

	entry, ok := d.XRefTable.Entry(objNr)
	if !ok || entry.Type != xref.EntryInUse {
		return nil, pdferr.InvalidReference(objNr, 0)
	}

	obj, err := d.Get(objNr, 0)
	if err != nil {
		return nil, err
	}
	sd, ok := obj.(types.PDFStreamDict)
	if !ok {
		return nil, pdferr.StreamDecode("object %d is not a stream (expected /ObjStm)", objNr)
	}
	if !sd.IsDictType("ObjStm") {
		return nil, pdferr.StreamDecode("object %d is not an /ObjStm", objNr)
	}

	osd := &types.PDFObjectStreamDict{PDFStreamDict: sd}
	d.objStreams[objNr] = osd
	return osd, nil
}
