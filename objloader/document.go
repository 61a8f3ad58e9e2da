// Package objloader implements the object loader (ISO 32000-1:2008
// 7.3.10, 7.5.7): resolving an indirect reference to its object,
// transparently following compressed-object-stream indirection,
// decrypting per-object when the document is encrypted, and caching
// decoded objects behind a bounded LRU. Grounded on the teacher's
// dereference/object-table handling, reimplemented against this
// module's xref/objparser/crypto/filter/objstm stack.
package objloader

import (
	"fmt"
	"io"
	"strings"

	"github.com/mechiko/pdflite/crypto"
	"github.com/mechiko/pdflite/log"
	"github.com/mechiko/pdflite/pdferr"
	"github.com/mechiko/pdflite/types"
	"github.com/mechiko/pdflite/xref"
)

// Document is the in-memory representation of an opened PDF file: its
// cross-reference table, the decrypted-on-demand object cache, and the
// security handler bound to it (if the file is encrypted). A Document
// exclusively owns the backing byte source; callers never touch it
// directly (§5 of the spec).
type Document struct {
	ra   io.ReaderAt
	size int64
	cfg  *types.Configuration

	XRefTable *xref.Table
	Version   types.PDFVersion

	handler    *crypto.Handler
	encryptNum int // object number of /Encrypt, exempt from decryption; -1 if direct dict or unencrypted

	cache      *lru
	inProgress map[types.ObjectID]bool
	objStreams map[int]*types.PDFObjectStreamDict

	Warnings []string
}

// Open builds a Document by locating the header, loading the
// cross-reference table (falling back to a full rebuild scan in
// lenient mode), and - if the trailer names an /Encrypt dictionary -
// authenticating against the configured passwords.
func Open(ra io.ReaderAt, size int64, cfg *types.Configuration) (*Document, error) {
	if cfg == nil {
		cfg = types.NewDefaultConfiguration()
	}
	if size == 0 {
		return nil, pdferr.EmptyFile()
	}

	version, err := readHeader(ra, size, cfg.LenientSyntax)
	if err != nil {
		return nil, err
	}

	table, err := xref.Load(ra, size, cfg.LenientSyntax)
	if err != nil {
		return nil, err
	}

	if _, ok := table.Root(); !ok && !cfg.LenientSyntax {
		return nil, pdferr.MissingKey("Root")
	}

	d := &Document{
		ra:         ra,
		size:       size,
		cfg:        cfg,
		XRefTable:  table,
		Version:    version,
		encryptNum: -1,
		cache:      newLRU(cfg.EffectiveCacheSize()),
		inProgress: map[types.ObjectID]bool{},
		objStreams: map[int]*types.PDFObjectStreamDict{},
	}

	if ref, ok := table.Encrypt(); ok {
		d.encryptNum = int(ref.ObjectNumber)
		if err := d.setupEncryption(ref); err != nil {
			return nil, err
		}
	}

	return d, nil
}

// readHeader locates the "%PDF-M.m" marker, required at offset 0 but
// tolerated anywhere in the first 1024 bytes in lenient mode (§6).
func readHeader(ra io.ReaderAt, size int64, lenient bool) (types.PDFVersion, error) {
	n := int64(1024)
	if n > size {
		n = size
	}
	buf := make([]byte, n)
	if _, err := ra.ReadAt(buf, 0); err != nil && err != io.EOF {
		return 0, pdferr.IO(err)
	}

	idx := strings.Index(string(buf), "%PDF-")
	if idx == -1 {
		return 0, pdferr.InvalidHeader("no %%PDF- marker found in first %d bytes", n)
	}
	if idx != 0 && !lenient {
		return 0, pdferr.InvalidHeader("%%PDF- marker not at offset 0 (strict mode)")
	}

	rest := buf[idx+len("%PDF-"):]
	end := 0
	for end < len(rest) && rest[end] != '\r' && rest[end] != '\n' {
		end++
	}
	versionStr := strings.TrimSpace(string(rest[:end]))

	v, err := types.Version(versionStr)
	if err != nil {
		if !lenient {
			return 0, pdferr.InvalidHeader("unrecognized version %q", versionStr)
		}
		log.Info.Printf("read: unrecognized header version %q, assuming 1.7\n", versionStr)
		return types.V17, nil
	}
	return v, nil
}

func (d *Document) setupEncryption(ref types.PDFIndirectRef) error {
	dict, err := d.encryptDict(ref)
	if err != nil {
		return err
	}

	id, _ := d.XRefTable.ID()
	var fileID []byte
	if len(id) > 0 {
		if hl, ok := id[0].(types.PDFHexLiteral); ok {
			fileID, _ = hl.Bytes()
		} else if sl, ok := id[0].(types.PDFStringLiteral); ok {
			fileID = []byte(sl.Value())
		}
	}

	info, err := crypto.SupportedEncryption(dict, fileID)
	if err != nil {
		return err
	}

	if o := stringOrHexBytes(dict, "O"); o != nil {
		info.O = o
	}
	if u := stringOrHexBytes(dict, "U"); u != nil {
		info.U = u
	}
	if oe := stringOrHexBytes(dict, "OE"); oe != nil {
		info.OE = oe
	}
	if ue := stringOrHexBytes(dict, "UE"); ue != nil {
		info.UE = ue
	}
	if pm := stringOrHexBytes(dict, "Perms"); pm != nil {
		info.Perms = pm
	}

	h, err := crypto.Authenticate(d.cfg.UserPW, d.cfg.OwnerPW, info)
	if err != nil {
		return pdferr.Encryption("authentication failed: %v", err)
	}
	d.handler = h
	return nil
}

// encryptDict reads the /Encrypt entry of the trailer directly off the
// byte source, bypassing Get (which isn't usable yet: the security
// handler it would need to decrypt strings doesn't exist until this
// function returns).
func (d *Document) encryptDict(ref types.PDFIndirectRef) (*types.PDFDict, error) {
	entry, ok := d.XRefTable.Entry(int(ref.ObjectNumber))
	if !ok || entry.Type != xref.EntryInUse {
		return nil, pdferr.InvalidReference(int(ref.ObjectNumber), uint16(ref.GenerationNumber))
	}
	obj, _, _, err := d.parseObjectAt(entry.Offset)
	if err != nil {
		return nil, err
	}
	dict, ok := obj.(types.PDFDict)
	if !ok {
		return nil, pdferr.InvalidTrailer("/Encrypt does not resolve to a dictionary")
	}
	return &dict, nil
}

// Encrypted reports whether this Document has an active security handler.
func (d *Document) Encrypted() bool { return d.handler != nil }

// Trailer returns the merged trailer dictionary.
func (d *Document) Trailer() types.PDFDict { return d.XRefTable.Trailer() }

// Root returns the catalog dictionary, resolving the trailer's /Root reference.
func (d *Document) Root() (types.PDFDict, error) {
	ref, ok := d.XRefTable.Root()
	if !ok {
		return types.PDFDict{}, pdferr.MissingKey("Root")
	}
	obj, err := d.Get(int(ref.ObjectNumber), int(ref.GenerationNumber))
	if err != nil {
		return types.PDFDict{}, err
	}
	dict, ok := obj.(types.PDFDict)
	if !ok {
		return types.PDFDict{}, pdferr.InvalidTrailer("/Root does not resolve to a dictionary")
	}
	return dict, nil
}

// warn records a lenient-mode warning when the configuration requests collection.
func (d *Document) warn(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	log.Info.Println(msg)
	if d.cfg.CollectWarnings {
		d.Warnings = append(d.Warnings, msg)
	}
}

// stringOrHexBytes reads key as whichever string representation the
// producer used: a literal string `(...)` is taken as its raw bytes, a
// hex string `<...>` is decoded. The standard security handler's O/U/OE/UE
// entries are conventionally hex strings but the spec permits either (7.3.4).
func stringOrHexBytes(d *types.PDFDict, key string) []byte {
	v, ok := d.Find(key)
	if !ok {
		return nil
	}
	switch o := v.(type) {
	case types.PDFHexLiteral:
		b, err := o.Bytes()
		if err != nil {
			return nil
		}
		return b
	case types.PDFStringLiteral:
		return []byte(o.Value())
	default:
		return nil
	}
}
