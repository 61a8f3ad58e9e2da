// Package xref parses a PDF file's cross-reference information: the
// classical xref table (7.5.4), cross-reference streams (7.5.8, PDF
// 1.5+), hybrid-reference files (7.5.8.4), and the trailer (7.5.5).
// Grounded on the teacher's read/read.go xref walk, reimplemented
// against the lexer/objparser token stream and extended with the
// bounded-offset-window recovery scan described for malformed files.
package xref

import (
	"github.com/mechiko/pdflite/types"
)

// EntryType distinguishes the three kinds of cross-reference entry
// (Table 18: free, in use, and compressed-in-object-stream).
type EntryType int

// Entry kinds.
const (
	EntryFree EntryType = iota
	EntryInUse
	EntryCompressed
)

// Entry is one cross-reference table slot for a single object number.
type Entry struct {
	Type EntryType

	// Valid when Type == EntryInUse: byte offset of the `N G obj` keyword.
	Offset int64

	// Generation number; 0 for EntryCompressed (object streams only ever
	// hold generation-0 objects per 7.5.7).
	Generation uint16

	// Valid when Type == EntryCompressed: the containing object stream's
	// object number and this object's index within it.
	StreamObjNr int
	StreamIndex int

	// Free-list fields (Type == EntryFree): NextFree is the object
	// number stored in the entry's first field.
	NextFree int

	// Compressed caches the decoded object once loaded from its object
	// stream, so repeated lookups don't re-decode the stream.
	cached   types.PDFObject
	hasCache bool
}

// Cache stores obj as the decoded value for this entry.
func (e *Entry) Cache(obj types.PDFObject) { e.cached, e.hasCache = obj, true }

// Cached returns the previously cached object, if any.
func (e *Entry) Cached() (types.PDFObject, bool) { return e.cached, e.hasCache }

// Table is the merged view of every xref section in a file, walked
// from the most recent (highest-offset) trailer backward through
// /Prev chains. An object number seen in more than one section keeps
// the entry from the first (most recent) section that mentions it.
type Table struct {
	entries  map[int]*Entry
	trailer  types.PDFDict
	hasInfo  bool
	infoRef  types.PDFIndirectRef
	size     int
}

// New returns an empty Table.
func New() *Table {
	return &Table{entries: map[int]*Entry{}, trailer: types.NewPDFDict()}
}

// Exists reports whether objNr has a cross-reference entry.
func (t *Table) Exists(objNr int) bool {
	_, ok := t.entries[objNr]
	return ok
}

// Entry returns the cross-reference entry for objNr, if any.
func (t *Table) Entry(objNr int) (*Entry, bool) {
	e, ok := t.entries[objNr]
	return e, ok
}

// Set installs or overwrites the entry for objNr. Used when merging
// xref sections: the caller should skip objects that already Exist
// since earlier (more recent) sections take priority.
func (t *Table) Set(objNr int, e *Entry) {
	t.entries[objNr] = e
}

// Trailer returns the merged trailer dictionary: the first value seen
// for each key wins, since /Prev trailers only fill in keys the most
// recent trailer didn't set (7.5.5).
func (t *Table) Trailer() types.PDFDict { return t.trailer }

// Size returns the highest object number plus one, as recorded by the
// most recent trailer's /Size entry.
func (t *Table) Size() int { return t.size }

// Root returns the /Root entry of the merged trailer.
func (t *Table) Root() (types.PDFIndirectRef, bool) {
	r := t.trailer.IndirectRefEntry("Root")
	if r == nil {
		return types.PDFIndirectRef{}, false
	}
	return *r, true
}

// Info returns the /Info entry of the merged trailer, if present.
func (t *Table) Info() (types.PDFIndirectRef, bool) {
	r := t.trailer.IndirectRefEntry("Info")
	if r == nil {
		return types.PDFIndirectRef{}, false
	}
	return *r, true
}

// Encrypt returns the /Encrypt entry of the merged trailer, if present.
func (t *Table) Encrypt() (types.PDFIndirectRef, bool) {
	r := t.trailer.IndirectRefEntry("Encrypt")
	if r == nil {
		return types.PDFIndirectRef{}, false
	}
	return *r, true
}

// ID returns the /ID array of the merged trailer, if present.
func (t *Table) ID() (types.PDFArray, bool) {
	a := t.trailer.ArrayEntry("ID")
	if a == nil {
		return nil, false
	}
	return *a, true
}

// ObjectNumbers returns every object number with a cross-reference
// entry, in no particular order.
func (t *Table) ObjectNumbers() []int {
	out := make([]int, 0, len(t.entries))
	for nr := range t.entries {
		out = append(out, nr)
	}
	return out
}

// mergeTrailer copies keys from d into t.trailer without overwriting
// keys already present, matching the "most recent trailer wins" rule.
func (t *Table) mergeTrailer(d types.PDFDict) {
	for _, k := range d.Keys() {
		if _, ok := t.trailer.Find(k); ok {
			continue
		}
		v, _ := d.Find(k)
		t.trailer.Insert(k, v)
	}
	if t.size == 0 {
		if sz := d.IntEntry("Size"); sz != nil {
			t.size = *sz
		}
	}
}
