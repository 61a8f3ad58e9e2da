package types

import (
	"strings"
)

// PDFDict represents a PDF dictionary object: a mapping from Name to
// PDFObject. Iteration order is not semantically significant for any
// PDF consumer, but this type guarantees stable iteration (insertion
// order) so that re-serializing an unmodified document is
// byte-reproducible. A plain Go map cannot offer that on its own,
// since map iteration order is randomized per process.
type PDFDict struct {
	m    map[string]PDFObject
	keys []string
}

// NewPDFDict returns a new, empty PDFDict.
func NewPDFDict() PDFDict {
	return PDFDict{m: map[string]PDFObject{}}
}

func (d PDFDict) String() string {
	return d.render(func(o PDFObject) string { return o.String() })
}

// PDFString returns a string representation as found in and written to a PDF file.
func (d PDFDict) PDFString() string {
	return d.render(func(o PDFObject) string { return o.PDFString() })
}

func (d PDFDict) render(f func(PDFObject) string) string {
	var b strings.Builder
	b.WriteString("<<")
	for i, k := range d.keys {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(PDFName(k).PDFString())
		b.WriteByte(' ')
		v := d.m[k]
		if v == nil {
			b.WriteString("null")
			continue
		}
		b.WriteString(f(v))
	}
	b.WriteString(">>")
	return b.String()
}

// Clone returns a deep clone of d.
func (d PDFDict) Clone() PDFObject {
	d2 := NewPDFDict()
	for _, k := range d.keys {
		v := d.m[k]
		if v == nil {
			d2.Insert(k, nil)
			continue
		}
		d2.Insert(k, v.Clone())
	}
	return d2
}

// Len returns the number of entries in d.
func (d PDFDict) Len() int { return len(d.keys) }

// Keys returns d's keys in stable (insertion) order.
func (d PDFDict) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

// Insert adds a new entry (key, value) to d. Returns false if key is
// already present, leaving d unmodified; use Update to overwrite.
func (d *PDFDict) Insert(key string, value PDFObject) bool {
	if d.m == nil {
		d.m = map[string]PDFObject{}
	}
	if _, found := d.m[key]; found {
		return false
	}
	d.m[key] = value
	d.keys = append(d.keys, key)
	return true
}

// Update sets key to value, overwriting any existing entry and
// appending key to the iteration order if it is new.
func (d *PDFDict) Update(key string, value PDFObject) {
	if d.m == nil {
		d.m = map[string]PDFObject{}
	}
	if _, found := d.m[key]; !found {
		d.keys = append(d.keys, key)
	}
	d.m[key] = value
}

// Find returns the PDFObject for key and whether it was present.
func (d PDFDict) Find(key string) (PDFObject, bool) {
	v, ok := d.m[key]
	return v, ok
}

// Delete removes key from d, returning its former value.
func (d *PDFDict) Delete(key string) PDFObject {
	v, found := d.Find(key)
	if !found {
		return nil
	}
	delete(d.m, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
	return v
}

// BooleanEntry returns the PDFBoolean value for key, or nil.
func (d PDFDict) BooleanEntry(key string) *bool {
	v, found := d.Find(key)
	if !found {
		return nil
	}
	if b, ok := v.(PDFBoolean); ok {
		val := b.Value()
		return &val
	}
	return nil
}

// StringEntry returns the PDFStringLiteral value for key, or nil.
func (d PDFDict) StringEntry(key string) *string {
	v, found := d.Find(key)
	if !found {
		return nil
	}
	if s, ok := v.(PDFStringLiteral); ok {
		val := s.Value()
		return &val
	}
	return nil
}

// NameEntry returns the PDFName value for key, or nil.
func (d PDFDict) NameEntry(key string) *string {
	v, found := d.Find(key)
	if !found {
		return nil
	}
	if n, ok := v.(PDFName); ok {
		val := n.Value()
		return &val
	}
	return nil
}

// IntEntry returns the PDFInteger value for key, or nil.
func (d PDFDict) IntEntry(key string) *int {
	v, found := d.Find(key)
	if !found {
		return nil
	}
	if i, ok := v.(PDFInteger); ok {
		val := i.Value()
		return &val
	}
	return nil
}

// Int64Entry returns the PDFInteger value for key as an int64, or nil.
func (d PDFDict) Int64Entry(key string) *int64 {
	v, found := d.Find(key)
	if !found {
		return nil
	}
	if i, ok := v.(PDFInteger); ok {
		val := int64(i)
		return &val
	}
	return nil
}

// Float64Entry returns key's numeric value (integer or real) as float64, or nil.
func (d PDFDict) Float64Entry(key string) *float64 {
	v, found := d.Find(key)
	if !found {
		return nil
	}
	switch n := v.(type) {
	case PDFFloat:
		val := n.Value()
		return &val
	case PDFInteger:
		val := float64(n.Value())
		return &val
	}
	return nil
}

// DictEntry returns the PDFDict value for key, or nil. It does not resolve references.
func (d PDFDict) DictEntry(key string) *PDFDict {
	v, found := d.Find(key)
	if !found {
		return nil
	}
	if sub, ok := v.(PDFDict); ok {
		return &sub
	}
	return nil
}

// ArrayEntry returns the PDFArray value for key, or nil. It does not resolve references.
func (d PDFDict) ArrayEntry(key string) *PDFArray {
	v, found := d.Find(key)
	if !found {
		return nil
	}
	if a, ok := v.(PDFArray); ok {
		return &a
	}
	return nil
}

// IndirectRefEntry returns the PDFIndirectRef value for key, or nil.
func (d PDFDict) IndirectRefEntry(key string) *PDFIndirectRef {
	v, found := d.Find(key)
	if !found {
		return nil
	}
	if ir, ok := v.(PDFIndirectRef); ok {
		return &ir
	}
	return nil
}

// Type returns the value of /Type, or "" if absent.
func (d PDFDict) Type() string {
	n := d.NameEntry("Type")
	if n == nil {
		return ""
	}
	return *n
}

// Subtype returns the value of /Subtype, or "" if absent.
func (d PDFDict) Subtype() string {
	n := d.NameEntry("Subtype")
	if n == nil {
		return ""
	}
	return *n
}

// IsDictType returns true if d's /Type entry equals typ, or d has no /Type at all.
func (d PDFDict) IsDictType(typ string) bool {
	t := d.Type()
	return t == "" || t == typ
}
