package types

import (
	"strings"
)

// PDFArray represents a PDF array object: an ordered, heterogeneous
// sequence of PDFObject.
type PDFArray []PDFObject

// NewStringArray returns a PDFArray with PDFStringLiteral entries.
func NewStringArray(sVars ...string) PDFArray {
	a := PDFArray{}
	for _, s := range sVars {
		a = append(a, PDFStringLiteral(s))
	}
	return a
}

// NewNameArray returns a PDFArray with PDFName entries.
func NewNameArray(sVars ...string) PDFArray {
	a := PDFArray{}
	for _, s := range sVars {
		a = append(a, PDFName(s))
	}
	return a
}

// NewNumberArray returns a PDFArray with PDFFloat entries.
func NewNumberArray(fVars ...float64) PDFArray {
	a := PDFArray{}
	for _, f := range fVars {
		a = append(a, PDFFloat(f))
	}
	return a
}

// NewIntegerArray returns a PDFArray with PDFInteger entries.
func NewIntegerArray(fVars ...int) PDFArray {
	a := PDFArray{}
	for _, f := range fVars {
		a = append(a, PDFInteger(f))
	}
	return a
}

func (array PDFArray) String() string {
	ss := make([]string, len(array))
	for i, entry := range array {
		if entry == nil {
			ss[i] = "null"
			continue
		}
		ss[i] = entry.String()
	}
	return "[" + strings.Join(ss, " ") + "]"
}

// PDFString returns a string representation as found in and written to a PDF file.
func (array PDFArray) PDFString() string {
	ss := make([]string, len(array))
	for i, entry := range array {
		if entry == nil {
			ss[i] = "null"
			continue
		}
		ss[i] = entry.PDFString()
	}
	return "[" + strings.Join(ss, " ") + "]"
}

// Clone returns a deep clone of array.
func (array PDFArray) Clone() PDFObject {
	a := make(PDFArray, len(array))
	for i, entry := range array {
		if entry == nil {
			continue
		}
		a[i] = entry.Clone()
	}
	return a
}

// Elements returns the raw slice, a convenience for range loops that
// need the zero-value nil check left to the caller.
func (array PDFArray) Elements() []PDFObject { return array }
