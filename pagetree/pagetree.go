// Package pagetree walks a document's page tree (7.7.3): resolving
// page count and random-access page lookup while merging the
// inheritable attributes (Resources, MediaBox, CropBox, Rotate) down
// from ancestor /Pages nodes per 7.7.3.4. Grounded on the teacher's
// page-tree traversal in read/read.go, reimplemented against
// objloader.Document and extended with a cycle guard: the original
// assumed a well-formed tree and could loop forever on a page node
// that (directly or through /Parent) points back at an ancestor.
package pagetree

import (
	"github.com/mechiko/pdflite/objloader"
	"github.com/mechiko/pdflite/pdferr"
	"github.com/mechiko/pdflite/types"
)

// inheritable holds the four attributes 7.7.3.4 lets a /Pages node
// push down to its descendants.
type inheritable struct {
	resources *types.PDFDict
	mediaBox  *Rectangle
	cropBox   *Rectangle
	rotate    int
}

// Rectangle is an axis-aligned box in default user space, as found in
// /MediaBox and /CropBox (7.7.3.3).
type Rectangle struct {
	LLx, LLy, URx, URy float64
}

// Width and Height return the rectangle's absolute extents.
func (r Rectangle) Width() float64  { return absf(r.URx - r.LLx) }
func (r Rectangle) Height() float64 { return absf(r.URy - r.LLy) }

func absf(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// Page is one resolved leaf page: its own dictionary plus every
// inheritable attribute already merged down from its ancestors, and
// rotation-normalized dimensions.
type Page struct {
	Dict      types.PDFDict
	ObjNumber int
	Resources types.PDFDict
	MediaBox  Rectangle
	CropBox   Rectangle
	Rotate    int // normalized to one of 0, 90, 180, 270

	// Width and Height are MediaBox's extents with the 90/270 swap applied.
	Width  float64
	Height float64
}

const maxDepth = 256

// PageCount returns the number of leaf /Page nodes reachable from the
// document's page tree root, per the root /Pages node's /Count entry
// when present and trustworthy, else by walking the tree.
func PageCount(doc *objloader.Document) (int, error) {
	root, err := pagesRoot(doc)
	if err != nil {
		return 0, err
	}
	if c := root.IntEntry("Count"); c != nil && *c >= 0 {
		return *c, nil
	}
	n := 0
	seen := map[int]bool{}
	if err := walkCount(doc, root, 0, &n, seen); err != nil {
		return 0, err
	}
	return n, nil
}

func walkCount(doc *objloader.Document, node types.PDFDict, depth int, n *int, seen map[int]bool) error {
	if depth > maxDepth {
		return pdferr.CircularReference(0, 0)
	}
	kids := node.ArrayEntry("Kids")
	if kids == nil {
		*n++
		return nil
	}
	for _, k := range *kids {
		ref, ok := k.(types.PDFIndirectRef)
		if !ok {
			continue
		}
		objNr := int(ref.ObjectNumber)
		if seen[objNr] {
			return pdferr.CircularReference(objNr, uint16(ref.GenerationNumber))
		}
		seen[objNr] = true
		child, ok, err := doc.DereferenceDict(ref)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if child.IsDictType("Pages") {
			if err := walkCount(doc, child, depth+1, n, seen); err != nil {
				return err
			}
		} else {
			*n++
		}
		delete(seen, objNr)
	}
	return nil
}

// GetPage returns the index'th page (0-based, document order) with
// every inheritable attribute resolved.
func GetPage(doc *objloader.Document, index int) (*Page, error) {
	root, err := pagesRoot(doc)
	if err != nil {
		return nil, err
	}

	inh := inheritable{rotate: 0}
	if r := root.DictEntry("Resources"); r != nil {
		inh.resources = r
	}
	if mb, err := rectEntry(doc, root, "MediaBox"); err == nil && mb != nil {
		inh.mediaBox = mb
	}
	if cb, err := rectEntry(doc, root, "CropBox"); err == nil && cb != nil {
		inh.cropBox = cb
	}
	if rot := root.IntEntry("Rotate"); rot != nil {
		inh.rotate = *rot
	}

	counter := index
	seen := map[int]bool{}
	page, err := findPage(doc, root, 0, inh, &counter, seen)
	if err != nil {
		return nil, err
	}
	if page == nil {
		return nil, pdferr.MissingKey("page index out of range")
	}
	return page, nil
}

func pagesRoot(doc *objloader.Document) (types.PDFDict, error) {
	cat, err := doc.Root()
	if err != nil {
		return types.PDFDict{}, err
	}
	ref := cat.IndirectRefEntry("Pages")
	if ref == nil {
		return types.PDFDict{}, pdferr.MissingKey("Pages")
	}
	root, ok, err := doc.DereferenceDict(*ref)
	if err != nil {
		return types.PDFDict{}, err
	}
	if !ok || !root.IsDictType("Pages") {
		return types.PDFDict{}, pdferr.InvalidTrailer("/Root/Pages does not resolve to a Pages node")
	}
	return root, nil
}

func findPage(doc *objloader.Document, node types.PDFDict, depth int, inh inheritable, counter *int, seen map[int]bool) (*Page, error) {
	if depth > maxDepth {
		return nil, pdferr.CircularReference(0, 0)
	}

	kids := node.ArrayEntry("Kids")
	if kids == nil {
		if *counter != 0 {
			*counter--
			return nil, nil
		}
		return buildPage(node, inh), nil
	}

	for _, k := range *kids {
		ref, ok := k.(types.PDFIndirectRef)
		if !ok {
			continue
		}
		objNr := int(ref.ObjectNumber)
		if seen[objNr] {
			return nil, pdferr.CircularReference(objNr, uint16(ref.GenerationNumber))
		}
		seen[objNr] = true

		child, ok, err := doc.DereferenceDict(ref)
		if err != nil {
			return nil, err
		}
		if !ok {
			delete(seen, objNr)
			continue
		}

		childInh := inh
		if r := child.DictEntry("Resources"); r != nil {
			childInh.resources = r
		}
		if mb, err := rectEntry(doc, child, "MediaBox"); err == nil && mb != nil {
			childInh.mediaBox = mb
		}
		if cb, err := rectEntry(doc, child, "CropBox"); err == nil && cb != nil {
			childInh.cropBox = cb
		}
		if rot := child.IntEntry("Rotate"); rot != nil {
			childInh.rotate = *rot
		}

		if child.IsDictType("Pages") {
			p, err := findPage(doc, child, depth+1, childInh, counter, seen)
			if err != nil {
				return nil, err
			}
			delete(seen, objNr)
			if p != nil {
				p.ObjNumber = objNr
				return p, nil
			}
			continue
		}

		delete(seen, objNr)
		if *counter != 0 {
			*counter--
			continue
		}
		p := buildPage(child, childInh)
		p.ObjNumber = objNr
		return p, nil
	}
	return nil, nil
}

func buildPage(dict types.PDFDict, inh inheritable) *Page {
	p := &Page{Dict: dict}
	if inh.resources != nil {
		p.Resources = *inh.resources
	} else {
		p.Resources = types.NewPDFDict()
	}
	if inh.mediaBox != nil {
		p.MediaBox = *inh.mediaBox
	} else {
		p.MediaBox = Rectangle{0, 0, 612, 792} // US Letter default, 7.7.3.3
	}
	if inh.cropBox != nil {
		p.CropBox = *inh.cropBox
	} else {
		p.CropBox = p.MediaBox
	}
	p.Rotate = normalizeRotate(inh.rotate)

	w, h := p.MediaBox.Width(), p.MediaBox.Height()
	if p.Rotate == 90 || p.Rotate == 270 {
		w, h = h, w
	}
	p.Width, p.Height = w, h
	return p
}

// normalizeRotate reduces rotate mod 360 and snaps to the nearest
// multiple of 90, since Rotate values must be a multiple of 90 but
// malformed or negative values do occur in the wild (7.7.3.3).
func normalizeRotate(rotate int) int {
	r := rotate % 360
	if r < 0 {
		r += 360
	}
	r = (r / 90) * 90
	return r
}

// ContentStreams returns page's decoded content stream bytes in
// order: one element if /Contents is a single stream, one per element
// if it is an array of stream references. Concatenating them (with
// whitespace between, per 7.8.2) is left to the caller.
func ContentStreams(doc *objloader.Document, page *Page) ([][]byte, error) {
	v, ok := page.Dict.Find("Contents")
	if !ok {
		return nil, nil
	}

	resolved, err := doc.Dereference(v)
	if err != nil {
		return nil, err
	}

	switch c := resolved.(type) {
	case types.PDFStreamDict:
		return [][]byte{c.Content}, nil
	case types.PDFArray:
		out := make([][]byte, 0, len(c))
		for _, e := range c {
			sd, err := doc.DereferenceStreamDict(e)
			if err != nil {
				return nil, err
			}
			out = append(out, sd.Content)
		}
		return out, nil
	default:
		return nil, pdferr.StreamDecode("/Contents is neither a stream nor an array of streams")
	}
}

func rectEntry(doc *objloader.Document, d types.PDFDict, key string) (*Rectangle, error) {
	v, ok := d.Find(key)
	if !ok {
		return nil, nil
	}
	resolved, err := doc.Dereference(v)
	if err != nil {
		return nil, err
	}
	arr, ok := resolved.(types.PDFArray)
	if !ok || len(arr) != 4 {
		return nil, nil
	}
	vals := make([]float64, 4)
	for i, e := range arr {
		re, err := doc.Dereference(e)
		if err != nil {
			return nil, err
		}
		switch n := re.(type) {
		case types.PDFFloat:
			vals[i] = n.Value()
		case types.PDFInteger:
			vals[i] = float64(n.Value())
		default:
			return nil, nil
		}
	}
	return &Rectangle{LLx: vals[0], LLy: vals[1], URx: vals[2], URy: vals[3]}, nil
}
