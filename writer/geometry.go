package writer

import "github.com/mechiko/pdflite/types"

// paperDimsPt gives (width, height) in points (1/72 inch, the PDF
// default user-space unit, 8.3.2.3) for each PaperSize preset in
// portrait orientation.
var paperDimsPt = map[types.PaperSize][2]float64{
	types.PaperA4:     {595.28, 841.89},
	types.PaperLetter: {612, 792},
	types.PaperLegal:  {612, 1008},
}

// unitToPoints converts a length expressed in u to points.
func unitToPoints(u types.Unit, v float64) float64 {
	switch u {
	case types.UnitInches:
		return v * 72
	case types.UnitCentimetres:
		return v * 72 / 2.54
	case types.UnitMillimetres:
		return v * 72 / 25.4
	default:
		return v
	}
}

// DefaultMediaBox returns a [0 0 w h] array sized per cfg's
// DefaultPaperSize, in points, for a page created without an inherited
// /MediaBox. Unrecognized presets fall back to A4.
func DefaultMediaBox(cfg *types.Configuration) types.PDFArray {
	dims, ok := paperDimsPt[cfg.DefaultPaperSize]
	if !ok {
		dims = paperDimsPt[types.PaperA4]
	}
	return types.PDFArray{
		types.PDFInteger(0), types.PDFInteger(0),
		types.PDFFloat(dims[0]), types.PDFFloat(dims[1]),
	}
}

// MediaBoxForSize returns a [0 0 w h] array for a page of width × height
// expressed in cfg's DefaultUnit, converted to points.
func MediaBoxForSize(cfg *types.Configuration, width, height float64) types.PDFArray {
	w := unitToPoints(cfg.DefaultUnit, width)
	h := unitToPoints(cfg.DefaultUnit, height)
	return types.PDFArray{
		types.PDFInteger(0), types.PDFInteger(0),
		types.PDFFloat(w), types.PDFFloat(h),
	}
}
