// Package corefont catalogs the 14 standard Type 1 fonts every
// conforming PDF viewer must provide without an embedded font program
// (9.6.2.2), so the writer can emit a minimal /Font resource (just
// /Type /Font /Subtype /Type1 /BaseFont /Encoding, no /Widths or
// /FontDescriptor needed) and so callers laying out text can estimate
// string width before a page is written. Grounded on the teacher's
// internal/corefont/metrics package (the 14-name catalog and the
// per-glyph width lookup shape); the full per-glyph AFM width tables
// that package ships were not part of the retrieval pack (see
// DESIGN.md), so this module carries the per-font average advance
// width for WinAnsi-encoded text instead of a full glyph table -
// precise enough for estimating a text run's bounding box, not precise
// enough to kern individual glyphs.
package corefont

// Name is one of the 14 standard font PostScript names (9.6.2.2, Table 112).
type Name string

// The 14 standard fonts.
const (
	Helvetica             Name = "Helvetica"
	HelveticaBold         Name = "Helvetica-Bold"
	HelveticaOblique      Name = "Helvetica-Oblique"
	HelveticaBoldOblique  Name = "Helvetica-BoldOblique"
	TimesRoman            Name = "Times-Roman"
	TimesBold             Name = "Times-Bold"
	TimesItalic           Name = "Times-Italic"
	TimesBoldItalic       Name = "Times-BoldItalic"
	Courier               Name = "Courier"
	CourierBold           Name = "Courier-Bold"
	CourierOblique        Name = "Courier-Oblique"
	CourierBoldOblique    Name = "Courier-BoldOblique"
	Symbol                Name = "Symbol"
	ZapfDingbats          Name = "ZapfDingbats"
)

// Standard14 lists all 14 names in the order Table 112 gives them.
var Standard14 = []Name{
	TimesRoman, Helvetica, Courier, Symbol,
	TimesBold, HelveticaBold, CourierBold, ZapfDingbats,
	TimesItalic, HelveticaOblique, CourierOblique,
	TimesBoldItalic, HelveticaBoldOblique, CourierBoldOblique,
}

// IsStandard14 reports whether name is one of the 14 standard fonts.
func IsStandard14(name string) bool {
	for _, n := range Standard14 {
		if string(n) == name {
			return true
		}
	}
	return false
}

// averageWidth is the per-font average glyph advance width in glyph
// space (1/1000 em), used for a whole-string width estimate. Courier's
// is exact (it is a fixed-pitch font, 9.6.2.2); the proportional fonts'
// are averages over WinAnsi's printable range, not per-glyph widths.
var averageWidth = map[Name]int{
	Helvetica:            556,
	HelveticaBold:        611,
	HelveticaOblique:     556,
	HelveticaBoldOblique: 611,
	TimesRoman:           500,
	TimesBold:            556,
	TimesItalic:          500,
	TimesBoldItalic:      556,
	Courier:              600,
	CourierBold:          600,
	CourierOblique:       600,
	CourierBoldOblique:   600,
	Symbol:               600,
	ZapfDingbats:         788,
}

// EstimateWidth returns an estimated rendered width, in default user
// space units, of s set in name at the given point size. It is a
// whole-string estimate (average glyph width × length × size / 1000),
// not a sum of per-glyph widths: adequate for picking a font size that
// fits a box, not for precise text-layout kerning.
func EstimateWidth(name Name, s string, size float64) float64 {
	w, ok := averageWidth[name]
	if !ok {
		w = 500
	}
	return float64(len([]rune(s))) * float64(w) * size / 1000
}

// Width1000 returns the font's average advance width in 1000-unit
// glyph space, the form a /Widths array or a Type0 /W array entry uses.
func Width1000(name Name) int {
	if w, ok := averageWidth[name]; ok {
		return w
	}
	return 500
}
