package writer

import (
	"github.com/mechiko/pdflite/internal/corefont"
	"github.com/mechiko/pdflite/types"
)

// AddStandardFont registers one of the 14 standard Type1 fonts (9.6.2.2)
// as an indirect object and returns its reference, ready to be keyed
// into a page's /Resources /Font subdictionary. No /Widths or
// /FontDescriptor is emitted: viewers are required to supply both for
// any of the 14 names without an embedded program.
func (b *Builder) AddStandardFont(name corefont.Name) types.PDFIndirectRef {
	d := types.NewPDFDict()
	d.Insert("Type", types.PDFName("Font"))
	d.Insert("Subtype", types.PDFName("Type1"))
	d.Insert("BaseFont", types.PDFName(name))
	if name != corefont.Symbol && name != corefont.ZapfDingbats {
		d.Insert("Encoding", types.PDFName("WinAnsiEncoding"))
	}
	return b.AddObject(d)
}

// NewFontResources builds a /Resources dictionary whose /Font
// subdictionary maps each (key, font) pair to a freshly registered
// standard-font object, e.g. NewFontResources(map[string]corefont.Name{"F1": corefont.Helvetica}).
func (b *Builder) NewFontResources(fonts map[string]corefont.Name) types.PDFDict {
	fontDict := types.NewPDFDict()
	for key, name := range fonts {
		fontDict.Insert(key, b.AddStandardFont(name))
	}
	resources := types.NewPDFDict()
	resources.Insert("Font", fontDict)
	return resources
}
