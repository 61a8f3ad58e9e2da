package writer

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mechiko/pdflite/objloader"
	"github.com/mechiko/pdflite/types"
)

// buildMinimalDoc assembles a one-page catalog/pages/page/content-stream
// document through a Builder, returning the root reference alongside it
// so callers don't have to re-derive it.
func buildMinimalDoc(t *testing.T, cfg *types.Configuration) (*Builder, types.PDFIndirectRef) {
	t.Helper()
	b := NewBuilder(types.V17, cfg)

	fontDict := types.NewPDFDict()
	fontDict.Insert("Type", types.PDFName("Font"))
	fontDict.Insert("Subtype", types.PDFName("Type1"))
	fontDict.Insert("BaseFont", types.PDFName("Helvetica"))
	fontRef := b.AddObject(fontDict)

	resources := types.NewPDFDict()
	fonts := types.NewPDFDict()
	fonts.Insert("F1", fontRef)
	resources.Insert("Font", fonts)

	contentRef, err := b.NewContentStream([]byte("BT /F1 12 Tf 72 712 Td (Hello) Tj ET"), true)
	if err != nil {
		t.Fatalf("NewContentStream: %v", err)
	}

	pageRef := b.Reserve()
	pagesRef := b.Reserve()

	page := types.NewPDFDict()
	page.Insert("Type", types.PDFName("Page"))
	page.Insert("Parent", pagesRef)
	page.Insert("Resources", resources)
	page.Insert("Contents", contentRef)
	b.Set(pageRef, page)

	pages := types.NewPDFDict()
	pages.Insert("Type", types.PDFName("Pages"))
	pages.Insert("Kids", types.PDFArray{pageRef})
	pages.Insert("Count", types.PDFInteger(1))
	pages.Insert("MediaBox", types.PDFArray{
		types.PDFInteger(0), types.PDFInteger(0), types.PDFInteger(612), types.PDFInteger(792),
	})
	b.Set(pagesRef, pages)

	catalog := types.NewPDFDict()
	catalog.Insert("Type", types.PDFName("Catalog"))
	catalog.Insert("Pages", pagesRef)
	catalogRef := b.AddObject(catalog)
	b.SetRoot(catalogRef)

	return b, catalogRef
}

func reopen(t *testing.T, data []byte, cfg *types.Configuration) *objloader.Document {
	t.Helper()
	doc, err := objloader.Open(bytes.NewReader(data), int64(len(data)), cfg)
	if err != nil {
		t.Fatalf("objloader.Open: %v", err)
	}
	return doc
}

func TestWriteClassicalRoundTrip(t *testing.T) {
	cfg := types.NewDefaultConfiguration()
	cfg.WriteXRefStream = false
	cfg.WriteObjectStream = false

	b, _ := buildMinimalDoc(t, cfg)

	var buf bytes.Buffer
	if err := b.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	doc := reopen(t, buf.Bytes(), nil)
	root, err := doc.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if root.Type() != "Catalog" {
		t.Fatalf("Type() = %q, want Catalog", root.Type())
	}

	pagesRef := root.IndirectRefEntry("Pages")
	if pagesRef == nil {
		t.Fatal("/Pages missing")
	}
	pages, ok, err := doc.DereferenceDict(*pagesRef)
	if err != nil || !ok {
		t.Fatalf("DereferenceDict(Pages) = %v, %v, %v", pages, ok, err)
	}
	kids := pages.ArrayEntry("Kids")
	if kids == nil || len(*kids) != 1 {
		t.Fatalf("Kids = %v, want 1 entry", kids)
	}

	pageRef := (*kids)[0].(types.PDFIndirectRef)
	page, ok, err := doc.DereferenceDict(pageRef)
	if err != nil || !ok {
		t.Fatalf("DereferenceDict(page): %v, %v, %v", page, ok, err)
	}
	contentsRef := page.IndirectRefEntry("Contents")
	if contentsRef == nil {
		t.Fatal("/Contents missing")
	}
	sd, err := doc.DereferenceStreamDict(*contentsRef)
	if err != nil {
		t.Fatalf("DereferenceStreamDict: %v", err)
	}
	if !strings.Contains(string(sd.Content), "Hello") {
		t.Fatalf("content = %q, want it to contain Hello", sd.Content)
	}
}

func TestWriteXRefStreamRoundTrip(t *testing.T) {
	cfg := types.NewDefaultConfiguration() // WriteXRefStream + WriteObjectStream both true

	b, _ := buildMinimalDoc(t, cfg)

	var buf bytes.Buffer
	if err := b.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	doc := reopen(t, buf.Bytes(), nil)
	root, err := doc.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if root.Type() != "Catalog" {
		t.Fatalf("Type() = %q, want Catalog", root.Type())
	}
}

func TestWriteEncryptedRoundTrip(t *testing.T) {
	cfg := types.NewDefaultConfiguration()
	cfg.WriteXRefStream = false
	cfg.WriteObjectStream = false

	b, _ := buildMinimalDoc(t, cfg)
	if err := b.Encrypt("", "owner-secret", types.PermissionsAll, true, true, false); err != nil {
		t.Fatalf("Encrypt: %v", err)
	}

	var buf bytes.Buffer
	if err := b.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	readCfg := types.NewDefaultConfiguration()
	doc := reopen(t, buf.Bytes(), readCfg)
	if !doc.Encrypted() {
		t.Fatal("Encrypted() = false, want true")
	}
	root, err := doc.Root()
	if err != nil {
		t.Fatalf("Root: %v", err)
	}
	if root.Type() != "Catalog" {
		t.Fatalf("Type() = %q, want Catalog", root.Type())
	}
}

func TestWriteFreeListForGaps(t *testing.T) {
	cfg := types.NewDefaultConfiguration()
	cfg.WriteXRefStream = false
	cfg.WriteObjectStream = false

	b := NewBuilder(types.V14, cfg)
	d := types.NewPDFDict()
	d.Insert("Type", types.PDFName("Catalog"))
	ref := b.AddObject(d)
	b.SetRoot(ref)
	b.Reserve() // never Set: leaves a gap in the object numbering

	var buf bytes.Buffer
	if err := b.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if !strings.Contains(buf.String(), "65535 f") {
		t.Fatalf("xref section has no free entries:\n%s", buf.String())
	}
}
