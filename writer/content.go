package writer

import (
	"bytes"
	"fmt"

	"github.com/mechiko/pdflite/color"
	"github.com/mechiko/pdflite/internal/corefont"
)

// ContentBuilder accumulates content-stream operators (9.4, Table 51)
// as text, the way the teacher's create.addContents builds its `t`
// string by repeated concatenation. It exists so callers don't have to
// hand-format Tf/Td/Tj/rg operands themselves.
type ContentBuilder struct {
	buf bytes.Buffer
}

// NewContentBuilder returns an empty ContentBuilder.
func NewContentBuilder() *ContentBuilder { return &ContentBuilder{} }

// Bytes returns the accumulated operator stream.
func (c *ContentBuilder) Bytes() []byte { return c.buf.Bytes() }

// SetFillColor emits an `rg` operator selecting a DeviceRGB fill color (8.6.8).
func (c *ContentBuilder) SetFillColor(rgb color.RGB) *ContentBuilder {
	fmt.Fprintf(&c.buf, "%.3f %.3f %.3f rg\n", rgb.R, rgb.G, rgb.B)
	return c
}

// SetStrokeColor emits an `RG` operator selecting a DeviceRGB stroke color.
func (c *ContentBuilder) SetStrokeColor(rgb color.RGB) *ContentBuilder {
	fmt.Fprintf(&c.buf, "%.3f %.3f %.3f RG\n", rgb.R, rgb.G, rgb.B)
	return c
}

// Rect emits a rectangle path (`re`) at (x,y) with the given width/height.
func (c *ContentBuilder) Rect(x, y, w, h float64) *ContentBuilder {
	fmt.Fprintf(&c.buf, "%.2f %.2f %.2f %.2f re\n", x, y, w, h)
	return c
}

// Fill emits the nonzero-winding fill operator (`f`).
func (c *ContentBuilder) Fill() *ContentBuilder {
	c.buf.WriteString("f\n")
	return c
}

// Stroke emits the stroke-path operator (`S`).
func (c *ContentBuilder) Stroke() *ContentBuilder {
	c.buf.WriteString("S\n")
	return c
}

// Text emits a BT...ET text-showing block (9.4.3): select fontKey at
// size, move to (x,y) in unrotated text space, and show s with Tj.
// fontKey must be a key already present in the page's /Resources
// /Font subdictionary (see NewFontResources).
func (c *ContentBuilder) Text(fontKey string, size, x, y float64, s string) *ContentBuilder {
	fmt.Fprintf(&c.buf, "BT\n/%s %.2f Tf\n%.2f %.2f Td\n%s Tj\nET\n", fontKey, size, x, y, escapeLiteral(s))
	return c
}

// escapeLiteral escapes the three literal-string metacharacters (7.3.4.2)
// and wraps s in parentheses for direct use as a Tj operand.
func escapeLiteral(s string) string {
	var b bytes.Buffer
	b.WriteByte('(')
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '(', ')', '\\':
			b.WriteByte('\\')
			b.WriteByte(c)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte(')')
	return b.String()
}

// StandardFontWidth estimates the rendered width of s set in name at
// size, in default user-space units (see corefont.EstimateWidth).
func StandardFontWidth(name corefont.Name, s string, size float64) float64 {
	return corefont.EstimateWidth(name, s, size)
}
