package writer

import (
	"strings"
	"testing"

	"github.com/mechiko/pdflite/color"
	"github.com/mechiko/pdflite/internal/corefont"
)

func TestContentBuilderText(t *testing.T) {
	c := NewContentBuilder().
		SetFillColor(color.Red).
		Text("F1", 12, 72, 712, "Secret")

	got := string(c.Bytes())
	for _, want := range []string{"1.000 0.000 0.000 rg", "BT", "/F1 12.00 Tf", "(Secret) Tj", "ET"} {
		if !strings.Contains(got, want) {
			t.Errorf("content %q missing %q", got, want)
		}
	}
}

func TestContentBuilderEscapesParens(t *testing.T) {
	c := NewContentBuilder().Text("F1", 10, 0, 0, "a(b)c\\d")
	got := string(c.Bytes())
	if !strings.Contains(got, `(a\(b\)c\\d)`) {
		t.Errorf("content %q did not escape literal-string metacharacters", got)
	}
}

func TestStandardFontWidthScalesWithLength(t *testing.T) {
	short := StandardFontWidth(corefont.Helvetica, "ab", 12)
	long := StandardFontWidth(corefont.Helvetica, "abcd", 12)
	if long != 2*short {
		t.Errorf("width should scale with string length: short=%v long=%v", short, long)
	}
}
