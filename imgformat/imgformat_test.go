package imgformat

import "testing"

func TestSniff(t *testing.T) {
	cases := []struct {
		name string
		b    []byte
		want Format
	}{
		{"jpeg", []byte{0xFF, 0xD8, 0xFF, 0xE0, 0, 0, 'J', 'F', 'I', 'F'}, JPEG},
		{"png", []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0}, PNG},
		{"tiff-le", []byte{'I', 'I', 0x2A, 0x00}, TIFF},
		{"tiff-be", []byte{'M', 'M', 0x00, 0x2A}, TIFF},
		{"jp2", []byte{0x00, 0x00, 0x00, 0x0C, 'j', 'P', ' ', ' '}, JPEG2000},
		{"unknown", []byte{0, 1, 2, 3}, Unknown},
		{"empty", nil, Unknown},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := Sniff(c.b); got != c.want {
				t.Errorf("Sniff(%s) = %q, want %q", c.name, got, c.want)
			}
		})
	}
}

func TestPNGDimensions(t *testing.T) {
	b := []byte{
		0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n',
		0, 0, 0, 13, 'I', 'H', 'D', 'R',
		0, 0, 0x01, 0x90, // width 400
		0, 0, 0x00, 0xC8, // height 200
	}
	w, h, ok := Dimensions(PNG, b)
	if !ok || w != 400 || h != 200 {
		t.Fatalf("Dimensions = (%d,%d,%v), want (400,200,true)", w, h, ok)
	}
}

func TestValidateMismatch(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	if err := Validate("DCTDecode", png); err == nil {
		t.Fatal("expected InvalidImage for PNG payload declared as DCTDecode")
	}
	jpeg := []byte{0xFF, 0xD8, 0xFF, 0xE0}
	if err := Validate("DCTDecode", jpeg); err != nil {
		t.Fatalf("unexpected error for matching JPEG payload: %v", err)
	}
}
