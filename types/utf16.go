package types

import (
	"strings"
	"unicode/utf16"
	"unicode/utf8"

	"github.com/mechiko/pdflite/log"
	"github.com/pkg/errors"
)

// IsStringUTF16BE checks for a UTF-16BE byte order mark at the start of s.
func IsStringUTF16BE(s string) bool {
	ok := strings.HasPrefix(s, "\xFE\xFF")
	log.Trace.Printf("IsStringUTF16BE: <%s> returning %v\n", s, ok)
	return ok
}

// IsUTF16BE checks for a Big Endian byte order mark.
func IsUTF16BE(b []byte) (ok bool, err error) {
	if len(b) == 0 {
		return false, nil
	}
	if len(b)%2 != 0 {
		return false, errors.Errorf("pdflite: UTF16 needs an even number of bytes: %v", b)
	}
	return b[0] == 0xFE && b[1] == 0xFF, nil
}

func decodeUTF16String(b []byte) (string, error) {
	isUTF16BE, err := IsUTF16BE(b)
	if err != nil {
		return "", err
	}
	if !isUTF16BE {
		return "", errors.Errorf("pdflite: not UTF16BE: %v", b)
	}

	b = b[2:] // strip BOM

	u16 := make([]uint16, 0, len(b)/2)
	for i := 0; i < len(b); {
		val := (uint16(b[i]) << 8) + uint16(b[i+1])

		if val <= 0xD7FF || (val > 0xE000 && val <= 0xFFFF) {
			u16 = append(u16, val)
			i += 2
			continue
		}

		if i+3 >= len(b) {
			return "", errors.Errorf("pdflite: corrupt UTF16BE surrogate pair (high) at byte %d: %v", i, b)
		}
		if val >= 0xDC00 && val <= 0xDFFF {
			return "", errors.Errorf("pdflite: corrupt UTF16BE, low surrogate leading at byte %d: %v", i, b)
		}

		u16 = append(u16, val)
		val2 := (uint16(b[i+2]) << 8) + uint16(b[i+3])
		if val2 < 0xDC00 || val2 > 0xDFFF {
			return "", errors.Errorf("pdflite: corrupt UTF16BE, missing low surrogate at byte %d: %v", i, b)
		}
		u16 = append(u16, val2)
		i += 4
	}

	decb := make([]byte, 0, len(u16)*2)
	buf := make([]byte, utf8.UTFMax)
	for _, r := range utf16.Decode(u16) {
		n := utf8.EncodeRune(buf, r)
		decb = append(decb, buf[:n]...)
	}

	return string(decb), nil
}

// DecodeUTF16String decodes a UTF16BE byte string (with BOM) to UTF-8.
func DecodeUTF16String(b []byte) (string, error) {
	return decodeUTF16String(b)
}

// StringLiteralToString returns the best possible UTF-8 rendering of a
// literal string's raw bytes, decoding UTF-16BE when a BOM is present.
func StringLiteralToString(raw string) (string, error) {
	if IsStringUTF16BE(raw) {
		return DecodeUTF16String([]byte(raw))
	}
	return raw, nil
}

// HexLiteralToString returns a possibly UTF-16BE decoded string for hex-literal bytes.
func HexLiteralToString(b []byte) (string, error) {
	isUTF16BE, err := IsUTF16BE(b)
	if err != nil {
		return "", err
	}
	if isUTF16BE {
		return decodeUTF16String(b)
	}
	return string(b), nil
}
