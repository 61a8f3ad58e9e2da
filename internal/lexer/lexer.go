// Package lexer tokenizes the PDF COS syntax (7.2, 7.3) into a token
// stream with bounded pushback, used by objparser to disambiguate an
// integer from the first two components of an indirect reference
// (`1 0 R`) without the string-slicing re-scans the teacher's
// read/parse.go performs on every call.
package lexer

import (
	"bufio"
	"io"

	"github.com/mechiko/pdflite/log"
	"github.com/mechiko/pdflite/pdferr"
)

// Kind identifies a token's lexical class.
type Kind int

// Token kinds.
const (
	EOF Kind = iota
	Integer
	Real
	Name
	StringLiteral
	HexLiteral
	ArrayStart
	ArrayEnd
	DictStart
	DictEnd
	Keyword // true, false, null, obj, endobj, stream, endstream, R, xref, trailer, startxref, etc.
)

// Token is one lexical unit, with its starting byte offset in the source.
type Token struct {
	Kind   Kind
	Value  string // normalized text: decoded name, unescaped string bytes, hex digits, keyword text
	Offset int64
}

// Lexer tokenizes a byte stream, buffering up to 2 tokens of pushback
// so the parser can peek ahead for the `int int R` pattern and
// backtrack to a bare integer when the pattern doesn't complete.
type Lexer struct {
	r       *bufio.Reader
	pos     int64
	pending []Token // pushback buffer, most-recently-unread last
}

// New returns a Lexer reading from r. startOffset is the absolute file offset
// of r's first byte, used to report accurate Token.Offset values when
// r is a section of a larger file (e.g. seeked to an xref entry).
func New(r io.Reader, startOffset int64) *Lexer {
	return &Lexer{r: bufio.NewReader(r), pos: startOffset}
}

func (l *Lexer) readByte() (byte, error) {
	b, err := l.r.ReadByte()
	if err == nil {
		l.pos++
	}
	return b, err
}

func (l *Lexer) unreadByte() {
	_ = l.r.UnreadByte()
	l.pos--
}

// Unread pushes tok back onto the stream; the next Next() call returns
// it again. At most 2 tokens may be pending at once.
func (l *Lexer) Unread(tok Token) {
	if len(l.pending) >= 2 {
		panic("lexer: pushback buffer full")
	}
	l.pending = append(l.pending, tok)
}

// Next returns the next token, preferring any pushed-back tokens.
func (l *Lexer) Next() (Token, error) {
	if n := len(l.pending); n > 0 {
		tok := l.pending[n-1]
		l.pending = l.pending[:n-1]
		return tok, nil
	}
	return l.scan()
}

// Offset returns the current absolute read position.
func (l *Lexer) Offset() int64 { return l.pos }

// Read reads raw bytes directly off the underlying stream, bypassing
// tokenization. Used by callers that need to consume a stream object's
// binary body (7.3.8) immediately after parsing its dictionary; any
// pushed-back tokens are not replayed through Read, since a caller only
// switches to raw reads once it has fully consumed the token stream up
// to the position it wants to read from.
func (l *Lexer) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	l.pos += int64(n)
	return n, err
}

func isWhitespace(b byte) bool {
	switch b {
	case 0x00, 0x09, 0x0A, 0x0C, 0x0D, 0x20:
		return true
	}
	return false
}

func isDelimiter(b byte) bool {
	switch b {
	case '(', ')', '<', '>', '[', ']', '{', '}', '/', '%':
		return true
	}
	return false
}

func (l *Lexer) skipWhitespaceAndComments() error {
	for {
		b, err := l.readByte()
		if err != nil {
			return err
		}
		if b == '%' {
			for {
				c, err := l.readByte()
				if err != nil {
					return err
				}
				if c == '\x0A' || c == '\x0D' {
					break
				}
			}
			continue
		}
		if isWhitespace(b) {
			continue
		}
		l.unreadByte()
		return nil
	}
}

func (l *Lexer) scan() (Token, error) {
	if err := l.skipWhitespaceAndComments(); err != nil {
		if err == io.EOF {
			return Token{Kind: EOF, Offset: l.pos}, nil
		}
		return Token{}, pdferr.IO(err)
	}

	start := l.pos
	b, err := l.readByte()
	if err != nil {
		return Token{Kind: EOF, Offset: start}, nil
	}

	switch {
	case b == '/':
		return l.scanName(start)
	case b == '(':
		return l.scanStringLiteral(start)
	case b == '<':
		nb, err := l.readByte()
		if err == nil && nb == '<' {
			return Token{Kind: DictStart, Offset: start}, nil
		}
		if err == nil {
			l.unreadByte()
		}
		return l.scanHexLiteral(start)
	case b == '>':
		nb, err := l.readByte()
		if err == nil && nb == '>' {
			return Token{Kind: DictEnd, Offset: start}, nil
		}
		if err == nil {
			l.unreadByte()
		}
		return Token{}, pdferr.Syntax(start, "stray '>' outside dict close")
	case b == '[':
		return Token{Kind: ArrayStart, Offset: start}, nil
	case b == ']':
		return Token{Kind: ArrayEnd, Offset: start}, nil
	case b == '+' || b == '-' || b == '.' || (b >= '0' && b <= '9'):
		l.unreadByte()
		return l.scanNumber(start)
	default:
		l.unreadByte()
		return l.scanKeyword(start)
	}
}

func (l *Lexer) scanName(start int64) (Token, error) {
	var out []byte
	for {
		b, err := l.readByte()
		if err != nil {
			break
		}
		if isWhitespace(b) || isDelimiter(b) {
			l.unreadByte()
			break
		}
		if b == '#' {
			h1, err1 := l.readByte()
			h2, err2 := l.readByte()
			if err1 == nil && err2 == nil && isHexDigit(h1) && isHexDigit(h2) {
				out = append(out, hexVal(h1)<<4|hexVal(h2))
				continue
			}
			// Not a valid #hh escape: treat '#' literally (lenient mode).
			log.Trace.Printf("lexer: malformed name escape at offset %d\n", l.pos)
			out = append(out, '#')
			if err1 == nil {
				l.unreadByte()
			}
			continue
		}
		out = append(out, b)
	}
	return Token{Kind: Name, Value: string(out), Offset: start}, nil
}

func isHexDigit(b byte) bool {
	return (b >= '0' && b <= '9') || (b >= 'a' && b <= 'f') || (b >= 'A' && b <= 'F')
}

func hexVal(b byte) byte {
	switch {
	case b >= '0' && b <= '9':
		return b - '0'
	case b >= 'a' && b <= 'f':
		return b - 'a' + 10
	default:
		return b - 'A' + 10
	}
}

func (l *Lexer) scanStringLiteral(start int64) (Token, error) {
	var out []byte
	depth := 1
	for depth > 0 {
		b, err := l.readByte()
		if err != nil {
			return Token{}, pdferr.Syntax(start, "unterminated string literal")
		}
		switch b {
		case '(':
			depth++
			out = append(out, b)
		case ')':
			depth--
			if depth == 0 {
				continue
			}
			out = append(out, b)
		case '\\':
			esc, err := l.readByte()
			if err != nil {
				return Token{}, pdferr.Syntax(start, "unterminated escape in string literal")
			}
			switch esc {
			case 'n':
				out = append(out, '\n')
			case 'r':
				out = append(out, '\r')
			case 't':
				out = append(out, '\t')
			case 'b':
				out = append(out, '\b')
			case 'f':
				out = append(out, '\f')
			case '(', ')', '\\':
				out = append(out, esc)
			case '\x0D':
				// line continuation; also swallow a following \n
				nb, err := l.readByte()
				if err == nil && nb != '\x0A' {
					l.unreadByte()
				}
			case '\x0A':
				// line continuation
			default:
				if esc >= '0' && esc <= '7' {
					v := esc - '0'
					for i := 0; i < 2; i++ {
						nb, err := l.readByte()
						if err != nil || nb < '0' || nb > '7' {
							if err == nil {
								l.unreadByte()
							}
							break
						}
						v = v*8 + (nb - '0')
					}
					out = append(out, v)
				} else {
					out = append(out, esc)
				}
			}
		default:
			out = append(out, b)
		}
	}
	return Token{Kind: StringLiteral, Value: string(out), Offset: start}, nil
}

func (l *Lexer) scanHexLiteral(start int64) (Token, error) {
	var out []byte
	for {
		b, err := l.readByte()
		if err != nil {
			return Token{}, pdferr.Syntax(start, "unterminated hex string")
		}
		if b == '>' {
			break
		}
		if isWhitespace(b) {
			continue
		}
		out = append(out, b)
	}
	if len(out)%2 == 1 {
		out = append(out, '0')
	}
	return Token{Kind: HexLiteral, Value: string(out), Offset: start}, nil
}

func (l *Lexer) scanNumber(start int64) (Token, error) {
	var out []byte
	isReal := false
	for {
		b, err := l.readByte()
		if err != nil {
			break
		}
		if b == '.' {
			isReal = true
			out = append(out, b)
			continue
		}
		if b == '+' || b == '-' || (b >= '0' && b <= '9') {
			out = append(out, b)
			continue
		}
		l.unreadByte()
		break
	}
	if isReal {
		return Token{Kind: Real, Value: string(out), Offset: start}, nil
	}
	return Token{Kind: Integer, Value: string(out), Offset: start}, nil
}

func (l *Lexer) scanKeyword(start int64) (Token, error) {
	var out []byte
	for {
		b, err := l.readByte()
		if err != nil {
			break
		}
		if isWhitespace(b) || isDelimiter(b) {
			l.unreadByte()
			break
		}
		out = append(out, b)
	}
	if len(out) == 0 {
		return Token{}, pdferr.Syntax(start, "unexpected byte in input")
	}
	return Token{Kind: Keyword, Value: string(out), Offset: start}, nil
}
