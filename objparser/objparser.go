// Package objparser implements the recursive-descent grammar for PDF
// object syntax (7.3): the direct object grammar plus `N G R`
// references (the `obj ... endobj` wrapper is read by the callers),
// grounded on the teacher's
// read/parse.go but driven by internal/lexer's token stream rather
// than repeated string-slice re-scans.
package objparser

import (
	"io"
	"strconv"

	"github.com/mechiko/pdflite/internal/lexer"
	"github.com/mechiko/pdflite/log"
	"github.com/mechiko/pdflite/pdferr"
	"github.com/mechiko/pdflite/types"
)

// Parser turns a lexer's token stream into types.PDFObject values.
type Parser struct {
	lex *lexer.Lexer
}

// New returns a Parser reading tokens from lex.
func New(lex *lexer.Lexer) *Parser {
	return &Parser{lex: lex}
}

// ParseObject parses one direct object (7.3): boolean, numeric,
// string, name, array, dictionary (or stream), null, or an indirect
// reference `N G R`.
func (p *Parser) ParseObject() (types.PDFObject, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	return p.parseFromToken(tok)
}

func (p *Parser) parseFromToken(tok lexer.Token) (types.PDFObject, error) {
	switch tok.Kind {
	case lexer.EOF:
		return nil, io.EOF

	case lexer.Integer:
		return p.parseIntegerOrRef(tok)

	case lexer.Real:
		f, err := strconv.ParseFloat(tok.Value, 64)
		if err != nil {
			return nil, pdferr.Syntax(tok.Offset, "malformed real number %q", tok.Value)
		}
		return types.PDFFloat(f), nil

	case lexer.Name:
		return types.PDFName(tok.Value), nil

	case lexer.StringLiteral:
		return types.PDFStringLiteral(tok.Value), nil

	case lexer.HexLiteral:
		return types.PDFHexLiteral(tok.Value), nil

	case lexer.ArrayStart:
		return p.parseArray()

	case lexer.DictStart:
		return p.parseDictOrStream()

	case lexer.Keyword:
		switch tok.Value {
		case "true":
			return types.PDFBoolean(true), nil
		case "false":
			return types.PDFBoolean(false), nil
		case "null":
			return types.PDFNull{}, nil
		case "R":
			// A bare "R" not consumed as part of a valid `n g R` reference
			// (see parseIntegerOrRef) stands for itself, per 7.3.5's note
			// that any bare keyword outside its recognized context is
			// represented as a Name.
			return types.PDFName("R"), nil
		default:
			return nil, pdferr.UnexpectedToken(tok.Offset, "object", tok.Value)
		}

	default:
		return nil, pdferr.UnexpectedToken(tok.Offset, "object", tok.Value)
	}
}

// maxObjectNumber and maxGenerationNumber bound the `n g R` reference
// grammar (7.3.10, 7.5.3): object numbers fit in the 7-digit field of a
// classical xref entry, and generation numbers fit its 5-digit field.
const (
	maxObjectNumber     = 9999999
	maxGenerationNumber = 65535
)

// parseIntegerOrRef implements the bounded 2-token lookahead that
// disambiguates a bare integer from the first two components of an
// indirect reference `N G R`. It consumes the second integer and `R`
// keyword only when both integers are in range and both match;
// otherwise all lookahead tokens are pushed back.
func (p *Parser) parseIntegerOrRef(first lexer.Token) (types.PDFObject, error) {
	n, err := strconv.ParseInt(first.Value, 10, 64)
	if err != nil {
		return nil, pdferr.Syntax(first.Offset, "malformed integer %q", first.Value)
	}

	second, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if second.Kind != lexer.Integer {
		p.lex.Unread(second)
		return types.PDFInteger(n), nil
	}

	g, gerr := strconv.ParseInt(second.Value, 10, 64)
	inRange := gerr == nil && n >= 0 && n <= maxObjectNumber && g >= 0 && g <= maxGenerationNumber

	third, err := p.lex.Next()
	if err != nil {
		return nil, err
	}
	if inRange && third.Kind == lexer.Keyword && third.Value == "R" {
		log.Trace.Printf("objparser: resolved indirect reference %d %d R at offset %d\n", n, g, first.Offset)
		return types.PDFIndirectRef{ObjectNumber: types.PDFInteger(n), GenerationNumber: types.PDFInteger(g)}, nil
	}

	// Not a reference (either the shape didn't match, or the integers
	// fell outside 0 ≤ n ≤ 9,999,999 / 0 ≤ g ≤ 65,535): push both
	// lookahead tokens back, in reverse order, and return the first
	// integer on its own.
	p.lex.Unread(third)
	p.lex.Unread(second)
	return types.PDFInteger(n), nil
}

func (p *Parser) parseArray() (types.PDFObject, error) {
	var arr types.PDFArray
	for {
		tok, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == lexer.ArrayEnd {
			return arr, nil
		}
		if tok.Kind == lexer.EOF {
			return nil, pdferr.Syntax(tok.Offset, "unterminated array")
		}
		obj, err := p.parseFromToken(tok)
		if err != nil {
			return nil, err
		}
		arr = append(arr, obj)
	}
}

func (p *Parser) parseDictOrStream() (types.PDFObject, error) {
	d := types.NewPDFDict()
	for {
		tok, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		if tok.Kind == lexer.DictEnd {
			break
		}
		if tok.Kind == lexer.EOF {
			return nil, pdferr.Syntax(tok.Offset, "unterminated dictionary")
		}
		if tok.Kind != lexer.Name {
			return nil, pdferr.UnexpectedToken(tok.Offset, "dictionary key (name)", tok.Value)
		}
		key := tok.Value

		vtok, err := p.lex.Next()
		if err != nil {
			return nil, err
		}
		val, err := p.parseFromToken(vtok)
		if err != nil {
			return nil, err
		}
		d.Insert(key, val)
	}

	// A dictionary immediately followed by `stream` (after EOL per
	// 7.3.8.1) becomes a stream object; the caller (the object loader,
	// which has the raw byte offset and the /Length value) is
	// responsible for seeking past the stream body, since only it knows
	// how to resolve /Length when it is an indirect reference.
	return d, nil
}

// PeekKeyword reports whether the next token is the keyword kw,
// consuming it on match and pushing it back on mismatch. Used by the
// object loader to detect a `stream` keyword following a dictionary.
func (p *Parser) PeekKeyword(kw string) (bool, error) {
	tok, err := p.lex.Next()
	if err != nil {
		return false, err
	}
	if tok.Kind == lexer.Keyword && tok.Value == kw {
		return true, nil
	}
	p.lex.Unread(tok)
	return false, nil
}

// Lexer exposes the underlying lexer for callers that need raw offset
// control (e.g. seeking past a stream body by /Length).
func (p *Parser) Lexer() *lexer.Lexer { return p.lex }
