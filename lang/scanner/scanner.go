// Package scanner tokenizes qorcc source files into a stream of
// (token.Token, token.Value) pairs, stripping whitespace and comments as it
// goes. It does not fail on lexically ill-formed input: unknown bytes
// accrete into identifiers and are left for downstream stages to diagnose.
package scanner

import (
	"strconv"
	"strings"

	"github.com/qorcc/qorcc/lang/token"
)

// TokenAndValue combines a token kind with its payload, mirroring the pair
// threaded through the rest of the pipeline.
type TokenAndValue struct {
	Token token.Token
	Value token.Value
}

// Scanner tokenizes a single source file.
type Scanner struct {
	filename string
	src      []byte

	off  int // byte offset of cur
	roff int // byte offset following cur
	cur  byte

	line, col int
}

// Init (re)initializes s to scan src, attributing locations to filename.
func (s *Scanner) Init(filename string, src []byte) {
	s.filename = filename
	s.src = src
	s.off = 0
	s.roff = 0
	s.line = 1
	s.col = 0
	s.advance()
}

func (s *Scanner) loc() token.Location {
	return token.Location{Filename: s.filename, Line: s.line, Column: s.col}
}

func (s *Scanner) advance() {
	if s.cur == '\n' {
		s.line++
		s.col = 0
	}
	if s.roff >= len(s.src) {
		s.off = len(s.src)
		s.cur = 0
		return
	}
	s.off = s.roff
	s.cur = s.src[s.roff]
	s.roff++
	s.col++
}

func (s *Scanner) peek() byte {
	if s.roff < len(s.src) {
		return s.src[s.roff]
	}
	return 0
}

func (s *Scanner) atEOF() bool {
	return s.off >= len(s.src)
}

// skipWhitespaceAndComments discards whitespace, "//" line comments and
// "/* ... */" block comments (not supporting nesting; a single boolean
// tracks whether the scanner is inside one) until real token material is
// found.
func (s *Scanner) skipWhitespaceAndComments() {
	for {
		for isWhitespace(s.cur) {
			s.advance()
		}
		if s.cur == '/' && s.peek() == '/' {
			for s.cur != '\n' && !s.atEOF() {
				s.advance()
			}
			continue
		}
		if s.cur == '/' && s.peek() == '*' {
			s.advance()
			s.advance()
			inBlockComment := true
			for inBlockComment && !s.atEOF() {
				if s.cur == '*' && s.peek() == '/' {
					s.advance()
					s.advance()
					inBlockComment = false
					continue
				}
				s.advance()
			}
			continue
		}
		return
	}
}

// Scan returns the next token and fills tokVal with its payload. At
// end-of-file it returns token.EOF forever.
func (s *Scanner) Scan(tokVal *token.Value) token.Token {
	s.skipWhitespaceAndComments()

	loc := s.loc()
	*tokVal = token.Value{Loc: loc}

	switch {
	case s.atEOF():
		return token.EOF

	case isDigit(s.cur):
		return s.number(tokVal)

	case s.cur == '"':
		return s.stringLit(tokVal)

	case s.cur == '\'':
		return s.charLit(tokVal)

	case token.IsSymbolStart(s.cur):
		return s.symbol(tokVal)

	default:
		return s.identOrDirective(tokVal)
	}
}

func (s *Scanner) number(tokVal *token.Value) token.Token {
	start := s.off
	for isDigit(s.cur) {
		s.advance()
	}
	lit := string(s.src[start:s.off])
	tokVal.Raw = lit
	v, _ := strconv.ParseUint(lit, 10, 64)
	tokVal.Int = v
	return token.INT
}

func (s *Scanner) symbol(tokVal *token.Value) token.Token {
	start := s.off
	lit := string(s.cur)
	s.advance()
	for !s.atEOF() && token.ExtendsSymbol(lit, s.cur) {
		lit += string(s.cur)
		s.advance()
	}
	lit = string(s.src[start:s.off])
	tokVal.Raw = lit
	return token.LookupPunct(lit)
}

// identOrDirective scans the maximal run of non-symbol, non-whitespace,
// non-quote bytes. If the run starts with '#' it is a preprocessor
// directive; if it starts with a letter or underscore it may be a keyword;
// otherwise it is a plain identifier (including any stray byte that is not
// otherwise classified, per the tokenizer's lenient failure mode).
func (s *Scanner) identOrDirective(tokVal *token.Value) token.Token {
	start := s.off
	for !s.atEOF() && !isWhitespace(s.cur) && !token.IsSymbolStart(s.cur) &&
		s.cur != '"' && s.cur != '\'' && s.cur != '/' {
		s.advance()
	}
	lit := string(s.src[start:s.off])
	tokVal.Raw = lit

	if strings.HasPrefix(lit, "#") {
		return token.PPDIR
	}
	return token.LookupKw(lit)
}

func (s *Scanner) stringLit(tokVal *token.Value) token.Token {
	s.advance() // consume opening quote
	var raw, val strings.Builder
	for !s.atEOF() && s.cur != '"' {
		if s.cur == '\\' {
			s.advance()
			raw.WriteByte('\\')
			raw.WriteByte(s.cur)
			val.WriteByte(unescape(s.cur))
			s.advance()
			continue
		}
		raw.WriteByte(s.cur)
		val.WriteByte(s.cur)
		s.advance()
	}
	if s.cur == '"' {
		s.advance() // consume closing quote
	}
	tokVal.Raw = raw.String()
	tokVal.Str = val.String()
	return token.STRING
}

func (s *Scanner) charLit(tokVal *token.Value) token.Token {
	s.advance() // consume opening quote
	var raw, val strings.Builder
	if s.cur == '\\' {
		s.advance()
		raw.WriteByte('\\')
		raw.WriteByte(s.cur)
		val.WriteByte(unescape(s.cur))
		s.advance()
	} else if !s.atEOF() && s.cur != '\'' {
		raw.WriteByte(s.cur)
		val.WriteByte(s.cur)
		s.advance()
	}
	if s.cur == '\'' {
		s.advance() // consume closing quote
	}
	tokVal.Raw = raw.String()
	tokVal.Str = val.String()
	return token.CHARLIT
}

// unescape decodes the character following a backslash in a string or
// character literal.
func unescape(c byte) byte {
	switch c {
	case 'n':
		return '\n'
	case 't':
		return '\t'
	case 'r':
		return '\r'
	case '0':
		return 0
	case '\\':
		return '\\'
	case '"':
		return '"'
	case '\'':
		return '\''
	default:
		return c
	}
}

func isWhitespace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\r' || b == '\n'
}

func isDigit(b byte) bool {
	return b >= '0' && b <= '9'
}

// ScanAll tokenizes the full contents of a file, returning every token
// including the trailing EOF.
func ScanAll(filename string, src []byte) []TokenAndValue {
	var s Scanner
	s.Init(filename, src)

	var out []TokenAndValue
	for {
		var v token.Value
		tok := s.Scan(&v)
		out = append(out, TokenAndValue{Token: tok, Value: v})
		if tok == token.EOF {
			// stamp the EOF location as (lines+1, 1) per the tokenizer contract.
			out[len(out)-1].Value.Loc = token.Location{Filename: filename, Line: s.line + 1, Column: 1}
			break
		}
	}
	return out
}
