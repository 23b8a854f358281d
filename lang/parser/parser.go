// Package parser implements a recursive-descent parser over the token
// stream produced by the preprocessor, building the parse tree defined in
// lang/ast: a full C-shaped expression precedence ladder plus a minimal
// statement and function-definition grammar.
package parser

import (
	"fmt"

	"github.com/qorcc/qorcc/lang/ast"
	"github.com/qorcc/qorcc/lang/cerrors"
	"github.com/qorcc/qorcc/lang/scanner"
	"github.com/qorcc/qorcc/lang/token"
)

type parser struct {
	filename string
	toks     []scanner.TokenAndValue
	pos      int
	tok      token.Token
	val      token.Value
}

// parseError is the panic value used to unwind to ParseFile on the first
// syntax error; the parser does not attempt multi-error recovery.
type parseError struct{ err *cerrors.Error }

func (p *parser) init(filename string, toks []scanner.TokenAndValue) {
	p.filename = filename
	p.toks = toks
	p.pos = -1
	p.advance()
}

func (p *parser) advance() {
	p.pos++
	if p.pos >= len(p.toks) {
		// The preprocessor's output carries no trailing EOF token: past the
		// last token, the parser sees EOF.
		p.pos = len(p.toks)
		loc := token.Location{Filename: p.filename, Line: 1, Column: 1}
		if n := len(p.toks); n > 0 {
			loc = p.toks[n-1].Value.Loc
		}
		p.tok, p.val = token.EOF, token.Value{Loc: loc}
		return
	}
	tv := p.toks[p.pos]
	p.tok = tv.Token
	p.val = tv.Value
}

func (p *parser) error(loc token.Location, format string, args ...any) {
	panic(parseError{err: cerrors.New(cerrors.ParseError, loc, format, args...)})
}

// expect consumes the current token if it matches one of toks, returning its
// Value; otherwise it raises a parse error.
func (p *parser) expect(toks ...token.Token) token.Value {
	for _, t := range toks {
		if p.tok == t {
			v := p.val
			p.advance()
			return v
		}
	}
	p.error(p.val.Loc, "expected %s, got %s", expectedList(toks), p.tok)
	return p.val
}

func expectedList(toks []token.Token) string {
	if len(toks) == 1 {
		return fmt.Sprintf("%#v", toks[0])
	}
	s := ""
	for i, t := range toks {
		if i > 0 {
			s += " or "
		}
		s += fmt.Sprintf("%#v", t)
	}
	return s
}

// ParseFile parses the preprocessed token stream for one file into a
// *ast.CompilationUnit.
func ParseFile(filename string, toks []scanner.TokenAndValue) (cu *ast.CompilationUnit, err error) {
	var p parser
	p.init(filename, toks)

	defer func() {
		if r := recover(); r != nil {
			if pe, ok := r.(parseError); ok {
				err = pe.err
				return
			}
			panic(r)
		}
	}()

	cu = p.parseCompilationUnit()
	return cu, nil
}

func (p *parser) parseCompilationUnit() *ast.CompilationUnit {
	cu := &ast.CompilationUnit{Filename: p.filename}
	for p.tok != token.EOF {
		cu.Functions = append(cu.Functions, p.parseFunctionDef())
	}
	return cu
}
