// Package preprocessor expands the token stream produced by the scanner:
// macro substitution, conditional compilation (#ifdef/#ifndef/#else/#endif)
// and file inclusion.
package preprocessor

import (
	"fmt"
	"path/filepath"

	"github.com/dolthub/swiss"

	"github.com/qorcc/qorcc/lang/cerrors"
	"github.com/qorcc/qorcc/lang/scanner"
	"github.com/qorcc/qorcc/lang/token"
)

// MacroKind distinguishes the three things a #define can register.
type MacroKind int

const (
	// MacroEmpty is registered when a #define has no rest-of-line tokens.
	MacroEmpty MacroKind = iota
	// MacroDirect substitutes a fixed token sequence for every use.
	MacroDirect
	// MacroFunctionLike substitutes its body with argument tokens bound to
	// its parameter names.
	MacroFunctionLike
)

// Macro is one registered #define.
type Macro struct {
	Kind   MacroKind
	Params []string
	Body   []scanner.TokenAndValue
}

// Files abstracts the filesystem collaborator the preprocessor needs for
// #include: reading a file's bytes, and checking whether a sibling path
// exists relative to another file's directory.
type Files interface {
	Read(path string) ([]byte, error)
	Exists(path string) bool
}

// Preprocessor expands the directives and macros of one top-level
// compilation. Its macro table and if_stack belong to the Preprocessor value
// and are not reset between calls to Process; the driver creates a fresh
// Preprocessor for each top-level file.
type Preprocessor struct {
	files  Files
	macros *swiss.Map[string, Macro]

	// ifStack holds one entry per currently open #ifdef/#ifndef region; true
	// means "currently emitting" at that nesting level.
	ifStack []bool

	// activeFiles is the stack of currently active source filenames, topmost
	// last, used to resolve #include paths relative to the including file.
	activeFiles []string

	errs cerrors.ErrorList

	// Warnings accumulates non-fatal diagnostics (e.g. #undef of an unknown
	// macro) for the driver to forward to the log sink.
	Warnings []string
}

// New creates a Preprocessor that resolves #include against files.
func New(files Files) *Preprocessor {
	return &Preprocessor{
		files:  files,
		macros: swiss.NewMap[string, Macro](8),
	}
}

// emitting reports whether the if_stack currently allows token emission:
// all(true) means "currently emitting".
func (p *Preprocessor) emitting() bool {
	for _, b := range p.ifStack {
		if !b {
			return false
		}
	}
	return true
}

// Process tokenizes and preprocesses filename, returning the expanded token
// stream (without the trailing EOF) plus any accumulated errors.
func (p *Preprocessor) Process(filename string, src []byte) ([]scanner.TokenAndValue, error) {
	toks := scanner.ScanAll(filename, src)
	out, err := p.process(filename, toks)
	if err != nil {
		return nil, err
	}
	if err := p.errs.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *Preprocessor) process(filename string, toks []scanner.TokenAndValue) ([]scanner.TokenAndValue, error) {
	p.activeFiles = append(p.activeFiles, filename)
	defer func() { p.activeFiles = p.activeFiles[:len(p.activeFiles)-1] }()

	var out []scanner.TokenAndValue
	i := 0
	for i < len(toks) && toks[i].Token != token.EOF {
		tv := toks[i]

		if tv.Token == token.PPDIR {
			rest, next := restOfLine(toks, i+1)
			consumed, err := p.directive(tv, rest)
			if err != nil {
				return nil, err
			}
			if consumed != nil {
				out = append(out, consumed...)
			}
			i = next
			continue
		}

		if !p.emitting() {
			i++
			continue
		}

		if tv.Token == token.IDENT {
			expanded, next, ok := p.expand(toks, i)
			if ok {
				out = append(out, expanded...)
				i = next
				continue
			}
		}

		out = append(out, tv)
		i++
	}
	return out, nil
}

// restOfLine returns the tokens sharing the directive token's line, and the
// index of the first token past them.
func restOfLine(toks []scanner.TokenAndValue, start int) ([]scanner.TokenAndValue, int) {
	if start == 0 {
		return nil, start
	}
	line := toks[start-1].Value.Loc.Line
	i := start
	for i < len(toks) && toks[i].Token != token.EOF && toks[i].Value.Loc.Line == line {
		i++
	}
	return toks[start:i], i
}

func (p *Preprocessor) directive(dir scanner.TokenAndValue, rest []scanner.TokenAndValue) ([]scanner.TokenAndValue, error) {
	name := dir.Value.Raw

	// #ifdef/#ifndef/#else/#endif always execute, even while suppressed.
	switch name {
	case "#ifdef", "#ifndef":
		if len(rest) == 0 || rest[0].Token != token.IDENT {
			return nil, cerrors.New(cerrors.PreprocessorError, dir.Value.Loc, "%s requires a macro name", name)
		}
		_, defined := p.macros.Get(rest[0].Value.Raw)
		if name == "#ifndef" {
			defined = !defined
		}
		p.ifStack = append(p.ifStack, defined)
		return nil, nil

	case "#else":
		if len(p.ifStack) == 0 {
			return nil, cerrors.New(cerrors.PreprocessorError, dir.Value.Loc, "#else without matching #ifdef/#ifndef")
		}
		top := len(p.ifStack) - 1
		p.ifStack[top] = !p.ifStack[top]
		return nil, nil

	case "#endif":
		if len(p.ifStack) == 0 {
			return nil, cerrors.New(cerrors.PreprocessorError, dir.Value.Loc, "#endif without matching #ifdef/#ifndef")
		}
		p.ifStack = p.ifStack[:len(p.ifStack)-1]
		return nil, nil
	}

	if !p.emitting() {
		return nil, nil
	}

	switch name {
	case "#define":
		return nil, p.define(dir, rest)
	case "#undef":
		if len(rest) == 0 || rest[0].Token != token.IDENT {
			return nil, cerrors.New(cerrors.PreprocessorError, dir.Value.Loc, "#undef requires a macro name")
		}
		if _, ok := p.macros.Get(rest[0].Value.Raw); !ok {
			p.Warnings = append(p.Warnings, fmt.Sprintf("%s: #undef of undefined macro %q", dir.Value.Loc, rest[0].Value.Raw))
		}
		p.macros.Delete(rest[0].Value.Raw)
		return nil, nil
	case "#include":
		return p.include(dir, rest)
	default:
		return nil, cerrors.New(cerrors.PreprocessorError, dir.Value.Loc, "unknown preprocessor directive %q", name)
	}
}

func (p *Preprocessor) define(dir scanner.TokenAndValue, rest []scanner.TokenAndValue) error {
	if len(rest) == 0 || rest[0].Token != token.IDENT {
		return cerrors.New(cerrors.PreprocessorError, dir.Value.Loc, "#define requires a macro name")
	}
	name := rest[0].Value.Raw
	rest = rest[1:]

	if len(rest) == 0 {
		p.macros.Put(name, Macro{Kind: MacroEmpty})
		return nil
	}

	if rest[0].Token == token.LPAREN {
		params, body, err := splitParams(rest[1:])
		if err != nil {
			return err
		}
		p.macros.Put(name, Macro{Kind: MacroFunctionLike, Params: params, Body: body})
		return nil
	}

	p.macros.Put(name, Macro{Kind: MacroDirect, Body: rest})
	return nil
}

func splitParams(rest []scanner.TokenAndValue) ([]string, []scanner.TokenAndValue, error) {
	var params []string
	i := 0
	for i < len(rest) && rest[i].Token != token.RPAREN {
		if rest[i].Token != token.IDENT {
			return nil, nil, cerrors.New(cerrors.PreprocessorError, rest[i].Value.Loc, "expected parameter name in macro definition")
		}
		params = append(params, rest[i].Value.Raw)
		i++
		if i < len(rest) && rest[i].Token == token.COMMA {
			i++
		}
	}
	if i >= len(rest) {
		return nil, nil, cerrors.New(cerrors.PreprocessorError, rest[len(rest)-1].Value.Loc, "unterminated macro parameter list")
	}
	return params, rest[i+1:], nil
}

func (p *Preprocessor) include(dir scanner.TokenAndValue, rest []scanner.TokenAndValue) ([]scanner.TokenAndValue, error) {
	if len(rest) == 0 || rest[0].Token != token.STRING {
		return nil, cerrors.New(cerrors.PreprocessorError, dir.Value.Loc, `#include requires a "PATH" argument`)
	}
	path := rest[0].Value.Str

	resolved := path
	if len(p.activeFiles) > 0 {
		sibling := filepath.Join(filepath.Dir(p.activeFiles[len(p.activeFiles)-1]), path)
		if p.files.Exists(sibling) {
			resolved = sibling
		}
	}

	src, err := p.files.Read(resolved)
	if err != nil {
		return nil, &cerrors.Error{Kind: cerrors.BadFilename, Filename: resolved, Msg: err.Error()}
	}

	included := scanner.ScanAll(resolved, src)
	expanded, err := p.process(resolved, included)
	if err != nil {
		return nil, err
	}
	return expanded, nil
}

// expand attempts to expand the identifier token at toks[i] as a macro use.
// It returns the replacement tokens, the index past the consumed tokens
// (identifier plus, for function-like macros, its argument list), and
// whether expansion occurred.
func (p *Preprocessor) expand(toks []scanner.TokenAndValue, i int) ([]scanner.TokenAndValue, int, bool) {
	name := toks[i].Value.Raw
	macro, ok := p.macros.Get(name)
	if !ok {
		return nil, i, false
	}
	useLoc := toks[i].Value.Loc

	switch macro.Kind {
	case MacroEmpty:
		return nil, i + 1, true

	case MacroDirect:
		return stampOriginal(macro.Body, useLoc), i + 1, true

	case MacroFunctionLike:
		if i+1 >= len(toks) || toks[i+1].Token != token.LPAREN {
			// used without a call syntax: leave the identifier alone.
			return nil, i, false
		}
		args, next, err := splitArgs(toks, i+2)
		if err != nil {
			p.errs.AddErr(err)
			return nil, next, true
		}
		if len(args) == 1 && len(args[0]) == 0 && len(macro.Params) == 0 {
			// FOO() against a zero-parameter macro: splitArgs reports one
			// empty argument rather than none, since it has no way to tell
			// "no tokens before ')'" from "one empty argument" apart.
			args = nil
		}
		if len(args) != len(macro.Params) {
			p.errs.AddErr(cerrors.New(cerrors.PreprocessorError, useLoc,
				"macro %q expects %d argument(s), got %d", name, len(macro.Params), len(args)))
			return nil, next, true
		}
		body := substituteArgs(macro.Params, args, macro.Body)
		return stampOriginal(body, useLoc), next, true
	}
	return nil, i, false
}

// splitArgs parses a comma-separated, parenthesis-balanced argument list
// starting right after the opening '(' at toks[start-1], returning each
// argument's token slice and the index past the closing ')'.
func splitArgs(toks []scanner.TokenAndValue, start int) ([][]scanner.TokenAndValue, int, *cerrors.Error) {
	var args [][]scanner.TokenAndValue
	var cur []scanner.TokenAndValue
	depth := 0
	i := start
	for i < len(toks) {
		tv := toks[i]
		switch tv.Token {
		case token.LPAREN:
			depth++
		case token.RPAREN:
			if depth == 0 {
				args = append(args, cur)
				return args, i + 1, nil
			}
			depth--
		case token.COMMA:
			if depth == 0 {
				args = append(args, cur)
				cur = nil
				i++
				continue
			}
		}
		cur = append(cur, tv)
		i++
	}
	return nil, i, cerrors.New(cerrors.PreprocessorError, toks[start-1].Value.Loc, "unterminated macro argument list")
}

func substituteArgs(params []string, args [][]scanner.TokenAndValue, body []scanner.TokenAndValue) []scanner.TokenAndValue {
	bind := make(map[string][]scanner.TokenAndValue, len(params))
	for i, p := range params {
		if i < len(args) {
			bind[p] = args[i]
		}
	}

	var out []scanner.TokenAndValue
	for _, tv := range body {
		if tv.Token == token.IDENT {
			if repl, ok := bind[tv.Value.Raw]; ok {
				out = append(out, repl...)
				continue
			}
		}
		out = append(out, tv)
	}
	return out
}

// stampOriginal returns a copy of toks with OriginalLocation set to useLoc
// on every token, so diagnostics over expanded tokens can point back at the
// macro's use site rather than its definition site.
func stampOriginal(toks []scanner.TokenAndValue, useLoc token.Location) []scanner.TokenAndValue {
	out := make([]scanner.TokenAndValue, len(toks))
	for i, tv := range toks {
		loc := useLoc
		tv.Value.OrigLoc = &loc
		out[i] = tv
	}
	return out
}
