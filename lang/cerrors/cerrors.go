// Package cerrors defines the compiler's single error taxonomy: one tagged
// Error type with sub-kinds for each pipeline stage, an ErrorList that
// aggregates and sorts them, and a caret-diagnostic printer.
package cerrors

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/qorcc/qorcc/lang/token"
)

// Kind distinguishes the stage (and shape) of an Error.
type Kind int

const (
	// BadFilename means the driver could not open a source or included file.
	BadFilename Kind = iota
	// PreprocessorError means a malformed directive, unexpected EOF in a
	// directive, an unknown directive, or an unmatched #else/#endif.
	PreprocessorError
	// ParseError means a wrong token kind, unexpected EOF, or a missing
	// terminator during parsing.
	ParseError
	// CodegenError means a lowering-time or codegen-time failure, such as an
	// undefined variable or a division by a constant zero.
	CodegenError
)

func (k Kind) String() string {
	switch k {
	case BadFilename:
		return "bad filename"
	case PreprocessorError:
		return "preprocessor error"
	case ParseError:
		return "parse error"
	case CodegenError:
		return "codegen error"
	default:
		return "error"
	}
}

// Error is the single error variant produced anywhere in the compiler
// pipeline. ArrowLength is the number of carets to render under the
// offending lexeme; it defaults to 1 when zero. OriginalLocation is set only
// when the offending token was spliced in by macro expansion.
type Error struct {
	Kind             Kind
	Msg              string
	Filename         string
	Location         token.Location
	OriginalLocation *token.Location
	ArrowLength      int
}

func (e *Error) Error() string {
	if e.Kind == BadFilename {
		return fmt.Sprintf("%s: %s", e.Filename, e.Msg)
	}
	return fmt.Sprintf("%s: %s: %s", e.Location, e.Kind, e.Msg)
}

// New constructs an Error of the given kind at loc, with a printf-style
// message.
func New(kind Kind, loc token.Location, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), Location: loc, ArrowLength: 1}
}

// WithOriginal returns a copy of e with OriginalLocation set to orig.
func (e *Error) WithOriginal(orig token.Location) *Error {
	cp := *e
	cp.OriginalLocation = &orig
	return &cp
}

// WithArrowLength returns a copy of e with ArrowLength set to n.
func (e *Error) WithArrowLength(n int) *Error {
	cp := *e
	cp.ArrowLength = n
	return &cp
}

// ErrorList is a list of *Error, sortable by location, implementing error
// and Unwrap() []error so callers can use errors.Is/As across the list.
type ErrorList []*Error

// Add appends a new Error built from the given kind, location and message.
func (l *ErrorList) Add(kind Kind, loc token.Location, format string, args ...any) {
	*l = append(*l, New(kind, loc, format, args...))
}

// AddErr appends an already-built *Error.
func (l *ErrorList) AddErr(err *Error) {
	*l = append(*l, err)
}

// Sort orders the list by filename, then line, then column.
func (l ErrorList) Sort() {
	sort.Slice(l, func(i, j int) bool {
		a, b := l[i], l[j]
		if a.Location.Filename != b.Location.Filename {
			return a.Location.Filename < b.Location.Filename
		}
		if a.Location.Line != b.Location.Line {
			return a.Location.Line < b.Location.Line
		}
		return a.Location.Column < b.Location.Column
	})
}

func (l ErrorList) Error() string {
	switch len(l) {
	case 0:
		return "no errors"
	case 1:
		return l[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (and %d more errors)", l[0], len(l)-1)
	return sb.String()
}

// Unwrap lets errors.Is/As range over the individual errors in the list.
func (l ErrorList) Unwrap() []error {
	errs := make([]error, len(l))
	for i, e := range l {
		errs[i] = e
	}
	return errs
}

// Err returns nil if l is empty, the sole error if l has exactly one entry,
// or l itself (as an error) otherwise.
func (l ErrorList) Err() error {
	switch len(l) {
	case 0:
		return nil
	case 1:
		return l[0]
	default:
		return l
	}
}

// SourceLines provides the source text of a file, split into lines, so that
// PrintError can render context and caret diagnostics. A nil or missing
// filename entry is treated as "no source available".
type SourceLines interface {
	Lines(filename string) []string
}

// PrintError writes a human-readable rendering of err to w. err may be a
// single *Error, an ErrorList, or any other error (printed verbatim). src
// may be nil, in which case no source excerpt is rendered.
func PrintError(w io.Writer, err error, src SourceLines) {
	switch e := err.(type) {
	case ErrorList:
		for _, sub := range e {
			printOne(w, sub, src)
		}
	case *Error:
		printOne(w, e, src)
	default:
		fmt.Fprintf(w, "%s\n", err)
	}
}

func printOne(w io.Writer, e *Error, src SourceLines) {
	fmt.Fprintf(w, "%s\n", e)
	if e.Kind == BadFilename || src == nil {
		return
	}

	lines := src.Lines(e.Location.Filename)
	if lines == nil {
		return
	}

	errLine := e.Location.Line
	first := errLine - 3
	if first < 1 {
		first = 1
	}
	for ln := first; ln <= errLine && ln <= len(lines); ln++ {
		fmt.Fprintf(w, "%5d | %s\n", ln, lines[ln-1])
	}

	arrowLen := e.ArrowLength
	if arrowLen < 1 {
		arrowLen = 1
	}
	col := e.Location.Column
	if col < 1 {
		col = 1
	}
	fmt.Fprintf(w, "      | %s%s\n", strings.Repeat(" ", col-1), strings.Repeat("^", arrowLen))

	if e.OriginalLocation != nil {
		fmt.Fprintf(w, "      in macro expansion at %s\n", e.OriginalLocation)
	}
}
