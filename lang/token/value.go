package token

import "fmt"

// Value carries a token's payload alongside the Token kind: the raw source
// lexeme, the location of its first character, and for literals the decoded
// value. OrigLoc is set only for tokens spliced in by macro expansion, and
// points back at the macro-use site.
type Value struct {
	Raw     string
	Loc     Location
	OrigLoc *Location

	// Int holds the decoded value of an INT token.
	Int uint64
	// Str holds the decoded value of a STRING or CHARLIT token (after escape
	// processing).
	Str string
}

// Full pairs a Token kind with its Value, and knows how to render itself in
// the two styles used throughout the compiler: a diagnostic form used by
// dumps and error messages, and a code-styled form that reproduces the
// original source lexeme.
type Full struct {
	Tok Token
	Val Value
}

// String renders the diagnostic form: "Kind(payload) at loc".
func (f Full) String() string {
	payload := f.payload()
	if payload == "" {
		return fmt.Sprintf("%s at %s", f.Tok, f.Val.Loc)
	}
	return fmt.Sprintf("%s(%s) at %s", f.Tok, payload, f.Val.Loc)
}

func (f Full) payload() string {
	switch f.Tok {
	case IDENT, PPDIR:
		return f.Val.Raw
	case INT:
		return fmt.Sprintf("%d", f.Val.Int)
	case STRING, CHARLIT:
		return f.Val.Str
	default:
		return ""
	}
}

// Code renders the code-styled form: the textual rendering that reproduces
// the source lexeme, e.g. Identifier("foo") -> foo, IntegerLiteral(42) -> 42,
// Symbol("==") -> ==.
func (f Full) Code() string {
	switch f.Tok {
	case STRING:
		return `"` + f.Val.Raw + `"`
	case CHARLIT:
		return `'` + f.Val.Raw + `'`
	case EOF:
		return ""
	default:
		return f.Val.Raw
	}
}
