package parser

import (
	"github.com/qorcc/qorcc/lang/token"
	"github.com/qorcc/qorcc/lang/types"
)

// parseType parses a type per the grammar: ("signed"|"unsigned")? base "*"*,
// where base is one of void, char, short, int, long or "struct" ident.
// signed/unsigned must be followed by one of the integer keywords; they
// toggle the base kind's signedness rather than introducing a new kind.
func (p *parser) parseType() types.ValueType {
	var wantUnsigned, sawSignedness bool
	if p.tok == token.SIGNED || p.tok == token.UNSIGNED {
		sawSignedness = true
		wantUnsigned = p.tok == token.UNSIGNED
		p.advance()
	}

	var vt types.ValueType
	switch p.tok {
	case token.VOID:
		if sawSignedness {
			p.error(p.val.Loc, "signed/unsigned cannot qualify void")
		}
		vt.Kind = types.Void
		p.advance()
	case token.CHAR:
		vt.Kind = types.I8
		p.advance()
	case token.SHORT:
		vt.Kind = types.I16
		p.advance()
	case token.INTKW:
		vt.Kind = types.I32
		p.advance()
	case token.LONG:
		vt.Kind = types.I64
		p.advance()
	case token.STRUCT:
		if sawSignedness {
			p.error(p.val.Loc, "signed/unsigned cannot qualify a struct type")
		}
		p.advance()
		name := p.expect(token.IDENT)
		vt.Kind = types.NamedStruct
		vt.StructName = name.Raw
	default:
		p.error(p.val.Loc, "expected a type, got %s", p.tok)
	}

	if wantUnsigned {
		vt.Kind = vt.Kind.Unsigned()
	}

	for p.tok == token.STAR {
		vt.PointerDepth++
		p.advance()
	}
	return vt
}
