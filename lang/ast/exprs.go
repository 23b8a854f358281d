package ast

import (
	"github.com/qorcc/qorcc/lang/token"
)

// ConstantExpr is an integer literal.
type ConstantExpr struct {
	Value uint64
	Tok   token.Value
}

func (e *ConstantExpr) Loc() token.Location { return e.Tok.Loc }
func (e *ConstantExpr) Walk(Visitor)        {}
func (*ConstantExpr) expr()                 {}

// VariableExpr is a bare identifier used as an expression.
type VariableExpr struct {
	Name string
	Tok  token.Value
}

func (e *VariableExpr) Loc() token.Location { return e.Tok.Loc }
func (e *VariableExpr) Walk(Visitor)        {}
func (*VariableExpr) expr()                 {}

// UnaryExpr is a prefix operator: one of - + -- ++ & * ~ !.
type UnaryExpr struct {
	Op      token.Token
	OpTok   token.Value
	Operand Expr
}

func (e *UnaryExpr) Loc() token.Location { return e.OpTok.Loc }
func (e *UnaryExpr) Walk(v Visitor)      { Walk(v, e.Operand) }
func (*UnaryExpr) expr()                 {}

// PostfixIncDecExpr is a postfix ++ or --.
type PostfixIncDecExpr struct {
	Op      token.Token
	OpTok   token.Value
	Operand Expr
}

func (e *PostfixIncDecExpr) Loc() token.Location { return e.Operand.Loc() }
func (e *PostfixIncDecExpr) Walk(v Visitor)      { Walk(v, e.Operand) }
func (*PostfixIncDecExpr) expr()                 {}

// IndexExpr is `base[index]`.
type IndexExpr struct {
	Base, Index Expr
	OpTok       token.Value
}

func (e *IndexExpr) Loc() token.Location { return e.Base.Loc() }
func (e *IndexExpr) Walk(v Visitor)      { Walk(v, e.Base); Walk(v, e.Index) }
func (*IndexExpr) expr()                 {}

// CallExpr is `callee(args...)`.
type CallExpr struct {
	Callee Expr
	Args   []Expr
	OpTok  token.Value
}

func (e *CallExpr) Loc() token.Location { return e.Callee.Loc() }
func (e *CallExpr) Walk(v Visitor) {
	Walk(v, e.Callee)
	for _, a := range e.Args {
		Walk(v, a)
	}
}
func (*CallExpr) expr() {}

// MemberExpr is `base.member` or `base->member`.
type MemberExpr struct {
	Base   Expr
	Member string
	Arrow  bool
	OpTok  token.Value
}

func (e *MemberExpr) Loc() token.Location { return e.Base.Loc() }
func (e *MemberExpr) Walk(v Visitor)      { Walk(v, e.Base) }
func (*MemberExpr) expr()                 {}

// BinaryExpr is any of the left-associative binary operator levels:
// multiplicative, additive, shift, relational, equality, bitwise
// and/xor/or, logical and/or. The operator itself, via its precedence
// table in the parser, determines which grammar level produced the node —
// one Go type serves every level rather than one type per level, which
// would be a distinction without an observable difference in a tagged,
// exhaustively-dispatched tree.
type BinaryExpr struct {
	Op          token.Token
	OpTok       token.Value
	Left, Right Expr
}

func (e *BinaryExpr) Loc() token.Location { return e.Left.Loc() }
func (e *BinaryExpr) Walk(v Visitor)      { Walk(v, e.Left); Walk(v, e.Right) }
func (*BinaryExpr) expr()                 {}

// ConditionalExpr is `cond ? then : else`.
type ConditionalExpr struct {
	Cond, Then, Else Expr
	OpTok            token.Value
}

func (e *ConditionalExpr) Loc() token.Location { return e.Cond.Loc() }
func (e *ConditionalExpr) Walk(v Visitor) {
	Walk(v, e.Cond)
	Walk(v, e.Then)
	Walk(v, e.Else)
}
func (*ConditionalExpr) expr() {}

// AssignExpr is any of = *= /= %= += -= <<= >>= &= ^= |=, right-associative
// in C but folded left-associatively here (see DESIGN.md).
type AssignExpr struct {
	Op          token.Token
	OpTok       token.Value
	Left, Right Expr
}

func (e *AssignExpr) Loc() token.Location { return e.Left.Loc() }
func (e *AssignExpr) Walk(v Visitor)      { Walk(v, e.Left); Walk(v, e.Right) }
func (*AssignExpr) expr()                 {}

// CommaExpr is `left, right`.
type CommaExpr struct {
	Left, Right Expr
	OpTok       token.Value
}

func (e *CommaExpr) Loc() token.Location { return e.Left.Loc() }
func (e *CommaExpr) Walk(v Visitor)      { Walk(v, e.Left); Walk(v, e.Right) }
func (*CommaExpr) expr()                 {}

// IsAssignable reports whether e is a valid assignment target: a variable,
// an index, a dereference, or a member access.
func IsAssignable(e Expr) bool {
	switch n := e.(type) {
	case *VariableExpr, *IndexExpr, *MemberExpr:
		return true
	case *UnaryExpr:
		return n.Op == token.STAR
	default:
		return false
	}
}
