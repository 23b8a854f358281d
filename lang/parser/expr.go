package parser

import (
	"github.com/qorcc/qorcc/lang/ast"
	"github.com/qorcc/qorcc/lang/token"
)

// parseExpr parses the full expression grammar starting at the lowest
// precedence level (comma).
func (p *parser) parseExpr() ast.Expr {
	return p.parseComma()
}

func (p *parser) parseComma() ast.Expr {
	left := p.parseAssignment()
	for p.tok == token.COMMA {
		opTok := p.val
		p.advance()
		right := p.parseAssignment()
		left = &ast.CommaExpr{Left: left, Right: right, OpTok: opTok}
	}
	return left
}

var assignOps = map[token.Token]bool{
	token.EQ: true, token.STAREQ: true, token.SLASHEQ: true, token.PERCENTEQ: true,
	token.PLUSEQ: true, token.MINUSEQ: true, token.LTLTEQ: true, token.GTGTEQ: true,
	token.AMPEQ: true, token.CIRCUMFLEXEQ: true, token.PIPEEQ: true,
}

// parseAssignment is implemented as a left fold over assignment operators
// rather than C's right-associative grammar; see DESIGN.md for the rationale.
func (p *parser) parseAssignment() ast.Expr {
	left := p.parseConditional()
	for assignOps[p.tok] {
		op, opTok := p.tok, p.val
		if !ast.IsAssignable(left) {
			p.error(opTok.Loc, "left-hand side of assignment is not assignable")
		}
		p.advance()
		right := p.parseConditional()
		left = &ast.AssignExpr{Op: op, OpTok: opTok, Left: left, Right: right}
	}
	return left
}

func (p *parser) parseConditional() ast.Expr {
	cond := p.parseLogicalOr()
	if p.tok == token.QUESTION {
		opTok := p.val
		p.advance()
		then := p.parseExpr()
		p.expect(token.COLON)
		els := p.parseConditional()
		return &ast.ConditionalExpr{Cond: cond, Then: then, Else: els, OpTok: opTok}
	}
	return cond
}

func (p *parser) parseLogicalOr() ast.Expr {
	return p.parseBinaryLevel(p.parseLogicalAnd, token.PIPEPIPE)
}

func (p *parser) parseLogicalAnd() ast.Expr {
	return p.parseBinaryLevel(p.parseBitOr, token.AMPAMP)
}

func (p *parser) parseBitOr() ast.Expr {
	return p.parseBinaryLevel(p.parseBitXor, token.PIPE)
}

func (p *parser) parseBitXor() ast.Expr {
	return p.parseBinaryLevel(p.parseBitAnd, token.CIRCUMFLEX)
}

func (p *parser) parseBitAnd() ast.Expr {
	return p.parseBinaryLevel(p.parseEquality, token.AMP)
}

func (p *parser) parseEquality() ast.Expr {
	return p.parseBinaryLevel(p.parseRelational, token.EQEQ, token.NEQ)
}

func (p *parser) parseRelational() ast.Expr {
	return p.parseBinaryLevel(p.parseShift, token.LT, token.LE, token.GT, token.GE)
}

func (p *parser) parseShift() ast.Expr {
	return p.parseBinaryLevel(p.parseAdditive, token.LTLT, token.GTGT)
}

func (p *parser) parseAdditive() ast.Expr {
	return p.parseBinaryLevel(p.parseMultiplicative, token.PLUS, token.MINUS)
}

func (p *parser) parseMultiplicative() ast.Expr {
	return p.parseBinaryLevel(p.parseCast, token.STAR, token.SLASH, token.PERCENT)
}

// parseBinaryLevel folds a sequence of same-precedence left-associative
// binary operators: `a op b op c` parses as `(a op b) op c`.
func (p *parser) parseBinaryLevel(next func() ast.Expr, ops ...token.Token) ast.Expr {
	left := next()
	for tokenIn(p.tok, ops...) {
		op, opTok := p.tok, p.val
		p.advance()
		right := next()
		left = &ast.BinaryExpr{Op: op, OpTok: opTok, Left: left, Right: right}
	}
	return left
}

func tokenIn(t token.Token, toks ...token.Token) bool {
	for _, tok := range toks {
		if t == tok {
			return true
		}
	}
	return false
}

// parseCast passes through to parseUnary: the grammar reserves this level
// for C-style `(type)expr` casts, which this subset does not parse.
func (p *parser) parseCast() ast.Expr {
	return p.parseUnary()
}

var unaryOps = map[token.Token]bool{
	token.MINUS: true, token.PLUS: true, token.MINUSMINUS: true, token.PLUSPLUS: true,
	token.AMP: true, token.STAR: true, token.TILDE: true, token.BANG: true,
}

func (p *parser) parseUnary() ast.Expr {
	if unaryOps[p.tok] {
		op, opTok := p.tok, p.val
		p.advance()
		operand := p.parseCast()
		return &ast.UnaryExpr{Op: op, OpTok: opTok, Operand: operand}
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() ast.Expr {
	left := p.parsePrimary()
	for {
		switch p.tok {
		case token.LBRACK:
			opTok := p.val
			p.advance()
			idx := p.parseExpr()
			p.expect(token.RBRACK)
			left = &ast.IndexExpr{Base: left, Index: idx, OpTok: opTok}
		case token.LPAREN:
			opTok := p.val
			p.advance()
			args := p.parseArgs()
			p.expect(token.RPAREN)
			left = &ast.CallExpr{Callee: left, Args: args, OpTok: opTok}
		case token.DOT:
			opTok := p.val
			p.advance()
			name := p.expect(token.IDENT)
			left = &ast.MemberExpr{Base: left, Member: name.Raw, Arrow: false, OpTok: opTok}
		case token.ARROW:
			opTok := p.val
			p.advance()
			name := p.expect(token.IDENT)
			left = &ast.MemberExpr{Base: left, Member: name.Raw, Arrow: true, OpTok: opTok}
		case token.PLUSPLUS, token.MINUSMINUS:
			op, opTok := p.tok, p.val
			p.advance()
			left = &ast.PostfixIncDecExpr{Op: op, OpTok: opTok, Operand: left}
		default:
			return left
		}
	}
}

func (p *parser) parseArgs() []ast.Expr {
	if p.tok == token.RPAREN {
		return nil
	}
	var args []ast.Expr
	args = append(args, p.parseAssignment())
	for p.tok == token.COMMA {
		p.advance()
		args = append(args, p.parseAssignment())
	}
	return args
}

func (p *parser) parsePrimary() ast.Expr {
	switch p.tok {
	case token.IDENT:
		tv := p.val
		p.advance()
		return &ast.VariableExpr{Name: tv.Raw, Tok: tv}
	case token.INT:
		tv := p.val
		p.advance()
		return &ast.ConstantExpr{Value: tv.Int, Tok: tv}
	case token.LPAREN:
		p.advance()
		e := p.parseExpr()
		p.expect(token.RPAREN)
		return e
	default:
		p.error(p.val.Loc, "expected an expression, got %s", p.tok)
		return nil
	}
}
