package parser

import (
	"github.com/qorcc/qorcc/lang/ast"
	"github.com/qorcc/qorcc/lang/token"
)

func (p *parser) parseStmt() ast.Stmt {
	switch p.tok {
	case token.LBRACE:
		return p.parseBlock()
	case token.RETURN:
		return p.parseReturn()
	case token.IF:
		return p.parseIf()
	case token.WHILE:
		return p.parseWhile()
	case token.SEMI:
		p.error(p.val.Loc, "expected a statement, got %s", p.tok)
		return nil
	default:
		return p.parseExprStmt()
	}
}

// parseExprStmt parses `expr ;`: the fallback for any statement that is
// neither a block nor one of the keyworded forms, most commonly an
// assignment or a call used for its side effect.
func (p *parser) parseExprStmt() *ast.ExprStmt {
	expr := p.parseExpr()
	p.expect(token.SEMI)
	return &ast.ExprStmt{Expr: expr}
}

func (p *parser) parseBlock() *ast.StatementBlock {
	lbrace := p.expect(token.LBRACE)
	var stmts []ast.Stmt
	for p.tok != token.RBRACE {
		stmts = append(stmts, p.parseStmt())
	}
	p.expect(token.RBRACE)
	return &ast.StatementBlock{Stmts: stmts, LBrace: lbrace}
}

func (p *parser) parseReturn() *ast.ReturnStmt {
	tok := p.expect(token.RETURN)
	var expr ast.Expr
	if p.tok != token.SEMI {
		expr = p.parseExpr()
	}
	p.expect(token.SEMI)
	return &ast.ReturnStmt{Expr: expr, Tok: tok}
}

func (p *parser) parseIf() *ast.IfStmt {
	tok := p.expect(token.IF)
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	then := p.parseStmt()

	var els ast.Stmt
	if p.tok == token.ELSE {
		p.advance()
		els = p.parseStmt()
	}
	return &ast.IfStmt{Cond: cond, Then: then, Else: els, Tok: tok}
}

func (p *parser) parseWhile() *ast.WhileStmt {
	tok := p.expect(token.WHILE)
	p.expect(token.LPAREN)
	cond := p.parseExpr()
	p.expect(token.RPAREN)
	body := p.parseStmt()
	return &ast.WhileStmt{Cond: cond, Body: body, Tok: tok}
}

// parseFunctionDef parses `type identifier "(" (type identifier ("," type
// identifier)*)? ")" statement`.
func (p *parser) parseFunctionDef() *ast.FunctionDef {
	retType := p.parseType()
	nameTok := p.expect(token.IDENT)
	p.expect(token.LPAREN)
	params := p.parseParams()
	p.expect(token.RPAREN)
	body := p.parseStmt()
	return &ast.FunctionDef{ReturnType: retType, Name: nameTok.Raw, NameTok: nameTok, Params: params, Body: body}
}

func (p *parser) parseParams() []ast.Param {
	if p.tok == token.RPAREN {
		return nil
	}
	var params []ast.Param
	for {
		ty := p.parseType()
		nameTok := p.expect(token.IDENT)
		params = append(params, ast.Param{Type: ty, Name: nameTok.Raw, NameTok: nameTok})
		if p.tok != token.COMMA {
			break
		}
		p.advance()
	}
	return params
}
