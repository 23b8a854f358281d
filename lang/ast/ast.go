// Package ast defines the parse-tree node set produced by lang/parser: a
// closed set of tagged variants dispatched by type switch, never by
// inheritance, following qorcc's tagged-tree design throughout the
// pipeline.
package ast

import (
	"github.com/qorcc/qorcc/lang/token"
	"github.com/qorcc/qorcc/lang/types"
)

// Node is implemented by every parse-tree node. Loc identifies the node's
// first token (for a FunctionDef, its name token), for diagnostics; Walk
// visits the node's direct children.
type Node interface {
	Loc() token.Location
	Walk(v Visitor)
}

// Expr is implemented by every expression node.
type Expr interface {
	Node
	expr()
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmt()
}

// Param is one (type, name) entry in a function's argument list.
type Param struct {
	Type    types.ValueType
	Name    string
	NameTok token.Value
}

// CompilationUnit is the top-level parse tree: zero or more function
// definitions.
type CompilationUnit struct {
	Functions []*FunctionDef
	Filename  string
}

func (c *CompilationUnit) Loc() token.Location {
	if len(c.Functions) > 0 {
		return c.Functions[0].Loc()
	}
	return token.Location{Filename: c.Filename, Line: 1, Column: 1}
}

func (c *CompilationUnit) Walk(v Visitor) {
	for _, f := range c.Functions {
		Walk(v, f)
	}
}

// FunctionDef is `type name(type name, ...) body`.
type FunctionDef struct {
	ReturnType types.ValueType
	Name       string
	NameTok    token.Value
	Params     []Param
	Body       Stmt
}

func (f *FunctionDef) Loc() token.Location { return f.NameTok.Loc }

func (f *FunctionDef) Walk(v Visitor) {
	if f.Body != nil {
		Walk(v, f.Body)
	}
}
