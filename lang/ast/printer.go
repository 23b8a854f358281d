package ast

import (
	"fmt"
	"io"
	"strings"
)

// Printer pretty-prints a parse tree, one node per line, indented by
// nesting depth and prefixed by the node's source location.
type Printer struct {
	Output io.Writer
}

// Print walks n and writes its textual form to p.Output.
func (p *Printer) Print(n Node) error {
	pp := &printer{w: p.Output}
	Walk(pp, n)
	return pp.err
}

type printer struct {
	w     io.Writer
	depth int
	err   error
}

func (p *printer) Visit(n Node, dir VisitDirection) Visitor {
	if dir == VisitExit || p.err != nil {
		p.depth--
		return nil
	}
	p.depth++
	p.printNode(n, p.depth-1)
	return p
}

func (p *printer) printNode(n Node, indent int) {
	if p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, "%s[%s] %s\n", strings.Repeat(". ", indent), n.Loc(), describe(n))
}

func describe(n Node) string {
	switch v := n.(type) {
	case *CompilationUnit:
		return "CompilationUnit"
	case *FunctionDef:
		return fmt.Sprintf("FunctionDef %s %s(...)", v.ReturnType, v.Name)
	case *StatementBlock:
		return "StatementBlock"
	case *ReturnStmt:
		return "ReturnStmt"
	case *IfStmt:
		return "IfStmt"
	case *WhileStmt:
		return "WhileStmt"
	case *ExprStmt:
		return "ExprStmt"
	case *ConstantExpr:
		return fmt.Sprintf("ConstantExpr %d", v.Value)
	case *VariableExpr:
		return fmt.Sprintf("VariableExpr %s", v.Name)
	case *UnaryExpr:
		return fmt.Sprintf("UnaryExpr %s", v.Op)
	case *PostfixIncDecExpr:
		return fmt.Sprintf("PostfixIncDecExpr %s", v.Op)
	case *IndexExpr:
		return "IndexExpr"
	case *CallExpr:
		return fmt.Sprintf("CallExpr (%d args)", len(v.Args))
	case *MemberExpr:
		if v.Arrow {
			return fmt.Sprintf("MemberExpr ->%s", v.Member)
		}
		return fmt.Sprintf("MemberExpr .%s", v.Member)
	case *BinaryExpr:
		return fmt.Sprintf("BinaryExpr %s", v.Op)
	case *ConditionalExpr:
		return "ConditionalExpr"
	case *AssignExpr:
		return fmt.Sprintf("AssignExpr %s", v.Op)
	case *CommaExpr:
		return "CommaExpr"
	default:
		return fmt.Sprintf("%T", n)
	}
}
