package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qorcc/qorcc/lang/ast"
	"github.com/qorcc/qorcc/lang/parser"
	"github.com/qorcc/qorcc/lang/scanner"
)

func parseOne(t *testing.T, src string) *ast.CompilationUnit {
	t.Helper()
	toks := scanner.ScanAll("t.c", []byte(src))
	cu, err := parser.ParseFile("t.c", toks)
	require.NoError(t, err)
	return cu
}

func TestParseSimpleFunction(t *testing.T) {
	cu := parseOne(t, "int main() { return 42; }")
	require.Len(t, cu.Functions, 1)
	fn := cu.Functions[0]
	assert.Equal(t, "main", fn.Name)
	block, ok := fn.Body.(*ast.StatementBlock)
	require.True(t, ok)
	require.Len(t, block.Stmts, 1)
	ret, ok := block.Stmts[0].(*ast.ReturnStmt)
	require.True(t, ok)
	c, ok := ret.Expr.(*ast.ConstantExpr)
	require.True(t, ok)
	assert.EqualValues(t, 42, c.Value)
}

func TestParseParamsAndTypes(t *testing.T) {
	cu := parseOne(t, "unsigned long f(int a, char *b) { return a; }")
	fn := cu.Functions[0]
	require.Len(t, fn.Params, 2)
	assert.Equal(t, "a", fn.Params[0].Name)
	assert.Equal(t, "b", fn.Params[1].Name)
	assert.Equal(t, 1, fn.Params[1].Type.PointerDepth)
}

// TestPrecedenceLowerOperatorCloserToRoot verifies property 5: for operators
// at different precedence levels, the lower-precedence operator sits closer
// to the root (i.e. it is the outermost BinaryExpr).
func TestPrecedenceLowerOperatorCloserToRoot(t *testing.T) {
	cu := parseOne(t, "int f() { return 1 + 2 * 3; }")
	ret := cu.Functions[0].Body.(*ast.StatementBlock).Stmts[0].(*ast.ReturnStmt)
	root, ok := ret.Expr.(*ast.BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, "+", root.Op.String())
	_, rhsIsMul := root.Right.(*ast.BinaryExpr)
	assert.True(t, rhsIsMul)
}

// TestLeftAssociativity verifies that `a - b - c` parses as `(a - b) - c`.
func TestLeftAssociativity(t *testing.T) {
	cu := parseOne(t, "int f() { return 10 - 3 - 2; }")
	ret := cu.Functions[0].Body.(*ast.StatementBlock).Stmts[0].(*ast.ReturnStmt)
	root := ret.Expr.(*ast.BinaryExpr)
	assert.Equal(t, "-", root.Op.String())

	left, ok := root.Left.(*ast.BinaryExpr)
	require.True(t, ok, "left operand should itself be the inner (a-b)")
	assert.Equal(t, "-", left.Op.String())

	_, rightIsConst := root.Right.(*ast.ConstantExpr)
	assert.True(t, rightIsConst)
}

func TestParseIfElse(t *testing.T) {
	cu := parseOne(t, "int f(int x) { if (x) return 1; else return 0; }")
	block := cu.Functions[0].Body.(*ast.StatementBlock)
	ifs, ok := block.Stmts[0].(*ast.IfStmt)
	require.True(t, ok)
	assert.NotNil(t, ifs.Then)
	assert.NotNil(t, ifs.Else)
}

func TestParseWhile(t *testing.T) {
	cu := parseOne(t, "int f(int x) { while (x) x = x - 1; return x; }")
	block := cu.Functions[0].Body.(*ast.StatementBlock)
	_, ok := block.Stmts[0].(*ast.WhileStmt)
	assert.True(t, ok)
}

func TestParseCallExpr(t *testing.T) {
	cu := parseOne(t, "int f() { return g(1, 2, 3); }")
	ret := cu.Functions[0].Body.(*ast.StatementBlock).Stmts[0].(*ast.ReturnStmt)
	call, ok := ret.Expr.(*ast.CallExpr)
	require.True(t, ok)
	assert.Len(t, call.Args, 3)
}

func TestParseErrorOnBadStatement(t *testing.T) {
	toks := scanner.ScanAll("t.c", []byte("int f() { ; }"))
	_, err := parser.ParseFile("t.c", toks)
	assert.Error(t, err)
}
