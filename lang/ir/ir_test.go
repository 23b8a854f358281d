package ir_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qorcc/qorcc/lang/ir"
	"github.com/qorcc/qorcc/lang/parser"
	"github.com/qorcc/qorcc/lang/scanner"
)

func lowerOne(t *testing.T, src string) *ir.Program {
	t.Helper()
	toks := scanner.ScanAll("t.c", []byte(src))
	cu, err := parser.ParseFile("t.c", toks)
	require.NoError(t, err)
	prog, err := ir.Lower(cu)
	require.NoError(t, err)
	return prog
}

// assertBlocksClosed verifies the block half of Testable Property 6: the
// block graph is closed — every Jump/Branch destination names a block that
// exists. Register indices are not checked.
func assertBlocksClosed(t *testing.T, fn *ir.Function) {
	t.Helper()
	n := len(fn.Blocks)
	for _, b := range fn.Blocks {
		for _, insn := range b.Insns {
			switch insn.Op {
			case ir.OpJump:
				assert.True(t, insn.Target >= 0 && insn.Target < n, "jump target %d out of range (0..%d)", insn.Target, n)
			case ir.OpBranch:
				assert.True(t, insn.TargetTrue >= 0 && insn.TargetTrue < n, "branch true-target out of range")
				assert.True(t, insn.TargetFalse >= 0 && insn.TargetFalse < n, "branch false-target out of range")
			}
		}
	}
}

func TestLowerSimpleReturn(t *testing.T) {
	prog := lowerOne(t, "int f() { return 42; }")
	require.Len(t, prog.Functions, 1)
	fn := prog.Functions[0]
	assertBlocksClosed(t, fn)
	require.Len(t, fn.Blocks, 1)
	last := fn.Blocks[0].Insns[len(fn.Blocks[0].Insns)-1]
	assert.Equal(t, ir.OpReturn, last.Op)
}

func TestLowerBareReturnDefaultsToZero(t *testing.T) {
	prog := lowerOne(t, "void f() { return; }")
	fn := prog.Functions[0]
	last := fn.Blocks[0].Insns[len(fn.Blocks[0].Insns)-1]
	require.Equal(t, ir.OpReturn, last.Op)
	assert.True(t, last.RetVal.IsImmediate)
	assert.EqualValues(t, 0, last.RetVal.Bits())
}

func TestLowerParamsOccupySequentialRegisters(t *testing.T) {
	prog := lowerOne(t, "int f(int a, int b) { return a + b; }")
	fn := prog.Functions[0]
	assertBlocksClosed(t, fn)
	last := fn.Blocks[0].Insns[len(fn.Blocks[0].Insns)-1]
	require.Equal(t, ir.OpReturn, last.Op)
	assert.False(t, last.RetVal.IsImmediate)

	add := fn.Blocks[0].Insns[0]
	require.Equal(t, ir.OpAdd, add.Op)
	assert.Equal(t, ir.Reg(0), add.Src1)
	assert.Equal(t, ir.Reg(1), add.Src2)
}

func TestLowerIfElseAllocatesThreeExtraBlocks(t *testing.T) {
	prog := lowerOne(t, "int f(int x) { if (x) return 1; else return 0; return 2; }")
	fn := prog.Functions[0]
	assertBlocksClosed(t, fn)
	assert.Len(t, fn.Blocks, 4)

	var branches int
	for _, b := range fn.Blocks {
		for _, insn := range b.Insns {
			if insn.Op == ir.OpBranch {
				branches++
				assert.Equal(t, ir.NotEqual, insn.Cond)
			}
		}
	}
	assert.Equal(t, 1, branches)
}

func TestLowerIfWithoutElseJoinsAtFalseBlock(t *testing.T) {
	prog := lowerOne(t, "int f(int x) { if (x) x = x - 1; return x; }")
	fn := prog.Functions[0]
	assertBlocksClosed(t, fn)

	require.Len(t, fn.Blocks, 3)
	thenInsns := fn.Blocks[1].Insns
	last := thenInsns[len(thenInsns)-1]
	assert.Equal(t, ir.OpJump, last.Op)
	assert.Equal(t, 2, last.Target)
}

func TestLowerWhileLoopsBackToHeader(t *testing.T) {
	prog := lowerOne(t, "int f(int x) { while (x) x = x - 1; return x; }")
	fn := prog.Functions[0]
	assertBlocksClosed(t, fn)

	var jumps, branches int
	for _, b := range fn.Blocks {
		for _, insn := range b.Insns {
			switch insn.Op {
			case ir.OpJump:
				jumps++
			case ir.OpBranch:
				branches++
			}
		}
	}
	assert.Equal(t, 1, branches)
	assert.True(t, jumps >= 1)
}

func TestLowerUndefinedVariableIsCodegenError(t *testing.T) {
	toks := scanner.ScanAll("t.c", []byte("int f() { return y; }"))
	cu, err := parser.ParseFile("t.c", toks)
	require.NoError(t, err)
	_, err = ir.Lower(cu)
	assert.Error(t, err)
}

func TestLowerCallEmitsFullABISequence(t *testing.T) {
	prog := lowerOne(t, "int f() { return g(1, 2); }")
	fn := prog.Functions[0]
	assertBlocksClosed(t, fn)

	var sawCall, sawLoadRet bool
	backups, restores := 0, 0
	for _, b := range fn.Blocks {
		for _, insn := range b.Insns {
			switch insn.Op {
			case ir.OpFunctionCall:
				sawCall = true
				assert.Equal(t, "g", insn.FuncName)
				assert.Len(t, insn.Args, 2)
			case ir.OpLoadRet:
				sawLoadRet = true
			case ir.OpBackup:
				backups++
			case ir.OpRestore:
				restores++
			}
		}
	}
	assert.True(t, sawCall)
	assert.True(t, sawLoadRet)
	assert.Equal(t, backups, restores)
}

func TestLowerTooManyArgumentsIsCodegenError(t *testing.T) {
	src := "int f() { return g(1,2,3,4,5,6,7,8,9); }"
	toks := scanner.ScanAll("t.c", []byte(src))
	cu, err := parser.ParseFile("t.c", toks)
	require.NoError(t, err)
	_, err = ir.Lower(cu)
	assert.Error(t, err)
}

func TestLowerBitwiseAndShiftOperators(t *testing.T) {
	prog := lowerOne(t, "int f(int a, int b) { return (a & b) | (a << b); }")
	fn := prog.Functions[0]
	assertBlocksClosed(t, fn)

	var sawAnd, sawOr, sawShl bool
	for _, insn := range fn.Blocks[0].Insns {
		switch insn.Op {
		case ir.OpAnd:
			sawAnd = true
		case ir.OpOr:
			sawOr = true
		case ir.OpShl:
			sawShl = true
		}
	}
	assert.True(t, sawAnd)
	assert.True(t, sawOr)
	assert.True(t, sawShl)
}
