// Package codegen lowers the IR into RISC-V (RV64I) assembly text.
package codegen

import (
	"fmt"
	"io"
	"strings"

	"github.com/qorcc/qorcc/lang/cerrors"
	"github.com/qorcc/qorcc/lang/ir"
	"github.com/qorcc/qorcc/lang/token"
)

// hwRegs is the fixed virtual-to-hardware register map: argument/return
// registers first, then the temporaries. t6 is never assigned a virtual
// register; codegen reserves it as scratch space for materializing an
// immediate operand next to a register one.
var hwRegs = []string{
	"a0", "a1", "a2", "a3", "a4", "a5", "a6", "a7",
	"t0", "t1", "t2", "t3", "t4", "t5",
}

const scratchReg = "t6"

// Generate writes RV64I assembly for prog to w.
func Generate(w io.Writer, prog *ir.Program) error {
	g := &generator{w: w}
	for _, fn := range prog.Functions {
		if err := g.function(fn); err != nil {
			return err
		}
	}
	return nil
}

type generator struct {
	w  io.Writer
	fn *ir.Function
}

func (g *generator) reg(idx int) (string, error) {
	if idx < 0 || idx >= len(hwRegs) {
		return "", cerrors.New(cerrors.CodegenError, token.Location{},
			"function %q needs more than %d live registers; this compiler does not spill", g.fn.Name, len(hwRegs))
	}
	return hwRegs[idx], nil
}

func (g *generator) emit(format string, args ...any) {
	fmt.Fprintf(g.w, "    "+format+"\n", args...)
}

func (g *generator) label(s string) {
	fmt.Fprintf(g.w, "%s\n", s)
}

func (g *generator) function(fn *ir.Function) error {
	g.fn = fn
	g.label(fmt.Sprintf(".globl %s", fn.Name))
	g.label(fmt.Sprintf("%s:", fn.Name))
	for i, b := range fn.Blocks {
		if i > 0 {
			g.label(fmt.Sprintf("%s:", b.Label))
		}
		for _, insn := range b.Insns {
			if err := g.instruction(insn); err != nil {
				return err
			}
		}
	}
	return nil
}

// materialize returns an operand register name for v: the mapped hardware
// register if v is a register, or scratchReg loaded with v's bits via li if
// v is an immediate.
func (g *generator) materialize(v ir.IRValue) (string, error) {
	if v.IsImmediate {
		if v.Bits() == 0 {
			return "zero", nil
		}
		g.emit("li %s, %d", scratchReg, int64(v.Bits()))
		return scratchReg, nil
	}
	return g.reg(v.Register)
}

func (g *generator) instruction(insn ir.Instruction) error {
	switch insn.Op {
	case ir.OpReturn:
		return g.opReturn(insn)
	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv, ir.OpMod, ir.OpAnd, ir.OpOr, ir.OpXor, ir.OpShl, ir.OpShr:
		return g.opArith(insn)
	case ir.OpJump:
		g.emit("j %s", g.fn.Blocks[insn.Target].Label)
		return nil
	case ir.OpBranch:
		return g.opBranch(insn)
	case ir.OpConditional:
		return g.opConditional(insn)
	case ir.OpBackup:
		return g.opBackup(insn)
	case ir.OpRestore:
		return g.opRestore(insn)
	case ir.OpFunctionCall:
		return g.opCall(insn)
	case ir.OpLoadRet:
		dest, err := g.reg(insn.Dest)
		if err != nil {
			return err
		}
		if dest != "a0" {
			g.emit("mv %s, a0", dest)
		}
		return nil
	default:
		return cerrors.New(cerrors.CodegenError, token.Location{}, "unhandled IR instruction op %d", insn.Op)
	}
}

func (g *generator) opReturn(insn ir.Instruction) error {
	if insn.RetVal.IsImmediate {
		g.emit("li a0, %d", int64(insn.RetVal.Bits()))
	} else {
		src, err := g.reg(insn.RetVal.Register)
		if err != nil {
			return err
		}
		if src != "a0" {
			g.emit("mv a0, %s", src)
		}
	}
	g.emit("ret")
	return nil
}

// foldable reports whether both operands of insn are compile-time
// constants, and if so returns the folded value.
func foldable(insn ir.Instruction) (int64, bool, error) {
	if !insn.Src1.IsImmediate || !insn.Src2.IsImmediate {
		return 0, false, nil
	}
	a, b := int64(insn.Src1.Bits()), int64(insn.Src2.Bits())
	switch insn.Op {
	case ir.OpAdd:
		return a + b, true, nil
	case ir.OpSub:
		return a - b, true, nil
	case ir.OpMul:
		return a * b, true, nil
	case ir.OpDiv:
		if b == 0 {
			return 0, false, cerrors.New(cerrors.CodegenError, token.Location{}, "division by constant zero")
		}
		return a / b, true, nil
	case ir.OpMod:
		if b == 0 {
			return 0, false, cerrors.New(cerrors.CodegenError, token.Location{}, "modulo by constant zero")
		}
		return a % b, true, nil
	case ir.OpAnd:
		return a & b, true, nil
	case ir.OpOr:
		return a | b, true, nil
	case ir.OpXor:
		return a ^ b, true, nil
	case ir.OpShl:
		return a << uint(b), true, nil
	case ir.OpShr:
		return a >> uint(b), true, nil
	default:
		return 0, false, nil
	}
}

// opArith implements property 7 (constant folding emits exactly one li) and
// otherwise picks the cheapest real instruction sequence available: an
// immediate-form opcode when one operand is a compile-time constant and the
// operation has one, a scratch-register materialization otherwise.
func (g *generator) opArith(insn ir.Instruction) error {
	dest, err := g.reg(insn.Dest)
	if err != nil {
		return err
	}

	if folded, ok, err := foldable(insn); err != nil {
		return err
	} else if ok {
		g.emit("li %s, %d", dest, folded)
		return nil
	}

	mnemonic, immMnemonic, commutative := arithMnemonics(insn.Op)

	if immMnemonic != "" && insn.Src2.IsImmediate && fitsSimm12(insn.Src2.Bits()) {
		src1, err := g.reg(insn.Src1.Register)
		if err != nil {
			return err
		}
		g.emit("%s %s, %s, %d", immMnemonic, dest, src1, int64(insn.Src2.Bits()))
		return nil
	}
	if commutative && immMnemonic != "" && insn.Src1.IsImmediate && fitsSimm12(insn.Src1.Bits()) {
		src2, err := g.reg(insn.Src2.Register)
		if err != nil {
			return err
		}
		g.emit("%s %s, %s, %d", immMnemonic, dest, src2, int64(insn.Src1.Bits()))
		return nil
	}
	if insn.Op == ir.OpSub && insn.Src2.IsImmediate && fitsSimm12(-int64(insn.Src2.Bits())) {
		src1, err := g.reg(insn.Src1.Register)
		if err != nil {
			return err
		}
		g.emit("addi %s, %s, %d", dest, src1, -int64(insn.Src2.Bits()))
		return nil
	}

	src1, err := g.materialize(insn.Src1)
	if err != nil {
		return err
	}
	src2, err := g.materializeOther(insn.Src2, src1)
	if err != nil {
		return err
	}
	g.emit("%s %s, %s, %s", mnemonic, dest, src1, src2)
	return nil
}

// materializeOther is like materialize but avoids colliding with a scratch
// register already in use for the other operand of the same instruction.
func (g *generator) materializeOther(v ir.IRValue, avoid string) (string, error) {
	if !v.IsImmediate {
		return g.reg(v.Register)
	}
	if v.Bits() == 0 {
		return "zero", nil
	}
	if avoid == scratchReg {
		return "", cerrors.New(cerrors.CodegenError, token.Location{}, "both operands are immediates; they should have been constant-folded")
	}
	return g.materialize(v)
}

func fitsSimm12(v uint64) bool {
	n := int64(v)
	return n >= -2048 && n <= 2047
}

func arithMnemonics(op ir.Op) (reg, imm string, commutative bool) {
	switch op {
	case ir.OpAdd:
		return "add", "addi", true
	case ir.OpSub:
		return "sub", "", false
	case ir.OpMul:
		return "mul", "", false
	case ir.OpDiv:
		return "div", "", false
	case ir.OpMod:
		return "rem", "", false
	case ir.OpAnd:
		return "and", "andi", true
	case ir.OpOr:
		return "or", "ori", true
	case ir.OpXor:
		return "xor", "xori", true
	case ir.OpShl:
		return "sll", "slli", false
	case ir.OpShr:
		return "sra", "srai", false
	default:
		return "", "", false
	}
}

// opBranch maps every BranchCondition onto a native two-register branch by
// swapping operands where needed, rather than restricting to the
// NotEqual-against-zero case the IR lowering pass happens to construct.
func (g *generator) opBranch(insn ir.Instruction) error {
	src1, err := g.materialize(insn.Src1)
	if err != nil {
		return err
	}
	src2, err := g.materializeOther(insn.Src2, src1)
	if err != nil {
		return err
	}
	trueLabel := g.fn.Blocks[insn.TargetTrue].Label
	falseLabel := g.fn.Blocks[insn.TargetFalse].Label

	switch insn.Cond {
	case ir.Equal:
		g.emit("beq %s, %s, %s", src1, src2, trueLabel)
	case ir.NotEqual:
		g.emit("bne %s, %s, %s", src1, src2, trueLabel)
	case ir.LessThan:
		g.emit("blt %s, %s, %s", src1, src2, trueLabel)
	case ir.GreaterThan:
		g.emit("blt %s, %s, %s", src2, src1, trueLabel)
	case ir.LessThanEqualTo:
		g.emit("bge %s, %s, %s", src2, src1, trueLabel)
	case ir.GreaterThanEqualTo:
		g.emit("bge %s, %s, %s", src1, src2, trueLabel)
	default:
		return cerrors.New(cerrors.CodegenError, token.Location{}, "unknown branch condition %d", insn.Cond)
	}
	g.emit("j %s", falseLabel)
	return nil
}

// opConditional materializes a BranchCondition's truth value as a 0/1
// integer in a register, for use in expression position (equality,
// relational, and logical operators). It prefers the immediate-form
// comparison instructions (slti, sltiu, xori) over materializing a constant
// operand through the scratch register first, the same way opArith prefers
// addi/andi/... over a materialized register-register form.
func (g *generator) opConditional(insn ir.Instruction) error {
	dest, err := g.reg(insn.Dest)
	if err != nil {
		return err
	}

	if insn.Src1.IsImmediate && insn.Src2.IsImmediate {
		v, err := evalCondition(insn.Cond, int64(insn.Src1.Bits()), int64(insn.Src2.Bits()))
		if err != nil {
			return err
		}
		g.emit("li %s, %d", dest, v)
		return nil
	}

	switch insn.Cond {
	case ir.Equal:
		return g.condEquality(dest, insn.Src1, insn.Src2)
	case ir.NotEqual:
		return g.condInequality(dest, insn.Src1, insn.Src2)
	case ir.LessThan:
		return g.condLessThan(dest, insn.Src1, insn.Src2)
	case ir.GreaterThan:
		return g.condLessThan(dest, insn.Src2, insn.Src1)
	case ir.GreaterThanEqualTo:
		return g.condGreaterEqual(dest, insn.Src1, insn.Src2)
	case ir.LessThanEqualTo:
		return g.condGreaterEqual(dest, insn.Src2, insn.Src1)
	default:
		return cerrors.New(cerrors.CodegenError, token.Location{}, "unknown branch condition %d", insn.Cond)
	}
}

// evalCondition folds a BranchCondition applied to two compile-time
// constants into its 0/1 result.
func evalCondition(cond ir.BranchCondition, a, b int64) (int64, error) {
	var ok bool
	switch cond {
	case ir.Equal:
		ok = a == b
	case ir.NotEqual:
		ok = a != b
	case ir.LessThan:
		ok = a < b
	case ir.GreaterThan:
		ok = a > b
	case ir.LessThanEqualTo:
		ok = a <= b
	case ir.GreaterThanEqualTo:
		ok = a >= b
	default:
		return 0, cerrors.New(cerrors.CodegenError, token.Location{}, "unknown branch condition %d", cond)
	}
	if ok {
		return 1, nil
	}
	return 0, nil
}

// splitRegImm returns the register and immediate operand of a, b when
// exactly one of them is an immediate. xor is commutative, so the caller
// does not need to know which side the immediate came from.
func (g *generator) splitRegImm(a, b ir.IRValue) (reg string, imm int64, ok bool, err error) {
	switch {
	case !a.IsImmediate && b.IsImmediate:
		reg, err = g.reg(a.Register)
		return reg, int64(b.Bits()), true, err
	case a.IsImmediate && !b.IsImmediate:
		reg, err = g.reg(b.Register)
		return reg, int64(a.Bits()), true, err
	default:
		return "", 0, false, nil
	}
}

// condEquality emits the xor/xori + sltiu sequence for ==.
func (g *generator) condEquality(dest string, a, b ir.IRValue) error {
	if err := g.emitXor(dest, a, b); err != nil {
		return err
	}
	g.emit("sltiu %s, %s, 1", dest, dest)
	return nil
}

// condInequality emits the xor/xori + sltu sequence for !=.
func (g *generator) condInequality(dest string, a, b ir.IRValue) error {
	if err := g.emitXor(dest, a, b); err != nil {
		return err
	}
	g.emit("sltu %s, zero, %s", dest, dest)
	return nil
}

// emitXor emits xori when one operand is a small immediate, xor otherwise.
func (g *generator) emitXor(dest string, a, b ir.IRValue) error {
	if reg, imm, ok, err := g.splitRegImm(a, b); err != nil {
		return err
	} else if ok && fitsSimm12(uint64(imm)) {
		g.emit("xori %s, %s, %d", dest, reg, imm)
		return nil
	}
	src1, err := g.materialize(a)
	if err != nil {
		return err
	}
	src2, err := g.materializeOther(b, src1)
	if err != nil {
		return err
	}
	g.emit("xor %s, %s, %s", dest, src1, src2)
	return nil
}

// condLessThan emits a < b, using slti when b is a small immediate, or a
// swapped slti+xori when a is one, falling back to register-register slt.
func (g *generator) condLessThan(dest string, a, b ir.IRValue) error {
	switch {
	case !a.IsImmediate && b.IsImmediate && fitsSimm12(b.Bits()):
		areg, err := g.reg(a.Register)
		if err != nil {
			return err
		}
		g.emit("slti %s, %s, %d", dest, areg, int64(b.Bits()))
		return nil
	case a.IsImmediate && !b.IsImmediate && fitsSimm12(uint64(int64(a.Bits())+1)):
		breg, err := g.reg(b.Register)
		if err != nil {
			return err
		}
		g.emit("slti %s, %s, %d", dest, breg, int64(a.Bits())+1)
		g.emit("xori %s, %s, 1", dest, dest)
		return nil
	default:
		src1, err := g.materialize(a)
		if err != nil {
			return err
		}
		src2, err := g.materializeOther(b, src1)
		if err != nil {
			return err
		}
		g.emit("slt %s, %s, %s", dest, src1, src2)
		return nil
	}
}

// condGreaterEqual emits a >= b, the negation of condLessThan's sequence.
func (g *generator) condGreaterEqual(dest string, a, b ir.IRValue) error {
	switch {
	case !a.IsImmediate && b.IsImmediate && fitsSimm12(b.Bits()):
		areg, err := g.reg(a.Register)
		if err != nil {
			return err
		}
		g.emit("slti %s, %s, %d", dest, areg, int64(b.Bits()))
		g.emit("xori %s, %s, 1", dest, dest)
		return nil
	case a.IsImmediate && !b.IsImmediate && fitsSimm12(uint64(int64(a.Bits())+1)):
		breg, err := g.reg(b.Register)
		if err != nil {
			return err
		}
		g.emit("slti %s, %s, %d", dest, breg, int64(a.Bits())+1)
		return nil
	default:
		src1, err := g.materialize(a)
		if err != nil {
			return err
		}
		src2, err := g.materializeOther(b, src1)
		if err != nil {
			return err
		}
		g.emit("slt %s, %s, %s", dest, src1, src2)
		g.emit("xori %s, %s, 1", dest, dest)
		return nil
	}
}

// opBackup/opRestore spill a caller-saved argument register to a single
// stack slot around a nested call, without establishing a full stack frame:
// no frame pointer, no locals, just a push/pop of one word.
func (g *generator) opBackup(insn ir.Instruction) error {
	r, err := g.reg(insn.Reg)
	if err != nil {
		return err
	}
	g.emit("addi sp, sp, -8")
	g.emit("sd %s, 0(sp)", r)
	return nil
}

func (g *generator) opRestore(insn ir.Instruction) error {
	r, err := g.reg(insn.Reg)
	if err != nil {
		return err
	}
	g.emit("ld %s, 0(sp)", r)
	g.emit("addi sp, sp, 8")
	return nil
}

func (g *generator) opCall(insn ir.Instruction) error {
	if len(insn.Args) > len(hwRegs[:8]) {
		return cerrors.New(cerrors.CodegenError, token.Location{}, "call to %q: too many arguments", insn.FuncName)
	}
	for i, arg := range insn.Args {
		target := hwRegs[i]
		src, err := g.materialize(arg)
		if err != nil {
			return err
		}
		if src != target {
			g.emit("mv %s, %s", target, src)
		}
	}
	g.emit("call %s", insn.FuncName)
	return nil
}

// Dump renders prog as assembly and returns it as a string; a convenience
// wrapper around Generate for callers that want text rather than a writer.
func Dump(prog *ir.Program) (string, error) {
	var sb strings.Builder
	if err := Generate(&sb, prog); err != nil {
		return "", err
	}
	return sb.String(), nil
}
