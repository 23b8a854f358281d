package ir

import (
	"github.com/qorcc/qorcc/lang/ast"
	"github.com/qorcc/qorcc/lang/cerrors"
	"github.com/qorcc/qorcc/lang/token"
	"github.com/qorcc/qorcc/lang/types"
)

// maxCallArgs is the size of the RISC-V argument-register bank (a0..a7).
const maxCallArgs = 8

// Program is the full lowered output of one compilation unit: a sequence of
// Functions.
type Program struct {
	Functions []*Function
}

// Lower turns a parsed compilation unit into IR.
func Lower(cu *ast.CompilationUnit) (*Program, error) {
	prog := &Program{}
	for _, fd := range cu.Functions {
		f, err := lowerFunction(fd)
		if err != nil {
			return nil, err
		}
		prog.Functions = append(prog.Functions, f)
	}
	return prog, nil
}

func lowerFunction(fd *ast.FunctionDef) (*Function, error) {
	f := newFunction(fd.Name, fd.ReturnType)

	// Push a scope built from the function arguments, each assigned the
	// next virtual-register index, so argument i occupies register i.
	for _, param := range fd.Params {
		reg := f.allocRegister()
		f.bind(param.Name, reg)
	}

	if err := lowerStmt(f, fd.Body); err != nil {
		return nil, err
	}
	return f, nil
}

func lowerStmt(f *Function, s ast.Stmt) error {
	switch n := s.(type) {
	case *ast.StatementBlock:
		f.pushScope()
		defer f.popScope()
		for _, child := range n.Stmts {
			if err := lowerStmt(f, child); err != nil {
				return err
			}
		}
		return nil

	case *ast.ReturnStmt:
		if n.Expr != nil {
			v, err := lowerExpr(f, n.Expr)
			if err != nil {
				return err
			}
			f.emit(Instruction{Op: OpReturn, RetVal: v})
			return nil
		}
		f.emit(Instruction{Op: OpReturn, RetVal: Immediate(Value{Bits: 0, Type: types.ValueType{Kind: types.I32}})})
		return nil

	case *ast.IfStmt:
		return lowerIf(f, n)

	case *ast.WhileStmt:
		return lowerWhile(f, n)

	case *ast.ExprStmt:
		_, err := lowerExpr(f, n.Expr)
		return err

	default:
		return cerrors.New(cerrors.CodegenError, s.Loc(), "unsupported statement kind %T", s)
	}
}

// lowerIf implements the block-construction algorithm from the spec: the
// current block branches on the condition to a fresh "then" block and a
// fresh "false" block, with the "false" block doubling as the join block
// when there is no else branch.
func lowerIf(f *Function, s *ast.IfStmt) error {
	condVal, err := lowerExpr(f, s.Cond)
	if err != nil {
		return err
	}

	c := f.current
	t := f.allocBlock()
	f.current = t
	if err := lowerStmt(f, s.Then); err != nil {
		return err
	}
	fblk := f.allocBlock()

	f.block(c).emit(Instruction{
		Op: OpBranch, Cond: NotEqual, Src1: condVal,
		Src2: Immediate(Value{Type: types.ValueType{Kind: types.I32}}),
		TargetTrue: t, TargetFalse: fblk,
	})

	var j int
	if s.Else != nil {
		j = f.allocBlock()
		f.current = fblk
		if err := lowerStmt(f, s.Else); err != nil {
			return err
		}
		if !f.block(fblk).terminated() {
			f.block(fblk).emit(Instruction{Op: OpJump, Target: j})
		}
	} else {
		j = fblk
	}

	if !f.block(t).terminated() {
		f.block(t).emit(Instruction{Op: OpJump, Target: j})
	}
	f.current = j
	return nil
}

// lowerWhile supplements the spec's statement lowering with the while loop
// named in the data model (§3) but left out of §4.4's worked algorithm: a
// header block re-evaluates the condition on every iteration, branching to
// the body or to the exit block.
func lowerWhile(f *Function, s *ast.WhileStmt) error {
	c := f.current
	header := f.allocBlock()
	if !f.block(c).terminated() {
		f.block(c).emit(Instruction{Op: OpJump, Target: header})
	}

	f.current = header
	condVal, err := lowerExpr(f, s.Cond)
	if err != nil {
		return err
	}

	body := f.allocBlock()
	f.current = body
	if err := lowerStmt(f, s.Body); err != nil {
		return err
	}
	if !f.block(body).terminated() {
		f.block(body).emit(Instruction{Op: OpJump, Target: header})
	}

	exit := f.allocBlock()
	f.block(header).emit(Instruction{
		Op: OpBranch, Cond: NotEqual, Src1: condVal,
		Src2: Immediate(Value{Type: types.ValueType{Kind: types.I32}}),
		TargetTrue: body, TargetFalse: exit,
	})

	f.current = exit
	return nil
}

func lowerExpr(f *Function, e ast.Expr) (IRValue, error) {
	switch n := e.(type) {
	case *ast.ConstantExpr:
		return Immediate(Value{Bits: n.Value, Type: types.ValueType{Kind: types.I32}}), nil

	case *ast.VariableExpr:
		reg, ok := f.use(n.Name)
		if !ok {
			return IRValue{}, cerrors.New(cerrors.CodegenError, n.Tok.Loc, "undefined variable %q", n.Name)
		}
		return Reg(reg), nil

	case *ast.UnaryExpr:
		return lowerUnary(f, n)

	case *ast.BinaryExpr:
		return lowerBinary(f, n)

	case *ast.CallExpr:
		return lowerCall(f, n)

	case *ast.AssignExpr:
		return lowerAssign(f, n)

	default:
		return IRValue{}, cerrors.New(cerrors.CodegenError, e.Loc(),
			"%T is parsed but has no intermediate-representation lowering (no memory operations in the IR)", e)
	}
}

func lowerUnary(f *Function, n *ast.UnaryExpr) (IRValue, error) {
	operand, err := lowerExpr(f, n.Operand)
	if err != nil {
		return IRValue{}, err
	}

	switch n.Op {
	case token.PLUS:
		return operand, nil
	case token.MINUS:
		dest := f.allocRegister()
		f.emit(Instruction{Op: OpSub, Dest: dest, Src1: Immediate(Value{Type: operand.typeOf()}), Src2: operand})
		return Reg(dest), nil
	case token.TILDE:
		dest := f.allocRegister()
		allOnes := Immediate(Value{Bits: ^uint64(0), Type: operand.typeOf()})
		f.emit(Instruction{Op: OpXor, Dest: dest, Src1: operand, Src2: allOnes})
		return Reg(dest), nil
	case token.BANG:
		dest := f.allocRegister()
		f.emit(Instruction{Op: OpConditional, Dest: dest, Cond: Equal, Src1: operand, Src2: Immediate(Value{Type: operand.typeOf()})})
		return Reg(dest), nil
	default:
		return IRValue{}, cerrors.New(cerrors.CodegenError, n.OpTok.Loc,
			"%s is parsed but has no intermediate-representation lowering (no memory operations in the IR)", n.Op)
	}
}

func (v IRValue) typeOf() types.ValueType {
	if v.IsImmediate {
		return v.Imm.Type
	}
	return types.ValueType{Kind: types.I32}
}

var arithOp = map[token.Token]Op{
	token.PLUS: OpAdd, token.MINUS: OpSub, token.STAR: OpMul,
	token.SLASH: OpDiv, token.PERCENT: OpMod,
	token.AMP: OpAnd, token.PIPE: OpOr, token.CIRCUMFLEX: OpXor,
	token.LTLT: OpShl, token.GTGT: OpShr,
}

// compoundOp maps a compound-assignment token to the arithmetic it performs
// before storing back to the target, e.g. `x += y` is `x = x + y`.
var compoundOp = map[token.Token]Op{
	token.PLUSEQ: OpAdd, token.MINUSEQ: OpSub, token.STAREQ: OpMul,
	token.SLASHEQ: OpDiv, token.PERCENTEQ: OpMod,
	token.AMPEQ: OpAnd, token.PIPEEQ: OpOr, token.CIRCUMFLEXEQ: OpXor,
	token.LTLTEQ: OpShl, token.GTGTEQ: OpShr,
}

var condOp = map[token.Token]BranchCondition{
	token.EQEQ: Equal, token.NEQ: NotEqual,
	token.LT: LessThan, token.GT: GreaterThan,
	token.LE: LessThanEqualTo, token.GE: GreaterThanEqualTo,
}

// foldImmediate computes the result of applying op to two compile-time
// constants, so that an expression built entirely from literals collapses
// to a single Immediate during lowering rather than surviving into the IR
// as an instruction over two immediate operands.
func foldImmediate(op Op, a, b uint64, loc token.Location) (uint64, error) {
	ai, bi := int64(a), int64(b)
	switch op {
	case OpAdd:
		return uint64(ai + bi), nil
	case OpSub:
		return uint64(ai - bi), nil
	case OpMul:
		return uint64(ai * bi), nil
	case OpDiv:
		if bi == 0 {
			return 0, cerrors.New(cerrors.CodegenError, loc, "division by constant zero")
		}
		return uint64(ai / bi), nil
	case OpMod:
		if bi == 0 {
			return 0, cerrors.New(cerrors.CodegenError, loc, "modulo by constant zero")
		}
		return uint64(ai % bi), nil
	case OpAnd:
		return a & b, nil
	case OpOr:
		return a | b, nil
	case OpXor:
		return a ^ b, nil
	case OpShl:
		return a << uint(bi), nil
	case OpShr:
		return uint64(ai >> uint(bi)), nil
	default:
		return 0, nil
	}
}

func lowerBinary(f *Function, n *ast.BinaryExpr) (IRValue, error) {
	left, err := lowerExpr(f, n.Left)
	if err != nil {
		return IRValue{}, err
	}
	right, err := lowerExpr(f, n.Right)
	if err != nil {
		return IRValue{}, err
	}

	if op, ok := arithOp[n.Op]; ok {
		if left.IsImmediate && right.IsImmediate {
			folded, err := foldImmediate(op, left.Imm.Bits, right.Imm.Bits, n.OpTok.Loc)
			if err != nil {
				return IRValue{}, err
			}
			return Immediate(Value{Bits: folded, Type: left.Imm.Type}), nil
		}
		dest := f.allocRegister()
		f.emit(Instruction{Op: op, Dest: dest, Src1: left, Src2: right})
		return Reg(dest), nil
	}
	if cond, ok := condOp[n.Op]; ok {
		dest := f.allocRegister()
		f.emit(Instruction{Op: OpConditional, Dest: dest, Cond: cond, Src1: left, Src2: right})
		return Reg(dest), nil
	}
	if n.Op == token.AMPAMP || n.Op == token.PIPEPIPE {
		return lowerLogical(f, n.Op, left, right)
	}
	return IRValue{}, cerrors.New(cerrors.CodegenError, n.OpTok.Loc,
		"%s is parsed but has no intermediate-representation lowering", n.Op)
}

// lowerLogical materializes both operands' truthiness and combines them
// with a bitwise And/Or. It does not short-circuit: true C semantics would
// require branching around the unevaluated operand, which is a known
// simplification for this subset (see DESIGN.md).
func lowerLogical(f *Function, op token.Token, left, right IRValue) (IRValue, error) {
	lt := f.allocRegister()
	f.emit(Instruction{Op: OpConditional, Dest: lt, Cond: NotEqual, Src1: left, Src2: Immediate(Value{Type: left.typeOf()})})
	rt := f.allocRegister()
	f.emit(Instruction{Op: OpConditional, Dest: rt, Cond: NotEqual, Src1: right, Src2: Immediate(Value{Type: right.typeOf()})})

	combine := OpAnd
	if op == token.PIPEPIPE {
		combine = OpOr
	}
	dest := f.allocRegister()
	f.emit(Instruction{Op: combine, Dest: dest, Src1: Reg(lt), Src2: Reg(rt)})
	return Reg(dest), nil
}

// lowerAssign lowers `=` and the compound assignment operators. The IR has
// no memory operations, and virtual registers map 1:1 onto fixed hardware
// registers with no allocator to renumber them, so a variable's register is
// its storage location: assignment writes the new value directly into the
// variable's existing register rather than binding the name to a fresh one,
// the same way `addi a0, a0, -1` mutates a0 in place on real RISC-V. Other
// assignment targets (`*p = ...`, `a[i] = ...`, `s.f = ...`) hit the same
// no-memory-operations limit as reading them does.
func lowerAssign(f *Function, n *ast.AssignExpr) (IRValue, error) {
	target, ok := n.Left.(*ast.VariableExpr)
	if !ok {
		return IRValue{}, cerrors.New(cerrors.CodegenError, n.Left.Loc(),
			"%T is parsed but has no intermediate-representation lowering (no memory operations in the IR)", n.Left)
	}
	dest, ok := f.use(target.Name)
	if !ok {
		return IRValue{}, cerrors.New(cerrors.CodegenError, target.Tok.Loc, "undefined variable %q", target.Name)
	}
	rhs, err := lowerExpr(f, n.Right)
	if err != nil {
		return IRValue{}, err
	}

	if n.Op == token.EQ {
		f.emit(Instruction{Op: OpAdd, Dest: dest, Src1: rhs, Src2: Immediate(Value{Type: rhs.typeOf()})})
		return Reg(dest), nil
	}
	op, ok := compoundOp[n.Op]
	if !ok {
		return IRValue{}, cerrors.New(cerrors.CodegenError, n.OpTok.Loc,
			"%s is parsed but has no intermediate-representation lowering", n.Op)
	}
	f.emit(Instruction{Op: op, Dest: dest, Src1: Reg(dest), Src2: rhs})
	return Reg(dest), nil
}

// lowerCall implements the spec's call-site lowering: snapshot each
// argument into a fresh register, back up the caller-saved argument-slot
// registers it is about to clobber, call, collect the return value, then
// restore.
func lowerCall(f *Function, n *ast.CallExpr) (IRValue, error) {
	callee, ok := n.Callee.(*ast.VariableExpr)
	if !ok {
		return IRValue{}, cerrors.New(cerrors.CodegenError, n.Loc(), "only direct calls to a named function are supported")
	}
	if len(n.Args) > maxCallArgs {
		return IRValue{}, cerrors.New(cerrors.CodegenError, n.OpTok.Loc, "too many arguments: %d (max %d)", len(n.Args), maxCallArgs)
	}

	dest := f.allocRegister()

	snapshotted := make([]IRValue, len(n.Args))
	for i, argExpr := range n.Args {
		v, err := lowerExpr(f, argExpr)
		if err != nil {
			return IRValue{}, err
		}
		reg := f.allocRegister()
		f.emit(Instruction{Op: OpAdd, Dest: reg, Src1: v, Src2: Immediate(Value{Type: v.typeOf()})})
		snapshotted[i] = Reg(reg)
	}

	for idx := range snapshotted {
		if idx != dest {
			f.emit(Instruction{Op: OpBackup, Reg: idx})
		}
	}
	f.emit(Instruction{Op: OpFunctionCall, FuncName: callee.Name, Args: snapshotted})
	f.emit(Instruction{Op: OpLoadRet, Dest: dest})
	for idx := len(snapshotted) - 1; idx >= 0; idx-- {
		if idx != dest {
			f.emit(Instruction{Op: OpRestore, Reg: idx})
		}
	}

	return Reg(dest), nil
}
