package lower

import (
	"wireforge.dev/bmc/ast"
	"wireforge.dev/bmc/ir"
)

// emitExpr appends an expression-producing instruction, minting a
// fresh result ID for it and setting prev_expr to that ID (spec §4.3,
// §4.5's "each produces exactly one result ID" contract).
func (l *Lowering) emitExpr(op ir.Op, set func(*ir.Code)) ir.ID {
	id := l.mod.NewID()
	l.mod.EmitWith(op, func(c *ir.Code) {
		c.Ident = id
		if set != nil {
			set(c)
		}
	})
	l.mod.SetPrevExpr(id)
	return id
}

func (l *Lowering) immediateTrue() ir.ID  { return l.emitExpr(ir.OpImmediateTrue, nil) }
func (l *Lowering) immediateFalse() ir.ID { return l.emitExpr(ir.OpImmediateFalse, nil) }

func (l *Lowering) negate(x ir.ID) ir.ID {
	return l.emitExpr(ir.OpUnary, func(c *ir.Code) {
		c.Uop = ir.UnLogicalNot
		c.Ref = x
	})
}

func (l *Lowering) binary(op ir.BinOp, left, right ir.ID) ir.ID {
	return l.emitExpr(ir.OpBinary, func(c *ir.Code) {
		c.Bop = op
		c.LeftRef = left
		c.RightRef = right
	})
}

// expr lowers an expression node, returning the ID of the value it
// produced (spec §4.5).
func (l *Lowering) expr(e ast.Expr) (ir.ID, error) {
	switch e := e.(type) {
	case *ast.IntLiteral:
		if e.Wide {
			return l.emitExpr(ir.OpImmediateInt64, func(c *ir.Code) { c.IntValue64 = e.Value }), nil
		}
		return l.emitExpr(ir.OpImmediateInt, func(c *ir.Code) { c.IntValue = uint64(e.Value) }), nil

	case *ast.BoolLiteral:
		if e.Value {
			return l.immediateTrue(), nil
		}
		return l.immediateFalse(), nil

	case *ast.CharLiteral:
		return l.emitExpr(ir.OpImmediateChar, func(c *ir.Code) { c.IntValue = uint64(e.Value) }), nil

	case *ast.StrLiteral:
		str := l.mod.LookupString(e.Value)
		return l.emitExpr(ir.OpImmediateString, func(c *ir.Code) { c.Ref = str }), nil

	case *ast.TypeLiteral:
		storage, err := l.buildStorage(e.Of, false)
		if err != nil {
			return 0, err
		}
		ref := l.mod.InternStorage(storage)
		return l.emitExpr(ir.OpImmediateType, func(c *ir.Code) { c.StorageRef = ref }), nil

	case *ast.IdentExpr:
		ref := l.internIdent(e.Name)
		return l.emitExpr(ir.OpIdentRef, func(c *ir.Code) { c.Ref = ref }), nil

	case *ast.Paren:
		return l.expr(e.X)

	case *ast.MemberAccess:
		base, err := l.expr(e.Base)
		if err != nil {
			return 0, err
		}
		if e.Member != nil && e.Member.Name == "length" {
			return l.emitExpr(ir.OpArraySize, func(c *ir.Code) { c.Ref = base }), nil
		}
		member := l.internIdent(e.Member)
		return l.emitExpr(ir.OpAccess, func(c *ir.Code) {
			c.LeftRef = base
			c.RightRef = member
		}), nil

	case *ast.Index:
		base, err := l.expr(e.Base)
		if err != nil {
			return 0, err
		}
		idx, err := l.expr(e.Index)
		if err != nil {
			return 0, err
		}
		return l.emitExpr(ir.OpIndex, func(c *ir.Code) {
			c.LeftRef = base
			c.RightRef = idx
		}), nil

	case *ast.Unary:
		return l.unary(e)

	case *ast.Binary:
		return l.binaryExpr(e)

	case *ast.Cond:
		return l.condExpr(e)

	case *ast.Cast:
		return l.castExpr(e)

	case *ast.Call:
		return l.callExpr(e)

	case *ast.Available:
		return l.availableExpr(e)

	case *ast.ImplicitYield:
		return l.expr(e.X)

	case *ast.Identity:
		return l.expr(e.Target)

	case *ast.IOOperation:
		return l.ioOperation(e)

	default:
		return 0, unsupportedOp("lower: expression kind %T", e)
	}
}

// unary implements spec §4.5's sole implicit-coercion rule:
// logical_not on a non-bool operand silently becomes bit_not.
func (l *Lowering) unary(e *ast.Unary) (ir.ID, error) {
	x, err := l.expr(e.X)
	if err != nil {
		return 0, err
	}
	op := e.Op
	uop := unOpOf(op)
	if op == ast.UnaryLogicalNot {
		if _, isBool := e.X.ExprType().(*ast.BoolType); !isBool {
			uop = ir.UnBitNot
		}
	}
	return l.emitExpr(ir.OpUnary, func(c *ir.Code) {
		c.Uop = uop
		c.Ref = x
	}), nil
}

func unOpOf(op ast.UnaryOp) ir.UnOp {
	switch op {
	case ast.UnaryPlus:
		return ir.UnPlus
	case ast.UnaryMinus:
		return ir.UnMinus
	case ast.UnaryLogicalNot:
		return ir.UnLogicalNot
	case ast.UnaryBitNot:
		return ir.UnBitNot
	}
	return ir.UnPlus
}

func binOpOf(op ast.BinaryOp) (ir.BinOp, error) {
	switch op {
	case ast.BinAdd:
		return ir.BinAdd, nil
	case ast.BinSub:
		return ir.BinSub, nil
	case ast.BinMul:
		return ir.BinMul, nil
	case ast.BinDiv:
		return ir.BinDiv, nil
	case ast.BinMod:
		return ir.BinMod, nil
	case ast.BinLeftShift:
		return ir.BinLeftShift, nil
	case ast.BinRightShift:
		return ir.BinRightShift, nil
	case ast.BinLeftArithmeticShift:
		return ir.BinLeftArithmeticShift, nil
	case ast.BinBitAnd:
		return ir.BinBitAnd, nil
	case ast.BinBitOr:
		return ir.BinBitOr, nil
	case ast.BinBitXor:
		return ir.BinBitXor, nil
	case ast.BinLogicalAnd:
		return ir.BinLogicalAnd, nil
	case ast.BinLogicalOr:
		return ir.BinLogicalOr, nil
	case ast.BinEqual:
		return ir.BinEqual, nil
	case ast.BinNotEqual:
		return ir.BinNotEqual, nil
	case ast.BinLess:
		return ir.BinLess, nil
	case ast.BinLessEqual:
		return ir.BinLessEqual, nil
	case ast.BinGreater:
		return ir.BinGreater, nil
	case ast.BinGreaterEqual:
		return ir.BinGreaterEqual, nil
	case ast.BinComma:
		return ir.BinComma, nil
	}
	return 0, unsupportedOp("lower: binary operator %v has no non-assignment form", op)
}

// binaryExpr implements spec §4.5's binary-operator dispatch:
// compound assignment becomes BINARY+ASSIGN, assign becomes ASSIGN,
// define/const-assign becomes DEFINE_VARIABLE, append-assign becomes
// APPEND, comma forwards its right operand.
func (l *Lowering) binaryExpr(e *ast.Binary) (ir.ID, error) {
	switch e.Op {
	case ast.BinDefineAssign, ast.BinConstAssign:
		val, err := l.expr(e.Right)
		if err != nil {
			return 0, err
		}
		return l.defineVariable(e.Left, val)

	case ast.BinAssign:
		target, err := l.assignTarget(e.Left)
		if err != nil {
			return 0, err
		}
		val, err := l.expr(e.Right)
		if err != nil {
			return 0, err
		}
		return l.assign(target, val), nil

	case ast.BinAppendAssign:
		target, err := l.assignTarget(e.Left)
		if err != nil {
			return 0, err
		}
		val, err := l.expr(e.Right)
		if err != nil {
			return 0, err
		}
		return l.emitExpr(ir.OpAppend, func(c *ir.Code) {
			c.LeftRef = target
			c.RightRef = val
		}), nil

	case ast.BinComma:
		if _, err := l.expr(e.Left); err != nil {
			return 0, err
		}
		return l.expr(e.Right)

	default:
		if e.Op.IsCompoundAssign() {
			target, err := l.assignTarget(e.Left)
			if err != nil {
				return 0, err
			}
			rhs, err := l.expr(e.Right)
			if err != nil {
				return 0, err
			}
			bop, err := binOpOf(e.Op.Underlying())
			if err != nil {
				return 0, err
			}
			combined := l.binary(bop, target, rhs)
			return l.assign(target, combined), nil
		}

		left, err := l.expr(e.Left)
		if err != nil {
			return 0, err
		}
		right, err := l.expr(e.Right)
		if err != nil {
			return 0, err
		}
		bop, err := binOpOf(e.Op)
		if err != nil {
			return 0, err
		}
		return l.binary(bop, left, right), nil
	}
}

// assignTarget lowers an lvalue to the ID ASSIGN/APPEND/compound-ops
// should target: for a bare identifier this is its looked-up ID, not
// an IDENT_REF result, since ASSIGN's left_ref names the variable
// being written, not a read of its prior value.
func (l *Lowering) assignTarget(e ast.Expr) (ir.ID, error) {
	if id, ok := e.(*ast.IdentExpr); ok {
		return l.internIdent(id.Name), nil
	}
	return l.expr(e)
}

func (l *Lowering) assign(target, value ir.ID) ir.ID {
	id := l.emitExpr(ir.OpAssign, func(c *ir.Code) {
		c.LeftRef = target
		c.RightRef = value
	})
	if l.mod.Phi.Depth() > 0 {
		l.mod.Phi.RecordAssign(target, value)
	}
	return id
}

// defineVariable lowers `x := expr` / `x ::= expr`, binding a fresh
// variable ID to the initializer's value.
func (l *Lowering) defineVariable(target ast.Expr, value ir.ID) (ir.ID, error) {
	id, ok := target.(*ast.IdentExpr)
	if !ok {
		return 0, bug("lower: define-assign target is not an identifier")
	}
	varID := l.internIdent(id.Name)
	return l.emitExpr(ir.OpDefineVariable, func(c *ir.Code) {
		c.Ident = varID
		c.Ref = value
	}), nil
}

// condExpr lowers the ternary `cond ? then : else` by materializing a
// temp and emitting IF/ASSIGN/ELSE/ASSIGN/END_IF (spec §4.5).
func (l *Lowering) condExpr(e *ast.Cond) (ir.ID, error) {
	tmp := l.mod.NewID()
	l.mod.EmitWith(ir.OpDefineTempVariable, func(c *ir.Code) { c.Ident = tmp })

	cond, err := l.expr(e.Cond)
	if err != nil {
		return 0, err
	}
	l.mod.EmitWith(ir.OpIf, func(c *ir.Code) { c.Ref = cond })
	thenVal, err := l.expr(e.Then)
	if err != nil {
		return 0, err
	}
	l.assign(tmp, thenVal)
	l.mod.Emit(ir.OpElse)
	elseVal, err := l.expr(e.Else)
	if err != nil {
		return 0, err
	}
	l.assign(tmp, elseVal)
	l.mod.Emit(ir.OpEndIf)

	l.mod.SetPrevExpr(tmp)
	return tmp, nil
}

func (l *Lowering) castExpr(e *ast.Cast) (ir.ID, error) {
	storage, err := l.buildStorage(e.Target, false)
	if err != nil {
		return 0, err
	}
	ref := l.mod.InternStorage(storage)
	args, err := l.exprList(e.Args)
	if err != nil {
		return 0, err
	}
	return l.emitExpr(ir.OpCallCast, func(c *ir.Code) {
		c.StorageRef = ref
		c.CastType = ir.CastExplicit
		c.Param = ir.Param{Refs: args}
	}), nil
}

func (l *Lowering) callExpr(e *ast.Call) (ir.ID, error) {
	callee := l.internIdent(e.Callee)
	args, err := l.exprList(e.Args)
	if err != nil {
		return 0, err
	}
	return l.emitExpr(ir.OpCall, func(c *ir.Code) {
		c.Ref = callee
		c.Param = ir.Param{Refs: args}
	}), nil
}

func (l *Lowering) exprList(exprs []ast.Expr) ([]ir.ID, error) {
	out := make([]ir.ID, 0, len(exprs))
	for _, e := range exprs {
		id, err := l.expr(e)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}

// availableExpr implements spec §4.5's `available(target)`: for a
// union-typed target, the disjunction of arm conditions; otherwise a
// constant reporting whether the target is addressable (an
// IdentExpr or member/index expression).
func (l *Lowering) availableExpr(e *ast.Available) (ir.ID, error) {
	base, err := l.expr(e.Target)
	if err != nil {
		return 0, err
	}

	var cond ir.ID
	if ut, ok := e.Target.ExprType().(*ast.UnionType); ok {
		arms, err := l.handleUnionType(ut)
		if err != nil {
			return 0, err
		}
		cond = l.disjunction(arms)
	} else {
		switch e.Target.(type) {
		case *ast.IdentExpr, *ast.MemberAccess, *ast.Index:
			cond = l.immediateTrue()
		default:
			cond = l.immediateFalse()
		}
	}

	return l.emitExpr(ir.OpFieldAvailable, func(c *ir.Code) {
		c.LeftRef = base
		c.RightRef = cond
	}), nil
}

// disjunction ORs together every arm's condition. An empty arm list
// panics: handle_union_type returns a BugInvariant error rather than
// zero arms, so it never hands one over (spec §7).
func (l *Lowering) disjunction(arms []unionArm) ir.ID {
	if len(arms) == 0 {
		panic("lower: disjunction over zero union arms")
	}
	acc := arms[0].Cond
	for _, a := range arms[1:] {
		acc = l.binary(ir.BinLogicalOr, acc, a.Cond)
	}
	return acc
}

// ioOperation lowers a call into the upstream I/O collaborator (spec
// §4.11, §6).
func (l *Lowering) ioOperation(e *ast.IOOperation) (ir.ID, error) {
	args, err := l.exprList(e.Args)
	if err != nil {
		return 0, err
	}
	var op ir.Op
	switch e.Method {
	case ast.IOInputBackward:
		op = ir.OpInputBackward
	case ast.IOInputOffset:
		op = ir.OpInputOffset
	case ast.IOInputBitOffset:
		op = ir.OpInputBitOffset
	case ast.IOInputGet:
		op = ir.OpInputGet
	case ast.IOOutputPut:
		op = ir.OpOutputPut
	default:
		return 0, unsupportedOp("lower: I/O method %v", e.Method)
	}
	return l.emitExpr(op, func(c *ir.Code) { c.Param = ir.Param{Refs: args} }), nil
}
