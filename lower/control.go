package lower

import (
	"sort"

	"wireforge.dev/bmc/ast"
	"wireforge.dev/bmc/ir"
)

// block lowers a statement sequence, clearing prev_expr at every
// statement boundary (spec §3's invariant that prev_expr_id doesn't
// leak across statements).
func (l *Lowering) block(stmts []ast.Stmt) error {
	for _, s := range stmts {
		if err := l.stmt(s); err != nil {
			return err
		}
		l.mod.ClearPrevExpr()
	}
	return nil
}

func (l *Lowering) stmt(s ast.Stmt) error {
	switch s := s.(type) {
	case *ast.ExprStmt:
		_, err := l.expr(s.X)
		return err

	case *ast.Block:
		return l.block(s.Elements)

	case *ast.If:
		return l.ifStmt(s)

	case *ast.Match:
		return l.matchStmt(s)

	case *ast.Loop:
		return l.loopStmt(s)

	case *ast.Break:
		l.mod.Emit(ir.OpBreak)
		return nil

	case *ast.Continue:
		l.mod.Emit(ir.OpContinue)
		return nil

	case *ast.Return:
		return l.returnStmt(s)

	case *ast.Assert:
		return l.assertStmt(s)

	case *ast.ExplicitError:
		var msg ir.ID
		if s.Message != nil {
			id, err := l.expr(s.Message)
			if err != nil {
				return err
			}
			msg = id
		}
		l.mod.EmitWith(ir.OpRetError, func(c *ir.Code) { c.Ref = msg })
		return nil

	default:
		return unsupportedOp("lower: statement kind %T", s)
	}
}

func (l *Lowering) returnStmt(s *ast.Return) error {
	if s.Value == nil {
		l.mod.Emit(ir.OpRetSuccess)
		return nil
	}
	val, err := l.expr(s.Value)
	if err != nil {
		return err
	}
	l.mod.EmitWith(ir.OpRetSuccess, func(c *ir.Code) { c.Ref = val })
	return nil
}

// assertStmt lowers `assert(cond)` as a guard: a failing condition
// returns an error, rather than reusing ASSERT_EQUAL, which names a
// decode-time literal match (spec §4.9) and isn't this statement's
// shape.
func (l *Lowering) assertStmt(s *ast.Assert) error {
	cond, err := l.expr(s.Cond)
	if err != nil {
		return err
	}
	neg := l.negate(cond)
	l.mod.EmitWith(ir.OpIf, func(c *ir.Code) { c.Ref = neg })
	l.mod.Emit(ir.OpRetError)
	l.mod.Emit(ir.OpEndIf)
	return nil
}

// ifStmt lowers if/elif/else (spec §4.6). When the construct is used
// in expression position (Yields), a temp variable is materialized
// and assigned the implicit yield of whichever arm ran; every
// variable any arm reassigned is joined with a PHI at the close
// (spec §9's "SSA via phi + ID stack").
func (l *Lowering) ifStmt(s *ast.If) error {
	var tmp ir.ID
	if s.Yields {
		tmp = l.mod.NewID()
		l.mod.EmitWith(ir.OpDefineTempVariable, func(c *ir.Code) { c.Ident = tmp })
	}

	cond, err := l.expr(s.Cond)
	if err != nil {
		return err
	}

	l.mod.Phi.OpenFrame(make(map[ir.ID]ir.ID))

	l.mod.EmitWith(ir.OpIf, func(c *ir.Code) { c.Ref = cond })
	l.mod.Phi.NextArm(cond)
	if err := l.ifArm(s.Then, tmp, s.Yields); err != nil {
		return err
	}

	for _, elif := range s.Elif {
		econd, err := l.expr(elif.Cond)
		if err != nil {
			return err
		}
		l.mod.EmitWith(ir.OpElif, func(c *ir.Code) { c.Ref = econd })
		l.mod.Phi.NextArm(econd)
		if err := l.ifArm(elif.Then, tmp, s.Yields); err != nil {
			return err
		}
	}

	if s.Else != nil {
		l.mod.Emit(ir.OpElse)
		l.mod.Phi.NextArm(0)
		if err := l.ifArm(s.Else, tmp, s.Yields); err != nil {
			return err
		}
	}

	l.mod.Emit(ir.OpEndIf)
	l.emitPhis(l.mod.Phi.CloseFrame())

	if s.Yields {
		l.mod.SetPrevExpr(tmp)
	}
	return nil
}

func (l *Lowering) ifArm(b *ast.Block, tmp ir.ID, yields bool) error {
	if err := l.block(b.Elements); err != nil {
		return err
	}
	if yields {
		val, err := l.mod.TakePrevExpr()
		if err != nil {
			return err
		}
		l.assign(tmp, val)
	}
	return nil
}

// matchStmt lowers match/exhaustive-match (spec §4.6). A nil Pattern
// marks the default arm.
func (l *Lowering) matchStmt(s *ast.Match) error {
	cond, err := l.expr(s.Cond)
	if err != nil {
		return err
	}

	op := ir.OpMatch
	if s.Exhaustive {
		op = ir.OpExhaustiveMatch
	}
	l.mod.EmitWith(op, func(c *ir.Code) { c.Ref = cond })

	l.mod.Phi.OpenFrame(make(map[ir.ID]ir.ID))

	for _, cs := range s.Cases {
		if cs.Pattern == nil {
			l.mod.Emit(ir.OpDefaultCase)
			l.mod.Phi.NextArm(0)
		} else {
			pat, err := l.expr(cs.Pattern)
			if err != nil {
				return err
			}
			l.mod.EmitWith(ir.OpCase, func(c *ir.Code) { c.Ref = pat })
			l.mod.Phi.NextArm(pat)
		}
		if err := l.stmt(cs.Body); err != nil {
			return err
		}
		l.mod.Emit(ir.OpEndCase)
	}

	l.mod.Emit(ir.OpEndMatch)
	l.emitPhis(l.mod.Phi.CloseFrame())
	return nil
}

// emitPhis emits one PHI instruction per variable touched on any arm,
// in a deterministic (ID-sorted) order so two lowerings of the same
// source produce byte-identical IR.
func (l *Lowering) emitPhis(phis map[ir.ID][]ir.PhiParam) {
	vars := make([]ir.ID, 0, len(phis))
	for v := range phis {
		vars = append(vars, v)
	}
	sort.Slice(vars, func(i, j int) bool { return vars[i] < vars[j] })
	for _, v := range vars {
		params := phis[v]
		l.mod.EmitWith(ir.OpPhi, func(c *ir.Code) {
			c.Ident = v
			c.Phi = params
		})
	}
}

// loopStmt dispatches to the three `for x in ...` shapes or a general
// init/cond/step loop (spec §4.6).
func (l *Lowering) loopStmt(s *ast.Loop) error {
	switch s.Kind {
	case ast.LoopForInInt, ast.LoopForInRange, ast.LoopForInArray:
		return l.forInLoop(s)
	default:
		return l.generalLoop(s)
	}
}

func (l *Lowering) generalLoop(s *ast.Loop) error {
	if s.Init != nil {
		if err := l.stmt(s.Init); err != nil {
			return err
		}
	}

	if s.Cond != nil {
		cond, err := l.expr(s.Cond)
		if err != nil {
			return err
		}
		l.mod.EmitWith(ir.OpLoopCondition, func(c *ir.Code) { c.Ref = cond })
	} else {
		l.mod.Emit(ir.OpLoopInfinite)
	}

	if err := l.block(s.Body.Elements); err != nil {
		return err
	}
	if s.Step != nil {
		if err := l.stmt(s.Step); err != nil {
			return err
		}
	}
	l.mod.Emit(ir.OpEndLoop)
	return nil
}

// forInLoop lowers `for x in N`, `for x in a..b`, and `for x in
// array|string` by desugaring each into an equivalent counted
// LOOP_CONDITION (spec §4.6). In the integer and range shapes x is
// the counter itself; in the array|string shape x is bound to the
// indexed element on every iteration.
func (l *Lowering) forInLoop(s *ast.Loop) error {
	varID := l.internIdent(s.Var)

	switch s.Kind {
	case ast.LoopForInInt:
		n, err := l.expr(s.Source)
		if err != nil {
			return err
		}
		zero := l.emitExpr(ir.OpImmediateInt, func(c *ir.Code) { c.IntValue = 0 })
		l.mod.EmitWith(ir.OpDefineVariable, func(c *ir.Code) { c.Ident = varID; c.Ref = zero })
		cond := l.binary(ir.BinLess, varID, n)
		l.mod.EmitWith(ir.OpLoopCondition, func(c *ir.Code) { c.Ref = cond })
		if err := l.block(s.Body.Elements); err != nil {
			return err
		}
		l.mod.EmitWith(ir.OpInc, func(c *ir.Code) { c.Ref = varID })
		l.mod.Emit(ir.OpEndLoop)
		return nil

	case ast.LoopForInRange:
		tl, ok := s.Source.(*ast.TypeLiteral)
		if !ok {
			return bug("lower: for-in-range loop without a range source")
		}
		rt, ok := tl.Of.(*ast.RangeType)
		if !ok {
			return bug("lower: for-in-range loop source is not a range type")
		}
		start, err := l.expr(rt.Start)
		if err != nil {
			return err
		}
		end, err := l.expr(rt.Stop)
		if err != nil {
			return err
		}
		l.mod.EmitWith(ir.OpDefineVariable, func(c *ir.Code) { c.Ident = varID; c.Ref = start })
		cmp := ir.BinLess
		if rt.Inclusive {
			cmp = ir.BinLessEqual
		}
		cond := l.binary(cmp, varID, end)
		l.mod.EmitWith(ir.OpLoopCondition, func(c *ir.Code) { c.Ref = cond })
		if err := l.block(s.Body.Elements); err != nil {
			return err
		}
		l.mod.EmitWith(ir.OpInc, func(c *ir.Code) { c.Ref = varID })
		l.mod.Emit(ir.OpEndLoop)
		return nil

	case ast.LoopForInArray:
		arr, err := l.expr(s.Source)
		if err != nil {
			return err
		}
		idx := l.mod.NewID()
		zero := l.emitExpr(ir.OpImmediateInt, func(c *ir.Code) { c.IntValue = 0 })
		l.mod.EmitWith(ir.OpDefineVariable, func(c *ir.Code) { c.Ident = idx; c.Ref = zero })
		size := l.emitExpr(ir.OpArraySize, func(c *ir.Code) { c.Ref = arr })
		cond := l.binary(ir.BinLess, idx, size)
		l.mod.EmitWith(ir.OpLoopCondition, func(c *ir.Code) { c.Ref = cond })
		elem := l.emitExpr(ir.OpIndex, func(c *ir.Code) { c.LeftRef = arr; c.RightRef = idx })
		l.mod.EmitWith(ir.OpDefineVariable, func(c *ir.Code) { c.Ident = varID; c.Ref = elem })
		if err := l.block(s.Body.Elements); err != nil {
			return err
		}
		l.mod.EmitWith(ir.OpInc, func(c *ir.Code) { c.Ref = idx })
		l.mod.Emit(ir.OpEndLoop)
		return nil
	}

	return bug("lower: unreachable loop kind %v", s.Kind)
}
