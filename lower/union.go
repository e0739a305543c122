package lower

import (
	"wireforge.dev/bmc/ast"
	"wireforge.dev/bmc/ir"
)

// unionArm is one resolved arm of a UnionType: the condition under
// which it applies and the field it selects (nil field for a
// catch-all that carries no payload).
type unionArm struct {
	Cond  ir.ID
	Field *ast.Field
}

// handleUnionType lowers a union's discriminant expressions into a
// flat list of mutually-exclusive arm conditions (spec §4.7). The
// first arm's condition is its own (or `base == cond` if the union
// declares a base discriminant); each later arm's condition is
// `(¬prev) ∧ cond`; a catch-all with no condition becomes `true` as
// the first arm or `¬prev` otherwise.
func (l *Lowering) handleUnionType(ut *ast.UnionType) ([]unionArm, error) {
	var (
		arms []unionArm
		prev ir.ID
		haveBase = ut.Base != nil
		baseID   ir.ID
	)
	if haveBase {
		id, err := l.expr(ut.Base)
		if err != nil {
			return nil, err
		}
		baseID = id
	}

	for i, cand := range ut.Candidates {
		first := i == 0
		var cond ir.ID

		if cand.Cond == nil {
			if first {
				cond = l.immediateTrue()
			} else {
				cond = l.negate(prev)
			}
		} else {
			c, err := l.expr(cand.Cond)
			if err != nil {
				return nil, err
			}
			if haveBase {
				c = l.binary(ir.BinEqual, baseID, c)
			}
			if first {
				cond = c
			} else {
				cond = l.binary(ir.BinLogicalAnd, l.negate(prev), c)
			}
		}

		arms = append(arms, unionArm{Cond: cond, Field: cand.Field})
		prev = cond
	}

	if len(arms) == 0 {
		return nil, bug("lower: union type with zero candidates")
	}
	return arms, nil
}
