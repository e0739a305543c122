package postpass

import "wireforge.dev/bmc/ir"

// GenerateCFG1 is spec §5's seventh fixed-order post-pass: it builds
// one basic-block control-flow graph per DEFINE_FUNCTION, the side
// table spec §6's `-c` CLI flag writes out for external tooling. It
// runs after merge_conditional_field/derive_property_functions so the
// graph reflects every synthesized function, not just user-authored
// ones.
func GenerateCFG1(mod *ir.Module) error {
	graphs := make(map[ir.ID]*ir.CFG1Graph)

	for i := range mod.Code {
		if mod.Code[i].Op != ir.OpDefineFunction {
			continue
		}
		funcID := mod.Code[i].Ident
		r, ok := mod.RangeOf(funcID)
		if !ok {
			continue
		}
		graphs[funcID] = buildCFG1(mod, funcID, r)
	}

	mod.SetCFG(graphs)
	return nil
}

// isLeader reports whether c starts a new basic block: every
// branch-construct op (the IF, MATCH and LOOP families, BREAK,
// CONTINUE, RET_*) opens a block of its own. buildCFG1 adds the
// function's own entry itself.
func isLeader(c ir.Code) bool {
	switch c.Op {
	case ir.OpIf, ir.OpElif, ir.OpElse, ir.OpEndIf,
		ir.OpMatch, ir.OpExhaustiveMatch, ir.OpCase, ir.OpDefaultCase, ir.OpEndCase, ir.OpEndMatch,
		ir.OpLoopInfinite, ir.OpLoopCondition, ir.OpEndLoop,
		ir.OpBreak, ir.OpContinue, ir.OpRetSuccess, ir.OpRetError:
		return true
	default:
		return false
	}
}

// buildCFG1 splits one function's [r.Start, r.End) instruction range
// into basic blocks at every branch-construct boundary and links each
// block to the block(s) it can reach by straight-line fall-through.
// Back-edges into a loop's condition block and the multiple arms of
// an IF/MATCH are approximated by simple adjacency — sufficient for
// side-data describing reachability, not a precise dominance tree.
func buildCFG1(mod *ir.Module, funcID ir.ID, r ir.Range) *ir.CFG1Graph {
	var starts []int
	starts = append(starts, r.Start)
	for i := r.Start + 1; i < r.End; i++ {
		if isLeader(mod.Code[i]) {
			starts = append(starts, i)
		}
	}
	starts = append(starts, r.End)

	dedup := starts[:0]
	seen := map[int]bool{}
	for _, s := range starts {
		if !seen[s] {
			seen[s] = true
			dedup = append(dedup, s)
		}
	}
	starts = dedup

	blocks := make([]ir.CFGBlock, 0, len(starts)-1)
	for i := 0; i+1 < len(starts); i++ {
		blocks = append(blocks, ir.CFGBlock{Start: starts[i], End: starts[i+1]})
	}

	for i := range blocks {
		last := mod.Code[blocks[i].End-1]
		switch last.Op {
		case ir.OpRetSuccess, ir.OpRetError:
			// terminal: no successors
		default:
			if i+1 < len(blocks) {
				blocks[i].Succ = append(blocks[i].Succ, i+1)
			}
		}
		if last.Op == ir.OpEndLoop {
			for j := range blocks {
				if blocks[j].Start == blockLoopHead(mod, blocks, i) {
					blocks[i].Succ = append(blocks[i].Succ, j)
					break
				}
			}
		}
	}

	return &ir.CFG1Graph{FuncID: funcID, Blocks: blocks}
}

// blockLoopHead finds the instruction index of the LOOP_CONDITION/
// LOOP_INFINITE that opened the loop closing at block endIdx, by
// scanning backward for the nearest unmatched loop header.
func blockLoopHead(mod *ir.Module, blocks []ir.CFGBlock, endIdx int) int {
	depth := 0
	for i := endIdx - 1; i >= 0; i-- {
		op := mod.Code[blocks[i].Start].Op
		if op == ir.OpEndLoop {
			depth++
			continue
		}
		if op == ir.OpLoopCondition || op == ir.OpLoopInfinite {
			if depth == 0 {
				return blocks[i].Start
			}
			depth--
		}
	}
	return blocks[0].Start
}
