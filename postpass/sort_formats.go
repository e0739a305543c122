package postpass

import (
	"fmt"

	"wireforge.dev/bmc/ast"
	"wireforge.dev/bmc/ir"
	"wireforge.dev/bmc/lower"
)

// SortFormats is spec §5's fourth fixed-order post-pass: it reorders
// each DEFINE_FORMAT/END_FORMAT (and DEFINE_STATE/END_STATE) bracket
// so that a format embedding another by STORAGE_STRUCT_REF is
// serialized after the format it embeds, a stable topological sort
// over declaration order that leaves a format with no dependencies
// where it already was. STORAGE_RECURSIVE_STRUCT_REF is exempt, since
// a format referencing itself can never be "after itself".
//
// bind_encoder_and_decoder has already retargeted every CALL_ENCODE/
// CALL_DECODE, so reordering brackets here only ever moves whole,
// already-resolved instruction runs — no operand needs rewriting,
// only Module.Reindex() once the move is done.
func SortFormats(mod *ir.Module, formats []*ast.Format, l *lower.Lowering) error {
	ids := make([]ir.ID, 0, len(formats))
	byID := make(map[ir.ID]*ast.Format, len(formats))
	idOf := make(map[*ast.Format]ir.ID, len(formats))
	for _, f := range formats {
		id, err := l.FormatID(f)
		if err != nil {
			return err
		}
		ids = append(ids, id)
		byID[id] = f
		idOf[f] = id
	}

	deps := make(map[ir.ID][]ir.ID, len(ids))
	for _, f := range formats {
		id := idOf[f]
		r, ok := mod.RangeOf(id)
		if !ok {
			return fmt.Errorf("postpass: sort_formats: format %s has no recorded range", f.Ident.Name)
		}
		seen := make(map[ir.ID]bool)
		for i := r.Start; i < r.End; i++ {
			c := mod.Code[i]
			if c.Op != ir.OpSpecifyStorageType {
				continue
			}
			storage, ok := mod.LookupStorage(c.StorageRef)
			if !ok {
				continue
			}
			for _, rec := range storage {
				if rec.Tag == ir.StorageStructRef && rec.Ref != id && byID[rec.Ref] != nil && !seen[rec.Ref] {
					seen[rec.Ref] = true
					deps[id] = append(deps[id], rec.Ref)
				}
			}
		}
	}

	order, err := stableTopoSort(ids, deps)
	if err != nil {
		return err
	}
	if sameOrder(ids, order) {
		return nil
	}

	reorderBrackets(mod, order)
	mod.Reindex()
	return nil
}

func sameOrder(a, b []ir.ID) bool {
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// stableTopoSort orders ids so every dependency of id precedes id,
// preserving ids' relative order among mutually-independent entries
// (Kahn's algorithm, always picking the lowest-index ready node).
func stableTopoSort(ids []ir.ID, deps map[ir.ID][]ir.ID) ([]ir.ID, error) {
	pos := make(map[ir.ID]int, len(ids))
	for i, id := range ids {
		pos[id] = i
	}

	indegree := make(map[ir.ID]int, len(ids))
	dependents := make(map[ir.ID][]ir.ID, len(ids))
	for _, id := range ids {
		indegree[id] = 0
	}
	for id, ds := range deps {
		for _, d := range ds {
			indegree[id]++
			dependents[d] = append(dependents[d], id)
		}
	}

	ready := make([]ir.ID, 0, len(ids))
	for _, id := range ids {
		if indegree[id] == 0 {
			ready = append(ready, id)
		}
	}

	out := make([]ir.ID, 0, len(ids))
	for len(ready) > 0 {
		bestI, best := 0, ready[0]
		for i, id := range ready {
			if pos[id] < pos[best] {
				bestI, best = i, id
			}
		}
		ready = append(ready[:bestI], ready[bestI+1:]...)
		out = append(out, best)

		for _, dep := range dependents[best] {
			indegree[dep]--
			if indegree[dep] == 0 {
				ready = append(ready, dep)
			}
		}
	}

	if len(out) != len(ids) {
		return nil, fmt.Errorf("postpass: sort_formats: cyclic non-recursive struct reference among formats")
	}
	return out, nil
}

// reorderBrackets rewrites mod.Code so each format's bracket range
// (DEFINE_FORMAT..END_FORMAT or DEFINE_STATE..END_STATE) appears in
// the order given, with every non-format instruction kept in its
// original relative position around them. That includes the member
// functions lower emits right after a format's END_FORMAT/END_STATE:
// they lie outside the format's range and do not move with it.
func reorderBrackets(mod *ir.Module, order []ir.ID) {
	type span struct {
		id         ir.ID
		start, end int
	}
	spans := make([]span, 0, len(order))
	for _, id := range order {
		r, ok := mod.RangeOf(id)
		if !ok {
			continue
		}
		spans = append(spans, span{id, r.Start, r.End})
	}

	byStart := make(map[int]span, len(spans))
	for _, s := range spans {
		byStart[s.start] = s
	}

	// Walk the original stream once: whenever a format span starts,
	// splice in the next not-yet-emitted span from `order` instead
	// (so formats interleave into dependency order while every
	// non-format instruction keeps its original relative position).
	out := make([]ir.Code, 0, len(mod.Code))
	emitted := make(map[ir.ID]bool, len(spans))
	idx := 0
	for idx < len(mod.Code) {
		if s, ok := byStart[idx]; ok {
			next := spans[0]
			for _, cand := range spans {
				if !emitted[cand.id] {
					next = cand
					break
				}
			}
			out = append(out, mod.Code[next.start:next.end]...)
			emitted[next.id] = true
			idx = s.end
			continue
		}
		out = append(out, mod.Code[idx])
		idx++
	}
	mod.Code = out
}
