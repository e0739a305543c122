package postpass

import (
	"fmt"

	"wireforge.dev/bmc/bmerr"
	"wireforge.dev/bmc/ir"
)

// Flatten is the first fixed-order post-pass (spec §5). Lowering
// already emits a single flat instruction stream rather than a
// nested tree, so there is no tree to collapse here; Flatten instead
// validates the invariant every later pass depends on — that any
// non-zero ID an instruction references either names an earlier
// DEFINE_X or was minted by expression lowering — and rebuilds the
// ID→index map so later passes start from a known-good index.
func Flatten(mod *ir.Module) error {
	seen := make(map[ir.ID]bool, len(mod.Code))
	for i, c := range mod.Code {
		for _, ref := range operandRefs(c) {
			if ref == 0 {
				continue
			}
			if !seen[ref] {
				return fmt.Errorf("postpass: flatten: instruction %d (%s) references id %d before it is produced: %w",
					i, c.Op, ref, bmerr.BugInvariant)
			}
		}
		if c.Ident != 0 {
			seen[c.Ident] = true
		}
	}
	mod.Reindex()
	return nil
}

// operandRefs returns every ID-valued operand an instruction reads,
// ignoring Ident (its own declaration, not a read of something
// earlier) and Belong (a scope reference, not a data dependency).
func operandRefs(c ir.Code) []ir.ID {
	refs := []ir.ID{c.Ref, c.LeftRef, c.RightRef, c.DynamicRef, c.CheckAt, c.Fallback}
	refs = append(refs, c.Param.Refs...)
	for _, p := range c.Phi {
		refs = append(refs, p.Cond, p.Value)
	}
	if c.Metadata != nil {
		refs = append(refs, c.Metadata.Args...)
	}
	return refs
}
