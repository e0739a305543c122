package postpass

import "wireforge.dev/bmc/ir"

// DecideBitFieldSize is spec §5's second fixed-order post-pass: every
// DEFINE_BIT_FIELD bracket's total width is the sum of its member
// fields' storage widths, when every member's width is statically
// known. A bracket with any variable-width member stays Unknown —
// its packed size can only be decided at runtime.
func DecideBitFieldSize(mod *ir.Module) error {
	for i := range mod.Code {
		if mod.Code[i].Op != ir.OpDefineBitField {
			continue
		}
		id := mod.Code[i].Ident
		r, ok := mod.RangeOf(id)
		if !ok {
			continue
		}

		total := uint32(0)
		known := true
		for j := r.Start + 1; j < r.End-1 && known; j++ {
			c := mod.Code[j]
			if c.Op != ir.OpSpecifyStorageType {
				continue
			}
			storage, ok := mod.LookupStorage(c.StorageRef)
			if !ok || len(storage) == 0 || !storage[0].Size.Known() {
				known = false
				break
			}
			total += storage[0].Size.Size()
		}

		if known {
			mod.Code[i].BitSize = ir.PlusOneOf(total)
		}
	}
	return nil
}
