package postpass

import (
	"fmt"

	"wireforge.dev/bmc/bmerr"
	"wireforge.dev/bmc/ir"
)

// MergeConditionalField is spec §5's fifth fixed-order post-pass and
// the back half of spec §4.7's union-condition lowering: lowering
// already emitted a MERGED_CONDITIONAL_FIELD(merge_mode=COMMON_TYPE)
// at the close of any DEFINE_PROPERTY whose union declared a common
// type, with its StorageRef set to that common type's storage. This
// pass walks every such property, confirms
// every CONDITIONAL_FIELD arm's field storage actually agrees with
// the declared common type, and settles the DEFINE_PROPERTY's own
// StorageRef on it — the single type derive_property_functions builds
// a getter/setter around, rather than any one arm's.
func MergeConditionalField(mod *ir.Module) error {
	for i := range mod.Code {
		if mod.Code[i].Op != ir.OpDefineProperty {
			continue
		}
		propID := mod.Code[i].Ident
		r, ok := mod.RangeOf(propID)
		if !ok {
			continue
		}

		var mergeIdx = -1
		var armStorage []ir.StorageRef
		for j := r.Start + 1; j < r.End-1; j++ {
			c := mod.Code[j]
			switch c.Op {
			case ir.OpDefineField, ir.OpSpecifyStorageType:
				if c.StorageRef != 0 {
					armStorage = append(armStorage, c.StorageRef)
				}
			case ir.OpMergedConditionalField:
				mergeIdx = j
			}
		}
		if mergeIdx < 0 {
			continue
		}

		common := mod.Code[mergeIdx].StorageRef
		for _, ref := range armStorage {
			if ref != common {
				return fmt.Errorf("postpass: merge_conditional_field: property %d's arms disagree on common type (ref %d vs %d): %w",
					propID, ref, common, bmerr.BugInvariant)
			}
		}

		mod.Code[i].StorageRef = common
		mod.Code[i].MergeMode = ir.MergeCommonType
	}
	return nil
}
