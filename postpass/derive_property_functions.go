package postpass

import "wireforge.dev/bmc/ir"

// DerivePropertyFunctions is spec §5's sixth fixed-order post-pass: for
// every DEFINE_PROPERTY whose union carried a common type, it
// synthesizes the getters and the setter a generated-code backend
// calls to read or write the merged value, rather than asking every
// backend to re-derive the union's discriminant logic itself. A
// property without a common type gets no accessors.
//
// Open question (spec §9): a property's accessor can be expressed
// either as PROPERTY_GETTER_PTR (return a pointer to the arm's
// storage, or nil) or PROPERTY_GETTER_OPTIONAL (return an explicit
// has/value pair) — spec.md leaves the choice to the backend. This
// core always emits both, each carrying the property's CheckAt, and
// each one's Fallback names the other getter's ID so a backend
// preferring the alternate representation never has to re-derive it
// from the union arms.
func DerivePropertyFunctions(mod *ir.Module) error {
	for i := range mod.Code {
		if mod.Code[i].Op != ir.OpDefineProperty {
			continue
		}
		if mod.Code[i].MergeMode != ir.MergeCommonType {
			continue // no single merged type to build an accessor around
		}
		propID := mod.Code[i].Ident
		storageRef := mod.Code[i].StorageRef
		checkAt := mod.Code[i].CheckAt

		ptrID := mod.NewID()
		optID := mod.NewID()

		mod.EmitWith(ir.OpPropertyGetterPtr, func(c *ir.Code) {
			c.Ident = ptrID
			c.Belong = propID
			c.StorageRef = storageRef
			c.CheckAt = checkAt
			c.Fallback = optID
		})
		mod.EmitWith(ir.OpPropertyGetterOptional, func(c *ir.Code) {
			c.Ident = optID
			c.Belong = propID
			c.StorageRef = storageRef
			c.CheckAt = checkAt
			c.Fallback = ptrID
		})

		setterID := mod.NewID()
		mod.EmitWith(ir.OpPropertySetter, func(c *ir.Code) {
			c.Ident = setterID
			c.Belong = propID
			c.StorageRef = storageRef
		})
	}
	mod.Reindex()
	return nil
}
