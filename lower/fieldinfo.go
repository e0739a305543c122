package lower

import (
	"wireforge.dev/bmc/ast"
	"wireforge.dev/bmc/ir"
)

// FieldInfo is the per-field record bind_encoder_and_decoder consults
// when synthesizing a format's codec functions: it names the field's
// storage without requiring a second AST walk, while still handing
// back the original *ast.Field so a post-pass can re-lower a length,
// sub-range, or direct-match expression fresh inside the synthesized
// function's own bracket (spec §4.8, §4.9, §4.11 — an IR value can't
// be referenced outside the bracket that produced it).
type FieldInfo struct {
	Field      *ast.Field
	ID         ir.ID
	Belong     ir.ID
	StorageRef ir.StorageRef
}

// FieldInfo returns the recorded metadata for a field id, or nil if
// lowering never emitted a DEFINE_FIELD for it.
func (l *Lowering) FieldInfo(id ir.ID) *FieldInfo {
	return l.fieldInfo[id]
}

// AllFieldInfo returns every field lowering recorded, keyed by field
// ID, for bind_encoder_and_decoder to range over.
func (l *Lowering) AllFieldInfo() map[ir.ID]*FieldInfo {
	return l.fieldInfo
}

func (l *Lowering) recordFieldInfo(f *ast.Field, id ir.ID, ref ir.StorageRef) {
	l.fieldInfo[id] = &FieldInfo{
		Field:      f,
		ID:         id,
		Belong:     l.belong,
		StorageRef: ref,
	}
}
