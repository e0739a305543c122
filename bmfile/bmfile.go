// Package bmfile serializes and deserializes the compiler's on-disk
// BinaryModule format (spec §6): a leading max_id varint, five
// length-prefixed interning tables (metadata, strings, identifiers,
// ident_indexes, types), a programs table, an ident_ranges table, and
// finally the varint-counted stream of Code records the pipeline
// produced.
//
// The layout mirrors the teacher's rpkg object-file format: a fixed
// sequence of independently length-prefixed sections, built with
// golang.org/x/crypto/cryptobyte.Builder and read back with
// cryptobyte.String.
package bmfile

import "wireforge.dev/bmc/ir"

// operand flag bits, in Code field declaration order. A Code record's
// flags word says which of its optional operands were written, so a
// sparsely populated instruction (the common case: spec §3's operand
// model says "only the operands relevant to Op are populated") costs
// only the bits it needs.
const (
	flagIdent uint32 = 1 << iota
	flagRef
	flagLeftRef
	flagRightRef
	flagBelong
	flagBop
	flagUop
	flagIntValue
	flagIntValue64
	flagBitSize
	flagEndian
	flagSigned
	flagDynamicRef
	flagStorage
	flagStorageRef
	flagCastType
	flagMergeMode
	flagCheckAt
	flagPackedOpType
	flagSubRangeType
	flagFuncType
	flagEncodeFlags
	flagDecodeFlags
	flagParam
	flagMetadata
	flagPhi
	flagFallback
)

// codeFlags computes c's operand presence word: a bit is set whenever
// the corresponding field differs from its zero value, mirroring the
// sparse-operand convention ir.Code itself already follows.
func codeFlags(c *ir.Code) uint32 {
	var f uint32
	if c.Ident != 0 {
		f |= flagIdent
	}
	if c.Ref != 0 {
		f |= flagRef
	}
	if c.LeftRef != 0 {
		f |= flagLeftRef
	}
	if c.RightRef != 0 {
		f |= flagRightRef
	}
	if c.Belong != 0 {
		f |= flagBelong
	}
	if c.Bop != 0 {
		f |= flagBop
	}
	if c.Uop != 0 {
		f |= flagUop
	}
	if c.IntValue != 0 {
		f |= flagIntValue
	}
	if c.IntValue64 != 0 {
		f |= flagIntValue64
	}
	if c.BitSize != 0 {
		f |= flagBitSize
	}
	if c.Endian != 0 {
		f |= flagEndian
	}
	if c.Signed {
		f |= flagSigned
	}
	if c.DynamicRef != 0 {
		f |= flagDynamicRef
	}
	if c.Storage != nil {
		f |= flagStorage
	}
	if c.StorageRef != 0 {
		f |= flagStorageRef
	}
	if c.CastType != 0 {
		f |= flagCastType
	}
	if c.MergeMode != 0 {
		f |= flagMergeMode
	}
	if c.CheckAt != 0 {
		f |= flagCheckAt
	}
	if c.PackedOpType != 0 {
		f |= flagPackedOpType
	}
	if c.SubRangeType != 0 {
		f |= flagSubRangeType
	}
	if c.FuncType != 0 {
		f |= flagFuncType
	}
	if c.EncodeFlags != 0 {
		f |= flagEncodeFlags
	}
	if c.DecodeFlags != 0 {
		f |= flagDecodeFlags
	}
	if len(c.Param.Refs) != 0 {
		f |= flagParam
	}
	if c.Metadata != nil {
		f |= flagMetadata
	}
	if len(c.Phi) != 0 {
		f |= flagPhi
	}
	if c.Fallback != 0 {
		f |= flagFallback
	}
	return f
}
