package ast

import "wireforge.dev/bmc/token"

type typeBase struct {
	Pos_, End_ token.Pos
}

func (t *typeBase) Pos() token.Pos { return t.Pos_ }
func (t *typeBase) End() token.Pos { return t.End_ }
func (t *typeBase) node()          {}
func (*typeBase) typeNode()        {}

// VoidTy marks an expression position that produces no value
// (spec §4.6's "if yields a value" check tests for the absence of
// this type).
type voidType struct{ typeBase }

var VoidTy Type = &voidType{}

// BoolType is `bool` (spec §4.4).
type BoolType struct{ typeBase }

// IntType is `int(N, signed?)` (spec §4.4).
type IntType struct {
	typeBase
	Bits   int
	Signed bool
}

// FloatType is `float(N)` (spec §4.4).
type FloatType struct {
	typeBase
	Bits int
}

// IdentType refers to another declared type by name; it recurses on
// its resolved Base during storage-building (spec §4.4).
type IdentType struct {
	typeBase
	Name *Ident
	Base Type // the type the ident resolves to
}

// StructType refers to a Format (spec §4.4's struct_type).
type StructType struct {
	typeBase
	Format *Format
}

// IsRecursive reports whether the StructType's base format was
// flagged recursive by the upstream checker; define_storage tests for
// this combined with should_detect_recursive (spec §4.4).
func (s *StructType) IsRecursive() bool {
	return s.Format != nil && s.Format.Recursive
}

// EnumType refers to an Enum (spec §4.4).
type EnumType struct {
	typeBase
	Enum *Enum
}

// ArrayType is a fixed- or variable-length sequence.
//
// Length is nil for an open (`..`) vector; otherwise it is the
// constant or dynamic length expression. Const reports whether
// Length (when non-nil) is a compile-time constant, selecting
// between ARRAY(size=N) and VECTOR storage (spec §4.4).
type ArrayType struct {
	typeBase
	Elem   Type
	Length Expr
	Const  bool
}

// OptionalType is `T?` — lowers to OPTIONAL then the inner storage
// (spec §3).
type OptionalType struct {
	typeBase
	Inner Type
}

// PtrType is an explicit pointer/indirection type — lowers to PTR
// then the inner storage (spec §3).
type PtrType struct {
	typeBase
	Inner Type
}

// StructUnionType is the untagged list-of-member-types view of a
// union field (spec §4.4's struct_union_type, §4.10's
// DEFINE_UNION/DEFINE_UNION_MEMBER trigger).
type StructUnionType struct {
	typeBase
	Members []Type // each a StructType naming the member's shape
}

// UnionType is the discriminated view of a union field: a set of
// conditional arms, each either selecting a member type or acting as
// a catch-all (spec §4.7, §4.10's DEFINE_PROPERTY trigger).
type UnionType struct {
	typeBase
	Base       Expr // optional common discriminant expression
	Common     Type // non-nil if the union declares a common type (spec §4.7)
	Candidates []UnionCandidate
}

// UnionCandidate is one `{arm-cond, arm-field}` pair of a UnionType
// (spec §4.7). Cond is nil for an "any range" catch-all arm.
type UnionCandidate struct {
	Cond  Expr
	Field *Field
}

// RangeType is `a..b` or `a..<=b` used in a `for x in range` loop
// header (spec §4.6).
type RangeType struct {
	typeBase
	Start, Stop Expr
	Inclusive   bool
}
