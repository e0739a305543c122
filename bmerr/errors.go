// Package bmerr defines the sentinel error kinds the core can
// return. Callers use errors.Is against these sentinels; every
// returned error wraps one of them with context via fmt.Errorf's %w.
package bmerr

import "errors"

var (
	// VarintOverflow is returned when a value does not fit the
	// 30-bit varint payload (spec §4.1, §7).
	VarintOverflow = errors.New("varint: value exceeds 30-bit maximum")

	// UnsupportedType is returned when a field or expression names a
	// type the core has no lowering for.
	UnsupportedType = errors.New("bm: unsupported type")

	// UnsupportedOp is returned when an expression uses an operator
	// the core has no lowering for.
	UnsupportedOp = errors.New("bm: unsupported operator")

	// InvalidLiteral is returned when a literal's value cannot be
	// represented in its declared type (e.g. an out-of-range
	// IMMEDIATE_INT).
	InvalidLiteral = errors.New("bm: invalid literal")

	// MissingBinding is returned when an identifier has no resolvable
	// declaration (a nil Base where the lowering expects a canonical
	// binding).
	MissingBinding = errors.New("bm: missing identifier binding")

	// BugInvariant is returned when an internal invariant the core
	// relies on does not hold at runtime — e.g. a union type with zero
	// candidates, or a read of prev_expr when none was set. It signals a
	// defect in this module, not a malformed input.
	BugInvariant = errors.New("bm: internal invariant violated")

	// MissingSubRangeBegin names a field's sub-range that specifies a
	// Length but no Begin and no current offset to seek from. No code
	// in this module returns it: field sub-ranges are decoded into the
	// AST but not lowered or checked.
	MissingSubRangeBegin = errors.New("bm: sub-range has no begin offset")

	// InvalidFollow names a field's Follow rule that can't be
	// satisfied by its type (e.g. follow=constant on a non-array
	// field). No code in this module returns it: Follow rules are not
	// checked.
	InvalidFollow = errors.New("bm: invalid follow rule for field type")

	// SerializationError is returned when the on-disk binary module
	// is structurally invalid: a length field that disagrees with
	// what follows it, a dangling reference, or a table that fails to
	// parse.
	SerializationError = errors.New("bm: serialization error")
)
