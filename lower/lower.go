// Package lower translates a checked upstream AST (package ast) into
// the AbstractOp IR (package ir): definition lowering, expression
// lowering, control-flow lowering with phi insertion, and
// union-condition lowering (spec §2, §4). Encode/decode synthesis is
// not done here; package postpass runs it afterwards.
package lower

import (
	"fmt"

	"wireforge.dev/bmc/ast"
	"wireforge.dev/bmc/bmerr"
	"wireforge.dev/bmc/ir"
)

// Lowering carries the one Module under construction plus the
// scratch state a single compile needs: the current enclosing scope
// (belong), the formats/enums seen so far (for type resolution), and
// a FieldInfo record per lowered field. It is not reentrant —
// exactly one Compile call owns a lowering (spec §5).
type Lowering struct {
	mod *ir.Module

	belong ir.ID // current DEFINE_FORMAT/STATE/BIT_FIELD id, for the `belong` operand

	// formatIDs/enumIDs map a *ast.Format / *ast.Enum to its minted
	// definition ID, minted and cached on first reference so forward
	// references (a field referring to a format declared later)
	// resolve to the same ID as the later definition.
	formatIDs map[*ast.Format]ir.ID
	enumIDs   map[*ast.Enum]ir.ID

	// Coder function IDs are not tracked here: bind_encoder_and_decoder
	// (package postpass) emits CALL_ENCODE/CALL_DECODE with Ref = format
	// id while synthesizing, then retargets them to the coder
	// function's ID (spec §9's "two-phase naming for coders").

	// fieldInfo records, for every DEFINE_FIELD this pass emits, the
	// metadata bind_encoder_and_decoder needs to synthesize that
	// field's coding (see FieldInfo).
	fieldInfo map[ir.ID]*FieldInfo
}

// Compile lowers prog into a new Module. It returns the first error
// encountered; no partial IR from a failed lowering should be
// serialized. The returned Lowering stays live after Compile returns
// so package postpass can reuse its expression/storage-building logic
// and FieldInfo records when synthesizing codecs (spec §4.8, §4.9).
func Compile(prog *ast.Program) (*ir.Module, *Lowering, error) {
	l := &Lowering{
		mod:       ir.NewModule(),
		formatIDs: make(map[*ast.Format]ir.ID),
		enumIDs:   make(map[*ast.Enum]ir.ID),
		fieldInfo: make(map[ir.ID]*FieldInfo),
	}
	if err := l.program(prog); err != nil {
		return nil, nil, err
	}
	return l.mod, l, nil
}

// internIdent interns id by its canonical binding, or mints a fresh
// ephemeral ID if id is nil (spec §4.2's lookup_ident).
func (l *Lowering) internIdent(id *ast.Ident) ir.ID {
	if id == nil {
		return l.mod.LookupIdent(nil, "")
	}
	canon := id.Canonical()
	return l.mod.LookupIdent(canon, canon.Name)
}

// define emits a DEFINE_X instruction carrying ident and the current
// belong, opens its range, and returns its ID.
func (l *Lowering) define(op ir.Op, ident ir.ID) ir.ID {
	return l.defineWith(op, ident, nil)
}

// defineWith is define plus a setter for the operands particular to
// one DEFINE_X kind (e.g. DEFINE_FUNCTION's FuncType/StorageRef).
func (l *Lowering) defineWith(op ir.Op, ident ir.ID, set func(*ir.Code)) ir.ID {
	belong := l.belong
	l.mod.EmitWith(op, func(c *ir.Code) {
		c.Ident = ident
		c.Belong = belong
		if set != nil {
			set(c)
		}
	})
	l.mod.OpenRange(ident)
	return ident
}

// end emits an END_X instruction and closes ident's range.
func (l *Lowering) end(op ir.Op, ident ir.ID) {
	l.mod.Emit(op)
	l.mod.CloseRange(ident)
}

// withBelong runs fn with l.belong temporarily set to id, restoring
// the previous value afterward (spec §4.10's bit-field belong
// remapping).
func (l *Lowering) withBelong(id ir.ID, fn func() error) error {
	prev := l.belong
	l.belong = id
	err := fn()
	l.belong = prev
	return err
}

// LowerExpr lowers e in the Lowering's current scope. Exported so
// package postpass can re-lower a field's length/sub-range/
// direct-match expression fresh inside a synthesized encode/decode
// function's own bracket, rather than referencing an IR value minted
// outside it (spec §4.8, §4.9, §4.11).
func (l *Lowering) LowerExpr(e ast.Expr) (ir.ID, error) { return l.expr(e) }

// WithBelong runs fn with the current scope set to id. Exported for
// the same reason as LowerExpr: bind_encoder_and_decoder emits inside
// the synthesized function's own belong, not the field's.
func (l *Lowering) WithBelong(id ir.ID, fn func() error) error { return l.withBelong(id, fn) }

// Define emits a DEFINE_X/bracket-open instruction for ident in the
// current scope, for postpass to mint synthesized functions and their
// parameters with the same bookkeeping lowering itself uses.
func (l *Lowering) Define(op ir.Op, ident ir.ID) ir.ID { return l.define(op, ident) }

// DefineWith is Define plus an operand setter.
func (l *Lowering) DefineWith(op ir.Op, ident ir.ID, set func(*ir.Code)) ir.ID {
	return l.defineWith(op, ident, set)
}

// End emits an END_X instruction and closes ident's range.
func (l *Lowering) End(op ir.Op, ident ir.ID) { l.end(op, ident) }

// Module returns the Module this Lowering builds into, so postpass
// can append synthesized instructions and storage/string interning
// directly rather than threading them back through Compile's return.
func (l *Lowering) Module() *ir.Module { return l.mod }

// FormatID returns the ID a Format was (or will be) defined under,
// minting and caching it on first reference so a post-pass walking
// formats in a different order than declaration still agrees with
// lowering on each format's identity.
func (l *Lowering) FormatID(f *ast.Format) (ir.ID, error) { return l.formatID(f) }

// EnumID is FormatID's counterpart for Enum.
func (l *Lowering) EnumID(e *ast.Enum) (ir.ID, error) { return l.enumID(e) }

// InternIdent is internIdent, exported so postpass can recover the ID
// lowering assigned a *ast.Ident (e.g. a field's own identifier) to
// look up its FieldInfo.
func (l *Lowering) InternIdent(id *ast.Ident) ir.ID { return l.internIdent(id) }

func bug(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, bmerr.BugInvariant)...)
}

func unsupportedType(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, bmerr.UnsupportedType)...)
}

func unsupportedOp(format string, args ...any) error {
	return fmt.Errorf(format+": %w", append(args, bmerr.UnsupportedOp)...)
}
