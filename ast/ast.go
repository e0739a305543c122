// Package ast declares the types used to represent the upstream,
// already-type-checked syntax tree that the core lowers into the
// AbstractOp IR.
//
// This AST is not parsed by this module — a format-description
// document is parsed and semantically checked upstream, emitted as
// AST-JSON, and decoded here with [Decode]. Nothing in this package
// reads source text.
package ast

import (
	"wireforge.dev/bmc/token"
)

// Node is implemented by every AST node.
type Node interface {
	Pos() token.Pos
	End() token.Pos
	node()
}

// Expr is implemented by every expression node. Every expression
// exposes the type the upstream checker assigned it; [VoidTy]
// marks expressions used only for their side effects.
type Expr interface {
	Node
	ExprType() Type
	exprNode()
}

// Stmt is implemented by every statement node.
type Stmt interface {
	Node
	stmtNode()
}

// Type is implemented by every type node.
type Type interface {
	Node
	typeNode()
}

// Ident is an identifier reference. Two Idents that resolve to the
// same declaration share a Base pointer; the core interns by Base,
// not by Ident, so aliases collapse to one object ID (spec §4.2).
//
// A nil Ident (as opposed to an *Ident with a nil Base) denotes a
// compiler-generated ephemeral reference that never existed in
// source and always mints a fresh ID.
type Ident struct {
	Name string
	Base *Ident // canonical declaration this name resolves to; nil on the canonical Ident itself
	Pos_ token.Pos
}

func (i *Ident) Pos() token.Pos { return i.Pos_ }
func (i *Ident) End() token.Pos { return token.Pos(int(i.Pos_) + len(i.Name)) }
func (*Ident) node()            {}

// Canonical follows Base to the declaration this identifier refers to.
func (i *Ident) Canonical() *Ident {
	if i == nil {
		return nil
	}
	if i.Base == nil {
		return i
	}
	return i.Base.Canonical()
}

// Program is the root of the AST, corresponding to spec §3's
// DEFINE_PROGRAM/END_PROGRAM bracket.
type Program struct {
	Imports []*Import
	Formats []*Format
	Enums   []*Enum
	Funcs   []*Function
	Pos_    token.Pos
	End_    token.Pos
}

func (p *Program) Pos() token.Pos { return p.Pos_ }
func (p *Program) End() token.Pos { return p.End_ }
func (*Program) node()            {}

// Import is a reference to another format description document.
// The core records it only for completeness; it carries no
// lowering behavior of its own.
type Import struct {
	Ident *Ident
	Path  string
	Pos_  token.Pos
}

func (i *Import) Pos() token.Pos { return i.Pos_ }
func (i *Import) End() token.Pos { return i.Pos_ }
func (*Import) node()            {}

// Format is a struct-like definition: an ordered sequence of fields,
// plus any member functions (most commonly its generated or
// user-written encode/decode). A Format with Recursive set
// self-references somewhere in its field types and must be lowered
// via RECURSIVE_STRUCT_REF (spec §4.4, design note "Recursive
// structs as indexed references").
type Format struct {
	Ident       *Ident
	Fields      []*Field
	Funcs       []*Function
	Recursive   bool
	BitSize     *int // nil iff the format's size is not statically known
	IsState     bool
	Pos_, End_  token.Pos
}

func (f *Format) Pos() token.Pos { return f.Pos_ }
func (f *Format) End() token.Pos { return f.End_ }
func (*Format) node()            {}

// State is a format restricted to holding only state variables (no
// wire representation of its own); it is lowered the same way as a
// Format but brackets itself with DEFINE_STATE/END_STATE.
type State struct {
	Ident      *Ident
	Fields     []*Field
	Pos_, End_ token.Pos
}

func (s *State) Pos() token.Pos { return s.Pos_ }
func (s *State) End() token.Pos { return s.End_ }
func (*State) node()            {}

// Enum is a named set of integer-valued members sharing an
// optional concrete underlying integer type.
type Enum struct {
	Ident      *Ident
	Underlying Type // nil if the underlying type is not concrete
	Members    []*EnumMember
	Pos_, End_ token.Pos
}

func (e *Enum) Pos() token.Pos { return e.Pos_ }
func (e *Enum) End() token.Pos { return e.End_ }
func (*Enum) node()            {}

// EnumMember is one value of an Enum.
type EnumMember struct {
	Ident      *Ident
	Value      Expr // the member's constant value expression
	Pos_, End_ token.Pos
}

func (m *EnumMember) Pos() token.Pos { return m.Pos_ }
func (m *EnumMember) End() token.Pos { return m.End_ }
func (*EnumMember) node()            {}

// Follow describes a field's termination rule for variable-length
// trailing data (spec §4.9, GLOSSARY "Follow").
type Follow int

const (
	FollowNone     Follow = iota // fixed-size or length-prefixed; no special termination
	FollowEnd                    // extends to end of input
	FollowFixed                  // a fixed number of trailing bytes belong to a later field
	FollowConstant               // terminates when the next literal bytes match Next
)

// SubRange describes a field's bounded window into the byte stream
// (spec §4.11).
type SubRange struct {
	Begin  Expr // nil if the window starts at the current offset
	Length Expr // nil if the window is open-ended (Begin must then be non-nil)
}

// Field is a single member of a Format or State.
type Field struct {
	Ident           *Ident
	FieldType       Type
	Arguments       FieldArguments
	Follow          Follow
	Next            *StrLiteral // terminator literal when Follow == FollowConstant
	BelongStruct    *Ident      // the enclosing Format/State/BitField ident
	IsStateVariable bool
	BitAlignment    int // bit offset of this field from the start of its byte-field run
	EventualBitAlignment int // bit offset immediately after this field
	Condition       Expr // non-nil for a conditionally-included field (ternary union arm)
	Pos_, End_      token.Pos
}

func (f *Field) Pos() token.Pos { return f.Pos_ }
func (f *Field) End() token.Pos { return f.End_ }
func (*Field) node()            {}

// FieldArguments carries the optional per-field annotations named in
// spec §6.
type FieldArguments struct {
	Alignment *int
	TypeMap   map[string]Type
	SubRange  *SubRange
	DirectMatch Expr // assert-style direct value match, if present
}

// Function is a named procedure: a format's encode/decode/property
// members, or a free function.
type Function struct {
	Ident      *Ident
	Params     []*Param
	Result     Type // nil for void
	Body       []Stmt
	IsEncode   bool
	IsDecode   bool
	Belong     *Ident // enclosing Format/State, if this is a member function
	Pos_, End_ token.Pos
}

func (fn *Function) Pos() token.Pos { return fn.Pos_ }
func (fn *Function) End() token.Pos { return fn.End_ }
func (*Function) node()             {}

// Param is a single function parameter.
type Param struct {
	Ident      *Ident
	ParamType  Type
	Pos_, End_ token.Pos
}

func (p *Param) Pos() token.Pos { return p.Pos_ }
func (p *Param) End() token.Pos { return p.End_ }
func (*Param) node()            {}

// Identity marks a field whose value is itself the discriminant of
// an enclosing tagged union (used when resolving union-member
// conditions, spec §4.7).
type Identity struct {
	Target     Expr
	Pos_, End_ token.Pos
}

func (i *Identity) Pos() token.Pos       { return i.Pos_ }
func (i *Identity) End() token.Pos       { return i.End_ }
func (*Identity) node()                  {}
func (i *Identity) ExprType() Type       { return VoidTy }
func (*Identity) exprNode()              {}
