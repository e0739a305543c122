// Package irgen generates ir/ops_gen.go from a declarative opcode
// table. It is not invoked by any build step in this module; its
// output is checked in directly. Regenerate by running its main
// package locally and committing the result.
package irgen

// OpDef describes one AbstractOp (spec §3's "enum over ~250 abstract
// opcodes" — this table holds every opcode this module's lowering and
// post-pass code actually names; it is a grounded subset, not the
// full historical superset).
type OpDef struct {
	Name     string // Go identifier suffix: Op<Name>
	Abstract bool   // set only on the IMMEDIATE_* literal ops; no code in this module reads it
}

// AbstractOps is grouped to match spec §2's component breakdown.
var AbstractOps = []OpDef{
	{Name: "Invalid"},

	// Definition brackets (§3 Ranges, §4.10).
	{Name: "DefineProgram"}, {Name: "EndProgram"},
	{Name: "DefineFormat"}, {Name: "EndFormat"},
	{Name: "DefineState"}, {Name: "EndState"},
	{Name: "DefineEnum"}, {Name: "EndEnum"},
	{Name: "DefineEnumMember"}, {Name: "EndEnumMember"},
	{Name: "DefineField"}, {Name: "EndField"},
	{Name: "DefineFunction"}, {Name: "EndFunction"},
	{Name: "DefineParameter"}, {Name: "EndParameter"},
	{Name: "DefineUnion"}, {Name: "EndUnion"},
	{Name: "DefineUnionMember"}, {Name: "EndUnionMember"},
	{Name: "DefineProperty"}, {Name: "EndProperty"},
	{Name: "DefineBitField"}, {Name: "EndBitField"},
	{Name: "DefineVariable"}, {Name: "DefineVariableRef"}, {Name: "DefineTempVariable"},

	// Type/storage annotation (§4.4).
	{Name: "SpecifyStorageType"}, {Name: "SpecifyFixedValue"},

	// Literals (§4.5).
	{Name: "ImmediateInt", Abstract: true}, {Name: "ImmediateInt64", Abstract: true},
	{Name: "ImmediateChar", Abstract: true}, {Name: "ImmediateString", Abstract: true},
	{Name: "ImmediateTrue", Abstract: true}, {Name: "ImmediateFalse", Abstract: true},
	{Name: "ImmediateType", Abstract: true},

	// Expressions (§4.5).
	{Name: "IdentRef"}, {Name: "Access"}, {Name: "ArraySize"}, {Name: "Index"},
	{Name: "Unary"}, {Name: "Binary"}, {Name: "Assign"}, {Name: "Append"},
	{Name: "CallCast"}, {Name: "Call"}, {Name: "FieldAvailable"}, {Name: "EvalExpr"},
	{Name: "NewObject"},

	// Control flow (§4.6).
	{Name: "If"}, {Name: "Elif"}, {Name: "Else"}, {Name: "EndIf"},
	{Name: "ExhaustiveMatch"}, {Name: "Match"}, {Name: "Case"}, {Name: "DefaultCase"},
	{Name: "EndCase"}, {Name: "EndMatch"},
	{Name: "LoopInfinite"}, {Name: "LoopCondition"}, {Name: "EndLoop"}, {Name: "Inc"},
	{Name: "Break"}, {Name: "Continue"}, {Name: "Phi"},

	// Union discrimination (§4.7).
	{Name: "SwitchUnion"}, {Name: "CheckUnion"},
	{Name: "ConditionalField"}, {Name: "MergedConditionalField"},

	// Encode synthesis (§4.8).
	{Name: "EncodeInt"}, {Name: "EncodeIntVector"}, {Name: "EncodeIntVectorFixed"},
	{Name: "LengthCheck"}, {Name: "CheckRecursiveStruct"}, {Name: "CallEncode"},
	{Name: "Cast"},

	// Decode synthesis (§4.9).
	{Name: "DecodeInt"}, {Name: "DecodeIntVector"}, {Name: "DecodeIntVectorUntilEOF"},
	{Name: "CanRead"}, {Name: "RemainBytes"}, {Name: "PeekIntVector"},
	{Name: "ReserveSize"}, {Name: "CallDecode"}, {Name: "AssertEqual"},

	// Return / error (§4.10, §7).
	{Name: "RetSuccess"}, {Name: "RetError"},

	// Sub-ranges and I/O collaborators (§4.11, §6).
	{Name: "SeekEncoder"}, {Name: "SeekDecoder"},
	{Name: "BeginEncodeSubRange"}, {Name: "EndEncodeSubRange"},
	{Name: "BeginDecodeSubRange"}, {Name: "EndDecodeSubRange"},
	{Name: "InputBackward"}, {Name: "InputOffset"}, {Name: "InputBitOffset"},
	{Name: "InputGet"}, {Name: "OutputPut"},

	// Endianness and accessor synthesis (§9).
	{Name: "IsLittleEndian"},
	{Name: "PropertyGetterPtr"}, {Name: "PropertyGetterOptional"}, {Name: "PropertySetter"},

	// Bit-field pack/unpack brackets, inserted by expand_bit_operation
	// (§4.10 scenario E) around each bit-packed field's coding run; as
	// the last post-pass (spec §5), it leaves them in the serialized
	// module.
	{Name: "PackedFieldBegin"}, {Name: "PackedFieldEnd"},
}
