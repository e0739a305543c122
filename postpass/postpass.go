// Package postpass runs the fixed-order transformations spec §5
// applies to a freshly lowered Module before it is serialized:
// flattening, bit-field sizing, encoder/decoder synthesis, format
// ordering, union-field merging, property derivation, CFG side-data,
// and bit-operation expansion.
//
// Each pass mutates the Module (and, where it inserts or reorders
// instructions, calls Module.Reindex) in place; Run applies them in
// the one order spec §5 requires, since later passes depend on
// earlier ones having already run (e.g. bind_encoder_and_decoder must
// see every DEFINE_FIELD's FieldInfo before sort_formats is free to
// relocate them).
package postpass

import (
	"wireforge.dev/bmc/ast"
	"wireforge.dev/bmc/lower"
)

// Run applies every post-pass to l's Module in spec §5's fixed order:
// flatten, decide_bit_field_size, bind_encoder_and_decoder,
// sort_formats, merge_conditional_field, derive_property_functions,
// generate_cfg1, expand_bit_operation.
func Run(l *lower.Lowering, prog *ast.Program) error {
	mod := l.Module()

	if err := Flatten(mod); err != nil {
		return err
	}
	if err := DecideBitFieldSize(mod); err != nil {
		return err
	}
	if err := BindEncoderAndDecoder(l, prog.Formats); err != nil {
		return err
	}
	if err := SortFormats(mod, prog.Formats, l); err != nil {
		return err
	}
	if err := MergeConditionalField(mod); err != nil {
		return err
	}
	if err := DerivePropertyFunctions(mod); err != nil {
		return err
	}
	if err := GenerateCFG1(mod); err != nil {
		return err
	}
	if err := ExpandBitOperation(mod); err != nil {
		return err
	}
	return nil
}
