package postpass

import "wireforge.dev/bmc/ir"

// ExpandBitOperation is spec §5's eighth and final fixed-order
// post-pass (spec §4.10, §3's `packed_op_type` operand). During
// synthesis, bind_encoder_and_decoder tagged every ENCODE_INT/
// DECODE_INT (and the casts around them) produced for a
// bit-packed field with Belong set to that field's DEFINE_BIT_FIELD
// bracket id, a marker with no meaning on the wire. This pass turns
// each maximal run of same-tagged instructions into a
// PACKED_FIELD_BEGIN/PACKED_FIELD_END bracket — PackedFixed when
// decide_bit_field_size settled on a known total width, PackedVariable
// otherwise — and clears the marker so Belong goes back to meaning
// only "enclosing scope" on the serialized instructions.
func ExpandBitOperation(mod *ir.Module) error {
	codeBody := make([]bool, len(mod.Code))
	for i := range mod.Code {
		c := mod.Code[i]
		if c.Op != ir.OpDefineFunction || (c.FuncType != ir.FuncEncode && c.FuncType != ir.FuncDecode) {
			continue
		}
		r, ok := mod.RangeOf(c.Ident)
		if !ok {
			continue
		}
		for j := r.Start; j < r.End; j++ {
			codeBody[j] = true
		}
	}

	out := make([]ir.Code, 0, len(mod.Code))

	i := 0
	for i < len(mod.Code) {
		bf := mod.Code[i].Belong
		if !codeBody[i] || !isBitFieldBracket(mod, bf) {
			out = append(out, mod.Code[i])
			i++
			continue
		}

		j := i
		for j < len(mod.Code) && codeBody[j] && mod.Code[j].Belong == bf {
			j++
		}

		packedType := ir.PackedVariable
		if idx, ok := mod.IndexOf(bf); ok && mod.Code[idx].BitSize.Known() {
			packedType = ir.PackedFixed
		}

		out = append(out, ir.Code{Op: ir.OpPackedFieldBegin, PackedOpType: packedType, Belong: bf})
		for k := i; k < j; k++ {
			c := mod.Code[k]
			c.Belong = 0
			out = append(out, c)
		}
		out = append(out, ir.Code{Op: ir.OpPackedFieldEnd})
		i = j
	}

	mod.Code = out
	mod.Reindex()
	return nil
}

func isBitFieldBracket(mod *ir.Module, id ir.ID) bool {
	if id == 0 {
		return false
	}
	idx, ok := mod.IndexOf(id)
	return ok && mod.Code[idx].Op == ir.OpDefineBitField
}
