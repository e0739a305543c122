package postpass

import (
	"fmt"

	"wireforge.dev/bmc/ast"
	"wireforge.dev/bmc/ir"
	"wireforge.dev/bmc/lower"
)

// BindEncoderAndDecoder is spec §5's third fixed-order post-pass and
// spec §9's "two-phase naming for coders": while synthesizing, it
// emits CALL_ENCODE/CALL_DECODE for every nested struct field with Ref
// set to the referenced format's own definition ID, a placeholder,
// since the encoder/decoder function for that format may not exist yet
// (or ever, if the user authored one by hand). This pass synthesizes a
// coder for every format that didn't author one, then retargets every
// placeholder Ref to the coder function's own ID in a single rewrite
// so call sites never have to be revisited a second time.
func BindEncoderAndDecoder(l *lower.Lowering, formats []*ast.Format) error {
	mod := l.Module()

	encoderOf := make(map[ir.ID]ir.ID, len(formats))
	decoderOf := make(map[ir.ID]ir.ID, len(formats))

	for _, f := range formats {
		formatID, err := l.FormatID(f)
		if err != nil {
			return err
		}

		userEncode, userDecode := authoredCoders(f)

		if userEncode != nil {
			encoderOf[formatID] = l.InternIdent(userEncode.Ident)
		} else {
			id, err := synthesizeEncode(l, f, formatID)
			if err != nil {
				return fmt.Errorf("postpass: bind_encoder_and_decoder: synthesizing encoder for %s: %w", f.Ident.Name, err)
			}
			encoderOf[formatID] = id
		}

		if userDecode != nil {
			decoderOf[formatID] = l.InternIdent(userDecode.Ident)
		} else {
			id, err := synthesizeDecode(l, f, formatID)
			if err != nil {
				return fmt.Errorf("postpass: bind_encoder_and_decoder: synthesizing decoder for %s: %w", f.Ident.Name, err)
			}
			decoderOf[formatID] = id
		}
	}

	for i := range mod.Code {
		switch mod.Code[i].Op {
		case ir.OpCallEncode:
			if target, ok := encoderOf[mod.Code[i].Ref]; ok {
				mod.Code[i].Ref = target
			}
		case ir.OpCallDecode:
			if target, ok := decoderOf[mod.Code[i].Ref]; ok {
				mod.Code[i].Ref = target
			}
		}
	}
	mod.Reindex()
	return nil
}

// authoredCoders returns the format's own hand-written encode()/
// decode() member functions, if it declared any (spec §4.8's "a
// format may author its own coder, in which case no synthesis runs").
func authoredCoders(f *ast.Format) (encode, decode *ast.Function) {
	for _, fn := range f.Funcs {
		switch {
		case fn.IsEncode:
			encode = fn
		case fn.IsDecode:
			decode = fn
		}
	}
	return encode, decode
}

// fieldsOf returns every FieldInfo belonging directly to formatID, in
// declaration order, for synthesizeEncode/synthesizeDecode to walk.
func fieldsOf(l *lower.Lowering, formatID ir.ID, f *ast.Format) []*lower.FieldInfo {
	byField := make(map[*ast.Field]*lower.FieldInfo)
	// Index by *ast.Field pointer rather than filtering on Belong: a
	// field inside a DEFINE_BIT_FIELD run carries that bracket's id as
	// its Belong, not the format's, so matching on Belong here would
	// silently drop every bit-packed field from the synthesized body.
	for _, info := range l.AllFieldInfo() {
		byField[info.Field] = info
	}
	out := make([]*lower.FieldInfo, 0, len(f.Fields))
	for _, field := range f.Fields {
		if info, ok := byField[field]; ok {
			out = append(out, info)
		}
	}
	return out
}

// synthesizeEncode builds a DEFINE_FUNCTION(FuncEncode) whose body
// encodes formatID's fields in declaration order (spec §4.8).
func synthesizeEncode(l *lower.Lowering, f *ast.Format, formatID ir.ID) (ir.ID, error) {
	mod := l.Module()
	fnID := mod.NewID()
	selfID := mod.NewID()

	fnIdent := fnID
	var err error
	l.DefineWith(ir.OpDefineFunction, fnIdent, func(c *ir.Code) {
		c.FuncType = ir.FuncEncode
	})

	err = l.WithBelong(fnIdent, func() error {
		selfStorage := ir.Storages{{Tag: ir.StorageStructRef, Ref: formatID}}
		l.DefineWith(ir.OpDefineParameter, selfID, func(c *ir.Code) {
			c.StorageRef = mod.InternStorage(selfStorage)
		})
		l.End(ir.OpEndParameter, selfID)

		for _, info := range fieldsOf(l, formatID, f) {
			if err := encodeField(l, info, selfID); err != nil {
				return err
			}
		}
		mod.EmitWith(ir.OpRetSuccess, func(c *ir.Code) {})
		return nil
	})
	if err != nil {
		return 0, err
	}

	l.End(ir.OpEndFunction, fnIdent)
	return fnIdent, nil
}

// synthesizeDecode builds a DEFINE_FUNCTION(FuncDecode) whose body
// decodes formatID's fields into fresh locals, one per field, then
// assembles them into the decoded object (spec §4.9).
func synthesizeDecode(l *lower.Lowering, f *ast.Format, formatID ir.ID) (ir.ID, error) {
	mod := l.Module()
	fnIdent := mod.NewID()

	l.DefineWith(ir.OpDefineFunction, fnIdent, func(c *ir.Code) {
		c.FuncType = ir.FuncDecode
		c.StorageRef = mod.InternStorage(ir.Storages{{Tag: ir.StorageStructRef, Ref: formatID}})
	})

	var fieldVars []ir.ID
	err := l.WithBelong(fnIdent, func() error {
		infos := fieldsOf(l, formatID, f)
		fieldVars = make([]ir.ID, 0, len(infos))
		for _, info := range infos {
			varID, err := decodeField(l, info)
			if err != nil {
				return err
			}
			fieldVars = append(fieldVars, varID)
		}

		objID := mod.NewID()
		mod.EmitWith(ir.OpNewObject, func(c *ir.Code) {
			c.Ident = objID
			c.Ref = formatID
			c.Param = ir.Param{Refs: fieldVars}
		})
		mod.EmitWith(ir.OpRetSuccess, func(c *ir.Code) {
			c.Ref = objID
		})
		return nil
	})
	if err != nil {
		return 0, err
	}

	l.End(ir.OpEndFunction, fnIdent)
	return fnIdent, nil
}

// encodeField emits the instructions to encode one field read off
// selfID, dispatching on the field's storage shape.
func encodeField(l *lower.Lowering, info *lower.FieldInfo, selfID ir.ID) error {
	mod := l.Module()
	storage, ok := mod.LookupStorage(info.StorageRef)
	if !ok || len(storage) == 0 {
		return fmt.Errorf("ir: field %s has no interned storage", info.Field.Ident.Name)
	}

	accessID := mod.NewID()
	mod.EmitWith(ir.OpAccess, func(c *ir.Code) {
		c.Ident = accessID
		c.Ref = selfID
		c.RightRef = info.ID
	})

	start := len(mod.Code)
	if err := encodeStorage(l, storage, accessID); err != nil {
		return err
	}
	tagBitFieldRun(mod, info.Belong, start)
	return nil
}

// tagBitFieldRun sets Belong = bitFieldID on every instruction emitted
// from index start onward that doesn't already carry one, so
// expand_bit_operation can later find this field's coding run even
// though it no longer sits next to the DEFINE_FIELD it came from
// (bind_encoder_and_decoder already moved it into the synthesized
// function's own body). A no-op if bitFieldID isn't a bit-field
// bracket — most fields aren't bit-packed.
func tagBitFieldRun(mod *ir.Module, bitFieldID ir.ID, start int) {
	idx, ok := mod.IndexOf(bitFieldID)
	if !ok || mod.Code[idx].Op != ir.OpDefineBitField {
		return
	}
	for i := start; i < len(mod.Code); i++ {
		if mod.Code[i].Belong == 0 {
			mod.Code[i].Belong = bitFieldID
		}
	}
}

// encodeStorage emits the encode instructions for one storage vector
// whose value is available at valueID, recursing through composite
// shapes (array/vector/optional/ptr) to their leaves.
func encodeStorage(l *lower.Lowering, storage ir.Storages, valueID ir.ID) error {
	mod := l.Module()
	head := storage[0]

	switch head.Tag {
	case ir.StorageBool, ir.StorageUint, ir.StorageInt:
		mod.EmitWith(ir.OpEncodeInt, func(c *ir.Code) {
			c.Ref = valueID
			c.BitSize = head.Size
			c.Signed = head.Signed
		})
		return nil

	case ir.StorageFloat:
		castID := mod.NewID()
		mod.EmitWith(ir.OpCast, func(c *ir.Code) {
			c.Ident = castID
			c.Ref = valueID
			c.CastType = ir.CastFloatToIntBits
		})
		mod.EmitWith(ir.OpEncodeInt, func(c *ir.Code) {
			c.Ref = castID
			c.BitSize = head.Size
		})
		return nil

	case ir.StorageEnum:
		castID := mod.NewID()
		mod.EmitWith(ir.OpCast, func(c *ir.Code) {
			c.Ident = castID
			c.Ref = valueID
			c.CastType = ir.CastEnumToInt
		})
		return encodeStorage(l, storage[1:], castID)

	case ir.StorageStructRef, ir.StorageRecursiveStructRef:
		mod.EmitWith(ir.OpCallEncode, func(c *ir.Code) {
			c.Ref = head.Ref
			c.RightRef = valueID
		})
		return nil

	case ir.StorageOptional, ir.StoragePtr:
		return encodeStorage(l, storage[1:], valueID)

	case ir.StorageArray, ir.StorageVector:
		return encodeArrayStorage(l, storage, valueID)

	default:
		return fmt.Errorf("postpass: bind_encoder_and_decoder: unsupported encode storage tag %d", head.Tag)
	}
}

// encodeArrayStorage emits an element-wise encode loop (or the
// int-vector fast path for a plain integer element).
func encodeArrayStorage(l *lower.Lowering, storage ir.Storages, valueID ir.ID) error {
	mod := l.Module()
	elem := storage[1:]

	if len(elem) == 1 && (elem[0].Tag == ir.StorageUint || elem[0].Tag == ir.StorageInt) {
		op := ir.OpEncodeIntVector
		if storage[0].Tag == ir.StorageArray {
			op = ir.OpEncodeIntVectorFixed
		}
		mod.EmitWith(op, func(c *ir.Code) {
			c.Ref = valueID
			c.BitSize = elem[0].Size
			c.Signed = elem[0].Signed
		})
		return nil
	}

	idxID := mod.NewID()
	lenID := mod.NewID()
	mod.EmitWith(ir.OpArraySize, func(c *ir.Code) {
		c.Ident = lenID
		c.Ref = valueID
	})
	mod.EmitWith(ir.OpDefineVariable, func(c *ir.Code) {
		c.Ident = idxID
	})

	condID := mod.NewID()
	mod.EmitWith(ir.OpBinary, func(c *ir.Code) {
		c.Ident = condID
		c.Bop = ir.BinLess
		c.LeftRef = idxID
		c.RightRef = lenID
	})
	mod.EmitWith(ir.OpLoopCondition, func(c *ir.Code) { c.Ref = condID })

	elemID := mod.NewID()
	mod.EmitWith(ir.OpIndex, func(c *ir.Code) {
		c.Ident = elemID
		c.Ref = valueID
		c.RightRef = idxID
	})
	if err := encodeStorage(l, elem, elemID); err != nil {
		return err
	}
	mod.EmitWith(ir.OpInc, func(c *ir.Code) {
		c.Ref = idxID
	})
	mod.Emit(ir.OpEndLoop)
	return nil
}

// decodeField decodes one field into a fresh DEFINE_VARIABLE and
// returns the variable's ID for the caller's NEW_OBJECT argument list.
func decodeField(l *lower.Lowering, info *lower.FieldInfo) (ir.ID, error) {
	mod := l.Module()
	storage, ok := mod.LookupStorage(info.StorageRef)
	if !ok || len(storage) == 0 {
		return 0, fmt.Errorf("ir: field %s has no interned storage", info.Field.Ident.Name)
	}

	varID := mod.NewID()
	mod.EmitWith(ir.OpDefineVariable, func(c *ir.Code) {
		c.Ident = varID
	})
	start := len(mod.Code)
	valueID, err := decodeStorage(l, storage)
	if err != nil {
		return 0, err
	}
	tagBitFieldRun(mod, info.Belong, start)
	mod.EmitWith(ir.OpAssign, func(c *ir.Code) {
		c.LeftRef = varID
		c.RightRef = valueID
	})
	return varID, nil
}

// decodeStorage is encodeStorage's mirror: it emits the instructions
// that produce one decoded value and returns the ID holding it.
func decodeStorage(l *lower.Lowering, storage ir.Storages) (ir.ID, error) {
	mod := l.Module()
	head := storage[0]

	switch head.Tag {
	case ir.StorageBool, ir.StorageUint, ir.StorageInt:
		id := mod.NewID()
		mod.EmitWith(ir.OpDecodeInt, func(c *ir.Code) {
			c.Ident = id
			c.BitSize = head.Size
			c.Signed = head.Signed
		})
		return id, nil

	case ir.StorageFloat:
		bits := mod.NewID()
		mod.EmitWith(ir.OpDecodeInt, func(c *ir.Code) {
			c.Ident = bits
			c.BitSize = head.Size
		})
		floatID := mod.NewID()
		mod.EmitWith(ir.OpCast, func(c *ir.Code) {
			c.Ident = floatID
			c.Ref = bits
			c.CastType = ir.CastIntToFloatBits
		})
		return floatID, nil

	case ir.StorageEnum:
		underlying, err := decodeStorage(l, storage[1:])
		if err != nil {
			return 0, err
		}
		enumID := mod.NewID()
		mod.EmitWith(ir.OpCast, func(c *ir.Code) {
			c.Ident = enumID
			c.Ref = underlying
			c.CastType = ir.CastIntToEnum
			c.StorageRef = mod.InternStorage(storage)
		})
		return enumID, nil

	case ir.StorageStructRef, ir.StorageRecursiveStructRef:
		id := mod.NewID()
		mod.EmitWith(ir.OpCallDecode, func(c *ir.Code) {
			c.Ident = id
			c.Ref = head.Ref
		})
		return id, nil

	case ir.StorageOptional, ir.StoragePtr:
		return decodeStorage(l, storage[1:])

	case ir.StorageArray, ir.StorageVector:
		return decodeArrayStorage(l, storage)

	default:
		return 0, fmt.Errorf("postpass: bind_encoder_and_decoder: unsupported decode storage tag %d", head.Tag)
	}
}

// decodeArrayStorage mirrors encodeArrayStorage: the int-vector fast
// path for a plain integer element, else a decode loop that runs
// while CAN_READ holds and appends each decoded element to a fresh
// array variable.
func decodeArrayStorage(l *lower.Lowering, storage ir.Storages) (ir.ID, error) {
	mod := l.Module()
	elem := storage[1:]

	if len(elem) == 1 && (elem[0].Tag == ir.StorageUint || elem[0].Tag == ir.StorageInt) {
		id := mod.NewID()
		mod.EmitWith(ir.OpDecodeIntVector, func(c *ir.Code) {
			c.Ident = id
			c.BitSize = elem[0].Size
			c.Signed = elem[0].Signed
		})
		return id, nil
	}

	arrID := mod.NewID()
	mod.EmitWith(ir.OpDefineVariable, func(c *ir.Code) {
		c.Ident = arrID
	})

	canRead := mod.NewID()
	mod.EmitWith(ir.OpCanRead, func(c *ir.Code) { c.Ident = canRead })
	mod.EmitWith(ir.OpLoopCondition, func(c *ir.Code) { c.Ref = canRead })
	elemID, err := decodeStorage(l, elem)
	if err != nil {
		return 0, err
	}
	mod.EmitWith(ir.OpAppend, func(c *ir.Code) {
		c.LeftRef = arrID
		c.RightRef = elemID
	})
	mod.Emit(ir.OpEndLoop)
	return arrID, nil
}
