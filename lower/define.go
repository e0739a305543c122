package lower

import (
	"wireforge.dev/bmc/ast"
	"wireforge.dev/bmc/ir"
)

// program lowers the whole document inside one DEFINE_PROGRAM/
// END_PROGRAM bracket (spec §3). Imports carry no lowering behavior
// of their own and are skipped.
func (l *Lowering) program(prog *ast.Program) error {
	progID := l.mod.NewID()
	l.define(ir.OpDefineProgram, progID)

	err := l.withBelong(progID, func() error {
		for _, e := range prog.Enums {
			if err := l.enum(e); err != nil {
				return err
			}
		}
		for _, f := range prog.Formats {
			if err := l.format(f); err != nil {
				return err
			}
		}
		for _, fn := range prog.Funcs {
			if err := l.function(fn); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	l.end(ir.OpEndProgram, progID)
	return nil
}

func (l *Lowering) formatID(f *ast.Format) (ir.ID, error) {
	if f == nil {
		return 0, bug("lower: nil format reference")
	}
	if id, ok := l.formatIDs[f]; ok {
		return id, nil
	}
	id := l.internIdent(f.Ident)
	l.formatIDs[f] = id
	return id, nil
}

func (l *Lowering) enumID(e *ast.Enum) (ir.ID, error) {
	if e == nil {
		return 0, bug("lower: nil enum reference")
	}
	if id, ok := l.enumIDs[e]; ok {
		return id, nil
	}
	id := l.internIdent(e.Ident)
	l.enumIDs[e] = id
	return id, nil
}

// format lowers a Format (or, when IsState is set, a State) and its
// member functions (spec §3, §4.4).
func (l *Lowering) format(f *ast.Format) error {
	id, err := l.formatID(f)
	if err != nil {
		return err
	}

	defOp, endOp := ir.OpDefineFormat, ir.OpEndFormat
	if f.IsState {
		defOp, endOp = ir.OpDefineState, ir.OpEndState
	}

	l.define(defOp, id)
	err = l.withBelong(id, func() error {
		return l.fields(f.Fields)
	})
	if err != nil {
		return err
	}
	l.end(endOp, id)

	for _, fn := range f.Funcs {
		if err := l.function(fn); err != nil {
			return err
		}
	}
	return nil
}

func (l *Lowering) enum(e *ast.Enum) error {
	id, err := l.enumID(e)
	if err != nil {
		return err
	}

	l.define(ir.OpDefineEnum, id)
	err = l.withBelong(id, func() error {
		if e.Underlying != nil {
			storage, err := l.buildStorage(e.Underlying, false)
			if err != nil {
				return err
			}
			ref := l.mod.InternStorage(storage)
			l.mod.EmitWith(ir.OpSpecifyStorageType, func(c *ir.Code) { c.StorageRef = ref })
		}
		for _, m := range e.Members {
			if err := l.enumMember(m); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	l.end(ir.OpEndEnum, id)
	return nil
}

func (l *Lowering) enumMember(m *ast.EnumMember) error {
	id := l.internIdent(m.Ident)
	l.define(ir.OpDefineEnumMember, id)
	if m.Value != nil {
		val, err := l.expr(m.Value)
		if err != nil {
			return err
		}
		l.mod.EmitWith(ir.OpSpecifyFixedValue, func(c *ir.Code) { c.Ref = val })
		l.mod.ClearPrevExpr()
	}
	l.end(ir.OpEndEnumMember, id)
	return nil
}

// fields walks a format's field list, grouping any run that isn't
// byte-aligned on both ends into a DEFINE_BIT_FIELD/END_BIT_FIELD
// bracket (spec §4.10's bit_alignment/eventual_bit_alignment
// tracking). A run starts at the first field whose start or end isn't
// byte-aligned and extends through the field that restores byte
// alignment.
func (l *Lowering) fields(fields []*ast.Field) error {
	i := 0
	for i < len(fields) {
		f := fields[i]
		if f.BitAlignment%8 != 0 || f.EventualBitAlignment%8 != 0 {
			j := i
			for j < len(fields) && fields[j].EventualBitAlignment%8 != 0 {
				j++
			}
			if j < len(fields) {
				j++ // include the field that restores byte alignment
			}
			if err := l.bitFieldGroup(fields[i:j]); err != nil {
				return err
			}
			i = j
			continue
		}
		if err := l.field(f); err != nil {
			return err
		}
		i++
	}
	return nil
}

func (l *Lowering) bitFieldGroup(group []*ast.Field) error {
	id := l.mod.NewID()
	l.define(ir.OpDefineBitField, id)
	err := l.withBelong(id, func() error {
		for _, f := range group {
			if err := l.field(f); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	l.end(ir.OpEndBitField, id)
	return nil
}

func (l *Lowering) field(f *ast.Field) error {
	switch ft := f.FieldType.(type) {
	case *ast.StructUnionType:
		return l.structUnionField(f, ft)
	case *ast.UnionType:
		return l.discriminatedUnionField(f, ft)
	default:
		return l.plainField(f)
	}
}

func (l *Lowering) plainField(f *ast.Field) error {
	id := l.internIdent(f.Ident)
	storage, err := l.buildStorage(f.FieldType, true)
	if err != nil {
		return err
	}
	ref := l.mod.InternStorage(storage)

	l.define(ir.OpDefineField, id)
	l.mod.EmitWith(ir.OpSpecifyStorageType, func(c *ir.Code) { c.StorageRef = ref })

	if f.Arguments.DirectMatch != nil {
		val, err := l.expr(f.Arguments.DirectMatch)
		if err != nil {
			return err
		}
		l.mod.EmitWith(ir.OpSpecifyFixedValue, func(c *ir.Code) { c.Ref = val })
		l.mod.ClearPrevExpr()
	}

	l.recordFieldInfo(f, id, ref)
	l.end(ir.OpEndField, id)
	return nil
}

// structUnionField lowers the untagged list-of-member-types view of a
// union field: the field's own storage is VARIANT, and each candidate
// shape is declared under a DEFINE_UNION/DEFINE_UNION_MEMBER bracket
// (spec §4.4, §4.10).
func (l *Lowering) structUnionField(f *ast.Field, ut *ast.StructUnionType) error {
	id := l.internIdent(f.Ident)
	storage, err := l.buildStorage(ut, true)
	if err != nil {
		return err
	}
	ref := l.mod.InternStorage(storage)

	l.define(ir.OpDefineField, id)
	l.mod.EmitWith(ir.OpSpecifyStorageType, func(c *ir.Code) { c.StorageRef = ref })

	err = l.withBelong(id, func() error {
		unionID := l.mod.NewID()
		l.define(ir.OpDefineUnion, unionID)
		err := l.withBelong(unionID, func() error {
			for _, m := range ut.Members {
				st, ok := m.(*ast.StructType)
				if !ok {
					return unsupportedType("lower: struct-union member is not a struct type")
				}
				fid, err := l.formatID(st.Format)
				if err != nil {
					return err
				}
				memberID := l.mod.NewID()
				memberRef := l.mod.InternStorage(ir.Storages{{Tag: ir.StorageStructRef, Ref: fid}})
				l.define(ir.OpDefineUnionMember, memberID)
				l.mod.EmitWith(ir.OpSpecifyStorageType, func(c *ir.Code) { c.StorageRef = memberRef })
				l.end(ir.OpEndUnionMember, memberID)
			}
			return nil
		})
		if err != nil {
			return err
		}
		l.end(ir.OpEndUnion, unionID)
		return nil
	})
	if err != nil {
		return err
	}

	l.recordFieldInfo(f, id, ref)
	l.end(ir.OpEndField, id)
	return nil
}

// discriminatedUnionField lowers the tagged view of a union field: a
// DEFINE_PROPERTY bracket containing one CONDITIONAL_FIELD per arm
// (spec §4.7), sealed by a MERGED_CONDITIONAL_FIELD when the union
// declares a common type every arm converts to.
func (l *Lowering) discriminatedUnionField(f *ast.Field, ut *ast.UnionType) error {
	id := l.internIdent(f.Ident)
	l.define(ir.OpDefineProperty, id)

	arms, err := l.handleUnionType(ut)
	if err != nil {
		return err
	}

	for _, arm := range arms {
		if err := l.conditionalArm(arm); err != nil {
			return err
		}
	}

	if ut.Common != nil {
		storage, err := l.buildStorage(ut.Common, true)
		if err != nil {
			return err
		}
		ref := l.mod.InternStorage(storage)
		l.mod.EmitWith(ir.OpMergedConditionalField, func(c *ir.Code) {
			// Belong, not Ident: this doesn't declare a new entity, it
			// seals the DEFINE_PROPERTY bracket id already named, and
			// Ident's ID→index slot must stay pointed at that DEFINE.
			c.Belong = id
			c.StorageRef = ref
			c.MergeMode = ir.MergeCommonType
		})
	}

	l.end(ir.OpEndProperty, id)
	return nil
}

func (l *Lowering) conditionalArm(arm unionArm) error {
	if arm.Field == nil {
		return nil
	}
	l.mod.EmitWith(ir.OpConditionalField, func(c *ir.Code) { c.Ref = arm.Cond })
	return l.field(arm.Field)
}

func (l *Lowering) function(fn *ast.Function) error {
	id := l.internIdent(fn.Ident)

	funcType := ir.FuncPlain
	switch {
	case fn.IsEncode:
		funcType = ir.FuncEncode
	case fn.IsDecode:
		funcType = ir.FuncDecode
	}

	var resultRef ir.StorageRef
	if fn.Result != nil {
		storage, err := l.buildStorage(fn.Result, false)
		if err != nil {
			return err
		}
		resultRef = l.mod.InternStorage(storage)
	}

	l.defineWith(ir.OpDefineFunction, id, func(c *ir.Code) {
		c.FuncType = funcType
		c.StorageRef = resultRef
	})

	err := l.withBelong(id, func() error {
		for _, p := range fn.Params {
			if err := l.parameter(p); err != nil {
				return err
			}
		}
		return l.block(fn.Body)
	})
	if err != nil {
		return err
	}

	l.end(ir.OpEndFunction, id)
	return nil
}

func (l *Lowering) parameter(p *ast.Param) error {
	id := l.internIdent(p.Ident)
	storage, err := l.buildStorage(p.ParamType, false)
	if err != nil {
		return err
	}
	ref := l.mod.InternStorage(storage)

	l.define(ir.OpDefineParameter, id)
	l.mod.EmitWith(ir.OpSpecifyStorageType, func(c *ir.Code) { c.StorageRef = ref })
	l.end(ir.OpEndParameter, id)
	return nil
}

// buildStorage flattens a Type into its Storages vector (spec §4.4):
// composite types (array, vector, optional, ptr, variant, enum)
// prepend their own record and append each component's recursively
// flattened vector.
func (l *Lowering) buildStorage(t ast.Type, fieldType bool) (ir.Storages, error) {
	switch t := t.(type) {
	case *ast.BoolType:
		return ir.Storages{{Tag: ir.StorageBool}}, nil

	case *ast.IntType:
		tag := ir.StorageInt
		if !t.Signed {
			tag = ir.StorageUint
		}
		return ir.Storages{{Tag: tag, Size: ir.PlusOneOf(uint32(t.Bits)), Signed: t.Signed}}, nil

	case *ast.FloatType:
		return ir.Storages{{Tag: ir.StorageFloat, Size: ir.PlusOneOf(uint32(t.Bits))}}, nil

	case *ast.IdentType:
		if t.Base == nil {
			return nil, unsupportedType("lower: unresolved ident type %q", t.Name.Name)
		}
		return l.buildStorage(t.Base, fieldType)

	case *ast.StructType:
		tag := ir.StorageStructRef
		if t.IsRecursive() {
			tag = ir.StorageRecursiveStructRef
		}
		id, err := l.formatID(t.Format)
		if err != nil {
			return nil, err
		}
		size := ir.Unknown
		if t.Format.BitSize != nil {
			size = ir.PlusOneOf(uint32(*t.Format.BitSize))
		}
		return ir.Storages{{Tag: tag, Ref: id, Size: size}}, nil

	case *ast.EnumType:
		id, err := l.enumID(t.Enum)
		if err != nil {
			return nil, err
		}
		out := ir.Storages{{Tag: ir.StorageEnum, Ref: id}}
		if t.Enum.Underlying != nil {
			under, err := l.buildStorage(t.Enum.Underlying, false)
			if err != nil {
				return nil, err
			}
			out = append(out, under...)
		}
		return out, nil

	case *ast.ArrayType:
		tag := ir.StorageArray
		size := ir.Unknown
		if !t.Const {
			tag = ir.StorageVector
		} else if t.Length != nil {
			n, err := staticIntValue(t.Length)
			if err != nil {
				return nil, err
			}
			size = ir.PlusOneOf(uint32(n))
		}
		elem, err := l.buildStorage(t.Elem, false)
		if err != nil {
			return nil, err
		}
		return append(ir.Storages{{Tag: tag, Size: size}}, elem...), nil

	case *ast.OptionalType:
		inner, err := l.buildStorage(t.Inner, false)
		if err != nil {
			return nil, err
		}
		return append(ir.Storages{{Tag: ir.StorageOptional}}, inner...), nil

	case *ast.PtrType:
		inner, err := l.buildStorage(t.Inner, false)
		if err != nil {
			return nil, err
		}
		return append(ir.Storages{{Tag: ir.StoragePtr}}, inner...), nil

	case *ast.StructUnionType:
		var members ir.Storages
		for _, m := range t.Members {
			st, ok := m.(*ast.StructType)
			if !ok {
				return nil, unsupportedType("lower: struct-union member is not a struct type")
			}
			id, err := l.formatID(st.Format)
			if err != nil {
				return nil, err
			}
			members = append(members, ir.Storage{Tag: ir.StorageStructRef, Ref: id})
		}
		return append(ir.Storages{{Tag: ir.StorageVariant, Size: ir.PlusOneOf(uint32(len(members)))}}, members...), nil

	case *ast.StrLiteral:
		// A literal used as a field type names a fixed byte sequence:
		// an ARRAY of len(Value) single-byte UINTs (spec §4.4's
		// str_literal_type).
		return ir.Storages{
			{Tag: ir.StorageArray, Size: ir.PlusOneOf(uint32(len(t.Value)))},
			{Tag: ir.StorageUint, Size: ir.PlusOneOf(8)},
		}, nil

	default:
		return nil, unsupportedType("lower: type kind %T", t)
	}
}

func staticIntValue(e ast.Expr) (int64, error) {
	switch e := e.(type) {
	case *ast.IntLiteral:
		return e.Value, nil
	case *ast.Paren:
		return staticIntValue(e.X)
	}
	return 0, bug("lower: array length is not a constant int literal")
}
