package ast

import (
	"encoding/json"
	"fmt"

	"wireforge.dev/bmc/bmerr"
	"wireforge.dev/bmc/token"
)

// Decode reads AST-JSON (the upstream parser/checker's serialized
// syntax tree, the core's only supported input form — see the
// package doc) and builds a *Program.
//
// Decode runs in two passes over Formats/Enums: the first registers
// every format/enum's own Ident under its name so that StructType and
// EnumType references anywhere in the document — including a format
// referencing itself (Recursive) — resolve to one shared *Format/*Enum,
// matching how the upstream checker hands the core already-resolved
// object identity rather than names to re-resolve.
func Decode(data []byte) (*Program, error) {
	var raw programJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("ast: decoding AST-JSON: %w", err)
	}

	d := &decoder{
		idents:  make(map[int]*Ident),
		formats: make(map[string]*Format),
		enums:   make(map[string]*Enum),
	}

	prog := &Program{Pos_: token.Pos(raw.Pos), End_: token.Pos(raw.End)}

	// Pass 1: register every format/enum's declaring Ident so
	// forward and self references resolve to the same pointer.
	for _, fj := range raw.Formats {
		ident, err := d.decodeIdent(fj.Ident)
		if err != nil {
			return nil, err
		}
		f := &Format{Ident: ident, Recursive: fj.Recursive, IsState: fj.IsState}
		if fj.BitSize != nil {
			bs := *fj.BitSize
			f.BitSize = &bs
		}
		d.formats[ident.Name] = f
		prog.Formats = append(prog.Formats, f)
	}
	for _, ej := range raw.Enums {
		ident, err := d.decodeIdent(ej.Ident)
		if err != nil {
			return nil, err
		}
		e := &Enum{Ident: ident}
		d.enums[ident.Name] = e
		prog.Enums = append(prog.Enums, e)
	}

	// Pass 2: fill in bodies, now that any self/forward reference to
	// a format or enum resolves through d.formats/d.enums.
	for i, fj := range raw.Formats {
		f := prog.Formats[i]
		f.Pos_, f.End_ = token.Pos(fj.Pos), token.Pos(fj.End)
		for _, flj := range fj.Fields {
			fld, err := d.decodeField(flj, f.Ident)
			if err != nil {
				return nil, err
			}
			f.Fields = append(f.Fields, fld)
		}
		for _, fnj := range fj.Funcs {
			fn, err := d.decodeFunction(fnj, f.Ident)
			if err != nil {
				return nil, err
			}
			f.Funcs = append(f.Funcs, fn)
		}
	}
	for i, ej := range raw.Enums {
		e := prog.Enums[i]
		e.Pos_, e.End_ = token.Pos(ej.Pos), token.Pos(ej.End)
		if ej.Underlying != nil {
			ty, err := d.decodeType(ej.Underlying)
			if err != nil {
				return nil, err
			}
			e.Underlying = ty
		}
		for _, mj := range ej.Members {
			ident, err := d.decodeIdent(mj.Ident)
			if err != nil {
				return nil, err
			}
			value, err := d.decodeExpr(mj.Value)
			if err != nil {
				return nil, err
			}
			e.Members = append(e.Members, &EnumMember{
				Ident: ident, Value: value,
				Pos_: token.Pos(mj.Pos), End_: token.Pos(mj.End),
			})
		}
	}
	for _, ij := range raw.Imports {
		ident, err := d.decodeIdent(ij.Ident)
		if err != nil {
			return nil, err
		}
		prog.Imports = append(prog.Imports, &Import{
			Ident: ident, Path: ij.Path, Pos_: token.Pos(ij.Pos),
		})
	}
	for _, fnj := range raw.Funcs {
		fn, err := d.decodeFunction(fnj, nil)
		if err != nil {
			return nil, err
		}
		prog.Funcs = append(prog.Funcs, fn)
	}

	return prog, nil
}

// decoder carries the registries a decode pass needs to resolve
// shared object identity: formats/enums by declaration name, and
// plain idents by the small per-document declaration number the
// AST-JSON assigns so aliasing occurrences of the same binding can
// point back at their canonical Ident (spec §4.2's lookup_ident).
type decoder struct {
	idents  map[int]*Ident
	formats map[string]*Format
	enums   map[string]*Enum
}

type identJSON struct {
	ID   int    `json:"id,omitempty"`
	Ref  int    `json:"ref,omitempty"`
	Name string `json:"name"`
	Pos  int    `json:"pos"`
}

// decodeIdent builds an *Ident from its JSON form. A nil raw pointer
// denotes a compiler-generated ephemeral reference and decodes to a
// nil *Ident, matching Ident's doc: "A nil Ident ... always mints a
// fresh ID." An Ident with Ref set aliases a declaration already
// registered under that number; one with no Ref is itself canonical
// (Base stays nil).
func (d *decoder) decodeIdent(raw *identJSON) (*Ident, error) {
	if raw == nil {
		return nil, nil
	}
	ident := &Ident{Name: raw.Name, Pos_: token.Pos(raw.Pos)}
	if raw.Ref != 0 {
		base, ok := d.idents[raw.Ref]
		if !ok {
			return nil, fmt.Errorf("ast: ident %q references unknown declaration %d: %w", raw.Name, raw.Ref, bmerr.MissingBinding)
		}
		ident.Base = base
	}
	if raw.ID != 0 {
		d.idents[raw.ID] = ident
	}
	return ident, nil
}

type programJSON struct {
	Imports []*importJSON `json:"imports"`
	Formats []*formatJSON `json:"formats"`
	Enums   []*enumJSON   `json:"enums"`
	Funcs   []*funcJSON   `json:"funcs"`
	Pos     int           `json:"pos"`
	End     int           `json:"end"`
}

type importJSON struct {
	Ident *identJSON `json:"ident"`
	Path  string     `json:"path"`
	Pos   int        `json:"pos"`
}

type formatJSON struct {
	Ident     *identJSON    `json:"ident"`
	Fields    []*fieldJSON  `json:"fields"`
	Funcs     []*funcJSON   `json:"funcs"`
	Recursive bool          `json:"recursive"`
	BitSize   *int          `json:"bit_size"`
	IsState   bool          `json:"is_state"`
	Pos       int           `json:"pos"`
	End       int           `json:"end"`
}

type enumJSON struct {
	Ident      *identJSON      `json:"ident"`
	Underlying json.RawMessage `json:"underlying"`
	Members    []*enumMemberJSON `json:"members"`
	Pos        int             `json:"pos"`
	End        int             `json:"end"`
}

type enumMemberJSON struct {
	Ident *identJSON      `json:"ident"`
	Value json.RawMessage `json:"value"`
	Pos   int             `json:"pos"`
	End   int             `json:"end"`
}

type fieldJSON struct {
	Ident                *identJSON       `json:"ident"`
	FieldType            json.RawMessage  `json:"field_type"`
	Arguments            *fieldArgsJSON   `json:"arguments"`
	Follow               string           `json:"follow"`
	Next                 *strLiteralJSON  `json:"next"`
	IsStateVariable      bool             `json:"is_state_variable"`
	BitAlignment         int              `json:"bit_alignment"`
	EventualBitAlignment int              `json:"eventual_bit_alignment"`
	Condition            json.RawMessage  `json:"condition"`
	Pos                  int              `json:"pos"`
	End                  int              `json:"end"`
}

type strLiteralJSON struct {
	Value string `json:"value"`
	Pos   int    `json:"pos"`
	End   int    `json:"end"`
}

type fieldArgsJSON struct {
	Alignment   *int                       `json:"alignment"`
	TypeMap     map[string]json.RawMessage `json:"type_map"`
	SubRange    *subRangeJSON              `json:"sub_range"`
	DirectMatch json.RawMessage            `json:"direct_match"`
}

type subRangeJSON struct {
	Begin  json.RawMessage `json:"begin"`
	Length json.RawMessage `json:"length"`
}

type funcJSON struct {
	Ident    *identJSON      `json:"ident"`
	Params   []*paramJSON    `json:"params"`
	Result   json.RawMessage `json:"result"`
	Body     []json.RawMessage `json:"body"`
	IsEncode bool            `json:"is_encode"`
	IsDecode bool            `json:"is_decode"`
	Pos      int             `json:"pos"`
	End      int             `json:"end"`
}

type paramJSON struct {
	Ident     *identJSON      `json:"ident"`
	ParamType json.RawMessage `json:"param_type"`
	Pos       int             `json:"pos"`
	End       int             `json:"end"`
}

func followFromString(s string) (Follow, error) {
	switch s {
	case "", "none":
		return FollowNone, nil
	case "end":
		return FollowEnd, nil
	case "fixed":
		return FollowFixed, nil
	case "constant":
		return FollowConstant, nil
	}
	return 0, fmt.Errorf("ast: unknown follow kind %q: %w", s, bmerr.UnsupportedType)
}

func (d *decoder) decodeField(raw *fieldJSON, belong *Ident) (*Field, error) {
	ident, err := d.decodeIdent(raw.Ident)
	if err != nil {
		return nil, err
	}
	fieldType, err := d.decodeType(raw.FieldType)
	if err != nil {
		return nil, err
	}
	follow, err := followFromString(raw.Follow)
	if err != nil {
		return nil, err
	}

	f := &Field{
		Ident:                ident,
		FieldType:            fieldType,
		Follow:               follow,
		BelongStruct:         belong,
		IsStateVariable:      raw.IsStateVariable,
		BitAlignment:         raw.BitAlignment,
		EventualBitAlignment: raw.EventualBitAlignment,
		Pos_:                 token.Pos(raw.Pos),
		End_:                 token.Pos(raw.End),
	}
	if raw.Next != nil {
		f.Next = &StrLiteral{
			exprBase: exprBase{Ty: VoidTy, Pos_: token.Pos(raw.Next.Pos), End_: token.Pos(raw.Next.End)},
			Value:    raw.Next.Value,
		}
	}
	if raw.Condition != nil {
		cond, err := d.decodeExpr(raw.Condition)
		if err != nil {
			return nil, err
		}
		f.Condition = cond
	}
	if raw.Arguments != nil {
		args, err := d.decodeFieldArguments(raw.Arguments)
		if err != nil {
			return nil, err
		}
		f.Arguments = args
	}
	return f, nil
}

func (d *decoder) decodeFieldArguments(raw *fieldArgsJSON) (FieldArguments, error) {
	var args FieldArguments
	if raw.Alignment != nil {
		a := *raw.Alignment
		args.Alignment = &a
	}
	if raw.TypeMap != nil {
		args.TypeMap = make(map[string]Type, len(raw.TypeMap))
		for name, tj := range raw.TypeMap {
			ty, err := d.decodeType(tj)
			if err != nil {
				return args, err
			}
			args.TypeMap[name] = ty
		}
	}
	if raw.SubRange != nil {
		var sr SubRange
		if raw.SubRange.Begin != nil {
			begin, err := d.decodeExpr(raw.SubRange.Begin)
			if err != nil {
				return args, err
			}
			sr.Begin = begin
		}
		if raw.SubRange.Length != nil {
			length, err := d.decodeExpr(raw.SubRange.Length)
			if err != nil {
				return args, err
			}
			sr.Length = length
		}
		args.SubRange = &sr
	}
	if raw.DirectMatch != nil {
		dm, err := d.decodeExpr(raw.DirectMatch)
		if err != nil {
			return args, err
		}
		args.DirectMatch = dm
	}
	return args, nil
}

func (d *decoder) decodeFunction(raw *funcJSON, belong *Ident) (*Function, error) {
	ident, err := d.decodeIdent(raw.Ident)
	if err != nil {
		return nil, err
	}
	fn := &Function{
		Ident:    ident,
		IsEncode: raw.IsEncode,
		IsDecode: raw.IsDecode,
		Belong:   belong,
		Pos_:     token.Pos(raw.Pos),
		End_:     token.Pos(raw.End),
	}
	for _, pj := range raw.Params {
		pident, err := d.decodeIdent(pj.Ident)
		if err != nil {
			return nil, err
		}
		ptype, err := d.decodeType(pj.ParamType)
		if err != nil {
			return nil, err
		}
		fn.Params = append(fn.Params, &Param{
			Ident: pident, ParamType: ptype,
			Pos_: token.Pos(pj.Pos), End_: token.Pos(pj.End),
		})
	}
	if raw.Result != nil {
		result, err := d.decodeType(raw.Result)
		if err != nil {
			return nil, err
		}
		fn.Result = result
	}
	for _, sj := range raw.Body {
		stmt, err := d.decodeStmt(sj)
		if err != nil {
			return nil, err
		}
		fn.Body = append(fn.Body, stmt)
	}
	return fn, nil
}

// kindJSON is embedded at the start of every polymorphic Expr/Stmt/
// Type JSON object to dispatch on.
type kindJSON struct {
	Kind string `json:"kind"`
}

func (d *decoder) decodeType(raw json.RawMessage) (Type, error) {
	if raw == nil {
		return nil, nil
	}
	var k kindJSON
	if err := json.Unmarshal(raw, &k); err != nil {
		return nil, fmt.Errorf("ast: decoding type: %w", err)
	}

	base := func() typeBase {
		var tb struct {
			Pos int `json:"pos"`
			End int `json:"end"`
		}
		json.Unmarshal(raw, &tb)
		return typeBase{Pos_: token.Pos(tb.Pos), End_: token.Pos(tb.End)}
	}

	switch k.Kind {
	case "void":
		return VoidTy, nil
	case "bool":
		return &BoolType{typeBase: base()}, nil
	case "int":
		var t struct {
			Bits   int  `json:"bits"`
			Signed bool `json:"signed"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		return &IntType{typeBase: base(), Bits: t.Bits, Signed: t.Signed}, nil
	case "float":
		var t struct {
			Bits int `json:"bits"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		return &FloatType{typeBase: base(), Bits: t.Bits}, nil
	case "ident":
		var t struct {
			Name *identJSON      `json:"name"`
			Base json.RawMessage `json:"base"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		name, err := d.decodeIdent(t.Name)
		if err != nil {
			return nil, err
		}
		var resolved Type
		if t.Base != nil {
			resolved, err = d.decodeType(t.Base)
			if err != nil {
				return nil, err
			}
		}
		return &IdentType{typeBase: base(), Name: name, Base: resolved}, nil
	case "struct":
		var t struct {
			Format string `json:"format"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		f, ok := d.formats[t.Format]
		if !ok {
			return nil, fmt.Errorf("ast: struct_type references unknown format %q: %w", t.Format, bmerr.MissingBinding)
		}
		return &StructType{typeBase: base(), Format: f}, nil
	case "enum":
		var t struct {
			Enum string `json:"enum"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		e, ok := d.enums[t.Enum]
		if !ok {
			return nil, fmt.Errorf("ast: enum_type references unknown enum %q: %w", t.Enum, bmerr.MissingBinding)
		}
		return &EnumType{typeBase: base(), Enum: e}, nil
	case "array":
		var t struct {
			Elem   json.RawMessage `json:"elem"`
			Length json.RawMessage `json:"length"`
			Const  bool            `json:"const"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		elem, err := d.decodeType(t.Elem)
		if err != nil {
			return nil, err
		}
		length, err := d.decodeExpr(t.Length)
		if err != nil {
			return nil, err
		}
		return &ArrayType{typeBase: base(), Elem: elem, Length: length, Const: t.Const}, nil
	case "optional":
		var t struct {
			Inner json.RawMessage `json:"inner"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		inner, err := d.decodeType(t.Inner)
		if err != nil {
			return nil, err
		}
		return &OptionalType{typeBase: base(), Inner: inner}, nil
	case "ptr":
		var t struct {
			Inner json.RawMessage `json:"inner"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		inner, err := d.decodeType(t.Inner)
		if err != nil {
			return nil, err
		}
		return &PtrType{typeBase: base(), Inner: inner}, nil
	case "struct_union":
		var t struct {
			Members []json.RawMessage `json:"members"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		su := &StructUnionType{typeBase: base()}
		for _, mj := range t.Members {
			m, err := d.decodeType(mj)
			if err != nil {
				return nil, err
			}
			su.Members = append(su.Members, m)
		}
		return su, nil
	case "union":
		var t struct {
			Base       json.RawMessage `json:"base"`
			Common     json.RawMessage `json:"common"`
			Candidates []struct {
				Cond  json.RawMessage `json:"cond"`
				Field *fieldJSON      `json:"field"`
			} `json:"candidates"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		u := &UnionType{typeBase: base()}
		if t.Base != nil {
			expr, err := d.decodeExpr(t.Base)
			if err != nil {
				return nil, err
			}
			u.Base = expr
		}
		if t.Common != nil {
			common, err := d.decodeType(t.Common)
			if err != nil {
				return nil, err
			}
			u.Common = common
		}
		for _, cj := range t.Candidates {
			var cond Expr
			if cj.Cond != nil {
				c, err := d.decodeExpr(cj.Cond)
				if err != nil {
					return nil, err
				}
				cond = c
			}
			field, err := d.decodeField(cj.Field, nil)
			if err != nil {
				return nil, err
			}
			u.Candidates = append(u.Candidates, UnionCandidate{Cond: cond, Field: field})
		}
		return u, nil
	case "range":
		var t struct {
			Start     json.RawMessage `json:"start"`
			End       json.RawMessage `json:"end"`
			Inclusive bool            `json:"inclusive"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		start, err := d.decodeExpr(t.Start)
		if err != nil {
			return nil, err
		}
		end, err := d.decodeExpr(t.End)
		if err != nil {
			return nil, err
		}
		return &RangeType{typeBase: base(), Start: start, Stop: end, Inclusive: t.Inclusive}, nil
	}
	return nil, fmt.Errorf("ast: unknown type kind %q: %w", k.Kind, bmerr.UnsupportedType)
}

func (d *decoder) decodeExpr(raw json.RawMessage) (Expr, error) {
	if raw == nil {
		return nil, nil
	}
	var k kindJSON
	if err := json.Unmarshal(raw, &k); err != nil {
		return nil, fmt.Errorf("ast: decoding expr: %w", err)
	}

	var eb struct {
		Type json.RawMessage `json:"type"`
		Pos  int             `json:"pos"`
		End  int             `json:"end"`
	}
	if err := json.Unmarshal(raw, &eb); err != nil {
		return nil, err
	}
	ty, err := d.decodeType(eb.Type)
	if err != nil {
		return nil, err
	}
	base := exprBase{Ty: ty, Pos_: token.Pos(eb.Pos), End_: token.Pos(eb.End)}

	switch k.Kind {
	case "int":
		var t struct {
			Value int64 `json:"value"`
			Wide  bool  `json:"wide"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		return &IntLiteral{exprBase: base, Value: t.Value, Wide: t.Wide}, nil
	case "bool":
		var t struct {
			Value bool `json:"value"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		return &BoolLiteral{exprBase: base, Value: t.Value}, nil
	case "char":
		var t struct {
			Value rune `json:"value"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		return &CharLiteral{exprBase: base, Value: t.Value}, nil
	case "str":
		var t struct {
			Value string `json:"value"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		return &StrLiteral{exprBase: base, Value: t.Value}, nil
	case "type":
		var t struct {
			Of json.RawMessage `json:"of"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		of, err := d.decodeType(t.Of)
		if err != nil {
			return nil, err
		}
		return &TypeLiteral{exprBase: base, Of: of}, nil
	case "ident":
		var t struct {
			Name *identJSON `json:"name"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		name, err := d.decodeIdent(t.Name)
		if err != nil {
			return nil, err
		}
		return &IdentExpr{exprBase: base, Name: name}, nil
	case "paren":
		var t struct {
			X json.RawMessage `json:"x"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		x, err := d.decodeExpr(t.X)
		if err != nil {
			return nil, err
		}
		return &Paren{exprBase: base, X: x}, nil
	case "member":
		var t struct {
			Base   json.RawMessage `json:"base"`
			Member *identJSON      `json:"member"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		b, err := d.decodeExpr(t.Base)
		if err != nil {
			return nil, err
		}
		member, err := d.decodeIdent(t.Member)
		if err != nil {
			return nil, err
		}
		return &MemberAccess{exprBase: base, Base: b, Member: member}, nil
	case "index":
		var t struct {
			Base  json.RawMessage `json:"base"`
			Index json.RawMessage `json:"index"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		b, err := d.decodeExpr(t.Base)
		if err != nil {
			return nil, err
		}
		idx, err := d.decodeExpr(t.Index)
		if err != nil {
			return nil, err
		}
		return &Index{exprBase: base, Base: b, Index: idx}, nil
	case "unary":
		var t struct {
			Op string          `json:"op"`
			X  json.RawMessage `json:"x"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		op, err := unaryOpFromString(t.Op)
		if err != nil {
			return nil, err
		}
		x, err := d.decodeExpr(t.X)
		if err != nil {
			return nil, err
		}
		return &Unary{exprBase: base, Op: op, X: x}, nil
	case "binary":
		var t struct {
			Op    string          `json:"op"`
			Left  json.RawMessage `json:"left"`
			Right json.RawMessage `json:"right"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		op, err := binaryOpFromString(t.Op)
		if err != nil {
			return nil, err
		}
		left, err := d.decodeExpr(t.Left)
		if err != nil {
			return nil, err
		}
		right, err := d.decodeExpr(t.Right)
		if err != nil {
			return nil, err
		}
		return &Binary{exprBase: base, Op: op, Left: left, Right: right}, nil
	case "cond":
		var t struct {
			Cond json.RawMessage `json:"cond"`
			Then json.RawMessage `json:"then"`
			Else json.RawMessage `json:"else"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		c, err := d.decodeExpr(t.Cond)
		if err != nil {
			return nil, err
		}
		then, err := d.decodeExpr(t.Then)
		if err != nil {
			return nil, err
		}
		els, err := d.decodeExpr(t.Else)
		if err != nil {
			return nil, err
		}
		return &Cond{exprBase: base, Cond: c, Then: then, Else: els}, nil
	case "cast":
		var t struct {
			Target json.RawMessage   `json:"target"`
			Args   []json.RawMessage `json:"args"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		target, err := d.decodeType(t.Target)
		if err != nil {
			return nil, err
		}
		c := &Cast{exprBase: base, Target: target}
		for _, aj := range t.Args {
			arg, err := d.decodeExpr(aj)
			if err != nil {
				return nil, err
			}
			c.Args = append(c.Args, arg)
		}
		return c, nil
	case "call":
		var t struct {
			Callee *identJSON        `json:"callee"`
			Args   []json.RawMessage `json:"args"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		callee, err := d.decodeIdent(t.Callee)
		if err != nil {
			return nil, err
		}
		c := &Call{exprBase: base, Callee: callee}
		for _, aj := range t.Args {
			arg, err := d.decodeExpr(aj)
			if err != nil {
				return nil, err
			}
			c.Args = append(c.Args, arg)
		}
		return c, nil
	case "available":
		var t struct {
			Target json.RawMessage `json:"target"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		target, err := d.decodeExpr(t.Target)
		if err != nil {
			return nil, err
		}
		return &Available{exprBase: base, Target: target}, nil
	case "yield":
		var t struct {
			X json.RawMessage `json:"x"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		x, err := d.decodeExpr(t.X)
		if err != nil {
			return nil, err
		}
		return &ImplicitYield{exprBase: base, X: x}, nil
	case "io":
		var t struct {
			Method string            `json:"method"`
			Args   []json.RawMessage `json:"args"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		method, err := ioMethodFromString(t.Method)
		if err != nil {
			return nil, err
		}
		io := &IOOperation{exprBase: base, Method: method}
		for _, aj := range t.Args {
			arg, err := d.decodeExpr(aj)
			if err != nil {
				return nil, err
			}
			io.Args = append(io.Args, arg)
		}
		return io, nil
	case "identity":
		var t struct {
			Target json.RawMessage `json:"target"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		target, err := d.decodeExpr(t.Target)
		if err != nil {
			return nil, err
		}
		return &Identity{Target: target, Pos_: base.Pos_, End_: base.End_}, nil
	}
	return nil, fmt.Errorf("ast: unknown expr kind %q: %w", k.Kind, bmerr.UnsupportedType)
}

func (d *decoder) decodeStmt(raw json.RawMessage) (Stmt, error) {
	if raw == nil {
		return nil, nil
	}
	var k kindJSON
	if err := json.Unmarshal(raw, &k); err != nil {
		return nil, fmt.Errorf("ast: decoding stmt: %w", err)
	}

	var sb struct {
		Pos int `json:"pos"`
		End int `json:"end"`
	}
	json.Unmarshal(raw, &sb)
	base := stmtBase{Pos_: token.Pos(sb.Pos), End_: token.Pos(sb.End)}

	switch k.Kind {
	case "expr":
		var t struct {
			X json.RawMessage `json:"x"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		x, err := d.decodeExpr(t.X)
		if err != nil {
			return nil, err
		}
		return &ExprStmt{stmtBase: base, X: x}, nil
	case "block":
		blk, err := d.decodeBlock(raw)
		if err != nil {
			return nil, err
		}
		return blk, nil
	case "if":
		var t struct {
			Cond   json.RawMessage   `json:"cond"`
			Then   json.RawMessage   `json:"then"`
			Elif   []json.RawMessage `json:"elif"`
			Else   json.RawMessage   `json:"else"`
			Yields bool              `json:"yields"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		cond, err := d.decodeExpr(t.Cond)
		if err != nil {
			return nil, err
		}
		then, err := d.decodeBlock(t.Then)
		if err != nil {
			return nil, err
		}
		ifStmt := &If{stmtBase: base, Cond: cond, Then: then, Yields: t.Yields}
		for _, ej := range t.Elif {
			var ec struct {
				Cond json.RawMessage `json:"cond"`
				Then json.RawMessage `json:"then"`
			}
			if err := json.Unmarshal(ej, &ec); err != nil {
				return nil, err
			}
			cond, err := d.decodeExpr(ec.Cond)
			if err != nil {
				return nil, err
			}
			then, err := d.decodeBlock(ec.Then)
			if err != nil {
				return nil, err
			}
			ifStmt.Elif = append(ifStmt.Elif, &ElifClause{Cond: cond, Then: then})
		}
		if t.Else != nil {
			elseBlk, err := d.decodeBlock(t.Else)
			if err != nil {
				return nil, err
			}
			ifStmt.Else = elseBlk
		}
		return ifStmt, nil
	case "match":
		var t struct {
			Cond       json.RawMessage   `json:"cond"`
			Cases      []json.RawMessage `json:"cases"`
			Exhaustive bool              `json:"exhaustive"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		m := &Match{stmtBase: base, Exhaustive: t.Exhaustive}
		if t.Cond != nil {
			cond, err := d.decodeExpr(t.Cond)
			if err != nil {
				return nil, err
			}
			m.Cond = cond
		}
		for _, cj := range t.Cases {
			var mc struct {
				Pattern json.RawMessage `json:"pattern"`
				Body    json.RawMessage `json:"body"`
			}
			if err := json.Unmarshal(cj, &mc); err != nil {
				return nil, err
			}
			var pattern Expr
			if mc.Pattern != nil {
				p, err := d.decodeExpr(mc.Pattern)
				if err != nil {
					return nil, err
				}
				pattern = p
			}
			body, err := d.decodeStmt(mc.Body)
			if err != nil {
				return nil, err
			}
			m.Cases = append(m.Cases, &MatchCase{Pattern: pattern, Body: body})
		}
		return m, nil
	case "loop":
		var t struct {
			Kind   string          `json:"loop_kind"`
			Init   json.RawMessage `json:"init"`
			Cond   json.RawMessage `json:"cond"`
			Step   json.RawMessage `json:"step"`
			Var    *identJSON      `json:"var"`
			Source json.RawMessage `json:"source"`
			Body   json.RawMessage `json:"body"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		kind, err := loopKindFromString(t.Kind)
		if err != nil {
			return nil, err
		}
		body, err := d.decodeBlock(t.Body)
		if err != nil {
			return nil, err
		}
		l := &Loop{stmtBase: base, Kind: kind, Body: body}
		if t.Init != nil {
			init, err := d.decodeStmt(t.Init)
			if err != nil {
				return nil, err
			}
			l.Init = init
		}
		if t.Cond != nil {
			cond, err := d.decodeExpr(t.Cond)
			if err != nil {
				return nil, err
			}
			l.Cond = cond
		}
		if t.Step != nil {
			step, err := d.decodeStmt(t.Step)
			if err != nil {
				return nil, err
			}
			l.Step = step
		}
		if t.Var != nil {
			v, err := d.decodeIdent(t.Var)
			if err != nil {
				return nil, err
			}
			l.Var = v
		}
		if t.Source != nil {
			src, err := d.decodeExpr(t.Source)
			if err != nil {
				return nil, err
			}
			l.Source = src
		}
		return l, nil
	case "break":
		return &Break{stmtBase: base}, nil
	case "continue":
		return &Continue{stmtBase: base}, nil
	case "return":
		var t struct {
			Value json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		ret := &Return{stmtBase: base}
		if t.Value != nil {
			v, err := d.decodeExpr(t.Value)
			if err != nil {
				return nil, err
			}
			ret.Value = v
		}
		return ret, nil
	case "assert":
		var t struct {
			Cond json.RawMessage `json:"cond"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		cond, err := d.decodeExpr(t.Cond)
		if err != nil {
			return nil, err
		}
		return &Assert{stmtBase: base, Cond: cond}, nil
	case "error":
		var t struct {
			Message json.RawMessage `json:"message"`
		}
		if err := json.Unmarshal(raw, &t); err != nil {
			return nil, err
		}
		msg, err := d.decodeExpr(t.Message)
		if err != nil {
			return nil, err
		}
		return &ExplicitError{stmtBase: base, Message: msg}, nil
	}
	return nil, fmt.Errorf("ast: unknown stmt kind %q: %w", k.Kind, bmerr.UnsupportedType)
}

func (d *decoder) decodeBlock(raw json.RawMessage) (*Block, error) {
	if raw == nil {
		return nil, nil
	}
	var t struct {
		Elements []json.RawMessage `json:"elements"`
		Pos      int               `json:"pos"`
		End      int               `json:"end"`
	}
	if err := json.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("ast: decoding block: %w", err)
	}
	blk := &Block{stmtBase: stmtBase{Pos_: token.Pos(t.Pos), End_: token.Pos(t.End)}}
	for _, ej := range t.Elements {
		stmt, err := d.decodeStmt(ej)
		if err != nil {
			return nil, err
		}
		blk.Elements = append(blk.Elements, stmt)
	}
	return blk, nil
}

func unaryOpFromString(s string) (UnaryOp, error) {
	switch s {
	case "+":
		return UnaryPlus, nil
	case "-":
		return UnaryMinus, nil
	case "!":
		return UnaryLogicalNot, nil
	case "~":
		return UnaryBitNot, nil
	}
	return 0, fmt.Errorf("ast: unknown unary op %q: %w", s, bmerr.UnsupportedOp)
}

// Binary op JSON tokens name operators descriptively rather than by
// surface symbol: `<<=` is ambiguous between append-assign onto a
// vector target and an arithmetic left-shift-assign, and the upstream
// checker has already told the two apart by the time it emits AST-JSON.
var binaryOps = map[string]BinaryOp{
	"add": BinAdd, "sub": BinSub, "mul": BinMul, "div": BinDiv, "mod": BinMod,
	"lshift": BinLeftShift, "rshift": BinRightShift, "arith_lshift": BinLeftArithmeticShift,
	"bit_and": BinBitAnd, "bit_or": BinBitOr, "bit_xor": BinBitXor,
	"logical_and": BinLogicalAnd, "logical_or": BinLogicalOr,
	"eq": BinEqual, "neq": BinNotEqual,
	"lt": BinLess, "lte": BinLessEqual, "gt": BinGreater, "gte": BinGreaterEqual,
	"assign": BinAssign, "define_assign": BinDefineAssign, "const_assign": BinConstAssign,
	"append_assign": BinAppendAssign, "comma": BinComma, "in_assign": BinInAssign,
	"add_assign": BinAddAssign, "sub_assign": BinSubAssign, "mul_assign": BinMulAssign,
	"div_assign": BinDivAssign, "mod_assign": BinModAssign,
	"lshift_assign": BinLeftShiftAssign, "rshift_assign": BinRightShiftAssign,
	"bit_and_assign": BinBitAndAssign, "bit_or_assign": BinBitOrAssign, "bit_xor_assign": BinBitXorAssign,
	"arith_lshift_assign": BinLeftArithmeticShiftAssign,
}

func binaryOpFromString(s string) (BinaryOp, error) {
	if op, ok := binaryOps[s]; ok {
		return op, nil
	}
	return 0, fmt.Errorf("ast: unknown binary op %q: %w", s, bmerr.UnsupportedOp)
}

func ioMethodFromString(s string) (IOMethod, error) {
	switch s {
	case "input_backward":
		return IOInputBackward, nil
	case "input_offset":
		return IOInputOffset, nil
	case "input_bit_offset":
		return IOInputBitOffset, nil
	case "input_get":
		return IOInputGet, nil
	case "output_put":
		return IOOutputPut, nil
	}
	return 0, fmt.Errorf("ast: unknown IO method %q: %w", s, bmerr.UnsupportedOp)
}

func loopKindFromString(s string) (LoopKind, error) {
	switch s {
	case "", "general":
		return LoopGeneral, nil
	case "for_in_int":
		return LoopForInInt, nil
	case "for_in_range":
		return LoopForInRange, nil
	case "for_in_array":
		return LoopForInArray, nil
	}
	return 0, fmt.Errorf("ast: unknown loop kind %q: %w", s, bmerr.UnsupportedType)
}
