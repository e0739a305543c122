package ast

import (
	"testing"
)

func TestDecodeBasicFormat(t *testing.T) {
	doc := `{
		"formats": [
			{
				"ident": {"id": 1, "name": "F", "pos": 0},
				"fields": [
					{
						"ident": {"id": 2, "name": "x", "pos": 4},
						"field_type": {"kind": "int", "bits": 16, "signed": false},
						"follow": ""
					}
				]
			}
		]
	}`

	prog, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if len(prog.Formats) != 1 {
		t.Fatalf("len(Formats) = %d, want 1", len(prog.Formats))
	}
	f := prog.Formats[0]
	if f.Ident.Name != "F" {
		t.Errorf("format ident = %q, want %q", f.Ident.Name, "F")
	}
	if len(f.Fields) != 1 {
		t.Fatalf("len(Fields) = %d, want 1", len(f.Fields))
	}
	fld := f.Fields[0]
	if fld.Ident.Name != "x" {
		t.Errorf("field ident = %q, want %q", fld.Ident.Name, "x")
	}
	if fld.BelongStruct != f.Ident {
		t.Errorf("field BelongStruct does not point at the enclosing format's Ident")
	}
	it, ok := fld.FieldType.(*IntType)
	if !ok {
		t.Fatalf("FieldType = %T, want *IntType", fld.FieldType)
	}
	if it.Bits != 16 || it.Signed {
		t.Errorf("FieldType = %+v, want {Bits:16 Signed:false}", it)
	}
	if fld.Follow != FollowNone {
		t.Errorf("Follow = %v, want FollowNone", fld.Follow)
	}
}

func TestDecodeRecursiveFormatSharesPointer(t *testing.T) {
	doc := `{
		"formats": [
			{
				"ident": {"id": 1, "name": "Node", "pos": 0},
				"recursive": true,
				"fields": [
					{
						"ident": {"id": 2, "name": "next", "pos": 0},
						"field_type": {
							"kind": "optional",
							"inner": {
								"kind": "ptr",
								"inner": {"kind": "struct", "format": "Node"}
							}
						}
					}
				]
			}
		]
	}`

	prog, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	node := prog.Formats[0]
	if !node.Recursive {
		t.Fatal("Recursive = false, want true")
	}

	opt, ok := node.Fields[0].FieldType.(*OptionalType)
	if !ok {
		t.Fatalf("FieldType = %T, want *OptionalType", node.Fields[0].FieldType)
	}
	ptr, ok := opt.Inner.(*PtrType)
	if !ok {
		t.Fatalf("Inner = %T, want *PtrType", opt.Inner)
	}
	st, ok := ptr.Inner.(*StructType)
	if !ok {
		t.Fatalf("Inner = %T, want *StructType", ptr.Inner)
	}
	if st.Format != node {
		t.Error("self-referencing StructType.Format does not share the format's own *Format pointer")
	}
}

func TestDecodeIdentRefResolvesAlias(t *testing.T) {
	doc := `{
		"funcs": [
			{
				"ident": {"id": 1, "name": "f", "pos": 0},
				"params": [
					{
						"ident": {"id": 2, "name": "a", "pos": 2},
						"param_type": {"kind": "int", "bits": 8, "signed": false}
					}
				],
				"body": [
					{
						"kind": "expr",
						"x": {
							"kind": "ident",
							"name": {"ref": 2, "name": "a", "pos": 10}
						}
					}
				]
			}
		]
	}`

	prog, err := Decode([]byte(doc))
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	fn := prog.Funcs[0]
	param := fn.Params[0].Ident

	stmt, ok := fn.Body[0].(*ExprStmt)
	if !ok {
		t.Fatalf("Body[0] = %T, want *ExprStmt", fn.Body[0])
	}
	ie, ok := stmt.X.(*IdentExpr)
	if !ok {
		t.Fatalf("X = %T, want *IdentExpr", stmt.X)
	}

	if ie.Name.Base != param {
		t.Error("aliasing ident's Base does not point at the parameter's own Ident")
	}
	if ie.Name.Canonical() != param {
		t.Error("Canonical() does not resolve back to the parameter's Ident")
	}
}

func TestDecodeUnknownBinaryOpFails(t *testing.T) {
	doc := `{
		"funcs": [
			{
				"ident": {"id": 1, "name": "f", "pos": 0},
				"body": [
					{
						"kind": "expr",
						"x": {
							"kind": "binary",
							"op": "nonsense",
							"left": {"kind": "int", "value": 1},
							"right": {"kind": "int", "value": 2}
						}
					}
				]
			}
		]
	}`

	if _, err := Decode([]byte(doc)); err == nil {
		t.Fatal("Decode with an unknown binary op returned no error")
	}
}
