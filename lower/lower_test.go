package lower

import (
	"testing"

	"wireforge.dev/bmc/ast"
	"wireforge.dev/bmc/ir"
)

// simpleFormatProgram builds the AST for:
//
//	format F { x: u16 }
//
// with no user-written encode/decode, the smallest case that exercises
// a full format/field lowering.
func simpleFormatProgram() *ast.Program {
	formatIdent := &ast.Ident{Name: "F"}
	fieldIdent := &ast.Ident{Name: "x"}
	f := &ast.Format{
		Ident: formatIdent,
		Fields: []*ast.Field{
			{
				Ident:     fieldIdent,
				FieldType: &ast.IntType{Bits: 16, Signed: false},
			},
		},
	}
	return &ast.Program{Formats: []*ast.Format{f}}
}

func TestCompileSimpleFormat(t *testing.T) {
	prog := simpleFormatProgram()

	mod, l, err := Compile(prog)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	wantOps := []ir.Op{
		ir.OpDefineProgram,
		ir.OpDefineFormat,
		ir.OpDefineField,
		ir.OpSpecifyStorageType,
		ir.OpEndField,
		ir.OpEndFormat,
		ir.OpEndProgram,
	}
	if len(mod.Code) != len(wantOps) {
		t.Fatalf("len(Code) = %d, want %d (ops: %v)", len(mod.Code), len(wantOps), codeOps(mod))
	}
	for i, want := range wantOps {
		if mod.Code[i].Op != want {
			t.Errorf("Code[%d].Op = %v, want %v", i, mod.Code[i].Op, want)
		}
	}

	formatID, err := l.FormatID(prog.Formats[0])
	if err != nil {
		t.Fatalf("FormatID: %v", err)
	}
	fieldID := mod.Code[2].Ident
	if fieldID == 0 {
		t.Fatal("DEFINE_FIELD instruction has no Ident")
	}

	info := l.FieldInfo(fieldID)
	if info == nil {
		t.Fatal("FieldInfo(fieldID) = nil, want recorded info")
	}
	if info.Belong != formatID {
		t.Errorf("FieldInfo.Belong = %d, want %d (the format's own id)", info.Belong, formatID)
	}

	storage, ok := mod.LookupStorage(mod.Code[3].StorageRef)
	if !ok {
		t.Fatal("LookupStorage: not found for the field's storage ref")
	}
	if len(storage) != 1 || storage[0].Tag != ir.StorageUint || !storage[0].Size.Known() || storage[0].Size.Size() != 16 {
		t.Errorf("field storage = %+v, want a single 16-bit unsigned record", storage)
	}

	r, ok := mod.RangeOf(formatID)
	want := ir.Range{Start: 1, End: 6}
	if !ok || r != want {
		t.Errorf("RangeOf(format) = (%+v, %v), want (%+v, true)", r, ok, want)
	}
}

func codeOps(mod *ir.Module) []ir.Op {
	ops := make([]ir.Op, len(mod.Code))
	for i, c := range mod.Code {
		ops[i] = c.Op
	}
	return ops
}
