package postpass

import (
	"testing"

	"wireforge.dev/bmc/ast"
	"wireforge.dev/bmc/ir"
	"wireforge.dev/bmc/lower"
)

// simpleFormatProgram builds the AST for:
//
//	format F { x: u16 }
//
// with no user-written encode/decode, so BindEncoderAndDecoder must
// synthesize both.
func simpleFormatProgram() *ast.Program {
	f := &ast.Format{
		Ident: &ast.Ident{Name: "F"},
		Fields: []*ast.Field{
			{
				Ident:     &ast.Ident{Name: "x"},
				FieldType: &ast.IntType{Bits: 16, Signed: false},
			},
		},
	}
	return &ast.Program{Formats: []*ast.Format{f}}
}

func TestRunSimpleFormat(t *testing.T) {
	prog := simpleFormatProgram()

	mod, l, err := lower.Compile(prog)
	if err != nil {
		t.Fatalf("lower.Compile: %v", err)
	}
	if err := Run(l, prog); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var sawEncodeFunc, sawDecodeFunc, sawEncodeInt, sawDecodeInt, sawCallEncode, sawCallDecode bool
	for _, c := range mod.Code {
		switch c.Op {
		case ir.OpDefineFunction:
			switch c.FuncType {
			case ir.FuncEncode:
				sawEncodeFunc = true
			case ir.FuncDecode:
				sawDecodeFunc = true
			}
		case ir.OpEncodeInt:
			sawEncodeInt = true
		case ir.OpDecodeInt:
			sawDecodeInt = true
		case ir.OpCallEncode:
			sawCallEncode = true
		case ir.OpCallDecode:
			sawCallDecode = true
		}
	}

	if !sawEncodeFunc {
		t.Error("no synthesized DEFINE_FUNCTION(FuncEncode) found")
	}
	if !sawDecodeFunc {
		t.Error("no synthesized DEFINE_FUNCTION(FuncDecode) found")
	}
	if !sawEncodeInt {
		t.Error("no ENCODE_INT emitted for the plain uint16 field")
	}
	if !sawDecodeInt {
		t.Error("no DECODE_INT emitted for the plain uint16 field")
	}
	if sawCallEncode || sawCallDecode {
		t.Error("CALL_ENCODE/CALL_DECODE present with no nested struct field to call")
	}

	formatID, err := l.FormatID(prog.Formats[0])
	if err != nil {
		t.Fatalf("FormatID: %v", err)
	}
	if _, ok := mod.CFGOf(formatID); ok {
		t.Error("CFGOf(formatID) found a graph keyed by a format id, want functions only")
	}
}
