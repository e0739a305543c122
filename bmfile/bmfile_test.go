package bmfile

import (
	"bytes"
	"testing"

	"github.com/google/go-cmp/cmp"

	"wireforge.dev/bmc/ir"
)

// buildModule hand-assembles a small but representative module: a
// program containing one format with one field, exercising the
// metadata/strings/identifiers/types/ranges tables and a handful of
// Code operand kinds (ident, ref, storage, storage ref, int, signed,
// param, phi, metadata) all at once.
func buildModule(t *testing.T) *ir.Module {
	t.Helper()
	m := ir.NewModule()

	progID := m.NewID()
	fmtID := m.NewID()
	fieldID := m.NewID()
	u16Ref := m.InternStorage(ir.Storages{{Tag: ir.StorageUint, Size: ir.PlusOneOf(16)}})
	nameStr := m.LookupString("x")
	metaName := m.LookupMetadataName("endian")

	m.EmitWith(ir.OpDefineProgram, func(c *ir.Code) { c.Ident = progID })
	m.OpenRange(progID)

	m.EmitWith(ir.OpDefineFormat, func(c *ir.Code) { c.Ident = fmtID })
	m.OpenRange(fmtID)

	m.EmitWith(ir.OpDefineField, func(c *ir.Code) {
		c.Ident = fieldID
		c.Belong = fmtID
		c.Ref = m.LookupIdent(nil, "x")
		c.StorageRef = u16Ref
		c.Storage = &ir.Storages{{Tag: ir.StorageUint, Size: ir.PlusOneOf(16)}}
		c.IntValue = uint64(nameStr)
		c.Signed = false
		c.Param = ir.Param{Refs: []ir.ID{fieldID, fmtID}}
		c.Phi = []ir.PhiParam{{Cond: fmtID, Value: fieldID}}
		c.Metadata = &ir.Metadata{Name: metaName, Args: []ir.ID{fieldID}}
	})
	m.EmitWith(ir.OpEndField, func(c *ir.Code) {})

	m.CloseRange(fmtID)
	m.EmitWith(ir.OpEndFormat, func(c *ir.Code) {})

	m.CloseRange(progID)
	m.EmitWith(ir.OpEndProgram, func(c *ir.Code) {})

	return m
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	want := buildModule(t)

	var buf bytes.Buffer
	if err := Encode(&buf, want); err != nil {
		t.Fatalf("Encode: %v", err)
	}

	got, err := Decode(buf.Bytes())
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}

	if diff := cmp.Diff(want.Code, got.Code); diff != "" {
		t.Errorf("round-tripped Code differs (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.AllStrings(), got.AllStrings()); diff != "" {
		t.Errorf("strings table differs (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.AllIdents(), got.AllIdents()); diff != "" {
		t.Errorf("identifiers table differs (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.AllMetadataNames(), got.AllMetadataNames()); diff != "" {
		t.Errorf("metadata table differs (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.AllStorages(), got.AllStorages()); diff != "" {
		t.Errorf("types table differs (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(want.Ranges(), got.Ranges()); diff != "" {
		t.Errorf("ident_ranges differ (-want +got):\n%s", diff)
	}
	if got.MaxID() != want.MaxID() {
		t.Errorf("MaxID mismatch: got %d, want %d", got.MaxID(), want.MaxID())
	}
}

func TestWriteReadCFGRoundTrip(t *testing.T) {
	m := ir.NewModule()
	funcID := m.NewID()
	want := map[ir.ID]*ir.CFG1Graph{
		funcID: {
			FuncID: funcID,
			Blocks: []ir.CFGBlock{
				{Start: 0, End: 2, Succ: []int{1}},
				{Start: 2, End: 4, Succ: nil},
			},
		},
	}
	m.SetCFG(want)

	var buf bytes.Buffer
	if err := WriteCFG(&buf, m); err != nil {
		t.Fatalf("WriteCFG: %v", err)
	}

	got, err := ReadCFG(buf.Bytes())
	if err != nil {
		t.Fatalf("ReadCFG: %v", err)
	}

	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("CFG round-trip mismatch (-want +got):\n%s", diff)
	}
}
