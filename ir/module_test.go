package ir

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestModule_LookupStringDedups(t *testing.T) {
	m := NewModule()

	a := m.LookupString("hello")
	b := m.LookupString("hello")
	c := m.LookupString("world")

	if a != b {
		t.Errorf("LookupString(\"hello\") twice gave different IDs: %d, %d", a, b)
	}
	if a == c {
		t.Errorf("LookupString(\"hello\") and LookupString(\"world\") collided on ID %d", a)
	}
}

func TestModule_LookupIdentNilMintsFresh(t *testing.T) {
	m := NewModule()

	a := m.LookupIdent(nil, "tmp")
	b := m.LookupIdent(nil, "tmp")
	if a == b {
		t.Errorf("two nil-key LookupIdent calls returned the same ID %d, want distinct ephemeral IDs", a)
	}
}

func TestModule_LookupIdentSameBindingDedups(t *testing.T) {
	m := NewModule()
	type binding struct{ name string }
	key := &binding{"x"}

	a := m.LookupIdent(key, "x")
	b := m.LookupIdent(key, "x")
	if a != b {
		t.Errorf("LookupIdent with the same binding key gave different IDs: %d, %d", a, b)
	}
}

func TestModule_InternStorageDedups(t *testing.T) {
	m := NewModule()

	u8 := Storages{{Tag: StorageUint, Size: PlusOneOf(8)}}
	ref1 := m.InternStorage(u8)
	ref2 := m.InternStorage(Storages{{Tag: StorageUint, Size: PlusOneOf(8)}})
	if ref1 != ref2 {
		t.Errorf("InternStorage of equal Storages values gave different refs: %d, %d", ref1, ref2)
	}

	got, ok := m.LookupStorage(ref1)
	if !ok {
		t.Fatal("LookupStorage: not found")
	}
	if diff := cmp.Diff(u8, got); diff != "" {
		t.Errorf("LookupStorage mismatch (-want +got):\n%s", diff)
	}
}

func TestModule_EmitWithRecordsIndex(t *testing.T) {
	m := NewModule()

	id := m.NewID()
	_, idx := m.EmitWith(OpDefineFormat, func(c *Code) { c.Ident = id })

	got, ok := m.IndexOf(id)
	if !ok || got != idx {
		t.Errorf("IndexOf(%d) = (%d, %v), want (%d, true)", id, got, ok, idx)
	}
}

func TestModule_ReindexRebuildsFromCode(t *testing.T) {
	m := NewModule()
	id := m.NewID()
	m.Code = append(m.Code, Code{Op: OpDefineField, Ident: id})

	if _, ok := m.IndexOf(id); ok {
		t.Fatal("IndexOf found an index before Reindex ran")
	}

	m.Reindex()

	got, ok := m.IndexOf(id)
	if !ok || got != 0 {
		t.Errorf("IndexOf(%d) after Reindex = (%d, %v), want (0, true)", id, got, ok)
	}
}

func TestModule_OpenCloseRange(t *testing.T) {
	m := NewModule()
	id := m.NewID()

	m.Code = append(m.Code, Code{Op: OpDefineFormat, Ident: id})
	m.OpenRange(id)
	m.Code = append(m.Code, Code{Op: OpDefineField})
	m.Code = append(m.Code, Code{Op: OpEndFormat})
	m.CloseRange(id)

	got, ok := m.RangeOf(id)
	if !ok {
		t.Fatal("RangeOf: not found")
	}
	want := Range{Start: 0, End: 3}
	if got != want {
		t.Errorf("RangeOf(%d) = %+v, want %+v", id, got, want)
	}
}

func TestModule_PrevExprReadAndClear(t *testing.T) {
	m := NewModule()

	if _, err := m.TakePrevExpr(); err == nil {
		t.Error("TakePrevExpr with nothing set returned no error")
	}

	id := m.NewID()
	m.SetPrevExpr(id)
	got, err := m.TakePrevExpr()
	if err != nil {
		t.Fatalf("TakePrevExpr: %v", err)
	}
	if got != id {
		t.Errorf("TakePrevExpr = %d, want %d", got, id)
	}

	if _, err := m.TakePrevExpr(); err == nil {
		t.Error("TakePrevExpr after a prior take returned no error, want read-and-clear to have cleared it")
	}
}

func TestModule_MaxIDAndAdvanceIDAllocator(t *testing.T) {
	m := NewModule()
	m.NewID()
	m.NewID()
	if got, want := m.MaxID(), ID(2); got != want {
		t.Errorf("MaxID() = %d, want %d", got, want)
	}

	m.AdvanceIDAllocator(10)
	if got, want := m.MaxID(), ID(10); got != want {
		t.Errorf("MaxID() after AdvanceIDAllocator(10) = %d, want %d", got, want)
	}

	// Advancing to a lower value must not move the counter backwards.
	m.AdvanceIDAllocator(5)
	if got, want := m.MaxID(), ID(10); got != want {
		t.Errorf("MaxID() after AdvanceIDAllocator(5) = %d, want %d (should not regress)", got, want)
	}

	next := m.NewID()
	if next <= 10 {
		t.Errorf("NewID() after AdvanceIDAllocator(10) = %d, want > 10", next)
	}
}
