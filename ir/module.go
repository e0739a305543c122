package ir

import (
	"fmt"
	"math"

	"wireforge.dev/bmc/bmerr"
)

// idAllocator hands out monotonically increasing IDs from a single
// shared counter. ID 0 is reserved as the null reference (spec §3),
// so the first call to Next returns 1.
type idAllocator struct {
	next uint64
}

func (a *idAllocator) Next() ID {
	a.next++
	if a.next > math.MaxUint64-1 {
		panic("ir: object ID space exhausted")
	}
	return ID(a.next)
}

// Range is a half-open span over the Module's instruction buffer
// belonging to one named definition (spec §3).
type Range struct {
	Start, End int
}

// Module is the single pipeline object that owns every piece of
// state a compile touches: the growing instruction buffer, the
// ID→index map, the four interning tables, the range table, and the
// prev_expr scratch register (spec §5).
//
// A Module is built by exactly one lowering pass and is never
// re-entered concurrently.
type Module struct {
	Code []Code

	ids *idAllocator

	// index maps a definition's own ID to the index of its DEFINE_X
	// instruction in Code (spec §4.3).
	index map[ID]int

	strings   *internTable
	idents    *identTable
	metadata  *internTable
	storages  *storageTable

	// ranges maps a definition's ID to its [start,end) bracket (spec §3).
	ranges map[ID]Range

	// prevExpr holds the ID most recently produced by expression
	// lowering; read-and-clear (spec §4.3).
	prevExpr   ID
	prevExprOK bool

	// Phi is the phi stack for the branching construct currently
	// being lowered (spec §4.6).
	Phi PhiStack

	// cfg holds each function's control-flow graph, populated by the
	// generate_cfg1 post-pass (spec §5, §6's `-c` output).
	cfg map[ID]*CFG1Graph
}

// NewModule constructs an empty Module ready for lowering.
func NewModule() *Module {
	alloc := &idAllocator{}
	return &Module{
		ids:      alloc,
		index:    make(map[ID]int),
		strings:  newInternTable(alloc),
		idents:   newIdentTable(alloc),
		metadata: newInternTable(alloc),
		storages: newStorageTable(alloc),
		ranges:   make(map[ID]Range),
	}
}

// NewID mints a fresh ID without emitting an instruction (spec §4.3's
// new_id()). Used for compiler-generated temporaries.
func (m *Module) NewID() ID { return m.ids.Next() }

// MaxID returns the highest ID minted so far, for the on-disk module's
// leading `max_id` field (spec §6).
func (m *Module) MaxID() ID { return ID(m.ids.next) }

// AdvanceIDAllocator raises the allocator's counter to at least id,
// so a Module rebuilt by bmfile.Decode never reuses an ID the
// on-disk module already recorded if it is lowered into further.
func (m *Module) AdvanceIDAllocator(id ID) {
	if uint64(id) > m.ids.next {
		m.ids.next = uint64(id)
	}
}

// InsertString, InsertMetadataName, InsertIdent and InsertStorage
// replay a previously-serialized interning-table entry back into the
// Module with its original id intact, rather than minting a fresh one
// from content. bmfile.Decode is their only caller: a live lowering
// pass always goes through LookupString/LookupIdent/LookupMetadataName/
// InternStorage instead.
func (m *Module) InsertString(id ID, s string)         { m.strings.Insert(id, s) }
func (m *Module) InsertMetadataName(id ID, s string)   { m.metadata.Insert(id, s) }
func (m *Module) InsertIdent(id ID, name string)       { m.idents.InsertByID(id, name) }
func (m *Module) InsertStorage(ref StorageRef, s Storages) { m.storages.Insert(ref, s) }

// SetRange directly records a definition's [start,end) bracket,
// replaying the on-disk `ident_ranges` table (spec §6) rather than
// deriving it from OpenRange/CloseRange calls during lowering.
func (m *Module) SetRange(id ID, r Range) { m.ranges[id] = r }

// Emit appends a bare instruction and returns its index.
func (m *Module) Emit(op Op) int {
	m.Code = append(m.Code, Code{Op: op})
	return len(m.Code) - 1
}

// EmitWith appends an instruction built by set, then records its
// Ident in the index map if one was set (spec §4.3's `op(kind, set)`).
// It returns the new instruction's own ID (0 if it didn't declare
// one) and its index.
func (m *Module) EmitWith(op Op, set func(*Code)) (ID, int) {
	c := Code{Op: op}
	if set != nil {
		set(&c)
	}
	m.Code = append(m.Code, c)
	idx := len(m.Code) - 1
	if c.Ident != 0 {
		m.index[c.Ident] = idx
	}
	return c.Ident, idx
}

// IndexOf returns the instruction index a definition ID was recorded
// at, and whether it was found.
func (m *Module) IndexOf(id ID) (int, bool) {
	idx, ok := m.index[id]
	return idx, ok
}

// Reindex rebuilds the ID→index map from scratch by scanning Code.
// Post-passes that reorder or insert instructions must call this
// before any subsequent IndexOf lookup (spec §3's lifecycle
// invariant, spec §5).
func (m *Module) Reindex() {
	m.index = make(map[ID]int, len(m.index))
	for i, c := range m.Code {
		if c.Ident != 0 {
			m.index[c.Ident] = i
		}
	}
}

// OpenRange records the start of a bracketed region for id, at the
// current end of the buffer. CloseRange must be called with the same
// id once the END_X instruction has been emitted.
func (m *Module) OpenRange(id ID) {
	m.ranges[id] = Range{Start: len(m.Code) - 1}
}

// CloseRange sets the end of id's range to just past the current end
// of the buffer (after the END_X instruction has been emitted).
func (m *Module) CloseRange(id ID) {
	r := m.ranges[id]
	r.End = len(m.Code)
	m.ranges[id] = r
}

// RangeOf returns the recorded [start,end) bracket for id.
func (m *Module) RangeOf(id ID) (Range, bool) {
	r, ok := m.ranges[id]
	return r, ok
}

// Ranges returns every recorded range, for serialization into the
// on-disk `ident_ranges` table (spec §6).
func (m *Module) Ranges() map[ID]Range { return m.ranges }

// SetPrevExpr records the ID produced by the most recent expression
// lowering.
func (m *Module) SetPrevExpr(id ID) {
	m.prevExpr = id
	m.prevExprOK = true
}

// ClearPrevExpr resets prev_expr at a statement boundary (spec §3's
// invariant that prev_expr_id is reset at every statement boundary).
func (m *Module) ClearPrevExpr() {
	m.prevExpr = 0
	m.prevExprOK = false
}

// TakePrevExpr reads and clears prev_expr. It returns an error
// wrapping bmerr.BugInvariant if no expression set it since the last
// clear (spec §4.3's read-and-clear contract).
func (m *Module) TakePrevExpr() (ID, error) {
	if !m.prevExprOK {
		return 0, fmt.Errorf("ir: read of prev_expr with none set: %w", bmerr.BugInvariant)
	}
	id := m.prevExpr
	m.ClearPrevExpr()
	return id, nil
}

// LookupString interns s, returning its existing ID or minting a
// fresh one (spec §4.2).
func (m *Module) LookupString(s string) ID { return m.strings.Lookup(s) }

// LookupIdent interns an identifier by its canonical binding key
// (spec §4.2's lookup_ident). Pass nil to mint a fresh ephemeral ID
// for a compiler-generated temporary.
func (m *Module) LookupIdent(key any, name string) ID { return m.idents.Lookup(key, name) }

// LookupMetadataName interns a metadata name the same way as a string
// (spec §3's `metadata` operand names a separate table from content
// strings, so collisions between a metadata name and an unrelated
// string never merge).
func (m *Module) LookupMetadataName(s string) ID { return m.metadata.Lookup(s) }

// InternStorage interns a Storages vector, returning its StorageRef
// (spec §4.2, §4.4).
func (m *Module) InternStorage(s Storages) StorageRef { return m.storages.Intern(s) }

// LookupStorage returns the Storages a previously interned ref names.
func (m *Module) LookupStorage(ref StorageRef) (Storages, bool) { return m.storages.Lookup(ref) }

// AllStorages returns every interned storage vector, ordered by ref.
func (m *Module) AllStorages() []struct {
	Ref      StorageRef
	Storages Storages
} {
	return m.storages.All()
}

// AllStrings returns every interned string, ordered by ID.
func (m *Module) AllStrings() []struct {
	ID ID
	S  string
} {
	return m.strings.All()
}

// AllMetadataNames returns every interned metadata name, ordered by ID.
func (m *Module) AllMetadataNames() []struct {
	ID ID
	S  string
} {
	return m.metadata.All()
}

// AllIdents returns every interned identifier, ordered by ID.
func (m *Module) AllIdents() []struct {
	ID   ID
	Name string
} {
	return m.idents.All()
}

// AllIdentIndexes returns the (ident, instruction index) pairs
// recorded for DEFINE_X instructions, for the on-disk `ident_indexes`
// table (spec §6).
func (m *Module) AllIdentIndexes() map[ID]int { return m.index }
