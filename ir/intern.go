package ir

import "sort"

// internTable interns strings (content -> ID), used for both the
// string table and the metadata-name table (spec §3, §4.2) — they
// are separate tables at the Module level that share this
// implementation and draw IDs from the Module's one shared allocator.
type internTable struct {
	byContent map[string]ID
	byID      map[ID]string
	alloc     *idAllocator
}

func newInternTable(alloc *idAllocator) *internTable {
	return &internTable{
		byContent: make(map[string]ID),
		byID:      make(map[ID]string),
		alloc:     alloc,
	}
}

// Lookup returns s's existing ID or mints one.
func (t *internTable) Lookup(s string) ID {
	if id, ok := t.byContent[s]; ok {
		return id
	}
	id := t.alloc.Next()
	t.byContent[s] = id
	t.byID[id] = s
	return id
}

// Insert records a previously-assigned (id, content) pair directly,
// bypassing content-based deduplication. Used when replaying a
// decoded on-disk table back into a fresh Module, where the id is
// fixed by what was written rather than derived from content.
func (t *internTable) Insert(id ID, s string) {
	t.byContent[s] = id
	t.byID[id] = s
}

// All returns every interned (id, content) pair, ordered by id.
func (t *internTable) All() []struct {
	ID ID
	S  string
} {
	out := make([]struct {
		ID ID
		S  string
	}, 0, len(t.byID))
	for id, s := range t.byID {
		out = append(out, struct {
			ID ID
			S  string
		}{id, s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// identTable interns identifiers by their canonical AST binding (spec
// §4.2's lookup_ident). It is keyed by an opaque binding key supplied
// by the caller rather than by any ast type directly, so this package
// has no dependency on package ast: the lower package resolves an
// *ast.Ident to its Canonical() pointer and passes that pointer as
// key.
//
// A nil key always mints a fresh ephemeral ID — used for
// compiler-generated temporaries that never existed in source.
type identTable struct {
	byBinding map[any]ID
	byID      map[ID]string
	alloc     *idAllocator
}

func newIdentTable(alloc *idAllocator) *identTable {
	return &identTable{
		byBinding: make(map[any]ID),
		byID:      make(map[ID]string),
		alloc:     alloc,
	}
}

// Lookup returns the ID for a binding, minting one on first sight. A
// nil key always mints a fresh ID without consulting the map.
func (t *identTable) Lookup(key any, name string) ID {
	if key == nil {
		id := t.alloc.Next()
		t.byID[id] = name
		return id
	}
	if id, ok := t.byBinding[key]; ok {
		return id
	}
	id := t.alloc.Next()
	t.byBinding[key] = id
	t.byID[id] = name
	return id
}

// InsertByID records a previously-assigned (id, name) pair directly,
// with no binding key — used by bmfile.Decode, which only ever sees
// names, not the *ast.Ident binding pointers a live compile interns
// by.
func (t *identTable) InsertByID(id ID, name string) {
	t.byID[id] = name
}

// All returns every interned (id, name) pair, ordered by id.
func (t *identTable) All() []struct {
	ID   ID
	Name string
} {
	out := make([]struct {
		ID   ID
		Name string
	}, 0, len(t.byID))
	for id, name := range t.byID {
		out = append(out, struct {
			ID   ID
			Name string
		}{id, name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
