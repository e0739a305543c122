package ir

import (
	"encoding/binary"
	"sort"
)

// StorageTag is the tag of one Storage record (spec §3's storage
// vector leaves and composites).
type StorageTag uint8

const (
	StorageBool StorageTag = iota + 1
	StorageUint
	StorageInt
	StorageFloat
	StorageArray  // followed by its element storage(s)
	StorageVector // followed by its element storage(s)
	StorageOptional
	StoragePtr
	StorageVariant // followed by Size member STRUCT_REFs
	StorageEnum    // optionally followed by an underlying int Storage
	StorageStructRef
	StorageRecursiveStructRef
	StorageCoderReturn
	StoragePropertySetterReturn
)

// Storage is one record of a type's flat storage vector (spec §3,
// §4.4). Only the fields relevant to Tag are meaningful.
type Storage struct {
	Tag StorageTag

	Size BitSizePlus // bit width for UINT/INT/FLOAT; member count for VARIANT; plus-one struct bit_width for STRUCT_REF
	Ref  ID          // struct/enum/union ident this storage names, if any

	Signed bool
}

// Storages is a non-empty linear sequence of Storage records — one
// full type descriptor (spec §3).
type Storages []Storage

// key returns a canonical byte-level encoding used to dedup storage
// vectors in the type-interning table (spec §4.2's get_storage_ref).
func (s Storages) key() string {
	buf := make([]byte, 0, len(s)*16)
	var tmp [8]byte
	for _, rec := range s {
		buf = append(buf, byte(rec.Tag))
		binary.BigEndian.PutUint32(tmp[:4], uint32(rec.Size))
		buf = append(buf, tmp[:4]...)
		binary.BigEndian.PutUint64(tmp[:8], uint64(rec.Ref))
		buf = append(buf, tmp[:8]...)
		if rec.Signed {
			buf = append(buf, 1)
		} else {
			buf = append(buf, 0)
		}
	}
	return string(buf)
}

// StorageRef is an interned handle for a deduplicated Storages value.
type StorageRef ID

// storageTable interns Storages vectors by their byte key, handing
// out a fresh StorageRef on first insertion (spec §4.2).
type storageTable struct {
	byKey  map[string]StorageRef
	byRef  map[StorageRef]Storages
	alloc  *idAllocator
}

func newStorageTable(alloc *idAllocator) *storageTable {
	return &storageTable{
		byKey: make(map[string]StorageRef),
		byRef: make(map[StorageRef]Storages),
		alloc: alloc,
	}
}

// Intern returns the StorageRef for s, minting a fresh one if this
// exact storage vector hasn't been seen before.
func (t *storageTable) Intern(s Storages) StorageRef {
	key := s.key()
	if ref, ok := t.byKey[key]; ok {
		return ref
	}
	ref := StorageRef(t.alloc.Next())
	t.byKey[key] = ref
	t.byRef[ref] = s
	return ref
}

// Insert records a previously-assigned (ref, storages) pair directly,
// bypassing key-based deduplication. Used by bmfile.Decode to replay
// the on-disk `types` table with its original refs intact.
func (t *storageTable) Insert(ref StorageRef, s Storages) {
	t.byKey[s.key()] = ref
	t.byRef[ref] = s
}

// Lookup returns the Storages a previously interned ref names.
func (t *storageTable) Lookup(ref StorageRef) (Storages, bool) {
	s, ok := t.byRef[ref]
	return s, ok
}

// All returns every interned (ref, storages) pair, ordered by ref,
// for serialization (spec §6's `types` table).
func (t *storageTable) All() []struct {
	Ref      StorageRef
	Storages Storages
} {
	out := make([]struct {
		Ref      StorageRef
		Storages Storages
	}, 0, len(t.byRef))
	for ref, s := range t.byRef {
		out = append(out, struct {
			Ref      StorageRef
			Storages Storages
		}{ref, s})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Ref < out[j].Ref })
	return out
}
