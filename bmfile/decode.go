package bmfile

import (
	"fmt"

	"golang.org/x/crypto/cryptobyte"

	"wireforge.dev/bmc/bmerr"
	"wireforge.dev/bmc/ir"
	"wireforge.dev/bmc/varint"
)

// Decode reads the on-disk BinaryModule format (spec §6) from data
// and rebuilds the ir.Module it described, replaying every interning
// table back with its original IDs (ir.Module.InsertString and its
// siblings) so later lookups — and any further lowering into the
// decoded module — see exactly the bindings the encoder saw.
func Decode(data []byte) (*ir.Module, error) {
	s := cryptobyte.String(data)
	mod := ir.NewModule()

	maxID, ok := varint.DecodeValue(&s)
	if !ok {
		return nil, fmt.Errorf("bmfile: reading max_id: %w", bmerr.SerializationError)
	}

	metadata, err := decodeStringTable(&s)
	if err != nil {
		return nil, fmt.Errorf("bmfile: decoding metadata table: %w", err)
	}
	for _, e := range metadata {
		mod.InsertMetadataName(e.id, e.s)
	}

	strs, err := decodeStringTable(&s)
	if err != nil {
		return nil, fmt.Errorf("bmfile: decoding strings table: %w", err)
	}
	for _, e := range strs {
		mod.InsertString(e.id, e.s)
	}

	idents, err := decodeStringTable(&s)
	if err != nil {
		return nil, fmt.Errorf("bmfile: decoding identifiers table: %w", err)
	}
	for _, e := range idents {
		mod.InsertIdent(e.id, e.s)
	}

	identIndexes, err := decodeIdentIndexes(&s)
	if err != nil {
		return nil, fmt.Errorf("bmfile: decoding ident_indexes table: %w", err)
	}

	if err := decodeTypes(&s, mod); err != nil {
		return nil, fmt.Errorf("bmfile: decoding types table: %w", err)
	}

	if _, err := decodeRanges(&s); err != nil {
		return nil, fmt.Errorf("bmfile: decoding programs table: %w", err)
	}

	ranges, err := decodeIdentRanges(&s)
	if err != nil {
		return nil, fmt.Errorf("bmfile: decoding ident_ranges table: %w", err)
	}
	for id, r := range ranges {
		mod.SetRange(id, r)
	}

	if err := decodeCode(&s, mod); err != nil {
		return nil, err
	}

	mod.Reindex()
	mod.AdvanceIDAllocator(ir.ID(maxID))

	for ident, idx := range identIndexes {
		got, ok := mod.IndexOf(ident)
		if !ok || got != idx {
			return nil, fmt.Errorf("bmfile: ident_indexes entry (ident=%d, index=%d) disagrees with the decoded code stream (got index %d, found=%v): %w",
				ident, idx, got, ok, bmerr.SerializationError)
		}
	}

	return mod, nil
}

type stringEntry struct {
	id ir.ID
	s  string
}

// decodeStringTable reads the `metadata`/`strings`/`identifiers`
// shape: a length-prefixed sequence of {code: varint, string: {len:
// varint, bytes}} (spec §6 items 2-4).
func decodeStringTable(s *cryptobyte.String) ([]stringEntry, error) {
	var body cryptobyte.String
	if !s.ReadUint32LengthPrefixed(&body) {
		return nil, bmerr.SerializationError
	}
	count, ok := varint.DecodeValue(&body)
	if !ok {
		return nil, bmerr.SerializationError
	}
	out := make([]stringEntry, 0, count)
	for i := uint64(0); i < count; i++ {
		id, ok := varint.DecodeValue(&body)
		if !ok {
			return nil, bmerr.SerializationError
		}
		n, ok := varint.DecodeValue(&body)
		if !ok {
			return nil, bmerr.SerializationError
		}
		var raw []byte
		if !body.ReadBytes(&raw, int(n)) {
			return nil, bmerr.SerializationError
		}
		out = append(out, stringEntry{id: ir.ID(id), s: string(raw)})
	}
	if !body.Empty() {
		return nil, fmt.Errorf("trailing bytes after %d entries: %w", count, bmerr.SerializationError)
	}
	return out, nil
}

// decodeIdentIndexes reads the `ident_indexes` table (spec §6 item 5).
func decodeIdentIndexes(s *cryptobyte.String) (map[ir.ID]int, error) {
	var body cryptobyte.String
	if !s.ReadUint32LengthPrefixed(&body) {
		return nil, bmerr.SerializationError
	}
	count, ok := varint.DecodeValue(&body)
	if !ok {
		return nil, bmerr.SerializationError
	}
	out := make(map[ir.ID]int, count)
	for i := uint64(0); i < count; i++ {
		ident, ok := varint.DecodeValue(&body)
		if !ok {
			return nil, bmerr.SerializationError
		}
		idx, ok := varint.DecodeValue(&body)
		if !ok {
			return nil, bmerr.SerializationError
		}
		out[ir.ID(ident)] = int(idx)
	}
	if !body.Empty() {
		return nil, bmerr.SerializationError
	}
	return out, nil
}

// decodeTypes reads the `types` table (spec §6 item 6) and replays
// each interned Storages vector into mod under its original ref.
func decodeTypes(s *cryptobyte.String, mod *ir.Module) error {
	var body cryptobyte.String
	if !s.ReadUint32LengthPrefixed(&body) {
		return bmerr.SerializationError
	}
	count, ok := varint.DecodeValue(&body)
	if !ok {
		return bmerr.SerializationError
	}
	for i := uint64(0); i < count; i++ {
		ref, ok := varint.DecodeValue(&body)
		if !ok {
			return bmerr.SerializationError
		}
		storages, err := decodeStorages(&body)
		if err != nil {
			return err
		}
		mod.InsertStorage(ir.StorageRef(ref), storages)
	}
	if !body.Empty() {
		return bmerr.SerializationError
	}
	return nil
}

func decodeStorages(s *cryptobyte.String) (ir.Storages, error) {
	count, ok := varint.DecodeValue(s)
	if !ok {
		return nil, bmerr.SerializationError
	}
	out := make(ir.Storages, count)
	for i := range out {
		var tag uint8
		if !s.ReadUint8(&tag) {
			return nil, bmerr.SerializationError
		}
		size, ok := varint.DecodeValue(s)
		if !ok {
			return nil, bmerr.SerializationError
		}
		ref, ok := varint.DecodeValue(s)
		if !ok {
			return nil, bmerr.SerializationError
		}
		var signed uint8
		if !s.ReadUint8(&signed) {
			return nil, bmerr.SerializationError
		}
		out[i] = ir.Storage{
			Tag:    ir.StorageTag(tag),
			Size:   ir.BitSizePlus(size),
			Ref:    ir.ID(ref),
			Signed: signed != 0,
		}
	}
	return out, nil
}

// decodeRanges reads a length-prefixed sequence of {start,end}
// varint pairs, the shape shared by the `programs` table (spec §6
// item 7).
func decodeRanges(s *cryptobyte.String) ([]ir.Range, error) {
	var body cryptobyte.String
	if !s.ReadUint32LengthPrefixed(&body) {
		return nil, bmerr.SerializationError
	}
	count, ok := varint.DecodeValue(&body)
	if !ok {
		return nil, bmerr.SerializationError
	}
	out := make([]ir.Range, 0, count)
	for i := uint64(0); i < count; i++ {
		start, ok := varint.DecodeValue(&body)
		if !ok {
			return nil, bmerr.SerializationError
		}
		end, ok := varint.DecodeValue(&body)
		if !ok {
			return nil, bmerr.SerializationError
		}
		out = append(out, ir.Range{Start: int(start), End: int(end)})
	}
	if !body.Empty() {
		return nil, bmerr.SerializationError
	}
	return out, nil
}

// decodeIdentRanges reads the `ident_ranges` table (spec §6 item 8).
func decodeIdentRanges(s *cryptobyte.String) (map[ir.ID]ir.Range, error) {
	var body cryptobyte.String
	if !s.ReadUint32LengthPrefixed(&body) {
		return nil, bmerr.SerializationError
	}
	count, ok := varint.DecodeValue(&body)
	if !ok {
		return nil, bmerr.SerializationError
	}
	out := make(map[ir.ID]ir.Range, count)
	for i := uint64(0); i < count; i++ {
		id, ok := varint.DecodeValue(&body)
		if !ok {
			return nil, bmerr.SerializationError
		}
		start, ok := varint.DecodeValue(&body)
		if !ok {
			return nil, bmerr.SerializationError
		}
		end, ok := varint.DecodeValue(&body)
		if !ok {
			return nil, bmerr.SerializationError
		}
		out[ir.ID(id)] = ir.Range{Start: int(start), End: int(end)}
	}
	if !body.Empty() {
		return nil, bmerr.SerializationError
	}
	return out, nil
}

// decodeCode reads the `code_length` varint and that many Code
// records (spec §6 item 9), appending each to mod.Code in order.
func decodeCode(s *cryptobyte.String, mod *ir.Module) error {
	count, ok := varint.DecodeValue(s)
	if !ok {
		return fmt.Errorf("bmfile: reading code_length: %w", bmerr.SerializationError)
	}
	mod.Code = make([]ir.Code, 0, count)
	for i := uint64(0); i < count; i++ {
		c, err := decodeOneCode(s)
		if err != nil {
			return fmt.Errorf("bmfile: decoding code[%d]: %w", i, err)
		}
		mod.Code = append(mod.Code, c)
	}
	return nil
}

func decodeOneCode(s *cryptobyte.String) (ir.Code, error) {
	var c ir.Code

	op, ok := varint.DecodeValue(s)
	if !ok {
		return c, bmerr.SerializationError
	}
	c.Op = ir.Op(op)

	var flags uint32
	if !s.ReadUint32(&flags) {
		return c, bmerr.SerializationError
	}

	readID := func() (ir.ID, bool) {
		v, ok := varint.DecodeValue(s)
		return ir.ID(v), ok
	}
	readInt := func() (int, bool) {
		v, ok := varint.DecodeValue(s)
		return int(v), ok
	}

	var ok2 bool
	fail := func() (ir.Code, error) { return c, bmerr.SerializationError }

	if flags&flagIdent != 0 {
		if c.Ident, ok2 = readID(); !ok2 {
			return fail()
		}
	}
	if flags&flagRef != 0 {
		if c.Ref, ok2 = readID(); !ok2 {
			return fail()
		}
	}
	if flags&flagLeftRef != 0 {
		if c.LeftRef, ok2 = readID(); !ok2 {
			return fail()
		}
	}
	if flags&flagRightRef != 0 {
		if c.RightRef, ok2 = readID(); !ok2 {
			return fail()
		}
	}
	if flags&flagBelong != 0 {
		if c.Belong, ok2 = readID(); !ok2 {
			return fail()
		}
	}
	if flags&flagBop != 0 {
		n, ok2 := readInt()
		if !ok2 {
			return fail()
		}
		c.Bop = ir.BinOp(n)
	}
	if flags&flagUop != 0 {
		n, ok2 := readInt()
		if !ok2 {
			return fail()
		}
		c.Uop = ir.UnOp(n)
	}
	if flags&flagIntValue != 0 {
		v, ok2 := varint.DecodeValue(s)
		if !ok2 {
			return fail()
		}
		c.IntValue = v
	}
	if flags&flagIntValue64 != 0 {
		var v uint64
		if !s.ReadUint64(&v) {
			return fail()
		}
		c.IntValue64 = int64(v)
	}
	if flags&flagBitSize != 0 {
		n, ok2 := readInt()
		if !ok2 {
			return fail()
		}
		c.BitSize = ir.BitSizePlus(n)
	}
	if flags&flagEndian != 0 {
		n, ok2 := readInt()
		if !ok2 {
			return fail()
		}
		c.Endian = ir.Endian(n)
	}
	if flags&flagSigned != 0 {
		c.Signed = true
	}
	if flags&flagDynamicRef != 0 {
		if c.DynamicRef, ok2 = readID(); !ok2 {
			return fail()
		}
	}
	if flags&flagStorage != 0 {
		storages, err := decodeStorages(s)
		if err != nil {
			return c, err
		}
		c.Storage = &storages
	}
	if flags&flagStorageRef != 0 {
		id, ok2 := readID()
		if !ok2 {
			return fail()
		}
		c.StorageRef = ir.StorageRef(id)
	}
	if flags&flagCastType != 0 {
		n, ok2 := readInt()
		if !ok2 {
			return fail()
		}
		c.CastType = ir.CastType(n)
	}
	if flags&flagMergeMode != 0 {
		n, ok2 := readInt()
		if !ok2 {
			return fail()
		}
		c.MergeMode = ir.MergeMode(n)
	}
	if flags&flagCheckAt != 0 {
		if c.CheckAt, ok2 = readID(); !ok2 {
			return fail()
		}
	}
	if flags&flagPackedOpType != 0 {
		n, ok2 := readInt()
		if !ok2 {
			return fail()
		}
		c.PackedOpType = ir.PackedOpType(n)
	}
	if flags&flagSubRangeType != 0 {
		n, ok2 := readInt()
		if !ok2 {
			return fail()
		}
		c.SubRangeType = ir.SubRangeType(n)
	}
	if flags&flagFuncType != 0 {
		n, ok2 := readInt()
		if !ok2 {
			return fail()
		}
		c.FuncType = ir.FuncType(n)
	}
	if flags&flagEncodeFlags != 0 {
		var v uint8
		if !s.ReadUint8(&v) {
			return fail()
		}
		c.EncodeFlags = ir.EncodeFlags(v)
	}
	if flags&flagDecodeFlags != 0 {
		var v uint8
		if !s.ReadUint8(&v) {
			return fail()
		}
		c.DecodeFlags = ir.DecodeFlags(v)
	}
	if flags&flagParam != 0 {
		n, ok2 := readInt()
		if !ok2 {
			return fail()
		}
		refs := make([]ir.ID, n)
		for i := range refs {
			if refs[i], ok2 = readID(); !ok2 {
				return fail()
			}
		}
		c.Param = ir.Param{Refs: refs}
	}
	if flags&flagMetadata != 0 {
		name, ok2 := readID()
		if !ok2 {
			return fail()
		}
		n, ok2 := readInt()
		if !ok2 {
			return fail()
		}
		args := make([]ir.ID, n)
		for i := range args {
			if args[i], ok2 = readID(); !ok2 {
				return fail()
			}
		}
		c.Metadata = &ir.Metadata{Name: name, Args: args}
	}
	if flags&flagPhi != 0 {
		n, ok2 := readInt()
		if !ok2 {
			return fail()
		}
		phi := make([]ir.PhiParam, n)
		for i := range phi {
			cond, ok3 := readID()
			if !ok3 {
				return fail()
			}
			val, ok3 := readID()
			if !ok3 {
				return fail()
			}
			phi[i] = ir.PhiParam{Cond: cond, Value: val}
		}
		c.Phi = phi
	}
	if flags&flagFallback != 0 {
		if c.Fallback, ok2 = readID(); !ok2 {
			return fail()
		}
	}

	return c, nil
}
