package bmfile

import (
	"fmt"
	"io"

	"golang.org/x/crypto/cryptobyte"

	"wireforge.dev/bmc/bmerr"
	"wireforge.dev/bmc/ir"
	"wireforge.dev/bmc/varint"
)

// Encode serializes mod into the on-disk BinaryModule format (spec
// §6) and writes it to w.
func Encode(w io.Writer, mod *ir.Module) error {
	b := cryptobyte.NewBuilder(nil)

	if err := varint.EncodeCanonical(b, uint64(mod.MaxID())); err != nil {
		return fmt.Errorf("bmfile: encoding max_id: %w", err)
	}
	if err := encodeStringTable(b, mod.AllMetadataNames()); err != nil {
		return fmt.Errorf("bmfile: encoding metadata table: %w", err)
	}
	if err := encodeStringTable(b, mod.AllStrings()); err != nil {
		return fmt.Errorf("bmfile: encoding strings table: %w", err)
	}
	if err := encodeIdentifiers(b, mod); err != nil {
		return fmt.Errorf("bmfile: encoding identifiers table: %w", err)
	}
	if err := encodeIdentIndexes(b, mod); err != nil {
		return fmt.Errorf("bmfile: encoding ident_indexes table: %w", err)
	}
	if err := encodeTypes(b, mod); err != nil {
		return fmt.Errorf("bmfile: encoding types table: %w", err)
	}
	if err := encodePrograms(b, mod); err != nil {
		return fmt.Errorf("bmfile: encoding programs table: %w", err)
	}
	if err := encodeIdentRanges(b, mod); err != nil {
		return fmt.Errorf("bmfile: encoding ident_ranges table: %w", err)
	}
	if err := encodeCode(b, mod); err != nil {
		return err
	}

	out, err := b.Bytes()
	if err != nil {
		return fmt.Errorf("bmfile: building module bytes: %v: %w", err, bmerr.SerializationError)
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("bmfile: writing module: %w", err)
	}
	return nil
}

// encodeStringTable writes the `metadata`/`strings` shape: a
// length-prefixed sequence of {code: varint, string: {len: varint,
// bytes}} (spec §6 items 2-3).
func encodeStringTable(b *cryptobyte.Builder, entries []struct {
	ID ir.ID
	S  string
}) error {
	var encErr error
	b.AddUint32LengthPrefixed(func(b *cryptobyte.Builder) {
		must := func(e error) {
			if encErr == nil {
				encErr = e
			}
		}
		must(varint.EncodeCanonical(b, uint64(len(entries))))
		for _, e := range entries {
			must(varint.EncodeCanonical(b, uint64(e.ID)))
			must(varint.EncodeCanonical(b, uint64(len(e.S))))
			b.AddBytes([]byte(e.S))
		}
	})
	return encErr
}

// encodeIdentifiers writes the `identifiers` table (spec §6 item 4):
// same shape as metadata/strings, but every interned identifier
// carries a name, including compiler-generated temporaries whose name
// is the empty string.
func encodeIdentifiers(b *cryptobyte.Builder, mod *ir.Module) error {
	idents := mod.AllIdents()
	var encErr error
	b.AddUint32LengthPrefixed(func(b *cryptobyte.Builder) {
		must := func(e error) {
			if encErr == nil {
				encErr = e
			}
		}
		must(varint.EncodeCanonical(b, uint64(len(idents))))
		for _, id := range idents {
			must(varint.EncodeCanonical(b, uint64(id.ID)))
			must(varint.EncodeCanonical(b, uint64(len(id.Name))))
			b.AddBytes([]byte(id.Name))
		}
	})
	return encErr
}

// encodeIdentIndexes writes the `ident_indexes` table (spec §6 item
// 5): every DEFINE_X instruction's own ident paired with the index of
// that instruction in the code stream.
func encodeIdentIndexes(b *cryptobyte.Builder, mod *ir.Module) error {
	pairs := mod.AllIdentIndexes()
	var encErr error
	b.AddUint32LengthPrefixed(func(b *cryptobyte.Builder) {
		must := func(e error) {
			if encErr == nil {
				encErr = e
			}
		}
		must(varint.EncodeCanonical(b, uint64(len(pairs))))
		for ident, idx := range pairs {
			must(varint.EncodeCanonical(b, uint64(ident)))
			must(varint.EncodeCanonical(b, uint64(idx)))
		}
	})
	return encErr
}

// encodeTypes writes the `types` table (spec §6 item 6): one
// {code: varint, storage: Storages} entry per interned storage
// vector, where Storages is itself a length-prefixed sequence of tag
// + operand-bag records.
func encodeTypes(b *cryptobyte.Builder, mod *ir.Module) error {
	all := mod.AllStorages()
	var encErr error
	b.AddUint32LengthPrefixed(func(b *cryptobyte.Builder) {
		must := func(e error) {
			if encErr == nil {
				encErr = e
			}
		}
		must(varint.EncodeCanonical(b, uint64(len(all))))
		for _, entry := range all {
			must(varint.EncodeCanonical(b, uint64(entry.Ref)))
			must(encodeStorages(b, entry.Storages))
		}
	})
	return encErr
}

func encodeStorages(b *cryptobyte.Builder, storages ir.Storages) error {
	if err := varint.EncodeCanonical(b, uint64(len(storages))); err != nil {
		return err
	}
	for _, s := range storages {
		b.AddUint8(uint8(s.Tag))
		if err := varint.EncodeCanonical(b, uint64(s.Size)); err != nil {
			return err
		}
		if err := varint.EncodeCanonical(b, uint64(s.Ref)); err != nil {
			return err
		}
		if s.Signed {
			b.AddUint8(1)
		} else {
			b.AddUint8(0)
		}
	}
	return nil
}

// encodePrograms writes the `programs` table (spec §6 item 7): the
// [start,end) range of every DEFINE_PROGRAM bracket (in practice
// exactly one per compile, but the table holds every recorded one so
// a future multi-program module needs no format change).
func encodePrograms(b *cryptobyte.Builder, mod *ir.Module) error {
	var ranges []ir.Range
	for id, r := range mod.Ranges() {
		idx, ok := mod.IndexOf(id)
		if !ok || mod.Code[idx].Op != ir.OpDefineProgram {
			continue
		}
		ranges = append(ranges, r)
	}
	var encErr error
	b.AddUint32LengthPrefixed(func(b *cryptobyte.Builder) {
		must := func(e error) {
			if encErr == nil {
				encErr = e
			}
		}
		must(varint.EncodeCanonical(b, uint64(len(ranges))))
		for _, r := range ranges {
			must(varint.EncodeCanonical(b, uint64(r.Start)))
			must(varint.EncodeCanonical(b, uint64(r.End)))
		}
	})
	return encErr
}

// encodeIdentRanges writes the `ident_ranges` table (spec §6 item 8):
// every definition's own [start,end) bracket, keyed by its ident.
func encodeIdentRanges(b *cryptobyte.Builder, mod *ir.Module) error {
	ranges := mod.Ranges()
	var encErr error
	b.AddUint32LengthPrefixed(func(b *cryptobyte.Builder) {
		must := func(e error) {
			if encErr == nil {
				encErr = e
			}
		}
		must(varint.EncodeCanonical(b, uint64(len(ranges))))
		for id, r := range ranges {
			must(varint.EncodeCanonical(b, uint64(id)))
			must(varint.EncodeCanonical(b, uint64(r.Start)))
			must(varint.EncodeCanonical(b, uint64(r.End)))
		}
	})
	return encErr
}

// encodeCode writes the `code_length` varint followed by that many
// serialized Code records (spec §6 item 9). Each record is its Op
// (varint), a flags word naming which optional operands follow
// (codeFlags), then those operands in Code's field order.
func encodeCode(b *cryptobyte.Builder, mod *ir.Module) error {
	if err := varint.EncodeCanonical(b, uint64(len(mod.Code))); err != nil {
		return err
	}
	for i := range mod.Code {
		if err := encodeOneCode(b, &mod.Code[i]); err != nil {
			return fmt.Errorf("bmfile: encoding code[%d] (%s): %w", i, mod.Code[i].Op, err)
		}
	}
	return nil
}

func encodeOneCode(b *cryptobyte.Builder, c *ir.Code) error {
	if err := varint.EncodeCanonical(b, uint64(c.Op)); err != nil {
		return err
	}
	flags := codeFlags(c)
	b.AddUint32(flags)

	writeID := func(id ir.ID) error { return varint.EncodeCanonical(b, uint64(id)) }
	writeInt := func(n int) error { return varint.EncodeCanonical(b, uint64(n)) }

	var err error
	must := func(e error) {
		if err == nil {
			err = e
		}
	}

	if flags&flagIdent != 0 {
		must(writeID(c.Ident))
	}
	if flags&flagRef != 0 {
		must(writeID(c.Ref))
	}
	if flags&flagLeftRef != 0 {
		must(writeID(c.LeftRef))
	}
	if flags&flagRightRef != 0 {
		must(writeID(c.RightRef))
	}
	if flags&flagBelong != 0 {
		must(writeID(c.Belong))
	}
	if flags&flagBop != 0 {
		must(writeInt(int(c.Bop)))
	}
	if flags&flagUop != 0 {
		must(writeInt(int(c.Uop)))
	}
	if flags&flagIntValue != 0 {
		must(varint.EncodeCanonical(b, c.IntValue))
	}
	if flags&flagIntValue64 != 0 {
		b.AddUint64(uint64(c.IntValue64))
	}
	if flags&flagBitSize != 0 {
		must(writeInt(int(c.BitSize)))
	}
	if flags&flagEndian != 0 {
		must(writeInt(int(c.Endian)))
	}
	// flagSigned carries no payload: the bit itself is the value.
	if flags&flagDynamicRef != 0 {
		must(writeID(c.DynamicRef))
	}
	if flags&flagStorage != 0 {
		must(encodeStorages(b, *c.Storage))
	}
	if flags&flagStorageRef != 0 {
		must(writeID(ir.ID(c.StorageRef)))
	}
	if flags&flagCastType != 0 {
		must(writeInt(int(c.CastType)))
	}
	if flags&flagMergeMode != 0 {
		must(writeInt(int(c.MergeMode)))
	}
	if flags&flagCheckAt != 0 {
		must(writeID(c.CheckAt))
	}
	if flags&flagPackedOpType != 0 {
		must(writeInt(int(c.PackedOpType)))
	}
	if flags&flagSubRangeType != 0 {
		must(writeInt(int(c.SubRangeType)))
	}
	if flags&flagFuncType != 0 {
		must(writeInt(int(c.FuncType)))
	}
	if flags&flagEncodeFlags != 0 {
		b.AddUint8(uint8(c.EncodeFlags))
	}
	if flags&flagDecodeFlags != 0 {
		b.AddUint8(uint8(c.DecodeFlags))
	}
	if flags&flagParam != 0 {
		must(writeInt(len(c.Param.Refs)))
		for _, ref := range c.Param.Refs {
			must(writeID(ref))
		}
	}
	if flags&flagMetadata != 0 {
		must(writeID(c.Metadata.Name))
		must(writeInt(len(c.Metadata.Args)))
		for _, arg := range c.Metadata.Args {
			must(writeID(arg))
		}
	}
	if flags&flagPhi != 0 {
		must(writeInt(len(c.Phi)))
		for _, p := range c.Phi {
			must(writeID(p.Cond))
			must(writeID(p.Value))
		}
	}
	if flags&flagFallback != 0 {
		must(writeID(c.Fallback))
	}
	return err
}
