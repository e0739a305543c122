package bmfile

import (
	"fmt"
	"io"
	"sort"

	"golang.org/x/crypto/cryptobyte"

	"wireforge.dev/bmc/bmerr"
	"wireforge.dev/bmc/ir"
	"wireforge.dev/bmc/varint"
)

// WriteCFG serializes every function's control-flow graph (built by
// the generate_cfg1 post-pass) to w, for the CLI's `-c` side-data
// output. The shape is independent of the main BinaryModule format —
// spec §6 only requires that such a graph exist for external tooling
// to consume, not any particular byte layout — so this follows the
// same length-prefixed, varint-keyed convention as the rest of
// bmfile for consistency rather than inventing a second encoding
// style.
func WriteCFG(w io.Writer, mod *ir.Module) error {
	graphs := mod.AllCFG()

	funcIDs := make([]ir.ID, 0, len(graphs))
	for id := range graphs {
		funcIDs = append(funcIDs, id)
	}
	sort.Slice(funcIDs, func(i, j int) bool { return funcIDs[i] < funcIDs[j] })

	b := cryptobyte.NewBuilder(nil)
	var encErr error
	must := func(err error) {
		if encErr == nil {
			encErr = err
		}
	}

	must(varint.EncodeCanonical(b, uint64(len(funcIDs))))
	for _, id := range funcIDs {
		g := graphs[id]
		must(varint.EncodeCanonical(b, uint64(g.FuncID)))
		must(varint.EncodeCanonical(b, uint64(len(g.Blocks))))
		for _, blk := range g.Blocks {
			must(varint.EncodeCanonical(b, uint64(blk.Start)))
			must(varint.EncodeCanonical(b, uint64(blk.End)))
			must(varint.EncodeCanonical(b, uint64(len(blk.Succ))))
			for _, succ := range blk.Succ {
				must(varint.EncodeCanonical(b, uint64(succ)))
			}
		}
	}
	if encErr != nil {
		return fmt.Errorf("bmfile: encoding CFG side-data: %w", encErr)
	}

	out, err := b.Bytes()
	if err != nil {
		return fmt.Errorf("bmfile: building CFG side-data bytes: %v: %w", err, bmerr.SerializationError)
	}
	if _, err := w.Write(out); err != nil {
		return fmt.Errorf("bmfile: writing CFG side-data: %w", err)
	}
	return nil
}

// ReadCFG is WriteCFG's inverse, used by tests to round-trip the
// side-data format.
func ReadCFG(data []byte) (map[ir.ID]*ir.CFG1Graph, error) {
	s := cryptobyte.String(data)

	count, ok := varint.DecodeValue(&s)
	if !ok {
		return nil, fmt.Errorf("bmfile: reading CFG function count: %w", bmerr.SerializationError)
	}

	out := make(map[ir.ID]*ir.CFG1Graph, count)
	for i := uint64(0); i < count; i++ {
		funcID, ok := varint.DecodeValue(&s)
		if !ok {
			return nil, bmerr.SerializationError
		}
		blockCount, ok := varint.DecodeValue(&s)
		if !ok {
			return nil, bmerr.SerializationError
		}
		blocks := make([]ir.CFGBlock, blockCount)
		for j := range blocks {
			start, ok := varint.DecodeValue(&s)
			if !ok {
				return nil, bmerr.SerializationError
			}
			end, ok := varint.DecodeValue(&s)
			if !ok {
				return nil, bmerr.SerializationError
			}
			succCount, ok := varint.DecodeValue(&s)
			if !ok {
				return nil, bmerr.SerializationError
			}
			var succ []int
			if succCount > 0 {
				succ = make([]int, succCount)
			}
			for k := range succ {
				v, ok := varint.DecodeValue(&s)
				if !ok {
					return nil, bmerr.SerializationError
				}
				succ[k] = int(v)
			}
			blocks[j] = ir.CFGBlock{Start: int(start), End: int(end), Succ: succ}
		}
		out[ir.ID(funcID)] = &ir.CFG1Graph{FuncID: ir.ID(funcID), Blocks: blocks}
	}
	if !s.Empty() {
		return nil, fmt.Errorf("bmfile: trailing bytes after CFG side-data: %w", bmerr.SerializationError)
	}
	return out, nil
}
