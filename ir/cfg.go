package ir

// CFGBlock is one basic block of a function's control-flow graph: a
// contiguous, branch-free run of instruction indices plus the blocks
// it can fall through or jump to (spec §6's `-c` CFG side-data).
type CFGBlock struct {
	Start, End int   // half-open instruction range, relative to Module.Code
	Succ       []int // indexes into the owning CFG1Graph's Blocks
}

// CFG1Graph is one function's control-flow graph, keyed by the
// DEFINE_FUNCTION id it was generated from.
type CFG1Graph struct {
	FuncID ID
	Blocks []CFGBlock
}

// SetCFG stores every function's CFG1Graph; the generate_cfg1
// post-pass calls it, and the `-c` CFG side-data writer reads the
// result. The table is nil until then.
func (m *Module) SetCFG(graphs map[ID]*CFG1Graph) { m.cfg = graphs }

// CFGOf returns the CFG1Graph generated for a function, if any.
func (m *Module) CFGOf(funcID ID) (*CFG1Graph, bool) {
	if m.cfg == nil {
		return nil, false
	}
	g, ok := m.cfg[funcID]
	return g, ok
}

// AllCFG returns every function's CFG1Graph, for the `-c` side-data
// writer.
func (m *Module) AllCFG() map[ID]*CFG1Graph { return m.cfg }
