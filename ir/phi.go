package ir

// phiArm accumulates the variables assigned during one arm of a
// branching construct (spec §4.6's phi stack).
type phiArm struct {
	cond     ID // 0 for an else/default/no-condition arm
	assigned map[ID]ID
}

// phiFrame is one open branching construct's worth of phi-stack state.
type phiFrame struct {
	entry map[ID]ID // each tracked variable's value ID as of frame entry
	arms  []phiArm
}

// PhiStack mirrors the current control-structure stack so that
// merges across if/elif/else and match arms can be reconstructed as
// PHI instructions without renaming any variable's ID (spec §4.6,
// §9's "SSA via phi + ID stack, not renaming").
type PhiStack struct {
	frames []*phiFrame
}

// OpenFrame pushes a new frame for a branching construct about to be
// entered. entry should map every variable currently live to its
// current value ID, so arms that don't touch a variable still have a
// value to contribute at the join.
func (s *PhiStack) OpenFrame(entry map[ID]ID) {
	s.frames = append(s.frames, &phiFrame{entry: entry})
}

// NextArm starts a new arm of the top frame under the given entry
// condition (0 for an else/default arm). The previous arm (if any) is
// implicitly closed.
func (s *PhiStack) NextArm(cond ID) {
	top := s.top()
	top.arms = append(top.arms, phiArm{cond: cond, assigned: make(map[ID]ID)})
}

// RecordAssign records that the current arm of the top frame assigned
// value to variable.
func (s *PhiStack) RecordAssign(variable, value ID) {
	top := s.top()
	if len(top.arms) == 0 {
		// An assignment before the first NextArm belongs to the
		// frame's own implicit first arm (e.g. the `if` head's
		// unconditional lowering before IF is emitted); treat it as
		// updating entry so later arms see it as their baseline.
		top.entry[variable] = value
		return
	}
	top.arms[len(top.arms)-1].assigned[variable] = value
}

// CloseFrame pops the top frame and returns, for every variable
// assigned on at least one arm, the PhiParam list to attach to a PHI
// instruction at the join (spec §3's invariant on phi placement).
func (s *PhiStack) CloseFrame() map[ID][]PhiParam {
	top := s.top()
	s.frames = s.frames[:len(s.frames)-1]

	touched := make(map[ID]bool)
	for _, arm := range top.arms {
		for v := range arm.assigned {
			touched[v] = true
		}
	}

	out := make(map[ID][]PhiParam, len(touched))
	for v := range touched {
		params := make([]PhiParam, 0, len(top.arms))
		for _, arm := range top.arms {
			val, ok := arm.assigned[v]
			if !ok {
				val = top.entry[v]
			}
			params = append(params, PhiParam{Cond: arm.cond, Value: val})
		}
		out[v] = params
	}
	return out
}

func (s *PhiStack) top() *phiFrame {
	if len(s.frames) == 0 {
		panic("ir: phi stack operation with no open frame")
	}
	return s.frames[len(s.frames)-1]
}

// Depth reports how many frames are currently open.
func (s *PhiStack) Depth() int { return len(s.frames) }
