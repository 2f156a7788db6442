package ravl

// llx returns the operation currently installed on n when n is unclaimed
// and still linked. The returned operation is the witness that a later scx
// expects to find on n. When n is claimed by an operation in progress, that
// operation is helped to a terminal state and llx fails with nil; a retired
// node always fails.
func (m *Map[K, V]) llx(n *node[K, V]) *operation[K, V] {
	op := n.op.Load()
	state := op.state.Load()
	if state == stateAborted || (state == stateCommitted && !n.retired.Load()) {
		return op
	}
	if state == stateInProgress {
		m.metrics.IncHelp()
		m.scx(op, 1)
	} else if cur := n.op.Load(); cur.state.Load() == stateInProgress {
		m.metrics.IncHelp()
		m.scx(cur, 1)
	}
	m.metrics.IncLLXFailure()
	return nil
}

// scx drives op to a terminal state. It is safe to call from any number of
// goroutines at once. Helpers start freezing at index 1: a helper only finds
// op installed on some node, which implies nodes[0] is already frozen.
// It returns false only when op was aborted by this call.
func (m *Map[K, V]) scx(op *operation[K, V], from int) bool {
	if op.terminal() {
		return true
	}
	p := op.payload.Load()
	if p == nil {
		return true
	}

	for i := from; i < len(p.nodes); i++ {
		n := p.nodes[i]
		if !n.op.CompareAndSwap(p.expected[i], op) && n.op.Load() != op {
			if op.allFrozen.Load() {
				return true
			}
			if op.state.CompareAndSwap(stateInProgress, stateAborted) {
				m.metrics.IncAbort()
			}
			op.payload.Store(nil)
			if scxAbortHook != nil {
				scxAbortHook(op)
			}
			return false
		}
	}

	op.allFrozen.Store(true)
	for _, n := range p.nodes[1:] {
		n.retired.Store(true)
	}

	if scxFrozenHook != nil {
		scxFrozenHook(op)
	}

	top, old := p.nodes[0], p.nodes[1]
	if top.left.Load() == old {
		top.left.CompareAndSwap(old, p.replacement)
	} else {
		top.right.CompareAndSwap(old, p.replacement)
	}

	if op.state.CompareAndSwap(stateInProgress, stateCommitted) {
		m.metrics.IncCommit()
	}
	op.payload.Store(nil)
	return true
}
