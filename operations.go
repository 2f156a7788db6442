package ravl

// mutatorImpl groups the mutating algorithms.
type mutatorImpl[K, V any] struct {
	m *Map[K, V]
}

// put inserts key or, when overwrite is set, replaces the value of an
// existing key. It returns the value the key held before the call and
// whether the key was present.
func (u *mutatorImpl[K, V]) put(key K, value V, overwrite bool) (V, bool) {
	m := u.m
	for {
		p, l, violations := m.searchParent(key)

		if m.holds(l, key) {
			if !overwrite {
				return l.value, true
			}
			op := u.createReplaceOp(p, l, value)
			if op == nil || !m.scx(op, 0) {
				m.metrics.IncRetry()
				continue
			}
			m.metrics.IncReplace()
			return l.value, true
		}

		op := u.createInsertOp(p, l, key, value)
		if op == nil || !m.scx(op, 0) {
			m.metrics.IncRetry()
			continue
		}
		m.metrics.IncInsert()

		if u.insertNeedsFix(l, violations) {
			m.fixToKey(key)
		}
		var zero V
		return zero, false
	}
}

// insertNeedsFix decides whether the violation created by splitting leaf l
// pushes the path over the tolerated bound.
func (u *mutatorImpl[K, V]) insertNeedsFix(l *node[K, V], violations int) bool {
	created := l.rank == baseRank
	if u.m.d == 0 {
		return created
	}
	if created {
		violations++
	}
	return violations >= u.m.d
}

// createInsertOp builds the operation that replaces leaf l under p with a
// routing node over l's copy and a new leaf for key. It returns nil when p
// or l changed since the descent.
func (u *mutatorImpl[K, V]) createInsertOp(p, l *node[K, V], key K, value V) *operation[K, V] {
	m := u.m
	opP := m.llx(p)
	if opP == nil {
		return nil
	}
	if l != p.left.Load() && l != p.right.Load() {
		return nil
	}
	opL := m.llx(l)
	if opL == nil {
		return nil
	}

	leaf := newNode(key, value, baseRank, m.missing, m.missing, m.noop)

	var routing *node[K, V]
	if l.sentinel {
		// Splitting the empty-tree sentinel keeps the root chain infinite.
		sibling := newSentinel(m.missing, m.missing, m.noop)
		routing = newSentinel(leaf, sibling, m.noop)
	} else {
		sibling := newNode(l.key, l.value, baseRank, m.missing, m.missing, m.noop)
		var zero V
		if m.compare(key, l.key) < 0 {
			routing = newNode(l.key, zero, l.rank, leaf, sibling, m.noop)
		} else {
			routing = newNode(key, zero, l.rank, sibling, leaf, m.noop)
		}
	}

	return newOperation(
		[]*node[K, V]{p, l},
		[]*operation[K, V]{opP, opL},
		routing,
	)
}

// createReplaceOp builds the operation that swaps leaf l for a leaf holding
// the same key and the new value.
func (u *mutatorImpl[K, V]) createReplaceOp(p, l *node[K, V], value V) *operation[K, V] {
	m := u.m
	opP := m.llx(p)
	if opP == nil {
		return nil
	}
	if l != p.left.Load() && l != p.right.Load() {
		return nil
	}
	opL := m.llx(l)
	if opL == nil {
		return nil
	}

	leaf := newNode(l.key, value, l.rank, m.missing, m.missing, m.noop)
	return newOperation(
		[]*node[K, V]{p, l},
		[]*operation[K, V]{opP, opL},
		leaf,
	)
}

// delete removes key and returns the value it held.
func (u *mutatorImpl[K, V]) delete(key K) (V, bool) {
	m := u.m
	for {
		gp, p, l, violations := m.searchGrandparent(key)

		if !m.holds(l, key) {
			var zero V
			return zero, false
		}

		op, sibling := u.createDeleteOp(gp, p, l)
		if op == nil || !m.scx(op, 0) {
			m.metrics.IncRetry()
			continue
		}
		m.metrics.IncDelete()

		if u.deleteNeedsFix(gp, sibling, violations) {
			m.fixToKey(key)
		}
		return l.value, true
	}
}

// deleteNeedsFix reports whether lifting sibling under gp leaves the path
// over the tolerated bound.
func (u *mutatorImpl[K, V]) deleteNeedsFix(gp, sibling *node[K, V], violations int) bool {
	created := !gp.sentinel && gp.rank == sibling.rank
	if u.m.d == 0 {
		return created
	}
	if created {
		violations++
	}
	return violations >= u.m.d
}

// createDeleteOp builds the operation that replaces p under gp with the
// sibling of leaf l. The sibling is relinked as is.
func (u *mutatorImpl[K, V]) createDeleteOp(gp, p, l *node[K, V]) (*operation[K, V], *node[K, V]) {
	m := u.m
	opGP := m.llx(gp)
	if opGP == nil {
		return nil, nil
	}
	opP := m.llx(p)
	if opP == nil {
		return nil, nil
	}
	if p != gp.left.Load() && p != gp.right.Load() {
		return nil, nil
	}

	var sibling *node[K, V]
	switch l {
	case p.left.Load():
		sibling = p.right.Load()
	case p.right.Load():
		sibling = p.left.Load()
	default:
		return nil, nil
	}

	opL := m.llx(l)
	if opL == nil {
		return nil, nil
	}

	return newOperation(
		[]*node[K, V]{gp, p, l},
		[]*operation[K, V]{opGP, opP, opL},
		sibling,
	), sibling
}
