package ravl

// Descents below take no locks. Every pointer they follow was published by
// an atomic store and every other field they read is immutable, so each
// descent observes a well-formed tree even while it is being rewritten.

// searchLeaf returns the leaf where key lives or would live, or nil when the
// map holds no keys.
func (m *Map[K, V]) searchLeaf(key K) *node[K, V] {
	l := m.root.left.Load().left.Load()
	if l == nil || l.isMissing() {
		return nil
	}
	for !l.isLeaf() {
		l = l.child(m.compare(key, l.key) < 0)
	}
	return l
}

// searchParent returns the leaf for key and its parent. violations counts
// parent/child rank equalities met on the way down when the map tolerates
// them (d > 0).
func (m *Map[K, V]) searchParent(key K) (p, l *node[K, V], violations int) {
	p = m.root
	l = p.left.Load()
	if l.isLeaf() {
		return p, l, 0
	}
	// l is the routing sentinel; everything below its left slot holds keys.
	p = l
	l = l.left.Load()
	for !l.isLeaf() {
		if m.d > 0 && l.rank == p.rank {
			violations++
		}
		p = l
		l = l.child(m.compare(key, l.key) < 0)
	}
	return p, l, violations
}

// searchGrandparent is searchParent with one more ancestor kept, as a delete
// elides two levels.
func (m *Map[K, V]) searchGrandparent(key K) (gp, p, l *node[K, V], violations int) {
	gp = m.root
	p = m.root
	l = p.left.Load()
	if l.isLeaf() {
		return gp, p, l, 0
	}
	gp = p
	p = l
	l = l.left.Load()
	for !l.isLeaf() {
		if m.d > 0 && l.rank == p.rank {
			violations++
		}
		gp = p
		p = l
		l = l.child(m.compare(key, l.key) < 0)
	}
	return gp, p, l, violations
}

// holds reports whether leaf l stores key.
func (m *Map[K, V]) holds(l *node[K, V], key K) bool {
	return l != nil && !l.sentinel && m.compare(key, l.key) == 0
}
