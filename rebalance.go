package ravl

import "go.uber.org/zap"

// fixKind names the transformation a balancing operation applies.
type fixKind uint8

const (
	fixNone fixKind = iota
	fixPromote
	fixRotate1
	fixRotate2
	fixDoubleRotate
)

func (k fixKind) String() string {
	switch k {
	case fixPromote:
		return "promote"
	case fixRotate1:
		return "rotate1"
	case fixRotate2:
		return "rotate2"
	case fixDoubleRotate:
		return "double-rotate"
	default:
		return "none"
	}
}

// slowFixPasses is the number of descents after which a single fixToKey
// call reports itself in the debug log.
const slowFixPasses = 64

// fixToKey repairs violations on the search path of key, one local
// transformation per descent, until a descent reaches a leaf without
// meeting a violation.
func (m *Map[K, V]) fixToKey(key K) {
	m.metrics.IncFix()
	for pass := 0; ; pass++ {
		if fixPassHook != nil {
			fixPassHook(pass)
		}
		if pass == slowFixPasses {
			m.logger.Debug("rebalance still running", zap.Int("passes", pass))
		}

		l := m.root.left.Load()
		if l.isLeaf() {
			return
		}
		// l is the routing sentinel; its rank is infinite so the pair it
		// forms with its left child never counts.
		gp, p := m.root, l
		l = l.left.Load()
		for {
			if l.isLeaf() {
				return
			}
			gp, p = p, l
			less := m.compare(key, p.key) < 0
			l = p.child(less)
			ls := p.child(!less)

			var x *node[K, V]
			switch {
			case p.rank == l.rank:
				x = l
			case p.rank == l.rank+1 && p.rank == ls.rank:
				x = ls
			default:
				continue
			}

			op, kind := m.createBalancingOp(gp, p, x)
			if op != nil && m.scx(op, 0) {
				m.metrics.IncFixKind(kind)
			} else {
				m.metrics.IncRetry()
			}
			break
		}
	}
}

// balanceWindow holds the nodes a balancing operation reads, named after
// their roles: z is the upper node of the violating pair and x the lower,
// pz is z's parent, xs is x's sibling, y is x's child on the xs side and ys
// is y's sibling.
type balanceWindow[K, V any] struct {
	pz, z, x, xs, y, ys *node[K, V]
	opPZ, opZ, opX, opY *operation[K, V]
	// left is set when x is z's left child.
	left bool
}

// createBalancingOp validates the window around the violating pair (z, x)
// below pz and builds the transformation that removes the violation. It
// returns nil when the window changed or no transformation is safe yet.
func (m *Map[K, V]) createBalancingOp(pz, z, x *node[K, V]) (*operation[K, V], fixKind) {
	w := balanceWindow[K, V]{pz: pz, z: z, x: x}

	if w.opPZ = m.llx(pz); w.opPZ == nil {
		return nil, fixNone
	}
	var zs *node[K, V]
	switch z {
	case pz.left.Load():
		zs = pz.right.Load()
	case pz.right.Load():
		zs = pz.left.Load()
	default:
		return nil, fixNone
	}

	if w.opZ = m.llx(z); w.opZ == nil {
		return nil, fixNone
	}
	zl, zr := z.left.Load(), z.right.Load()

	if m.llx(zs) == nil {
		return nil, fixNone
	}

	switch x {
	case zl:
		w.left, w.xs = true, zr
	case zr:
		w.xs = zl
	default:
		return nil, fixNone
	}

	if w.opX = m.llx(x); w.opX == nil {
		return nil, fixNone
	}
	if m.llx(w.xs) == nil {
		return nil, fixNone
	}

	if w.left {
		w.y, w.ys = x.right.Load(), x.left.Load()
	} else {
		w.y, w.ys = x.left.Load(), x.right.Load()
	}
	if w.opY = m.llx(w.y); w.opY == nil {
		return nil, fixNone
	}
	if m.llx(w.ys) == nil {
		return nil, fixNone
	}

	if z.rank != x.rank {
		return nil, fixNone
	}

	// z is a 0,0 or 0,1 node.
	if z.rank == w.xs.rank || z.rank == w.xs.rank+1 {
		if !canPromote(pz, z, zs) {
			return nil, fixNone
		}
		return m.createPromoteOp(&w), fixPromote
	}

	switch {
	case x.rank >= w.y.rank+2 || w.y.isMissing():
		return m.createRotate1Op(&w), fixRotate1
	case x.rank == w.y.rank+1 && x.rank == w.ys.rank+1:
		if !canPromote(pz, z, zs) {
			return nil, fixNone
		}
		return m.createRotate2Op(&w), fixRotate2
	default:
		yl, yr := w.y.left.Load(), w.y.right.Load()
		if m.llx(yl) == nil || m.llx(yr) == nil {
			return nil, fixNone
		}
		return m.createDoubleRotateOp(&w, yl, yr), fixDoubleRotate
	}
}

// canPromote reports whether raising z by one rank keeps pz free of new
// violations.
func canPromote[K, V any](pz, z, zs *node[K, V]) bool {
	if pz.rank == z.rank {
		return false
	}
	return !(pz.rank == z.rank+1 && pz.rank == zs.rank)
}

// rebuild copies a routing node with a new rank and children.
func (m *Map[K, V]) rebuild(src *node[K, V], rank int, left, right *node[K, V]) *node[K, V] {
	return newNode(src.key, src.value, rank, left, right, m.noop)
}

// pair orders two children so that inner sits on the side the window's x
// occupies.
func pair[K, V any](left bool, inner, outer *node[K, V]) (*node[K, V], *node[K, V]) {
	if left {
		return inner, outer
	}
	return outer, inner
}

func (m *Map[K, V]) createPromoteOp(w *balanceWindow[K, V]) *operation[K, V] {
	l, r := pair(w.left, w.x, w.xs)
	newZ := m.rebuild(w.z, w.z.rank+1, l, r)
	return newOperation(
		[]*node[K, V]{w.pz, w.z},
		[]*operation[K, V]{w.opPZ, w.opZ},
		newZ,
	)
}

func (m *Map[K, V]) createRotate1Op(w *balanceWindow[K, V]) *operation[K, V] {
	l, r := pair(w.left, w.y, w.xs)
	newZ := m.rebuild(w.z, w.z.rank-1, l, r)
	l, r = pair(w.left, w.ys, newZ)
	newX := m.rebuild(w.x, w.x.rank, l, r)
	return newOperation(
		[]*node[K, V]{w.pz, w.z, w.x},
		[]*operation[K, V]{w.opPZ, w.opZ, w.opX},
		newX,
	)
}

func (m *Map[K, V]) createRotate2Op(w *balanceWindow[K, V]) *operation[K, V] {
	l, r := pair(w.left, w.y, w.xs)
	newZ := m.rebuild(w.z, w.z.rank, l, r)
	l, r = pair(w.left, w.ys, newZ)
	newX := m.rebuild(w.x, w.x.rank+1, l, r)
	return newOperation(
		[]*node[K, V]{w.pz, w.z, w.x},
		[]*operation[K, V]{w.opPZ, w.opZ, w.opX},
		newX,
	)
}

// createDoubleRotateOp lifts y above both x and z. For a left x, y's left
// subtree goes to x and its right subtree to z; mirrored otherwise.
func (m *Map[K, V]) createDoubleRotateOp(w *balanceWindow[K, V], yl, yr *node[K, V]) *operation[K, V] {
	var newZ, newX, newY *node[K, V]
	if w.left {
		newZ = m.rebuild(w.z, w.z.rank-1, yr, w.xs)
		newX = m.rebuild(w.x, w.x.rank-1, w.ys, yl)
		newY = m.rebuild(w.y, w.y.rank+1, newX, newZ)
	} else {
		newZ = m.rebuild(w.z, w.z.rank-1, w.xs, yl)
		newX = m.rebuild(w.x, w.x.rank-1, yr, w.ys)
		newY = m.rebuild(w.y, w.y.rank+1, newZ, newX)
	}
	return newOperation(
		[]*node[K, V]{w.pz, w.z, w.x, w.y},
		[]*operation[K, V]{w.opPZ, w.opZ, w.opX, w.opY},
		newY,
	)
}
