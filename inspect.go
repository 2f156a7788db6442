package ravl

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"
)

// The functions in this file walk the tree without synchronization. They
// are meant for tests and diagnostics on a quiescent map; run concurrently
// with updates they see some mix of old and new subtrees.

// Size returns the number of keys. It counts leaves one by one and is not a
// linearizable snapshot.
func (m *Map[K, V]) Size() int {
	return countLeaves(m.root)
}

func countLeaves[K, V any](n *node[K, V]) int {
	if n == nil || n.isMissing() {
		return 0
	}
	if n.isLeaf() {
		if n.sentinel {
			return 0
		}
		return 1
	}
	return countLeaves(n.left.Load()) + countLeaves(n.right.Load())
}

// Height returns the number of nodes on the longest path from the topmost
// keyed node down to and including a missing marker.
func (m *Map[K, V]) Height() int {
	return height(m.root.left.Load().left.Load())
}

func height[K, V any](n *node[K, V]) int {
	if n == nil {
		return 0
	}
	if n.isMissing() {
		return 1
	}
	return 1 + max(height(n.left.Load()), height(n.right.Load()))
}

// HasViolation reports whether any routing node has the rank of one of its
// children.
func (m *Map[K, V]) HasViolation() bool {
	return m.Violations() > 0
}

// Violations counts parent/child pairs of equal rank below the root chain.
func (m *Map[K, V]) Violations() int {
	return violations(m.root.left.Load().left.Load())
}

func violations[K, V any](n *node[K, V]) int {
	if n == nil || n.isMissing() || n.isLeaf() {
		return 0
	}
	l, r := n.left.Load(), n.right.Load()
	count := 0
	if n.rank == l.rank {
		count++
	}
	if n.rank == r.rank {
		count++
	}
	return count + violations(l) + violations(r)
}

// PathViolations returns the largest number of equal-rank parent/child
// pairs found on any single root-to-leaf path.
func (m *Map[K, V]) PathViolations() int {
	return pathViolationsBelow(m.root.left.Load().left.Load())
}

func pathViolationsBelow[K, V any](n *node[K, V]) int {
	if n == nil || n.isMissing() || n.isLeaf() {
		return 0
	}
	worst := 0
	for _, c := range [2]*node[K, V]{n.left.Load(), n.right.Load()} {
		v := pathViolationsBelow(c)
		if c.rank == n.rank {
			v++
		}
		worst = max(worst, v)
	}
	return worst
}

// Keys returns the keys in order.
func (m *Map[K, V]) Keys() []K {
	var keys []K
	var walk func(n *node[K, V])
	walk = func(n *node[K, V]) {
		if n == nil || n.isMissing() {
			return
		}
		if n.isLeaf() {
			if !n.sentinel {
				keys = append(keys, n.key)
			}
			return
		}
		walk(n.left.Load())
		walk(n.right.Load())
	}
	walk(m.root)
	return keys
}

// maxCheckErrors caps the number of problems Check reports.
const maxCheckErrors = 32

// Check audits the structure of the tree: shape, key order, leaf ranks and
// that no retired node is still linked. Rank relations between routing
// nodes are relaxed and reported by Violations instead. Check returns every
// problem found, combined.
func (m *Map[K, V]) Check() error {
	c := checker[K, V]{m: m}
	entry := m.root.left.Load()
	switch {
	case entry == nil || !entry.sentinel:
		c.fail("root.left is not the routing sentinel")
	case entry.isLeaf():
		if r := m.root.right.Load(); !r.isMissing() {
			c.fail("root.right is not the missing marker")
		}
	default:
		if r := entry.right.Load(); r == nil || !r.sentinel || !r.isLeaf() {
			c.fail("root.left.right is not the sentinel leaf")
		}
		c.walk(entry.left.Load(), nil, nil)
	}
	return c.err
}

type checker[K, V any] struct {
	m      *Map[K, V]
	err    error
	errors int
}

func (c *checker[K, V]) fail(format string, args ...any) {
	c.errors++
	if c.errors > maxCheckErrors {
		return
	}
	c.err = multierr.Append(c.err, fmt.Errorf(format, args...))
}

// walk checks the subtree at n, whose keys must lie in [lo, hi).
func (c *checker[K, V]) walk(n *node[K, V], lo, hi *K) {
	if n == nil {
		c.fail("nil child")
		return
	}
	if n.isMissing() {
		c.fail("missing marker linked as a real child")
		return
	}
	if n.sentinel {
		c.fail("sentinel below the root chain")
		return
	}
	if n.retired.Load() {
		c.fail("retired node %v still linked", n.key)
	}
	if lo != nil && c.m.compare(n.key, *lo) < 0 {
		c.fail("key %v below its lower bound %v", n.key, *lo)
	}
	if hi != nil && c.m.compare(n.key, *hi) >= 0 {
		c.fail("key %v not below its upper bound %v", n.key, *hi)
	}

	l, r := n.left.Load(), n.right.Load()
	if n.isLeaf() {
		if !r.isMissing() {
			c.fail("leaf %v has a right child", n.key)
		}
		if n.rank != baseRank {
			c.fail("leaf %v has rank %d", n.key, n.rank)
		}
		return
	}
	key := n.key
	c.walk(l, lo, &key)
	c.walk(r, &key, hi)
}

// String renders the tree sideways, one "(key, rank)" per line, children
// indented one tab below their parent.
func (m *Map[K, V]) String() string {
	var b strings.Builder
	var walk func(n *node[K, V], depth int)
	walk = func(n *node[K, V], depth int) {
		if n == nil || n.isMissing() {
			return
		}
		if !n.sentinel {
			b.WriteString(strings.Repeat("\t", depth))
			fmt.Fprintf(&b, "(%v, %d)\n", n.key, n.rank)
			depth++
		}
		walk(n.left.Load(), depth)
		walk(n.right.Load(), depth)
	}
	walk(m.root, 0)
	return b.String()
}
