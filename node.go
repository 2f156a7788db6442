package ravl

import (
	"math"
	"sync/atomic"
)

const (
	// missingRank marks the shared "no child" node that terminates every leaf.
	missingRank = -1
	// baseRank is the rank of every real leaf.
	baseRank = 0
	// infiniteRank is the rank of the permanent root chain.
	infiniteRank = math.MaxInt
)

// node is immutable apart from its child slots, the operation that currently
// claims it and the retired flag. Child slots only change through the
// structural swap of an operation that has this node frozen.
type node[K, V any] struct {
	key   K
	value V
	rank  int
	// sentinel nodes carry no key and compare greater than every key.
	sentinel bool

	left    atomic.Pointer[node[K, V]]
	right   atomic.Pointer[node[K, V]]
	op      atomic.Pointer[operation[K, V]]
	retired atomic.Bool
}

func newNode[K, V any](key K, value V, rank int, left, right *node[K, V], op *operation[K, V]) *node[K, V] {
	n := &node[K, V]{key: key, value: value, rank: rank}
	n.left.Store(left)
	n.right.Store(right)
	n.op.Store(op)
	return n
}

func newSentinel[K, V any](left, right *node[K, V], op *operation[K, V]) *node[K, V] {
	n := &node[K, V]{rank: infiniteRank, sentinel: true}
	n.left.Store(left)
	n.right.Store(right)
	n.op.Store(op)
	return n
}

// newMissing returns the marker shared by all leaves of one map.
func newMissing[K, V any](op *operation[K, V]) *node[K, V] {
	n := &node[K, V]{rank: missingRank}
	n.op.Store(op)
	return n
}

func (n *node[K, V]) isMissing() bool {
	return n != nil && n.rank == missingRank
}

func (n *node[K, V]) isLeaf() bool {
	if n == nil {
		return false
	}
	return n.left.Load().isMissing()
}

// child returns the child slot that the search for key follows.
func (n *node[K, V]) child(less bool) *node[K, V] {
	if less {
		return n.left.Load()
	}
	return n.right.Load()
}

const (
	stateInProgress int32 = iota
	stateAborted
	stateCommitted
)

// operation describes one pending multi-node replacement.
type operation[K, V any] struct {
	state     atomic.Int32
	allFrozen atomic.Bool
	payload   atomic.Pointer[opPayload[K, V]]
}

// opPayload is dropped once the operation is terminal.
type opPayload[K, V any] struct {
	nodes       []*node[K, V]
	expected    []*operation[K, V]
	replacement *node[K, V]
}

func newOperation[K, V any](nodes []*node[K, V], expected []*operation[K, V], replacement *node[K, V]) *operation[K, V] {
	op := &operation[K, V]{}
	op.payload.Store(&opPayload[K, V]{nodes: nodes, expected: expected, replacement: replacement})
	return op
}

// newNoop returns the pre-aborted operation installed on fresh nodes.
func newNoop[K, V any]() *operation[K, V] {
	op := &operation[K, V]{}
	op.state.Store(stateAborted)
	return op
}

func (op *operation[K, V]) terminal() bool {
	return op.state.Load() != stateInProgress
}
