package ravl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixKindString(t *testing.T) {
	assert.Equal(t, "promote", fixPromote.String())
	assert.Equal(t, "rotate1", fixRotate1.String())
	assert.Equal(t, "rotate2", fixRotate2.String())
	assert.Equal(t, "double-rotate", fixDoubleRotate.String())
	assert.Equal(t, "none", fixNone.String())
}

func TestPromoteAfterSplit(t *testing.T) {
	m := New[int, int](WithViolationBound(0))
	m.Put(5, 5)
	m.Put(3, 3)

	st := m.Stats()
	assert.Equal(t, int64(1), st.Fixes)
	assert.Equal(t, int64(1), st.Promotes)
	assert.Equal(t, "(5, 1)\n\t(3, 0)\n\t(5, 0)\n", m.String())
	assert.False(t, m.HasViolation())
}

func TestRotate1Ascending(t *testing.T) {
	m := New[int, int](WithViolationBound(0))
	for _, k := range []int{1, 2, 3, 4} {
		m.Put(k, k)
	}

	st := m.Stats()
	assert.Equal(t, int64(1), st.Rotate1s)
	assert.Equal(t, int64(5), st.Promotes)
	assert.Zero(t, st.Rotate2s)
	assert.Zero(t, st.DoubleRotates)

	want := "(3, 2)\n" +
		"\t(2, 1)\n" +
		"\t\t(1, 0)\n" +
		"\t\t(2, 0)\n" +
		"\t(4, 1)\n" +
		"\t\t(3, 0)\n" +
		"\t\t(4, 0)\n"
	assert.Equal(t, want, m.String())
	require.NoError(t, m.Check())
}

func TestRotate1Descending(t *testing.T) {
	m := New[int, int](WithViolationBound(0))
	for _, k := range []int{4, 3, 2, 1} {
		m.Put(k, k)
	}

	assert.Equal(t, int64(1), m.Stats().Rotate1s)
	want := "(3, 2)\n" +
		"\t(2, 1)\n" +
		"\t\t(1, 0)\n" +
		"\t\t(2, 0)\n" +
		"\t(4, 1)\n" +
		"\t\t(3, 0)\n" +
		"\t\t(4, 0)\n"
	assert.Equal(t, want, m.String())
	require.NoError(t, m.Check())
}

func TestDoubleRotateAfterDelete(t *testing.T) {
	m := New[int, int](WithViolationBound(0))
	for _, k := range []int{10, 20, 30, 40} {
		m.Put(k, k)
	}
	_, ok := m.Delete(10)
	require.True(t, ok)
	assert.Equal(t, "(30, 2)\n\t(20, 0)\n\t(40, 1)\n\t\t(30, 0)\n\t\t(40, 0)\n", m.String())

	m.Put(35, 35)

	assert.Equal(t, int64(1), m.Stats().DoubleRotates)
	want := "(35, 2)\n" +
		"\t(30, 1)\n" +
		"\t\t(20, 0)\n" +
		"\t\t(30, 0)\n" +
		"\t(40, 1)\n" +
		"\t\t(35, 0)\n" +
		"\t\t(40, 0)\n"
	assert.Equal(t, want, m.String())
	assert.Equal(t, []int{20, 30, 35, 40}, m.Keys())
	require.NoError(t, m.Check())
}

func TestDoubleRotateLeft(t *testing.T) {
	m := New[int, int](WithViolationBound(0))
	y := testRouting(m, 30, 1, testLeaf(m, 20), testLeaf(m, 30))
	x := testRouting(m, 20, 2, testLeaf(m, 10), y)
	z := testRouting(m, 40, 2, x, testLeaf(m, 40))
	testInstall(m, z)
	require.Equal(t, 1, m.Violations())

	m.fixToKey(10)

	assert.Equal(t, int64(1), m.Stats().DoubleRotates)
	want := "(30, 2)\n" +
		"\t(20, 1)\n" +
		"\t\t(10, 0)\n" +
		"\t\t(20, 0)\n" +
		"\t(40, 1)\n" +
		"\t\t(30, 0)\n" +
		"\t\t(40, 0)\n"
	assert.Equal(t, want, m.String())
	assert.True(t, z.retired.Load())
	assert.True(t, x.retired.Load())
	assert.True(t, y.retired.Load())
	require.NoError(t, m.Check())
}

func TestRotate2(t *testing.T) {
	m := New[int, int](WithViolationBound(0))
	y := testRouting(m, 25, 1, testLeaf(m, 20), testLeaf(m, 25))
	ys := testRouting(m, 35, 1, testLeaf(m, 30), testLeaf(m, 35))
	x := testRouting(m, 30, 2, y, ys)
	z := testRouting(m, 20, 2, testLeaf(m, 10), x)
	testInstall(m, z)

	m.fixToKey(25)

	st := m.Stats()
	assert.Equal(t, int64(1), st.Rotate2s)
	assert.Equal(t, int64(1), st.Rebalances())
	want := "(30, 3)\n" +
		"\t(20, 2)\n" +
		"\t\t(10, 0)\n" +
		"\t\t(25, 1)\n" +
		"\t\t\t(20, 0)\n" +
		"\t\t\t(25, 0)\n" +
		"\t(35, 1)\n" +
		"\t\t(30, 0)\n" +
		"\t\t(35, 0)\n"
	assert.Equal(t, want, m.String())
	assert.Same(t, y, m.root.left.Load().left.Load().left.Load().right.Load(), "untouched subtrees are relinked")
	assert.False(t, m.HasViolation())
	require.NoError(t, m.Check())
}

func TestFixRepairsSiblingViolation(t *testing.T) {
	m := New[int, int](WithViolationBound(0))
	x := testRouting(m, 30, 1, testLeaf(m, 20), testLeaf(m, 30))
	z := testRouting(m, 20, 1, testLeaf(m, 10), x)
	testInstall(m, z)
	require.Equal(t, 1, m.Violations())

	// The path to 5 never enters x, but the pair (z, x) is visible from z.
	m.fixToKey(5)

	assert.Equal(t, int64(1), m.Stats().Promotes)
	assert.Equal(t, "(20, 2)\n\t(10, 0)\n\t(30, 1)\n\t\t(20, 0)\n\t\t(30, 0)\n", m.String())
	assert.False(t, m.HasViolation())
}

func TestFixToKeyOnTrivialTrees(t *testing.T) {
	m := New[int, int](WithViolationBound(0))
	passes := 0
	fixPassHook = func(int) { passes++ }
	t.Cleanup(func() { fixPassHook = nil })

	m.fixToKey(1)
	m.Put(1, 1)
	m.fixToKey(1)

	assert.Equal(t, 2, passes)
	assert.Equal(t, int64(2), m.Stats().Fixes)
	assert.Zero(t, m.Stats().Rebalances())
}

func TestCanPromote(t *testing.T) {
	m := New[int, int]()
	leaf := testLeaf(m, 1)
	mk := func(rank int) *node[int, int] { return testRouting(m, 1, rank, leaf, leaf) }

	assert.False(t, canPromote(mk(2), mk(2), mk(0)), "pz already equals z")
	assert.False(t, canPromote(mk(3), mk(2), mk(3)), "pz would equal both children")
	assert.True(t, canPromote(mk(3), mk(2), mk(1)))
	assert.True(t, canPromote(mk(4), mk(2), mk(4)))
}

func TestBalancingOpRejectsStaleWindow(t *testing.T) {
	m := New[int, int](WithViolationBound(0))
	x := testRouting(m, 30, 1, testLeaf(m, 20), testLeaf(m, 30))
	z := testRouting(m, 20, 1, testLeaf(m, 10), x)
	testInstall(m, z)
	entry := m.root.left.Load()

	other := testRouting(m, 30, 1, testLeaf(m, 20), testLeaf(m, 30))
	op, kind := m.createBalancingOp(entry, z, other)
	assert.Nil(t, op, "x is not a child of z")
	assert.Equal(t, fixNone, kind)

	op, kind = m.createBalancingOp(z, x, x.left.Load())
	assert.Nil(t, op, "no violation between x and its child")
	assert.Equal(t, fixNone, kind)
}
