// Package ravl implements a lock-free, linearizable ordered map on a relaxed
// AVL tree.
//
// Updates replace small local subtrees atomically with the LLX/SCX protocol:
// the nodes an update depends on are frozen one compare-and-swap at a time
// and the new subtree is spliced in by a final compare-and-swap on a child
// slot. A goroutine that finds a node frozen by another update finishes that
// update first, so no goroutine ever waits on another.
//
// Balance is relaxed: up to d parent/child pairs of equal rank may exist on
// a path before the update that crossed the bound repairs its path with
// promotions and rotations.
package ravl

import (
	"cmp"
	"reflect"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Compare orders keys. It returns a negative number when a < b, zero when
// a == b and a positive number when a > b.
type Compare[K any] func(a, b K) int

// Map is a concurrent ordered map. The zero value is not usable; create maps
// with New or NewFunc.
type Map[K, V any] struct {
	compare Compare[K]
	d       int

	// root and root.left are the permanent sentinels of infinite rank. Keys
	// live below root.left.left once the map is non-empty.
	root    *node[K, V]
	missing *node[K, V]
	noop    *operation[K, V]

	mut     mutatorImpl[K, V]
	metrics *metrics
	logger  *zap.Logger

	// nilableKeys is set when K is an interface, pointer or other type
	// whose values may be nil.
	nilableKeys bool
}

// New returns an empty map over naturally ordered keys. It panics if an
// option is invalid.
func New[K cmp.Ordered, V any](opts ...Option) *Map[K, V] {
	m, err := NewFunc[K, V](cmp.Compare[K], opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// NewFunc returns an empty map ordered by compare.
func NewFunc[K, V any](compare Compare[K], opts ...Option) (*Map[K, V], error) {
	var err error
	if compare == nil {
		err = multierr.Append(err, ErrNilComparator)
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if err = multierr.Append(err, o.validate()); err != nil {
		return nil, err
	}

	noop := newNoop[K, V]()
	missing := newMissing(noop)
	entry := newSentinel(missing, missing, noop)

	m := &Map[K, V]{
		compare:     compare,
		d:           o.violationBound,
		root:        newSentinel(entry, missing, noop),
		missing:     missing,
		noop:        noop,
		logger:      o.logger,
		nilableKeys: canBeNil(reflect.TypeFor[K]().Kind()),
	}
	m.mut = mutatorImpl[K, V]{m: m}
	if o.stats {
		m.metrics = newMetrics(newXorshift())
	}
	return m, nil
}

func canBeNil(k reflect.Kind) bool {
	switch k {
	case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice,
		reflect.Func, reflect.Chan, reflect.UnsafePointer:
		return true
	}
	return false
}

// checkKey panics on nil keys, including typed nil pointers held by an
// interface key. Keys of other types are never inspected.
func (m *Map[K, V]) checkKey(key K) {
	if !m.nilableKeys {
		return
	}
	v := any(key)
	if v == nil {
		panic(ErrNilKey)
	}
	if rv := reflect.ValueOf(v); canBeNil(rv.Kind()) && rv.IsNil() {
		panic(ErrNilKey)
	}
}

// Get returns the value stored for key.
// The boolean is true if the key exists, false otherwise.
func (m *Map[K, V]) Get(key K) (V, bool) {
	m.checkKey(key)
	l := m.searchLeaf(key)
	if !m.holds(l, key) {
		var zero V
		return zero, false
	}
	return l.value, true
}

// Contains reports whether key is present.
func (m *Map[K, V]) Contains(key K) bool {
	_, ok := m.Get(key)
	return ok
}

// Put stores value for key, replacing any existing value.
// It returns the previous value and whether the key was present.
func (m *Map[K, V]) Put(key K, value V) (V, bool) {
	m.checkKey(key)
	return m.mut.put(key, value, true)
}

// PutIfAbsent stores value only when key is absent. When key is present it
// returns the stored value and true and leaves the map unchanged; otherwise
// it returns the zero value and false.
func (m *Map[K, V]) PutIfAbsent(key K, value V) (V, bool) {
	m.checkKey(key)
	return m.mut.put(key, value, false)
}

// Delete removes key and returns the value it held.
// The boolean is false if the key was absent.
func (m *Map[K, V]) Delete(key K) (V, bool) {
	m.checkKey(key)
	return m.mut.delete(key)
}

// ViolationBound returns the number of rank violations tolerated per path.
func (m *Map[K, V]) ViolationBound() int {
	return m.d
}

// Stats returns a snapshot of the map's counters. It is all zeros when the
// map was built WithoutStats.
func (m *Map[K, V]) Stats() Stats {
	return m.metrics.Snapshot()
}
