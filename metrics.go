package ravl

import (
	"math/bits"
	"runtime"
	"sync/atomic"
)

type metricShard struct {
	inserts       atomic.Int64
	replaces      atomic.Int64
	deletes       atomic.Int64
	commits       atomic.Int64
	aborts        atomic.Int64
	helps         atomic.Int64
	llxFailures   atomic.Int64
	retries       atomic.Int64
	fixes         atomic.Int64
	promotes      atomic.Int64
	rotate1s      atomic.Int64
	rotate2s      atomic.Int64
	doubleRotates atomic.Int64
	// Pad to two cache lines to prevent false sharing.
	_ [24]byte
}

// Stats is a point-in-time copy of a map's counters. Counters are summed
// over shards without a global snapshot, so concurrent updates may be
// partially reflected.
type Stats struct {
	// Inserts, Replaces and Deletes count committed updates.
	Inserts  int64
	Replaces int64
	Deletes  int64

	// Commits and Aborts count operations driven to each terminal state.
	Commits int64
	Aborts  int64
	// Helps counts operations of other goroutines that were helped.
	Helps       int64
	LLXFailures int64
	// Retries counts update attempts restarted from the root.
	Retries int64

	// Fixes counts rebalancer invocations; the rest count committed
	// transformations.
	Fixes         int64
	Promotes      int64
	Rotate1s      int64
	Rotate2s      int64
	DoubleRotates int64
}

// Rebalances returns the number of committed transformations of any kind.
func (s Stats) Rebalances() int64 {
	return s.Promotes + s.Rotate1s + s.Rotate2s + s.DoubleRotates
}

// metrics is nil when counting is disabled; every method tolerates that.
type metrics struct {
	shards []metricShard
	mask   uint32
	rng    *xorshift
}

func newMetrics(rng *xorshift) *metrics {
	shardCount := 1
	if rng != nil {
		shardCount = runtime.GOMAXPROCS(0)
		if shardCount < 1 {
			shardCount = 1
		}
		shardCount = nextPowerOfTwo(shardCount)
	}
	return &metrics{
		shards: make([]metricShard, shardCount),
		mask:   uint32(shardCount - 1),
		rng:    rng,
	}
}

func nextPowerOfTwo(v int) int {
	if v <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(v-1))
}

func (m *metrics) shard() *metricShard {
	if len(m.shards) == 1 || m.rng == nil {
		return &m.shards[0]
	}
	idx := uint32(m.rng.next()) & m.mask
	return &m.shards[idx]
}

func (m *metrics) IncInsert() {
	if m != nil {
		m.shard().inserts.Add(1)
	}
}

func (m *metrics) IncReplace() {
	if m != nil {
		m.shard().replaces.Add(1)
	}
}

func (m *metrics) IncDelete() {
	if m != nil {
		m.shard().deletes.Add(1)
	}
}

func (m *metrics) IncCommit() {
	if m != nil {
		m.shard().commits.Add(1)
	}
}

func (m *metrics) IncAbort() {
	if m != nil {
		m.shard().aborts.Add(1)
	}
}

func (m *metrics) IncHelp() {
	if m != nil {
		m.shard().helps.Add(1)
	}
}

func (m *metrics) IncLLXFailure() {
	if m != nil {
		m.shard().llxFailures.Add(1)
	}
}

func (m *metrics) IncRetry() {
	if m != nil {
		m.shard().retries.Add(1)
	}
}

func (m *metrics) IncFix() {
	if m != nil {
		m.shard().fixes.Add(1)
	}
}

func (m *metrics) IncFixKind(kind fixKind) {
	if m == nil {
		return
	}
	s := m.shard()
	switch kind {
	case fixPromote:
		s.promotes.Add(1)
	case fixRotate1:
		s.rotate1s.Add(1)
	case fixRotate2:
		s.rotate2s.Add(1)
	case fixDoubleRotate:
		s.doubleRotates.Add(1)
	}
}

func (m *metrics) Snapshot() Stats {
	var st Stats
	if m == nil {
		return st
	}
	for i := range m.shards {
		s := &m.shards[i]
		st.Inserts += s.inserts.Load()
		st.Replaces += s.replaces.Load()
		st.Deletes += s.deletes.Load()
		st.Commits += s.commits.Load()
		st.Aborts += s.aborts.Load()
		st.Helps += s.helps.Load()
		st.LLXFailures += s.llxFailures.Load()
		st.Retries += s.retries.Load()
		st.Fixes += s.fixes.Load()
		st.Promotes += s.promotes.Load()
		st.Rotate1s += s.rotate1s.Load()
		st.Rotate2s += s.rotate2s.Load()
		st.DoubleRotates += s.doubleRotates.Load()
	}
	return st
}
