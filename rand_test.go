package ravl

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestXorshiftSpreadsOverShards(t *testing.T) {
	const buckets = 16
	numSamples := 1000000
	counts := make([]int, buckets)
	rng := newXorshiftWithSeed(0x123456789abcdef)
	for range numSamples {
		counts[uint32(rng.next())&(buckets-1)]++
	}

	// Each bucket count is Binomial(numSamples, 1/buckets); allow five
	// standard deviations.
	p := 1.0 / buckets
	mean := float64(numSamples) * p
	tolerance := 5 * math.Sqrt(float64(numSamples)*p*(1-p))
	for i, c := range counts {
		if math.Abs(float64(c)-mean) > tolerance {
			t.Errorf("bucket %d holds %d samples, expected %.0f ± %.0f", i, c, mean, tolerance)
		}
	}
}

func TestXorshiftZeroSeed(t *testing.T) {
	rng := newXorshiftWithSeed(0)
	assert.Equal(t, defaultSeed, rng.seed.Load())
	assert.NotZero(t, rng.next())
}

func TestNextPowerOfTwo(t *testing.T) {
	for in, want := range map[int]int{0: 1, 1: 1, 2: 2, 3: 4, 8: 8, 9: 16, 100: 128} {
		assert.Equal(t, want, nextPowerOfTwo(in), "nextPowerOfTwo(%d)", in)
	}
}

func TestMetricsNilSafe(t *testing.T) {
	var m *metrics
	m.IncInsert()
	m.IncFixKind(fixPromote)
	assert.Equal(t, Stats{}, m.Snapshot())
}

func TestMetricsSnapshotSumsShards(t *testing.T) {
	m := newMetrics(newXorshift())
	require.NotEmpty(t, m.shards)
	for range 100 {
		m.IncCommit()
		m.IncFixKind(fixRotate1)
		m.IncFixKind(fixDoubleRotate)
	}
	m.IncFixKind(fixNone)

	st := m.Snapshot()
	assert.Equal(t, int64(100), st.Commits)
	assert.Equal(t, int64(100), st.Rotate1s)
	assert.Equal(t, int64(100), st.DoubleRotates)
	assert.Equal(t, int64(200), st.Rebalances())
}

func BenchmarkXorshiftNext(b *testing.B) {
	rng := newXorshift()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			rng.next()
		}
	})
}
