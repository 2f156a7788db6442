package workload

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"github.com/metailurini/ravl"
	"github.com/metailurini/ravl/internal/config"
)

func testConfig() config.WorkloadConfig {
	return config.WorkloadConfig{
		Threads:       4,
		Duration:      50 * time.Millisecond,
		InitialSize:   128,
		KeyRange:      512,
		UpdatePercent: 50,
		InsertPercent: 50,
		Distribution:  config.DistributionUniform,
		ZipfAlpha:     1.2,
		Seed:          42,
	}
}

func TestRun_Distributions(t *testing.T) {
	for _, dist := range []string{config.DistributionUniform, config.DistributionZipf, config.DistributionAscending} {
		t.Run(dist, func(t *testing.T) {
			cfg := testConfig()
			cfg.Distribution = dist
			m := ravl.New[int, int](ravl.WithViolationBound(1))

			res, err := Run(context.Background(), cfg, m, zaptest.NewLogger(t))
			require.NoError(t, err)

			assert.Equal(t, cfg.InitialSize, res.Prefilled)
			assert.Len(t, res.Workers, cfg.Threads)
			assert.Positive(t, res.Total.Ops())
			assert.Positive(t, res.Elapsed)
			assert.Positive(t, res.Throughput())
			require.NoError(t, res.Err())
			assert.Equal(t, res.ExpectedSize(), res.Size)
			assert.Equal(t, int64(res.Prefilled)+res.Total.Added, res.Stats.Inserts)
			assert.Equal(t, res.Total.Removed, res.Stats.Deletes)
		})
	}
}

func TestRun_ReadOnly(t *testing.T) {
	cfg := testConfig()
	cfg.UpdatePercent = 0
	m := ravl.New[int, int]()

	res, err := Run(context.Background(), cfg, m, zap.NewNop())
	require.NoError(t, err)

	assert.Zero(t, res.Total.Updates())
	assert.Equal(t, res.Total.Ops(), res.Total.Reads())
	assert.Equal(t, cfg.InitialSize, res.Size)
	assert.Positive(t, res.Total.Found)
}

func TestRun_CancelledContext(t *testing.T) {
	cfg := testConfig()
	cfg.Duration = time.Hour
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Run(ctx, cfg, ravl.New[int, int](), zap.NewNop())
	require.NoError(t, err)
	assert.Zero(t, res.Total.Ops())
	assert.Equal(t, cfg.InitialSize, res.Size)
}

func TestRun_LogsSummary(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	cfg := testConfig()
	cfg.Seed = 0

	res, err := Run(context.Background(), cfg, ravl.New[int, int](), zap.New(core))
	require.NoError(t, err)

	assert.NotZero(t, res.Seed)
	assert.Equal(t, 1, logs.FilterMessage("prefill done").Len())
	assert.Equal(t, 1, logs.FilterMessage("run finished").Len())
}

func TestResult_ErrReportsSizeMismatch(t *testing.T) {
	res := &Result{Prefilled: 10, Total: Counters{Added: 5, Removed: 2}, Size: 12}
	assert.Equal(t, 13, res.ExpectedSize())
	require.ErrorIs(t, res.Err(), ErrSizeMismatch)

	res.Size = 13
	require.NoError(t, res.Err())
}

func TestCounters(t *testing.T) {
	c := Counters{Adds: 10, Added: 7, Removes: 5, Removed: 1, Contains: 20, Found: 3}
	assert.Equal(t, int64(35), c.Ops())
	assert.Equal(t, int64(20), c.Reads())
	assert.Equal(t, int64(27), c.EffectiveReads())
	assert.Equal(t, int64(15), c.Updates())
	assert.Equal(t, int64(8), c.EffectiveUpdates())
	assert.Equal(t, Counters{Adds: 20, Added: 14, Removes: 10, Removed: 2, Contains: 40, Found: 6}, c.add(c))
}

func TestKeySources(t *testing.T) {
	cfg := testConfig()
	rng := rand.New(rand.NewSource(1))

	for _, dist := range []string{config.DistributionUniform, config.DistributionZipf} {
		cfg.Distribution = dist
		src := newKeySource(cfg, rng, 0)
		for range 1000 {
			k := src.next()
			require.GreaterOrEqual(t, k, 0)
			require.Less(t, k, cfg.KeyRange)
		}
	}

	cfg.Distribution = config.DistributionAscending
	cfg.KeyRange = 8
	cfg.Threads = 2
	src := newKeySource(cfg, rng, 1)
	got := make([]int, 0, 6)
	for range 6 {
		got = append(got, src.next())
	}
	assert.Equal(t, []int{4, 5, 6, 7, 0, 1}, got)
}

func TestAudit(t *testing.T) {
	for _, d := range []int{0, 1, ravl.DefaultViolationBound} {
		m := ravl.New[int, int](ravl.WithViolationBound(d))
		rep, err := Audit(m, 3000, 300, int64(d)+1, zaptest.NewLogger(t))
		require.NoError(t, err, "d=%d", d)
		assert.Equal(t, 3000, rep.Steps)
		assert.Equal(t, m.Size(), rep.Size)
		assert.LessOrEqual(t, rep.MaxPathViolations, d)
		if d == 0 {
			assert.Zero(t, rep.MaxPathViolations)
		}
	}
}

func TestBoundBreach(t *testing.T) {
	require.NoError(t, boundBreach(10, 0, 2, 2))

	err := boundBreach(11, 2, 3, 2)
	require.ErrorIs(t, err, ErrBoundExceeded)
	assert.Contains(t, err.Error(), "step 11")

	// Only the first crossing is reported.
	require.NoError(t, boundBreach(12, 3, 4, 2))
}
