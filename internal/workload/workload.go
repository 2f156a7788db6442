// Package workload drives a concurrent benchmark against a ravl map.
package workload

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	antsv2 "github.com/panjf2000/ants/v2"
	"github.com/samber/lo"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/metailurini/ravl"
	"github.com/metailurini/ravl/internal/config"
	"github.com/metailurini/ravl/internal/logging"
)

// ctxCheckInterval is how many operations a worker runs between deadline checks.
const ctxCheckInterval = 64

// ErrSizeMismatch indicates the final size disagrees with the worker tallies.
var ErrSizeMismatch = errors.New("final size does not match committed updates")

// Result describes a finished run.
type Result struct {
	Config  config.WorkloadConfig
	Seed    int64
	Elapsed time.Duration

	Prefilled int
	Workers   []Counters
	Total     Counters

	Size       int
	Height     int
	Violations int
	Stats      ravl.Stats
	CheckErr   error
}

// ExpectedSize is the size implied by the prefill and the worker tallies.
func (r *Result) ExpectedSize() int {
	return r.Prefilled + int(r.Total.Added-r.Total.Removed)
}

// Throughput is operations per second over the measured interval.
func (r *Result) Throughput() float64 {
	if r.Elapsed <= 0 {
		return 0
	}
	return float64(r.Total.Ops()) / r.Elapsed.Seconds()
}

// Err reports structural problems and size disagreements found after the run.
func (r *Result) Err() error {
	err := r.CheckErr
	if size := r.ExpectedSize(); size != r.Size {
		err = multierr.Append(err, fmt.Errorf("%w: expected %d, got %d", ErrSizeMismatch, size, r.Size))
	}
	return err
}

// Run prefills m and then hammers it with cfg.Threads workers for
// cfg.Duration or until ctx is done. m should be empty.
func Run(ctx context.Context, cfg config.WorkloadConfig, m *ravl.Map[int, int], logger *zap.Logger) (*Result, error) {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	res := &Result{Config: cfg, Seed: seed}
	res.Prefilled = prefill(m, cfg, rand.New(rand.NewSource(seed)))
	logger.Info("prefill done",
		zap.Int("keys", res.Prefilled),
		zap.Int("height", m.Height()),
		zap.Int64("seed", seed),
	)

	pool, err := antsv2.NewPool(cfg.Threads, antsv2.WithLogger(logging.NewAntsLogger(logger)))
	if err != nil {
		return nil, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	runCtx, cancel := context.WithTimeout(ctx, cfg.Duration)
	defer cancel()

	res.Workers = make([]Counters, cfg.Threads)

	var (
		wg    sync.WaitGroup
		start = make(chan struct{})
	)
	for id := range cfg.Threads {
		w := &worker{
			id:  id,
			m:   m,
			cfg: cfg,
			rng: rand.New(rand.NewSource(seed + int64(id) + 1)),
			out: &res.Workers[id],
		}
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			<-start
			w.run(runCtx)
		})
		if submitErr != nil {
			wg.Done()
			cancel()
			close(start)
			wg.Wait()
			return nil, fmt.Errorf("submit worker %d: %w", id, submitErr)
		}
	}

	began := time.Now()
	close(start)
	wg.Wait()
	res.Elapsed = time.Since(began)

	res.Total = lo.Reduce(res.Workers, func(acc Counters, c Counters, _ int) Counters {
		return acc.add(c)
	}, Counters{})

	res.Size = m.Size()
	res.Height = m.Height()
	res.Violations = m.Violations()
	res.Stats = m.Stats()
	res.CheckErr = m.Check()

	logger.Info("run finished",
		zap.Duration("elapsed", res.Elapsed),
		zap.Int64("ops", res.Total.Ops()),
		zap.Int("size", res.Size),
		zap.Int("height", res.Height),
		zap.Int("violations", res.Violations),
	)

	return res, nil
}

// prefill inserts distinct uniform keys until cfg.InitialSize are present.
func prefill(m *ravl.Map[int, int], cfg config.WorkloadConfig, rng *rand.Rand) int {
	added := 0
	for added < cfg.InitialSize {
		k := rng.Intn(cfg.KeyRange)
		if _, present := m.PutIfAbsent(k, k); !present {
			added++
		}
	}
	return added
}

type worker struct {
	id  int
	m   *ravl.Map[int, int]
	cfg config.WorkloadConfig
	rng *rand.Rand
	out *Counters
}

func (w *worker) run(ctx context.Context) {
	keys := newKeySource(w.cfg, w.rng, w.id)
	// Thresholds over [0, 10000): insert share of updates, then the rest of updates.
	insertBelow := w.cfg.UpdatePercent * w.cfg.InsertPercent
	updateBelow := w.cfg.UpdatePercent * 100

	var c Counters
	for i := 0; ; i++ {
		if i%ctxCheckInterval == 0 && ctx.Err() != nil {
			break
		}

		op := w.rng.Intn(10000)
		k := keys.next()
		switch {
		case op < insertBelow:
			c.Adds++
			if _, present := w.m.PutIfAbsent(k, k); !present {
				c.Added++
			}
		case op < updateBelow:
			c.Removes++
			if _, ok := w.m.Delete(k); ok {
				c.Removed++
			}
		default:
			c.Contains++
			if w.m.Contains(k) {
				c.Found++
			}
		}
	}
	*w.out = c
}
