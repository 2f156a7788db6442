package workload

import (
	"math/rand"

	"github.com/metailurini/ravl/internal/config"
)

// keySource draws keys in [0, keyRange).
type keySource interface {
	next() int
}

type uniformKeys struct {
	rng      *rand.Rand
	keyRange int
}

func (u *uniformKeys) next() int { return u.rng.Intn(u.keyRange) }

type zipfKeys struct {
	zipf *rand.Zipf
}

func (z *zipfKeys) next() int { return int(z.zipf.Uint64()) }

// ascendingKeys walks the key range in order, wrapping at the end.
type ascendingKeys struct {
	cur      int
	keyRange int
}

func (a *ascendingKeys) next() int {
	k := a.cur
	a.cur++
	if a.cur == a.keyRange {
		a.cur = 0
	}
	return k
}

// newKeySource returns the distribution of cfg for worker id. Ascending
// workers start at evenly spaced offsets so they do not collide on every key.
func newKeySource(cfg config.WorkloadConfig, rng *rand.Rand, id int) keySource {
	switch cfg.Distribution {
	case config.DistributionZipf:
		return &zipfKeys{zipf: rand.NewZipf(rng, cfg.ZipfAlpha, 1, uint64(cfg.KeyRange-1))}
	case config.DistributionAscending:
		return &ascendingKeys{cur: id * (cfg.KeyRange / cfg.Threads), keyRange: cfg.KeyRange}
	default:
		return &uniformKeys{rng: rng, keyRange: cfg.KeyRange}
	}
}
