package ravl

import (
	"sync/atomic"
	"time"
)

const defaultSeed = uint64(0xdeadbeefcafebabe)

func newRandomSeed() uint64 {
	seed := uint64(time.Now().UnixNano())
	if seed == 0 {
		seed = defaultSeed
	}
	return seed
}

// xorshift is a lock-free xorshift64* generator. It only spreads counter
// updates over shards, so losing a race just means drawing again.
type xorshift struct {
	seed atomic.Uint64
}

func newXorshift() *xorshift {
	return newXorshiftWithSeed(newRandomSeed())
}

func newXorshiftWithSeed(seed uint64) *xorshift {
	if seed == 0 {
		seed = defaultSeed
	}
	r := &xorshift{}
	r.seed.Store(seed)
	return r
}

func (r *xorshift) next() uint64 {
	for {
		current := r.seed.Load()
		x := current
		x ^= x >> 12
		x ^= x << 25
		x ^= x >> 27
		if x == 0 {
			x = defaultSeed
		}
		if r.seed.CompareAndSwap(current, x) {
			return x * 2685821657736338717
		}
	}
}
