package ravl

import (
	"fmt"
	"sync"
	"testing"
)

// lockedMap is the baseline: a Go map behind a single RWMutex.
type lockedMap struct {
	mu sync.RWMutex
	m  map[int]int
}

func (l *lockedMap) Put(key, value int) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	old, ok := l.m[key]
	l.m[key] = value
	return old, ok
}

func (l *lockedMap) Delete(key int) (int, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	old, ok := l.m[key]
	delete(l.m, key)
	return old, ok
}

func (l *lockedMap) Get(key int) (int, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	v, ok := l.m[key]
	return v, ok
}

func BenchmarkCompareLockBased(b *testing.B) {
	const keyRange = 1 << 12

	targets := []struct {
		name      string
		newTarget func() benchTarget
	}{
		{name: "LockFree", newTarget: func() benchTarget { return New[int, int]() }},
		{name: "LockBased", newTarget: func() benchTarget { return &lockedMap{m: make(map[int]int)} }},
	}

	for _, dist := range []distributionKind{distUniform, distZipf} {
		for _, writePercent := range []int{5, 50} {
			for _, threads := range []int{1, 4, 16} {
				for _, target := range targets {
					name := fmt.Sprintf("%s/write=%d/%s_P%d", dist, writePercent, target.name, threads)
					b.Run(name, func(b *testing.B) {
						m := target.newTarget()
						for i := range keyRange / 2 {
							m.Put(i, i)
						}
						driveTarget(b, m, dist, writePercent, threads, keyRange)
					})
				}
			}
		}
	}
}
