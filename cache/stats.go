package cache

import "sync/atomic"

// Stats is an immutable snapshot of a Cache's counters (§12.4, supplemented
// from original_source/: the Rust implementation keeps a diffable snapshot
// type rather than exposing the live atomics directly). Two Stats values
// can be compared field-by-field by a caller to compute a delta.
type Stats struct {
	HotHits    uint64
	HotMisses  uint64
	WarmHits   uint64
	WarmMisses uint64
	Promotions uint64
	Demotions  uint64
	Evictions  uint64
	HotSize    int
	WarmSize   int
}

// Sub returns s minus prior, field by field. Panics are impossible: all
// fields are unsigned, and callers are expected to pass an earlier
// snapshot of the same Cache, so every field is monotonically
// non-decreasing between calls.
func (s Stats) Sub(prior Stats) Stats {
	return Stats{
		HotHits:    s.HotHits - prior.HotHits,
		HotMisses:  s.HotMisses - prior.HotMisses,
		WarmHits:   s.WarmHits - prior.WarmHits,
		WarmMisses: s.WarmMisses - prior.WarmMisses,
		Promotions: s.Promotions - prior.Promotions,
		Demotions:  s.Demotions - prior.Demotions,
		Evictions:  s.Evictions - prior.Evictions,
		HotSize:    s.HotSize,
		WarmSize:   s.WarmSize,
	}
}

// counters holds the live atomic values a Cache mutates on every
// operation; Stats() reads them into an immutable Stats snapshot.
type counters struct {
	hotHits    atomic.Uint64
	hotMisses  atomic.Uint64
	warmHits   atomic.Uint64
	warmMisses atomic.Uint64
	promotions atomic.Uint64
	demotions  atomic.Uint64
	evictions  atomic.Uint64
}
