// Package cache implements the intelligent multi-tier cache (C4): a hot
// in-memory tier backed by sharded locking, a warm secondary tier behind a
// single read/write lock, a predictive preheater, and an adaptive tuner.
//
// The sharded-map shape is grounded on the teacher's gps/typed_radix.go,
// which wraps a third-party tree (github.com/armon/go-radix) behind a
// sync.RWMutex to get a typed, concurrency-safe index; this package
// generalizes that one-lock-one-structure idea to N shards, one lock per
// shard, keyed by github.com/cespare/xxhash/v2 for shard routing.
package cache

import "time"

// Tier tags which layer an Entry currently lives in.
type Tier uint8

const (
	TierHot Tier = iota
	TierWarm
)

func (t Tier) String() string {
	if t == TierHot {
		return "hot"
	}
	return "warm"
}

// Entry is one cached value plus the bookkeeping the eviction policies and
// the adaptive tuner need (§3: "Cache entries").
type Entry struct {
	Value        interface{}
	Size         int64
	InsertedAt   time.Time
	LastAccessAt time.Time
	AccessCount  uint64
	Tier         Tier
}

// touch records an access, used by every policy's accounting.
func (e *Entry) touch(now time.Time) {
	e.LastAccessAt = now
	e.AccessCount++
}
