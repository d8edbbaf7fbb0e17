package cache

import (
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// shardCount is the hot tier's fixed fan-out. Sized to comfortably exceed
// GOMAXPROCS on the build machines this is tuned for; each shard guards an
// independent map behind its own mutex so unrelated keys never contend,
// mirroring the teacher's one-lock-per-structure style (gps/typed_radix.go)
// but replicated across shards instead of a single global lock.
const shardCount = 32

type shard struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

// shardedMap is a fixed fan-out concurrent map: the building block shared by
// the hot tier (cache.go) and, separately, the dependency solver's closed
// set (solver package), which needs the same "many goroutines, one
// De-duplicated visited-state table" shape without the rest of Cache's
// tiering logic.
type shardedMap struct {
	shards [shardCount]*shard
}

func newShardedMap() *shardedMap {
	m := &shardedMap{}
	for i := range m.shards {
		m.shards[i] = &shard{entries: make(map[string]*Entry)}
	}
	return m
}

func (m *shardedMap) shardFor(key string) *shard {
	h := xxhash.Sum64String(key)
	return m.shards[h%uint64(shardCount)]
}

func (m *shardedMap) get(key string) (*Entry, bool) {
	s := m.shardFor(key)
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	if ok {
		e.touch(time.Now())
	}
	return e, ok
}

// peek reads without bumping access bookkeeping; used by the tuner and
// preheater to inspect state without perturbing the policy they're tuning.
func (m *shardedMap) peek(key string) (*Entry, bool) {
	s := m.shardFor(key)
	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()
	return e, ok
}

func (m *shardedMap) put(key string, e *Entry) {
	s := m.shardFor(key)
	s.mu.Lock()
	s.entries[key] = e
	s.mu.Unlock()
}

func (m *shardedMap) delete(key string) {
	s := m.shardFor(key)
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

func (m *shardedMap) len() int {
	n := 0
	for _, s := range m.shards {
		s.mu.RLock()
		n += len(s.entries)
		s.mu.RUnlock()
	}
	return n
}

func (m *shardedMap) clear() {
	for _, s := range m.shards {
		s.mu.Lock()
		s.entries = make(map[string]*Entry)
		s.mu.Unlock()
	}
}

// evictionCandidate scans every shard and returns the key/entry that is the
// worst candidate under policy p. O(n) in the tier's size; acceptable since
// it only runs when the tier is over capacity, not on the hot path.
func (m *shardedMap) evictionCandidate(p Policy) (string, *Entry, bool) {
	now := time.Now()
	var bestKey string
	var best *Entry
	found := false
	for _, s := range m.shards {
		s.mu.RLock()
		for k, e := range s.entries {
			if !found || worse(p, now, k, e, bestKey, best) {
				bestKey, best, found = k, e, true
			}
		}
		s.mu.RUnlock()
	}
	return bestKey, best, found
}

// forEach calls fn for a snapshot of all entries. fn must not block for
// long; it runs while each shard's lock is briefly held.
func (m *shardedMap) forEach(fn func(key string, e *Entry)) {
	for _, s := range m.shards {
		s.mu.RLock()
		for k, e := range s.entries {
			fn(k, e)
		}
		s.mu.RUnlock()
	}
}
