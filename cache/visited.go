package cache

// VisitedSet is the "single concurrent map" §4.5 calls for as the A* closed
// set when parallel_workers > 1: a dependency-free reuse of the hot tier's
// sharded-map shape (shard.go), without any of Cache's tiering, eviction,
// or stats machinery that the closed set has no use for.
type VisitedSet struct {
	m *shardedMap
}

func NewVisitedSet() *VisitedSet {
	return &VisitedSet{m: newShardedMap()}
}

// Insert records key as visited. It reports whether key was newly inserted
// (false if another goroutine already recorded it first), which is what
// lets concurrent A* workers use this as a de-duplicating closed set
// without a separate existence check racing the insert.
func (v *VisitedSet) Insert(key string) (inserted bool) {
	s := v.m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[key]; ok {
		return false
	}
	s.entries[key] = &Entry{}
	return true
}

func (v *VisitedSet) Has(key string) bool {
	_, ok := v.m.peek(key)
	return ok
}

func (v *VisitedSet) Len() int { return v.m.len() }
