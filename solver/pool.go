package solver

import "sync"

// statePool recycles SearchState allocations per §4.5 ("SearchState
// allocations go through a per-worker pool. On prune, the state is
// returned to the pool"). Wraps sync.Pool rather than a hand-rolled
// freelist, matching how the rest of the corpus reaches for sync.Pool for
// this exact "recycle short-lived allocations" shape.
type statePool struct {
	pool sync.Pool
}

func newStatePool() *statePool {
	return &statePool{pool: sync.Pool{New: func() interface{} { return newState() }}}
}

func (p *statePool) get() *SearchState {
	return p.pool.Get().(*SearchState)
}

func (p *statePool) put(s *SearchState) {
	s.reset()
	p.pool.Put(s)
}
