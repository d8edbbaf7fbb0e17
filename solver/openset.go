package solver

import "container/heap"

// node wraps a SearchState with its A* priority-queue bookkeeping. f is
// cached rather than recomputed on every heap operation.
type node struct {
	state *SearchState
	f     float64
	index int
}

// openSet is a container/heap priority queue ordered by f, then §4.5's
// tie-break rules: fewer pending, then more assignments, then lower state
// hash.
type openSet []*node

func (o openSet) Len() int { return len(o) }

func (o openSet) Less(i, j int) bool {
	a, b := o[i], o[j]
	if a.f != b.f {
		return a.f < b.f
	}
	if len(a.state.pending) != len(b.state.pending) {
		return len(a.state.pending) < len(b.state.pending)
	}
	if len(a.state.assignments) != len(b.state.assignments) {
		return len(a.state.assignments) > len(b.state.assignments)
	}
	return a.state.hash() < b.state.hash()
}

func (o openSet) Swap(i, j int) {
	o[i], o[j] = o[j], o[i]
	o[i].index = i
	o[j].index = j
}

func (o *openSet) Push(x interface{}) {
	n := x.(*node)
	n.index = len(*o)
	*o = append(*o, n)
}

func (o *openSet) Pop() interface{} {
	old := *o
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*o = old[:n-1]
	return item
}

var _ heap.Interface = (*openSet)(nil)
