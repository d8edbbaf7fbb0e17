package solver

import (
	"container/heap"
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/loonghao/rez-next/cache"
	"github.com/loonghao/rez-next/internal/errs"
	"github.com/loonghao/rez-next/pkgmodel"
	"github.com/loonghao/rez-next/version"
)

// solveParallel implements §4.5's "parallel exploration": the open set is
// sharded by a stable hash of the frontier state, each worker owns one
// shard's local heap and pulls from it, and the closed set is a single
// concurrent map shared by every worker (cache.VisitedSet, grounded on
// C4's hot-tier sharded-map shape per the specification's own
// cross-reference).
func solveParallel(ctx context.Context, requirements []version.Requirement, source CandidateSource, opts Options) (Result, Report, error) {
	start := time.Now()
	n := opts.ParallelWorkers

	root := newState()
	root.pending = append(root.pending, requirements...)

	shards := make([]*openSet, n)
	shardMu := make([]sync.Mutex, n)
	for i := range shards {
		shards[i] = &openSet{}
		heap.Init(shards[i])
	}
	shardFor(root, n, shards, shardMu)

	closed := cache.NewVisitedSet()
	known := &knownTable{m: make(map[string]pkgmodel.Package)}

	var iterations int64
	var peak int64
	var goalsMu sync.Mutex
	var goals []*SearchState
	var done int32
	var cancelled int32
	var reportMu sync.Mutex
	var report Report
	// outstanding counts states that are queued in some shard OR currently
	// being expanded by a worker. It only hits zero once every worker's
	// queue is empty and no worker is mid-expand, which is the only
	// moment it's safe to conclude the search has genuinely run dry —
	// checking shard lengths alone races against a worker that has popped
	// an item but not yet pushed its successors.
	var outstanding int64 = 1

	var wg sync.WaitGroup
	for w := 0; w < n; w++ {
		w := w
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool := newStatePool()
			for atomic.LoadInt32(&done) == 0 {
				select {
				case <-ctx.Done():
					atomic.StoreInt32(&cancelled, 1)
					atomic.StoreInt32(&done, 1)
					return
				default:
				}

				shardMu[w].Lock()
				if shards[w].Len() == 0 {
					shardMu[w].Unlock()
					if !stealWork(w, n, shards, shardMu) {
						if atomic.LoadInt64(&outstanding) == 0 {
							return
						}
						continue
					}
					continue
				}
				cur := heap.Pop(shards[w]).(*node).state
				if int64(shards[w].Len()) > atomic.LoadInt64(&peak) {
					atomic.StoreInt64(&peak, int64(shards[w].Len()))
				}
				shardMu[w].Unlock()

				atomic.AddInt64(&iterations, 1)
				if atomic.LoadInt64(&iterations) > int64(opts.MaxIterations) {
					atomic.StoreInt32(&done, 1)
					return
				}

				key := cur.hash()
				if !closed.Insert(key) {
					atomic.AddInt64(&outstanding, -1)
					continue
				}

				if cur.isGoal() {
					goalsMu.Lock()
					goals = append(goals, cur)
					goalsMu.Unlock()
					atomic.AddInt64(&outstanding, -1)
					if opts.Strategy == Fastest {
						atomic.StoreInt32(&done, 1)
						return
					}
					continue
				}

				localReport := &Report{}
				successors, _ := expand(cur, known, source, opts, pool, localReport)
				if len(localReport.Conflicts) > 0 {
					reportMu.Lock()
					report.Conflicts = append(report.Conflicts, localReport.Conflicts...)
					reportMu.Unlock()
				}
				// Filter once and push exactly the filtered set: outstanding
				// must be incremented for precisely the items that get
				// queued, or a successor counted "live" here but found
				// already closed by the time it would be pushed (a race
				// against another worker's concurrent Insert) leaves
				// outstanding permanently inflated and the search never
				// terminates.
				live := successors[:0]
				for _, succ := range successors {
					if !closed.Has(succ.hash()) {
						live = append(live, succ)
					}
				}
				if len(live) > 0 {
					atomic.AddInt64(&outstanding, int64(len(live)))
				}
				for _, succ := range live {
					f := succ.gCost + hCost(opts.Weights, len(succ.pending), pendingNames(succ.pending), succ.conflicts)
					target := shardIndex(succ, n)
					shardMu[target].Lock()
					heap.Push(shards[target], &node{state: succ, f: f})
					shardMu[target].Unlock()
				}
				atomic.AddInt64(&outstanding, -1)
			}
		}()
	}
	wg.Wait()

	report.Iterations = int(atomic.LoadInt64(&iterations))
	report.PeakStates = int(atomic.LoadInt64(&peak))
	report.Elapsed = time.Since(start)

	if atomic.LoadInt32(&cancelled) == 1 {
		report.Status = StatusCancelled
		return Result{}, report, errs.New(errs.KindCancelled, "solve cancelled")
	}

	if len(goals) == 0 {
		report.Status = StatusUnsolvable
		report.finalizeTopConflicts()
		return Result{}, report, errs.New(errs.KindUnsolvable, "no resolved set satisfies the given requirements").WithDetail(report.TopConflicts)
	}

	report.Status = StatusSolved
	knownCopy := known.snapshot()
	result := Result{Sets: make([]ResolvedSet, 0, len(goals))}
	for _, g := range goals {
		result.Sets = append(result.Sets, buildResolvedSet(g, candidatesForState(g, knownCopy)))
	}
	return result, report, nil
}

func shardIndex(s *SearchState, n int) int {
	h := fnv.New32a()
	h.Write([]byte(s.hash()))
	return int(h.Sum32() % uint32(n))
}

func shardFor(s *SearchState, n int, shards []*openSet, mu []sync.Mutex) {
	idx := shardIndex(s, n)
	mu[idx].Lock()
	heap.Push(shards[idx], &node{state: s, f: 0})
	mu[idx].Unlock()
}

// stealWork pulls one state from another worker's shard when w's own shard
// is empty, implementing the work-stealing frontier §4.5 calls for.
func stealWork(w, n int, shards []*openSet, mu []sync.Mutex) bool {
	for i := 0; i < n; i++ {
		if i == w {
			continue
		}
		mu[i].Lock()
		if shards[i].Len() > 0 {
			item := heap.Pop(shards[i]).(*node)
			mu[i].Unlock()
			mu[w].Lock()
			heap.Push(shards[w], item)
			mu[w].Unlock()
			return true
		}
		mu[i].Unlock()
	}
	return false
}
