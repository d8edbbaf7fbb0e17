package solver

import (
	"container/heap"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/loonghao/rez-next/internal/errs"
	"github.com/loonghao/rez-next/internal/logx"
	"github.com/loonghao/rez-next/pkgmodel"
	"github.com/loonghao/rez-next/version"
)

// Result is Solve's success-path output: one ResolvedSet for
// Fastest/Optimal, or every goal found for All.
type Result struct {
	Sets []ResolvedSet
}

// Solve runs A* search from the given top-level requirements over source
// (§4.5). It honors ctx cancellation between expansions, returning a
// partial report with Status = Cancelled when ctx is done.
func Solve(ctx context.Context, requirements []version.Requirement, source CandidateSource, opts Options) (Result, Report, error) {
	opts = opts.withDefaults()
	if opts.ParallelWorkers > 1 {
		return solveParallel(ctx, requirements, source, opts)
	}
	return solveSequential(ctx, requirements, source, opts)
}

func solveSequential(ctx context.Context, requirements []version.Requirement, source CandidateSource, opts Options) (Result, Report, error) {
	start := time.Now()
	l := opts.logger()

	root := newState()
	root.pending = append(root.pending, requirements...)

	pool := newStatePool()
	open := &openSet{}
	heap.Init(open)
	heap.Push(open, &node{state: root, f: hCost(opts.Weights, len(root.pending), pendingNames(root.pending), nil)})

	closed := make(map[string]bool)
	candidates := make(mapSink) // name@version -> package, filled as assignments land

	var report Report
	var goals []*SearchState
	var bestPartial *SearchState // lowest-h state popped so far
	var bestPartialH float64
	bestGoalCost := -1.0
	fails := 0

	for open.Len() > 0 {
		select {
		case <-ctx.Done():
			report.Status = StatusCancelled
			report.Elapsed = time.Since(start)
			return Result{}, report, errs.New(errs.KindCancelled, "solve cancelled")
		default:
		}

		report.Iterations++
		if report.Iterations > opts.MaxIterations {
			report.Status = StatusIterationLimit
			report.Elapsed = time.Since(start)
			report.finalizeTopConflicts()
			if bestPartial != nil {
				rs := buildResolvedSet(bestPartial, candidatesForState(bestPartial, map[string]pkgmodel.Package(candidates)))
				report.BestPartial = &rs
			}
			return Result{}, report, errs.New(errs.KindIterationLimit, "exceeded max_iterations (%d)", opts.MaxIterations)
		}
		if open.Len() > report.PeakStates {
			report.PeakStates = open.Len()
		}

		cur := heap.Pop(open).(*node).state
		key := cur.hash()
		if closed[key] {
			continue
		}
		closed[key] = true
		if h := hCost(opts.Weights, len(cur.pending), pendingNames(cur.pending), cur.conflicts); bestPartial == nil || h < bestPartialH {
			bestPartial, bestPartialH = cur, h
		}

		if cur.isGoal() {
			if opts.Strategy == All {
				goals = append(goals, cur)
				if report.Iterations >= opts.MaxIterations {
					break
				}
				continue
			}
			if opts.Strategy == Fastest {
				goals = append(goals, cur)
				break
			}
			// Optimal: keep exploring until nothing open can beat this goal.
			if bestGoalCost < 0 || cur.gCost < bestGoalCost {
				bestGoalCost = cur.gCost
				goals = []*SearchState{cur}
			}
			continue
		}
		if opts.Strategy == Optimal && bestGoalCost >= 0 {
			// Prune: nothing left in a min-heap can have lower f than the
			// node we just popped, so once f exceeds the best goal we're done.
			nextF := hCost(opts.Weights, len(cur.pending), pendingNames(cur.pending), cur.conflicts) + cur.gCost
			if nextF >= bestGoalCost {
				break
			}
		}

		successors, skip := expand(cur, candidates, source, opts, pool, &report)
		if skip {
			fails++
			if fails > opts.MaxFails {
				break
			}
		}
		for _, succ := range successors {
			if closed[succ.hash()] {
				pool.put(succ)
				continue
			}
			f := succ.gCost + hCost(opts.Weights, len(succ.pending), pendingNames(succ.pending), succ.conflicts)
			heap.Push(open, &node{state: succ, f: f})
		}
	}

	report.Elapsed = time.Since(start)
	if logx.Enabled(l, logrus.DebugLevel) {
		l.WithFields(logrus.Fields{"iterations": report.Iterations, "peak_states": report.PeakStates}).Debug("solver: search finished")
	}

	if len(goals) == 0 {
		report.Status = StatusUnsolvable
		report.finalizeTopConflicts()
		return Result{}, report, errs.New(errs.KindUnsolvable, "no resolved set satisfies the given requirements").WithDetail(report.TopConflicts)
	}

	report.Status = StatusSolved
	result := Result{Sets: make([]ResolvedSet, 0, len(goals))}
	for _, g := range goals {
		result.Sets = append(result.Sets, buildResolvedSet(g, candidatesForState(g, map[string]pkgmodel.Package(candidates))))
	}
	return result, report, nil
}

// knownSink records the pkgmodel.Package behind every (name, version) the
// search assigns, keyed "name@version", so the final ResolvedSet can be
// built without a second lookup pass, and so expand can walk the requires
// graph of already-assigned packages for cycle detection. mapSink (plain map)
// backs the single-worker search; knownTable (mutex-guarded) backs the
// parallel search where multiple goroutines call expand concurrently.
type knownSink interface {
	put(name string, pkg pkgmodel.Package)
	get(name string) (pkgmodel.Package, bool)
}

type mapSink map[string]pkgmodel.Package

func (m mapSink) put(name string, pkg pkgmodel.Package) { m[name] = pkg }
func (m mapSink) get(name string) (pkgmodel.Package, bool) { p, ok := m[name]; return p, ok }

type knownTable struct {
	mu sync.Mutex
	m  map[string]pkgmodel.Package
}

func (k *knownTable) put(name string, pkg pkgmodel.Package) {
	k.mu.Lock()
	k.m[name] = pkg
	k.mu.Unlock()
}

func (k *knownTable) get(name string) (pkgmodel.Package, bool) {
	k.mu.Lock()
	defer k.mu.Unlock()
	p, ok := k.m[name]
	return p, ok
}

func (k *knownTable) snapshot() map[string]pkgmodel.Package {
	k.mu.Lock()
	defer k.mu.Unlock()
	out := make(map[string]pkgmodel.Package, len(k.m))
	for n, p := range k.m {
		out[n] = p
	}
	return out
}

func candidatesForState(s *SearchState, all map[string]pkgmodel.Package) map[string]pkgmodel.Package {
	out := make(map[string]pkgmodel.Package, len(s.assignments))
	for n, a := range s.assignments {
		out[n] = all[n+"@"+a.Version.String()]
	}
	return out
}

func pendingNames(pending []version.Requirement) []string {
	names := make([]string, len(pending))
	for i, r := range pending {
		names[i] = r.Name
	}
	return names
}

// expand generates cur's successors following §4.5's recipe: pick the
// pending requirement with the smallest candidate set (fail-first), then
// branch over its candidates in ConflictStrategy order, each branch
// merging the chosen package's own requirements into pending.
//
// skip reports that cur had no viable successor (its chosen requirement's
// candidate set was empty after filtering), counted against MaxFails.
func expand(cur *SearchState, known knownSink, source CandidateSource, opts Options, pool *statePool, report *Report) ([]*SearchState, bool) {
	idx, req := pickNextRequirement(cur, source)
	if idx < 0 {
		return nil, false
	}

	// §4.5(b): revisiting an already-assigned name is a cycle only when
	// either (1) the new requirement's range is disjoint from the version
	// already assigned to it, or (2) the name is structurally reachable
	// from its own requires graph — i.e. one of its (transitive)
	// dependencies itself requires it back. An ordinary diamond (two
	// siblings both requiring the same compatible leaf package) revisits
	// a name with neither condition true and must not be flagged; falling
	// back to bare name-on-path membership, as an earlier revision did,
	// misreported every diamond as a cycle because a diamond always
	// revisits the shared name.
	if existing, ok := cur.assignments[req.Name]; ok {
		switch {
		case !req.Range.Contains(existing.Version):
			cur.conflicts = append(cur.conflicts, ConflictRecord{Kind: ConflictCycle, Name: req.Name,
				Detail: "requires " + req.Range.String() + " but " + existing.Version.String() + " is already assigned"})
			report.recordConflict(ConflictRecord{Kind: ConflictCycle, Name: req.Name})
			return nil, true
		case cycleExists(known, cur.assignments, req.Name):
			cur.conflicts = append(cur.conflicts, ConflictRecord{Kind: ConflictCycle, Name: req.Name,
				Detail: "requires graph has a cycle back to " + req.Name})
			report.recordConflict(ConflictRecord{Kind: ConflictCycle, Name: req.Name})
			return nil, true
		default:
			// Compatible revisit with no back-edge: an ordinary diamond.
			// Drop the redundant pending entry without re-merging the
			// package's own requires — re-merging unconditionally is what
			// would spin a genuine graph cycle into ever-regenerating
			// pending requirements.
			succ := cur.cloneInto(pool.get())
			succ.pending = removeAt(succ.pending, idx)
			return []*SearchState{succ}, false
		}
	}

	all := source.Candidates(req.Name)
	matching := make([]Candidate, 0, len(all))
	for _, c := range all {
		if req.Range.Contains(c.Package.Version) {
			matching = append(matching, c)
		}
	}
	sortCandidates(matching, opts.ConflictStrategy)

	if len(matching) == 0 {
		if req.Weak || req.Conflict {
			succ := cur.cloneInto(pool.get())
			succ.pending = removeAt(succ.pending, idx)
			return []*SearchState{succ}, false
		}
		cur.conflicts = append(cur.conflicts, ConflictRecord{Kind: ConflictMissing, Name: req.Name, Detail: "no candidate satisfies " + req.String()})
		report.recordConflict(ConflictRecord{Kind: ConflictMissing, Name: req.Name})
		return nil, true
	}

	successors := make([]*SearchState, 0, len(matching))
	for rank, c := range matching {
		succ := cur.cloneInto(pool.get())
		succ.pending = removeAt(succ.pending, idx)
		succ.gCost += gCostDelta(rank)

		succ.assignments[req.Name] = Assignment{Version: c.Package.Version, Variant: c.Variant}
		known.put(req.Name+"@"+c.Package.Version.String(), c.Package)

		for _, childReq := range c.Package.VariantRequires(c.Variant) {
			if childReq.Conflict {
				if a, ok := succ.assignments[childReq.Name]; ok && childReq.Range.Contains(a.Version) {
					succ.conflicts = append(succ.conflicts, ConflictRecord{Kind: ConflictVersion, Name: childReq.Name, Detail: "forbidden by conflict requirement"})
				}
				continue
			}
			succ.pending = append(succ.pending, childReq)
		}
		successors = append(successors, succ)
	}
	return successors, false
}

// pickNextRequirement implements fail-first: the pending requirement with
// the smallest (range ∩ repository) candidate count, ties broken by name.
func pickNextRequirement(s *SearchState, source CandidateSource) (int, version.Requirement) {
	if len(s.pending) == 0 {
		return -1, version.Requirement{}
	}
	bestIdx := -1
	bestCount := -1
	for i, r := range s.pending {
		count := 0
		for _, c := range source.Candidates(r.Name) {
			if r.Range.Contains(c.Package.Version) {
				count++
			}
		}
		if bestIdx < 0 || count < bestCount || (count == bestCount && r.Name < s.pending[bestIdx].Name) {
			bestIdx, bestCount = i, count
		}
	}
	return bestIdx, s.pending[bestIdx]
}

func sortCandidates(cs []Candidate, strategy ConflictStrategy) {
	newestFirst := strategy != EarliestWins
	sort.Slice(cs, func(i, j int) bool {
		if newestFirst {
			return version.Less(cs[j].Package.Version, cs[i].Package.Version)
		}
		return version.Less(cs[i].Package.Version, cs[j].Package.Version)
	})
}

func removeAt(reqs []version.Requirement, idx int) []version.Requirement {
	out := append([]version.Requirement(nil), reqs[:idx]...)
	out = append(out, reqs[idx+1:]...)
	return out
}

// cycleExists reports whether start is reachable from its own requires
// graph, walking only names already assigned in assignments (an
// unassigned name has no known further edges to follow yet, and can't
// be part of a closed cycle until it is). This is §4.5(b)'s actual
// "cycle" condition: a structural back-edge in the requires graph, not
// the mere fact that a name has been seen before — a diamond's shared
// leaf dependency has no such back-edge since it requires nothing
// itself, so it is never reachable from its own (empty) requires.
func cycleExists(known knownSink, assignments map[string]Assignment, start string) bool {
	startPkg, ok := known.get(start + "@" + assignments[start].Version.String())
	if !ok {
		return false
	}

	var stack []string
	for _, r := range startPkg.VariantRequires(assignments[start].Variant) {
		if !r.Conflict {
			stack = append(stack, r.Name)
		}
	}

	visited := make(map[string]bool)
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if n == start {
			return true
		}
		if visited[n] {
			continue
		}
		visited[n] = true

		a, ok := assignments[n]
		if !ok {
			continue
		}
		p, ok := known.get(n + "@" + a.Version.String())
		if !ok {
			continue
		}
		for _, r := range p.VariantRequires(a.Variant) {
			if !r.Conflict {
				stack = append(stack, r.Name)
			}
		}
	}
	return false
}
