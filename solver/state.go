package solver

import (
	"sort"
	"strconv"
	"strings"

	"github.com/loonghao/rez-next/version"
)

// Assignment is one resolved name in a SearchState.
type Assignment struct {
	Version version.Version
	Variant int
}

// ConflictRecord documents one pruning or merge-time conflict observed
// during search, surfaced in the solve Report and, for Unsolvable, as the
// top-k summary.
type ConflictRecord struct {
	Kind    ConflictKind
	Name    string
	Detail  string
}

type ConflictKind uint8

const (
	ConflictVersion ConflictKind = iota
	ConflictPlatform
	ConflictMissing
	ConflictCycle
)

func (k ConflictKind) cost() float64 {
	switch k {
	case ConflictVersion:
		return 50
	case ConflictPlatform:
		return 100
	case ConflictMissing:
		return 500
	case ConflictCycle:
		return 1000
	default:
		return 0
	}
}

// SearchState is one node in the A* search (§3, §4.5): a partial
// assignment, the still-unsatisfied requirement multiset, the conflicts
// observed reaching this state, and the accumulated decision cost.
type SearchState struct {
	assignments map[string]Assignment
	pending     []version.Requirement
	conflicts   []ConflictRecord
	gCost       float64
}

func newState() *SearchState {
	return &SearchState{assignments: make(map[string]Assignment)}
}

// clone makes a deep-enough copy for branching: a successor must not
// mutate the parent's maps/slices.
func (s *SearchState) clone() *SearchState {
	return s.cloneInto(newState())
}

// cloneInto copies s's contents into dst, which is normally freshly
// reset out of a statePool rather than allocated — this is what lets
// expand generate a branch's successors without a heap allocation per
// branch on the hot path (§4.5's "allocations go through a per-worker
// pool").
func (s *SearchState) cloneInto(dst *SearchState) *SearchState {
	for k, v := range s.assignments {
		dst.assignments[k] = v
	}
	dst.pending = append(dst.pending, s.pending...)
	dst.conflicts = append(dst.conflicts, s.conflicts...)
	dst.gCost = s.gCost
	return dst
}

// reset clears a pooled SearchState for reuse (§4.5: "contents cleared,
// capacity retained").
func (s *SearchState) reset() {
	for k := range s.assignments {
		delete(s.assignments, k)
	}
	s.pending = s.pending[:0]
	s.conflicts = s.conflicts[:0]
	s.gCost = 0
}

func (s *SearchState) isGoal() bool {
	return len(s.pending) == 0 && len(s.conflicts) == 0
}

// hash derives a stable identity for the closed set (§4.5: "sorted
// assignment tuple plus sorted pending tuple").
func (s *SearchState) hash() string {
	names := make([]string, 0, len(s.assignments))
	for n := range s.assignments {
		names = append(names, n)
	}
	sort.Strings(names)

	var b strings.Builder
	for _, n := range names {
		a := s.assignments[n]
		b.WriteString(n)
		b.WriteByte('=')
		b.WriteString(a.Version.String())
		b.WriteByte('/')
		b.WriteString(strconv.Itoa(a.Variant))
		b.WriteByte(';')
	}
	b.WriteByte('|')

	pendingSorted := append([]version.Requirement(nil), s.pending...)
	sort.Slice(pendingSorted, func(i, j int) bool {
		if pendingSorted[i].Name != pendingSorted[j].Name {
			return pendingSorted[i].Name < pendingSorted[j].Name
		}
		return pendingSorted[i].String() < pendingSorted[j].String()
	})
	for _, r := range pendingSorted {
		b.WriteString(r.String())
		b.WriteByte(';')
	}
	return b.String()
}
