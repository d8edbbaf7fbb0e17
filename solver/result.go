package solver

import (
	"sort"

	"github.com/loonghao/rez-next/pkgmodel"
)

// ResolvedEntry is one (Package, variant-index) member of a ResolvedSet.
type ResolvedEntry struct {
	Package pkgmodel.Package
	Variant int
}

// ResolvedSet is the solver's successful output (§3): no two entries share
// a name, every non-weak requirement is satisfied by some other entry, and
// no entry's range intersects any other entry's conflict requirement. The
// order is a topological sort of the dependency DAG with ties broken by
// name.
type ResolvedSet struct {
	Entries []ResolvedEntry
}

// buildResolvedSet converts a goal SearchState's assignments into a
// ResolvedSet, topologically ordered by each package's own Requires list
// (a package's dependencies must appear before it), ties broken by name.
func buildResolvedSet(s *SearchState, candidates map[string]pkgmodel.Package) ResolvedSet {
	names := make([]string, 0, len(s.assignments))
	for n := range s.assignments {
		names = append(names, n)
	}
	sort.Strings(names)

	deps := make(map[string][]string, len(names))
	for _, n := range names {
		pkg := candidates[n]
		a := s.assignments[n]
		for _, r := range pkg.VariantRequires(a.Variant) {
			if _, ok := s.assignments[r.Name]; ok {
				deps[n] = append(deps[n], r.Name)
			}
		}
	}

	var order []string
	visited := make(map[string]int) // 0 unvisited, 1 in-progress, 2 done
	var visit func(n string)
	visit = func(n string) {
		if visited[n] == 2 {
			return
		}
		visited[n] = 1
		depNames := append([]string(nil), deps[n]...)
		sort.Strings(depNames)
		for _, d := range depNames {
			if visited[d] != 2 {
				visit(d)
			}
		}
		visited[n] = 2
		order = append(order, n)
	}
	for _, n := range names {
		visit(n)
	}

	rs := ResolvedSet{Entries: make([]ResolvedEntry, 0, len(order))}
	for _, n := range order {
		a := s.assignments[n]
		rs.Entries = append(rs.Entries, ResolvedEntry{Package: candidates[n], Variant: a.Variant})
	}
	return rs
}
