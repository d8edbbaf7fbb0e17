package solver

import (
	"regexp"
)

var (
	coreNamePattern   = regexp.MustCompile(`(?i)core|base`)
	pluginNamePattern = regexp.MustCompile(`(?i)plugin|extension`)
	appNamePattern    = regexp.MustCompile(`(?i)app|tool`)
)

func depthFor(name string) int {
	switch {
	case coreNamePattern.MatchString(name):
		return 1
	case pluginNamePattern.MatchString(name):
		return 3
	case appNamePattern.MatchString(name):
		return 5
	default:
		return 2
	}
}

// gCostDelta is the decision cost one assignment adds to g: 1 plus a rank
// penalty of 1 - 1/(rank+1), where rank is the candidate's position among
// same-name candidates in ConflictStrategy order. The penalty is 0 for rank
// 0 and grows with rank, favoring newest under LatestWins.
func gCostDelta(rank int) float64 {
	return 1.0 + 1.0 - 1.0/float64(rank+1)
}

// hCost computes the full heuristic h(s) = h_remain + h_depth + h_conflict
// (§4.5). depthNames is the list of requirement names still pending,
// passed separately from SearchState.pending to avoid this file depending
// on version.Requirement directly.
func hCost(w Weights, numPending int, depthNames []string, conflicts []ConflictRecord) float64 {
	hRemain := w.Remain * float64(numPending)

	depth := 0
	for _, n := range depthNames {
		depth += depthFor(n)
	}
	hDepth := w.Depth * float64(depth)

	var conflictSum float64
	for _, c := range conflicts {
		conflictSum += c.Kind.cost()
	}
	hConflict := w.Conflict * conflictSum

	return hRemain + hDepth + hConflict
}
