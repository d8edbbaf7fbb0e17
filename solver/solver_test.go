package solver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loonghao/rez-next/pkgmodel"
	"github.com/loonghao/rez-next/version"
)

func mustReq(t *testing.T, s string) version.Requirement {
	t.Helper()
	r, err := version.ParseRequirement(s)
	require.NoError(t, err)
	return r
}

func pkg(t *testing.T, name, ver string, requires ...string) pkgmodel.Package {
	t.Helper()
	v, err := version.Parse(ver)
	require.NoError(t, err)
	p := pkgmodel.Package{Name: name, Version: v}
	for _, r := range requires {
		p.Requires = append(p.Requires, mustReq(t, r))
	}
	return p
}

func TestSolveSimpleChain(t *testing.T) {
	source := MapSource{
		"app":    {{Package: pkg(t, "app", "1.0.0", "lib-1")}},
		"lib":    {{Package: pkg(t, "lib", "1.0.0")}, {Package: pkg(t, "lib", "2.0.0")}},
	}
	res, report, err := Solve(context.Background(), []version.Requirement{mustReq(t, "app")}, source, Options{})
	require.NoError(t, err)
	require.Len(t, res.Sets, 1)
	rs := res.Sets[0]
	require.Len(t, rs.Entries, 2)
	assert.Equal(t, StatusSolved, report.Status)

	// lib must precede app in topological order.
	libIdx, appIdx := -1, -1
	for i, e := range rs.Entries {
		if e.Package.Name == "lib" {
			libIdx = i
		}
		if e.Package.Name == "app" {
			appIdx = i
		}
	}
	require.NotEqual(t, -1, libIdx)
	require.NotEqual(t, -1, appIdx)
	assert.Less(t, libIdx, appIdx)
	assert.Equal(t, "1.0.0", rs.Entries[libIdx].Package.Version.String())
}

func TestSolveUnsolvableMissingPackage(t *testing.T) {
	source := MapSource{}
	_, report, err := Solve(context.Background(), []version.Requirement{mustReq(t, "ghost")}, source, Options{})
	require.Error(t, err)
	assert.Equal(t, StatusUnsolvable, report.Status)
	require.NotEmpty(t, report.TopConflicts)
}

// TestSolveCycleWithIncompatibleVersionIsUnsolvable covers §4.5(b): a is
// pinned to 1.0.0, requires b, and b in turn requires a-2.0.0 — a genuine
// cycle back to a with a range disjoint from the version already
// assigned, which must be reported as a conflict rather than silently
// accepted.
func TestSolveCycleWithIncompatibleVersionIsUnsolvable(t *testing.T) {
	source := MapSource{
		"a": {{Package: pkg(t, "a", "1.0.0", "b")}},
		"b": {{Package: pkg(t, "b", "1.0.0", "a-2.0.0")}},
	}
	_, report, err := Solve(context.Background(), []version.Requirement{mustReq(t, "a-1.0.0")}, source, Options{})
	require.Error(t, err)
	assert.Equal(t, StatusUnsolvable, report.Status)
}

// TestSolveBareMutualRequireIsUnsolvable is the §8 scenario 4 (Cycle)
// regression: a requires b, b requires a, with neither side pinning a
// version. Both requirements are individually satisfiable (they're bare
// names), so version-compatibility alone would wrongly accept this as a
// diamond; the structural back-edge (a is reachable from its own
// requires graph once b is assigned) is what must still flag it as a
// cycle conflict.
func TestSolveBareMutualRequireIsUnsolvable(t *testing.T) {
	source := MapSource{
		"a": {{Package: pkg(t, "a", "1.0.0", "b")}},
		"b": {{Package: pkg(t, "b", "1.0.0", "a")}},
	}
	_, report, err := Solve(context.Background(), []version.Requirement{mustReq(t, "a")}, source, Options{})
	require.Error(t, err)
	assert.Equal(t, StatusUnsolvable, report.Status)
	require.LessOrEqual(t, report.Iterations, 4)
}

// TestSolveDiamondResolvesSharedDependency is the §8 scenario 2 (Diamond)
// regression: app requires libA and libB, and both require a compatible
// python range. Revisiting "python" from the second sibling must not be
// mistaken for a cycle — it should collapse onto the single assignment
// already made for the first.
func TestSolveDiamondResolvesSharedDependency(t *testing.T) {
	source := MapSource{
		"app":    {{Package: pkg(t, "app", "1.0.0", "libA", "libB")}},
		"libA":   {{Package: pkg(t, "libA", "1.0.0", "python>=3.9")}},
		"libB":   {{Package: pkg(t, "libB", "1.0.0", "python>=3.9")}},
		"python": {{Package: pkg(t, "python", "3.9.0")}, {Package: pkg(t, "python", "3.11.0")}},
	}
	res, report, err := Solve(context.Background(), []version.Requirement{mustReq(t, "app")}, source, Options{})
	require.NoError(t, err)
	assert.Equal(t, StatusSolved, report.Status)
	require.Len(t, res.Sets, 1)

	rs := res.Sets[0]
	names := make(map[string]int)
	for _, e := range rs.Entries {
		names[e.Package.Name]++
	}
	assert.Equal(t, 1, names["python"], "python must appear exactly once despite two independent requirers")
	assert.Equal(t, 1, names["app"])
	assert.Equal(t, 1, names["libA"])
	assert.Equal(t, 1, names["libB"])
}

func TestSolveDeterministicSingleWorker(t *testing.T) {
	source := MapSource{
		"app": {{Package: pkg(t, "app", "1.0.0", "lib")}},
		"lib": {{Package: pkg(t, "lib", "1.0.0")}, {Package: pkg(t, "lib", "2.0.0")}},
	}
	reqs := []version.Requirement{mustReq(t, "app")}
	res1, _, err := Solve(context.Background(), reqs, source, Options{ParallelWorkers: 1})
	require.NoError(t, err)
	res2, _, err := Solve(context.Background(), reqs, source, Options{ParallelWorkers: 1})
	require.NoError(t, err)
	require.Equal(t, len(res1.Sets[0].Entries), len(res2.Sets[0].Entries))
	for i := range res1.Sets[0].Entries {
		assert.Equal(t, res1.Sets[0].Entries[i].Package.Name, res2.Sets[0].Entries[i].Package.Name)
		assert.Equal(t, res1.Sets[0].Entries[i].Package.Version.String(), res2.Sets[0].Entries[i].Package.Version.String())
	}
}

func TestSolvePicksNewestUnderLatestWins(t *testing.T) {
	source := MapSource{
		"lib": {{Package: pkg(t, "lib", "1.0.0")}, {Package: pkg(t, "lib", "2.0.0")}, {Package: pkg(t, "lib", "1.5.0")}},
	}
	res, _, err := Solve(context.Background(), []version.Requirement{mustReq(t, "lib")}, source, Options{ConflictStrategy: LatestWins})
	require.NoError(t, err)
	require.Len(t, res.Sets[0].Entries, 1)
	assert.Equal(t, "2.0.0", res.Sets[0].Entries[0].Package.Version.String())
}

func TestSolveParallelFindsSolution(t *testing.T) {
	source := MapSource{
		"app": {{Package: pkg(t, "app", "1.0.0", "lib")}},
		"lib": {{Package: pkg(t, "lib", "1.0.0")}},
	}
	res, report, err := Solve(context.Background(), []version.Requirement{mustReq(t, "app")}, source, Options{ParallelWorkers: 4})
	require.NoError(t, err)
	require.Len(t, res.Sets, 1)
	assert.Equal(t, StatusSolved, report.Status)
}
