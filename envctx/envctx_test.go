package envctx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loonghao/rez-next/cache"
	"github.com/loonghao/rez-next/pkgmodel"
	"github.com/loonghao/rez-next/solver"
	"github.com/loonghao/rez-next/version"
)

func testResolvedSet(t *testing.T) solver.ResolvedSet {
	t.Helper()
	v, err := version.Parse("1.0.0")
	require.NoError(t, err)
	pkg := pkgmodel.Package{
		Name:    "mytool",
		Version: v,
		Commands: []pkgmodel.Command{
			{Op: pkgmodel.OpSetenv, Name: "ROOT", Value: "/opt/mytool"},
			{Op: pkgmodel.OpPrependenv, Name: "PATH", Value: "${ROOT}/bin", Separator: ":"},
			{Op: pkgmodel.OpInfo, Message: "loaded mytool"},
		},
	}
	return solver.ResolvedSet{Entries: []solver.ResolvedEntry{{Package: pkg, Variant: -1}}}
}

func TestBuildExpandsVariableReferences(t *testing.T) {
	ctx := Build(testResolvedSet(t))
	require.Len(t, ctx.Ops, 3)
	assert.Equal(t, "/opt/mytool", ctx.Ops[0].Value)
	assert.Equal(t, "/opt/mytool/bin", ctx.Ops[1].Value)
}

func TestFingerprintEqualityImpliesByteIdenticalContext(t *testing.T) {
	rs := testResolvedSet(t)
	c1 := Build(rs)
	c2 := Build(rs)
	assert.Equal(t, c1.Fingerprint, c2.Fingerprint)
	assert.Equal(t, Render(c1.Ops, Bash), Render(c2.Ops, Bash))
}

func TestRenderIsPureAndDialectSpecific(t *testing.T) {
	ctx := Build(testResolvedSet(t))
	bash1 := Render(ctx.Ops, Bash)
	bash2 := Render(ctx.Ops, Bash)
	assert.Equal(t, bash1, bash2)

	cmdScript := Render(ctx.Ops, Cmd)
	assert.Contains(t, cmdScript, "set ROOT=")
	assert.Contains(t, bash1, "export ROOT=")
	assert.NotEqual(t, bash1, cmdScript)
}

func TestBinaryRoundTrip(t *testing.T) {
	ctx := Build(testResolvedSet(t))
	data, err := ctx.MarshalBinary()
	require.NoError(t, err)

	var out Context
	require.NoError(t, out.UnmarshalBinary(data))
	assert.Equal(t, ctx.Fingerprint, out.Fingerprint)
	require.Len(t, out.Ops, len(ctx.Ops))
	for i := range ctx.Ops {
		assert.Equal(t, ctx.Ops[i], out.Ops[i])
	}
}

func TestBuildCachedHitsOnSecondCall(t *testing.T) {
	c := cache.New(cache.Config{})
	rs := testResolvedSet(t)
	ctx1 := BuildCached(c, rs)
	statsBefore := c.Stats()
	ctx2 := BuildCached(c, rs)
	statsAfter := c.Stats()

	assert.Equal(t, ctx1.Fingerprint, ctx2.Fingerprint)
	assert.Greater(t, statsAfter.HotHits, statsBefore.HotHits)
}
