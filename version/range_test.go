package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustRange(t *testing.T, s string) Range {
	t.Helper()
	r, err := ParseRange(s)
	require.NoError(t, err, s)
	return r
}

func TestRangeContains(t *testing.T) {
	r := mustRange(t, ">=2020,<2025")
	assert.True(t, r.Contains(MustParse("2020")))
	assert.True(t, r.Contains(MustParse("2024.5")))
	assert.False(t, r.Contains(MustParse("2025")))
	assert.False(t, r.Contains(MustParse("2019")))
}

func TestRangeContainsEquivalentToIntersectExact(t *testing.T) {
	r := mustRange(t, ">=1.0,<2.0")
	for _, s := range []string{"0.9", "1.0", "1.5", "2.0", "2.1"} {
		v := MustParse(s)
		want := r.Contains(v)
		got := !Intersect(r, Exact(v)).IsEmpty()
		assert.Equal(t, want, got, s)
	}
}

func TestIntersectCommutativeAssociative(t *testing.T) {
	a := mustRange(t, ">=1.0,<3.0")
	b := mustRange(t, ">=2.0,<4.0")
	c := mustRange(t, ">=0.5,<2.5")

	ab := Intersect(a, b)
	ba := Intersect(b, a)
	assert.Equal(t, ab.String(), ba.String())

	abc1 := Intersect(Intersect(a, b), c)
	abc2 := Intersect(a, Intersect(b, c))
	assert.Equal(t, abc1.String(), abc2.String())
}

func TestIntersectSelfIsSelf(t *testing.T) {
	r := mustRange(t, ">=1.0,<3.0")
	assert.Equal(t, r.String(), Intersect(r, r).String())
}

func TestIntersectEmptyIsEmpty(t *testing.T) {
	r := mustRange(t, ">=1.0,<3.0")
	assert.True(t, Intersect(r, Empty()).IsEmpty())
}

func TestUnionMergesAdjacent(t *testing.T) {
	a := mustRange(t, "<2.0")
	b := mustRange(t, ">=2.0")
	u := Union(a, b)
	assert.True(t, u.IsUniversal())
}

func TestNotEqualIsUnionOfTwoHalves(t *testing.T) {
	r := mustRange(t, "!=2.0")
	assert.False(t, r.Contains(MustParse("2.0")))
	assert.True(t, r.Contains(MustParse("1.9")))
	assert.True(t, r.Contains(MustParse("2.1")))
}

func TestEmptyDistinctFromUniversal(t *testing.T) {
	assert.True(t, Empty().IsEmpty())
	assert.False(t, Universal().IsEmpty())
	assert.False(t, Empty().IsUniversal())
	assert.True(t, Universal().IsUniversal())
}
