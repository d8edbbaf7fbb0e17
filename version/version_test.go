package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoundTrip(t *testing.T) {
	cases := []string{
		"1.2.3", "2020.1.sp2", "a-b-c", "1_0", "1.2.0", "0", "python",
		"3.9.0-beta+1", "a.b.c_d",
	}
	for _, s := range cases {
		v, err := Parse(s)
		require.NoError(t, err, s)
		assert.Equal(t, s, v.String())
	}
}

func TestParseErrors(t *testing.T) {
	cases := []string{
		"", ".", "1.", ".1", "1..2", "1-", "-1", "1__2", "_1", "1_", "1.-2",
	}
	for _, s := range cases {
		_, err := Parse(s)
		assert.Error(t, err, s)
	}
}

func TestCompareNumericVsAlpha(t *testing.T) {
	// numeric orders before alphanumeric
	assert.True(t, Less(MustParse("1.2"), MustParse("1.a")))
	assert.True(t, Less(MustParse("1.9"), MustParse("1.10")))
	assert.False(t, Less(MustParse("1.10"), MustParse("1.9")))
}

func TestComparePrefixShorterIsLess(t *testing.T) {
	assert.True(t, Less(MustParse("1.2"), MustParse("1.2.0")))
	assert.False(t, Less(MustParse("1.2.0"), MustParse("1.2")))
}

func TestCompareAlphaLexicographic(t *testing.T) {
	assert.True(t, Less(MustParse("1.alpha"), MustParse("1.beta")))
	assert.True(t, Less(MustParse("1.Z"), MustParse("1.a"))) // ASCII case-sensitive
}

func TestCompareTotalOrder(t *testing.T) {
	vs := []string{"1.0.0", "1.0.1", "1.1.0", "1.10.0", "1.9.0", "2.0.0", "1.0.0a"}
	for _, a := range vs {
		for _, b := range vs {
			for _, c := range vs {
				va, vb, vc := MustParse(a), MustParse(b), MustParse(c)
				// antisymmetry
				if Compare(va, vb) < 0 {
					assert.True(t, Compare(vb, va) > 0)
				}
				// transitivity
				if Compare(va, vb) <= 0 && Compare(vb, vc) <= 0 {
					assert.LessOrEqual(t, Compare(va, vc), 0)
				}
			}
		}
	}
}
