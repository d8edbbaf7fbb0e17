package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRequirementBareName(t *testing.T) {
	r, err := ParseRequirement("python")
	require.NoError(t, err)
	assert.Equal(t, "python", r.Name)
	assert.True(t, r.Range.IsUniversal())
	assert.False(t, r.Weak)
	assert.False(t, r.Conflict)
}

func TestParseRequirementDashPrefix(t *testing.T) {
	r, err := ParseRequirement("python-3.9")
	require.NoError(t, err)
	assert.Equal(t, "python", r.Name)
	assert.True(t, r.Range.Contains(MustParse("3.9")))
	assert.True(t, r.Range.Contains(MustParse("3.9.1")))
	assert.False(t, r.Range.Contains(MustParse("3.10")))
}

func TestParseRequirementOperators(t *testing.T) {
	r, err := ParseRequirement("maya>=2020,<2025")
	require.NoError(t, err)
	assert.Equal(t, "maya", r.Name)
	assert.True(t, r.Range.Contains(MustParse("2022")))
	assert.False(t, r.Range.Contains(MustParse("2025")))
}

func TestParseRequirementConflict(t *testing.T) {
	r, err := ParseRequirement("!legacy")
	require.NoError(t, err)
	assert.Equal(t, "legacy", r.Name)
	assert.True(t, r.Conflict)
}

func TestParseRequirementWeak(t *testing.T) {
	r, err := ParseRequirement("~optional")
	require.NoError(t, err)
	assert.Equal(t, "optional", r.Name)
	assert.True(t, r.Weak)
}

func TestParseRequirementInvalidName(t *testing.T) {
	_, err := ParseRequirement("9python")
	assert.Error(t, err)
}
