package pkgmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/loonghao/rez-next/version"
)

func mustParseReq(t *testing.T, s string) version.Requirement {
	t.Helper()
	r, err := version.ParseRequirement(s)
	require.NoError(t, err)
	return r
}

func TestValidateDuplicateWithinPrivateBuildRequiresIsError(t *testing.T) {
	p := Package{
		Name:                 "mytool",
		PrivateBuildRequires: []version.Requirement{mustParseReq(t, "cmake"), mustParseReq(t, "cmake-3")},
	}
	p.Version = mustParseVersion(t, "1.0.0")

	diags := Validate(p, "", "")
	var found bool
	for _, d := range diags {
		if d.Severity == SeverityError && d.Message == `private_build_requires references "cmake" more than once` {
			found = true
		}
	}
	assert.True(t, found, "expected a duplicate-within-private_build_requires error, got %+v", diags)
}

func TestValidateRequiresAndPrivateBuildRequiresOverlapIsWarning(t *testing.T) {
	p := Package{
		Name:                 "mytool",
		Requires:             []version.Requirement{mustParseReq(t, "python")},
		PrivateBuildRequires: []version.Requirement{mustParseReq(t, "python")},
	}
	p.Version = mustParseVersion(t, "1.0.0")

	diags := Validate(p, "", "")
	var found bool
	for _, d := range diags {
		if d.Severity == SeverityWarning && d.Message == `"python" is listed in both requires and private_build_requires` {
			found = true
		}
	}
	assert.True(t, found, "expected a requires/private_build_requires overlap warning, got %+v", diags)
	assert.True(t, Usable(diags), "an overlap warning alone must not make the package unusable")
}

func TestValidateBuildRequiresAndPrivateBuildRequiresOverlapIsWarning(t *testing.T) {
	p := Package{
		Name:                 "mytool",
		BuildRequires:        []version.Requirement{mustParseReq(t, "cmake")},
		PrivateBuildRequires: []version.Requirement{mustParseReq(t, "cmake")},
	}
	p.Version = mustParseVersion(t, "1.0.0")

	diags := Validate(p, "", "")
	var found bool
	for _, d := range diags {
		if d.Severity == SeverityWarning && d.Message == `"cmake" is listed in both build_requires and private_build_requires` {
			found = true
		}
	}
	assert.True(t, found, "expected a build_requires/private_build_requires overlap warning, got %+v", diags)
}

func mustParseVersion(t *testing.T, s string) version.Version {
	t.Helper()
	v, err := version.Parse(s)
	require.NoError(t, err)
	return v
}
