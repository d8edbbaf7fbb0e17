package pkgmodel

import (
	"fmt"
	"regexp"

	"github.com/loonghao/rez-next/version"
)

// Severity tags a Diagnostic as blocking (error) or informational
// (warning). A package is "usable" iff no diagnostic is an error (§4.2).
type Severity uint8

const (
	SeverityWarning Severity = iota
	SeverityError
)

func (s Severity) String() string {
	if s == SeverityError {
		return "error"
	}
	return "warning"
}

// Diagnostic is one validation finding.
type Diagnostic struct {
	Severity Severity
	Message  string
}

var namePattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Validate checks p against §4.2's rules: every requirement parses (a
// version.Requirement can only exist by having already parsed cleanly, so
// this is an invariant rather than something re-checked here), variants
// reference no duplicate names, the name/version pair matches the owning
// directory path, and requires/build_requires/private_build_requires are
// checked as three distinct lists (§12.2) rather than one pooled set.
//
// dirName and dirVersion are the directory-derived name and version
// string p is expected to match; pass "" for either to skip that check
// (used by callers validating a Package that didn't come from a
// repository layout).
func Validate(p Package, dirName, dirVersion string) []Diagnostic {
	var diags []Diagnostic

	if !namePattern.MatchString(p.Name) {
		diags = append(diags, Diagnostic{SeverityError,
			fmt.Sprintf("package name %q does not match [A-Za-z_][A-Za-z0-9_]*", p.Name)})
	}
	if p.Version.IsZero() {
		diags = append(diags, Diagnostic{SeverityError, "package version is empty"})
	}

	if dirName != "" && p.Name != dirName {
		diags = append(diags, Diagnostic{SeverityError,
			fmt.Sprintf("package name %q disagrees with directory name %q", p.Name, dirName)})
	}
	if dirVersion != "" && !p.Version.IsZero() && p.Version.String() != dirVersion {
		diags = append(diags, Diagnostic{SeverityError,
			fmt.Sprintf("package version %q disagrees with directory version %q", p.Version, dirVersion)})
	}

	for vi, variant := range p.Variants {
		names := make(map[string]bool, len(variant))
		for _, r := range variant {
			if names[r.Name] {
				diags = append(diags, Diagnostic{SeverityError,
					fmt.Sprintf("variant %d references %q more than once", vi, r.Name)})
			}
			names[r.Name] = true
		}
	}

	diags = append(diags, checkRequirementList("requires", p.Requires)...)
	diags = append(diags, checkRequirementList("build_requires", p.BuildRequires)...)
	diags = append(diags, checkRequirementList("private_build_requires", p.PrivateBuildRequires)...)
	diags = append(diags, crossListRedundancy(p)...)

	for _, cmd := range p.Commands {
		if !validOp(cmd.Op) {
			diags = append(diags, Diagnostic{SeverityError,
				fmt.Sprintf("unrecognized command operation %q", cmd.Op)})
		}
	}

	if p.UUID.String() == "00000000-0000-0000-0000-000000000000" {
		diags = append(diags, Diagnostic{SeverityWarning, "package has no uuid"})
	}

	return diags
}

// Usable reports whether diags contains no error-severity entry.
func Usable(diags []Diagnostic) bool {
	for _, d := range diags {
		if d.Severity == SeverityError {
			return false
		}
	}
	return true
}

// checkRequirementList flags a name appearing more than once within a
// single requirement list. list names the field the diagnostic reports
// against ("requires", "build_requires", "private_build_requires"), so a
// duplicate is attributed to the list it came from rather than lumped
// together as a generic requirement error.
func checkRequirementList(list string, reqs []version.Requirement) []Diagnostic {
	var diags []Diagnostic
	seen := make(map[string]bool, len(reqs))
	for _, r := range reqs {
		if seen[r.Name] {
			diags = append(diags, Diagnostic{SeverityError,
				fmt.Sprintf("%s references %q more than once", list, r.Name)})
		}
		seen[r.Name] = true
	}
	return diags
}

// crossListRedundancy flags a name declared in private_build_requires that
// is also declared in requires or build_requires. private_build_requires
// exists to add build-only dependencies that must NOT be exported in the
// installed package's requires (§12.2); a name present in both makes the
// private declaration redundant rather than adding a build-only edge, so
// it's reported distinctly from an ordinary duplicate-within-a-list error.
func crossListRedundancy(p Package) []Diagnostic {
	var diags []Diagnostic
	requires := make(map[string]bool, len(p.Requires))
	for _, r := range p.Requires {
		requires[r.Name] = true
	}
	buildRequires := make(map[string]bool, len(p.BuildRequires))
	for _, r := range p.BuildRequires {
		buildRequires[r.Name] = true
	}
	for _, r := range p.PrivateBuildRequires {
		switch {
		case requires[r.Name]:
			diags = append(diags, Diagnostic{SeverityWarning,
				fmt.Sprintf("%q is listed in both requires and private_build_requires", r.Name)})
		case buildRequires[r.Name]:
			diags = append(diags, Diagnostic{SeverityWarning,
				fmt.Sprintf("%q is listed in both build_requires and private_build_requires", r.Name)})
		}
	}
	return diags
}

func validOp(op CommandOp) bool {
	switch op {
	case OpSetenv, OpUnsetenv, OpPrependenv, OpAppendenv, OpAlias, OpInfo, OpSource:
		return true
	default:
		return false
	}
}
