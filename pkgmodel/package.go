// Package pkgmodel implements the Package Model (C2): the in-memory
// representation of a package definition (§3, §6.1) plus its validator.
//
// The raw-decode-then-convert shape (rawPackage -> Package, toProps-style
// per-field conversion) is grounded on the teacher's manifest.go /
// types/manifest.go, which decode a raw JSON tree and convert each field
// into a typed gps.ProjectProperties one at a time, surfacing a wrapped
// error per field rather than trusting the decoder's zero values.
package pkgmodel

import (
	"github.com/google/uuid"

	"github.com/loonghao/rez-next/version"
)

// Package is a package definition (§3): name, version, requirement lists,
// variants, tools, commands, and metadata.
type Package struct {
	Name    string
	Version version.Version

	Requires             []version.Requirement
	BuildRequires        []version.Requirement
	PrivateBuildRequires []version.Requirement

	// Variants holds each build configuration's additional requirements,
	// layered on top of Requires.
	Variants [][]version.Requirement

	Tools    []string
	Commands []Command

	Description string
	Authors     []string
	UUID        uuid.UUID
	Timestamp   int64
	ContentHash string
}

// VariantRequires returns the effective requirement list for variant index
// idx: the package's base Requires plus that variant's additional
// requirements. idx == -1 (or an out-of-range index when there are no
// variants) returns just the base Requires.
func (p Package) VariantRequires(idx int) []version.Requirement {
	if idx < 0 || idx >= len(p.Variants) {
		return p.Requires
	}
	out := make([]version.Requirement, 0, len(p.Requires)+len(p.Variants[idx]))
	out = append(out, p.Requires...)
	out = append(out, p.Variants[idx]...)
	return out
}

// NumVariants reports how many variants p declares. A package with no
// variants effectively has exactly one implicit configuration.
func (p Package) NumVariants() int {
	if len(p.Variants) == 0 {
		return 1
	}
	return len(p.Variants)
}

// RequiresList returns the package's base requirement list. Named to match
// §4.2's C2 surface (requires()); Package.Requires is the field it reads.
func (p Package) RequiresList() []version.Requirement { return p.Requires }

// VariantsList returns the package's declared variants (§4.2: variants()).
func (p Package) VariantsList() [][]version.Requirement { return p.Variants }

// CommandsList returns the package's environment operations (§4.2: commands()).
func (p Package) CommandsList() []Command { return p.Commands }

// ToolsList returns the package's declared tools (§4.2: tools()).
func (p Package) ToolsList() []string { return p.Tools }

// Key identifies a package uniquely within a repository table: (name,
// version, variant-index) per §3's ResolvedSet invariant.
type Key struct {
	Name    string
	Version string
	Variant int
}

func (p Package) KeyFor(variant int) Key {
	return Key{Name: p.Name, Version: p.Version.String(), Variant: variant}
}
