package solver

import "github.com/loonghao/rez-next/pkgmodel"

// Candidate is one (package, variant-index) pair a requirement on Name
// could be satisfied by. Variant is -1 when the package declares no
// variants.
type Candidate struct {
	Package pkgmodel.Package
	Variant int
}

// CandidateSource answers "what packages named x exist" without the
// solver needing to know anything about how they were discovered — the
// pipeline package adapts a repository scan's entries into one of these,
// keeping the solver independently testable against synthetic fixtures.
type CandidateSource interface {
	// Candidates returns every known version (and, per-version, every
	// variant) of the package named name, in no particular order; the
	// solver does its own newest/oldest-first sorting per ConflictStrategy.
	Candidates(name string) []Candidate
}

// MapSource is the simplest CandidateSource: an in-memory index, useful
// for tests and for the pipeline's default wiring over a completed scan.
type MapSource map[string][]Candidate

func (m MapSource) Candidates(name string) []Candidate { return m[name] }
