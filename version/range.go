package version

import (
	"sort"
	"strings"

	"github.com/loonghao/rez-next/internal/errs"
)

// bound is one edge of an interval. A nil Version pointer means unbounded
// (-inf for a lower bound, +inf for an upper bound).
type bound struct {
	v    *Version
	open bool
}

// interval is a closed/open span [lo, hi] over the Version total order.
type interval struct {
	lo, hi bound
}

// Range is a union of intervals over the Version total order (§3). The
// zero Range is the empty range, distinct from the universal range
// (returned by Universal()).
type Range struct {
	intervals []interval
}

// Universal returns the range admitting every version.
func Universal() Range {
	return Range{intervals: []interval{{lo: bound{}, hi: bound{}}}}
}

// Empty returns the range admitting no version. It equals the zero Range.
func Empty() Range { return Range{} }

// IsEmpty reports whether r admits no versions.
func (r Range) IsEmpty() bool { return len(r.intervals) == 0 }

// IsUniversal reports whether r admits every version.
func (r Range) IsUniversal() bool {
	return len(r.intervals) == 1 && r.intervals[0].lo.v == nil && r.intervals[0].hi.v == nil
}

type op int

const (
	opEq op = iota
	opGe
	opGt
	opLe
	opLt
	opNe
)

// ParseRange parses a comma-separated list of atoms "op ver" as one
// intersected clause (§4.1). Multiple independent clauses (union) are
// combined by calling Union on the resulting Ranges, not by a richer
// string grammar — the spec defines Range as an algebra with an explicit
// Union operation, so string parsing only needs to produce the atoms of a
// single clause.
func ParseRange(s string) (Range, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Range{}, errs.New(errs.KindParseError, "range string is empty")
	}

	r := Universal()
	for i, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			return Range{}, errs.New(errs.KindParseError, "empty atom at clause %d", i)
		}
		atomRange, err := parseAtom(part)
		if err != nil {
			return Range{}, err
		}
		r = Intersect(r, atomRange)
	}
	return r, nil
}

func parseAtom(s string) (Range, error) {
	o, rest, err := splitOp(s)
	if err != nil {
		return Range{}, err
	}
	v, err := Parse(rest)
	if err != nil {
		return Range{}, err
	}

	switch o {
	case opEq:
		return Range{intervals: []interval{{lo: bound{v: &v}, hi: bound{v: &v}}}}, nil
	case opGe:
		return Range{intervals: []interval{{lo: bound{v: &v}, hi: bound{}}}}, nil
	case opGt:
		return Range{intervals: []interval{{lo: bound{v: &v, open: true}, hi: bound{}}}}, nil
	case opLe:
		return Range{intervals: []interval{{lo: bound{}, hi: bound{v: &v}}}}, nil
	case opLt:
		return Range{intervals: []interval{{lo: bound{}, hi: bound{v: &v, open: true}}}}, nil
	case opNe:
		// Modeled as a union of two half-open intervals, per §4.1.
		return canonicalize([]interval{
			{lo: bound{}, hi: bound{v: &v, open: true}},
			{lo: bound{v: &v, open: true}, hi: bound{}},
		}), nil
	default:
		return Range{}, errs.New(errs.KindParseError, "unrecognized operator in %q", s)
	}
}

func splitOp(s string) (op, string, error) {
	switch {
	case strings.HasPrefix(s, ">="):
		return opGe, s[2:], nil
	case strings.HasPrefix(s, "<="):
		return opLe, s[2:], nil
	case strings.HasPrefix(s, "!="):
		return opNe, s[2:], nil
	case strings.HasPrefix(s, "=="):
		return opEq, s[2:], nil
	case strings.HasPrefix(s, "="):
		return opEq, s[1:], nil
	case strings.HasPrefix(s, ">"):
		return opGt, s[1:], nil
	case strings.HasPrefix(s, "<"):
		return opLt, s[1:], nil
	default:
		return opEq, s, nil
	}
}

// Contains reports whether v falls within r. It is equivalent to
// !Intersect(r, Exact(v)).IsEmpty() (§8).
func (r Range) Contains(v Version) bool {
	for _, iv := range r.intervals {
		if intervalContains(iv, v) {
			return true
		}
	}
	return false
}

func intervalContains(iv interval, v Version) bool {
	if iv.lo.v != nil {
		c := Compare(v, *iv.lo.v)
		if c < 0 || (c == 0 && iv.lo.open) {
			return false
		}
	}
	if iv.hi.v != nil {
		c := Compare(v, *iv.hi.v)
		if c > 0 || (c == 0 && iv.hi.open) {
			return false
		}
	}
	return true
}

// Exact returns the single-version range {v}.
func Exact(v Version) Range {
	return Range{intervals: []interval{{lo: bound{v: &v}, hi: bound{v: &v}}}}
}

// Intersect returns the intersection of a and b, canonicalized (§4.1:
// pairs every interval of a with every interval of b, keeps non-empty
// meets, then canonicalizes).
func Intersect(a, b Range) Range {
	var out []interval
	for _, x := range a.intervals {
		for _, y := range b.intervals {
			if iv, ok := intersectInterval(x, y); ok {
				out = append(out, iv)
			}
		}
	}
	return canonicalize(out)
}

func intersectInterval(a, b interval) (interval, bool) {
	lo := maxBound(a.lo, b.lo)
	hi := minBound(a.hi, b.hi)
	if lo.v != nil && hi.v != nil {
		c := Compare(*lo.v, *hi.v)
		if c > 0 {
			return interval{}, false
		}
		if c == 0 && (lo.open || hi.open) {
			return interval{}, false
		}
	}
	return interval{lo: lo, hi: hi}, true
}

func maxBound(a, b bound) bound {
	if a.v == nil {
		return b
	}
	if b.v == nil {
		return a
	}
	c := Compare(*a.v, *b.v)
	switch {
	case c > 0:
		return a
	case c < 0:
		return b
	default:
		if a.open || b.open {
			return bound{v: a.v, open: true}
		}
		return a
	}
}

func minBound(a, b bound) bound {
	if a.v == nil {
		return b
	}
	if b.v == nil {
		return a
	}
	c := Compare(*a.v, *b.v)
	switch {
	case c < 0:
		return a
	case c > 0:
		return b
	default:
		if a.open || b.open {
			return bound{v: a.v, open: true}
		}
		return a
	}
}

// Union returns the union of a and b, canonicalized (§4.1: concatenates
// then merges overlapping/adjacent intervals).
func Union(a, b Range) Range {
	all := make([]interval, 0, len(a.intervals)+len(b.intervals))
	all = append(all, a.intervals...)
	all = append(all, b.intervals...)
	return canonicalize(all)
}

// canonicalize sorts intervals by lower bound and merges any pair that
// overlaps or abuts, producing the canonical form: sorted, no two adjacent
// intervals mergeable.
func canonicalize(ivs []interval) Range {
	if len(ivs) == 0 {
		return Range{}
	}
	sort.Slice(ivs, func(i, j int) bool {
		return boundLess(ivs[i].lo, ivs[j].lo)
	})

	out := ivs[:1]
	for _, cur := range ivs[1:] {
		last := &out[len(out)-1]
		if overlapsOrAbuts(*last, cur) {
			if boundGreater(cur.hi, last.hi) {
				last.hi = cur.hi
			}
			continue
		}
		out = append(out, cur)
	}
	return Range{intervals: out}
}

// boundLess orders two *lower* bounds, where a nil Version means -inf.
func boundLess(a, b bound) bool {
	if a.v == nil {
		return b.v != nil // -inf < anything finite; -inf == -inf is not less
	}
	if b.v == nil {
		return false // finite is never less than -inf
	}
	c := Compare(*a.v, *b.v)
	if c != 0 {
		return c < 0
	}
	// equal value: a closed lower bound sorts before an open one, since
	// it admits strictly more.
	return !a.open && b.open
}

func boundGreater(a, b bound) bool {
	if a.v == nil {
		return true // +inf upper bound
	}
	if b.v == nil {
		return false
	}
	c := Compare(*a.v, *b.v)
	if c != 0 {
		return c > 0
	}
	return a.open && !b.open
}

// overlapsOrAbuts reports whether cur's lower bound falls inside, or
// immediately adjacent to, last's span, so the two intervals can merge
// into one.
func overlapsOrAbuts(last, cur interval) bool {
	if last.hi.v == nil {
		return true // last extends to +inf, everything after it overlaps
	}
	if cur.lo.v == nil {
		return true // shouldn't happen post-sort unless both are -inf..
	}
	c := Compare(*last.hi.v, *cur.lo.v)
	if c > 0 {
		return true
	}
	if c == 0 {
		// touching at the same point: mergeable unless both sides are
		// open at that point (a genuine gap of exactly one point).
		return !(last.hi.open && cur.lo.open)
	}
	return false
}

// String renders r back to a comparison-operator form. It is not
// guaranteed to round-trip the exact original spelling (e.g. "=1.0" and
// "1.0" both parse to the same exact-match range), only its meaning.
func (r Range) String() string {
	if r.IsEmpty() {
		return "<empty>"
	}
	if r.IsUniversal() {
		return "*"
	}
	parts := make([]string, 0, len(r.intervals))
	for _, iv := range r.intervals {
		parts = append(parts, intervalString(iv))
	}
	return strings.Join(parts, "|")
}

func intervalString(iv interval) string {
	if iv.lo.v != nil && iv.hi.v != nil && !iv.lo.open && !iv.hi.open && Equal(*iv.lo.v, *iv.hi.v) {
		return iv.lo.v.String()
	}
	var b strings.Builder
	switch {
	case iv.lo.v == nil:
		// unbounded below, write nothing
	case iv.lo.open:
		b.WriteString(">")
		b.WriteString(iv.lo.v.String())
	default:
		b.WriteString(">=")
		b.WriteString(iv.lo.v.String())
	}
	if iv.hi.v != nil {
		if b.Len() > 0 {
			b.WriteString(",")
		}
		if iv.hi.open {
			b.WriteString("<")
		} else {
			b.WriteString("<=")
		}
		b.WriteString(iv.hi.v.String())
	}
	if b.Len() == 0 {
		return "*"
	}
	return b.String()
}

// PrefixShorthand builds the range implied by a bare version prefix, e.g.
// "2020" meaning "every version starting with 2020" -> [2020, 2021). This
// is the §12.1 convenience constructor recovered from the original Rust
// source; the canonical grammar remains the explicit-operator one above.
func PrefixShorthand(v Version) Range {
	next := v.nextAtSameDepth()
	if next.IsZero() {
		return Range{intervals: []interval{{lo: bound{v: &v}, hi: bound{}}}}
	}
	return Range{intervals: []interval{{lo: bound{v: &v}, hi: bound{v: &next, open: true}}}}
}
