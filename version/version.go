// Package version implements the version algebra (C1): a tokenized,
// totally-ordered Version type and the VersionRange interval algebra built
// on top of it.
//
// The parser is the three-state automaton the spec describes (Start,
// InToken, InSeparator), grounded on the teacher's (golang/dep's vendored
// gps) habit of a small hand-rolled scanner rather than a regexp for
// anything on the version hot path. Unlike the teacher, which delegates
// comparison to github.com/Masterminds/semver, this package cannot: Rez
// version strings such as "2020.1.sp2" or "a-b-c" are not valid semver, so
// the comparator below is a bespoke implementation of §4.1 (see
// DESIGN.md for the semver-vs-bespoke tradeoff).
package version

import (
	"strings"

	"github.com/loonghao/rez-next/internal/errs"
)

// Version is an immutable, ordered sequence of tokens. The zero Version is
// not valid; construct one with Parse.
type Version struct {
	raw    string
	tokens []token
	seps   []byte // len(seps) == len(tokens)-1
}

// String renders the Version back to its canonical textual form. Parsing a
// well-formed version string and rendering it always reproduces the input
// verbatim (§8).
func (v Version) String() string { return v.raw }

// IsZero reports whether v is the unconstructed zero value.
func (v Version) IsZero() bool { return len(v.tokens) == 0 }

// NumTokens returns the number of tokens in v.
func (v Version) NumTokens() int { return len(v.tokens) }

type parseState uint8

const (
	stateStart parseState = iota
	stateInToken
	stateInSeparator
)

// Parse runs the §4.1 automaton over s. The only heap allocations beyond
// the returned Version's token/separator slices are the token strings
// themselves, which are slices into s (no copying).
func Parse(s string) (Version, error) {
	if s == "" {
		return Version{}, errs.New(errs.KindParseError, "version string is empty").AtOffset(0)
	}

	var (
		tokens     []token
		seps       []byte
		state      = stateStart
		tokenStart int
	)

	for i := 0; i < len(s); i++ {
		c := s[i]
		switch state {
		case stateStart, stateInSeparator:
			if isTokenChar(c) {
				tokenStart = i
				state = stateInToken
				continue
			}
			return Version{}, errs.New(errs.KindParseError,
				"expected a token character, found %q", c).AtOffset(i)
		case stateInToken:
			if isTokenChar(c) {
				continue
			}
			if isSeparator(c) {
				tokens = append(tokens, makeToken(s[tokenStart:i]))
				seps = append(seps, c)
				state = stateInSeparator
				continue
			}
			return Version{}, errs.New(errs.KindParseError,
				"invalid character %q within token", c).AtOffset(i)
		}
	}

	switch state {
	case stateInSeparator:
		return Version{}, errs.New(errs.KindParseError,
			"version cannot end with a separator").AtOffset(len(s) - 1)
	case stateStart:
		return Version{}, errs.New(errs.KindParseError, "empty version").AtOffset(0)
	}

	// close the trailing token
	tokens = append(tokens, makeToken(s[tokenStart:]))

	// "No underscore is adjacent to a separator" (§3) holds automatically:
	// underscore is itself one of the four separator characters, and the
	// automaton above never accepts two separators in a row (InSeparator
	// requires a token character next), so underscore can never sit next
	// to another separator in anything this parser accepts.

	return Version{raw: s, tokens: tokens, seps: seps}, nil
}

// Compare implements the total order from §4.1: tokens compare pairwise,
// and a shorter prefix-equal version compares less than the longer one.
func Compare(a, b Version) int {
	n := len(a.tokens)
	if len(b.tokens) < n {
		n = len(b.tokens)
	}
	for i := 0; i < n; i++ {
		if c := compareTokens(a.tokens[i], b.tokens[i]); c != 0 {
			return c
		}
	}
	switch {
	case len(a.tokens) < len(b.tokens):
		return -1
	case len(a.tokens) > len(b.tokens):
		return 1
	default:
		return 0
	}
}

// Less reports whether a sorts before b.
func Less(a, b Version) bool { return Compare(a, b) < 0 }

// Equal reports whether a and b compare equal.
func Equal(a, b Version) bool { return Compare(a, b) == 0 }

// MustParse panics on a parse error; reserved for tests and literals that
// are known-good at compile time.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

// hasPrefixTokens reports whether v has the tokens of prefix as a leading
// subsequence, e.g. "1.2" is a prefix of "1.2.0".
func (v Version) hasPrefixTokens(prefix Version) bool {
	if len(prefix.tokens) > len(v.tokens) {
		return false
	}
	for i := range prefix.tokens {
		if compareTokens(v.tokens[i], prefix.tokens[i]) != 0 {
			return false
		}
	}
	return true
}

// nextAtSameDepth returns the version produced by incrementing the last
// token of v by one, keeping all separators. It is used to build the
// half-open upper bound for a prefix-shorthand range like "2020" meaning
// "[2020, 2021)".
func (v Version) nextAtSameDepth() Version {
	toks := make([]token, len(v.tokens))
	copy(toks, v.tokens)
	last := toks[len(toks)-1]
	if last.numeric {
		last.num++
		last.str = uitoa(last.num)
	} else {
		// alphanumeric final token: append a separator-free bump by
		// appending a null-sentinel is not representable as a token
		// string, so instead we conservatively treat "next" as
		// unbounded-above; callers needing the bounded form should use
		// explicit operators instead of the shorthand for such inputs.
		return Version{}
	}
	toks[len(toks)-1] = last
	return Version{raw: renderTokens(toks, v.seps), tokens: toks, seps: v.seps}
}

func renderTokens(toks []token, seps []byte) string {
	var sb strings.Builder
	for i, t := range toks {
		sb.WriteString(t.str)
		if i < len(seps) {
			sb.WriteByte(seps[i])
		}
	}
	return sb.String()
}

func uitoa(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
