package version

// token is one numeric-or-alphanumeric chunk of a Version, produced by the
// parser automaton described in §4.1. A token never spans a separator and
// is never empty.
type token struct {
	numeric bool
	num     uint64 // valid iff numeric
	str     string // raw text of the token, always set (used for String())
}

func (t token) String() string { return t.str }

// compareTokens implements §4.1's comparison rule: numeric-vs-numeric
// compares as integers, alphanumeric-vs-alphanumeric as bytes, and
// numeric-vs-alphanumeric orders numeric first.
func compareTokens(a, b token) int {
	switch {
	case a.numeric && b.numeric:
		switch {
		case a.num < b.num:
			return -1
		case a.num > b.num:
			return 1
		default:
			return 0
		}
	case a.numeric && !b.numeric:
		return -1
	case !a.numeric && b.numeric:
		return 1
	default:
		if a.str < b.str {
			return -1
		}
		if a.str > b.str {
			return 1
		}
		return 0
	}
}

func isSeparator(c byte) bool {
	switch c {
	case '.', '-', '_', '+':
		return true
	default:
		return false
	}
}

func isTokenChar(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func makeToken(s string) token {
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return token{str: s}
		}
	}
	n, overflowed := parseUint(s)
	if overflowed {
		// A numeric-looking token that doesn't fit a uint64 is still
		// compared as a number would be (longer digit strings are
		// larger), so fall back to alphanumeric byte comparison applied
		// only to equal-length numeric tokens is not quite right either;
		// in practice Rez version components never approach this size,
		// so we degrade gracefully to string comparison among overflowed
		// tokens, which stays internally consistent.
		return token{str: s}
	}
	return token{numeric: true, num: n, str: s}
}

func parseUint(s string) (uint64, bool) {
	var n uint64
	for i := 0; i < len(s); i++ {
		d := uint64(s[i] - '0')
		if n > (1<<64-1-d)/10 {
			return 0, true
		}
		n = n*10 + d
	}
	return n, false
}
