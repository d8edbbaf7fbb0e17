package version

import (
	"strings"

	"github.com/loonghao/rez-next/internal/errs"
)

// Requirement is a (name, range) pair plus the weak/conflict flags (§3).
type Requirement struct {
	Name     string
	Range    Range
	Weak     bool
	Conflict bool
}

func (r Requirement) String() string {
	prefix := ""
	if r.Conflict {
		prefix = "!"
	} else if r.Weak {
		prefix = "~"
	}
	if r.Range.IsUniversal() {
		return prefix + r.Name
	}
	return prefix + r.Name + r.Range.String()
}

// ParseRequirement parses a requirement string such as "python-3.9",
// "maya>=2020,<2025", or "!legacy". The name is the longest leading run
// matching [A-Za-z_][A-Za-z0-9_]*; what follows is either empty (universal
// range), an operator-led clause (parsed by ParseRange), or a leading "-"
// followed by a version prefix (Rez's dash shorthand, built with
// PrefixShorthand: "python-3.9" admits 3.9 and 3.9.1 but not 3.10).
func ParseRequirement(s string) (Requirement, error) {
	req := Requirement{Range: Universal()}

	if strings.HasPrefix(s, "!") {
		req.Conflict = true
		s = s[1:]
	} else if strings.HasPrefix(s, "~") {
		req.Weak = true
		s = s[1:]
	}

	name, rest, err := splitName(s)
	if err != nil {
		return Requirement{}, err
	}
	req.Name = name

	switch {
	case rest == "":
		// universal range, already set
	case rest[0] == '-':
		v, err := Parse(rest[1:])
		if err != nil {
			return Requirement{}, err
		}
		req.Range = PrefixShorthand(v)
	default:
		r, err := ParseRange(rest)
		if err != nil {
			return Requirement{}, err
		}
		req.Range = r
	}

	return req, nil
}

func splitName(s string) (name, rest string, err error) {
	if s == "" {
		return "", "", errs.New(errs.KindParseError, "requirement has no name")
	}
	if !isNameStart(s[0]) {
		return "", "", errs.New(errs.KindParseError, "requirement name must start with a letter or underscore, got %q", s[0]).AtOffset(0)
	}
	i := 1
	for ; i < len(s); i++ {
		if !isNameChar(s[i]) {
			break
		}
	}
	return s[:i], s[i:], nil
}

func isNameStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isNameChar(c byte) bool {
	return isNameStart(c) || (c >= '0' && c <= '9')
}
