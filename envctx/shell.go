package envctx

import (
	"fmt"
	"strings"

	"github.com/loonghao/rez-next/pkgmodel"
)

// Dialect identifies one of the three supported shell targets (§6.3).
type Dialect uint8

const (
	Bash Dialect = iota
	Cmd
	PowerShell
)

func (d Dialect) String() string {
	switch d {
	case Bash:
		return "bash"
	case Cmd:
		return "cmd"
	case PowerShell:
		return "powershell"
	default:
		return "unknown"
	}
}

// dialectRules captures what §6.3 says every renderer must define: the
// PATH-list separator, quoting, and the include-directive syntax.
type dialectRules struct {
	listSeparator string
	quote         func(string) string
	setenv        func(name, value string) string
	unsetenv      func(name string) string
	prependenv    func(name, value, sep string) string
	appendenv     func(name, value, sep string) string
	alias         func(name, target string) string
	info          func(message string) string
	source        func(path string) string
}

func rulesFor(d Dialect) dialectRules {
	switch d {
	case Cmd:
		return dialectRules{
			listSeparator: ";",
			quote:         func(s string) string { return s },
			setenv:        func(n, v string) string { return fmt.Sprintf("set %s=%s", n, v) },
			unsetenv:      func(n string) string { return fmt.Sprintf("set %s=", n) },
			prependenv:    func(n, v, sep string) string { return fmt.Sprintf("set %s=%s%s%%%s%%", n, v, sep, n) },
			appendenv:     func(n, v, sep string) string { return fmt.Sprintf("set %s=%%%s%%%s%s", n, n, sep, v) },
			alias:         func(n, t string) string { return fmt.Sprintf("doskey %s=%s", n, t) },
			info:          func(m string) string { return fmt.Sprintf(":: %s", m) },
			source:        func(p string) string { return fmt.Sprintf("call %q", p) },
		}
	case PowerShell:
		return dialectRules{
			listSeparator: ";",
			quote:         func(s string) string { return "'" + strings.ReplaceAll(s, "'", "''") + "'" },
			setenv:        func(n, v string) string { return fmt.Sprintf("$env:%s = '%s'", n, escapeSingle(v)) },
			unsetenv:      func(n string) string { return fmt.Sprintf("Remove-Item Env:%s -ErrorAction SilentlyContinue", n) },
			prependenv: func(n, v, sep string) string {
				return fmt.Sprintf("$env:%s = '%s' + '%s' + $env:%s", n, escapeSingle(v), sep, n)
			},
			appendenv: func(n, v, sep string) string {
				return fmt.Sprintf("$env:%s = $env:%s + '%s' + '%s'", n, n, sep, escapeSingle(v))
			},
			alias:  func(n, t string) string { return fmt.Sprintf("Set-Alias -Name %s -Value '%s'", n, escapeSingle(t)) },
			info:   func(m string) string { return fmt.Sprintf("# %s", m) },
			source: func(p string) string { return fmt.Sprintf(". '%s'", escapeSingle(p)) },
		}
	default: // Bash
		return dialectRules{
			listSeparator: ":",
			quote:         func(s string) string { return "\"" + strings.ReplaceAll(s, "\"", "\\\"") + "\"" },
			setenv:        func(n, v string) string { return fmt.Sprintf("export %s=%q", n, v) },
			unsetenv:      func(n string) string { return fmt.Sprintf("unset %s", n) },
			prependenv: func(n, v, sep string) string {
				return fmt.Sprintf("export %s=%q", n, v+sep+"${"+n+"}")
			},
			appendenv: func(n, v, sep string) string {
				return fmt.Sprintf("export %s=%q", n, "${"+n+"}"+sep+v)
			},
			alias:  func(n, t string) string { return fmt.Sprintf("alias %s=%q", n, t) },
			info:   func(m string) string { return fmt.Sprintf("# %s", m) },
			source: func(p string) string { return fmt.Sprintf("source %q", p) },
		}
	}
}

// Render is a pure function of (operation list, dialect): the same input
// always produces the same text (§4.6, §6.3).
func Render(ops []Op, d Dialect) string {
	rules := rulesFor(d)
	var b strings.Builder
	for _, op := range ops {
		switch op.Kind {
		case pkgmodel.OpSetenv:
			b.WriteString(rules.setenv(op.Name, op.Value))
		case pkgmodel.OpUnsetenv:
			b.WriteString(rules.unsetenv(op.Name))
		case pkgmodel.OpPrependenv:
			b.WriteString(rules.prependenv(op.Name, op.Value, separatorOrDefault(op.Separator)))
		case pkgmodel.OpAppendenv:
			b.WriteString(rules.appendenv(op.Name, op.Value, separatorOrDefault(op.Separator)))
		case pkgmodel.OpAlias:
			b.WriteString(rules.alias(op.Name, op.Value))
		case pkgmodel.OpInfo:
			b.WriteString(rules.info(op.Message))
		case pkgmodel.OpSource:
			b.WriteString(rules.source(op.Path))
		}
		b.WriteByte('\n')
	}
	return b.String()
}

func escapeSingle(s string) string { return strings.ReplaceAll(s, "'", "''") }
