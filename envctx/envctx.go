// Package envctx implements the Context Builder (C6): interpreting a
// ResolvedSet's packages' commands into an ordered list of environment
// operations, fingerprinting the result, and rendering it to shell script
// text for bash, cmd, or powershell.
//
// The "interpret into an ordered output list, never a live process
// environment" design (so the same interpretation can be replayed to any
// shell dialect) is grounded on the teacher's context.go, which builds a
// dep.Context as a data structure threaded through GOPATH resolution
// rather than mutating os.Environ directly.
package envctx

import (
	"strings"
	"time"

	"github.com/loonghao/rez-next/pkgmodel"
	"github.com/loonghao/rez-next/solver"
)

// Op is one interpreted environment operation, emitted in execution order.
type Op struct {
	Kind      pkgmodel.CommandOp
	Name      string
	Value     string
	Separator string
	Message   string
	Path      string
}

// Context is C6's output (§3): the originating ResolvedSet, the
// interpreted operation list, a fingerprint, and a creation timestamp.
type Context struct {
	ResolvedSet solver.ResolvedSet
	Ops         []Op
	Fingerprint uint64
	CreatedAt   time.Time
}

// Build interprets every package in rs (in its existing topological
// order) through the §6.2 operation set, expanding `${NAME}` references at
// interpretation time against the environment accumulated so far.
func Build(rs solver.ResolvedSet) Context {
	interp := newInterpreter()
	for _, entry := range rs.Entries {
		for _, cmd := range entry.Package.CommandsList() {
			interp.exec(cmd)
		}
	}
	return Context{
		ResolvedSet: rs,
		Ops:         interp.ops,
		Fingerprint: Fingerprint(rs),
		CreatedAt:   time.Now(),
	}
}

// interpreter is the deterministic command interpreter named in §4.6: it
// accumulates a named-list environment (for prependenv/appendenv/${NAME}
// expansion) while emitting the ordered Op list.
type interpreter struct {
	env map[string]string
	ops []Op
}

func newInterpreter() *interpreter {
	return &interpreter{env: make(map[string]string)}
}

func (in *interpreter) exec(cmd pkgmodel.Command) {
	switch cmd.Op {
	case pkgmodel.OpSetenv:
		v := in.expand(cmd.Value)
		in.env[cmd.Name] = v
		in.ops = append(in.ops, Op{Kind: cmd.Op, Name: cmd.Name, Value: v})
	case pkgmodel.OpUnsetenv:
		delete(in.env, cmd.Name)
		in.ops = append(in.ops, Op{Kind: cmd.Op, Name: cmd.Name})
	case pkgmodel.OpPrependenv:
		v := in.expand(cmd.Value)
		sep := separatorOrDefault(cmd.Separator)
		in.env[cmd.Name] = joinNonEmpty(sep, v, in.env[cmd.Name])
		in.ops = append(in.ops, Op{Kind: cmd.Op, Name: cmd.Name, Value: v, Separator: sep})
	case pkgmodel.OpAppendenv:
		v := in.expand(cmd.Value)
		sep := separatorOrDefault(cmd.Separator)
		in.env[cmd.Name] = joinNonEmpty(sep, in.env[cmd.Name], v)
		in.ops = append(in.ops, Op{Kind: cmd.Op, Name: cmd.Name, Value: v, Separator: sep})
	case pkgmodel.OpAlias:
		v := in.expand(cmd.Value)
		in.ops = append(in.ops, Op{Kind: cmd.Op, Name: cmd.Name, Value: v})
	case pkgmodel.OpInfo:
		in.ops = append(in.ops, Op{Kind: cmd.Op, Message: in.expand(cmd.Message)})
	case pkgmodel.OpSource:
		in.ops = append(in.ops, Op{Kind: cmd.Op, Path: in.expand(cmd.Path)})
	}
}

func separatorOrDefault(sep string) string {
	if sep == "" {
		return ":"
	}
	return sep
}

func joinNonEmpty(sep string, parts ...string) string {
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, sep)
}

// expand implements §6.2's `${NAME}` expansion, evaluated at
// interpretation time against the environment accumulated so far.
func (in *interpreter) expand(s string) string {
	var b strings.Builder
	i := 0
	for i < len(s) {
		if s[i] == '$' && i+1 < len(s) && s[i+1] == '{' {
			end := strings.IndexByte(s[i+2:], '}')
			if end >= 0 {
				name := s[i+2 : i+2+end]
				b.WriteString(in.env[name])
				i = i + 2 + end + 1
				continue
			}
		}
		b.WriteByte(s[i])
		i++
	}
	return b.String()
}
