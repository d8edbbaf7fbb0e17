package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/loonghao/rez-next/cache"
	"github.com/loonghao/rez-next/envctx"
	"github.com/loonghao/rez-next/pipeline"
	"github.com/loonghao/rez-next/repo"
	"github.com/loonghao/rez-next/solver"
)

const resolveShortHelp = `Resolve requirements against configured repositories`
const resolveLongHelp = `
Resolve one or more requirement strings (e.g. "python-3.9", "maya>=2020,<2025")
against the packages found under every -root, print the resolved set, and
render its environment context to stdout.
`

type resolveCommand struct {
	timeout time.Duration
	dialect string
	workers int
}

func (cmd *resolveCommand) Name() string      { return "resolve" }
func (cmd *resolveCommand) Args() string      { return "<requirement...>" }
func (cmd *resolveCommand) ShortHelp() string { return resolveShortHelp }
func (cmd *resolveCommand) LongHelp() string  { return resolveLongHelp }

func (cmd *resolveCommand) Register(fs *flag.FlagSet) {
	fs.DurationVar(&cmd.timeout, "timeout", 30*time.Second, "solve timeout")
	fs.StringVar(&cmd.dialect, "shell", "bash", "shell dialect for the rendered context: bash, cmd, powershell")
	fs.IntVar(&cmd.workers, "workers", 1, "parallel solver workers")
}

func (cmd *resolveCommand) Run(ctx *cliContext, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("resolve: at least one requirement is required")
	}
	if len(ctx.Roots) == 0 {
		return fmt.Errorf("resolve: at least one -root is required")
	}

	dialect, err := parseDialect(cmd.dialect)
	if err != nil {
		return err
	}

	p := pipeline.New(pipeline.Config{}, cache.Config{})

	runCtx, cancel := context.WithTimeout(context.Background(), cmd.timeout)
	defer cancel()

	roots := make([]repo.Root, len(ctx.Roots))
	for i, r := range ctx.Roots {
		roots[i] = repo.Root{Path: r, Priority: i}
	}

	result, err := p.Run(runCtx, pipeline.Request{
		Requirements: args,
		Roots:        roots,
		SolveOptions: solver.Options{ParallelWorkers: cmd.workers},
	})
	if err != nil {
		return fmt.Errorf("resolve: %w", err)
	}

	for _, e := range result.ResolvedSet.Entries {
		ctx.Out.Printf("%s-%s", e.Package.Name, e.Package.Version.String())
	}
	ctx.Out.Println()
	ctx.Out.Println(envctx.Render(result.Context.Ops, dialect))

	if ctx.Verbose {
		ctx.Err.Printf("scan: %d packages, %d cache hits, %d misses\n",
			result.Report.Scan.PackagesFound, result.Report.Scan.CacheHits, result.Report.Scan.CacheMisses)
		ctx.Err.Printf("solve: %s in %d iterations (%s)\n",
			result.Report.Solve.Status, result.Report.Solve.Iterations, result.Report.Solve.Elapsed)
	}
	return nil
}

func parseDialect(s string) (envctx.Dialect, error) {
	switch s {
	case "bash":
		return envctx.Bash, nil
	case "cmd":
		return envctx.Cmd, nil
	case "powershell":
		return envctx.PowerShell, nil
	default:
		return 0, fmt.Errorf("unknown shell dialect %q (want bash, cmd, or powershell)", s)
	}
}
