package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/loonghao/rez-next/cache"
	"github.com/loonghao/rez-next/envctx"
	"github.com/loonghao/rez-next/pipeline"
	"github.com/loonghao/rez-next/repo"
	"github.com/loonghao/rez-next/solver"
)

const contextShortHelp = `Build, freeze, or source an environment context`
const contextLongHelp = `
rez context build <requirement...>   resolve and print the rendered context
rez context freeze <path> <requirement...>
                                      resolve, then write the binary Context
                                      to path (§6.5's layout) for later reuse
rez context source <path>            load a frozen Context and render it

freeze/source exercise Context.MarshalBinary/UnmarshalBinary (§12.6) so a
shell can reuse a previously-resolved environment without re-solving.
`

type contextCommand struct {
	dialect string
}

func (cmd *contextCommand) Name() string      { return "context" }
func (cmd *contextCommand) Args() string      { return "build|freeze|source ..." }
func (cmd *contextCommand) ShortHelp() string { return contextShortHelp }
func (cmd *contextCommand) LongHelp() string  { return contextLongHelp }

func (cmd *contextCommand) Register(fs *flag.FlagSet) {
	fs.StringVar(&cmd.dialect, "shell", "bash", "shell dialect: bash, cmd, powershell")
}

func (cmd *contextCommand) Run(ctx *cliContext, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("context: a subcommand (build, freeze, source) is required")
	}
	dialect, err := parseDialect(cmd.dialect)
	if err != nil {
		return err
	}

	switch args[0] {
	case "build":
		return cmd.build(ctx, dialect, args[1:])
	case "freeze":
		return cmd.freeze(ctx, dialect, args[1:])
	case "source":
		return cmd.source(ctx, dialect, args[1:])
	default:
		return fmt.Errorf("context: unknown subcommand %q (want build, freeze, or source)", args[0])
	}
}

func (cmd *contextCommand) resolve(ctx *cliContext, requirements []string) (envctx.Context, error) {
	if len(requirements) == 0 {
		return envctx.Context{}, fmt.Errorf("at least one requirement is required")
	}
	if len(ctx.Roots) == 0 {
		return envctx.Context{}, fmt.Errorf("at least one -root is required")
	}

	p := pipeline.New(pipeline.Config{}, cache.Config{})
	roots := make([]repo.Root, len(ctx.Roots))
	for i, r := range ctx.Roots {
		roots[i] = repo.Root{Path: r, Priority: i}
	}

	result, err := p.Run(context.Background(), pipeline.Request{
		Requirements: requirements,
		Roots:        roots,
		SolveOptions: solver.Options{},
	})
	if err != nil {
		return envctx.Context{}, err
	}
	return result.Context, nil
}

func (cmd *contextCommand) build(ctx *cliContext, dialect envctx.Dialect, args []string) error {
	built, err := cmd.resolve(ctx, args)
	if err != nil {
		return fmt.Errorf("context build: %w", err)
	}
	ctx.Out.Println(envctx.Render(built.Ops, dialect))
	return nil
}

func (cmd *contextCommand) freeze(ctx *cliContext, dialect envctx.Dialect, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("context freeze: usage: rez context freeze <path> <requirement...>")
	}
	path, requirements := args[0], args[1:]

	built, err := cmd.resolve(ctx, requirements)
	if err != nil {
		return fmt.Errorf("context freeze: %w", err)
	}

	data, err := built.MarshalBinary()
	if err != nil {
		return fmt.Errorf("context freeze: encoding: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("context freeze: %w", err)
	}
	ctx.Err.Printf("froze %d ops to %s (fingerprint %d)\n", len(built.Ops), path, built.Fingerprint)
	return nil
}

func (cmd *contextCommand) source(ctx *cliContext, dialect envctx.Dialect, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("context source: usage: rez context source <path>")
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("context source: %w", err)
	}
	var loaded envctx.Context
	if err := loaded.UnmarshalBinary(data); err != nil {
		return fmt.Errorf("context source: %w", err)
	}
	ctx.Out.Println(envctx.Render(loaded.Ops, dialect))
	return nil
}
