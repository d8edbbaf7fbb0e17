// Command rez is a thin CLI over the core library: resolve requirements
// against a set of package repositories, scan a repository for diagnostics,
// build and render an environment context, or parse a bare version string.
//
// The dispatcher shape (a command interface, a static command list, a
// flag.FlagSet built per subcommand with a shared -v flag registered
// first) is grounded on the teacher's cmd/dep/main.go, generalized from
// dep's project-root-and-GOPATH context to this tool's repository-roots
// context.
package main

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"
)

type command interface {
	Name() string           // "resolve"
	Args() string           // "<requirement...>"
	ShortHelp() string      // "Resolve requirements against configured repositories"
	LongHelp() string       // full usage text
	Register(*flag.FlagSet) // command-specific flags
	Run(*cliContext, []string) error
}

// cliContext carries the flags and I/O every subcommand needs, in the
// same spirit as the teacher's *dep.Ctx.
type cliContext struct {
	Out, Err *log.Logger
	Verbose  bool
	Roots    []string // -root, repeatable
}

func main() {
	c := &Config{
		Args:   os.Args,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
	}
	os.Exit(c.Run())
}

// Config specifies one full CLI invocation.
type Config struct {
	Args           []string
	Stdout, Stderr io.Writer
}

func (c *Config) Run() (exitCode int) {
	commands := []command{
		&resolveCommand{},
		&scanCommand{},
		&contextCommand{},
		&parseVersionCommand{},
	}

	outLogger := log.New(c.Stdout, "", 0)
	errLogger := log.New(c.Stderr, "", 0)

	usage := func() {
		errLogger.Println("rez is a package resolver and environment builder")
		errLogger.Println()
		errLogger.Println("Usage: rez <command>")
		errLogger.Println()
		errLogger.Println("Commands:")
		errLogger.Println()
		w := tabwriter.NewWriter(c.Stderr, 0, 4, 2, ' ', 0)
		for _, cmd := range commands {
			fmt.Fprintf(w, "\t%s\t%s\n", cmd.Name(), cmd.ShortHelp())
		}
		w.Flush()
		errLogger.Println()
		errLogger.Println(`Use "rez <command> -h" for more information about a command.`)
	}

	if len(c.Args) < 2 {
		usage()
		return 1
	}
	cmdName := c.Args[1]
	if cmdName == "help" || cmdName == "-h" || cmdName == "--help" {
		usage()
		return 0
	}

	for _, cmd := range commands {
		if cmd.Name() != cmdName {
			continue
		}

		fs := flag.NewFlagSet(cmdName, flag.ContinueOnError)
		fs.SetOutput(c.Stderr)
		verbose := fs.Bool("v", false, "enable verbose logging")
		var roots rootsFlag
		fs.Var(&roots, "root", "repository root to search (repeatable)")

		cmd.Register(fs)
		resetUsage(errLogger, fs, cmdName, cmd.Args(), cmd.LongHelp())

		if err := fs.Parse(c.Args[2:]); err != nil {
			return 1
		}

		ctx := &cliContext{Out: outLogger, Err: errLogger, Verbose: *verbose, Roots: roots}
		if err := cmd.Run(ctx, fs.Args()); err != nil {
			errLogger.Printf("%v\n", err)
			return 1
		}
		return 0
	}

	errLogger.Printf("rez: %s: no such command\n", cmdName)
	usage()
	return 1
}

// rootsFlag implements flag.Value so -root can be repeated.
type rootsFlag []string

func (r *rootsFlag) String() string { return strings.Join(*r, ",") }
func (r *rootsFlag) Set(v string) error {
	*r = append(*r, v)
	return nil
}

func resetUsage(logger *log.Logger, fs *flag.FlagSet, name, args, longHelp string) {
	var (
		hasFlags   bool
		flagBlock  bytes.Buffer
		flagWriter = tabwriter.NewWriter(&flagBlock, 0, 4, 2, ' ', 0)
	)
	fs.VisitAll(func(f *flag.Flag) {
		hasFlags = true
		defValue := f.DefValue
		if defValue == "" {
			defValue = "<none>"
		}
		fmt.Fprintf(flagWriter, "\t-%s\t%s (default: %s)\n", f.Name, f.Usage, defValue)
	})
	flagWriter.Flush()
	fs.Usage = func() {
		logger.Printf("Usage: rez %s %s\n", name, args)
		logger.Println()
		logger.Println(strings.TrimSpace(longHelp))
		logger.Println()
		if hasFlags {
			logger.Println("Flags:")
			logger.Println()
			logger.Println(flagBlock.String())
		}
	}
}
