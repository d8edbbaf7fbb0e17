package main

import (
	"flag"
	"fmt"

	"github.com/loonghao/rez-next/version"
)

const parseVersionShortHelp = `Parse a version string and print it back`
const parseVersionLongHelp = `
Parse a single version string per §4.1's grammar and print it back
unchanged, or report the parse error and its offset.
`

type parseVersionCommand struct{}

func (cmd *parseVersionCommand) Name() string      { return "parse-version" }
func (cmd *parseVersionCommand) Args() string      { return "<version>" }
func (cmd *parseVersionCommand) ShortHelp() string { return parseVersionShortHelp }
func (cmd *parseVersionCommand) LongHelp() string  { return parseVersionLongHelp }
func (cmd *parseVersionCommand) Register(fs *flag.FlagSet) {}

func (cmd *parseVersionCommand) Run(ctx *cliContext, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("parse-version: exactly one version string is required")
	}
	v, err := version.Parse(args[0])
	if err != nil {
		return fmt.Errorf("parse-version: %w", err)
	}
	ctx.Out.Println(v.String())
	return nil
}
