package pkgmodel

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	yaml "gopkg.in/yaml.v3"

	"github.com/loonghao/rez-next/internal/errs"
	"github.com/loonghao/rez-next/version"
)

// ProbeExtensions is the ordered, fixed list of package-definition file
// extensions the repository scanner probes at each version directory
// (§4.3, §6.1): the "scripting language" slot first, then the
// "structured data" slot.
var ProbeExtensions = []string{".yaml", ".toml"}

// DefinitionFileName is the base file name (sans extension) probed at each
// version directory.
const DefinitionFileName = "package"

// rawCommand mirrors §6.2's tagged-record shape as it appears on disk: a
// single-key map naming the op, whose value is either a two-element list
// (name, value) or a scalar, depending on the op's arity.
type rawCommand map[string]interface{}

// rawPackage is the on-disk shape of a package definition file, decoded
// directly by both the YAML and TOML decoders (both support the same
// field tags via struct tags keyed by name; BurntSushi/toml matches field
// names case-insensitively by default and gopkg.in/yaml.v3 needs explicit
// `yaml:` tags, so both are supplied).
type rawPackage struct {
	Name        string   `yaml:"name" toml:"name"`
	Version     string   `yaml:"version" toml:"version"`
	Description string   `yaml:"description" toml:"description"`
	Authors     []string `yaml:"authors" toml:"authors"`
	UUID        string   `yaml:"uuid" toml:"uuid"`
	Timestamp   int64    `yaml:"timestamp" toml:"timestamp"`

	Requires             []string `yaml:"requires" toml:"requires"`
	BuildRequires        []string `yaml:"build_requires" toml:"build_requires"`
	PrivateBuildRequires []string `yaml:"private_build_requires" toml:"private_build_requires"`

	Variants [][]string `yaml:"variants" toml:"variants"`
	Tools    []string   `yaml:"tools" toml:"tools"`
	Commands []rawCommand `yaml:"commands" toml:"commands"`
}

// ParseFile decodes the package definition at path (chosen by extension:
// ".yaml" or ".yml" uses the YAML decoder, ".toml" the TOML decoder; any other
// extension is an error) into a Package.
func ParseFile(path string, data []byte) (Package, error) {
	var raw rawPackage
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Package{}, errs.Wrap(errs.KindParseError, err, "decoding yaml package definition").AtPath(path)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &raw); err != nil {
			return Package{}, errs.Wrap(errs.KindParseError, err, "decoding toml package definition").AtPath(path)
		}
	default:
		return Package{}, errs.New(errs.KindParseError, "unrecognized package definition extension %q", ext).AtPath(path)
	}
	return convert(raw, path)
}

func convert(raw rawPackage, path string) (Package, error) {
	var p Package
	p.Name = raw.Name
	p.Description = raw.Description
	p.Authors = raw.Authors
	p.Timestamp = raw.Timestamp

	if raw.Version != "" {
		v, err := version.Parse(raw.Version)
		if err != nil {
			return Package{}, errors.Wrapf(err, "package %s: invalid version %q", path, raw.Version)
		}
		p.Version = v
	}

	if raw.UUID != "" {
		id, err := uuid.Parse(raw.UUID)
		if err != nil {
			return Package{}, errors.Wrapf(err, "package %s: invalid uuid %q", path, raw.UUID)
		}
		p.UUID = id
	}

	var err error
	if p.Requires, err = parseRequirementList(raw.Requires); err != nil {
		return Package{}, errors.Wrapf(err, "package %s: requires", path)
	}
	if p.BuildRequires, err = parseRequirementList(raw.BuildRequires); err != nil {
		return Package{}, errors.Wrapf(err, "package %s: build_requires", path)
	}
	if p.PrivateBuildRequires, err = parseRequirementList(raw.PrivateBuildRequires); err != nil {
		return Package{}, errors.Wrapf(err, "package %s: private_build_requires", path)
	}

	p.Variants = make([][]version.Requirement, len(raw.Variants))
	for i, v := range raw.Variants {
		reqs, err := parseRequirementList(v)
		if err != nil {
			return Package{}, errors.Wrapf(err, "package %s: variants[%d]", path, i)
		}
		p.Variants[i] = reqs
	}

	p.Tools = raw.Tools

	p.Commands = make([]Command, 0, len(raw.Commands))
	for i, rc := range raw.Commands {
		cmd, err := convertCommand(rc)
		if err != nil {
			return Package{}, errors.Wrapf(err, "package %s: commands[%d]", path, i)
		}
		p.Commands = append(p.Commands, cmd)
	}

	return p, nil
}

func parseRequirementList(ss []string) ([]version.Requirement, error) {
	out := make([]version.Requirement, 0, len(ss))
	for _, s := range ss {
		r, err := version.ParseRequirement(s)
		if err != nil {
			return nil, errors.Wrapf(err, "requirement %q", s)
		}
		out = append(out, r)
	}
	return out, nil
}

func convertCommand(rc rawCommand) (Command, error) {
	for _, op := range []CommandOp{OpSetenv, OpUnsetenv, OpPrependenv, OpAppendenv, OpAlias, OpInfo, OpSource} {
		raw, ok := rc[string(op)]
		if !ok {
			continue
		}
		return buildCommand(op, raw)
	}
	return Command{}, errors.Errorf("command record has no recognized op key: %v", rc)
}

func buildCommand(op CommandOp, raw interface{}) (Command, error) {
	args, err := toStringSlice(raw)
	if err != nil {
		return Command{}, err
	}
	cmd := Command{Op: op}
	switch op {
	case OpSetenv, OpAlias:
		if len(args) < 2 {
			return Command{}, errors.Errorf("%s requires (name, value), got %v", op, args)
		}
		cmd.Name, cmd.Value = args[0], args[1]
	case OpUnsetenv:
		if len(args) < 1 {
			return Command{}, errors.Errorf("%s requires (name), got %v", op, args)
		}
		cmd.Name = args[0]
	case OpPrependenv, OpAppendenv:
		if len(args) < 2 {
			return Command{}, errors.Errorf("%s requires (name, value[, separator]), got %v", op, args)
		}
		cmd.Name, cmd.Value = args[0], args[1]
		if len(args) >= 3 {
			cmd.Separator = args[2]
		}
	case OpInfo:
		if len(args) < 1 {
			return Command{}, errors.Errorf("%s requires (message), got %v", op, args)
		}
		cmd.Message = args[0]
	case OpSource:
		if len(args) < 1 {
			return Command{}, errors.Errorf("%s requires (path), got %v", op, args)
		}
		cmd.Path = args[0]
	}
	return cmd, nil
}

func toStringSlice(raw interface{}) ([]string, error) {
	switch v := raw.(type) {
	case string:
		return []string{v}, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, errors.Errorf("expected string argument, got %T", e)
			}
			out = append(out, s)
		}
		return out, nil
	case []string:
		return v, nil
	default:
		return nil, errors.Errorf("unsupported command argument shape %T", raw)
	}
}

// ReadFile loads and parses the package definition file found at dir by
// probing ProbeExtensions in order. It returns errs.KindNotFound if none
// of the probed files exist.
func ReadFile(dir string) (Package, string, error) {
	for _, ext := range ProbeExtensions {
		path := filepath.Join(dir, DefinitionFileName+ext)
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Package{}, "", errs.Wrap(errs.KindIoError, err, "reading package definition").AtPath(path)
		}
		p, err := ParseFile(path, data)
		return p, path, err
	}
	return Package{}, "", errs.New(errs.KindNotFound, "no package definition found under %s (probed %v)", dir, ProbeExtensions).AtPath(dir)
}
