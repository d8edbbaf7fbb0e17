package pkgmodel

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yamlDef = `
name: mytool
version: "1.0.0"
description: a tool
authors: [alice, bob]
requires:
  - python-3.9
variants:
  - [python-3.9]
  - [python-3.10]
tools: [mytool]
commands:
  - setenv: [MYTOOL_ROOT, "/opt/mytool"]
  - prependenv: [PATH, "/opt/mytool/bin", ":"]
  - info: ["loaded mytool"]
`

func TestParseFileYAML(t *testing.T) {
	p, err := ParseFile("package.yaml", []byte(yamlDef))
	require.NoError(t, err)
	assert.Equal(t, "mytool", p.Name)
	assert.Equal(t, "1.0.0", p.Version.String())
	require.Len(t, p.Requires, 1)
	assert.Equal(t, "python", p.Requires[0].Name)
	require.Len(t, p.Variants, 2)
	require.Len(t, p.Commands, 3)
	assert.Equal(t, OpSetenv, p.Commands[0].Op)
	assert.Equal(t, "MYTOOL_ROOT", p.Commands[0].Name)
	assert.Equal(t, OpPrependenv, p.Commands[1].Op)
	assert.Equal(t, ":", p.Commands[1].Separator)
}

const tomlDef = `
name = "mytool"
version = "1.0.0"
requires = ["python-3.9"]
tools = ["mytool"]
`

func TestParseFileTOML(t *testing.T) {
	p, err := ParseFile("package.toml", []byte(tomlDef))
	require.NoError(t, err)
	assert.Equal(t, "mytool", p.Name)
	require.Len(t, p.Requires, 1)
}

func TestParseFileUnknownExtension(t *testing.T) {
	_, err := ParseFile("package.py", []byte("x=1"))
	assert.Error(t, err)
}

func TestValidateNameMismatch(t *testing.T) {
	p, err := ParseFile("package.yaml", []byte(yamlDef))
	require.NoError(t, err)
	diags := Validate(p, "othername", "1.0.0")
	assert.False(t, Usable(diags))
}

func TestValidateVariantDuplicateName(t *testing.T) {
	p, err := ParseFile("package.yaml", []byte(`
name: dupvariant
version: "1.0.0"
variants:
  - [python-3.9, python-3.10]
`))
	require.NoError(t, err)
	diags := Validate(p, "", "")
	assert.False(t, Usable(diags))
}
