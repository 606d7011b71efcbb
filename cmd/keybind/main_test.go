package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/dshills/keybind/internal/input/key"
	"github.com/dshills/keybind/internal/input/keymap"
)

// execute runs the root command and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(append([]string{"--platform", "linux"}, args...))
	err := root.Execute()
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const conflictingKeymap = `
[[bindings]]
keys = "Ctrl+D"
command = "first"
context = "editor"

[[bindings]]
keys = "Ctrl+D"
command = "second"
context = "editor"
`

func TestResolve(t *testing.T) {
	out, err := execute(t, "resolve", "-c", "editor", "Ctrl+S", "Ctrl+K", "Ctrl+K Ctrl+C", "F12")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "match\teditor.save\teditor\tdefault")
	assert.Contains(t, lines[1], "prefix\t2 continuations")
	assert.Contains(t, lines[2], "editor.comment")
	assert.Contains(t, lines[3], "unbound")
}

func TestResolveYAML(t *testing.T) {
	out, err := execute(t, "resolve", "-o", "yaml", "-c", "terminal", "Ctrl+Q")
	require.NoError(t, err)

	var views []resolveView
	require.NoError(t, yaml.Unmarshal([]byte(out), &views))
	require.Len(t, views, 1)
	assert.Equal(t, resultMatch, views[0].Result)
	require.NotNil(t, views[0].Binding)
	assert.Equal(t, "terminal.sendKey", views[0].Binding.Command)
	assert.Equal(t, map[string]string{"key": "Ctrl+Q"}, views[0].Binding.Params)
}

func TestResolveInvalidSequence(t *testing.T) {
	_, err := execute(t, "resolve", "Ctrl+")
	assert.Error(t, err)
}

func TestResolveSchemeFromEnv(t *testing.T) {
	t.Setenv("KEYBIND_SCHEME", "emacs")

	out, err := execute(t, "resolve", "-c", "editor", "Ctrl+S")
	require.NoError(t, err)
	assert.Contains(t, out, "search.incremental")
}

func TestSettingsFile(t *testing.T) {
	settings := writeFile(t, "keybind.yaml", "scheme: [vim]\ncontext: [editor.normal]\n")

	out, err := execute(t, "--config", settings, "resolve", "g g")
	require.NoError(t, err)
	assert.Contains(t, out, "cursor.moveFirstLine")
}

func TestSettingsFileMissing(t *testing.T) {
	_, err := execute(t, "--config", filepath.Join(t.TempDir(), "none.yaml"), "check")
	assert.Error(t, err)
}

func TestUnknownOutputFormat(t *testing.T) {
	_, err := execute(t, "list", "-o", "xml")
	assert.Error(t, err)
}

func TestList(t *testing.T) {
	out, err := execute(t, "list", "-c", "editor")
	require.NoError(t, err)
	assert.Contains(t, out, "editor.save")
	assert.Contains(t, out, "app.quit")
	assert.Contains(t, out, "Save the current file")
	assert.NotContains(t, out, "terminal.interrupt")
}

func TestListCommandFilter(t *testing.T) {
	out, err := execute(t, "list", "-c", "editor", "--command", "comment")
	require.NoError(t, err)
	assert.Contains(t, out, "editor.comment")
	assert.NotContains(t, out, "app.quit")
}

func TestMatchCommands(t *testing.T) {
	bind := func(keys, cmd string) *keymap.Binding {
		return keymap.NewBinding(key.MustParseSequence(keys), keymap.NewCommand(cmd, nil), "global", "default")
	}
	bindings := []*keymap.Binding{
		bind("Ctrl+A", "editor.saveAll"),
		bind("Ctrl+Q", "app.quit"),
		bind("Ctrl+S", "editor.save"),
	}

	got := matchCommands(bindings, "save")
	require.Len(t, got, 2)
	assert.Equal(t, "editor.save", got[0].Command().ID)
	assert.Equal(t, "editor.saveAll", got[1].Command().ID)
}

func TestContexts(t *testing.T) {
	out, err := execute(t, "contexts", "-c", "editor")
	require.NoError(t, err)
	assert.Contains(t, out, "global (Everywhere) *")
	assert.Contains(t, out, "editor (Text editor) *")
	assert.Contains(t, out, "editor.normal (Editor (normal mode))")
	assert.NotContains(t, out, "editor.normal (Editor (normal mode)) *")
}

func TestContextsYAML(t *testing.T) {
	out, err := execute(t, "contexts", "-o", "yaml", "-c", "terminal")
	require.NoError(t, err)

	var views []contextView
	require.NoError(t, yaml.Unmarshal([]byte(out), &views))

	byID := make(map[string]contextView)
	for _, v := range views {
		byID[v.ID] = v
	}
	assert.Equal(t, "global", byID["terminal"].Parent)
	assert.True(t, byID["terminal"].Active)
	assert.False(t, byID["editor"].Active)
}

func TestConflicts(t *testing.T) {
	path := writeFile(t, "keys.toml", conflictingKeymap)

	out, err := execute(t, "conflicts", "-k", path)
	assert.ErrorIs(t, err, errSilent)
	assert.Contains(t, out, "first")
	assert.Contains(t, out, "second")
	assert.Contains(t, out, "1 conflicts")
}

func TestNoConflicts(t *testing.T) {
	out, err := execute(t, "conflicts")
	require.NoError(t, err)
	assert.Contains(t, out, "no conflicts")
}

func TestCheck(t *testing.T) {
	out, err := execute(t, "check")
	require.NoError(t, err)
	assert.Contains(t, out, "schemes   [default]")
	assert.Contains(t, out, "ok")
}

func TestCheckStrict(t *testing.T) {
	path := writeFile(t, "keys.toml", conflictingKeymap)

	_, err := execute(t, "check", "-k", path)
	require.NoError(t, err)

	_, err = execute(t, "check", "--strict", "-k", path)
	assert.Error(t, err)
}

func TestCheckInvalid(t *testing.T) {
	path := writeFile(t, "keys.yaml", `
bindings:
  - keys: Ctrl+D
    command: a
    context: nowhere
`)

	_, err := execute(t, "check", "-k", path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown context")
}

func TestRunScript(t *testing.T) {
	script := writeFile(t, "init.lua", `
local keys = require("keys")
keys.bind{keys = "F5", command = "script.run"}
local h = keys.bind{keys = "F6", command = "script.gone"}
keys.unbind(h)
`)

	out, err := execute(t, "run", "-c", "editor", script)
	require.NoError(t, err)
	assert.Contains(t, out, "script.run")
	assert.Contains(t, out, "editor")
	assert.NotContains(t, out, "script.gone")
	assert.NotContains(t, out, "editor.save")
}

func TestRunScriptError(t *testing.T) {
	script := writeFile(t, "bad.lua", `require("keys").bind{command = "x"}`)

	_, err := execute(t, "run", script)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.lua")
}

func TestNewPrinter(t *testing.T) {
	var buf bytes.Buffer

	p, err := newPrinter(&buf, outputAuto)
	require.NoError(t, err)
	assert.Equal(t, outputPlain, p.format)

	p, err = newPrinter(&buf, "TABLE")
	require.NoError(t, err)
	assert.Equal(t, outputTable, p.format)
	assert.False(t, p.styled)

	require.NoError(t, p.table([]string{"A", "B"}, [][]string{{"1", "2"}}, nil))
	assert.Contains(t, buf.String(), "A")
	assert.Contains(t, buf.String(), "2")
}
