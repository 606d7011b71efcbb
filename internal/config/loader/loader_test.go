package loader

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
	"time"
)

// MemFS is an in-memory file system for testing.
type MemFS struct {
	files map[string][]byte
}

func NewMemFS() *MemFS {
	return &MemFS{files: make(map[string][]byte)}
}

func (m *MemFS) AddFile(path string, content string) {
	m.files[path] = []byte(content)
}

func (m *MemFS) Open(name string) (fs.File, error) {
	return nil, fs.ErrNotExist
}

func (m *MemFS) ReadFile(path string) ([]byte, error) {
	data, ok := m.files[path]
	if !ok {
		return nil, fs.ErrNotExist
	}
	return data, nil
}

func (m *MemFS) Stat(path string) (fs.FileInfo, error) {
	if _, ok := m.files[path]; ok {
		return &memFileInfo{name: path}, nil
	}
	return nil, fs.ErrNotExist
}

type memFileInfo struct {
	name string
}

func (f *memFileInfo) Name() string       { return f.name }
func (f *memFileInfo) Size() int64        { return 0 }
func (f *memFileInfo) Mode() fs.FileMode  { return 0644 }
func (f *memFileInfo) ModTime() time.Time { return time.Now() }
func (f *memFileInfo) IsDir() bool        { return false }
func (f *memFileInfo) Sys() any           { return nil }

func bindingKeys(t *testing.T, doc map[string]any) []string {
	t.Helper()
	list, ok := doc["bindings"].([]any)
	if !ok {
		t.Fatalf("bindings = %T, want []any", doc["bindings"])
	}
	var out []string
	for _, item := range list {
		m, ok := item.(map[string]any)
		if !ok {
			t.Fatalf("binding = %T, want map", item)
		}
		out = append(out, m["keys"].(string))
	}
	return out
}

func TestLoadFormats(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/k.toml", `
active_schemes = ["default"]

[[bindings]]
keys = "Ctrl+S"
command = "editor.save"
`)
	memfs.AddFile("/k.yaml", `
active_schemes: [default]
bindings:
  - keys: Ctrl+S
    command: editor.save
`)
	memfs.AddFile("/k.json", `{
  "active_schemes": ["default"],
  "bindings": [{"keys": "Ctrl+S", "command": "editor.save"}]
}`)

	l := New(WithFS(memfs))
	for _, path := range []string{"/k.toml", "/k.yaml", "/k.json"} {
		t.Run(path, func(t *testing.T) {
			doc, err := l.LoadFrom(path)
			if err != nil {
				t.Fatalf("LoadFrom failed: %v", err)
			}
			keys := bindingKeys(t, doc)
			if len(keys) != 1 || keys[0] != "Ctrl+S" {
				t.Errorf("keys = %v, want [Ctrl+S]", keys)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	l := New(WithFS(NewMemFS()))

	doc, err := l.LoadFrom("/missing.toml")
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if doc != nil {
		t.Errorf("expected nil document, got %v", doc)
	}
}

func TestLoadUnsupportedFormat(t *testing.T) {
	l := New(WithFS(NewMemFS()))

	_, err := l.LoadFrom("/keys.ini")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestParseErrorPosition(t *testing.T) {
	tests := []struct {
		name     string
		format   Format
		data     string
		wantLine int
	}{
		{"toml", FormatTOML, "a = 1\nb = = 2\n", 2},
		{"json", FormatJSON, "{\n  \"a\": 1,\n  oops\n}", 3},
		{"yaml", FormatYAML, "a: 1\nb: [1, 2\n", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.format, "test."+string(tt.format), []byte(tt.data))
			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error = %v, want *ParseError", err)
			}
			if pe.Path != "test."+string(tt.format) {
				t.Errorf("Path = %q", pe.Path)
			}
			if tt.wantLine > 0 && pe.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d", pe.Line, tt.wantLine)
			}
			if !strings.Contains(pe.Error(), "parse error in") {
				t.Errorf("Error() = %q", pe.Error())
			}
		})
	}
}

func TestLoadWithIncludes(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/keys/base.toml", `
active_schemes = ["default"]
locale = "en"

[[bindings]]
keys = "Ctrl+C"
command = "edit.copy"
`)
	memfs.AddFile("/keys/main.yaml", `
"@include": base.toml
active_schemes: [emacs]
bindings:
  - keys: Ctrl+S
    command: editor.save
`)

	l := New(WithFS(memfs), WithAppendKeys("bindings"))
	doc, files, err := l.LoadWithIncludes("/keys/main.yaml", DefaultMaxDepth)
	if err != nil {
		t.Fatalf("LoadWithIncludes failed: %v", err)
	}

	if len(files) != 2 || files[0] != "/keys/main.yaml" || files[1] != "/keys/base.toml" {
		t.Errorf("files = %v", files)
	}
	if _, ok := doc["@include"]; ok {
		t.Error("@include should be removed from the result")
	}

	keys := bindingKeys(t, doc)
	if len(keys) != 2 || keys[0] != "Ctrl+C" || keys[1] != "Ctrl+S" {
		t.Errorf("keys = %v, want included bindings first", keys)
	}

	schemes, _ := doc["active_schemes"].([]any)
	if len(schemes) != 1 || schemes[0] != "emacs" {
		t.Errorf("active_schemes = %v, want main file to win", schemes)
	}
	if doc["locale"] != "en" {
		t.Errorf("locale = %v, want inherited en", doc["locale"])
	}
}

func TestLoadWithIncludesDepth(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/a.toml", `"@include" = "b.toml"`)
	memfs.AddFile("/b.toml", `"@include" = "a.toml"`)

	l := New(WithFS(memfs))
	_, _, err := l.LoadWithIncludes("/a.toml", 4)
	if !errors.Is(err, ErrIncludeDepthExceeded) {
		t.Errorf("error = %v, want ErrIncludeDepthExceeded", err)
	}
}

func TestLoadWithIncludesInvalid(t *testing.T) {
	memfs := NewMemFS()
	memfs.AddFile("/a.toml", `"@include" = 42`)

	l := New(WithFS(memfs))
	_, _, err := l.LoadWithIncludes("/a.toml", DefaultMaxDepth)
	if !errors.Is(err, ErrInvalidInclude) {
		t.Errorf("error = %v, want ErrInvalidInclude", err)
	}
}

func TestLoadFromReader(t *testing.T) {
	l := New()
	doc, err := l.LoadFromReader(strings.NewReader(`locale = "de_CH"`), FormatTOML)
	if err != nil {
		t.Fatalf("LoadFromReader failed: %v", err)
	}
	if doc["locale"] != "de_CH" {
		t.Errorf("locale = %v", doc["locale"])
	}
}

func TestParseFormat(t *testing.T) {
	for name, want := range map[string]Format{"toml": FormatTOML, "yml": FormatYAML, ".yaml": FormatYAML, "JSON": FormatJSON} {
		got, err := ParseFormat(name)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", name, got, err, want)
		}
	}
	if _, err := ParseFormat("xml"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ParseFormat(xml) error = %v", err)
	}
}

func TestDeepMerge(t *testing.T) {
	dst := map[string]any{
		"a": 1,
		"nested": map[string]any{
			"x": 1,
			"y": 2,
		},
	}
	src := map[string]any{
		"b": 2,
		"nested": map[string]any{
			"y": 3,
			"z": 4,
		},
	}

	result := DeepMerge(dst, src)

	if result["a"] != 1 || result["b"] != 2 {
		t.Errorf("top-level merge wrong: %v", result)
	}
	nested := result["nested"].(map[string]any)
	if nested["x"] != 1 || nested["y"] != 3 || nested["z"] != 4 {
		t.Errorf("nested merge wrong: %v", nested)
	}
}

func TestClone(t *testing.T) {
	original := map[string]any{
		"list":   []any{map[string]any{"k": "v"}},
		"nested": map[string]any{"x": 1},
	}

	clone := Clone(original)
	clone["nested"].(map[string]any)["x"] = 2
	clone["list"].([]any)[0].(map[string]any)["k"] = "changed"

	if original["nested"].(map[string]any)["x"] != 1 {
		t.Error("modifying clone should not affect original map")
	}
	if original["list"].([]any)[0].(map[string]any)["k"] != "v" {
		t.Error("modifying clone should not affect original list")
	}
}
