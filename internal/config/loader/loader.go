// Package loader reads keymap files.
//
// The loader package parses TOML, YAML and JSON files into generic maps,
// resolves @include directives and merges included files beneath the
// including file.
package loader

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
)

// DefaultMaxDepth limits nested @include directives.
const DefaultMaxDepth = 8

// Errors returned by the loader.
var (
	// ErrUnsupportedFormat indicates a file extension with no parser.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	// ErrIncludeDepthExceeded indicates too many nested @include directives.
	ErrIncludeDepthExceeded = errors.New("include depth exceeded")

	// ErrInvalidInclude indicates a malformed @include value.
	ErrInvalidInclude = errors.New("@include must be string or array of strings")
)

// FileSystem is an abstraction for file system operations.
// This allows for easy testing with in-memory file systems.
type FileSystem interface {
	fs.FS
	// ReadFile reads the entire file at path.
	ReadFile(path string) ([]byte, error)
	// Stat returns file info for path.
	Stat(path string) (fs.FileInfo, error)
}

// OSFS implements FileSystem using the real OS file system.
type OSFS struct{}

// Open implements fs.FS.
func (OSFS) Open(name string) (fs.File, error) {
	return os.Open(name)
}

// ReadFile reads the entire file at path.
func (OSFS) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Stat returns file info for path.
func (OSFS) Stat(path string) (fs.FileInfo, error) {
	return os.Stat(path)
}

// DefaultFS returns the default file system (OS).
func DefaultFS() FileSystem {
	return OSFS{}
}

// Loader loads keymap files in any supported format.
type Loader struct {
	fs         FileSystem
	appendKeys []string
}

// Option configures a Loader.
type Option func(*Loader)

// WithFS sets the file system. Default: the OS file system.
func WithFS(fsys FileSystem) Option {
	return func(l *Loader) {
		l.fs = fsys
	}
}

// WithAppendKeys names top-level list keys whose entries accumulate across
// included files instead of being replaced.
func WithAppendKeys(keys ...string) Option {
	return func(l *Loader) {
		l.appendKeys = append(l.appendKeys, keys...)
	}
}

// New creates a loader.
func New(opts ...Option) *Loader {
	l := &Loader{fs: DefaultFS()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// LoadFrom reads a single file. Returns nil, nil if the file doesn't
// exist.
func (l *Loader) LoadFrom(path string) (map[string]any, error) {
	format, err := FormatOf(path)
	if err != nil {
		return nil, err
	}

	data, err := l.fs.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading keymap file %s: %w", path, err)
	}

	return Parse(format, path, data)
}

// LoadFromReader reads a document of the given format from r.
func (l *Loader) LoadFromReader(r io.Reader, format Format) (map[string]any, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading keymap: %w", err)
	}
	return Parse(format, "<reader>", data)
}

// LoadWithIncludes loads a file and processes @include directives. It
// returns the merged document and every file read, the root first.
// Included files are lower priority than the including file. Missing
// files load as empty documents.
func (l *Loader) LoadWithIncludes(path string, maxDepth int) (map[string]any, []string, error) {
	var files []string
	doc, err := l.loadWithIncludes(path, maxDepth, &files)
	if err != nil {
		return nil, files, err
	}
	return doc, files, nil
}

func (l *Loader) loadWithIncludes(path string, maxDepth int, files *[]string) (map[string]any, error) {
	if maxDepth <= 0 {
		return nil, fmt.Errorf("%w: %s", ErrIncludeDepthExceeded, path)
	}

	doc, err := l.LoadFrom(path)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(*files, path) {
		*files = append(*files, path)
	}
	if doc == nil {
		return nil, nil
	}

	includes, ok := doc["@include"]
	if !ok {
		return doc, nil
	}
	delete(doc, "@include")

	includeList, err := includePaths(includes)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	baseDir := filepath.Dir(path)
	var merged map[string]any
	for _, inc := range includeList {
		incPath := inc
		if !filepath.IsAbs(inc) {
			incPath = filepath.Join(baseDir, inc)
		}

		incDoc, err := l.loadWithIncludes(incPath, maxDepth-1, files)
		if err != nil {
			return nil, fmt.Errorf("loading include %s: %w", incPath, err)
		}
		merged = l.merge(merged, incDoc)
	}

	// The including file overrides its includes.
	return l.merge(merged, doc), nil
}

func includePaths(v any) ([]string, error) {
	switch v := v.(type) {
	case string:
		return []string{v}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, ErrInvalidInclude
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w, got %T", ErrInvalidInclude, v)
	}
}

// merge deep-merges src over dst, concatenating the configured list keys.
func (l *Loader) merge(dst, src map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any)
	}
	for _, k := range l.appendKeys {
		srcList, srcOK := src[k].([]any)
		dstList, dstOK := dst[k].([]any)
		if srcOK && dstOK {
			src = Clone(src)
			src[k] = append(slices.Clip(dstList), srcList...)
		}
	}
	return DeepMerge(dst, src)
}

// Format identifies a keymap file syntax.
type Format string

// Supported formats.
const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// FormatOf returns the format for a file name by extension.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}

// ParseFormat parses a format name such as "toml" or "yml".
func ParseFormat(name string) (Format, error) {
	return FormatOf("x." + strings.TrimPrefix(name, "."))
}
