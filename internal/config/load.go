package config

import (
	_ "embed"
	"fmt"

	"github.com/dshills/keybind/internal/config/loader"
)

//go:embed default.toml
var defaultKeymap []byte

// LoadOptions configures Load.
type LoadOptions struct {
	// FS is the file system to read from. Default: the OS file system.
	FS loader.FileSystem

	// MaxDepth limits nested @include directives. Default: 8.
	MaxDepth int

	// SkipValidation returns the decoded file without checking references.
	SkipValidation bool
}

// Result is a loaded keymap file.
type Result struct {
	// File is the decoded keymap with includes merged.
	File *File

	// Files lists every file read, the root first.
	Files []string
}

// Load reads a keymap file, resolves its includes, decodes and validates
// it.
func Load(path string, opts LoadOptions) (*Result, error) {
	var loaderOpts []loader.Option
	if opts.FS != nil {
		loaderOpts = append(loaderOpts, loader.WithFS(opts.FS))
	}
	loaderOpts = append(loaderOpts, loader.WithAppendKeys(listKeys...))
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = loader.DefaultMaxDepth
	}

	doc, files, err := loader.New(loaderOpts...).LoadWithIncludes(path, opts.MaxDepth)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
	}

	f, err := Decode(doc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if !opts.SkipValidation {
		if err := f.Validate(); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}
	return &Result{File: f, Files: files}, nil
}

// Default returns the built-in keymap.
func Default() *File {
	doc, err := loader.Parse(loader.FormatTOML, "default.toml", defaultKeymap)
	if err != nil {
		panic("config: invalid built-in keymap: " + err.Error())
	}
	f, err := Decode(doc)
	if err != nil {
		panic("config: invalid built-in keymap: " + err.Error())
	}
	return f
}
