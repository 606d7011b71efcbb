package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/dshills/keybind/internal/input/keymap"
)

// Output formats.
const (
	outputAuto  = "auto"
	outputTable = "table"
	outputPlain = "plain"
	outputYAML  = "yaml"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("255")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffaa00")).Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff00")).Bold(true)
)

// printer writes command results in the selected format.
type printer struct {
	w      io.Writer
	format string
	styled bool
}

// newPrinter resolves "auto" to table on a terminal and plain otherwise.
func newPrinter(w io.Writer, format string) (*printer, error) {
	tty := isTerminal(w)
	switch strings.ToLower(format) {
	case "", outputAuto:
		if tty {
			return &printer{w: w, format: outputTable, styled: true}, nil
		}
		return &printer{w: w, format: outputPlain}, nil
	case outputTable:
		return &printer{w: w, format: outputTable, styled: tty}, nil
	case outputPlain:
		return &printer{w: w, format: outputPlain}, nil
	case outputYAML:
		return &printer{w: w, format: outputYAML}, nil
	default:
		return nil, fmt.Errorf("unknown output format %q", format)
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// table prints rows under headers. In YAML mode v is encoded instead.
func (p *printer) table(headers []string, rows [][]string, v any) error {
	switch p.format {
	case outputYAML:
		return p.yaml(v)
	case outputPlain:
		for _, row := range rows {
			if _, err := fmt.Fprintln(p.w, strings.Join(row, "\t")); err != nil {
				return err
			}
		}
		return nil
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(headers...).
		Rows(rows...)
	if p.styled {
		t.BorderStyle(borderStyle)
		t.StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	} else {
		t.StyleFunc(func(row, col int) lipgloss.Style { return cellStyle })
	}
	_, err := fmt.Fprintln(p.w, t)
	return err
}

func (p *printer) yaml(v any) error {
	enc := yaml.NewEncoder(p.w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}

// line prints a message; in YAML mode nothing is printed.
func (p *printer) line(format string, args ...any) {
	if p.format == outputYAML {
		return
	}
	fmt.Fprintf(p.w, format+"\n", args...)
}

// warn renders s as a warning on a styled terminal.
func (p *printer) warn(s string) string {
	if p.styled {
		return warnStyle.Render(s)
	}
	return s
}

// ok renders s as a success on a styled terminal.
func (p *printer) ok(s string) string {
	if p.styled {
		return okStyle.Render(s)
	}
	return s
}

// bindingView is the printed form of a binding.
type bindingView struct {
	Keys        string            `yaml:"keys"`
	Command     string            `yaml:"command,omitempty"`
	Params      map[string]string `yaml:"params,omitempty"`
	Context     string            `yaml:"context"`
	Scheme      string            `yaml:"scheme"`
	Kind        string            `yaml:"kind"`
	Locale      string            `yaml:"locale,omitempty"`
	Platform    string            `yaml:"platform,omitempty"`
	Description string            `yaml:"description,omitempty"`
}

func viewOf(b *keymap.Binding, describe func(string) string) bindingView {
	v := bindingView{
		Keys:     b.Sequence().String(),
		Command:  b.Command().ID,
		Params:   b.Command().Params,
		Context:  b.ContextID(),
		Scheme:   b.SchemeID(),
		Kind:     b.Kind().String(),
		Locale:   b.Locale(),
		Platform: b.Platform(),
	}
	if describe != nil && v.Command != "" {
		v.Description = describe(v.Command)
	}
	return v
}

func viewsOf(bindings []*keymap.Binding, describe func(string) string) []bindingView {
	out := make([]bindingView, 0, len(bindings))
	for _, b := range bindings {
		out = append(out, viewOf(b, describe))
	}
	return out
}

// bindingRows renders bindings as table rows.
func bindingRows(views []bindingView, bindings []*keymap.Binding) [][]string {
	rows := make([][]string, 0, len(views))
	for i, v := range views {
		rows = append(rows, []string{v.Keys, bindings[i].Command().String(), v.Context, v.Scheme, v.Description})
	}
	return rows
}

var bindingHeaders = []string{"KEYS", "COMMAND", "CONTEXT", "SCHEME", "DESCRIPTION"}
