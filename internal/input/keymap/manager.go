package keymap

import (
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/dshills/keybind/internal/input/key"
)

// Manager owns the binding tables, one per context id, and answers
// queries across a ContextSet.
type Manager struct {
	tables  map[string]*Table
	defined map[string]struct{}

	schemes []string
	enabled EnabledFunc
	lookup  ContextLookup
	log     logrus.FieldLogger
}

// Option configures a Manager.
type Option func(*Manager)

// WithSchemes sets the active scheme ids, highest priority first.
func WithSchemes(ids ...string) Option {
	return func(m *Manager) {
		m.schemes = slices.Clone(ids)
	}
}

// WithEnabled sets the command enablement predicate. Without it every
// bound command is considered enabled.
func WithEnabled(fn EnabledFunc) Option {
	return func(m *Manager) {
		m.enabled = fn
	}
}

// WithContextLookup sets the context definitions used by DefinedTables.
func WithContextLookup(lookup ContextLookup) Option {
	return func(m *Manager) {
		m.lookup = lookup
	}
}

// WithLogger sets the logger. The default discards all output.
func WithLogger(log logrus.FieldLogger) Option {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// NewManager creates an empty manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		tables:  make(map[string]*Table),
		defined: make(map[string]struct{}),
		log:     discardLogger(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// tableComparator ranks bindings inside one table, where every binding
// shares a context.
func (m *Manager) tableComparator() Comparator {
	return NewComparator(m.schemes, nil)
}

// AddTable returns the table for contextID, creating it if needed.
func (m *Manager) AddTable(contextID string) *Table {
	if t, ok := m.tables[contextID]; ok {
		return t
	}
	t := NewTable(contextID, m.tableComparator(), m.enabled, m.log)
	m.tables[contextID] = t
	m.defined[contextID] = struct{}{}
	return t
}

// RemoveTable discards the table for contextID and all of its bindings.
func (m *Manager) RemoveTable(contextID string) {
	delete(m.tables, contextID)
}

// Table returns the table for contextID, or nil.
func (m *Manager) Table(contextID string) *Table {
	return m.tables[contextID]
}

// Tables returns the context ids that currently have a table, sorted.
func (m *Manager) Tables() []string {
	return slices.Sorted(maps.Keys(m.tables))
}

// DefinedTables returns every context that ever had a table, with its
// ancestors, as a ContextSet.
func (m *Manager) DefinedTables() ContextSet {
	cs, err := NewContextSet(m.lookup, slices.Sorted(maps.Keys(m.defined)))
	if err != nil {
		m.log.WithError(err).Warn("context definitions contain a cycle")
	}
	return cs
}

// AddBinding adds b to the table for its context, creating the table.
func (m *Manager) AddBinding(b *Binding) error {
	if err := b.Validate(); err != nil {
		return err
	}
	return m.AddTable(b.contextID).AddBinding(b)
}

// RemoveBinding removes b from the table for its context. An emptied
// table is kept so later additions reuse it.
func (m *Manager) RemoveBinding(b *Binding) error {
	if err := b.Validate(); err != nil {
		return err
	}
	t := m.tables[b.contextID]
	if t == nil {
		return fmt.Errorf("%w: no table for context %q", ErrBindingNotFound, b.contextID)
	}
	return t.RemoveBinding(b)
}

// SetActiveSchemes replaces the scheme priority list and re-ranks every
// table.
func (m *Manager) SetActiveSchemes(ids []string) {
	m.schemes = slices.Clone(ids)
	c := m.tableComparator()
	for _, t := range m.tables {
		t.setComparator(c)
	}
	m.log.WithField("schemes", ids).Debug("active schemes changed")
}

// ActiveSchemes returns the scheme priority list.
func (m *Manager) ActiveSchemes() []string {
	return slices.Clone(m.schemes)
}

// ActivitiesChanged drops the cached enablement answers of every table.
func (m *Manager) ActivitiesChanged() {
	for _, t := range m.tables {
		t.ActivitiesChanged()
	}
}

// Comparator returns the ranking used across the contexts of cs.
func (m *Manager) Comparator(cs ContextSet) Comparator {
	return NewComparator(m.schemes, cs.depthFunc())
}

// tablesIn returns the tables of cs from least to most specific.
func (m *Manager) tablesIn(cs ContextSet) []*Table {
	var out []*Table
	for _, id := range cs.ids {
		if t := m.tables[id]; t != nil {
			out = append(out, t)
		}
	}
	return out
}

// PerfectMatch returns the active binding for exactly seq in cs, or nil.
//
// Contexts are walked from least to most specific. A more specific match
// replaces the current one unless the current one's scheme ranks higher,
// so the most specific context wins and scheme priority can override it.
func (m *Manager) PerfectMatch(cs ContextSet, seq key.Sequence) *Binding {
	c := m.Comparator(cs)
	var best *Binding
	for _, t := range m.tablesIn(cs) {
		b := t.PerfectMatch(seq)
		if b == nil {
			continue
		}
		if best == nil || c.compareSchemes(best.schemeID, b.schemeID) >= 0 {
			best = b
		}
	}
	return best
}

// IsPartialMatch reports whether seq is a strict prefix of an active
// binding in any context of cs.
func (m *Manager) IsPartialMatch(cs ContextSet, seq key.Sequence) bool {
	for _, t := range m.tablesIn(cs) {
		if t.IsPartialMatch(seq) {
			return true
		}
	}
	return false
}

// PartialMatches returns the active bindings in cs that seq is a strict
// prefix of, best first.
func (m *Manager) PartialMatches(cs ContextSet, seq key.Sequence) []*Binding {
	var out []*Binding
	for _, t := range m.tablesIn(cs) {
		out = append(out, t.PartialMatches(seq)...)
	}
	m.Comparator(cs).Sort(out)
	return out
}

// BindingsFor returns the active bindings for cmd in cs, best first.
func (m *Manager) BindingsFor(cs ContextSet, cmd Command) []*Binding {
	var out []*Binding
	for _, t := range m.tablesIn(cs) {
		out = append(out, t.BindingsFor(cmd)...)
	}
	m.Comparator(cs).Sort(out)
	return out
}

// BestSequenceFor returns the canonical binding shown for cmd, or nil.
func (m *Manager) BestSequenceFor(cs ContextSet, cmd Command) *Binding {
	list := m.BindingsFor(cs, cmd)
	if len(list) == 0 {
		return nil
	}
	return list[0]
}

// SequencesFor returns the key sequences bound to cmd in cs, best first.
func (m *Manager) SequencesFor(cs ContextSet, cmd Command) []key.Sequence {
	var out []key.Sequence
	for _, b := range m.BindingsFor(cs, cmd) {
		out = append(out, b.sequence)
	}
	return out
}

// ActiveBindings returns, for every sequence bound in cs, the binding
// PerfectMatch resolves it to, ordered by sequence.
func (m *Manager) ActiveBindings(cs ContextSet) []*Binding {
	seqs := make(map[string]key.Sequence)
	for _, t := range m.tablesIn(cs) {
		for _, b := range t.Bindings() {
			seqs[b.sequence.ID()] = b.sequence
		}
	}

	out := make([]*Binding, 0, len(seqs))
	for _, seq := range seqs {
		if b := m.PerfectMatch(cs, seq); b != nil {
			out = append(out, b)
		}
	}
	slices.SortFunc(out, compareRecords)
	return out
}

// ConflictsFor returns the tied bindings for seq in every context of cs.
func (m *Manager) ConflictsFor(cs ContextSet, seq key.Sequence) []*Binding {
	var out []*Binding
	for _, t := range m.tablesIn(cs) {
		out = append(out, t.ConflictsFor(seq)...)
	}
	return out
}

// AllConflicts returns every conflict in every table, ordered by context
// and then by sequence.
func (m *Manager) AllConflicts() [][]*Binding {
	var out [][]*Binding
	for _, id := range m.Tables() {
		out = append(out, m.tables[id].Conflicts()...)
	}
	return out
}
