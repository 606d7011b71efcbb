package keymap

import (
	"cmp"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/dshills/keybind/internal/input/key"
)

// EnabledFunc reports whether a command can currently run. It is supplied
// by the host; the engine only caches its answers.
type EnabledFunc func(commandID string) bool

// State is the resolution state of one key sequence within a table.
type State uint8

const (
	// StateEmpty means no binding is registered for the sequence.
	StateEmpty State = iota

	// StateResolved means exactly one binding wins the sequence.
	StateResolved

	// StateConflicted means two or more bindings tie for the sequence.
	StateConflicted
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateEmpty:
		return "empty"
	case StateResolved:
		return "resolved"
	case StateConflicted:
		return "conflicted"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// Table holds every binding declared for one context.
//
// For each key sequence the table keeps all candidates ordered best first.
// The winner is installed in the sequence, command and prefix indexes;
// ties at every ranking level are recorded as conflicts instead.
// All index keys are key.Sequence.ID and Command.Key values.
type Table struct {
	id      string
	cmp     Comparator
	enabled EnabledFunc
	log     logrus.FieldLogger

	byTrigger map[string]*Binding
	byCommand map[string][]*Binding
	byPrefix  map[string]map[*Binding]struct{}
	pending   map[string][]*Binding
	conflicts map[string][]*Binding

	activeCache map[*Binding]bool
}

// NewTable creates an empty table for the given context id.
func NewTable(contextID string, cmp Comparator, enabled EnabledFunc, log logrus.FieldLogger) *Table {
	if log == nil {
		log = discardLogger()
	}
	return &Table{
		id:          contextID,
		cmp:         cmp,
		enabled:     enabled,
		log:         log.WithField("context", contextID),
		byTrigger:   make(map[string]*Binding),
		byCommand:   make(map[string][]*Binding),
		byPrefix:    make(map[string]map[*Binding]struct{}),
		pending:     make(map[string][]*Binding),
		conflicts:   make(map[string][]*Binding),
		activeCache: make(map[*Binding]bool),
	}
}

// ID returns the context id the table belongs to.
func (t *Table) ID() string {
	return t.id
}

// AddBinding registers a binding and re-resolves its sequence.
// Adding a binding that is already registered does nothing.
func (t *Table) AddBinding(b *Binding) error {
	if err := t.check(b); err != nil {
		return err
	}

	id := b.sequence.ID()
	list := t.pending[id]
	if slices.Contains(list, b) {
		return nil
	}
	t.pending[id] = append(list, b)

	t.log.WithFields(logrus.Fields{
		"trigger": b.sequence.String(),
		"command": b.command.String(),
		"scheme":  b.schemeID,
	}).Debug("binding added")

	t.resolve(id)
	return nil
}

// RemoveBinding unregisters a binding and re-resolves its sequence.
func (t *Table) RemoveBinding(b *Binding) error {
	if err := t.check(b); err != nil {
		return err
	}

	id := b.sequence.ID()
	list := t.pending[id]
	i := slices.Index(list, b)
	if i < 0 {
		return fmt.Errorf("%w: %s", ErrBindingNotFound, b)
	}
	t.pending[id] = slices.Delete(list, i, i+1)
	if t.byTrigger[id] == b {
		t.uninstall(id)
	}
	delete(t.activeCache, b)

	t.log.WithFields(logrus.Fields{
		"trigger": b.sequence.String(),
		"command": b.command.String(),
	}).Debug("binding removed")

	t.resolve(id)
	return nil
}

func (t *Table) check(b *Binding) error {
	if err := b.Validate(); err != nil {
		return err
	}
	if b.contextID != t.id {
		return fmt.Errorf("%w: binding %s belongs to %q, table is %q",
			ErrContextMismatch, b.sequence, b.contextID, t.id)
	}
	return nil
}

// resolve re-derives the state of one sequence from its candidate list.
func (t *Table) resolve(id string) {
	list := t.pending[id]
	if len(list) == 0 {
		delete(t.pending, id)
		delete(t.conflicts, id)
		t.uninstall(id)
		return
	}

	t.cmp.Sort(list)

	if len(list) == 1 || t.cmp.Compare(list[0], list[1]) < 0 {
		delete(t.conflicts, id)
		t.install(id, list[0])
		return
	}

	n := 2
	for n < len(list) && t.cmp.Compare(list[0], list[n]) == 0 {
		n++
	}
	t.uninstall(id)
	t.conflicts[id] = slices.Clone(list[:n])

	t.log.WithFields(logrus.Fields{
		"trigger":    list[0].sequence.String(),
		"candidates": n,
	}).Warn("conflicting bindings")
}

// install makes b the winner for the sequence.
func (t *Table) install(id string, b *Binding) {
	current := t.byTrigger[id]
	if current == b {
		return
	}
	if current != nil {
		t.uninstall(id)
	}

	t.byTrigger[id] = b

	if !b.command.IsZero() {
		ck := b.command.Key()
		list := append(t.byCommand[ck], b)
		t.cmp.Sort(list)
		t.byCommand[ck] = list
	}

	for _, p := range b.sequence.StrictPrefixes() {
		set := t.byPrefix[p.ID()]
		if set == nil {
			set = make(map[*Binding]struct{})
			t.byPrefix[p.ID()] = set
		}
		set[b] = struct{}{}
	}
}

// uninstall removes the current winner for the sequence, if any, from
// every derived index.
func (t *Table) uninstall(id string) {
	b := t.byTrigger[id]
	if b == nil {
		return
	}
	delete(t.byTrigger, id)

	if !b.command.IsZero() {
		ck := b.command.Key()
		list := slices.DeleteFunc(t.byCommand[ck], func(x *Binding) bool { return x == b })
		if len(list) == 0 {
			delete(t.byCommand, ck)
		} else {
			t.byCommand[ck] = list
		}
	}

	for _, p := range b.sequence.StrictPrefixes() {
		set := t.byPrefix[p.ID()]
		delete(set, b)
		if len(set) == 0 {
			delete(t.byPrefix, p.ID())
		}
	}
}

// setComparator replaces the ranking and re-resolves every sequence.
func (t *Table) setComparator(c Comparator) {
	t.cmp = c
	for id := range t.pending {
		t.resolve(id)
	}
	for ck, list := range t.byCommand {
		t.cmp.Sort(list)
		t.byCommand[ck] = list
	}
}

// isActive reports whether the binding's command is enabled. Answers are
// cached until ActivitiesChanged.
func (t *Table) isActive(b *Binding) bool {
	if b.command.IsZero() {
		return false
	}
	if active, ok := t.activeCache[b]; ok {
		return active
	}
	active := t.enabled == nil || t.enabled(b.command.ID)
	t.activeCache[b] = active
	return active
}

// ActivitiesChanged drops every cached enablement answer. Until it is
// called, the table keeps answering from the cache even if the host's
// predicate would now answer differently.
func (t *Table) ActivitiesChanged() {
	clear(t.activeCache)
}

// activeOf filters bindings through isActive, preserving order.
func (t *Table) activeOf(bindings []*Binding) []*Binding {
	var out []*Binding
	for _, b := range bindings {
		if t.isActive(b) {
			out = append(out, b)
		}
	}
	return out
}

// State returns the resolution state of a sequence.
func (t *Table) State(seq key.Sequence) State {
	id := seq.ID()
	switch {
	case t.byTrigger[id] != nil:
		return StateResolved
	case len(t.conflicts[id]) > 0:
		return StateConflicted
	default:
		return StateEmpty
	}
}

// Winner returns the installed binding for the sequence regardless of
// whether its command is enabled.
func (t *Table) Winner(seq key.Sequence) *Binding {
	return t.byTrigger[seq.ID()]
}

// Candidates returns every binding registered for the sequence, best first.
func (t *Table) Candidates(seq key.Sequence) []*Binding {
	return slices.Clone(t.pending[seq.ID()])
}

// PerfectMatch returns the active binding for exactly this sequence.
func (t *Table) PerfectMatch(seq key.Sequence) *Binding {
	b := t.byTrigger[seq.ID()]
	if b == nil || !t.isActive(b) {
		return nil
	}
	return b
}

// IsPartialMatch reports whether seq is a strict prefix of an active binding.
func (t *Table) IsPartialMatch(seq key.Sequence) bool {
	for b := range t.byPrefix[seq.ID()] {
		if t.isActive(b) {
			return true
		}
	}
	return false
}

// PartialMatches returns the active bindings that seq is a strict prefix
// of, best first.
func (t *Table) PartialMatches(seq key.Sequence) []*Binding {
	set := t.byPrefix[seq.ID()]
	if len(set) == 0 {
		return nil
	}
	list := make([]*Binding, 0, len(set))
	for b := range set {
		list = append(list, b)
	}
	t.cmp.Sort(list)
	return t.activeOf(list)
}

// BestSequenceFor returns the best active binding for the command.
func (t *Table) BestSequenceFor(cmd Command) *Binding {
	for _, b := range t.byCommand[cmd.Key()] {
		if t.isActive(b) {
			return b
		}
	}
	return nil
}

// BindingsFor returns the active bindings for the command, best first.
func (t *Table) BindingsFor(cmd Command) []*Binding {
	return t.activeOf(t.byCommand[cmd.Key()])
}

// SequencesFor returns the key sequences of the active bindings for the
// command, best first.
func (t *Table) SequencesFor(cmd Command) []key.Sequence {
	var out []key.Sequence
	for _, b := range t.BindingsFor(cmd) {
		out = append(out, b.sequence)
	}
	return out
}

// Bindings returns every installed, active binding ordered by sequence.
func (t *Table) Bindings() []*Binding {
	list := make([]*Binding, 0, len(t.byTrigger))
	for _, b := range t.byTrigger {
		list = append(list, b)
	}
	slices.SortFunc(list, compareRecords)
	return t.activeOf(list)
}

// ConflictsFor returns the tied bindings for a sequence. Conflicts are
// reported whether or not the commands are enabled.
func (t *Table) ConflictsFor(seq key.Sequence) []*Binding {
	return slices.Clone(t.conflicts[seq.ID()])
}

// Conflicts returns every conflict in the table ordered by sequence.
func (t *Table) Conflicts() [][]*Binding {
	out := make([][]*Binding, 0, len(t.conflicts))
	for _, list := range t.conflicts {
		out = append(out, slices.Clone(list))
	}
	slices.SortFunc(out, func(a, b []*Binding) int {
		return cmp.Compare(a[0].sequence.String(), b[0].sequence.String())
	})
	return out
}

// Len returns the number of registered bindings, winners and losers.
func (t *Table) Len() int {
	n := 0
	for _, list := range t.pending {
		n += len(list)
	}
	return n
}

// IsEmpty reports whether the table has no bindings.
func (t *Table) IsEmpty() bool {
	return len(t.pending) == 0
}
