// Package app wires the binding engine to its collaborators: keymap
// files, the context registry, command conditions, live reload and the
// stroke handler.
package app

import (
	"errors"
	"fmt"
	"maps"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dshills/keybind/internal/config"
	"github.com/dshills/keybind/internal/config/loader"
	"github.com/dshills/keybind/internal/config/watcher"
	"github.com/dshills/keybind/internal/input"
	"github.com/dshills/keybind/internal/input/key"
	"github.com/dshills/keybind/internal/input/keymap"
	"github.com/dshills/keybind/internal/input/scope"
	"github.com/dshills/keybind/internal/input/when"
)

// Options configures an Engine.
type Options struct {
	// Path is the user keymap file. Empty uses the built-in keymap only.
	Path string

	// NoDefaults skips the built-in keymap.
	NoDefaults bool

	// Locale overrides the keymap's locale, e.g. "de_CH".
	Locale string

	// Platform overrides the keymap's platform. Default: the file's, then
	// runtime.GOOS.
	Platform string

	// Schemes overrides the keymap's active schemes.
	Schemes []string

	// Active lists the contexts activated after loading, besides global.
	Active []string

	// FS is the file system keymaps are read from. Default: the OS.
	FS loader.FileSystem

	// Logger receives engine logs. Default: discard.
	Logger logrus.FieldLogger
}

// ReloadEvent reports the outcome of a load.
type ReloadEvent struct {
	// Generation identifies the load that produced the current bindings.
	Generation string

	// Files are the keymap files read, the root first.
	Files []string

	// Added and Removed count the bindings swapped in and out.
	Added, Removed int

	// Err is set when the load failed; the previous bindings stay.
	Err error
}

// Resolution is the answer for one key sequence in the active contexts.
type Resolution struct {
	Sequence key.Sequence

	// Binding is the exact match, or nil.
	Binding *keymap.Binding

	// Continuations are the bindings the sequence is a strict prefix of.
	Continuations []*keymap.Binding

	// Conflicts are tied bindings hiding the sequence, if any.
	Conflicts []*keymap.Binding
}

// Engine is the locked façade over a keymap.Manager. Every method is safe
// for concurrent use.
type Engine struct {
	mu sync.Mutex

	// reloadMu serializes loads.
	reloadMu sync.Mutex

	opts Options
	log  logrus.FieldLogger

	manager *keymap.Manager
	scopes  *scope.Registry
	when    *when.Evaluator
	env     atomic.Value // when.EnvFunc

	file  *config.File
	files []string

	// loaded holds the file bindings and scripted the AddBinding ones.
	// Only those whose scheme is in the manager's priority list are in
	// its tables.
	loaded     []*keymap.Binding
	scripted   []*keymap.Binding
	contexts   map[string]struct{}
	generation string

	watcher  *watcher.Watcher
	onReload []func(ReloadEvent)

	closed bool
}

// New creates an engine and performs the first load.
func New(opts Options) (*Engine, error) {
	log := opts.Logger
	if log == nil {
		log = discardLogger()
	}

	e := &Engine{
		opts:     opts,
		log:      log,
		scopes:   scope.NewRegistry(scope.WithLogger(log)),
		contexts: make(map[string]struct{}),
	}
	e.env.Store(when.EnvFunc(func() map[string]any { return nil }))
	e.when = when.New(
		when.WithEnv(func() map[string]any { return e.env.Load().(when.EnvFunc)() }),
		when.WithLogger(log),
	)
	e.manager = keymap.NewManager(
		keymap.WithEnabled(e.when.Func()),
		keymap.WithContextLookup(e.scopes),
		keymap.WithLogger(log),
	)

	if err := e.Reload(); err != nil {
		return nil, err
	}
	active := append([]string{config.DefaultContext}, opts.Active...)
	if err := e.scopes.SetActive(active...); err != nil {
		return nil, NewOperationError("activate", "", err)
	}
	return e, nil
}

// readKeymap loads the built-in keymap and layers the user file over it.
func (e *Engine) readKeymap() (*config.File, []string, error) {
	f := &config.File{}
	if !e.opts.NoDefaults {
		f = config.Default()
	}

	var files []string
	if e.opts.Path != "" {
		res, err := config.Load(e.opts.Path, config.LoadOptions{FS: e.opts.FS, SkipValidation: true})
		if err != nil {
			return nil, nil, err
		}
		f.Merge(res.File)
		files = res.Files
	}

	if err := f.Validate(); err != nil {
		return nil, nil, err
	}
	return f, files, nil
}

// filter returns the locale and platform filter for f.
func (e *Engine) filter(f *config.File) keymap.Filter {
	locale := e.opts.Locale
	if locale == "" {
		locale = f.Locale
	}
	platform := e.opts.Platform
	if platform == "" {
		platform = f.Platform
	}
	if platform == "" {
		platform = runtime.GOOS
	}
	return keymap.NewFilter(locale, platform)
}

// Reload reads the keymap again and swaps its bindings in. Bindings added
// through AddBinding are kept. On failure the previous bindings stay and
// the error is returned.
func (e *Engine) Reload() error {
	ev := e.reload()
	e.mu.Lock()
	handlers := slices.Clone(e.onReload)
	e.mu.Unlock()

	for _, fn := range handlers {
		fn(ev)
	}
	return ev.Err
}

func (e *Engine) reload() ReloadEvent {
	e.reloadMu.Lock()
	defer e.reloadMu.Unlock()

	f, files, err := e.readKeymap()
	if err == nil {
		var bindings []*keymap.Binding
		bindings, err = f.Compile(e.filter(f))
		if err == nil {
			return e.apply(f, files, bindings)
		}
	}

	err = NewOperationError("load", e.opts.Path, err)
	e.log.WithError(err).WithField("path", e.opts.Path).Error("keymap load failed")

	e.mu.Lock()
	defer e.mu.Unlock()
	return ReloadEvent{Generation: e.generation, Files: slices.Clone(e.files), Err: err}
}

// apply installs a loaded keymap.
func (e *Engine) apply(f *config.File, files []string, bindings []*keymap.Binding) ReloadEvent {
	e.mu.Lock()
	priority, err := f.SchemePriority(e.opts.Schemes...)
	if err != nil {
		defer e.mu.Unlock()
		return ReloadEvent{
			Generation: e.generation,
			Files:      slices.Clone(e.files),
			Err:        NewOperationError("load", e.opts.Path, err),
		}
	}
	e.mu.Unlock()

	e.defineContexts(f)

	e.when.Reset()
	for id, expr := range f.Conditions() {
		if err := e.when.Set(id, expr); err != nil {
			e.log.WithError(err).WithField("command", id).Warn("ignoring condition")
		}
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	prev := e.manager.ActiveSchemes()
	e.manager.SetActiveSchemes(priority)

	removed := 0
	for _, b := range e.loaded {
		if !inSchemes(b, prev) {
			continue
		}
		if err := e.manager.RemoveBinding(b); err != nil {
			e.log.WithError(err).WithField("trigger", b.Sequence().String()).Warn("removing binding")
			continue
		}
		removed++
	}
	added, out := e.rescheme(e.scripted, prev, priority)
	removed += out

	loaded := make([]*keymap.Binding, 0, len(bindings))
	for _, b := range bindings {
		live := inSchemes(b, priority)
		var err error
		if live {
			err = e.manager.AddBinding(b)
		} else {
			err = b.Validate()
		}
		if err != nil {
			e.log.WithError(err).WithField("trigger", b.Sequence().String()).Warn("skipping binding")
			continue
		}
		if live {
			added++
		}
		loaded = append(loaded, b)
	}
	e.manager.ActivitiesChanged()

	e.file = f
	e.files = files
	e.loaded = loaded
	e.generation = uuid.NewString()

	e.log.WithFields(logrus.Fields{
		"generation": e.generation,
		"path":       e.opts.Path,
		"added":      added,
		"removed":    removed,
		"schemes":    priority,
	}).Info("keymap loaded")

	if e.watcher != nil {
		if err := e.watcher.SetFiles(files); err != nil {
			e.log.WithError(err).Warn("updating watched files")
		}
	}

	return ReloadEvent{
		Generation: e.generation,
		Files:      slices.Clone(files),
		Added:      added,
		Removed:    removed,
	}
}

// inSchemes reports whether b's scheme is in the priority list.
func inSchemes(b *keymap.Binding, priority []string) bool {
	return slices.Contains(priority, b.SchemeID())
}

// rescheme moves bindings across a change of scheme priority: those live
// only under prev leave the manager, those live only under next enter it.
// e.mu must be held.
func (e *Engine) rescheme(bindings []*keymap.Binding, prev, next []string) (added, removed int) {
	for _, b := range bindings {
		was, is := inSchemes(b, prev), inSchemes(b, next)
		switch {
		case is && !was:
			if err := e.manager.AddBinding(b); err != nil {
				e.log.WithError(err).WithField("trigger", b.Sequence().String()).Warn("admitting binding")
				continue
			}
			added++
		case was && !is:
			if err := e.manager.RemoveBinding(b); err != nil {
				e.log.WithError(err).WithField("trigger", b.Sequence().String()).Warn("retiring binding")
				continue
			}
			removed++
		}
	}
	return added, removed
}

// defineContexts syncs the context registry with f. Contexts dropped from
// the keymap are undefined unless they are active.
func (e *Engine) defineContexts(f *config.File) {
	next := make(map[string]struct{})
	for _, c := range f.ContextList() {
		if err := e.scopes.DefineNamed(c, f.ContextName(c.ID)); err != nil {
			e.log.WithError(err).WithField("context", c.ID).Warn("skipping context")
			continue
		}
		next[c.ID] = struct{}{}
	}

	e.mu.Lock()
	prev := e.contexts
	e.contexts = next
	e.mu.Unlock()

	for id := range prev {
		if _, ok := next[id]; ok {
			continue
		}
		if err := e.scopes.Undefine(id); err != nil {
			e.log.WithError(err).WithField("context", id).Debug("keeping context")
		}
	}
}

// OnReload registers a callback run after every load attempt.
func (e *Engine) OnReload(fn func(ReloadEvent)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.onReload = append(e.onReload, fn)
}

// Watch reloads the keymap whenever one of its files changes.
func (e *Engine) Watch(opts ...watcher.Option) error {
	if e.opts.Path == "" {
		return ErrNoKeymapFile
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return ErrClosed
	}
	if e.watcher != nil {
		return nil
	}

	w, err := watcher.New(append([]watcher.Option{watcher.WithLogger(e.log)}, opts...)...)
	if err != nil {
		return NewOperationError("watch", e.opts.Path, err)
	}
	files := e.files
	if len(files) == 0 {
		files = []string{e.opts.Path}
	}
	if err := w.SetFiles(files); err != nil {
		w.Stop()
		return NewOperationError("watch", e.opts.Path, err)
	}

	w.OnChange(func(ev watcher.Event) {
		e.log.WithFields(logrus.Fields{
			"path": ev.Path,
			"op":   ev.Op.String(),
		}).Info("keymap changed")
		_ = e.Reload()
	})
	w.Start()
	e.watcher = w
	return nil
}

// Close stops watching. The engine still answers queries.
func (e *Engine) Close() {
	e.mu.Lock()
	w := e.watcher
	e.watcher = nil
	e.closed = true
	e.mu.Unlock()

	if w != nil {
		w.Stop()
	}
}

// Scopes returns the context registry.
func (e *Engine) Scopes() *scope.Registry {
	return e.scopes
}

// SetEnv sets the variable source for command conditions and drops the
// cached enablement answers.
func (e *Engine) SetEnv(fn when.EnvFunc) {
	if fn == nil {
		fn = func() map[string]any { return nil }
	}
	e.env.Store(fn)
	e.ActivitiesChanged()
}

// ActivitiesChanged drops cached enablement answers. Call it whenever a
// variable seen by a condition changes; until then lookups may use the
// old answers.
func (e *Engine) ActivitiesChanged() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.manager.ActivitiesChanged()
}

// NewHandler creates a stroke handler resolving through the engine and
// the context registry. The handler's conditions and variables become the
// condition environment.
func (e *Engine) NewHandler(cfg input.Config) *input.Handler {
	next := cfg.OnEnvChange
	cfg.OnEnvChange = func() {
		e.ActivitiesChanged()
		if next != nil {
			next()
		}
	}
	h := input.NewHandler(cfg, e, e.scopes)
	e.SetEnv(h.Env)
	return h
}

// PerfectMatch implements input.Resolver.
func (e *Engine) PerfectMatch(cs keymap.ContextSet, seq key.Sequence) *keymap.Binding {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.manager.PerfectMatch(cs, seq)
}

// IsPartialMatch implements input.Resolver.
func (e *Engine) IsPartialMatch(cs keymap.ContextSet, seq key.Sequence) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.manager.IsPartialMatch(cs, seq)
}

// snapshot returns the active context set, logging a malformed tree.
func (e *Engine) snapshot() keymap.ContextSet {
	cs, err := e.scopes.Snapshot()
	if err != nil {
		e.log.WithError(err).Warn("active contexts")
	}
	return cs
}

// Lookup resolves seq in the active contexts.
func (e *Engine) Lookup(seq key.Sequence) *keymap.Binding {
	return e.PerfectMatch(e.snapshot(), seq)
}

// Resolve explains how seq resolves in the active contexts.
func (e *Engine) Resolve(seq key.Sequence) Resolution {
	cs := e.snapshot()

	e.mu.Lock()
	defer e.mu.Unlock()
	return Resolution{
		Sequence:      seq,
		Binding:       e.manager.PerfectMatch(cs, seq),
		Continuations: e.manager.PartialMatches(cs, seq),
		Conflicts:     e.manager.ConflictsFor(cs, seq),
	}
}

// ActiveBindings returns the winning binding of every sequence bound in
// the active contexts.
func (e *Engine) ActiveBindings() []*keymap.Binding {
	cs := e.snapshot()

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.manager.ActiveBindings(cs)
}

// BindingsFor returns the active bindings of a command, best first.
func (e *Engine) BindingsFor(cmd keymap.Command) []*keymap.Binding {
	cs := e.snapshot()

	e.mu.Lock()
	defer e.mu.Unlock()
	return e.manager.BindingsFor(cs, cmd)
}

// Conflicts returns every unresolved conflict.
func (e *Engine) Conflicts() [][]*keymap.Binding {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.manager.AllConflicts()
}

// AddBinding adds a binding that survives reloads, e.g. one made by a
// script. A binding whose scheme is not active is kept and takes effect
// when the scheme is activated.
func (e *Engine) AddBinding(b *keymap.Binding) error {
	if err := b.Validate(); err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if slices.Contains(e.scripted, b) {
		return nil
	}
	if inSchemes(b, e.manager.ActiveSchemes()) {
		if err := e.manager.AddBinding(b); err != nil {
			return err
		}
	}
	e.scripted = append(e.scripted, b)

	e.log.WithFields(logrus.Fields{
		"trigger": b.Sequence().String(),
		"command": b.Command().String(),
		"context": b.ContextID(),
		"scheme":  b.SchemeID(),
	}).Debug("binding added")
	return nil
}

// RemoveBinding removes a binding added with AddBinding.
func (e *Engine) RemoveBinding(b *keymap.Binding) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	i := slices.Index(e.scripted, b)
	if i < 0 {
		if slices.Contains(e.loaded, b) {
			return fmt.Errorf("%w: binding belongs to the keymap file", keymap.ErrBindingNotFound)
		}
		return keymap.ErrBindingNotFound
	}
	if inSchemes(b, e.manager.ActiveSchemes()) {
		if err := e.manager.RemoveBinding(b); err != nil {
			return err
		}
	}
	e.scripted = slices.Delete(e.scripted, i, i+1)
	return nil
}

// ActiveSchemes returns the scheme priority list.
func (e *Engine) ActiveSchemes() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.manager.ActiveSchemes()
}

// SetActiveSchemes activates schemes, each expanded to its parent chain.
// Bindings of schemes leaving the list are removed and those of schemes
// joining it are added.
func (e *Engine) SetActiveSchemes(ids ...string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	priority, err := e.file.SchemePriority(ids...)
	if err != nil {
		return err
	}
	e.opts.Schemes = slices.Clone(ids)

	prev := e.manager.ActiveSchemes()
	e.manager.SetActiveSchemes(priority)
	fileIn, fileOut := e.rescheme(e.loaded, prev, priority)
	scriptIn, scriptOut := e.rescheme(e.scripted, prev, priority)
	e.manager.ActivitiesChanged()

	e.log.WithFields(logrus.Fields{
		"schemes": priority,
		"added":   fileIn + scriptIn,
		"removed": fileOut + scriptOut,
	}).Info("schemes changed")
	return nil
}

// File returns the keymap currently applied. It must not be modified.
func (e *Engine) File() *config.File {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.file
}

// Files returns the keymap files read by the last successful load.
func (e *Engine) Files() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return slices.Clone(e.files)
}

// Generation identifies the last successful load.
func (e *Engine) Generation() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

// Commands returns the ids of every command with a binding or a
// description, sorted.
func (e *Engine) Commands() []string {
	e.mu.Lock()
	defer e.mu.Unlock()

	ids := make(map[string]struct{})
	for _, c := range e.file.Commands {
		ids[c.ID] = struct{}{}
	}
	for _, b := range slices.Concat(e.loaded, e.scripted) {
		if !b.Command().IsZero() {
			ids[b.Command().ID] = struct{}{}
		}
	}
	return slices.Sorted(maps.Keys(ids))
}

// DefinedContexts returns every context with a table, plus ancestors.
func (e *Engine) DefinedContexts() keymap.ContextSet {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.manager.DefinedTables()
}

// IsNotFound reports whether err means the keymap file does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, config.ErrFileNotFound)
}
