package input

import (
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/dshills/keybind/internal/input/key"
	"github.com/dshills/keybind/internal/input/keymap"
)

// Resolver answers binding lookups. *keymap.Manager satisfies it when
// access is serialized; app.Engine provides a locked implementation.
type Resolver interface {
	PerfectMatch(cs keymap.ContextSet, seq key.Sequence) *keymap.Binding
	IsPartialMatch(cs keymap.ContextSet, seq key.Sequence) bool
}

// ContextSource provides the active contexts. *scope.Registry satisfies it.
type ContextSource interface {
	Snapshot() (keymap.ContextSet, error)
}

// Config configures the input handler.
type Config struct {
	// SequenceTimeout is how long to wait for the next stroke of a chord.
	// Zero disables the timeout. Default: 1000ms
	SequenceTimeout time.Duration

	// ActionBuffer is the capacity of the action channel. Default: 100
	ActionBuffer int

	// OnUnmatched is called with every abandoned sequence. It runs with
	// the handler locked and must not call back into the handler.
	OnUnmatched func(Unmatched)

	// OnEnvChange is called after a condition or variable changes, so
	// cached enablement answers can be dropped.
	OnEnvChange func()

	// Logger receives debug traces. Default: discard.
	Logger logrus.FieldLogger
}

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	return Config{
		SequenceTimeout: 1000 * time.Millisecond,
		ActionBuffer:    100,
	}
}

// Handler turns strokes into actions.
//
// Strokes accumulate in a pending sequence while it is a strict prefix of
// an active binding. When the sequence matches a binding exactly and
// cannot be extended, the binding's action is sent. When the pending
// sequence stops matching, its own exact binding (if any) runs and the
// last stroke is retried on its own. A pending sequence that is both an
// exact match and a prefix runs when the timeout fires or Flush is called.
type Handler struct {
	mu sync.Mutex

	// envMu guards context conditions and variables, which are read by
	// enablement checks while mu is held.
	envMu sync.RWMutex

	config   Config
	resolver Resolver
	contexts ContextSource
	log      logrus.FieldLogger

	context *Context

	seqTimer *time.Timer
	seqGen   uint64

	actionChan chan Action

	hooks   *HookManager
	metrics *Metrics

	closed bool
}

// NewHandler creates a new input handler.
func NewHandler(config Config, resolver Resolver, contexts ContextSource) *Handler {
	if config.ActionBuffer <= 0 {
		config.ActionBuffer = DefaultConfig().ActionBuffer
	}
	log := config.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	return &Handler{
		config:     config,
		resolver:   resolver,
		contexts:   contexts,
		log:        log,
		context:    NewContext(),
		actionChan: make(chan Action, config.ActionBuffer),
		hooks:      NewHookManager(),
		metrics:    NewMetrics(),
	}
}

// HandleStroke processes one stroke.
func (h *Handler) HandleStroke(st key.Stroke) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	start := time.Now()
	defer func() { h.metrics.RecordStroke(time.Since(start)) }()

	ctx := h.snapshotContext()
	if h.hooks.RunPreStroke(st, ctx) {
		h.metrics.RecordHookConsumption()
		return
	}

	action := h.processStroke(st)

	h.hooks.RunPostStroke(st, action, h.snapshotContext())
}

// processStroke appends st to the pending sequence and resolves it.
func (h *Handler) processStroke(st key.Stroke) *Action {
	cs := h.activeContexts()
	prev := h.context.PendingSequence
	pending := prev.Append(st)

	if h.resolver.IsPartialMatch(cs, pending) {
		h.context.PendingSequence = pending
		h.resetSequenceTimeout()
		return nil
	}

	if b := h.resolver.PerfectMatch(cs, pending); b != nil {
		h.clearSequence()
		return h.dispatch(b)
	}

	h.clearSequence()
	if prev.IsEmpty() {
		h.unmatched(Unmatched{Sequence: pending})
		return nil
	}

	// The chord broke: settle what was pending, then retry the stroke alone.
	if b := h.resolver.PerfectMatch(cs, prev); b != nil {
		h.dispatch(b)
	} else {
		h.unmatched(Unmatched{Sequence: prev})
	}
	return h.processStroke(st)
}

// activeContexts snapshots the context set, logging a malformed tree.
func (h *Handler) activeContexts() keymap.ContextSet {
	if h.contexts == nil {
		return keymap.ContextSet{}
	}
	cs, err := h.contexts.Snapshot()
	if err != nil {
		h.log.WithError(err).Warn("active contexts")
	}
	return cs
}

// settle resolves the pending sequence as complete.
func (h *Handler) settle(timedOut bool) *Action {
	pending := h.context.PendingSequence
	if pending.IsEmpty() {
		return nil
	}
	h.clearSequence()

	if b := h.resolver.PerfectMatch(h.activeContexts(), pending); b != nil {
		return h.dispatch(b)
	}
	h.unmatched(Unmatched{Sequence: pending, TimedOut: timedOut})
	return nil
}

// Flush resolves the pending sequence immediately, as if the timeout
// fired. It returns the action sent, if any.
func (h *Handler) Flush() *Action {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil
	}
	return h.settle(false)
}

// dispatch builds and sends the action for b.
func (h *Handler) dispatch(b *keymap.Binding) *Action {
	action := actionFor(b, SourceKeyboard)

	if h.hooks.RunPreAction(&action, h.snapshotContext()) {
		h.metrics.RecordHookConsumption()
		return nil
	}

	h.log.WithFields(logrus.Fields{
		"trigger": action.Sequence.String(),
		"command": action.Command,
		"context": action.Context,
	}).Debug("action")

	h.send(action)
	return &action
}

// send delivers an action without blocking; when the channel is full the
// oldest action is dropped.
func (h *Handler) send(action Action) {
	h.metrics.RecordAction()

	select {
	case h.actionChan <- action:
		return
	default:
	}

	select {
	case <-h.actionChan:
		h.metrics.RecordDroppedAction()
	default:
	}
	select {
	case h.actionChan <- action:
	default:
		h.metrics.RecordDroppedAction()
	}
}

func (h *Handler) unmatched(u Unmatched) {
	h.metrics.RecordUnmatched()
	h.log.WithFields(logrus.Fields{
		"trigger":   u.Sequence.String(),
		"timed_out": u.TimedOut,
	}).Debug("unmatched sequence")

	if h.config.OnUnmatched != nil {
		h.config.OnUnmatched(u)
	}
}

// clearSequence clears the pending key sequence and stops the timer.
func (h *Handler) clearSequence() {
	h.context.ClearSequence()
	h.stopSequenceTimeout()
}

// resetSequenceTimeout restarts the sequence timeout timer.
func (h *Handler) resetSequenceTimeout() {
	h.stopSequenceTimeout()

	if h.config.SequenceTimeout > 0 {
		gen := h.seqGen
		h.seqTimer = time.AfterFunc(h.config.SequenceTimeout, func() {
			h.handleSequenceTimeout(gen)
		})
	}
}

// stopSequenceTimeout stops the timer. A callback already waiting for the
// lock sees a newer generation and does nothing.
func (h *Handler) stopSequenceTimeout() {
	h.seqGen++
	if h.seqTimer != nil {
		h.seqTimer.Stop()
		h.seqTimer = nil
	}
}

// handleSequenceTimeout is called when the sequence timeout fires.
func (h *Handler) handleSequenceTimeout(gen uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || gen != h.seqGen || h.context.PendingSequence.IsEmpty() {
		return
	}

	h.metrics.RecordSequenceTimeout()
	h.settle(true)
}

// Actions returns the channel for receiving dispatched actions.
func (h *Handler) Actions() <-chan Action {
	return h.actionChan
}

// Hooks returns the hook manager.
func (h *Handler) Hooks() *HookManager {
	return h.hooks
}

// Metrics returns the metrics tracker.
func (h *Handler) Metrics() *Metrics {
	return h.metrics
}

// snapshotContext returns a copy of the context.
func (h *Handler) snapshotContext() *Context {
	h.envMu.RLock()
	defer h.envMu.RUnlock()
	return h.context.Clone()
}

// Context returns a copy of the current context.
func (h *Handler) Context() *Context {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.snapshotContext()
}

// PendingKeys returns the pending key sequence as a string.
func (h *Handler) PendingKeys() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.context.PendingSequence.String()
}

// Reset abandons the pending sequence without resolving it.
func (h *Handler) Reset() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clearSequence()
}

// SetCondition sets a condition flag visible to when expressions.
func (h *Handler) SetCondition(name string, value bool) {
	h.envMu.Lock()
	h.context.SetCondition(name, value)
	h.envMu.Unlock()

	if h.config.OnEnvChange != nil {
		h.config.OnEnvChange()
	}
}

// SetVariable sets a variable visible to when expressions.
func (h *Handler) SetVariable(name, value string) {
	h.envMu.Lock()
	h.context.SetVariable(name, value)
	h.envMu.Unlock()

	if h.config.OnEnvChange != nil {
		h.config.OnEnvChange()
	}
}

// Env returns the conditions and variables for expression evaluation.
// It is safe to call while a stroke is being resolved.
func (h *Handler) Env() map[string]any {
	h.envMu.RLock()
	defer h.envMu.RUnlock()
	return h.context.Env()
}

// Close shuts down the handler and closes the action channel.
func (h *Handler) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}

	h.closed = true
	h.stopSequenceTimeout()
	close(h.actionChan)
}

// IsClosed returns true if the handler has been closed.
func (h *Handler) IsClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}
