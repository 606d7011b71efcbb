package input

import (
	"context"
	"sync"
)

// ActionConsumer processes actions from the handler until ctx is done or
// the handler is closed.
func (h *Handler) ActionConsumer(ctx context.Context, handler func(Action)) {
	actions := h.Actions()
	for {
		select {
		case <-ctx.Done():
			return
		case action, ok := <-actions:
			if !ok {
				return
			}
			handler(action)
		}
	}
}

// Recorder collects actions and runs per-command callbacks. It is meant
// for scripting and tests.
type Recorder struct {
	mu       sync.Mutex
	actions  []Action
	handlers map[string]func(Action)
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{handlers: make(map[string]func(Action))}
}

// Record stores an action and runs its command's callback, if any.
func (r *Recorder) Record(action Action) {
	r.mu.Lock()
	r.actions = append(r.actions, action)
	handler := r.handlers[action.Command]
	r.mu.Unlock()

	if handler != nil {
		handler(action)
	}
}

// Handle registers a callback for a command.
func (r *Recorder) Handle(command string, handler func(Action)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[command] = handler
}

// Actions returns all recorded actions.
func (r *Recorder) Actions() []Action {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]Action, len(r.actions))
	copy(result, r.actions)
	return result
}

// Commands returns the command ids of all recorded actions.
func (r *Recorder) Commands() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.actions))
	for i, a := range r.actions {
		out[i] = a.Command
	}
	return out
}

// Clear removes all recorded actions.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actions = nil
}
