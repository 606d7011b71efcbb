// Package when evaluates command enablement conditions.
//
// Each command may carry a "when" expression such as
//
//	editorFocus && !readOnly && lang == "go"
//
// evaluated with expr-lang against the host's current variables. The
// Evaluator's Enabled method satisfies keymap.EnabledFunc; the binding
// engine caches its answers until the host reports that activities
// changed.
package when

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"slices"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/sirupsen/logrus"

	"github.com/dshills/keybind/internal/input/keymap"
)

// ErrInvalidExpression indicates a when expression failed to compile.
var ErrInvalidExpression = errors.New("invalid when expression")

// EnvFunc returns the variables visible to when expressions.
type EnvFunc func() map[string]any

// Evaluator holds the when expression of each command and answers
// whether a command is currently enabled.
type Evaluator struct {
	mu sync.RWMutex

	// exprs maps command id to its source expression.
	exprs map[string]string

	// programs caches compiled expressions by source.
	programs map[string]*vm.Program

	env EnvFunc
	log logrus.FieldLogger
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithEnv sets the variable source. Without it expressions see no
// variables and undefined names evaluate to nil.
func WithEnv(fn EnvFunc) Option {
	return func(e *Evaluator) {
		e.env = fn
	}
}

// WithLogger sets the logger used to report evaluation failures.
func WithLogger(log logrus.FieldLogger) Option {
	return func(e *Evaluator) {
		if log != nil {
			e.log = log
		}
	}
}

// New creates an evaluator with no conditions.
func New(opts ...Option) *Evaluator {
	l := logrus.New()
	l.SetOutput(io.Discard)

	e := &Evaluator{
		exprs:    make(map[string]string),
		programs: make(map[string]*vm.Program),
		log:      l,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Compile checks an expression without registering it.
func Compile(expression string) (*vm.Program, error) {
	program, err := expr.Compile(expression, expr.AsBool(), expr.AllowUndefinedVariables())
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %v", ErrInvalidExpression, expression, err)
	}
	return program, nil
}

// Set registers the when expression for a command. An empty expression
// removes the condition so the command is always enabled.
func (e *Evaluator) Set(commandID, expression string) error {
	if expression == "" {
		e.Remove(commandID)
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.programs[expression]; !ok {
		program, err := Compile(expression)
		if err != nil {
			return err
		}
		e.programs[expression] = program
	}
	e.exprs[commandID] = expression
	return nil
}

// Remove drops the condition for a command.
func (e *Evaluator) Remove(commandID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.exprs, commandID)
}

// Reset drops every condition.
func (e *Evaluator) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	clear(e.exprs)
	clear(e.programs)
}

// Expression returns the when expression of a command.
func (e *Evaluator) Expression(commandID string) (string, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	s, ok := e.exprs[commandID]
	return s, ok
}

// Commands returns the ids of commands with a condition, sorted.
func (e *Evaluator) Commands() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Sorted(maps.Keys(e.exprs))
}

// Enabled reports whether the command's condition holds. Commands without
// a condition are enabled. A condition that fails to evaluate disables the
// command.
func (e *Evaluator) Enabled(commandID string) bool {
	e.mu.RLock()
	expression, ok := e.exprs[commandID]
	program := e.programs[expression]
	env := e.env
	e.mu.RUnlock()

	if !ok {
		return true
	}

	var vars map[string]any
	if env != nil {
		vars = env()
	}
	if vars == nil {
		vars = map[string]any{}
	}

	out, err := vm.Run(program, vars)
	if err != nil {
		e.log.WithFields(logrus.Fields{
			"command": commandID,
			"when":    expression,
		}).WithError(err).Warn("when expression failed")
		return false
	}
	enabled, _ := out.(bool)
	return enabled
}

// Func returns Enabled as a keymap.EnabledFunc.
func (e *Evaluator) Func() keymap.EnabledFunc {
	return e.Enabled
}
