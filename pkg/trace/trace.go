// Package trace provides the graphpad event tracing facility.
//
// A Tracer filters events through a two-dimensional mask (category × level)
// plus a global enable switch, and tracks named operations through a small
// state machine so related events can be grouped in the output. The backing
// writer is a charmbracelet/log logger.
//
// Configuration is explicit: every Tracer owns its Config, passed in at
// construction. There is no ambient process-wide state, which keeps the
// facility testable in isolation and lets the server and CLI carry
// independently tuned tracers.
//
// # Usage
//
//	tr := trace.New(logger, trace.DefaultConfig())
//
//	tr.StartOperation("render graph")
//	tr.Log(trace.CategoryEngine, trace.LevelDebug, "parsing source", "bytes", n)
//	tr.EndOperation("render graph")
//
// Suppressed events (disabled tracer, masked category or level) have no side
// effect: no output and no state change.
package trace

import (
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

// Category classifies events by the component that emits them.
type Category string

// The event categories.
const (
	CategoryBoard  Category = "board"
	CategoryEngine Category = "engine"
	CategoryServer Category = "server"
	CategoryForm   Category = "form"
)

// Level classifies events by severity.
type Level string

// The event levels.
const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Categories returns all known categories in presentation order.
func Categories() []Category {
	return []Category{CategoryBoard, CategoryEngine, CategoryServer, CategoryForm}
}

// Levels returns all known levels in ascending severity order.
func Levels() []Level {
	return []Level{LevelDebug, LevelInfo, LevelWarn, LevelError}
}

// Config controls which events a Tracer emits and how they are grouped.
type Config struct {
	// Enabled is the global switch. When false every event is suppressed
	// regardless of the per-category and per-level masks.
	Enabled bool

	// Categories maps category to enabled. Absent categories are disabled.
	Categories map[Category]bool

	// Levels maps level to enabled. Absent levels are disabled.
	Levels map[Level]bool

	// UseGroups indents events under started operations.
	UseGroups bool

	// DefaultCollapsed demotes events inside groups to debug level, the
	// grouped-output analogue of a collapsed console group.
	DefaultCollapsed bool
}

// DefaultConfig returns a Config with everything enabled and grouping on.
func DefaultConfig() Config {
	cats := make(map[Category]bool, len(Categories()))
	for _, c := range Categories() {
		cats[c] = true
	}
	lvls := make(map[Level]bool, len(Levels()))
	for _, l := range Levels() {
		lvls[l] = true
	}
	return Config{
		Enabled:    true,
		Categories: cats,
		Levels:     lvls,
		UseGroups:  true,
	}
}

// opState tracks the lifecycle of a named operation.
type opState int

const (
	opIdle opState = iota
	opStarted
	opEnded
)

// Tracer emits filtered, optionally grouped trace events.
// A Tracer is safe for concurrent use.
type Tracer struct {
	logger *log.Logger

	mu     sync.Mutex
	config Config
	ops    map[string]opState
	stack  []string // started operations, outermost first
}

// New creates a Tracer writing through the given logger.
// A nil logger discards all output.
func New(logger *log.Logger, config Config) *Tracer {
	if logger == nil {
		return Discard()
	}
	return &Tracer{
		logger: logger,
		config: config,
		ops:    make(map[string]opState),
	}
}

// Discard returns a Tracer that suppresses everything.
func Discard() *Tracer {
	return &Tracer{
		logger: nil,
		config: Config{},
		ops:    make(map[string]opState),
	}
}

// SetEnabled flips the global switch.
func (t *Tracer) SetEnabled(enabled bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.config.Enabled = enabled
}

// ToggleCategory flips one category's mask and returns the new value.
func (t *Tracer) ToggleCategory(c Category) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.config.Categories == nil {
		t.config.Categories = make(map[Category]bool)
	}
	t.config.Categories[c] = !t.config.Categories[c]
	return t.config.Categories[c]
}

// ToggleLevel flips one level's mask and returns the new value.
func (t *Tracer) ToggleLevel(l Level) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.config.Levels == nil {
		t.config.Levels = make(map[Level]bool)
	}
	t.config.Levels[l] = !t.config.Levels[l]
	return t.config.Levels[l]
}

// Config returns a snapshot of the current configuration.
func (t *Tracer) Config() Config {
	t.mu.Lock()
	defer t.mu.Unlock()

	snap := t.config
	snap.Categories = make(map[Category]bool, len(t.config.Categories))
	for k, v := range t.config.Categories {
		snap.Categories[k] = v
	}
	snap.Levels = make(map[Level]bool, len(t.config.Levels))
	for k, v := range t.config.Levels {
		snap.Levels[k] = v
	}
	return snap
}

// enabled reports whether an event passes the mask. Callers must hold t.mu.
func (t *Tracer) enabled(c Category, l Level) bool {
	if t.logger == nil || !t.config.Enabled {
		return false
	}
	return t.config.Categories[c] && t.config.Levels[l]
}

// Log emits one event if it passes the category × level mask.
// Keyvals follow the charmbracelet/log convention of alternating keys and
// values. Suppressed events have no side effect.
func (t *Tracer) Log(c Category, l Level, msg string, keyvals ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.log(c, l, msg, keyvals...)
}

// log emits without re-locking. Callers must hold t.mu.
func (t *Tracer) log(c Category, l Level, msg string, keyvals ...any) {
	if !t.enabled(c, l) {
		return
	}

	depth := len(t.stack)
	if t.config.UseGroups && depth > 0 {
		msg = strings.Repeat("  ", depth) + msg
		// Collapsed groups keep their bodies at debug so expanded output is
		// opt-in via the logger level.
		if t.config.DefaultCollapsed {
			l = LevelDebug
		}
	}

	keyvals = append(keyvals, "category", string(c))

	switch l {
	case LevelDebug:
		t.logger.Debug(msg, keyvals...)
	case LevelInfo:
		t.logger.Info(msg, keyvals...)
	case LevelWarn:
		t.logger.Warn(msg, keyvals...)
	case LevelError:
		t.logger.Error(msg, keyvals...)
	}
}

// StartOperation opens a named operation group. It returns false without
// side effect if the operation is already started. Restarting an ended
// operation is allowed and opens a fresh group.
func (t *Tracer) StartOperation(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ops[name] == opStarted {
		return false
	}

	t.log(CategoryBoard, LevelDebug, "▸ "+name)
	t.ops[name] = opStarted
	t.stack = append(t.stack, name)
	return true
}

// EndOperation closes a named operation group. It returns false without
// side effect if the operation is not currently started. Ending an inner
// operation also closes any operations started after it.
func (t *Tracer) EndOperation(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.ops[name] != opStarted {
		return false
	}

	// Unwind the stack down to and including name.
	for i := len(t.stack) - 1; i >= 0; i-- {
		ended := t.stack[i]
		t.stack = t.stack[:i]
		t.ops[ended] = opEnded
		t.log(CategoryBoard, LevelDebug, "▪ "+ended)
		if ended == name {
			break
		}
	}
	return true
}

// Started reports whether the named operation is currently open.
func (t *Tracer) Started(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ops[name] == opStarted
}

// CloseAll force-ends every open operation, outermost last. It is called on
// teardown of the owning scope so no group is left dangling.
func (t *Tracer) CloseAll() {
	t.mu.Lock()
	defer t.mu.Unlock()

	for i := len(t.stack) - 1; i >= 0; i-- {
		ended := t.stack[i]
		t.ops[ended] = opEnded
		t.stack = t.stack[:i]
		t.log(CategoryBoard, LevelDebug, "▪ "+ended)
	}
}
