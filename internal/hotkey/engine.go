package hotkey

import (
	"sync"
	"sync/atomic"
	"time"

	"glassmark/internal/logging"
)

// eventBuffer sizes the semantic event channel. The shell drains it on
// its own goroutine; if it ever falls this far behind, events are
// dropped rather than blocking the hook callback.
const eventBuffer = 64

// Engine owns one keyboard interceptor and turns its raw stream into
// semantic events.
//
// Lifecycle: NewEngine -> Configure -> Start -> (Stop|Start)* ->
// Dispose. Dispose is idempotent and safe from any goroutine; after
// it, Start and Configure are logged no-ops. The native hook handle is
// released exactly once no matter how many paths race to tear it down.
type Engine struct {
	mu          sync.Mutex
	disposed    bool
	running     bool
	interceptor Interceptor

	// stateMu serializes the matcher between the hook callback thread
	// and Configure. Held only for map updates, never across I/O.
	stateMu sync.Mutex
	matcher *matcher

	actionsEnabled atomic.Bool
	emitRaw        bool

	events chan Event
	log    *logging.Logger
}

// Option configures an Engine at construction.
type Option func(*Engine)

// WithRawEvents makes the engine emit the raw KeyPressed/KeyReleased
// stream. Only the recorder's engine wants this.
func WithRawEvents() Option {
	return func(e *Engine) { e.emitRaw = true }
}

// NewEngine creates an engine over the given interceptor. The logger
// may be nil, in which case the default logger is used.
func NewEngine(in Interceptor, log *logging.Logger, opts ...Option) *Engine {
	if log == nil {
		log = logging.Default()
	}
	e := &Engine{
		interceptor: in,
		matcher:     newMatcher(),
		events:      make(chan Event, eventBuffer),
		log:         log.WithComponent("hotkey"),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Events returns the semantic event stream. The channel is never
// closed; consumers stop reading after Dispose.
func (e *Engine) Events() <-chan Event {
	return e.events
}

// Configure replaces the active combination, resetting all per-key
// state and edge memory so no stale "active" reading survives the
// swap. Safe while running. After Dispose it is a logged no-op.
func (e *Engine) Configure(c Combination) {
	e.mu.Lock()
	if e.disposed {
		e.mu.Unlock()
		e.log.Warn("configure ignored: engine disposed")
		return
	}
	e.mu.Unlock()

	e.stateMu.Lock()
	e.matcher.configure(c)
	e.stateMu.Unlock()

	e.log.Info("hotkey combination configured", "combination", c.String())
}

// SetActionKeysEnabled toggles translation of single action keys
// (tools, undo, clear, help, screenshot) into semantic events. The
// shell enables this while drawing mode is active.
func (e *Engine) SetActionKeysEnabled(enabled bool) {
	e.actionsEnabled.Store(enabled)
}

// Start installs the interceptor. Starting a disposed engine is a
// logged no-op; starting a running engine returns ErrAlreadyRunning.
func (e *Engine) Start() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.disposed {
		e.log.Warn("start ignored: engine disposed")
		return nil
	}
	if e.running {
		return ErrAlreadyRunning
	}
	if err := e.interceptor.Install(e.handleRaw); err != nil {
		return err
	}
	e.running = true
	e.log.Info("keyboard hook installed")
	return nil
}

// Stop uninstalls the interceptor if installed. It never returns an
// error: an OS uninstall failure is logged and the engine still
// considers the hook gone, so the handle is never released twice.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

func (e *Engine) stopLocked() {
	if !e.running {
		return
	}
	e.running = false
	if err := e.interceptor.Uninstall(); err != nil {
		e.log.Error("keyboard hook uninstall failed", "error", err)
		return
	}
	e.log.Info("keyboard hook removed")
}

// Dispose permanently tears the engine down. Any number of concurrent
// calls from any goroutines perform the underlying release exactly
// once.
func (e *Engine) Dispose() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.disposed {
		return
	}
	e.disposed = true
	e.stopLocked()
	e.log.Info("engine disposed")
}

// handleRaw runs on the interceptor's callback thread. Nothing may
// escape it as a panic, and it must stay fast: the OS stalls keyboard
// delivery system-wide while a low-level hook callback runs.
func (e *Engine) handleRaw(raw RawEvent) {
	defer func() {
		if r := recover(); r != nil {
			e.log.Error("panic in hook handler swallowed", "panic", r)
		}
	}()

	now := time.Now()

	// The fixed escape key is the emergency override: recognized on
	// every press, before and regardless of the configured
	// combination.
	if raw.Down && raw.Key == KeyEscape {
		e.post(Event{Type: EscapePressed, Key: raw.Key, Timestamp: now})
	}

	e.stateMu.Lock()
	edge := e.matcher.update(raw.Key, raw.Down)
	e.stateMu.Unlock()

	switch edge {
	case edgeRising:
		e.post(Event{Type: HotkeyPressed, Timestamp: now})
	case edgeFalling:
		e.post(Event{Type: HotkeyReleased, Timestamp: now})
	}

	if raw.Down && e.actionsEnabled.Load() {
		if ev, ok := actionKeys[raw.Key]; ok {
			ev.Key = raw.Key
			ev.Timestamp = now
			e.post(ev)
		}
	}

	if e.emitRaw {
		t := KeyReleased
		if raw.Down {
			t = KeyPressed
		}
		e.post(Event{Type: t, Key: raw.Key, Timestamp: now})
	}
}

// post delivers an event without ever blocking the callback thread.
func (e *Engine) post(ev Event) {
	select {
	case e.events <- ev:
	default:
		e.log.Warn("event dropped: consumer behind", "type", ev.Type.String())
	}
}
