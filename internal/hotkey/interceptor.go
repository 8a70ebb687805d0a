// Package hotkey detects configurable system-wide keyboard hotkey
// combinations even when the application is unfocused.
//
// The engine installs a low-level OS keyboard interceptor, tracks the
// down/up state of the configured combination's keys, and translates
// rising and falling edges of "all keys held" into semantic events on
// a channel. A second engine instance backs the interactive recorder
// used to capture a new combination.
//
// Platform support:
//   - Windows: WH_KEYBOARD_LL hook via golang.org/x/sys/windows
//   - other platforms: not available (ErrNotAvailable)
package hotkey

import (
	"errors"
	"sync"
)

// RawEvent is one key transition as seen by the interceptor.
type RawEvent struct {
	Key  VirtualKey
	Down bool
}

// Handler receives raw events on the interceptor's callback thread.
// It must return quickly and must not block: on Windows the whole
// system's keyboard delivery stalls while the hook callback runs.
type Handler func(RawEvent)

// Interceptor is the platform hook behind an Engine.
type Interceptor interface {
	// Install hooks the keyboard and begins delivering events to h.
	Install(h Handler) error

	// Uninstall removes the hook. Safe to call when not installed.
	Uninstall() error
}

// StatePoller reads the current physical state of a key outside the
// event stream. The recorder uses it to confirm full release after a
// debounce.
type StatePoller interface {
	IsDown(key VirtualKey) bool
}

// ErrNotAvailable is returned when keyboard interception isn't
// available on this platform.
var ErrNotAvailable = errors.New("keyboard interception not available on this platform")

// ErrAlreadyRunning is returned when Start is called on a running
// engine.
var ErrAlreadyRunning = errors.New("engine already running")

// SimulatedInterceptor drives an engine from tests without hooking
// the real keyboard. Press and Release call the handler synchronously,
// standing in for the hook callback thread.
type SimulatedInterceptor struct {
	mu         sync.Mutex
	handler    Handler
	installed  bool
	uninstalls int
	down       map[VirtualKey]bool
}

// NewSimulated creates an interceptor for testing.
func NewSimulated() *SimulatedInterceptor {
	return &SimulatedInterceptor{down: make(map[VirtualKey]bool)}
}

// Install records the handler.
func (s *SimulatedInterceptor) Install(h Handler) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.installed {
		return ErrAlreadyRunning
	}
	s.handler = h
	s.installed = true
	return nil
}

// Uninstall clears the handler and counts the release.
func (s *SimulatedInterceptor) Uninstall() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handler = nil
	s.installed = false
	s.uninstalls++
	return nil
}

// Installed reports whether the interceptor is currently hooked.
func (s *SimulatedInterceptor) Installed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.installed
}

// Uninstalls returns how many times Uninstall has been called.
func (s *SimulatedInterceptor) Uninstalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.uninstalls
}

// Press simulates a key going down. Calling it again without a
// Release simulates auto-repeat.
func (s *SimulatedInterceptor) Press(key VirtualKey) {
	s.mu.Lock()
	s.down[key] = true
	h := s.handler
	s.mu.Unlock()
	if h != nil {
		h(RawEvent{Key: key, Down: true})
	}
}

// Release simulates a key going up.
func (s *SimulatedInterceptor) Release(key VirtualKey) {
	s.mu.Lock()
	s.down[key] = false
	h := s.handler
	s.mu.Unlock()
	if h != nil {
		h(RawEvent{Key: key, Down: false})
	}
}

// IsDown implements StatePoller from the simulated physical state.
func (s *SimulatedInterceptor) IsDown(key VirtualKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.down[key]
}
