package overlay

import (
	"sync"
	"sync/atomic"

	"glassmark/internal/logging"
)

// session is one live yes/no decision. The resolved flag is the
// single-use decision token: whichever resolution path swaps it
// first executes its callback; every later attempt is dropped. A
// plain read-then-write flag could double-execute between a surface
// click and the hook-thread escape path, so the swap must be atomic.
type session struct {
	resolved  atomic.Bool
	onConfirm func()
	onCancel  func()
}

// decide claims the token. Returns true for exactly one caller.
func (s *session) decide() bool {
	return s.resolved.CompareAndSwap(false, true)
}

// Coordinator drives one confirmation decision across all surfaces.
// At most one session is live at a time.
type Coordinator struct {
	mu      sync.Mutex
	current *session
	owner   *Orchestrator
	log     *logging.Logger
}

// NewCoordinator creates a coordinator bound to the orchestrator whose
// surfaces it broadcasts to.
func NewCoordinator(owner *Orchestrator, log *logging.Logger) *Coordinator {
	if log == nil {
		log = logging.Default()
	}
	return &Coordinator{owner: owner, log: log.WithComponent("confirm")}
}

// Show opens a session and broadcasts the prompt to every surface,
// wrapping both callbacks so only the first resolution executes.
//
// If any surface fails while showing the prompt, the session is
// aborted and onCancel runs as the safe default: a destructive action
// must never be silently confirmed on error.
func (c *Coordinator) Show(onConfirm, onCancel func()) error {
	c.mu.Lock()
	if c.current != nil {
		c.mu.Unlock()
		return ErrConfirmationPending
	}
	s := &session{onConfirm: onConfirm, onCancel: onCancel}
	c.current = s
	c.mu.Unlock()

	wrappedConfirm := func() { c.resolve(s, true) }
	wrappedCancel := func() { c.resolve(s, false) }

	ok := c.owner.fanOut("ShowClearCanvasConfirmation", func(surf Surface) {
		surf.ShowClearCanvasConfirmation(wrappedConfirm, wrappedCancel)
	})
	if !ok {
		c.log.Error("confirmation broadcast failed, cancelling")
		c.resolve(s, false)
		return ErrBroadcastFailed
	}
	return nil
}

// CancelPending resolves the live session as cancelled, if there is
// one. Returns true when a session existed, whether or not this call
// won the resolution race; either way the prompt is being torn down.
func (c *Coordinator) CancelPending() bool {
	c.mu.Lock()
	s := c.current
	c.mu.Unlock()
	if s == nil {
		return false
	}
	c.resolve(s, false)
	return true
}

// Pending reports whether a session is live.
func (c *Coordinator) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current != nil
}

// resolve is the single resolution funnel. The winning call hides the
// prompt everywhere, clears the session, and invokes exactly one
// original callback; losers return silently.
func (c *Coordinator) resolve(s *session, confirmed bool) {
	if !s.decide() {
		return
	}

	c.owner.fanOut("HideClearCanvasConfirmation", func(surf Surface) {
		surf.HideClearCanvasConfirmation()
	})

	c.mu.Lock()
	if c.current == s {
		c.current = nil
	}
	c.mu.Unlock()

	if confirmed {
		c.log.Info("confirmation resolved", "decision", "confirm")
		if s.onConfirm != nil {
			s.onConfirm()
		}
		return
	}
	c.log.Info("confirmation resolved", "decision", "cancel")
	if s.onCancel != nil {
		s.onCancel()
	}
}
