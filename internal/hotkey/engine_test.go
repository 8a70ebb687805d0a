package hotkey

import (
	"sync"
	"testing"

	"glassmark/internal/tools"
)

// drain empties the engine's event channel. The simulated interceptor
// delivers synchronously, so everything a Press/Release produced is
// already buffered.
func drain(e *Engine) []Event {
	var out []Event
	for {
		select {
		case ev := <-e.Events():
			out = append(out, ev)
		default:
			return out
		}
	}
}

func countType(events []Event, t EventType) int {
	n := 0
	for _, ev := range events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func startEngine(t *testing.T, opts ...Option) (*Engine, *SimulatedInterceptor) {
	t.Helper()
	sim := NewSimulated()
	e := NewEngine(sim, nil, opts...)
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(e.Dispose)
	return e, sim
}

func TestHotkeyPressedOnceWhenAllHeld(t *testing.T) {
	e, sim := startEngine(t)
	e.Configure(mustCombination(KeyControl, KeyAlt, KeyX))

	sim.Press(KeyControl)
	sim.Press(KeyAlt)
	if got := countType(drain(e), HotkeyPressed); got != 0 {
		t.Fatalf("Pressed before all keys held: %d", got)
	}

	sim.Press(KeyX)
	if got := countType(drain(e), HotkeyPressed); got != 1 {
		t.Fatalf("Pressed after all keys held = %d, want 1", got)
	}
}

func TestHotkeyPressOrderIndependent(t *testing.T) {
	e, sim := startEngine(t)
	e.Configure(mustCombination(KeyControl, KeyAlt, KeyX))

	sim.Press(KeyX)
	sim.Press(KeyAlt)
	sim.Press(KeyControl)
	if got := countType(drain(e), HotkeyPressed); got != 1 {
		t.Fatalf("Pressed = %d, want 1", got)
	}
}

func TestHotkeyReleasedOnceOnFirstRelease(t *testing.T) {
	e, sim := startEngine(t)
	e.Configure(mustCombination(KeyControl, KeyAlt, KeyX))

	sim.Press(KeyControl)
	sim.Press(KeyAlt)
	sim.Press(KeyX)
	drain(e)

	sim.Release(KeyX)
	events := drain(e)
	if got := countType(events, HotkeyReleased); got != 1 {
		t.Fatalf("Released = %d, want 1", got)
	}

	// Ctrl and Alt still down: releasing them must not fire again,
	// and nothing refires Pressed.
	sim.Release(KeyAlt)
	sim.Release(KeyControl)
	events = drain(e)
	if got := countType(events, HotkeyReleased); got != 0 {
		t.Errorf("extra Released = %d, want 0", got)
	}
	if got := countType(events, HotkeyPressed); got != 0 {
		t.Errorf("spurious Pressed = %d, want 0", got)
	}
}

func TestAutoRepeatDoesNotReemitPressed(t *testing.T) {
	e, sim := startEngine(t)
	e.Configure(mustCombination(KeyControl, KeyAlt, KeyX))

	sim.Press(KeyControl)
	sim.Press(KeyAlt)
	sim.Press(KeyX)
	drain(e)

	// Keyboard auto-repeat sends key-down again for a held key.
	sim.Press(KeyX)
	sim.Press(KeyX)
	if got := countType(drain(e), HotkeyPressed); got != 0 {
		t.Fatalf("auto-repeat re-emitted Pressed %d times", got)
	}
}

func TestModifierSideFolding(t *testing.T) {
	e, sim := startEngine(t)
	e.Configure(mustCombination(KeyControl, KeyAlt, KeyX))

	// Physical keyboards report left/right variants.
	sim.Press(KeyLControl)
	sim.Press(KeyRAlt)
	sim.Press(KeyX)
	if got := countType(drain(e), HotkeyPressed); got != 1 {
		t.Fatalf("Pressed with sided modifiers = %d, want 1", got)
	}
}

func TestReconfigureClearsEdgeMemory(t *testing.T) {
	e, sim := startEngine(t)
	e.Configure(mustCombination(KeyControl, KeyAlt, KeyX))

	sim.Press(KeyControl)
	sim.Press(KeyAlt)
	sim.Press(KeyX)
	drain(e)

	e.Configure(mustCombination(KeyControl, KeyShift, KeyZ))

	// Releasing the old set must not emit Released for it.
	sim.Release(KeyX)
	sim.Release(KeyAlt)
	events := drain(e)
	if got := countType(events, HotkeyReleased); got != 0 {
		t.Errorf("spurious Released after reconfigure = %d", got)
	}

	// Ctrl is physically held from before the reconfigure, but its
	// state was cleared: the new set must not activate without a
	// fresh Ctrl transition.
	sim.Press(KeyShift)
	sim.Press(KeyZ)
	if got := countType(drain(e), HotkeyPressed); got != 0 {
		t.Errorf("spurious Pressed from stale state = %d", got)
	}

	sim.Press(KeyControl)
	if got := countType(drain(e), HotkeyPressed); got != 1 {
		t.Errorf("Pressed after fresh transition = %d, want 1", got)
	}
}

func TestEscapeRecognizedUnconditionally(t *testing.T) {
	e, sim := startEngine(t)
	// No combination configured at all.

	sim.Press(KeyEscape)
	sim.Press(KeyEscape) // auto-repeat still fires, not edge-filtered
	if got := countType(drain(e), EscapePressed); got != 2 {
		t.Fatalf("EscapePressed = %d, want 2", got)
	}

	sim.Release(KeyEscape)
	if got := countType(drain(e), EscapePressed); got != 0 {
		t.Fatalf("EscapePressed on key-up = %d, want 0", got)
	}
}

func TestDisposeReleasesExactlyOnce(t *testing.T) {
	e, sim := startEngine(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.Dispose()
		}()
	}
	wg.Wait()

	if got := sim.Uninstalls(); got != 1 {
		t.Fatalf("Uninstalls = %d, want 1", got)
	}

	// Post-dispose calls are logged no-ops, not errors.
	if err := e.Start(); err != nil {
		t.Errorf("Start after dispose returned error: %v", err)
	}
	if sim.Installed() {
		t.Error("Start after dispose reinstalled the hook")
	}
	e.Configure(DefaultCombination())
	e.Stop()
}

func TestStopWithoutStart(t *testing.T) {
	sim := NewSimulated()
	e := NewEngine(sim, nil)
	e.Stop() // must not panic or uninstall anything
	if got := sim.Uninstalls(); got != 0 {
		t.Fatalf("Uninstalls = %d, want 0", got)
	}
}

func TestStartTwice(t *testing.T) {
	e, _ := startEngine(t)
	if err := e.Start(); err != ErrAlreadyRunning {
		t.Fatalf("second Start: got %v, want ErrAlreadyRunning", err)
	}
}

func TestActionKeys(t *testing.T) {
	e, sim := startEngine(t)

	// Disabled: action keys pass through silently.
	sim.Press(KeyP)
	sim.Release(KeyP)
	if got := len(drain(e)); got != 0 {
		t.Fatalf("events while action keys disabled = %d, want 0", got)
	}

	e.SetActionKeysEnabled(true)

	sim.Press(KeyP)
	sim.Release(KeyP)
	events := drain(e)
	if got := countType(events, ToolSelected); got != 1 {
		t.Fatalf("ToolSelected = %d, want 1", got)
	}
	if events[0].Tool != tools.Pen {
		t.Errorf("Tool = %v, want pen", events[0].Tool)
	}

	sim.Press(KeyZ)
	if got := countType(drain(e), UndoRequested); got != 1 {
		t.Error("undo key did not emit UndoRequested")
	}
	sim.Press(KeyF1)
	if got := countType(drain(e), HelpRequested); got != 1 {
		t.Error("help key did not emit HelpRequested")
	}
}

func TestRawEmission(t *testing.T) {
	e, sim := startEngine(t, WithRawEvents())

	sim.Press(KeyA)
	sim.Release(KeyA)
	events := drain(e)
	if got := countType(events, KeyPressed); got != 1 {
		t.Errorf("KeyPressed = %d, want 1", got)
	}
	if got := countType(events, KeyReleased); got != 1 {
		t.Errorf("KeyReleased = %d, want 1", got)
	}
	if events[0].Key != KeyA {
		t.Errorf("Key = %v, want KeyA", events[0].Key)
	}

	// Without the option the raw stream stays silent.
	e2, sim2 := startEngine(t)
	sim2.Press(KeyA)
	if got := countType(drain(e2), KeyPressed); got != 0 {
		t.Errorf("raw event from non-raw engine = %d", got)
	}
}

func TestHandlerPanicIsContained(t *testing.T) {
	sim := NewSimulated()
	e := NewEngine(sim, nil)
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(e.Dispose)

	// Corrupt the matcher so update panics on a nil map.
	e.matcher.down = nil
	e.Configure(mustCombination(KeyControl, KeyX)) // restores the map
	e.matcher.down = nil

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("panic escaped the hook handler: %v", r)
		}
	}()
	sim.Press(KeyControl)
}
