package overlay

import (
	"fmt"

	"glassmark/internal/history"
	"glassmark/internal/logging"
	"glassmark/internal/tools"
)

// Orchestrator owns every surface and presents them as one logical
// target. The surface set is fixed after construction; monitors
// plugged in later are not picked up (documented limitation).
type Orchestrator struct {
	surfaces []Surface
	confirm  *Coordinator
	log      *logging.Logger

	// cursor reads the current pointer position. Defaults to the
	// platform implementation; tests override it.
	cursor func() (Point, bool)
}

// New builds one surface per monitor. When the monitor list is empty
// (total enumeration failure upstream) it falls back to exactly one
// virtual-desktop surface, so a constructed orchestrator never has
// zero surfaces. Per-monitor factory failures are logged and skipped;
// only all of them failing is an error.
func New(monitors []Monitor, factory Factory, log *logging.Logger) (*Orchestrator, error) {
	if log == nil {
		log = logging.Default()
	}
	o := &Orchestrator{
		log:    log.WithComponent("overlay"),
		cursor: cursorPosition,
	}
	o.confirm = NewCoordinator(o, o.log)

	if len(monitors) == 0 {
		monitors = []Monitor{virtualDesktopMonitor()}
		o.log.Warn("no monitors enumerated, using virtual desktop fallback")
	}

	for _, m := range monitors {
		s, err := factory(m)
		if err != nil {
			o.log.Error("surface creation failed", "surface", m.ID, "error", err)
			continue
		}
		o.surfaces = append(o.surfaces, s)
		o.log.Info("surface created", "surface", m.ID,
			"width", m.Bounds.Width, "height", m.Bounds.Height)
	}

	if len(o.surfaces) == 0 {
		// Last resort: one surface spanning the virtual desktop.
		vm := virtualDesktopMonitor()
		s, err := factory(vm)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrNoSurfaces, err)
		}
		o.surfaces = append(o.surfaces, s)
		o.log.Warn("all per-monitor surfaces failed, using virtual desktop fallback")
	}

	return o, nil
}

// virtualDesktopMonitor describes the fallback surface spanning all
// displays.
func virtualDesktopMonitor() Monitor {
	b := virtualScreenBounds()
	return Monitor{ID: VirtualSurfaceID, Bounds: b, Primary: true, Scale: 1}
}

// Surfaces returns the owned surfaces. The slice is shared; callers
// must not mutate it.
func (o *Orchestrator) Surfaces() []Surface {
	return o.surfaces
}

// SurfaceCount returns the number of surfaces.
func (o *Orchestrator) SurfaceCount() int {
	return len(o.surfaces)
}

// call runs fn on one surface, containing and logging any panic so a
// broken surface never blocks the others. Reports whether fn ran
// cleanly.
func (o *Orchestrator) call(op string, s Surface, fn func(Surface)) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			o.log.Error("surface operation failed",
				"operation", op, "surface", s.ID(), "panic", r)
		}
	}()
	fn(s)
	return true
}

// fanOut delivers fn to every surface with per-surface isolation and
// reports whether all deliveries succeeded.
func (o *Orchestrator) fanOut(op string, fn func(Surface)) bool {
	allOK := true
	for _, s := range o.surfaces {
		if !o.call(op, s, fn) {
			allOK = false
		}
	}
	return allOK
}

// EnableDrawing puts every surface into drawing mode.
func (o *Orchestrator) EnableDrawing() {
	o.fanOut("EnableDrawing", func(s Surface) { s.EnableDrawing() })
}

// DisableDrawing leaves drawing mode on every surface.
func (o *Orchestrator) DisableDrawing(clearHistory bool) {
	o.fanOut("DisableDrawing", func(s Surface) { s.DisableDrawing(clearHistory) })
}

// Show makes every surface visible.
func (o *Orchestrator) Show() {
	o.fanOut("Show", func(s Surface) { s.Show() })
}

// Hide hides every surface.
func (o *Orchestrator) Hide() {
	o.fanOut("Hide", func(s Surface) { s.Hide() })
}

// ClearCanvas clears every surface's canvas.
func (o *Orchestrator) ClearCanvas(clearHistory bool) {
	o.fanOut("ClearCanvas", func(s Surface) { s.ClearCanvas(clearHistory) })
}

// ToggleHelp toggles the help overlay on every surface.
func (o *Orchestrator) ToggleHelp() {
	o.fanOut("ToggleHelp", func(s Surface) { s.ToggleHelp() })
}

// OnToolChanged switches the active tool on every surface.
func (o *Orchestrator) OnToolChanged(tool tools.Kind) {
	o.fanOut("OnToolChanged", func(s Surface) { s.OnToolChanged(tool) })
}

// ShowScreenshotSaved flashes the saved toast on every surface.
func (o *Orchestrator) ShowScreenshotSaved() {
	o.fanOut("ShowScreenshotSaved", func(s Surface) { s.ShowScreenshotSaved() })
}

// surfaceUnderCursor resolves the surface containing the pointer,
// falling back to the first surface, and to nil when none exist.
func (o *Orchestrator) surfaceUnderCursor() Surface {
	if len(o.surfaces) == 0 {
		return nil
	}
	if p, ok := o.cursor(); ok {
		for _, s := range o.surfaces {
			if s.Bounds().Contains(p) {
				return s
			}
		}
	}
	return o.surfaces[0]
}

// Activate brings the surface under the cursor forward. Returns false
// when there are no surfaces or activation failed.
func (o *Orchestrator) Activate() bool {
	s := o.surfaceUnderCursor()
	if s == nil {
		return false
	}
	result := false
	o.call("Activate", s, func(s Surface) { result = s.Activate() })
	return result
}

// Focus gives keyboard focus to the surface under the cursor.
func (o *Orchestrator) Focus() bool {
	s := o.surfaceUnderCursor()
	if s == nil {
		return false
	}
	result := false
	o.call("Focus", s, func(s Surface) { result = s.Focus() })
	return result
}

// IsVisible reports whether any surface is visible.
func (o *Orchestrator) IsVisible() bool { return o.anySurface(Surface.IsVisible) }

// IsActive reports whether any surface is active.
func (o *Orchestrator) IsActive() bool { return o.anySurface(Surface.IsActive) }

// IsFocused reports whether any surface has keyboard focus.
func (o *Orchestrator) IsFocused() bool { return o.anySurface(Surface.IsFocused) }

func (o *Orchestrator) anySurface(query func(Surface) bool) bool {
	any := false
	for _, s := range o.surfaces {
		o.call("query", s, func(s Surface) {
			if query(s) {
				any = true
			}
		})
	}
	return any
}

// HandleEscapeKey runs the escape priority chain. Returns true to stay
// in drawing mode, false to exit it.
//
// Priority: a pending confirmation is cancelled first; otherwise any
// surface showing help closes it everywhere; otherwise exit. A panic
// anywhere in the chain defaults to exit, the safe state, so escape
// can never leave the user stuck.
func (o *Orchestrator) HandleEscapeKey() (stay bool) {
	defer func() {
		if r := recover(); r != nil {
			stay = false
			o.log.Error("escape handling failed, exiting drawing mode", "panic", r)
		}
	}()

	if o.confirm.CancelPending() {
		return true
	}

	consumed := false
	for _, s := range o.surfaces {
		o.call("HandleEscapeKey", s, func(s Surface) {
			if s.HandleEscapeKey() {
				consumed = true
			}
		})
	}
	return consumed
}

// ShowClearCanvasConfirmation opens the clear-canvas decision across
// all surfaces. See Coordinator for the exactly-once guarantees.
func (o *Orchestrator) ShowClearCanvasConfirmation(onConfirm, onCancel func()) error {
	return o.confirm.Show(onConfirm, onCancel)
}

// HideClearCanvasConfirmation dismisses the prompt everywhere,
// resolving a still-open session as cancelled. Used when drawing mode
// ends with a prompt still open.
func (o *Orchestrator) HideClearCanvasConfirmation() {
	o.confirm.CancelPending()
}

// TryRemoveElementOnSurface implements history.SurfaceResolver:
// removal is attempted only on the owning surface, never on another.
func (o *Orchestrator) TryRemoveElementOnSurface(surfaceID string, element history.ElementID) (removed, found bool) {
	for _, s := range o.surfaces {
		if s.ID() != surfaceID {
			continue
		}
		found = true
		o.call("TryRemoveElementByID", s, func(s Surface) {
			removed = s.TryRemoveElementByID(element)
		})
		return removed, found
	}
	return false, false
}

// Dispose hides and closes every surface best-effort. Per-surface
// panics are swallowed: this is terminal cleanup, not a reportable
// path.
func (o *Orchestrator) Dispose() {
	for _, s := range o.surfaces {
		func() {
			defer func() { _ = recover() }()
			s.Hide()
			s.Close()
		}()
	}
	o.log.Info("surfaces disposed", "count", len(o.surfaces))
}
