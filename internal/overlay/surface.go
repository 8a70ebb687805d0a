// Package overlay coordinates per-monitor overlay surfaces as one
// logical drawing surface.
//
// Each monitor gets one Surface. The Orchestrator fans commands out to
// all of them with per-surface failure isolation, routes
// pointer-scoped operations to the surface under the cursor,
// aggregates boolean queries by OR, and drives the clear-canvas
// confirmation so the decision resolves exactly once no matter which
// surface (or the global escape path) wins the race.
package overlay

import (
	"errors"

	"glassmark/internal/history"
	"glassmark/internal/tools"
)

// Errors reported by the overlay layer.
var (
	ErrNotAvailable        = errors.New("overlay surfaces not available on this platform")
	ErrNoSurfaces          = errors.New("no overlay surfaces could be created")
	ErrConfirmationPending = errors.New("a confirmation is already pending")
	ErrBroadcastFailed     = errors.New("confirmation broadcast failed")
)

// VirtualSurfaceID is the sentinel surface id used when monitor
// enumeration fails and a single virtual-desktop surface stands in for
// all monitors.
const VirtualSurfaceID = "VIRTUAL_DESKTOP"

// Point is a position in virtual-screen coordinates.
type Point struct {
	X, Y int32
}

// Bounds is a rectangle in virtual-screen coordinates, DPI-normalized.
type Bounds struct {
	X, Y          int32
	Width, Height int32
}

// Contains reports whether p lies inside the rectangle.
func (b Bounds) Contains(p Point) bool {
	return p.X >= b.X && p.X < b.X+b.Width &&
		p.Y >= b.Y && p.Y < b.Y+b.Height
}

// Monitor describes one display as seen at startup.
type Monitor struct {
	// ID is the stable device name ("\\.\DISPLAY1") or
	// VirtualSurfaceID for the fallback.
	ID string

	Bounds  Bounds
	Primary bool

	// Scale is the DPI scale factor the bounds were normalized by.
	Scale float64
}

// Surface is one per-monitor overlay. Implementations own their window
// and canvas; the orchestrator only ever talks through this contract.
//
// Methods are called from the shell's event loop; confirmation
// callbacks may fire from the surface's own window thread.
type Surface interface {
	// ID returns the stable surface identity.
	ID() string

	// Bounds returns the monitor rectangle this surface covers.
	Bounds() Bounds

	// EnableDrawing puts the surface into drawing mode.
	EnableDrawing()

	// DisableDrawing leaves drawing mode, optionally clearing the
	// canvas history for this surface.
	DisableDrawing(clearHistory bool)

	Show()
	Hide()

	// Activate brings the surface forward; Focus gives it keyboard
	// focus. Both report success.
	Activate() bool
	Focus() bool

	IsVisible() bool
	IsActive() bool
	IsFocused() bool

	// OnToolChanged switches the active drawing tool.
	OnToolChanged(tool tools.Kind)

	// ClearCanvas removes all drawn elements.
	ClearCanvas(clearHistory bool)

	// ToggleHelp shows or hides the help overlay.
	ToggleHelp()
	IsHelpVisible() bool

	// HandleEscapeKey gives the surface a chance to consume escape
	// (e.g. by closing its help overlay). Returns true if consumed.
	HandleEscapeKey() bool

	// ShowScreenshotSaved flashes the saved-screenshot toast.
	ShowScreenshotSaved()

	// UndoLastAction removes this surface's most recent element.
	UndoLastAction()

	// ShowClearCanvasConfirmation presents the yes/no prompt. The
	// callbacks are already race-wrapped by the coordinator.
	ShowClearCanvasConfirmation(onConfirm, onCancel func())
	HideClearCanvasConfirmation()

	// TryRemoveElementByID removes one element if this surface holds
	// it.
	TryRemoveElementByID(id history.ElementID) bool

	// Close destroys the surface's window. Called once at shutdown.
	Close()
}

// Factory creates the surface for one monitor.
type Factory func(m Monitor) (Surface, error)

// FactoryOptions wires platform surfaces to the rest of the app.
type FactoryOptions struct {
	// RecordAction is called when a stroke completes on a surface.
	RecordAction func(surfaceID string, element history.ElementID)

	// RemoveAction is called when the eraser removes an element, so
	// history drops it too.
	RemoveAction func(element history.ElementID)
}
