package hotkey

import (
	"time"

	"glassmark/internal/tools"
)

// EventType identifies a semantic event emitted by the engine.
type EventType int

const (
	// HotkeyPressed fires once when every key of the configured
	// combination is held (rising edge).
	HotkeyPressed EventType = iota

	// HotkeyReleased fires once when any member of a fully-held
	// combination is released (falling edge).
	HotkeyReleased

	// EscapePressed fires on every press of the fixed escape key,
	// unconditionally and without edge filtering.
	EscapePressed

	// HelpRequested fires when the help action key is pressed while
	// action keys are enabled.
	HelpRequested

	// ToolSelected fires when a tool action key is pressed; the Tool
	// field carries the selection.
	ToolSelected

	// ClearCanvasRequested fires when the clear action key is pressed.
	ClearCanvasRequested

	// UndoRequested fires when the undo action key is pressed.
	UndoRequested

	// ScreenshotRequested fires when the screenshot action key is
	// pressed.
	ScreenshotRequested

	// KeyPressed and KeyReleased form the raw stream emitted only by
	// engines with raw emission enabled (the recorder's engine).
	KeyPressed
	KeyReleased
)

// String returns a short name for logging.
func (t EventType) String() string {
	switch t {
	case HotkeyPressed:
		return "hotkey_pressed"
	case HotkeyReleased:
		return "hotkey_released"
	case EscapePressed:
		return "escape_pressed"
	case HelpRequested:
		return "help_requested"
	case ToolSelected:
		return "tool_selected"
	case ClearCanvasRequested:
		return "clear_canvas_requested"
	case UndoRequested:
		return "undo_requested"
	case ScreenshotRequested:
		return "screenshot_requested"
	case KeyPressed:
		return "key_pressed"
	case KeyReleased:
		return "key_released"
	default:
		return "unknown"
	}
}

// Event is one semantic event delivered to the application shell.
type Event struct {
	Type EventType

	// Key is set on EscapePressed and the raw stream.
	Key VirtualKey

	// Tool is set on ToolSelected.
	Tool tools.Kind

	Timestamp time.Time
}

// actionKeys maps single keys to semantic events while drawing mode is
// active. Tool keys mirror the tool initials; O is the ellipse ("oval")
// because E is taken by the eraser.
var actionKeys = map[VirtualKey]Event{
	KeyF1: {Type: HelpRequested},
	KeyZ:  {Type: UndoRequested},
	KeyC:  {Type: ClearCanvasRequested},
	KeyS:  {Type: ScreenshotRequested},
	KeyP:  {Type: ToolSelected, Tool: tools.Pen},
	KeyL:  {Type: ToolSelected, Tool: tools.Line},
	KeyR:  {Type: ToolSelected, Tool: tools.Rectangle},
	KeyO:  {Type: ToolSelected, Tool: tools.Ellipse},
	KeyA:  {Type: ToolSelected, Tool: tools.Arrow},
	KeyE:  {Type: ToolSelected, Tool: tools.Eraser},
	KeyT:  {Type: ToolSelected, Tool: tools.Text},
}
