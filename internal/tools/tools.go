// Package tools defines the closed set of drawing tools an overlay
// surface can activate.
//
// A tool here is a behavior contract, not a renderer: surfaces own the
// actual stroke rasterization. Tools report completed and erased
// elements upward so the shell can feed the action history.
package tools

import (
	"fmt"
	"strings"
)

// Kind identifies one of the supported drawing tools.
type Kind string

// The supported tools. The set is closed: config parsing rejects
// anything else.
const (
	Pen       Kind = "pen"
	Line      Kind = "line"
	Rectangle Kind = "rectangle"
	Ellipse   Kind = "ellipse"
	Arrow     Kind = "arrow"
	Eraser    Kind = "eraser"
	Text      Kind = "text"
)

// Kinds returns all supported tool kinds in a stable order.
func Kinds() []Kind {
	return []Kind{Pen, Line, Rectangle, Ellipse, Arrow, Eraser, Text}
}

// Parse converts a config string into a tool Kind.
func Parse(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	switch k {
	case Pen, Line, Rectangle, Ellipse, Arrow, Eraser, Text:
		return k, nil
	case "circle":
		// Older configs used "circle" for the ellipse tool.
		return Ellipse, nil
	default:
		return "", fmt.Errorf("unknown tool: %q", s)
	}
}

// String returns the config representation of the kind.
func (k Kind) String() string {
	return string(k)
}

// Valid reports whether k names a supported tool.
func (k Kind) Valid() bool {
	_, err := Parse(string(k))
	return err == nil
}

// Tool is the capability contract every drawing tool implements.
// Surfaces call these in response to mode and settings changes.
type Tool interface {
	// Kind returns the tool's identity.
	Kind() Kind

	// OnActivated is called when the tool becomes the active tool.
	OnActivated()

	// OnDeactivated is called when another tool takes over. Any
	// in-progress element is finalized or discarded per tool.
	OnDeactivated()

	// OnColorChanged updates the stroke color for new elements.
	OnColorChanged(color string)

	// OnThicknessChanged updates the stroke thickness for new elements.
	OnThicknessChanged(value float64)

	// Cancel discards any in-progress element without completing it.
	Cancel()
}

// Settings carries the brush state shared by all tools.
type Settings struct {
	Color     string
	Thickness float64
}

// base holds the state common to every tool variant.
type base struct {
	kind     Kind
	active   bool
	settings Settings
}

func (b *base) Kind() Kind                       { return b.kind }
func (b *base) OnActivated()                     { b.active = true }
func (b *base) OnDeactivated()                   { b.active = false }
func (b *base) OnColorChanged(color string)      { b.settings.Color = color }
func (b *base) OnThicknessChanged(value float64) { b.settings.Thickness = value }
func (b *base) Cancel()                          {}

// stroke tools share the base behavior; the distinct geometry lives in
// the surface renderer, keyed by Kind.
type penTool struct{ base }
type lineTool struct{ base }
type rectangleTool struct{ base }
type ellipseTool struct{ base }
type arrowTool struct{ base }
type textTool struct{ base }

// eraserTool removes elements instead of creating them.
type eraserTool struct{ base }

// OnColorChanged is a no-op for the eraser.
func (e *eraserTool) OnColorChanged(string) {}

// New constructs the tool implementation for a kind.
func New(k Kind, s Settings) (Tool, error) {
	switch k {
	case Pen:
		return &penTool{base{kind: k, settings: s}}, nil
	case Line:
		return &lineTool{base{kind: k, settings: s}}, nil
	case Rectangle:
		return &rectangleTool{base{kind: k, settings: s}}, nil
	case Ellipse:
		return &ellipseTool{base{kind: k, settings: s}}, nil
	case Arrow:
		return &arrowTool{base{kind: k, settings: s}}, nil
	case Eraser:
		return &eraserTool{base{kind: k, settings: s}}, nil
	case Text:
		return &textTool{base{kind: k, settings: s}}, nil
	default:
		return nil, fmt.Errorf("unknown tool: %q", k)
	}
}

// Palette holds one instance of every tool and tracks the active one.
type Palette struct {
	tools  map[Kind]Tool
	active Kind
}

// NewPalette builds a palette with every supported tool, starting on
// the pen.
func NewPalette(s Settings) *Palette {
	p := &Palette{tools: make(map[Kind]Tool, len(Kinds()))}
	for _, k := range Kinds() {
		t, _ := New(k, s)
		p.tools[k] = t
	}
	p.active = Pen
	p.tools[Pen].OnActivated()
	return p
}

// Active returns the currently selected tool.
func (p *Palette) Active() Tool {
	return p.tools[p.active]
}

// Select switches the active tool, deactivating the previous one.
func (p *Palette) Select(k Kind) error {
	t, ok := p.tools[k]
	if !ok {
		return fmt.Errorf("unknown tool: %q", k)
	}
	if k == p.active {
		return nil
	}
	p.tools[p.active].OnDeactivated()
	p.active = k
	t.OnActivated()
	return nil
}

// SetColor propagates a color change to every tool.
func (p *Palette) SetColor(color string) {
	for _, t := range p.tools {
		t.OnColorChanged(color)
	}
}

// SetThickness propagates a thickness change to every tool.
func (p *Palette) SetThickness(value float64) {
	for _, t := range p.tools {
		t.OnThicknessChanged(value)
	}
}
