package overlay

import (
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"glassmark/internal/history"
	"glassmark/internal/tools"
)

// fakeSurface is an in-memory Surface for orchestrator tests. Methods
// named in panicOn panic when called, modeling a broken surface.
type fakeSurface struct {
	mu sync.Mutex

	id     string
	bounds Bounds

	calls   map[string]int
	panicOn map[string]bool

	visible, active, focused bool
	drawing, helpVisible     bool
	tool                     tools.Kind
	elements                 map[history.ElementID]bool

	confirmVisible bool
	onConfirm      func()
	onCancel       func()
}

func newFakeSurface(id string, b Bounds) *fakeSurface {
	return &fakeSurface{
		id:       id,
		bounds:   b,
		calls:    map[string]int{},
		panicOn:  map[string]bool{},
		elements: map[history.ElementID]bool{},
	}
}

func (f *fakeSurface) touch(op string) {
	f.mu.Lock()
	f.calls[op]++
	broken := f.panicOn[op]
	f.mu.Unlock()
	if broken {
		panic("surface failure: " + op)
	}
}

func (f *fakeSurface) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeSurface) ID() string     { return f.id }
func (f *fakeSurface) Bounds() Bounds { return f.bounds }

func (f *fakeSurface) EnableDrawing() {
	f.touch("EnableDrawing")
	f.mu.Lock()
	f.drawing = true
	f.mu.Unlock()
}

func (f *fakeSurface) DisableDrawing(clearHistory bool) {
	f.touch("DisableDrawing")
	f.mu.Lock()
	f.drawing = false
	f.mu.Unlock()
}

func (f *fakeSurface) Show() {
	f.touch("Show")
	f.mu.Lock()
	f.visible = true
	f.mu.Unlock()
}

func (f *fakeSurface) Hide() {
	f.touch("Hide")
	f.mu.Lock()
	f.visible = false
	f.mu.Unlock()
}

func (f *fakeSurface) Activate() bool {
	f.touch("Activate")
	f.mu.Lock()
	f.active = true
	f.mu.Unlock()
	return true
}

func (f *fakeSurface) Focus() bool {
	f.touch("Focus")
	f.mu.Lock()
	f.focused = true
	f.mu.Unlock()
	return true
}

func (f *fakeSurface) IsVisible() bool { f.touch("IsVisible"); return f.visible }
func (f *fakeSurface) IsActive() bool  { f.touch("IsActive"); return f.active }
func (f *fakeSurface) IsFocused() bool { f.touch("IsFocused"); return f.focused }

func (f *fakeSurface) OnToolChanged(tool tools.Kind) {
	f.touch("OnToolChanged")
	f.mu.Lock()
	f.tool = tool
	f.mu.Unlock()
}

func (f *fakeSurface) ClearCanvas(clearHistory bool) {
	f.touch("ClearCanvas")
	f.mu.Lock()
	f.elements = map[history.ElementID]bool{}
	f.mu.Unlock()
}

func (f *fakeSurface) ToggleHelp() {
	f.touch("ToggleHelp")
	f.mu.Lock()
	f.helpVisible = !f.helpVisible
	f.mu.Unlock()
}

func (f *fakeSurface) IsHelpVisible() bool { return f.helpVisible }

func (f *fakeSurface) HandleEscapeKey() bool {
	f.touch("HandleEscapeKey")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.helpVisible {
		f.helpVisible = false
		return true
	}
	return false
}

func (f *fakeSurface) ShowScreenshotSaved() { f.touch("ShowScreenshotSaved") }

func (f *fakeSurface) UndoLastAction() { f.touch("UndoLastAction") }

func (f *fakeSurface) ShowClearCanvasConfirmation(onConfirm, onCancel func()) {
	f.touch("ShowClearCanvasConfirmation")
	f.mu.Lock()
	f.confirmVisible = true
	f.onConfirm = onConfirm
	f.onCancel = onCancel
	f.mu.Unlock()
}

func (f *fakeSurface) HideClearCanvasConfirmation() {
	f.touch("HideClearCanvasConfirmation")
	f.mu.Lock()
	f.confirmVisible = false
	f.mu.Unlock()
}

func (f *fakeSurface) TryRemoveElementByID(id history.ElementID) bool {
	f.touch("TryRemoveElementByID")
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.elements[id] {
		delete(f.elements, id)
		return true
	}
	return false
}

func (f *fakeSurface) Close() { f.touch("Close") }

// newTestOrchestrator builds an orchestrator over fake surfaces, one
// per monitor bounds given.
func newTestOrchestrator(t *testing.T, bounds ...Bounds) (*Orchestrator, []*fakeSurface) {
	t.Helper()
	var fakes []*fakeSurface
	monitors := make([]Monitor, len(bounds))
	for i, b := range bounds {
		monitors[i] = Monitor{ID: surfaceName(i), Bounds: b, Scale: 1}
	}
	factory := func(m Monitor) (Surface, error) {
		f := newFakeSurface(m.ID, m.Bounds)
		fakes = append(fakes, f)
		return f, nil
	}
	o, err := New(monitors, factory, nil)
	require.NoError(t, err)
	return o, fakes
}

func surfaceName(i int) string {
	return []string{"DISPLAY1", "DISPLAY2", "DISPLAY3", "DISPLAY4"}[i]
}

func twoMonitors() []Bounds {
	return []Bounds{
		{X: 0, Y: 0, Width: 1920, Height: 1080},
		{X: 1920, Y: 0, Width: 1920, Height: 1080},
	}
}

func TestFanOutReachesAllSurfaces(t *testing.T) {
	o, fakes := newTestOrchestrator(t, twoMonitors()...)

	o.EnableDrawing()
	o.Show()
	o.OnToolChanged(tools.Arrow)
	o.ShowScreenshotSaved()

	for _, f := range fakes {
		assert.Equal(t, 1, f.callCount("EnableDrawing"), f.id)
		assert.Equal(t, 1, f.callCount("Show"), f.id)
		assert.Equal(t, tools.Arrow, f.tool, f.id)
		assert.Equal(t, 1, f.callCount("ShowScreenshotSaved"), f.id)
	}
}

func TestFanOutIsolatesFailures(t *testing.T) {
	o, fakes := newTestOrchestrator(t,
		Bounds{Width: 100, Height: 100},
		Bounds{X: 100, Width: 100, Height: 100},
		Bounds{X: 200, Width: 100, Height: 100},
	)
	fakes[1].panicOn["ClearCanvas"] = true

	require.NotPanics(t, func() { o.ClearCanvas(false) })

	assert.Equal(t, 1, fakes[0].callCount("ClearCanvas"))
	assert.Equal(t, 1, fakes[2].callCount("ClearCanvas"))
}

func TestActivateRoutesToSurfaceUnderCursor(t *testing.T) {
	o, fakes := newTestOrchestrator(t, twoMonitors()...)
	o.cursor = func() (Point, bool) { return Point{X: 2500, Y: 500}, true }

	assert.True(t, o.Activate())
	assert.Equal(t, 0, fakes[0].callCount("Activate"))
	assert.Equal(t, 1, fakes[1].callCount("Activate"))
}

func TestActivateFallsBackToFirstSurface(t *testing.T) {
	o, fakes := newTestOrchestrator(t, twoMonitors()...)
	// Cursor position unresolvable.
	o.cursor = func() (Point, bool) { return Point{}, false }

	assert.True(t, o.Activate())
	assert.Equal(t, 1, fakes[0].callCount("Activate"))

	// Cursor outside every monitor also falls back.
	o.cursor = func() (Point, bool) { return Point{X: -5000, Y: -5000}, true }
	assert.True(t, o.Focus())
	assert.Equal(t, 1, fakes[0].callCount("Focus"))
}

func TestActivateWithZeroSurfaces(t *testing.T) {
	o := &Orchestrator{cursor: func() (Point, bool) { return Point{}, false }}
	assert.False(t, o.Activate())
	assert.False(t, o.Focus())
}

func TestAggregateQueriesOrAcrossSurfaces(t *testing.T) {
	o, fakes := newTestOrchestrator(t, twoMonitors()...)

	assert.False(t, o.IsVisible())

	fakes[1].visible = true
	assert.True(t, o.IsVisible())

	fakes[0].active = true
	assert.True(t, o.IsActive())
	assert.False(t, o.IsFocused())
}

func TestEnumerationFallbackNeverZeroSurfaces(t *testing.T) {
	var created []string
	factory := func(m Monitor) (Surface, error) {
		created = append(created, m.ID)
		return newFakeSurface(m.ID, m.Bounds), nil
	}

	// Empty monitor list models total enumeration failure.
	o, err := New(nil, factory, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, o.SurfaceCount())
	assert.Equal(t, []string{VirtualSurfaceID}, created)
}

func TestPartialFactoryFailure(t *testing.T) {
	monitors := []Monitor{
		{ID: "DISPLAY1", Bounds: Bounds{Width: 100, Height: 100}},
		{ID: "DISPLAY2", Bounds: Bounds{X: 100, Width: 100, Height: 100}},
	}
	factory := func(m Monitor) (Surface, error) {
		if m.ID == "DISPLAY1" {
			return nil, errors.New("create failed")
		}
		return newFakeSurface(m.ID, m.Bounds), nil
	}
	o, err := New(monitors, factory, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, o.SurfaceCount())
	assert.Equal(t, "DISPLAY2", o.Surfaces()[0].ID())
}

func TestTotalFactoryFailure(t *testing.T) {
	factory := func(m Monitor) (Surface, error) {
		return nil, errors.New("create failed")
	}
	_, err := New([]Monitor{{ID: "DISPLAY1"}}, factory, nil)
	require.ErrorIs(t, err, ErrNoSurfaces)
}

func TestEscapeClosesHelpEverywhere(t *testing.T) {
	o, fakes := newTestOrchestrator(t, twoMonitors()...)
	fakes[0].helpVisible = true
	fakes[1].helpVisible = true

	stay := o.HandleEscapeKey()
	assert.True(t, stay, "escape with help open should stay in drawing mode")
	assert.False(t, fakes[0].helpVisible)
	assert.False(t, fakes[1].helpVisible)

	// Nothing left to consume: next escape exits.
	assert.False(t, o.HandleEscapeKey())
}

func TestEscapePanicDefaultsToExit(t *testing.T) {
	o, fakes := newTestOrchestrator(t, twoMonitors()...)
	fakes[0].panicOn["HandleEscapeKey"] = true
	fakes[1].helpVisible = true

	var stay bool
	require.NotPanics(t, func() { stay = o.HandleEscapeKey() })
	// Surface #2 consumed escape, so the chain still reports stay;
	// the broken surface was isolated.
	assert.True(t, stay)

	// A panic escaping the chain itself defaults to exit.
	o2, _ := newTestOrchestrator(t, twoMonitors()...)
	o2.confirm = nil // forces a nil-pointer panic inside the chain
	require.NotPanics(t, func() { stay = o2.HandleEscapeKey() })
	assert.False(t, stay)
}

func TestUndoRoutesToOwningSurface(t *testing.T) {
	o, fakes := newTestOrchestrator(t, twoMonitors()...)
	fakes[1].elements["el-7"] = true

	removed, found := o.TryRemoveElementOnSurface("DISPLAY2", "el-7")
	assert.True(t, found)
	assert.True(t, removed)
	assert.Equal(t, 0, fakes[0].callCount("TryRemoveElementByID"))

	// Mismatch: surface exists but element is gone. No other surface
	// is consulted.
	removed, found = o.TryRemoveElementOnSurface("DISPLAY2", "el-7")
	assert.True(t, found)
	assert.False(t, removed)
	assert.Equal(t, 0, fakes[0].callCount("TryRemoveElementByID"))

	_, found = o.TryRemoveElementOnSurface("GONE", "el-7")
	assert.False(t, found)
}

func TestDisposeBestEffort(t *testing.T) {
	o, fakes := newTestOrchestrator(t,
		Bounds{Width: 100, Height: 100},
		Bounds{X: 100, Width: 100, Height: 100},
	)
	fakes[0].panicOn["Hide"] = true

	require.NotPanics(t, o.Dispose)
	// The broken surface is skipped past, the healthy one fully
	// closed.
	assert.Equal(t, 1, fakes[1].callCount("Hide"))
	assert.Equal(t, 1, fakes[1].callCount("Close"))
}
