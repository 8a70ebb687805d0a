//go:build windows

package overlay

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"
	"time"
	"unsafe"

	"golang.org/x/sys/windows"

	"glassmark/internal/history"
	"glassmark/internal/logging"
	"glassmark/internal/tools"
)

var (
	registerClassEx     = user32.NewProc("RegisterClassExW")
	createWindowEx      = user32.NewProc("CreateWindowExW")
	defWindowProc       = user32.NewProc("DefWindowProcW")
	destroyWindow       = user32.NewProc("DestroyWindow")
	postQuitMessage     = user32.NewProc("PostQuitMessage")
	showWindow          = user32.NewProc("ShowWindow")
	setForegroundWindow = user32.NewProc("SetForegroundWindow")
	setFocus            = user32.NewProc("SetFocus")
	getFocus            = user32.NewProc("GetFocus")
	getForegroundWindow = user32.NewProc("GetForegroundWindow")
	invalidateRect      = user32.NewProc("InvalidateRect")
	postMessage         = user32.NewProc("PostMessageW")
	getMessageW         = user32.NewProc("GetMessageW")
	translateMessage    = user32.NewProc("TranslateMessage")
	dispatchMessage     = user32.NewProc("DispatchMessageW")
	getModuleHandle     = windows.NewLazySystemDLL("kernel32.dll").NewProc("GetModuleHandleW")
)

const (
	wsPopup        = 0x80000000
	wsExTopmost    = 0x00000008
	wsExToolWindow = 0x00000080
	wsExLayered    = 0x00080000

	swHide           = 0
	swShowNoActivate = 4

	wmDestroy     = 0x0002
	wmClose       = 0x0010
	wmPaint       = 0x000F
	wmLButtonDown = 0x0201
	wmLButtonUp   = 0x0202
	wmRButtonDown = 0x0204
	wmMouseMove   = 0x0200
)

type wndClassEx struct {
	cbSize        uint32
	style         uint32
	lpfnWndProc   uintptr
	cbClsExtra    int32
	cbWndExtra    int32
	hInstance     uintptr
	hIcon         uintptr
	hCursor       uintptr
	hbrBackground uintptr
	lpszMenuName  *uint16
	lpszClassName *uint16
}

type winMsg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      struct{ x, y int32 }
}

const overlayClassName = "GlassmarkOverlay"

// screenshotToastDuration is how long the saved-screenshot toast stays
// on screen.
const screenshotToastDuration = 2 * time.Second

// window registry shared by the class wndproc. CreateWindowEx
// dispatches messages before it returns, so the surface being created
// is published through an atomic pointer the wndproc can read without
// taking windowsMu on the creating thread.
var (
	windowsMu  sync.Mutex
	windowMap  = map[uintptr]*windowSurface{}
	creationMu sync.Mutex
	pending    atomic.Pointer[windowSurface]
	classOnce  sync.Once
	classErr   error
	elementSeq atomic.Uint64
)

// windowSurface is one borderless, topmost, per-monitor overlay
// window. Its message loop runs on a dedicated locked OS thread;
// command methods are called from the shell's event loop and use only
// cross-thread-safe user32 calls.
type windowSurface struct {
	id      string
	bounds  Bounds
	monitor Monitor
	log     *logging.Logger

	hwnd uintptr

	mu             sync.Mutex
	visible        bool
	drawing        bool
	helpVisible    bool
	confirmVisible bool
	toastVisible   bool
	toastTimer     *time.Timer
	onConfirm      func()
	onCancel       func()
	tool           tools.Kind
	elements       []history.ElementID
	stroking       bool

	// recordAction feeds completed elements into the shell's history.
	recordAction func(surfaceID string, element history.ElementID)
	// removeAction reports eraser removals so history drops them too.
	removeAction func(element history.ElementID)
}

// NewWindowFactory returns a Factory creating one native overlay
// window per monitor.
func NewWindowFactory(opts FactoryOptions, log *logging.Logger) Factory {
	if log == nil {
		log = logging.Default()
	}
	return func(m Monitor) (Surface, error) {
		return newWindowSurface(m, opts, log)
	}
}

func newWindowSurface(m Monitor, opts FactoryOptions, log *logging.Logger) (*windowSurface, error) {
	classOnce.Do(registerOverlayClass)
	if classErr != nil {
		return nil, classErr
	}

	w := &windowSurface{
		id:           m.ID,
		bounds:       m.Bounds,
		monitor:      m,
		log:          log.WithComponent("surface"),
		tool:         tools.Pen,
		recordAction: opts.RecordAction,
		removeAction: opts.RemoveAction,
	}

	ready := make(chan error, 1)
	go w.runWindow(ready)
	if err := <-ready; err != nil {
		return nil, err
	}
	return w, nil
}

func registerOverlayClass() {
	className, err := windows.UTF16PtrFromString(overlayClassName)
	if err != nil {
		classErr = err
		return
	}
	hInstance, _, _ := getModuleHandle.Call(0)

	wc := wndClassEx{
		lpfnWndProc:   windows.NewCallback(overlayWndProc),
		hInstance:     hInstance,
		lpszClassName: className,
	}
	wc.cbSize = uint32(unsafe.Sizeof(wc))

	if r, _, err := registerClassEx.Call(uintptr(unsafe.Pointer(&wc))); r == 0 {
		classErr = fmt.Errorf("RegisterClassEx: %w", err)
	}
}

// runWindow creates the window and pumps its messages until
// destruction. The creating thread owns the window, so it is locked
// for the window's lifetime.
func (w *windowSurface) runWindow(ready chan<- error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	className, _ := windows.UTF16PtrFromString(overlayClassName)
	title, _ := windows.UTF16PtrFromString("glassmark " + w.id)
	hInstance, _, _ := getModuleHandle.Call(0)

	// Window geometry is physical pixels; bounds were DPI-normalized.
	px := func(v int32) uintptr { return uintptr(int32(float64(v) * w.monitor.Scale)) }

	creationMu.Lock()
	pending.Store(w)
	hwnd, _, err := createWindowEx.Call(
		wsExTopmost|wsExToolWindow|wsExLayered,
		uintptr(unsafe.Pointer(className)),
		uintptr(unsafe.Pointer(title)),
		wsPopup,
		px(w.bounds.X), px(w.bounds.Y),
		px(w.bounds.Width), px(w.bounds.Height),
		0, 0, hInstance, 0,
	)
	if hwnd == 0 {
		pending.Store(nil)
		creationMu.Unlock()
		ready <- fmt.Errorf("CreateWindowEx for %s: %w", w.id, err)
		return
	}
	w.hwnd = hwnd
	windowsMu.Lock()
	windowMap[hwnd] = w
	windowsMu.Unlock()
	pending.Store(nil)
	creationMu.Unlock()

	ready <- nil

	var m winMsg
	for {
		r, _, _ := getMessageW.Call(uintptr(unsafe.Pointer(&m)), 0, 0, 0)
		// 0 = WM_QUIT, ^0 = error; both end the pump.
		if r == 0 || int32(r) == -1 {
			break
		}
		translateMessage.Call(uintptr(unsafe.Pointer(&m)))
		dispatchMessage.Call(uintptr(unsafe.Pointer(&m)))
	}

	windowsMu.Lock()
	delete(windowMap, hwnd)
	windowsMu.Unlock()
}

// overlayWndProc dispatches to the owning surface. It runs inside a
// native callback, so panics are contained here.
func overlayWndProc(hwnd uintptr, msg uint32, wParam, lParam uintptr) uintptr {
	defer func() { _ = recover() }()

	windowsMu.Lock()
	w := windowMap[hwnd]
	windowsMu.Unlock()
	if w == nil {
		w = pending.Load()
	}

	if w != nil {
		if handled, result := w.handleMessage(msg, wParam, lParam); handled {
			return result
		}
	}
	r, _, _ := defWindowProc.Call(hwnd, uintptr(msg), wParam, lParam)
	return r
}

func (w *windowSurface) handleMessage(msg uint32, wParam, lParam uintptr) (bool, uintptr) {
	switch msg {
	case wmClose:
		destroyWindow.Call(w.hwnd)
		return true, 0
	case wmDestroy:
		postQuitMessage.Call(0)
		return true, 0
	case wmLButtonDown:
		w.onLeftDown()
		return true, 0
	case wmLButtonUp:
		w.onLeftUp()
		return true, 0
	case wmRButtonDown:
		w.onRightDown()
		return true, 0
	}
	return false, 0
}

// onLeftDown starts a stroke, confirms a pending prompt, or erases,
// depending on mode.
func (w *windowSurface) onLeftDown() {
	w.mu.Lock()
	if w.confirmVisible {
		cb := w.onConfirm
		w.mu.Unlock()
		if cb != nil {
			cb()
		}
		return
	}
	if !w.drawing {
		w.mu.Unlock()
		return
	}
	if w.tool == tools.Eraser {
		w.eraseTopLocked()
		w.mu.Unlock()
		return
	}
	w.stroking = true
	w.mu.Unlock()
}

// onLeftUp completes the in-progress stroke and records it.
func (w *windowSurface) onLeftUp() {
	w.mu.Lock()
	if !w.stroking {
		w.mu.Unlock()
		return
	}
	w.stroking = false
	id := history.ElementID(fmt.Sprintf("%s#%d", w.id, elementSeq.Add(1)))
	w.elements = append(w.elements, id)
	record := w.recordAction
	w.mu.Unlock()

	w.invalidate()
	if record != nil {
		record(w.id, id)
	}
}

// onRightDown cancels a pending confirmation or the current stroke.
func (w *windowSurface) onRightDown() {
	w.mu.Lock()
	if w.confirmVisible {
		cb := w.onCancel
		w.mu.Unlock()
		if cb != nil {
			cb()
		}
		return
	}
	w.stroking = false
	w.mu.Unlock()
}

// eraseTopLocked removes the most recent element. Caller holds w.mu.
func (w *windowSurface) eraseTopLocked() {
	if len(w.elements) == 0 {
		return
	}
	last := len(w.elements) - 1
	id := w.elements[last]
	w.elements = w.elements[:last]
	if w.removeAction != nil {
		// The callback only touches the history stack's own mutex.
		w.removeAction(id)
	}
}

func (w *windowSurface) invalidate() {
	invalidateRect.Call(w.hwnd, 0, 1)
}

// Surface implementation.

func (w *windowSurface) ID() string     { return w.id }
func (w *windowSurface) Bounds() Bounds { return w.bounds }

func (w *windowSurface) EnableDrawing() {
	w.mu.Lock()
	w.drawing = true
	w.mu.Unlock()
}

func (w *windowSurface) DisableDrawing(clearHistory bool) {
	w.mu.Lock()
	w.drawing = false
	w.stroking = false
	if clearHistory {
		w.elements = nil
	}
	w.mu.Unlock()
	w.invalidate()
}

func (w *windowSurface) Show() {
	showWindow.Call(w.hwnd, swShowNoActivate)
	w.mu.Lock()
	w.visible = true
	w.mu.Unlock()
}

func (w *windowSurface) Hide() {
	showWindow.Call(w.hwnd, swHide)
	w.mu.Lock()
	w.visible = false
	w.helpVisible = false
	w.mu.Unlock()
}

func (w *windowSurface) Activate() bool {
	r, _, _ := setForegroundWindow.Call(w.hwnd)
	return r != 0
}

func (w *windowSurface) Focus() bool {
	r, _, _ := setFocus.Call(w.hwnd)
	return r != 0
}

func (w *windowSurface) IsVisible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.visible
}

func (w *windowSurface) IsActive() bool {
	fg, _, _ := getForegroundWindow.Call()
	return fg == w.hwnd
}

func (w *windowSurface) IsFocused() bool {
	f, _, _ := getFocus.Call()
	return f == w.hwnd
}

func (w *windowSurface) OnToolChanged(tool tools.Kind) {
	w.mu.Lock()
	w.tool = tool
	w.stroking = false
	w.mu.Unlock()
}

func (w *windowSurface) ClearCanvas(clearHistory bool) {
	w.mu.Lock()
	w.elements = nil
	w.stroking = false
	w.mu.Unlock()
	_ = clearHistory // the shell clears the global stack itself
	w.invalidate()
}

func (w *windowSurface) ToggleHelp() {
	w.mu.Lock()
	w.helpVisible = !w.helpVisible
	w.mu.Unlock()
	w.invalidate()
}

func (w *windowSurface) IsHelpVisible() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.helpVisible
}

func (w *windowSurface) HandleEscapeKey() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.helpVisible {
		w.helpVisible = false
		return true
	}
	return false
}

// ShowScreenshotSaved raises the toast flag the WM_PAINT path renders
// and arms a timer to clear it again.
func (w *windowSurface) ShowScreenshotSaved() {
	w.mu.Lock()
	w.toastVisible = true
	if w.toastTimer != nil {
		w.toastTimer.Stop()
	}
	w.toastTimer = time.AfterFunc(screenshotToastDuration, w.hideScreenshotToast)
	w.mu.Unlock()
	w.invalidate()
}

func (w *windowSurface) hideScreenshotToast() {
	w.mu.Lock()
	w.toastVisible = false
	w.toastTimer = nil
	w.mu.Unlock()
	w.invalidate()
}

func (w *windowSurface) UndoLastAction() {
	w.mu.Lock()
	if n := len(w.elements); n > 0 {
		w.elements = w.elements[:n-1]
	}
	w.mu.Unlock()
	w.invalidate()
}

func (w *windowSurface) ShowClearCanvasConfirmation(onConfirm, onCancel func()) {
	w.mu.Lock()
	w.confirmVisible = true
	w.onConfirm = onConfirm
	w.onCancel = onCancel
	w.mu.Unlock()
	w.invalidate()
}

func (w *windowSurface) HideClearCanvasConfirmation() {
	w.mu.Lock()
	w.confirmVisible = false
	w.onConfirm = nil
	w.onCancel = nil
	w.mu.Unlock()
	w.invalidate()
}

func (w *windowSurface) TryRemoveElementByID(id history.ElementID) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, el := range w.elements {
		if el == id {
			w.elements = append(w.elements[:i], w.elements[i+1:]...)
			return true
		}
	}
	return false
}

func (w *windowSurface) Close() {
	w.mu.Lock()
	if w.toastTimer != nil {
		w.toastTimer.Stop()
		w.toastTimer = nil
	}
	w.mu.Unlock()
	postMessage.Call(w.hwnd, wmClose, 0, 0)
}
