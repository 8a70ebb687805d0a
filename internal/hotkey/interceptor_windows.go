//go:build windows

package hotkey

import (
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32              = windows.NewLazySystemDLL("user32.dll")
	setWindowsHookEx    = user32.NewProc("SetWindowsHookExW")
	callNextHookEx      = user32.NewProc("CallNextHookEx")
	unhookWindowsHookEx = user32.NewProc("UnhookWindowsHookEx")
	peekMessage         = user32.NewProc("PeekMessageW")
	getAsyncKeyState    = user32.NewProc("GetAsyncKeyState")
)

const (
	whKeyboardLL = 13
	wmKeydown    = 0x0100
	wmKeyup      = 0x0101
	wmSyskeydown = 0x0104
	wmSyskeyup   = 0x0105
	pmRemove     = 0x0001
)

type kbdllhookstruct struct {
	vkCode      uint32
	scanCode    uint32
	flags       uint32
	time        uint32
	dwExtraInfo uintptr
}

type msg struct {
	hwnd    uintptr
	message uint32
	wParam  uintptr
	lParam  uintptr
	time    uint32
	pt      struct{ x, y int32 }
}

// windowsInterceptor installs a WH_KEYBOARD_LL hook. The hook callback
// runs on the OS thread that installed it, which the interceptor locks
// and keeps pumping messages for the hook's lifetime.
type windowsInterceptor struct {
	mu       sync.Mutex
	handler  Handler
	hook     uintptr
	done     chan struct{}
	callback uintptr // created once; NewCallback slots are never freed
}

// NewInterceptor creates the platform keyboard interceptor.
func NewInterceptor() Interceptor {
	return &windowsInterceptor{}
}

// Install hooks the keyboard and blocks until the hook is in place or
// installation failed.
func (w *windowsInterceptor) Install(h Handler) error {
	w.mu.Lock()
	if w.hook != 0 {
		w.mu.Unlock()
		return ErrAlreadyRunning
	}
	w.handler = h
	w.done = make(chan struct{})
	w.mu.Unlock()

	errCh := make(chan error, 1)
	go w.runHook(errCh)
	return <-errCh
}

// Uninstall removes the hook. The handle is zeroed before the OS call
// so no second path can release it again even if the call fails.
func (w *windowsInterceptor) Uninstall() error {
	w.mu.Lock()
	hook := w.hook
	w.hook = 0
	w.handler = nil
	done := w.done
	w.done = nil
	w.mu.Unlock()

	if hook == 0 {
		return nil
	}
	close(done)
	if r, _, err := unhookWindowsHookEx.Call(hook); r == 0 {
		return fmt.Errorf("UnhookWindowsHookEx: %w", err)
	}
	return nil
}

func (w *windowsInterceptor) runHook(errCh chan<- error) {
	// A low-level hook must live on a thread that pumps messages.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	w.mu.Lock()
	if w.callback == 0 {
		w.callback = windows.NewCallback(w.hookProc)
	}
	callback := w.callback
	w.mu.Unlock()

	hook, _, err := setWindowsHookEx.Call(
		whKeyboardLL,
		callback,
		0,
		0,
	)
	if hook == 0 {
		errCh <- fmt.Errorf("SetWindowsHookEx: %w", err)
		return
	}

	w.mu.Lock()
	w.hook = hook
	done := w.done
	w.mu.Unlock()

	errCh <- nil

	var m msg
	for {
		select {
		case <-done:
			return
		default:
			r, _, _ := peekMessage.Call(
				uintptr(unsafe.Pointer(&m)),
				0, 0, 0,
				pmRemove,
			)
			if r != 0 {
				continue
			}
			runtime.Gosched()
		}
	}
}

// hookProc is the WH_KEYBOARD_LL callback.
func (w *windowsInterceptor) hookProc(nCode int32, wParam uintptr, lParam uintptr) uintptr {
	if nCode >= 0 {
		kb := (*kbdllhookstruct)(unsafe.Pointer(lParam))
		switch wParam {
		case wmKeydown, wmSyskeydown:
			w.dispatch(RawEvent{Key: VirtualKey(kb.vkCode), Down: true})
		case wmKeyup, wmSyskeyup:
			w.dispatch(RawEvent{Key: VirtualKey(kb.vkCode), Down: false})
		}
	}
	// The chain is forwarded on every exit path, including after a
	// handler panic caught inside dispatch.
	r, _, _ := callNextHookEx.Call(0, uintptr(nCode), wParam, lParam)
	return r
}

// dispatch hands the event to the handler, containing any panic so the
// hook chain forwarding above always runs.
func (w *windowsInterceptor) dispatch(ev RawEvent) {
	defer func() {
		_ = recover()
	}()
	w.mu.Lock()
	h := w.handler
	w.mu.Unlock()
	if h != nil {
		h(ev)
	}
}

// IsDown implements StatePoller via GetAsyncKeyState.
func (w *windowsInterceptor) IsDown(key VirtualKey) bool {
	r, _, _ := getAsyncKeyState.Call(uintptr(key))
	return r&0x8000 != 0
}
