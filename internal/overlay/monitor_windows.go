//go:build windows

package overlay

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/windows"
)

var (
	user32              = windows.NewLazySystemDLL("user32.dll")
	shcore              = windows.NewLazySystemDLL("shcore.dll")
	enumDisplayMonitors = user32.NewProc("EnumDisplayMonitors")
	getMonitorInfo      = user32.NewProc("GetMonitorInfoW")
	getCursorPos        = user32.NewProc("GetCursorPos")
	getSystemMetrics    = user32.NewProc("GetSystemMetrics")
	getDpiForMonitor    = shcore.NewProc("GetDpiForMonitor")
)

const (
	smXVirtualScreen  = 76
	smYVirtualScreen  = 77
	smCXVirtualScreen = 78
	smCYVirtualScreen = 79

	monitorinfofPrimary = 1
	mdtEffectiveDPI     = 0
	baseDPI             = 96
)

type rect struct {
	left, top, right, bottom int32
}

type monitorInfoEx struct {
	cbSize    uint32
	rcMonitor rect
	rcWork    rect
	dwFlags   uint32
	szDevice  [32]uint16
}

// Monitors enumerates the displays present right now. Bounds are
// normalized by each monitor's effective DPI scale so surfaces agree
// on one coordinate space.
func Monitors() ([]Monitor, error) {
	var monitors []Monitor

	cb := windows.NewCallback(func(hMonitor uintptr, hdc uintptr, lprc uintptr, lparam uintptr) uintptr {
		var info monitorInfoEx
		info.cbSize = uint32(unsafe.Sizeof(info))
		r, _, _ := getMonitorInfo.Call(hMonitor, uintptr(unsafe.Pointer(&info)))
		if r == 0 {
			return 1 // skip this monitor, keep enumerating
		}

		scale := monitorScale(hMonitor)
		b := Bounds{
			X:      int32(float64(info.rcMonitor.left) / scale),
			Y:      int32(float64(info.rcMonitor.top) / scale),
			Width:  int32(float64(info.rcMonitor.right-info.rcMonitor.left) / scale),
			Height: int32(float64(info.rcMonitor.bottom-info.rcMonitor.top) / scale),
		}
		monitors = append(monitors, Monitor{
			ID:      windows.UTF16ToString(info.szDevice[:]),
			Bounds:  b,
			Primary: info.dwFlags&monitorinfofPrimary != 0,
			Scale:   scale,
		})
		return 1
	})

	r, _, err := enumDisplayMonitors.Call(0, 0, cb, 0)
	if r == 0 {
		return nil, fmt.Errorf("EnumDisplayMonitors: %w", err)
	}
	return monitors, nil
}

// monitorScale returns the effective DPI scale for a monitor, 1.0 when
// the DPI query is unavailable (pre-8.1 systems).
func monitorScale(hMonitor uintptr) float64 {
	if err := getDpiForMonitor.Find(); err != nil {
		return 1
	}
	var dpiX, dpiY uint32
	r, _, _ := getDpiForMonitor.Call(hMonitor, mdtEffectiveDPI,
		uintptr(unsafe.Pointer(&dpiX)), uintptr(unsafe.Pointer(&dpiY)))
	if r != 0 || dpiX == 0 {
		return 1
	}
	return float64(dpiX) / baseDPI
}

// cursorPosition reads the pointer position in virtual-screen
// coordinates.
func cursorPosition() (Point, bool) {
	var p struct{ x, y int32 }
	r, _, _ := getCursorPos.Call(uintptr(unsafe.Pointer(&p)))
	if r == 0 {
		return Point{}, false
	}
	return Point{X: p.x, Y: p.y}, true
}

// virtualScreenBounds returns the rectangle spanning all displays.
func virtualScreenBounds() Bounds {
	x, _, _ := getSystemMetrics.Call(smXVirtualScreen)
	y, _, _ := getSystemMetrics.Call(smYVirtualScreen)
	w, _, _ := getSystemMetrics.Call(smCXVirtualScreen)
	h, _, _ := getSystemMetrics.Call(smCYVirtualScreen)
	return Bounds{X: int32(x), Y: int32(y), Width: int32(w), Height: int32(h)}
}
