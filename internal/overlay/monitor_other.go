//go:build !windows

package overlay

// Monitors reports no displays on platforms without an overlay
// implementation.
func Monitors() ([]Monitor, error) {
	return nil, ErrNotAvailable
}

func cursorPosition() (Point, bool) {
	return Point{}, false
}

func virtualScreenBounds() Bounds {
	return Bounds{}
}
