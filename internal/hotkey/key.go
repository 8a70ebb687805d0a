package hotkey

import (
	"fmt"
	"strings"
)

// VirtualKey identifies a physical key by its platform virtual-key
// code. Only equality matters to this package; the values follow the
// Windows VK_* numbering, which the simulated interceptor reuses on
// every platform.
type VirtualKey uint32

// Keys this package refers to by name.
const (
	KeyEscape    VirtualKey = 0x1B
	KeySpace     VirtualKey = 0x20
	KeyEnter     VirtualKey = 0x0D
	KeyTab       VirtualKey = 0x09
	KeyBackspace VirtualKey = 0x08
	KeyDelete    VirtualKey = 0x2E

	KeyShift    VirtualKey = 0x10
	KeyControl  VirtualKey = 0x11
	KeyAlt      VirtualKey = 0x12
	KeyLShift   VirtualKey = 0xA0
	KeyRShift   VirtualKey = 0xA1
	KeyLControl VirtualKey = 0xA2
	KeyRControl VirtualKey = 0xA3
	KeyLAlt     VirtualKey = 0xA4
	KeyRAlt     VirtualKey = 0xA5
	KeyLWin     VirtualKey = 0x5B
	KeyRWin     VirtualKey = 0x5C
)

// Letter and digit keys used by default bindings.
const (
	KeyA VirtualKey = 0x41
	KeyC VirtualKey = 0x43
	KeyD VirtualKey = 0x44
	KeyE VirtualKey = 0x45
	KeyL VirtualKey = 0x4C
	KeyO VirtualKey = 0x4F
	KeyP VirtualKey = 0x50
	KeyR VirtualKey = 0x52
	KeyS VirtualKey = 0x53
	KeyT VirtualKey = 0x54
	KeyX VirtualKey = 0x58
	KeyZ VirtualKey = 0x5A

	KeyF1 VirtualKey = 0x70
)

// IsModifier reports whether k is a modifier key (Ctrl, Alt, Shift or
// the Windows key, either side).
func (k VirtualKey) IsModifier() bool {
	switch k {
	case KeyShift, KeyControl, KeyAlt,
		KeyLShift, KeyRShift,
		KeyLControl, KeyRControl,
		KeyLAlt, KeyRAlt,
		KeyLWin, KeyRWin:
		return true
	}
	return false
}

// normalizeModifier folds left/right modifier variants onto the
// generic code so a combination configured as "ctrl" matches either
// physical Ctrl key.
func (k VirtualKey) normalizeModifier() VirtualKey {
	switch k {
	case KeyLShift, KeyRShift:
		return KeyShift
	case KeyLControl, KeyRControl:
		return KeyControl
	case KeyLAlt, KeyRAlt:
		return KeyAlt
	case KeyRWin:
		return KeyLWin
	}
	return k
}

var keyNames = map[string]VirtualKey{
	"ctrl": KeyControl, "control": KeyControl,
	"shift": KeyShift,
	"alt":   KeyAlt,
	"win":   KeyLWin, "super": KeyLWin, "meta": KeyLWin,
	"esc": KeyEscape, "escape": KeyEscape,
	"space": KeySpace, "enter": KeyEnter, "tab": KeyTab,
	"backspace": KeyBackspace, "delete": KeyDelete, "del": KeyDelete,
	"a": 0x41, "b": 0x42, "c": 0x43, "d": 0x44, "e": 0x45,
	"f": 0x46, "g": 0x47, "h": 0x48, "i": 0x49, "j": 0x4A,
	"k": 0x4B, "l": 0x4C, "m": 0x4D, "n": 0x4E, "o": 0x4F,
	"p": 0x50, "q": 0x51, "r": 0x52, "s": 0x53, "t": 0x54,
	"u": 0x55, "v": 0x56, "w": 0x57, "x": 0x58, "y": 0x59,
	"z": 0x5A,
	"0": 0x30, "1": 0x31, "2": 0x32, "3": 0x33, "4": 0x34,
	"5": 0x35, "6": 0x36, "7": 0x37, "8": 0x38, "9": 0x39,
	"f1": 0x70, "f2": 0x71, "f3": 0x72, "f4": 0x73,
	"f5": 0x74, "f6": 0x75, "f7": 0x76, "f8": 0x77,
	"f9": 0x78, "f10": 0x79, "f11": 0x7A, "f12": 0x7B,
}

// keyLabels is the inverse of keyNames with display casing.
var keyLabels = func() map[VirtualKey]string {
	labels := make(map[VirtualKey]string, len(keyNames))
	// Insertion order of the preferred aliases wins.
	preferred := map[VirtualKey]string{
		KeyControl: "Ctrl", KeyShift: "Shift", KeyAlt: "Alt",
		KeyLWin: "Win", KeyEscape: "Esc", KeySpace: "Space",
		KeyEnter: "Enter", KeyTab: "Tab",
		KeyBackspace: "Backspace", KeyDelete: "Delete",
	}
	for name, code := range keyNames {
		if _, ok := preferred[code]; ok {
			continue
		}
		if prev, ok := labels[code]; ok && len(prev) <= len(name) {
			continue
		}
		labels[code] = strings.ToUpper(name)
	}
	for code, label := range preferred {
		labels[code] = label
	}
	return labels
}()

// ParseKey converts a config key name (case-insensitive) into a
// VirtualKey.
func ParseKey(name string) (VirtualKey, error) {
	k, ok := keyNames[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("unknown key name: %q", name)
	}
	return k, nil
}

// String returns the display name for the key, or a hex code for keys
// this package has no label for.
func (k VirtualKey) String() string {
	if label, ok := keyLabels[k.normalizeModifier()]; ok {
		return label
	}
	return fmt.Sprintf("0x%02X", uint32(k))
}
