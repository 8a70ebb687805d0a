package hotkey

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Validation errors for combinations.
var (
	ErrTooFewKeys = errors.New("combination needs at least two keys")
	ErrNoModifier = errors.New("combination needs at least one modifier key")

	// ErrReservedCombination marks combinations the OS intercepts
	// before any hook sees them. Callers may choose to proceed anyway.
	ErrReservedCombination = errors.New("combination is reserved by the operating system")
)

// Combination is an unordered, deduplicated set of keys that together
// form the activation hotkey. A valid combination has at least two
// keys, at least one of them a modifier. The zero value is empty and
// never matches.
type Combination struct {
	keys []VirtualKey // sorted, deduplicated, modifiers normalized
}

// NewCombination builds a combination from keys, deduplicating and
// normalizing left/right modifier variants. It rejects sets that fail
// validation so an invalid combination is never activated or
// persisted.
func NewCombination(keys ...VirtualKey) (Combination, error) {
	seen := make(map[VirtualKey]bool, len(keys))
	out := make([]VirtualKey, 0, len(keys))
	for _, k := range keys {
		n := k.normalizeModifier()
		if seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	c := Combination{keys: out}
	if err := c.validate(); err != nil {
		return Combination{}, err
	}
	return c, nil
}

func (c Combination) validate() error {
	if len(c.keys) < 2 {
		return ErrTooFewKeys
	}
	for _, k := range c.keys {
		if k.IsModifier() {
			return nil
		}
	}
	return ErrNoModifier
}

// IsEmpty reports whether the combination has no keys (the zero
// value).
func (c Combination) IsEmpty() bool {
	return len(c.keys) == 0
}

// Len returns the number of distinct keys.
func (c Combination) Len() int {
	return len(c.keys)
}

// Contains reports whether key is a member, folding left/right
// modifier variants.
func (c Combination) Contains(key VirtualKey) bool {
	n := key.normalizeModifier()
	for _, k := range c.keys {
		if k == n {
			return true
		}
	}
	return false
}

// Keys returns a copy of the member keys.
func (c Combination) Keys() []VirtualKey {
	out := make([]VirtualKey, len(c.keys))
	copy(out, c.keys)
	return out
}

// Equal reports whether two combinations contain the same key set.
func (c Combination) Equal(other Combination) bool {
	if len(c.keys) != len(other.keys) {
		return false
	}
	for i := range c.keys {
		if c.keys[i] != other.keys[i] {
			return false
		}
	}
	return true
}

// String formats the combination as "Ctrl+Alt+X", modifiers first.
func (c Combination) String() string {
	mods := make([]string, 0, len(c.keys))
	rest := make([]string, 0, len(c.keys))
	for _, k := range c.keys {
		if k.IsModifier() {
			mods = append(mods, k.String())
		} else {
			rest = append(rest, k.String())
		}
	}
	return strings.Join(append(mods, rest...), "+")
}

// ParseCombination parses a config string like "ctrl+alt+d" into a
// validated combination.
func ParseCombination(s string) (Combination, error) {
	parts := strings.Split(s, "+")
	keys := make([]VirtualKey, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		k, err := ParseKey(p)
		if err != nil {
			return Combination{}, fmt.Errorf("parse combination %q: %w", s, err)
		}
		keys = append(keys, k)
	}
	return NewCombination(keys...)
}

// reserved combinations the OS consumes before delivering them to a
// low-level hook.
var reservedCombinations = []Combination{
	mustCombination(KeyControl, KeyAlt, KeyDelete),
	mustCombination(KeyLWin, KeyL),
	mustCombination(KeyControl, KeyShift, KeyEscape),
	mustCombination(KeyAlt, KeyTab),
}

func mustCombination(keys ...VirtualKey) Combination {
	c, err := NewCombination(keys...)
	if err != nil {
		panic(err)
	}
	return c
}

// IsReserved reports whether the combination collides with an
// OS-reserved shortcut.
func (c Combination) IsReserved() bool {
	for _, r := range reservedCombinations {
		if c.Equal(r) {
			return true
		}
	}
	return false
}

// DefaultCombination is the out-of-the-box activation hotkey,
// Ctrl+Alt+D.
func DefaultCombination() Combination {
	return mustCombination(KeyControl, KeyAlt, KeyD)
}
