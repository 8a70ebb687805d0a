package hotkey

// edge is the result of feeding one key transition through the
// matcher.
type edge int

const (
	edgeNone edge = iota
	edgeRising
	edgeFalling
)

// matcher tracks the down/up state of the configured combination's
// keys and detects rising and falling edges of "all members held".
//
// It is not safe for concurrent use; the engine serializes access
// between the hook callback and Configure with a short lock.
type matcher struct {
	combo  Combination
	down   map[VirtualKey]bool
	active bool // previous "all held" reading, the edge memory
}

func newMatcher() *matcher {
	return &matcher{down: make(map[VirtualKey]bool)}
}

// configure replaces the combination and clears all per-key state and
// edge memory. Keys physically held across a reconfigure read as up
// until their next transition, so no stale active reading leaks into
// the new set.
func (m *matcher) configure(c Combination) {
	m.combo = c
	m.down = make(map[VirtualKey]bool, c.Len())
	m.active = false
}

// update feeds one key transition and returns the edge it produced,
// if any. Auto-repeat (a down for a key already down) cannot produce
// an edge because the aggregate reading does not change.
func (m *matcher) update(key VirtualKey, down bool) edge {
	if m.combo.IsEmpty() {
		return edgeNone
	}
	n := key.normalizeModifier()
	if !m.combo.Contains(n) {
		return edgeNone
	}
	m.down[n] = down

	was := m.active
	m.active = m.allHeld()
	switch {
	case !was && m.active:
		return edgeRising
	case was && !m.active:
		return edgeFalling
	}
	return edgeNone
}

func (m *matcher) allHeld() bool {
	for _, k := range m.combo.Keys() {
		if !m.down[k] {
			return false
		}
	}
	return true
}
