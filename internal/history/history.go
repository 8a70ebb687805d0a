// Package history keeps one global, ordered undo stack of drawing
// actions across all overlay surfaces.
//
// Each record pairs the element with the surface it was drawn on.
// Undo is surface-correct: the inverse operation is routed to the
// owning surface only, never to whichever surface happens to be
// active.
package history

import (
	"sync"

	"glassmark/internal/logging"
)

// ElementID identifies a drawn element, unique within the process.
type ElementID string

// Record is one undoable action: an element and the surface that owns
// it.
type Record struct {
	SurfaceID string
	Element   ElementID
}

// Stack is the global LIFO of drawing actions. It is safe for
// concurrent use: records arrive from surface window threads while
// undo runs on the shell's event loop.
type Stack struct {
	mu      sync.Mutex
	records []Record
	log     *logging.Logger
}

// New creates an empty stack. The logger may be nil.
func New(log *logging.Logger) *Stack {
	if log == nil {
		log = logging.Default()
	}
	return &Stack{log: log.WithComponent("history")}
}

// RecordAction appends a completed element to the stack. Empty
// elements are accepted as no-ops so callers don't have to guard
// stroke-completion paths that produced nothing.
func (s *Stack) RecordAction(surfaceID string, element ElementID) {
	if element == "" {
		return
	}
	s.mu.Lock()
	s.records = append(s.records, Record{SurfaceID: surfaceID, Element: element})
	s.mu.Unlock()
}

// RemoveFromHistory removes the first matching entry found from the
// top of the stack, wherever it sits, preserving the relative order of
// the rest. This is the eraser path: an erased element must no longer
// be undoable. Returns false if the element was not recorded.
func (s *Stack) RemoveFromHistory(element ElementID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.records) - 1; i >= 0; i-- {
		if s.records[i].Element == element {
			s.records = append(s.records[:i], s.records[i+1:]...)
			return true
		}
	}
	return false
}

// UndoLastAction pops the most recent record. ok is false when there
// is nothing to undo.
func (s *Stack) UndoLastAction() (rec Record, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		return Record{}, false
	}
	last := len(s.records) - 1
	rec = s.records[last]
	s.records = s.records[:last]
	return rec, true
}

// Len returns the number of undoable actions.
func (s *Stack) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Clear empties the stack. Used on canvas clear and when leaving
// drawing mode with history clearing requested.
func (s *Stack) Clear() {
	s.mu.Lock()
	s.records = nil
	s.mu.Unlock()
}

// SurfaceResolver finds a surface by id and attempts element removal
// on it. The orchestrator implements this.
type SurfaceResolver interface {
	TryRemoveElementOnSurface(surfaceID string, element ElementID) (removed bool, found bool)
}

// Undo pops the top record and routes the removal to the owning
// surface via the resolver. A missing surface or an element the
// surface no longer holds is a logged warning and a no-op: removal is
// never retried on another surface. Returns false when there was
// nothing to undo.
func (s *Stack) Undo(r SurfaceResolver) bool {
	rec, ok := s.UndoLastAction()
	if !ok {
		s.log.Debug("undo requested with empty history")
		return false
	}
	removed, found := r.TryRemoveElementOnSurface(rec.SurfaceID, rec.Element)
	if !found {
		s.log.Warn("undo target surface not found",
			"surface", rec.SurfaceID, "element", string(rec.Element))
		return true
	}
	if !removed {
		s.log.Warn("undo element missing on its surface",
			"surface", rec.SurfaceID, "element", string(rec.Element))
	}
	return true
}
