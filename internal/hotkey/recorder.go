package hotkey

import (
	"context"
	"errors"
	"time"

	"glassmark/internal/logging"
)

// ErrRecordingAborted is returned when the user presses escape during
// recording.
var ErrRecordingAborted = errors.New("recording aborted")

// releaseDebounce is how long the recorder waits after the working set
// reads fully released before re-polling to confirm. Key auto-repeat
// and staggered release both settle well inside this window.
const releaseDebounce = 150 * time.Millisecond

// Recorder captures a new hotkey combination interactively. It runs a
// second, independent engine so the primary engine's state is never
// touched.
type Recorder struct {
	interceptor Interceptor
	poller      StatePoller
	log         *logging.Logger
	debounce    time.Duration
}

// NewRecorder creates a recorder over its own interceptor. The poller
// confirms full release out-of-band; the platform interceptors and the
// simulated one all implement it.
func NewRecorder(in Interceptor, poller StatePoller, log *logging.Logger) *Recorder {
	if log == nil {
		log = logging.Default()
	}
	return &Recorder{
		interceptor: in,
		poller:      poller,
		log:         log.WithComponent("recorder"),
		debounce:    releaseDebounce,
	}
}

// Record captures one combination. It accumulates every key seen going
// down into a working set and resolves when the whole set has
// transitioned back to released, confirmed by re-polling after a short
// debounce. Escape aborts unconditionally and discards the set.
//
// The returned combination is validated: fewer than two keys or no
// modifier fail outright; an OS-reserved combination is returned
// together with ErrReservedCombination so the caller can let the user
// override.
//
// The temporary engine is always stopped and disposed before Record
// returns.
func (r *Recorder) Record(ctx context.Context) (Combination, error) {
	engine := NewEngine(r.interceptor, r.log, WithRawEvents())
	defer engine.Dispose()

	if err := engine.Start(); err != nil {
		return Combination{}, err
	}

	working := make(map[VirtualKey]bool) // key -> currently down
	seen := make([]VirtualKey, 0, 4)

	var debounce *time.Timer
	var debounceC <-chan time.Time
	stopDebounce := func() {
		if debounce != nil {
			debounce.Stop()
			debounce = nil
			debounceC = nil
		}
	}

	for {
		select {
		case <-ctx.Done():
			return Combination{}, ctx.Err()

		case ev := <-engine.Events():
			switch ev.Type {
			case EscapePressed:
				r.log.Info("recording aborted by escape")
				return Combination{}, ErrRecordingAborted

			case KeyPressed:
				if ev.Key == KeyEscape {
					continue
				}
				stopDebounce()
				if _, ok := working[ev.Key]; !ok {
					seen = append(seen, ev.Key)
				}
				working[ev.Key] = true

			case KeyReleased:
				if _, ok := working[ev.Key]; !ok {
					continue
				}
				working[ev.Key] = false
				if len(seen) > 0 && allReleased(working) {
					stopDebounce()
					debounce = time.NewTimer(r.debounce)
					debounceC = debounce.C
				}
			}

		case <-debounceC:
			debounce = nil
			debounceC = nil
			// Re-poll: a key-up event followed by auto-repeat can make
			// the map read released while the key is physically held.
			if r.anyPhysicallyDown(seen) {
				continue
			}
			return r.resolve(seen)
		}
	}
}

func allReleased(working map[VirtualKey]bool) bool {
	for _, down := range working {
		if down {
			return false
		}
	}
	return true
}

func (r *Recorder) anyPhysicallyDown(keys []VirtualKey) bool {
	if r.poller == nil {
		return false
	}
	for _, k := range keys {
		if r.poller.IsDown(k) {
			return true
		}
	}
	return false
}

func (r *Recorder) resolve(seen []VirtualKey) (Combination, error) {
	combo, err := NewCombination(seen...)
	if err != nil {
		return Combination{}, err
	}
	if combo.IsReserved() {
		r.log.Warn("recorded combination is OS-reserved", "combination", combo.String())
		return combo, ErrReservedCombination
	}
	r.log.Info("combination recorded", "combination", combo.String())
	return combo, nil
}
