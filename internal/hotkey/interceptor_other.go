//go:build !windows

package hotkey

// unavailableInterceptor is the stub for platforms without a
// low-level keyboard hook implementation.
type unavailableInterceptor struct{}

// NewInterceptor creates the platform keyboard interceptor.
func NewInterceptor() Interceptor {
	return unavailableInterceptor{}
}

func (unavailableInterceptor) Install(Handler) error { return ErrNotAvailable }

func (unavailableInterceptor) Uninstall() error { return nil }

// IsDown implements StatePoller; no key is ever observed down.
func (unavailableInterceptor) IsDown(VirtualKey) bool { return false }
