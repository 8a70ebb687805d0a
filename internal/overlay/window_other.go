//go:build !windows

package overlay

import (
	"glassmark/internal/logging"
)

// NewWindowFactory has no native window implementation on this
// platform; every creation attempt fails with ErrNotAvailable.
func NewWindowFactory(opts FactoryOptions, log *logging.Logger) Factory {
	return func(m Monitor) (Surface, error) {
		return nil, ErrNotAvailable
	}
}
