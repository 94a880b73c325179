// Package witlog provides the toolchain's package-level logger, mirroring
// the zap no-op-by-default singleton pattern used throughout this
// codebase's component packages.
package witlog

import (
	"sync"

	"go.uber.org/zap"
)

var (
	logger     *zap.Logger
	loggerOnce sync.Once
)

// Logger returns the package's logger instance. It uses a no-op logger
// by default.
func Logger() *zap.Logger {
	loggerOnce.Do(func() {
		if logger == nil {
			logger = zap.NewNop()
		}
	})
	return logger
}

// SetLogger configures the package's logger. This must be called before
// any toolchain operations.
func SetLogger(l *zap.Logger) {
	logger = l
}
