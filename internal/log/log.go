package log

import (
	"sync"

	"go.uber.org/zap"
)

var (
	mu            sync.RWMutex
	defaultLogger = zap.NewNop()
)

// Get returns the process-wide logger. It is a no-op logger until Set
// is called.
func Get() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return defaultLogger
}

func Set(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	mu.Lock()
	defer mu.Unlock()
	defaultLogger = logger
}

func Flush() {
	_ = Get().Sync()
}
