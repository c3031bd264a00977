// Package logger is a thin wrapper around a zap SugaredLogger, giving the
// rest of the module a package-level Debugf/Infof/Warnf/Errorf without
// threading a logger value through every constructor.
package logger

import (
	"os"
	"sync"

	"go.uber.org/zap"
)

var (
	mu  sync.RWMutex
	log *zap.SugaredLogger
)

func init() {
	l, _ := zap.NewProduction()
	log = l.Sugar()
}

// InitLogging replaces the package logger with one writing to logPath at
// debug or info level. The previous logger (the bootstrap stderr one, or a
// prior call's) is replaced without being synced or closed.
func InitLogging(debug bool, logPath string) error {
	level := zap.InfoLevel
	if debug {
		level = zap.DebugLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.OutputPaths = []string{logPath}
	cfg.ErrorOutputPaths = []string{logPath}

	if logPath != "" {
		if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			f.Close()
		} else {
			return err
		}
	}

	l, err := cfg.Build()
	if err != nil {
		return err
	}

	mu.Lock()
	log = l.Sugar()
	mu.Unlock()

	return nil
}

// Close flushes any buffered entries of the current logger.
func Close() error {
	mu.RLock()
	defer mu.RUnlock()

	return log.Sync()
}

func Debugf(template string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	log.Debugf(template, args...)
}

func Infof(template string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	log.Infof(template, args...)
}

func Warnf(template string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	log.Warnf(template, args...)
}

func Errorf(template string, args ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	log.Errorf(template, args...)
}
