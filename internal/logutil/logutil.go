package logutil

import (
	"os"
	"sync"

	"github.com/charmbracelet/log"
	"golang.org/x/term"
)

var (
	logger  = log.NewWithOptions(os.Stderr, log.Options{Prefix: "tootrelay", ReportTimestamp: true, Level: log.InfoLevel, Formatter: formatter()})
	verbose bool
	mu      sync.RWMutex
)

// formatter picks plain logfmt when stderr is not a terminal (journald, files).
func formatter() log.Formatter {
	if term.IsTerminal(int(os.Stderr.Fd())) {
		return log.TextFormatter
	}
	return log.LogfmtFormatter
}

// SetVerbose adjusts the global logging level.
func SetVerbose(enable bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = enable
	if enable {
		logger.SetLevel(log.DebugLevel)
	} else {
		logger.SetLevel(log.InfoLevel)
	}
}

// Verbose reports whether verbose logging is enabled.
func Verbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// Debugf logs a debug message when verbose logging is enabled.
func Debugf(format string, args ...any) {
	logger.Debugf(format, args...)
}

// Infof logs an informational message.
func Infof(format string, args ...any) {
	logger.Infof(format, args...)
}

// Errorf logs an error message.
func Errorf(format string, args ...any) {
	logger.Errorf(format, args...)
}
