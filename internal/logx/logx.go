// Package logx is the engine's logging façade. It keeps the teacher's public
// surface (SetVerbosity, SetOutput, SetJSON, Errorf/Warnf/Infof/Debugf/Tracef,
// V) so every other package in the tree is untouched, but the backend is now
// github.com/rs/zerolog rather than the teacher's hand-rolled ANSI/JSON
// writer — zerolog already rides along as a transitive dependency pulled in
// by this corpus's HTTP-framework repos and is the idiomatic choice for
// leveled, structured logging.
package logx

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

type Level = zerolog.Level

const (
	LevelError = zerolog.ErrorLevel
	LevelWarn  = zerolog.WarnLevel
	LevelInfo  = zerolog.InfoLevel
	LevelDebug = zerolog.DebugLevel
	LevelTrace = zerolog.TraceLevel
)

var (
	mu       sync.RWMutex
	out      io.Writer = os.Stderr
	jsonMode bool
	logger             = buildLogger(out, false, zerolog.InfoLevel)
)

func buildLogger(w io.Writer, asJSON bool, lvl zerolog.Level) zerolog.Logger {
	if !asJSON {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	}
	return zerolog.New(w).With().Timestamp().Logger().Level(lvl)
}

// SetVerbosity keeps the teacher's 0..3 scale: 0=errors, 1=info, 2=debug, 3=trace.
func SetVerbosity(v int) {
	switch {
	case v <= 0:
		SetLevel(LevelError)
	case v == 1:
		SetLevel(LevelInfo)
	case v == 2:
		SetLevel(LevelDebug)
	default:
		SetLevel(LevelTrace)
	}
}

// SetLevel changes the minimum visible level.
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	logger = logger.Level(l)
}

// ParseLevel parses a config-file level string.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "error", "err":
		return LevelError, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "info":
		return LevelInfo, nil
	case "debug":
		return LevelDebug, nil
	case "trace":
		return LevelTrace, nil
	default:
		return 0, &unknownLevelError{s}
	}
}

type unknownLevelError struct{ level string }

func (e *unknownLevelError) Error() string { return "logx: unknown level " + e.level }

// SetOutput redirects log output; nil restores stderr.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	if w == nil {
		w = os.Stderr
	}
	out = w
	logger = buildLogger(out, jsonMode, logger.GetLevel())
}

// SetJSON switches between the human ConsoleWriter and raw JSON lines, for
// when the driver's stderr is consumed by another program.
func SetJSON(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	jsonMode = enabled
	logger = buildLogger(out, jsonMode, logger.GetLevel())
}

func Errorf(format string, a ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	logger.Error().Msgf(format, a...)
}

func Warnf(format string, a ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	logger.Warn().Msgf(format, a...)
}

func Infof(format string, a ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	logger.Info().Msgf(format, a...)
}

func Debugf(format string, a ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	logger.Debug().Msgf(format, a...)
}

func Tracef(format string, a ...interface{}) {
	mu.RLock()
	defer mu.RUnlock()
	logger.Trace().Msgf(format, a...)
}

// V is the teacher's old verbosity-number call style, kept for call sites
// that never migrated to the named levels.
func V(level int, format string, a ...interface{}) {
	switch {
	case level <= 0:
		Warnf(format, a...)
	case level == 1:
		Infof(format, a...)
	case level == 2:
		Debugf(format, a...)
	default:
		Tracef(format, a...)
	}
}
