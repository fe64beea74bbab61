package logging

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	baseMu sync.RWMutex
	base   zerolog.Logger
)

func init() {
	localEnv := os.Getenv("LOCAL")
	if strings.ToLower(localEnv) == "true" || localEnv == "1" {
		Configure(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}, "debug")
		return
	}
	Configure(os.Stdout, "info")
}

// Configure replaces the process-wide log output and level.
// Unknown levels fall back to info.
func Configure(w io.Writer, level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	baseMu.Lock()
	defer baseMu.Unlock()
	base = zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}

// SetLogLevel changes the level of the process-wide logger.
func SetLogLevel(level string) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return
	}
	baseMu.Lock()
	defer baseMu.Unlock()
	base = base.Level(lvl)
}

// Logger provides structured logging scoped to a component.
type Logger struct {
	component string
}

// NewLogger creates a new logger for a component
func NewLogger(component string) *Logger {
	return &Logger{component: component}
}

func (l *Logger) zl() *zerolog.Logger {
	baseMu.RLock()
	defer baseMu.RUnlock()
	zl := base.With().Str("component", l.component).Logger()
	return &zl
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, keyvals ...any) {
	withFields(l.zl().Debug(), keyvals).Msg(msg)
}

// Info logs an informational message
func (l *Logger) Info(msg string, keyvals ...any) {
	withFields(l.zl().Info(), keyvals).Msg(msg)
}

// Warn logs a warning message
func (l *Logger) Warn(msg string, keyvals ...any) {
	withFields(l.zl().Warn(), keyvals).Msg(msg)
}

// Error logs an error message
func (l *Logger) Error(msg string, keyvals ...any) {
	withFields(l.zl().Error(), keyvals).Msg(msg)
}

// withFields attaches key-value pairs; a trailing key without value is dropped.
func withFields(e *zerolog.Event, keyvals []any) *zerolog.Event {
	for i := 0; i+1 < len(keyvals); i += 2 {
		key, ok := keyvals[i].(string)
		if !ok {
			continue
		}
		switch v := keyvals[i+1].(type) {
		case error:
			e = e.AnErr(key, v)
		case string:
			e = e.Str(key, v)
		case int:
			e = e.Int(key, v)
		case bool:
			e = e.Bool(key, v)
		case time.Duration:
			e = e.Dur(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	return e
}
