package log

import (
	"fmt"
	"strings"
)

// Logger is the leveled logger used across the properties packages.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
	// With returns a logger that attaches the key/value pairs to every entry.
	With(keyValues ...any) Logger
	LogLevel() Level
}

// Level is a logging priority. Higher levels are more important.
type Level int

const (
	DebugLevel Level = iota - 1
	InfoLevel
	WarningLevel
	ErrorLevel
)

func (l Level) String() string {
	switch l {
	case DebugLevel:
		return "debug"
	case InfoLevel:
		return "info"
	case WarningLevel:
		return "warn"
	case ErrorLevel:
		return "error"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel maps a textual level ("debug", "info", "warn", "error") to a Level.
func ParseLevel(text string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "debug":
		return DebugLevel, nil
	case "", "info":
		return InfoLevel, nil
	case "warn", "warning":
		return WarningLevel, nil
	case "error":
		return ErrorLevel, nil
	default:
		return InfoLevel, fmt.Errorf("log: unknown level %q", text)
	}
}
