package logger

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// global is the process-wide logger returned when the context carries none.
	//nolint:gochecknoglobals // Logger is used all over the project, so it's okay.
	global *zap.SugaredLogger
	// level is shared by every logger built with New, so SetLevel affects them all.
	//nolint:gochecknoglobals // Level must be adjustable after flags are parsed.
	level = zap.NewAtomicLevelAt(zap.InfoLevel)
)

func init() { //nolint:gochecknoinits // A usable logger must exist before flags are parsed.
	SetLogger(New(level, zapcore.Lock(os.Stdout)))
}

// New creates a console logger writing to sink.
// A nil enabler falls back to the shared atomic level.
func New(enabler zapcore.LevelEnabler, sink zapcore.WriteSyncer, options ...zap.Option) *zap.SugaredLogger {
	if enabler == nil {
		enabler = level
	}

	if sink == nil {
		sink = zapcore.Lock(os.Stdout)
	}

	//nolint:exhaustruct // Default encoder values are fine for the rest.
	encoder := zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:          "time",
		MessageKey:       "message",
		LevelKey:         "level",
		NameKey:          "logger",
		StacktraceKey:    "stacktrace",
		LineEnding:       zapcore.DefaultLineEnding,
		EncodeLevel:      zapcore.CapitalColorLevelEncoder,
		EncodeTime:       zapcore.ISO8601TimeEncoder,
		EncodeDuration:   zapcore.StringDurationEncoder,
		EncodeName:       zapcore.FullNameEncoder,
		ConsoleSeparator: " ",
	})

	return zap.New(zapcore.NewCore(encoder, sink, enabler), options...).Sugar()
}

// ParseLogLevel converts flag input to a zap level.
// The boolean is false for unknown names, in which case info is returned.
func ParseLogLevel(s string) (zapcore.Level, bool) {
	var parsed zapcore.Level
	if err := parsed.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(s)))); err != nil {
		return zapcore.InfoLevel, false
	}

	return parsed, true
}

// SetLevelByName parses and applies a level name, used by the --log-level flag.
func SetLevelByName(name string) error {
	parsed, ok := ParseLogLevel(name)
	if !ok {
		return fmt.Errorf("unknown log level %q", name)
	}

	SetLevel(parsed)

	return nil
}

// Level returns the current shared level.
func Level() zapcore.Level {
	return level.Level()
}

// Logger returns the global logger.
func Logger() *zap.SugaredLogger {
	return global
}

// SetLogger replaces the global logger. Not safe for concurrent use.
func SetLogger(l *zap.SugaredLogger) {
	global = l
}

// SetLevel changes the shared level.
func SetLevel(l zapcore.Level) {
	//nolint:errcheck // Sync errors on stdout are not actionable.
	defer global.Sync()

	level.SetLevel(l)
}
