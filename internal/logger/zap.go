package logger

import (
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap's SugaredLogger.
type Logger struct {
	*zap.SugaredLogger
}

// Named returns a child logger whose entries carry name, so lines from the
// firing and project services can be told apart.
func (l *Logger) Named(name string) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.Named(name)}
}

// unknownLevel is used when the configured level does not parse.
const unknownLevel = zapcore.DebugLevel

// toZapLevel parses a level name in any case. An empty name means info, as
// in zap; anything unrecognised falls back to debug so nothing is hidden.
func toZapLevel(levelStr string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(levelStr)))
	if err != nil {
		return unknownLevel
	}
	return lvl
}

// newConsoleCore encodes entries as tab-separated console lines with RFC3339
// timestamps and capitalised levels.
func newConsoleCore(level zapcore.Level, w io.Writer) zapcore.Core {
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "ts"
	enc.NameKey = "component"
	enc.EncodeTime = zapcore.RFC3339TimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	enc.EncodeName = zapcore.FullNameEncoder

	return zapcore.NewCore(
		zapcore.NewConsoleEncoder(enc),
		zapcore.Lock(zapcore.AddSync(w)),
		zap.NewAtomicLevelAt(level),
	)
}
