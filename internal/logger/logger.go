// Package logger builds the zap loggers used by the satchel store and CLI.
package logger

import (
	"io"
	"os"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/mesh-intelligence/satchel/pkg/types"
)

// DefaultLevel applies when no level is configured.
const DefaultLevel = "warn"

// New returns a logger writing to stderr at level in the given format
// (types.LogFormatConsole or types.LogFormatJSON; empty means console).
func New(level, format string) (*zap.SugaredLogger, error) {
	return NewWithWriter(os.Stderr, level, format)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, level, format string) (*zap.SugaredLogger, error) {
	if level == "" {
		level = DefaultLevel
	}
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrapf(err, "log level %q", level)
	}

	var enc zapcore.Encoder
	switch format {
	case "", types.LogFormatConsole:
		cfg := zap.NewDevelopmentEncoderConfig()
		cfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		enc = zapcore.NewConsoleEncoder(cfg)
	case types.LogFormatJSON:
		enc = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	default:
		return nil, errors.Wrapf(types.ErrLogFormatUnknown, "%q", format)
	}

	core := zapcore.NewCore(enc, zapcore.AddSync(w), lvl)
	return zap.New(core).Sugar(), nil
}

// Nop returns a logger that discards everything.
func Nop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}

// Component returns a named child logger for one part of the program.
func Component(parent *zap.SugaredLogger, name string) *zap.SugaredLogger {
	return parent.Named(name).With(FieldComponent, name)
}
