// Package logging builds the zap logger shared by the CLI and the MCP server.
package logging

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DebugEnv enables debug logging like --verbose.
const DebugEnv = "BRAG_DEBUG"

// New returns a console logger writing to stderr. Stdout is left to command
// output and the MCP protocol. Only warnings and errors are shown unless
// verbose is set.
func New(verbose bool) *zap.Logger {
	color := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	return NewWithWriter(os.Stderr, verbose || os.Getenv(DebugEnv) != "", color)
}

// NewWithWriter returns a console logger writing to w.
func NewWithWriter(w io.Writer, verbose, color bool) *zap.Logger {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	if color {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	level := zapcore.WarnLevel
	if verbose {
		level = zapcore.DebugLevel
	}

	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encoderConfig), zapcore.AddSync(w), level)
	return zap.New(core)
}
