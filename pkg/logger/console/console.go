// Package console implements logger.Instance using charmbracelet/log.
package console

import (
	"os"

	"github.com/charmbracelet/log"
)

// Logger writes to stderr via charmbracelet/log.
type Logger struct {
	logger *log.Logger
}

// Params configures a new Logger.
type Params struct {
	Debug bool
}

// New creates a console logger writing to stderr.
func New(params Params) *Logger {
	level := log.InfoLevel
	if params.Debug {
		level = log.DebugLevel
	}
	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Level:           level,
	})
	return &Logger{logger: l}
}

func (c *Logger) Log(message string, keyvals ...any) { c.logger.Print(message, keyvals...) }

func (c *Logger) Info(message string, keyvals ...any) { c.logger.Info(message, keyvals...) }

func (c *Logger) Warn(message string, keyvals ...any) { c.logger.Warn(message, keyvals...) }

func (c *Logger) Error(message string, keyvals ...any) { c.logger.Error(message, keyvals...) }

func (c *Logger) Debug(message string, keyvals ...any) { c.logger.Debug(message, keyvals...) }

func (c *Logger) Fatal(message string, keyvals ...any) { c.logger.Fatal(message, keyvals...) }
