// Package log provides the named, colored loggers every component writes
// through.
package log

import (
	"errors"
	"fmt"
	"io"
	"log"

	"github.com/beka-birhanu/reeborg-api/config"
)

var ErrNoWriter = errors.New("logger needs a writer")

// Logger prefixes every line with a colored component name and level.
type Logger struct {
	l *log.Logger
}

// New creates a logger named name, printed in color, writing to w.
func New(name, color string, w io.Writer) (*Logger, error) {
	if w == nil {
		return nil, ErrNoWriter
	}
	prefix := fmt.Sprintf("%s[%s]%s ", color, name, config.ColorReset)
	return &Logger{l: log.New(w, prefix, log.LstdFlags)}, nil
}

// Info logs an informational message.
func (l *Logger) Info(msg string) {
	l.l.Printf("%s[INFO]%s %s", config.LogInfoColor, config.LogColorReset, msg)
}

// Warning logs a recoverable problem.
func (l *Logger) Warning(msg string) {
	l.l.Printf("%s[WARNING]%s %s", config.LogWarningColor, config.LogColorReset, msg)
}

// Error logs a failure.
func (l *Logger) Error(msg string) {
	l.l.Printf("%s[ERROR]%s %s", config.LogErrorColor, config.LogColorReset, msg)
}
