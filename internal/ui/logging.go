package ui

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
)

// Logger writes levelled lines to stderr so command output on stdout stays
// machine readable.
type Logger struct {
	Debug  bool
	Prefix string
	Out    io.Writer
}

func NewLogger(debug bool) *Logger {
	return &Logger{Debug: debug, Out: os.Stderr}
}

// With returns a copy that prepends prefix to every line.
func (l *Logger) With(prefix string) *Logger {
	c := *l
	if c.Prefix != "" {
		prefix = c.Prefix + " " + prefix
	}
	c.Prefix = prefix
	return &c
}

func (l *Logger) printf(c *color.Color, tag, format string, args ...any) {
	out := l.Out
	if out == nil {
		out = os.Stderr
	}

	head := c.Sprint(tag)
	if l.Prefix != "" {
		head += " " + l.Prefix
	}

	fmt.Fprintf(out, head+" "+format, args...)
}

func (l *Logger) Debugf(format string, args ...any) {
	if l.Debug {
		l.printf(color.New(color.FgHiBlack), "[DEBUG]", format, args...)
	}
}

func (l *Logger) Infof(format string, args ...any) {
	l.printf(color.New(color.FgBlue), "[INFO]", format, args...)
}

func (l *Logger) Warnf(format string, args ...any) {
	l.printf(color.New(color.FgYellow), "[WARN]", format, args...)
}

func (l *Logger) Errorf(format string, args ...any) {
	l.printf(color.New(color.FgRed), "[ERROR]", format, args...)
}
