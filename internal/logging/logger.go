package logging

import (
	"bytes"
	"fmt"
	"io"
	"io/ioutil"
	"log"

	"github.com/fatih/color"
)

// writer adapts a line callback to an io.Writer, splitting arbitrary writes
// on newlines.
type writer struct {
	callback func(string)
	buffer   []byte
}

func trimCarriageReturn(b []byte) []byte {
	if len(b) > 0 && b[len(b)-1] == '\r' {
		return b[:len(b)-1]
	}
	return b
}

func (w *writer) Write(b []byte) (int, error) {
	w.buffer = append(w.buffer, b...)

	var processed int
	remaining := w.buffer
	for {
		index := bytes.IndexByte(remaining, '\n')
		if index == -1 {
			break
		}
		w.callback(string(trimCarriageReturn(remaining[:index])))
		processed += index + 1
		remaining = remaining[index+1:]
	}

	if processed > 0 {
		leftover := len(w.buffer) - processed
		if leftover > 0 {
			copy(w.buffer[:leftover], w.buffer[processed:])
		}
		w.buffer = w.buffer[:leftover]
	}

	return len(b), nil
}

// Logger is the engine's logger. A nil *Logger is valid and logs nothing,
// so components can be handed a nil logger in tests without guarding every
// call site.
type Logger struct {
	prefix string
	level  Level
}

// Root is the base logger that all daemon components derive from.
var Root = &Logger{level: LevelInfo}

// SetLevel adjusts the verbosity of this logger and everything derived
// from it going forward (sublogger prefixes are independent of level).
func (l *Logger) SetLevel(level Level) {
	if l != nil {
		l.level = level
	}
}

// Sublogger derives a named child logger, prefixing all of its output with
// name (and any prefix this logger already carries).
func (l *Logger) Sublogger(name string) *Logger {
	if l == nil {
		return nil
	}
	prefix := name
	if l.prefix != "" {
		prefix = l.prefix + "." + name
	}
	return &Logger{prefix: prefix, level: l.level}
}

func (l *Logger) enabled(level Level) bool {
	return l != nil && l.level >= level
}

func (l *Logger) output(line string) {
	if l.prefix != "" {
		line = fmt.Sprintf("[%s] %s", l.prefix, line)
	}
	log.Output(3, line)
}

// Info logs an informational message.
func (l *Logger) Info(v ...interface{}) {
	if l.enabled(LevelInfo) {
		l.output(fmt.Sprint(v...))
	}
}

// Infof logs a formatted informational message.
func (l *Logger) Infof(format string, v ...interface{}) {
	if l.enabled(LevelInfo) {
		l.output(fmt.Sprintf(format, v...))
	}
}

// Debug logs a detailed execution message.
func (l *Logger) Debug(v ...interface{}) {
	if l.enabled(LevelDebug) {
		l.output(fmt.Sprint(v...))
	}
}

// Debugf logs a formatted detailed execution message.
func (l *Logger) Debugf(format string, v ...interface{}) {
	if l.enabled(LevelDebug) {
		l.output(fmt.Sprintf(format, v...))
	}
}

// DebugWriter returns an io.Writer that logs each line it receives via
// Debug.
func (l *Logger) DebugWriter() io.Writer {
	if !l.enabled(LevelDebug) {
		return ioutil.Discard
	}
	return &writer{callback: func(s string) { l.Debug(s) }}
}

// Warn logs a recoverable, non-fatal problem.
func (l *Logger) Warn(err error) {
	if l.enabled(LevelWarn) {
		l.output(color.YellowString("warning: %v", err))
	}
}

// Error logs a problem serious enough to abandon the current operation,
// though not the process.
func (l *Logger) Error(err error) {
	if l.enabled(LevelError) {
		l.output(color.RedString("error: %v", err))
	}
}
