package output

import (
	"fmt"
	"io"
)

// Info writes an informational line.
func Info(w io.Writer, msg string) {
	_, _ = fmt.Fprintln(w, "ℹ️  "+msg)
}

// Infof writes a formatted informational line.
func Infof(w io.Writer, format string, args ...any) {
	Info(w, fmt.Sprintf(format, args...))
}

// Warn writes a warning line. Callers pass stderr.
func Warn(w io.Writer, msg string) {
	_, _ = fmt.Fprintln(w, "⚠️  "+msg)
}

// Warnf writes a formatted warning line.
func Warnf(w io.Writer, format string, args ...any) {
	Warn(w, fmt.Sprintf(format, args...))
}

// Success writes a success line.
func Success(w io.Writer, msg string) {
	_, _ = fmt.Fprintln(w, "✅ "+msg)
}

// Successf writes a formatted success line.
func Successf(w io.Writer, format string, args ...any) {
	Success(w, fmt.Sprintf(format, args...))
}
