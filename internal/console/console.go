// Package console writes user-facing progress messages and diagnostic logs.
package console

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/fatih/color"
)

// Console prints progress and status lines. The report itself goes through
// Report uncolored so stdout matches the saved file.
type Console struct {
	out io.Writer
	err io.Writer

	info    *color.Color
	success *color.Color
	failure *color.Color
}

// New creates a console writing to out and err. Colors are disabled when
// noColor is set, and by fatih/color itself when stdout is not a terminal.
func New(out, err io.Writer, noColor bool) *Console {
	c := &Console{
		out:     out,
		err:     err,
		info:    color.New(color.FgCyan),
		success: color.New(color.FgGreen, color.Bold),
		failure: color.New(color.FgRed, color.Bold),
	}

	if noColor {
		c.info.DisableColor()
		c.success.DisableColor()
		c.failure.DisableColor()
	}

	return c
}

// Progress prints a progress line to stdout
func (c *Console) Progress(format string, a ...interface{}) {
	c.info.Fprintln(c.out, fmt.Sprintf(format, a...))
}

// Success prints a completion line to stdout
func (c *Console) Success(format string, a ...interface{}) {
	c.success.Fprintln(c.out, fmt.Sprintf(format, a...))
}

// Error prints an already formatted error to stderr
func (c *Console) Error(message string) {
	c.failure.Fprint(c.err, message)
}

// Report prints the rendered report followed by a newline
func (c *Console) Report(report string) {
	fmt.Fprintln(c.out, report)
}

// NewLogger returns a text logger on w; debug records are kept only when verbose
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}
