// Package logging provides the slog.Handler implementations used across
// the stanza CLI and interpreter: a silent handler for tests and a
// human-oriented handler for terminal output.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
)

// SilentHandler discards all log output, for callers that want to
// exercise logging call sites without producing any output.
type SilentHandler struct{}

// NewSilentHandler returns a handler that is never enabled.
func NewSilentHandler() *SilentHandler {
	return &SilentHandler{}
}

func (h *SilentHandler) Enabled(ctx context.Context, level slog.Level) bool { return false }
func (h *SilentHandler) Handle(ctx context.Context, record slog.Record) error { return nil }
func (h *SilentHandler) WithAttrs(attrs []slog.Attr) slog.Handler            { return h }
func (h *SilentHandler) WithGroup(name string) slog.Handler                  { return h }

// HumanHandler formats records for a terminal: a one-line summary
// followed by indented attributes, with special-cased multi-line
// formatting for the interpreter's "cycle detected" message.
type HumanHandler struct {
	writer io.Writer
	level  slog.Level
}

// NewHumanHandler returns a handler that writes to w, filtering out
// records below level.
func NewHumanHandler(w io.Writer, level slog.Level) *HumanHandler {
	return &HumanHandler{writer: w, level: level}
}

func (h *HumanHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *HumanHandler) Handle(ctx context.Context, record slog.Record) error {
	switch record.Message {
	case "cycle detected":
		return h.handleCycle(record)
	}

	if _, err := fmt.Fprintf(h.writer, "[%s] %s\n", record.Level, record.Message); err != nil {
		return err
	}
	var writeErr error
	record.Attrs(func(a slog.Attr) bool {
		if _, err := fmt.Fprintf(h.writer, "  %s: %v\n", a.Key, a.Value); err != nil {
			writeErr = err
			return false
		}
		return true
	})
	return writeErr
}

func (h *HumanHandler) handleCycle(record slog.Record) error {
	var variable, trace string
	record.Attrs(func(a slog.Attr) bool {
		switch a.Key {
		case "variable":
			variable = a.Value.String()
		case "trace":
			trace = a.Value.String()
		}
		return true
	})

	writes := []func() error{
		func() error { _, err := fmt.Fprintln(h.writer); return err },
		func() error { _, err := fmt.Fprintln(h.writer, strings.Repeat("=", 60)); return err },
		func() error { _, err := fmt.Fprintln(h.writer, "Recursively defined variable"); return err },
		func() error { _, err := fmt.Fprintln(h.writer, strings.Repeat("=", 60)); return err },
		func() error { _, err := fmt.Fprintf(h.writer, "\nVariable: %s\n", variable); return err },
		func() error { _, err := fmt.Fprintf(h.writer, "\nForce stack:\n%s\n", trace); return err },
		func() error { _, err := fmt.Fprintln(h.writer, strings.Repeat("=", 60)); return err },
	}
	for _, write := range writes {
		if err := write(); err != nil {
			return err
		}
	}
	return nil
}

func (h *HumanHandler) WithAttrs(attrs []slog.Attr) slog.Handler { return h }
func (h *HumanHandler) WithGroup(name string) slog.Handler       { return h }
