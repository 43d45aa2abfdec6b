// Package logging provides the structured logger used across envpipe.
package logging

import (
	"io"
	"sort"

	"github.com/hashicorp/go-hclog"
)

// Logger defines the structured logging interface.
type Logger interface {
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
	Debug(msg string, fields map[string]any)
}

// Options configures New.
type Options struct {
	Name    string
	Verbose bool
	JSON    bool
}

// HCLogger adapts an hclog.Logger to Logger.
type HCLogger struct {
	l hclog.Logger
}

// New creates a Logger writing to w. Debug entries are only emitted when
// opts.Verbose is true.
func New(w io.Writer, opts Options) *HCLogger {
	level := hclog.Info
	if opts.Verbose {
		level = hclog.Debug
	}
	name := opts.Name
	if name == "" {
		name = "envpipe"
	}
	return &HCLogger{l: hclog.New(&hclog.LoggerOptions{
		Name:       name,
		Level:      level,
		Output:     w,
		JSONFormat: opts.JSON,
	})}
}

// Named returns a sub-logger scoped to name.
func (h *HCLogger) Named(name string) *HCLogger { return &HCLogger{l: h.l.Named(name)} }

func (h *HCLogger) Info(msg string, fields map[string]any)  { h.l.Info(msg, args(fields)...) }
func (h *HCLogger) Warn(msg string, fields map[string]any)  { h.l.Warn(msg, args(fields)...) }
func (h *HCLogger) Error(msg string, fields map[string]any) { h.l.Error(msg, args(fields)...) }
func (h *HCLogger) Debug(msg string, fields map[string]any) { h.l.Debug(msg, args(fields)...) }

// args flattens fields into hclog's alternating key/value form, sorted by key
// so output is stable.
func args(fields map[string]any) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]any, 0, len(fields)*2)
	for _, k := range keys {
		out = append(out, k, fields[k])
	}
	return out
}

type nop struct{}

func (nop) Info(string, map[string]any)  {}
func (nop) Warn(string, map[string]any)  {}
func (nop) Error(string, map[string]any) {}
func (nop) Debug(string, map[string]any) {}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nop{} }

// OrNop returns l, or a discarding Logger when l is nil.
func OrNop(l Logger) Logger {
	if l == nil {
		return nop{}
	}
	return l
}
