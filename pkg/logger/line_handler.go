package logger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"
)

// Line is one JSON log line. The component attribute is lifted out of the
// fields so every line can be filtered by package.
type Line struct {
	Level     string         `json:"level"`
	Timestamp string         `json:"timestamp"`
	Component string         `json:"component,omitempty"`
	Message   string         `json:"message"`
	Fields    map[string]any `json:"fields,omitempty"`
	Caller    string         `json:"caller,omitempty"`
}

type lineHandler struct {
	level     slog.Level
	addSource bool
	out       *lockedWriter
	attrs     []slog.Attr
	groups    []string
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) writeLine(b []byte) error {
	lw.mu.Lock()
	defer lw.mu.Unlock()

	_, err := lw.w.Write(append(b, '\n'))
	return err
}

func newLineHandler(w io.Writer, level slog.Level, addSource bool) *lineHandler {
	return &lineHandler{
		level:     level,
		addSource: addSource,
		out:       &lockedWriter{w: w},
	}
}

func (h *lineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *lineHandler) Handle(_ context.Context, record slog.Record) error {
	at := record.Time
	if at.IsZero() {
		at = time.Now()
	}

	line := Line{
		Level:     strings.ToLower(record.Level.String()),
		Timestamp: at.UTC().Format(time.RFC3339Nano),
		Message:   record.Message,
	}

	fields := make(map[string]any)
	collect := func(attr slog.Attr) bool {
		h.put(fields, &line, attr)
		return true
	}
	for _, attr := range h.attrs {
		collect(attr)
	}
	record.Attrs(collect)

	if len(fields) > 0 {
		line.Fields = fields
	}
	if h.addSource {
		line.Caller = callerOf(record.PC)
	}

	encoded, err := json.Marshal(line)
	if err != nil {
		return err
	}
	return h.out.writeLine(encoded)
}

func (h *lineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.attrs = append(append([]slog.Attr{}, h.attrs...), attrs...)
	return &next
}

func (h *lineHandler) WithGroup(name string) slog.Handler {
	next := *h
	next.groups = append(append([]string{}, h.groups...), name)
	return &next
}

func (h *lineHandler) put(fields map[string]any, line *Line, attr slog.Attr) {
	attr.Value = attr.Value.Resolve()
	if attr.Equal(slog.Attr{}) {
		return
	}

	key := strings.Join(append(append([]string{}, h.groups...), attr.Key), ".")
	if key == "component" && attr.Value.Kind() == slog.KindString {
		line.Component = attr.Value.String()
		return
	}

	fields[key] = plainValue(attr.Value)
}

func callerOf(pc uintptr) string {
	if pc == 0 {
		return ""
	}

	frame, _ := runtime.CallersFrames([]uintptr{pc}).Next()
	if frame.File == "" {
		return ""
	}
	return fmt.Sprintf("%s:%d", filepath.Base(frame.File), frame.Line)
}

// plainValue converts a slog value into something encoding/json renders readably.
func plainValue(value slog.Value) any {
	switch value.Kind() {
	case slog.KindDuration:
		return value.Duration().String()
	case slog.KindTime:
		return value.Time().UTC().Format(time.RFC3339Nano)
	case slog.KindGroup:
		group := value.Group()
		out := make(map[string]any, len(group))
		for _, item := range group {
			out[item.Key] = plainValue(item.Value.Resolve())
		}
		return out
	case slog.KindAny:
		if err, ok := value.Any().(error); ok {
			return err.Error()
		}
		return value.Any()
	default:
		return value.Any()
	}
}
