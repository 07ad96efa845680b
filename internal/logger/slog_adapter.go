package logger

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// NewSlogHandler returns a slog.Handler that forwards records to the
// provided Logger, so code built against log/slog shares the same sink.
func NewSlogHandler(l *Logger) slog.Handler {
	if l == nil {
		return nil
	}
	return &slogAdapter{log: l}
}

type slogAdapter struct {
	log    *Logger
	groups []string
	// attrs are pre-rendered with the group prefix that was active when
	// they were bound, matching slog's WithAttrs/WithGroup ordering rules.
	attrs []string
}

func (h *slogAdapter) Enabled(_ context.Context, level slog.Level) bool {
	return slogLevel(level) >= h.log.GetLevel()
}

func (h *slogAdapter) Handle(_ context.Context, record slog.Record) error {
	parts := make([]string, 0, len(h.attrs)+record.NumAttrs()+1)
	parts = append(parts, record.Message)
	parts = append(parts, h.attrs...)

	prefix := strings.Join(h.groups, ".")
	record.Attrs(func(attr slog.Attr) bool {
		parts = append(parts, renderAttr(prefix, attr))
		return true
	})

	msg := strings.Join(parts, " ")
	switch slogLevel(record.Level) {
	case LevelDebug:
		h.log.Debug("%s", msg)
	case LevelInfo:
		h.log.Info("%s", msg)
	case LevelWarn:
		h.log.Warn("%s", msg)
	default:
		h.log.Error("%s", msg)
	}
	return nil
}

func (h *slogAdapter) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	prefix := strings.Join(h.groups, ".")
	rendered := append([]string(nil), h.attrs...)
	for _, attr := range attrs {
		rendered = append(rendered, renderAttr(prefix, attr))
	}
	clone.attrs = rendered
	return &clone
}

func (h *slogAdapter) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	clone := *h
	clone.groups = append(append([]string(nil), h.groups...), name)
	return &clone
}

func renderAttr(prefix string, attr slog.Attr) string {
	key := attr.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	return fmt.Sprintf("%s=%v", key, attr.Value.Any())
}

func slogLevel(level slog.Level) Level {
	switch {
	case level < slog.LevelInfo:
		return LevelDebug
	case level < slog.LevelWarn:
		return LevelInfo
	case level < slog.LevelError:
		return LevelWarn
	default:
		return LevelError
	}
}
