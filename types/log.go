package types

import (
	"context"
	"log/slog"
)

// TypeLogHandler wraps a slog handler so Type-valued attributes print as
// their canonical spelling only when the record is actually emitted. Type
// printing walks the whole structure, which is too much work to do eagerly on
// debug statements that are usually filtered out.
func TypeLogHandler(inner slog.Handler) slog.Handler {
	return typeLogHandler{inner: inner}
}

type typeLogHandler struct {
	inner slog.Handler
}

func (h typeLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h typeLogHandler) Handle(ctx context.Context, record slog.Record) error {
	out := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(attr slog.Attr) bool {
		out.AddAttrs(renderTypeAttr(attr))
		return true
	})
	return h.inner.Handle(ctx, out)
}

func (h typeLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	rendered := make([]slog.Attr, len(attrs))
	for i, attr := range attrs {
		rendered[i] = renderTypeAttr(attr)
	}
	return typeLogHandler{inner: h.inner.WithAttrs(rendered)}
}

func (h typeLogHandler) WithGroup(name string) slog.Handler {
	return typeLogHandler{inner: h.inner.WithGroup(name)}
}

func renderTypeAttr(attr slog.Attr) slog.Attr {
	if attr.Value.Kind() == slog.KindAny {
		if t, ok := attr.Value.Any().(Type); ok {
			return slog.Attr{Key: attr.Key, Value: slog.AnyValue(lazyType{t})}
		}
	}
	return attr
}

type lazyType struct {
	t Type
}

func (l lazyType) LogValue() slog.Value {
	return slog.StringValue(l.t.String())
}
