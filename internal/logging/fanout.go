package logging

import (
	"context"
	"errors"
	"log/slog"
)

// fanout duplicates records so stdout and the journal both receive
// every line. A record is delivered to each target that accepts its
// level.
type fanout struct {
	targets []slog.Handler
}

func newFanout(targets ...slog.Handler) slog.Handler {
	return &fanout{targets: targets}
}

func (f *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, t := range f.targets {
		if t.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f *fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, t := range f.targets {
		if !t.Enabled(ctx, r.Level) {
			continue
		}
		if err := t.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (f *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return f.rebuild(func(t slog.Handler) slog.Handler { return t.WithAttrs(attrs) })
}

func (f *fanout) WithGroup(name string) slog.Handler {
	return f.rebuild(func(t slog.Handler) slog.Handler { return t.WithGroup(name) })
}

func (f *fanout) rebuild(wrap func(slog.Handler) slog.Handler) slog.Handler {
	targets := make([]slog.Handler, len(f.targets))
	for i, t := range f.targets {
		targets[i] = wrap(t)
	}
	return &fanout{targets: targets}
}
