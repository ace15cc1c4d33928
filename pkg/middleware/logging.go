package middleware

import (
	"context"
	"log/slog"

	"github.com/vango-dev/atoms/pkg/atom"
)

// Logging returns a store observer that logs every event at level.
// Failed recomputations and async results are logged at Warn.
//
// Example:
//
//	store := atom.NewStore(atom.WithObserver(
//	    middleware.Logging(logger, slog.LevelDebug),
//	))
func Logging(logger *slog.Logger, level slog.Level) atom.Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return atom.ObserverFunc(func(ev atom.Event) {
		lvl := level
		attrs := []slog.Attr{slog.String("kind", ev.Kind.String())}
		if ev.Atom != "" {
			attrs = append(attrs, slog.String("atom", ev.Atom), slog.Uint64("epoch", ev.Epoch))
		}

		switch ev.Kind {
		case atom.EventAsyncStart, atom.EventAsyncSettle, atom.EventAsyncSupersede:
			attrs = append(attrs, slog.Uint64("gen", ev.Gen))
		case atom.EventNotify:
			attrs = append(attrs, slog.Int("listeners", ev.Listeners))
		case atom.EventTxEnd:
			attrs = append(attrs,
				slog.Int("changed", ev.Changed),
				slog.Int("listeners", ev.Listeners),
				slog.Duration("duration", ev.Duration),
			)
		}

		if ev.Err != nil && !atom.IsPending(ev.Err) {
			attrs = append(attrs, slog.String("error", ev.Err.Error()))
			if lvl < slog.LevelWarn {
				lvl = slog.LevelWarn
			}
		}

		logger.LogAttrs(context.Background(), lvl, "atom event", attrs...)
	})
}
