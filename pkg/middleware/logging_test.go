package middleware

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vango-dev/atoms/pkg/atom"
)

func TestLogging_Events(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := atom.NewStore(atom.WithObserver(Logging(logger, slog.LevelDebug)))

	count := atom.New(1).WithLabel("count")
	unsubscribe := s.Subscribe(count, atom.NewListener(nil))
	require.NoError(t, atom.Set(s, count, 2))
	unsubscribe()

	out := buf.String()
	assert.Contains(t, out, "kind=mount atom=count")
	assert.Contains(t, out, "kind=notify")
	assert.Contains(t, out, "kind=tx_end")
	assert.Contains(t, out, "changed=1")
	assert.Contains(t, out, "kind=unmount atom=count")
}

func TestLogging_ErrorsAtWarn(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	s := atom.NewStore(atom.WithObserver(Logging(logger, slog.LevelDebug)))

	ok := atom.New(1)
	broken := atom.Derived(func(atom.Getter) (int, error) {
		return 0, errors.New("boom")
	}).WithLabel("broken")

	_, _ = atom.Get(s, ok)
	_, _ = atom.Get(s, broken)

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, "atom=broken")
	assert.Contains(t, out, "error=boom")
	assert.NotContains(t, out, "level=DEBUG")
}

func TestLogging_NilLogger(t *testing.T) {
	assert.NotPanics(t, func() {
		obs := Logging(nil, slog.LevelDebug)
		obs.OnEvent(atom.Event{Kind: atom.EventNotify, Listeners: 1})
	})
}
