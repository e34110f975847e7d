package logger

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesStructuredFields(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelDebug).Named("store").With(String("run_id", "abc"))

	l.Info(context.Background(), "loaded products", Int("count", 3), Error(errors.New("boom")))

	out := buf.String()
	assert.Contains(t, out, "msg=\"loaded products\"")
	assert.Contains(t, out, "component=store")
	assert.Contains(t, out, "run_id=abc")
	assert.Contains(t, out, "count=3")
	assert.Contains(t, out, "error=boom")
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(&buf, slog.LevelWarn)

	l.Info(context.Background(), "hidden")
	l.Warn(context.Background(), "shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestSetLevelString(t *testing.T) {
	defer SetLevel(slog.LevelInfo)

	for _, lvl := range []string{"debug", "INFO", " warn ", "warning", "error", ""} {
		require.NoError(t, SetLevelString(lvl), lvl)
	}
	require.Error(t, SetLevelString("verbose"))

	var buf bytes.Buffer
	Init(&buf)
	require.NoError(t, SetLevelString("error"))
	Get().Warn(context.Background(), "suppressed")
	Get().Error(context.Background(), "kept")
	assert.NotContains(t, buf.String(), "suppressed")
	assert.Contains(t, buf.String(), "kept")
}

func TestNop(t *testing.T) {
	assert.NotPanics(t, func() {
		Nop().Error(context.Background(), "nothing", String("k", "v"))
	})
}
