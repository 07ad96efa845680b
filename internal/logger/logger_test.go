package logger

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelWarn, &buf, "")

	l.Debug("debug line")
	l.Info("info line")
	l.Warn("warn line")
	l.Error("error line")

	out := buf.String()
	assert.NotContains(t, out, "debug line")
	assert.NotContains(t, out, "info line")
	assert.Contains(t, out, "warn line")
	assert.Contains(t, out, "error line")
}

func TestPrefixChaining(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelDebug, &buf, "ws")
	sub := l.WithPrefix("workspace-a")

	sub.Info("connected")

	assert.Contains(t, buf.String(), "[ws:workspace-a]")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, LevelNone, ParseLevel("none"))
	assert.Equal(t, LevelInfo, ParseLevel("gibberish"))
}

func TestDisabledLoggerDiscards(t *testing.T) {
	l := New(LevelNone, nil, "")
	l.Error("should vanish")
	require.Equal(t, LevelNone, l.GetLevel())
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	l := New(LevelDebug, &buf, "")
	sl := slog.New(NewSlogHandler(l))

	sl.With("context", "ws-a").WithGroup("conn").Info("state changed", "state", "connected")

	out := buf.String()
	require.True(t, strings.Contains(out, "state changed"), out)
	assert.Contains(t, out, "context=ws-a")
	assert.Contains(t, out, "conn.state=connected")
}
