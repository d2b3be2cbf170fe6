package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(format string, level LogLevel) (*RedirectorLogger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return NewLogger(&LoggerConfig{
		Level:  level,
		Format: format,
		Color:  ColorNever,
		Output: buf,
	}), buf
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", LevelDebug, false},
		{"INFO", LevelInfo, false},
		{"", LevelInfo, false},
		{"warning", LevelWarn, false},
		{"error", LevelError, false},
		{"verbose", LevelInfo, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseColorMode(t *testing.T) {
	m, err := ParseColorMode("ALWAYS")
	require.NoError(t, err)
	assert.Equal(t, ColorAlways, m)

	m, err = ParseColorMode("")
	require.NoError(t, err)
	assert.Equal(t, ColorAuto, m)

	_, err = ParseColorMode("rainbow")
	assert.Error(t, err)
}

func TestConsoleOutput(t *testing.T) {
	ctx := context.Background()
	logger, buf := newTestLogger(FormatConsole, LevelInfo)

	logger.Info(ctx, "Development redirects loaded")
	logger.Warn(ctx, nil, "redirects.template not found at project root")
	logger.Error(ctx, errors.New("disk full"), "Failed writing redirects")
	logger.Step(ctx, "rewrite", "/api/", "→", "https://example.com/backend/")
	logger.Debug(ctx, "hidden")

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "ℹ  Development redirects loaded", lines[0])
	assert.Equal(t, "⚠  redirects.template not found at project root", lines[1])
	assert.Equal(t, "✖  Failed writing redirects error=disk full", lines[2])
	assert.Equal(t, "  ↪ rewrite /api/ → https://example.com/backend/", lines[3])
}

func TestConsoleForcedColor(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewLogger(&LoggerConfig{Level: LevelInfo, Format: FormatConsole, Color: ColorAlways, Output: buf})

	logger.Info(context.Background(), "coloured")
	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "coloured")
}

func TestLevelFiltering(t *testing.T) {
	ctx := context.Background()
	logger, buf := newTestLogger(FormatConsole, LevelWarn)

	logger.Info(ctx, "info")
	logger.Step(ctx, "step")
	logger.Warn(ctx, nil, "warn")
	logger.Error(ctx, nil, "error")

	out := buf.String()
	assert.NotContains(t, out, "info")
	assert.NotContains(t, out, "step")
	assert.Contains(t, out, "warn")
	assert.Contains(t, out, "error")
}

func TestJSONFormat(t *testing.T) {
	ctx := context.Background()
	logger, buf := newTestLogger(FormatJSON, LevelDebug)

	logger.WithComponent("redirects").With("platform", "netlify").
		Info(ctx, "Wrote redirects", "path", "dist/_redirects")

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "INFO", record["level"])
	assert.Equal(t, "Wrote redirects", record["msg"])
	assert.Equal(t, "redirects", record[ComponentKey])
	assert.Equal(t, "netlify", record["platform"])
	assert.Equal(t, "dist/_redirects", record["path"])
}

func TestStepStructured(t *testing.T) {
	logger, buf := newTestLogger(FormatJSON, LevelInfo)
	logger.Step(context.Background(), "rewrite", "/old", "→", "/new")

	var record map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "rewrite /old → /new", record["msg"])
	assert.Equal(t, KindStep, record[KindKey])
	assert.Equal(t, []interface{}{"rewrite", "/old", "→", "/new"}, record[PartsKey])
}

func TestWithDoesNotLeak(t *testing.T) {
	ctx := context.Background()
	logger, buf := newTestLogger(FormatText, LevelInfo)

	child := logger.With("request", "abc")
	logger.Info(ctx, "parent")
	child.Info(ctx, "child")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.NotContains(t, lines[0], "request=abc")
	assert.Contains(t, lines[1], "request=abc")
}

func TestOddFieldsIgnored(t *testing.T) {
	logger, buf := newTestLogger(FormatText, LevelInfo)
	logger.Info(context.Background(), "msg", "dangling")
	logger.Info(context.Background(), "msg", 42, "value")

	assert.NotContains(t, buf.String(), "dangling")
	assert.NotContains(t, buf.String(), "value")
}

func TestNop(t *testing.T) {
	var l Logger = NewNop()
	assert.NotPanics(t, func() {
		l.Info(context.Background(), "x")
		l.Step(context.Background(), "a", "b")
		l.With("k", "v").WithComponent("c").Error(context.Background(), errors.New("e"), "x")
	})
}
