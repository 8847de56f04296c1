package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/felixgeelhaar/summitforms/internal/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNopLogger(t *testing.T) {
	t.Parallel()

	logger := NewNopLogger()
	ctx := context.Background()
	logger.Debug(ctx, "debug")
	logger.Info(ctx, "info")
	logger.Warn(ctx, "warn")
	logger.Error(ctx, "error")

	assert.Same(t, logger, logger.With(ports.F("key", "value")))
	assert.Equal(t, ports.LevelInfo, logger.Level())
	logger.SetLevel(ports.LevelDebug)
	assert.Equal(t, ports.LevelDebug, logger.Level())
}

func newTextLogger(buf *bytes.Buffer, opts ...ConsoleLoggerOption) *ConsoleLogger {
	base := []ConsoleLoggerOption{
		WithOutput(buf),
		WithLevel(ports.LevelDebug),
		WithTimestamp(false),
		WithLevelLabel(true),
	}
	return NewConsoleLogger(append(base, opts...)...)
}

func TestConsoleLogger_TextOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	newTextLogger(&buf).Info(context.Background(), "submission accepted", ports.F("attempt", "multipart"), ports.F("status", 201))

	assert.Equal(t, "[INFO] submission accepted attempt=multipart status=201\n", buf.String())
}

func TestConsoleLogger_JSONOutput(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewConsoleLogger(WithOutput(&buf), WithJSONFormat(true), WithTimestamp(false))
	logger.Warn(context.Background(), "lookup unavailable", ports.F("lookup", "regions"), ports.F("cause", errors.New("timeout")))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "lookup unavailable", entry["msg"])
	assert.Equal(t, "regions", entry["lookup"])
	assert.Equal(t, "timeout", entry["cause"])
	assert.NotContains(t, entry, "time")
}

func TestConsoleLogger_LevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newTextLogger(&buf, WithLevel(ports.LevelWarn))
	ctx := context.Background()
	logger.Debug(ctx, "d")
	logger.Info(ctx, "i")
	logger.Warn(ctx, "w")
	logger.Error(ctx, "e")

	assert.Equal(t, "[WARN] w\n[ERROR] e\n", buf.String())

	logger.SetLevel(ports.LevelDebug)
	logger.Debug(ctx, "now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestConsoleLogger_RedactsSecrets(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := newTextLogger(&buf, WithSensitiveKeys("token"))
	logger.Info(context.Background(), "fields",
		ports.F("password", "Hunter2!x"),
		ports.F("confirm_password", "Hunter2!x"),
		ports.F("api_token", "abc"),
		ports.F("photo", []byte{1, 2, 3}),
		ports.F("email", "ama@gmail.com"))

	out := buf.String()
	assert.NotContains(t, out, "Hunter2")
	assert.NotContains(t, out, "abc")
	assert.Contains(t, out, "password=[redacted]")
	assert.Contains(t, out, "photo=[3 bytes]")
	assert.Contains(t, out, "email=ama@gmail.com")
}

func TestConsoleLogger_With(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	base := newTextLogger(&buf)
	child := base.With(ports.F("request_id", "r-1"))
	ctx := context.Background()

	child.Info(ctx, "child")
	base.Info(ctx, "base")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "[INFO] child request_id=r-1", lines[0])
	assert.Equal(t, "[INFO] base", lines[1])
}
