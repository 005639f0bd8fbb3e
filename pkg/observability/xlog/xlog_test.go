package xlog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/omeyang/xguard/pkg/observability/xlog"
)

func TestMain(m *testing.M) {
	// lumberjack 的 millRun goroutine 在 Close 后仍存活
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("gopkg.in/natefinch/lumberjack%2ev2.(*Logger).millRun"),
	)
}

type stringer string

func (s stringer) String() string { return string(s) }

func build(t *testing.T, b *xlog.Builder) xlog.LoggerWithLevel {
	t.Helper()
	logger, cleanup, err := b.Build()
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, cleanup()) })
	return logger
}

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	logger := build(t, xlog.New().SetOutput(&buf).SetLevel(xlog.LevelDebug))
	ctx := context.Background()

	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, "warn message")
	logger.Error(ctx, "error message")

	out := buf.String()
	for _, want := range []string{"debug message", "info message", "warn message", "error message"} {
		assert.Contains(t, out, want)
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := build(t, xlog.New().SetOutput(&buf).SetLevel(xlog.LevelWarn))
	ctx := context.Background()

	logger.Info(ctx, "hidden")
	logger.Warn(ctx, "shown")
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	logger.SetLevel(xlog.LevelDebug)
	assert.Equal(t, xlog.LevelDebug, logger.GetLevel())
	assert.True(t, logger.Enabled(ctx, xlog.LevelDebug))
	logger.Debug(ctx, "now visible")
	assert.Contains(t, buf.String(), "now visible")
}

func TestLogger_JSONWithLockAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := build(t, xlog.New().SetOutput(&buf).SetFormat("JSON"))

	logger.With(xlog.Component("xlock")).Info(context.Background(), "released",
		xlog.LockName("orders"),
		xlog.OwnerAttr(stringer("goroutine:7")),
		xlog.IntentionAttr(stringer("ReadOnly")),
		xlog.Duration(50*time.Millisecond),
		xlog.Count(3),
	)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "released", rec["msg"])
	assert.Equal(t, "xlock", rec[xlog.KeyComponent])
	assert.Equal(t, "orders", rec[xlog.KeyLock])
	assert.Equal(t, "goroutine:7", rec[xlog.KeyOwner])
	assert.Equal(t, "ReadOnly", rec[xlog.KeyIntention])
	assert.Equal(t, "50ms", rec[xlog.KeyDuration])
	assert.EqualValues(t, 3, rec[xlog.KeyCount])
}

func TestLogger_WithGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := build(t, xlog.New().SetOutput(&buf).SetFormat("json"))

	logger.WithGroup("diag").Info(context.Background(), "entry", slog.String("kind", "mutex"))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	group, ok := rec["diag"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "mutex", group["kind"])

	// 空分组名与空属性返回自身
	assert.Same(t, logger, logger.WithGroup(""))
	assert.Same(t, logger, logger.With())
}

func TestLogger_Stack(t *testing.T) {
	var buf bytes.Buffer
	logger := build(t, xlog.New().SetOutput(&buf))

	logger.Stack(context.Background(), "usage error", xlog.Err(errors.New("boom")))

	out := buf.String()
	assert.Contains(t, out, "usage error")
	assert.Contains(t, out, "error=boom")
	assert.Contains(t, out, "goroutine")
}

func TestErr_Nil(t *testing.T) {
	assert.Equal(t, slog.Attr{}, xlog.Err(nil))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestLogger_OnError(t *testing.T) {
	var got []error
	logger := build(t, xlog.New().
		SetOutput(failingWriter{}).
		SetOnError(func(err error) { got = append(got, err) }))

	logger.Info(context.Background(), "lost")
	require.Len(t, got, 1)
	assert.EqualValues(t, 1, xlog.ErrorCount(logger))
}

func TestLogger_OnErrorPanicIsContained(t *testing.T) {
	logger := build(t, xlog.New().
		SetOutput(failingWriter{}).
		SetOnError(func(error) { panic("callback bug") }))

	assert.NotPanics(t, func() { logger.Info(context.Background(), "lost") })
	assert.EqualValues(t, 2, xlog.ErrorCount(logger))
}

func TestBuilder_Errors(t *testing.T) {
	tests := []struct {
		name string
		b    *xlog.Builder
	}{
		{"bad format", xlog.New().SetFormat("xml")},
		{"bad level", xlog.New().SetLevelString("loud")},
		{"nil output", xlog.New().SetOutput(nil)},
		{"empty rotation", xlog.New().SetRotation("  ")},
		{"bad rotation size", xlog.New().SetRotation("x.log", xlog.WithMaxSize(0))},
		{"first error wins", xlog.New().SetFormat("xml").SetLevelString("debug")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := tt.b.Build()
			assert.Error(t, err)
		})
	}
}

func TestBuilder_Rotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "locks.log")
	logger, cleanup, err := xlog.New().
		SetRotation(path, xlog.WithMaxSize(1), xlog.WithMaxBackups(1), xlog.WithMaxAge(1), xlog.WithCompress(false)).
		Build()
	require.NoError(t, err)

	logger.Info(context.Background(), "rotated output")
	require.NoError(t, cleanup())
	// 清理函数可重复调用
	require.NoError(t, cleanup())
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want xlog.Level
		ok   bool
	}{
		{"debug", xlog.LevelDebug, true},
		{" INFO ", xlog.LevelInfo, true},
		{"warning", xlog.LevelWarn, true},
		{"Warn", xlog.LevelWarn, true},
		{"error", xlog.LevelError, true},
		{"verbose", xlog.LevelInfo, false},
	}
	for _, tt := range tests {
		got, err := xlog.ParseLevel(tt.in)
		if tt.ok {
			assert.NoError(t, err, tt.in)
		} else {
			assert.Error(t, err, tt.in)
		}
		assert.Equal(t, tt.want, got, tt.in)
	}
}

func TestLevel_Text(t *testing.T) {
	var l xlog.Level
	require.NoError(t, l.UnmarshalText([]byte("warn")))
	assert.Equal(t, xlog.LevelWarn, l)

	text, err := l.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "WARN", string(text))

	assert.Error(t, l.UnmarshalText([]byte("nope")))
	assert.True(t, strings.HasPrefix(xlog.Level(2).String(), "INFO+"))
}

func TestDefaultAndDiscard(t *testing.T) {
	assert.NotNil(t, xlog.Default())
	assert.Same(t, xlog.Default(), xlog.Default())

	d := xlog.Discard()
	assert.NotPanics(t, func() { d.Error(context.Background(), "dropped") })

	xlog.SetDefault(nil)
	assert.NotNil(t, xlog.Default())
}
