package logging

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"
)

func newTestLogger(t *testing.T) (Logger, *zaptest.Buffer) {
	t.Helper()
	buf := &zaptest.Buffer{}
	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), buf, zapcore.DebugLevel)
	return &zapLogger{z: zap.New(core)}, buf
}

func decodeLines(t *testing.T, buf *zaptest.Buffer) []map[string]interface{} {
	t.Helper()
	var out []map[string]interface{}
	for _, line := range buf.Lines() {
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		out = append(out, m)
	}
	return out
}

func TestNewLogger_Formats(t *testing.T) {
	for _, format := range []string{"json", "console", ""} {
		l, err := NewLogger(LogConfig{Level: "debug", Format: format, OutputPaths: []string{"stdout"}})
		require.NoError(t, err, format)
		assert.NotNil(t, l)
	}
}

func TestNewLogger_BadOutputPath(t *testing.T) {
	l, err := NewLogger(LogConfig{OutputPaths: []string{"/nonexistent-dir/sub/app.log"}})
	assert.Error(t, err)
	assert.Nil(t, l)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("DEBUG"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel(" error "))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestZapLogger_FieldsAreEncoded(t *testing.T) {
	l, buf := newTestLogger(t)

	l.Info("classified",
		String("composition", "SOLID"),
		Int("category", 2),
		Float64("size_mm", 7.5),
		Bool("calcified", false),
		Duration("elapsed", 3*time.Millisecond),
		Strings("tokens", []string{"solid", "nodule"}),
		Err(errors.New("boom")),
	)

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	entry := lines[0]
	assert.Equal(t, "classified", entry["msg"])
	assert.Equal(t, "SOLID", entry["composition"])
	assert.Equal(t, float64(2), entry["category"])
	assert.Equal(t, 7.5, entry["size_mm"])
	assert.Equal(t, false, entry["calcified"])
	assert.Equal(t, "boom", entry["error"])
	assert.Len(t, entry["tokens"], 2)
}

func TestZapLogger_WithAndNamed(t *testing.T) {
	l, buf := newTestLogger(t)

	child := l.Named("worker").With(String("topic", "report.sentence.submitted"))
	child.Warn("retrying")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "worker", lines[0]["logger"])
	assert.Equal(t, "report.sentence.submitted", lines[0]["topic"])
	assert.Equal(t, "warn", lines[0]["level"])
}

func TestSetLevel(t *testing.T) {
	buf := &zaptest.Buffer{}
	level := zap.NewAtomicLevelAt(zapcore.WarnLevel)
	core := zapcore.NewCore(zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig()), buf, level)
	l := &zapLogger{z: zap.New(core), level: &level}
	child := l.Named("api")

	child.Info("dropped")
	require.True(t, SetLevel(l, "debug"))
	child.Debug("kept")

	lines := decodeLines(t, buf)
	require.Len(t, lines, 1)
	assert.Equal(t, "kept", lines[0]["msg"])

	assert.False(t, SetLevel(NewNopLogger(), "debug"))
}

func TestErr_Nil(t *testing.T) {
	f := Err(nil)
	assert.Equal(t, "error", f.Key)
	assert.Equal(t, "<nil>", f.Value)
}

func TestNewLoggerFromCore_Observer(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	l := NewLoggerFromCore(core)

	l.Debug("hidden")
	l.Info("visible", String("k", "v"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "visible", entry.Message)
	assert.Equal(t, "v", entry.ContextMap()["k"])
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	l.Debug("msg")
	l.Info("msg")
	l.Warn("msg")
	l.Error("msg")
	assert.NotNil(t, l.With(String("a", "b")))
	assert.NotNil(t, l.Named("x"))
	assert.NoError(t, l.Sync())
}

func TestDefault_SetAndGet(t *testing.T) {
	orig := Default()
	defer SetDefault(orig)

	l, buf := newTestLogger(t)
	SetDefault(l)
	SetDefault(nil)

	Default().Info("from default")
	assert.True(t, strings.Contains(buf.String(), "from default"))
}

//Personal.AI order the ending
