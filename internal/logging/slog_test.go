package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufLogger(t *testing.T) (*SlogLogger, *bytes.Buffer) {
	t.Helper()
	buf := &bytes.Buffer{}
	return NewJSON(buf), buf
}

func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	return rec
}

func TestSlogLogger_Levels(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		log   func(l *SlogLogger)
		level string
	}{
		{"info", func(l *SlogLogger) { l.Info(ctx, "msg", "k", "v") }, "INFO"},
		{"warn", func(l *SlogLogger) { l.Warn(ctx, "msg", "k", "v") }, "WARN"},
		{"error", func(l *SlogLogger) { l.Error(ctx, "msg", "k", "v") }, "ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, buf := newBufLogger(t)
			tt.log(l)
			rec := lastRecord(t, buf)
			assert.Equal(t, tt.level, rec["level"])
			assert.Equal(t, "msg", rec["msg"])
			assert.Equal(t, "v", rec["k"])
		})
	}
}

func TestSlogLogger_With(t *testing.T) {
	l, buf := newBufLogger(t)

	child := l.With("module", "test")
	child.Info(context.Background(), "hello")

	rec := lastRecord(t, buf)
	assert.Equal(t, "test", rec["module"])
}
