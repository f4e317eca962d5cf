package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_ContextAttrs(t *testing.T) {
	var buf bytes.Buffer
	log := Logger(&buf, true, slog.LevelDebug)

	ctx := AppendCtx(context.Background(), slog.String("tool", "sqpctl"))
	ctx = AppendCtx(ctx, slog.Int("segment", 2))
	log.InfoContext(ctx, "decoded", slog.Int("bytes", 10))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "decoded", rec["msg"])
	assert.Equal(t, "sqpctl", rec["tool"])
	assert.EqualValues(t, 2, rec["segment"])
	assert.EqualValues(t, 10, rec["bytes"])
}

func TestLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	log := Logger(&buf, false, slog.LevelInfo)
	log.Debug("hidden")
	assert.Empty(t, buf.String())
	log.With(slog.String("k", "v")).WithGroup("g").Info("shown", slog.Int("n", 1))
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "k=v")
	assert.Contains(t, buf.String(), "g.n=1")
}

func TestAppendCtx_DoesNotMutateParent(t *testing.T) {
	parent := AppendCtx(context.Background(), slog.String("a", "1"))
	_ = AppendCtx(parent, slog.String("b", "2"))
	attrs := parent.Value(ctxKey{}).([]slog.Attr)
	assert.Len(t, attrs, 1)
}

func TestRotatingWriter(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sqpctl.log")
	w := RotatingWriter(path, 1, 2)
	log := Logger(w, false, slog.LevelInfo)
	log.Info("to file")
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "to file")
}
