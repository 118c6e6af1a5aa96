package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWithWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(Config{Level: "debug", Format: "json"}, &buf)
	t.Cleanup(func() { InitWithWriter(Config{Level: "info"}, &bytes.Buffer{}) })

	cl := Component("chunker")
	cl.Info().Int("chunks", 3).Msg("分块完成")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "输出应为合法 JSON")
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "chunker", entry["component"])
	assert.Equal(t, float64(3), entry["chunks"])
	assert.Equal(t, "分块完成", entry["message"])
}

func TestInitWithWriter_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(Config{Level: "warn"}, &buf)
	t.Cleanup(func() { InitWithWriter(Config{Level: "info"}, &bytes.Buffer{}) })

	Info().Msg("不应输出")
	assert.Empty(t, buf.String())

	Warn().Msg("应输出")
	assert.Contains(t, buf.String(), "应输出")
}

func TestWithSession(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter(Config{Level: "info"}, &buf)
	t.Cleanup(func() { InitWithWriter(Config{Level: "info"}, &bytes.Buffer{}) })

	ctx := WithSession(context.Background(), "sess-1")
	Ctx(ctx).Info().Msg("hello")
	assert.Contains(t, buf.String(), `"session_id":"sess-1"`)
}

func TestCtx_FallbackToGlobal(t *testing.T) {
	l := Ctx(context.Background())
	require.NotNil(t, l)
}
