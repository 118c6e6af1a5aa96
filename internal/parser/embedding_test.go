package parser

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubEmbedder 按预设函数返回向量，记录调用次数
type stubEmbedder struct {
	mu    sync.Mutex
	calls int
	fn    func(texts []string) ([][]float64, error)
}

func (s *stubEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	return s.fn(texts)
}

// mapCache 测试用内存缓存
type mapCache struct {
	mu sync.Mutex
	m  map[string][]float64
}

func newMapCache() *mapCache { return &mapCache{m: map[string][]float64{}} }

func (c *mapCache) GetVector(_ context.Context, key string) ([]float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.m[key]
	return v, ok
}

func (c *mapCache) SetVector(_ context.Context, key string, vec []float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.m[key] = vec
}

func lengthVectors(texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, t := range texts {
		out[i] = []float64{float64(len(t)), 1}
	}
	return out, nil
}

func TestEmbedBatch_Validation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		fn   func([]string) ([][]float64, error)
	}{
		{"服务报错", func([]string) ([][]float64, error) { return nil, errors.New("boom") }},
		{"数量不一致", func([]string) ([][]float64, error) { return [][]float64{{1}}, nil }},
		{"空向量", func([]string) ([][]float64, error) { return [][]float64{{1}, {}}, nil }},
		{"维度不一致", func([]string) ([][]float64, error) { return [][]float64{{1, 2}, {1}}, nil }},
		{"包含NaN", func([]string) ([][]float64, error) { return [][]float64{{1, math.NaN()}, {1, 2}}, nil }},
		{"包含Inf", func([]string) ([][]float64, error) { return [][]float64{{1, 2}, {math.Inf(1), 2}}, nil }},
		{"超出float32范围", func([]string) ([][]float64, error) { return [][]float64{{1e39, 1}, {1, 2}}, nil }},
		{"超出float32负范围", func([]string) ([][]float64, error) { return [][]float64{{1, 2}, {-1e39, 1}}, nil }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EmbedBatch(ctx, &stubEmbedder{fn: tt.fn}, []string{"a", "b"})
			assert.Error(t, err)
		})
	}

	vectors, err := EmbedBatch(ctx, &stubEmbedder{fn: lengthVectors}, []string{"a", "bbb"})
	require.NoError(t, err)
	assert.Equal(t, [][]float32{{1, 1}, {3, 1}}, vectors)

	empty, err := EmbedBatch(ctx, &stubEmbedder{fn: lengthVectors}, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestEmbedText(t *testing.T) {
	vec, err := EmbedText(context.Background(), &stubEmbedder{fn: lengthVectors}, "hello")
	require.NoError(t, err)
	assert.Equal(t, []float32{5, 1}, vec)
}

func TestOpenAIEmbedder_EmbedStrings(t *testing.T) {
	var gotReq map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		// 故意打乱返回顺序，验证按 index 归位
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"object": "list",
			"model": "all-minilm",
			"data": [
				{"object": "embedding", "index": 1, "embedding": [0.0, 1.0]},
				{"object": "embedding", "index": 0, "embedding": [1.0, 0.0]}
			],
			"usage": {"prompt_tokens": 4, "total_tokens": 4}
		}`))
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder(OpenAIEmbedderConfig{
		APIKey:     "test-key",
		BaseURL:    srv.URL,
		Model:      "all-minilm",
		Dimensions: 2,
		Timeout:    5 * time.Second,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, e.GetDimensions())

	out, err := e.EmbedStrings(context.Background(), []string{"resume", "jd"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1, 0}, {0, 1}}, out)
	assert.Equal(t, "all-minilm", gotReq["model"])
	assert.Equal(t, []any{"resume", "jd"}, gotReq["input"])
}

func TestOpenAIEmbedder_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer srv.Close()

	e, err := NewOpenAIEmbedder(OpenAIEmbedderConfig{APIKey: "k", BaseURL: srv.URL, Model: "m"})
	require.NoError(t, err)

	_, err = e.EmbedStrings(context.Background(), []string{"x"})
	assert.Error(t, err)
}

func TestNewOpenAIEmbedder_Validation(t *testing.T) {
	_, err := NewOpenAIEmbedder(OpenAIEmbedderConfig{Model: "m"})
	assert.Error(t, err, "缺少API密钥应报错")
	_, err = NewOpenAIEmbedder(OpenAIEmbedderConfig{APIKey: "k"})
	assert.Error(t, err, "缺少模型应报错")
}

func TestHashEmbedder(t *testing.T) {
	h := NewHashEmbedder(64)
	assert.Equal(t, 64, h.GetDimensions())

	out, err := h.EmbedStrings(context.Background(), []string{"Backend API design", "backend api DESIGN!", ""})
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, out[0], out[1], "大小写和标点不影响结果")

	var norm float64
	for _, x := range out[0] {
		norm += x * x
	}
	assert.InDelta(t, 1.0, norm, 1e-9)
	assert.Equal(t, 1.0, out[2][0], "空文本返回固定单位向量")

	again, err := h.EmbedStrings(context.Background(), []string{"Backend API design"})
	require.NoError(t, err)
	assert.Equal(t, out[0], again[0], "结果应确定")
}

func TestCachedEmbedder(t *testing.T) {
	stub := &stubEmbedder{fn: lengthVectors}
	cache := newMapCache()
	c := NewCachedEmbedder(stub, cache, "m1")
	ctx := context.Background()

	out, err := c.EmbedStrings(ctx, []string{"aa", "bbb"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{2, 1}, {3, 1}}, out)
	assert.Equal(t, 1, stub.calls)

	// 第二次只有 "c" 未命中
	var seen []string
	stub.fn = func(texts []string) ([][]float64, error) {
		seen = texts
		return lengthVectors(texts)
	}
	out, err = c.EmbedStrings(ctx, []string{"bbb", "c", "aa"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{3, 1}, {1, 1}, {2, 1}}, out)
	assert.Equal(t, []string{"c"}, seen)
	assert.Equal(t, 2, stub.calls)

	// 全部命中不调用底层服务
	_, err = c.EmbedStrings(ctx, []string{"aa", "c"})
	require.NoError(t, err)
	assert.Equal(t, 2, stub.calls)

	// 模型不同则不命中
	_, err = c.EmbedStrings(ctx, []string{"aa"}, embedding.WithModel("m2"))
	require.NoError(t, err)
	assert.Equal(t, 3, stub.calls)
}

func TestCachedEmbedder_ErrorNotCached(t *testing.T) {
	stub := &stubEmbedder{fn: func([]string) ([][]float64, error) { return nil, errors.New("down") }}
	cache := newMapCache()
	c := NewCachedEmbedder(stub, cache, "m")

	_, err := c.EmbedStrings(context.Background(), []string{"x"})
	assert.Error(t, err)
	assert.Empty(t, cache.m)
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, CacheKey("m", "text"), CacheKey("m", "text"))
	assert.NotEqual(t, CacheKey("m", "text"), CacheKey("m", "text2"))
	assert.NotEqual(t, CacheKey("m", "text"), CacheKey("n", "text"))
}

func TestRetryingEmbedder(t *testing.T) {
	failures := 2
	stub := &stubEmbedder{fn: func(texts []string) ([][]float64, error) {
		if failures > 0 {
			failures--
			return nil, errors.New("temporary")
		}
		return lengthVectors(texts)
	}}

	r := NewRetryingEmbedder(stub, 3, time.Millisecond)
	out, err := r.EmbedStrings(context.Background(), []string{"abc"})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{3, 1}}, out)
	assert.Equal(t, 3, stub.calls)
}

func TestRetryingEmbedder_Exhausted(t *testing.T) {
	cause := errors.New("still down")
	stub := &stubEmbedder{fn: func([]string) ([][]float64, error) { return nil, cause }}

	r := NewRetryingEmbedder(stub, 2, time.Millisecond)
	_, err := r.EmbedStrings(context.Background(), []string{"abc"})
	assert.ErrorIs(t, err, cause, "重试耗尽后返回原始错误")
	assert.Equal(t, 2, stub.calls)
}

func TestRetryingEmbedder_NoRetryByDefault(t *testing.T) {
	stub := &stubEmbedder{fn: func([]string) ([][]float64, error) { return nil, errors.New("x") }}

	r := NewRetryingEmbedder(stub, 0, 0)
	_, err := r.EmbedStrings(context.Background(), []string{"abc"})
	assert.Error(t, err)
	assert.Equal(t, 1, stub.calls)
}
