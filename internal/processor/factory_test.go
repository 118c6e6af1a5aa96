package processor

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-resume-matcher/internal/config"
	"ai-resume-matcher/internal/parser"
	"ai-resume-matcher/internal/storage"
	"ai-resume-matcher/internal/types"
)

func TestNewEmbedder(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		cfg        config.EmbeddingConfig
		store      *storage.Storage
		wantCached bool
		wantErr    bool
	}{
		{"hash 无缓存", config.EmbeddingConfig{Provider: "hash", Dimensions: 16, Cache: "none", MaxAttempts: 1}, nil, false, false},
		{"hash 内存缓存", config.EmbeddingConfig{Provider: "hash", Dimensions: 16, Cache: "memory", CacheSize: 8, MaxAttempts: 1}, nil, true, false},
		{"redis 不可用时退回内存", config.EmbeddingConfig{Provider: "hash", Cache: "redis", MaxAttempts: 2}, &storage.Storage{}, true, false},
		{"openai 缺少密钥", config.EmbeddingConfig{Provider: "openai", Cache: "none"}, nil, false, true},
		{"未知 provider", config.EmbeddingConfig{Provider: "word2vec"}, nil, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, err := NewEmbedder(ctx, tt.cfg, tt.store)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			_, cached := e.(*parser.CachedEmbedder)
			assert.Equal(t, tt.wantCached, cached)

			vecs, err := parser.EmbedBatch(ctx, e, []string{"go developer", "go developer"})
			require.NoError(t, err)
			assert.Equal(t, vecs[0], vecs[1])
		})
	}
}

func TestNewEmbedder_RedisCache(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := &storage.Storage{Redis: storage.NewRedisFromClient(client)}

	e, err := NewEmbedder(context.Background(), config.EmbeddingConfig{Provider: "hash", Dimensions: 8, Cache: "redis", MaxAttempts: 1}, store)
	require.NoError(t, err)

	_, err = parser.EmbedText(context.Background(), e, "backend engineer")
	require.NoError(t, err)
	assert.NotEmpty(t, mr.Keys(), "向量应写入 Redis")
}

func TestCacheModelKey(t *testing.T) {
	small := config.EmbeddingConfig{Provider: "openai", Model: "text-embedding-3-small", Dimensions: 1536}
	reduced := small
	reduced.Dimensions = 256

	assert.Equal(t, "openai-text-embedding-3-small-1536", cacheModelKey(small))
	assert.NotEqual(t, cacheModelKey(small), cacheModelKey(reduced), "维度不同不能共用缓存")
	assert.Equal(t, "gemini-text-embedding-004-768", cacheModelKey(config.EmbeddingConfig{Provider: "gemini", Model: "text-embedding-004", Dimensions: 768}))
	assert.Equal(t, "hash-16", cacheModelKey(config.EmbeddingConfig{Dimensions: 16}))
}

// 同一个 Redis 上先后使用两种维度，第二次构建不应读到旧维度的向量
func TestNewEmbedder_DimensionChangeSharesRedis(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	store := &storage.Storage{Redis: storage.NewRedisFromClient(client)}

	chunker, err := parser.NewChunker(40, 10)
	require.NoError(t, err)

	for _, dims := range []int{64, 16} {
		e, err := NewEmbedder(ctx, config.EmbeddingConfig{Provider: "hash", Dimensions: dims, Cache: "redis", MaxAttempts: 1}, store)
		require.NoError(t, err)
		assembler, err := NewRAGAssembler(chunker, e)
		require.NoError(t, err)

		r, err := assembler.Build(ctx, "Go developer with Redis experience", "Backend role using Go")
		require.NoError(t, err, "dims=%d", dims)
		results, err := r.Retrieve(ctx, "Go", 2)
		require.NoError(t, err)
		assert.Len(t, results, 2)
	}
}

func TestNewAnalysisServiceFromConfig_Mock(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LLM.Provider = "mock"
	cfg.LLM.MockResponse = "Matching Score: 64/100\nSummary: ok\nSuggested Edits:\n- add metrics"

	svc, err := NewAnalysisServiceFromConfig(context.Background(), cfg, nil, NewMetrics())
	require.NoError(t, err)
	require.NotNil(t, svc.Resolver())

	out, err := svc.Analyze(context.Background(), types.AnalysisRequest{ResumeText: "r", JobDescription: "j"})
	require.NoError(t, err)
	require.NotNil(t, out.Result.MatchingScore)
	assert.Equal(t, 64, *out.Result.MatchingScore)
	assert.Equal(t, types.BandGood, out.Result.Band())

	_, chunks, err := svc.Retrieve(context.Background(), types.AnalysisRequest{ResumeText: "Go backend", JobDescription: "Go role"}, "Go", 0)
	require.NoError(t, err)
	assert.Len(t, chunks, 2)

	_, err = svc.Resolver().FromObject(context.Background(), "resume/a.pdf")
	assert.ErrorIs(t, err, ErrObjectStoreDisabled)
}

func TestNewAnalysisServiceFromConfig_BadChunking(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.LLM.Provider = "mock"
	cfg.Chunking.Size = 10
	cfg.Chunking.Overlap = 10

	_, err := NewAnalysisServiceFromConfig(context.Background(), cfg, nil, nil)
	assert.ErrorIs(t, err, ErrConfiguration)
}
