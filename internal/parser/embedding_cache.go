package parser

import (
	"context"
	"crypto/sha256"
	"encoding/hex"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/rs/zerolog"

	"ai-resume-matcher/internal/logger"
)

// VectorCache 文本向量缓存。Get 未命中或出错时返回 false，缓存故障不影响主流程
type VectorCache interface {
	GetVector(ctx context.Context, key string) ([]float64, bool)
	SetVector(ctx context.Context, key string, vec []float64)
}

// CachedEmbedder 先查缓存，只对未命中的文本调用底层服务
type CachedEmbedder struct {
	next   embedding.Embedder
	cache  VectorCache
	model  string
	logger zerolog.Logger
}

// NewCachedEmbedder model 参与缓存键，换模型后不会读到旧向量
func NewCachedEmbedder(next embedding.Embedder, cache VectorCache, model string) *CachedEmbedder {
	return &CachedEmbedder{
		next:   next,
		cache:  cache,
		model:  model,
		logger: logger.Component("embedding_cache"),
	}
}

func (c *CachedEmbedder) GetDimensions() int {
	if d, ok := c.next.(DimensionReporter); ok {
		return d.GetDimensions()
	}
	return 0
}

func (c *CachedEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	model := effectiveModel(c.model, opts...)
	out := make([][]float64, len(texts))

	var (
		missTexts []string
		missIdx   []int
	)
	for i, text := range texts {
		if vec, ok := c.cache.GetVector(ctx, CacheKey(model, text)); ok {
			out[i] = vec
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	c.logger.Debug().Int("total", len(texts)).Int("miss", len(missTexts)).Msg("向量缓存查询")
	if len(missTexts) == 0 {
		return out, nil
	}

	vectors, err := c.next.EmbedStrings(ctx, missTexts, opts...)
	if err != nil {
		return nil, err
	}
	if len(vectors) != len(missTexts) {
		return nil, ErrEmptyEmbedding
	}
	for j, vec := range vectors {
		out[missIdx[j]] = vec
		if len(vec) > 0 {
			c.cache.SetVector(ctx, CacheKey(model, missTexts[j]), vec)
		}
	}
	return out, nil
}

// CacheKey 模型名 + 文本摘要
func CacheKey(model, text string) string {
	sum := sha256.Sum256([]byte(text))
	return model + ":" + hex.EncodeToString(sum[:])
}
