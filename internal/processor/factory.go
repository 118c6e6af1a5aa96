package processor

import (
	"context"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/embedding"

	"ai-resume-matcher/internal/agent"
	"ai-resume-matcher/internal/config"
	"ai-resume-matcher/internal/logger"
	"ai-resume-matcher/internal/parser"
	"ai-resume-matcher/internal/storage"
)

// NewEmbedder 按配置创建向量化组件：provider -> 重试 -> 缓存
func NewEmbedder(ctx context.Context, cfg config.EmbeddingConfig, store *storage.Storage) (embedding.Embedder, error) {
	var (
		base  embedding.Embedder
		model string
		err   error
	)
	switch cfg.Provider {
	case "openai":
		var e *parser.OpenAIEmbedder
		e, err = parser.NewOpenAIEmbedder(parser.OpenAIEmbedderConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Timeout:    config.GetDuration(cfg.Timeout, 30*time.Second),
		})
		base, model = e, cacheModelKey(cfg)
	case "gemini":
		var e *parser.GeminiEmbedder
		e, err = parser.NewGeminiEmbedder(ctx, cfg.APIKey, cfg.Model, cfg.Dimensions)
		base, model = e, cacheModelKey(cfg)
	case "hash", "":
		base, model = parser.NewHashEmbedder(cfg.Dimensions), cacheModelKey(cfg)
	default:
		return nil, fmt.Errorf("%w: unknown embedding provider %q", ErrConfiguration, cfg.Provider)
	}
	if err != nil {
		return nil, fmt.Errorf("创建向量化组件失败: %w", err)
	}

	if cfg.MaxAttempts > 1 {
		base = parser.NewRetryingEmbedder(base, cfg.MaxAttempts, 500*time.Millisecond)
	}

	switch cfg.Cache {
	case "redis":
		if store != nil && store.Redis != nil {
			return parser.NewCachedEmbedder(base, store.Redis, model), nil
		}
		logger.Warn().Msg("Redis 不可用，向量缓存退回进程内 LRU")
		fallthrough
	case "memory":
		lru, err := storage.NewLRUVectorCache(cfg.CacheSize)
		if err != nil {
			return nil, err
		}
		return parser.NewCachedEmbedder(base, lru, model), nil
	}
	return base, nil
}

// cacheModelKey 向量缓存键的模型部分，包含输出维度
func cacheModelKey(cfg config.EmbeddingConfig) string {
	provider := cfg.Provider
	if provider == "" {
		provider = "hash"
	}
	if provider == "hash" {
		return fmt.Sprintf("hash-%d", cfg.Dimensions)
	}
	return fmt.Sprintf("%s-%s-%d", provider, cfg.Model, cfg.Dimensions)
}

// NewAnalysisServiceFromConfig 按配置装配完整服务。store 可以为 nil
func NewAnalysisServiceFromConfig(ctx context.Context, cfg *config.Config, store *storage.Storage, metrics *Metrics) (*AnalysisService, error) {
	llm, err := agent.NewLLMClient(ctx, cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("创建 LLM 客户端失败: %w", err)
	}

	embedder, err := NewEmbedder(ctx, cfg.Embedding, store)
	if err != nil {
		return nil, err
	}

	chunker, err := parser.NewChunker(cfg.Chunking.Size, cfg.Chunking.Overlap)
	if err != nil {
		return nil, err
	}

	assembler, err := NewRAGAssembler(chunker, embedder,
		WithMetric(storage.Metric(cfg.Retrieval.Metric)),
		WithAssemblerMetrics(metrics),
	)
	if err != nil {
		return nil, err
	}

	loader, err := parser.NewDocumentLoader(ctx,
		parser.WithPDFBackend(cfg.Document.PDFBackend),
		parser.WithLoadTimeout(config.GetDuration(cfg.Document.ParseTimeout, 30*time.Second)),
		parser.WithLoaderLogger(logger.Component("document_loader")),
	)
	if err != nil {
		return nil, fmt.Errorf("创建文档加载器失败: %w", err)
	}

	fetchOpts := []parser.JDFetcherOption{
		parser.WithFetchTimeout(config.GetDuration(cfg.JDFetch.Timeout, 10*time.Second)),
		parser.WithMaxChars(cfg.JDFetch.MaxChars),
		parser.WithStripHTML(cfg.JDFetch.StripHTML),
	}
	var objects storage.ObjectStorage
	if store != nil {
		if store.Redis != nil {
			fetchOpts = append(fetchOpts, parser.WithTextCache(store.Redis, config.GetDuration(cfg.JDFetch.CacheTTL, 24*time.Hour)))
		}
		if store.MinIO != nil {
			objects = store.MinIO
		}
	}
	resolver := NewInputResolver(loader, parser.PageTextExtractor{}, parser.NewJDFetcher(fetchOpts...), objects)

	return NewAnalysisService(
		[]ComponentOpt{
			WithLLM(llm),
			WithAssembler(assembler),
			WithResolver(resolver),
			WithMetrics(metrics),
		},
		WithDefaultTopK(cfg.Retrieval.DefaultTopK),
		WithMaxTopK(cfg.Retrieval.MaxTopK),
	)
}
