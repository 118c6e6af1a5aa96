package parser

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"ai-resume-matcher/internal/logger"
)

// OpenAIEmbedder 通过 OpenAI 兼容接口生成向量，实现 eino embedding.Embedder
type OpenAIEmbedder struct {
	client     *openai.Client
	model      string
	dimensions int
	logger     zerolog.Logger
}

// OpenAIEmbedderConfig 向量服务参数
type OpenAIEmbedderConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Dimensions int
	Timeout    time.Duration
	HTTPClient *http.Client
}

// NewOpenAIEmbedder 创建 OpenAI 兼容的向量化客户端
func NewOpenAIEmbedder(cfg OpenAIEmbedderConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("API密钥不能为空")
	}
	if cfg.Model == "" {
		return nil, errors.New("向量模型不能为空")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	switch {
	case cfg.HTTPClient != nil:
		clientCfg.HTTPClient = cfg.HTTPClient
	case cfg.Timeout > 0:
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &OpenAIEmbedder{
		client:     openai.NewClientWithConfig(clientCfg),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		logger:     logger.Component("openai_embedder"),
	}, nil
}

// GetDimensions 配置的输出维度，0 表示由模型决定
func (e *OpenAIEmbedder) GetDimensions() int {
	return e.dimensions
}

// EmbedStrings 批量向量化，返回顺序与输入一致
func (e *OpenAIEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	model := effectiveModel(e.model, opts...)
	req := openai.EmbeddingRequest{
		Model: openai.EmbeddingModel(model),
		Input: texts,
	}
	if e.dimensions > 0 {
		req.Dimensions = e.dimensions
	}

	start := time.Now()
	resp, err := e.client.CreateEmbeddings(ctx, req)
	if err != nil {
		e.logger.Error().Err(err).Str("model", model).Int("texts", len(texts)).Msg("向量服务调用失败")
		return nil, fmt.Errorf("openai embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d vectors, got %d", ErrEmptyEmbedding, len(texts), len(resp.Data))
	}

	out := make([][]float64, len(texts))
	for _, d := range resp.Data {
		if d.Index < 0 || d.Index >= len(texts) {
			return nil, fmt.Errorf("%w: response index %d out of range", ErrEmptyEmbedding, d.Index)
		}
		out[d.Index] = toFloat64(d.Embedding)
	}

	e.logger.Debug().
		Str("model", model).
		Int("texts", len(texts)).
		Int("dim", len(out[0])).
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Dur("elapsed", time.Since(start)).
		Msg("向量化完成")
	return out, nil
}
