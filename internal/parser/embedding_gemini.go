package parser

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/rs/zerolog"
	"google.golang.org/genai"

	"ai-resume-matcher/internal/logger"
)

// GeminiEmbedder 使用 Gemini 向量模型，实现 eino embedding.Embedder
type GeminiEmbedder struct {
	client     *genai.Client
	model      string
	dimensions int
	logger     zerolog.Logger
}

// NewGeminiEmbedder 创建 Gemini 向量化客户端
func NewGeminiEmbedder(ctx context.Context, apiKey, model string, dimensions int) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, errors.New("API密钥不能为空")
	}
	if model == "" {
		model = "gemini-embedding-001"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 Gemini 客户端失败: %w", err)
	}

	return &GeminiEmbedder{
		client:     client,
		model:      model,
		dimensions: dimensions,
		logger:     logger.Component("gemini_embedder"),
	}, nil
}

func (g *GeminiEmbedder) GetDimensions() int {
	return g.dimensions
}

// EmbedStrings 一次请求批量向量化
func (g *GeminiEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}

	contents := make([]*genai.Content, 0, len(texts))
	for _, text := range texts {
		contents = append(contents, genai.NewContentFromText(text, genai.RoleUser))
	}

	var cfg *genai.EmbedContentConfig
	if g.dimensions > 0 {
		dim := int32(g.dimensions)
		cfg = &genai.EmbedContentConfig{OutputDimensionality: &dim}
	}

	model := effectiveModel(g.model, opts...)
	result, err := g.client.Models.EmbedContent(ctx, model, contents, cfg)
	if err != nil {
		g.logger.Error().Err(err).Str("model", model).Int("texts", len(texts)).Msg("Gemini 向量化失败")
		return nil, fmt.Errorf("gemini embed content: %w", err)
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d vectors, got %d", ErrEmptyEmbedding, len(texts), len(result.Embeddings))
	}

	out := make([][]float64, len(result.Embeddings))
	for i, emb := range result.Embeddings {
		if emb == nil {
			return nil, fmt.Errorf("%w: vector %d is nil", ErrEmptyEmbedding, i)
		}
		out[i] = toFloat64(emb.Values)
	}
	return out, nil
}
