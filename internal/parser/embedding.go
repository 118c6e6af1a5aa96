package parser

import (
	"context"
	"fmt"
	"math"

	"github.com/cloudwego/eino/components/embedding"
)

// DimensionReporter 可报告输出维度的向量化实现
type DimensionReporter interface {
	GetDimensions() int
}

// EmbedText 对单段文本向量化
func EmbedText(ctx context.Context, e embedding.Embedder, text string) ([]float32, error) {
	vectors, err := EmbedBatch(ctx, e, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch 调用向量服务并校验返回值：数量一致、非空、维度相同、不含 NaN/Inf
func EmbedBatch(ctx context.Context, e embedding.Embedder, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	raw, err := e.EmbedStrings(ctx, texts)
	if err != nil {
		return nil, err
	}
	if len(raw) != len(texts) {
		return nil, fmt.Errorf("%w: expected %d vectors, got %d", ErrEmptyEmbedding, len(texts), len(raw))
	}

	out := make([][]float32, len(raw))
	dim := len(raw[0])
	for i, v := range raw {
		if len(v) == 0 {
			return nil, fmt.Errorf("%w: vector %d is empty", ErrEmptyEmbedding, i)
		}
		if len(v) != dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, expected %d", ErrEmptyEmbedding, i, len(v), dim)
		}
		vec, err := toFloat32(v)
		if err != nil {
			return nil, fmt.Errorf("vector %d: %w", i, err)
		}
		out[i] = vec
	}
	return out, nil
}

func toFloat32(v []float64) ([]float32, error) {
	out := make([]float32, len(v))
	for i, x := range v {
		f := float32(x)
		// 超出 float32 范围的有限值转换后同样是 Inf
		if math.IsNaN(x) || math.IsInf(float64(f), 0) {
			return nil, fmt.Errorf("%w: non-finite value at index %d", ErrEmptyEmbedding, i)
		}
		out[i] = f
	}
	return out, nil
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

// effectiveModel 调用方通过 embedding.WithModel 指定的模型优先
func effectiveModel(defaultModel string, opts ...embedding.Option) string {
	options := embedding.GetCommonOptions(&embedding.Options{}, opts...)
	if options.Model != nil && *options.Model != "" {
		return *options.Model
	}
	return defaultModel
}
