package parser

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	"github.com/cloudwego/eino/components/embedding"
)

// HashEmbedder 基于词项哈希的本地向量化，结果确定，不依赖网络。
// 用于离线运行和测试，语义效果远不如模型向量
type HashEmbedder struct {
	dimensions int
}

// NewHashEmbedder dimensions <= 0 时使用 384
func NewHashEmbedder(dimensions int) *HashEmbedder {
	if dimensions <= 0 {
		dimensions = 384
	}
	return &HashEmbedder{dimensions: dimensions}
}

func (h *HashEmbedder) GetDimensions() int {
	return h.dimensions
}

func (h *HashEmbedder) EmbedStrings(_ context.Context, texts []string, _ ...embedding.Option) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		out[i] = h.embed(text)
	}
	return out, nil
}

// embed 小写分词后按 FNV 哈希落桶，符号位由哈希最高位决定，最后做 L2 归一化
func (h *HashEmbedder) embed(text string) []float64 {
	vec := make([]float64, h.dimensions)
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, w := range words {
		hasher := fnv.New64a()
		_, _ = hasher.Write([]byte(w))
		sum := hasher.Sum64()
		idx := int(sum % uint64(h.dimensions))
		if sum>>63 == 1 {
			vec[idx]--
		} else {
			vec[idx]++
		}
	}

	var norm float64
	for _, x := range vec {
		norm += x * x
	}
	if norm == 0 {
		// 没有词项时返回固定的单位向量，保证向量非零
		vec[0] = 1
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] /= norm
	}
	return vec
}
