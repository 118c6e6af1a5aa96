package storage

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"sync"

	"ai-resume-matcher/internal/types"
)

// Metric 相似度计算方式
type Metric string

const (
	MetricCosine Metric = "cosine"
	// MetricL2 得分为负的欧氏距离，越大越相似
	MetricL2 Metric = "l2"
)

var (
	ErrEmptyVector       = errors.New("vector is empty")
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
)

type indexEntry struct {
	chunk  types.Chunk
	vector []float32
}

// VectorIndex 会话内的内存向量索引，只追加不删除
type VectorIndex struct {
	mu        sync.RWMutex
	metric    Metric
	dimension int
	entries   []indexEntry
}

// NewVectorIndex 未知 metric 按 cosine 处理
func NewVectorIndex(metric Metric) *VectorIndex {
	if metric != MetricL2 {
		metric = MetricCosine
	}
	return &VectorIndex{metric: metric}
}

func (idx *VectorIndex) Metric() Metric { return idx.metric }

// Dimension 首次插入前为 0
func (idx *VectorIndex) Dimension() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.dimension
}

func (idx *VectorIndex) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.entries)
}

// Insert 追加一条记录，向量会被复制，调用方之后修改原切片不影响索引
func (idx *VectorIndex) Insert(chunk types.Chunk, vec []float32) error {
	if len(vec) == 0 {
		return ErrEmptyVector
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.dimension == 0 {
		idx.dimension = len(vec)
	} else if len(vec) != idx.dimension {
		return fmt.Errorf("%w: got %d, want %d", ErrDimensionMismatch, len(vec), idx.dimension)
	}

	owned := make([]float32, len(vec))
	copy(owned, vec)
	idx.entries = append(idx.entries, indexEntry{chunk: chunk, vector: owned})
	return nil
}

// Query 返回与 vec 最相似的前 k 条，得分相同按插入顺序排列。
// k <= 0 返回空切片，k 超过条目数时返回全部。
func (idx *VectorIndex) Query(vec []float32, k int) []types.ScoredChunk {
	if k <= 0 {
		return []types.ScoredChunk{}
	}

	idx.mu.RLock()
	defer idx.mu.RUnlock()

	results := make([]types.ScoredChunk, 0, len(idx.entries))
	for _, e := range idx.entries {
		results = append(results, types.ScoredChunk{
			Chunk: e.chunk,
			Score: idx.score(vec, e.vector),
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if k < len(results) {
		results = results[:k]
	}
	return results
}

func (idx *VectorIndex) score(a, b []float32) float64 {
	if idx.metric == MetricL2 {
		return -L2Distance(a, b)
	}
	return CosineSimilarity(a, b)
}

// CosineSimilarity 维度不同或存在零向量时返回 0
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// L2Distance 维度不同时返回 +Inf
func L2Distance(a, b []float32) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return math.Sqrt(sum)
}
