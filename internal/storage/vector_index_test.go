package storage

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-resume-matcher/internal/types"
)

func chunkOf(s string, start int) types.Chunk {
	return types.Chunk{Content: s, Start: start, End: start + len([]rune(s))}
}

func TestVectorIndex_QueryOrdering(t *testing.T) {
	idx := NewVectorIndex(MetricCosine)
	require.NoError(t, idx.Insert(chunkOf("a", 0), []float32{1, 0}))
	require.NoError(t, idx.Insert(chunkOf("b", 1), []float32{0, 1}))
	require.NoError(t, idx.Insert(chunkOf("c", 2), []float32{1, 1}))

	got := idx.Query([]float32{1, 0.1}, 3)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Content)
	assert.Equal(t, "c", got[1].Content)
	assert.Equal(t, "b", got[2].Content)
	assert.GreaterOrEqual(t, got[0].Score, got[1].Score)
}

func TestVectorIndex_TiesKeepInsertionOrder(t *testing.T) {
	idx := NewVectorIndex(MetricCosine)
	for i, s := range []string{"r1", "r2", "j1", "j2"} {
		require.NoError(t, idx.Insert(chunkOf(s, i), []float32{0.5, 0.5}))
	}

	for run := 0; run < 20; run++ {
		got := idx.Query([]float32{1, 1}, 4)
		require.Len(t, got, 4)
		assert.Equal(t, []string{"r1", "r2", "j1", "j2"},
			[]string{got[0].Content, got[1].Content, got[2].Content, got[3].Content})
	}
}

func TestVectorIndex_KBounds(t *testing.T) {
	idx := NewVectorIndex(MetricCosine)
	require.NoError(t, idx.Insert(chunkOf("a", 0), []float32{1, 0}))
	require.NoError(t, idx.Insert(chunkOf("b", 1), []float32{0, 1}))

	assert.Empty(t, idx.Query([]float32{1, 0}, 0))
	assert.NotNil(t, idx.Query([]float32{1, 0}, -3))
	assert.Len(t, idx.Query([]float32{1, 0}, 1), 1)
	assert.Len(t, idx.Query([]float32{1, 0}, 10), 2)

	empty := NewVectorIndex(MetricCosine)
	assert.Empty(t, empty.Query([]float32{1, 0}, 5))
}

func TestVectorIndex_InsertValidation(t *testing.T) {
	idx := NewVectorIndex(MetricCosine)
	assert.ErrorIs(t, idx.Insert(chunkOf("a", 0), nil), ErrEmptyVector)

	require.NoError(t, idx.Insert(chunkOf("a", 0), []float32{1, 2, 3}))
	assert.ErrorIs(t, idx.Insert(chunkOf("b", 1), []float32{1, 2}), ErrDimensionMismatch)
	assert.Equal(t, 1, idx.Len())
	assert.Equal(t, 3, idx.Dimension())
}

func TestVectorIndex_CopiesVectorOnInsert(t *testing.T) {
	idx := NewVectorIndex(MetricCosine)
	vec := []float32{1, 0}
	require.NoError(t, idx.Insert(chunkOf("a", 0), vec))
	require.NoError(t, idx.Insert(chunkOf("b", 1), []float32{0, 1}))

	vec[0], vec[1] = 0, 1

	got := idx.Query([]float32{1, 0}, 1)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0].Content)
}

func TestVectorIndex_L2(t *testing.T) {
	idx := NewVectorIndex(MetricL2)
	assert.Equal(t, MetricL2, idx.Metric())
	require.NoError(t, idx.Insert(chunkOf("far", 0), []float32{10, 10}))
	require.NoError(t, idx.Insert(chunkOf("near", 3), []float32{1, 1}))

	got := idx.Query([]float32{0, 0}, 2)
	require.Len(t, got, 2)
	assert.Equal(t, "near", got[0].Content)
	assert.InDelta(t, -math.Sqrt2, got[0].Score, 1e-9)
}

func TestVectorIndex_UnknownMetricFallsBackToCosine(t *testing.T) {
	assert.Equal(t, MetricCosine, NewVectorIndex("dot").Metric())
}

func TestVectorIndex_ConcurrentReads(t *testing.T) {
	idx := NewVectorIndex(MetricCosine)
	for i := 0; i < 50; i++ {
		require.NoError(t, idx.Insert(chunkOf("x", i), []float32{float32(i), 1}))
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Len(t, idx.Query([]float32{1, 1}, 5), 5)
		}()
	}
	wg.Wait()
}

func TestSimilarityHelpers(t *testing.T) {
	assert.InDelta(t, 1.0, CosineSimilarity([]float32{2, 0}, []float32{5, 0}), 1e-9)
	assert.Equal(t, 0.0, CosineSimilarity([]float32{0, 0}, []float32{1, 0}))
	assert.Equal(t, 0.0, CosineSimilarity([]float32{1}, []float32{1, 0}))
	assert.InDelta(t, 5.0, L2Distance([]float32{0, 0}, []float32{3, 4}), 1e-9)
	assert.True(t, math.IsInf(L2Distance([]float32{1}, []float32{1, 2}), 1))
}
