package processor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"ai-resume-matcher/internal/logger"
	"ai-resume-matcher/internal/parser"
	"ai-resume-matcher/internal/storage"
	"ai-resume-matcher/internal/tracing"
	"ai-resume-matcher/internal/types"
)

var tracer = otel.Tracer("ai-resume-matcher/processor")

// RAGAssembler 分块、向量化并建立会话内的向量索引
type RAGAssembler struct {
	chunker  *parser.Chunker
	embedder embedding.Embedder
	metric   storage.Metric
	metrics  *Metrics
}

// AssemblerOption RAGAssembler 可选项
type AssemblerOption func(*RAGAssembler)

// WithMetric 相似度计算方式，默认 cosine
func WithMetric(metric storage.Metric) AssemblerOption {
	return func(a *RAGAssembler) {
		a.metric = metric
	}
}

func WithAssemblerMetrics(m *Metrics) AssemblerOption {
	return func(a *RAGAssembler) {
		a.metrics = m
	}
}

func NewRAGAssembler(chunker *parser.Chunker, embedder embedding.Embedder, opts ...AssemblerOption) (*RAGAssembler, error) {
	if chunker == nil {
		return nil, fmt.Errorf("%w: chunker is nil", ErrConfiguration)
	}
	if embedder == nil {
		return nil, errors.New("embedder is nil")
	}
	a := &RAGAssembler{
		chunker:  chunker,
		embedder: embedder,
		metric:   storage.MetricCosine,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Build 简历和 JD 分别分块后并发向量化，再按简历在前、JD 在后的顺序写入同一索引。
// 任一步失败都不会返回 Retriever。
func (a *RAGAssembler) Build(ctx context.Context, resume, jd string) (*Retriever, error) {
	ctx, span := tracer.Start(ctx, "RAGAssembler.Build")
	defer span.End()

	log := logger.Ctx(ctx)
	start := time.Now()

	resumeChunks := a.chunker.Split(resume)
	jdChunks := a.chunker.Split(jd)
	span.SetAttributes(
		attribute.Int("rag.resume_chunks", len(resumeChunks)),
		attribute.Int("rag.jd_chunks", len(jdChunks)),
		attribute.Int("rag.chunk_size", a.chunker.Size()),
		attribute.Int("rag.chunk_overlap", a.chunker.Overlap()),
	)

	var resumeVecs, jdVecs [][]float32
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		resumeVecs, err = parser.EmbedBatch(gctx, a.embedder, contents(resumeChunks))
		if err != nil {
			return fmt.Errorf("resume: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		jdVecs, err = parser.EmbedBatch(gctx, a.embedder, contents(jdChunks))
		if err != nil {
			return fmt.Errorf("job description: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeEmbedding)
		a.metrics.observeRetrieval("error", 0)
		log.Error().Err(err).Msg("向量化失败，检索不可用")
		return nil, fmt.Errorf("%w: %w", ErrRetrievalUnavailable, err)
	}

	index := storage.NewVectorIndex(a.metric)
	if err := insertAll(index, resumeChunks, resumeVecs); err != nil {
		return nil, a.buildFailed(ctx, span, err)
	}
	if err := insertAll(index, jdChunks, jdVecs); err != nil {
		return nil, a.buildFailed(ctx, span, err)
	}

	a.metrics.observeRetrieval("ok", index.Len())
	log.Info().
		Int("resume_chunks", len(resumeChunks)).
		Int("jd_chunks", len(jdChunks)).
		Int("dimension", index.Dimension()).
		Dur("elapsed", time.Since(start)).
		Msg("向量索引构建完成")

	return &Retriever{
		index:       index,
		embedder:    a.embedder,
		resumeCount: len(resumeChunks),
	}, nil
}

func (a *RAGAssembler) buildFailed(ctx context.Context, span trace.Span, err error) error {
	tracing.RecordError(span, err, tracing.ErrorTypeInternal)
	a.metrics.observeRetrieval("error", 0)
	logger.Ctx(ctx).Error().Err(err).Msg("写入向量索引失败")
	return fmt.Errorf("%w: %w", ErrRetrievalUnavailable, err)
}

func insertAll(index *storage.VectorIndex, chunks []types.Chunk, vecs [][]float32) error {
	if len(chunks) != len(vecs) {
		return fmt.Errorf("%w: %d chunks, %d vectors", parser.ErrEmptyEmbedding, len(chunks), len(vecs))
	}
	for i, ch := range chunks {
		if err := index.Insert(ch, vecs[i]); err != nil {
			return err
		}
	}
	return nil
}

func contents(chunks []types.Chunk) []string {
	out := make([]string, len(chunks))
	for i, ch := range chunks {
		out[i] = ch.Content
	}
	return out
}

// Retriever 对已建好的索引做相似度查询，可被同一会话的多个请求并发读取
type Retriever struct {
	index       *storage.VectorIndex
	embedder    embedding.Embedder
	resumeCount int
}

// Len 索引中的片段总数
func (r *Retriever) Len() int { return r.index.Len() }

// ResumeChunks 来自简历的片段数，它们位于插入顺序的最前面
func (r *Retriever) ResumeChunks() int { return r.resumeCount }

// Retrieve 返回与 query 最相似的前 k 个片段。k <= 0 时直接返回空切片
func (r *Retriever) Retrieve(ctx context.Context, query string, k int) ([]types.ScoredChunk, error) {
	if k <= 0 {
		return []types.ScoredChunk{}, nil
	}

	ctx, span := tracer.Start(ctx, "Retriever.Retrieve")
	defer span.End()
	span.SetAttributes(attribute.Int("rag.k", k), attribute.Int("rag.index_size", r.index.Len()))

	vec, err := parser.EmbedText(ctx, r.embedder, query)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeEmbedding)
		return nil, fmt.Errorf("%w: query: %w", ErrRetrievalUnavailable, err)
	}
	if dim := r.index.Dimension(); dim != 0 && len(vec) != dim {
		err := fmt.Errorf("%w: query dimension %d, index dimension %d", storage.ErrDimensionMismatch, len(vec), dim)
		tracing.RecordError(span, err, tracing.ErrorTypeEmbedding)
		return nil, fmt.Errorf("%w: %w", ErrRetrievalUnavailable, err)
	}

	results := r.index.Query(vec, k)
	span.SetAttributes(attribute.Int("rag.results", len(results)))
	return results, nil
}
