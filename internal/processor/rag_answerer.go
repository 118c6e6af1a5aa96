package processor

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"ai-resume-matcher/internal/agent"
	"ai-resume-matcher/internal/constants"
	"ai-resume-matcher/internal/logger"
	"ai-resume-matcher/internal/parser"
	"ai-resume-matcher/internal/tracing"
	"ai-resume-matcher/internal/types"
)

// Answer 检索问答结果
type Answer struct {
	Answer  string              `json:"answer"`
	Sources []types.ScoredChunk `json:"sources"`
}

// RAGAnswerer 检索 k 个片段后拼进问答提示词交给模型回答
type RAGAnswerer struct {
	llm      agent.LLMClient
	defaultK int
	metrics  *Metrics
}

// NewRAGAnswerer defaultK <= 0 时使用 4
func NewRAGAnswerer(llm agent.LLMClient, defaultK int, metrics *Metrics) *RAGAnswerer {
	if defaultK <= 0 {
		defaultK = constants.DefaultTopK
	}
	return &RAGAnswerer{llm: llm, defaultK: defaultK, metrics: metrics}
}

// Ask k <= 0 时使用默认值
func (a *RAGAnswerer) Ask(ctx context.Context, retriever *Retriever, question string, k int) (*Answer, error) {
	if strings.TrimSpace(question) == "" {
		return nil, errors.Join(ErrInvalidRequest, errors.New("question is empty"))
	}
	if retriever == nil {
		return nil, ErrRetrievalUnavailable
	}
	if k <= 0 {
		k = a.defaultK
	}

	ctx, span := tracer.Start(ctx, "RAGAnswerer.Ask")
	defer span.End()
	span.SetAttributes(attribute.Int("rag.k", k), attribute.String("rag.question", tracing.SafePrompt(question)))

	sources, err := retriever.Retrieve(ctx, question, k)
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int("rag.sources", len(sources)))
	if len(sources) > 0 {
		span.SetAttributes(attribute.String("rag.top_source", tracing.SafeDocumentContent(sources[0].Content)))
	}

	start := time.Now()
	reply, err := a.llm.Complete(ctx, parser.BuildQAPrompt(question, sources))
	a.metrics.observeLLM(time.Since(start))
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return nil, NewLLMError(sessionFrom(ctx), err)
	}

	logger.Ctx(ctx).Info().Int("sources", len(sources)).Msg("检索问答完成")
	return &Answer{Answer: strings.TrimSpace(reply), Sources: sources}, nil
}
