package processor

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"ai-resume-matcher/internal/agent"
	"ai-resume-matcher/internal/constants"
	"ai-resume-matcher/internal/logger"
	"ai-resume-matcher/internal/parser"
	"ai-resume-matcher/internal/tracing"
	"ai-resume-matcher/internal/types"
)

// Components 服务依赖的组件
type Components struct {
	LLM       agent.LLMClient
	Assembler *RAGAssembler
	Answerer  *RAGAnswerer
	Resolver  *InputResolver
	Metrics   *Metrics
}

// Settings 服务设置
type Settings struct {
	DefaultTopK int
	// MaxTopK 大于 0 时限制单次检索的 k
	MaxTopK int
}

// ComponentOpt 组件选项
type ComponentOpt func(*Components)

// SettingOpt 设置选项
type SettingOpt func(*Settings)

func WithLLM(llm agent.LLMClient) ComponentOpt {
	return func(c *Components) { c.LLM = llm }
}

func WithAssembler(a *RAGAssembler) ComponentOpt {
	return func(c *Components) { c.Assembler = a }
}

func WithAnswerer(a *RAGAnswerer) ComponentOpt {
	return func(c *Components) { c.Answerer = a }
}

func WithResolver(r *InputResolver) ComponentOpt {
	return func(c *Components) { c.Resolver = r }
}

func WithMetrics(m *Metrics) ComponentOpt {
	return func(c *Components) { c.Metrics = m }
}

func WithDefaultTopK(k int) SettingOpt {
	return func(s *Settings) {
		if k > 0 {
			s.DefaultTopK = k
		}
	}
}

func WithMaxTopK(k int) SettingOpt {
	return func(s *Settings) { s.MaxTopK = k }
}

// AnalysisOutcome 一次分析的结果
type AnalysisOutcome struct {
	SessionID string
	Result    types.AnalysisResult
}

// AnalysisService 匹配分析主流程：提示词 -> 模型 -> 解析。检索和问答是独立的次要流程
type AnalysisService struct {
	components Components
	settings   Settings
}

// NewAnalysisService LLM 为必需组件
func NewAnalysisService(compOpts []ComponentOpt, setOpts ...SettingOpt) (*AnalysisService, error) {
	s := &AnalysisService{settings: Settings{DefaultTopK: constants.DefaultTopK}}
	for _, opt := range compOpts {
		opt(&s.components)
	}
	for _, opt := range setOpts {
		opt(&s.settings)
	}
	if s.components.LLM == nil {
		return nil, errors.New("llm client is not initialized")
	}
	if s.components.Answerer == nil {
		s.components.Answerer = NewRAGAnswerer(s.components.LLM, s.settings.DefaultTopK, s.components.Metrics)
	}
	return s, nil
}

func (s *AnalysisService) Resolver() *InputResolver { return s.components.Resolver }

func (s *AnalysisService) Metrics() *Metrics { return s.components.Metrics }

// Analyze 对一份简历和一份 JD 做匹配分析。解析降级不算错误，只有输入非法或模型失败才返回错误
func (s *AnalysisService) Analyze(ctx context.Context, req types.AnalysisRequest) (*AnalysisOutcome, error) {
	ctx, sessionID := WithSession(ctx)
	ctx, span := tracer.Start(ctx, "AnalysisService.Analyze")
	defer span.End()
	span.SetAttributes(
		attribute.String("session.id", sessionID),
		attribute.Int("analysis.resume_length", len(req.ResumeText)),
		attribute.Int("analysis.jd_length", len(req.JobDescription)),
	)
	log := logger.Ctx(ctx)

	if err := req.Validate(); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		s.components.Metrics.observeAnalysis("invalid")
		return nil, NewInputError(sessionID, "validate", err)
	}

	prompt := parser.BuildAnalysisPrompt(req.ResumeText, req.JobDescription)

	start := time.Now()
	reply, err := s.components.LLM.Complete(ctx, prompt)
	s.components.Metrics.observeLLM(time.Since(start))
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		s.components.Metrics.observeAnalysis("llm_error")
		log.Error().Err(err).Msg("模型调用失败")
		return nil, NewLLMError(sessionID, err)
	}

	result := parser.ParseAnalysisResponse(reply)
	band := result.Band()
	s.components.Metrics.observeAnalysis("ok")
	s.components.Metrics.observeBand(band)

	span.SetAttributes(
		attribute.Bool("analysis.has_score", result.HasScore()),
		attribute.String("analysis.band", string(band)),
		attribute.Int("analysis.edits", len(result.SuggestedEdits)),
	)
	ev := log.Info().Str("band", string(band)).Int("edits", len(result.SuggestedEdits)).Dur("llm_elapsed", time.Since(start))
	if result.MatchingScore != nil {
		ev = ev.Int("score", *result.MatchingScore)
	}
	ev.Msg("匹配分析完成")

	return &AnalysisOutcome{SessionID: sessionID, Result: result}, nil
}

// BuildRetriever 为一份简历和 JD 建立会话内索引
func (s *AnalysisService) BuildRetriever(ctx context.Context, req types.AnalysisRequest) (*Retriever, string, error) {
	ctx, sessionID := WithSession(ctx)
	if s.components.Assembler == nil {
		return nil, sessionID, NewRetrievalError(sessionID, "build", errors.New("assembler is not configured"))
	}
	if err := req.Validate(); err != nil {
		return nil, sessionID, NewInputError(sessionID, "validate", err)
	}
	r, err := s.components.Assembler.Build(ctx, req.ResumeText, req.JobDescription)
	if err != nil {
		return nil, sessionID, &AnalysisError{SessionID: sessionID, Op: "build", BaseErr: err}
	}
	return r, sessionID, nil
}

// Retrieve 建索引后检索 k 个片段
func (s *AnalysisService) Retrieve(ctx context.Context, req types.AnalysisRequest, query string, k int) (string, []types.ScoredChunk, error) {
	ctx, sessionID := WithSession(ctx)
	retriever, _, err := s.BuildRetriever(ctx, req)
	if err != nil {
		return sessionID, nil, err
	}
	results, err := retriever.Retrieve(ctx, query, s.clampK(k))
	if err != nil {
		return sessionID, nil, &AnalysisError{SessionID: sessionID, Op: "retrieve", BaseErr: err}
	}
	return sessionID, results, nil
}

// Ask 建索引后做检索问答
func (s *AnalysisService) Ask(ctx context.Context, req types.AnalysisRequest, question string, k int) (string, *Answer, error) {
	ctx, sessionID := WithSession(ctx)
	retriever, _, err := s.BuildRetriever(ctx, req)
	if err != nil {
		return sessionID, nil, err
	}
	answer, err := s.components.Answerer.Ask(ctx, retriever, question, s.clampK(k))
	if err != nil {
		var ae *AnalysisError
		if errors.As(err, &ae) {
			return sessionID, nil, err
		}
		return sessionID, nil, &AnalysisError{SessionID: sessionID, Op: "ask", BaseErr: err}
	}
	return sessionID, answer, nil
}

// clampK k <= 0 时用默认值，超过上限时截到上限
func (s *AnalysisService) clampK(k int) int {
	if k <= 0 {
		k = s.settings.DefaultTopK
	}
	if s.settings.MaxTopK > 0 && k > s.settings.MaxTopK {
		k = s.settings.MaxTopK
	}
	return k
}
