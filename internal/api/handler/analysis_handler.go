package handler

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/go-playground/validator/v10"

	"ai-resume-matcher/internal/logger"
	"ai-resume-matcher/internal/processor"
	"ai-resume-matcher/internal/storage"
	"ai-resume-matcher/internal/types"
)

// AnalysisHandler 负责匹配分析、检索、问答和 JD 抓取接口
type AnalysisHandler struct {
	svc            *processor.AnalysisService
	maxUploadBytes int64
	validate       *validator.Validate
}

// NewAnalysisHandler maxUploadMB <= 0 时使用对象存储的默认上限
func NewAnalysisHandler(svc *processor.AnalysisService, maxUploadMB int) *AnalysisHandler {
	limit := storage.DefaultMaxObjectBytes
	if maxUploadMB > 0 {
		limit = int64(maxUploadMB) << 20
	}
	return &AnalysisHandler{
		svc:            svc,
		maxUploadBytes: limit,
		validate:       validator.New(),
	}
}

// HandleAnalyze POST /api/v1/analyze (multipart)
// 简历: resume(文件) | resume_text | resume_object_key
// JD:   jd(文件) | jd_text | jd_url | jd_object_key
func (h *AnalysisHandler) HandleAnalyze(ctx context.Context, c *app.RequestContext) {
	ctx, sessionID := processor.WithSession(ctx)

	resumeSrc, err := h.formSource(c, "resume")
	if err != nil {
		h.fail(ctx, c, sessionID, err)
		return
	}
	jdSrc, err := h.formSource(c, "jd")
	if err != nil {
		h.fail(ctx, c, sessionID, err)
		return
	}
	jdSrc.URL = c.PostForm("jd_url")

	resolver := h.svc.Resolver()
	resumeText, err := resolver.Resolve(ctx, resumeSrc, false)
	if err != nil {
		h.fail(ctx, c, sessionID, fmt.Errorf("resume: %w", err))
		return
	}
	jdText, err := resolver.Resolve(ctx, jdSrc, true)
	if err != nil {
		h.fail(ctx, c, sessionID, fmt.Errorf("job description: %w", err))
		return
	}

	out, err := h.svc.Analyze(ctx, types.AnalysisRequest{ResumeText: resumeText, JobDescription: jdText})
	if err != nil {
		h.fail(ctx, c, sessionID, err)
		return
	}

	band := out.Result.Band()
	c.JSON(consts.StatusOK, AnalyzeResponse{
		SessionID:      out.SessionID,
		AnalysisResult: out.Result,
		Band:           band,
		Insight:        band.Insight(),
	})
}

// HandleRetrieve POST /api/v1/retrieve
func (h *AnalysisHandler) HandleRetrieve(ctx context.Context, c *app.RequestContext) {
	ctx, sessionID := processor.WithSession(ctx)

	var req RetrieveRequest
	if err := h.bind(c, &req); err != nil {
		h.fail(ctx, c, sessionID, err)
		return
	}

	_, chunks, err := h.svc.Retrieve(ctx, types.AnalysisRequest{ResumeText: req.ResumeText, JobDescription: req.JobDescription}, req.Query, req.K)
	if err != nil {
		h.fail(ctx, c, sessionID, err)
		return
	}
	c.JSON(consts.StatusOK, RetrieveResponse{SessionID: sessionID, Chunks: chunks})
}

// HandleAsk POST /api/v1/ask
func (h *AnalysisHandler) HandleAsk(ctx context.Context, c *app.RequestContext) {
	ctx, sessionID := processor.WithSession(ctx)

	var req AskRequest
	if err := h.bind(c, &req); err != nil {
		h.fail(ctx, c, sessionID, err)
		return
	}

	_, answer, err := h.svc.Ask(ctx, types.AnalysisRequest{ResumeText: req.ResumeText, JobDescription: req.JobDescription}, req.Question, req.K)
	if err != nil {
		h.fail(ctx, c, sessionID, err)
		return
	}
	c.JSON(consts.StatusOK, AskResponse{SessionID: sessionID, Answer: answer.Answer, Sources: answer.Sources})
}

// HandleFetchJD POST /api/v1/jd/fetch
func (h *AnalysisHandler) HandleFetchJD(ctx context.Context, c *app.RequestContext) {
	var req FetchJDRequest
	if err := h.bind(c, &req); err != nil {
		h.fail(ctx, c, "", err)
		return
	}

	text, err := h.svc.Resolver().FromURL(ctx, req.URL)
	if err != nil {
		h.fail(ctx, c, "", err)
		return
	}
	c.JSON(consts.StatusOK, FetchJDResponse{Text: text})
}

// HandleHealth GET /health
func (h *AnalysisHandler) HandleHealth(_ context.Context, c *app.RequestContext) {
	c.JSON(consts.StatusOK, map[string]string{"status": "ok"})
}

func (h *AnalysisHandler) bind(c *app.RequestContext, req any) error {
	if err := c.BindJSON(req); err != nil {
		return errors.Join(processor.ErrInvalidRequest, err)
	}
	if err := h.validate.Struct(req); err != nil {
		return errors.Join(processor.ErrInvalidRequest, err)
	}
	return nil
}

// formSource 读取 <prefix>(文件)、<prefix>_text、<prefix>_object_key 三个字段
func (h *AnalysisHandler) formSource(c *app.RequestContext, prefix string) (processor.Source, error) {
	src := processor.Source{
		Text:      c.PostForm(prefix + "_text"),
		ObjectKey: c.PostForm(prefix + "_object_key"),
	}

	fileHeader, err := c.FormFile(prefix)
	if err != nil || fileHeader == nil {
		return src, nil
	}
	data, err := h.readUpload(fileHeader)
	if err != nil {
		return src, err
	}
	src.FileName = fileHeader.Filename
	src.Data = data
	return src, nil
}

func (h *AnalysisHandler) readUpload(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > h.maxUploadBytes {
		return nil, fmt.Errorf("%s: %w", fh.Filename, storage.ErrObjectTooLarge)
	}
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("打开上传文件失败: %w", err)
	}
	defer f.Close()
	return storage.ReadLimited(f, h.maxUploadBytes)
}

func (h *AnalysisHandler) fail(ctx context.Context, c *app.RequestContext, sessionID string, err error) {
	status := StatusFor(err)
	ev := logger.Ctx(ctx).Warn()
	if status >= consts.StatusInternalServerError {
		ev = logger.Ctx(ctx).Error()
	}
	ev.Err(err).Int("status", status).Str("path", string(c.Path())).Msg("请求处理失败")
	c.JSON(status, ErrorResponse{Error: err.Error(), SessionID: sessionID})
}

// StatusFor 错误到 HTTP 状态码的映射
func StatusFor(err error) int {
	switch {
	case errors.Is(err, processor.ErrInvalidRequest),
		errors.Is(err, processor.ErrUnsupportedDocumentKind),
		errors.Is(err, storage.ErrInvalidObjectKey),
		errors.Is(err, storage.ErrObjectTooLarge):
		return consts.StatusBadRequest
	case errors.Is(err, processor.ErrObjectStoreDisabled):
		return consts.StatusNotImplemented
	case errors.Is(err, processor.ErrLLMUnavailable),
		errors.Is(err, processor.ErrRetrievalUnavailable),
		errors.Is(err, processor.ErrJDFetchFailed):
		return consts.StatusBadGateway
	default:
		return consts.StatusInternalServerError
	}
}
