package handler

import "ai-resume-matcher/internal/types"

// AnalyzeResponse POST /api/v1/analyze 的响应
type AnalyzeResponse struct {
	SessionID string `json:"session_id"`
	types.AnalysisResult
	Band    types.MatchBand `json:"band"`
	Insight string          `json:"insight"`
}

// RetrieveRequest 检索请求，K 为 0 时使用默认值
type RetrieveRequest struct {
	ResumeText     string `json:"resume_text" validate:"required"`
	JobDescription string `json:"job_description" validate:"required"`
	Query          string `json:"query" validate:"required"`
	K              int    `json:"k" validate:"gte=0"`
}

// RetrieveResponse 检索响应
type RetrieveResponse struct {
	SessionID string              `json:"session_id"`
	Chunks    []types.ScoredChunk `json:"chunks"`
}

// AskRequest 检索问答请求
type AskRequest struct {
	ResumeText     string `json:"resume_text" validate:"required"`
	JobDescription string `json:"job_description" validate:"required"`
	Question       string `json:"question" validate:"required"`
	K              int    `json:"k" validate:"gte=0"`
}

// AskResponse 检索问答响应
type AskResponse struct {
	SessionID string              `json:"session_id"`
	Answer    string              `json:"answer"`
	Sources   []types.ScoredChunk `json:"sources"`
}

// FetchJDRequest 抓取 JD 请求
type FetchJDRequest struct {
	URL string `json:"url" validate:"required,url"`
}

// FetchJDResponse 抓取 JD 响应
type FetchJDResponse struct {
	Text string `json:"text"`
}

// ErrorResponse 统一错误响应
type ErrorResponse struct {
	Error     string `json:"error"`
	SessionID string `json:"session_id,omitempty"`
}
