package processor

import (
	"errors"
	"fmt"

	"ai-resume-matcher/internal/parser"
	"ai-resume-matcher/internal/types"
)

var (
	// ErrRetrievalUnavailable 向量化失败或索引构建失败，检索不可用
	ErrRetrievalUnavailable = errors.New("retrieval unavailable")
	// ErrLLMUnavailable 模型调用失败
	ErrLLMUnavailable = errors.New("llm unavailable")
	// ErrObjectStoreDisabled 请求使用了对象键，但 MinIO 未配置
	ErrObjectStoreDisabled = errors.New("object storage is not configured")
)

// 以下错误由下层包定义，这里统一导出供 API 层判断
var (
	ErrConfiguration           = parser.ErrConfiguration
	ErrUnsupportedDocumentKind = parser.ErrUnsupportedDocumentKind
	ErrJDFetchFailed           = parser.ErrJDFetchFailed
	ErrInvalidRequest          = types.ErrInvalidRequest
)

// AnalysisError 带会话和操作信息的错误
type AnalysisError struct {
	SessionID string
	Op        string
	BaseErr   error
	Detail    string
}

func (e *AnalysisError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s (操作:%s, 会话:%s): %s", e.BaseErr, e.Op, e.SessionID, e.Detail)
	}
	return fmt.Sprintf("%s (操作:%s, 会话:%s)", e.BaseErr, e.Op, e.SessionID)
}

func (e *AnalysisError) Unwrap() error {
	return e.BaseErr
}

// Is 实现 errors.Is 接口以支持错误比较
func (e *AnalysisError) Is(target error) bool {
	return errors.Is(e.BaseErr, target)
}

// NewLLMError 包装模型调用失败，cause 保留在错误链上
func NewLLMError(sessionID string, cause error) error {
	return &AnalysisError{
		SessionID: sessionID,
		Op:        "llm",
		BaseErr:   fmt.Errorf("%w: %w", ErrLLMUnavailable, cause),
	}
}

func NewRetrievalError(sessionID, op string, cause error) error {
	return &AnalysisError{
		SessionID: sessionID,
		Op:        op,
		BaseErr:   fmt.Errorf("%w: %w", ErrRetrievalUnavailable, cause),
	}
}

func NewInputError(sessionID, op string, cause error) error {
	return &AnalysisError{
		SessionID: sessionID,
		Op:        op,
		BaseErr:   cause,
	}
}
