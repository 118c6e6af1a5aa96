package parser

import "errors"

var (
	// ErrConfiguration 分块参数非法（长度 <= 0、重叠 < 0 或重叠 >= 长度）
	ErrConfiguration = errors.New("invalid chunking configuration")
	// ErrUnsupportedDocumentKind 文件类型不在 pdf/docx/txt 之内
	ErrUnsupportedDocumentKind = errors.New("unsupported document kind")
	// ErrEmptyEmbedding 向量服务返回了空向量或数量不匹配
	ErrEmptyEmbedding = errors.New("embedding service returned no vectors")
	// ErrJDFetchFailed 抓取 JD 页面失败
	ErrJDFetchFailed = errors.New("job description fetch failed")
)
