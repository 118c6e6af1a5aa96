package types

import (
	"path/filepath"
	"strings"
)

// DocumentKind 文档类型
type DocumentKind string

const (
	DocumentKindPDF  DocumentKind = "pdf"
	DocumentKindDOCX DocumentKind = "docx"
	DocumentKindTXT  DocumentKind = "txt"
	// DocumentKindUnknown 无法识别的类型，加载时会被拒绝
	DocumentKindUnknown DocumentKind = ""
)

// KindFromFilename 按扩展名判断文档类型，大小写不敏感
func KindFromFilename(name string) DocumentKind {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return DocumentKindPDF
	case ".docx":
		return DocumentKindDOCX
	case ".txt":
		return DocumentKindTXT
	default:
		return DocumentKindUnknown
	}
}

// Document 加载后的文档，按页保存文本
type Document struct {
	Source string       `json:"source"`
	Kind   DocumentKind `json:"kind"`
	Pages  []string     `json:"pages"`
}

// Chunk 文本片段及其在原文中的字符区间 [Start, End)
type Chunk struct {
	Content string `json:"content"`
	Start   int    `json:"start"`
	End     int    `json:"end"`
}

// ScoredChunk 检索结果
type ScoredChunk struct {
	Chunk
	Score float64 `json:"score"`
}
