package processor

import (
	"context"

	"ai-resume-matcher/internal/types"
)

// TextExtractor 把文档各页拼接为文本
type TextExtractor interface {
	Extract(doc *types.Document) string
}

// DocumentLoader 按文件名和内容加载文档
type DocumentLoader interface {
	Load(ctx context.Context, name string, data []byte) (*types.Document, error)
}

// JDFetcher 抓取 JD 页面文本
type JDFetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}
