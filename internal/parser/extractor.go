package parser

import (
	"strings"

	"ai-resume-matcher/internal/types"
)

// ExtractText 按页序用换行拼接文档内容，不修改文档本身
func ExtractText(doc *types.Document) string {
	if doc == nil {
		return ""
	}
	return strings.Join(doc.Pages, "\n")
}

// PageTextExtractor 以 ExtractText 实现 processor.TextExtractor
type PageTextExtractor struct{}

func (PageTextExtractor) Extract(doc *types.Document) string {
	return ExtractText(doc)
}
