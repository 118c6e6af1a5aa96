package parser

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/document/parser/pdf"
	einoParser "github.com/cloudwego/eino/components/document/parser"
	"github.com/gabriel-vasile/mimetype"
	lpdf "github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"ai-resume-matcher/internal/logger"
	"ai-resume-matcher/internal/tracing"
	"ai-resume-matcher/internal/types"
)

const (
	// PDFBackendEino 使用 eino-ext 的 PDF 解析器（默认）
	PDFBackendEino = "eino"
	// PDFBackendLedongthuc 使用 ledongthuc/pdf 逐页提取
	PDFBackendLedongthuc = "ledongthuc"

	mimeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// DocumentLoader 把上传的文件内容加载为按页组织的 Document
type DocumentLoader struct {
	pdfBackend string
	einoPDF    *pdf.PDFParser
	timeout    time.Duration
	logger     zerolog.Logger
}

// LoaderOption 加载器配置项
type LoaderOption func(*DocumentLoader)

// WithPDFBackend 选择 PDF 解析后端
func WithPDFBackend(backend string) LoaderOption {
	return func(l *DocumentLoader) {
		if backend != "" {
			l.pdfBackend = backend
		}
	}
}

// WithLoadTimeout 单个文件的解析超时
func WithLoadTimeout(d time.Duration) LoaderOption {
	return func(l *DocumentLoader) {
		if d > 0 {
			l.timeout = d
		}
	}
}

func WithLoaderLogger(lg zerolog.Logger) LoaderOption {
	return func(l *DocumentLoader) {
		l.logger = lg
	}
}

// NewDocumentLoader 创建加载器。eino 后端按页输出，保证页序与原文一致
func NewDocumentLoader(ctx context.Context, opts ...LoaderOption) (*DocumentLoader, error) {
	l := &DocumentLoader{
		pdfBackend: PDFBackendEino,
		timeout:    30 * time.Second,
		logger:     logger.Component("document_loader"),
	}
	for _, opt := range opts {
		opt(l)
	}

	switch l.pdfBackend {
	case PDFBackendEino:
		p, err := pdf.NewPDFParser(ctx, &pdf.Config{ToPages: true})
		if err != nil {
			return nil, fmt.Errorf("failed to create Eino PDF parser: %w", err)
		}
		l.einoPDF = p
	case PDFBackendLedongthuc:
	default:
		return nil, fmt.Errorf("unknown pdf backend %q", l.pdfBackend)
	}
	return l, nil
}

// DetectKind 优先按扩展名判断；没有扩展名时按内容嗅探
func DetectKind(name string, data []byte) types.DocumentKind {
	if filepath.Ext(name) != "" {
		return types.KindFromFilename(name)
	}

	mtype := mimetype.Detect(data)
	switch {
	case mtype.Is("application/pdf"):
		return types.DocumentKindPDF
	case mtype.Is(mimeDOCX):
		return types.DocumentKindDOCX
	case mtype.Is("text/plain"):
		return types.DocumentKindTXT
	default:
		return types.DocumentKindUnknown
	}
}

// LoadFile 从本地路径读取并加载文档
func (l *DocumentLoader) LoadFile(ctx context.Context, path string) (*types.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", path, err)
	}
	return l.Load(ctx, path, data)
}

// Load 按文件类型分派解析。类型不在 pdf/docx/txt 内返回 ErrUnsupportedDocumentKind
func (l *DocumentLoader) Load(ctx context.Context, name string, data []byte) (*types.Document, error) {
	ctx, span := tracer.Start(ctx, "DocumentLoader.Load")
	defer span.End()

	kind := DetectKind(name, data)
	span.SetAttributes(
		attribute.String("document.kind", string(kind)),
		attribute.Int("document.bytes", len(data)),
	)
	if kind == types.DocumentKindUnknown {
		err := fmt.Errorf("%w: %s", ErrUnsupportedDocumentKind, name)
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}

	start := time.Now()
	var (
		pages []string
		err   error
	)
	switch kind {
	case types.DocumentKindPDF:
		pages, err = l.loadPDF(ctx, name, data)
	case types.DocumentKindDOCX:
		pages, err = loadDOCX(data)
	case types.DocumentKindTXT:
		pages = []string{string(bytes.TrimPrefix(data, []byte("\ufeff")))}
	}
	if err != nil {
		errType := tracing.ErrorTypeExtraction
		if errors.Is(err, context.DeadlineExceeded) {
			errType = tracing.ErrorTypeTimeout
		}
		tracing.RecordError(span, err, errType)
		l.logger.Error().Err(err).Str("source", name).Str("kind", string(kind)).Msg("文档解析失败")
		return nil, err
	}
	span.SetAttributes(attribute.Int("document.pages", len(pages)))

	l.logger.Debug().
		Str("source", name).
		Str("kind", string(kind)).
		Int("pages", len(pages)).
		Dur("elapsed", time.Since(start)).
		Msg("文档加载完成")
	return &types.Document{Source: name, Kind: kind, Pages: pages}, nil
}

func (l *DocumentLoader) loadPDF(ctx context.Context, name string, data []byte) ([]string, error) {
	if l.einoPDF == nil {
		return loadPDFLedongthuc(data)
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	docs, err := l.einoPDF.Parse(ctx, bytes.NewReader(data), einoParser.WithURI(name))
	if err != nil {
		return nil, fmt.Errorf("eino PDF parser failed for %s: %w", name, err)
	}

	pages := make([]string, 0, len(docs))
	hasText := false
	for _, d := range docs {
		pages = append(pages, d.Content)
		if strings.TrimSpace(d.Content) != "" {
			hasText = true
		}
	}
	if hasText {
		return pages, nil
	}

	// eino 未提取到文字时换用 ledongthuc 再试一次
	l.logger.Warn().Str("source", name).Int("pages", len(docs)).Msg("eino 未提取到文本，改用 ledongthuc/pdf")
	return loadPDFLedongthuc(data)
}

func loadPDFLedongthuc(data []byte) ([]string, error) {
	reader, err := lpdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to read pdf: %w", err)
	}

	n := reader.NumPage()
	pages := make([]string, 0, n)
	for i := 1; i <= n; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			pages = append(pages, "")
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to extract text from pdf page %d: %w", i, err)
		}
		pages = append(pages, text)
	}
	return pages, nil
}

// loadDOCX 整个 docx 作为一页返回，段落之间用换行分隔
func loadDOCX(data []byte) ([]string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	text, err := wordXMLToText(doc.Editable().GetContent())
	if err != nil {
		return nil, fmt.Errorf("failed to read docx body: %w", err)
	}
	return []string{text}, nil
}

// wordXMLToText 只保留 w:t 中的文字，w:p 结束处换行，w:tab 转为制表符
func wordXMLToText(body string) (string, error) {
	dec := xml.NewDecoder(strings.NewReader(body))
	var (
		sb     strings.Builder
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br", "cr":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
	return strings.TrimSuffix(sb.String(), "\n"), nil
}
