package parser

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/net/html"

	"ai-resume-matcher/internal/constants"
	"ai-resume-matcher/internal/logger"
	"ai-resume-matcher/internal/tracing"
)

var tracer = otel.Tracer("ai-resume-matcher/parser")

// TextCache JD 文本缓存，故障时静默降级
type TextCache interface {
	GetText(ctx context.Context, key string) (string, bool)
	SetText(ctx context.Context, key, text string, ttl time.Duration)
}

// JDFetcher 从 URL 抓取岗位描述文本
type JDFetcher struct {
	client    *resty.Client
	maxChars  int
	stripHTML bool
	cache     TextCache
	cacheTTL  time.Duration
	logger    zerolog.Logger
}

// JDFetcherOption 抓取器配置项
type JDFetcherOption func(*JDFetcher)

func WithFetchTimeout(d time.Duration) JDFetcherOption {
	return func(f *JDFetcher) {
		if d > 0 {
			f.client.SetTimeout(d)
		}
	}
}

// WithMaxChars 保留的最大字符数，<= 0 表示不截断
func WithMaxChars(n int) JDFetcherOption {
	return func(f *JDFetcher) { f.maxChars = n }
}

// WithStripHTML 是否把 HTML 页面转换为可见文本
func WithStripHTML(strip bool) JDFetcherOption {
	return func(f *JDFetcher) { f.stripHTML = strip }
}

func WithTextCache(cache TextCache, ttl time.Duration) JDFetcherOption {
	return func(f *JDFetcher) {
		f.cache = cache
		f.cacheTTL = ttl
	}
}

// NewJDFetcher 默认 10 秒超时、保留前 5000 个字符
func NewJDFetcher(opts ...JDFetcherOption) *JDFetcher {
	f := &JDFetcher{
		client: resty.New().
			SetTimeout(constants.JDFetchTimeout).
			SetHeader("User-Agent", "ai-resume-matcher/1.0").
			SetRedirectPolicy(resty.FlexibleRedirectPolicy(5)),
		maxChars:  constants.JDMaxChars,
		stripHTML: true,
		cacheTTL:  constants.JDCacheDuration,
		logger:    logger.Component("jd_fetcher"),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch 只接受 200 响应
func (f *JDFetcher) Fetch(ctx context.Context, url string) (string, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return "", fmt.Errorf("%w: empty url", ErrJDFetchFailed)
	}

	key := f.cacheKey(url)
	if f.cache != nil {
		if text, ok := f.cache.GetText(ctx, key); ok {
			f.logger.Debug().Str("url", url).Msg("JD 文本命中缓存")
			return text, nil
		}
	}

	ctx, span := tracer.Start(ctx, "JDFetcher.Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("http.url", tracing.SafeAttributeValue("http.url", url, tracing.DefaultMaxLength)))

	resp, err := f.client.R().SetContext(ctx).Get(url)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeHTTP)
		f.logger.Warn().Err(err).Str("url", url).Msg("抓取 JD 失败")
		return "", fmt.Errorf("%w: %w", ErrJDFetchFailed, err)
	}
	if resp.StatusCode() != http.StatusOK {
		err := fmt.Errorf("%w: status code %d", ErrJDFetchFailed, resp.StatusCode())
		tracing.RecordHTTPError(span, err, resp.StatusCode())
		f.logger.Warn().Int("status", resp.StatusCode()).Str("url", url).Msg("抓取 JD 返回非 200")
		return "", err
	}

	text := resp.String()
	if f.stripHTML && strings.Contains(strings.ToLower(resp.Header().Get("Content-Type")), "html") {
		text = HTMLToText(text)
	}
	text = TruncateRunes(text, f.maxChars)
	span.SetAttributes(attribute.Int("jd.chars", len([]rune(text))))

	if f.cache != nil {
		f.cache.SetText(ctx, key, text, f.cacheTTL)
	}
	f.logger.Info().Str("url", url).Int("chars", len([]rune(text))).Msg("JD 抓取完成")
	return text, nil
}

// TruncateRunes 按字符截断，max <= 0 时原样返回
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}

// HTMLToText 提取可见文本，跳过 script/style/noscript，块级元素之间换行
func HTMLToText(doc string) string {
	z := html.NewTokenizer(strings.NewReader(doc))
	var (
		lines   []string
		current strings.Builder
		skip    int
	)
	flush := func() {
		if line := strings.Join(strings.Fields(current.String()), " "); line != "" {
			lines = append(lines, line)
		}
		current.Reset()
	}

	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			flush()
			return strings.Join(lines, "\n")
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if tag == "script" || tag == "style" || tag == "noscript" {
				if tt == html.StartTagToken {
					skip++
				} else if tt == html.EndTagToken && skip > 0 {
					skip--
				}
				continue
			}
			if isBlockTag(tag) {
				flush()
			}
		case html.TextToken:
			if skip == 0 {
				current.Write(z.Text())
				current.WriteByte(' ')
			}
		}
	}
}

func isBlockTag(tag string) bool {
	switch tag {
	case "p", "div", "br", "li", "ul", "ol", "h1", "h2", "h3", "h4", "h5", "h6",
		"section", "article", "header", "footer", "tr", "table", "title":
		return true
	}
	return false
}

// cacheKey 截断长度和是否去除 HTML 会改变结果，一并计入键
func (f *JDFetcher) cacheKey(url string) string {
	return fmt.Sprintf(constants.KeyJobDescriptionText, urlDigest(fmt.Sprintf("%s|%d|%t", url, f.maxChars, f.stripHTML)))
}

func urlDigest(url string) string {
	sum := sha256.Sum256([]byte(url))
	return hex.EncodeToString(sum[:8])
}
