package processor

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"ai-resume-matcher/internal/storage"
)

// Source 一份输入的几种来源，按 文件 > 文本 > 对象键 > URL 的顺序取第一个非空值
type Source struct {
	FileName  string
	Data      []byte
	Text      string
	ObjectKey string
	URL       string
}

// IsEmpty 没有任何来源
func (s Source) IsEmpty() bool {
	return len(s.Data) == 0 && strings.TrimSpace(s.Text) == "" && s.ObjectKey == "" && s.URL == ""
}

// InputResolver 把各类输入统一转换为纯文本
type InputResolver struct {
	loader    DocumentLoader
	extractor TextExtractor
	fetcher   JDFetcher
	objects   storage.ObjectStorage
}

func NewInputResolver(loader DocumentLoader, extractor TextExtractor, fetcher JDFetcher, objects storage.ObjectStorage) *InputResolver {
	return &InputResolver{loader: loader, extractor: extractor, fetcher: fetcher, objects: objects}
}

// Resolve 返回来源对应的文本。allowURL 为 false 时忽略 URL（简历不支持 URL 输入）
func (r *InputResolver) Resolve(ctx context.Context, src Source, allowURL bool) (string, error) {
	switch {
	case len(src.Data) > 0:
		return r.FromFile(ctx, src.FileName, src.Data)
	case strings.TrimSpace(src.Text) != "":
		return src.Text, nil
	case src.ObjectKey != "":
		return r.FromObject(ctx, src.ObjectKey)
	case allowURL && src.URL != "":
		return r.FromURL(ctx, src.URL)
	}
	return "", fmt.Errorf("%w: no input provided", ErrInvalidRequest)
}

// FromFile 加载文档并提取文本
func (r *InputResolver) FromFile(ctx context.Context, name string, data []byte) (string, error) {
	if r.loader == nil {
		return "", errors.New("document loader is not configured")
	}
	doc, err := r.loader.Load(ctx, name, data)
	if err != nil {
		return "", err
	}
	return r.extractor.Extract(doc), nil
}

// FromObject 从对象存储下载后按文件处理，文件名取对象键的最后一段
func (r *InputResolver) FromObject(ctx context.Context, key string) (string, error) {
	if r.objects == nil {
		return "", ErrObjectStoreDisabled
	}
	data, err := r.objects.DownloadFile(ctx, key)
	if err != nil {
		return "", err
	}
	return r.FromFile(ctx, path.Base(key), data)
}

func (r *InputResolver) FromURL(ctx context.Context, url string) (string, error) {
	if r.fetcher == nil {
		return "", fmt.Errorf("%w: fetcher is not configured", ErrJDFetchFailed)
	}
	return r.fetcher.Fetch(ctx, url)
}
