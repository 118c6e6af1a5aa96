package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ai-resume-matcher/internal/config"
	"ai-resume-matcher/internal/logger"
	"ai-resume-matcher/internal/tracing"
)

// DefaultMaxObjectBytes 单个对象的下载上限
const DefaultMaxObjectBytes int64 = 20 << 20

var (
	ErrObjectTooLarge   = errors.New("object exceeds size limit")
	ErrInvalidObjectKey = errors.New("invalid object key")
)

var minioTracer = otel.Tracer("ai-resume-matcher/storage/minio")

// ObjectStorage 按对象键读取已上传的简历或 JD 原始文件
type ObjectStorage interface {
	DownloadFile(ctx context.Context, objectKey string) ([]byte, error)
}

var _ ObjectStorage = (*MinIO)(nil)

// MinIO 只读访问单个存储桶
type MinIO struct {
	client   *minio.Client
	bucket   string
	maxBytes int64
	logger   zerolog.Logger
}

// NewMinIO 创建客户端并确认存储桶存在，不存在时创建
func NewMinIO(ctx context.Context, cfg *config.MinIOConfig) (*MinIO, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MinIO配置不能为空")
	}
	log := logger.Component("minio")
	log.Info().Str("endpoint", cfg.Endpoint).Str("bucket", cfg.Bucket).Msg("初始化MinIO客户端")

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("创建MinIO客户端失败: %w", err)
	}

	m := &MinIO{
		client:   client,
		bucket:   cfg.Bucket,
		maxBytes: DefaultMaxObjectBytes,
		logger:   log,
	}
	if err := m.ensureBucketExists(ctx, cfg.Location); err != nil {
		return nil, err
	}
	return m, nil
}

// WithMaxBytes 覆盖下载上限
func (m *MinIO) WithMaxBytes(n int64) *MinIO {
	if n > 0 {
		m.maxBytes = n
	}
	return m
}

func (m *MinIO) ensureBucketExists(ctx context.Context, location string) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return fmt.Errorf("检查存储桶 %s 是否存在时出错: %w", m.bucket, err)
	}
	if exists {
		return nil
	}
	m.logger.Info().Str("bucket", m.bucket).Msg("存储桶不存在，尝试创建")
	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{Region: location}); err != nil {
		return fmt.Errorf("创建存储桶 %s 失败: %w", m.bucket, err)
	}
	return nil
}

// DownloadFile 读取对象内容，超过大小上限时返回 ErrObjectTooLarge
func (m *MinIO) DownloadFile(ctx context.Context, objectKey string) ([]byte, error) {
	ctx, span := minioTracer.Start(ctx, "MinIO.DownloadFile", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("object_store.bucket", m.bucket),
		attribute.String("object_store.key", tracing.SafeAttributeValue("object_store.key", objectKey, 256)),
	)

	key, err := CleanObjectKey(objectKey)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}

	stat, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
		return nil, fmt.Errorf("获取对象 %s/%s 状态失败: %w", m.bucket, key, err)
	}
	span.SetAttributes(attribute.Int64("object_store.size", stat.Size))
	if stat.Size > m.maxBytes {
		err := fmt.Errorf("%w: %d > %d", ErrObjectTooLarge, stat.Size, m.maxBytes)
		tracing.RecordError(span, err, tracing.ErrorTypeValidation)
		return nil, err
	}

	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
		return nil, fmt.Errorf("获取对象 %s/%s 失败: %w", m.bucket, key, err)
	}
	defer obj.Close()

	data, err := ReadLimited(obj, m.maxBytes)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeObjectStore)
		return nil, fmt.Errorf("读取对象 %s/%s 数据失败: %w", m.bucket, key, err)
	}

	m.logger.Debug().Str("key", key).Int("bytes", len(data)).Msg("对象下载完成")
	return data, nil
}

// CleanObjectKey 去掉前导斜杠，拒绝空键和包含 .. 的路径
func CleanObjectKey(key string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidObjectKey)
	}
	for _, part := range strings.Split(key, "/") {
		if part == ".." {
			return "", fmt.Errorf("%w: %q", ErrInvalidObjectKey, key)
		}
	}
	return key, nil
}

// ReadLimited 最多读取 limit 字节，超出时返回 ErrObjectTooLarge
func ReadLimited(r io.Reader, limit int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(data)) > limit {
		return nil, ErrObjectTooLarge
	}
	return data, nil
}
