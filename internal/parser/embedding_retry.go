package parser

import (
	"context"
	"time"

	"github.com/cloudwego/eino/components/embedding"
	"github.com/sethvargo/go-retry"

	"ai-resume-matcher/internal/logger"
)

// RetryingEmbedder 对底层向量服务做有限次重试，attempts <= 1 时不重试
type RetryingEmbedder struct {
	next     embedding.Embedder
	attempts uint64
	base     time.Duration
}

func NewRetryingEmbedder(next embedding.Embedder, attempts int, base time.Duration) *RetryingEmbedder {
	if attempts < 1 {
		attempts = 1
	}
	if base <= 0 {
		base = 200 * time.Millisecond
	}
	return &RetryingEmbedder{next: next, attempts: uint64(attempts), base: base}
}

func (r *RetryingEmbedder) GetDimensions() int {
	if d, ok := r.next.(DimensionReporter); ok {
		return d.GetDimensions()
	}
	return 0
}

func (r *RetryingEmbedder) EmbedStrings(ctx context.Context, texts []string, opts ...embedding.Option) ([][]float64, error) {
	var out [][]float64
	backoff := retry.WithMaxRetries(r.attempts-1, retry.NewExponential(r.base))

	attempt := 0
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		vectors, err := r.next.EmbedStrings(ctx, texts, opts...)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			logger.Warn().Err(err).Int("attempt", attempt).Msg("向量服务调用失败，准备重试")
			return retry.RetryableError(err)
		}
		out = vectors
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
