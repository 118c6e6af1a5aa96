package agent

import (
	"context"
	"time"

	"github.com/sethvargo/go-retry"

	"ai-resume-matcher/internal/logger"
)

// RetryingClient 在调用方一层做有限次重试，attempts <= 1 时不重试
type RetryingClient struct {
	next     LLMClient
	attempts uint64
	base     time.Duration
}

var _ LLMClient = (*RetryingClient)(nil)

func NewRetryingClient(next LLMClient, attempts int, base time.Duration) *RetryingClient {
	if attempts < 1 {
		attempts = 1
	}
	if base <= 0 {
		base = 500 * time.Millisecond
	}
	return &RetryingClient{next: next, attempts: uint64(attempts), base: base}
}

func (r *RetryingClient) Complete(ctx context.Context, prompt string) (string, error) {
	if r.attempts == 1 {
		return r.next.Complete(ctx, prompt)
	}

	var out string
	attempt := 0
	backoff := retry.WithMaxRetries(r.attempts-1, retry.NewExponential(r.base))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		attempt++
		resp, err := r.next.Complete(ctx, prompt)
		if err != nil {
			logger.Ctx(ctx).Warn().Err(err).Int("attempt", attempt).Msg("模型调用失败，准备重试")
			return retry.RetryableError(err)
		}
		out = resp
		return nil
	})
	if err != nil {
		return "", err
	}
	return out, nil
}
