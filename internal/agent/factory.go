package agent

import (
	"context"
	"fmt"
	"time"

	"ai-resume-matcher/internal/config"
	"ai-resume-matcher/internal/logger"
)

// DefaultMockResponse provider=mock 且未配置 mock_response 时使用
const DefaultMockResponse = `Matching Score: 50/100
Summary: Offline mock analysis. No language model was called.
Suggested Edits:
- Configure llm.provider to get a real analysis`

// NewLLMClient 按配置创建模型并套上重试
func NewLLMClient(ctx context.Context, cfg config.LLMConfig) (LLMClient, error) {
	timeout := config.GetDuration(cfg.Timeout, 60*time.Second)

	var client *ChatModelClient
	switch cfg.Provider {
	case "mock":
		resp := cfg.MockResponse
		if resp == "" {
			resp = DefaultMockResponse
		}
		client = NewChatModelClient(NewMockChatModel(resp, nil), "mock")
	case "gemini":
		m, err := NewGeminiChatModel(ctx, cfg.APIKey, cfg.Model, cfg.Temperature, cfg.MaxTokens)
		if err != nil {
			return nil, err
		}
		client = NewChatModelClient(m, m.model)
	case "openai", "":
		m, err := NewOpenAIChatModel(OpenAIChatConfig{
			APIKey:      cfg.APIKey,
			BaseURL:     cfg.BaseURL,
			Model:       cfg.Model,
			Temperature: cfg.Temperature,
			MaxTokens:   cfg.MaxTokens,
			Timeout:     timeout,
		})
		if err != nil {
			return nil, err
		}
		client = NewChatModelClient(m, m.model)
	default:
		return nil, fmt.Errorf("不支持的 LLM provider: %s", cfg.Provider)
	}

	logger.Info().Str("provider", cfg.Provider).Str("model", client.name).Int("max_attempts", cfg.MaxAttempts).Msg("LLM 客户端已创建")
	return NewRetryingClient(client, cfg.MaxAttempts, config.GetDuration(cfg.RetryBackoff, 500*time.Millisecond)), nil
}
