// Package agent 封装大模型调用：eino ChatModel 实现、重试和统一的 LLMClient 接口
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"ai-resume-matcher/internal/logger"
	"ai-resume-matcher/internal/tracing"
)

// ErrEmptyCompletion 模型返回了空消息
var ErrEmptyCompletion = errors.New("llm returned empty message")

var llmTracer = otel.Tracer("ai-resume-matcher/agent")

// LLMClient 提示词进，回复文本出
type LLMClient interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// ChatModelClient 把任意 eino ChatModel 适配为 LLMClient，单轮 user 消息
type ChatModelClient struct {
	model     model.BaseChatModel
	name      string
	modelOpts []model.Option
}

var _ LLMClient = (*ChatModelClient)(nil)

// NewChatModelClient name 仅用于日志和 span
func NewChatModelClient(m model.BaseChatModel, name string, opts ...model.Option) *ChatModelClient {
	return &ChatModelClient{model: m, name: name, modelOpts: opts}
}

func (c *ChatModelClient) Complete(ctx context.Context, prompt string) (string, error) {
	ctx, span := llmTracer.Start(ctx, "LLM.Complete")
	defer span.End()
	span.SetAttributes(
		attribute.String("llm.model", c.name),
		attribute.Int("llm.prompt_length", len(prompt)),
		attribute.String("llm.prompt", tracing.SafePrompt(prompt)),
	)

	msg, err := c.model.Generate(ctx, []*schema.Message{schema.UserMessage(prompt)}, c.modelOpts...)
	if err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeLLM)
		return "", fmt.Errorf("调用模型 %s 失败: %w", c.name, err)
	}
	if msg == nil {
		tracing.RecordError(span, ErrEmptyCompletion, tracing.ErrorTypeLLM)
		return "", ErrEmptyCompletion
	}

	content := strings.TrimPrefix(msg.Content, "\ufeff")
	span.SetAttributes(attribute.Int("llm.response_length", len(content)))
	logger.Ctx(ctx).Debug().Str("model", c.name).Int("response_length", len(content)).Msg("模型调用完成")
	return content, nil
}
