package agent

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	openai "github.com/sashabaranov/go-openai"

	"ai-resume-matcher/internal/constants"
)

// ErrStreamUnsupported 适配层只支持一次性生成
var ErrStreamUnsupported = errors.New("streaming is not supported")

// OpenAIChatConfig OpenAI 兼容接口配置，默认指向 Groq
type OpenAIChatConfig struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
	HTTPClient  *http.Client
}

// OpenAIChatModel 基于 go-openai 实现 eino model.BaseChatModel
type OpenAIChatModel struct {
	client      *openai.Client
	model       string
	temperature float32
	maxTokens   int
}

var _ model.BaseChatModel = (*OpenAIChatModel)(nil)

func NewOpenAIChatModel(cfg OpenAIChatConfig) (*OpenAIChatModel, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("API 密钥不能为空")
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = cfg.BaseURL
	if clientCfg.BaseURL == "" {
		clientCfg.BaseURL = constants.DefaultLLMBaseURL
	}
	switch {
	case cfg.HTTPClient != nil:
		clientCfg.HTTPClient = cfg.HTTPClient
	case cfg.Timeout > 0:
		clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}
	}

	modelName := cfg.Model
	if modelName == "" {
		modelName = constants.DefaultLLMModel
	}

	return &OpenAIChatModel{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       modelName,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

func (m *OpenAIChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := model.GetCommonOptions(&model.Options{
		Model:       &m.model,
		Temperature: &m.temperature,
		MaxTokens:   &m.maxTokens,
	}, opts...)

	req := openai.ChatCompletionRequest{
		Model:       *options.Model,
		Messages:    toOpenAIMessages(input),
		Temperature: openAITemperature(*options.Temperature),
		MaxTokens:   *options.MaxTokens,
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyCompletion
	}

	out := schema.AssistantMessage(resp.Choices[0].Message.Content, nil)
	out.ResponseMeta = &schema.ResponseMeta{
		FinishReason: string(resp.Choices[0].FinishReason),
		Usage: &schema.TokenUsage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	return out, nil
}

func (m *OpenAIChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, ErrStreamUnsupported
}

// openAITemperature go-openai 会省略零值温度，0 需要换成最小正数才能真正发送
func openAITemperature(t float32) float32 {
	if t == 0 {
		return math.SmallestNonzeroFloat32
	}
	return t
}

func toOpenAIMessages(input []*schema.Message) []openai.ChatCompletionMessage {
	msgs := make([]openai.ChatCompletionMessage, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}
		role := openai.ChatMessageRoleUser
		switch msg.Role {
		case schema.System:
			role = openai.ChatMessageRoleSystem
		case schema.Assistant:
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: msg.Content})
	}
	return msgs
}
