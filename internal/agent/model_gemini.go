package agent

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"google.golang.org/genai"
)

const defaultGeminiChatModel = "gemini-2.5-flash"

// GeminiChatModel 基于 genai SDK 实现 eino model.BaseChatModel
type GeminiChatModel struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int
}

var _ model.BaseChatModel = (*GeminiChatModel)(nil)

func NewGeminiChatModel(ctx context.Context, apiKey, modelName string, temperature float32, maxTokens int) (*GeminiChatModel, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API 密钥不能为空")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 Gemini 客户端失败: %w", err)
	}
	if modelName == "" {
		modelName = defaultGeminiChatModel
	}
	return &GeminiChatModel{client: client, model: modelName, temperature: temperature, maxTokens: maxTokens}, nil
}

func (g *GeminiChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	options := model.GetCommonOptions(&model.Options{
		Model:       &g.model,
		Temperature: &g.temperature,
		MaxTokens:   &g.maxTokens,
	}, opts...)

	cfg := &genai.GenerateContentConfig{Temperature: genai.Ptr(*options.Temperature)}
	if *options.MaxTokens > 0 {
		cfg.MaxOutputTokens = int32(*options.MaxTokens)
	}

	var contents []*genai.Content
	for _, msg := range input {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.System:
			cfg.SystemInstruction = genai.NewContentFromText(msg.Content, genai.RoleUser)
		case schema.Assistant:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleModel))
		default:
			contents = append(contents, genai.NewContentFromText(msg.Content, genai.RoleUser))
		}
	}

	result, err := g.client.Models.GenerateContent(ctx, *options.Model, contents, cfg)
	if err != nil {
		return nil, err
	}
	return schema.AssistantMessage(result.Text(), nil), nil
}

func (g *GeminiChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, ErrStreamUnsupported
}
