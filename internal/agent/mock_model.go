package agent

import (
	"context"
	"errors"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"ai-resume-matcher/internal/logger"
)

// ErrMockExhausted 顺序响应已用完
var ErrMockExhausted = errors.New("mock model has run out of sequential responses")

// MockResponse MockChatModel 的单次响应
type MockResponse struct {
	Content string
	Error   error
}

// MockChatModel 用于测试和 provider=mock 的离线运行
type MockChatModel struct {
	mu sync.Mutex

	ExpectedResponse string
	ExpectedError    error

	SequentialResponses []MockResponse
	ResponseIndex       int
	IsSequential        bool

	ReceivedMessages []*schema.Message
}

var _ model.BaseChatModel = (*MockChatModel)(nil)

// NewMockChatModel 每次都返回同一响应
func NewMockChatModel(expectedResponse string, expectedError error) *MockChatModel {
	return &MockChatModel{
		ExpectedResponse: expectedResponse,
		ExpectedError:    expectedError,
	}
}

// NewMockChatModelSequential 按顺序返回不同响应，用完后返回 ErrMockExhausted
func NewMockChatModelSequential(responses []MockResponse) *MockChatModel {
	return &MockChatModel{
		SequentialResponses: responses,
		IsSequential:        true,
	}
}

func (m *MockChatModel) Generate(_ context.Context, input []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.ReceivedMessages = append(m.ReceivedMessages, input...)
	logger.Debug().Int("messages", len(input)).Msg("[MockChatModel] 收到 Generate 请求")

	if m.IsSequential {
		if m.ResponseIndex >= len(m.SequentialResponses) {
			return nil, ErrMockExhausted
		}
		resp := m.SequentialResponses[m.ResponseIndex]
		m.ResponseIndex++
		if resp.Error != nil {
			return nil, resp.Error
		}
		return schema.AssistantMessage(resp.Content, nil), nil
	}

	if m.ExpectedError != nil {
		return nil, m.ExpectedError
	}
	return schema.AssistantMessage(m.ExpectedResponse, nil), nil
}

func (m *MockChatModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, ErrStreamUnsupported
}

// Calls 已收到的 Generate 调用次数（单轮调用时每次一条消息）
func (m *MockChatModel) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ReceivedMessages)
}

// LastPrompt 最近一次收到的消息内容
func (m *MockChatModel) LastPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.ReceivedMessages) == 0 {
		return ""
	}
	return m.ReceivedMessages[len(m.ReceivedMessages)-1].Content
}
