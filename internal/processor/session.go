package processor

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"ai-resume-matcher/internal/logger"
)

type sessionKey struct{}

// NewSessionID 生成按时间有序的会话 ID，失败时退回 V4
func NewSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.Must(uuid.NewV4()).String()
	}
	return id.String()
}

// WithSession 上下文中已有会话时沿用，否则新建。日志实例同时带上 session_id
func WithSession(ctx context.Context) (context.Context, string) {
	if id := sessionFrom(ctx); id != "" {
		return ctx, id
	}
	id := NewSessionID()
	ctx = context.WithValue(ctx, sessionKey{}, id)
	return logger.WithSession(ctx, id), id
}

func sessionFrom(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}
