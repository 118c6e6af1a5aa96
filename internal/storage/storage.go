package storage

import (
	"context"
	"fmt"

	"ai-resume-matcher/internal/config"
	"ai-resume-matcher/internal/logger"
)

// Storage 聚合可选的外部存储，未配置的组件为 nil
type Storage struct {
	// JD 文本缓存和向量缓存
	Redis *Redis

	// 按对象键读取上传文件
	MinIO *MinIO
}

// NewStorage 按配置初始化各组件，单个组件失败只记录警告
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	if cfg == nil {
		return nil, fmt.Errorf("配置不能为空")
	}
	log := logger.Component("storage")
	s := &Storage{}

	if cfg.Redis.Address != "" {
		r, err := NewRedisAdapter(&cfg.Redis)
		if err != nil {
			log.Warn().Err(err).Str("address", cfg.Redis.Address).Msg("初始化Redis失败，缓存降级")
		} else {
			s.Redis = r.WithVectorTTL(config.GetDuration(cfg.Embedding.CacheTTL, 0))
			log.Info().Str("address", cfg.Redis.Address).Msg("Redis初始化成功")
		}
	} else {
		log.Debug().Msg("Redis未配置, 跳过初始化")
	}

	if cfg.MinIO.Endpoint != "" {
		m, err := NewMinIO(ctx, &cfg.MinIO)
		if err != nil {
			log.Warn().Err(err).Str("endpoint", cfg.MinIO.Endpoint).Msg("初始化MinIO失败，对象键输入不可用")
		} else {
			s.MinIO = m.WithMaxBytes(int64(cfg.Server.MaxUploadMB) << 20)
		}
	}

	return s, nil
}

// Close 关闭所有连接
func (s *Storage) Close() {
	if s == nil {
		return
	}
	if s.Redis != nil {
		if err := s.Redis.Close(); err != nil {
			logger.Warn().Err(err).Msg("关闭Redis连接失败")
		}
	}
}
