package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"ai-resume-matcher/internal/config"
	"ai-resume-matcher/internal/constants"
	"ai-resume-matcher/internal/logger"
	"ai-resume-matcher/internal/tracing"
)

// ErrNotFound 键不存在
var ErrNotFound = redis.Nil

var redisTracer = otel.Tracer("ai-resume-matcher/storage/redis")

// Redis 封装 go-redis 客户端，提供向量缓存和 JD 文本缓存
type Redis struct {
	Client    *redis.Client
	vectorTTL time.Duration
}

// NewRedisAdapter 按配置创建客户端并挂载 OpenTelemetry 钩子，创建后立即 Ping
func NewRedisAdapter(cfg *config.RedisConfig) (*Redis, error) {
	if cfg == nil {
		return nil, errors.New("redis config cannot be nil")
	}
	if cfg.Address == "" {
		return nil, errors.New("redis address is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  time.Duration(cfg.DialTimeoutSeconds) * time.Second,
		ReadTimeout:  time.Duration(cfg.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeoutSeconds) * time.Second,
		MaxRetries:   cfg.MaxRetries,
	})

	if err := redisotel.InstrumentTracing(client); err != nil {
		return nil, fmt.Errorf("failed to instrument Redis with OpenTelemetry: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Address, err)
	}

	return NewRedisFromClient(client), nil
}

// NewRedisFromClient 使用已有客户端（测试中为 miniredis）
func NewRedisFromClient(client *redis.Client) *Redis {
	return &Redis{Client: client, vectorTTL: constants.EmbeddingCacheDuration}
}

// WithVectorTTL 设置向量缓存时长
func (r *Redis) WithVectorTTL(ttl time.Duration) *Redis {
	if ttl > 0 {
		r.vectorTTL = ttl
	}
	return r
}

func (r *Redis) Close() error {
	if r.Client != nil {
		return r.Client.Close()
	}
	return nil
}

func (r *Redis) Ping(ctx context.Context) error {
	if r.Client == nil {
		return errors.New("redis client is not initialized")
	}
	return r.Client.Ping(ctx).Err()
}

// Get 读取字符串值，键不存在时返回 ErrNotFound
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	ctx, span := redisTracer.Start(ctx, "Redis.Get", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "redis"),
		attribute.String("db.redis.key", tracing.SafeRedisKey(key)),
	)

	val, err := r.Client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			span.SetAttributes(attribute.Bool("db.redis.key_exists", false))
			return "", ErrNotFound
		}
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return "", err
	}
	span.SetAttributes(attribute.Int("db.redis.value_length", len(val)))
	return val, nil
}

// Set 写入字符串值
func (r *Redis) Set(ctx context.Context, key, value string, expiration time.Duration) error {
	ctx, span := redisTracer.Start(ctx, "Redis.Set", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("db.system", "redis"),
		attribute.String("db.redis.key", tracing.SafeRedisKey(key)),
		attribute.Int("db.redis.value_length", len(value)),
	)

	if err := r.Client.Set(ctx, key, value, expiration).Err(); err != nil {
		tracing.RecordError(span, err, tracing.ErrorTypeRedis)
		return err
	}
	return nil
}

// GetText 实现 parser.TextCache，任何错误都按未命中处理
func (r *Redis) GetText(ctx context.Context, key string) (string, bool) {
	val, err := r.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			logger.Warn().Err(err).Str("key", tracing.SafeRedisKey(key)).Msg("读取文本缓存失败")
		}
		return "", false
	}
	return val, true
}

// SetText 实现 parser.TextCache
func (r *Redis) SetText(ctx context.Context, key, text string, ttl time.Duration) {
	if err := r.Set(ctx, key, text, ttl); err != nil {
		logger.Warn().Err(err).Str("key", tracing.SafeRedisKey(key)).Msg("写入文本缓存失败")
	}
}

// vectorKey key 形如 {model}:{sha256}，由 parser.CacheKey 生成
func vectorKey(key string) string {
	model, digest := key, ""
	for i := len(key) - 1; i >= 0; i-- {
		if key[i] == ':' {
			model, digest = key[:i], key[i+1:]
			break
		}
	}
	return fmt.Sprintf(constants.KeyEmbeddingVector, model, digest)
}

// SetVector 以 HASH 保存向量（JSON）和维度，实现 parser.VectorCache
func (r *Redis) SetVector(ctx context.Context, key string, vec []float64) {
	data, err := json.Marshal(vec)
	if err != nil {
		logger.Warn().Err(err).Msg("序列化向量失败")
		return
	}

	redisKey := vectorKey(key)
	pipe := r.Client.Pipeline()
	pipe.HSet(ctx, redisKey, "vector", data, "dim", len(vec))
	pipe.Expire(ctx, redisKey, r.vectorTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		logger.Warn().Err(err).Str("key", tracing.SafeRedisKey(redisKey)).Msg("写入向量缓存失败")
	}
}

// GetVector 实现 parser.VectorCache，维度不一致的脏数据按未命中处理
func (r *Redis) GetVector(ctx context.Context, key string) ([]float64, bool) {
	redisKey := vectorKey(key)
	vals, err := r.Client.HMGet(ctx, redisKey, "vector", "dim").Result()
	if err != nil {
		logger.Warn().Err(err).Str("key", tracing.SafeRedisKey(redisKey)).Msg("读取向量缓存失败")
		return nil, false
	}
	if len(vals) != 2 || vals[0] == nil || vals[1] == nil {
		return nil, false
	}

	raw, ok := vals[0].(string)
	if !ok {
		return nil, false
	}
	var vec []float64
	if err := json.Unmarshal([]byte(raw), &vec); err != nil {
		return nil, false
	}
	if dimStr, ok := vals[1].(string); !ok || dimStr != fmt.Sprint(len(vec)) || len(vec) == 0 {
		return nil, false
	}
	return vec, true
}
