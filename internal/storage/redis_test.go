package storage

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-resume-matcher/internal/config"
	"ai-resume-matcher/internal/constants"
)

func setupTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisFromClient(client), mr
}

func TestRedis_GetSet(t *testing.T) {
	r, _ := setupTestRedis(t)
	ctx := context.Background()

	_, err := r.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, r.Set(ctx, "k", "v", time.Minute))
	got, err := r.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", got)
	assert.NoError(t, r.Ping(ctx))
}

func TestRedis_TextCacheExpires(t *testing.T) {
	r, mr := setupTestRedis(t)
	ctx := context.Background()
	key := fmt.Sprintf(constants.KeyJobDescriptionText, "abcd")

	_, ok := r.GetText(ctx, key)
	assert.False(t, ok)

	r.SetText(ctx, key, "Go 后端工程师", time.Hour)
	got, ok := r.GetText(ctx, key)
	require.True(t, ok)
	assert.Equal(t, "Go 后端工程师", got)

	mr.FastForward(2 * time.Hour)
	_, ok = r.GetText(ctx, key)
	assert.False(t, ok)
}

func TestRedis_VectorCacheRoundTrip(t *testing.T) {
	r, mr := setupTestRedis(t)
	ctx := context.Background()
	key := "hash-384:deadbeef"

	_, ok := r.GetVector(ctx, key)
	assert.False(t, ok)

	vec := []float64{0.25, -0.5, 1}
	r.SetVector(ctx, key, vec)

	redisKey := fmt.Sprintf(constants.KeyEmbeddingVector, "hash-384", "deadbeef")
	assert.True(t, mr.Exists(redisKey))
	assert.Equal(t, "3", mr.HGet(redisKey, "dim"))
	assert.Greater(t, mr.TTL(redisKey), time.Duration(0))

	got, ok := r.GetVector(ctx, key)
	require.True(t, ok)
	assert.Equal(t, vec, got)
}

func TestRedis_VectorCacheRejectsCorruptEntry(t *testing.T) {
	r, mr := setupTestRedis(t)
	ctx := context.Background()
	redisKey := fmt.Sprintf(constants.KeyEmbeddingVector, "m", "x")

	mr.HSet(redisKey, "vector", "[1,2]", "dim", "3")
	_, ok := r.GetVector(ctx, "m:x")
	assert.False(t, ok, "维度不一致应视为未命中")

	mr.HSet(redisKey, "vector", "not-json", "dim", "2")
	_, ok = r.GetVector(ctx, "m:x")
	assert.False(t, ok)
}

func TestRedis_WithVectorTTL(t *testing.T) {
	r, mr := setupTestRedis(t)
	r.WithVectorTTL(time.Minute)
	r.SetVector(context.Background(), "m:y", []float64{1})

	ttl := mr.TTL(fmt.Sprintf(constants.KeyEmbeddingVector, "m", "y"))
	assert.LessOrEqual(t, ttl, time.Minute)
}

func TestVectorKey(t *testing.T) {
	assert.Equal(t, fmt.Sprintf(constants.KeyEmbeddingVector, "openai:text-3", "abc"), vectorKey("openai:text-3:abc"))
	assert.Equal(t, fmt.Sprintf(constants.KeyEmbeddingVector, "plain", ""), vectorKey("plain"))
}

func TestNewRedisAdapter(t *testing.T) {
	_, err := NewRedisAdapter(nil)
	assert.Error(t, err)

	_, err = NewRedisAdapter(&config.RedisConfig{})
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	r, err := NewRedisAdapter(&config.RedisConfig{Address: mr.Addr(), PoolSize: 2})
	require.NoError(t, err)
	defer r.Close()
	assert.NoError(t, r.Ping(context.Background()))
}
