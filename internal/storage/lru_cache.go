package storage

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
)

// LRUVectorCache 进程内向量缓存，容量满后淘汰最久未使用的条目
type LRUVectorCache struct {
	cache *lru.Cache[string, []float64]
}

// NewLRUVectorCache size <= 0 时使用 1024
func NewLRUVectorCache(size int) (*LRUVectorCache, error) {
	if size <= 0 {
		size = 1024
	}
	c, err := lru.New[string, []float64](size)
	if err != nil {
		return nil, err
	}
	return &LRUVectorCache{cache: c}, nil
}

func (c *LRUVectorCache) GetVector(_ context.Context, key string) ([]float64, bool) {
	return c.cache.Get(key)
}

func (c *LRUVectorCache) SetVector(_ context.Context, key string, vec []float64) {
	c.cache.Add(key, vec)
}

func (c *LRUVectorCache) Len() int {
	return c.cache.Len()
}
