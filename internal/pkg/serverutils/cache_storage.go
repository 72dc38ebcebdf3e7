package serverutils

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/patrickmn/go-cache"
)

var _ fiber.Storage = (*CacheStorage)(nil)

// CacheStorage adapts an in-process go-cache to fiber.Storage so middleware
// state (limiter windows) lives next to the rest of the process state.
type CacheStorage struct {
	cache *cache.Cache
}

func NewCacheStorage(cleanupInterval time.Duration) *CacheStorage {
	return &CacheStorage{
		cache: cache.New(cache.NoExpiration, cleanupInterval),
	}
}

func (s *CacheStorage) Get(key string) ([]byte, error) {
	if len(key) == 0 {
		return nil, nil
	}
	if x, found := s.cache.Get(key); found {
		return x.([]byte), nil
	}
	return nil, nil
}

func (s *CacheStorage) Set(key string, val []byte, exp time.Duration) error {
	if len(key) == 0 || len(val) == 0 {
		return nil
	}
	// go-cache treats 0 as "default expiration"; fiber means "never"
	if exp <= 0 {
		exp = cache.NoExpiration
	}
	// fiber may reuse val after the call returns
	stored := make([]byte, len(val))
	copy(stored, val)
	s.cache.Set(key, stored, exp)
	return nil
}

func (s *CacheStorage) Delete(key string) error {
	s.cache.Delete(key)
	return nil
}

func (s *CacheStorage) Reset() error {
	s.cache.Flush()
	return nil
}

func (s *CacheStorage) Close() error {
	return nil
}
