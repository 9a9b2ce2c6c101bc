package middleware_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zemedica/feereference/backend/internal/api/middleware"
)

// memoryCache is an in-process CacheProvider for middleware tests
type memoryCache struct {
	data map[string][]byte
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (c *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if v, ok := c.data[key]; ok {
		return v, nil
	}
	return nil, fmt.Errorf("key not found: %s", key)
}

func (c *memoryCache) Set(ctx context.Context, key string, value []byte, expirationSeconds int) error {
	c.data[key] = value
	return nil
}

func (c *memoryCache) SetMulti(ctx context.Context, items map[string][]byte, expirationSeconds int) error {
	for k, v := range items {
		c.data[k] = v
	}
	return nil
}

func (c *memoryCache) Delete(ctx context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func (c *memoryCache) DeletePattern(ctx context.Context, pattern string) error {
	c.data = make(map[string][]byte)
	return nil
}

func (c *memoryCache) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := c.data[key]
	return ok, nil
}

func TestCacheMiddlewareHitAndMiss(t *testing.T) {
	cache := newMemoryCache()
	m := middleware.NewCacheMiddleware(cache, nil, 86400)

	calls := 0
	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"procedure_codes":[]}`))
	}))

	// First request misses and populates the cache
	req := httptest.NewRequest("GET", "/api/procedure-codes?type=CPT", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "MISS", w.Header().Get("X-Cache"))
	assert.Equal(t, 1, calls)

	// Second identical request is served from cache
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/procedure-codes?type=CPT", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "HIT", w.Header().Get("X-Cache"))
	assert.Equal(t, `{"procedure_codes":[]}`, w.Body.String())
	assert.Equal(t, 1, calls, "handler must not run on a cache hit")
}

func TestCacheMiddlewareVariesOnQuery(t *testing.T) {
	cache := newMemoryCache()
	m := middleware.NewCacheMiddleware(cache, nil, 86400)

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(r.URL.RawQuery))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/procedure-codes?type=CPT", nil))
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/procedure-codes?type=ASA", nil))

	assert.Equal(t, "MISS", w.Header().Get("X-Cache"), "different query must be a distinct cache entry")
	assert.Equal(t, "type=ASA", w.Body.String())
}

func TestCacheMiddlewareSkipsWrites(t *testing.T) {
	cache := newMemoryCache()
	m := middleware.NewCacheMiddleware(cache, nil, 86400)

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/api/admin/procedure-codes", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Header().Get("X-Cache"))
	assert.Empty(t, cache.data)
}

func TestCacheMiddlewareDoesNotCacheErrors(t *testing.T) {
	cache := newMemoryCache()
	m := middleware.NewCacheMiddleware(cache, nil, 86400)

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"not found"}`))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/procedure-codes/00000", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Empty(t, cache.data, "error responses must not be cached")
}

func TestCacheMiddlewareIgnoresUnknownRoutes(t *testing.T) {
	cache := newMemoryCache()
	m := middleware.NewCacheMiddleware(cache, nil, 86400)

	handler := m.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	assert.Empty(t, w.Header().Get("X-Cache"))
	assert.Empty(t, cache.data)
}
