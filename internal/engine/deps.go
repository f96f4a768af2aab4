package engine

import (
	"context"
	"io"
	"time"

	"github.com/reedko/truthtrollers-engine/internal/cache"
	"github.com/reedko/truthtrollers-engine/internal/fetch"
	"github.com/reedko/truthtrollers-engine/internal/llm"
	"github.com/reedko/truthtrollers-engine/internal/model"
	"github.com/reedko/truthtrollers-engine/internal/search"
)

// Deps bundles the capability ports the orchestrator depends on. The
// engine never talks to vendor SDKs directly, so a fully deterministic
// bundle (DevDeps) can exercise it without network access or API keys.
type Deps struct {
	// LLM is the JSON-generation capability. Nil disables both the query
	// refinement and evidence selection LLM paths.
	LLM llm.Client

	// WebSearch is the external search surface. Required; a stub or a
	// keyless client returning zero candidates is acceptable.
	WebSearch search.Searcher

	// InternalSearch is the optional internal-corpus surface. When set,
	// it is queried once per claim and its candidates are merged in
	// front of the web results.
	InternalSearch search.Searcher

	// Fetcher retrieves full text for evidence enrichment.
	Fetcher fetch.Fetcher

	// Storage is the optional idempotency cache and result sink. Nil
	// behaves like NopStorage.
	Storage Storage

	// Log receives degradation warnings; defaults to os.Stderr.
	Log io.Writer
}

// Storage is the engine's persistence port. A no-op implementation is
// valid: neither the cache nor the sink is required for correctness.
type Storage interface {
	CacheGet(key string) ([]byte, bool)
	CacheSet(key string, value []byte, ttl time.Duration) error
	PersistResults(ctx context.Context, result *model.MapResult) error
}

// NopStorage caches nothing and persists nothing.
type NopStorage struct{}

func (NopStorage) CacheGet(key string) ([]byte, bool) {
	return nil, false
}

func (NopStorage) CacheSet(key string, value []byte, ttl time.Duration) error {
	return nil
}

func (NopStorage) PersistResults(ctx context.Context, result *model.MapResult) error {
	return nil
}

// CacheStorage adapts a cache.Cache into the engine's storage port, with
// an optional result sink.
type CacheStorage struct {
	cache cache.Cache
	ttl   time.Duration

	// Sink receives finished results; nil means results are not persisted.
	Sink func(ctx context.Context, result *model.MapResult) error
}

// NewCacheStorage wraps a cache with the given default TTL.
func NewCacheStorage(c cache.Cache, ttl time.Duration) *CacheStorage {
	return &CacheStorage{cache: c, ttl: ttl}
}

func (s *CacheStorage) CacheGet(key string) ([]byte, bool) {
	return s.cache.Get(key)
}

func (s *CacheStorage) CacheSet(key string, value []byte, ttl time.Duration) error {
	if ttl == 0 {
		ttl = s.ttl
	}
	return s.cache.Set(key, value, ttl)
}

func (s *CacheStorage) PersistResults(ctx context.Context, result *model.MapResult) error {
	if s.Sink == nil {
		return nil
	}
	return s.Sink(ctx, result)
}
