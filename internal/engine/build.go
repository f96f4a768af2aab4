package engine

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/reedko/truthtrollers-engine/internal/cache"
	"github.com/reedko/truthtrollers-engine/internal/fetch"
	"github.com/reedko/truthtrollers-engine/internal/llm"
	"github.com/reedko/truthtrollers-engine/internal/model"
	"github.com/reedko/truthtrollers-engine/internal/search"
)

// FromConfig assembles an engine with real adapters from the full
// configuration. A misconfigured LLM degrades to the heuristic paths
// with a warning; an unknown search provider is a hard error because
// the pipeline has nothing to fan out to.
func FromConfig(cfg *model.Config) (*Engine, error) {
	var llmClient llm.Client
	if cfg.LLM.Provider != "" {
		client, err := llm.NewClient(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to initialize LLM provider: %v\n", err)
		} else {
			llmClient = client
		}
	}

	searcher, err := newSearcher(cfg.Search)
	if err != nil {
		return nil, err
	}

	fetcher := fetch.NewHTTPFetcher(fetch.Options{
		Timeout:       cfg.HTTP.Timeout,
		UserAgent:     cfg.HTTP.UserAgent,
		MaxBodyBytes:  cfg.HTTP.MaxBodyBytes,
		RespectRobots: cfg.HTTP.RespectRobots,
		HTTPProxy:     cfg.HTTP.HTTPProxy,
		HTTPSProxy:    cfg.HTTP.HTTPSProxy,
		NoProxy:       cfg.HTTP.NoProxy,
	})

	var storage Storage = NopStorage{}
	if cfg.Cache.Enabled {
		storage = NewCacheStorage(newCache(cfg.Cache), cfg.Cache.MemoryTTL)
	}

	return New(cfg.Engine, Deps{
		LLM:       llmClient,
		WebSearch: searcher,
		Fetcher:   fetcher,
		Storage:   storage,
	}), nil
}

// newSearcher builds the web search backend. A keyless Tavily client is
// valid and answers every query with zero candidates.
func newSearcher(cfg model.SearchConfig) (search.Searcher, error) {
	switch cfg.Provider {
	case "tavily", "":
		return search.NewTavilyClient(search.TavilyConfig{
			APIKey:            cfg.APIKey,
			BaseURL:           cfg.BaseURL,
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
			Burst:             cfg.Burst,
		}), nil
	case "dev":
		return &DevSearcher{}, nil
	default:
		return nil, fmt.Errorf("unknown search provider: %s (supported: tavily, dev)", cfg.Provider)
	}
}

// newCache picks layered memory+disk when a directory is configured,
// memory-only otherwise.
func newCache(cfg model.CacheConfig) cache.Cache {
	dir := cfg.Dir
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".ttengine", "cache")
		}
	}
	if dir == "" {
		return cache.NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	}
	return cache.NewLayeredCache(cfg.MemoryTTL, dir, cfg.DiskTTL)
}
