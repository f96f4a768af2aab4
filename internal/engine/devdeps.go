package engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/reedko/truthtrollers-engine/internal/cache"
	"github.com/reedko/truthtrollers-engine/internal/fetch"
	"github.com/reedko/truthtrollers-engine/internal/model"
	"github.com/reedko/truthtrollers-engine/internal/search"
)

// DevDeps returns a fully deterministic dependency bundle: no network,
// no API keys, same output for the same input. The LLM paths are left
// disabled so both stages run their deterministic fallbacks.
func DevDeps() Deps {
	return Deps{
		LLM:       nil,
		WebSearch: &DevSearcher{},
		Fetcher: &fetch.StubFetcher{
			Default: "Synthetic source text. It exists so evidence enrichment has something to quote in offline runs.",
		},
		Storage: NewCacheStorage(cache.NewMemoryCache(5*time.Minute, 10*time.Minute), 5*time.Minute),
	}
}

// DevSearcher fabricates candidates from the query text itself, so runs
// are reproducible without a backend.
type DevSearcher struct{}

// Name returns the backend name
func (DevSearcher) Name() string {
	return "dev"
}

// Search returns two synthetic candidates derived from the query.
func (DevSearcher) Search(ctx context.Context, req search.Request) ([]model.CandidateDoc, error) {
	slug := querySlug(req.Query)

	docs := []model.CandidateDoc{
		{
			URL:     "https://example.org/evidence/" + slug,
			Title:   "Evidence for: " + req.Query,
			Domain:  "example.org",
			Snippet: "Synthetic result for " + req.Query,
			Score:   0.9,
			Source:  model.SourceWebSearch,
		},
		{
			URL:     "https://example.com/background/" + slug,
			Title:   "Background on: " + req.Query,
			Domain:  "example.com",
			Snippet: "Secondary synthetic result for " + req.Query,
			Score:   0.6,
			Source:  model.SourceWebSearch,
		},
	}

	if req.TopK > 0 && len(docs) > req.TopK {
		docs = docs[:req.TopK]
	}
	return docs, nil
}

// querySlug builds a stable URL path segment out of a query.
func querySlug(query string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(query) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == ':' || r == '.':
			b.WriteRune('-')
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = fmt.Sprintf("q%d", len(query))
	}
	if len(slug) > 60 {
		slug = slug[:60]
	}
	return slug
}
