// Package engine implements the claim-to-evidence mapping pipeline:
// query synthesis, search fan-out, evidence selection and aggregation,
// behind injected capability ports.
package engine

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	"github.com/reedko/truthtrollers-engine/internal/cache"
	"github.com/reedko/truthtrollers-engine/internal/model"
	"github.com/reedko/truthtrollers-engine/internal/worker"
)

// Engine orchestrates claim mapping. It holds no per-invocation state:
// every MapClaims call is independent, and idempotent when the cache is
// disabled.
type Engine struct {
	cfg  model.EngineConfig
	deps Deps
	log  io.Writer
}

// New creates an engine with the given configuration and ports.
func New(cfg model.EngineConfig, deps Deps) *Engine {
	if cfg.QueriesPerClaim <= 0 {
		cfg.QueriesPerClaim = 4
	}
	if cfg.SearchResultsPerClaim <= 0 {
		cfg.SearchResultsPerClaim = 8
	}
	if cfg.PicksPerClaim <= 0 {
		cfg.PicksPerClaim = 3
	}
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = 4
	}
	if deps.Storage == nil {
		deps.Storage = NopStorage{}
	}

	log := deps.Log
	if log == nil {
		log = os.Stderr
	}

	return &Engine{cfg: cfg, deps: deps, log: log}
}

// MapRequest is one mapping invocation.
type MapRequest struct {
	Claims        []model.RawClaim `json:"claims"`
	PreferDomains []string         `json:"prefer_domains,omitempty"`
	AvoidDomains  []string         `json:"avoid_domains,omitempty"`
	ReturnQueries bool             `json:"return_queries,omitempty"`
}

// claimWork is the per-claim state threaded through the stages.
type claimWork struct {
	index   int
	text    string
	queries []string
}

// MapClaims runs the full pipeline: normalize, resolve queries, search
// fan-out, evidence selection, aggregation. Output items are ordered by
// input claim index regardless of completion order. The only hard
// failure is ErrMissingClaims; everything downstream degrades into the
// result body.
func (e *Engine) MapClaims(ctx context.Context, req MapRequest) (*model.MapResult, error) {
	start := time.Now()

	// 1. Normalize. This must reject empty input before any port call.
	claims := normalizeClaims(req.Claims)
	if len(claims) == 0 {
		return nil, ErrMissingClaims
	}

	prefer := req.PreferDomains
	if len(prefer) == 0 {
		prefer = e.cfg.PreferDomains
	}
	avoid := req.AvoidDomains
	if len(avoid) == 0 {
		avoid = e.cfg.AvoidDomains
	}

	cacheKey := requestCacheKey(claims, prefer, avoid, req.ReturnQueries)
	if data, ok := e.deps.Storage.CacheGet(cacheKey); ok {
		var cached model.MapResult
		if err := json.Unmarshal(data, &cached); err == nil {
			cached.Meta.CacheHit = true
			cached.TookMS = time.Since(start).Milliseconds()
			return &cached, nil
		}
		// Corrupt cache entry: recompute
	}

	meta := model.MapMeta{ClaimCount: len(claims)}

	// 2. Resolve queries: LLM batch for claims lacking them, then the
	// deterministic local fallback for anything still uncovered.
	e.resolveQueries(ctx, claims, &meta)

	// 3. Search fan-out across claims, bounded worker pool.
	searchResults := worker.MapOrdered(ctx, claims, e.cfg.MaxConcurrency,
		func(ctx context.Context, i int, cw *claimWork) ([]model.CandidateDoc, error) {
			return e.searchClaim(ctx, cw.text, cw.queries, prefer, avoid), nil
		})

	// 4. Evidence selection, same pool shape and cap.
	type selection struct {
		picks    []model.Pick
		fallback bool
	}
	pickResults := worker.MapOrdered(ctx, claims, e.cfg.MaxConcurrency,
		func(ctx context.Context, i int, cw *claimWork) (selection, error) {
			candidates := searchResults[i].Value
			picks, fallback := e.selectEvidence(ctx, cw.text, candidates)
			return selection{picks: picks, fallback: fallback}, nil
		})

	// 5. Aggregate.
	items := make([]model.ClaimItem, len(claims))
	for i, cw := range claims {
		item := model.ClaimItem{
			Index: cw.index,
			Claim: cw.text,
			Picks: []model.Pick{},
		}
		if req.ReturnQueries {
			item.Queries = cw.queries
		}

		if err := searchResults[i].Err; err != nil {
			item.Error = err.Error()
		}
		candidates := searchResults[i].Value
		meta.CandidateCount += len(candidates)

		if err := pickResults[i].Err; err != nil {
			if item.Error == "" {
				item.Error = err.Error()
			}
		} else {
			item.Picks = pickResults[i].Value.picks
			if pickResults[i].Value.fallback {
				meta.PickFallbacks++
			}
		}
		meta.PickCount += len(item.Picks)
		meta.QueryCount += len(cw.queries)

		items[i] = item
	}

	meta.LLMPicks = e.cfg.PickWithLLM && e.deps.LLM != nil
	if e.deps.WebSearch != nil {
		meta.SearchBackend = e.deps.WebSearch.Name()
	}

	result := &model.MapResult{
		Success:    true,
		Items:      items,
		References: buildReferences(items),
		TookMS:     time.Since(start).Milliseconds(),
		Meta:       meta,
	}

	if data, err := json.Marshal(result); err == nil {
		if err := e.deps.Storage.CacheSet(cacheKey, data, 0); err != nil {
			e.warnf("result cache write failed: %v", err)
		}
	}
	if err := e.deps.Storage.PersistResults(ctx, result); err != nil {
		e.warnf("persist results failed: %v", err)
	}

	return result, nil
}

// resolveQueries fills in queries for every claim: caller-supplied ones
// are kept, the LLM batch covers the rest, and the local templates cover
// any miss. A whole-batch LLM failure falls back for the whole batch and
// never aborts claims that already have queries.
func (e *Engine) resolveQueries(ctx context.Context, claims []*claimWork, meta *model.MapMeta) {
	var needs []claimForQueries
	for _, cw := range claims {
		cw.queries = trimQueries(cw.queries, e.cfg.QueriesPerClaim)
		if len(cw.queries) == 0 {
			needs = append(needs, claimForQueries{Index: cw.index, Text: cw.text})
		}
	}
	if len(needs) == 0 {
		return
	}

	var synthesized map[int][]string
	if e.cfg.RefineQueriesWithLLM && e.deps.LLM != nil {
		meta.LLMQueries = true
		var err error
		synthesized, err = e.synthesizeQueries(ctx, needs)
		if err != nil {
			e.warnf("query synthesis degraded to local templates: %v", err)
		}
	}

	for _, cw := range claims {
		if len(cw.queries) > 0 {
			continue
		}
		if qs, ok := synthesized[cw.index]; ok {
			cw.queries = qs
			continue
		}
		cw.queries = localQueries(cw.text, e.cfg.QueriesPerClaim)
		meta.QueryFallbacks++
	}
}

// normalizeClaims trims claim text, drops empty entries, and assigns
// stable indices over the surviving claims.
func normalizeClaims(raw []model.RawClaim) []*claimWork {
	claims := make([]*claimWork, 0, len(raw))
	for _, rc := range raw {
		text := strings.TrimSpace(rc.Text)
		if text == "" {
			continue
		}
		claims = append(claims, &claimWork{
			index:   len(claims),
			text:    text,
			queries: rc.Queries,
		})
	}
	return claims
}

// buildReferences deduplicates all picks across claims by URL. The first
// non-empty title seen for a URL names the reference; claim texts are a
// set in insertion order.
func buildReferences(items []model.ClaimItem) []model.Reference {
	byURL := make(map[string]int)
	refs := make([]model.Reference, 0)

	for _, item := range items {
		for _, pick := range item.Picks {
			if pick.URL == "" {
				continue
			}

			idx, ok := byURL[pick.URL]
			if !ok {
				byURL[pick.URL] = len(refs)
				refs = append(refs, model.Reference{
					URL:         pick.URL,
					ContentName: pick.Title,
					Origin:      "claim",
					Claims:      []string{item.Claim},
				})
				continue
			}

			ref := &refs[idx]
			if ref.ContentName == "" {
				ref.ContentName = pick.Title
			}
			if !containsString(ref.Claims, item.Claim) {
				ref.Claims = append(ref.Claims, item.Claim)
			}
		}
	}

	return refs
}

// requestCacheKey fingerprints the normalized request for idempotent
// re-runs.
func requestCacheKey(claims []*claimWork, prefer, avoid []string, returnQueries bool) string {
	var b strings.Builder
	for _, cw := range claims {
		b.WriteString(cw.text)
		b.WriteString("\x1f")
		b.WriteString(strings.Join(cw.queries, "\x1e"))
		b.WriteString("\x1d")
	}
	b.WriteString(strings.Join(prefer, ","))
	b.WriteString("|")
	b.WriteString(strings.Join(avoid, ","))
	if returnQueries {
		b.WriteString("|q")
	}
	return cache.CacheKey(b.String())
}

// callContext bounds a single outbound call so a hung backend cannot
// hold a pool slot forever.
func (e *Engine) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if e.cfg.CallTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, e.cfg.CallTimeout)
}

func containsString(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
