package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/reedko/truthtrollers-engine/internal/model"
	"github.com/reedko/truthtrollers-engine/internal/search"
)

// searchClaim fans one claim's queries out to the search backends in
// parallel, then merges: flatten in query submission order, dedupe by
// URL first-wins, truncate to the per-claim cap. A failed query logs
// and contributes zero candidates; the siblings are unaffected.
//
// Queries within one claim are not bounded by the claim-level pool, so
// total in-flight requests can transiently reach
// MaxConcurrency * QueriesPerClaim.
func (e *Engine) searchClaim(ctx context.Context, claimText string, queries []string, prefer, avoid []string) []model.CandidateDoc {
	strict := e.cfg.StrictDomainFilter

	// The optional internal corpus is asked once per claim; its hits
	// outrank the web results in the merge.
	var internalDocs []model.CandidateDoc
	var wg sync.WaitGroup

	if e.deps.InternalSearch != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cctx, cancel := e.callContext(ctx)
			defer cancel()
			docs, err := e.deps.InternalSearch.Search(cctx, search.Request{
				Query:  claimText,
				TopK:   e.cfg.SearchResultsPerClaim,
				Prefer: prefer,
				Strict: strict,
				Avoid:  avoid,
			})
			if err != nil {
				e.warnf("internal search failed for %q: %v", claimText, err)
				return
			}
			internalDocs = docs
		}()
	}

	perQuery := make([][]model.CandidateDoc, len(queries))
	for qi, q := range queries {
		wg.Add(1)
		go func(qi int, q string) {
			defer wg.Done()
			cctx, cancel := e.callContext(ctx)
			defer cancel()
			docs, err := e.deps.WebSearch.Search(cctx, search.Request{
				Query:  q,
				TopK:   e.cfg.SearchResultsPerClaim,
				Prefer: prefer,
				Strict: strict,
				Avoid:  avoid,
			})
			if err != nil {
				e.warnf("search failed for %q: %v", q, err)
				return
			}
			perQuery[qi] = docs
		}(qi, q)
	}
	wg.Wait()

	merged := make([]model.CandidateDoc, 0, e.cfg.SearchResultsPerClaim)
	seen := make(map[string]bool)

	add := func(docs []model.CandidateDoc) {
		for _, doc := range docs {
			if doc.URL == "" || seen[doc.URL] {
				continue
			}
			seen[doc.URL] = true
			merged = append(merged, doc)
		}
	}

	add(internalDocs)
	for _, docs := range perQuery {
		add(docs)
	}

	if len(merged) > e.cfg.SearchResultsPerClaim {
		merged = merged[:e.cfg.SearchResultsPerClaim]
	}

	return merged
}

// warnf writes a degradation warning to the configured log writer.
func (e *Engine) warnf(format string, args ...any) {
	fmt.Fprintf(e.log, "Warning: "+format+"\n", args...)
}
