package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/reedko/truthtrollers-engine/internal/llm"
)

// claimForQueries is one entry in the batch query-synthesis prompt.
type claimForQueries struct {
	Index int    `json:"i"`
	Text  string `json:"text"`
}

// queryBatchResponse is the strict-JSON contract for the synthesis call.
type queryBatchResponse struct {
	Items []struct {
		Index   int      `json:"i"`
		Queries []string `json:"queries"`
	} `json:"items"`
}

const querySchemaHint = `{"items":[{"i":0,"queries":["query one","query two"]}]}`

// synthesizeQueries turns claims into search queries through one batch
// LLM call. Returned indices are validated against the input set: an
// index the model dropped, invented, or answered with no queries counts
// as a miss, and the caller falls back locally for that claim. A failed
// call returns an error and the caller falls back for the whole batch.
func (e *Engine) synthesizeQueries(ctx context.Context, claims []claimForQueries) (map[int][]string, error) {
	payload, err := json.Marshal(claims)
	if err != nil {
		return nil, fmt.Errorf("marshal claims: %w", err)
	}

	user := fmt.Sprintf(`For each claim below, produce up to %d short web search queries that would surface evidence for or against it. Mix supporting, refuting and background angles. Keep "i" unchanged for alignment.

Claims:
%s`, e.cfg.QueriesPerClaim, payload)

	cctx, cancel := e.callContext(ctx)
	defer cancel()

	raw, err := e.deps.LLM.GenerateJSON(cctx, llm.Request{
		System:      "You generate web search queries for fact-checking claims. You respond with strict JSON only.",
		User:        user,
		SchemaHint:  querySchemaHint,
		Temperature: 0.2,
	})
	if err != nil {
		return nil, fmt.Errorf("query synthesis call: %w", err)
	}

	var parsed queryBatchResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("query synthesis response: %w", err)
	}
	if len(parsed.Items) == 0 {
		return nil, fmt.Errorf("query synthesis returned no items")
	}

	valid := make(map[int]bool, len(claims))
	for _, c := range claims {
		valid[c.Index] = true
	}

	out := make(map[int][]string, len(parsed.Items))
	for _, item := range parsed.Items {
		if !valid[item.Index] {
			// Index the model invented or misaligned: per-item miss
			continue
		}
		queries := trimQueries(item.Queries, e.cfg.QueriesPerClaim)
		if len(queries) == 0 {
			continue
		}
		out[item.Index] = queries
	}

	return out, nil
}

// localQueries is the deterministic fallback: pure string templating, so
// the same claim text always yields the same queries.
func localQueries(text string, limit int) []string {
	templates := []string{
		text,
		text + " fact check",
		text + " site:wikipedia.org",
		text + " site:reuters.com",
		text + " site:apnews.com",
	}
	if limit <= 0 || limit > len(templates) {
		limit = len(templates)
	}
	return templates[:limit]
}

// trimQueries drops blank entries and truncates to the configured cap.
func trimQueries(queries []string, limit int) []string {
	out := make([]string, 0, len(queries))
	for _, q := range queries {
		q = strings.TrimSpace(q)
		if q == "" {
			continue
		}
		out = append(out, q)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}
