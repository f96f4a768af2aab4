package engine

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/reedko/truthtrollers-engine/internal/cache"
	"github.com/reedko/truthtrollers-engine/internal/llm"
	"github.com/reedko/truthtrollers-engine/internal/model"
	"github.com/reedko/truthtrollers-engine/internal/search"
)

// countingStorage records every port invocation.
type countingStorage struct {
	gets, sets, persists atomic.Int64
}

func (s *countingStorage) CacheGet(key string) ([]byte, bool) {
	s.gets.Add(1)
	return nil, false
}

func (s *countingStorage) CacheSet(key string, value []byte, ttl time.Duration) error {
	s.sets.Add(1)
	return nil
}

func (s *countingStorage) PersistResults(ctx context.Context, result *model.MapResult) error {
	s.persists.Add(1)
	return nil
}

func rawClaims(texts ...string) []model.RawClaim {
	out := make([]model.RawClaim, len(texts))
	for i, t := range texts {
		out[i] = model.RawClaim{Text: t}
	}
	return out
}

func TestMapClaims_FastFailOnEmptyInput(t *testing.T) {
	llmStub := llm.NewStubClient(nil)
	searchStub := &search.StubSearcher{}
	storage := &countingStorage{}
	e := newTestEngine(model.EngineConfig{RefineQueriesWithLLM: true, PickWithLLM: true},
		Deps{LLM: llmStub, WebSearch: searchStub, Storage: storage})

	for _, claims := range [][]model.RawClaim{
		{},
		nil,
		rawClaims("", "   "),
	} {
		_, err := e.MapClaims(context.Background(), MapRequest{Claims: claims})
		if !errors.Is(err, ErrMissingClaims) {
			t.Errorf("claims %v: expected ErrMissingClaims, got %v", claims, err)
		}
	}

	if llmStub.CallCount != 0 {
		t.Errorf("LLM port invoked %d times before validation", llmStub.CallCount)
	}
	if searchStub.Calls() != 0 {
		t.Errorf("search port invoked %d times before validation", searchStub.Calls())
	}
	if storage.gets.Load() != 0 || storage.sets.Load() != 0 || storage.persists.Load() != 0 {
		t.Error("storage port invoked before validation")
	}
}

func TestMapClaims_SingleClaimHeuristicPick(t *testing.T) {
	// LLM selection disabled, one candidate: expect exactly one neutral
	// pick and one reference.
	searchStub := &search.StubSearcher{Default: []model.CandidateDoc{
		{URL: "https://example.edu/hydration", Title: "Hydration meta-analysis", Snippet: "..."},
	}}
	e := newTestEngine(model.EngineConfig{
		QueriesPerClaim:       4,
		SearchResultsPerClaim: 8,
		PicksPerClaim:         3,
		MaxConcurrency:        4,
	}, Deps{WebSearch: searchStub})

	result, err := e.MapClaims(context.Background(), MapRequest{
		Claims: rawClaims("Coffee causes dehydration"),
	})
	if err != nil {
		t.Fatalf("MapClaims: %v", err)
	}

	if !result.Success {
		t.Error("expected success")
	}
	if len(result.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(result.Items))
	}
	if len(result.Items[0].Picks) != 1 {
		t.Fatalf("expected 1 pick, got %d", len(result.Items[0].Picks))
	}
	if result.Items[0].Picks[0].Stance != model.StanceNeutral {
		t.Errorf("expected neutral stance, got %q", result.Items[0].Picks[0].Stance)
	}
	if len(result.References) != 1 {
		t.Fatalf("expected 1 reference, got %d", len(result.References))
	}
	if result.References[0].ContentName != "Hydration meta-analysis" {
		t.Errorf("unexpected reference name: %q", result.References[0].ContentName)
	}
}

func TestMapClaims_SharedURLMergesReferences(t *testing.T) {
	searchStub := &search.StubSearcher{Default: []model.CandidateDoc{
		{URL: "https://x.com/a", Title: "Shared source"},
	}}
	e := newTestEngine(model.EngineConfig{PicksPerClaim: 3}, Deps{WebSearch: searchStub})

	result, err := e.MapClaims(context.Background(), MapRequest{
		Claims: rawClaims("First claim", "Second claim"),
	})
	if err != nil {
		t.Fatalf("MapClaims: %v", err)
	}

	if len(result.References) != 1 {
		t.Fatalf("expected 1 merged reference, got %d", len(result.References))
	}
	ref := result.References[0]
	if len(ref.Claims) != 2 {
		t.Fatalf("expected both claims on the reference, got %v", ref.Claims)
	}
	if ref.Claims[0] != "First claim" || ref.Claims[1] != "Second claim" {
		t.Errorf("claims out of insertion order: %v", ref.Claims)
	}
	if ref.Origin != "claim" {
		t.Errorf("expected origin claim, got %q", ref.Origin)
	}

	// Exactly once each, even though both items cite the URL
	seen := map[string]int{}
	for _, c := range ref.Claims {
		seen[c]++
	}
	for c, n := range seen {
		if n != 1 {
			t.Errorf("claim %q appears %d times", c, n)
		}
	}
}

func TestMapClaims_OrderPreservedUnderConcurrency(t *testing.T) {
	// Five claims with one explicit query each, so each claim issues
	// exactly one search call. Earlier claims sleep longer, so
	// completion order inverts; output order must not.
	delays := map[string]time.Duration{
		"q0": 50 * time.Millisecond,
		"q1": 40 * time.Millisecond,
		"q2": 30 * time.Millisecond,
		"q3": 20 * time.Millisecond,
		"q4": 10 * time.Millisecond,
	}
	searchStub := &search.StubSearcher{
		Default: []model.CandidateDoc{{URL: "https://x.com/a", Title: "t"}},
		Delay:   func(q string) { time.Sleep(delays[q]) },
	}
	e := newTestEngine(model.EngineConfig{MaxConcurrency: 2, PicksPerClaim: 3}, Deps{WebSearch: searchStub})

	claims := []model.RawClaim{
		{Text: "claim zero", Queries: []string{"q0"}},
		{Text: "claim one", Queries: []string{"q1"}},
		{Text: "claim two", Queries: []string{"q2"}},
		{Text: "claim three", Queries: []string{"q3"}},
		{Text: "claim four", Queries: []string{"q4"}},
	}

	result, err := e.MapClaims(context.Background(), MapRequest{Claims: claims})
	if err != nil {
		t.Fatalf("MapClaims: %v", err)
	}

	if len(result.Items) != 5 {
		t.Fatalf("expected 5 items, got %d", len(result.Items))
	}
	for i, item := range result.Items {
		if item.Index != i {
			t.Errorf("position %d holds index %d", i, item.Index)
		}
		if item.Claim != claims[i].Text {
			t.Errorf("position %d: expected %q, got %q", i, claims[i].Text, item.Claim)
		}
	}

	if peak := searchStub.PeakInFlight(); peak > 2 {
		t.Errorf("expected at most 2 concurrent search calls, observed %d", peak)
	}
}

func TestMapClaims_GracefulDegradationWhenLLMAlwaysThrows(t *testing.T) {
	llmStub := llm.NewStubClient(func(req llm.Request) (json.RawMessage, error) {
		return nil, errors.New("provider down")
	})
	searchStub := &search.StubSearcher{Default: []model.CandidateDoc{
		{URL: "https://x.com/a", Title: "t"},
	}}
	e := newTestEngine(model.EngineConfig{
		RefineQueriesWithLLM: true,
		PickWithLLM:          true,
		PicksPerClaim:        3,
	}, Deps{LLM: llmStub, WebSearch: searchStub})

	result, err := e.MapClaims(context.Background(), MapRequest{
		Claims: rawClaims("A claim", "Another claim"),
	})
	if err != nil {
		t.Fatalf("MapClaims must not fail on LLM outage: %v", err)
	}

	if !result.Success {
		t.Error("expected success despite LLM outage")
	}
	for i, item := range result.Items {
		if len(item.Picks) == 0 {
			t.Errorf("item %d: expected heuristic picks", i)
		}
	}
	if result.Meta.QueryFallbacks != 2 {
		t.Errorf("expected 2 query fallbacks, got %d", result.Meta.QueryFallbacks)
	}
	if result.Meta.PickFallbacks != 2 {
		t.Errorf("expected 2 pick fallbacks, got %d", result.Meta.PickFallbacks)
	}
}

func TestMapClaims_BoundedOutputSizes(t *testing.T) {
	var many []model.CandidateDoc
	for i := 0; i < 30; i++ {
		many = append(many, model.CandidateDoc{URL: "https://x.com/" + string(rune('a'+i)), Title: "t"})
	}
	searchStub := &search.StubSearcher{Default: many}
	e := newTestEngine(model.EngineConfig{
		QueriesPerClaim:       4,
		SearchResultsPerClaim: 8,
		PicksPerClaim:         3,
	}, Deps{WebSearch: searchStub})

	result, err := e.MapClaims(context.Background(), MapRequest{
		Claims:        rawClaims("A well-travelled claim"),
		ReturnQueries: true,
	})
	if err != nil {
		t.Fatalf("MapClaims: %v", err)
	}

	item := result.Items[0]
	if len(item.Queries) > 4 {
		t.Errorf("queries exceed cap: %d", len(item.Queries))
	}
	if len(item.Picks) > 3 {
		t.Errorf("picks exceed cap: %d", len(item.Picks))
	}
	if result.Meta.CandidateCount > 8 {
		t.Errorf("candidates exceed cap: %d", result.Meta.CandidateCount)
	}
}

func TestMapClaims_QueriesOmittedUnlessRequested(t *testing.T) {
	e := newTestEngine(model.EngineConfig{}, Deps{WebSearch: &search.StubSearcher{}})

	result, err := e.MapClaims(context.Background(), MapRequest{Claims: rawClaims("claim")})
	if err != nil {
		t.Fatalf("MapClaims: %v", err)
	}
	if result.Items[0].Queries != nil {
		t.Error("queries should be omitted unless return_queries is set")
	}

	result, err = e.MapClaims(context.Background(), MapRequest{Claims: rawClaims("claim"), ReturnQueries: true})
	if err != nil {
		t.Fatalf("MapClaims: %v", err)
	}
	if len(result.Items[0].Queries) == 0 {
		t.Error("queries should be present when return_queries is set")
	}
}

func TestMapClaims_CallerQueriesSkipSynthesis(t *testing.T) {
	llmStub := llm.NewStubClient(func(req llm.Request) (json.RawMessage, error) {
		t.Error("LLM must not be called when all claims carry queries")
		return nil, nil
	})
	searchStub := &search.StubSearcher{}
	e := newTestEngine(model.EngineConfig{RefineQueriesWithLLM: true},
		Deps{LLM: llmStub, WebSearch: searchStub})

	_, err := e.MapClaims(context.Background(), MapRequest{Claims: []model.RawClaim{
		{Text: "claim", Queries: []string{"given query"}},
	}})
	if err != nil {
		t.Fatalf("MapClaims: %v", err)
	}

	qs := searchStub.Queries()
	if len(qs) != 1 || qs[0] != "given query" {
		t.Errorf("expected the caller query to be used verbatim, got %v", qs)
	}
}

func TestMapClaims_CacheHitOnRepeat(t *testing.T) {
	storage := NewCacheStorage(cache.NewMemoryCache(time.Minute, time.Minute), time.Minute)
	searchStub := &search.StubSearcher{Default: []model.CandidateDoc{{URL: "https://x.com/a"}}}
	e := newTestEngine(model.EngineConfig{}, Deps{WebSearch: searchStub, Storage: storage})

	req := MapRequest{Claims: rawClaims("cached claim")}

	first, err := e.MapClaims(context.Background(), req)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Meta.CacheHit {
		t.Error("first run must not be a cache hit")
	}

	callsAfterFirst := searchStub.Calls()

	second, err := e.MapClaims(context.Background(), req)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if !second.Meta.CacheHit {
		t.Error("second run should be served from cache")
	}
	if searchStub.Calls() != callsAfterFirst {
		t.Error("cache hit must not re-run searches")
	}
	if len(second.Items) != len(first.Items) {
		t.Error("cached result should match the original")
	}
}

func TestBuildReferences_FirstNonEmptyTitleWins(t *testing.T) {
	items := []model.ClaimItem{
		{Claim: "c1", Picks: []model.Pick{{URL: "https://x.com/a", Title: ""}}},
		{Claim: "c2", Picks: []model.Pick{{URL: "https://x.com/a", Title: "Late title"}}},
	}

	refs := buildReferences(items)
	if len(refs) != 1 {
		t.Fatalf("expected 1 reference, got %d", len(refs))
	}
	if refs[0].ContentName != "Late title" {
		t.Errorf("expected later non-empty title to fill the gap, got %q", refs[0].ContentName)
	}
}

func TestMapClaims_DevDepsDeterministic(t *testing.T) {
	runOnce := func() *model.MapResult {
		deps := DevDeps()
		deps.Storage = NopStorage{} // isolate runs from each other
		e := newTestEngine(model.EngineConfig{
			QueriesPerClaim:       4,
			SearchResultsPerClaim: 8,
			PicksPerClaim:         3,
			MaxConcurrency:        4,
		}, deps)
		result, err := e.MapClaims(context.Background(), MapRequest{
			Claims:        rawClaims("The moon landing happened in 1969"),
			ReturnQueries: true,
		})
		if err != nil {
			t.Fatalf("MapClaims: %v", err)
		}
		return result
	}

	a, b := runOnce(), runOnce()

	ja, _ := json.Marshal(struct {
		Items []model.ClaimItem
		Refs  []model.Reference
	}{a.Items, a.References})
	jb, _ := json.Marshal(struct {
		Items []model.ClaimItem
		Refs  []model.Reference
	}{b.Items, b.References})

	if string(ja) != string(jb) {
		t.Errorf("dev runs are not deterministic:\n%s\n%s", ja, jb)
	}
	if len(a.Items[0].Picks) == 0 {
		t.Error("dev run should produce picks")
	}
}
