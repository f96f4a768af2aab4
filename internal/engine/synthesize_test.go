package engine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"reflect"
	"testing"

	"github.com/reedko/truthtrollers-engine/internal/llm"
	"github.com/reedko/truthtrollers-engine/internal/model"
	"github.com/reedko/truthtrollers-engine/internal/search"
)

func newTestEngine(cfg model.EngineConfig, deps Deps) *Engine {
	if deps.WebSearch == nil {
		deps.WebSearch = &search.StubSearcher{}
	}
	if deps.Log == nil {
		deps.Log = io.Discard
	}
	return New(cfg, deps)
}

func TestLocalQueries_Deterministic(t *testing.T) {
	// Same claim text must always produce identical fallback queries
	a := localQueries("Coffee causes dehydration", 4)
	b := localQueries("Coffee causes dehydration", 4)

	if !reflect.DeepEqual(a, b) {
		t.Errorf("fallback queries are not deterministic: %v vs %v", a, b)
	}
	if len(a) != 4 {
		t.Errorf("expected 4 queries, got %d", len(a))
	}
	if a[0] != "Coffee causes dehydration" {
		t.Errorf("first query should be the claim itself, got %q", a[0])
	}
	if a[1] != "Coffee causes dehydration fact check" {
		t.Errorf("unexpected second query: %q", a[1])
	}
}

func TestLocalQueries_Limit(t *testing.T) {
	if got := len(localQueries("claim", 2)); got != 2 {
		t.Errorf("expected 2 queries, got %d", got)
	}
	// Limit beyond the template count returns all templates
	if got := len(localQueries("claim", 10)); got != 5 {
		t.Errorf("expected 5 queries, got %d", got)
	}
	if got := len(localQueries("claim", 0)); got != 5 {
		t.Errorf("expected 5 queries for zero limit, got %d", got)
	}
}

func TestSynthesizeQueries_AlignedResponse(t *testing.T) {
	stub := llm.NewStubClient(func(req llm.Request) (json.RawMessage, error) {
		return json.RawMessage(`{"items":[
			{"i":0,"queries":["q0a","q0b"]},
			{"i":1,"queries":["q1a"]}
		]}`), nil
	})
	e := newTestEngine(model.EngineConfig{QueriesPerClaim: 4}, Deps{LLM: stub})

	out, err := e.synthesizeQueries(context.Background(), []claimForQueries{
		{Index: 0, Text: "first"},
		{Index: 1, Text: "second"},
	})
	if err != nil {
		t.Fatalf("synthesizeQueries: %v", err)
	}

	if !reflect.DeepEqual(out[0], []string{"q0a", "q0b"}) {
		t.Errorf("claim 0: got %v", out[0])
	}
	if !reflect.DeepEqual(out[1], []string{"q1a"}) {
		t.Errorf("claim 1: got %v", out[1])
	}
}

func TestSynthesizeQueries_IndexMismatchIsAMiss(t *testing.T) {
	// The model invents index 7 and drops index 1: both are misses,
	// never trusted.
	stub := llm.NewStubClient(func(req llm.Request) (json.RawMessage, error) {
		return json.RawMessage(`{"items":[
			{"i":0,"queries":["ok"]},
			{"i":7,"queries":["hallucinated"]}
		]}`), nil
	})
	e := newTestEngine(model.EngineConfig{QueriesPerClaim: 4}, Deps{LLM: stub})

	out, err := e.synthesizeQueries(context.Background(), []claimForQueries{
		{Index: 0, Text: "first"},
		{Index: 1, Text: "second"},
	})
	if err != nil {
		t.Fatalf("synthesizeQueries: %v", err)
	}

	if _, ok := out[7]; ok {
		t.Error("invented index must be discarded")
	}
	if _, ok := out[1]; ok {
		t.Error("dropped index must stay a miss")
	}
	if !reflect.DeepEqual(out[0], []string{"ok"}) {
		t.Errorf("claim 0: got %v", out[0])
	}
}

func TestSynthesizeQueries_TruncatesToCap(t *testing.T) {
	stub := llm.NewStubClient(func(req llm.Request) (json.RawMessage, error) {
		return json.RawMessage(`{"items":[{"i":0,"queries":["a","b","c","d","e","f"]}]}`), nil
	})
	e := newTestEngine(model.EngineConfig{QueriesPerClaim: 3}, Deps{LLM: stub})

	out, err := e.synthesizeQueries(context.Background(), []claimForQueries{{Index: 0, Text: "x"}})
	if err != nil {
		t.Fatalf("synthesizeQueries: %v", err)
	}
	if len(out[0]) != 3 {
		t.Errorf("expected 3 queries after truncation, got %d", len(out[0]))
	}
}

func TestSynthesizeQueries_EmptyItemsIsError(t *testing.T) {
	stub := llm.NewStubClient(func(req llm.Request) (json.RawMessage, error) {
		return json.RawMessage(`{"items":[]}`), nil
	})
	e := newTestEngine(model.EngineConfig{QueriesPerClaim: 4}, Deps{LLM: stub})

	if _, err := e.synthesizeQueries(context.Background(), []claimForQueries{{Index: 0, Text: "x"}}); err == nil {
		t.Error("empty item list should be reported so the caller falls back")
	}
}

func TestSynthesizeQueries_CallErrorPropagates(t *testing.T) {
	stub := llm.NewStubClient(func(req llm.Request) (json.RawMessage, error) {
		return nil, errors.New("provider down")
	})
	e := newTestEngine(model.EngineConfig{QueriesPerClaim: 4}, Deps{LLM: stub})

	if _, err := e.synthesizeQueries(context.Background(), []claimForQueries{{Index: 0, Text: "x"}}); err == nil {
		t.Error("transport error should propagate for batch-wide fallback")
	}
}

func TestTrimQueries(t *testing.T) {
	got := trimQueries([]string{"  a  ", "", "b", "   ", "c"}, 2)
	if !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("expected trimmed and capped queries, got %v", got)
	}
}
